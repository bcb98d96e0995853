// Package promhook exports cache hook events as Prometheus counters.
//
//	reg := prometheus.NewRegistry()
//	hooks, err := promhook.New(reg, "complaint_pages")
//	ctl, _ := pagecache.New(pagecache.Options[pagecache.PageKey, Page]{Hooks: hooks})
//
// Keys are not used as labels; every series carries only the constant
// "cache" label (and "reason" for self-heals).
package promhook

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/unkn0wn-root/pagecache"
)

type Hooks struct {
	lookups     *prometheus.CounterVec
	coalesced   prometheus.Counter
	superseded  prometheus.Counter
	failures    prometheus.Counter
	staleWrites prometheus.Counter
	selfHealed  *prometheus.CounterVec
	swept       prometheus.Counter
	invalidated prometheus.Counter

	hit, miss prometheus.Counter
}

var _ pagecache.Hooks = (*Hooks)(nil)

// New creates the counters and registers them with reg
// (prometheus.DefaultRegisterer when nil).
func New(reg prometheus.Registerer, cache string) (*Hooks, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	labels := prometheus.Labels{"cache": cache}

	h := &Hooks{
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "pagecache_lookups_total",
			Help:        "Total cache lookups by result",
			ConstLabels: labels,
		}, []string{"result"}),
		coalesced: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "pagecache_coalesced_total",
			Help:        "Total callers that joined a fetch in flight",
			ConstLabels: labels,
		}),
		superseded: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "pagecache_superseded_total",
			Help:        "Total debounced fetchers replaced before running",
			ConstLabels: labels,
		}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "pagecache_fetch_failures_total",
			Help:        "Total fetch executions that failed or panicked",
			ConstLabels: labels,
		}),
		staleWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "pagecache_stale_writes_rejected_total",
			Help:        "Total fetched values not stored because of a concurrent invalidation",
			ConstLabels: labels,
		}),
		selfHealed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "pagecache_self_healed_total",
			Help:        "Total unreadable entries dropped on read",
			ConstLabels: labels,
		}, []string{"reason"}),
		swept: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "pagecache_swept_entries_total",
			Help:        "Total expired entries removed by sweeps",
			ConstLabels: labels,
		}),
		invalidated: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "pagecache_invalidated_entries_total",
			Help:        "Total entries removed by invalidation",
			ConstLabels: labels,
		}),
	}
	for _, c := range []prometheus.Collector{
		h.lookups, h.coalesced, h.superseded, h.failures,
		h.staleWrites, h.selfHealed, h.swept, h.invalidated,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	h.hit = h.lookups.WithLabelValues("hit")
	h.miss = h.lookups.WithLabelValues("miss")
	return h, nil
}

func (h *Hooks) Hit(any)                { h.hit.Inc() }
func (h *Hooks) Miss(any)               { h.miss.Inc() }
func (h *Hooks) Coalesced(any)          { h.coalesced.Inc() }
func (h *Hooks) Superseded(any)         { h.superseded.Inc() }
func (h *Hooks) FetchFailed(any, error) { h.failures.Inc() }
func (h *Hooks) StaleWriteRejected(any) { h.staleWrites.Inc() }
func (h *Hooks) SelfHealed(_ any, reason string) {
	h.selfHealed.WithLabelValues(reason).Inc()
}
func (h *Hooks) Swept(n int)       { h.swept.Add(float64(n)) }
func (h *Hooks) Invalidated(n int) { h.invalidated.Add(float64(n)) }
