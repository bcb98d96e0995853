// Package otelhook records cache hook events as OpenTelemetry metric counters.
//
//	hooks, err := otelhook.New(meterProvider, "complaint_pages")
//
// A nil MeterProvider uses the global one (otel.GetMeterProvider).
package otelhook

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/unkn0wn-root/pagecache"
)

const scopeName = "github.com/unkn0wn-root/pagecache"

const (
	metricLookups     = "pagecache.lookups"
	metricCoalesced   = "pagecache.coalesced"
	metricSuperseded  = "pagecache.superseded"
	metricFailures    = "pagecache.fetch.failures"
	metricStaleWrites = "pagecache.stale_writes.rejected"
	metricSelfHealed  = "pagecache.self_healed"
	metricSwept       = "pagecache.swept"
	metricInvalidated = "pagecache.invalidated"
)

type Hooks struct {
	lookups     metric.Int64Counter
	coalesced   metric.Int64Counter
	superseded  metric.Int64Counter
	failures    metric.Int64Counter
	staleWrites metric.Int64Counter
	selfHealed  metric.Int64Counter
	swept       metric.Int64Counter
	invalidated metric.Int64Counter

	cache     attribute.KeyValue
	base      metric.MeasurementOption
	hit, miss metric.MeasurementOption
}

var _ pagecache.Hooks = (*Hooks)(nil)

func New(mp metric.MeterProvider, cache string) (*Hooks, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(scopeName)

	h := &Hooks{cache: attribute.String("cache", cache)}
	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
		unit string
	}{
		{&h.lookups, metricLookups, "Cache lookups by result", "{lookup}"},
		{&h.coalesced, metricCoalesced, "Callers that joined a fetch in flight", "{call}"},
		{&h.superseded, metricSuperseded, "Debounced fetchers replaced before running", "{call}"},
		{&h.failures, metricFailures, "Fetch executions that failed or panicked", "{fetch}"},
		{&h.staleWrites, metricStaleWrites, "Fetched values not stored because of a concurrent invalidation", "{write}"},
		{&h.selfHealed, metricSelfHealed, "Unreadable entries dropped on read", "{entry}"},
		{&h.swept, metricSwept, "Expired entries removed by sweeps", "{entry}"},
		{&h.invalidated, metricInvalidated, "Entries removed by invalidation", "{entry}"},
	}
	for _, c := range counters {
		ctr, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit(c.unit))
		if err != nil {
			return nil, err
		}
		*c.dst = ctr
	}

	h.base = metric.WithAttributeSet(attribute.NewSet(h.cache))
	h.hit = metric.WithAttributeSet(attribute.NewSet(h.cache, attribute.String("result", "hit")))
	h.miss = metric.WithAttributeSet(attribute.NewSet(h.cache, attribute.String("result", "miss")))
	return h, nil
}

// Hook methods have no request context; counters are recorded against Background.
func (h *Hooks) add(c metric.Int64Counter, n int64, opt metric.MeasurementOption) {
	c.Add(context.Background(), n, opt)
}

func (h *Hooks) Hit(any)                { h.add(h.lookups, 1, h.hit) }
func (h *Hooks) Miss(any)               { h.add(h.lookups, 1, h.miss) }
func (h *Hooks) Coalesced(any)          { h.add(h.coalesced, 1, h.base) }
func (h *Hooks) Superseded(any)         { h.add(h.superseded, 1, h.base) }
func (h *Hooks) FetchFailed(any, error) { h.add(h.failures, 1, h.base) }
func (h *Hooks) StaleWriteRejected(any) { h.add(h.staleWrites, 1, h.base) }
func (h *Hooks) SelfHealed(_ any, reason string) {
	h.add(h.selfHealed, 1, metric.WithAttributes(h.cache, attribute.String("reason", reason)))
}
func (h *Hooks) Swept(n int)       { h.add(h.swept, int64(n), h.base) }
func (h *Hooks) Invalidated(n int) { h.add(h.invalidated, int64(n), h.base) }
