package pagecache

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	c "github.com/unkn0wn-root/pagecache/codec"
	"github.com/unkn0wn-root/pagecache/config"
	pr "github.com/unkn0wn-root/pagecache/provider"
)

const (
	DefaultTTL            = 10 * time.Second
	DefaultSweepInterval  = 60 * time.Second
	DefaultDebounceWindow = 300 * time.Millisecond
	// GeneralDebounceWindow suits general requests (refresh buttons, counts)
	// rather than paging.
	GeneralDebounceWindow = time.Second
)

// Fetcher loads the value for one key from the backend. ctx is detached from
// the callers that triggered the fetch and is cancelled by Close.
type Fetcher[V any] func(ctx context.Context) (V, error)

// Options tune the Controller. The zero value is usable: in-process values,
// 10s TTL, 60s sweep, 300ms leading-edge debounce.
type Options[K comparable, V any] struct {
	TTL            time.Duration // default entry TTL; 0 => 10s
	SweepInterval  time.Duration // 0 => 60s; < 0 disables the background sweep
	DebounceWindow time.Duration // 0 => 300ms; < 0 disables debouncing
	TrailingEdge   bool          // debounce every call, including the first after idle
	ExecTimeout    time.Duration // bound on each fetch; 0 => none

	Clock clockwork.Clock // nil => real clock
	Logger Logger         // nil => NopLogger
	Hooks  Hooks          // nil => NopHooks

	// Codec stores values encoded so callers never share memory with the
	// cache. Required with Provider.
	Codec c.Codec[V]
	// Provider holds encoded payloads outside the Go heap (e.g. BigCache).
	Provider  pr.Provider
	Namespace string        // provider key prefix; required with Provider
	Retention time.Duration // how long invalidations guard in-flight fetches; 0 => 10m
}

// ApplyConfig copies the non-zero settings of cfg onto o.
func (o *Options[K, V]) ApplyConfig(cfg config.Config) {
	if cfg.TTL != 0 {
		o.TTL = cfg.TTL
	}
	if cfg.SweepInterval != 0 {
		o.SweepInterval = cfg.SweepInterval
	}
	if cfg.DebounceWindow != 0 {
		o.DebounceWindow = cfg.DebounceWindow
	}
	if cfg.Retention != 0 {
		o.Retention = cfg.Retention
	}
	if cfg.ExecTimeout != 0 {
		o.ExecTimeout = cfg.ExecTimeout
	}
	if cfg.TrailingEdge {
		o.TrailingEdge = true
	}
	if cfg.Namespace != "" {
		o.Namespace = cfg.Namespace
	}
}

// Stats is a point-in-time snapshot of controller counters.
type Stats struct {
	Hits        uint64
	Misses      uint64
	Executions  uint64 // fetcher invocations
	Coalesced   uint64 // callers that joined a fetch in flight
	Deferred    uint64 // callers whose fetch was debounced
	Superseded  uint64 // debounced fetchers replaced before running
	Failures    uint64 // executions that returned an error or panicked
	StaleWrites uint64 // fetched values dropped because of a concurrent invalidation
	Swept       uint64 // entries removed by sweeps

	Entries  int // entries held, including stale ones not yet swept
	InFlight int
	Pending  int
}
