package pagecache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/unkn0wn-root/pagecache/coalesce"
	"github.com/unkn0wn-root/pagecache/internal/defaults"
	"github.com/unkn0wn-root/pagecache/store"
)

// Controller serves values from a TTL store and fills misses through a
// coalescing, debouncing fetch. Safe for concurrent use.
type Controller[K comparable, V any] struct {
	store *store.Store[K, V]
	group *coalesce.Group[K, V]

	clock  clockwork.Clock
	ttl    time.Duration
	window time.Duration
	sweep  time.Duration
	log    Logger
	hooks  Hooks

	hits, misses, failures, staleWrites, swept atomic.Uint64

	closed    atomic.Bool
	stopCh    chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

func New[K comparable, V any](opts Options[K, V]) (*Controller[K, V], error) {
	if opts.TTL < 0 || opts.ExecTimeout < 0 || opts.Retention < 0 {
		return nil, fmt.Errorf("%w: negative ttl, exec timeout or retention", ErrInvalidConfig)
	}

	ctl := &Controller[K, V]{}
	ctl.clock = defaults.Coalesce[clockwork.Clock](opts.Clock, clockwork.NewRealClock())
	ctl.log = defaults.Coalesce[Logger](opts.Logger, NopLogger{})
	ctl.hooks = defaults.Coalesce[Hooks](opts.Hooks, NopHooks{})
	ctl.ttl = defaults.Coalesce(opts.TTL, DefaultTTL)
	ctl.window = defaults.Coalesce(opts.DebounceWindow, DefaultDebounceWindow)
	ctl.window = max(ctl.window, 0)
	ctl.sweep = defaults.Coalesce(opts.SweepInterval, DefaultSweepInterval)

	st, err := store.New(store.Options[K, V]{
		DefaultTTL: ctl.ttl,
		Clock:      ctl.clock,
		Codec:      opts.Codec,
		Provider:   opts.Provider,
		Namespace:  opts.Namespace,
		Retention:  opts.Retention,
		Logger:     ctl.log,
		OnSelfHeal: func(k K, reason string) { ctl.hooks.SelfHealed(k, reason) },
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	ctl.store = st
	ctl.group = coalesce.New[K, V](coalesce.Options[K]{
		Clock:        ctl.clock,
		TrailingEdge: opts.TrailingEdge,
		Timeout:      opts.ExecTimeout,
		OnEvent:      ctl.onEvent,
	})

	if ctl.sweep > 0 {
		ctl.stopCh = make(chan struct{})
		ticker := ctl.clock.NewTicker(ctl.sweep)
		ctl.wg.Add(1)
		go func() {
			defer ctl.wg.Done()
			defer ticker.Stop()
			for {
				select {
				case <-ticker.Chan():
					ctl.Sweep()
				case <-ctl.stopCh:
					return
				}
			}
		}()
	}
	return ctl, nil
}

// Fetch returns the fresh cached value for key, or runs fetcher through the
// coalescer and caches its result with the default TTL. Fetcher errors are
// returned verbatim and never cached.
func (c *Controller[K, V]) Fetch(ctx context.Context, key K, fetcher Fetcher[V]) (V, error) {
	return c.FetchTTL(ctx, key, 0, fetcher)
}

// FetchTTL is Fetch with a per-entry TTL; ttl <= 0 means the default.
func (c *Controller[K, V]) FetchTTL(ctx context.Context, key K, ttl time.Duration, fetcher Fetcher[V]) (V, error) {
	var zero V
	if fetcher == nil {
		return zero, ErrNilFetcher
	}
	if c.closed.Load() {
		return zero, ErrClosed
	}
	if v, ok := c.store.Get(key); ok {
		c.hits.Add(1)
		c.hooks.Hit(key)
		return v, nil
	}
	c.misses.Add(1)
	c.hooks.Miss(key)
	return c.run(ctx, key, ttl, fetcher)
}

// Refresh skips the cached value and fetches through the coalescer, so a
// burst of refresh requests still results in one debounced fetch.
func (c *Controller[K, V]) Refresh(ctx context.Context, key K, fetcher Fetcher[V]) (V, error) {
	var zero V
	if fetcher == nil {
		return zero, ErrNilFetcher
	}
	if c.closed.Load() {
		return zero, ErrClosed
	}
	return c.run(ctx, key, 0, fetcher)
}

func (c *Controller[K, V]) run(ctx context.Context, key K, ttl time.Duration, fetcher Fetcher[V]) (V, error) {
	v, err := c.group.Run(ctx, key, c.execute(key, ttl, fetcher), c.window)
	if errors.Is(err, coalesce.ErrClosed) {
		var zero V
		return zero, ErrClosed
	}
	return v, err
}

// execute wraps fetcher so the result is stored exactly once per execution,
// unless key was invalidated while the fetch was in flight.
func (c *Controller[K, V]) execute(key K, ttl time.Duration, fetcher Fetcher[V]) coalesce.Func[V] {
	return func(ctx context.Context) (V, error) {
		t := c.store.Ticket()
		v, err := fetcher(ctx)
		if err != nil {
			c.failures.Add(1)
			c.log.Debug("fetch failed", Fields{"key": key, "err": err})
			c.hooks.FetchFailed(key, err)
			return v, err
		}
		stored, err := c.store.PutIfCurrent(key, v, ttl, t)
		switch {
		case errors.Is(err, store.ErrClosed):
		case err != nil:
			// the caller still gets the value; only caching failed
			c.log.Warn("store write failed", Fields{"key": key, "err": err})
		case !stored:
			c.staleWrites.Add(1)
			c.log.Debug("fetched value not stored: invalidated during fetch", Fields{"key": key})
			c.hooks.StaleWriteRejected(key)
		}
		return v, nil
	}
}

func (c *Controller[K, V]) onEvent(key K, ev coalesce.Event) {
	switch ev {
	case coalesce.Joined:
		c.hooks.Coalesced(key)
	case coalesce.Superseded:
		c.hooks.Superseded(key)
	case coalesce.Panicked:
		c.failures.Add(1)
		c.log.Error("fetcher panicked", Fields{"key": key})
		c.hooks.FetchFailed(key, ErrPanic)
	}
}

// Peek returns the fresh cached value for key without fetching.
func (c *Controller[K, V]) Peek(key K) (V, bool) {
	return c.store.Get(key)
}

// Invalidate drops key and reports whether it was cached. A fetch for key in
// flight still returns its value to its callers but does not cache it.
func (c *Controller[K, V]) Invalidate(key K) bool {
	ok := c.store.Invalidate(key)
	if ok {
		c.hooks.Invalidated(1)
	}
	c.log.Debug("invalidated key", Fields{"key": key, "removed": ok})
	return ok
}

// InvalidateFunc drops every key matching pred (e.g. ScopePrefix for all
// pages under one tab) and returns how many entries were removed.
func (c *Controller[K, V]) InvalidateFunc(pred func(K) bool) int {
	n := c.store.InvalidateFunc(pred)
	if n > 0 {
		c.hooks.Invalidated(n)
	}
	c.log.Debug("invalidated matching keys", Fields{"removed": n})
	return n
}

// Sweep removes expired entries now and returns how many were removed. The
// background loop calls it every SweepInterval.
func (c *Controller[K, V]) Sweep() int {
	n := c.store.Sweep(c.clock.Now())
	pruned := c.group.Prune(c.window)
	c.swept.Add(uint64(n))
	c.hooks.Swept(n)
	c.log.Debug("sweep", Fields{"removed": n, "idle_keys_pruned": pruned})
	return n
}

func (c *Controller[K, V]) Stats() Stats {
	gs := c.group.Stats()
	return Stats{
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Executions:  gs.Executed,
		Coalesced:   gs.Joined,
		Deferred:    gs.Deferred,
		Superseded:  gs.Superseded,
		Failures:    c.failures.Load(),
		StaleWrites: c.staleWrites.Load(),
		Swept:       c.swept.Load(),
		Entries:     c.store.Len(),
		InFlight:    c.group.InFlight(),
		Pending:     c.group.Pending(),
	}
}

// Close stops the sweep loop, fails debounced waiters with ErrClosed, cancels
// fetches in flight and waits for them (bounded by ctx), then releases the
// store. Later calls return the first call's result.
func (c *Controller[K, V]) Close(ctx context.Context) error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		if c.stopCh != nil {
			close(c.stopCh)
			c.wg.Wait()
		}
		gerr := c.group.Close(ctx)
		serr := c.store.Close(ctx)
		c.closeErr = errors.Join(gerr, serr)
		c.log.Debug("closed", Fields{"err": c.closeErr})
	})
	return c.closeErr
}
