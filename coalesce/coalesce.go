// Package coalesce collapses concurrent and rapid-fire calls for the same key
// into one execution.
//
// For a key, Run:
//   - joins the execution already in flight, if any;
//   - otherwise, when a debounced execution is pending or the last execution
//     finished less than window ago, (re)schedules one execution window from
//     now with the latest func; callers of superseded schedules receive the
//     result of the execution that finally fires;
//   - otherwise executes immediately.
//
// With TrailingEdge every call is debounced, including the first one after an
// idle period.
//
// Executions run on a context detached from the callers: it keeps their
// values but not their cancellation, so one caller giving up does not fail
// the others. The group's Close cancels it.
package coalesce

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/unkn0wn-root/pagecache/internal/defaults"
)

type Func[V any] func(ctx context.Context) (V, error)

type Event uint8

const (
	Executed   Event = iota // an execution started
	Joined                  // caller attached to an execution in flight
	Deferred                // caller scheduled or rescheduled a debounced execution
	Superseded              // a pending func was replaced by a later call's func
	Panicked                // an execution panicked; its waiters get a *PanicError
)

func (e Event) String() string {
	switch e {
	case Executed:
		return "executed"
	case Joined:
		return "joined"
	case Deferred:
		return "deferred"
	case Superseded:
		return "superseded"
	case Panicked:
		return "panicked"
	default:
		return "unknown"
	}
}

type Options[K comparable] struct {
	Clock        clockwork.Clock // nil => real clock
	TrailingEdge bool
	Timeout      time.Duration // bound on each execution; 0 => none

	// OnEvent is called outside the group's lock. Must be cheap and non-blocking.
	OnEvent func(key K, ev Event)
}

type Stats struct {
	Executed   uint64
	Joined     uint64
	Deferred   uint64
	Superseded uint64
	Panics     uint64
}

type call[V any] struct {
	done chan struct{}
	val  V
	err  error
}

// slot is the per-key state: idle, pending (timer armed) or inflight.
// pending and inflight are never both set.
type slot[V any] struct {
	lastRun  time.Time
	inflight *call[V]
	pending  *call[V]
	timer    clockwork.Timer
	fn       Func[V]
	parent   context.Context
	seq      uint64
}

func (s *slot[V]) idle() bool { return s.inflight == nil && s.pending == nil }

type Group[K comparable, V any] struct {
	clock    clockwork.Clock
	trailing bool
	timeout  time.Duration
	onEvent  func(K, Event)

	base   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	slots  map[K]*slot[V]
	closed bool

	executed, joined, deferred, superseded, panics atomic.Uint64
}

func New[K comparable, V any](opts Options[K]) *Group[K, V] {
	base, cancel := context.WithCancel(context.Background())
	return &Group[K, V]{
		clock:    defaults.Coalesce[clockwork.Clock](opts.Clock, clockwork.NewRealClock()),
		trailing: opts.TrailingEdge,
		timeout:  opts.Timeout,
		onEvent:  opts.OnEvent,
		base:     base,
		cancel:   cancel,
		slots:    make(map[K]*slot[V]),
	}
}

// Run executes fn for key under the coalescing rules and waits for the
// result. ctx only bounds this caller's wait.
func (g *Group[K, V]) Run(ctx context.Context, key K, fn Func[V], window time.Duration) (V, error) {
	var zero V
	if fn == nil {
		return zero, ErrNilFunc
	}

	var evs [2]Event
	n := 0

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return zero, ErrClosed
	}
	s, ok := g.slots[key]
	if !ok {
		s = &slot[V]{}
		g.slots[key] = s
	}
	now := g.clock.Now()

	var c *call[V]
	switch {
	case s.inflight != nil:
		c = s.inflight
		evs[n] = Joined
		n++
	case s.pending != nil || (window > 0 && (g.trailing || (!s.lastRun.IsZero() && now.Sub(s.lastRun) < window))):
		if s.pending != nil {
			s.timer.Stop()
			evs[n] = Superseded
			n++
		} else {
			s.pending = &call[V]{done: make(chan struct{})}
		}
		c = s.pending
		s.fn = fn
		s.parent = ctx
		s.seq++
		seq := s.seq
		s.timer = g.clock.AfterFunc(max(window, 0), func() { g.fire(key, s, seq) })
		evs[n] = Deferred
		n++
	default:
		c = &call[V]{done: make(chan struct{})}
		s.inflight = c
		g.startLocked(ctx, key, s, c, fn)
		evs[n] = Executed
		n++
	}
	g.mu.Unlock()

	for _, ev := range evs[:n] {
		g.emit(key, ev)
	}
	return wait(ctx, c)
}

// fire promotes the pending call scheduled as seq to an execution. A stale
// seq means the timer lost a race with a later Run or Close.
func (g *Group[K, V]) fire(key K, s *slot[V], seq uint64) {
	g.mu.Lock()
	if g.closed || s.seq != seq || s.pending == nil {
		g.mu.Unlock()
		return
	}
	c, fn, parent := s.pending, s.fn, s.parent
	s.pending, s.fn, s.parent, s.timer = nil, nil, nil, nil
	s.inflight = c
	g.startLocked(parent, key, s, c, fn)
	g.mu.Unlock()

	g.emit(key, Executed)
}

func (g *Group[K, V]) startLocked(parent context.Context, key K, s *slot[V], c *call[V], fn Func[V]) {
	g.wg.Add(1)
	go g.exec(parent, key, s, c, fn)
}

func (g *Group[K, V]) exec(parent context.Context, key K, s *slot[V], c *call[V], fn Func[V]) {
	defer g.wg.Done()

	ctx, cancel := g.detach(parent)
	defer cancel()

	v, panicked, err := invoke(ctx, fn)
	if panicked {
		g.emit(key, Panicked)
	}

	g.mu.Lock()
	if s.inflight == c {
		s.inflight = nil
	}
	s.lastRun = g.clock.Now()
	g.mu.Unlock()

	c.val, c.err = v, err
	close(c.done)
}

// detach returns a context carrying parent's values, cancelled by Close and
// bounded by the group timeout.
func (g *Group[K, V]) detach(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(context.WithoutCancel(parent))
	stop := context.AfterFunc(g.base, cancel)
	if g.timeout > 0 {
		var cancelT context.CancelFunc
		ctx, cancelT = context.WithTimeout(ctx, g.timeout)
		return ctx, func() { cancelT(); stop(); cancel() }
	}
	return ctx, func() { stop(); cancel() }
}

func invoke[V any](ctx context.Context, fn Func[V]) (v V, panicked bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero V
			v, panicked, err = zero, true, &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	v, err = fn(ctx)
	return v, false, err
}

func wait[V any](ctx context.Context, c *call[V]) (V, error) {
	if ctx == nil {
		<-c.done
		return c.val, c.err
	}
	select {
	case <-c.done:
		return c.val, c.err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

func (g *Group[K, V]) emit(key K, ev Event) {
	switch ev {
	case Executed:
		g.executed.Add(1)
	case Joined:
		g.joined.Add(1)
	case Deferred:
		g.deferred.Add(1)
	case Superseded:
		g.superseded.Add(1)
	case Panicked:
		g.panics.Add(1)
	}
	if g.onEvent != nil {
		g.onEvent(key, ev)
	}
}

// Prune forgets idle keys whose last execution finished at least olderThan
// ago and returns how many were removed. A pruned key behaves as never run.
func (g *Group[K, V]) Prune(olderThan time.Duration) int {
	now := g.clock.Now()
	n := 0
	g.mu.Lock()
	for k, s := range g.slots {
		if s.idle() && now.Sub(s.lastRun) >= olderThan {
			delete(g.slots, k)
			n++
		}
	}
	g.mu.Unlock()
	return n
}

func (g *Group[K, V]) Stats() Stats {
	return Stats{
		Executed:   g.executed.Load(),
		Joined:     g.joined.Load(),
		Deferred:   g.deferred.Load(),
		Superseded: g.superseded.Load(),
		Panics:     g.panics.Load(),
	}
}

// InFlight returns the number of keys with a running execution.
func (g *Group[K, V]) InFlight() int {
	return g.count(func(s *slot[V]) bool { return s.inflight != nil })
}

// Pending returns the number of keys with a debounced execution scheduled.
func (g *Group[K, V]) Pending() int {
	return g.count(func(s *slot[V]) bool { return s.pending != nil })
}

// Len returns the number of keys the group holds state for.
func (g *Group[K, V]) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.slots)
}

func (g *Group[K, V]) count(pred func(*slot[V]) bool) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, s := range g.slots {
		if pred(s) {
			n++
		}
	}
	return n
}

// Close fails pending (debounced) waiters with ErrClosed, cancels running
// executions and waits for them to return or ctx to end. Further Runs fail
// with ErrClosed. Safe to call more than once.
func (g *Group[K, V]) Close(ctx context.Context) error {
	g.mu.Lock()
	if !g.closed {
		g.closed = true
		for _, s := range g.slots {
			if s.pending == nil {
				continue
			}
			s.timer.Stop()
			c := s.pending
			s.pending, s.fn, s.parent, s.timer = nil, nil, nil, nil
			c.err = ErrClosed
			close(c.done)
		}
	}
	g.mu.Unlock()
	g.cancel()

	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
