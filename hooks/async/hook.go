// Package asynchook moves hook calls off the fetch path onto a bounded queue
// drained by a fixed set of workers. Events are dropped when the queue is full.
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{MissEvery: 10})
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
package asynchook

import (
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/pagecache"
)

type Hooks struct {
	inner   pagecache.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64
}

var _ pagecache.Hooks = (*Hooks)(nil)

func New(inner pagecache.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers. Events after Close are dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.mu.Lock()
		h.closed = true
		close(h.q)
		h.mu.Unlock()
		h.wg.Wait()
	})
}

// Dropped returns how many events were discarded because the queue was full
// or the hooks were closed.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		h.dropped.Add(1)
		return
	}
	select {
	case h.q <- f:
	default: // drop
		h.dropped.Add(1)
	}
}

func (h *Hooks) Hit(k any)                { h.try(func() { h.inner.Hit(k) }) }
func (h *Hooks) Miss(k any)               { h.try(func() { h.inner.Miss(k) }) }
func (h *Hooks) Coalesced(k any)          { h.try(func() { h.inner.Coalesced(k) }) }
func (h *Hooks) Superseded(k any)         { h.try(func() { h.inner.Superseded(k) }) }
func (h *Hooks) StaleWriteRejected(k any) { h.try(func() { h.inner.StaleWriteRejected(k) }) }
func (h *Hooks) Swept(n int)              { h.try(func() { h.inner.Swept(n) }) }
func (h *Hooks) Invalidated(n int)        { h.try(func() { h.inner.Invalidated(n) }) }
func (h *Hooks) FetchFailed(k any, err error) {
	h.try(func() { h.inner.FetchFailed(k, err) })
}
func (h *Hooks) SelfHealed(k any, reason string) {
	h.try(func() { h.inner.SelfHealed(k, reason) })
}
