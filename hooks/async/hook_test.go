package asynchook

import (
	"sync"
	"sync/atomic"
	"testing"

	"go.uber.org/goleak"

	"github.com/unkn0wn-root/pagecache"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type countingHooks struct {
	pagecache.NopHooks
	misses atomic.Int64
	swept  atomic.Int64
}

func (c *countingHooks) Miss(any)    { c.misses.Add(1) }
func (c *countingHooks) Swept(n int) { c.swept.Add(int64(n)) }

func TestEventsDeliveredBeforeClose(t *testing.T) {
	inner := &countingHooks{}
	h := New(inner, 2, 100)
	for i := 0; i < 50; i++ {
		h.Miss("k")
	}
	h.Swept(7)
	h.Close()

	if inner.misses.Load() != 50 || inner.swept.Load() != 7 {
		t.Fatalf("misses=%d swept=%d", inner.misses.Load(), inner.swept.Load())
	}
	if h.Dropped() != 0 {
		t.Fatalf("Dropped = %d, want 0", h.Dropped())
	}
}

type blockingHooks struct {
	pagecache.NopHooks
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingHooks) Miss(any) {
	b.once.Do(func() { close(b.started) })
	<-b.release
}

func TestFullQueueDrops(t *testing.T) {
	inner := &blockingHooks{started: make(chan struct{}), release: make(chan struct{})}
	h := New(inner, 1, 1)

	h.Miss("first") // taken by the worker, which then blocks
	<-inner.started
	h.Miss("queued")
	h.Miss("dropped")

	if h.Dropped() != 1 {
		t.Fatalf("Dropped = %d, want 1", h.Dropped())
	}
	close(inner.release)
	h.Close()
}

func TestAfterCloseIsDroppedNotPanic(t *testing.T) {
	h := New(&countingHooks{}, 1, 1)
	h.Close()
	h.Close()
	h.Miss("late")
	if h.Dropped() != 1 {
		t.Fatalf("Dropped = %d, want 1", h.Dropped())
	}
}
