package bigcache

import (
	"bytes"
	"context"
	"testing"
)

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	p, err := New(context.Background(), Config{Shards: 16, MaxEntriesInWindow: 64, MaxEntrySize: 256})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = p.Close(context.Background()) })
	return p
}

func TestSetGetDel(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t)

	if _, ok, err := p.Get(ctx, "pages:1"); err != nil || ok {
		t.Fatalf("Get on empty: ok=%v err=%v", ok, err)
	}
	if err := p.Set(ctx, "pages:1", []byte("frame")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := p.Get(ctx, "pages:1")
	if err != nil || !ok || !bytes.Equal(got, []byte("frame")) {
		t.Fatalf("Get after Set: got=%q ok=%v err=%v", got, ok, err)
	}
	if p.Len() != 1 {
		t.Fatalf("Len = %d, want 1", p.Len())
	}
	if err := p.Del(ctx, "pages:1"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	if _, ok, _ := p.Get(ctx, "pages:1"); ok {
		t.Fatalf("Get after Del should miss")
	}
}

func TestDelMissingIsNotAnError(t *testing.T) {
	if err := newTestProvider(t).Del(context.Background(), "never-written"); err != nil {
		t.Fatalf("Del missing: %v", err)
	}
}

func TestOverwriteReplacesValue(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t)
	_ = p.Set(ctx, "k", []byte("old"))
	_ = p.Set(ctx, "k", []byte("new"))
	got, ok, err := p.Get(ctx, "k")
	if err != nil || !ok || string(got) != "new" {
		t.Fatalf("got=%q ok=%v err=%v, want new", got, ok, err)
	}
}
