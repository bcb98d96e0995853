package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

func newTestProvider(t *testing.T, expiry time.Duration) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	p, err := New(Config{Client: rdb, Expiry: expiry, CloseClient: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = p.Close(context.Background()) })
	return p, mr
}

func TestNewRequiresClient(t *testing.T) {
	if _, err := New(Config{}); !errors.Is(err, ErrNilClient) {
		t.Fatalf("err = %v, want ErrNilClient", err)
	}
}

func TestSetGetDel(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestProvider(t, 0)

	if _, ok, err := p.Get(ctx, "pages:1"); err != nil || ok {
		t.Fatalf("Get on empty: ok=%v err=%v", ok, err)
	}
	if err := p.Set(ctx, "pages:1", []byte{0, 1, 2, 0xff}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := p.Get(ctx, "pages:1")
	if err != nil || !ok || string(got) != string([]byte{0, 1, 2, 0xff}) {
		t.Fatalf("Get: %v ok=%v err=%v", got, ok, err)
	}
	if err := p.Del(ctx, "pages:1"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	if _, ok, _ := p.Get(ctx, "pages:1"); ok {
		t.Fatalf("Get after Del should miss")
	}
}

func TestExpiryAppliesSafetyTTL(t *testing.T) {
	ctx := context.Background()
	p, mr := newTestProvider(t, time.Hour)

	if err := p.Set(ctx, "pages:7", []byte("frame")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if ttl := mr.TTL("pages:7"); ttl != time.Hour {
		t.Fatalf("TTL = %v, want 1h", ttl)
	}
	mr.FastForward(2 * time.Hour)
	if _, ok, _ := p.Get(ctx, "pages:7"); ok {
		t.Fatalf("payload should expire after the safety TTL")
	}
}

func TestServerErrorSurfaces(t *testing.T) {
	p, mr := newTestProvider(t, 0)
	mr.SetError("LOADING")
	if _, _, err := p.Get(context.Background(), "k"); err == nil {
		t.Fatalf("expected server error")
	}
}
