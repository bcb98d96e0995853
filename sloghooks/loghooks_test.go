package sloghooks

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func newBufLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func TestMissSampling(t *testing.T) {
	l, buf := newBufLogger()
	h := New(l, Options{MissEvery: 3})
	for i := 0; i < 9; i++ {
		h.Miss("counts")
	}
	if n := strings.Count(buf.String(), "pagecache.miss"); n != 3 {
		t.Fatalf("logged %d misses, want 3", n)
	}
}

func TestKeysAreRedacted(t *testing.T) {
	l, buf := newBufLogger()
	h := New(l, Options{})
	h.FetchFailed("user-42@example.com", errors.New("timeout"))

	out := buf.String()
	if strings.Contains(out, "user-42@example.com") {
		t.Fatalf("raw key leaked: %s", out)
	}
	if !strings.Contains(out, "pagecache.fetch_failed") || !strings.Contains(out, "timeout") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestCustomRedactorAndNilLogger(t *testing.T) {
	l, buf := newBufLogger()
	h := New(l, Options{Redact: func(k any) string { return "K" }})
	h.SelfHealed("page-1", "corrupt")
	if !strings.Contains(buf.String(), "key=K") || !strings.Contains(buf.String(), "reason=corrupt") {
		t.Fatalf("unexpected output: %s", buf.String())
	}

	quiet := New(nil, Options{})
	quiet.Miss("k")
	quiet.Swept(3)
	quiet.FetchFailed("k", errors.New("x"))
}
