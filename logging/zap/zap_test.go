package zap

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/unkn0wn-root/pagecache/logging"
)

func TestLoggerWritesSortedFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := Logger{L: zap.New(core)}

	l.Warn("sweep failed", logging.Fields{"removed": 3, "err": errors.New("boom"), "cache": "complaints"})

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e.Level != zapcore.WarnLevel || e.Message != "sweep failed" {
		t.Fatalf("unexpected entry: %+v", e.Entry)
	}
	want := []string{"cache", "err", "removed"}
	if len(e.Context) != len(want) {
		t.Fatalf("got %d fields, want %d", len(e.Context), len(want))
	}
	for i, k := range want {
		if e.Context[i].Key != k {
			t.Fatalf("field %d = %q, want %q", i, e.Context[i].Key, k)
		}
	}
	if got := e.ContextMap()["err"]; got != "boom" {
		t.Fatalf("err field = %v, want boom", got)
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	Logger{}.Info("ignored", logging.Fields{"k": "v"})
}
