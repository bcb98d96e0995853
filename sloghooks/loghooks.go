// Package sloghooks logs cache hook events to a log/slog logger, with
// sampling for the high-volume ones.
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{MissEvery: 10})
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	ctl, _ := pagecache.New(pagecache.Options[pagecache.PageKey, Page]{Hooks: hooks})
package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/pagecache"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all. Hits are never logged.
	MissEvery      uint64
	CoalescedEvery uint64
	// Optional key redactor. Defaults to SHA-256 prefix of the key's %v form.
	Redact func(key any) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	missCtr      atomic.Uint64
	coalescedCtr atomic.Uint64
}

var _ pagecache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k any) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(fmt.Sprint(k)))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) Hit(any) {}

func (h *Hooks) Miss(key any) {
	if h.l == nil || !sample(h.opts.MissEvery, &h.missCtr) {
		return
	}
	h.l.Debug("pagecache.miss", "key", h.redact(key))
}

func (h *Hooks) Coalesced(key any) {
	if h.l == nil || !sample(h.opts.CoalescedEvery, &h.coalescedCtr) {
		return
	}
	h.l.Debug("pagecache.coalesced", "key", h.redact(key))
}

func (h *Hooks) Superseded(key any) {
	if h.l == nil {
		return
	}
	h.l.Debug("pagecache.superseded", "key", h.redact(key))
}

func (h *Hooks) FetchFailed(key any, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("pagecache.fetch_failed",
		"key", h.redact(key),
		"err", err)
}

func (h *Hooks) StaleWriteRejected(key any) {
	if h.l == nil {
		return
	}
	h.l.Info("pagecache.stale_write_rejected", "key", h.redact(key))
}

func (h *Hooks) SelfHealed(key any, reason string) {
	if h.l == nil {
		return
	}
	h.l.Warn("pagecache.self_healed",
		"key", h.redact(key),
		"reason", reason)
}

func (h *Hooks) Swept(n int) {
	if h.l == nil || n == 0 {
		return
	}
	h.l.Debug("pagecache.swept", "removed", n)
}

func (h *Hooks) Invalidated(n int) {
	if h.l == nil {
		return
	}
	h.l.Debug("pagecache.invalidated", "removed", n)
}
