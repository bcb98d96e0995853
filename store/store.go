// Package store is a keyed TTL store.
//
// An entry is fresh while now-storedAt < ttl; stale entries are never
// returned and are physically removed by Sweep. Values are kept as-is by
// default. With a Codec they are kept encoded and decoded on every read; with
// a Provider the encoded payloads live in the backend under per-write
// references while the store keeps the index (key, freshness, reference).
//
// Writes made on behalf of a fetch go through Ticket/PutIfCurrent so that an
// invalidation issued while the fetch was in flight wins over its result:
//
//	t := s.Ticket()            // before reading the backend
//	v, err := load(ctx)
//	ok, err := s.PutIfCurrent(key, v, 0, t)
package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	c "github.com/unkn0wn-root/pagecache/codec"
	"github.com/unkn0wn-root/pagecache/internal/defaults"
	"github.com/unkn0wn-root/pagecache/internal/wire"
	"github.com/unkn0wn-root/pagecache/logging"
	pr "github.com/unkn0wn-root/pagecache/provider"
)

const (
	DefaultTTL       = 10 * time.Second
	DefaultRetention = 10 * time.Minute
)

// Self-heal reasons passed to Options.OnSelfHeal.
const (
	ReasonDecode  = "value_decode"
	ReasonCorrupt = "corrupt"
	ReasonMissing = "missing"
	ReasonSeq     = "seq_mismatch"
)

type Options[K comparable, V any] struct {
	DefaultTTL time.Duration   // 0 => 10s
	Clock      clockwork.Clock // nil => real clock
	Codec      c.Codec[V]      // optional; required with Provider
	Provider   pr.Provider     // optional payload backend
	Namespace  string          // prefix for provider references; required with Provider
	Retention  time.Duration   // how long invalidations are remembered; 0 => 10m
	Logger     logging.Logger  // nil => logging.Nop

	// OnSelfHeal is called after an entry that could not be read back was
	// dropped. Must be cheap and non-blocking.
	OnSelfHeal func(key K, reason string)
}

type entry[V any] struct {
	val      V
	raw      []byte // encoded value when a codec is set and there is no provider
	ref      string // provider key
	seq      uint64
	storedAt time.Time
	ttl      time.Duration
}

func (e *entry[V]) fresh(now time.Time) bool {
	return now.Sub(e.storedAt) < e.ttl
}

type keyMark struct {
	seq uint64
	at  time.Time
}

type predMark[K comparable] struct {
	seq  uint64
	at   time.Time
	pred func(K) bool
}

// Ticket is an opaque observation of the store's invalidation state.
type Ticket struct{ seq uint64 }

type Store[K comparable, V any] struct {
	clock      clockwork.Clock
	codec      c.Codec[V]
	provider   pr.Provider
	ns         string
	defaultTTL time.Duration
	retention  time.Duration
	log        logging.Logger
	onSelfHeal func(K, string)

	seq atomic.Uint64

	mu      sync.RWMutex
	entries map[K]*entry[V]
	keyMark map[K]keyMark
	preds   []predMark[K]
	horizon uint64 // newest invalidation already forgotten
	closed  bool
}

func New[K comparable, V any](opts Options[K, V]) (*Store[K, V], error) {
	if opts.Provider != nil {
		if opts.Codec == nil {
			return nil, ErrCodecRequired
		}
		if opts.Namespace == "" {
			return nil, ErrNamespaceRequired
		}
	}
	s := &Store[K, V]{
		codec:      opts.Codec,
		provider:   opts.Provider,
		ns:         opts.Namespace,
		onSelfHeal: opts.OnSelfHeal,
		entries:    make(map[K]*entry[V]),
		keyMark:    make(map[K]keyMark),
	}
	s.clock = defaults.Coalesce[clockwork.Clock](opts.Clock, clockwork.NewRealClock())
	s.log = defaults.Coalesce[logging.Logger](opts.Logger, logging.Nop{})
	s.defaultTTL = defaults.Positive(opts.DefaultTTL, DefaultTTL)
	s.retention = defaults.Positive(opts.Retention, DefaultRetention)
	return s, nil
}

// Get returns the value for key if it is present and fresh.
func (s *Store[K, V]) Get(key K) (V, bool) {
	var zero V
	now := s.clock.Now()

	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok || !e.fresh(now) {
		return zero, false
	}

	switch {
	case s.provider != nil:
		return s.readProvider(key, e)
	case s.codec != nil:
		v, err := s.codec.Decode(e.raw)
		if err != nil {
			s.heal(key, e, ReasonDecode, err)
			return zero, false
		}
		return v, true
	default:
		return e.val, true
	}
}

func (s *Store[K, V]) readProvider(key K, e *entry[V]) (V, bool) {
	var zero V
	raw, ok, err := s.provider.Get(context.Background(), e.ref)
	if err != nil {
		// backend trouble is not evidence against the entry; report a miss only
		s.log.Warn("provider get failed", logging.Fields{"ref": e.ref, "err": err})
		return zero, false
	}
	if !ok {
		s.heal(key, e, ReasonMissing, nil)
		return zero, false
	}
	f, err := wire.Decode(raw)
	if err != nil {
		s.heal(key, e, ReasonCorrupt, err)
		return zero, false
	}
	if f.Seq != e.seq {
		s.heal(key, e, ReasonSeq, nil)
		return zero, false
	}
	v, err := s.codec.Decode(f.Payload)
	if err != nil {
		s.heal(key, e, ReasonDecode, err)
		return zero, false
	}
	return v, true
}

// heal drops e if it is still the current entry for key.
func (s *Store[K, V]) heal(key K, e *entry[V], reason string, cause error) {
	s.mu.Lock()
	cur, ok := s.entries[key]
	dropped := ok && cur == e
	if dropped {
		delete(s.entries, key)
	}
	s.mu.Unlock()
	if !dropped {
		return
	}
	s.delRef(e.ref)
	f := logging.Fields{"reason": reason}
	if cause != nil {
		f["err"] = cause
	}
	s.log.Debug("self-heal: dropped unreadable entry", f)
	if s.onSelfHeal != nil {
		s.onSelfHeal(key, reason)
	}
}

// Put stores v under key with the default TTL, replacing any entry.
func (s *Store[K, V]) Put(key K, v V) error {
	return s.PutTTL(key, v, 0)
}

// PutTTL stores v under key. ttl <= 0 means the store default.
func (s *Store[K, V]) PutTTL(key K, v V, ttl time.Duration) error {
	_, err := s.put(key, v, ttl, nil)
	return err
}

// Ticket observes the invalidation state. Take it before loading the value
// that will be passed to PutIfCurrent.
func (s *Store[K, V]) Ticket() Ticket {
	return Ticket{seq: s.seq.Load()}
}

// PutIfCurrent stores v unless key was invalidated (directly or through an
// InvalidateFunc predicate) after t was taken. Reports whether it wrote.
// Tickets older than the retention window are rejected.
func (s *Store[K, V]) PutIfCurrent(key K, v V, ttl time.Duration, t Ticket) (bool, error) {
	return s.put(key, v, ttl, &t)
}

func (s *Store[K, V]) put(key K, v V, ttl time.Duration, t *Ticket) (bool, error) {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	seq := s.seq.Add(1)
	now := s.clock.Now()
	e := &entry[V]{seq: seq, storedAt: now, ttl: ttl}

	if s.codec == nil {
		e.val = v
	} else {
		payload, err := s.codec.Encode(v)
		if err != nil {
			return false, fmt.Errorf("store: encode: %w", err)
		}
		if s.provider == nil {
			e.raw = payload
		} else {
			e.ref = s.ns + ":" + strconv.FormatUint(seq, 10)
			if err := s.provider.Set(context.Background(), e.ref, wire.Encode(seq, now, payload)); err != nil {
				s.log.Warn("provider set failed", logging.Fields{"ref": e.ref, "err": err})
				return false, fmt.Errorf("store: provider set: %w", err)
			}
		}
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.delRef(e.ref)
		return false, ErrClosed
	}
	if t != nil && !s.currentLocked(key, *t) {
		s.mu.Unlock()
		s.delRef(e.ref)
		return false, nil
	}
	old := s.entries[key]
	s.entries[key] = e
	s.mu.Unlock()

	if old != nil {
		s.delRef(old.ref)
	}
	return true, nil
}

func (s *Store[K, V]) currentLocked(key K, t Ticket) bool {
	if t.seq < s.horizon {
		return false
	}
	if m, ok := s.keyMark[key]; ok && m.seq > t.seq {
		return false
	}
	for _, p := range s.preds {
		if p.seq > t.seq && p.pred(key) {
			return false
		}
	}
	return true
}

// Invalidate removes key regardless of freshness and reports whether an
// entry was present. Pending PutIfCurrent writes for key are rejected.
func (s *Store[K, V]) Invalidate(key K) bool {
	now := s.clock.Now()
	s.mu.Lock()
	e, ok := s.entries[key]
	delete(s.entries, key)
	if !s.closed {
		s.keyMark[key] = keyMark{seq: s.seq.Add(1), at: now}
	}
	s.mu.Unlock()
	if ok {
		s.delRef(e.ref)
	}
	return ok
}

// InvalidateFunc removes every entry whose key satisfies pred and returns the
// count. Pending PutIfCurrent writes for matching keys are rejected.
func (s *Store[K, V]) InvalidateFunc(pred func(K) bool) int {
	if pred == nil {
		return 0
	}
	now := s.clock.Now()
	var refs []string
	s.mu.Lock()
	for k, e := range s.entries {
		if pred(k) {
			delete(s.entries, k)
			refs = appendRef(refs, e)
		}
	}
	if !s.closed {
		s.preds = append(s.preds, predMark[K]{seq: s.seq.Add(1), at: now, pred: pred})
	}
	s.mu.Unlock()

	for _, r := range refs {
		s.delRef(r)
	}
	return len(refs)
}

// Sweep removes entries that are stale at now and returns how many were
// removed. It also forgets invalidations older than the retention window.
func (s *Store[K, V]) Sweep(now time.Time) int {
	var refs []string
	s.mu.Lock()
	for k, e := range s.entries {
		if !e.fresh(now) {
			delete(s.entries, k)
			refs = appendRef(refs, e)
		}
	}
	s.pruneMarksLocked(now)
	s.mu.Unlock()

	for _, r := range refs {
		s.delRef(r)
	}
	return len(refs)
}

func (s *Store[K, V]) pruneMarksLocked(now time.Time) {
	cutoff := now.Add(-s.retention)
	for k, m := range s.keyMark {
		if !m.at.After(cutoff) {
			delete(s.keyMark, k)
			s.horizon = max(s.horizon, m.seq)
		}
	}
	kept := s.preds[:0]
	for _, p := range s.preds {
		if p.at.After(cutoff) {
			kept = append(kept, p)
			continue
		}
		s.horizon = max(s.horizon, p.seq)
	}
	clear(s.preds[len(kept):])
	s.preds = kept
}

// Len returns the number of entries held, including stale entries not yet swept.
func (s *Store[K, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Close drops every entry and closes the provider. Further writes fail with
// ErrClosed and reads miss. Safe to call more than once.
func (s *Store[K, V]) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	var refs []string
	for _, e := range s.entries {
		refs = appendRef(refs, e)
	}
	clear(s.entries)
	clear(s.keyMark)
	s.preds = nil
	s.mu.Unlock()

	if s.provider == nil {
		return nil
	}
	var delErr error
	for _, r := range refs {
		if r == "" {
			continue
		}
		if err := s.provider.Del(ctx, r); err != nil && delErr == nil {
			delErr = err
		}
	}
	return errors.Join(delErr, s.provider.Close(ctx))
}

// appendRef collects the provider reference of e. Entries without one still
// count, so callers can use len() as the removal count.
func appendRef[V any](refs []string, e *entry[V]) []string {
	return append(refs, e.ref)
}

func (s *Store[K, V]) delRef(ref string) {
	if ref == "" || s.provider == nil {
		return
	}
	if err := s.provider.Del(context.Background(), ref); err != nil {
		s.log.Warn("provider delete failed", logging.Fields{"ref": ref, "err": err})
	}
}
