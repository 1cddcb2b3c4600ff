// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cooldown

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// WindowMillis is the cooldown between two accepted votes of one identity.
const WindowMillis int64 = 24 * 3600 * 1000

// Window is WindowMillis as a time.Duration.
const Window = time.Duration(WindowMillis) * time.Millisecond

// PendingRetry is reported while another vote of the same identity is
// still being written. That vote may yet be released.
const PendingRetry = time.Second

// Clock abstracts timestamp reads so cooldown boundaries can be tested
// without sleeping.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Active reports whether a vote cast at lastMillis still blocks a vote at nowMillis.
func Active(lastMillis, nowMillis int64) bool {
	return nowMillis-lastMillis < WindowMillis
}

// Remaining returns how long a vote cast at lastMillis keeps blocking at nowMillis.
// It never exceeds Window, even if the clock stepped back past lastMillis.
func Remaining(lastMillis, nowMillis int64) time.Duration {
	if !Active(lastMillis, nowMillis) {
		return 0
	}
	if nowMillis < lastMillis {
		return Window
	}
	return time.Duration(WindowMillis-(nowMillis-lastMillis)) * time.Millisecond
}

type entry struct {
	votedAt int64 // unix ms of the last accepted vote
	hasVote bool
	pending bool // a Reservation is in flight
}

// Ledger maps an identity to the timestamp of its last accepted vote.
// It is safe for concurrent use.
type Ledger struct {
	mu         sync.Mutex
	clock      Clock
	maxEntries int
	entries    map[string]*entry
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock replaces the system clock.
func WithClock(c Clock) Option {
	return func(l *Ledger) { l.clock = c }
}

// WithMaxEntries caps the number of tracked identities. When full, expired
// entries are swept first and then the oldest vote is evicted.
// Zero means no cap.
func WithMaxEntries(n int) Option {
	return func(l *Ledger) { l.maxEntries = n }
}

func NewLedger(opts ...Option) *Ledger {
	l := &Ledger{
		clock:   SystemClock{},
		entries: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Ledger) nowMillis() int64 {
	return l.clock.Now().UnixMilli()
}

// MayVote returns false iff the identity voted less than Window ago
// or has a vote in flight.
func (l *Ledger) MayVote(identity string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.retryAfterLocked(identity, l.nowMillis()) == 0
}

// RetryAfter returns how long the identity must wait before voting again.
func (l *Ledger) RetryAfter(identity string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.retryAfterLocked(identity, l.nowMillis())
}

func (l *Ledger) retryAfterLocked(identity string, now int64) time.Duration {
	e, ok := l.entries[identity]
	if !ok {
		return 0
	}
	if e.pending {
		return PendingRetry
	}
	if !e.hasVote {
		return 0
	}
	return Remaining(e.votedAt, now)
}

// RecordVote overwrites the identity's timestamp with now.
func (l *Ledger) RecordVote(identity string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowMillis()
	e, ok := l.entries[identity]
	if !ok {
		l.makeRoomLocked(now)
		e = &entry{}
		l.entries[identity] = e
	}
	e.votedAt = now
	e.hasVote = true
	e.pending = false
}

// Reserve atomically checks the cooldown and, if clear, marks the identity
// as voting. The caller must Commit after the vote is persisted or Release
// if it was not. When blocked, Reserve returns the remaining cooldown.
func (l *Ledger) Reserve(identity string) (*Reservation, time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowMillis()
	if wait := l.retryAfterLocked(identity, now); wait > 0 {
		return nil, wait, false
	}

	r := &Reservation{ledger: l, identity: identity}
	e, ok := l.entries[identity]
	if ok {
		prev := *e
		r.prev = &prev
	} else {
		l.makeRoomLocked(now)
		e = &entry{}
		l.entries[identity] = e
	}
	e.pending = true
	return r, 0, true
}

// Sweep removes entries whose cooldown has elapsed and returns how many
// were removed.
func (l *Ledger) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.sweepLocked(l.nowMillis())
}

func (l *Ledger) sweepLocked(now int64) int {
	removed := 0
	for id, e := range l.entries {
		if e.pending {
			continue
		}
		if !e.hasVote || !Active(e.votedAt, now) {
			delete(l.entries, id)
			removed++
		}
	}
	return removed
}

func (l *Ledger) makeRoomLocked(now int64) {
	if l.maxEntries <= 0 || len(l.entries) < l.maxEntries {
		return
	}
	if l.sweepLocked(now) > 0 {
		return
	}

	var oldestID string
	var oldest int64
	for id, e := range l.entries {
		if e.pending {
			continue
		}
		if oldestID == "" || e.votedAt < oldest {
			oldestID, oldest = id, e.votedAt
		}
	}
	if oldestID != "" {
		delete(l.entries, oldestID)
	}
}

// Len returns the number of tracked identities.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Run sweeps expired entries every interval until ctx is done.
func (l *Ledger) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := l.Sweep(); n > 0 {
				slog.Debug("cooldown ledger swept", "removed", n, "remaining", l.Len())
			}
		}
	}
}

// Reservation holds an identity's slot while its vote is being written.
type Reservation struct {
	ledger   *Ledger
	identity string
	prev     *entry
	done     bool
}

// Commit records the vote at the current time.
func (r *Reservation) Commit() {
	l := r.ledger
	l.mu.Lock()
	defer l.mu.Unlock()

	if r.done {
		return
	}
	r.done = true

	e, ok := l.entries[r.identity]
	if !ok {
		e = &entry{}
		l.entries[r.identity] = e
	}
	e.votedAt = l.nowMillis()
	e.hasVote = true
	e.pending = false
}

// Release restores the identity's previous state. It is a no-op after Commit.
func (r *Reservation) Release() {
	l := r.ledger
	l.mu.Lock()
	defer l.mu.Unlock()

	if r.done {
		return
	}
	r.done = true

	if r.prev == nil {
		delete(l.entries, r.identity)
		return
	}
	prev := *r.prev
	prev.pending = false
	l.entries[r.identity] = &prev
}
