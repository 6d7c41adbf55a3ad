// Package ratelimit implements the sliding-window, cost-accounting request
// limiter shared by every exchange pipeline in the process. One Limiter
// instance is process-wide; callers key by (exchange_id, pool) and the
// limiter accounts each key's budget independently.
package ratelimit

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// Key identifies an independently accounted budget.
type Key struct {
	ExchangeID string
	Pool       string
}

// PublicPool is the pool identifier for unauthenticated calls.
const PublicPool = "public"

// Policy is the admission rule for a key. A nil *Policy means "unlimited".
type Policy struct {
	Requests float64
	PeriodMS int64
}

// entry is one accounted request: a timestamp and its cost.
type entry struct {
	atMS int64
	cost float64
}

// keyState is the sliding-window deque for one key, guarded by its own
// mutex so distinct keys never contend on each other's admission checks.
type keyState struct {
	mu      sync.Mutex
	entries *list.List // of entry
}

func newKeyState() *keyState {
	return &keyState{entries: list.New()}
}

// evict drops entries older than cutoffMS (now - periodMS) and returns the
// remaining summed cost.
func (k *keyState) evict(nowMS, periodMS int64) float64 {
	cutoff := nowMS - periodMS
	for e := k.entries.Front(); e != nil; {
		next := e.Next()
		if e.Value.(entry).atMS < cutoff {
			k.entries.Remove(e)
		}
		e = next
	}
	var sum float64
	for e := k.entries.Front(); e != nil; e = e.Next() {
		sum += e.Value.(entry).cost
	}
	return sum
}

// evictHorizon drops entries older than the eviction horizon regardless of
// any particular policy's period, for periodic maintenance. Returns true if
// the key has no entries left (a candidate for removal from the limiter).
func (k *keyState) evictHorizon(nowMS, horizonMS int64) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	cutoff := nowMS - horizonMS
	for e := k.entries.Front(); e != nil; {
		next := e.Next()
		if e.Value.(entry).atMS < cutoff {
			k.entries.Remove(e)
		}
		e = next
	}
	return k.entries.Len() == 0
}

// delayUntilAdmissible computes how many ms must elapse, given the current
// entries, before cost more units fit within requests over periodMS.
func (k *keyState) delayUntilAdmissible(nowMS int64, policy Policy, cost float64) int64 {
	current := k.evict(nowMS, policy.PeriodMS)
	if current+cost <= policy.Requests {
		return 0
	}
	// Walk entries oldest-first; find the point at which enough cost has
	// aged out of the window for the new request to fit.
	freed := 0.0
	for e := k.entries.Front(); e != nil; e = e.Next() {
		ent := e.Value.(entry)
		freed += ent.cost
		if current-freed+cost <= policy.Requests {
			// evict keeps entries with atMS >= now-periodMS, so this entry
			// leaves the window one millisecond after atMS+periodMS.
			expiresAt := ent.atMS + policy.PeriodMS + 1
			delay := expiresAt - nowMS
			if delay < 0 {
				delay = 0
			}
			return delay
		}
	}
	// Degenerate case: cost alone exceeds requests; nothing will ever
	// admit it within this policy. Report the full period as a best
	// effort so callers don't busy-loop.
	return policy.PeriodMS
}

func (k *keyState) record(nowMS int64, cost float64) {
	k.entries.PushBack(entry{atMS: nowMS, cost: cost})
}

func (k *keyState) reset() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.entries.Init()
}

// Clock supplies wall-clock time; injected for deterministic tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Limiter is the process-wide, keyed sliding-window rate limiter. The zero
// value is not usable; construct with New.
type Limiter struct {
	clock      Clock
	horizonMS  int64
	mu         sync.Mutex
	keys       map[Key]*keyState
	stopCh     chan struct{}
	stopOnce   sync.Once
	cleanupInt time.Duration
}

// Option configures a Limiter at construction time.
type Option func(*Limiter)

// WithClock overrides the limiter's time source. Tests only.
func WithClock(c Clock) Option {
	return func(l *Limiter) { l.clock = c }
}

// WithEvictionHorizon sets the hard age after which entries are discarded
// during periodic maintenance, regardless of any individual policy's
// period. Defaults to 24h per spec's "default ≈ one day".
func WithEvictionHorizon(d time.Duration) Option {
	return func(l *Limiter) { l.horizonMS = d.Milliseconds() }
}

// WithCleanupInterval sets how often periodic maintenance runs when
// StartCleanup is called. Defaults to 60s.
func WithCleanupInterval(d time.Duration) Option {
	return func(l *Limiter) { l.cleanupInt = d }
}

// New constructs a Limiter ready for concurrent use.
func New(opts ...Option) *Limiter {
	l := &Limiter{
		clock:      systemClock{},
		horizonMS:  (24 * time.Hour).Milliseconds(),
		cleanupInt: 60 * time.Second,
		keys:       make(map[Key]*keyState),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

func (l *Limiter) stateFor(key Key) *keyState {
	l.mu.Lock()
	defer l.mu.Unlock()
	ks, ok := l.keys[key]
	if !ok {
		ks = newKeyState()
		l.keys[key] = ks
	}
	return ks
}

// Check is the non-blocking admission test. A nil policy means unlimited:
// per spec.md §4.2's failure semantics, it always returns (true, 0) and
// records nothing, so an unlimited call never occupies budget a later
// policy-bearing Check/Cost on the same key would see.
func (l *Limiter) Check(key Key, policy *Policy, cost float64) (ok bool, delayMS int64) {
	if cost <= 0 {
		cost = 1
	}
	if policy == nil {
		return true, 0
	}

	ks := l.stateFor(key)
	ks.mu.Lock()
	defer ks.mu.Unlock()

	now := l.nowMS()
	delay := ks.delayUntilAdmissible(now, *policy, cost)
	if delay > 0 {
		return false, delay
	}
	ks.record(now, cost)
	return true, 0
}

// Wait blocks until key is admissible for cost under policy. Wait honors
// the minimum delay reported by Check at each retry.
func (l *Limiter) Wait(key Key, policy *Policy, cost float64) {
	_ = l.WaitContext(context.Background(), key, policy, cost)
}

// WaitContext is Wait with cancellation: a cancelled waiter returns ctx.Err()
// without ever calling Check again, so it never records the pending cost —
// budget is only consumed by the attempt that actually admits. Per spec.md
// §5, "a cancelled waiter does not consume budget".
func (l *Limiter) WaitContext(ctx context.Context, key Key, policy *Policy, cost float64) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		ok, delay := l.Check(key, policy, cost)
		if ok {
			return nil
		}
		t := time.NewTimer(time.Duration(delay) * time.Millisecond)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

// Record advances a key's accounted cost without an admission check.
func (l *Limiter) Record(key Key, cost float64) {
	ks := l.stateFor(key)
	ks.mu.Lock()
	defer ks.mu.Unlock()
	ks.record(l.nowMS(), cost)
}

// Cost reports the current summed cost within periodMS for key.
func (l *Limiter) Cost(key Key, periodMS int64) float64 {
	ks := l.stateFor(key)
	ks.mu.Lock()
	defer ks.mu.Unlock()
	return ks.evict(l.nowMS(), periodMS)
}

// Reset clears all recorded entries for key.
func (l *Limiter) Reset(key Key) {
	ks := l.stateFor(key)
	ks.reset()
}

func (l *Limiter) nowMS() int64 {
	return l.clock.Now().UnixMilli()
}

// StartCleanup launches the periodic eviction-horizon maintenance goroutine.
// It runs until Stop is called; only the first call per Limiter starts it,
// later calls are no-ops.
func (l *Limiter) StartCleanup() {
	l.mu.Lock()
	if l.stopCh != nil {
		l.mu.Unlock()
		return
	}
	l.stopCh = make(chan struct{})
	stop := l.stopCh
	l.mu.Unlock()

	go func() {
		t := time.NewTicker(l.cleanupInt)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				l.cleanupOnce()
			case <-stop:
				return
			}
		}
	}()
}

func (l *Limiter) cleanupOnce() {
	now := l.nowMS()
	l.mu.Lock()
	defer l.mu.Unlock()
	for k, ks := range l.keys {
		if ks.evictHorizon(now, l.horizonMS) {
			delete(l.keys, k)
		}
	}
}

// Stop terminates the cleanup goroutine started by StartCleanup, if any.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() {
		l.mu.Lock()
		ch := l.stopCh
		l.mu.Unlock()
		if ch != nil {
			close(ch)
		}
	})
}
