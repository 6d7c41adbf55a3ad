package signing

import (
	"sync"
	"time"

	"github.com/gofrs/uuid"
)

// Clock supplies wall-clock time for timestamp generation. Injected so tests
// can produce deterministic signatures.
type Clock interface {
	Now() time.Time
}

// SystemClock is the default Clock, backed by time.Now.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock is a Clock that always returns the same instant. Used in tests
// and in the README-style worked examples from spec.md §8.
type FixedClock struct{ T time.Time }

// Now returns the fixed instant.
func (f FixedClock) Now() time.Time { return f.T }

// NonceSource supplies strictly monotonically increasing nonces within a
// process, per spec.md §4.1's normalization rule and §9's design note.
type NonceSource interface {
	Next() int64
}

// MonotonicNonce is a (clock_us, counter) nonce source: it reads the
// monotonic microsecond clock and bumps past the previous value whenever two
// calls land on the same microsecond, guaranteeing strict monotonicity even
// under clock-resolution collisions. Patterns that must never repeat a
// nonce across process restarts sharing the same clock resolution
// (Bitfinex, Gemini, Deribit) get a process-unique floor baked in at
// construction via a v4 UUID, so two processes that start within the same
// microsecond still diverge.
type MonotonicNonce struct {
	mu   sync.Mutex
	last int64
	once sync.Once
}

// processFloor derives a process-unique, strictly-positive int64 from a
// freshly generated UUID so that last starts above zero and differs across
// process restarts even at identical clock resolution.
func processFloor() int64 {
	id, err := uuid.NewV4()
	if err != nil {
		return 0
	}
	b := id.Bytes()
	var floor int64
	for _, v := range b[:8] {
		floor = floor<<8 | int64(v)
	}
	if floor < 0 {
		floor = -floor
	}
	return floor
}

// Next returns the next strictly increasing nonce.
func (m *MonotonicNonce) Next() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.once.Do(func() {
		m.last = processFloor()
	})
	now := time.Now().UnixMicro()
	if now <= m.last {
		now = m.last + 1
	}
	m.last = now
	return now
}

// FixedNonce is a NonceSource that always returns the same value. Tests
// only; a real process must never reuse a nonce.
type FixedNonce struct{ N int64 }

// Next returns the fixed nonce.
func (f FixedNonce) Next() int64 { return f.N }
