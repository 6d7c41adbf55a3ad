// Package breaker implements the process-wide, per-exchange circuit
// breaker: a two-state (CLOSED/OPEN) failure counter with lazy install and
// time-based auto-close. Deliberately not a three-state half-open design —
// see the design ledger for why sony/gobreaker's probing model doesn't fit.
package breaker

import (
	"sync"
	"time"

	"github.com/thrasher-corp/gocryptotrader-core/internal/telemetry"
)

// Status is the externally visible breaker state for one exchange.
type Status string

// Breaker statuses.
const (
	StatusNotInstalled Status = "NOT_INSTALLED"
	StatusClosed       Status = "CLOSED"
	StatusOpen         Status = "OPEN"
)

// Admission is the result of a Check call.
type Admission string

// Admission outcomes.
const (
	AdmissionOK    Admission = "OK"
	AdmissionBlown Admission = "BLOWN"
)

// Result classifies one completed call for Record's melt rules.
type Result struct {
	// HTTPStatus is the response status, or 0 if TransportFailed is true.
	HTTPStatus int
	// TransportFailed indicates a transport-layer error (timeout,
	// connection-refused, connection-closed, dns-failure, or any other
	// transport class) rather than an HTTP response.
	TransportFailed bool
}

// melts reports whether r advances the failure counter, per the melt rules:
// HTTP >= 500 or any transport failure melts; 429 and other 4xx, 2xx/3xx,
// and anything else does not.
func (r Result) melts() bool {
	if r.TransportFailed {
		return true
	}
	return r.HTTPStatus >= 500
}

// Config parameterizes one exchange's breaker. MaxFailures == 0 or
// Enabled == false disables the breaker entirely.
type Config struct {
	Enabled     bool
	MaxFailures int
	WindowMS    int64
	ResetMS     int64
}

func (c Config) disabled() bool {
	return !c.Enabled || c.MaxFailures == 0
}

// Clock supplies wall-clock time; injected for deterministic tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// fuse is one exchange's installed breaker state.
type fuse struct {
	mu       sync.Mutex
	cfg      Config
	status   Status
	failures []int64 // melt timestamps (ms) within the current window
	openedAt int64
}

// Registry is the process-wide, keyed circuit breaker. The zero value is
// not usable; construct with New.
type Registry struct {
	clock Clock
	bus   *telemetry.Bus
	mu    sync.Mutex
	fuses map[string]*fuse
}

// Option configures a Registry at construction time.
type Option func(*Registry)

// WithClock overrides the registry's time source. Tests only.
func WithClock(c Clock) Option {
	return func(r *Registry) { r.clock = c }
}

// WithTelemetry attaches the bus circuit_open/circuit_closed/
// circuit_rejected events are emitted on.
func WithTelemetry(bus *telemetry.Bus) Option {
	return func(r *Registry) { r.bus = bus }
}

// New constructs a Registry ready for concurrent use.
func New(opts ...Option) *Registry {
	r := &Registry{
		clock: systemClock{},
		fuses: make(map[string]*fuse),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Install lazily installs exchangeID's breaker with cfg if not already
// installed; an already installed breaker is left unchanged. Safe under
// concurrent first-use calls.
func (r *Registry) Install(exchangeID string, cfg Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.fuses[exchangeID]; ok {
		return
	}
	r.fuses[exchangeID] = &fuse{cfg: cfg, status: StatusClosed}
}

func (r *Registry) fuseFor(exchangeID string, cfg Config) *fuse {
	r.mu.Lock()
	f, ok := r.fuses[exchangeID]
	if !ok {
		f = &fuse{cfg: cfg, status: StatusClosed}
		r.fuses[exchangeID] = f
	}
	r.mu.Unlock()
	return f
}

func (r *Registry) nowMS() int64 { return r.clock.Now().UnixMilli() }

// Check tests admission for exchangeID, installing its breaker lazily with
// cfg on first use. A disabled config (MaxFailures==0 or Enabled==false)
// always admits.
func (r *Registry) Check(exchangeID string, cfg Config) Admission {
	if cfg.disabled() {
		return AdmissionOK
	}
	f := r.fuseFor(exchangeID, cfg)

	f.mu.Lock()
	defer f.mu.Unlock()

	now := r.nowMS()
	if f.status == StatusOpen {
		if now-f.openedAt >= f.cfg.ResetMS {
			f.status = StatusClosed
			f.failures = nil
			r.emit(telemetry.CircuitBreakerClosed, exchangeID)
			return AdmissionOK
		}
		r.emit(telemetry.CircuitBreakerRejected, exchangeID)
		return AdmissionBlown
	}
	return AdmissionOK
}

// Record informs the breaker of one call's outcome, advancing the failure
// counter per the melt rules and transitioning CLOSED→OPEN when
// MaxFailures is reached inside WindowMS.
func (r *Registry) Record(exchangeID string, cfg Config, result Result) {
	if cfg.disabled() {
		return
	}
	if !result.melts() {
		return
	}
	f := r.fuseFor(exchangeID, cfg)

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.status == StatusOpen {
		return
	}

	now := r.nowMS()
	cutoff := now - f.cfg.WindowMS
	kept := f.failures[:0]
	for _, ts := range f.failures {
		if ts >= cutoff {
			kept = append(kept, ts)
		}
	}
	f.failures = append(kept, now)

	if len(f.failures) >= f.cfg.MaxFailures {
		f.status = StatusOpen
		f.openedAt = now
		r.emit(telemetry.CircuitBreakerOpen, exchangeID)
	}
}

// Status reports exchangeID's current breaker state without mutating it
// (no auto-close side effect; call Check for that).
func (r *Registry) Status(exchangeID string) Status {
	r.mu.Lock()
	f, ok := r.fuses[exchangeID]
	r.mu.Unlock()
	if !ok {
		return StatusNotInstalled
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

// Reset forces exchangeID's breaker OPEN→CLOSED regardless of timing and
// clears its failure count. A no-op if not installed; circuit_closed is
// emitted only if the breaker was OPEN.
func (r *Registry) Reset(exchangeID string) {
	r.mu.Lock()
	f, ok := r.fuses[exchangeID]
	r.mu.Unlock()
	if !ok {
		return
	}
	f.mu.Lock()
	wasOpen := f.status == StatusOpen
	f.status = StatusClosed
	f.failures = nil
	f.mu.Unlock()
	if wasOpen {
		r.emit(telemetry.CircuitBreakerClosed, exchangeID)
	}
}

// AllStatuses enumerates every exchange with an installed breaker.
func (r *Registry) AllStatuses() map[string]Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]Status, len(r.fuses))
	for id, f := range r.fuses {
		f.mu.Lock()
		out[id] = f.status
		f.mu.Unlock()
	}
	return out
}

func (r *Registry) emit(t telemetry.EventType, exchangeID string) {
	if r.bus == nil {
		return
	}
	r.bus.Emit(telemetry.Event{Type: t, ExchangeID: exchangeID, SystemTime: r.clock.Now()})
}
