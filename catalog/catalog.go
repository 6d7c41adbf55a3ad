// Package catalog holds the declarative, per-exchange specification data
// the request pipeline and WebSocket adapter consume: URLs, signing pattern
// selection, endpoint definitions, rate-limit policy, error-code mappings,
// and WebSocket auth/routing configuration. Per spec.md §1 this data is an
// external collaborator — "treated as static configuration data the core
// consumes" — so the catalog never contains per-call logic, only records a
// caller hands to signing.Engine, ratelimit.Limiter, request.Pipeline, and
// stream.Adapter.
//
// In the teacher repo this is the territory of the generated per-exchange
// "classes" (package config plus one hand-written package per exchange
// under exchanges/*); per spec.md §9's design note, that metaprogrammed
// code generation collapses here into plain struct literals consumed by one
// implementation of the pipeline.
package catalog

import (
	"github.com/thrasher-corp/gocryptotrader-core/breaker"
	"github.com/thrasher-corp/gocryptotrader-core/ccerr"
	"github.com/thrasher-corp/gocryptotrader-core/ratelimit"
	"github.com/thrasher-corp/gocryptotrader-core/signing"
	"github.com/thrasher-corp/gocryptotrader-core/stream"
)

// URLs is the set of base URLs an exchange serves REST and WebSocket traffic
// from, per spec.md §3's exchange specification data model.
type URLs struct {
	API     string
	Sandbox string
	WS      string
}

// EndpointSpec is one named operation on an exchange: method, path
// template, whether it requires signing, and its rate-limit cost (defaults
// to 1 when zero).
type EndpointSpec struct {
	Name     string
	Method   string
	Path     string
	Auth     bool
	Cost     float64
	Category string // derivatives/spot/etc, feeds Hints rules
}

// WSSpec is the subscription/auth pattern configuration for an exchange's
// WebSocket surface.
type WSSpec struct {
	AuthPattern stream.AuthPattern
	Routing     *stream.ChannelRouting // nil if the exchange serves one topic set on one URL
}

// ExchangeSpec is the full declarative record for one exchange, matching
// spec.md §3's "Exchange specification (consumed from external catalog)".
type ExchangeSpec struct {
	ID            string
	URLs          URLs
	Signing       signing.Config
	Endpoints     []EndpointSpec
	RateLimit     ratelimit.Policy
	Breaker       breaker.Config
	ErrorCodes    ccerr.ExchangeCodeMap
	CodeFields    ccerr.CodeFields // where in the response body the exchange's own code/message live
	Hints         ccerr.HintRules
	Timeframes    map[string]string // unified timeframe -> exchange-specific wire value
	SymbolFormat  SymbolFormat
	Options       map[string]any
	WS            WSSpec
}

// SymbolFormat describes how an exchange renders a currency pair, per
// spec.md §9's note that symbol normalization is a caller concern: the core
// only carries the descriptor, never converts a symbol itself.
type SymbolFormat struct {
	Delimiter string
	Uppercase bool
}

// Endpoint looks up a named endpoint, returning ok=false if the exchange
// spec doesn't define it.
func (s ExchangeSpec) Endpoint(name string) (EndpointSpec, bool) {
	for _, ep := range s.Endpoints {
		if ep.Name == name {
			return ep, true
		}
	}
	return EndpointSpec{}, false
}

// DefaultBreakerConfig is applied by Registry when a catalog entry sets its
// zero value, matching spec.md §6's option table defaults.
func DefaultBreakerConfig() breaker.Config {
	return breaker.Config{
		Enabled:     true,
		MaxFailures: 5,
		WindowMS:    10_000,
		ResetMS:     15_000,
	}
}

// Registry is an in-memory, read-only-after-load collection of exchange
// specs, matching spec.md §5's "catalog is read-only after load".
type Registry struct {
	specs map[string]ExchangeSpec
}

// NewRegistry builds a Registry from specs, keyed by ExchangeSpec.ID.
func NewRegistry(specs ...ExchangeSpec) *Registry {
	r := &Registry{specs: make(map[string]ExchangeSpec, len(specs))}
	for _, s := range specs {
		if s.Breaker == (breaker.Config{}) {
			s.Breaker = DefaultBreakerConfig()
		}
		r.specs[s.ID] = s
	}
	return r
}

// Get returns the named exchange's spec, ok=false if unknown.
func (r *Registry) Get(exchangeID string) (ExchangeSpec, bool) {
	s, ok := r.specs[exchangeID]
	return s, ok
}

// IDs returns every exchange id the registry knows about.
func (r *Registry) IDs() []string {
	out := make([]string, 0, len(r.specs))
	for id := range r.specs {
		out = append(out, id)
	}
	return out
}

// Default is a process-wide registry seeded with the representative
// exchange set (specs.go), covering every non-custom signing pattern and
// every WS auth pattern except sha512-newline.
// Callers needing a custom set construct their own Registry with NewRegistry
// instead of mutating this one.
var Default = NewRegistry(
	Binance, Bybit, OKX, KuCoin, Kraken, GateIO, Bitfinex, Gemini, Deribit, Bitget, Coinbase,
)
