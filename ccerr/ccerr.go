// Package ccerr defines the structured error taxonomy shared by every
// exchange pipeline and the recoverability rules that feed retry policy.
// Errors are values: callers pattern-match on Type rather than relying on
// sentinel identity, mirroring the teacher's exchanges error-wrapping style
// but replacing its per-exchange error sets with one closed taxonomy.
package ccerr

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Type is the closed taxonomy of outcomes the classifier produces.
type Type string

// Error type constants, matching the taxonomy 1:1.
const (
	TypeRateLimited         Type = "rate_limited"
	TypeNetworkError        Type = "network_error"
	TypeMarketClosed        Type = "market_closed"
	TypeCircuitOpen         Type = "circuit_open"
	TypeInsufficientBalance Type = "insufficient_balance"
	TypeInvalidCredentials  Type = "invalid_credentials"
	TypeInvalidParameters   Type = "invalid_parameters"
	TypeInvalidOrder        Type = "invalid_order"
	TypeOrderNotFound       Type = "order_not_found"
	TypeAccessRestricted    Type = "access_restricted"
	TypeNotSupported        Type = "not_supported"
	TypeExchangeError       Type = "exchange_error"
)

// recoverable is the fixed table from the classifier's contract. Types
// absent from this map (only exchange_error) are "unknown": the caller
// inspects code/message to decide.
var recoverable = map[Type]bool{
	TypeRateLimited:         true,
	TypeNetworkError:        true,
	TypeMarketClosed:        true,
	TypeCircuitOpen:         true,
	TypeInsufficientBalance: false,
	TypeInvalidCredentials:  false,
	TypeInvalidParameters:   false,
	TypeInvalidOrder:        false,
	TypeOrderNotFound:       false,
	TypeAccessRestricted:    false,
	TypeNotSupported:        false,
}

// Recoverable reports whether t is retryable. ok is false for exchange_error,
// whose recoverability is unknown without inspecting code/message.
func Recoverable(t Type) (yes bool, ok bool) {
	yes, ok = recoverable[t]
	return yes, ok
}

// Error is the structured error value returned throughout the pipeline.
// It always carries the exchange id and, when available, the endpoint and
// offending symbol, per the propagation contract.
type Error struct {
	Type         Type
	ExchangeID   string
	Endpoint     string
	Symbol       string
	Code         string
	Message      string
	RetryAfterMS int64
	Hints        []string
	Cause        error
}

// Error satisfies the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.ExchangeID, e.Type)
	if e.Endpoint != "" {
		msg += fmt.Sprintf(" endpoint=%s", e.Endpoint)
	}
	if e.Symbol != "" {
		msg += fmt.Sprintf(" symbol=%s", e.Symbol)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Unwrap exposes the wrapped transport/parse error, if any, to errors.Is/As.
func (e *Error) Unwrap() error { return e.Cause }

// Recoverable reports whether this error's type is retryable. For
// exchange_error, ok is false — callers must inspect Code/Message.
func (e *Error) Recoverable() (yes bool, ok bool) {
	return Recoverable(e.Type)
}

// New constructs an Error of the given type for exchangeID, wrapping cause
// (via github.com/pkg/errors) if non-nil so the original transport error's
// stack trace survives to logs at the pipeline boundary.
func New(t Type, exchangeID string, message string, cause error) *Error {
	e := &Error{Type: t, ExchangeID: exchangeID, Message: message}
	if cause != nil {
		e.Cause = pkgerrors.Wrap(cause, string(t))
	}
	return e
}

// WithEndpoint attaches the endpoint name that produced the error.
func (e *Error) WithEndpoint(endpoint string) *Error {
	e.Endpoint = endpoint
	return e
}

// WithSymbol attaches the offending symbol.
func (e *Error) WithSymbol(symbol string) *Error {
	e.Symbol = symbol
	return e
}

// WithCode attaches the raw exchange-specific error code.
func (e *Error) WithCode(code string) *Error {
	e.Code = code
	return e
}

// WithRetryAfter attaches an advertised retry delay (rate_limited only).
func (e *Error) WithRetryAfter(ms int64) *Error {
	e.RetryAfterMS = ms
	return e
}

// WithHints overrides the error's hints. Per the propagation contract,
// caller-supplied hints are not merged with deterministic ones — they
// override.
func (e *Error) WithHints(hints ...string) *Error {
	e.Hints = hints
	return e
}
