package ccerr

import "strings"

// TransportErrorClass enumerates the transport-layer failure classes the
// pipeline's HTTP transport may report in lieu of an HTTP status.
type TransportErrorClass string

// Recognized transport error classes.
const (
	TransportTimeout           TransportErrorClass = "timeout"
	TransportConnectionRefused TransportErrorClass = "connection_refused"
	TransportConnectionClosed  TransportErrorClass = "connection_closed"
	TransportDNSFailure        TransportErrorClass = "dns_failure"
	TransportOther             TransportErrorClass = "other"
)

// ExchangeCodeMap maps an exchange's own error codes (as carried in a
// parsed response body) to taxonomy types. Exchange specs supply one of
// these; the classifier consults it only once transport- and
// status-level rules have been exhausted.
type ExchangeCodeMap map[string]Type

// HintRules supplies endpoint-specific hint text, consulted for step 7 of
// the classification order (required params, category remappings, etc).
// Keyed by endpoint name; a rule function receives the raw outcome and
// returns hints to attach, or nil.
type HintRules map[string]func(Outcome) []string

// Outcome is the raw, pre-classification result the pipeline hands to
// Classify: either a transport failure or an HTTP response.
type Outcome struct {
	TransportErr   TransportErrorClass // empty if a response was received
	HTTPStatus     int
	RetryAfterMS   int64
	ExchangeCode   string // parsed from response body, if present
	ExchangeMsg    string
	Endpoint       string
	Symbol         string
	AuthStatusRule func(status int) (Type, bool) // optional per-exchange 401/403 override
}

// Classify implements the classification order from the error classifier's
// contract: transport errors first, then 429, then 401/403, then 5xx, then
// the exchange's own code map, finally a catch-all exchange_error.
func Classify(exchangeID string, o Outcome, codes ExchangeCodeMap, hints HintRules) *Error {
	var e *Error

	switch {
	case o.TransportErr != "":
		e = New(TypeNetworkError, exchangeID, string(o.TransportErr), nil)

	case o.HTTPStatus == 429:
		e = New(TypeRateLimited, exchangeID, o.ExchangeMsg, nil).WithRetryAfter(o.RetryAfterMS)

	case o.HTTPStatus == 401 || o.HTTPStatus == 403:
		t := defaultAuthType(o.HTTPStatus)
		if o.AuthStatusRule != nil {
			if custom, ok := o.AuthStatusRule(o.HTTPStatus); ok {
				t = custom
			}
		}
		e = New(t, exchangeID, o.ExchangeMsg, nil).WithCode(o.ExchangeCode)

	case o.HTTPStatus >= 500:
		e = New(TypeExchangeError, exchangeID, o.ExchangeMsg, nil).WithCode(o.ExchangeCode)

	case o.HTTPStatus >= 400 && o.HTTPStatus < 500:
		e = classifyByCode(exchangeID, o, codes)

	case o.ExchangeCode != "":
		// 2xx carrying an exchange-level error code field.
		e = classifyByCode(exchangeID, o, codes)

	default:
		e = New(TypeExchangeError, exchangeID, o.ExchangeMsg, nil)
	}

	e.WithEndpoint(o.Endpoint).WithSymbol(o.Symbol)
	if hints != nil {
		if rule, ok := hints[o.Endpoint]; ok {
			if hs := rule(o); len(hs) > 0 {
				e.WithHints(hs...)
			}
		}
	}
	return e
}

func defaultAuthType(status int) Type {
	if status == 401 {
		return TypeInvalidCredentials
	}
	return TypeAccessRestricted
}

func classifyByCode(exchangeID string, o Outcome, codes ExchangeCodeMap) *Error {
	if codes != nil {
		if t, ok := codes[o.ExchangeCode]; ok {
			return New(t, exchangeID, o.ExchangeMsg, nil).WithCode(o.ExchangeCode)
		}
	}
	return New(TypeExchangeError, exchangeID, o.ExchangeMsg, nil).WithCode(o.ExchangeCode)
}

// ClassifyTransportErr maps a Go error returned by the HTTP transport into a
// TransportErrorClass using simple substring heuristics over the error
// chain, since net/http wraps platform errors inconsistently across OSes.
func ClassifyTransportErr(err error) TransportErrorClass {
	if err == nil {
		return ""
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded"):
		return TransportTimeout
	case strings.Contains(msg, "connection refused"):
		return TransportConnectionRefused
	case strings.Contains(msg, "connection reset") || strings.Contains(msg, "closed"):
		return TransportConnectionClosed
	case strings.Contains(msg, "no such host") || strings.Contains(msg, "lookup"):
		return TransportDNSFailure
	default:
		return TransportOther
	}
}
