package catalog

import (
	"fmt"
	"time"

	"github.com/thrasher-corp/gocryptotrader-core/credentials"
	"github.com/thrasher-corp/gocryptotrader-core/request"
	"github.com/thrasher-corp/gocryptotrader-core/signing"
	"github.com/thrasher-corp/gocryptotrader-core/stream"
)

// ErrUnknownEndpoint is returned when BuildCall names an endpoint the spec
// doesn't define.
type ErrUnknownEndpoint struct {
	ExchangeID, Endpoint string
}

func (e *ErrUnknownEndpoint) Error() string {
	return fmt.Sprintf("catalog: exchange %q has no endpoint %q", e.ExchangeID, e.Endpoint)
}

// ExchangeConfig projects one ExchangeSpec into the request.ExchangeConfig
// shape the pipeline consumes, choosing sandbox or production base URL.
func (s ExchangeSpec) ExchangeConfig(sandbox bool, timeout time.Duration) request.ExchangeConfig {
	base := s.URLs.API
	if sandbox && s.URLs.Sandbox != "" {
		base = s.URLs.Sandbox
	}
	policy := s.RateLimit
	return request.ExchangeConfig{
		ExchangeID:     s.ID,
		BaseURL:        base,
		RateLimit:      &policy,
		Breaker:        s.Breaker,
		SigningConfig:  s.Signing,
		ErrorCodes:     s.ErrorCodes,
		CodeFields:     s.CodeFields,
		Hints:          s.Hints,
		RequestTimeout: timeout,
	}
}

// BuildCall resolves a named endpoint against s and returns the
// EndpointDescriptor + ExchangeConfig pair ready for Pipeline.Call, per the
// request pipeline's contract of taking "(exchange_spec, endpoint_descriptor,
// params, credentials?)".
func (s ExchangeSpec) BuildCall(endpointName string, sandbox bool, timeout time.Duration) (request.ExchangeConfig, request.EndpointDescriptor, error) {
	ep, ok := s.Endpoint(endpointName)
	if !ok {
		return request.ExchangeConfig{}, request.EndpointDescriptor{}, &ErrUnknownEndpoint{ExchangeID: s.ID, Endpoint: endpointName}
	}
	desc := request.EndpointDescriptor{
		Name:         ep.Name,
		Method:       ep.Method,
		Path:         ep.Path,
		RequiresAuth: ep.Auth,
		Cost:         ep.Cost,
	}
	return s.ExchangeConfig(sandbox, timeout), desc, nil
}

// StreamConfig projects s's WS spec into a stream.Config ready for
// stream.New, wiring the signer/handler/dialer/clock/credentials the caller
// supplies around the catalog's declarative pattern selection.
func (s ExchangeSpec) StreamConfig(signer *signing.Engine, handler stream.Handler, dialer stream.Dialer, creds *credentials.Credentials) stream.Config {
	var auth *stream.AuthConfig
	if s.WS.AuthPattern != "" {
		auth = &stream.AuthConfig{Pattern: s.WS.AuthPattern, Signing: s.Signing}
	}
	return stream.Config{
		ExchangeID:  s.ID,
		URL:         s.URLs.WS,
		Auth:        auth,
		Credentials: creds,
		Handler:     handler,
		Dialer:      dialer,
		Signer:      signer,
	}
}
