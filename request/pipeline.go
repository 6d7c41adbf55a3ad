// Package request orchestrates one REST call through circuit-breaker
// admission, rate-limit accounting, signing, HTTP dispatch, breaker
// recording, and error classification — the glue between the unified
// caller-facing API and the wire.
package request

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/thrasher-corp/gocryptotrader-core/breaker"
	"github.com/thrasher-corp/gocryptotrader-core/ccerr"
	"github.com/thrasher-corp/gocryptotrader-core/credentials"
	"github.com/thrasher-corp/gocryptotrader-core/internal/clog"
	"github.com/thrasher-corp/gocryptotrader-core/ratelimit"
	"github.com/thrasher-corp/gocryptotrader-core/signing"
)

// Doer is the interchangeable HTTP transport the pipeline dispatches
// through. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// EndpointDescriptor is one named operation on an exchange: its method,
// path template, whether it requires signing, and its rate-limit cost.
type EndpointDescriptor struct {
	Name       string
	Method     string
	Path       string
	RequiresAuth bool
	Cost       float64 // defaults to 1 when <= 0
}

// RateLimitBehavior selects whether the pipeline blocks for capacity or
// reports a delay immediately.
type RateLimitBehavior int

// Rate-limit behaviors.
const (
	RateLimitWait RateLimitBehavior = iota
	RateLimitCheck
)

// RetryPolicy controls which recoverable outcomes the pipeline retries and
// how it backs off between attempts.
type RetryPolicy struct {
	MaxAttempts     int
	BaseBackoff     time.Duration
	MaxBackoff      time.Duration
	RetryNetwork    bool
	RetryRateLimit  bool
	Retry5xx        bool
}

// DefaultRetryPolicy matches the contract's "transient-safe retries with
// exponential backoff on network_error, rate_limited after
// retry_after_ms, and HTTP >= 500 up to a small fixed count".
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		BaseBackoff:    500 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		RetryNetwork:   true,
		RetryRateLimit: true,
		Retry5xx:       true,
	}
}

// ExchangeConfig is the subset of an exchange's spec the pipeline needs to
// dispatch a call: base URLs, rate-limit policy, breaker config, signing
// config, and the exchange's error-code map.
type ExchangeConfig struct {
	ExchangeID    string
	BaseURL       string
	RateLimit     *ratelimit.Policy
	Breaker       breaker.Config
	SigningConfig signing.Config
	ErrorCodes    ccerr.ExchangeCodeMap
	CodeFields    ccerr.CodeFields // where in the response body the exchange's own code/message live
	Hints         ccerr.HintRules
	RequestTimeout time.Duration
}

// Pipeline is the process-wide orchestrator. One Pipeline is shared by
// every exchange; per-call state is confined to Call's stack.
type Pipeline struct {
	Transport Doer
	Breaker   *breaker.Registry
	Limiter   *ratelimit.Limiter
	Signer    *signing.Engine
	Retry     RetryPolicy
	Behavior  RateLimitBehavior
}

// New constructs a Pipeline with the given collaborators. Transport,
// Breaker, Limiter, and Signer must be non-nil.
func New(transport Doer, br *breaker.Registry, limiter *ratelimit.Limiter, signer *signing.Engine) *Pipeline {
	return &Pipeline{
		Transport: transport,
		Breaker:   br,
		Limiter:   limiter,
		Signer:    signer,
		Retry:     DefaultRetryPolicy(),
		Behavior:  RateLimitWait,
	}
}

// Result is a successful call's outcome.
type Result struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Call executes one endpoint call through the full pipeline: admission,
// rate limiting, signing, dispatch, recording, and classification.
//
// creds is the statically configured default for this exchange; a caller
// that deployed per-call override credentials into ctx via
// credentials.DeployToContext (e.g. to run one call under a sub-account)
// has those honored instead, per credentials' "scoped to a single call"
// ownership rule.
func (p *Pipeline) Call(ctx context.Context, cfg ExchangeConfig, ep EndpointDescriptor, params map[string]string, body []byte, creds *credentials.Credentials) (*Result, error) {
	creds, err := resolveCredentials(ctx, creds)
	if err != nil {
		return nil, ccerr.New(ccerr.TypeInvalidCredentials, cfg.ExchangeID, err.Error(), err).WithEndpoint(ep.Name)
	}

	if admission := p.Breaker.Check(cfg.ExchangeID, cfg.Breaker); admission == breaker.AdmissionBlown {
		return nil, ccerr.New(ccerr.TypeCircuitOpen, cfg.ExchangeID, "circuit breaker open", nil).WithEndpoint(ep.Name)
	}

	key := poolKey(cfg.ExchangeID, creds)
	cost := ep.Cost
	if cost <= 0 {
		cost = 1
	}

	var attempt int
	backoff := p.Retry.BaseBackoff
	maxAttempts := p.Retry.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	for {
		attempt++

		var classErr *ccerr.Error
		var result *Result
		if rlErr := p.admitRateLimit(ctx, cfg.ExchangeID, key, cfg.RateLimit, cost); rlErr != nil {
			classErr = rlErr
		} else {
			result, classErr = p.dispatchOnce(ctx, cfg, ep, params, body, creds)
		}
		if classErr == nil {
			return result, nil
		}

		if attempt >= maxAttempts || !p.shouldRetry(classErr) {
			return nil, classErr
		}

		delay := retryDelay(classErr, backoff)
		clog.Warnf(clog.ExchangeCore, "retrying %s/%s after %s (attempt %d): %v", cfg.ExchangeID, ep.Name, delay, attempt, classErr)
		select {
		case <-ctx.Done():
			return nil, ccerr.New(ccerr.TypeNetworkError, cfg.ExchangeID, "context cancelled", ctx.Err()).WithEndpoint(ep.Name)
		case <-time.After(delay):
		}
		if backoff < p.Retry.MaxBackoff {
			backoff *= 2
			if backoff > p.Retry.MaxBackoff {
				backoff = p.Retry.MaxBackoff
			}
		}
	}
}

func (p *Pipeline) admitRateLimit(ctx context.Context, exchangeID string, key ratelimit.Key, policy *ratelimit.Policy, cost float64) *ccerr.Error {
	switch p.Behavior {
	case RateLimitCheck:
		ok, delay := p.Limiter.Check(key, policy, cost)
		if !ok {
			return ccerr.New(ccerr.TypeRateLimited, exchangeID, "rate limit exceeded", nil).WithRetryAfter(delay)
		}
		return nil
	default:
		if err := p.Limiter.WaitContext(ctx, key, policy, cost); err != nil {
			return ccerr.New(ccerr.TypeNetworkError, exchangeID, "rate limit wait cancelled", err).WithRetryAfter(0)
		}
		return nil
	}
}

func (p *Pipeline) dispatchOnce(ctx context.Context, cfg ExchangeConfig, ep EndpointDescriptor, params map[string]string, body []byte, creds *credentials.Credentials) (*Result, *ccerr.Error) {
	req := signing.Request{Method: ep.Method, Path: ep.Path, Params: params, Body: body}

	var signed signing.SignedRequest
	if ep.RequiresAuth {
		var c credentials.Credentials
		if creds != nil {
			c = *creds
		}
		var err error
		signed, err = p.Signer.Sign(req, c, cfg.SigningConfig)
		if err != nil {
			return nil, ccerr.New(ccerr.TypeInvalidParameters, cfg.ExchangeID, err.Error(), err).WithEndpoint(ep.Name)
		}
	} else {
		signed = unsignedRequest(req)
	}

	httpReq, err := http.NewRequestWithContext(ctx, signed.Method, cfg.BaseURL+signed.URL, bytes.NewReader(signed.Body))
	if err != nil {
		return nil, ccerr.New(ccerr.TypeInvalidParameters, cfg.ExchangeID, err.Error(), err).WithEndpoint(ep.Name)
	}
	signed.ApplyTo(httpReq)

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	dctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	httpReq = httpReq.WithContext(dctx)

	resp, err := p.Transport.Do(httpReq)
	if err != nil {
		p.Breaker.Record(cfg.ExchangeID, cfg.Breaker, breaker.Result{TransportFailed: true})
		tc := ccerr.ClassifyTransportErr(err)
		return nil, ccerr.Classify(cfg.ExchangeID, ccerr.Outcome{TransportErr: tc, Endpoint: ep.Name}, cfg.ErrorCodes, cfg.Hints)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	p.Breaker.Record(cfg.ExchangeID, cfg.Breaker, breaker.Result{HTTPStatus: resp.StatusCode})

	code, msg := ccerr.ExtractCode(respBody, cfg.CodeFields)

	// Per spec.md §4.6 step 6 / §4.4 step 6: a 2xx response can still carry
	// an exchange-level error code (e.g. Gate.io's insufficient_balance
	// pattern) and must be classified rather than treated as success.
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if code == "" {
			return &Result{StatusCode: resp.StatusCode, Headers: resp.Header, Body: respBody}, nil
		}
		outcome := ccerr.Outcome{
			HTTPStatus:   resp.StatusCode,
			Endpoint:     ep.Name,
			ExchangeCode: code,
			ExchangeMsg:  msg,
		}
		return nil, ccerr.Classify(cfg.ExchangeID, outcome, cfg.ErrorCodes, cfg.Hints)
	}

	outcome := ccerr.Outcome{
		HTTPStatus:   resp.StatusCode,
		Endpoint:     ep.Name,
		ExchangeCode: code,
		ExchangeMsg:  msg,
	}
	if outcome.ExchangeMsg == "" {
		outcome.ExchangeMsg = string(respBody)
	}
	return nil, ccerr.Classify(cfg.ExchangeID, outcome, cfg.ErrorCodes, cfg.Hints)
}

func (p *Pipeline) shouldRetry(err *ccerr.Error) bool {
	yes, ok := err.Recoverable()
	if !ok || !yes {
		return false
	}
	switch err.Type {
	case ccerr.TypeNetworkError:
		return p.Retry.RetryNetwork
	case ccerr.TypeRateLimited:
		return p.Retry.RetryRateLimit
	case ccerr.TypeExchangeError:
		return p.Retry.Retry5xx
	default:
		return false
	}
}

func retryDelay(err *ccerr.Error, backoff time.Duration) time.Duration {
	if err.Type == ccerr.TypeRateLimited && err.RetryAfterMS > 0 {
		return time.Duration(err.RetryAfterMS) * time.Millisecond
	}
	return backoff
}

func unsignedRequest(req signing.Request) signing.SignedRequest {
	path := req.Path
	if req.Method == http.MethodGet || req.Method == http.MethodDelete {
		if len(req.Params) > 0 {
			path = path + "?" + encodeParams(req.Params)
		}
		return signing.SignedRequest{URL: path, Method: req.Method}
	}
	return signing.SignedRequest{URL: path, Method: req.Method, Body: req.Body}
}

// encodeParams URL-encodes params via url.Values, which also sorts keys
// lexicographically for deterministic query strings.
func encodeParams(params map[string]string) string {
	v := url.Values{}
	for k, val := range params {
		v.Set(k, val)
	}
	return v.Encode()
}

// resolveCredentials honors a per-call credentials override deployed into
// ctx via credentials.DeployToContext, falling back to fallback (the
// exchange's statically configured credentials) when none was deployed.
func resolveCredentials(ctx context.Context, fallback *credentials.Credentials) (*credentials.Credentials, error) {
	override, ok, err := credentials.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	if ok {
		return override, nil
	}
	return fallback, nil
}

// poolKey computes the rate-limit key: (exchange_id, :public) when no
// credentials, else (exchange_id, digest(api_key)).
func poolKey(exchangeID string, creds *credentials.Credentials) ratelimit.Key {
	if creds == nil || creds.Key == "" {
		return ratelimit.Key{ExchangeID: exchangeID, Pool: ratelimit.PublicPool}
	}
	sum := sha256.Sum256([]byte(creds.Key))
	return ratelimit.Key{ExchangeID: exchangeID, Pool: hex.EncodeToString(sum[:8])}
}
