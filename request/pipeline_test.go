package request

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thrasher-corp/gocryptotrader-core/breaker"
	"github.com/thrasher-corp/gocryptotrader-core/ccerr"
	"github.com/thrasher-corp/gocryptotrader-core/credentials"
	"github.com/thrasher-corp/gocryptotrader-core/ratelimit"
	"github.com/thrasher-corp/gocryptotrader-core/signing"
)

type scriptedResponse struct {
	status int
	body   string
	err    error
}

type fakeDoer struct {
	mu        sync.Mutex
	responses []scriptedResponse
	calls     []*http.Request
}

func (f *fakeDoer) Do(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if len(f.responses) == 0 {
		return &http.Response{StatusCode: 200, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{}}, nil
	}
	next := f.responses[0]
	f.responses = f.responses[1:]
	if next.err != nil {
		return nil, next.err
	}
	return &http.Response{
		StatusCode: next.status,
		Body:       io.NopCloser(bytes.NewReader([]byte(next.body))),
		Header:     http.Header{},
	}, nil
}

func newTestPipeline(doer *fakeDoer) *Pipeline {
	p := New(doer, breaker.New(), ratelimit.New(), signing.New(nil, nil))
	p.Retry = RetryPolicy{MaxAttempts: 1}
	return p
}

func TestCallSuccessReturnsBody(t *testing.T) {
	t.Parallel()

	doer := &fakeDoer{responses: []scriptedResponse{{status: 200, body: `{"ok":true}`}}}
	p := newTestPipeline(doer)

	cfg := ExchangeConfig{ExchangeID: "binance", BaseURL: "https://api.binance.com", Breaker: breaker.Config{}}
	ep := EndpointDescriptor{Name: "ticker", Method: http.MethodGet, Path: "/api/v3/ticker/price"}

	result, err := p.Call(context.Background(), cfg, ep, nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 200, result.StatusCode)
	assert.JSONEq(t, `{"ok":true}`, string(result.Body))
}

func TestCallSignsWhenAuthRequired(t *testing.T) {
	t.Parallel()

	doer := &fakeDoer{responses: []scriptedResponse{{status: 200, body: "{}"}}}
	p := newTestPipeline(doer)

	cfg := ExchangeConfig{
		ExchangeID: "binance",
		BaseURL:    "https://api.binance.com",
		SigningConfig: signing.Config{Pattern: signing.PatternQueryHMACSHA256},
	}
	ep := EndpointDescriptor{Name: "account", Method: http.MethodGet, Path: "/api/v3/account", RequiresAuth: true}
	creds := &credentials.Credentials{Key: "K", Secret: "S"}

	_, err := p.Call(context.Background(), cfg, ep, nil, nil, creds)
	require.NoError(t, err)

	require.Len(t, doer.calls, 1)
	assert.Contains(t, doer.calls[0].URL.RawQuery, "signature=")
	assert.Equal(t, "K", doer.calls[0].Header.Get("X-API-KEY"))
}

func TestCallHonorsContextDeployedCredentials(t *testing.T) {
	t.Parallel()

	doer := &fakeDoer{responses: []scriptedResponse{{status: 200, body: "{}"}}}
	p := newTestPipeline(doer)

	cfg := ExchangeConfig{
		ExchangeID:    "binance",
		BaseURL:       "https://api.binance.com",
		SigningConfig: signing.Config{Pattern: signing.PatternQueryHMACSHA256},
	}
	ep := EndpointDescriptor{Name: "account", Method: http.MethodGet, Path: "/api/v3/account", RequiresAuth: true}

	static := &credentials.Credentials{Key: "static-key", Secret: "S"}
	override := &credentials.Credentials{Key: "sub-account-key", Secret: "S2"}
	ctx := credentials.DeployToContext(context.Background(), override)

	_, err := p.Call(ctx, cfg, ep, nil, nil, static)
	require.NoError(t, err)

	require.Len(t, doer.calls, 1)
	assert.Equal(t, "sub-account-key", doer.calls[0].Header.Get("X-API-KEY"))
}

func TestCallCircuitOpenFastFails(t *testing.T) {
	t.Parallel()

	doer := &fakeDoer{}
	p := newTestPipeline(doer)
	cfg := ExchangeConfig{ExchangeID: "Y", BaseURL: "https://x", Breaker: breaker.Config{Enabled: true, MaxFailures: 1, WindowMS: 10_000, ResetMS: 15_000}}
	p.Breaker.Record("Y", cfg.Breaker, breaker.Result{HTTPStatus: 500})
	require.Equal(t, breaker.AdmissionBlown, p.Breaker.Check("Y", cfg.Breaker))

	ep := EndpointDescriptor{Name: "ticker", Method: http.MethodGet, Path: "/ticker"}
	_, err := p.Call(context.Background(), cfg, ep, nil, nil, nil)
	require.Error(t, err)

	var ce *ccerr.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ccerr.TypeCircuitOpen, ce.Type)
	assert.Empty(t, doer.calls, "fast-fail must not hit the transport")
}

func TestCallRecordsMeltOn5xx(t *testing.T) {
	t.Parallel()

	doer := &fakeDoer{responses: []scriptedResponse{
		{status: 500, body: "err"},
		{status: 500, body: "err"},
	}}
	p := newTestPipeline(doer)
	cfg := ExchangeConfig{ExchangeID: "Z", BaseURL: "https://x", Breaker: breaker.Config{Enabled: true, MaxFailures: 2, WindowMS: 10_000, ResetMS: 15_000}}
	ep := EndpointDescriptor{Name: "ticker", Method: http.MethodGet, Path: "/ticker"}

	_, err := p.Call(context.Background(), cfg, ep, nil, nil, nil)
	require.Error(t, err)
	_, err = p.Call(context.Background(), cfg, ep, nil, nil, nil)
	require.Error(t, err)

	assert.Equal(t, breaker.StatusOpen, p.Breaker.Status("Z"))
}

func TestCallRateLimitedReturnsDelayInCheckMode(t *testing.T) {
	t.Parallel()

	doer := &fakeDoer{responses: []scriptedResponse{{status: 200, body: "{}"}}}
	p := newTestPipeline(doer)
	p.Behavior = RateLimitCheck

	policy := &ratelimit.Policy{Requests: 1, PeriodMS: 60_000}
	cfg := ExchangeConfig{ExchangeID: "X", BaseURL: "https://x", RateLimit: policy}
	ep := EndpointDescriptor{Name: "ticker", Method: http.MethodGet, Path: "/ticker"}

	_, err := p.Call(context.Background(), cfg, ep, nil, nil, nil)
	require.NoError(t, err)

	_, err = p.Call(context.Background(), cfg, ep, nil, nil, nil)
	require.Error(t, err)
	var ce *ccerr.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ccerr.TypeRateLimited, ce.Type)
}

func TestCallRetriesNetworkError(t *testing.T) {
	t.Parallel()

	doer := &fakeDoer{responses: []scriptedResponse{
		{err: errTimeout{}},
		{status: 200, body: "{}"},
	}}
	p := newTestPipeline(doer)
	p.Retry = RetryPolicy{MaxAttempts: 2, BaseBackoff: time.Millisecond, MaxBackoff: time.Millisecond, RetryNetwork: true}

	cfg := ExchangeConfig{ExchangeID: "X", BaseURL: "https://x"}
	ep := EndpointDescriptor{Name: "ticker", Method: http.MethodGet, Path: "/ticker"}

	result, err := p.Call(context.Background(), cfg, ep, nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 200, result.StatusCode)
	assert.Len(t, doer.calls, 2)
}

func TestCallClassifies2xxWithEmbeddedExchangeCode(t *testing.T) {
	t.Parallel()

	doer := &fakeDoer{responses: []scriptedResponse{{status: 200, body: `{"code":"50061","msg":"insufficient balance"}`}}}
	p := newTestPipeline(doer)

	cfg := ExchangeConfig{
		ExchangeID: "gateio",
		BaseURL:    "https://x",
		ErrorCodes: ccerr.ExchangeCodeMap{"50061": ccerr.TypeInsufficientBalance},
	}
	ep := EndpointDescriptor{Name: "order", Method: http.MethodPost, Path: "/order"}

	_, err := p.Call(context.Background(), cfg, ep, nil, nil, nil)
	require.Error(t, err)
	var ce *ccerr.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ccerr.TypeInsufficientBalance, ce.Type)
}

func TestCallClassifies4xxByCatalogCodeMap(t *testing.T) {
	t.Parallel()

	doer := &fakeDoer{responses: []scriptedResponse{{status: 400, body: `{"code":"10001","msg":"bad order"}`}}}
	p := newTestPipeline(doer)

	cfg := ExchangeConfig{
		ExchangeID: "kucoin",
		BaseURL:    "https://x",
		ErrorCodes: ccerr.ExchangeCodeMap{"10001": ccerr.TypeInvalidOrder},
	}
	ep := EndpointDescriptor{Name: "order", Method: http.MethodPost, Path: "/order"}

	_, err := p.Call(context.Background(), cfg, ep, nil, nil, nil)
	require.Error(t, err)
	var ce *ccerr.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ccerr.TypeInvalidOrder, ce.Type)
}

func TestCallDoesNotRetryInvalidParameters(t *testing.T) {
	t.Parallel()

	doer := &fakeDoer{responses: []scriptedResponse{{status: 400, body: `{"code":"bad"}`}}}
	p := newTestPipeline(doer)
	p.Retry = RetryPolicy{MaxAttempts: 5, BaseBackoff: time.Millisecond, Retry5xx: true}

	cfg := ExchangeConfig{ExchangeID: "X", BaseURL: "https://x", ErrorCodes: ccerr.ExchangeCodeMap{"bad": ccerr.TypeInvalidParameters}}
	ep := EndpointDescriptor{Name: "order", Method: http.MethodPost, Path: "/order"}

	_, err := p.Call(context.Background(), cfg, ep, nil, nil, nil)
	require.Error(t, err)
	assert.Len(t, doer.calls, 1, "non-recoverable 4xx must not be retried")
}

type errTimeout struct{}

func (errTimeout) Error() string { return "dial tcp: i/o timeout" }

func TestCallPrebuiltBypassesSigningAndClassification(t *testing.T) {
	t.Parallel()

	doer := &fakeDoer{responses: []scriptedResponse{{status: 500, body: "raw error"}}}
	p := newTestPipeline(doer)

	req, err := http.NewRequest(http.MethodGet, "https://x/debug", nil)
	require.NoError(t, err)

	result, err := p.CallPrebuilt(context.Background(), "X", req)
	require.NoError(t, err)
	assert.Equal(t, 500, result.StatusCode)
}

func TestCallRawAppliesFullPipeline(t *testing.T) {
	t.Parallel()

	doer := &fakeDoer{responses: []scriptedResponse{{status: 200, body: "{}"}}}
	p := newTestPipeline(doer)
	cfg := ExchangeConfig{ExchangeID: "X", BaseURL: "https://x"}

	_, err := p.CallRaw(context.Background(), cfg, http.MethodGet, "/anything", map[string]string{"a": "b"}, nil, false, nil)
	require.NoError(t, err)
	require.Len(t, doer.calls, 1)
	assert.Contains(t, doer.calls[0].URL.RawQuery, "a=b")
}
