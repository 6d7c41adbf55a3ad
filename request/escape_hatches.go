package request

import (
	"context"
	"io"
	"net/http"

	"github.com/thrasher-corp/gocryptotrader-core/ccerr"
	"github.com/thrasher-corp/gocryptotrader-core/credentials"
)

// CallRaw is the first escape hatch: it bypasses the unified endpoint
// catalog but still applies the full pipeline — admission, rate limiting,
// signing, and classification — for a caller-supplied method and path.
func (p *Pipeline) CallRaw(ctx context.Context, cfg ExchangeConfig, method, path string, params map[string]string, body []byte, requiresAuth bool, creds *credentials.Credentials) (*Result, error) {
	ep := EndpointDescriptor{Name: "raw:" + method + " " + path, Method: method, Path: path, RequiresAuth: requiresAuth, Cost: 1}
	return p.Call(ctx, cfg, ep, params, body, creds)
}

// CallPrebuilt is the second escape hatch: it issues a fully pre-built HTTP
// request with no signing, no rate limiting, no circuit breaker admission,
// and no classification — for debugging only. A response of any status is
// returned as-is; a transport error is returned as a ccerr network_error for
// exchangeID that wraps the original error.
func (p *Pipeline) CallPrebuilt(ctx context.Context, exchangeID string, req *http.Request) (*Result, error) {
	resp, err := p.Transport.Do(req.WithContext(ctx))
	if err != nil {
		return nil, ccerr.New(ccerr.TypeNetworkError, exchangeID, err.Error(), err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	return &Result{StatusCode: resp.StatusCode, Headers: resp.Header, Body: respBody}, nil
}
