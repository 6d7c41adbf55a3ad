package signing

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/thrasher-corp/gocryptotrader-core/common/crypto"
	"github.com/thrasher-corp/gocryptotrader-core/credentials"
)

// ErrInvalidParameters is returned when a pattern's config is missing a
// field its strategy requires (PatternCustom without a signer), or when the
// nonce-hmac-sha512 secret is not valid base64. A missing credential is a
// caller-gating concern, not a Sign-time error.
var ErrInvalidParameters = errors.New("signing: invalid parameters")

// ErrUnknownPattern is returned when cfg.Pattern doesn't match any known
// strategy.
var ErrUnknownPattern = errors.New("signing: unknown pattern")

// Engine dispatches Sign calls to the pattern-specific strategy named by the
// request's Config. The zero value uses SystemClock and a fresh
// MonotonicNonce; construct with New for an injected clock/nonce (tests,
// deterministic replay).
type Engine struct {
	Clock Clock
	Nonce NonceSource
}

// New builds an Engine with the given clock and nonce source. Either may be
// nil, in which case the zero-value defaults (SystemClock, a fresh
// MonotonicNonce) are used.
func New(clock Clock, nonce NonceSource) *Engine {
	if clock == nil {
		clock = SystemClock{}
	}
	if nonce == nil {
		nonce = &MonotonicNonce{}
	}
	return &Engine{Clock: clock, Nonce: nonce}
}

func (e *Engine) clock() Clock {
	if e.Clock == nil {
		return SystemClock{}
	}
	return e.Clock
}

func (e *Engine) nonce() NonceSource {
	if e.Nonce == nil {
		return &MonotonicNonce{}
	}
	return e.Nonce
}

// Sign produces a signed request artifact for req, authenticated with creds
// under the strategy named by cfg.Pattern. Sign never fails because
// credentials are absent or empty — callers must gate on credential
// presence themselves. It fails with ErrUnknownPattern for an unrecognised
// cfg.Pattern and with ErrInvalidParameters as described on that error.
func (e *Engine) Sign(req Request, creds credentials.Credentials, cfg Config) (SignedRequest, error) {
	switch cfg.Pattern {
	case PatternQueryHMACSHA256:
		return e.signQueryHMACSHA256(req, creds, cfg)
	case PatternHeadersHMACSHA256:
		return e.signHeadersHMACSHA256(req, creds, cfg)
	case PatternISOPassphraseHMACSHA256:
		return e.signISOPassphraseHMACSHA256(req, creds, cfg)
	case PatternSignedPassphraseHMACSHA256:
		return e.signSignedPassphraseHMACSHA256(req, creds, cfg)
	case PatternNonceHMACSHA512:
		return e.signNonceHMACSHA512(req, creds, cfg)
	case PatternGateHMACSHA512:
		return e.signGateHMACSHA512(req, creds, cfg)
	case PatternPayloadHMACSHA384Bitfinex:
		return e.signPayloadHMACSHA384Bitfinex(req, creds, cfg)
	case PatternPayloadHMACSHA384Gemini:
		return e.signPayloadHMACSHA384Gemini(req, creds, cfg)
	case PatternDeribitHMACSHA256:
		return e.signDeribitHMACSHA256(req, creds, cfg)
	case PatternCustom:
		if cfg.Custom == nil {
			return SignedRequest{}, ErrInvalidParameters
		}
		return cfg.Custom.Sign(req, creds, e.clock(), e.nonce())
	default:
		return SignedRequest{}, ErrUnknownPattern
	}
}

// buildQueryString lexicographically orders params and URL-encodes them,
// per spec.md §4.1's binding rule for URL-encoding patterns.
func buildQueryString(params map[string]string) string {
	v := url.Values{}
	for k, val := range params {
		v.Set(k, val)
	}
	return v.Encode() // url.Values.Encode sorts keys lexicographically
}

// jsonBody JSON-encodes params for POST/PUT requests that didn't supply an
// explicit body. encoding/json sorts map keys lexicographically, satisfying
// the same ordering rule as the URL-encoded case.
func jsonBody(params map[string]string) ([]byte, error) {
	if len(params) == 0 {
		return nil, nil
	}
	return json.Marshal(params)
}

func encodeSignature(enc Encoding, sig []byte) string {
	if enc == EncodingBase64 {
		return crypto.Base64Encode(sig)
	}
	return crypto.HexEncodeToString(sig)
}

func cloneParams(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func isBodyMethod(method string) bool {
	return method == http.MethodPost || method == http.MethodPut
}

func buildPathWithQuery(path, query string) string {
	if query == "" {
		return path
	}
	if strings.Contains(path, "?") {
		return path + "&" + query
	}
	return path + "?" + query
}

func formatMS(v int64) string { return strconv.FormatInt(v, 10) }
