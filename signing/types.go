// Package signing implements the family of HMAC-based authentication
// strategies used across exchange REST and WebSocket APIs. Sign is a pure
// function of its inputs plus an injected clock/nonce source: no I/O, no
// hidden global state, deterministic given a fixed timestamp and nonce.
package signing

import (
	"net/http"

	"github.com/thrasher-corp/gocryptotrader-core/credentials"
)

// Pattern identifies a signing strategy. Each value corresponds to one row
// of spec.md §4.1's pattern table.
type Pattern string

// Supported signing patterns.
const (
	PatternQueryHMACSHA256            Pattern = "query-hmac-sha256"
	PatternHeadersHMACSHA256          Pattern = "headers-hmac-sha256"
	PatternISOPassphraseHMACSHA256    Pattern = "iso-passphrase-hmac-sha256"
	PatternSignedPassphraseHMACSHA256 Pattern = "signed-passphrase-hmac-sha256"
	PatternNonceHMACSHA512            Pattern = "nonce-hmac-sha512"
	PatternGateHMACSHA512             Pattern = "gate-hmac-sha512"
	PatternPayloadHMACSHA384Bitfinex  Pattern = "payload-hmac-sha384-bitfinex"
	PatternPayloadHMACSHA384Gemini    Pattern = "payload-hmac-sha384-gemini"
	PatternDeribitHMACSHA256          Pattern = "deribit-hmac-sha256"
	PatternCustom                     Pattern = "custom"
)

// Encoding is the textual encoding of a computed signature.
type Encoding string

// Supported signature encodings.
const (
	EncodingHex    Encoding = "hex"
	EncodingBase64 Encoding = "base64"
)

// Request is the signing engine's input: a not-yet-dispatched HTTP call.
type Request struct {
	Method string
	Path   string
	Params map[string]string
	Body   []byte
}

// Header is a single ordered name/value pair. Signed requests carry headers
// as an ordered list (rather than a map) because some patterns (Deribit's
// composite Authorization header) are sensitive to the caller seeing a
// stable, reproducible header set in tests.
type Header struct {
	Name  string
	Value string
}

// SignedRequest is the signing engine's output: an HTTP-ready request
// artifact. It never carries the raw secret; only the derived signature and
// (where the pattern requires it) the API key leave the engine.
type SignedRequest struct {
	URL     string
	Method  string
	Headers []Header
	Body    []byte
}

// ApplyTo sets the signed headers on an *http.Request. URL, method, and body
// are not copied; the caller builds req from them.
func (s SignedRequest) ApplyTo(req *http.Request) {
	for _, h := range s.Headers {
		req.Header.Set(h.Name, h.Value)
	}
}

// Config is the pattern-specific parameter record consumed by Sign. Only the
// fields relevant to cfg.Pattern need to be set; the rest are ignored.
type Config struct {
	Pattern Pattern

	// Encoding overrides the signature text encoding for patterns whose
	// spec row lists "hex or base64" as a per-exchange choice
	// (query-hmac-sha256, headers-hmac-sha256). Ignored by patterns with a
	// fixed encoding.
	Encoding Encoding

	// RecvWindow is conveyed to the exchange as a timestamp validity
	// window. Zero means "not explicitly configured".
	RecvWindow int64

	// AutoRecvWindow controls insertion of a default RecvWindow when the
	// caller hasn't configured one but the exchange spec strictly
	// validates all sent params (open question (a) in spec.md §9).
	AutoRecvWindow bool

	// DefaultRecvWindowMS is the value inserted when AutoRecvWindow fires
	// without an explicit RecvWindow. Defaults to 5000 if zero.
	DefaultRecvWindowMS int64

	// APIKeyVersion selects the signed-passphrase-hmac-sha256 variant: 2
	// HMAC-signs the passphrase before sending it.
	APIKeyVersion int

	// Custom carries the caller-supplied strategy for PatternCustom.
	Custom CustomSigner
}

// CustomSigner is the contract a caller-supplied signing strategy must
// satisfy to plug into PatternCustom.
type CustomSigner interface {
	Sign(req Request, creds credentials.Credentials, clock Clock, nonce NonceSource) (SignedRequest, error)
}
