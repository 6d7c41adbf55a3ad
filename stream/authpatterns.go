package stream

import (
	"strconv"
	"time"

	"github.com/thrasher-corp/gocryptotrader-core/common/crypto"
	"github.com/thrasher-corp/gocryptotrader-core/credentials"
	"github.com/thrasher-corp/gocryptotrader-core/signing"
)

// BuildAuthFrame constructs the pattern-specific authentication frame to
// send over the socket. A nil frame with a nil error means there is no
// standalone auth frame to send: the pattern is REST-pre-auth (listen-key,
// rest-token) or inline-subscribe.
func BuildAuthFrame(cfg AuthConfig, creds credentials.Credentials, signer *signing.Engine, clock Clock) (any, error) {
	if clock == nil {
		clock = systemClock{}
	}
	switch cfg.Pattern {
	case AuthListenKey, AuthRESTToken, AuthInlineSubscribe:
		// No standalone frame: listen-key/rest-token are pre-authed over
		// REST, and inline-subscribe carries auth fields on each
		// subscribe message rather than a dedicated auth frame.
		return nil, nil

	case AuthDirectHMACExpiry:
		return directHMACExpiryFrame(creds, signer, clock)

	case AuthISOPassphrase:
		return isoPassphraseFrame(creds, signer, clock)

	case AuthJSONRPCLinebreak:
		return jsonrpcLinebreakFrame(creds, signer, clock)

	case AuthSHA384Nonce:
		return sha384NonceFrame(creds, signer)

	case AuthSHA512Newline:
		return sha512NewlineFrame(creds, signer, clock)

	case AuthGenericHMAC:
		return genericHMACFrame(creds, signer, cfg.Signing, clock)

	default:
		return nil, ErrUnknownAuthPattern
	}
}

// directHMACExpiryFrame builds a {op, args: [key, expires, sign]} frame
// (OKX/Bybit-v5-style): sign = HMAC-SHA256(hex) of "GET/realtime" + expires.
func directHMACExpiryFrame(creds credentials.Credentials, signer *signing.Engine, clock Clock) (any, error) {
	expires := clock.Now().Add(10 * time.Second).UnixMilli()
	payload := "GET/realtime" + strconv.FormatInt(expires, 10)
	sig, err := crypto.GetHMAC(crypto.HashSHA256, []byte(payload), []byte(creds.Secret))
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"op":   "auth",
		"args": []any{creds.Key, expires, crypto.HexEncodeToString(sig)},
	}, nil
}

// isoPassphraseFrame builds an OKX-style login frame: sign = base64
// HMAC-SHA256 of ts + "GET" + "/users/self/verify", with ts in Unix seconds.
// It computes the HMAC directly rather than calling the REST signer.
func isoPassphraseFrame(creds credentials.Credentials, signer *signing.Engine, clock Clock) (any, error) {
	ts := strconv.FormatInt(clock.Now().Unix(), 10)
	payload := ts + "GET" + "/users/self/verify"
	sig, err := crypto.GetHMAC(crypto.HashSHA256, []byte(payload), []byte(creds.Secret))
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"op": "login",
		"args": []any{map[string]any{
			"apiKey":     creds.Key,
			"passphrase": creds.Passphrase,
			"timestamp":  ts,
			"sign":       crypto.Base64Encode(sig),
		}},
	}, nil
}

// jsonrpcLinebreakFrame builds a Deribit-style JSON-RPC auth call, signing
// "ts\nnonce\n" with the client secret.
func jsonrpcLinebreakFrame(creds credentials.Credentials, signer *signing.Engine, clock Clock) (any, error) {
	ts := clock.Now().UnixMilli()
	nonce := signer.Nonce.Next()
	payload := strconv.FormatInt(ts, 10) + "\n" + strconv.FormatInt(nonce, 10) + "\n"
	sig, err := crypto.GetHMAC(crypto.HashSHA256, []byte(payload), []byte(creds.Secret))
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"jsonrpc": "2.0",
		"method":  "public/auth",
		"params": map[string]any{
			"grant_type": "client_signature",
			"client_id":  creds.Key,
			"timestamp":  ts,
			"nonce":      nonce,
			"signature":  crypto.HexEncodeToString(sig),
		},
	}, nil
}

// sha384NonceFrame builds a Bitfinex-style WS auth payload: payload =
// "AUTH" + nonce, HMAC-SHA384 hex.
func sha384NonceFrame(creds credentials.Credentials, signer *signing.Engine) (any, error) {
	nonce := signer.Nonce.Next()
	payload := "AUTH" + strconv.FormatInt(nonce, 10)
	sig, err := crypto.GetHMAC(crypto.HashSHA512_384, []byte(payload), []byte(creds.Secret))
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"event":       "auth",
		"apiKey":      creds.Key,
		"authSig":     crypto.HexEncodeToString(sig),
		"authPayload": payload,
		"authNonce":   nonce,
	}, nil
}

// sha512NewlineFrame builds a Gate.io-style channel-login frame: payload =
// "api\n" + channel + "\n\n" + ts, HMAC-SHA512 hex.
func sha512NewlineFrame(creds credentials.Credentials, signer *signing.Engine, clock Clock) (any, error) {
	ts := clock.Now().Unix()
	payload := "api\n" + "server.sign\n\n" + strconv.FormatInt(ts, 10)
	sig, err := crypto.GetHMAC(crypto.HashSHA512, []byte(payload), []byte(creds.Secret))
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"time":    ts,
		"channel": "server.sign",
		"event":   "api",
		"payload": map[string]any{
			"api_key":   creds.Key,
			"signature": crypto.HexEncodeToString(sig),
			"timestamp": strconv.FormatInt(ts, 10),
		},
	}, nil
}

// genericHMACFrame delegates to the REST signing engine's pattern for
// exchanges whose WS auth frame is just their REST signature applied to a
// fixed "login" request, reusing whatever pattern cfg.Signing names.
func genericHMACFrame(creds credentials.Credentials, signer *signing.Engine, signingCfg signing.Config, clock Clock) (any, error) {
	req := signing.Request{Method: "GET", Path: "/ws/auth"}
	signed, err := signer.Sign(req, creds, signingCfg)
	if err != nil {
		return nil, err
	}
	headers := make(map[string]string, len(signed.Headers))
	for _, h := range signed.Headers {
		headers[h.Name] = h.Value
	}
	return map[string]any{
		"op":      "auth",
		"headers": headers,
	}, nil
}
