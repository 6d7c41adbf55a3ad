package signing

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/thrasher-corp/gocryptotrader-core/common/crypto"
	"github.com/thrasher-corp/gocryptotrader-core/credentials"
)

const defaultRecvWindowMS = 5000

func (cfg Config) recvWindowMS() int64 {
	if cfg.RecvWindow > 0 {
		return cfg.RecvWindow
	}
	if cfg.AutoRecvWindow {
		if cfg.DefaultRecvWindowMS > 0 {
			return cfg.DefaultRecvWindowMS
		}
		return defaultRecvWindowMS
	}
	return 0
}

func (cfg Config) encodingOr(def Encoding) Encoding {
	if cfg.Encoding == "" {
		return def
	}
	return cfg.Encoding
}

// signQueryHMACSHA256 implements the query-hmac-sha256 pattern (Binance
// spot-style): signature travels in the query string, timestamp in params.
func (e *Engine) signQueryHMACSHA256(req Request, creds credentials.Credentials, cfg Config) (SignedRequest, error) {
	params := cloneParams(req.Params)
	ts := e.clock().Now().UnixMilli()
	params["timestamp"] = formatMS(ts)
	if w := cfg.recvWindowMS(); w > 0 {
		params["recvWindow"] = formatMS(w)
	}

	signable := buildQueryString(params)
	sig, err := crypto.GetHMAC(crypto.HashSHA256, []byte(signable), []byte(creds.Secret))
	if err != nil {
		return SignedRequest{}, err
	}
	params["signature"] = encodeSignature(cfg.encodingOr(EncodingHex), sig)
	final := buildQueryString(params)

	headers := []Header{{Name: "X-API-KEY", Value: creds.Key}}
	if isBodyMethod(req.Method) {
		body := req.Body
		if body == nil {
			body = []byte(final)
			headers = append(headers, Header{Name: "Content-Type", Value: "application/x-www-form-urlencoded"})
		}
		return SignedRequest{URL: req.Path, Method: req.Method, Headers: headers, Body: body}, nil
	}
	return SignedRequest{URL: buildPathWithQuery(req.Path, final), Method: req.Method, Headers: headers}, nil
}

// signHeadersHMACSHA256 implements the headers-hmac-sha256 pattern
// (Bybit-style): payload = ts ‖ apiKey ‖ recvWindow ‖ (query|body).
func (e *Engine) signHeadersHMACSHA256(req Request, creds credentials.Credentials, cfg Config) (SignedRequest, error) {
	params := cloneParams(req.Params)
	ts := formatMS(e.clock().Now().UnixMilli())
	recv := cfg.recvWindowMS()
	recvStr := ""
	if recv > 0 {
		recvStr = formatMS(recv)
	}

	var bodyBytes []byte
	var payloadTail string
	if isBodyMethod(req.Method) {
		if req.Body != nil {
			bodyBytes = req.Body
		} else if len(params) > 0 {
			b, err := jsonBody(params)
			if err != nil {
				return SignedRequest{}, err
			}
			bodyBytes = b
		}
		payloadTail = string(bodyBytes)
	} else {
		payloadTail = buildQueryString(params)
	}

	payload := ts + creds.Key + recvStr + payloadTail
	sig, err := crypto.GetHMAC(crypto.HashSHA256, []byte(payload), []byte(creds.Secret))
	if err != nil {
		return SignedRequest{}, err
	}

	headers := []Header{
		{Name: "X-BAPI-API-KEY", Value: creds.Key},
		{Name: "X-BAPI-TIMESTAMP", Value: ts},
		{Name: "X-BAPI-SIGN", Value: encodeSignature(cfg.encodingOr(EncodingHex), sig)},
	}
	if recvStr != "" {
		headers = append(headers, Header{Name: "X-BAPI-RECV-WINDOW", Value: recvStr})
	}

	if isBodyMethod(req.Method) {
		if req.Body == nil && len(bodyBytes) > 0 {
			headers = append(headers, Header{Name: "Content-Type", Value: "application/json"})
		}
		return SignedRequest{URL: req.Path, Method: req.Method, Headers: headers, Body: bodyBytes}, nil
	}
	return SignedRequest{URL: buildPathWithQuery(req.Path, buildQueryString(params)), Method: req.Method, Headers: headers}, nil
}

const iso8601Millis = "2006-01-02T15:04:05.000Z"

// signISOPassphraseHMACSHA256 implements the iso-passphrase-hmac-sha256
// pattern (OKX-style): payload = ts ‖ METHOD ‖ path ‖ body; passphrase sent
// plain.
func (e *Engine) signISOPassphraseHMACSHA256(req Request, creds credentials.Credentials, cfg Config) (SignedRequest, error) {
	params := cloneParams(req.Params)
	ts := e.clock().Now().UTC().Format(iso8601Millis)

	path := req.Path
	var bodyBytes []byte
	if isBodyMethod(req.Method) {
		bodyBytes = req.Body
		if bodyBytes == nil {
			b, err := jsonBody(params)
			if err != nil {
				return SignedRequest{}, err
			}
			bodyBytes = b
		}
	} else if len(params) > 0 {
		path = buildPathWithQuery(path, buildQueryString(params))
	}

	payload := ts + req.Method + path + string(bodyBytes)
	sig, err := crypto.GetHMAC(crypto.HashSHA256, []byte(payload), []byte(creds.Secret))
	if err != nil {
		return SignedRequest{}, err
	}

	headers := []Header{
		{Name: "OK-ACCESS-KEY", Value: creds.Key},
		{Name: "OK-ACCESS-SIGN", Value: crypto.Base64Encode(sig)},
		{Name: "OK-ACCESS-TIMESTAMP", Value: ts},
		{Name: "OK-ACCESS-PASSPHRASE", Value: creds.Passphrase},
	}
	if isBodyMethod(req.Method) && bodyBytes != nil {
		headers = append(headers, Header{Name: "Content-Type", Value: "application/json"})
	}
	return SignedRequest{URL: path, Method: req.Method, Headers: headers, Body: bodyBytes}, nil
}

// signSignedPassphraseHMACSHA256 implements the
// signed-passphrase-hmac-sha256 pattern (KuCoin-style): same payload shape
// as iso-passphrase but with an ms timestamp, and the passphrase is itself
// HMAC-signed when cfg.APIKeyVersion == 2.
func (e *Engine) signSignedPassphraseHMACSHA256(req Request, creds credentials.Credentials, cfg Config) (SignedRequest, error) {
	params := cloneParams(req.Params)
	ts := formatMS(e.clock().Now().UnixMilli())

	path := req.Path
	var bodyBytes []byte
	if isBodyMethod(req.Method) {
		bodyBytes = req.Body
		if bodyBytes == nil {
			b, err := jsonBody(params)
			if err != nil {
				return SignedRequest{}, err
			}
			bodyBytes = b
		}
	} else if len(params) > 0 {
		path = buildPathWithQuery(path, buildQueryString(params))
	}

	payload := ts + req.Method + path + string(bodyBytes)
	sig, err := crypto.GetHMAC(crypto.HashSHA256, []byte(payload), []byte(creds.Secret))
	if err != nil {
		return SignedRequest{}, err
	}

	passphrase := creds.Passphrase
	if cfg.APIKeyVersion == 2 {
		passSig, err := crypto.GetHMAC(crypto.HashSHA256, []byte(creds.Passphrase), []byte(creds.Secret))
		if err != nil {
			return SignedRequest{}, err
		}
		passphrase = crypto.Base64Encode(passSig)
	}

	headers := []Header{
		{Name: "KC-API-KEY", Value: creds.Key},
		{Name: "KC-API-SIGN", Value: crypto.Base64Encode(sig)},
		{Name: "KC-API-TIMESTAMP", Value: ts},
		{Name: "KC-API-PASSPHRASE", Value: passphrase},
	}
	if cfg.APIKeyVersion > 0 {
		headers = append(headers, Header{Name: "KC-API-KEY-VERSION", Value: strconv.Itoa(cfg.APIKeyVersion)})
	}
	if isBodyMethod(req.Method) && bodyBytes != nil {
		headers = append(headers, Header{Name: "Content-Type", Value: "application/json"})
	}
	return SignedRequest{URL: path, Method: req.Method, Headers: headers, Body: bodyBytes}, nil
}

// signNonceHMACSHA512 implements the nonce-hmac-sha512 pattern
// (Kraken-style): payload = urlPath ‖ sha256(nonce ‖ body); secret is
// base64-decoded before use; the nonce is injected into the body itself.
func (e *Engine) signNonceHMACSHA512(req Request, creds credentials.Credentials, cfg Config) (SignedRequest, error) {
	params := cloneParams(req.Params)
	nonce := formatMS(e.nonce().Next())
	params["nonce"] = nonce

	bodyStr := buildQueryString(params)

	digest, err := crypto.GetSHA256([]byte(nonce + bodyStr))
	if err != nil {
		return SignedRequest{}, err
	}

	secretBytes, err := crypto.Base64Decode(creds.Secret)
	if err != nil {
		return SignedRequest{}, fmt.Errorf("%w: secret must be base64 encoded", ErrInvalidParameters)
	}

	message := append([]byte(req.Path), digest...)
	sig, err := crypto.GetHMAC(crypto.HashSHA512, message, secretBytes)
	if err != nil {
		return SignedRequest{}, err
	}

	headers := []Header{
		{Name: "API-Key", Value: creds.Key},
		{Name: "API-Sign", Value: crypto.Base64Encode(sig)},
		{Name: "Content-Type", Value: "application/x-www-form-urlencoded"},
	}
	return SignedRequest{URL: req.Path, Method: req.Method, Headers: headers, Body: []byte(bodyStr)}, nil
}

// signGateHMACSHA512 implements the gate-hmac-sha512 pattern (Gate.io-style):
// payload = METHOD\npath\nquery\nsha512hex(body)\nts.
func (e *Engine) signGateHMACSHA512(req Request, creds credentials.Credentials, _ Config) (SignedRequest, error) {
	params := cloneParams(req.Params)

	var query string
	var bodyBytes []byte
	if isBodyMethod(req.Method) {
		bodyBytes = req.Body
		if bodyBytes == nil {
			b, err := jsonBody(params)
			if err != nil {
				return SignedRequest{}, err
			}
			bodyBytes = b
		}
	} else {
		query = buildQueryString(params)
	}

	bodyDigest, err := crypto.GetSHA512(bodyBytes)
	if err != nil {
		return SignedRequest{}, err
	}
	ts := strconv.FormatInt(e.clock().Now().Unix(), 10)

	payload := req.Method + "\n" + req.Path + "\n" + query + "\n" + crypto.HexEncodeToString(bodyDigest) + "\n" + ts
	sig, err := crypto.GetHMAC(crypto.HashSHA512, []byte(payload), []byte(creds.Secret))
	if err != nil {
		return SignedRequest{}, err
	}

	headers := []Header{
		{Name: "KEY", Value: creds.Key},
		{Name: "SIGN", Value: crypto.HexEncodeToString(sig)},
		{Name: "Timestamp", Value: ts},
	}
	url := req.Path
	if query != "" {
		url = buildPathWithQuery(url, query)
	}
	return SignedRequest{URL: url, Method: req.Method, Headers: headers, Body: bodyBytes}, nil
}

// signPayloadHMACSHA384Bitfinex implements the Bitfinex variant of
// payload-hmac-sha384: payload = "/api" + path + nonce + body.
func (e *Engine) signPayloadHMACSHA384Bitfinex(req Request, creds credentials.Credentials, _ Config) (SignedRequest, error) {
	params := cloneParams(req.Params)
	nonce := formatMS(e.nonce().Next())

	var bodyBytes []byte
	if isBodyMethod(req.Method) {
		bodyBytes = req.Body
		if bodyBytes == nil {
			b, err := jsonBody(params)
			if err != nil {
				return SignedRequest{}, err
			}
			bodyBytes = b
		}
	}

	payload := "/api" + req.Path + nonce + string(bodyBytes)
	sig, err := crypto.GetHMAC(crypto.HashSHA512_384, []byte(payload), []byte(creds.Secret))
	if err != nil {
		return SignedRequest{}, err
	}

	headers := []Header{
		{Name: "bfx-apikey", Value: creds.Key},
		{Name: "bfx-nonce", Value: nonce},
		{Name: "bfx-signature", Value: crypto.HexEncodeToString(sig)},
	}
	return SignedRequest{URL: req.Path, Method: req.Method, Headers: headers, Body: bodyBytes}, nil
}

// signPayloadHMACSHA384Gemini implements the Gemini variant of
// payload-hmac-sha384: payload = base64(JSON{request, nonce, ...params}).
func (e *Engine) signPayloadHMACSHA384Gemini(req Request, creds credentials.Credentials, _ Config) (SignedRequest, error) {
	nonce := e.nonce().Next()

	payloadMap := make(map[string]any, len(req.Params)+2)
	for k, v := range req.Params {
		payloadMap[k] = v
	}
	payloadMap["request"] = req.Path
	payloadMap["nonce"] = strconv.FormatInt(nonce, 10)

	raw, err := json.Marshal(payloadMap)
	if err != nil {
		return SignedRequest{}, err
	}
	b64Payload := crypto.Base64Encode(raw)

	sig, err := crypto.GetHMAC(crypto.HashSHA512_384, []byte(b64Payload), []byte(creds.Secret))
	if err != nil {
		return SignedRequest{}, err
	}

	headers := []Header{
		{Name: "X-GEMINI-APIKEY", Value: creds.Key},
		{Name: "X-GEMINI-PAYLOAD", Value: b64Payload},
		{Name: "X-GEMINI-SIGNATURE", Value: crypto.HexEncodeToString(sig)},
		{Name: "Content-Type", Value: "text/plain"},
		{Name: "Content-Length", Value: "0"},
	}
	return SignedRequest{URL: req.Path, Method: req.Method, Headers: headers}, nil
}

// signDeribitHMACSHA256 implements the deribit-hmac-sha256 pattern:
// Authorization: deri-hmac-sha256 id=…,ts=…,sig=…,nonce=…
// payload = ts\nnonce\nMETHOD\npath?query\nbody\n
func (e *Engine) signDeribitHMACSHA256(req Request, creds credentials.Credentials, _ Config) (SignedRequest, error) {
	params := cloneParams(req.Params)
	ts := formatMS(e.clock().Now().UnixMilli())
	nonce := formatMS(e.nonce().Next())

	pathAndQuery := req.Path
	var bodyBytes []byte
	if isBodyMethod(req.Method) {
		bodyBytes = req.Body
		if bodyBytes == nil {
			b, err := jsonBody(params)
			if err != nil {
				return SignedRequest{}, err
			}
			bodyBytes = b
		}
	} else if len(params) > 0 {
		pathAndQuery = buildPathWithQuery(req.Path, buildQueryString(params))
	}

	payload := ts + "\n" + nonce + "\n" + req.Method + "\n" + pathAndQuery + "\n" + string(bodyBytes) + "\n"
	sig, err := crypto.GetHMAC(crypto.HashSHA256, []byte(payload), []byte(creds.Secret))
	if err != nil {
		return SignedRequest{}, err
	}

	auth := fmt.Sprintf("deri-hmac-sha256 id=%s,ts=%s,sig=%s,nonce=%s",
		creds.Key, ts, crypto.HexEncodeToString(sig), nonce)

	headers := []Header{{Name: "Authorization", Value: auth}}
	return SignedRequest{URL: pathAndQuery, Method: req.Method, Headers: headers, Body: bodyBytes}, nil
}
