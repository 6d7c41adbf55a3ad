package catalog

import (
	"github.com/thrasher-corp/gocryptotrader-core/ccerr"
	"github.com/thrasher-corp/gocryptotrader-core/ratelimit"
	"github.com/thrasher-corp/gocryptotrader-core/signing"
	"github.com/thrasher-corp/gocryptotrader-core/stream"
)

// The eleven specs below are a representative cross-section, not a
// production endpoint catalog (per-exchange completeness is an explicit
// Non-goal, spec.md §1): each exercises one signing pattern and one
// WebSocket auth pattern from SPEC_FULL.md §10's table at least once.

// Binance: query-hmac-sha256 signing, listen-key WS auth.
var Binance = ExchangeSpec{
	ID: "binance",
	URLs: URLs{
		API: "https://api.binance.com",
		WS:  "wss://stream.binance.com:9443/ws",
	},
	Signing: signing.Config{
		Pattern:        signing.PatternQueryHMACSHA256,
		Encoding:       signing.EncodingHex,
		AutoRecvWindow: true,
	},
	Endpoints: []EndpointSpec{
		{Name: "ticker", Method: "GET", Path: "/api/v3/ticker/24hr", Auth: false, Cost: 1},
		{Name: "account", Method: "GET", Path: "/api/v3/account", Auth: true, Cost: 10},
		{Name: "order.new", Method: "POST", Path: "/api/v3/order", Auth: true, Cost: 1},
		{Name: "listenKey", Method: "POST", Path: "/api/v3/userDataStream", Auth: true, Cost: 1},
	},
	RateLimit: ratelimit.Policy{Requests: 1200, PeriodMS: 60_000},
	ErrorCodes: ccerr.ExchangeCodeMap{
		"-1021": ccerr.TypeInvalidParameters, // timestamp outside recvWindow
		"-2010": ccerr.TypeInsufficientBalance,
		"-2013": ccerr.TypeOrderNotFound,
		"-1002": ccerr.TypeInvalidCredentials,
	},
	Timeframes: map[string]string{"1m": "1m", "1h": "1h", "1d": "1d"},
	SymbolFormat: SymbolFormat{Delimiter: "", Uppercase: true},
	WS: WSSpec{AuthPattern: stream.AuthListenKey},
}

// Bybit: headers-hmac-sha256 signing, direct-hmac-expiry WS auth, with a
// hints rule for the derivatives category param the classifier attaches per
// spec.md §4.4 step 7.
var Bybit = ExchangeSpec{
	ID: "bybit",
	URLs: URLs{
		API: "https://api.bybit.com",
		WS:  "wss://stream.bybit.com/v5/private",
	},
	Signing: signing.Config{
		Pattern:             signing.PatternHeadersHMACSHA256,
		Encoding:             signing.EncodingHex,
		RecvWindow:           5000,
	},
	Endpoints: []EndpointSpec{
		{Name: "ticker", Method: "GET", Path: "/v5/market/tickers", Auth: false, Cost: 1},
		{Name: "positions", Method: "GET", Path: "/v5/position/list", Auth: true, Cost: 5, Category: "linear"},
		{Name: "order.new", Method: "POST", Path: "/v5/order/create", Auth: true, Cost: 1, Category: "linear"},
	},
	RateLimit: ratelimit.Policy{Requests: 120, PeriodMS: 5_000},
	ErrorCodes: ccerr.ExchangeCodeMap{
		"10003": ccerr.TypeInvalidCredentials,
		"110001": ccerr.TypeInvalidOrder,
		"110012": ccerr.TypeInsufficientBalance,
	},
	Hints: ccerr.HintRules{
		"positions": requireCategoryHint,
		"order.new": requireCategoryHint,
	},
	Timeframes:   map[string]string{"1m": "1", "1h": "60", "1d": "D"},
	SymbolFormat: SymbolFormat{Delimiter: "", Uppercase: true},
	WS:           WSSpec{AuthPattern: stream.AuthDirectHMACExpiry},
}

func requireCategoryHint(ccerr.Outcome) []string {
	return []string{"derivatives endpoints require a category parameter (linear/inverse/option)"}
}

// OKX: iso-passphrase-hmac-sha256 signing, iso-passphrase WS auth, with
// URL-routed channel topics (business/unified account types).
var OKX = ExchangeSpec{
	ID: "okx",
	URLs: URLs{
		API: "https://www.okx.com",
		WS:  "wss://ws.okx.com:8443/ws/v5/private",
	},
	Signing: signing.Config{Pattern: signing.PatternISOPassphraseHMACSHA256},
	Endpoints: []EndpointSpec{
		{Name: "ticker", Method: "GET", Path: "/api/v5/market/ticker", Auth: false, Cost: 1},
		{Name: "balance", Method: "GET", Path: "/api/v5/account/balance", Auth: true, Cost: 1},
		{Name: "order.new", Method: "POST", Path: "/api/v5/trade/order", Auth: true, Cost: 1},
	},
	RateLimit: ratelimit.Policy{Requests: 60, PeriodMS: 2_000},
	ErrorCodes: ccerr.ExchangeCodeMap{
		"50111": ccerr.TypeInvalidCredentials,
		"51008": ccerr.TypeInsufficientBalance,
		"51603": ccerr.TypeOrderNotFound,
	},
	Timeframes:   map[string]string{"1m": "1m", "1h": "1H", "1d": "1D"},
	SymbolFormat: SymbolFormat{Delimiter: "-", Uppercase: true},
	WS: WSSpec{
		AuthPattern: stream.AuthISOPassphrase,
		Routing: &stream.ChannelRouting{
			URLPatterns: []stream.URLPattern{
				{Pattern: "/ws/v5/business", AccountType: "business"},
				{Pattern: "", AccountType: "unified"},
			},
			TopicDict: map[string]map[string]string{
				"unified":  {"ticker": "tickers", "trades": "trades"},
				"business": {"candles": "candle1m"},
			},
		},
	},
}

// KuCoin: signed-passphrase-hmac-sha256 signing (api_key_version 2 so the
// passphrase is itself HMAC-signed), rest-token WS auth (token fetched over
// REST and carried in the subscribe/connect frame rather than a WS login).
var KuCoin = ExchangeSpec{
	ID: "kucoin",
	URLs: URLs{
		API: "https://api.kucoin.com",
		WS:  "wss://ws-api-spot.kucoin.com",
	},
	Signing: signing.Config{Pattern: signing.PatternSignedPassphraseHMACSHA256, APIKeyVersion: 2},
	Endpoints: []EndpointSpec{
		{Name: "ticker", Method: "GET", Path: "/api/v1/market/orderbook/level1", Auth: false, Cost: 1},
		{Name: "accounts", Method: "GET", Path: "/api/v1/accounts", Auth: true, Cost: 1},
		{Name: "bulletPrivate", Method: "POST", Path: "/api/v1/bullet-private", Auth: true, Cost: 1},
	},
	RateLimit: ratelimit.Policy{Requests: 180, PeriodMS: 3_000},
	ErrorCodes: ccerr.ExchangeCodeMap{
		"400003": ccerr.TypeInvalidCredentials,
		"200004": ccerr.TypeInsufficientBalance,
	},
	Timeframes:   map[string]string{"1m": "1min", "1h": "1hour", "1d": "1day"},
	SymbolFormat: SymbolFormat{Delimiter: "-", Uppercase: true},
	WS:           WSSpec{AuthPattern: stream.AuthRESTToken},
}

// Kraken: nonce-hmac-sha512 signing (secret base64-decoded before use, nonce
// injected into the body), rest-token WS auth: the token comes from the
// REST getWebSocketsToken endpoint rather than a raw HMAC frame.
var Kraken = ExchangeSpec{
	ID: "kraken",
	URLs: URLs{
		API: "https://api.kraken.com",
		WS:  "wss://ws-auth.kraken.com",
	},
	Signing: signing.Config{Pattern: signing.PatternNonceHMACSHA512},
	Endpoints: []EndpointSpec{
		{Name: "ticker", Method: "GET", Path: "/0/public/Ticker", Auth: false, Cost: 1},
		{Name: "balance", Method: "POST", Path: "/0/private/Balance", Auth: true, Cost: 1},
		{Name: "addOrder", Method: "POST", Path: "/0/private/AddOrder", Auth: true, Cost: 1},
		{Name: "getWebSocketsToken", Method: "POST", Path: "/0/private/GetWebSocketsToken", Auth: true, Cost: 1},
	},
	RateLimit: ratelimit.Policy{Requests: 15, PeriodMS: 3_000},
	ErrorCodes: ccerr.ExchangeCodeMap{
		"EAPI:Invalid key":     ccerr.TypeInvalidCredentials,
		"EOrder:Insufficient funds": ccerr.TypeInsufficientBalance,
		"EOrder:Unknown order":      ccerr.TypeOrderNotFound,
	},
	Timeframes:   map[string]string{"1m": "1", "1h": "60", "1d": "1440"},
	SymbolFormat: SymbolFormat{Delimiter: "", Uppercase: true},
	WS:           WSSpec{AuthPattern: stream.AuthRESTToken},
}

// Gate.io: gate-hmac-sha512 signing, generic-hmac WS auth (the REST signer's
// pattern reused for a fixed login request, per stream.BuildAuthFrame's
// genericHMACFrame).
var GateIO = ExchangeSpec{
	ID: "gateio",
	URLs: URLs{
		API: "https://api.gateio.ws",
		WS:  "wss://api.gateio.ws/ws/v4/",
	},
	Signing: signing.Config{Pattern: signing.PatternGateHMACSHA512},
	Endpoints: []EndpointSpec{
		{Name: "ticker", Method: "GET", Path: "/api/v4/spot/tickers", Auth: false, Cost: 1},
		{Name: "accounts", Method: "GET", Path: "/api/v4/spot/accounts", Auth: true, Cost: 1},
		{Name: "order.new", Method: "POST", Path: "/api/v4/spot/orders", Auth: true, Cost: 1},
	},
	RateLimit: ratelimit.Policy{Requests: 200, PeriodMS: 1_000},
	ErrorCodes: ccerr.ExchangeCodeMap{
		"INVALID_KEY":         ccerr.TypeInvalidCredentials,
		"BALANCE_NOT_ENOUGH":  ccerr.TypeInsufficientBalance,
		"ORDER_NOT_FOUND":     ccerr.TypeOrderNotFound,
	},
	Timeframes:   map[string]string{"1m": "1m", "1h": "1h", "1d": "1d"},
	SymbolFormat: SymbolFormat{Delimiter: "_", Uppercase: true},
	WS:           WSSpec{AuthPattern: stream.AuthGenericHMAC},
}

// Bitfinex: payload-hmac-sha384 (Bitfinex variant), sha384-nonce WS auth.
var Bitfinex = ExchangeSpec{
	ID: "bitfinex",
	URLs: URLs{
		API: "https://api.bitfinex.com",
		WS:  "wss://api.bitfinex.com/ws/2",
	},
	Signing: signing.Config{Pattern: signing.PatternPayloadHMACSHA384Bitfinex},
	Endpoints: []EndpointSpec{
		{Name: "ticker", Method: "GET", Path: "/v2/ticker", Auth: false, Cost: 1},
		{Name: "wallets", Method: "POST", Path: "/v2/auth/r/wallets", Auth: true, Cost: 1},
		{Name: "order.new", Method: "POST", Path: "/v2/auth/w/order/submit", Auth: true, Cost: 1},
	},
	RateLimit: ratelimit.Policy{Requests: 90, PeriodMS: 60_000},
	ErrorCodes: ccerr.ExchangeCodeMap{
		"10100": ccerr.TypeInvalidCredentials,
		"11010": ccerr.TypeNotSupported,
	},
	Timeframes:   map[string]string{"1m": "1m", "1h": "1h", "1d": "1D"},
	SymbolFormat: SymbolFormat{Delimiter: "", Uppercase: true},
	WS:           WSSpec{AuthPattern: stream.AuthSHA384Nonce},
}

// Gemini: payload-hmac-sha384 (Gemini variant: base64(JSON{request,nonce,
// ...params})), sha384-nonce WS auth.
var Gemini = ExchangeSpec{
	ID: "gemini",
	URLs: URLs{
		API: "https://api.gemini.com",
		WS:  "wss://api.gemini.com/v1/order/events",
	},
	Signing: signing.Config{Pattern: signing.PatternPayloadHMACSHA384Gemini},
	Endpoints: []EndpointSpec{
		{Name: "ticker", Method: "GET", Path: "/v2/ticker", Auth: false, Cost: 1},
		{Name: "balances", Method: "POST", Path: "/v1/balances", Auth: true, Cost: 1},
		{Name: "order.new", Method: "POST", Path: "/v1/order/new", Auth: true, Cost: 1},
	},
	RateLimit: ratelimit.Policy{Requests: 600, PeriodMS: 60_000},
	ErrorCodes: ccerr.ExchangeCodeMap{
		"InvalidSignature":    ccerr.TypeInvalidCredentials,
		"InsufficientFunds":   ccerr.TypeInsufficientBalance,
		"OrderNotFound":       ccerr.TypeOrderNotFound,
	},
	Timeframes:   map[string]string{"1m": "1m", "1h": "1hr", "1d": "1day"},
	SymbolFormat: SymbolFormat{Delimiter: "", Uppercase: false},
	WS:           WSSpec{AuthPattern: stream.AuthSHA384Nonce},
}

// Deribit: deribit-hmac-sha256 signing (Authorization: deri-hmac-sha256
// id=…,ts=…,sig=…,nonce=…), jsonrpc-linebreak WS auth.
var Deribit = ExchangeSpec{
	ID: "deribit",
	URLs: URLs{
		API: "https://www.deribit.com",
		WS:  "wss://www.deribit.com/ws/api/v2",
	},
	Signing: signing.Config{Pattern: signing.PatternDeribitHMACSHA256},
	Endpoints: []EndpointSpec{
		{Name: "ticker", Method: "GET", Path: "/api/v2/public/ticker", Auth: false, Cost: 1},
		{Name: "getPositions", Method: "GET", Path: "/api/v2/private/get_positions", Auth: true, Cost: 1},
		{Name: "order.new", Method: "GET", Path: "/api/v2/private/buy", Auth: true, Cost: 1},
	},
	RateLimit: ratelimit.Policy{Requests: 20, PeriodMS: 1_000},
	ErrorCodes: ccerr.ExchangeCodeMap{
		"13009": ccerr.TypeInvalidCredentials,
		"10009": ccerr.TypeInsufficientBalance,
	},
	Timeframes:   map[string]string{"1m": "1", "1h": "60", "1d": "1D"},
	SymbolFormat: SymbolFormat{Delimiter: "-", Uppercase: true},
	WS:           WSSpec{AuthPattern: stream.AuthJSONRPCLinebreak},
}

// Bitget: headers-hmac-sha256 signing (base64 encoding variant),
// inline-subscribe WS auth (auth fields carried on each subscribe message
// rather than a dedicated login frame).
var Bitget = ExchangeSpec{
	ID: "bitget",
	URLs: URLs{
		API: "https://api.bitget.com",
		WS:  "wss://ws.bitget.com/v2/ws/private",
	},
	Signing: signing.Config{Pattern: signing.PatternHeadersHMACSHA256, Encoding: signing.EncodingBase64},
	Endpoints: []EndpointSpec{
		{Name: "ticker", Method: "GET", Path: "/api/v2/spot/market/tickers", Auth: false, Cost: 1},
		{Name: "account", Method: "GET", Path: "/api/v2/spot/account/info", Auth: true, Cost: 1},
		{Name: "order.new", Method: "POST", Path: "/api/v2/spot/trade/place-order", Auth: true, Cost: 1},
	},
	RateLimit: ratelimit.Policy{Requests: 20, PeriodMS: 1_000},
	ErrorCodes: ccerr.ExchangeCodeMap{
		"40037": ccerr.TypeInvalidCredentials,
		"43012": ccerr.TypeInsufficientBalance,
	},
	Timeframes:   map[string]string{"1m": "1min", "1h": "1h", "1d": "1day"},
	SymbolFormat: SymbolFormat{Delimiter: "", Uppercase: true},
	WS:           WSSpec{AuthPattern: stream.AuthInlineSubscribe},
}

// Coinbase: headers-hmac-sha256 signing, generic-hmac WS auth.
var Coinbase = ExchangeSpec{
	ID: "coinbase",
	URLs: URLs{
		API: "https://api.coinbase.com",
		WS:  "wss://advanced-trade-ws.coinbase.com",
	},
	Signing: signing.Config{Pattern: signing.PatternHeadersHMACSHA256, Encoding: signing.EncodingBase64},
	Endpoints: []EndpointSpec{
		{Name: "ticker", Method: "GET", Path: "/api/v3/brokerage/products", Auth: false, Cost: 1},
		{Name: "accounts", Method: "GET", Path: "/api/v3/brokerage/accounts", Auth: true, Cost: 1},
		{Name: "order.new", Method: "POST", Path: "/api/v3/brokerage/orders", Auth: true, Cost: 1},
	},
	RateLimit: ratelimit.Policy{Requests: 30, PeriodMS: 1_000},
	ErrorCodes: ccerr.ExchangeCodeMap{
		"INVALID_API_KEY":     ccerr.TypeInvalidCredentials,
		"INSUFFICIENT_FUND":   ccerr.TypeInsufficientBalance,
	},
	Timeframes:   map[string]string{"1m": "ONE_MINUTE", "1h": "ONE_HOUR", "1d": "ONE_DAY"},
	SymbolFormat: SymbolFormat{Delimiter: "-", Uppercase: true},
	WS:           WSSpec{AuthPattern: stream.AuthGenericHMAC},
}
