package ccerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyTransportError(t *testing.T) {
	t.Parallel()

	e := Classify("binance", Outcome{TransportErr: TransportTimeout}, nil, nil)
	assert.Equal(t, TypeNetworkError, e.Type)
	yes, ok := e.Recoverable()
	assert.True(t, ok)
	assert.True(t, yes)
}

func TestClassifyRateLimited(t *testing.T) {
	t.Parallel()

	e := Classify("binance", Outcome{HTTPStatus: 429, RetryAfterMS: 2000}, nil, nil)
	assert.Equal(t, TypeRateLimited, e.Type)
	assert.EqualValues(t, 2000, e.RetryAfterMS)
}

func TestClassifyAuthStatuses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		want   Type
	}{
		{"401 default invalid credentials", 401, TypeInvalidCredentials},
		{"403 default access restricted", 403, TypeAccessRestricted},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			e := Classify("okx", Outcome{HTTPStatus: tc.status}, nil, nil)
			assert.Equal(t, tc.want, e.Type)
		})
	}
}

func TestClassifyAuthStatusOverride(t *testing.T) {
	t.Parallel()

	rule := func(status int) (Type, bool) {
		if status == 403 {
			return TypeNotSupported, true
		}
		return "", false
	}
	e := Classify("kraken", Outcome{HTTPStatus: 403, AuthStatusRule: rule}, nil, nil)
	assert.Equal(t, TypeNotSupported, e.Type)
}

func TestClassify5xxIsTransientExchangeError(t *testing.T) {
	t.Parallel()

	e := Classify("bybit", Outcome{HTTPStatus: 502}, nil, nil)
	assert.Equal(t, TypeExchangeError, e.Type)
}

func TestClassify4xxConsultsCodeMap(t *testing.T) {
	t.Parallel()

	codes := ExchangeCodeMap{"10001": TypeInvalidOrder, "10002": TypeOrderNotFound}

	e := Classify("kucoin", Outcome{HTTPStatus: 400, ExchangeCode: "10001"}, codes, nil)
	assert.Equal(t, TypeInvalidOrder, e.Type)

	e2 := Classify("kucoin", Outcome{HTTPStatus: 400, ExchangeCode: "99999"}, codes, nil)
	assert.Equal(t, TypeExchangeError, e2.Type)
}

func TestClassify2xxWithExchangeCode(t *testing.T) {
	t.Parallel()

	codes := ExchangeCodeMap{"50061": TypeInsufficientBalance}
	e := Classify("gateio", Outcome{HTTPStatus: 200, ExchangeCode: "50061"}, codes, nil)
	assert.Equal(t, TypeInsufficientBalance, e.Type)
}

func TestClassifyAttachesHints(t *testing.T) {
	t.Parallel()

	hints := HintRules{
		"placeOrder": func(o Outcome) []string {
			return []string{"category is required for derivatives endpoints"}
		},
	}
	e := Classify("bybit", Outcome{HTTPStatus: 400, Endpoint: "placeOrder"}, nil, hints)
	assert.Contains(t, e.Hints, "category is required for derivatives endpoints")
}

func TestCustomHintsOverrideNotMerge(t *testing.T) {
	t.Parallel()

	hints := HintRules{
		"placeOrder": func(o Outcome) []string { return []string{"deterministic hint"} },
	}
	e := Classify("bybit", Outcome{HTTPStatus: 400, Endpoint: "placeOrder"}, nil, hints)
	e.WithHints("caller hint")
	assert.Equal(t, []string{"caller hint"}, e.Hints)
}

func TestRecoverabilityTable(t *testing.T) {
	t.Parallel()

	recoverableTypes := []Type{TypeRateLimited, TypeNetworkError, TypeMarketClosed, TypeCircuitOpen}
	for _, typ := range recoverableTypes {
		yes, ok := Recoverable(typ)
		assert.True(t, ok, typ)
		assert.True(t, yes, typ)
	}

	nonRecoverableTypes := []Type{
		TypeInsufficientBalance, TypeInvalidCredentials, TypeInvalidParameters,
		TypeInvalidOrder, TypeOrderNotFound, TypeAccessRestricted, TypeNotSupported,
	}
	for _, typ := range nonRecoverableTypes {
		yes, ok := Recoverable(typ)
		assert.True(t, ok, typ)
		assert.False(t, yes, typ)
	}

	_, ok := Recoverable(TypeExchangeError)
	assert.False(t, ok, "exchange_error recoverability is unknown by contract")
}

func TestErrorWrapsTransportCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("dial tcp: i/o timeout")
	e := New(TypeNetworkError, "binance", "", cause)
	require.Error(t, e)
	assert.ErrorIs(t, e, cause)
}

func TestClassifyTransportErrHeuristics(t *testing.T) {
	t.Parallel()

	tests := []struct {
		msg  string
		want TransportErrorClass
	}{
		{"context deadline exceeded", TransportTimeout},
		{"dial tcp 1.2.3.4:443: connect: connection refused", TransportConnectionRefused},
		{"read: connection reset by peer", TransportConnectionClosed},
		{"lookup api.exchange.com: no such host", TransportDNSFailure},
		{"unexpected EOF", TransportOther},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.msg, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, ClassifyTransportErr(errors.New(tc.msg)))
		})
	}
}

func TestErrorCarriesExchangeEndpointSymbol(t *testing.T) {
	t.Parallel()

	e := Classify("binance", Outcome{HTTPStatus: 400, Endpoint: "placeOrder", Symbol: "BTCUSDT"}, nil, nil)
	assert.Equal(t, "binance", e.ExchangeID)
	assert.Equal(t, "placeOrder", e.Endpoint)
	assert.Equal(t, "BTCUSDT", e.Symbol)
}
