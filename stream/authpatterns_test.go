package stream

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thrasher-corp/gocryptotrader-core/credentials"
	"github.com/thrasher-corp/gocryptotrader-core/signing"
)

var wsTestCreds = credentials.Credentials{Key: "K", Secret: "c2VjcmV0", Passphrase: "P"}

func fixedStreamClock(t time.Time) Clock { return fixedClock{t} }

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func TestBuildAuthFrameListenKeyPatternsReturnNoFrame(t *testing.T) {
	t.Parallel()

	for _, p := range []AuthPattern{AuthListenKey, AuthRESTToken, AuthInlineSubscribe} {
		t.Run(string(p), func(t *testing.T) {
			t.Parallel()
			frame, err := BuildAuthFrame(AuthConfig{Pattern: p}, wsTestCreds, nil, nil)
			require.NoError(t, err)
			assert.Nil(t, frame)
		})
	}
}

func TestBuildAuthFrameUnknownPatternErrors(t *testing.T) {
	t.Parallel()

	_, err := BuildAuthFrame(AuthConfig{Pattern: "nonsense"}, wsTestCreds, nil, nil)
	assert.ErrorIs(t, err, ErrUnknownAuthPattern)
}

func TestDirectHMACExpiryFrameShape(t *testing.T) {
	t.Parallel()

	clock := fixedStreamClock(time.Unix(1700000000, 0).UTC())
	frame, err := BuildAuthFrame(AuthConfig{Pattern: AuthDirectHMACExpiry}, wsTestCreds, nil, clock)
	require.NoError(t, err)

	m, ok := frame.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "auth", m["op"])
	args, ok := m["args"].([]any)
	require.True(t, ok)
	require.Len(t, args, 3)
	assert.Equal(t, "K", args[0])
}

func TestISOPassphraseFrameShape(t *testing.T) {
	t.Parallel()

	clock := fixedStreamClock(time.Unix(1700000000, 0).UTC())
	frame, err := BuildAuthFrame(AuthConfig{Pattern: AuthISOPassphrase}, wsTestCreds, nil, clock)
	require.NoError(t, err)

	m := frame.(map[string]any)
	assert.Equal(t, "login", m["op"])
	args := m["args"].([]any)
	require.Len(t, args, 1)
	body := args[0].(map[string]any)
	assert.Equal(t, "K", body["apiKey"])
	assert.Equal(t, "P", body["passphrase"])
	assert.NotEmpty(t, body["sign"])
}

func TestJSONRPCLinebreakFrameShape(t *testing.T) {
	t.Parallel()

	clock := fixedStreamClock(time.Unix(1700000000, 0).UTC())
	signer := signing.New(signing.FixedClock{T: time.Unix(1700000000, 0).UTC()}, signing.FixedNonce{N: 42})
	frame, err := BuildAuthFrame(AuthConfig{Pattern: AuthJSONRPCLinebreak}, wsTestCreds, signer, clock)
	require.NoError(t, err)

	m := frame.(map[string]any)
	assert.Equal(t, "2.0", m["jsonrpc"])
	assert.Equal(t, "public/auth", m["method"])
	params := m["params"].(map[string]any)
	assert.Equal(t, "client_signature", params["grant_type"])
	assert.Equal(t, int64(42), params["nonce"])
}

func TestSHA384NonceFrameShape(t *testing.T) {
	t.Parallel()

	signer := signing.New(nil, signing.FixedNonce{N: 7})
	frame, err := BuildAuthFrame(AuthConfig{Pattern: AuthSHA384Nonce}, wsTestCreds, signer, nil)
	require.NoError(t, err)

	m := frame.(map[string]any)
	assert.Equal(t, "auth", m["event"])
	assert.Equal(t, "K", m["apiKey"])
	assert.Equal(t, int64(7), m["authNonce"])
	assert.NotEmpty(t, m["authSig"])
}

func TestSHA512NewlineFrameShape(t *testing.T) {
	t.Parallel()

	clock := fixedStreamClock(time.Unix(1700000000, 0).UTC())
	frame, err := BuildAuthFrame(AuthConfig{Pattern: AuthSHA512Newline}, wsTestCreds, nil, clock)
	require.NoError(t, err)

	m := frame.(map[string]any)
	assert.Equal(t, "api", m["event"])
	assert.Equal(t, "server.sign", m["channel"])
	payload := m["payload"].(map[string]any)
	assert.Equal(t, "K", payload["api_key"])
}

func TestGenericHMACFrameDelegatesToRESTSigner(t *testing.T) {
	t.Parallel()

	signer := signing.New(signing.FixedClock{T: time.Unix(1700000000, 0).UTC()}, signing.FixedNonce{N: 1})
	signingCfg := signing.Config{Pattern: signing.PatternHeadersHMACSHA256}
	frame, err := BuildAuthFrame(AuthConfig{Pattern: AuthGenericHMAC, Signing: signingCfg}, wsTestCreds, signer, nil)
	require.NoError(t, err)

	m := frame.(map[string]any)
	assert.Equal(t, "auth", m["op"])
	headers := m["headers"].(map[string]string)
	assert.NotEmpty(t, headers)
}

func TestAuthFramesNeverLeakSecret(t *testing.T) {
	t.Parallel()

	secret := "super-secret-value"
	creds := credentials.Credentials{Key: "K", Secret: secret, Passphrase: "P"}
	clock := fixedStreamClock(time.Unix(1700000000, 0).UTC())
	signer := signing.New(signing.FixedClock{T: time.Unix(1700000000, 0).UTC()}, signing.FixedNonce{N: 1})

	patterns := []AuthPattern{
		AuthDirectHMACExpiry,
		AuthISOPassphrase,
		AuthJSONRPCLinebreak,
		AuthSHA384Nonce,
		AuthSHA512Newline,
	}
	for _, p := range patterns {
		p := p
		t.Run(string(p), func(t *testing.T) {
			t.Parallel()
			frame, err := BuildAuthFrame(AuthConfig{Pattern: p}, creds, signer, clock)
			require.NoError(t, err)
			assert.NotContains(t, fmt.Sprintf("%#v", frame), secret)
		})
	}
}
