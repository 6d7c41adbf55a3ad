// Package stream implements the long-lived WebSocket adapter: a
// per-connection actor that owns the socket, tracks subscriptions, and
// keeps the connection useful across reconnects with exponential backoff
// and re-authentication.
package stream

import (
	"context"
	"strings"
	"time"

	"github.com/thrasher-corp/gocryptotrader-core/credentials"
	"github.com/thrasher-corp/gocryptotrader-core/signing"
)

// State is the adapter's connection lifecycle state.
type State string

// Adapter states.
const (
	StateInit       State = "INIT"
	StateConnecting State = "CONNECTING"
	StateConnected  State = "CONNECTED"
	StateBackoff    State = "BACKOFF"
	StateStopped    State = "STOPPED"
)

// Subscription is a persistent intent to receive a stream, retained by the
// adapter for restoration across reconnects. Two subscriptions with the
// same Channel are the same subscription (dedup key).
type Subscription struct {
	Channel      string
	Message      any
	Method       string
	AuthRequired bool
	Parameters   map[string]any
}

// key is the dedup identity: channel identity per the data model.
func (s Subscription) key() string { return s.Channel }

// Handler receives inbound frames in receive order.
type Handler func(ctx context.Context, message []byte)

// Conn is the minimal socket surface the adapter drives. *gorilla
// websocket.Conn satisfies it via a thin wrapper (see dial.go); tests
// substitute a fake.
type Conn interface {
	WriteJSON(v any) error
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
}

// Dialer opens a Conn to a URL. GorillaDialer (dial.go) wraps
// gorilla/websocket for production use.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// AuthPattern identifies a WebSocket authentication strategy.
type AuthPattern string

// Supported WebSocket auth patterns.
const (
	AuthDirectHMACExpiry AuthPattern = "direct-hmac-expiry"
	AuthISOPassphrase    AuthPattern = "iso-passphrase"
	AuthJSONRPCLinebreak AuthPattern = "jsonrpc-linebreak"
	AuthSHA384Nonce      AuthPattern = "sha384-nonce"
	AuthSHA512Newline    AuthPattern = "sha512-newline"
	AuthListenKey        AuthPattern = "listen-key"   // REST pre-auth; no WS frame
	AuthRESTToken        AuthPattern = "rest-token"    // REST pre-auth; token carried in subscribe frames
	AuthInlineSubscribe  AuthPattern = "inline-subscribe"
	AuthGenericHMAC      AuthPattern = "generic-hmac"
)

// URLPattern is one entry of a URL-routed channel template: Pattern is a
// substring matched against the adapter's connection URL (a nil/empty
// Pattern acts as the default), mapping to an account-type tag.
type URLPattern struct {
	Pattern     string
	AccountType string
}

// ChannelRouting resolves a channel topic from the connection URL, for
// exchanges that serve different channel topics on different URLs
// (spot/unified/usdc/derivatives).
type ChannelRouting struct {
	URLPatterns []URLPattern
	TopicDict   map[string]map[string]string // accountType -> (logical channel -> wire topic)
}

// Resolve finds the first URL pattern appearing in url (or the default, an
// empty-Pattern entry) to get an account-type tag, then looks up channel
// in that account type's topic dict.
func (r ChannelRouting) Resolve(url, channel string) (string, error) {
	accountType := ""
	found := false
	var defaultType string
	hasDefault := false
	for _, p := range r.URLPatterns {
		if p.Pattern == "" {
			defaultType = p.AccountType
			hasDefault = true
			continue
		}
		if strings.Contains(url, p.Pattern) {
			accountType = p.AccountType
			found = true
			break
		}
	}
	if !found {
		if !hasDefault {
			return "", ErrNoMatchingURLPattern
		}
		accountType = defaultType
	}
	topics, ok := r.TopicDict[accountType]
	if !ok {
		return "", &NoTopicForAccountTypeError{AccountType: accountType}
	}
	topic, ok := topics[channel]
	if !ok {
		return "", &NoTopicForAccountTypeError{AccountType: accountType}
	}
	return topic, nil
}

// AuthConfig is the spec's ws.auth config: which pattern to use and the
// signing pattern config it delegates credential material to.
type AuthConfig struct {
	Pattern AuthPattern
	Signing signing.Config
}

// Config parameterizes one Adapter instance.
type Config struct {
	ExchangeID string
	URL        string
	Auth       *AuthConfig
	Credentials *credentials.Credentials
	Handler    Handler
	Dialer     Dialer
	Signer     *signing.Engine
	Clock      Clock

	BaseBackoff        time.Duration // default 5s
	MaxBackoff         time.Duration // default 60s
	MaxReconnectAttempts int         // default 10
}

// Clock supplies wall-clock time; injected for deterministic backoff tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
