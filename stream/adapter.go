package stream

import (
	"context"
	"sync"
	"time"

	"github.com/thrasher-corp/gocryptotrader-core/internal/clog"
)

// Adapter is a per-connection long-running actor that owns a socket and
// keeps it useful across failures: connect, subscribe, authenticate,
// reconnect with exponential backoff, and restore subscriptions.
type Adapter struct {
	cfg Config

	mu                 sync.Mutex
	state              State
	conn               Conn
	authenticated      bool
	wasAuthenticated   bool
	subscriptions      map[string]Subscription
	reconnectAttempts  int
	stopCh             chan struct{}
	connDone           chan struct{}

	sleep func(time.Duration)
}

// New constructs an Adapter in StateInit. cfg.Handler, cfg.Dialer, and
// cfg.URL must be set.
func New(cfg Config) *Adapter {
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = 5 * time.Second
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 60 * time.Second
	}
	if cfg.MaxReconnectAttempts <= 0 {
		cfg.MaxReconnectAttempts = 10
	}
	if cfg.Clock == nil {
		cfg.Clock = systemClock{}
	}
	return &Adapter{
		cfg:           cfg,
		state:         StateInit,
		subscriptions: make(map[string]Subscription),
		sleep:         time.Sleep,
	}
}

// State reports the adapter's current lifecycle state.
func (a *Adapter) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Subscriptions returns a snapshot of all currently retained subscriptions.
func (a *Adapter) Subscriptions() []Subscription {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Subscription, 0, len(a.subscriptions))
	for _, s := range a.subscriptions {
		out = append(out, s)
	}
	return out
}

// Start begins the connect/backoff/reconnect lifecycle. It returns once
// the first connection attempt (success or failure) has been resolved;
// the reconnect loop continues in the background until Stop.
func (a *Adapter) Start(ctx context.Context) {
	a.mu.Lock()
	if a.stopCh != nil {
		a.mu.Unlock()
		return // already started
	}
	a.stopCh = make(chan struct{})
	a.state = StateConnecting
	a.mu.Unlock()

	connected := make(chan struct{})
	go a.run(ctx, connected)
	<-connected
}

// run is the adapter's lifecycle loop: connect (backing off after a failed
// attempt), wait for death, repeat. After a live socket dies the next
// connect attempt starts at once, without a backoff wait.
func (a *Adapter) run(ctx context.Context, firstAttempt chan struct{}) {
	first := true
	for {
		select {
		case <-a.stopCh:
			return
		default:
		}

		err := a.connectOnce(ctx)
		if first {
			close(firstAttempt)
			first = false
		}
		if err != nil {
			a.mu.Lock()
			a.reconnectAttempts++
			attempts := a.reconnectAttempts
			a.state = StateBackoff
			a.mu.Unlock()

			if attempts > a.cfg.MaxReconnectAttempts {
				clog.Errorf(clog.WebsocketMgr, "%s: %v", a.cfg.ExchangeID, ErrMaxReconnectAttempts)
				a.mu.Lock()
				a.state = StateStopped
				a.mu.Unlock()
				return
			}

			delay := backoffDelay(a.cfg.BaseBackoff, a.cfg.MaxBackoff, attempts-1)
			clog.Warnf(clog.WebsocketMgr, "%s: connect failed, backing off %s (attempt %d): %v", a.cfg.ExchangeID, delay, attempts, err)
			a.sleepInterruptible(delay)
			continue
		}

		// Connected: wait until the socket dies or we're stopped.
		select {
		case <-a.stopCh:
			a.closeConn()
			return
		case <-a.connDone:
			a.mu.Lock()
			a.authenticated = false
			a.state = StateBackoff
			a.mu.Unlock()
		}
	}
}

// sleepInterruptible sleeps for d via a.sleep (time.Sleep by default, a
// fast stand-in in tests), but returns early if Stop is called.
func (a *Adapter) sleepInterruptible(d time.Duration) {
	done := make(chan struct{})
	go func() {
		a.sleep(d)
		close(done)
	}()
	select {
	case <-a.stopCh:
	case <-done:
	}
}

// backoffDelay computes min(base * 2^attempts, cap).
func backoffDelay(base, cap_ time.Duration, attempts int) time.Duration {
	d := base
	for i := 0; i < attempts; i++ {
		d *= 2
		if d >= cap_ {
			return cap_
		}
	}
	if d > cap_ {
		return cap_
	}
	return d
}

func (a *Adapter) connectOnce(ctx context.Context) error {
	conn, err := a.cfg.Dialer.Dial(ctx, a.cfg.URL)
	if err != nil {
		return err
	}

	done := make(chan struct{})
	a.mu.Lock()
	a.conn = conn
	a.connDone = done
	a.reconnectAttempts = 0
	a.state = StateConnected
	wasAuth := a.wasAuthenticated
	hasSubs := len(a.subscriptions) > 0
	a.mu.Unlock()

	go a.readLoop(ctx, conn, done)

	if wasAuth {
		if err := a.Authenticate(ctx); err != nil {
			clog.Warnf(clog.WebsocketMgr, "%s: re-auth failed: %v", a.cfg.ExchangeID, err)
		}
	}
	if hasSubs {
		a.restore()
	}
	return nil
}

func (a *Adapter) readLoop(ctx context.Context, conn Conn, done chan struct{}) {
	defer close(done)
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if a.cfg.Handler != nil {
			a.cfg.Handler(ctx, msg)
		}
	}
}

func (a *Adapter) closeConn() {
	a.mu.Lock()
	conn := a.conn
	a.conn = nil
	a.state = StateStopped
	a.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}

// Stop terminates the adapter: closes the socket and halts the reconnect
// loop deterministically.
func (a *Adapter) Stop() {
	a.mu.Lock()
	stopCh := a.stopCh
	a.mu.Unlock()
	if stopCh == nil {
		return
	}
	select {
	case <-stopCh:
	default:
		close(stopCh)
	}
	a.closeConn()
}

// Subscribe retains sub, and sends it if connected. Idempotent on channel
// identity: re-subscribing to an already-present channel is a no-op send
// but does refresh the retained record.
func (a *Adapter) Subscribe(sub Subscription) error {
	a.mu.Lock()
	_, already := a.subscriptions[sub.key()]
	a.subscriptions[sub.key()] = sub
	connected := a.state == StateConnected
	conn := a.conn
	a.mu.Unlock()

	if already || !connected || conn == nil {
		return nil
	}
	return conn.WriteJSON(sub.Message)
}

// Unsubscribe removes sub, and sends its Message if connected.
func (a *Adapter) Unsubscribe(sub Subscription) error {
	a.mu.Lock()
	delete(a.subscriptions, sub.key())
	connected := a.state == StateConnected
	conn := a.conn
	a.mu.Unlock()

	if !connected || conn == nil {
		return nil
	}
	return conn.WriteJSON(sub.Message)
}

// restore resends every retained subscription after a reconnect.
func (a *Adapter) restore() {
	for _, sub := range a.Subscriptions() {
		a.mu.Lock()
		conn := a.conn
		a.mu.Unlock()
		if conn == nil {
			return
		}
		if err := conn.WriteJSON(sub.Message); err != nil {
			clog.Warnf(clog.WebsocketMgr, "%s: restore failed for %s: %v", a.cfg.ExchangeID, sub.Channel, err)
		}
	}
}

// Authenticate builds the pattern-specific auth frame via the signing
// engine, sends it, and marks the adapter authenticated on success.
func (a *Adapter) Authenticate(ctx context.Context) error {
	a.mu.Lock()
	conn := a.conn
	connected := a.state == StateConnected
	auth := a.cfg.Auth
	creds := a.cfg.Credentials
	a.mu.Unlock()

	if !connected || conn == nil {
		return ErrNotConnected
	}
	if auth == nil || creds == nil {
		return ErrNoAuthConfigured
	}

	frame, err := BuildAuthFrame(*auth, *creds, a.cfg.Signer, a.cfg.Clock)
	if err != nil {
		return err
	}
	if frame == nil {
		// listen-key/rest-token: REST pre-auth, no WS frame to send.
		a.MarkAuthenticated()
		return nil
	}
	if err := conn.WriteJSON(frame); err != nil {
		return err
	}
	a.MarkAuthenticated()
	return nil
}

// MarkAuthenticated is the external signal used after REST-based pre-auth
// (listen-key, rest-token patterns): it sets authenticated and
// wasAuthenticated without sending a frame.
func (a *Adapter) MarkAuthenticated() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.authenticated = true
	a.wasAuthenticated = true
}

// Authenticated reports the current frame-level auth status.
func (a *Adapter) Authenticated() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.authenticated
}
