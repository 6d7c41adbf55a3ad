package stream

import (
	"context"
	"net/http"
	"time"

	gws "github.com/gorilla/websocket"
)

// gorillaConn adapts *gorilla/websocket.Conn to Conn. WriteJSON and
// ReadMessage are not safe for concurrent use from multiple goroutines per
// gorilla's contract; the adapter only ever has one writer (Subscribe,
// Authenticate, restore, all mutex-serialized by Adapter) and one reader
// (readLoop), matching that contract.
type gorillaConn struct {
	ws *gws.Conn
}

func (c *gorillaConn) WriteJSON(v any) error {
	return c.ws.WriteJSON(v)
}

func (c *gorillaConn) ReadMessage() (int, []byte, error) {
	return c.ws.ReadMessage()
}

func (c *gorillaConn) Close() error {
	return c.ws.Close()
}

// GorillaDialer is the production Dialer, backed by gorilla/websocket with a
// bounded handshake timeout.
type GorillaDialer struct {
	HandshakeTimeout time.Duration // default 10s
	Header           http.Header
}

// Dial opens a WebSocket connection to url.
func (g *GorillaDialer) Dial(ctx context.Context, url string) (Conn, error) {
	timeout := g.HandshakeTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	dialer := gws.Dialer{
		HandshakeTimeout: timeout,
		Proxy:            http.ProxyFromEnvironment,
	}
	conn, _, err := dialer.DialContext(ctx, url, g.Header)
	if err != nil {
		return nil, err
	}
	return &gorillaConn{ws: conn}, nil
}
