package live

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is the minimal transport connection the manager needs. The
// production implementation wraps a gorilla websocket connection; tests
// substitute an in-memory fake.
type Conn interface {
	ReadMessage() ([]byte, error)
	WriteJSON(v any) error
	Close() error
}

// Dialer establishes transport connections to the live feed.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// WebsocketDialer dials the feed over a websocket.
type WebsocketDialer struct {
	HandshakeTimeout time.Duration
}

// NewWebsocketDialer returns a dialer with a default handshake timeout.
func NewWebsocketDialer() *WebsocketDialer {
	return &WebsocketDialer{HandshakeTimeout: 10 * time.Second}
}

func (d *WebsocketDialer) Dial(ctx context.Context, url string) (Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: d.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return &wsConn{conn: conn}, nil
}

type wsConn struct {
	conn *websocket.Conn
}

func (w *wsConn) ReadMessage() ([]byte, error) {
	_, data, err := w.conn.ReadMessage()
	return data, err
}

func (w *wsConn) WriteJSON(v any) error {
	return w.conn.WriteJSON(v)
}

func (w *wsConn) Close() error {
	return w.conn.Close()
}
