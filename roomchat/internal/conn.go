package internal

import (
	"context"
	"time"

	"github.com/coder/websocket"
)

// Conn wraps websocket.Conn with per-call timeouts and text-only frames.
type Conn struct {
	ws           *websocket.Conn
	readTimeout  time.Duration
	writeTimeout time.Duration
}

func NewConn(ws *websocket.Conn, readTimeout, writeTimeout time.Duration) *Conn {
	return &Conn{ws: ws, readTimeout: readTimeout, writeTimeout: writeTimeout}
}

// Dial opens a WebSocket to url, bounded by handshakeTimeout when positive.
func Dial(ctx context.Context, url string, handshakeTimeout, readTimeout, writeTimeout time.Duration) (*Conn, error) {
	if handshakeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, handshakeTimeout)
		defer cancel()
	}
	ws, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return NewConn(ws, readTimeout, writeTimeout), nil
}

// Read returns the payload of the next frame.
func (c *Conn) Read(ctx context.Context) ([]byte, error) {
	if c.readTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.readTimeout)
		defer cancel()
	}
	_, data, err := c.ws.Read(ctx)
	return data, err
}

// Write sends data as a single text frame.
func (c *Conn) Write(ctx context.Context, data []byte) error {
	if c.writeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.writeTimeout)
		defer cancel()
	}
	return c.ws.Write(ctx, websocket.MessageText, data)
}

// Close performs a normal closure handshake.
func (c *Conn) Close() error {
	return c.ws.Close(websocket.StatusNormalClosure, "client close")
}

// IsNormalClosure reports whether err is the peer or local side closing on purpose.
func IsNormalClosure(err error) bool {
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	default:
		return false
	}
}
