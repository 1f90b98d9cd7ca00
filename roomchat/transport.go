package roomchat

import (
	"context"
	"errors"
	"io"

	"github.com/vovakirdan/roomchat-sdk-go/roomchat/internal"
)

// Conn is one open transport. Read and Write may be called concurrently
// with each other; Close unblocks both.
type Conn interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Close() error
}

// Dialer opens transports. The default dials WebSockets with coder/websocket.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// DialerFunc adapts a function to Dialer.
type DialerFunc func(ctx context.Context, url string) (Conn, error)

func (f DialerFunc) Dial(ctx context.Context, url string) (Conn, error) { return f(ctx, url) }

type websocketDialer struct {
	cfg Config
}

func (d websocketDialer) Dial(ctx context.Context, url string) (Conn, error) {
	conn, err := internal.Dial(ctx, url, d.cfg.HandshakeTimeout, d.cfg.ReadTimeout, d.cfg.WriteTimeout)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// isExpectedDisconnect reports closures that should not be surfaced as errors.
// They still trigger the reconnect policy.
func isExpectedDisconnect(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}
	if ctx != nil && ctx.Err() != nil {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return true
	}
	return internal.IsNormalClosure(err)
}

// transportError wraps err with code, or with ErrorTimeout when a deadline
// expired.
func transportError(code ErrorCode, message string, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return WrapError(ErrorTimeout, message, err)
	}
	return WrapError(code, message, err)
}
