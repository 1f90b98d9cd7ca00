package roomchat

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// DefaultRoom is joined when no room was saved or an empty room name is given.
const DefaultRoom = "general"

// Config controls how the session connects.
type Config struct {
	// BaseURL is the server origin, e.g. "http://localhost:8000".
	// http/ws map to ws, https/wss map to wss.
	BaseURL          string        `env:"ROOMCHAT_URL"`
	DefaultRoom      string        `env:"ROOMCHAT_ROOM" envDefault:"general"`
	ReconnectDelay   time.Duration `env:"ROOMCHAT_RECONNECT_DELAY" envDefault:"3s"`
	HandshakeTimeout time.Duration `env:"ROOMCHAT_HANDSHAKE_TIMEOUT" envDefault:"10s"`
	ReadTimeout      time.Duration `env:"ROOMCHAT_READ_TIMEOUT"` // 0 disables; the server sends no pings
	WriteTimeout     time.Duration `env:"ROOMCHAT_WRITE_TIMEOUT" envDefault:"10s"`
	SendBuffer       int           `env:"ROOMCHAT_SEND_BUFFER" envDefault:"16"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		DefaultRoom:      DefaultRoom,
		ReconnectDelay:   3 * time.Second,
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
		SendBuffer:       16,
	}
}

// LoadConfigFromEnv reads ROOMCHAT_* variables on top of the defaults.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	if err := env.Parse(&cfg); err != nil {
		return cfg, WrapError(ErrorInvalidConfig, "parse env", err)
	}
	return cfg, nil
}

// Validate checks the config and returns an ErrorInvalidConfig error when it cannot be used.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return NewError(ErrorInvalidConfig, "empty base URL")
	}
	if _, err := c.socketBase(); err != nil {
		return err
	}
	if c.ReconnectDelay <= 0 {
		return NewError(ErrorInvalidConfig, "reconnect delay must be positive")
	}
	if c.SendBuffer <= 0 {
		return NewError(ErrorInvalidConfig, "send buffer must be positive")
	}
	return nil
}

// Endpoint returns the WebSocket URL for room, i.e. {scheme}://{host}/ws/{room}.
func (c Config) Endpoint(room string) (string, error) {
	u, err := c.socketBase()
	if err != nil {
		return "", err
	}
	rawBase := strings.TrimSuffix(u.EscapedPath(), "/")
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws/" + room
	u.RawPath = rawBase + "/ws/" + url.PathEscape(room)
	return u.String(), nil
}

func (c Config) socketBase() (*url.URL, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, WrapError(ErrorInvalidConfig, "parse base URL", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return nil, NewError(ErrorInvalidConfig, fmt.Sprintf("unsupported scheme %q", u.Scheme))
	}
	if u.Host == "" {
		return nil, NewError(ErrorInvalidConfig, "base URL has no host")
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

func (c Config) room(name string) string {
	name = strings.TrimSpace(name)
	if name != "" {
		return name
	}
	if c.DefaultRoom != "" {
		return c.DefaultRoom
	}
	return DefaultRoom
}
