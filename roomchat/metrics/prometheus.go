// Package metrics exports session lifecycle counters to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Config configures the Prometheus collector.
type Config struct {
	// Namespace is the metrics namespace (default: "roomchat").
	Namespace string

	// Subsystem is the metrics subsystem (default: "client").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the Prometheus collector.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) { c.Namespace = namespace }
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) { c.Subsystem = subsystem }
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) { c.ConstLabels = labels }
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) { c.Registry = registry }
}

func defaultConfig() Config {
	return Config{
		Namespace: "roomchat",
		Subsystem: "client",
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Prometheus implements roomchat.Metrics.
//
// Metrics collected:
//   - roomchat_client_state_transitions_total{from,to}
//   - roomchat_client_connection_state{state}: 1 for the current state, 0 otherwise
//   - roomchat_client_reconnects_scheduled_total{room}
//   - roomchat_client_frames_sent_total
//   - roomchat_client_frames_received_total{type}
//   - roomchat_client_frames_dropped_total
type Prometheus struct {
	transitions    *prometheus.CounterVec
	state          *prometheus.GaugeVec
	reconnects     *prometheus.CounterVec
	framesSent     prometheus.Counter
	framesReceived *prometheus.CounterVec
	framesDropped  prometheus.Counter
}

// New registers the collectors and returns them.
func New(opts ...Option) *Prometheus {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	factory := promauto.With(cfg.Registry)

	return &Prometheus{
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "state_transitions_total",
			Help:        "Connection state transitions",
			ConstLabels: cfg.ConstLabels,
		}, []string{"from", "to"}),

		state: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "connection_state",
			Help:        "1 for the current connection state",
			ConstLabels: cfg.ConstLabels,
		}, []string{"state"}),

		reconnects: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "reconnects_scheduled_total",
			Help:        "Reconnect attempts scheduled after an unplanned disconnect",
			ConstLabels: cfg.ConstLabels,
		}, []string{"room"}),

		framesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "frames_sent_total",
			Help:        "Frames queued for transmission",
			ConstLabels: cfg.ConstLabels,
		}),

		framesReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "frames_received_total",
			Help:        "Decoded frames by event type",
			ConstLabels: cfg.ConstLabels,
		}, []string{"type"}),

		framesDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "frames_dropped_total",
			Help:        "Malformed or unrecognized frames",
			ConstLabels: cfg.ConstLabels,
		}),
	}
}

func (p *Prometheus) StateChanged(from, to string) {
	p.transitions.WithLabelValues(from, to).Inc()
	p.state.WithLabelValues(from).Set(0)
	p.state.WithLabelValues(to).Set(1)
}

func (p *Prometheus) ReconnectScheduled(room string) {
	p.reconnects.WithLabelValues(room).Inc()
}

func (p *Prometheus) FrameSent() { p.framesSent.Inc() }

func (p *Prometheus) FrameReceived(kind string) {
	p.framesReceived.WithLabelValues(kind).Inc()
}

func (p *Prometheus) FrameDropped() { p.framesDropped.Inc() }
