// Package metrics exports Prometheus metrics for the toast stack.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jmylchreest/toastify/internal/history"
	"github.com/jmylchreest/toastify/internal/stack"
)

// Config configures the metrics.
type Config struct {
	// Namespace is the metrics namespace (default: "toastify").
	Namespace string

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer

	// Now stamps removals when measuring how long a toast was shown.
	Now func() time.Time
}

// Option configures the metrics.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

// WithClock sets the clock.
func WithClock(now func() time.Time) Option {
	return func(c *Config) {
		c.Now = now
	}
}

// Metrics holds the stack metrics.
type Metrics struct {
	added     *prometheus.CounterVec
	removed   *prometheus.CounterVec
	active    prometheus.Gauge
	visible   *prometheus.HistogramVec
	wsClients prometheus.Gauge

	now func() time.Time
}

// New registers the metrics.
func New(opts ...Option) *Metrics {
	config := Config{
		Namespace: "toastify",
		Registry:  prometheus.DefaultRegisterer,
		Now:       time.Now,
	}
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	return &Metrics{
		added: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "toasts_added_total",
			Help:      "Total number of toasts added, by color.",
		}, []string{"color"}),

		removed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "toasts_removed_total",
			Help:      "Total number of toasts removed, by reason.",
		}, []string{"reason"}),

		active: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: config.Namespace,
			Name:      "toasts_active",
			Help:      "Number of toasts currently on the stack.",
		}),

		visible: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Name:      "toast_visible_seconds",
			Help:      "How long toasts stayed on the stack before removal.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 300},
		}, []string{"reason"}),

		wsClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: config.Namespace,
			Name:      "ws_clients",
			Help:      "Number of connected WebSocket clients.",
		}),

		now: config.Now,
	}
}

// Observe records one stack change.
func (m *Metrics) Observe(ev stack.ChangeEvent) {
	if ev.Type == stack.ChangeAdd {
		for _, t := range ev.Toasts {
			m.added.WithLabelValues(string(t.Color)).Inc()
		}
	} else if reason, ok := history.ReasonFor(ev.Type); ok {
		now := m.now()
		for _, t := range ev.Toasts {
			m.removed.WithLabelValues(string(reason)).Inc()
			if !t.CreatedAt.IsZero() {
				m.visible.WithLabelValues(string(reason)).Observe(now.Sub(t.CreatedAt).Seconds())
			}
		}
	}
	if ev.Snapshot != nil {
		m.active.Set(float64(len(ev.Snapshot)))
	}
}

// Follow observes s until ctx is done or s is closed. The subscription
// is in place when Follow returns. Counters miss events dropped by the
// stack once followBuffer are unread (see Stack.Dropped); the active
// gauge recovers from the next snapshot.
func (m *Metrics) Follow(ctx context.Context, s *stack.Stack) {
	events := s.SubscribeBuffered(followBuffer)
	m.active.Set(float64(s.Len()))
	go func() {
		defer s.Unsubscribe(events)
		m.consume(ctx, events)
	}()
}

// followBuffer sizes the stack subscription used by Follow.
const followBuffer = 256

func (m *Metrics) consume(ctx context.Context, events <-chan stack.ChangeEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			m.Observe(ev)
		}
	}
}

// WSClientConnected increments the connected client gauge.
func (m *Metrics) WSClientConnected() {
	m.wsClients.Inc()
}

// WSClientDisconnected decrements the connected client gauge.
func (m *Metrics) WSClientDisconnected() {
	m.wsClients.Dec()
}
