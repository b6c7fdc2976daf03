package observe

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/patchwork/pkg/reconcile"
)

// MetricsConfig configures the Prometheus observer.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "patchwork").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for patch duration.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus observer.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "patchwork",
		// Patches are mostly sub-millisecond.
		Buckets:  []float64{.00005, .0001, .00025, .0005, .001, .0025, .005, .01, .025, .05, .1},
		Registry: prometheus.DefaultRegisterer,
	}
}

// Metrics is a reconcile.Observer that records Prometheus metrics.
// Create one per registry; registering twice on the same registry
// panics.
type Metrics struct {
	patchesTotal  *prometheus.CounterVec
	patchDuration prometheus.Histogram
	created       prometheus.Counter
	removed       prometheus.Counter
	moved         prometheus.Counter
	textUpdates   prometheus.Counter
	patched       prometheus.Counter

	liveClients prometheus.Gauge
	framesSent  *prometheus.CounterVec
	bytesSent   prometheus.Counter
}

// NewMetrics creates and registers the patch metrics.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	counter := func(name, help string) prometheus.Counter {
		return factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		})
	}

	return &Metrics{
		patchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "patches_total",
			Help:        "Total number of patch calls by outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"outcome"}),

		patchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "patch_duration_seconds",
			Help:        "Patch duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		created:     counter("nodes_created_total", "Total number of real nodes created"),
		removed:     counter("nodes_removed_total", "Total number of real nodes removed"),
		moved:       counter("nodes_moved_total", "Total number of real nodes moved by the keyed diff"),
		textUpdates: counter("text_updates_total", "Total number of text content updates"),
		patched:     counter("vnodes_patched_total", "Total number of vnodes patched in place"),

		liveClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "live_clients",
			Help:        "Number of connected live clients",
			ConstLabels: config.ConstLabels,
		}),

		framesSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "live_frames_sent_total",
			Help:        "Total frames written to live clients by frame type",
			ConstLabels: config.ConstLabels,
		}, []string{"type"}),

		bytesSent: counter("live_bytes_sent_total", "Total bytes written to live clients"),
	}
}

type startKey struct{}

// PatchStarted implements reconcile.Observer.
func (m *Metrics) PatchStarted(ctx context.Context) context.Context {
	return context.WithValue(ctx, startKey{}, time.Now())
}

// PatchFinished implements reconcile.Observer.
func (m *Metrics) PatchFinished(ctx context.Context, stats reconcile.Stats) {
	if start, ok := ctx.Value(startKey{}).(time.Time); ok {
		m.patchDuration.Observe(time.Since(start).Seconds())
	}

	outcome := "ok"
	if stats.Aborted {
		outcome = "aborted"
	}
	m.patchesTotal.WithLabelValues(outcome).Inc()

	m.created.Add(float64(stats.Created))
	m.removed.Add(float64(stats.Removed))
	m.moved.Add(float64(stats.Moved))
	m.textUpdates.Add(float64(stats.TextUpdates))
	m.patched.Add(float64(stats.Patched))
}

// ClientConnected records a live client joining.
func (m *Metrics) ClientConnected() {
	m.liveClients.Inc()
}

// ClientDisconnected records a live client leaving.
func (m *Metrics) ClientDisconnected() {
	m.liveClients.Dec()
}

// FrameSent records one frame of the given type and wire size.
func (m *Metrics) FrameSent(frameType string, bytes int) {
	m.framesSent.WithLabelValues(frameType).Inc()
	m.bytesSent.Add(float64(bytes))
}
