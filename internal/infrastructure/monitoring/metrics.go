package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics.
// Each instance owns its registry so tests can build several side by side.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Registry metrics
	LayersCreated  prometheus.Counter
	LayersRejected prometheus.Counter
	Resolves       *prometheus.CounterVec
	StoreErrors    *prometheus.CounterVec
	StoreDuration  *prometheus.HistogramVec

	// Notification metrics
	EventsPublished *prometheus.CounterVec
	EventsDropped   *prometheus.CounterVec

	// WebSocket metrics
	WSConnections prometheus.Gauge

	// Cache metrics
	CacheLookups *prometheus.CounterVec
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "galaxy_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "galaxy_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),

		LayersCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "galaxy_layers_created_total",
				Help: "Total number of layers registered",
			},
		),
		LayersRejected: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "galaxy_layers_rejected_total",
				Help: "Total number of create_layer calls rejected as duplicates",
			},
		),
		Resolves: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "galaxy_resolves_total",
				Help: "Total number of resolve_link calls by outcome",
			},
			[]string{"outcome"},
		),
		StoreErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "galaxy_store_errors_total",
				Help: "Total number of storage failures",
			},
			[]string{"operation"},
		),
		StoreDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "galaxy_store_duration_seconds",
				Help:    "Storage operation duration in seconds",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"operation"},
		),

		EventsPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "galaxy_events_published_total",
				Help: "Total number of layer events handed to a sink",
			},
			[]string{"sink"},
		),
		EventsDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "galaxy_events_dropped_total",
				Help: "Total number of layer events a sink could not deliver",
			},
			[]string{"sink"},
		),

		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "galaxy_ws_connections",
				Help: "Number of active WebSocket event subscribers",
			},
		),

		CacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "galaxy_link_cache_lookups_total",
				Help: "Link cache lookups by result",
			},
			[]string{"result"},
		),
	}
}

// Handler returns the Prometheus exposition handler for this collector
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Gatherer exposes the underlying registry for tests
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordStoreCall records a storage operation and its outcome
func (m *Metrics) RecordStoreCall(operation string, duration time.Duration, err error) {
	m.StoreDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		m.StoreErrors.WithLabelValues(operation).Inc()
	}
}

// IncLayersCreated increments the accepted layer counter
func (m *Metrics) IncLayersCreated() {
	m.LayersCreated.Inc()
}

// IncLayersRejected increments the duplicate rejection counter
func (m *Metrics) IncLayersRejected() {
	m.LayersRejected.Inc()
}

// RecordResolve records a resolve outcome ("hit", "miss", "fault")
func (m *Metrics) RecordResolve(outcome string) {
	m.Resolves.WithLabelValues(outcome).Inc()
}

// RecordEvent records a notification hand-off for a sink
func (m *Metrics) RecordEvent(sink string, delivered bool) {
	if delivered {
		m.EventsPublished.WithLabelValues(sink).Inc()
		return
	}
	m.EventsDropped.WithLabelValues(sink).Inc()
}

// RecordCacheLookup records a link cache hit or miss
func (m *Metrics) RecordCacheLookup(hit bool) {
	if hit {
		m.CacheLookups.WithLabelValues("hit").Inc()
		return
	}
	m.CacheLookups.WithLabelValues("miss").Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
}
