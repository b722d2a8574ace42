package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Lifecycle metrics
	Operations        *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	AppsRunning       prometheus.Gauge
	AppsInstalled     *prometheus.GaugeVec

	// Discovery metrics
	CacheLookups   *prometheus.CounterVec
	PortDetections *prometheus.CounterVec
	RemoteFetches  *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.GaugeFunc
	startTime time.Time

	// Snapshot for the health endpoint
	snapshot Snapshot

	mu sync.RWMutex
}

// Snapshot holds current values reported on the health endpoint
type Snapshot struct {
	TotalRequests int64   `json:"total_requests"`
	TotalErrors   int64   `json:"total_errors"`
	RunningApps   int64   `json:"running_apps"`
	Operations    int64   `json:"operations"`
	FailedOps     int64   `json:"failed_operations"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// NewMetrics creates a metrics collector on its own registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskdock_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "taskdock_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "taskdock_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),

		Operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskdock_lifecycle_operations_total",
				Help: "Lifecycle operations by name, app kind and outcome",
			},
			[]string{"operation", "kind", "status"},
		),
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "taskdock_lifecycle_operation_duration_seconds",
				Help:    "Lifecycle operation duration in seconds",
				Buckets: []float64{.005, .025, .1, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"operation"},
		),
		AppsRunning: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "taskdock_apps_running",
				Help: "Number of app processes seen on the last listing",
			},
		),
		AppsInstalled: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "taskdock_apps_installed",
				Help: "Number of installed apps by kind",
			},
			[]string{"kind"},
		),

		CacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskdock_cache_lookups_total",
				Help: "Cache lookups by cache and result",
			},
			[]string{"cache", "result"},
		),
		PortDetections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskdock_port_detections_total",
				Help: "Port detections by winning strategy",
			},
			[]string{"strategy"},
		),
		RemoteFetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskdock_remote_fetches_total",
				Help: "Remote store fetches by outcome",
			},
			[]string{"status"},
		),
	}

	m.Uptime = factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "taskdock_uptime_seconds",
			Help: "Server uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Handler returns the exposition handler for this collector's registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordOperation records a lifecycle operation outcome
func (m *Metrics) RecordOperation(operation, kind string, err error, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.Operations.WithLabelValues(operation, kind, status).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.Operations++
	if err != nil {
		m.snapshot.FailedOps++
	}
	m.mu.Unlock()
}

// RecordCacheLookup records how a cache lookup was served
func (m *Metrics) RecordCacheLookup(cache, result string) {
	m.CacheLookups.WithLabelValues(cache, result).Inc()
}

// RecordPortDetection records the strategy that produced a port, or "none"
func (m *Metrics) RecordPortDetection(strategy string) {
	m.PortDetections.WithLabelValues(strategy).Inc()
}

// RecordRemoteFetch records a remote store fetch outcome
func (m *Metrics) RecordRemoteFetch(err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.RemoteFetches.WithLabelValues(status).Inc()
}

// SetAppsRunning sets the number of running apps
func (m *Metrics) SetAppsRunning(count int) {
	m.AppsRunning.Set(float64(count))
	m.mu.Lock()
	m.snapshot.RunningApps = int64(count)
	m.mu.Unlock()
}

// SetAppsInstalled sets the number of installed apps for a kind
func (m *Metrics) SetAppsInstalled(kind string, count int) {
	m.AppsInstalled.WithLabelValues(kind).Set(float64(count))
}

// Snapshot returns the current summary values
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.snapshot
	s.UptimeSeconds = time.Since(m.startTime).Seconds()
	return s
}
