package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	WorkersTotal        *prometheus.CounterVec
	WorkersActive       prometheus.Gauge
	ClaimsTotal         *prometheus.CounterVec
	ErrorsTotal         *prometheus.CounterVec
	NotificationsTotal  *prometheus.CounterVec
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics registers everything on a private registry so several crawls
// (or tests) in one process do not collide.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		WorkersTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "picscan_workers_total",
			Help: "Workers launched, by outcome",
		}, []string{"outcome"}), // started, abstained, failed
		WorkersActive: f.NewGauge(prometheus.GaugeOpts{
			Name: "picscan_workers_active",
			Help: "Workers currently running",
		}),
		ClaimsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "picscan_claims_total",
			Help: "References newly claimed in a discovery store",
		}, []string{"kind"}),
		ErrorsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "picscan_errors_total",
			Help: "The total number of errors encountered",
		}, []string{"type"}), // fetch, processing, panic
		NotificationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "picscan_sink_notifications_total",
			Help: "Image notifications handed to a sink, by result",
		}, []string{"result"}),
		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) IncWorkers(outcome string) {
	if m == nil {
		return
	}
	m.WorkersTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SetActive(n int64) {
	if m == nil {
		return
	}
	m.WorkersActive.Set(float64(n))
}

func (m *Metrics) IncClaims(kind string) {
	if m == nil {
		return
	}
	m.ClaimsTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncErrors(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

func (m *Metrics) IncNotifications(result string) {
	if m == nil {
		return
	}
	m.NotificationsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveHTTP(method, path, status string, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(seconds)
}
