package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the service
type Metrics struct {
	// HTTP request counts by method, route and status code
	HTTPRequests *prometheus.CounterVec

	// HTTP request latency by method and route
	HTTPDuration *prometheus.HistogramVec

	// Certificates created since process start
	CertificatesCreated prometheus.Counter

	// List queries whose status filter was dropped as unresolvable
	StatusFilterDropped prometheus.Counter
}

// New creates and registers all metrics on the default registry
func New() *Metrics {
	return &Metrics{
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "certidoes_http_requests_total",
			Help: "Total HTTP requests by method, route and status code",
		}, []string{"method", "route", "status"}),

		HTTPDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "certidoes_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route"}),

		CertificatesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "certidoes_certificates_created_total",
			Help: "Total certificates created",
		}),

		StatusFilterDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "certidoes_status_filter_dropped_total",
			Help: "Total list queries whose status filter could not be resolved and was dropped",
		}),
	}
}

// ObserveRequest records one completed HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m != nil {
		m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		m.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
	}
}

// IncrementCertificatesCreated records a successful certificate creation.
func (m *Metrics) IncrementCertificatesCreated() {
	if m != nil {
		m.CertificatesCreated.Inc()
	}
}

// IncrementStatusFilterDropped records a dropped status filter.
func (m *Metrics) IncrementStatusFilterDropped() {
	if m != nil {
		m.StatusFilterDropped.Inc()
	}
}

// Handler exposes the default registry for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}
