// Package metrics provides Prometheus metrics for the QR API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics. Each instance owns its registry.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal      *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
	admissionDecisions *prometheus.CounterVec
	tokensIssued       *prometheus.CounterVec
	scansTotal         *prometheus.CounterVec
	renderDuration     *prometheus.HistogramVec
	batchItems         *prometheus.CounterVec
}

// NewMetrics creates and registers Prometheus metrics.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "table_qr_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "table_qr_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path", "status"},
		),
		admissionDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "table_qr_admission_decisions_total",
				Help: "Admission control decisions (allowed, rejected, error)",
			},
			[]string{"decision"},
		),
		tokensIssued: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "table_qr_tokens_issued_total",
				Help: "Signed table tokens issued",
			},
			[]string{"kind"},
		),
		scansTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "table_qr_scans_total",
				Help: "Scan validations by outcome and internal reason",
			},
			[]string{"outcome", "reason"},
		),
		renderDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "table_qr_render_duration_seconds",
				Help:    "QR render duration in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"format", "status"},
		),
		batchItems: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "table_qr_batch_items_total",
				Help: "Batch items processed by operation and status",
			},
			[]string{"operation", "status"},
		),
	}
}

// RecordHTTPRequest records metrics for an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path string, statusCode int, duration time.Duration) {
	status := strconv.Itoa(statusCode)
	m.requestsTotal.WithLabelValues(method, path, status).Inc()
	m.requestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

func (m *Metrics) RecordAdmission(decision string) {
	m.admissionDecisions.WithLabelValues(decision).Inc()
}

func (m *Metrics) RecordTokenIssued(kind string) {
	m.tokensIssued.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordScan(outcome, reason string) {
	m.scansTotal.WithLabelValues(outcome, reason).Inc()
}

// ObserveRender satisfies render.Observer.
func (m *Metrics) ObserveRender(format string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.renderDuration.WithLabelValues(format, status).Observe(d.Seconds())
}

func (m *Metrics) RecordBatchItem(operation string, ok bool) {
	status := "ok"
	if !ok {
		status = "error"
	}
	m.batchItems.WithLabelValues(operation, status).Inc()
}

// Handler serves this instance's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
