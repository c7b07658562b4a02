package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPMetrics tracks the API surface.
type HTTPMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	inFlight        prometheus.Gauge
}

func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	factory := promauto.With(reg)
	return &HTTPMetrics{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "insight_engine",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "insight_engine",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		inFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "insight_engine",
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "HTTP requests currently being served.",
		}),
	}
}

func (m *HTTPMetrics) Observe(route, method string, code int, elapsed time.Duration) {
	m.requestsTotal.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

func (m *HTTPMetrics) TrackInFlight() func() {
	m.inFlight.Inc()
	return m.inFlight.Dec
}

// WorkerMetrics tracks document processing in the background worker.
type WorkerMetrics struct {
	documentsProcessed *prometheus.CounterVec
	processingDuration prometheus.Histogram
	sectionsIndexed    prometheus.Counter
}

func NewWorkerMetrics(reg prometheus.Registerer) *WorkerMetrics {
	factory := promauto.With(reg)
	return &WorkerMetrics{
		documentsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "insight_engine",
			Subsystem: "worker",
			Name:      "documents_processed_total",
			Help:      "Documents processed by final status.",
		}, []string{"status"}),
		processingDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "insight_engine",
			Subsystem: "worker",
			Name:      "processing_duration_seconds",
			Help:      "End-to-end processing time per document.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		sectionsIndexed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "insight_engine",
			Subsystem: "worker",
			Name:      "sections_indexed_total",
			Help:      "Sections embedded and cached across all documents.",
		}),
	}
}

func (m *WorkerMetrics) ObserveProcessed(status string, elapsed time.Duration) {
	m.documentsProcessed.WithLabelValues(status).Inc()
	m.processingDuration.Observe(elapsed.Seconds())
}

func (m *WorkerMetrics) AddSectionsIndexed(n int) {
	m.sectionsIndexed.Add(float64(n))
}

// Handler exposes the registry in the standard exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
