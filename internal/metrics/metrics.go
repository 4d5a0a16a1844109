package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"archreview/internal/models"
)

// Metrics exposes service metrics and the handler that serves them.
type Metrics interface {
	HTTPHandler() http.Handler
	ObserveHealthProbe(status *models.ModelHealthStatus)
	ObserveReview(profession string, fallback bool)
	ObserveHTTPRequest(method, route string, status int, elapsed time.Duration)
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

func NewNoopMetrics() *NoopMetrics {
	return &NoopMetrics{}
}

func (m *NoopMetrics) HTTPHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func (m *NoopMetrics) ObserveHealthProbe(status *models.ModelHealthStatus) {}

func (m *NoopMetrics) ObserveReview(profession string, fallback bool) {}

func (m *NoopMetrics) ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {}

// PrometheusMetrics records probe and review outcomes on a private registry.
type PrometheusMetrics struct {
	registry     *prometheus.Registry
	probes       *prometheus.CounterVec
	probeSeconds *prometheus.HistogramVec
	reviews      *prometheus.CounterVec
	requests     *prometheus.CounterVec
	latency      *prometheus.HistogramVec
}

// NewPrometheusMetrics creates and registers all collectors
func NewPrometheusMetrics() *PrometheusMetrics {
	reg := prometheus.NewRegistry()

	m := &PrometheusMetrics{
		registry: reg,
		probes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "archreview",
			Name:      "health_probes_total",
			Help:      "Model health probes by outcome.",
		}, []string{"model_id", "available", "error_code"}),
		probeSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "archreview",
			Name:      "health_probe_seconds",
			Help:      "Wall-clock duration of model health probes.",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		}, []string{"model_id"}),
		reviews: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "archreview",
			Name:      "review_results_total",
			Help:      "Profession review results by outcome.",
		}, []string{"profession", "outcome"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "archreview",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "archreview",
			Name:      "http_request_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(m.probes, m.probeSeconds, m.reviews, m.requests, m.latency)
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return m
}

func (m *PrometheusMetrics) HTTPHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *PrometheusMetrics) ObserveHealthProbe(status *models.ModelHealthStatus) {
	if status == nil {
		return
	}
	m.probes.WithLabelValues(status.ModelID, strconv.FormatBool(status.Available), string(status.ErrorCode)).Inc()
	m.probeSeconds.WithLabelValues(status.ModelID).Observe((time.Duration(status.ResponseTime) * time.Millisecond).Seconds())
}

func (m *PrometheusMetrics) ObserveReview(profession string, fallback bool) {
	outcome := "model"
	if fallback {
		outcome = "fallback"
	}
	m.reviews.WithLabelValues(profession, outcome).Inc()
}

func (m *PrometheusMetrics) ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
