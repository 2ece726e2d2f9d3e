// Package metrics exposes Prometheus collectors for the analyzer service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	analysisRequestsTotal    *prometheus.CounterVec
	analysisCacheHitsTotal   prometheus.Counter
	modelCallsTotal          *prometheus.CounterVec
	modelCallDurationSeconds *prometheus.HistogramVec
	acquireDurationSeconds   *prometheus.HistogramVec
	httpRequestsTotal        *prometheus.CounterVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		analysisRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analysis_requests_total",
				Help: "Total analysis requests, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		analysisCacheHitsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "analysis_cache_hits_total",
				Help: "Total requests served directly from the report cache.",
			},
		)

		modelCallsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "model_calls_total",
				Help: "Total model invocations, labeled by model and outcome.",
			},
			[]string{"model", "outcome"},
		)

		modelCallDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "model_call_duration_seconds",
				Help:    "Histogram of model call latencies, labeled by model.",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 45},
			},
			[]string{"model"},
		)

		acquireDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "acquire_duration_seconds",
				Help:    "Histogram of page acquisition latencies, labeled by source.",
				Buckets: []float64{1, 2, 5, 10, 20, 30, 60},
			},
			[]string{"source"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRequest increments the analysis request counter.
func ObserveRequest(outcome string) {
	analysisRequestsTotal.WithLabelValues(outcome).Inc()
}

// ObserveCacheHit counts a request served from the cache.
func ObserveCacheHit() {
	analysisCacheHitsTotal.Inc()
}

// ObserveModelCall records one model invocation attempt.
func ObserveModelCall(model, outcome string, duration time.Duration) {
	modelCallsTotal.WithLabelValues(model, outcome).Inc()
	modelCallDurationSeconds.WithLabelValues(model).Observe(duration.Seconds())
}

// ObserveAcquire records a page acquisition.
func ObserveAcquire(source string, duration time.Duration) {
	acquireDurationSeconds.WithLabelValues(source).Observe(duration.Seconds())
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method string, code int) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
}
