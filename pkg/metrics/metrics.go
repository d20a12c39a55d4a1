// Package metrics defines the Prometheus metric collectors used across the
// platform and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the platform.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	AssessmentsTotal     *prometheus.CounterVec
	AssessmentScore      prometheus.Histogram
	AssessmentLatency    prometheus.Histogram
	AlignmentTokens      *prometheus.HistogramVec
	CacheHitsTotal       prometheus.Counter
	CacheMissesTotal     prometheus.Counter
	EventsDroppedTotal   prometheus.Counter
	HistoryWritesTotal   *prometheus.CounterVec
	DictionaryLookups    *prometheus.CounterVec
	CircuitBreakerState  *prometheus.GaugeVec
}

// New creates all collectors and registers them with the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates all collectors and registers them with reg. Tests
// pass a fresh prometheus.NewRegistry() to avoid duplicate registration.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		AssessmentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assessments_total",
				Help: "Total pronunciation assessments by band (good, average, bad) or error.",
			},
			[]string{"band"},
		),
		AssessmentScore: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "assessment_score",
				Help:    "Distribution of final assessment scores (0-100).",
				Buckets: prometheus.LinearBuckets(0, 10, 11),
			},
		),
		AssessmentLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "assessment_latency_seconds",
				Help:    "Time spent scoring and aligning one attempt.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
		),
		AlignmentTokens: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "alignment_tokens",
				Help:    "Number of words per side fed to the aligner.",
				Buckets: []float64{1, 5, 10, 25, 50, 100, 300},
			},
			[]string{"side"},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of assessment cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of assessment cache misses.",
			},
		),
		EventsDroppedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "events_dropped_total",
				Help: "Attempt events dropped because the collector buffer was full.",
			},
		),
		HistoryWritesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "history_writes_total",
				Help: "Attempt history writes by status (ok, error).",
			},
			[]string{"status"},
		),
		DictionaryLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dictionary_lookups_total",
				Help: "Dictionary lookups by result (found, missing, error).",
			},
			[]string{"result"},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open).",
			},
			[]string{"name"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.AssessmentsTotal,
		m.AssessmentScore,
		m.AssessmentLatency,
		m.AlignmentTokens,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.EventsDroppedTotal,
		m.HistoryWritesTotal,
		m.DictionaryLookups,
		m.CircuitBreakerState,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
