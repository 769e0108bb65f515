// Package metrics exposes Prometheus collectors for the scoring engine and its
// HTTP surface. A nil *Collector is valid and records nothing.
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

// Cache lookup outcomes.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// Collector groups every metric the engine records.
type Collector struct {
	registry *prometheus.Registry

	assessmentsTotal     *prometheus.CounterVec
	assessmentDuration   *prometheus.HistogramVec
	cacheRequestsTotal   *prometheus.CounterVec
	interactionsFound    *prometheus.CounterVec
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge
}

// NewCollector registers the collectors on registry. A nil registry creates a
// fresh one with Go runtime and process collectors.
func NewCollector(registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	factory := promauto.With(registry)

	return &Collector{
		registry: registry,
		assessmentsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cds_assessments_total",
				Help: "Total number of analyzer invocations by outcome level",
			},
			[]string{"analyzer", "level"},
		),
		assessmentDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cds_assessment_duration_seconds",
				Help:    "Analyzer invocation duration in seconds, including cache lookup",
				Buckets: []float64{.00001, .0001, .0005, .001, .005, .01, .05, .1},
			},
			[]string{"analyzer"},
		),
		cacheRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cds_cache_requests_total",
				Help: "Total number of result cache lookups",
			},
			[]string{"result"},
		),
		interactionsFound: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cds_drug_interactions_found_total",
				Help: "Total number of drug interaction pairs reported",
			},
			[]string{"severity"},
		),
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cds_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cds_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		httpRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "cds_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
		),
	}
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// ObserveAssessment records one analyzer invocation.
func (c *Collector) ObserveAssessment(analyzer, level string, duration time.Duration) {
	if c == nil {
		return
	}
	c.assessmentsTotal.WithLabelValues(analyzer, level).Inc()
	c.assessmentDuration.WithLabelValues(analyzer).Observe(duration.Seconds())
}

// ObserveCache records a cache lookup outcome (hit, miss or error).
func (c *Collector) ObserveCache(result string) {
	if c == nil {
		return
	}
	c.cacheRequestsTotal.WithLabelValues(result).Inc()
}

// ObserveInteraction records one reported interaction pair.
func (c *Collector) ObserveInteraction(severity string) {
	if c == nil {
		return
	}
	c.interactionsFound.WithLabelValues(severity).Inc()
}

// ObserveHTTPRequest records a completed HTTP request.
func (c *Collector) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if c == nil {
		return
	}
	c.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RequestStarted increments the in-flight gauge; the returned func decrements it.
func (c *Collector) RequestStarted() func() {
	if c == nil {
		return func() {}
	}
	c.httpRequestsInFlight.Inc()
	return c.httpRequestsInFlight.Dec
}
