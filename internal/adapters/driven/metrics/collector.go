// Package metrics provides a Prometheus implementation of driven.Metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
)

// Ensure Collector implements the interface.
var _ driven.Metrics = (*Collector)(nil)

// Namespace prefixes every metric name.
const Namespace = "askdocs"

// Collector holds all Prometheus metrics for the application.
// Each Collector owns its registry, so tests can create as many as they like.
type Collector struct {
	registry *prometheus.Registry

	// Pipeline metrics
	asks          *prometheus.CounterVec
	askDuration   prometheus.Histogram
	builds        *prometheus.CounterVec
	buildDuration prometheus.Histogram
	chunksIndexed prometheus.Counter

	// HTTP metrics
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// NewCollector creates a collector with its own registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		asks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "questions_total",
			Help:      "Questions answered, by outcome",
		}, []string{"outcome"}),
		askDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "question_duration_seconds",
			Help:      "Time to answer a question",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}),
		builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "index_builds_total",
			Help:      "Index builds, by outcome",
		}, []string{"outcome"}),
		buildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "index_build_duration_seconds",
			Help:      "Time to extract, embed and store a batch of documents",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		chunksIndexed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "chunks_indexed_total",
			Help:      "Chunks written to the vector index",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	c.registry.MustRegister(
		c.asks, c.askDuration,
		c.builds, c.buildDuration, c.chunksIndexed,
		c.httpRequests, c.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// ObserveAsk records one question with its outcome.
func (c *Collector) ObserveAsk(outcome string, elapsed time.Duration) {
	c.asks.WithLabelValues(outcome).Inc()
	c.askDuration.Observe(elapsed.Seconds())
}

// ObserveIndex records one build with its outcome and the number of chunks stored.
func (c *Collector) ObserveIndex(outcome string, chunks int, elapsed time.Duration) {
	c.builds.WithLabelValues(outcome).Inc()
	c.buildDuration.Observe(elapsed.Seconds())
	if chunks > 0 {
		c.chunksIndexed.Add(float64(chunks))
	}
}

// ObserveHTTP records one HTTP request.
func (c *Collector) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Registry returns the registry backing this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
