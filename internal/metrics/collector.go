// Package metrics exposes Prometheus counters for store activity.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "tunestore"

// Fetch outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
	OutcomeCached   = "cached"
)

// Load outcomes.
const (
	LoadUsable   = "usable"
	LoadUnusable = "unusable"
	LoadError    = "error"
)

// Collector holds the store's metrics. A nil *Collector is valid and
// records nothing, so components can take one optionally.
type Collector struct {
	registry *prometheus.Registry

	fetchTotal      *prometheus.CounterVec
	fetchBytes      *prometheus.CounterVec
	loadsTotal      *prometheus.CounterVec
	scannedTotal    prometheus.Counter
	collectDuration prometheus.Histogram
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// NewCollector registers all metrics on a fresh registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		fetchTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "fetch_total",
				Help:      "Artifact fetch attempts by artifact and outcome",
			},
			[]string{"artifact", "outcome"},
		),
		fetchBytes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "fetch_bytes_total",
				Help:      "Bytes written to the local cache by remote fetches",
			},
			[]string{"artifact"},
		),
		loadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "loads_total",
				Help:      "Experiment loads by outcome",
			},
			[]string{"outcome"},
		),
		scannedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "scanned_total",
			Help:      "Candidate experiments handed to collect",
		}),
		collectDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "collect_duration_seconds",
			Help:      "Wall time of collect calls",
			Buckets:   prometheus.ExponentialBuckets(0.005, 4, 8),
		}),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "http_requests_total",
				Help:      "HTTP API requests by route and status",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP API request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

// Registry returns the registry the metrics live on.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// RecordFetch counts one artifact download attempt.
func (c *Collector) RecordFetch(artifact, outcome string, bytes int64) {
	if c == nil {
		return
	}
	c.fetchTotal.WithLabelValues(artifact, outcome).Inc()
	if bytes > 0 {
		c.fetchBytes.WithLabelValues(artifact).Add(float64(bytes))
	}
}

// RecordLoad counts one experiment load.
func (c *Collector) RecordLoad(outcome string) {
	if c == nil {
		return
	}
	c.loadsTotal.WithLabelValues(outcome).Inc()
}

// RecordCollect records one collect pass over n candidates.
func (c *Collector) RecordCollect(n int, d time.Duration) {
	if c == nil {
		return
	}
	c.scannedTotal.Add(float64(n))
	c.collectDuration.Observe(d.Seconds())
}

// RecordHTTPRequest records one served API request.
func (c *Collector) RecordHTTPRequest(method, route string, status int, d time.Duration) {
	if c == nil {
		return
	}
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
