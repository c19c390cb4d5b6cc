// Package metrics exposes Prometheus metrics for posting and resolution.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "bbs"

// Outcome label values.
const (
	OutcomeSuccess     = "success"
	OutcomeUnsupported = "unsupported_url"
	OutcomeDiscovery   = "discovery_failed"
	OutcomeFetch       = "fetch_failed"
	OutcomeEncoding    = "encoding_failed"
	OutcomeInvalid     = "invalid_request"
	OutcomeCanceled    = "canceled"
	OutcomeError       = "error"
)

// Metrics holds the collectors. A nil *Metrics records nothing, so callers
// that do not care about metrics can pass nil.
type Metrics struct {
	PostsTotal      *prometheus.CounterVec
	PostsInFlight   prometheus.Gauge
	ResolveDuration *prometheus.HistogramVec
	ResolveRetries  prometheus.Counter
}

// New creates and registers the metrics with reg, or with the default
// registerer when reg is nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		PostsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "posts_total",
				Help:      "Post attempts by engine and outcome",
			},
			[]string{"engine", "outcome"},
		),
		PostsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "posts_in_flight",
				Help:      "Post attempts currently running",
			},
		),
		ResolveDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "resolve_duration_seconds",
				Help:      "Time to resolve a URL to a thread, including retries",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
			},
			[]string{"kind", "outcome"},
		),
		ResolveRetries: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "resolve_retries_total",
				Help:      "Resolution attempts repeated after a temporary failure",
			},
		),
	}
}

// RecordPost counts one finished post attempt.
func (m *Metrics) RecordPost(engine, outcome string) {
	if m == nil {
		return
	}
	m.PostsTotal.WithLabelValues(engine, outcome).Inc()
}

// TrackInFlight increments the in-flight gauge and returns the matching
// decrement.
func (m *Metrics) TrackInFlight() func() {
	if m == nil {
		return func() {}
	}
	m.PostsInFlight.Inc()
	return m.PostsInFlight.Dec
}

// ObserveResolve records how long a resolution took.
func (m *Metrics) ObserveResolve(kind, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.ResolveDuration.WithLabelValues(kind, outcome).Observe(d.Seconds())
}

// IncResolveRetry counts one repeated resolution attempt.
func (m *Metrics) IncResolveRetry() {
	if m == nil {
		return
	}
	m.ResolveRetries.Inc()
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
