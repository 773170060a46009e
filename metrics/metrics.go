// Package metrics exposes Prometheus collectors for evidence collection
// and analysis runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the collectors for one engine instance. A nil
// *Metrics is valid and records nothing, so callers never branch.
type Metrics struct {
	fetches        *prometheus.CounterVec
	recordsFetched *prometheus.CounterVec
	recordsDropped *prometheus.CounterVec
	analyses       prometheus.Counter
	analysisTime   prometheus.Histogram
}

// New creates the collectors and registers them with reg. Pass
// prometheus.DefaultRegisterer for the usual global registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "skillscope",
			Name:      "platform_fetches_total",
			Help:      "Platform fetch attempts by platform and status.",
		}, []string{"platform", "status"}),
		recordsFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "skillscope",
			Name:      "records_fetched_total",
			Help:      "Raw activity records fetched, by platform.",
		}, []string{"platform"}),
		recordsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "skillscope",
			Name:      "records_dropped_total",
			Help:      "Records dropped during normalization, by platform.",
		}, []string{"platform"}),
		analyses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "skillscope",
			Name:      "analyses_total",
			Help:      "Completed analysis runs.",
		}),
		analysisTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "skillscope",
			Name:      "analysis_duration_seconds",
			Help:      "Wall time of one analysis run.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.fetches, m.recordsFetched, m.recordsDropped, m.analyses, m.analysisTime)
	}
	return m
}

// Fetch records one platform fetch attempt with a status of "ok" or "error".
func (m *Metrics) Fetch(platform, status string) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(platform, status).Inc()
}

// Records counts raw records fetched from a platform.
func (m *Metrics) Records(platform string, n int) {
	if m == nil {
		return
	}
	m.recordsFetched.WithLabelValues(platform).Add(float64(n))
}

// Dropped counts records discarded during normalization.
func (m *Metrics) Dropped(platform string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.recordsDropped.WithLabelValues(platform).Add(float64(n))
}

// Analysis records one completed analysis run and its duration in seconds.
func (m *Metrics) Analysis(seconds float64) {
	if m == nil {
		return
	}
	m.analyses.Inc()
	m.analysisTime.Observe(seconds)
}
