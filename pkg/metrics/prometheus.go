package metrics

import (
	"IndexImpact/internal/domain/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	providerRequests *prometheus.CounterVec
	cacheLookups     *prometheus.CounterVec
	unresolved       *prometheus.GaugeVec
	coverage         *prometheus.GaugeVec
	capIterations    *prometheus.GaugeVec
	latency          *prometheus.HistogramVec
}

// New creates a recorder registered with reg. Use prometheus.DefaultRegisterer
// to expose the series on the default /metrics handler.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		providerRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "indeximpact_provider_requests_total",
				Help: "Market data provider calls by outcome",
			},
			[]string{"provider", "call", "result"},
		),
		cacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "indeximpact_cache_lookups_total",
				Help: "Gateway cache lookups by outcome",
			},
			[]string{"cache", "result"},
		),
		unresolved: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "indeximpact_unresolved_identifiers",
				Help: "Constituents without a usable quote in the last cycle",
			},
			[]string{"index"},
		),
		coverage: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "indeximpact_coverage_ratio",
				Help: "Resolved over expected constituents in the last cycle",
			},
			[]string{"index"},
		),
		capIterations: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "indeximpact_cap_iterations",
				Help: "Redistribution passes used by the capped regime in the last cycle",
			},
			[]string{"index"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "indeximpact_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordProviderCall counts one provider call.
func (r *Recorder) RecordProviderCall(provider, call string, ok bool) {
	r.providerRequests.WithLabelValues(provider, call, outcome(ok, "ok", "error")).Inc()
}

// RecordCacheLookup counts a cache hit or miss.
func (r *Recorder) RecordCacheLookup(cache string, hit bool) {
	r.cacheLookups.WithLabelValues(cache, outcome(hit, "hit", "miss")).Inc()
}

// RecordCoverage publishes the coverage of one index.
func (r *Recorder) RecordCoverage(index string, c models.Coverage) {
	r.unresolved.WithLabelValues(index).Set(float64(len(c.Unresolved)))
	r.coverage.WithLabelValues(index).Set(c.Ratio())
}

func (r *Recorder) RecordCapIterations(index string, n int) {
	r.capIterations.WithLabelValues(index).Set(float64(n))
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

func outcome(b bool, yes, no string) string {
	if b {
		return yes
	}
	return no
}
