// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics defines the Prometheus collectors of the search engine.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pdiddy/mark-search/pkg/types"
)

// Search outcomes.
const (
	SearchOK       = "ok"
	SearchDegraded = "degraded"
	SearchCached   = "cached"
	SearchStale    = "stale"
	SearchFailed   = "failed"
	SearchInvalid  = "invalid"
)

// Cache lookup results.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheStale = "stale"
	CacheError = "error"
)

type Metrics struct {
	SourceRequests *prometheus.CounterVec
	SourceLatency  *prometheus.HistogramVec
	DroppedRecords *prometheus.CounterVec
	Searches       *prometheus.CounterVec
	CacheLookups   *prometheus.CounterVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SourceRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "marksearch_source_requests_total",
			Help: "Registry searches by source and outcome (ok or failure kind)",
		}, []string{"source", "outcome"}),
		SourceLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "marksearch_source_duration_seconds",
			Help:    "Wall time spent on one registry search, failures included",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8},
		}, []string{"source"}),
		DroppedRecords: f.NewCounterVec(prometheus.CounterOpts{
			Name: "marksearch_dropped_records_total",
			Help: "Registry records discarded because they could not be normalized",
		}, []string{"source"}),
		Searches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "marksearch_searches_total",
			Help: "Federated searches by outcome",
		}, []string{"outcome"}),
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "marksearch_cache_lookups_total",
			Help: "Result cache lookups by result",
		}, []string{"result"}),
	}
}

// ObserveSource records one settled registry unit.
func (m *Metrics) ObserveSource(source string, kind types.FailureKind, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := string(kind)
	if kind == types.FailureNone {
		outcome = "ok"
	}
	m.SourceRequests.WithLabelValues(source, outcome).Inc()
	m.SourceLatency.WithLabelValues(source).Observe(elapsed.Seconds())
}

// ObserveDropped records n discarded records from source.
func (m *Metrics) ObserveDropped(source string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.DroppedRecords.WithLabelValues(source).Add(float64(n))
}

// ObserveSearch records a search outcome.
func (m *Metrics) ObserveSearch(outcome string) {
	if m == nil {
		return
	}
	m.Searches.WithLabelValues(outcome).Inc()
}

// ObserveCache records a cache lookup.
func (m *Metrics) ObserveCache(result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}
