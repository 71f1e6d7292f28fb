// Package metrics provides Prometheus instrumentation for the pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

// Metrics holds the pipeline's Prometheus collectors. A nil *Metrics is
// valid and records nothing, so components can run uninstrumented in tests.
type Metrics struct {
	SearchesTotal    *prometheus.CounterVec
	SearchDuration   prometheus.Histogram
	ProxyFetches     *prometheus.CounterVec
	CacheLookups     *prometheus.CounterVec
	Enrichments      *prometheus.CounterVec
	ResolvesTotal    *prometheus.CounterVec
	ResultsPerSearch prometheus.Histogram
}

// New registers the pipeline collectors with reg and returns them. Pass
// prometheus.DefaultRegisterer in production; tests use a fresh registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		SearchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "shopsearch_searches_total",
			Help: "Product searches by outcome.",
		}, []string{"outcome"}),
		SearchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "shopsearch_search_duration_seconds",
			Help:    "Time to produce the initial result set.",
			Buckets: prometheus.DefBuckets,
		}),
		ProxyFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "shopsearch_proxy_fetches_total",
			Help: "Proxy-raced page fetches by outcome.",
		}, []string{"outcome"}),
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "shopsearch_cache_lookups_total",
			Help: "Metadata cache lookups by outcome (hit/miss).",
		}, []string{"outcome"}),
		Enrichments: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "shopsearch_enrichments_total",
			Help: "Background enrichment attempts by outcome.",
		}, []string{"outcome"}),
		ResolvesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "shopsearch_resolves_total",
			Help: "Direct URL resolutions by outcome.",
		}, []string{"outcome"}),
		ResultsPerSearch: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "shopsearch_results_per_search",
			Help:    "Initial result count per search.",
			Buckets: []float64{0, 1, 2, 4, 8, 12},
		}),
	}
}

// RecordSearch records a completed search and its initial result count.
func (m *Metrics) RecordSearch(ok bool, resultCount int, seconds float64) {
	if m == nil {
		return
	}
	m.SearchesTotal.WithLabelValues(outcome(ok)).Inc()
	m.SearchDuration.Observe(seconds)
	if ok {
		m.ResultsPerSearch.Observe(float64(resultCount))
	}
}

// RecordProxyFetch records the outcome of one proxy-raced fetch.
func (m *Metrics) RecordProxyFetch(ok bool) {
	if m == nil {
		return
	}
	m.ProxyFetches.WithLabelValues(outcome(ok)).Inc()
}

// RecordCacheLookup records a cache hit or miss.
func (m *Metrics) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheLookups.WithLabelValues("hit").Inc()
	} else {
		m.CacheLookups.WithLabelValues("miss").Inc()
	}
}

// RecordEnrichment records the outcome of one background enrichment.
func (m *Metrics) RecordEnrichment(ok bool) {
	if m == nil {
		return
	}
	m.Enrichments.WithLabelValues(outcome(ok)).Inc()
}

// RecordResolve records the outcome of one direct URL resolution.
func (m *Metrics) RecordResolve(ok bool) {
	if m == nil {
		return
	}
	m.ResolvesTotal.WithLabelValues(outcome(ok)).Inc()
}

func outcome(ok bool) string {
	if ok {
		return outcomeSuccess
	}
	return outcomeFailure
}
