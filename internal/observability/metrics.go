// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "paper_pipeline"

// Lookup outcomes recorded per adapter call.
const (
	OutcomeFound = "found"
	OutcomeMiss  = "miss"
	OutcomeError = "error"
)

// Metrics holds the Prometheus collectors for the pipeline. A nil *Metrics
// is valid and records nothing, so components can run without metrics.
type Metrics struct {
	// PapersFetched counts papers accepted by the fetcher.
	PapersFetched prometheus.Counter

	// FetchPages counts upstream pages requested, labeled by status (ok, error).
	FetchPages *prometheus.CounterVec

	// DuplicatesRemoved counts papers dropped by deduplication.
	DuplicatesRemoved prometheus.Counter

	// AdapterLookups counts adapter calls, labeled by source and outcome.
	AdapterLookups *prometheus.CounterVec

	// AdapterLookupDuration observes adapter call latency in seconds.
	AdapterLookupDuration *prometheus.HistogramVec

	// AbstractsResolved counts abstracts backfilled, labeled by source.
	AbstractsResolved *prometheus.CounterVec

	// CacheHits counts abstract lookups answered from the cache.
	CacheHits prometheus.Counter

	// PipelineRuns counts orchestrator runs, labeled by mode (batch, stream, extract).
	PipelineRuns *prometheus.CounterVec

	// PipelineRunDuration observes run duration in seconds, labeled by mode.
	PipelineRunDuration *prometheus.HistogramVec
}

// NewMetrics registers all collectors with reg. Pass
// prometheus.DefaultRegisterer in production and a fresh
// prometheus.NewRegistry() in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		PapersFetched: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "papers_fetched_total",
			Help:      "Total number of papers accepted by the fetcher",
		}),
		FetchPages: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_pages_total",
			Help:      "Total number of metadata pages requested, by status",
		}, []string{"status"}),
		DuplicatesRemoved: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicates_removed_total",
			Help:      "Total number of duplicate papers removed",
		}),
		AdapterLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "adapter_lookups_total",
			Help:      "Total number of abstract adapter lookups, by source and outcome",
		}, []string{"source", "outcome"}),
		AdapterLookupDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "adapter_lookup_duration_seconds",
			Help:      "Duration of abstract adapter lookups in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"source"}),
		AbstractsResolved: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "abstracts_resolved_total",
			Help:      "Total number of abstracts backfilled, by source",
		}, []string{"source"}),
		CacheHits: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "abstract_cache_hits_total",
			Help:      "Total number of abstract lookups served from the cache",
		}),
		PipelineRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "Total number of pipeline runs, by mode",
		}, []string{"mode"}),
		PipelineRunDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_run_duration_seconds",
			Help:      "Duration of pipeline runs in seconds",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}, []string{"mode"}),
	}
}

// RecordFetchPage records one metadata page request.
func (m *Metrics) RecordFetchPage(ok bool) {
	if m == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "error"
	}
	m.FetchPages.WithLabelValues(status).Inc()
}

// RecordPapersFetched adds n accepted papers.
func (m *Metrics) RecordPapersFetched(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.PapersFetched.Add(float64(n))
}

// RecordDuplicatesRemoved adds n removed duplicates.
func (m *Metrics) RecordDuplicatesRemoved(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.DuplicatesRemoved.Add(float64(n))
}

// RecordLookup records one adapter call.
func (m *Metrics) RecordLookup(source, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.AdapterLookups.WithLabelValues(source, outcome).Inc()
	m.AdapterLookupDuration.WithLabelValues(source).Observe(d.Seconds())
}

// RecordAbstractResolved records a backfilled abstract.
func (m *Metrics) RecordAbstractResolved(source string) {
	if m == nil {
		return
	}
	m.AbstractsResolved.WithLabelValues(source).Inc()
}

// RecordCacheHit records a cache-served lookup.
func (m *Metrics) RecordCacheHit() {
	if m == nil {
		return
	}
	m.CacheHits.Inc()
}

// RecordRun records a completed pipeline run.
func (m *Metrics) RecordRun(mode string, d time.Duration) {
	if m == nil {
		return
	}
	m.PipelineRuns.WithLabelValues(mode).Inc()
	m.PipelineRunDuration.WithLabelValues(mode).Observe(d.Seconds())
}
