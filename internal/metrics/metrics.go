// Package metrics defines the Prometheus metrics exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Search metrics
	SearchRequestsTotal   *prometheus.CounterVec
	SearchDurationSeconds prometheus.Histogram

	// LLM metrics
	LLMRequestsTotal   *prometheus.CounterVec
	LLMDurationSeconds *prometheus.HistogramVec
	ExtractionsTotal   *prometheus.CounterVec

	// Cache metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// HTTP metrics
	HTTPErrorsTotal *prometheus.CounterVec

	// Rate limiter metrics
	RateLimiterDropped *prometheus.CounterVec

	// Singleflight metrics
	SingleflightDedupTotal *prometheus.CounterVec

	// Record metrics
	VotesTotal       prometheus.Counter
	RecordSavesTotal *prometheus.CounterVec

	// Snapshot metrics
	SnapshotUploadsTotal *prometheus.CounterVec

	// Storage gauges
	RowCount *prometheus.GaugeVec
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		SearchRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "uonline_search_requests_total",
				Help: "Total number of search API attempts by status",
			},
			[]string{"status"}, // status: success, error, rate_limited, timeout
		),

		SearchDurationSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "uonline_search_duration_seconds",
				Help:    "Search API attempt duration in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 15},
			},
		),

		LLMRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "uonline_llm_requests_total",
				Help: "Total number of chat completion attempts by provider and status",
			},
			[]string{"provider", "status"},
		),

		LLMDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "uonline_llm_duration_seconds",
				Help:    "Chat completion attempt duration in seconds by provider",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20},
			},
			[]string{"provider"},
		),

		ExtractionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "uonline_course_extractions_total",
				Help: "Course extraction outcomes by method",
			},
			[]string{"method", "outcome"}, // method: llm, regex; outcome: ok, empty
		),

		CacheHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "uonline_cache_hits_total",
				Help: "Total number of course cache hits by module",
			},
			[]string{"module"},
		),

		CacheMissesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "uonline_cache_misses_total",
				Help: "Total number of course cache misses by module",
			},
			[]string{"module"},
		),

		HTTPErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "uonline_http_errors_total",
				Help: "Total HTTP error responses by type and route",
			},
			[]string{"error_type", "route"},
		),

		RateLimiterDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "uonline_rate_limiter_dropped_total",
				Help: "Total number of requests dropped by rate limiter",
			},
			[]string{"limiter_type"}, // limiter_type: client, daily
		),

		SingleflightDedupTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "uonline_singleflight_dedup_total",
				Help: "Total number of requests that shared an in-flight search",
			},
			[]string{"module"},
		),

		VotesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "uonline_votes_total",
				Help: "Total number of accepted votes",
			},
		),

		RecordSavesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "uonline_record_saves_total",
				Help: "Learning path saves by result",
			},
			[]string{"result"}, // result: created, existing, error
		),

		SnapshotUploadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "uonline_snapshot_uploads_total",
				Help: "Database snapshot uploads by status",
			},
			[]string{"status"},
		),

		RowCount: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "uonline_rows",
				Help: "Row count per table, refreshed periodically",
			},
			[]string{"table"},
		),
	}
}

// RecordSearch records one search API attempt.
func (m *Metrics) RecordSearch(status string, duration float64) {
	if m == nil {
		return
	}
	m.SearchRequestsTotal.WithLabelValues(status).Inc()
	m.SearchDurationSeconds.Observe(duration)
}

// RecordLLM records one chat completion attempt.
func (m *Metrics) RecordLLM(provider, status string, duration float64) {
	if m == nil {
		return
	}
	m.LLMRequestsTotal.WithLabelValues(provider, status).Inc()
	m.LLMDurationSeconds.WithLabelValues(provider).Observe(duration)
}

// RecordExtraction records whether an extraction produced courses.
func (m *Metrics) RecordExtraction(method string, count int) {
	if m == nil {
		return
	}
	outcome := "ok"
	if count == 0 {
		outcome = "empty"
	}
	m.ExtractionsTotal.WithLabelValues(method, outcome).Inc()
}

// RecordCacheHit records a cache hit
func (m *Metrics) RecordCacheHit(module string) {
	if m == nil {
		return
	}
	m.CacheHitsTotal.WithLabelValues(module).Inc()
}

// RecordCacheMiss records a cache miss
func (m *Metrics) RecordCacheMiss(module string) {
	if m == nil {
		return
	}
	m.CacheMissesTotal.WithLabelValues(module).Inc()
}

// RecordHTTPError records HTTP error metrics
func (m *Metrics) RecordHTTPError(errorType, route string) {
	if m == nil {
		return
	}
	m.HTTPErrorsTotal.WithLabelValues(errorType, route).Inc()
}

// RecordRateLimiterDrop records a request dropped by rate limiter
func (m *Metrics) RecordRateLimiterDrop(limiterType string) {
	if m == nil {
		return
	}
	m.RateLimiterDropped.WithLabelValues(limiterType).Inc()
}

// RecordSingleflightDedup records a deduplicated request
func (m *Metrics) RecordSingleflightDedup(module string) {
	if m == nil {
		return
	}
	m.SingleflightDedupTotal.WithLabelValues(module).Inc()
}

// RecordVote records an accepted vote.
func (m *Metrics) RecordVote() {
	if m == nil {
		return
	}
	m.VotesTotal.Inc()
}

// RecordSave records a learning path save.
func (m *Metrics) RecordSave(result string) {
	if m == nil {
		return
	}
	m.RecordSavesTotal.WithLabelValues(result).Inc()
}

// RecordSnapshotUpload records a snapshot upload attempt.
func (m *Metrics) RecordSnapshotUpload(status string) {
	if m == nil {
		return
	}
	m.SnapshotUploadsTotal.WithLabelValues(status).Inc()
}

// SetRowCount updates the row gauge for table.
func (m *Metrics) SetRowCount(table string, count int) {
	if m == nil {
		return
	}
	m.RowCount.WithLabelValues(table).Set(float64(count))
}
