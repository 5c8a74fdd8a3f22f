// Package config provides centralized timeout constants for the application.
//
// These values are tuned for:
//   - Brave Search API behavior (per-query latency, 429 throttling)
//   - OpenAI-compatible chat completion latency (SiliconFlow, Gemini)
//   - SQLite performance characteristics (WAL mode, busy timeout)
//
// A curriculum search issues four queries plus one LLM call. With upstreams
// throttling, unbounded retries would run for several minutes, so every
// request path carries its own budget (SearchBatch, CurriculumRequest,
// LearningPathRequest, MOOCSearch) kept below HTTPWrite. The retry loop gives
// up early once the next backoff would overrun the budget, which lets the
// handler answer before the server drops the connection.
package config

import "time"

// HTTP server timeouts
const (
	// HTTPRead is the HTTP server read timeout. Request bodies are small JSON payloads.
	HTTPRead = 10 * time.Second

	// HTTPWrite is the HTTP server write timeout.
	// Must stay above every per-request budget below.
	HTTPWrite = 180 * time.Second

	// HTTPIdle is the HTTP server idle timeout for keep-alive connections.
	HTTPIdle = 120 * time.Second
)

// Search timeouts
const (
	// SearchRequest is the timeout for a single Brave API attempt.
	SearchRequest = 15 * time.Second

	// SearchRetryInitial is the first backoff after a failed attempt.
	// Doubles per attempt: 5s -> 10s -> 20s, capped by SearchRetryMax.
	SearchRetryInitial = 5 * time.Second

	// SearchRetryMax caps the regular backoff.
	SearchRetryMax = 30 * time.Second

	// SearchRateLimitInitial is the first backoff after an HTTP 429.
	SearchRateLimitInitial = 10 * time.Second

	// SearchRateLimitMax caps the rate-limit backoff.
	SearchRateLimitMax = 60 * time.Second

	// SearchQueryInterval is the minimum spacing between consecutive queries of a batch.
	SearchQueryInterval = 2 * time.Second

	// SearchBatch bounds one batch of queries, pacing and retries included.
	// Two batches must fit in MOOCSearch.
	SearchBatch = 60 * time.Second
)

// LLM timeouts
const (
	// LLMRequest is the timeout for a single chat completion attempt.
	LLMRequest = 20 * time.Second

	// LLMRetryInitial is the first backoff after a transport failure or timeout.
	LLMRetryInitial = 5 * time.Second

	// LLMRetryMax caps the regular backoff.
	LLMRetryMax = 30 * time.Second

	// LLMRateLimitInitial is the first backoff after an HTTP 429.
	LLMRateLimitInitial = 15 * time.Second

	// LLMRateLimitMax caps the rate-limit backoff.
	LLMRateLimitMax = 120 * time.Second
)

// Request budgets
const (
	// CurriculumRequest bounds a curriculum search: one SearchBatch plus
	// extraction with its retries.
	CurriculumRequest = 150 * time.Second

	// LearningPathRequest bounds the course searches of a learning path.
	LearningPathRequest = 150 * time.Second
)

// MOOC search timeouts
const (
	// MOOCSearch bounds one shared MOOC and textbook search. The work runs on a
	// detached context so a disconnecting caller does not cancel other waiters.
	MOOCSearch = 150 * time.Second

	// WarmupTotal bounds one run of the cache warmup CLI.
	WarmupTotal = 2 * time.Hour
)

// Record lookup timeouts
const (
	// RecordLookup bounds a single record read.
	RecordLookup = 10 * time.Second

	// RecordLookupRetryDelay is the pause between timed-out record reads.
	RecordLookupRetryDelay = 1 * time.Second

	// RecordLookupAttempts is the number of reads before reporting a timeout.
	RecordLookupAttempts = 3
)

// Database timeouts
const (
	// DatabaseBusyTimeout is SQLite busy_timeout pragma value.
	DatabaseBusyTimeout = 30 * time.Second

	// DatabaseConnMaxLifetime is the maximum lifetime of database connections.
	DatabaseConnMaxLifetime = time.Hour
)

// Background job intervals
const (
	// MetricsUpdateInterval is how often row-count gauges are refreshed.
	MetricsUpdateInterval = 5 * time.Minute

	// RateLimiterCleanupInterval is how often idle per-client limiters are dropped.
	RateLimiterCleanupInterval = 5 * time.Minute

	// SnapshotUploadTimeout bounds one snapshot upload to R2.
	SnapshotUploadTimeout = 5 * time.Minute

	// SnapshotRestoreTimeout bounds the startup snapshot download.
	SnapshotRestoreTimeout = 2 * time.Minute
)

// Health checks
const (
	// ReadinessCheckTimeout bounds the database ping behind /readyz.
	ReadinessCheckTimeout = 3 * time.Second
)

// Graceful shutdown
const (
	// GracefulShutdown is the default timeout for graceful server shutdown.
	GracefulShutdown = 30 * time.Second
)
