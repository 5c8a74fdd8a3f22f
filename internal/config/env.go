// Package config defines environment variable keys for configuration.
package config

//nolint:gosec,revive // Environment variable keys are not credentials and do not need per-const comments.
const (
	// Server
	EnvPort            = "UONLINE_PORT"
	EnvLogLevel        = "UONLINE_LOG_LEVEL"
	EnvShutdownTimeout = "UONLINE_SHUTDOWN_TIMEOUT"
	EnvTrustedProxies  = "UONLINE_TRUSTED_PROXIES"

	// Data
	EnvDataDir     = "UONLINE_DATA_DIR"
	EnvDatabaseURL = "UONLINE_DATABASE_URL"

	// Search (Brave)
	EnvBraveAPIKey       = "UONLINE_BRAVE_API_KEY"
	EnvBraveBaseURL      = "UONLINE_BRAVE_BASE_URL"
	EnvSearchTimeout     = "UONLINE_SEARCH_TIMEOUT"
	EnvSearchMaxRetries  = "UONLINE_SEARCH_MAX_RETRIES"
	EnvSearchInterval    = "UONLINE_SEARCH_INTERVAL"
	EnvSearchConcurrency = "UONLINE_SEARCH_CONCURRENCY"

	// LLM Feature
	EnvSiliconFlowAPIKey  = "UONLINE_SILICONFLOW_API_KEY"
	EnvSiliconFlowBaseURL = "UONLINE_SILICONFLOW_BASE_URL"
	EnvSiliconFlowModel   = "UONLINE_SILICONFLOW_MODEL"
	EnvGeminiAPIKey       = "UONLINE_GEMINI_API_KEY"
	EnvGeminiModel        = "UONLINE_GEMINI_MODEL"
	EnvLLMTimeout         = "UONLINE_LLM_TIMEOUT"

	// Rate Limits
	EnvClientRateBurst  = "UONLINE_CLIENT_RATE_BURST"
	EnvClientRateRefill = "UONLINE_CLIENT_RATE_REFILL"
	EnvClientRateDaily  = "UONLINE_CLIENT_RATE_DAILY"

	// R2 Snapshot Feature
	EnvR2AccountID        = "UONLINE_R2_ACCOUNT_ID"
	EnvR2AccessKeyID      = "UONLINE_R2_ACCESS_KEY_ID"
	EnvR2SecretAccessKey  = "UONLINE_R2_SECRET_ACCESS_KEY"
	EnvR2BucketName       = "UONLINE_R2_BUCKET_NAME"
	EnvR2SnapshotKey      = "UONLINE_R2_SNAPSHOT_KEY"
	EnvR2SnapshotInterval = "UONLINE_R2_SNAPSHOT_INTERVAL"

	// Sentry Feature
	EnvSentryDSN         = "UONLINE_SENTRY_DSN"
	EnvSentryEnvironment = "UONLINE_SENTRY_ENVIRONMENT"
	EnvSentrySampleRate  = "UONLINE_SENTRY_SAMPLE_RATE"

	// Better Stack Feature
	EnvBetterStackToken    = "UONLINE_BETTERSTACK_TOKEN"
	EnvBetterStackEndpoint = "UONLINE_BETTERSTACK_ENDPOINT"

	// Metrics Auth Feature
	EnvMetricsUsername = "UONLINE_METRICS_USERNAME"
	EnvMetricsPassword = "UONLINE_METRICS_PASSWORD"
)
