// Package config provides application configuration management.
// It loads settings from environment variables (optionally seeded from a
// .env file) and provides defaults for upstream APIs, storage and timeouts.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Default upstream endpoints and models.
const (
	DefaultBraveBaseURL       = "https://api.search.brave.com/res/v1"
	DefaultSiliconFlowBaseURL = "https://api.siliconflow.cn/v1"
	DefaultSiliconFlowModel   = "Qwen/Qwen2.5-7B-Instruct"
	DefaultGeminiModel        = "gemini-2.5-flash-lite"
	DefaultR2SnapshotKey      = "snapshots/uonline.db.zst"
)

// Config holds all application configuration
type Config struct {
	// Server Configuration
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration
	TrustedProxies  []string

	// Data Configuration
	DataDir     string // Data directory for the SQLite database
	DatabaseURL string // PostgreSQL URL; when set, SQLite is not used

	// Search Configuration
	BraveAPIKey       string
	BraveBaseURL      string
	SearchTimeout     time.Duration // Per-attempt timeout
	SearchMaxRetries  int           // Retries after the first attempt
	SearchInterval    time.Duration // Spacing between queries of one batch
	SearchConcurrency int           // 1 = sequential batches

	// LLM Configuration
	SiliconFlowAPIKey  string
	SiliconFlowBaseURL string
	SiliconFlowModel   string
	GeminiAPIKey       string // Optional fallback provider
	GeminiModel        string
	LLMTimeout         time.Duration

	// Client Rate Limits (Token Bucket + daily sliding window)
	ClientRateBurst  float64
	ClientRateRefill float64 // Tokens per second
	ClientRateDaily  int     // 0 = disabled

	// R2 Snapshot Configuration
	R2AccountID        string
	R2AccessKeyID      string
	R2SecretAccessKey  string
	R2BucketName       string
	R2SnapshotKey      string
	R2SnapshotInterval time.Duration

	// Sentry Configuration
	SentryDSN         string
	SentryEnvironment string
	SentrySampleRate  float64

	// Better Stack Configuration
	BetterStackToken    string
	BetterStackEndpoint string

	// Metrics Authentication
	MetricsUsername string
	MetricsPassword string // Empty = no auth
}

// Load reads configuration from environment variables.
// It attempts to load .env file first, then reads from env vars.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv(EnvPort, "10000"),
		LogLevel:        getEnv(EnvLogLevel, "info"),
		ShutdownTimeout: getDurationEnv(EnvShutdownTimeout, GracefulShutdown),
		TrustedProxies:  getListEnv(EnvTrustedProxies),

		DataDir:     getEnv(EnvDataDir, getDefaultDataDir()),
		DatabaseURL: getEnv(EnvDatabaseURL, ""),

		BraveAPIKey:       getEnv(EnvBraveAPIKey, ""),
		BraveBaseURL:      getEnv(EnvBraveBaseURL, DefaultBraveBaseURL),
		SearchTimeout:     getDurationEnv(EnvSearchTimeout, SearchRequest),
		SearchMaxRetries:  getIntEnv(EnvSearchMaxRetries, 3),
		SearchInterval:    getDurationEnv(EnvSearchInterval, SearchQueryInterval),
		SearchConcurrency: getIntEnv(EnvSearchConcurrency, 1),

		SiliconFlowAPIKey:  getEnv(EnvSiliconFlowAPIKey, ""),
		SiliconFlowBaseURL: getEnv(EnvSiliconFlowBaseURL, DefaultSiliconFlowBaseURL),
		SiliconFlowModel:   getEnv(EnvSiliconFlowModel, DefaultSiliconFlowModel),
		GeminiAPIKey:       getEnv(EnvGeminiAPIKey, ""),
		GeminiModel:        getEnv(EnvGeminiModel, DefaultGeminiModel),
		LLMTimeout:         getDurationEnv(EnvLLMTimeout, LLMRequest),

		ClientRateBurst:  getFloatEnv(EnvClientRateBurst, 10),
		ClientRateRefill: getFloatEnv(EnvClientRateRefill, 0.2), // 1 per 5s
		ClientRateDaily:  getIntEnv(EnvClientRateDaily, 200),

		R2AccountID:        getEnv(EnvR2AccountID, ""),
		R2AccessKeyID:      getEnv(EnvR2AccessKeyID, ""),
		R2SecretAccessKey:  getEnv(EnvR2SecretAccessKey, ""),
		R2BucketName:       getEnv(EnvR2BucketName, ""),
		R2SnapshotKey:      getEnv(EnvR2SnapshotKey, DefaultR2SnapshotKey),
		R2SnapshotInterval: getDurationEnv(EnvR2SnapshotInterval, 6*time.Hour),

		SentryDSN:         getEnv(EnvSentryDSN, ""),
		SentryEnvironment: getEnv(EnvSentryEnvironment, "production"),
		SentrySampleRate:  getFloatEnv(EnvSentrySampleRate, 1.0),

		BetterStackToken:    getEnv(EnvBetterStackToken, ""),
		BetterStackEndpoint: getEnv(EnvBetterStackEndpoint, ""),

		MetricsUsername: getEnv(EnvMetricsUsername, "prometheus"),
		MetricsPassword: getEnv(EnvMetricsPassword, ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks configuration values for consistency.
// Upstream API keys are optional here: a missing key is reported per request.
func (c *Config) Validate() error {
	var errs []error

	if c.Port == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvPort))
	}
	if c.DatabaseURL == "" && c.DataDir == "" {
		errs = append(errs, fmt.Errorf("%s is required when %s is not set", EnvDataDir, EnvDatabaseURL))
	}
	if c.SearchTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvSearchTimeout, c.SearchTimeout))
	}
	if c.SearchMaxRetries < 0 {
		errs = append(errs, fmt.Errorf("%s cannot be negative, got %d", EnvSearchMaxRetries, c.SearchMaxRetries))
	}
	if c.SearchInterval < 0 {
		errs = append(errs, fmt.Errorf("%s cannot be negative, got %v", EnvSearchInterval, c.SearchInterval))
	}
	if c.SearchConcurrency < 1 {
		errs = append(errs, fmt.Errorf("%s must be at least 1, got %d", EnvSearchConcurrency, c.SearchConcurrency))
	}
	if c.LLMTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvLLMTimeout, c.LLMTimeout))
	}
	if c.ClientRateBurst <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvClientRateBurst, c.ClientRateBurst))
	}
	if c.ClientRateRefill <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvClientRateRefill, c.ClientRateRefill))
	}
	if c.ClientRateDaily < 0 {
		errs = append(errs, fmt.Errorf("%s cannot be negative, got %d", EnvClientRateDaily, c.ClientRateDaily))
	}
	if c.SentrySampleRate < 0 || c.SentrySampleRate > 1 {
		errs = append(errs, fmt.Errorf("%s must be within [0,1], got %v", EnvSentrySampleRate, c.SentrySampleRate))
	}
	if c.R2Configured() && c.DatabaseURL != "" {
		errs = append(errs, fmt.Errorf("R2 snapshots require SQLite; unset %s or the R2 variables", EnvDatabaseURL))
	}
	if c.R2Configured() && c.R2SnapshotInterval <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvR2SnapshotInterval, c.R2SnapshotInterval))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves integer environment variable with fallback to default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getFloatEnv retrieves float64 environment variable with fallback to default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getListEnv splits a comma-separated variable, dropping empty items.
func getListEnv(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// getDefaultDataDir returns platform-specific default data directory
func getDefaultDataDir() string {
	if runtime.GOOS == "windows" {
		return "./data"
	}
	return "/data"
}

// SQLitePath returns the full path to the SQLite database file
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "uonline.db")
}

// UsesPostgres reports whether the PostgreSQL backend is selected.
func (c *Config) UsesPostgres() bool {
	return c.DatabaseURL != ""
}

// HasSearchProvider reports whether the Brave API key is present.
func (c *Config) HasSearchProvider() bool {
	return c.BraveAPIKey != ""
}

// HasLLMProvider reports whether the primary extraction provider is configured.
func (c *Config) HasLLMProvider() bool {
	return c.SiliconFlowAPIKey != ""
}

// R2Configured reports whether every R2 credential is present.
func (c *Config) R2Configured() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" && c.R2BucketName != ""
}

// R2Endpoint returns the account-scoped S3 endpoint for R2.
func (c *Config) R2Endpoint() string {
	if c.R2AccountID == "" {
		return ""
	}
	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", c.R2AccountID)
}

// MetricsAuthEnabled reports whether /metrics requires Basic Auth.
func (c *Config) MetricsAuthEnabled() bool {
	return c.MetricsPassword != ""
}
