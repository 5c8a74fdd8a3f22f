// Package genai extracts structured course lists from search text with LLMs.
//
// Architecture:
//   - Primary: any OpenAI-compatible endpoint via github.com/openai/openai-go/v3
//     (SiliconFlow by default)
//   - Fallback: Gemini via google.golang.org/genai, when a key is configured
//
// Failure handling:
//  1. Attempt retry with exponential backoff (escalated after HTTP 429)
//  2. Provider fallback for transient or quota errors
//  3. Graceful degradation to an empty course list
package genai

import (
	"context"
	"time"

	"github.com/garyellow/uonline/internal/i18n"
	"github.com/garyellow/uonline/internal/metrics"
	"github.com/garyellow/uonline/internal/retry"
	"github.com/garyellow/uonline/internal/storage"
)

// Provider identifies an LLM backend.
type Provider string

const (
	// ProviderSiliconFlow is the default OpenAI-compatible provider.
	ProviderSiliconFlow Provider = "siliconflow"
	// ProviderGemini is Google's Gemini API.
	ProviderGemini Provider = "gemini"
)

// String returns the string representation of the provider.
func (p Provider) String() string {
	return string(p)
}

// Extraction limits.
const (
	MaxCourses        = 12
	MaxInputRunes     = 2500
	MaxNameRunes      = 50
	DefaultMaxRetries = 3

	temperature = 0.1
	maxTokens   = 1500
)

// CourseExtractor turns aggregated search text into a course list.
type CourseExtractor interface {
	// Extract returns at most MaxCourses courses for major found in text.
	Extract(ctx context.Context, text, major string, lang i18n.Language) ([]storage.Course, error)
	// Provider returns the provider type for metrics.
	Provider() Provider
	// Close releases any resources held by the extractor.
	Close() error
}

// Config holds configuration for all extraction providers.
type Config struct {
	// OpenAI-compatible primary provider
	APIKey  string
	BaseURL string
	Model   string

	// Gemini fallback (optional)
	GeminiAPIKey string
	GeminiModel  string

	// Timeout bounds a single attempt.
	Timeout time.Duration

	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	// Retry overrides the default backoff schedule when MaxAttempts > 0.
	Retry retry.Policy

	Metrics *metrics.Metrics
}
