package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/garyellow/uonline/internal/config"
	"github.com/garyellow/uonline/internal/i18n"
	"github.com/garyellow/uonline/internal/metrics"
	"github.com/garyellow/uonline/internal/retry"
	"github.com/garyellow/uonline/internal/storage"
)

// DefaultRetryPolicy returns the LLM backoff schedule for maxRetries
// retries after the first attempt.
func DefaultRetryPolicy(maxRetries int) retry.Policy {
	return retry.Policy{
		MaxAttempts:        max(maxRetries, 0) + 1,
		BaseDelay:          config.LLMRetryInitial,
		MaxDelay:           config.LLMRetryMax,
		Multiplier:         2,
		RateLimitBaseDelay: config.LLMRateLimitInitial,
		RateLimitMaxDelay:  config.LLMRateLimitMax,
	}
}

// FallbackExtractor wraps a primary and fallback CourseExtractor.
// It implements three-layer fallback:
// 1. Attempt retry with backoff (same provider)
// 2. Provider fallback (primary → fallback provider)
// 3. Graceful degradation (empty course list)
type FallbackExtractor struct {
	primary  CourseExtractor
	fallback CourseExtractor
	policy   retry.Policy
	metrics  *metrics.Metrics
}

// NewFallbackExtractor creates a new fallback-enabled extractor.
// If fallback is nil, only retry logic is applied to the primary provider.
func NewFallbackExtractor(primary, fallback CourseExtractor, policy retry.Policy, m *metrics.Metrics) *FallbackExtractor {
	policy.Classify = retryDecision
	return &FallbackExtractor{
		primary:  primary,
		fallback: fallback,
		policy:   policy,
		metrics:  m,
	}
}

// Extract tries the primary extractor with retry, then the fallback if the
// failure allows it. Provider failures degrade to an empty list; only
// cancellation of ctx is returned as an error.
func (f *FallbackExtractor) Extract(ctx context.Context, text, major string, lang i18n.Language) ([]storage.Course, error) {
	if f == nil || f.primary == nil {
		return nil, errors.New("course extractor not configured")
	}

	start := time.Now()
	provider := f.primary.Provider()

	courses, err := f.extractWithRetry(ctx, f.primary, text, major, lang)
	if err == nil {
		f.metrics.RecordExtraction("llm", len(courses))
		return courses, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	action := ClassifyError(err)
	slog.WarnContext(ctx, "primary course extractor failed",
		"provider", provider,
		"error", err,
		"action", action,
		"duration", time.Since(start))

	if action == ActionFail || f.fallback == nil {
		f.metrics.RecordExtraction("llm", 0)
		return []storage.Course{}, nil
	}

	fallbackProvider := f.fallback.Provider()
	slog.InfoContext(ctx, "falling back to secondary provider",
		"from", provider,
		"to", fallbackProvider)

	courses, err = f.extractWithRetry(ctx, f.fallback, text, major, lang)
	if err == nil {
		f.metrics.RecordExtraction("llm", len(courses))
		return courses, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	slog.WarnContext(ctx, "all course extractors failed",
		"primary", provider,
		"fallback", fallbackProvider,
		"error", err)
	f.metrics.RecordExtraction("llm", 0)
	return []storage.Course{}, nil
}

// extractWithRetry runs one provider under the retry policy.
func (f *FallbackExtractor) extractWithRetry(ctx context.Context, extractor CourseExtractor, text, major string, lang i18n.Language) ([]storage.Course, error) {
	provider := extractor.Provider()
	policy := f.policy
	policy.OnRetry = func(attempt int, err error, delay time.Duration) {
		slog.DebugContext(ctx, "retrying course extraction",
			"provider", provider,
			"attempt", attempt,
			"backoff", delay,
			"error", err)
	}

	var courses []storage.Course
	err := policy.Do(ctx, func(ctx context.Context) error {
		start := time.Now()
		result, err := extractor.Extract(ctx, text, major, lang)
		status := "success"
		if err != nil {
			status = "error"
		}
		f.metrics.RecordLLM(provider.String(), status, time.Since(start).Seconds())
		if err != nil {
			return err
		}
		courses = result
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s extraction failed: %w", provider, err)
	}
	return courses, nil
}

// Provider returns the primary provider type.
func (f *FallbackExtractor) Provider() Provider {
	if f == nil || f.primary == nil {
		return ""
	}
	return f.primary.Provider()
}

// HasFallback reports whether a fallback provider is configured.
func (f *FallbackExtractor) HasFallback() bool {
	return f != nil && f.fallback != nil
}

// Close closes both extractors.
func (f *FallbackExtractor) Close() error {
	if f == nil {
		return nil
	}
	var errs []error
	if f.primary != nil {
		if err := f.primary.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if f.fallback != nil {
		if err := f.fallback.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
