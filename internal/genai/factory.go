package genai

import (
	"context"
	"fmt"
	"log/slog"
)

// NewExtractor builds the configured extraction chain.
// Returns nil when no primary API key is set (LLM extraction disabled).
func NewExtractor(ctx context.Context, cfg Config) (*FallbackExtractor, error) {
	primary := newOpenAIExtractor(ProviderSiliconFlow, cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Timeout)
	if primary == nil {
		return nil, nil //nolint:nilnil // Intentional: extraction disabled when no API key
	}

	var fallback CourseExtractor
	gemini, err := newGeminiExtractor(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("gemini extractor: %w", err)
	}
	if gemini != nil {
		fallback = gemini
	}

	policy := cfg.Retry
	if policy.MaxAttempts <= 0 {
		policy = DefaultRetryPolicy(cfg.MaxRetries)
	}

	slog.InfoContext(ctx, "course extractor initialized",
		"primary", primary.Provider(),
		"model", primary.model,
		"fallback_enabled", fallback != nil,
		"max_attempts", policy.MaxAttempts)

	return NewFallbackExtractor(primary, fallback, policy, cfg.Metrics), nil
}
