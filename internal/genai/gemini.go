package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/garyellow/uonline/internal/config"
	domerrors "github.com/garyellow/uonline/internal/errors"
	"github.com/garyellow/uonline/internal/i18n"
	"github.com/garyellow/uonline/internal/storage"
)

// geminiExtractor is the optional fallback provider.
type geminiExtractor struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// newGeminiExtractor returns nil if apiKey is empty (fallback disabled).
func newGeminiExtractor(ctx context.Context, apiKey, model string, timeout time.Duration) (*geminiExtractor, error) {
	if apiKey == "" {
		return nil, nil //nolint:nilnil // Intentional: fallback disabled when no API key
	}
	if model == "" {
		model = config.DefaultGeminiModel
	}
	if timeout <= 0 {
		timeout = config.LLMRequest
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &geminiExtractor{
		client:  client,
		model:   model,
		timeout: timeout,
	}, nil
}

// Extract sends one GenerateContent call and parses the reply.
func (e *geminiExtractor) Extract(ctx context.Context, text, major string, lang i18n.Language) ([]storage.Course, error) {
	if e == nil || e.client == nil {
		return nil, domerrors.NewConfigError(config.EnvGeminiAPIKey)
	}

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(SystemPrompt(major, lang), genai.RoleUser),
		Temperature:       genai.Ptr[float32](temperature),
		MaxOutputTokens:   maxTokens,
	}

	attemptCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	resp, err := e.client.Models.GenerateContent(attemptCtx, e.model, genai.Text(UserPrompt(text, major, lang)), cfg)
	duration := time.Since(start)

	if err != nil {
		if ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w after %v: %w", domerrors.ErrTimeout, e.timeout, err)
		}
		slog.WarnContext(ctx, "course extraction API call failed",
			"provider", ProviderGemini,
			"model", e.model,
			"major", major,
			"duration_ms", duration.Milliseconds(),
			"error", err)
		return nil, WrapError(fmt.Errorf("generate content failed: %w", err), ProviderGemini, 0)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return []storage.Course{}, nil
	}

	var reply strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			reply.WriteString(part.Text)
		}
	}
	courses := ParseCourses(reply.String())

	if resp.UsageMetadata != nil {
		slog.DebugContext(ctx, "course extraction completed",
			"provider", ProviderGemini,
			"model", e.model,
			"input_tokens", resp.UsageMetadata.PromptTokenCount,
			"output_tokens", resp.UsageMetadata.CandidatesTokenCount,
			"total_tokens", resp.UsageMetadata.TotalTokenCount,
			"duration_ms", duration.Milliseconds(),
			"courses", len(courses))
	}

	return courses, nil
}

// Provider returns the provider type for this extractor.
func (e *geminiExtractor) Provider() Provider {
	return ProviderGemini
}

// Close releases resources.
// Safe to call on nil receiver.
func (e *geminiExtractor) Close() error {
	return nil
}
