package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/garyellow/uonline/internal/config"
	domerrors "github.com/garyellow/uonline/internal/errors"
	"github.com/garyellow/uonline/internal/i18n"
	"github.com/garyellow/uonline/internal/storage"
)

// openaiExtractor calls an OpenAI-compatible chat completion endpoint.
// Each call is one attempt; retries belong to FallbackExtractor.
type openaiExtractor struct {
	client   openai.Client
	model    string
	provider Provider
	timeout  time.Duration
}

// newOpenAIExtractor returns nil when apiKey is empty.
func newOpenAIExtractor(provider Provider, apiKey, baseURL, model string, timeout time.Duration) *openaiExtractor {
	if apiKey == "" {
		return nil
	}
	if baseURL == "" {
		baseURL = config.DefaultSiliconFlowBaseURL
	}
	if model == "" {
		model = config.DefaultSiliconFlowModel
	}
	if timeout <= 0 {
		timeout = config.LLMRequest
	}

	client := openai.NewClient(
		option.WithBaseURL(strings.TrimSuffix(baseURL, "/")+"/"),
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	)

	return &openaiExtractor{
		client:   client,
		model:    model,
		provider: provider,
		timeout:  timeout,
	}
}

// Extract sends one chat completion and parses the reply.
func (e *openaiExtractor) Extract(ctx context.Context, text, major string, lang i18n.Language) ([]storage.Course, error) {
	if e == nil {
		return nil, domerrors.NewConfigError(config.EnvSiliconFlowAPIKey)
	}

	params := openai.ChatCompletionNewParams{
		Model: e.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(SystemPrompt(major, lang)),
			openai.UserMessage(UserPrompt(text, major, lang)),
		},
		Temperature: openai.Float(temperature),
		MaxTokens:   openai.Int(maxTokens),
	}

	attemptCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	resp, err := e.client.Chat.Completions.New(attemptCtx, params)
	duration := time.Since(start)

	if err != nil {
		if ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w after %v: %w", domerrors.ErrTimeout, e.timeout, err)
		}
		slog.WarnContext(ctx, "course extraction API call failed",
			"provider", e.provider,
			"model", e.model,
			"major", major,
			"duration_ms", duration.Milliseconds(),
			"error", err)
		return nil, WrapError(fmt.Errorf("chat completion failed: %w", err), e.provider, 0)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return []storage.Course{}, nil
	}

	courses := ParseCourses(resp.Choices[0].Message.Content)

	if resp.Usage.TotalTokens > 0 {
		slog.DebugContext(ctx, "course extraction completed",
			"provider", e.provider,
			"model", e.model,
			"input_tokens", resp.Usage.PromptTokens,
			"output_tokens", resp.Usage.CompletionTokens,
			"total_tokens", resp.Usage.TotalTokens,
			"duration_ms", duration.Milliseconds(),
			"courses", len(courses))
	}

	return courses, nil
}

// Provider returns the provider type for this extractor.
func (e *openaiExtractor) Provider() Provider {
	if e == nil {
		return ""
	}
	return e.provider
}

// Close releases resources.
// Safe to call on nil receiver.
func (e *openaiExtractor) Close() error {
	// openai-go client doesn't require cleanup
	return nil
}
