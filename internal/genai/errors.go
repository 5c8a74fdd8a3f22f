package genai

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/openai/openai-go/v3"

	domerrors "github.com/garyellow/uonline/internal/errors"
	"github.com/garyellow/uonline/internal/retry"
)

// ErrorAction defines the action to take based on error type.
type ErrorAction int

const (
	// ActionRetry retries the same provider.
	ActionRetry ErrorAction = iota
	// ActionFallback moves on to the next provider.
	ActionFallback
	// ActionFail gives up immediately.
	ActionFail
)

// String returns a human-readable string for the error action.
func (a ErrorAction) String() string {
	switch a {
	case ActionRetry:
		return "retry"
	case ActionFallback:
		return "fallback"
	case ActionFail:
		return "fail"
	default:
		return "unknown"
	}
}

// LLMError wraps a provider error with its HTTP status.
type LLMError struct {
	Err        error
	StatusCode int
	Provider   Provider
}

// Error implements the error interface.
func (e *LLMError) Error() string {
	if e.StatusCode > 0 {
		return string(e.Provider) + ": " + e.Err.Error() + " (status: " + strconv.Itoa(e.StatusCode) + ")"
	}
	return string(e.Provider) + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *LLMError) Unwrap() error {
	return e.Err
}

// WrapError attaches provider and status code to err. A zero status is
// filled from the OpenAI SDK error when available.
func WrapError(err error, provider Provider, statusCode int) error {
	if err == nil {
		return nil
	}
	if statusCode == 0 {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			statusCode = apiErr.StatusCode
		}
	}
	return &LLMError{Err: err, StatusCode: statusCode, Provider: provider}
}

// ClassifyError determines the action for a failed attempt:
//   - 429, 408, 5xx, timeouts and transport errors: retry
//   - quota exhaustion: fallback
//   - 400, 401, 403 and other 4xx: fail
func ClassifyError(err error) ErrorAction {
	if err == nil {
		return ActionFail
	}

	if errors.Is(err, context.Canceled) {
		return ActionFail
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, domerrors.ErrTimeout) {
		return ActionRetry
	}

	errStr := strings.ToLower(err.Error())
	if containsAny(errStr, "quota", "billing", "daily limit", "monthly limit") {
		return ActionFallback
	}

	var llmErr *LLMError
	if errors.As(err, &llmErr) && llmErr.StatusCode > 0 {
		return classifyStatusCode(llmErr.StatusCode)
	}

	// Gemini errors carry their status in the message.
	switch {
	case containsAny(errStr, "429", "rate limit", "too many requests", "resource_exhausted"):
		return ActionRetry
	case containsAny(errStr, "500", "502", "503", "504", "unavailable", "overloaded", "internal"):
		return ActionRetry
	case containsAny(errStr, "400", "invalid_argument", "bad request"):
		return ActionFail
	case containsAny(errStr, "401", "unauthenticated", "unauthorized", "api key not valid"):
		return ActionFail
	case containsAny(errStr, "403", "permission_denied", "forbidden"):
		return ActionFail
	}

	// Unknown errors are most likely transport failures.
	return ActionRetry
}

func classifyStatusCode(statusCode int) ErrorAction {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return ActionRetry
	case statusCode == http.StatusRequestTimeout:
		return ActionRetry
	case statusCode >= 500:
		return ActionRetry
	case statusCode >= 400:
		return ActionFail
	default:
		return ActionRetry
	}
}

// IsRateLimited reports whether err is an HTTP 429 or equivalent.
func IsRateLimited(err error) bool {
	var llmErr *LLMError
	if errors.As(err, &llmErr) && llmErr.StatusCode > 0 {
		return llmErr.StatusCode == http.StatusTooManyRequests
	}
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return containsAny(errStr, "429", "rate limit", "too many requests", "resource_exhausted")
}

// retryDecision adapts ClassifyError to retry.Policy.
func retryDecision(err error) retry.Decision {
	if ClassifyError(err) != ActionRetry {
		return retry.Stop
	}
	if IsRateLimited(err) {
		return retry.RetryRateLimited
	}
	return retry.Retry
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
