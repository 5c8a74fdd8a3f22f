package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		checkFn  func(error) bool
		expected bool
	}{
		{"ErrNotFound is recognized", ErrNotFound, IsNotFound, true},
		{"wrapped ErrNotFound is recognized", fmt.Errorf("get record: %w", ErrNotFound), IsNotFound, true},
		{"joined ErrNotFound is recognized", errors.Join(ErrNotFound, errors.New("context")), IsNotFound, true},
		{"different error is not ErrNotFound", ErrRateLimitExceeded, IsNotFound, false},
		{"ErrNoResults is recognized", fmt.Errorf("search: %w", ErrNoResults), IsNoResults, true},
		{"ErrNoCourses is recognized", ErrNoCourses, IsNoCourses, true},
		{"ErrTimeout is recognized", ErrTimeout, IsTimeout, true},
		{"ErrRateLimitExceeded is recognized", ErrRateLimitExceeded, IsRateLimitExceeded, true},
		{"ValidationError is invalid input", NewValidationError("major", "empty"), IsInvalidInput, true},
		{"ConfigError is recognized", fmt.Errorf("curriculum: %w", NewConfigError("UONLINE_BRAVE_API_KEY")), IsConfigError, true},
		{"plain error is not ConfigError", errors.New("x"), IsConfigError, false},
		{"nil is not found", nil, IsNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.checkFn(tt.err))
		})
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("courseName", "must not be empty")
	assert.Equal(t, "validation failed on courseName: must not be empty", err.Error())
}

func TestConfigError(t *testing.T) {
	err := NewConfigError("UONLINE_BRAVE_API_KEY")
	assert.Equal(t, "configuration missing: UONLINE_BRAVE_API_KEY", err.Error())
}

func TestUpstreamError(t *testing.T) {
	base := errors.New("connection refused")

	t.Run("message and unwrap", func(t *testing.T) {
		err := NewUpstreamError("brave", 0, base)
		assert.Equal(t, "brave error: connection refused", err.Error())
		assert.ErrorIs(t, err, base)

		withStatus := NewUpstreamError("brave", http.StatusBadGateway, base)
		assert.Equal(t, "brave error (status=502): connection refused", withStatus.Error())
	})

	t.Run("retryable classification", func(t *testing.T) {
		tests := []struct {
			status    int
			retryable bool
			limited   bool
		}{
			{0, true, false},
			{http.StatusRequestTimeout, true, false},
			{http.StatusTooManyRequests, true, true},
			{http.StatusInternalServerError, true, false},
			{http.StatusServiceUnavailable, true, false},
			{http.StatusBadRequest, false, false},
			{http.StatusUnauthorized, false, false},
			{http.StatusForbidden, false, false},
			{http.StatusNotFound, false, false},
		}
		for _, tt := range tests {
			err := NewUpstreamError("llm", tt.status, base)
			assert.Equal(t, tt.retryable, err.Retryable(), "status %d", tt.status)
			assert.Equal(t, tt.limited, err.RateLimited(), "status %d", tt.status)
		}
	})

	t.Run("AsUpstream", func(t *testing.T) {
		wrapped := fmt.Errorf("attempt 2: %w", NewUpstreamError("brave", 429, base))
		upErr, ok := AsUpstream(wrapped)
		assert.True(t, ok)
		assert.Equal(t, "brave", upErr.Service)

		_, ok = AsUpstream(base)
		assert.False(t, ok)
	})
}
