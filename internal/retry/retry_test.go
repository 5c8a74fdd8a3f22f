package retry

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domerrors "github.com/garyellow/uonline/internal/errors"
)

func fastPolicy(attempts int) Policy {
	return Policy{
		MaxAttempts:        attempts,
		BaseDelay:          time.Millisecond,
		MaxDelay:           4 * time.Millisecond,
		Multiplier:         2,
		RateLimitBaseDelay: 2 * time.Millisecond,
		RateLimitMaxDelay:  8 * time.Millisecond,
	}
}

func TestBackoff(t *testing.T) {
	p := Policy{
		BaseDelay:          5 * time.Second,
		MaxDelay:           30 * time.Second,
		Multiplier:         2,
		RateLimitBaseDelay: 10 * time.Second,
		RateLimitMaxDelay:  60 * time.Second,
	}

	tests := []struct {
		retry       int
		rateLimited bool
		want        time.Duration
	}{
		{0, false, 0},
		{1, false, 5 * time.Second},
		{2, false, 10 * time.Second},
		{3, false, 20 * time.Second},
		{4, false, 30 * time.Second},
		{1, true, 10 * time.Second},
		{2, true, 20 * time.Second},
		{3, true, 40 * time.Second},
		{4, true, 60 * time.Second},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, p.Backoff(tt.retry, tt.rateLimited), "retry=%d rateLimited=%v", tt.retry, tt.rateLimited)
	}
}

func TestBackoff_DefaultsMultiplierAndRateLimit(t *testing.T) {
	p := Policy{BaseDelay: time.Second, MaxDelay: time.Minute}
	assert.Equal(t, 4*time.Second, p.Backoff(3, false))
	// Without a rate-limit schedule the regular one applies.
	assert.Equal(t, 4*time.Second, p.Backoff(3, true))
}

func TestDefaultClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Decision
	}{
		{"canceled", context.Canceled, Stop},
		{"deadline", context.DeadlineExceeded, Retry},
		{"timeout sentinel", domerrors.ErrTimeout, Retry},
		{"429", domerrors.NewUpstreamError("brave", http.StatusTooManyRequests, errors.New("slow down")), RetryRateLimited},
		{"503", domerrors.NewUpstreamError("brave", http.StatusServiceUnavailable, errors.New("down")), Retry},
		{"408", domerrors.NewUpstreamError("brave", http.StatusRequestTimeout, errors.New("slow")), Retry},
		{"transport", domerrors.NewUpstreamError("brave", 0, errors.New("dial")), Retry},
		{"401", domerrors.NewUpstreamError("brave", http.StatusUnauthorized, errors.New("key")), Stop},
		{"404", domerrors.NewUpstreamError("brave", http.StatusNotFound, errors.New("gone")), Stop},
		{"unknown", errors.New("boom"), Retry},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultClassify(tt.err))
		})
	}
}

func TestDo_SucceedsAfterRetries(t *testing.T) {
	calls := 0
	var retries []int
	p := fastPolicy(4)
	p.OnRetry = func(attempt int, _ error, _ time.Duration) { retries = append(retries, attempt) }

	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retries)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	calls := 0
	want := errors.New("still failing")

	err := fastPolicy(4).Do(context.Background(), func(context.Context) error {
		calls++
		return want
	})

	assert.ErrorIs(t, err, want)
	assert.Equal(t, 4, calls)
}

func TestDo_StopsOnNonRetryable(t *testing.T) {
	calls := 0
	err := fastPolicy(4).Do(context.Background(), func(context.Context) error {
		calls++
		return domerrors.NewUpstreamError("brave", http.StatusForbidden, errors.New("forbidden"))
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_Permanent(t *testing.T) {
	calls := 0
	base := errors.New("bad request")

	err := fastPolicy(4).Do(context.Background(), func(context.Context) error {
		calls++
		return Permanent(base)
	})

	assert.Equal(t, base, err)
	assert.False(t, IsPermanent(err))
	assert.Equal(t, 1, calls)
}

func TestDo_RateLimitUsesEscalatedDelay(t *testing.T) {
	var delays []time.Duration
	p := fastPolicy(3)
	p.OnRetry = func(_ int, _ error, d time.Duration) { delays = append(delays, d) }

	_ = p.Do(context.Background(), func(context.Context) error {
		return domerrors.NewUpstreamError("llm", http.StatusTooManyRequests, errors.New("429"))
	})

	assert.Equal(t, []time.Duration{2 * time.Millisecond, 4 * time.Millisecond}, delays)
}

func TestDo_ContextCanceledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{MaxAttempts: 5, BaseDelay: time.Hour, MaxDelay: time.Hour}
	want := errors.New("transient")
	calls := 0

	done := make(chan error, 1)
	go func() {
		done <- p.Do(ctx, func(context.Context) error {
			calls++
			cancel()
			return want
		})
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, want)
		assert.Equal(t, 1, calls)
	case <-time.After(time.Second):
		t.Fatal("Do did not return after cancellation")
	}
}

func TestDo_StopsWhenBackoffOutlivesDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	p := Policy{MaxAttempts: 5, BaseDelay: time.Second, MaxDelay: time.Second}
	want := errors.New("transient")
	calls := 0

	start := time.Now()
	err := p.Do(ctx, func(context.Context) error {
		calls++
		return want
	})

	assert.ErrorIs(t, err, want)
	assert.Equal(t, 1, calls)
	assert.Less(t, time.Since(start), 150*time.Millisecond)
}

func TestDo_CanceledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := fastPolicy(3).Do(ctx, func(context.Context) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestHasSufficientBudget(t *testing.T) {
	assert.True(t, HasSufficientBudget(context.Background(), time.Hour))

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	assert.True(t, HasSufficientBudget(ctx, time.Second))
	assert.False(t, HasSufficientBudget(ctx, time.Hour))
}

func TestSleep(t *testing.T) {
	assert.NoError(t, Sleep(context.Background(), 0))
	assert.NoError(t, Sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
}
