// Package retry provides a reusable retry policy with exponential backoff and
// an escalated schedule for rate-limited upstream responses.
package retry

import (
	"context"
	"errors"
	"math"
	"time"

	domerrors "github.com/garyellow/uonline/internal/errors"
)

// Decision tells Do how to treat a failed attempt.
type Decision int

const (
	// Stop returns the error immediately.
	Stop Decision = iota
	// Retry waits for the regular backoff.
	Retry
	// RetryRateLimited waits for the rate-limit backoff.
	RetryRateLimited
)

// Policy describes how many times and how long to wait between attempts.
// Delays grow as BaseDelay * Multiplier^(n-1) for the n-th retry and are
// capped by MaxDelay. Rate-limited failures use the RateLimit* pair instead.
type Policy struct {
	MaxAttempts        int
	BaseDelay          time.Duration
	MaxDelay           time.Duration
	Multiplier         float64
	RateLimitBaseDelay time.Duration
	RateLimitMaxDelay  time.Duration

	// Classify maps an error to a Decision. Nil means DefaultClassify.
	Classify func(error) Decision

	// OnRetry is called before each wait.
	OnRetry func(attempt int, err error, delay time.Duration)
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err so that Do stops without consulting Classify.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var perm *permanentError
	return errors.As(err, &perm)
}

// DefaultClassify retries deadline and transport failures, escalates on 429,
// and stops on cancellation and other upstream statuses.
func DefaultClassify(err error) Decision {
	if errors.Is(err, context.Canceled) {
		return Stop
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, domerrors.ErrTimeout) {
		return Retry
	}
	if upErr, ok := domerrors.AsUpstream(err); ok {
		switch {
		case upErr.RateLimited():
			return RetryRateLimited
		case upErr.Retryable():
			return Retry
		default:
			return Stop
		}
	}
	return Retry
}

// Backoff returns the wait before the given retry (1-based).
func (p Policy) Backoff(retry int, rateLimited bool) time.Duration {
	if retry <= 0 {
		return 0
	}
	base, maxDelay := p.BaseDelay, p.MaxDelay
	if rateLimited && p.RateLimitBaseDelay > 0 {
		base, maxDelay = p.RateLimitBaseDelay, p.RateLimitMaxDelay
	}
	mult := p.Multiplier
	if mult < 1 {
		mult = 2
	}
	delay := time.Duration(float64(base) * math.Pow(mult, float64(retry-1)))
	if maxDelay > 0 && (delay > maxDelay || delay < 0) {
		delay = maxDelay
	}
	return delay
}

// Do runs fn until it succeeds, the policy gives up, or ctx is done.
// When ctx has a deadline that would pass during the next backoff, Do
// returns right away instead of sleeping into it.
// It returns nil on success, otherwise the last attempt's error.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := max(p.MaxAttempts, 1)
	classify := p.Classify
	if classify == nil {
		classify = DefaultClassify
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}

		decision := classify(err)
		if decision == Stop || attempt == attempts {
			break
		}

		delay := p.Backoff(attempt, decision == RetryRateLimited)
		if !HasSufficientBudget(ctx, delay) {
			// No attempt could start before the deadline.
			break
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, err, delay)
		}
		if err := Sleep(ctx, delay); err != nil {
			return lastErr
		}
	}

	return lastErr
}

// HasSufficientBudget reports whether ctx leaves more than required before
// its deadline. A ctx without a deadline always has budget.
func HasSufficientBudget(ctx context.Context, required time.Duration) bool {
	deadline, ok := ctx.Deadline()
	if !ok {
		return true
	}
	return time.Until(deadline) > required
}

// Sleep waits for the specified duration, respecting context cancellation.
// Returns ctx.Err() if context is cancelled during sleep.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
