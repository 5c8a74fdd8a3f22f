package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	t.Parallel()
	l := New(10, 5)
	if l.maxTokens != 10 {
		t.Errorf("maxTokens = %v, want 10", l.maxTokens)
	}
	if l.refillRate != 5 {
		t.Errorf("refillRate = %v, want 5", l.refillRate)
	}
	if l.tokens != 10 {
		t.Errorf("initial tokens = %v, want 10", l.tokens)
	}
}

func TestNewInterval(t *testing.T) {
	t.Parallel()
	l := NewInterval(2 * time.Second)
	if l.maxTokens != 1 {
		t.Errorf("maxTokens = %v, want 1", l.maxTokens)
	}
	if l.refillRate != 0.5 {
		t.Errorf("refillRate = %v, want 0.5", l.refillRate)
	}
	if NewInterval(0) != nil {
		t.Error("NewInterval(0) should be nil (unlimited)")
	}
}

func TestNilLimiter(t *testing.T) {
	t.Parallel()
	var l *Limiter
	if !l.Allow() {
		t.Error("nil limiter should allow")
	}
	if err := l.Wait(context.Background()); err != nil {
		t.Errorf("nil limiter Wait() = %v", err)
	}
}

func TestAllow(t *testing.T) {
	t.Parallel()
	t.Run("allows when tokens available", func(t *testing.T) {
		t.Parallel()
		l := New(5, 1)
		for i := range 5 {
			if !l.Allow() {
				t.Errorf("Allow() = false on attempt %d, want true", i+1)
			}
		}
	})

	t.Run("denies when no tokens", func(t *testing.T) {
		t.Parallel()
		l := New(2, 0)
		l.Allow()
		l.Allow()
		if l.Allow() {
			t.Error("Allow() = true with empty bucket, want false")
		}
	})

	t.Run("refills over time", func(t *testing.T) {
		t.Parallel()
		l := New(1, 100) // 1 token per 10ms
		l.Allow()
		time.Sleep(30 * time.Millisecond)
		if !l.Allow() {
			t.Error("Allow() = false after refill, want true")
		}
	})
}

func TestCheckConsume(t *testing.T) {
	t.Parallel()
	l := New(1, 0)
	if !l.Check() {
		t.Fatal("Check() = false on full bucket")
	}
	if !l.Check() {
		t.Fatal("Check() must not consume")
	}
	l.Consume()
	if l.Check() {
		t.Error("Check() = true after Consume on single-token bucket")
	}
}

func TestWait(t *testing.T) {
	t.Parallel()
	t.Run("acquires after refill", func(t *testing.T) {
		t.Parallel()
		l := NewInterval(20 * time.Millisecond)
		l.Allow()

		start := time.Now()
		if err := l.Wait(context.Background()); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
		if elapsed := time.Since(start); elapsed < 10*time.Millisecond {
			t.Errorf("Wait() returned after %v, expected pacing", elapsed)
		}
	})

	t.Run("respects cancellation", func(t *testing.T) {
		t.Parallel()
		l := New(1, 0.001)
		l.Allow()

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		if err := l.Wait(ctx); err != context.DeadlineExceeded {
			t.Errorf("Wait() error = %v, want DeadlineExceeded", err)
		}
	})
}

func TestRetryAfter(t *testing.T) {
	t.Parallel()
	l := New(1, 0.5)
	if l.RetryAfter() != 0 {
		t.Errorf("RetryAfter() on full bucket = %v, want 0", l.RetryAfter())
	}
	l.Allow()
	if after := l.RetryAfter(); after <= time.Second || after > 2*time.Second {
		t.Errorf("RetryAfter() = %v, want about 2s", after)
	}
	if New(1, 0).RetryAfter() != 0 {
		t.Error("full bucket without refill still has a token")
	}
}

func TestAvailableAndReset(t *testing.T) {
	t.Parallel()
	l := New(3, 0)
	l.Allow()
	l.Allow()
	if got := l.Available(); got != 1 {
		t.Errorf("Available() = %v, want 1", got)
	}
	if l.IsFull() {
		t.Error("IsFull() = true after consuming")
	}
	l.Reset()
	if !l.IsFull() {
		t.Error("IsFull() = false after Reset")
	}
}

func TestConcurrentAccess(t *testing.T) {
	t.Parallel()
	l := New(50, 0)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for range 100 {
		wg.Go(func() {
			if l.Allow() {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		})
	}
	wg.Wait()

	if allowed != 50 {
		t.Errorf("allowed = %d, want 50", allowed)
	}
}
