package ratelimit

import (
	"sync"
	"testing"
	"time"
)

func TestNewSlidingWindowCounter(t *testing.T) {
	t.Parallel()
	if NewSlidingWindowCounter(0, time.Hour) != nil {
		t.Error("expected nil for maxRequests <= 0")
	}
	if NewSlidingWindowCounter(10, time.Hour) == nil {
		t.Error("expected non-nil counter")
	}
}

func TestSlidingWindowCounter_Disabled(t *testing.T) {
	t.Parallel()
	var swc *SlidingWindowCounter
	if !swc.Allow() || !swc.Check() || !swc.IsEmpty() {
		t.Error("nil counter should allow everything and be empty")
	}
	if swc.GetRemaining() != -1 {
		t.Errorf("GetRemaining() = %d, want -1", swc.GetRemaining())
	}
	if swc.RetryAfter() != 0 {
		t.Errorf("RetryAfter() = %v, want 0", swc.RetryAfter())
	}
	swc.Consume()
}

func TestSlidingWindowCounter_Allow(t *testing.T) {
	t.Parallel()
	swc := NewSlidingWindowCounter(5, time.Minute)

	for i := range 5 {
		if !swc.Allow() {
			t.Errorf("Allow() failed at request %d", i+1)
		}
	}
	if swc.Allow() {
		t.Error("Allow() passed when limit exceeded")
	}
	if swc.GetRemaining() != 0 {
		t.Errorf("GetRemaining() = %d, want 0", swc.GetRemaining())
	}
	if after := swc.RetryAfter(); after <= 0 || after > time.Minute {
		t.Errorf("RetryAfter() = %v, want within (0, 1m]", after)
	}
}

func TestSlidingWindowCounter_WindowRotation(t *testing.T) {
	t.Parallel()
	window := 50 * time.Millisecond
	swc := NewSlidingWindowCounter(10, window)

	for range 10 {
		swc.Allow()
	}
	if swc.Allow() {
		t.Error("should be limited")
	}

	time.Sleep(window + 20*time.Millisecond)

	// The previous window still weighs in, but less than fully.
	if !swc.Allow() {
		t.Error("should allow after window rotation")
	}
}

func TestSlidingWindowCounter_CheckConsume(t *testing.T) {
	t.Parallel()
	swc := NewSlidingWindowCounter(1, time.Minute)

	if !swc.Check() || !swc.IsEmpty() {
		t.Error("new counter should pass Check and be empty")
	}
	swc.Consume()
	if swc.Check() {
		t.Error("Check() should return false after limit reached")
	}
	if swc.IsEmpty() {
		t.Error("counter should not be empty after Consume")
	}
}

func TestSlidingWindowCounter_Concurrency(t *testing.T) {
	t.Parallel()
	limit := 100
	swc := NewSlidingWindowCounter(limit, time.Hour)

	var wg sync.WaitGroup
	var mu sync.Mutex
	successCount := 0

	for range 200 {
		wg.Go(func() {
			if swc.Allow() {
				mu.Lock()
				successCount++
				mu.Unlock()
			}
		})
	}
	wg.Wait()

	if successCount != limit {
		t.Errorf("Allowed %d requests concurrently, want %d", successCount, limit)
	}
}

func TestSlidingWindowCounter_MultiWindowGap(t *testing.T) {
	t.Parallel()
	window := 20 * time.Millisecond
	swc := NewSlidingWindowCounter(10, window)

	swc.Allow()
	time.Sleep(65 * time.Millisecond)

	if !swc.IsEmpty() {
		t.Error("expected empty window after a gap longer than two windows")
	}
}
