package ratelimit

import (
	"sync"
	"time"
)

// SlidingWindowCounter approximates a rolling window with two fixed windows.
// The effective count is the current window's count plus the previous
// window's count weighted by how much of it still overlaps the rolling window:
//
//	effective = curr + prev * (window - elapsed) / window
//
// A nil counter is disabled and allows everything.
type SlidingWindowCounter struct {
	mu              sync.Mutex
	currCount       int
	prevCount       int
	currWindowStart time.Time
	windowDuration  time.Duration
	maxRequests     int
}

// NewSlidingWindowCounter creates a counter allowing maxRequests per windowDuration.
// Returns nil if maxRequests <= 0 (disabled).
func NewSlidingWindowCounter(maxRequests int, windowDuration time.Duration) *SlidingWindowCounter {
	if maxRequests <= 0 {
		return nil
	}
	return &SlidingWindowCounter{
		currWindowStart: time.Now(),
		windowDuration:  windowDuration,
		maxRequests:     maxRequests,
	}
}

// Allow counts a request if the window has room.
func (swc *SlidingWindowCounter) Allow() bool {
	if swc == nil {
		return true
	}
	swc.mu.Lock()
	defer swc.mu.Unlock()

	swc.rotate()
	if swc.weighted() >= float64(swc.maxRequests) {
		return false
	}
	swc.currCount++
	return true
}

// Check reports whether a request would be allowed without counting it.
func (swc *SlidingWindowCounter) Check() bool {
	if swc == nil {
		return true
	}
	swc.mu.Lock()
	defer swc.mu.Unlock()

	swc.rotate()
	return swc.weighted() < float64(swc.maxRequests)
}

// Consume counts a request (after a successful Check).
func (swc *SlidingWindowCounter) Consume() {
	if swc == nil {
		return
	}
	swc.mu.Lock()
	defer swc.mu.Unlock()

	swc.rotate()
	if swc.weighted() < float64(swc.maxRequests) {
		swc.currCount++
	}
}

// GetRemaining returns the approximate remaining quota, or -1 when disabled.
func (swc *SlidingWindowCounter) GetRemaining() int {
	if swc == nil {
		return -1
	}
	swc.mu.Lock()
	defer swc.mu.Unlock()

	swc.rotate()
	return max(int(float64(swc.maxRequests)-swc.weighted()), 0)
}

// IsEmpty reports whether no request is counted in the rolling window.
func (swc *SlidingWindowCounter) IsEmpty() bool {
	if swc == nil {
		return true
	}
	swc.mu.Lock()
	defer swc.mu.Unlock()

	swc.rotate()
	return swc.weighted() == 0
}

// RetryAfter returns the time until the current fixed window ends,
// which is when the count next drops substantially.
func (swc *SlidingWindowCounter) RetryAfter() time.Duration {
	if swc == nil {
		return 0
	}
	swc.mu.Lock()
	defer swc.mu.Unlock()

	swc.rotate()
	return max(swc.windowDuration-time.Since(swc.currWindowStart), 0)
}

// rotate advances to the window containing now. Must be called with mu held.
func (swc *SlidingWindowCounter) rotate() {
	elapsed := time.Since(swc.currWindowStart)
	if elapsed < swc.windowDuration {
		return
	}

	windowsPassed := int(elapsed / swc.windowDuration)
	if windowsPassed == 1 {
		swc.prevCount = swc.currCount
	} else {
		swc.prevCount = 0
	}
	swc.currCount = 0
	swc.currWindowStart = swc.currWindowStart.Add(time.Duration(windowsPassed) * swc.windowDuration)
}

// weighted returns the effective count. Must be called with mu held.
func (swc *SlidingWindowCounter) weighted() float64 {
	elapsed := time.Since(swc.currWindowStart)
	overlap := float64(swc.windowDuration-elapsed) / float64(swc.windowDuration)
	overlap = min(max(overlap, 0), 1)
	return float64(swc.currCount) + float64(swc.prevCount)*overlap
}
