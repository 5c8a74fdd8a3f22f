package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/garyellow/uonline/internal/metrics"
)

// Limiter names reported in metrics and decisions.
const (
	LimiterClient = "client"
	LimiterDaily  = "daily"
)

// KeyedConfig configures a KeyedLimiter instance.
type KeyedConfig struct {
	// Token bucket settings
	Burst      float64 // Maximum tokens (burst capacity)
	RefillRate float64 // Tokens refilled per second

	// Rolling 24h cap per key (0 = disabled)
	DailyLimit int

	// How often Run drops idle keys
	CleanupPeriod time.Duration

	// Optional metrics reporter
	Metrics *metrics.Metrics
}

// Decision is the outcome of KeyedLimiter.Allow.
type Decision struct {
	Allowed    bool
	Limiter    string        // Which layer rejected the request
	RetryAfter time.Duration // Suggested wait when rejected
}

// KeyedLimiter tracks a token bucket and an optional daily sliding window
// per key (client IP). Idle keys are dropped by Run.
type KeyedLimiter struct {
	mu      sync.RWMutex
	entries map[string]*keyedEntry
	config  KeyedConfig
}

// keyedEntry serializes the two-layer check-then-consume for one key.
type keyedEntry struct {
	mu      sync.Mutex
	limiter *Limiter
	daily   *SlidingWindowCounter
}

// NewKeyedLimiter creates a new per-key rate limiter.
func NewKeyedLimiter(cfg KeyedConfig) *KeyedLimiter {
	return &KeyedLimiter{
		entries: make(map[string]*keyedEntry),
		config:  cfg,
	}
}

// Allow consumes one token for key when both layers pass.
// An empty key is always allowed.
func (kl *KeyedLimiter) Allow(key string) Decision {
	if key == "" {
		return Decision{Allowed: true}
	}

	entry := kl.getOrCreateEntry(key)
	entry.mu.Lock()
	defer entry.mu.Unlock()

	if !entry.daily.Check() {
		kl.config.Metrics.RecordRateLimiterDrop(LimiterDaily)
		return Decision{Limiter: LimiterDaily, RetryAfter: entry.daily.RetryAfter()}
	}
	if !entry.limiter.Check() {
		kl.config.Metrics.RecordRateLimiterDrop(LimiterClient)
		return Decision{Limiter: LimiterClient, RetryAfter: entry.limiter.RetryAfter()}
	}

	entry.daily.Consume()
	entry.limiter.Consume()
	return Decision{Allowed: true}
}

func (kl *KeyedLimiter) getOrCreateEntry(key string) *keyedEntry {
	kl.mu.RLock()
	entry, exists := kl.entries[key]
	kl.mu.RUnlock()
	if exists {
		return entry
	}

	kl.mu.Lock()
	defer kl.mu.Unlock()

	if entry, exists = kl.entries[key]; exists {
		return entry
	}
	entry = &keyedEntry{
		limiter: New(kl.config.Burst, kl.config.RefillRate),
		daily:   NewSlidingWindowCounter(kl.config.DailyLimit, 24*time.Hour),
	}
	kl.entries[key] = entry
	return entry
}

// GetDailyRemaining returns the remaining daily quota for a key,
// or -1 when the daily limit is disabled.
func (kl *KeyedLimiter) GetDailyRemaining(key string) int {
	if kl.config.DailyLimit <= 0 {
		return -1
	}

	kl.mu.RLock()
	entry, exists := kl.entries[key]
	kl.mu.RUnlock()
	if !exists {
		return kl.config.DailyLimit
	}
	return entry.daily.GetRemaining()
}

// GetActiveCount returns the number of tracked keys.
func (kl *KeyedLimiter) GetActiveCount() int {
	kl.mu.RLock()
	defer kl.mu.RUnlock()
	return len(kl.entries)
}

// Cleanup drops keys whose bucket is full and whose daily window is empty.
// It returns the number of keys removed.
func (kl *KeyedLimiter) Cleanup() int {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	removed := 0
	for key, entry := range kl.entries {
		if entry.limiter.IsFull() && entry.daily.IsEmpty() {
			delete(kl.entries, key)
			removed++
		}
	}
	return removed
}

// Run calls Cleanup every CleanupPeriod until ctx is done.
func (kl *KeyedLimiter) Run(ctx context.Context) {
	period := kl.config.CleanupPeriod
	if period <= 0 {
		period = 5 * time.Minute
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			kl.Cleanup()
		}
	}
}
