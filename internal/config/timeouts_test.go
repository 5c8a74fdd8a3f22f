package config

import (
	"testing"
	"time"
)

// TestHTTPTimeouts verifies HTTP server timeout constants
func TestHTTPTimeouts(t *testing.T) {
	tests := []struct {
		name     string
		got      time.Duration
		expected time.Duration
	}{
		{"HTTPRead", HTTPRead, 10 * time.Second},
		{"HTTPWrite", HTTPWrite, 180 * time.Second},
		{"HTTPIdle", HTTPIdle, 120 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.expected)
			}
		})
	}
}

// TestSearchTimeouts verifies search backoff constants
func TestSearchTimeouts(t *testing.T) {
	tests := []struct {
		name     string
		got      time.Duration
		expected time.Duration
	}{
		{"SearchRequest", SearchRequest, 15 * time.Second},
		{"SearchRetryInitial", SearchRetryInitial, 5 * time.Second},
		{"SearchRetryMax", SearchRetryMax, 30 * time.Second},
		{"SearchRateLimitInitial", SearchRateLimitInitial, 10 * time.Second},
		{"SearchRateLimitMax", SearchRateLimitMax, 60 * time.Second},
		{"SearchQueryInterval", SearchQueryInterval, 2 * time.Second},
		{"SearchBatch", SearchBatch, 60 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.expected)
			}
		})
	}
}

// TestLLMTimeouts verifies LLM backoff constants
func TestLLMTimeouts(t *testing.T) {
	tests := []struct {
		name     string
		got      time.Duration
		expected time.Duration
	}{
		{"LLMRequest", LLMRequest, 20 * time.Second},
		{"LLMRetryInitial", LLMRetryInitial, 5 * time.Second},
		{"LLMRetryMax", LLMRetryMax, 30 * time.Second},
		{"LLMRateLimitInitial", LLMRateLimitInitial, 15 * time.Second},
		{"LLMRateLimitMax", LLMRateLimitMax, 120 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.expected)
			}
		})
	}
}

// TestTimeoutRelationships checks that backoff caps exceed their initial values
// and that every request budget ends before the write timeout.
func TestTimeoutRelationships(t *testing.T) {
	if SearchRetryMax < SearchRetryInitial {
		t.Errorf("SearchRetryMax (%v) < SearchRetryInitial (%v)", SearchRetryMax, SearchRetryInitial)
	}
	if SearchRateLimitMax < SearchRateLimitInitial {
		t.Errorf("SearchRateLimitMax (%v) < SearchRateLimitInitial (%v)", SearchRateLimitMax, SearchRateLimitInitial)
	}
	if LLMRateLimitMax < LLMRateLimitInitial {
		t.Errorf("LLMRateLimitMax (%v) < LLMRateLimitInitial (%v)", LLMRateLimitMax, LLMRateLimitInitial)
	}
	if HTTPWrite < 4*SearchRequest+LLMRequest {
		t.Errorf("HTTPWrite (%v) too short for four searches and one extraction", HTTPWrite)
	}
	for name, budget := range map[string]time.Duration{
		"CurriculumRequest":   CurriculumRequest,
		"LearningPathRequest": LearningPathRequest,
		"MOOCSearch":          MOOCSearch,
	} {
		if budget >= HTTPWrite {
			t.Errorf("%s (%v) must be shorter than HTTPWrite (%v)", name, budget, HTTPWrite)
		}
	}
	if 2*SearchBatch > MOOCSearch {
		t.Errorf("MOOCSearch (%v) must fit the MOOC and textbook batches (%v each)", MOOCSearch, SearchBatch)
	}
	if SearchBatch >= CurriculumRequest {
		t.Errorf("SearchBatch (%v) leaves no room for extraction within CurriculumRequest (%v)", SearchBatch, CurriculumRequest)
	}
	if RecordLookupAttempts < 1 {
		t.Errorf("RecordLookupAttempts = %d, want >= 1", RecordLookupAttempts)
	}
}
