package server

import (
	"testing"
	"time"
)

// TestRateLimiterAllowsBurst verifies that the limiter permits exactly the
// configured burst before refusing.
func TestRateLimiterAllowsBurst(t *testing.T) {
	limiter := newRateLimiter(3, time.Hour)

	for i := 0; i < 3; i++ {
		if !limiter.allow() {
			t.Fatalf("Request %d refused within burst of 3", i+1)
		}
	}
	if limiter.allow() {
		t.Error("Request beyond burst was allowed before any refill")
	}
}

// TestRateLimiterRefills verifies that tokens come back over time.
func TestRateLimiterRefills(t *testing.T) {
	limiter := newRateLimiter(2, 20*time.Millisecond)

	limiter.allow()
	limiter.allow()
	if limiter.allow() {
		t.Fatal("Bucket not empty after draining the burst")
	}

	time.Sleep(30 * time.Millisecond)

	if !limiter.allow() {
		t.Error("No token available after the refill interval elapsed")
	}
}

// TestRateLimiterSanitizesArguments verifies that non-positive parameters
// fall back to a working limiter instead of one that blocks everything.
func TestRateLimiterSanitizesArguments(t *testing.T) {
	limiter := newRateLimiter(0, 0)

	if !limiter.allow() {
		t.Error("Limiter with sanitized arguments refused the first request")
	}
}
