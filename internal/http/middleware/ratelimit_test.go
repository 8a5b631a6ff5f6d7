package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimitRejectsBurstOverflow(t *testing.T) {
	mw := RateLimit(1, 2)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodPost, "/appointments", nil)
		req.Header.Set("X-Real-Ip", "203.0.113.9")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Fatalf("burst requests should pass, got %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Fatalf("third request should be limited, got %v", codes)
	}
}

func TestRateLimitTracksPerIP(t *testing.T) {
	limiter := NewRateLimiter(1, 1)
	if !limiter.Allow("203.0.113.1") {
		t.Fatal("first request from first ip should pass")
	}
	if !limiter.Allow("203.0.113.2") {
		t.Fatal("first request from second ip should pass")
	}
	if limiter.Allow("203.0.113.1") {
		t.Fatal("second immediate request from same ip should be limited")
	}
}

func TestRateLimitRefillsOverTime(t *testing.T) {
	now := time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(1, 1)
	limiter.now = func() time.Time { return now }

	if !limiter.Allow("203.0.113.1") {
		t.Fatal("first request should pass")
	}
	if limiter.Allow("203.0.113.1") {
		t.Fatal("bucket should be empty")
	}

	now = now.Add(2 * time.Second)
	if !limiter.Allow("203.0.113.1") {
		t.Fatal("bucket should refill after the rate interval")
	}
}

func TestRateLimitEvictsIdleVisitors(t *testing.T) {
	now := time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(1, 1)
	limiter.now = func() time.Time { return now }

	for i := range evictAbove + 1 {
		limiter.Allow(fmt.Sprintf("198.51.100.%d", i))
	}

	now = now.Add(limiter.maxIdle + time.Minute)
	limiter.Allow("203.0.113.1")

	if got := len(limiter.visitors); got != 1 {
		t.Fatalf("idle visitors should be evicted, map holds %d entries", got)
	}
}

func TestRateLimitStripsPortFromRemoteAddr(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/appointments", nil)
	req.RemoteAddr = "203.0.113.7:51234"
	if got := clientIP(req); got != "203.0.113.7" {
		t.Fatalf("clientIP = %q, want 203.0.113.7", got)
	}

	req.Header.Set("X-Real-Ip", "203.0.113.8")
	if got := clientIP(req); got != "203.0.113.8" {
		t.Fatalf("clientIP = %q, want the X-Real-Ip value", got)
	}
}
