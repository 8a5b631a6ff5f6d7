package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"
)

// evictAbove bounds the visitor map: once it grows past this many entries,
// idle visitors are pruned on the next Allow call.
const evictAbove = 1024

// RateLimiter throttles the public booking form per caller IP with a token
// bucket. The booking endpoint is the only anonymous write in the API, so
// this is where form abuse shows up first.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     float64
	burst    float64
	maxIdle  time.Duration
	now      func() time.Time
}

type visitor struct {
	tokens float64
	seen   time.Time
}

// NewRateLimiter allows rate requests/sec with the given burst per IP.
func NewRateLimiter(rate float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		burst:    float64(burst),
		maxIdle:  10 * time.Minute,
		now:      time.Now,
	}
}

// Allow reports whether the caller may proceed, spending one token if so.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if len(rl.visitors) > evictAbove {
		rl.evictIdle(now)
	}

	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{tokens: rl.burst, seen: now}
		rl.visitors[ip] = v
	} else {
		v.tokens = min(rl.burst, v.tokens+now.Sub(v.seen).Seconds()*rl.rate)
		v.seen = now
	}

	if v.tokens < 1 {
		return false
	}
	v.tokens--
	return true
}

func (rl *RateLimiter) evictIdle(now time.Time) {
	cutoff := now.Add(-rl.maxIdle)
	for ip, v := range rl.visitors {
		if v.seen.Before(cutoff) {
			delete(rl.visitors, ip)
		}
	}
}

// RateLimit rejects callers above the configured request rate with 429. It
// keys on X-Real-Ip when chi's RealIP middleware ran, falling back to the
// connection address with the port stripped.
func RateLimit(rate float64, burst int) func(http.Handler) http.Handler {
	limiter := NewRateLimiter(rate, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(clientIP(r)) {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if xri := r.Header.Get("X-Real-Ip"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
