package resilience

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// RateLimiterConfig configures the rate limiter.
type RateLimiterConfig struct {
	// Rate is the number of operations allowed per second per key.
	// Default: 1
	Rate float64

	// Burst is the maximum burst size per key.
	// Default: 5
	Burst int

	// IdleTTL evicts buckets untouched for this long.
	// Default: 10 minutes
	IdleTTL time.Duration

	// Clock supplies the current time.
	// Default: time.Now
	Clock func() time.Time
}

type bucket struct {
	tokens   float64
	lastSeen time.Time
}

// RateLimiter is a keyed token-bucket rate limiter.
type RateLimiter struct {
	config RateLimiterConfig

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

// NewRateLimiter creates a new rate limiter.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.Rate <= 0 {
		config.Rate = 1
	}
	if config.Burst <= 0 {
		config.Burst = 5
	}
	if config.IdleTTL <= 0 {
		config.IdleTTL = 10 * time.Minute
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}
	return &RateLimiter{
		config:    config,
		buckets:   make(map[string]*bucket),
		lastSweep: config.Clock(),
	}
}

// Allow takes one token from key's bucket and reports whether one was available.
func (rl *RateLimiter) Allow(key string) bool {
	_, ok := rl.Reserve(key)
	return ok
}

// Reserve takes one token from key's bucket. When none is available it
// returns how long until one will be.
func (rl *RateLimiter) Reserve(key string) (time.Duration, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.config.Clock()
	rl.sweepLocked(now)

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(rl.config.Burst), lastSeen: now}
		rl.buckets[key] = b
	}
	b.tokens = min(float64(rl.config.Burst), b.tokens+now.Sub(b.lastSeen).Seconds()*rl.config.Rate)
	b.lastSeen = now

	if b.tokens >= 1 {
		b.tokens--
		return 0, true
	}
	wait := time.Duration((1 - b.tokens) / rl.config.Rate * float64(time.Second))
	return wait, false
}

// Tokens returns the tokens currently available to key.
func (rl *RateLimiter) Tokens(key string) float64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[key]
	if !ok {
		return float64(rl.config.Burst)
	}
	elapsed := rl.config.Clock().Sub(b.lastSeen).Seconds()
	return min(float64(rl.config.Burst), b.tokens+elapsed*rl.config.Rate)
}

// Reset forgets key's bucket, restoring full capacity.
func (rl *RateLimiter) Reset(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.buckets, key)
}

func (rl *RateLimiter) sweepLocked(now time.Time) {
	if now.Sub(rl.lastSweep) < rl.config.IdleTTL {
		return
	}
	rl.lastSweep = now
	for k, b := range rl.buckets {
		if now.Sub(b.lastSeen) >= rl.config.IdleTTL {
			delete(rl.buckets, k)
		}
	}
}

// ClientIP keys requests by the remote address host.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Middleware rejects requests over the limit with 429 and a Retry-After header.
func (rl *RateLimiter) Middleware(key func(*http.Request) string, next http.Handler) http.Handler {
	if key == nil {
		key = ClientIP
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wait, ok := rl.Reserve(key(r))
		if !ok {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"too_many_requests"}` + "\n"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
