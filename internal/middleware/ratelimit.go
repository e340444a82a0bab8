package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// TokenBucket refills continuously, so rates below one token per second
// (e.g. a few assistant runs per minute) still work.
type TokenBucket struct {
	mu       sync.Mutex
	capacity float64
	tokens   float64
	perSec   float64
	last     time.Time
	now      func() time.Time
}

func NewTokenBucket(capacity int, perSecond float64) *TokenBucket {
	return &TokenBucket{
		capacity: float64(capacity),
		tokens:   float64(capacity),
		perSec:   perSecond,
		last:     time.Now(),
		now:      time.Now,
	}
}

// Allow takes one token if there is one.
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.now()
	tb.tokens = math.Min(tb.capacity, tb.tokens+now.Sub(tb.last).Seconds()*tb.perSec)
	tb.last = now

	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}
	return false
}

// retryAfter is the whole seconds until the next token.
func (tb *TokenBucket) retryAfter() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	if tb.perSec <= 0 {
		return 60
	}
	return int(math.Ceil((1 - tb.tokens) / tb.perSec))
}

// RateLimiter holds one bucket per key (client, project, ...).
type RateLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*TokenBucket
	capacity int
	perSec   float64
	now      func() time.Time
	stop     chan struct{}
}

func NewRateLimiter(capacity int, perSecond float64) *RateLimiter {
	rl := &RateLimiter{
		buckets:  make(map[string]*TokenBucket),
		capacity: capacity,
		perSec:   perSecond,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go rl.janitor(5*time.Minute, 10*time.Minute)
	return rl
}

func (rl *RateLimiter) bucket(key string) *TokenBucket {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	b, ok := rl.buckets[key]
	if !ok {
		b = NewTokenBucket(rl.capacity, rl.perSec)
		b.now = rl.now
		b.last = rl.now()
		rl.buckets[key] = b
	}
	return b
}

func (rl *RateLimiter) Allow(key string) bool { return rl.bucket(key).Allow() }

// janitor drops buckets idle longer than maxIdle.
func (rl *RateLimiter) janitor(every, maxIdle time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
		}
		rl.sweep(maxIdle)
	}
}

func (rl *RateLimiter) sweep(maxIdle time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	for key, b := range rl.buckets {
		b.mu.Lock()
		idle := now.Sub(b.last) > maxIdle
		b.mu.Unlock()
		if idle {
			delete(rl.buckets, key)
		}
	}
}

// Close stops the janitor
func (rl *RateLimiter) Close() { close(rl.stop) }

// Limit rejects requests whose key has run out of tokens with 429 and a
// Retry-After header. An empty key is not limited.
func (rl *RateLimiter) Limit(key func(*http.Request) string, message string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if k == "" {
				next.ServeHTTP(w, r)
				return
			}
			b := rl.bucket(k)
			if !b.Allow() {
				countThrottled()
				w.Header().Set("Retry-After", strconv.Itoa(b.retryAfter()))
				http.Error(w, message, http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitMiddleware limits every API client per host.
// capacity: burst size; refillRate: tokens added per second
func RateLimitMiddleware(capacity, refillRate int) func(http.Handler) http.Handler {
	limiter := NewRateLimiter(capacity, float64(refillRate))
	return limiter.Limit(func(r *http.Request) string {
		if isOpenPath(r.URL.Path) {
			return ""
		}
		return GetClientFromContext(r.Context()) + ":" + clientIP(r.RemoteAddr)
	}, "rate limit exceeded, please try again later")
}

// clientIP drops the port so one host shares a bucket across connections
func clientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
