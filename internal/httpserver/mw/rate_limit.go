package mw

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/MrSnakeDoc/duewatch/internal/utils"
)

// RateLimitConfig sizes a per-client token bucket.
type RateLimitConfig struct {
	Burst             int           // tokens available at once
	RefillPerIPPerMin int           // tokens regained per minute
	MaxEntries        int           // sweep early when this many clients are tracked, 0 = no cap
	SweepInterval     time.Duration // how often idle buckets are dropped
	IdleTTL           time.Duration // a bucket unused this long is dropped
	TrustProxy        bool          // resolve the client IP from proxy headers
	Now               func() time.Time
}

func (c RateLimitConfig) withDefaults() RateLimitConfig {
	c.Burst = max(c.Burst, 1)
	c.RefillPerIPPerMin = max(c.RefillPerIPPerMin, 1)
	if c.SweepInterval <= 0 {
		c.SweepInterval = time.Minute
	}
	if c.IdleTTL <= 0 {
		c.IdleTTL = 15 * time.Minute
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

type bucket struct {
	tokens float64
	seen   time.Time
}

// limiter guards all buckets with one mutex; the limited endpoints are
// low-traffic triggers.
type limiter struct {
	cfg     RateLimitConfig
	mu      sync.Mutex
	buckets map[string]*bucket
	swept   time.Time
}

// take spends one token of key. It returns the tokens left, or how many
// seconds to wait when the bucket is empty.
func (l *limiter) take(key string, now time.Time) (remaining, retryAfter int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	full := l.cfg.MaxEntries > 0 && len(l.buckets) >= l.cfg.MaxEntries
	if full || now.Sub(l.swept) >= l.cfg.SweepInterval {
		l.sweep(now)
	}

	capacity := float64(l.cfg.Burst)
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: capacity, seen: now}
		l.buckets[key] = b
	}
	if elapsed := now.Sub(b.seen).Minutes(); elapsed > 0 {
		b.tokens = math.Min(capacity, b.tokens+elapsed*float64(l.cfg.RefillPerIPPerMin))
	}
	b.seen = now

	if b.tokens < 1 {
		wait := math.Ceil((1 - b.tokens) * 60 / float64(l.cfg.RefillPerIPPerMin))
		return 0, max(int(wait), 1)
	}
	b.tokens--
	return int(b.tokens), 0
}

func (l *limiter) sweep(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.seen) > l.cfg.IdleTTL {
			delete(l.buckets, key)
		}
	}
	l.swept = now
}

// RateLimit answers 429 with Retry-After once a client has spent its
// bucket. Clients are keyed by IP.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	cfg = cfg.withDefaults()
	l := &limiter{
		cfg:     cfg,
		buckets: make(map[string]*bucket),
		swept:   cfg.Now(),
	}
	limit := strconv.Itoa(cfg.Burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			remaining, retryAfter := l.take(utils.ClientIP(r, cfg.TrustProxy), cfg.Now())

			h := w.Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if retryAfter > 0 {
				h.Set("Retry-After", strconv.Itoa(retryAfter))
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
