package idtoken

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter limits operations per key with a token bucket per key.
// It is safe for concurrent use.
type RateLimiter struct {
	mu         sync.Mutex
	buckets    map[string]*bucket
	limit      rate.Limit
	burst      int
	maxBuckets int
	now        func() time.Time
	closed     bool
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a new rate limiter allowing maxRate operations per
// window for each key, with bursts of up to maxRate.
// If maxRate or window is invalid, sensible defaults are used.
func NewRateLimiter(maxRate int, window time.Duration) *RateLimiter {
	if maxRate <= 0 {
		maxRate = 100
	}
	if window <= 0 {
		window = time.Minute
	}

	return &RateLimiter{
		buckets:    make(map[string]*bucket),
		limit:      rate.Every(window / time.Duration(maxRate)),
		burst:      maxRate,
		maxBuckets: 10000,
		now:        time.Now,
	}
}

// Allow checks if a single operation is allowed for the given key.
// An empty key always returns false.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.AllowN(key, 1)
}

// AllowN checks if n operations are allowed for the given key and consumes
// them when they are. An empty key always returns false. n <= 0 always returns true.
func (rl *RateLimiter) AllowN(key string, n int) bool {
	if n <= 0 {
		return true
	}
	if key == "" {
		return false
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.closed {
		return false
	}

	now := rl.now()
	b, exists := rl.buckets[key]
	if !exists {
		if len(rl.buckets) >= rl.maxBuckets {
			rl.evictOldestUnsafe()
		}
		b = &bucket{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.buckets[key] = b
	}
	b.lastSeen = now

	return b.limiter.AllowN(now, n)
}

// Reset removes the bucket for the given key, restoring its full burst.
func (rl *RateLimiter) Reset(key string) {
	if key == "" {
		return
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.buckets, key)
}

// Close releases all buckets. After Close every Allow/AllowN call returns false.
// It is safe to call Close multiple times.
func (rl *RateLimiter) Close() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.closed {
		return
	}

	rl.closed = true
	clear(rl.buckets)
	rl.buckets = nil
}

func (rl *RateLimiter) evictOldestUnsafe() {
	if len(rl.buckets) == 0 {
		return
	}

	oldestKey := ""
	var oldestTime time.Time

	for key, b := range rl.buckets {
		if oldestKey == "" || b.lastSeen.Before(oldestTime) {
			oldestKey = key
			oldestTime = b.lastSeen
		}
	}

	delete(rl.buckets, oldestKey)
}
