// Implements the per-key token bucket backing the tier limiters.

// Package ratelimit implements token bucket rate limiting for HTTP handlers.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// bucketTTL is how long an idle, full bucket survives before eviction.
const bucketTTL = 10 * time.Minute

// Result reports the outcome of a rate limit check for one request.
type Result struct {
	Allowed    bool
	Limit      int           // requests per window
	Remaining  int           // requests left in the current window
	ResetAt    time.Time     // when the bucket is full again
	RetryAfter time.Duration // wait before retrying, 0 if allowed
}

// Limiter tracks one token bucket per key. Buckets are created on first use
// and evicted after sitting idle and full for bucketTTL.
type Limiter struct {
	perSecond rate.Limit
	burst     int
	window    time.Duration

	mu      sync.Mutex
	buckets map[string]*bucket
	done    chan struct{}
}

type bucket struct {
	rl       *rate.Limiter
	lastSeen time.Time
}

// NewLimiter creates a limiter allowing requests per window with the given
// burst capacity.
func NewLimiter(requests int, window time.Duration, burst int) *Limiter {
	l := &Limiter{
		perSecond: rate.Limit(float64(requests) / window.Seconds()),
		burst:     burst,
		window:    window,
		buckets:   make(map[string]*bucket),
		done:      make(chan struct{}),
	}
	go l.evictLoop()
	return l
}

// Allow consumes one token from the bucket for key, creating the bucket on
// first sight.
func (l *Limiter) Allow(key string) Result {
	now := time.Now()

	l.mu.Lock()
	b := l.buckets[key]
	if b == nil {
		b = &bucket{rl: rate.NewLimiter(l.perSecond, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	l.mu.Unlock()

	res := b.rl.ReserveN(now, 1)
	allowed := res.OK() && res.DelayFrom(now) == 0
	if !allowed && res.OK() {
		// Denied requests do not consume tokens.
		res.CancelAt(now)
	}

	tokens := b.rl.Tokens()
	remaining := max(int(tokens), 0)

	// When the bucket refills completely, assuming no further traffic.
	refill := time.Duration((float64(l.burst) - tokens) / float64(l.perSecond) * float64(time.Second))

	var retryAfter time.Duration
	if !allowed {
		// Time until one token becomes available, at least a second so the
		// Retry-After header is never zero.
		retryAfter = max(time.Duration(float64(time.Second)/float64(l.perSecond)), time.Second)
	}

	return Result{
		Allowed:    allowed,
		Limit:      int(float64(l.perSecond) * l.window.Seconds()),
		Remaining:  remaining,
		ResetAt:    now.Add(refill),
		RetryAfter: retryAfter,
	}
}

func (l *Limiter) evictLoop() {
	t := time.NewTicker(bucketTTL)
	defer t.Stop()
	for {
		select {
		case <-l.done:
			return
		case <-t.C:
			l.evictIdle()
		}
	}
}

func (l *Limiter) evictIdle() {
	cutoff := time.Now().Add(-bucketTTL)
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, b := range l.buckets {
		if b.lastSeen.Before(cutoff) && b.rl.Tokens() >= float64(l.burst) {
			delete(l.buckets, key)
		}
	}
}

// Close stops the eviction goroutine.
func (l *Limiter) Close() {
	close(l.done)
}
