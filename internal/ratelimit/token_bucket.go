// Package ratelimit throttles dashboard loads per session. Every load fans
// out to several Data API calls, so a burst of refreshes from one user can
// exhaust the property's hourly quota for everyone.
package ratelimit

import (
	"sync"
	"time"
)

// TokenBucket is a thread-safe token bucket. The bucket starts full and
// refills continuously at perMinute tokens per minute.
type TokenBucket struct {
	capacity   float64
	tokens     float64
	perSecond  float64
	lastRefill time.Time
	lastSeen   time.Time
	mu         sync.Mutex
	now        func() time.Time
}

func newTokenBucket(capacity, perMinute int, now func() time.Time) *TokenBucket {
	t := now()
	return &TokenBucket{
		capacity:   float64(capacity),
		tokens:     float64(capacity),
		perSecond:  float64(perMinute) / 60,
		lastRefill: t,
		lastSeen:   t,
		now:        now,
	}
}

// Allow consumes one token, reporting false when the bucket is empty.
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.now()
	tb.lastSeen = now

	elapsed := now.Sub(tb.lastRefill).Seconds()
	if elapsed > 0 {
		tb.tokens = min(tb.capacity, tb.tokens+elapsed*tb.perSecond)
		tb.lastRefill = now
	}

	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}
	return false
}

func (tb *TokenBucket) idleSince() time.Time {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.lastSeen
}
