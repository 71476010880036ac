package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/patrickwarner/lpdash/internal/observability"
)

// Config holds the per-session limits.
type Config struct {
	Capacity  int  // burst allowance
	PerMinute int  // sustained rate
	Enabled   bool // false allows everything
}

// SessionLimiter keeps one lazily created bucket per key.
type SessionLimiter struct {
	buckets  map[string]*TokenBucket
	mu       sync.RWMutex
	config   Config
	endpoint string
	metrics  observability.MetricsRegistry
	now      func() time.Time
}

// NewSessionLimiter creates a limiter whose rejections are counted under endpoint.
func NewSessionLimiter(config Config, endpoint string, metrics observability.MetricsRegistry) *SessionLimiter {
	if metrics == nil {
		metrics = observability.NewNoOpRegistry()
	}
	return &SessionLimiter{
		buckets:  make(map[string]*TokenBucket),
		config:   config,
		endpoint: endpoint,
		metrics:  metrics,
		now:      time.Now,
	}
}

// Allow reports whether key may make another request now.
func (l *SessionLimiter) Allow(key string) bool {
	if !l.config.Enabled {
		return true
	}

	l.mu.RLock()
	bucket, exists := l.buckets[key]
	l.mu.RUnlock()

	if !exists {
		l.mu.Lock()
		bucket, exists = l.buckets[key]
		if !exists {
			bucket = newTokenBucket(l.config.Capacity, l.config.PerMinute, l.now)
			l.buckets[key] = bucket
		}
		l.mu.Unlock()
	}

	allowed := bucket.Allow()
	if !allowed {
		l.metrics.IncrementRateLimitHits(l.endpoint)
	}
	return allowed
}

// Sweep drops buckets unused for longer than idle, publishes the number still
// tracked and returns how many were removed.
func (l *SessionLimiter) Sweep(idle time.Duration) int {
	cutoff := l.now().Add(-idle)
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for key, b := range l.buckets {
		if b.idleSince().Before(cutoff) {
			delete(l.buckets, key)
			removed++
		}
	}
	l.metrics.SetRateLimitBuckets(l.endpoint, len(l.buckets))
	return removed
}

// StartCleanup sweeps idle buckets every interval until ctx is done.
func (l *SessionLimiter) StartCleanup(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.Sweep(idle)
			case <-ctx.Done():
				return
			}
		}
	}()
}
