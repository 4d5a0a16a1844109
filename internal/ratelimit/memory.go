package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"archreview/internal/storage"
)

// DefaultMaxKeys bounds the number of callers a MemoryLimiter tracks.
const DefaultMaxKeys = 10000

type bucket struct {
	limit   int
	limiter *rate.Limiter
}

// MemoryLimiter is a per-process token bucket limiter. A bucket holds limit
// tokens and refills one token every window/limit. Buckets idle for a whole
// window are full again and get dropped; past maxKeys the least recently
// used bucket is evicted.
type MemoryLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	buckets *storage.LRUCache[*bucket]
	now     func() time.Time
}

// NewMemoryLimiter creates an in-memory limiter with DefaultWindow
func NewMemoryLimiter() *MemoryLimiter {
	return newMemoryLimiter(DefaultMaxKeys)
}

func newMemoryLimiter(maxKeys int) *MemoryLimiter {
	return &MemoryLimiter{
		window:  DefaultWindow,
		buckets: storage.NewLRUCache[*bucket](maxKeys, DefaultWindow),
		now:     time.Now,
	}
}

func (l *MemoryLimiter) AllowWithDetails(ctx context.Context, key string, limit int) (bool, int, time.Time, error) {
	if limit <= 0 {
		return true, -1, time.Time{}, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	interval := l.window / time.Duration(limit)

	b, ok := l.buckets.Get(key)
	if !ok || b.limit != limit {
		b = &bucket{limit: limit, limiter: rate.NewLimiter(rate.Every(interval), limit)}
	}

	now := l.now()
	allowed := b.limiter.AllowN(now, 1)
	l.buckets.SetAt(key, b, now)

	tokens := b.limiter.TokensAt(now)
	remaining := int(tokens)
	if remaining < 0 {
		remaining = 0
	}

	resetAt := now
	if tokens < 1 {
		resetAt = now.Add(time.Duration((1 - tokens) * float64(interval)))
	}

	return allowed, remaining, resetAt, nil
}
