// Package ratelimit caps how many report reviews a caller may start per
// window. Each review fans out to one model call per profession.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultWindow is the sliding window length
const DefaultWindow = time.Minute

// Limiter enforces per-key request limits. A limit <= 0 means unlimited and
// reports remaining as -1 with a zero reset time.
type Limiter interface {
	AllowWithDetails(ctx context.Context, key string, limit int) (allowed bool, remaining int, resetAt time.Time, err error)
}

// NoopLimiter allows all requests
type NoopLimiter struct{}

func NewNoopLimiter() *NoopLimiter {
	return &NoopLimiter{}
}

func (l *NoopLimiter) AllowWithDetails(ctx context.Context, key string, limit int) (bool, int, time.Time, error) {
	return true, -1, time.Time{}, nil
}

// slidingWindowScript trims the window, admits the request if there is room
// and returns {allowed, remaining, resetAtMillis}.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
local allowed = 0
if count < limit then
	redis.call('ZADD', key, now, member)
	count = count + 1
	allowed = 1
end
redis.call('PEXPIRE', key, window)

local reset = now + window
local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
if oldest[2] then
	reset = tonumber(oldest[2]) + window
end

return {allowed, limit - count, reset}
`)

// RateLimiter implements a distributed sliding window on Redis sorted sets
type RateLimiter struct {
	client *redis.Client
	window time.Duration
	now    func() time.Time
}

// NewRateLimiter creates a limiter with DefaultWindow
func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{client: client, window: DefaultWindow, now: time.Now}
}

func (rl *RateLimiter) key(id string) string {
	return fmt.Sprintf("ratelimit:%s", id)
}

// AllowWithDetails admits one request for key if fewer than limit were
// admitted in the current window.
func (rl *RateLimiter) AllowWithDetails(ctx context.Context, key string, limit int) (bool, int, time.Time, error) {
	if limit <= 0 {
		return true, -1, time.Time{}, nil
	}

	now := rl.now().UnixMilli()
	res, err := slidingWindowScript.Run(ctx, rl.client, []string{rl.key(key)},
		now, rl.window.Milliseconds(), limit, fmt.Sprintf("%d-%s", now, uuid.NewString()),
	).Int64Slice()
	if err != nil {
		return false, 0, time.Time{}, fmt.Errorf("rate limit check failed: %w", err)
	}
	if len(res) != 3 {
		return false, 0, time.Time{}, fmt.Errorf("rate limit check returned %d values", len(res))
	}

	return res[0] == 1, int(res[1]), time.UnixMilli(res[2]), nil
}
