package health

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archreview/internal/models"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache(10, time.Minute)

	_, ok := cache.Get(ctx, "deepseek-v3")
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, &models.ModelHealthStatus{
		ModelID:     "deepseek-v3",
		Available:   true,
		LastChecked: time.Now(),
	}))
	got, ok := cache.Get(ctx, "deepseek-v3")
	require.True(t, ok)
	assert.True(t, got.Available)

	require.NoError(t, cache.Set(ctx, &models.ModelHealthStatus{
		ModelID:     "stale",
		LastChecked: time.Now().Add(-2 * time.Minute),
	}))
	_, ok = cache.Get(ctx, "stale")
	assert.False(t, ok, "entries older than the TTL are not served")

	require.NoError(t, cache.Delete(ctx, "deepseek-v3"))
	_, ok = cache.Get(ctx, "deepseek-v3")
	assert.False(t, ok)
}

func TestRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	now := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	cache := NewRedisCache(client, 5*time.Minute)
	cache.now = func() time.Time { return now }

	ctx := context.Background()
	status := &models.ModelHealthStatus{
		ModelID:      "kimi-k2",
		Name:         "Kimi K2",
		Available:    false,
		LastChecked:  now,
		ErrorCode:    models.ErrorCodeRateLimit,
		ResponseTime: 120,
		IsCustom:     true,
	}
	require.NoError(t, cache.Set(ctx, status))

	assert.True(t, mr.Exists("health:kimi-k2"))
	assert.Equal(t, 5*time.Minute, mr.TTL("health:kimi-k2"))

	got, ok := cache.Get(ctx, "kimi-k2")
	require.True(t, ok)
	assert.Equal(t, models.ErrorCodeRateLimit, got.ErrorCode)
	assert.Equal(t, int64(120), got.ResponseTime)
	assert.True(t, got.LastChecked.Equal(now))

	t.Run("expires with the clock", func(t *testing.T) {
		now = now.Add(5 * time.Minute)
		_, ok := cache.Get(ctx, "kimi-k2")
		assert.False(t, ok)
		now = now.Add(-5 * time.Minute)
	})

	t.Run("expires in redis", func(t *testing.T) {
		mr.FastForward(5 * time.Minute)
		_, ok := cache.Get(ctx, "kimi-k2")
		assert.False(t, ok)
	})

	t.Run("stale status is not written", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, &models.ModelHealthStatus{ModelID: "old", LastChecked: now.Add(-time.Hour)}))
		assert.False(t, mr.Exists("health:old"))
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, status))
		require.NoError(t, cache.Delete(ctx, "kimi-k2"))
		assert.False(t, mr.Exists("health:kimi-k2"))
		require.NoError(t, cache.Delete(ctx, "never-set"))
	})

	t.Run("corrupt entry", func(t *testing.T) {
		require.NoError(t, mr.Set("health:bad", "{not json"))
		_, ok := cache.Get(ctx, "bad")
		assert.False(t, ok)
	})
}
