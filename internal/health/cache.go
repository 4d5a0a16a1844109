package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"archreview/internal/models"
	"archreview/internal/storage"
)

// Cache stores the latest probe result per model.
type Cache interface {
	// Get returns a status younger than the cache TTL
	Get(ctx context.Context, modelID string) (*models.ModelHealthStatus, bool)

	// Set stores status; its LastChecked starts the TTL window
	Set(ctx context.Context, status *models.ModelHealthStatus) error

	// Delete drops the cached status of a model
	Delete(ctx context.Context, modelID string) error
}

// MemoryCache is a process-local Cache backed by an LRU with TTL.
type MemoryCache struct {
	lru *storage.LRUCache[models.ModelHealthStatus]
}

// NewMemoryCache creates an in-memory cache. capacity <= 0 means unbounded.
func NewMemoryCache(capacity int, ttl time.Duration) *MemoryCache {
	return &MemoryCache{lru: storage.NewLRUCache[models.ModelHealthStatus](capacity, ttl)}
}

func (c *MemoryCache) Get(ctx context.Context, modelID string) (*models.ModelHealthStatus, bool) {
	status, ok := c.lru.Get(modelID)
	if !ok {
		return nil, false
	}
	return &status, true
}

func (c *MemoryCache) Set(ctx context.Context, status *models.ModelHealthStatus) error {
	c.lru.SetAt(status.ModelID, *status, status.LastChecked)
	return nil
}

func (c *MemoryCache) Delete(ctx context.Context, modelID string) error {
	c.lru.Delete(modelID)
	return nil
}

// RedisCache shares probe results between replicas. Entries are JSON under
// health:<modelId> and expire through Redis TTLs.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
	now    func() time.Time
}

// NewRedisCache creates a Redis-backed cache
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: client,
		ttl:    ttl,
		prefix: "health:",
		now:    time.Now,
	}
}

func (c *RedisCache) key(modelID string) string {
	return c.prefix + modelID
}

func (c *RedisCache) Get(ctx context.Context, modelID string) (*models.ModelHealthStatus, bool) {
	data, err := c.client.Get(ctx, c.key(modelID)).Bytes()
	if err != nil {
		return nil, false
	}

	var status models.ModelHealthStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, false
	}

	// Redis TTLs have second granularity; the timestamp is authoritative.
	if !c.now().Before(status.LastChecked.Add(c.ttl)) {
		return nil, false
	}
	return &status, true
}

func (c *RedisCache) Set(ctx context.Context, status *models.ModelHealthStatus) error {
	remaining := status.LastChecked.Add(c.ttl).Sub(c.now())
	if remaining <= 0 {
		return nil
	}

	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal health status: %w", err)
	}

	if err := c.client.Set(ctx, c.key(status.ModelID), data, remaining).Err(); err != nil {
		return fmt.Errorf("failed to cache health status: %w", err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, modelID string) error {
	err := c.client.Del(ctx, c.key(modelID)).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to invalidate health status: %w", err)
	}
	return nil
}
