package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisQueue implements Queue on a Redis list. Items are stored as JSON.
type RedisQueue[T any] struct {
	client *redis.Client
	qKey   string
	closed atomic.Bool
}

// NewRedisQueue creates a Redis-backed queue on an existing client
func NewRedisQueue[T any](client *redis.Client, config *Config) (*RedisQueue[T], error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}

	return &RedisQueue[T]{
		client: client,
		qKey:   fmt.Sprintf("queue:%s", config.QueueName),
	}, nil
}

// Enqueue adds an item to the queue
func (q *RedisQueue[T]) Enqueue(ctx context.Context, item T) error {
	if q.closed.Load() {
		return ErrQueueClosed
	}

	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	if err := q.client.RPush(ctx, q.qKey, data).Err(); err != nil {
		return fmt.Errorf("failed to push to Redis: %w", err)
	}

	return nil
}

// DequeueWithTimeout retrieves items with a timeout
func (q *RedisQueue[T]) DequeueWithTimeout(ctx context.Context, maxItems int, timeout time.Duration) ([]T, error) {
	if q.closed.Load() {
		return nil, ErrQueueClosed
	}

	result, err := q.client.BLPop(ctx, timeout, q.qKey).Result()
	if errors.Is(err, redis.Nil) {
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to pop from Redis: %w", err)
	}

	// result[0] is the key, result[1] is the value
	raw := []string{result[1]}
	for len(raw) < maxItems {
		value, err := q.client.LPop(ctx, q.qKey).Result()
		if err != nil {
			// redis.Nil means the list is empty; other errors keep what we have
			break
		}
		raw = append(raw, value)
	}

	items := make([]T, 0, len(raw))
	for _, data := range raw {
		var item T
		if err := json.Unmarshal([]byte(data), &item); err != nil {
			return items, fmt.Errorf("failed to unmarshal item: %w", err)
		}
		items = append(items, item)
	}

	return items, nil
}

// Length returns the current queue length
func (q *RedisQueue[T]) Length(ctx context.Context) (int, error) {
	length, err := q.client.LLen(ctx, q.qKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get queue length: %w", err)
	}
	return int(length), nil
}

// Close stops Enqueue and Dequeue on this handle. Pending items stay in
// Redis for the next consumer; the shared client is owned by the caller.
func (q *RedisQueue[T]) Close() error {
	q.closed.Store(true)
	return nil
}

// RedisDeadLetterQueue implements DeadLetterQueue on a Redis hash
type RedisDeadLetterQueue[T any] struct {
	client *redis.Client
	dlKey  string
	now    func() time.Time
}

// NewRedisDeadLetterQueue creates a Redis-backed dead letter queue
func NewRedisDeadLetterQueue[T any](client *redis.Client, config *Config) (*RedisDeadLetterQueue[T], error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}

	return &RedisDeadLetterQueue[T]{
		client: client,
		dlKey:  fmt.Sprintf("dlq:%s", config.QueueName),
		now:    time.Now,
	}, nil
}

// Add adds a failed item to the dead letter queue
func (q *RedisDeadLetterQueue[T]) Add(ctx context.Context, item T, err error) error {
	dlItem := newDeadLetterItem(item, err, q.now())

	data, marshalErr := json.Marshal(dlItem)
	if marshalErr != nil {
		return fmt.Errorf("failed to marshal dead letter item: %w", marshalErr)
	}

	if err := q.client.HSet(ctx, q.dlKey, dlItem.ID, data).Err(); err != nil {
		return fmt.Errorf("failed to add to dead letter queue: %w", err)
	}

	return nil
}

// List retrieves items from the dead letter queue
func (q *RedisDeadLetterQueue[T]) List(ctx context.Context, maxItems int) ([]DeadLetterItem[T], error) {
	results, err := q.client.HGetAll(ctx, q.dlKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list dead letter items: %w", err)
	}

	items := make([]DeadLetterItem[T], 0, len(results))
	for _, data := range results {
		var dlItem DeadLetterItem[T]
		if err := json.Unmarshal([]byte(data), &dlItem); err != nil {
			continue // skip malformed items
		}
		items = append(items, dlItem)

		if maxItems > 0 && len(items) >= maxItems {
			break
		}
	}

	return items, nil
}

// Remove removes an item from the dead letter queue
func (q *RedisDeadLetterQueue[T]) Remove(ctx context.Context, id string) error {
	removed, err := q.client.HDel(ctx, q.dlKey, id).Result()
	if err != nil {
		return fmt.Errorf("failed to remove from dead letter queue: %w", err)
	}
	if removed == 0 {
		return ErrItemNotFound
	}
	return nil
}

// Close is a no-op; the shared client is owned by the caller.
func (q *RedisDeadLetterQueue[T]) Close() error {
	return nil
}
