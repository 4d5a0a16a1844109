// Package queue provides the asynchronous hand-off used to persist review
// runs off the request path. Two backends exist:
//
//   - MemoryQueue: channel based, lost on restart, no dependencies.
//   - RedisQueue: Redis list based, survives restarts and can be shared by
//     several service replicas.
//
// Items that keep failing after the configured retries go to a dead letter
// queue so they can be inspected and replayed.
package queue

import (
	"context"
	"time"
)

// Queue is a FIFO of items of type T.
type Queue[T any] interface {
	// Enqueue adds an item to the queue
	Enqueue(ctx context.Context, item T) error

	// DequeueWithTimeout waits up to timeout for the first item, then drains
	// up to maxItems without blocking. An empty slice means the timeout hit.
	DequeueWithTimeout(ctx context.Context, maxItems int, timeout time.Duration) ([]T, error)

	// Length returns the current queue length
	Length(ctx context.Context) (int, error)

	// Close shuts down the queue
	Close() error
}

// DeadLetterQueue holds items that could not be processed.
type DeadLetterQueue[T any] interface {
	// Add records a failed item together with the error that stopped it
	Add(ctx context.Context, item T, err error) error

	// List returns up to maxItems entries, all of them when maxItems <= 0
	List(ctx context.Context, maxItems int) ([]DeadLetterItem[T], error)

	// Remove deletes an entry by id
	Remove(ctx context.Context, id string) error

	Close() error
}

// DeadLetterItem is an entry of a dead letter queue.
type DeadLetterItem[T any] struct {
	ID        string    `json:"id"`
	Item      T         `json:"item"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// Config holds queue and worker configuration
type Config struct {
	// BatchSize is the maximum number of items processed in one batch
	BatchSize int

	// BatchTimeout is how long a worker waits for the first item of a batch
	BatchTimeout time.Duration

	// MaxRetries is the number of retries per item after a failed batch
	MaxRetries int

	// RetryBackoff is the initial backoff, doubled on every retry
	RetryBackoff time.Duration

	// QueueName is the name used to derive Redis keys
	QueueName string
}

// DefaultConfig returns default queue configuration
func DefaultConfig(queueName string) *Config {
	return &Config{
		BatchSize:    50,
		BatchTimeout: 2 * time.Second,
		MaxRetries:   3,
		RetryBackoff: 500 * time.Millisecond,
		QueueName:    queueName,
	}
}
