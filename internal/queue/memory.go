package queue

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryQueue implements Queue using a buffered channel
type MemoryQueue[T any] struct {
	items     chan T
	done      chan struct{}
	closeOnce sync.Once
}

// NewMemoryQueue creates a new in-memory queue
func NewMemoryQueue[T any](config *Config) *MemoryQueue[T] {
	if config == nil {
		config = DefaultConfig("memory")
	}

	return &MemoryQueue[T]{
		items: make(chan T, config.BatchSize*10), // room for 10 batches
		done:  make(chan struct{}),
	}
}

// Enqueue adds an item to the queue, blocking while the buffer is full
func (q *MemoryQueue[T]) Enqueue(ctx context.Context, item T) error {
	select {
	case <-q.done:
		return ErrQueueClosed
	default:
	}

	select {
	case q.items <- item:
		return nil
	case <-q.done:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// DequeueWithTimeout retrieves items with a timeout
func (q *MemoryQueue[T]) DequeueWithTimeout(ctx context.Context, maxItems int, timeout time.Duration) ([]T, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var items []T

	select {
	case item := <-q.items:
		items = append(items, item)
	case <-timer.C:
		return items, nil
	case <-q.done:
		if items = q.drain(maxItems); len(items) > 0 {
			return items, nil
		}
		return nil, ErrQueueClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	for len(items) < maxItems {
		select {
		case item := <-q.items:
			items = append(items, item)
		default:
			return items, nil
		}
	}

	return items, nil
}

// drain returns what is left in the buffer after Close
func (q *MemoryQueue[T]) drain(maxItems int) []T {
	var items []T
	for len(items) < maxItems {
		select {
		case item := <-q.items:
			items = append(items, item)
		default:
			return items
		}
	}
	return items
}

// Length returns the current queue length
func (q *MemoryQueue[T]) Length(ctx context.Context) (int, error) {
	return len(q.items), nil
}

// Close stops the queue. Items still buffered are returned by
// DequeueWithTimeout until the buffer is empty; then it reports ErrQueueClosed.
func (q *MemoryQueue[T]) Close() error {
	q.closeOnce.Do(func() { close(q.done) })
	return nil
}

// MemoryDeadLetterQueue implements DeadLetterQueue using in-memory storage
type MemoryDeadLetterQueue[T any] struct {
	mu     sync.RWMutex
	items  []DeadLetterItem[T]
	closed bool
	now    func() time.Time
}

// NewMemoryDeadLetterQueue creates a new in-memory dead letter queue
func NewMemoryDeadLetterQueue[T any]() *MemoryDeadLetterQueue[T] {
	return &MemoryDeadLetterQueue[T]{now: time.Now}
}

// Add adds a failed item to the dead letter queue
func (q *MemoryDeadLetterQueue[T]) Add(ctx context.Context, item T, err error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}

	q.items = append(q.items, newDeadLetterItem(item, err, q.now()))
	return nil
}

// List retrieves items from the dead letter queue
func (q *MemoryDeadLetterQueue[T]) List(ctx context.Context, maxItems int) ([]DeadLetterItem[T], error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return nil, ErrQueueClosed
	}

	if maxItems <= 0 || maxItems > len(q.items) {
		maxItems = len(q.items)
	}

	result := make([]DeadLetterItem[T], maxItems)
	copy(result, q.items[:maxItems])
	return result, nil
}

// Remove removes an item from the dead letter queue
func (q *MemoryDeadLetterQueue[T]) Remove(ctx context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}

	for i, item := range q.items {
		if item.ID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return nil
		}
	}

	return ErrItemNotFound
}

// Close shuts down the dead letter queue
func (q *MemoryDeadLetterQueue[T]) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.items = nil
	return nil
}

func newDeadLetterItem[T any](item T, err error, ts time.Time) DeadLetterItem[T] {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return DeadLetterItem[T]{
		ID:        uuid.NewString(),
		Item:      item,
		Error:     msg,
		Timestamp: ts,
	}
}
