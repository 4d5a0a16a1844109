package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type testItem struct {
	ID    string `json:"id"`
	Count int    `json:"count"`
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisQueue_EnqueueDequeue(t *testing.T) {
	mr, client := newTestRedis(t)

	q, err := NewRedisQueue[testItem](client, DefaultConfig("test-redis-basic"))
	if err != nil {
		t.Fatalf("NewRedisQueue failed: %v", err)
	}
	defer q.Close()

	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := q.Enqueue(ctx, testItem{ID: "item", Count: i}); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
	}

	if !mr.Exists("queue:test-redis-basic") {
		t.Fatal("Expected the queue key to exist")
	}

	length, err := q.Length(ctx)
	if err != nil || length != 3 {
		t.Fatalf("Length = %d, %v; want 3", length, err)
	}

	items, err := q.DequeueWithTimeout(ctx, 2, time.Second)
	if err != nil {
		t.Fatalf("DequeueWithTimeout failed: %v", err)
	}
	if len(items) != 2 || items[0].Count != 0 || items[1].Count != 1 {
		t.Errorf("Unexpected items: %+v", items)
	}

	items, err = q.DequeueWithTimeout(ctx, 10, time.Second)
	if err != nil {
		t.Fatalf("DequeueWithTimeout failed: %v", err)
	}
	if len(items) != 1 || items[0].Count != 2 {
		t.Errorf("Unexpected items: %+v", items)
	}
}

func TestRedisQueue_Timeout(t *testing.T) {
	_, client := newTestRedis(t)

	q, _ := NewRedisQueue[testItem](client, DefaultConfig("test-redis-timeout"))

	items, err := q.DequeueWithTimeout(context.Background(), 1, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("DequeueWithTimeout failed: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("Expected no items, got %v", items)
	}
}

func TestRedisQueue_RequiresClient(t *testing.T) {
	if _, err := NewRedisQueue[testItem](nil, DefaultConfig("x")); err == nil {
		t.Error("Expected an error without a client")
	}
	if _, err := NewRedisDeadLetterQueue[testItem](nil, DefaultConfig("x")); err == nil {
		t.Error("Expected an error without a client")
	}
}

func TestRedisDeadLetterQueue(t *testing.T) {
	_, client := newTestRedis(t)

	dlq, err := NewRedisDeadLetterQueue[testItem](client, DefaultConfig("test-redis-dlq"))
	if err != nil {
		t.Fatalf("NewRedisDeadLetterQueue failed: %v", err)
	}

	ctx := context.Background()
	if err := dlq.Add(ctx, testItem{ID: "x", Count: 7}, errors.New("db down")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	items, err := dlq.List(ctx, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(items))
	}
	if items[0].Item.Count != 7 || items[0].Error != "db down" {
		t.Errorf("Unexpected item: %+v", items[0])
	}

	if err := dlq.Remove(ctx, items[0].ID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if err := dlq.Remove(ctx, items[0].ID); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("Expected ErrItemNotFound, got %v", err)
	}
}

func TestRedisQueue_Close(t *testing.T) {
	mr, client := newTestRedis(t)

	q, err := NewRedisQueue[testItem](client, DefaultConfig("test-redis-close"))
	if err != nil {
		t.Fatalf("NewRedisQueue failed: %v", err)
	}
	ctx := context.Background()

	if err := q.Enqueue(ctx, testItem{ID: "kept"}); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	_ = q.Close()

	if err := q.Enqueue(ctx, testItem{ID: "late"}); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("Expected ErrQueueClosed, got %v", err)
	}
	if _, err := q.DequeueWithTimeout(ctx, 10, time.Second); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("Expected ErrQueueClosed, got %v", err)
	}

	pending, _ := mr.List("queue:test-redis-close")
	if len(pending) != 1 {
		t.Errorf("Expected the pending item to stay in Redis, got %v", pending)
	}
}
