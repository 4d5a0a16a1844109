package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archreview/internal/models"
	"archreview/internal/queue"
)

func fixedNow() time.Time {
	return time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
}

type fakeSaver struct {
	mu         sync.Mutex
	batchErr   error
	failures   map[uuid.UUID]int // remaining failures per run
	saved      []uuid.UUID
	batchCalls int
}

func (s *fakeSaver) SaveRuns(ctx context.Context, runs []*models.ReviewRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batchCalls++
	if s.batchErr != nil {
		return s.batchErr
	}
	for _, r := range runs {
		s.saved = append(s.saved, r.ID)
	}
	return nil
}

func (s *fakeSaver) SaveRun(ctx context.Context, run *models.ReviewRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures[run.ID] > 0 {
		s.failures[run.ID]--
		return errors.New("insert failed")
	}
	s.saved = append(s.saved, run.ID)
	return nil
}

func (s *fakeSaver) savedIDs() []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uuid.UUID(nil), s.saved...)
}

func newRun() *models.ReviewRun {
	return &models.ReviewRun{ID: uuid.New(), ReportID: "r-1", ModelID: "deepseek-v3", CreatedAt: fixedNow()}
}

func newTestWorker(saver RunSaver) (*ReviewRunWorker, *queue.MemoryQueue[*models.ReviewRun], *queue.MemoryDeadLetterQueue[*models.ReviewRun]) {
	cfg := queue.DefaultConfig("test")
	cfg.BatchTimeout = 20 * time.Millisecond
	q := queue.NewMemoryQueue[*models.ReviewRun](cfg)
	dlq := queue.NewMemoryDeadLetterQueue[*models.ReviewRun]()
	w := NewReviewRunWorker(q, dlq, saver, cfg, zerolog.Nop())
	w.sleep = func(time.Duration) {}
	return w, q, dlq
}

func TestReviewRunWorker_SavesBatch(t *testing.T) {
	saver := &fakeSaver{}
	w, _, _ := newTestWorker(saver)
	ctx := context.Background()

	runs := []*models.ReviewRun{newRun(), newRun(), newRun()}
	for _, r := range runs {
		require.NoError(t, w.Enqueue(ctx, r))
	}

	require.NoError(t, w.processBatch(ctx))

	assert.Len(t, saver.savedIDs(), 3)
	assert.Equal(t, 1, saver.batchCalls)
	n, _ := w.QueueLength(ctx)
	assert.Equal(t, 0, n)
}

func TestReviewRunWorker_FallbackAndDeadLetter(t *testing.T) {
	ok, flaky, broken := newRun(), newRun(), newRun()
	saver := &fakeSaver{
		batchErr: errors.New("tx failed"),
		failures: map[uuid.UUID]int{flaky.ID: 2, broken.ID: 100},
	}
	w, _, dlq := newTestWorker(saver)
	ctx := context.Background()

	for _, r := range []*models.ReviewRun{ok, flaky, broken} {
		require.NoError(t, w.Enqueue(ctx, r))
	}
	require.NoError(t, w.processBatch(ctx))

	assert.ElementsMatch(t, []uuid.UUID{ok.ID, flaky.ID}, saver.savedIDs())

	items, err := w.DeadLetters(ctx, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, broken.ID, items[0].Item.ID)
	assert.Equal(t, "insert failed", items[0].Error)

	t.Run("retry dead letter item", func(t *testing.T) {
		require.NoError(t, w.RetryDeadLetterItem(ctx, items[0].ID))
		left, _ := dlq.List(ctx, 0)
		assert.Empty(t, left)
		n, _ := w.QueueLength(ctx)
		assert.Equal(t, 1, n)

		assert.ErrorIs(t, w.RetryDeadLetterItem(ctx, "missing"), queue.ErrItemNotFound)
	})
}

func TestReviewRunWorker_WithoutDeadLetterQueue(t *testing.T) {
	cfg := queue.DefaultConfig("test")
	w := NewReviewRunWorker(queue.NewMemoryQueue[*models.ReviewRun](cfg), nil, &fakeSaver{}, cfg, zerolog.Nop())
	ctx := context.Background()

	_, err := w.DeadLetters(ctx, 10)
	assert.ErrorIs(t, err, ErrNoDeadLetterQueue)
	assert.ErrorIs(t, w.RetryDeadLetterItem(ctx, "any"), ErrNoDeadLetterQueue)
}

func TestReviewRunWorker_StartStop(t *testing.T) {
	saver := &fakeSaver{}
	w, _, _ := newTestWorker(saver)
	ctx := context.Background()

	w.Start(ctx)
	run := newRun()
	require.NoError(t, w.Enqueue(ctx, run))

	assert.Eventually(t, func() bool {
		return len(saver.savedIDs()) == 1
	}, time.Second, 10*time.Millisecond)

	w.Stop()
}

func TestReviewRunWorker_StopsWhenQueueClosed(t *testing.T) {
	saver := &fakeSaver{}
	w, q, _ := newTestWorker(saver)
	ctx := context.Background()

	require.NoError(t, w.Enqueue(ctx, newRun()))
	require.NoError(t, q.Close())

	w.Start(ctx)
	select {
	case <-w.stoppedChan:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after the queue closed")
	}
	assert.Len(t, saver.savedIDs(), 1, "pending runs are drained before stopping")
}

func TestReviewRunWorker_Drain(t *testing.T) {
	saver := &fakeSaver{}
	w, _, _ := newTestWorker(saver)
	ctx := context.Background()

	w.Start(ctx)
	for i := 0; i < 5; i++ {
		require.NoError(t, w.Enqueue(ctx, newRun()))
	}

	drainCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	require.NoError(t, w.Drain(drainCtx))

	assert.Len(t, saver.savedIDs(), 5)
	assert.ErrorIs(t, w.Enqueue(ctx, newRun()), queue.ErrQueueClosed)
}
