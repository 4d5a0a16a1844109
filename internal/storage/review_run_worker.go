package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"archreview/internal/models"
	"archreview/internal/queue"
)

// RunSaver stores review runs. ReviewRepository implements it.
type RunSaver interface {
	SaveRun(ctx context.Context, run *models.ReviewRun) error
	SaveRuns(ctx context.Context, runs []*models.ReviewRun) error
}

// ReviewRunWorker drains a queue of review runs into the database in batches
type ReviewRunWorker struct {
	queue       queue.Queue[*models.ReviewRun]
	dlq         queue.DeadLetterQueue[*models.ReviewRun]
	saver       RunSaver
	config      *queue.Config
	logger      zerolog.Logger
	sleep       func(time.Duration)
	stopChan    chan struct{}
	stoppedChan chan struct{}
}

// NewReviewRunWorker creates a new review run worker. dlq may be nil.
func NewReviewRunWorker(q queue.Queue[*models.ReviewRun], dlq queue.DeadLetterQueue[*models.ReviewRun], saver RunSaver, config *queue.Config, logger zerolog.Logger) *ReviewRunWorker {
	if config == nil {
		config = queue.DefaultConfig("review-runs")
	}

	return &ReviewRunWorker{
		queue:       q,
		dlq:         dlq,
		saver:       saver,
		config:      config,
		logger:      logger.With().Str("component", "review-run-worker").Logger(),
		sleep:       time.Sleep,
		stopChan:    make(chan struct{}),
		stoppedChan: make(chan struct{}),
	}
}

// Start starts the worker goroutine
func (w *ReviewRunWorker) Start(ctx context.Context) {
	go w.run(ctx)
}

// Stop stops the worker after the batch in flight
func (w *ReviewRunWorker) Stop() {
	close(w.stopChan)
	<-w.stoppedChan
}

// Drain closes the queue and waits until the worker has saved what the
// queue still buffers. If ctx ends first the worker is stopped.
func (w *ReviewRunWorker) Drain(ctx context.Context) error {
	if err := w.queue.Close(); err != nil {
		return err
	}

	select {
	case <-w.stoppedChan:
		return nil
	case <-ctx.Done():
		w.Stop()
		return ctx.Err()
	}
}

// Enqueue hands a run to the worker
func (w *ReviewRunWorker) Enqueue(ctx context.Context, run *models.ReviewRun) error {
	return w.queue.Enqueue(ctx, run)
}

// QueueLength returns the number of runs waiting to be saved
func (w *ReviewRunWorker) QueueLength(ctx context.Context) (int, error) {
	return w.queue.Length(ctx)
}

func (w *ReviewRunWorker) run(ctx context.Context) {
	defer close(w.stoppedChan)

	for {
		select {
		case <-w.stopChan:
			w.logger.Info().Msg("review run worker stopping")
			return
		case <-ctx.Done():
			w.logger.Info().Msg("review run worker context cancelled")
			return
		default:
			if err := w.processBatch(ctx); errors.Is(err, queue.ErrQueueClosed) {
				w.logger.Info().Msg("review run queue closed")
				return
			}
		}
	}
}

// processBatch saves one batch. A failed batch insert falls back to per-run
// inserts with retries; runs that still fail go to the dead letter queue.
func (w *ReviewRunWorker) processBatch(ctx context.Context) error {
	runs, err := w.queue.DequeueWithTimeout(ctx, w.config.BatchSize, w.config.BatchTimeout)
	if err != nil && !errors.Is(err, queue.ErrQueueClosed) {
		if ctx.Err() == nil {
			w.logger.Error().Err(err).Msg("failed to dequeue review runs")
			w.sleep(time.Second)
		}
		return err
	}

	if len(runs) > 0 {
		w.saveBatch(ctx, runs)
	}
	return err
}

func (w *ReviewRunWorker) saveBatch(ctx context.Context, runs []*models.ReviewRun) {
	w.logger.Debug().Int("count", len(runs)).Msg("saving review run batch")

	err := w.saver.SaveRuns(ctx, runs)
	if err == nil {
		return
	}
	w.logger.Error().Err(err).Msg("failed to save batch, falling back to individual inserts")

	for _, run := range runs {
		if err := w.saveOne(ctx, run); err != nil {
			w.logger.Error().Err(err).Str("run_id", run.ID.String()).Msg("failed to save review run")
		}
	}
}

func (w *ReviewRunWorker) saveOne(ctx context.Context, run *models.ReviewRun) error {
	var lastErr error
	for attempt := 0; attempt <= w.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := w.config.RetryBackoff * time.Duration(1<<uint(attempt-1))
			w.logger.Debug().Int("attempt", attempt).Dur("backoff", backoff).Msg("retrying review run")
			w.sleep(backoff)
		}

		if err := w.saver.SaveRun(ctx, run); err != nil {
			lastErr = err
			continue
		}
		return nil
	}

	if w.dlq != nil {
		if err := w.dlq.Add(ctx, run, lastErr); err != nil {
			w.logger.Error().Err(err).Msg("failed to add to dead letter queue")
		} else {
			w.logger.Warn().Str("run_id", run.ID.String()).Err(lastErr).Msg("review run moved to dead letter queue")
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// DeadLetters lists up to limit runs that could not be saved
func (w *ReviewRunWorker) DeadLetters(ctx context.Context, limit int) ([]queue.DeadLetterItem[*models.ReviewRun], error) {
	if w.dlq == nil {
		return nil, ErrNoDeadLetterQueue
	}
	return w.dlq.List(ctx, limit)
}

// RetryDeadLetterItem re-enqueues a dead letter entry and removes it
func (w *ReviewRunWorker) RetryDeadLetterItem(ctx context.Context, id string) error {
	if w.dlq == nil {
		return ErrNoDeadLetterQueue
	}

	items, err := w.dlq.List(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to list dead letter items: %w", err)
	}

	for _, dlItem := range items {
		if dlItem.ID != id {
			continue
		}
		if err := w.queue.Enqueue(ctx, dlItem.Item); err != nil {
			return fmt.Errorf("failed to re-enqueue item: %w", err)
		}
		if err := w.dlq.Remove(ctx, id); err != nil {
			return fmt.Errorf("failed to remove from dead letter queue: %w", err)
		}
		return nil
	}

	return queue.ErrItemNotFound
}
