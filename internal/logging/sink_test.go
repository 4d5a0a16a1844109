package logging

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBatchWriter struct {
	mu      sync.Mutex
	batches [][]*ReviewRecord
	err     error
}

func (w *fakeBatchWriter) WriteBatch(ctx context.Context, records []*ReviewRecord) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return "", w.err
	}
	w.batches = append(w.batches, append([]*ReviewRecord(nil), records...))
	return "key", nil
}

func (w *fakeBatchWriter) total() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, b := range w.batches {
		n += len(b)
	}
	return n
}

func (w *fakeBatchWriter) batchCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.batches)
}

func record(profession string) *ReviewRecord {
	return &ReviewRecord{Timestamp: time.Now(), RunID: "run-1", Profession: profession, ModelID: "deepseek-v3"}
}

func TestNoopSink(t *testing.T) {
	sink := NewNoopSink()
	assert.NoError(t, sink.Enqueue(record("hvac")))
	assert.NoError(t, sink.Shutdown(context.Background()))
}

func TestS3Sink_FlushOnSize(t *testing.T) {
	writer := &fakeBatchWriter{}
	sink := NewS3Sink(writer, S3SinkConfig{BufferSize: 100, FlushSize: 3, FlushInterval: time.Hour}, zerolog.Nop())

	for _, p := range []string{"architecture", "structure", "plumbing"} {
		require.NoError(t, sink.Enqueue(record(p)))
	}

	assert.Eventually(t, func() bool { return writer.batchCount() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, sink.Shutdown(context.Background()))
	assert.Equal(t, 3, writer.total())
}

func TestS3Sink_FlushOnInterval(t *testing.T) {
	writer := &fakeBatchWriter{}
	sink := NewS3Sink(writer, S3SinkConfig{BufferSize: 100, FlushSize: 100, FlushInterval: 20 * time.Millisecond}, zerolog.Nop())
	defer sink.Shutdown(context.Background())

	require.NoError(t, sink.Enqueue(record("hvac")))
	assert.Eventually(t, func() bool { return writer.total() == 1 }, time.Second, 5*time.Millisecond)
}

func TestS3Sink_ShutdownDrains(t *testing.T) {
	writer := &fakeBatchWriter{}
	sink := NewS3Sink(writer, S3SinkConfig{BufferSize: 100, FlushSize: 100, FlushInterval: time.Hour}, zerolog.Nop())

	for i := 0; i < 5; i++ {
		require.NoError(t, sink.Enqueue(record("electrical")))
	}
	require.NoError(t, sink.Shutdown(context.Background()))
	assert.Equal(t, 5, writer.total())

	assert.ErrorIs(t, sink.Enqueue(record("hvac")), ErrSinkClosed)
	assert.NoError(t, sink.Shutdown(context.Background()), "second shutdown is a no-op")
}

func TestS3Sink_WriterErrorDropsBatch(t *testing.T) {
	writer := &fakeBatchWriter{err: errors.New("s3 down")}
	sink := NewS3Sink(writer, S3SinkConfig{BufferSize: 10, FlushSize: 1, FlushInterval: time.Hour}, zerolog.Nop())

	require.NoError(t, sink.Enqueue(record("hvac")))
	require.NoError(t, sink.Shutdown(context.Background()))
	assert.Equal(t, 0, writer.total())
}

func TestS3Sink_BufferFull(t *testing.T) {
	block := make(chan struct{})
	writer := &blockingWriter{release: block, started: make(chan struct{})}
	sink := NewS3Sink(writer, S3SinkConfig{BufferSize: 1, FlushSize: 1, FlushInterval: time.Hour}, zerolog.Nop())

	// the first record is taken by the worker, which then blocks in WriteBatch
	require.NoError(t, sink.Enqueue(record("a")))
	<-writer.started

	require.NoError(t, sink.Enqueue(record("b")))
	assert.ErrorIs(t, sink.Enqueue(record("c")), ErrSinkFull)
	assert.Equal(t, int64(1), sink.dropped.Load())

	close(block)
	require.NoError(t, sink.Shutdown(context.Background()))
}

type blockingWriter struct {
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func (w *blockingWriter) WriteBatch(ctx context.Context, records []*ReviewRecord) (string, error) {
	w.once.Do(func() { close(w.started) })
	<-w.release
	return "", nil
}
