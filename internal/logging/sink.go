package logging

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

var (
	// ErrSinkFull is returned when the sink buffer is full and a record is dropped
	ErrSinkFull = errors.New("sink buffer full")

	// ErrSinkClosed is returned after Shutdown
	ErrSinkClosed = errors.New("sink closed")
)

// ReviewRecord is the export line written for every profession review.
type ReviewRecord struct {
	Timestamp  time.Time `json:"timestamp"`
	RunID      string    `json:"run_id"`
	ReportID   string    `json:"report_id"`
	Profession string    `json:"profession"`
	ModelID    string    `json:"model_id"`
	Fallback   bool      `json:"fallback"`
	Reason     string    `json:"reason,omitempty"`
	Error      string    `json:"error,omitempty"`
	ItemCount  int       `json:"item_count"`
	RequestID  string    `json:"request_id,omitempty"`
}

// Sink receives review records for export.
type Sink interface {
	Enqueue(rec *ReviewRecord) error
	Shutdown(ctx context.Context) error
}

// NoopSink discards records. It is used when no export bucket is configured.
type NoopSink struct{}

func NewNoopSink() *NoopSink {
	return &NoopSink{}
}

func (s *NoopSink) Enqueue(rec *ReviewRecord) error {
	return nil
}

func (s *NoopSink) Shutdown(ctx context.Context) error {
	return nil
}

// BatchWriter persists a batch of records and returns where it went.
type BatchWriter interface {
	WriteBatch(ctx context.Context, records []*ReviewRecord) (string, error)
}

// S3SinkConfig configures buffering of the S3 sink
type S3SinkConfig struct {
	BufferSize    int           // records held in memory before Enqueue drops
	FlushSize     int           // batch size that triggers an upload
	FlushInterval time.Duration // upload a partial batch at least this often
}

// DefaultS3SinkConfig returns default buffering settings
func DefaultS3SinkConfig() S3SinkConfig {
	return S3SinkConfig{
		BufferSize:    1000,
		FlushSize:     100,
		FlushInterval: time.Minute,
	}
}

// S3Sink buffers records and uploads them in JSON Lines batches.
type S3Sink struct {
	writer BatchWriter
	config S3SinkConfig
	logger zerolog.Logger

	records chan *ReviewRecord
	done    chan struct{}
	wg      sync.WaitGroup

	mu      sync.RWMutex
	closed  bool
	dropped atomic.Int64
}

// NewS3Sink starts a sink that flushes through writer.
func NewS3Sink(writer BatchWriter, cfg S3SinkConfig, logger zerolog.Logger) *S3Sink {
	def := DefaultS3SinkConfig()
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = def.BufferSize
	}
	if cfg.FlushSize <= 0 {
		cfg.FlushSize = def.FlushSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = def.FlushInterval
	}

	s := &S3Sink{
		writer:  writer,
		config:  cfg,
		logger:  logger.With().Str("component", "s3-sink").Logger(),
		records: make(chan *ReviewRecord, cfg.BufferSize),
		done:    make(chan struct{}),
	}

	s.wg.Add(1)
	go s.run()
	return s
}

// Enqueue buffers a record without blocking.
func (s *S3Sink) Enqueue(rec *ReviewRecord) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrSinkClosed
	}

	select {
	case s.records <- rec:
		return nil
	default:
		s.dropped.Add(1)
		return ErrSinkFull
	}
}

// Shutdown flushes buffered records and stops the sink.
func (s *S3Sink) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.done)

	if dropped := s.dropped.Load(); dropped > 0 {
		s.logger.Warn().Int64("dropped", dropped).Msg("review records dropped because the export buffer was full")
	}

	finished := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *S3Sink) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.FlushInterval)
	defer ticker.Stop()

	batch := make([]*ReviewRecord, 0, s.config.FlushSize)

	for {
		select {
		case rec := <-s.records:
			batch = append(batch, rec)
			if len(batch) >= s.config.FlushSize {
				batch = s.flush(batch)
			}
		case <-ticker.C:
			batch = s.flush(batch)
		case <-s.done:
			for {
				select {
				case rec := <-s.records:
					batch = append(batch, rec)
					if len(batch) >= s.config.FlushSize {
						batch = s.flush(batch)
					}
				default:
					s.flush(batch)
					return
				}
			}
		}
	}
}

// flush uploads batch and returns an empty slice to reuse. A failed upload
// is logged and the batch dropped.
func (s *S3Sink) flush(batch []*ReviewRecord) []*ReviewRecord {
	if len(batch) == 0 {
		return batch
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := s.writer.WriteBatch(ctx, batch); err != nil {
		s.logger.Error().Err(err).Int("count", len(batch)).Msg("failed to export review records")
	}

	return make([]*ReviewRecord, 0, s.config.FlushSize)
}
