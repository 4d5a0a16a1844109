package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// PutObjectAPI is the part of the S3 client the writer needs
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3WriterConfig locates the export bucket
type S3WriterConfig struct {
	Bucket   string
	Region   string
	Prefix   string
	Endpoint string // optional, for S3-compatible stores such as MinIO
	Instance string // written into object names to keep replicas apart
}

// S3Writer handles writing batches of review records to S3
type S3Writer struct {
	client   PutObjectAPI
	bucket   string
	prefix   string
	instance string
	now      func() time.Time
	logger   zerolog.Logger
}

// NewS3Writer creates a writer using the default AWS credential chain
func NewS3Writer(ctx context.Context, cfg S3WriterConfig, logger zerolog.Logger) (*S3Writer, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewS3WriterWithClient(client, cfg, logger), nil
}

// NewS3WriterWithClient creates a writer on an existing client
func NewS3WriterWithClient(client PutObjectAPI, cfg S3WriterConfig, logger zerolog.Logger) *S3Writer {
	instance := cfg.Instance
	if instance == "" {
		instance = "reviewd"
	}

	return &S3Writer{
		client:   client,
		bucket:   cfg.Bucket,
		prefix:   cfg.Prefix,
		instance: instance,
		now:      time.Now,
		logger:   logger.With().Str("component", "s3-writer").Logger(),
	}
}

// WriteBatch writes records to S3 as one JSON Lines object and returns its key.
func (w *S3Writer) WriteBatch(ctx context.Context, records []*ReviewRecord) (string, error) {
	if len(records) == 0 {
		return "", nil
	}

	// Format: reviews/2025/11/30/reviewd-0-20251130-143022-123456789.jsonl
	now := w.now().UTC()
	key := fmt.Sprintf("%s%04d/%02d/%02d/%s-%s-%09d.jsonl",
		w.prefix,
		now.Year(),
		now.Month(),
		now.Day(),
		w.instance,
		now.Format("20060102-150405"),
		now.Nanosecond(),
	)

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	written := 0
	for _, record := range records {
		if err := encoder.Encode(record); err != nil {
			w.logger.Error().Err(err).Msg("failed to encode review record")
			continue
		}
		written++
	}

	_, err := w.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(w.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	w.logger.Info().Str("key", key).Int("count", written).Int("bytes", buf.Len()).Msg("wrote review batch to S3")
	return key, nil
}
