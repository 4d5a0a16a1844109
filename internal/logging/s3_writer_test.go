package logging

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	inputs []*s3.PutObjectInput
	bodies [][]byte
	err    error
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.inputs = append(f.inputs, params)
	f.bodies = append(f.bodies, body)
	return &s3.PutObjectOutput{}, nil
}

func TestS3Writer_WriteBatch(t *testing.T) {
	client := &fakeS3{}
	w := NewS3WriterWithClient(client, S3WriterConfig{Bucket: "exports", Prefix: "reviews/", Instance: "reviewd-0"}, zerolog.Nop())
	w.now = func() time.Time { return time.Date(2025, 11, 30, 14, 30, 22, 123, time.UTC) }

	key, err := w.WriteBatch(context.Background(), []*ReviewRecord{
		{RunID: "r1", Profession: "structure", ModelID: "deepseek-v3", ItemCount: 6},
		{RunID: "r1", Profession: "hvac", ModelID: "deepseek-v3", Fallback: true, Reason: "no_json"},
	})
	require.NoError(t, err)
	assert.Equal(t, "reviews/2025/11/30/reviewd-0-20251130-143022-000000123.jsonl", key)

	require.Len(t, client.inputs, 1)
	in := client.inputs[0]
	assert.Equal(t, "exports", aws.ToString(in.Bucket))
	assert.Equal(t, key, aws.ToString(in.Key))
	assert.Equal(t, "application/x-ndjson", aws.ToString(in.ContentType))

	var lines []ReviewRecord
	scanner := bufio.NewScanner(bytes.NewReader(client.bodies[0]))
	for scanner.Scan() {
		var rec ReviewRecord
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		lines = append(lines, rec)
	}
	require.Len(t, lines, 2)
	assert.Equal(t, "structure", lines[0].Profession)
	assert.True(t, lines[1].Fallback)
}

func TestS3Writer_EmptyAndErrors(t *testing.T) {
	client := &fakeS3{}
	w := NewS3WriterWithClient(client, S3WriterConfig{Bucket: "exports"}, zerolog.Nop())

	key, err := w.WriteBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, key)
	assert.Empty(t, client.inputs)

	client.err = errors.New("access denied")
	_, err = w.WriteBatch(context.Background(), []*ReviewRecord{{RunID: "r"}})
	assert.ErrorContains(t, err, "access denied")
}

func TestNewS3Writer_RequiresBucket(t *testing.T) {
	_, err := NewS3Writer(context.Background(), S3WriterConfig{Region: "us-east-1"}, zerolog.Nop())
	assert.Error(t, err)
}
