package storage

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(DefaultRedisConfig(mr.Addr()))
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()
	assert.NoError(t, client.Health(ctx))
	require.NoError(t, client.Client().Set(ctx, "k", "v", 0).Err())
	assert.Equal(t, "v", client.Client().Get(ctx, "k").Val())

	mr.Close()
	assert.Error(t, client.Health(ctx))
}

func TestRedisClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := DefaultRedisConfig(addr)
	cfg.MaxRetries = 0
	_, err := NewRedisClient(cfg)
	assert.Error(t, err)
}
