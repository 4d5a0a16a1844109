package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "https://api.deepseek.com/v1", cfg.LLM.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Health.ProbeTimeout)
	assert.Equal(t, 5*time.Minute, cfg.Health.CacheTTL)
	assert.Equal(t, 256, cfg.Health.CacheSize)
	assert.Equal(t, 60*time.Second, cfg.Review.Timeout)
	assert.InDelta(t, 0.3, cfg.Review.Temperature, 1e-6)
	assert.Equal(t, 30, cfg.Review.RateLimit)
	assert.Equal(t, "memory", cfg.Queue.Backend)
	assert.Equal(t, "reviews/", cfg.Export.S3Prefix)
	assert.False(t, cfg.Export.Enabled())
	assert.Empty(t, cfg.Database.URL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("HEALTH_CACHE_TTL", "90s")
	t.Setenv("REVIEW_TEMPERATURE", "0.7")
	t.Setenv("DATABASE_URL", "  postgres://localhost/archreview  ")
	t.Setenv("EXPORT_S3_BUCKET", "exports")
	t.Setenv("REDIS_ADDRESS", "localhost:6379")
	t.Setenv("REVIEW_QUEUE_BACKEND", "redis")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, 90*time.Second, cfg.Health.CacheTTL)
	assert.InDelta(t, 0.7, cfg.Review.Temperature, 1e-6)
	assert.Equal(t, "postgres://localhost/archreview", cfg.Database.URL)
	assert.True(t, cfg.Export.Enabled())
	assert.Equal(t, "redis", cfg.Queue.Backend)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"bad duration":           {"HEALTH_PROBE_TIMEOUT": "soon"},
		"zero timeout":           {"REVIEW_TIMEOUT": "0s"},
		"negative rate limit":    {"REVIEW_RATE_LIMIT": "-1"},
		"unknown queue backend":  {"REVIEW_QUEUE_BACKEND": "kafka"},
		"redis queue w/o redis":  {"REVIEW_QUEUE_BACKEND": "redis"},
		"non numeric cache size": {"HEALTH_CACHE_SIZE": "lots"},
	}

	for name, vars := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range vars {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
