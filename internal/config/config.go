package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds configuration for the review service.
type Config struct {
	HTTPPort        string        `env:"HTTP_PORT" envDefault:"8080"`
	JWTSecret       string        `env:"JWT_SECRET" envDefault:"supersecretkey"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`

	Log      LogConfig
	LLM      LLMConfig
	Health   HealthConfig
	Review   ReviewConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Queue    QueueConfig
	Export   ExportConfig

	// EncryptionKey is a 32-byte hex key for custom model API keys at rest
	EncryptionKey string `env:"ENCRYPTION_KEY"`

	// ModelCatalogFile optionally seeds custom models from YAML at startup
	ModelCatalogFile string `env:"MODEL_CATALOG_FILE"`
}

// LogConfig configures zerolog
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

// LLMConfig points built-in models at an OpenAI-compatible API
type LLMConfig struct {
	BaseURL string `env:"LLM_BASE_URL" envDefault:"https://api.deepseek.com/v1"`
	APIKey  string `env:"LLM_API_KEY"`
}

// HealthConfig holds health checker settings
type HealthConfig struct {
	ProbeTimeout time.Duration `env:"HEALTH_PROBE_TIMEOUT" envDefault:"30s"`
	CacheTTL     time.Duration `env:"HEALTH_CACHE_TTL" envDefault:"5m"`
	CacheSize    int           `env:"HEALTH_CACHE_SIZE" envDefault:"256"`
}

// ReviewConfig holds review orchestrator settings
type ReviewConfig struct {
	Timeout     time.Duration `env:"REVIEW_TIMEOUT" envDefault:"60s"`
	Temperature float32       `env:"REVIEW_TEMPERATURE" envDefault:"0.3"`
	RateLimit   int           `env:"REVIEW_RATE_LIMIT" envDefault:"30"` // reviews per caller per minute, 0 disables
}

// DatabaseConfig holds database connection settings. An empty URL disables
// persistence.
type DatabaseConfig struct {
	URL             string        `env:"DATABASE_URL"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"2"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"5m"`
	ConnMaxIdleTime time.Duration `env:"DB_CONN_MAX_IDLE_TIME" envDefault:"1m"`
}

// RedisConfig holds Redis connection settings. An empty address keeps the
// health cache in memory.
type RedisConfig struct {
	Address  string `env:"REDIS_ADDRESS"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"10"`
}

// QueueConfig configures the review run persistence queue
type QueueConfig struct {
	Backend      string        `env:"REVIEW_QUEUE_BACKEND" envDefault:"memory"` // memory or redis
	BatchSize    int           `env:"REVIEW_QUEUE_BATCH_SIZE" envDefault:"50"`
	BatchTimeout time.Duration `env:"REVIEW_QUEUE_BATCH_TIMEOUT" envDefault:"2s"`
	MaxRetries   int           `env:"REVIEW_QUEUE_MAX_RETRIES" envDefault:"3"`
}

// ExportConfig holds configuration for the S3 review record export
type ExportConfig struct {
	S3Bucket      string        `env:"EXPORT_S3_BUCKET"`
	S3Region      string        `env:"EXPORT_S3_REGION" envDefault:"us-east-1"`
	S3Prefix      string        `env:"EXPORT_S3_PREFIX" envDefault:"reviews/"`
	S3Endpoint    string        `env:"EXPORT_S3_ENDPOINT"`
	BufferSize    int           `env:"EXPORT_BUFFER_SIZE" envDefault:"1000"`
	FlushSize     int           `env:"EXPORT_FLUSH_SIZE" envDefault:"100"`
	FlushInterval time.Duration `env:"EXPORT_FLUSH_INTERVAL" envDefault:"1m"`
	PodName       string        `env:"POD_NAME" envDefault:"reviewd-0"`
}

// Enabled reports whether review records are exported
func (c ExportConfig) Enabled() bool {
	return c.S3Bucket != ""
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	cfg.Database.URL = strings.TrimSpace(cfg.Database.URL)
	cfg.Redis.Address = strings.TrimSpace(cfg.Redis.Address)
	cfg.Export.S3Bucket = strings.TrimSpace(cfg.Export.S3Bucket)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Health.ProbeTimeout <= 0 {
		return fmt.Errorf("HEALTH_PROBE_TIMEOUT must be positive")
	}
	if c.Health.CacheTTL <= 0 {
		return fmt.Errorf("HEALTH_CACHE_TTL must be positive")
	}
	if c.Review.Timeout <= 0 {
		return fmt.Errorf("REVIEW_TIMEOUT must be positive")
	}
	if c.Review.RateLimit < 0 {
		return fmt.Errorf("REVIEW_RATE_LIMIT must not be negative")
	}

	switch c.Queue.Backend {
	case "memory":
	case "redis":
		if c.Redis.Address == "" {
			return fmt.Errorf("REVIEW_QUEUE_BACKEND=redis requires REDIS_ADDRESS")
		}
	default:
		return fmt.Errorf("unsupported REVIEW_QUEUE_BACKEND %q", c.Queue.Backend)
	}

	return nil
}
