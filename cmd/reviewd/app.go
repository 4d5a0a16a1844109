package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"archreview/internal/config"
	"archreview/internal/health"
	"archreview/internal/logging"
	"archreview/internal/metrics"
	"archreview/internal/models"
	"archreview/internal/providers"
	"archreview/internal/queue"
	"archreview/internal/ratelimit"
	"archreview/internal/registry"
	"archreview/internal/review"
	"archreview/internal/storage"
)

// app holds every long-lived component built from the configuration.
// Optional parts are nil when their backing service is not configured.
type app struct {
	cfg      *config.Config
	logger   zerolog.Logger
	metrics  *metrics.PrometheusMetrics
	registry *registry.Manager
	factory  *providers.Factory
	checker  *health.Checker
	reviews  *review.Orchestrator

	db           *storage.DB
	redis        *storage.RedisClient
	customModels *storage.CustomModelRepository
	runs         *storage.ReviewRepository
	worker       *storage.ReviewRunWorker
	sink         logging.Sink
	limiter      ratelimit.Limiter
}

// newApp wires the registry, providers and checker. Databases, Redis and
// the export sink are connected only when withBackends is set.
func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger, withBackends bool) (*app, error) {
	a := &app{
		cfg:      cfg,
		logger:   logger,
		metrics:  metrics.NewPrometheusMetrics(),
		registry: registry.NewManager(logger),
		sink:     logging.NewNoopSink(),
		limiter:  ratelimit.NewMemoryLimiter(),
	}

	if cfg.ModelCatalogFile != "" {
		added, err := a.registry.LoadCatalogFile(cfg.ModelCatalogFile)
		if err != nil {
			return nil, err
		}
		logger.Info().Int("models", added).Str("file", cfg.ModelCatalogFile).Msg("model catalog loaded")
	}

	if withBackends {
		if err := a.connectBackends(ctx); err != nil {
			a.close(ctx)
			return nil, err
		}
	}

	builtIn := providers.NewOpenAIProvider(providers.OpenAIConfig{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
	})
	a.factory = providers.NewFactory(builtIn, a.registry, nil)

	var cache health.Cache = health.NewMemoryCache(cfg.Health.CacheSize, cfg.Health.CacheTTL)
	if a.redis != nil {
		a.limiter = ratelimit.NewRateLimiter(a.redis.Client())
		cache = health.NewRedisCache(a.redis.Client(), cfg.Health.CacheTTL)
	}
	a.checker = health.NewChecker(a.factory, a.registry, cache, a.metrics, logger, cfg.Health.ProbeTimeout)

	a.reviews = review.NewOrchestrator(a.factory, a.registry, review.Config{
		Timeout:     cfg.Review.Timeout,
		Temperature: cfg.Review.Temperature,
	}, a.metrics, logger)

	return a, nil
}

func (a *app) connectBackends(ctx context.Context) error {
	cfg := a.cfg

	if cfg.Redis.Address != "" {
		redisCfg := storage.DefaultRedisConfig(cfg.Redis.Address)
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize

		client, err := storage.NewRedisClient(redisCfg)
		if err != nil {
			return fmt.Errorf("failed to initialize Redis: %w", err)
		}
		a.redis = client
	}

	if cfg.Database.URL != "" {
		dbCfg := storage.DefaultDBConfig(cfg.Database.URL)
		dbCfg.MaxOpenConns = cfg.Database.MaxOpenConns
		dbCfg.MaxIdleConns = cfg.Database.MaxIdleConns
		dbCfg.ConnMaxLifetime = cfg.Database.ConnMaxLifetime
		dbCfg.ConnMaxIdleTime = cfg.Database.ConnMaxIdleTime

		db, err := storage.NewDB(dbCfg)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		a.db = db

		if err := db.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}

		var enc *storage.Encryption
		if cfg.EncryptionKey != "" {
			enc, err = storage.NewEncryptionFromHex(cfg.EncryptionKey)
			if err != nil {
				return fmt.Errorf("failed to initialize encryption: %w", err)
			}
		} else {
			a.logger.Warn().Msg("ENCRYPTION_KEY not set, custom model API keys will not be persisted (generate one with reviewd keygen)")
		}

		a.customModels = db.NewCustomModelRepository(enc)
		a.runs = db.NewReviewRepository()

		persisted, err := a.customModels.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to load custom models: %w", err)
		}
		restored := a.registry.Restore(persisted)
		a.logger.Info().Int("models", restored).Msg("custom models restored")

		if err := a.startWorker(ctx); err != nil {
			return err
		}
	}

	if cfg.Export.Enabled() {
		writer, err := logging.NewS3Writer(ctx, logging.S3WriterConfig{
			Bucket:   cfg.Export.S3Bucket,
			Region:   cfg.Export.S3Region,
			Prefix:   cfg.Export.S3Prefix,
			Endpoint: cfg.Export.S3Endpoint,
			Instance: cfg.Export.PodName,
		}, a.logger)
		if err != nil {
			return fmt.Errorf("failed to initialize S3 export: %w", err)
		}
		a.sink = logging.NewS3Sink(writer, logging.S3SinkConfig{
			BufferSize:    cfg.Export.BufferSize,
			FlushSize:     cfg.Export.FlushSize,
			FlushInterval: cfg.Export.FlushInterval,
		}, a.logger)
	}

	return nil
}

func (a *app) startWorker(ctx context.Context) error {
	qcfg := queue.DefaultConfig("review_runs")
	qcfg.BatchSize = a.cfg.Queue.BatchSize
	qcfg.BatchTimeout = a.cfg.Queue.BatchTimeout
	qcfg.MaxRetries = a.cfg.Queue.MaxRetries

	var (
		q   queue.Queue[*models.ReviewRun]
		dlq queue.DeadLetterQueue[*models.ReviewRun]
	)
	switch a.cfg.Queue.Backend {
	case "redis":
		if a.redis == nil {
			return errors.New("redis queue backend requires REDIS_ADDRESS")
		}
		rq, err := queue.NewRedisQueue[*models.ReviewRun](a.redis.Client(), qcfg)
		if err != nil {
			return fmt.Errorf("failed to create review queue: %w", err)
		}
		rdlq, err := queue.NewRedisDeadLetterQueue[*models.ReviewRun](a.redis.Client(), qcfg)
		if err != nil {
			return fmt.Errorf("failed to create dead letter queue: %w", err)
		}
		q, dlq = rq, rdlq
	default:
		q = queue.NewMemoryQueue[*models.ReviewRun](qcfg)
		dlq = queue.NewMemoryDeadLetterQueue[*models.ReviewRun]()
	}

	a.worker = storage.NewReviewRunWorker(q, dlq, a.runs, qcfg, a.logger)
	a.worker.Start(ctx)
	return nil
}

// close releases resources in reverse order of creation.
func (a *app) close(ctx context.Context) {
	if a.sink != nil {
		if err := a.sink.Shutdown(ctx); err != nil {
			a.logger.Error().Err(err).Msg("failed to shutdown export sink")
		}
	}
	if a.worker != nil {
		if err := a.worker.Drain(ctx); err != nil {
			a.logger.Error().Err(err).Msg("review run queue not fully drained")
		}
	}
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		a.redis.Close()
	}
}

func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, logger, nil
}
