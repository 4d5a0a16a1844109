// Package health probes models and caches their availability.
package health

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"archreview/internal/metrics"
	"archreview/internal/models"
	"archreview/internal/providers"
	"archreview/internal/registry"
)

const (
	// DefaultProbeTimeout bounds a single probe
	DefaultProbeTimeout = 30 * time.Second

	// DefaultCacheTTL is how long a probe result is served from cache
	DefaultCacheTTL = 5 * time.Minute

	probePrompt    = "Reply with one short sentence confirming that the model is available."
	probeMaxTokens = 16

	batchFailedMessage = "health check batch failed"
)

// Resolver maps a model id to the client that reaches it.
type Resolver interface {
	Resolve(modelID string) (*providers.Target, error)
}

// ModelLister lists the ids currently registered.
type ModelLister interface {
	IDs() []string
}

// Checker runs health probes. It is safe for concurrent use.
type Checker struct {
	resolver Resolver
	models   ModelLister
	cache    Cache
	timeout  time.Duration
	metrics  metrics.Metrics
	logger   zerolog.Logger
	now      func() time.Time
}

// NewChecker creates a health checker. A zero timeout selects
// DefaultProbeTimeout; a nil cache an unbounded in-memory cache with
// DefaultCacheTTL.
func NewChecker(resolver Resolver, lister ModelLister, cache Cache, m metrics.Metrics, logger zerolog.Logger, timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	if cache == nil {
		cache = NewMemoryCache(0, DefaultCacheTTL)
	}
	if m == nil {
		m = metrics.NewNoopMetrics()
	}

	return &Checker{
		resolver: resolver,
		models:   lister,
		cache:    cache,
		timeout:  timeout,
		metrics:  m,
		logger:   logger.With().Str("component", "health").Logger(),
		now:      time.Now,
	}
}

// CheckModelHealth probes one model. Failures are folded into the returned
// status; the result is not cached.
func (c *Checker) CheckModelHealth(ctx context.Context, modelID string) *models.ModelHealthStatus {
	start := c.now()
	status := &models.ModelHealthStatus{
		ModelID:     modelID,
		Name:        modelID,
		LastChecked: start,
	}

	err := c.probe(ctx, modelID, status)
	status.ResponseTime = c.now().Sub(start).Milliseconds()

	if err != nil {
		code, msg := Classify(err)
		status.Available = false
		status.ErrorCode = code
		status.Error = msg
		status.ErrorDetails = err.Error()

		c.logger.Warn().
			Str("model_id", modelID).
			Str("error_code", code.String()).
			Int64("response_time_ms", status.ResponseTime).
			Err(err).
			Msg("model health probe failed")
	} else {
		status.Available = true

		c.logger.Debug().
			Str("model_id", modelID).
			Int64("response_time_ms", status.ResponseTime).
			Msg("model available")
	}

	c.metrics.ObserveHealthProbe(status)
	return status
}

func (c *Checker) probe(ctx context.Context, modelID string, status *models.ModelHealthStatus) error {
	target, err := c.resolver.Resolve(modelID)
	if target != nil {
		if target.Name != "" {
			status.Name = target.Name
		}
		status.IsCustom = target.IsCustom
	}
	if err != nil {
		return err
	}

	req := providers.ChatRequest{
		Model:     target.Model,
		Messages:  []providers.Message{{Role: providers.RoleUser, Content: probePrompt}},
		MaxTokens: probeMaxTokens,
	}

	_, err = providers.ChatWithTimeout(ctx, target.Client, req, c.timeout)
	return err
}

// CheckAllModelsHealth probes every built-in and registered model in
// parallel and caches the results under one shared timestamp. If the batch
// itself fails every model is reported unavailable.
func (c *Checker) CheckAllModelsHealth(ctx context.Context) []*models.ModelHealthStatus {
	ids := c.modelIDs()
	results := make([]*models.ModelHealthStatus, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("health probe for %s panicked: %v", id, r)
				}
			}()
			results[i] = c.CheckModelHealth(gctx, id)
			return nil
		})
	}

	err := g.Wait()
	ts := c.now()

	if err != nil {
		c.logger.Error().Err(err).Int("models", len(ids)).Msg(batchFailedMessage)
		for i, id := range ids {
			results[i] = &models.ModelHealthStatus{
				ModelID:     id,
				Name:        id,
				Available:   false,
				LastChecked: ts,
				Error:       batchFailedMessage,
				ErrorCode:   models.ErrorCodeUnknown,
				IsCustom:    !registry.IsBuiltIn(id),
			}
		}
		return results
	}

	for _, status := range results {
		status.LastChecked = ts
		if ctx.Err() != nil {
			continue
		}
		if err := c.cache.Set(ctx, status); err != nil {
			c.logger.Warn().Err(err).Str("model_id", status.ModelID).Msg("failed to cache health status")
		}
	}

	return results
}

// GetModelHealthStatus returns the cached status when useCache is set and a
// fresh entry exists; otherwise it probes and refreshes the cache. Probes
// cut short by ctx are not cached.
func (c *Checker) GetModelHealthStatus(ctx context.Context, modelID string, useCache bool) *models.ModelHealthStatus {
	if useCache {
		if status, ok := c.cache.Get(ctx, modelID); ok {
			return status
		}
	}

	status := c.CheckModelHealth(ctx, modelID)
	if ctx.Err() != nil {
		return status
	}
	if err := c.cache.Set(ctx, status); err != nil {
		c.logger.Warn().Err(err).Str("model_id", modelID).Msg("failed to cache health status")
	}
	return status
}

// Forget drops the cached status of a model, used when it is deleted.
func (c *Checker) Forget(ctx context.Context, modelID string) {
	if err := c.cache.Delete(ctx, modelID); err != nil {
		c.logger.Warn().Err(err).Str("model_id", modelID).Msg("failed to drop cached health status")
	}
}

// modelIDs is the union of the built-in catalog and the registry, built-ins
// first.
func (c *Checker) modelIDs() []string {
	seen := make(map[string]struct{})
	var ids []string

	add := func(id string) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	for _, b := range registry.BuiltInModels() {
		add(b.ID)
	}
	if c.models != nil {
		for _, id := range c.models.IDs() {
			add(id)
		}
	}
	return ids
}
