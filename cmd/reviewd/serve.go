package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"archreview/internal/httpapi"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	// Backends outlive the signal context so queued runs can still be saved
	// during shutdown.
	a, err := newApp(context.Background(), cfg, logger, true)
	if err != nil {
		return err
	}

	deps := &httpapi.Dependencies{
		Registry:    a.registry,
		Health:      a.checker,
		Reviews:     a.reviews,
		Sink:        a.sink,
		Limiter:     a.limiter,
		ReviewLimit: cfg.Review.RateLimit,
		Metrics:     a.metrics,
		Logger:      logger,
		JWTSecret:   []byte(cfg.JWTSecret),
	}
	deps.Checks = map[string]httpapi.ReadinessCheck{}
	if a.db != nil {
		deps.CustomModels = a.customModels
		deps.Runs = a.runs
		deps.Recorder = a.worker
		deps.RunQueue = a.worker
		deps.Checks["database"] = a.db.Health
	}
	if a.redis != nil {
		deps.Checks["redis"] = a.redis.Health
	}

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      httpapi.NewRouter(deps),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Str("version", version).Msg("reviewd listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			a.close(context.Background())
			return err
		}
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}
	a.close(shutdownCtx)

	logger.Info().Msg("server exited")
	return nil
}
