// Package httpapi exposes the model registry, health checks and reviews over
// HTTP.
package httpapi

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"archreview/internal/auth"
	"archreview/internal/logging"
	"archreview/internal/metrics"
	"archreview/internal/middleware"
	"archreview/internal/models"
	"archreview/internal/ratelimit"
	"archreview/internal/registry"
)

// HealthChecker probes models and serves cached results.
type HealthChecker interface {
	CheckAllModelsHealth(ctx context.Context) []*models.ModelHealthStatus
	GetModelHealthStatus(ctx context.Context, modelID string, useCache bool) *models.ModelHealthStatus
	Forget(ctx context.Context, modelID string)
}

// Reviewer runs profession reviews of a report.
type Reviewer interface {
	AnalyzeReportWithDiagnostics(ctx context.Context, professions []string, summary, modelID string) []models.ReviewOutcome
}

// CustomModelStore persists custom models across restarts.
type CustomModelStore interface {
	Upsert(ctx context.Context, cfg *models.ModelConfig) error
	Delete(ctx context.Context, modelID string) error
}

// RunStore reads persisted review runs.
type RunStore interface {
	GetRun(ctx context.Context, id uuid.UUID) (*models.ReviewRun, error)
	ListByReport(ctx context.Context, reportID string, limit int) ([]*models.ReviewRun, error)
}

// RunRecorder accepts review runs for asynchronous persistence.
type RunRecorder interface {
	Enqueue(ctx context.Context, run *models.ReviewRun) error
}

// Dependencies aggregates all services the HTTP layer needs. CustomModels,
// Runs, Recorder and RunQueue are optional and nil when no database is
// configured. Checks back the readiness response of /health.
type Dependencies struct {
	Registry     *registry.Manager
	Health       HealthChecker
	Reviews      Reviewer
	CustomModels CustomModelStore
	Runs         RunStore
	Recorder     RunRecorder
	RunQueue     RunQueue
	Checks       map[string]ReadinessCheck
	Sink         logging.Sink
	Limiter      ratelimit.Limiter
	ReviewLimit  int // reviews per caller per window, 0 disables
	Metrics      metrics.Metrics
	Logger       zerolog.Logger
	JWTSecret    []byte
}

// NewRouter registers every route and wraps the mux with request id and
// access log middleware.
func NewRouter(deps *Dependencies) http.Handler {
	if deps.Sink == nil {
		deps.Sink = logging.NewNoopSink()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewNoopMetrics()
	}
	if deps.Limiter == nil {
		deps.Limiter = ratelimit.NewNoopLimiter()
	}

	mux := http.NewServeMux()
	registerRoutes(mux, deps)

	return middleware.RequestID(middleware.AccessLog(deps.Logger, deps.Metrics)(mux))
}

func registerRoutes(mux *http.ServeMux, deps *Dependencies) {
	viewer := middleware.AdminJWTMiddleware(deps.JWTSecret, auth.RoleViewer)
	admin := middleware.AdminJWTMiddleware(deps.JWTSecret, auth.RoleAdmin)

	mux.HandleFunc("GET /health", deps.handleReadiness)
	mux.Handle("GET /metrics", deps.Metrics.HTTPHandler())

	// Model registry
	mux.Handle("GET /api/models", viewer(http.HandlerFunc(deps.handleListModels)))
	mux.Handle("GET /api/models/default", viewer(http.HandlerFunc(deps.handleGetDefaultModel)))
	mux.Handle("PUT /api/models/default", admin(http.HandlerFunc(deps.handleSetDefaultModel)))
	mux.Handle("GET /api/models/{id}", viewer(http.HandlerFunc(deps.handleGetModel)))
	mux.Handle("PATCH /api/models/{id}", admin(http.HandlerFunc(deps.handleUpdateModel)))
	mux.Handle("POST /api/models/custom", admin(http.HandlerFunc(deps.handleAddCustomModel)))
	mux.Handle("DELETE /api/models/custom/{id}", admin(http.HandlerFunc(deps.handleDeleteCustomModel)))

	// Health
	mux.Handle("GET /api/models/health", viewer(http.HandlerFunc(deps.handleAllModelsHealth)))
	mux.Handle("GET /api/models/{id}/health", viewer(http.HandlerFunc(deps.handleModelHealth)))

	// Reviews
	mux.Handle("POST /api/reviews", viewer(deps.rateLimited(http.HandlerFunc(deps.handleCreateReview))))
	mux.Handle("GET /api/reviews/{id}", viewer(http.HandlerFunc(deps.handleGetReview)))
	mux.Handle("GET /api/reports/{reportId}/reviews", viewer(http.HandlerFunc(deps.handleListReportReviews)))
	mux.Handle("GET /api/reviews/dead-letters", admin(http.HandlerFunc(deps.handleListDeadLetters)))
	mux.Handle("POST /api/reviews/dead-letters/{id}/retry", admin(http.HandlerFunc(deps.handleRetryDeadLetter)))
}
