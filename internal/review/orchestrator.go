// Package review runs profession-specific AI reviews of report summaries.
package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"archreview/internal/metrics"
	"archreview/internal/models"
	"archreview/internal/providers"
)

const (
	// DefaultTimeout bounds one profession call
	DefaultTimeout = 60 * time.Second

	// DefaultTemperature is sent with every review request
	DefaultTemperature float32 = 0.3
)

// Diagnostic reasons attached to fallback results.
const (
	ReasonModelUnavailable = "model_unavailable"
	ReasonInvocationFailed = "invocation_failed"
	ReasonNoJSON           = "no_json"
	ReasonInvalidResponse  = "invalid_response"
)

// ErrUnknownProfession is returned for a profession without a prompt.
var ErrUnknownProfession = errors.New("unknown profession")

// Resolver maps a model id to the client that reaches it.
type Resolver interface {
	Resolve(modelID string) (*providers.Target, error)
}

// DefaultModeler names the model used when none is requested.
type DefaultModeler interface {
	GetDefaultModel() string
}

// Config tunes the orchestrator
type Config struct {
	Timeout     time.Duration
	Temperature float32
}

// Orchestrator fans report reviews out to the model, one call per profession.
type Orchestrator struct {
	resolver Resolver
	defaults DefaultModeler
	config   Config
	metrics  metrics.Metrics
	logger   zerolog.Logger
}

// NewOrchestrator creates an orchestrator. Zero config values select the
// package defaults.
func NewOrchestrator(resolver Resolver, defaults DefaultModeler, cfg Config, m metrics.Metrics, logger zerolog.Logger) *Orchestrator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = DefaultTemperature
	}
	if m == nil {
		m = metrics.NewNoopMetrics()
	}

	return &Orchestrator{
		resolver: resolver,
		defaults: defaults,
		config:   cfg,
		metrics:  m,
		logger:   logger.With().Str("component", "review").Logger(),
	}
}

// AnalyzeProfession reviews summary for one profession. Model failures
// degrade to the fallback result; only an unknown profession is an error.
func (o *Orchestrator) AnalyzeProfession(ctx context.Context, profession, summary, modelID string) (models.ReviewResult, error) {
	outcome, err := o.AnalyzeProfessionWithDiagnostics(ctx, profession, summary, modelID)
	return outcome.Result, err
}

// AnalyzeProfessionWithDiagnostics is AnalyzeProfession plus the reason a
// fallback was used, if it was.
func (o *Orchestrator) AnalyzeProfessionWithDiagnostics(ctx context.Context, profession, summary, modelID string) (models.ReviewOutcome, error) {
	p, ok := LookupProfession(profession)
	if !ok {
		return models.ReviewOutcome{}, fmt.Errorf("%w: %q", ErrUnknownProfession, profession)
	}

	if modelID == "" && o.defaults != nil {
		modelID = o.defaults.GetDefaultModel()
	}

	result, reason, err := o.review(ctx, p, summary, modelID)
	if err != nil {
		o.logger.Warn().
			Str("profession", p.ID).
			Str("model", modelID).
			Str("reason", reason).
			Err(err).
			Msg("AI review failed, using fallback")
		o.metrics.ObserveReview(p.ID, true)

		return models.ReviewOutcome{
			Result:     fallbackResult(p),
			Diagnostic: &models.ReviewDiagnostic{Reason: reason, Error: err.Error()},
		}, nil
	}

	o.metrics.ObserveReview(p.ID, false)
	return models.ReviewOutcome{Result: result}, nil
}

// review performs the model call; a non-nil error comes with its reason.
func (o *Orchestrator) review(ctx context.Context, p Profession, summary, modelID string) (models.ReviewResult, string, error) {
	target, err := o.resolver.Resolve(modelID)
	if err != nil {
		return models.ReviewResult{}, ReasonModelUnavailable, err
	}

	req := providers.ChatRequest{
		Model: target.Model,
		Messages: []providers.Message{
			{Role: providers.RoleSystem, Content: p.SystemPrompt},
			{Role: providers.RoleUser, Content: buildUserPrompt(p, summary)},
		},
		Temperature: o.config.Temperature,
		Thinking:    target.Thinking,
	}

	resp, err := providers.ChatWithTimeout(ctx, target.Client, req, o.config.Timeout)
	if err != nil {
		return models.ReviewResult{}, ReasonInvocationFailed, err
	}

	result, err := parseReview(p, resp.Content)
	if err != nil {
		if errors.Is(err, errNoJSON) {
			return models.ReviewResult{}, ReasonNoJSON, err
		}
		return models.ReviewResult{}, ReasonInvalidResponse, err
	}

	return result, "", nil
}

// AnalyzeReport reviews summary for every profession, results in input order.
func (o *Orchestrator) AnalyzeReport(ctx context.Context, professions []string, summary, modelID string) []models.ReviewResult {
	outcomes := o.AnalyzeReportWithDiagnostics(ctx, professions, summary, modelID)
	results := make([]models.ReviewResult, len(outcomes))
	for i, outcome := range outcomes {
		results[i] = outcome.Result
	}
	return results
}

// AnalyzeReportWithDiagnostics runs all professions concurrently. If the
// batch fails as a whole the professions are retried one by one and those
// that fail again are left out, so the result may be shorter than the input.
func (o *Orchestrator) AnalyzeReportWithDiagnostics(ctx context.Context, professions []string, summary, modelID string) []models.ReviewOutcome {
	outcomes := make([]models.ReviewOutcome, len(professions))

	g, gctx := errgroup.WithContext(ctx)
	for i, profession := range professions {
		g.Go(func() (err error) {
			defer recoverInto(&err, profession)
			outcomes[i], err = o.AnalyzeProfessionWithDiagnostics(gctx, profession, summary, modelID)
			return err
		})
	}

	err := g.Wait()
	if err == nil {
		return outcomes
	}

	o.logger.Error().Err(err).Strs("professions", professions).Msg("parallel review failed, retrying sequentially")
	return o.analyzeSequentially(ctx, professions, summary, modelID)
}

func (o *Orchestrator) analyzeSequentially(ctx context.Context, professions []string, summary, modelID string) []models.ReviewOutcome {
	outcomes := make([]models.ReviewOutcome, 0, len(professions))
	for _, profession := range professions {
		outcome, err := o.analyzeOnce(ctx, profession, summary, modelID)
		if err != nil {
			o.logger.Error().Err(err).Str("profession", profession).Msg("sequential review failed, skipping")
			continue
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

func (o *Orchestrator) analyzeOnce(ctx context.Context, profession, summary, modelID string) (outcome models.ReviewOutcome, err error) {
	defer recoverInto(&err, profession)
	return o.AnalyzeProfessionWithDiagnostics(ctx, profession, summary, modelID)
}

func recoverInto(err *error, profession string) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("review of %s panicked: %v", profession, r)
	}
}
