package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"archreview/internal/logging"
	"archreview/internal/middleware"
	"archreview/internal/models"
	"archreview/internal/registry"
	"archreview/internal/review"
	"archreview/internal/storage"
	"archreview/internal/utils"
)

const maxListLimit = 100

type createReviewRequest struct {
	ReportID    string   `json:"reportId" validate:"required,max=128"`
	Professions []string `json:"professions" validate:"required,min=1,max=16,dive,required"`
	Summary     string   `json:"summary" validate:"required,max=65536"`
	ModelID     string   `json:"modelId" validate:"max=64"`
}

type reviewResponse struct {
	ID          string                              `json:"id"`
	ReportID    string                              `json:"reportId"`
	ModelID     string                              `json:"modelId"`
	Results     []models.ReviewResult               `json:"results"`
	Diagnostics map[string]*models.ReviewDiagnostic `json:"diagnostics,omitempty"`
	CreatedAt   time.Time                           `json:"createdAt"`
}

func (d *Dependencies) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	var req createReviewRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	var unknown []string
	for _, p := range req.Professions {
		if !review.IsProfession(p) {
			unknown = append(unknown, p)
		}
	}
	if len(unknown) > 0 {
		utils.RespondWithJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":       "unknown professions",
			"professions": unknown,
		})
		return
	}

	modelID, err := d.Registry.Resolve(req.ModelID)
	switch {
	case errors.Is(err, registry.ErrModelNotFound):
		utils.RespondWithError(w, http.StatusBadRequest, "Unknown model")
		return
	case errors.Is(err, registry.ErrModelDisabled):
		utils.RespondWithError(w, http.StatusBadRequest, "Model is disabled")
		return
	case err != nil:
		utils.RespondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	outcomes := d.Reviews.AnalyzeReportWithDiagnostics(r.Context(), req.Professions, req.Summary, modelID)

	run := &models.ReviewRun{
		ID:        uuid.New(),
		ReportID:  req.ReportID,
		ModelID:   modelID,
		Results:   make(models.ReviewResults, 0, len(outcomes)),
		CreatedAt: time.Now().UTC(),
	}
	resp := reviewResponse{
		ID:        run.ID.String(),
		ReportID:  run.ReportID,
		ModelID:   run.ModelID,
		CreatedAt: run.CreatedAt,
	}

	requestID := middleware.GetRequestID(r.Context())
	for _, o := range outcomes {
		run.Results = append(run.Results, o.Result)
		if o.Fallback() {
			run.Fallbacks++
			if resp.Diagnostics == nil {
				resp.Diagnostics = make(map[string]*models.ReviewDiagnostic)
			}
			resp.Diagnostics[o.Result.Profession] = o.Diagnostic
		}
		d.export(run, o, requestID)
	}
	resp.Results = run.Results

	if d.Recorder != nil {
		if err := d.Recorder.Enqueue(r.Context(), run); err != nil {
			d.Logger.Error().Err(err).Str("run_id", resp.ID).Msg("failed to enqueue review run")
		}
	}

	d.Logger.Info().
		Str("run_id", resp.ID).
		Str("report_id", run.ReportID).
		Str("model_id", modelID).
		Int("professions", len(outcomes)).
		Int("fallbacks", run.Fallbacks).
		Msg("review completed")

	utils.RespondWithJSON(w, http.StatusOK, resp)
}

func (d *Dependencies) export(run *models.ReviewRun, o models.ReviewOutcome, requestID string) {
	rec := &logging.ReviewRecord{
		Timestamp:  run.CreatedAt,
		RunID:      run.ID.String(),
		ReportID:   run.ReportID,
		Profession: o.Result.Profession,
		ModelID:    run.ModelID,
		Fallback:   o.Fallback(),
		ItemCount:  len(o.Result.ReviewItems),
		RequestID:  requestID,
	}
	if o.Diagnostic != nil {
		rec.Reason = o.Diagnostic.Reason
		rec.Error = o.Diagnostic.Error
	}
	if err := d.Sink.Enqueue(rec); err != nil {
		d.Logger.Warn().Err(err).Str("run_id", rec.RunID).Msg("review record not exported")
	}
}

func (d *Dependencies) handleGetReview(w http.ResponseWriter, r *http.Request) {
	if d.Runs == nil {
		utils.RespondWithError(w, http.StatusServiceUnavailable, "Review storage not configured")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid review id")
		return
	}

	run, err := d.Runs.GetRun(r.Context(), id)
	if errors.Is(err, storage.ErrReviewNotFound) {
		utils.RespondWithError(w, http.StatusNotFound, "Review not found")
		return
	}
	if err != nil {
		d.Logger.Error().Err(err).Str("run_id", id.String()).Msg("failed to load review run")
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to load review")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, run)
}

func (d *Dependencies) handleListReportReviews(w http.ResponseWriter, r *http.Request) {
	if d.Runs == nil {
		utils.RespondWithError(w, http.StatusServiceUnavailable, "Review storage not configured")
		return
	}

	limit, ok := listLimit(w, r)
	if !ok {
		return
	}

	runs, err := d.Runs.ListByReport(r.Context(), r.PathValue("reportId"), limit)
	if err != nil {
		d.Logger.Error().Err(err).Msg("failed to list review runs")
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to list reviews")
		return
	}
	if runs == nil {
		runs = []*models.ReviewRun{}
	}

	utils.RespondWithJSON(w, http.StatusOK, runs)
}

// listLimit reads the optional limit query parameter. 0 means no limit was
// given. It writes the 400 response itself and returns false on bad input.
func listLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxListLimit {
		utils.RespondWithError(w, http.StatusBadRequest, "limit must be between 1 and 100")
		return 0, false
	}
	return n, true
}
