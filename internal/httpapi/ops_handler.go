package httpapi

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"archreview/internal/models"
	"archreview/internal/queue"
	"archreview/internal/storage"
	"archreview/internal/utils"
)

const readinessTimeout = 2 * time.Second

// ReadinessCheck reports whether a backing service is usable.
type ReadinessCheck func(ctx context.Context) error

// RunQueue exposes the review run persistence queue to operators.
type RunQueue interface {
	QueueLength(ctx context.Context) (int, error)
	DeadLetters(ctx context.Context, limit int) ([]queue.DeadLetterItem[*models.ReviewRun], error)
	RetryDeadLetterItem(ctx context.Context, id string) error
}

type readinessResponse struct {
	Status            string            `json:"status"`
	Checks            map[string]string `json:"checks,omitempty"`
	ReviewQueueLength *int              `json:"reviewQueueLength,omitempty"`
}

// handleReadiness runs every check concurrently. Any failure turns the
// response into a 503.
func (d *Dependencies) handleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	names := make([]string, 0, len(d.Checks))
	for name := range d.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make([]error, len(names))
	var g errgroup.Group
	for i, name := range names {
		check := d.Checks[name]
		g.Go(func() error {
			results[i] = check(ctx)
			return nil
		})
	}
	g.Wait()

	resp := readinessResponse{Status: "ok"}
	status := http.StatusOK
	if len(names) > 0 {
		resp.Checks = make(map[string]string, len(names))
	}
	for i, name := range names {
		if err := results[i]; err != nil {
			d.Logger.Warn().Err(err).Str("check", name).Msg("readiness check failed")
			resp.Checks[name] = err.Error()
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}

	if d.RunQueue != nil {
		if n, err := d.RunQueue.QueueLength(ctx); err == nil {
			resp.ReviewQueueLength = &n
		} else {
			d.Logger.Warn().Err(err).Msg("failed to read review queue length")
		}
	}

	utils.RespondWithJSON(w, status, resp)
}

func (d *Dependencies) handleListDeadLetters(w http.ResponseWriter, r *http.Request) {
	if d.RunQueue == nil {
		utils.RespondWithError(w, http.StatusServiceUnavailable, "Review storage not configured")
		return
	}

	limit, ok := listLimit(w, r)
	if !ok {
		return
	}

	items, err := d.RunQueue.DeadLetters(r.Context(), limit)
	switch {
	case errors.Is(err, storage.ErrNoDeadLetterQueue):
		utils.RespondWithError(w, http.StatusServiceUnavailable, "Dead letter queue not configured")
		return
	case err != nil:
		d.Logger.Error().Err(err).Msg("failed to list dead letters")
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to list dead letters")
		return
	}
	if items == nil {
		items = []queue.DeadLetterItem[*models.ReviewRun]{}
	}

	utils.RespondWithJSON(w, http.StatusOK, items)
}

func (d *Dependencies) handleRetryDeadLetter(w http.ResponseWriter, r *http.Request) {
	if d.RunQueue == nil {
		utils.RespondWithError(w, http.StatusServiceUnavailable, "Review storage not configured")
		return
	}

	id := r.PathValue("id")
	err := d.RunQueue.RetryDeadLetterItem(r.Context(), id)
	switch {
	case errors.Is(err, queue.ErrItemNotFound):
		utils.RespondWithError(w, http.StatusNotFound, "Dead letter not found")
		return
	case errors.Is(err, storage.ErrNoDeadLetterQueue):
		utils.RespondWithError(w, http.StatusServiceUnavailable, "Dead letter queue not configured")
		return
	case err != nil:
		d.Logger.Error().Err(err).Str("dead_letter_id", id).Msg("failed to retry dead letter")
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to retry dead letter")
		return
	}

	d.Logger.Info().Str("dead_letter_id", id).Msg("dead letter re-enqueued")
	w.WriteHeader(http.StatusNoContent)
}
