package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"archreview/internal/models"
)

// ReviewRepository persists review runs
type ReviewRepository struct {
	db *DB
}

// NewReviewRepository creates a new review run repository
func NewReviewRepository(db *DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

const insertReviewRunQuery = `
	INSERT INTO review_runs (id, report_id, model_id, results, fallbacks, created_at)
	VALUES (:id, :report_id, :model_id, :results, :fallbacks, :created_at)
	ON CONFLICT (id) DO NOTHING
`

// SaveRun inserts a review run. Saving the same id twice is a no-op.
func (r *ReviewRepository) SaveRun(ctx context.Context, run *models.ReviewRun) error {
	if _, err := r.db.conn.NamedExecContext(ctx, insertReviewRunQuery, run); err != nil {
		return fmt.Errorf("failed to save review run: %w", err)
	}
	return nil
}

// SaveRuns inserts several runs in one transaction
func (r *ReviewRepository) SaveRuns(ctx context.Context, runs []*models.ReviewRun) error {
	tx, err := r.db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := saveRunsTx(ctx, tx, runs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func saveRunsTx(ctx context.Context, tx *sqlx.Tx, runs []*models.ReviewRun) error {
	for _, run := range runs {
		if _, err := tx.NamedExecContext(ctx, insertReviewRunQuery, run); err != nil {
			return fmt.Errorf("failed to save review run %s: %w", run.ID, err)
		}
	}
	return nil
}

// GetRun retrieves a review run by id
func (r *ReviewRepository) GetRun(ctx context.Context, id uuid.UUID) (*models.ReviewRun, error) {
	var run models.ReviewRun
	query := `
		SELECT id, report_id, model_id, results, fallbacks, created_at
		FROM review_runs
		WHERE id = $1
	`

	if err := r.db.conn.GetContext(ctx, &run, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to get review run: %w", err)
	}

	return &run, nil
}

// ListByReport returns the runs of a report, newest first
func (r *ReviewRepository) ListByReport(ctx context.Context, reportID string, limit int) ([]*models.ReviewRun, error) {
	if limit <= 0 {
		limit = 20
	}

	var runs []*models.ReviewRun
	query := `
		SELECT id, report_id, model_id, results, fallbacks, created_at
		FROM review_runs
		WHERE report_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	if err := r.db.conn.SelectContext(ctx, &runs, query, reportID, limit); err != nil {
		return nil, fmt.Errorf("failed to list review runs: %w", err)
	}

	return runs, nil
}
