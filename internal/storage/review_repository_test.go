package storage

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archreview/internal/models"
)

// openTestDB connects to TEST_DATABASE_URL or skips the test
func openTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping database integration test")
	}

	db, err := NewDB(DefaultDBConfig(dsn))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Migrate(context.Background()))
	return db
}

func TestReviewRepository_Integration(t *testing.T) {
	db := openTestDB(t)
	repo := db.NewReviewRepository()
	ctx := context.Background()

	run := &models.ReviewRun{
		ID:       uuid.New(),
		ReportID: "report-" + uuid.NewString(),
		ModelID:  "deepseek-v3",
		Results: models.ReviewResults{{
			Profession: "structure",
			AIAnalysis: "ok",
			ReviewItems: []models.ReviewItem{
				{ID: "stru_1", Description: "d", Standard: "GB 50010", Suggestion: "s", DisplayOrder: 1},
			},
		}},
		Fallbacks: 0,
		CreatedAt: fixedNow(),
	}

	require.NoError(t, repo.SaveRun(ctx, run))
	require.NoError(t, repo.SaveRun(ctx, run), "saving twice is a no-op")

	got, err := repo.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ReportID, got.ReportID)
	require.Len(t, got.Results, 1)
	assert.Equal(t, "stru_1", got.Results[0].ReviewItems[0].ID)

	runs, err := repo.ListByReport(ctx, run.ReportID, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	_, err = repo.GetRun(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrReviewNotFound)
}

func TestCustomModelRepository_Integration(t *testing.T) {
	db := openTestDB(t)
	enc, err := NewEncryption(make([]byte, 32))
	require.NoError(t, err)
	repo := db.NewCustomModelRepository(enc)
	ctx := context.Background()

	id := "it-" + uuid.NewString()
	cfg := &models.ModelConfig{
		ModelID:   id,
		Name:      "Integration",
		Enabled:   true,
		IsCustom:  true,
		APIConfig: &models.APIConfig{Endpoint: "http://example.invalid", APIKey: "sk-it"},
	}
	require.NoError(t, repo.Upsert(ctx, cfg))

	cfg.Enabled = false
	require.NoError(t, repo.Upsert(ctx, cfg))

	all, err := repo.List(ctx)
	require.NoError(t, err)

	var found *models.ModelConfig
	for _, c := range all {
		if c.ModelID == id {
			found = c
		}
	}
	require.NotNil(t, found)
	assert.False(t, found.Enabled)
	assert.Equal(t, "sk-it", found.APIConfig.APIKey)

	require.NoError(t, repo.Delete(ctx, id))
	assert.ErrorIs(t, repo.Delete(ctx, id), ErrCustomModelNotFound)
}
