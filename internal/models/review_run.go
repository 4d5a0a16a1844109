package models

import (
	"time"

	"github.com/google/uuid"
)

//
// ReviewRun (review_runs table)
//

// ReviewRun is one persisted invocation of a report review.
type ReviewRun struct {
	ID        uuid.UUID     `db:"id" json:"id"`
	ReportID  string        `db:"report_id" json:"reportId"`
	ModelID   string        `db:"model_id" json:"modelId"`
	Results   ReviewResults `db:"results" json:"results"`
	Fallbacks int           `db:"fallbacks" json:"fallbacks"`
	CreatedAt time.Time     `db:"created_at" json:"createdAt"`
}

//
// CustomModel (custom_models table)
//

// CustomModelRecord is the persisted form of a custom ModelConfig.
// The API key is stored encrypted.
type CustomModelRecord struct {
	ModelID         string    `db:"model_id"`
	Name            string    `db:"name"`
	Description     string    `db:"description"`
	Provider        string    `db:"provider"`
	Enabled         bool      `db:"enabled"`
	Endpoint        string    `db:"endpoint"`
	EncryptedAPIKey string    `db:"encrypted_api_key"`
	APIVersion      string    `db:"api_version"`
	UpstreamModel   string    `db:"upstream_model"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}
