package storage

import (
	"context"
	"fmt"
	"time"

	"archreview/internal/models"
)

// CustomModelRepository persists custom model configurations. API keys are
// encrypted at rest when an Encryption is configured.
type CustomModelRepository struct {
	db  *DB
	enc *Encryption
	now func() time.Time
}

// NewCustomModelRepository creates a new custom model repository. enc may be
// nil, in which case API keys are not persisted.
func NewCustomModelRepository(db *DB, enc *Encryption) *CustomModelRepository {
	return &CustomModelRepository{db: db, enc: enc, now: time.Now}
}

// Upsert inserts or replaces the stored copy of a custom model
func (r *CustomModelRepository) Upsert(ctx context.Context, cfg *models.ModelConfig) error {
	record, err := r.toRecord(cfg)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO custom_models (
			model_id, name, description, provider, enabled,
			endpoint, encrypted_api_key, api_version, upstream_model,
			created_at, updated_at
		) VALUES (
			:model_id, :name, :description, :provider, :enabled,
			:endpoint, :encrypted_api_key, :api_version, :upstream_model,
			:created_at, :updated_at
		)
		ON CONFLICT (model_id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			provider = EXCLUDED.provider,
			enabled = EXCLUDED.enabled,
			endpoint = EXCLUDED.endpoint,
			encrypted_api_key = EXCLUDED.encrypted_api_key,
			api_version = EXCLUDED.api_version,
			upstream_model = EXCLUDED.upstream_model,
			updated_at = EXCLUDED.updated_at
	`

	if _, err := r.db.conn.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("failed to upsert custom model: %w", err)
	}
	return nil
}

// Delete removes a stored custom model
func (r *CustomModelRepository) Delete(ctx context.Context, modelID string) error {
	result, err := r.db.conn.ExecContext(ctx, `DELETE FROM custom_models WHERE model_id = $1`, modelID)
	if err != nil {
		return fmt.Errorf("failed to delete custom model: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrCustomModelNotFound
	}
	return nil
}

// List returns every stored custom model with decrypted API keys
func (r *CustomModelRepository) List(ctx context.Context) ([]*models.ModelConfig, error) {
	var records []models.CustomModelRecord
	query := `
		SELECT model_id, name, description, provider, enabled,
			endpoint, encrypted_api_key, api_version, upstream_model,
			created_at, updated_at
		FROM custom_models
		ORDER BY created_at, model_id
	`

	if err := r.db.conn.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("failed to list custom models: %w", err)
	}

	configs := make([]*models.ModelConfig, 0, len(records))
	for i := range records {
		cfg, err := r.fromRecord(&records[i])
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

func (r *CustomModelRepository) toRecord(cfg *models.ModelConfig) (*models.CustomModelRecord, error) {
	ts := r.now()
	record := &models.CustomModelRecord{
		ModelID:     cfg.ModelID,
		Name:        cfg.Name,
		Description: cfg.Description,
		Provider:    cfg.Provider,
		Enabled:     cfg.Enabled,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}

	if api := cfg.APIConfig; api != nil {
		record.Endpoint = api.Endpoint
		record.APIVersion = api.APIVersion
		record.UpstreamModel = api.Model

		if api.APIKey != "" && r.enc != nil {
			sealed, err := r.enc.Encrypt([]byte(api.APIKey))
			if err != nil {
				return nil, fmt.Errorf("failed to encrypt api key: %w", err)
			}
			record.EncryptedAPIKey = sealed
		}
	}

	return record, nil
}

func (r *CustomModelRepository) fromRecord(record *models.CustomModelRecord) (*models.ModelConfig, error) {
	cfg := &models.ModelConfig{
		ModelID:     record.ModelID,
		Name:        record.Name,
		Description: record.Description,
		Provider:    record.Provider,
		Enabled:     record.Enabled,
		LastUpdated: record.UpdatedAt,
		IsCustom:    true,
	}

	if record.Endpoint == "" && record.EncryptedAPIKey == "" && record.UpstreamModel == "" && record.APIVersion == "" {
		return cfg, nil
	}

	api := &models.APIConfig{
		Endpoint:   record.Endpoint,
		APIVersion: record.APIVersion,
		Model:      record.UpstreamModel,
	}
	if record.EncryptedAPIKey != "" && r.enc != nil {
		key, err := r.enc.Decrypt(record.EncryptedAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt api key for %s: %w", record.ModelID, err)
		}
		api.APIKey = string(key)
	}
	cfg.APIConfig = api

	return cfg, nil
}
