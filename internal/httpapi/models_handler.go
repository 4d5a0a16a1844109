package httpapi

import (
	"errors"
	"net/http"

	"archreview/internal/models"
	"archreview/internal/registry"
	"archreview/internal/storage"
	"archreview/internal/utils"
)

type apiConfigRequest struct {
	Endpoint   string `json:"endpoint" validate:"omitempty,url"`
	APIKey     string `json:"apiKey"`
	APIVersion string `json:"apiVersion"`
	Model      string `json:"model" validate:"max=128"`
}

func (a *apiConfigRequest) toModel() *models.APIConfig {
	if a == nil {
		return nil
	}
	return &models.APIConfig{
		Endpoint:   a.Endpoint,
		APIKey:     a.APIKey,
		APIVersion: a.APIVersion,
		Model:      a.Model,
	}
}

// mergeInto applies the request on top of current. Empty fields keep the
// current value, and the masked key returned by reads keeps the stored key.
func (a *apiConfigRequest) mergeInto(current *models.APIConfig) *models.APIConfig {
	if a == nil {
		return nil
	}
	merged := models.APIConfig{}
	if current != nil {
		merged = *current
	}
	if a.Endpoint != "" {
		merged.Endpoint = a.Endpoint
	}
	if a.APIKey != "" && a.APIKey != maskedAPIKey {
		merged.APIKey = a.APIKey
	}
	if a.APIVersion != "" {
		merged.APIVersion = a.APIVersion
	}
	if a.Model != "" {
		merged.Model = a.Model
	}
	return &merged
}

type addCustomModelRequest struct {
	ModelID     string            `json:"modelId" validate:"required,max=64,excludesall= /"`
	Name        string            `json:"name" validate:"required,max=128"`
	Description string            `json:"description" validate:"max=1024"`
	Provider    string            `json:"provider" validate:"max=64"`
	APIConfig   *apiConfigRequest `json:"apiConfig"`
}

type updateModelRequest struct {
	Name        *string           `json:"name" validate:"omitempty,min=1,max=128"`
	Description *string           `json:"description" validate:"omitempty,max=1024"`
	Provider    *string           `json:"provider" validate:"omitempty,max=64"`
	Priority    *int              `json:"priority" validate:"omitempty,gte=0"`
	Enabled     *bool             `json:"enabled"`
	APIConfig   *apiConfigRequest `json:"apiConfig"`
}

type setDefaultRequest struct {
	ModelID string `json:"modelId" validate:"required"`
}

type defaultModelResponse struct {
	ModelID string `json:"modelId"`
}

const maskedAPIKey = "********"

// reservedModelIDs collide with fixed routes under /api/models/.
var reservedModelIDs = map[string]struct{}{
	"health":  {},
	"default": {},
	"custom":  {},
}

// redacted hides stored API keys from responses.
func redacted(cfg *models.ModelConfig) *models.ModelConfig {
	if cfg.APIConfig != nil && cfg.APIConfig.APIKey != "" {
		cfg.APIConfig.APIKey = maskedAPIKey
	}
	return cfg
}

func redactedAll(configs []*models.ModelConfig) []*models.ModelConfig {
	for _, c := range configs {
		redacted(c)
	}
	return configs
}

// decodeAndValidate writes the 400 response itself and returns false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := utils.DecodeJSON(r, dst); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return false
	}
	if err := validate.Struct(dst); err != nil {
		if details := validationDetails(err); details != nil {
			utils.RespondWithValidationError(w, details)
			return false
		}
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func (d *Dependencies) handleListModels(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("enabled") == "true" {
		utils.RespondWithJSON(w, http.StatusOK, redactedAll(d.Registry.ListEnabled()))
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, redactedAll(d.Registry.GetAllConfigs()))
}

func (d *Dependencies) handleGetDefaultModel(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, defaultModelResponse{ModelID: d.Registry.GetDefaultModel()})
}

func (d *Dependencies) handleSetDefaultModel(w http.ResponseWriter, r *http.Request) {
	var req setDefaultRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if _, ok := d.Registry.GetModelConfig(req.ModelID); !ok {
		utils.RespondWithError(w, http.StatusNotFound, "Model not found")
		return
	}
	if !d.Registry.SetDefaultModel(req.ModelID) {
		utils.RespondWithError(w, http.StatusBadRequest, "Model is disabled")
		return
	}

	d.Logger.Info().Str("model_id", req.ModelID).Msg("default model changed")
	utils.RespondWithJSON(w, http.StatusOK, defaultModelResponse{ModelID: d.Registry.GetDefaultModel()})
}

func (d *Dependencies) handleGetModel(w http.ResponseWriter, r *http.Request) {
	cfg, ok := d.Registry.GetModelConfig(r.PathValue("id"))
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, "Model not found")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, redacted(cfg))
}

func (d *Dependencies) handleUpdateModel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	current, ok := d.Registry.GetModelConfig(id)
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, "Model not found")
		return
	}

	var req updateModelRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if req.APIConfig != nil && !current.IsCustom {
		utils.RespondWithError(w, http.StatusBadRequest, "Built-in models have no API config")
		return
	}

	d.Registry.UpdateModelConfig(id, models.ModelConfigUpdate{
		Name:        req.Name,
		Description: req.Description,
		Provider:    req.Provider,
		Priority:    req.Priority,
		APIConfig:   req.APIConfig.mergeInto(current.APIConfig),
	})
	if req.Enabled != nil {
		d.Registry.SetModelEnabled(id, *req.Enabled)
	}
	if req.APIConfig != nil || req.Enabled != nil {
		d.Health.Forget(r.Context(), id)
	}

	updated, ok := d.Registry.GetModelConfig(id)
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, "Model not found")
		return
	}

	if updated.IsCustom && d.CustomModels != nil {
		if err := d.CustomModels.Upsert(r.Context(), updated); err != nil {
			d.Logger.Error().Err(err).Str("model_id", id).Msg("failed to persist custom model update")
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to persist model")
			return
		}
	}

	utils.RespondWithJSON(w, http.StatusOK, redacted(updated))
}

func (d *Dependencies) handleAddCustomModel(w http.ResponseWriter, r *http.Request) {
	var req addCustomModelRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if _, reserved := reservedModelIDs[req.ModelID]; reserved {
		utils.RespondWithValidationError(w, map[string]string{"modelId": "reserved"})
		return
	}

	cfg, err := d.Registry.AddCustomModel(req.ModelID, req.Name, req.Description, req.Provider, req.APIConfig.toModel())
	switch {
	case errors.Is(err, registry.ErrModelExists):
		utils.RespondWithError(w, http.StatusConflict, "Model already exists")
		return
	case errors.Is(err, registry.ErrInvalidModelID):
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		utils.RespondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if d.CustomModels != nil {
		if err := d.CustomModels.Upsert(r.Context(), cfg); err != nil {
			d.Registry.DeleteCustomModel(cfg.ModelID)
			d.Logger.Error().Err(err).Str("model_id", cfg.ModelID).Msg("failed to persist custom model")
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to persist model")
			return
		}
	}

	d.Logger.Info().Str("model_id", cfg.ModelID).Str("provider", cfg.Provider).Msg("custom model added")
	utils.RespondWithJSON(w, http.StatusCreated, redacted(cfg))
}

func (d *Dependencies) handleDeleteCustomModel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	cfg, ok := d.Registry.GetModelConfig(id)
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, "Model not found")
		return
	}
	if !cfg.IsCustom {
		utils.RespondWithError(w, http.StatusBadRequest, registry.ErrBuiltInModel.Error())
		return
	}
	if !d.Registry.DeleteCustomModel(id) {
		utils.RespondWithError(w, http.StatusNotFound, "Model not found")
		return
	}
	d.Health.Forget(r.Context(), id)

	if d.CustomModels != nil {
		if err := d.CustomModels.Delete(r.Context(), id); err != nil && !errors.Is(err, storage.ErrCustomModelNotFound) {
			d.Logger.Error().Err(err).Str("model_id", id).Msg("failed to delete persisted custom model")
		}
	}

	d.Logger.Info().Str("model_id", id).Msg("custom model deleted")
	w.WriteHeader(http.StatusNoContent)
}
