package httpapi

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archreview/internal/auth"
	"archreview/internal/models"
	"archreview/internal/utils"
)

func TestListAndGetModels(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/models", auth.RoleViewer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	all := decode[[]models.ModelConfig](t, rec)
	assert.Len(t, all, 3)
	assert.Equal(t, "deepseek-v3", all[0].ModelID)

	rec = f.do(t, http.MethodGet, "/api/models/deepseek-r1", auth.RoleViewer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "deepseek-r1", decode[models.ModelConfig](t, rec).ModelID)

	rec = f.do(t, http.MethodGet, "/api/models/missing", auth.RoleViewer, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDefaultModelEndpoints(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/models/default", auth.RoleViewer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "deepseek-v3", decode[defaultModelResponse](t, rec).ModelID)

	rec = f.do(t, http.MethodPut, "/api/models/default", auth.RoleAdmin, map[string]string{"modelId": "missing"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.True(t, f.deps.Registry.SetModelEnabled("deepseek-r1", false))
	rec = f.do(t, http.MethodPut, "/api/models/default", auth.RoleAdmin, map[string]string{"modelId": "deepseek-r1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPut, "/api/models/default", auth.RoleAdmin, map[string]string{"modelId": "doubao-seed-1-6"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "doubao-seed-1-6", f.deps.Registry.GetDefaultModel())

	rec = f.do(t, http.MethodPut, "/api/models/default", auth.RoleAdmin, map[string]string{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "required", decode[utils.ErrorResponse](t, rec).Details["modelId"])
}

func TestAddCustomModel(t *testing.T) {
	f := newFixture(t)

	body := map[string]interface{}{
		"modelId":  "kimi-k2",
		"name":     "Kimi K2",
		"provider": "moonshot",
		"apiConfig": map[string]string{
			"endpoint": "https://api.moonshot.cn/v1/chat/completions",
			"apiKey":   "sk-secret",
		},
	}

	rec := f.do(t, http.MethodPost, "/api/models/custom", auth.RoleAdmin, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[models.ModelConfig](t, rec)
	assert.True(t, created.IsCustom)
	assert.Equal(t, "********", created.APIConfig.APIKey)
	assert.Equal(t, []string{"kimi-k2"}, f.store.upserted)

	stored, ok := f.deps.Registry.GetModelConfig("kimi-k2")
	require.True(t, ok)
	assert.Equal(t, "sk-secret", stored.APIConfig.APIKey, "registry keeps the real key")

	rec = f.do(t, http.MethodPost, "/api/models/custom", auth.RoleAdmin, body)
	assert.Equal(t, http.StatusConflict, rec.Code)

	t.Run("validation", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/models/custom", auth.RoleAdmin, map[string]interface{}{
			"modelId":   "bad id",
			"apiConfig": map[string]string{"endpoint": "not a url"},
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		details := decode[utils.ErrorResponse](t, rec).Details
		assert.Contains(t, details, "modelId")
		assert.Contains(t, details, "name")
		assert.Contains(t, details, "apiConfig.endpoint")
	})

	t.Run("reserved ids", func(t *testing.T) {
		for _, id := range []string{"health", "default", "custom"} {
			rec := f.do(t, http.MethodPost, "/api/models/custom", auth.RoleAdmin, map[string]string{"modelId": id, "name": "X"})
			require.Equal(t, http.StatusBadRequest, rec.Code, id)
			assert.Equal(t, "reserved", decode[utils.ErrorResponse](t, rec).Details["modelId"])
			_, ok := f.deps.Registry.GetModelConfig(id)
			assert.False(t, ok)
		}
	})

	t.Run("unknown field", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/models/custom", auth.RoleAdmin, `{"modelId":"x","name":"X","bogus":true}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("persistence failure rolls back", func(t *testing.T) {
		f.store.err = errors.New("db down")
		defer func() { f.store.err = nil }()

		rec := f.do(t, http.MethodPost, "/api/models/custom", auth.RoleAdmin, map[string]string{"modelId": "glm-4", "name": "GLM"})
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		_, ok := f.deps.Registry.GetModelConfig("glm-4")
		assert.False(t, ok)
	})
}

func TestUpdateModel(t *testing.T) {
	f := newFixture(t)
	_, err := f.deps.Registry.AddCustomModel("kimi-k2", "Kimi", "", "moonshot", nil)
	require.NoError(t, err)

	rec := f.do(t, http.MethodPatch, "/api/models/kimi-k2", auth.RoleAdmin, map[string]interface{}{
		"name":      "Kimi K2",
		"enabled":   false,
		"apiConfig": map[string]string{"endpoint": "https://example.com/v1/chat/completions"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[models.ModelConfig](t, rec)
	assert.Equal(t, "Kimi K2", updated.Name)
	assert.False(t, updated.Enabled)
	assert.Equal(t, "https://example.com/v1/chat/completions", updated.APIConfig.Endpoint)
	assert.Equal(t, []string{"kimi-k2"}, f.health.forgotten)
	assert.Equal(t, []string{"kimi-k2"}, f.store.upserted)

	rec = f.do(t, http.MethodPatch, "/api/models/deepseek-v3", auth.RoleAdmin, map[string]interface{}{
		"apiConfig": map[string]string{"endpoint": "https://example.com"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPatch, "/api/models/deepseek-v3", auth.RoleAdmin, map[string]interface{}{"priority": -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPatch, "/api/models/deepseek-v3", auth.RoleAdmin, map[string]interface{}{"enabled": false})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "deepseek-r1", f.deps.Registry.GetDefaultModel())
	assert.Len(t, f.store.upserted, 1, "built-in models are not persisted")

	rec = f.do(t, http.MethodPatch, "/api/models/missing", auth.RoleAdmin, map[string]interface{}{"name": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateModel_KeepsStoredAPIKey(t *testing.T) {
	f := newFixture(t)
	_, err := f.deps.Registry.AddCustomModel("kimi-k2", "Kimi", "", "moonshot", &models.APIConfig{
		Endpoint: "https://api.moonshot.cn/v1/chat/completions",
		APIKey:   "sk-real",
		Model:    "kimi-k2-0711-preview",
	})
	require.NoError(t, err)

	storedKey := func() string {
		cfg, ok := f.deps.Registry.GetModelConfig("kimi-k2")
		require.True(t, ok)
		require.NotNil(t, cfg.APIConfig)
		return cfg.APIConfig.APIKey
	}

	// read, edit the endpoint, write the masked config back
	rec := f.do(t, http.MethodGet, "/api/models/kimi-k2", auth.RoleViewer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	api := decode[models.ModelConfig](t, rec).APIConfig
	require.NotNil(t, api)
	assert.Equal(t, "********", api.APIKey)
	api.Endpoint = "https://proxy.example.com/v1/chat/completions"

	rec = f.do(t, http.MethodPatch, "/api/models/kimi-k2", auth.RoleAdmin, map[string]interface{}{"apiConfig": api})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "sk-real", storedKey())

	rec = f.do(t, http.MethodPatch, "/api/models/kimi-k2", auth.RoleAdmin, map[string]interface{}{
		"apiConfig": map[string]string{"endpoint": "https://other.example.com/v1/chat/completions"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sk-real", storedKey())

	cfg, _ := f.deps.Registry.GetModelConfig("kimi-k2")
	assert.Equal(t, "https://other.example.com/v1/chat/completions", cfg.APIConfig.Endpoint)
	assert.Equal(t, "kimi-k2-0711-preview", cfg.APIConfig.Model)

	rec = f.do(t, http.MethodPatch, "/api/models/kimi-k2", auth.RoleAdmin, map[string]interface{}{
		"apiConfig": map[string]string{"apiKey": "sk-rotated"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sk-rotated", storedKey())
}

func TestDeleteCustomModel(t *testing.T) {
	f := newFixture(t)
	_, err := f.deps.Registry.AddCustomModel("kimi-k2", "Kimi", "", "moonshot", nil)
	require.NoError(t, err)

	rec := f.do(t, http.MethodDelete, "/api/models/custom/deepseek-v3", auth.RoleAdmin, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/models/custom/missing", auth.RoleAdmin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/models/custom/kimi-k2", auth.RoleAdmin, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	_, ok := f.deps.Registry.GetModelConfig("kimi-k2")
	assert.False(t, ok)
	assert.Equal(t, []string{"kimi-k2"}, f.store.deleted)
	assert.Equal(t, []string{"kimi-k2"}, f.health.forgotten)
}
