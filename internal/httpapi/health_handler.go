package httpapi

import (
	"net/http"

	"archreview/internal/utils"
)

func (d *Dependencies) handleAllModelsHealth(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, d.Health.CheckAllModelsHealth(r.Context()))
}

// handleModelHealth serves the cached status unless ?refresh=true.
func (d *Dependencies) handleModelHealth(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := d.Registry.GetModelConfig(id); !ok {
		utils.RespondWithError(w, http.StatusNotFound, "Model not found")
		return
	}

	useCache := r.URL.Query().Get("refresh") != "true"
	utils.RespondWithJSON(w, http.StatusOK, d.Health.GetModelHealthStatus(r.Context(), id, useCache))
}
