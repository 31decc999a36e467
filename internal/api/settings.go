// internal/api/settings.go
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	custom_errors "starsync/internal/errors"
	"starsync/internal/settings"
)

type aiModelResponse struct {
	Model   string   `json:"model"`
	Allowed []string `json:"allowed"`
}

type aiModelRequest struct {
	Model string `json:"model"`
}

// GET /settings/sync
func (h *Handler) getSyncSettings(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.settings.Sync(r.Context(), userID(r))
	if err != nil {
		h.logger.Error("Failed to get sync settings", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondWithJSON(w, http.StatusOK, cfg)
}

// PUT /settings/sync
func (h *Handler) updateSyncSettings(w http.ResponseWriter, r *http.Request) {
	var req settings.SyncUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	cfg, err := h.settings.UpdateSync(r.Context(), userID(r), req)
	if err != nil {
		h.respondSettingsError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, cfg)
}

// GET /settings/ai-model
func (h *Handler) getAIModel(w http.ResponseWriter, r *http.Request) {
	m, err := h.settings.AIModel(r.Context(), userID(r))
	if err != nil {
		h.logger.Error("Failed to get AI model", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondWithJSON(w, http.StatusOK, aiModelResponse{Model: m, Allowed: settings.AllowedAIModels})
}

// PUT /settings/ai-model
func (h *Handler) updateAIModel(w http.ResponseWriter, r *http.Request) {
	var req aiModelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	m, err := h.settings.UpdateAIModel(r.Context(), userID(r), req.Model)
	if err != nil {
		h.respondSettingsError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, aiModelResponse{Model: m, Allowed: settings.AllowedAIModels})
}

func (h *Handler) respondSettingsError(w http.ResponseWriter, err error) {
	var vErr *custom_errors.ValidationError
	if errors.As(err, &vErr) {
		respondWithError(w, http.StatusBadRequest, vErr.Error())
		return
	}
	h.logger.Error("Failed to update settings", "error", err)
	respondWithError(w, http.StatusInternalServerError, "Internal server error")
}
