package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"dreamSyncAPI/services"
)

type CelebrationHandler struct {
	celebrationService *services.CelebrationService
}

func NewCelebrationHandler(celebrationService *services.CelebrationService) *CelebrationHandler {
	return &CelebrationHandler{celebrationService: celebrationService}
}

func (h *CelebrationHandler) GetCelebrations(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	celebrations, err := h.celebrationService.GetAll(ctx)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, celebrations)
}

func (h *CelebrationHandler) GetClientCelebrations(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clientID := mux.Vars(r)["clientId"]
	celebrations, err := h.celebrationService.GetByClient(ctx, clientID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, celebrations)
}

func (h *CelebrationHandler) GetUnviewedCelebrations(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clientID := mux.Vars(r)["clientId"]
	celebrations, err := h.celebrationService.GetUnviewedByClient(ctx, clientID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, celebrations)
}

func (h *CelebrationHandler) MarkAsViewed(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	updated, err := h.celebrationService.MarkAsViewed(ctx, id)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, updated)
}

func (h *CelebrationHandler) BulkMarkAsViewed(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var body struct {
		IDs []int `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.celebrationService.BulkMarkAsViewed(ctx, body.IDs)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, updated)
}

func (h *CelebrationHandler) GetAchievementStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clientID := mux.Vars(r)["clientId"]
	stats, err := h.celebrationService.GetAchievementStats(ctx, clientID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}
