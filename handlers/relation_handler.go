package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"dreamSyncAPI/services"
)

type RelationHandler struct {
	relationService *services.RelationService
}

func NewRelationHandler(relationService *services.RelationService) *RelationHandler {
	return &RelationHandler{relationService: relationService}
}

func (h *RelationHandler) GetRelations(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	relations, err := h.relationService.GetAll(ctx)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, relations)
}

func (h *RelationHandler) GetCoachRelations(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	coachID := mux.Vars(r)["coachId"]
	relations, err := h.relationService.GetByCoach(ctx, coachID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, relations)
}

func (h *RelationHandler) GetClientRelations(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clientID := mux.Vars(r)["clientId"]
	relations, err := h.relationService.GetByClient(ctx, clientID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, relations)
}

func (h *RelationHandler) CreateRelation(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var body struct {
		CoachID  string `json:"coachId"`
		ClientID string `json:"clientId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	relation, err := h.relationService.Create(ctx, body.CoachID, body.ClientID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, relation)
}

func (h *RelationHandler) EndRelation(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	relation, err := h.relationService.End(ctx, id)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, relation)
}
