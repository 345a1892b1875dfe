package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"dreamSyncAPI/internal/apperr"
	"dreamSyncAPI/internal/celebration"
	"dreamSyncAPI/internal/goal"
	"dreamSyncAPI/services"
)

type GoalHandler struct {
	goalService        *services.GoalService
	celebrationService *services.CelebrationService
}

func NewGoalHandler(goalService *services.GoalService, celebrationService *services.CelebrationService) *GoalHandler {
	return &GoalHandler{
		goalService:        goalService,
		celebrationService: celebrationService,
	}
}

func (h *GoalHandler) GetGoals(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	goals, err := h.goalService.GetAll(ctx)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, goals)
}

func (h *GoalHandler) GetGoal(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	g, err := h.goalService.GetByID(ctx, id)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, g)
}

func (h *GoalHandler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req goal.CreateGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	created, err := h.goalService.Create(ctx, &req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, created)
}

func (h *GoalHandler) UpdateGoal(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var patch goal.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.goalService.Update(ctx, id, &patch)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, updated)
}

func (h *GoalHandler) DeleteGoal(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.goalService.Delete(ctx, id); err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (h *GoalHandler) GetActiveGoals(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	goals, err := h.goalService.GetActiveGoals(ctx)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, goals)
}

func (h *GoalHandler) GetGoalsByCategory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	category := mux.Vars(r)["category"]
	goals, err := h.goalService.GetGoalsByCategory(ctx, goal.Category(category))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, goals)
}

func (h *GoalHandler) AssignGoal(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	goalID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var body struct {
		ClientID string `json:"clientId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ClientID == "" {
		respondWithError(w, http.StatusBadRequest, "clientId is required")
		return
	}

	assignment, err := h.goalService.AssignToClient(ctx, body.ClientID, goalID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, assignment)
}

func (h *GoalHandler) GetAssignments(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	assignments, err := h.goalService.GetAssignments(ctx)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, assignments)
}

func (h *GoalHandler) GetClientGoals(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clientID := mux.Vars(r)["clientId"]
	goals, err := h.goalService.GetByClient(ctx, clientID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, goals)
}

// RecordProgress writes today's check-in and then runs the milestone check,
// strictly in that order so streak math sees the write it is reacting to.
func (h *GoalHandler) RecordProgress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	vars := mux.Vars(r)
	clientID := vars["clientId"]
	goalID, ok := pathID(w, r, "goalId")
	if !ok {
		return
	}

	var update goal.ProgressUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	progress, err := h.goalService.RecordProgress(ctx, clientID, goalID, &update)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	achievements, err := h.celebrationService.CheckForNewAchievements(ctx, clientID, goalID, &update)
	if err != nil {
		// The progress write already committed; achievements are best-effort.
		achievements = []celebration.Result{}
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"progress":     progress,
		"achievements": achievements,
	})
}

func (h *GoalHandler) BulkCheckIn(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	clientID := mux.Vars(r)["clientId"]

	var updates []goal.CheckInUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	results, err := h.goalService.BulkCheckIn(ctx, clientID, updates)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, results)
}

func (h *GoalHandler) CheckDependencies(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	vars := mux.Vars(r)
	clientID := vars["clientId"]
	goalID, ok := pathID(w, r, "goalId")
	if !ok {
		return
	}

	status, err := h.goalService.CheckDependencies(ctx, clientID, goalID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, status)
}

func (h *GoalHandler) GetClientProgress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clientID := mux.Vars(r)["clientId"]
	progress, err := h.goalService.GetProgressByClient(ctx, clientID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, progress)
}

func (h *GoalHandler) GetClientGoalProgress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	vars := mux.Vars(r)
	clientID := vars["clientId"]
	goalID, ok := pathID(w, r, "goalId")
	if !ok {
		return
	}

	progress, err := h.goalService.GetProgressByClientAndGoal(ctx, clientID, goalID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, progress)
}

func (h *GoalHandler) GetGoalProgress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	goalID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	progress, err := h.goalService.GetProgressByGoal(ctx, goalID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, progress)
}

func (h *GoalHandler) GetGoalStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	goalID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	stats, err := h.goalService.GetGoalStats(ctx, goalID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}

func (h *GoalHandler) GetClientStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clientID := mux.Vars(r)["clientId"]
	stats, err := h.goalService.GetClientGoalStats(ctx, clientID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}

// pathID parses an integer path variable, responding 400 on garbage.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)[name])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}
	return id, true
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Failed to marshal response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithServiceError maps the service error taxonomy onto HTTP status
// codes: validation 400, not-found 404, conflict 409, anything else 500.
func respondWithServiceError(w http.ResponseWriter, err error) {
	var validationErr *apperr.ValidationError
	var notFoundErr *apperr.NotFoundError
	var conflictErr *apperr.ConflictError

	switch {
	case errors.As(err, &validationErr):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &notFoundErr):
		respondWithError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &conflictErr):
		respondWithError(w, http.StatusConflict, err.Error())
	default:
		respondWithError(w, http.StatusInternalServerError, err.Error())
	}
}
