package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"dreamSyncAPI/internal/diary"
	"dreamSyncAPI/internal/diaryform"
	"dreamSyncAPI/services"
)

type SleepEntryHandler struct {
	entryService *services.SleepEntryService
	drafts       diaryform.DraftStore
}

func NewSleepEntryHandler(entryService *services.SleepEntryService, drafts diaryform.DraftStore) *SleepEntryHandler {
	return &SleepEntryHandler{
		entryService: entryService,
		drafts:       drafts,
	}
}

func (h *SleepEntryHandler) GetEntries(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	entries, err := h.entryService.GetAll(ctx)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, entries)
}

func (h *SleepEntryHandler) GetEntry(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	entry, err := h.entryService.GetByID(ctx, id)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, entry)
}

func (h *SleepEntryHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req diary.EntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	entry, err := h.entryService.Create(ctx, &req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, entry)
}

func (h *SleepEntryHandler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req diary.EntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	entry, err := h.entryService.Update(ctx, id, &req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, entry)
}

func (h *SleepEntryHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	deleted, err := h.entryService.Delete(ctx, id)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, deleted)
}

func (h *SleepEntryHandler) GetClientEntries(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clientID := mux.Vars(r)["clientId"]

	startDate := r.URL.Query().Get("startDate")
	endDate := r.URL.Query().Get("endDate")
	if startDate != "" || endDate != "" {
		entries, err := h.entryService.GetByDateRange(ctx, clientID, startDate, endDate)
		if err != nil {
			respondWithServiceError(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, entries)
		return
	}

	entries, err := h.entryService.GetByClient(ctx, clientID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, entries)
}

// ValidateEntry runs the advisory checks without persisting anything,
// so the diary form can surface problems before the final submit.
func (h *SleepEntryHandler) ValidateEntry(w http.ResponseWriter, r *http.Request) {
	var req diary.EntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result := h.entryService.ValidateEntry(&req)
	respondWithJSON(w, http.StatusOK, result)
}

func (h *SleepEntryHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clientID := mux.Vars(r)["clientId"]
	draft, err := h.drafts.Get(ctx, clientID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	if draft == nil {
		respondWithError(w, http.StatusNotFound, "No draft for client "+clientID)
		return
	}
	respondWithJSON(w, http.StatusOK, draft)
}

func (h *SleepEntryHandler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clientID := mux.Vars(r)["clientId"]

	var draft diary.Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if draft.Timestamp.IsZero() {
		draft.Timestamp = time.Now()
	}

	if err := h.drafts.Put(ctx, clientID, &draft); err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, draft)
}

func (h *SleepEntryHandler) ClearDraft(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clientID := mux.Vars(r)["clientId"]
	if err := h.drafts.Clear(ctx, clientID); err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]bool{"cleared": true})
}
