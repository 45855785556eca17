package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"algoQuestAPI/internal/progress"
	"algoQuestAPI/middleware"
	"algoQuestAPI/services"
)

type ProgressHandler struct {
	progressService *services.ProgressService
}

func NewProgressHandler(progressService *services.ProgressService) *ProgressHandler {
	return &ProgressHandler{
		progressService: progressService,
	}
}

// CompleteLevel ingests one "level completed" event from a game frontend.
func (h *ProgressHandler) CompleteLevel(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req progress.CompleteLevelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	record, err := h.progressService.RecordCompletion(ctx, clerkID, &req)
	if err != nil {
		status := serviceErrorStatus(err)
		if status == http.StatusNotFound {
			respondWithError(w, status, "User not found")
			return
		}
		respondWithError(w, status, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, record)
}

func (h *ProgressHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	topicID := r.URL.Query().Get("topicId")
	if topicID == "" {
		respondWithError(w, http.StatusBadRequest, "Query parameter 'topicId' is required")
		return
	}

	record, err := h.progressService.GetProgress(ctx, clerkID, topicID)
	if err != nil {
		respondWithError(w, serviceErrorStatus(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, record)
}

func (h *ProgressHandler) GetAllProgress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	response, err := h.progressService.GetAllProgress(ctx, clerkID)
	if err != nil {
		respondWithError(w, serviceErrorStatus(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, response)
}
