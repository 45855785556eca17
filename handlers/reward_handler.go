package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"algoQuestAPI/internal/reward"
	"algoQuestAPI/middleware"
	"algoQuestAPI/services"
)

type RewardHandler struct {
	rewardService *services.RewardService
}

func NewRewardHandler(rewardService *services.RewardService) *RewardHandler {
	return &RewardHandler{
		rewardService: rewardService,
	}
}

func (h *RewardHandler) GetRewards(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	overview, err := h.rewardService.GetOverview(ctx, clerkID)
	if err != nil {
		if strings.Contains(err.Error(), "user not found") {
			respondWithError(w, http.StatusNotFound, "User not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, overview)
}

func (h *RewardHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var body struct {
		RewardID string `json:"rewardId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.RewardID == "" {
		respondWithError(w, http.StatusBadRequest, "Field 'rewardId' is required")
		return
	}

	err := h.rewardService.Redeem(ctx, clerkID, body.RewardID)
	if err != nil {
		switch {
		case errors.Is(err, reward.ErrNotUnlocked):
			respondWithError(w, http.StatusConflict, "Reward is not unlocked")
		case errors.Is(err, reward.ErrAlreadyRedeemed):
			respondWithError(w, http.StatusConflict, "Reward already redeemed")
		case errors.Is(err, reward.ErrInsufficientPoints):
			respondWithError(w, http.StatusConflict, "Not enough available points")
		case strings.Contains(err.Error(), "user not found"):
			respondWithError(w, http.StatusNotFound, "User not found")
		default:
			respondWithError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Reward redeemed successfully"})
}
