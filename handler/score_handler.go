package handler

import (
	"net/http"

	"civicpulse/service"
)

// ScoreHandler exposes points, badges and the leaderboard
type ScoreHandler struct {
	scoring *service.ScoringEngine
}

func NewScoreHandler(scoring *service.ScoringEngine) *ScoreHandler {
	return &ScoreHandler{scoring: scoring}
}

// MyScore handles GET /api/v1/scores/me
func (h *ScoreHandler) MyScore(w http.ResponseWriter, r *http.Request) {
	actorID, _, ok := actorFromRequest(w, r)
	if !ok {
		return
	}
	summary, err := h.scoring.Summary(r.Context(), actorID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, summary)
}

// Leaderboard handles GET /api/v1/scores/leaderboard?limit=N
func (h *ScoreHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.scoring.Leaderboard(r.Context(), queryInt(r, "limit", 10))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"leaderboard": entries})
}
