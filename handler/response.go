package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"civicpulse/logger"
	"civicpulse/middleware"
	"civicpulse/models"
)

var log = logger.GetLogger("http")

// respondWithJSON sends a JSON response
func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.WithError(err).Warn("[http] failed to write response")
	}
}

// respondWithError sends an error response
func respondWithError(w http.ResponseWriter, statusCode int, errorType, message string) {
	response := models.ErrorResponse{
		Error:   errorType,
		Message: message,
		Code:    statusCode,
	}
	respondWithJSON(w, statusCode, response)
}

// respondWithServiceError maps service errors onto status codes
func respondWithServiceError(w http.ResponseWriter, err error) {
	var te *models.TransitionError
	switch {
	case errors.As(err, &te):
		respondWithError(w, http.StatusConflict, "Invalid transition", te.Error())
	case errors.Is(err, models.ErrInvalidTransition):
		respondWithError(w, http.StatusConflict, "Invalid transition", "not allowed in current state: "+err.Error())
	case errors.Is(err, models.ErrConflictRetry):
		respondWithError(w, http.StatusConflict, "Conflict", "Report was modified concurrently. Reload and try again.")
	case errors.Is(err, models.ErrValidation):
		respondWithError(w, http.StatusBadRequest, "Validation failed", err.Error())
	case errors.Is(err, models.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "Not found", err.Error())
	case errors.Is(err, models.ErrForbidden):
		respondWithError(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, models.ErrDownstreamUnavailable), errors.Is(err, context.DeadlineExceeded):
		respondWithError(w, http.StatusServiceUnavailable, "Service unavailable", "A dependency is unavailable. Try again shortly.")
	case errors.Is(err, context.Canceled):
		// client went away; nobody reads the body
		log.WithError(err).Debug("[http] request cancelled")
		respondWithError(w, http.StatusServiceUnavailable, "Request cancelled", "The request was cancelled before it completed")
	default:
		log.WithError(err).Error("[http] unhandled error")
		respondWithError(w, http.StatusInternalServerError, "Internal server error", "Something went wrong")
	}
}

// decodeJSON parses the request body into dst, replying 400 on failure
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request", "Failed to parse request body")
		return false
	}
	return true
}

// actorFromRequest returns the authenticated actor or replies 401
func actorFromRequest(w http.ResponseWriter, r *http.Request) (string, models.ActorRole, bool) {
	id, role, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized", "Authentication required")
		return "", "", false
	}
	return id, role, true
}

// queryInt reads a positive integer query parameter, falling back to def
func queryInt(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
