package handler

import (
	"errors"
	"net/http"

	"civicpulse/models"
	"civicpulse/service"
	"civicpulse/utils"
)

// AuthHandler handles staff login
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// StaffLogin handles POST /api/v1/auth/staff/login
func (h *AuthHandler) StaffLogin(w http.ResponseWriter, r *http.Request) {
	var req models.StaffLoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if field, msg, ok := utils.ValidateStruct(&req); !ok {
		respondWithError(w, http.StatusBadRequest, "Validation failed", field+": "+msg)
		return
	}

	resp, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized", "Invalid email or password")
		return
	}
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, resp)
}
