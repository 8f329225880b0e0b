package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"civicpulse/service"
)

// NotificationHandler serves the in-app inbox
type NotificationHandler struct {
	notifications *service.NotificationService
}

func NewNotificationHandler(notifications *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// List handles GET /api/v1/notifications?unread=true&limit=N
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	actorID, _, ok := actorFromRequest(w, r)
	if !ok {
		return
	}
	unreadOnly := r.URL.Query().Get("unread") == "true"

	list, err := h.notifications.List(r.Context(), actorID, unreadOnly, queryInt(r, "limit", 50))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": list,
		"count":         len(list),
	})
}

// MarkRead handles POST /api/v1/notifications/{id}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	actorID, _, ok := actorFromRequest(w, r)
	if !ok {
		return
	}
	if err := h.notifications.MarkRead(r.Context(), actorID, mux.Vars(r)["id"]); err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}
