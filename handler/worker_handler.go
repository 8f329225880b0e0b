package handler

import (
	"context"
	"errors"
	"net/http"

	"civicpulse/models"
	"civicpulse/service"
)

// routeUnavailableResponse carries the partial route alongside the error
type routeUnavailableResponse struct {
	models.ErrorResponse
	Route *models.RouteResult `json:"route"`
}

// WorkerHandler serves the field worker dashboard
type WorkerHandler struct {
	reports *service.ReportService
	routes  *service.RouteService
}

// NewWorkerHandler creates a new worker handler
func NewWorkerHandler(reports *service.ReportService, routes *service.RouteService) *WorkerHandler {
	return &WorkerHandler{reports: reports, routes: routes}
}

// ListTasks handles GET /api/v1/worker/tasks
func (h *WorkerHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	workerID, _, ok := actorFromRequest(w, r)
	if !ok {
		return
	}
	reports, err := h.reports.ListAssigned(r.Context(), workerID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"reports": reports,
		"count":   len(reports),
	})
}

// Route handles POST /api/v1/worker/route. An empty body routes with profile defaults.
func (h *WorkerHandler) Route(w http.ResponseWriter, r *http.Request) {
	workerID, _, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	var req models.RouteRequest
	if r.ContentLength != 0 {
		if !decodeJSON(w, r, &req) {
			return
		}
	}

	result, err := h.routes.RouteForWorker(r.Context(), workerID, &req)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		// timed out or cancelled: 503 carrying the empty route
		if result == nil {
			result = &models.RouteResult{Tasks: []models.Task{}}
		}
		respondWithJSON(w, http.StatusServiceUnavailable, routeUnavailableResponse{
			ErrorResponse: models.ErrorResponse{
				Error:   "Route unavailable",
				Message: "Routing did not finish in time. Try again shortly.",
				Code:    http.StatusServiceUnavailable,
			},
			Route: result,
		})
		return
	}
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}
