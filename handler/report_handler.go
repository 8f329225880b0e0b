package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"civicpulse/models"
	"civicpulse/service"
)

// ReportHandler handles citizen report endpoints and staff transitions
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler creates a new report handler
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// CreateReport handles POST /api/v1/reports.
// Nearby open reports without confirm_duplicate → 409 with the candidates.
func (h *ReportHandler) CreateReport(w http.ResponseWriter, r *http.Request) {
	actorID, _, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	var req models.CreateReportRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.reports.Create(r.Context(), actorID, &req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	if resp.Report == nil {
		respondWithJSON(w, http.StatusConflict, resp)
		return
	}
	respondWithJSON(w, http.StatusCreated, resp)
}

// CheckNearby handles POST /api/v1/reports/nearby
func (h *ReportHandler) CheckNearby(w http.ResponseWriter, r *http.Request) {
	var req models.NearbyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.RadiusMeters < 0 || req.RadiusMeters > 5000 {
		respondWithError(w, http.StatusBadRequest, "Validation failed", "radius_meters must be within 0..5000")
		return
	}
	respondWithJSON(w, http.StatusOK, h.reports.CheckDuplicates(r.Context(), req.Location, req.RadiusMeters))
}

// ListMyReports handles GET /api/v1/reports
func (h *ReportHandler) ListMyReports(w http.ResponseWriter, r *http.Request) {
	actorID, _, ok := actorFromRequest(w, r)
	if !ok {
		return
	}
	reports, err := h.reports.ListByReporter(r.Context(), actorID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"reports": reports,
		"count":   len(reports),
	})
}

// GetReport handles GET /api/v1/reports/{id}
func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.reports.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, report)
}

// GetTimeline handles GET /api/v1/reports/{id}/timeline
func (h *ReportHandler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	timeline, err := h.reports.Timeline(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, timeline)
}

// AddComment handles POST /api/v1/reports/{id}/comments
func (h *ReportHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	actorID, _, ok := actorFromRequest(w, r)
	if !ok {
		return
	}
	var req models.CommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	report, err := h.reports.AddComment(r.Context(), mux.Vars(r)["id"], actorID, req.Text)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, report)
}

// SubmitFeedback handles POST /api/v1/reports/{id}/feedback
func (h *ReportHandler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	actorID, _, ok := actorFromRequest(w, r)
	if !ok {
		return
	}
	var req models.FeedbackRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.reports.SubmitFeedback(r.Context(), mux.Vars(r)["id"], actorID, &req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, resp)
}

// FeedbackPrompts handles GET /api/v1/reports/feedback-prompts.
// Each resolved report is returned once.
func (h *ReportHandler) FeedbackPrompts(w http.ResponseWriter, r *http.Request) {
	actorID, _, ok := actorFromRequest(w, r)
	if !ok {
		return
	}
	prompts, err := h.reports.TakeFeedbackPrompts(r.Context(), actorID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"reports": prompts})
}

// Transition handles POST /api/v1/reports/{id}/transition (admin, worker).
// Actor identity always comes from the token.
func (h *ReportHandler) Transition(w http.ResponseWriter, r *http.Request) {
	actorID, role, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	var req models.TransitionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.NewStatus == "" {
		respondWithError(w, http.StatusBadRequest, "Validation failed", "new_status is required")
		return
	}
	req.ReportID = mux.Vars(r)["id"]
	req.ActorID = actorID
	req.ActorRole = role

	resp, err := h.reports.Transition(r.Context(), &req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, resp)
}
