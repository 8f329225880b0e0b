package service

import (
	"strings"
	"time"

	"civicpulse/models"
)

// allowedTransitions is the report lifecycle graph. closed accepts nothing.
var allowedTransitions = map[models.ReportStatus][]models.ReportStatus{
	models.StatusSubmitted:    {models.StatusAcknowledged, models.StatusAssigned, models.StatusRejected},
	models.StatusAcknowledged: {models.StatusAssigned, models.StatusRejected},
	models.StatusAssigned:     {models.StatusInProgress, models.StatusRejected},
	models.StatusInProgress:   {models.StatusResolved, models.StatusRejected},
	models.StatusResolved:     {models.StatusClosed},
	models.StatusRejected:     {models.StatusClosed},
	models.StatusClosed:       {},
}

// workerTargets are the statuses a worker may move their own reports into
var workerTargets = map[models.ReportStatus]bool{
	models.StatusInProgress: true,
	models.StatusResolved:   true,
	models.StatusRejected:   true,
}

// CanTransition reports whether from → to is in the lifecycle graph
func CanTransition(from, to models.ReportStatus) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the statuses reachable from from
func AllowedTransitions(from models.ReportStatus) []models.ReportStatus {
	return append([]models.ReportStatus(nil), allowedTransitions[from]...)
}

// authorizeTransition applies the role rules: citizens never transition;
// workers act only on their own assignments and only into workerTargets.
func authorizeTransition(report *models.Report, req *models.TransitionRequest) error {
	switch req.ActorRole {
	case models.RoleAdmin, models.RoleSystem:
		return nil
	case models.RoleWorker:
		if report.AssigneeID == nil || *report.AssigneeID != req.ActorID {
			return models.ErrForbidden
		}
		if !workerTargets[req.NewStatus] {
			return models.ErrForbidden
		}
		return nil
	}
	return models.ErrForbidden
}

// applyTransition validates req against report and mutates report in place.
// On error report is untouched.
func applyTransition(report *models.Report, req *models.TransitionRequest, now time.Time) (*models.StatusChange, error) {
	if strings.TrimSpace(req.ActorID) == "" {
		return nil, models.NewValidationError("actor_id", "actor identity is required")
	}
	if !req.NewStatus.Valid() {
		return nil, models.NewValidationError("new_status", "unknown status "+string(req.NewStatus))
	}
	if !CanTransition(report.Status, req.NewStatus) {
		return nil, &models.TransitionError{From: report.Status, To: req.NewStatus}
	}

	var assignee *string
	if req.NewStatus == models.StatusAssigned {
		if req.AssigneeID == nil || strings.TrimSpace(*req.AssigneeID) == "" {
			return nil, models.NewValidationError("assignee_id", "assignee is required when assigning")
		}
		a := strings.TrimSpace(*req.AssigneeID)
		assignee = &a
	}

	old := report.Status
	report.Status = req.NewStatus
	report.UpdatedAt = now

	switch req.NewStatus {
	case models.StatusAssigned:
		report.AssigneeID = assignee
		t := now
		report.AssignedAt = &t
	case models.StatusResolved:
		t := now
		report.ResolvedAt = &t
	case models.StatusRejected:
		// rejected carries an assignee; an unassigned report is owned by whoever rejected it
		if report.AssigneeID == nil {
			a := req.ActorID
			report.AssigneeID = &a
		}
	case models.StatusClosed:
		t := now
		report.ClosedAt = &t
	}

	if note := strings.TrimSpace(req.Note); note != "" {
		entry := models.Note{Text: note, AuthorID: req.ActorID, CreatedAt: now, Location: req.Location}
		if req.ActorRole == models.RoleWorker {
			report.WorkerNotes = append(report.WorkerNotes, entry)
		} else {
			report.AdminNotes = append(report.AdminNotes, entry)
		}
	}

	return &models.StatusChange{
		ReportID:  report.ID,
		OldStatus: old,
		NewStatus: req.NewStatus,
		ActorID:   req.ActorID,
		ActorRole: req.ActorRole,
		Note:      strings.TrimSpace(req.Note),
		CreatedAt: now,
	}, nil
}
