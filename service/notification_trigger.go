package service

import (
	"fmt"
	"time"

	"civicpulse/models"
)

// DeriveNotifications returns the notification drafts for an applied status change.
// Drafts carry no id; NotificationService assigns one when persisting.
func DeriveNotifications(report *models.Report, change *models.StatusChange) []models.Notification {
	if report == nil || change == nil {
		return nil
	}
	reportID := report.ID

	switch change.NewStatus {
	case models.StatusAssigned:
		if report.AssigneeID == nil {
			return nil
		}
		n := models.Notification{
			RecipientID: *report.AssigneeID,
			Type:        models.NotificationNewTask,
			Title:       "New task assigned",
			Message:     fmt.Sprintf("%s (%s) has been assigned to you.", report.Title, report.ReportNumber),
			Priority:    models.NotificationPriorityNormal,
			ReportID:    &reportID,
			CreatedAt:   change.CreatedAt,
		}
		if report.Priority == models.PriorityHigh {
			n.Type = models.NotificationEmergency
			n.Title = "Urgent task assigned"
			n.Priority = models.NotificationPriorityUrgent
		}
		return []models.Notification{n}

	case models.StatusResolved:
		return []models.Notification{{
			RecipientID: report.ReporterID,
			Type:        models.NotificationSystem,
			Title:       "Your report has been resolved",
			Message:     fmt.Sprintf("%s (%s) was marked resolved. Tell us how we did.", report.Title, report.ReportNumber),
			Priority:    models.NotificationPriorityNormal,
			ReportID:    &reportID,
			CreatedAt:   change.CreatedAt,
		}}

	case models.StatusRejected:
		msg := fmt.Sprintf("%s (%s) was rejected.", report.Title, report.ReportNumber)
		if change.Note != "" {
			msg += " Reason: " + change.Note
		}
		return []models.Notification{{
			RecipientID: report.ReporterID,
			Type:        models.NotificationSystem,
			Title:       "Your report was rejected",
			Message:     msg,
			Priority:    models.NotificationPriorityNormal,
			ReportID:    &reportID,
			CreatedAt:   change.CreatedAt,
		}}
	}
	return nil
}

// OverdueReminder returns a reminder draft when an assignment has been open
// longer than threshold, or nil.
func OverdueReminder(report *models.Report, now time.Time, threshold time.Duration) *models.Notification {
	if report == nil || report.AssigneeID == nil || report.AssignedAt == nil {
		return nil
	}
	if report.Status != models.StatusAssigned && report.Status != models.StatusInProgress {
		return nil
	}
	open := now.Sub(*report.AssignedAt)
	if open <= threshold {
		return nil
	}

	reportID := report.ID
	return &models.Notification{
		RecipientID: *report.AssigneeID,
		Type:        models.NotificationReminder,
		Title:       "Task overdue",
		Message: fmt.Sprintf("%s (%s) has been %s for %s.",
			report.Title, report.ReportNumber, report.Status, open.Truncate(time.Minute)),
		Priority:  models.NotificationPriorityHigh,
		ReportID:  &reportID,
		CreatedAt: now,
	}
}
