package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"civicpulse/config"
	"civicpulse/logger"
	"civicpulse/metrics"
	"civicpulse/models"
	"civicpulse/repository"
)

// NotificationService persists notification drafts and runs the overdue check
type NotificationService struct {
	store   repository.NotificationStore
	reports repository.ReportStore
	policy  config.OverduePolicy
	now     func() time.Time
	log     *logrus.Entry
}

// OverdueResult describes what the overdue check did for one report
type OverdueResult struct {
	ReportID    string
	RecipientID string
	Sent        bool
	Reason      string
}

// NewNotificationService creates a new notification service
func NewNotificationService(
	store repository.NotificationStore,
	reports repository.ReportStore,
	policy config.OverduePolicy,
) *NotificationService {
	return &NotificationService{
		store:   store,
		reports: reports,
		policy:  policy,
		now:     time.Now,
		log:     logger.GetLogger("notification"),
	}
}

// Persist saves drafts. A reminder is skipped when the recipient still has an
// unread reminder for the same report. Returns the number saved.
func (s *NotificationService) Persist(ctx context.Context, drafts []models.Notification) (int, error) {
	saved := 0
	for i := range drafts {
		n := drafts[i]
		if n.Type == models.NotificationReminder && n.ReportID != nil {
			unread, err := s.store.HasUnreadNotification(ctx, n.RecipientID, *n.ReportID, models.NotificationReminder)
			if err != nil {
				return saved, fmt.Errorf("failed to check existing reminders: %w", err)
			}
			if unread {
				continue
			}
		}

		if n.NotificationID == "" {
			n.NotificationID = uuid.New().String()
		}
		if n.CreatedAt.IsZero() {
			n.CreatedAt = s.now().UTC()
		}
		if n.Priority == "" {
			n.Priority = models.NotificationPriorityNormal
		}
		if err := s.store.SaveNotification(ctx, &n); err != nil {
			return saved, fmt.Errorf("failed to save notification: %w", err)
		}
		metrics.Notifications.WithLabelValues(string(n.Type)).Inc()
		saved++
	}
	return saved, nil
}

// List returns a recipient's notifications, most urgent first
func (s *NotificationService) List(ctx context.Context, recipientID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	notifications, err := s.store.ListNotifications(ctx, recipientID, unreadOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	return notifications, nil
}

// MarkRead flips the read flag of one of the recipient's notifications
func (s *NotificationService) MarkRead(ctx context.Context, recipientID, notificationID string) error {
	return s.store.MarkNotificationRead(ctx, recipientID, notificationID)
}

// ProcessOverdue emits at most one reminder per overdue assignment per cycle.
// Safe to call repeatedly: unread reminders are not duplicated.
func (s *NotificationService) ProcessOverdue(ctx context.Context) ([]OverdueResult, error) {
	now := s.now().UTC()
	batch := s.policy.BatchSize
	if batch <= 0 {
		batch = 200
	}

	candidates, err := s.reports.ListOverdueAssignments(ctx, now.Add(-s.policy.Threshold), batch)
	if err != nil {
		return nil, fmt.Errorf("failed to get overdue assignments: %w", err)
	}

	results := make([]OverdueResult, 0, len(candidates))
	for _, report := range candidates {
		draft := OverdueReminder(report, now, s.policy.Threshold)
		if draft == nil {
			continue
		}
		saved, err := s.Persist(ctx, []models.Notification{*draft})
		if err != nil {
			s.log.WithError(err).Warnf("[overdue] skipping report %s", report.ID)
			continue
		}
		result := OverdueResult{ReportID: report.ID, RecipientID: draft.RecipientID, Sent: saved > 0}
		if saved == 0 {
			result.Reason = "unread reminder already pending"
		}
		results = append(results, result)
	}
	return results, nil
}
