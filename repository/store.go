package repository

import (
	"context"
	"time"

	"civicpulse/models"
)

// ReportStore persists reports and their status history.
// LoadReport returns models.ErrNotFound for unknown ids; SaveReport returns
// models.ErrConflictRetry when the stored version differs from expectedVersion.
type ReportStore interface {
	CreateReport(ctx context.Context, report *models.Report, initial *models.StatusChange) error
	LoadReport(ctx context.Context, reportID string) (*models.Report, error)
	// SaveReport writes report and, when change is non-nil, appends it to the
	// history in the same unit of work. On success report.Version is bumped.
	SaveReport(ctx context.Context, report *models.Report, expectedVersion int, change *models.StatusChange) error
	// QueryOpenReportsNear returns non-terminal reports inside the bounding box
	// of radiusMeters around coords. Callers apply the exact distance check.
	QueryOpenReportsNear(ctx context.Context, coords models.Coordinates, radiusMeters float64) ([]*models.Report, error)
	ListReportsByReporter(ctx context.Context, reporterID string) ([]*models.Report, error)
	ListReportsByAssignee(ctx context.Context, assigneeID string, statuses []models.ReportStatus) ([]*models.Report, error)
	// ListOverdueAssignments returns assigned/in_progress reports whose assigned_at is before cutoff
	ListOverdueAssignments(ctx context.Context, cutoff time.Time, limit int) ([]*models.Report, error)
	StatusHistory(ctx context.Context, reportID string) ([]models.StatusChange, error)
}

// ScoreStore is the append-only point ledger
type ScoreStore interface {
	// AppendScoreEvent inserts the event unless (ReportID, Reason) already exists.
	// Returns false, nil for a duplicate.
	AppendScoreEvent(ctx context.Context, event *models.ScoreEvent) (bool, error)
	SumScoreEvents(ctx context.Context, actorID string) (int, error)
	ListScoreEvents(ctx context.Context, actorID string) ([]models.ScoreEvent, error)
	// TopScorers returns actors ordered by total points desc, ties by actor id. Rank is left zero.
	TopScorers(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
}

// NotificationStore persists in-app notifications
type NotificationStore interface {
	SaveNotification(ctx context.Context, n *models.Notification) error
	HasUnreadNotification(ctx context.Context, recipientID, reportID string, notificationType models.NotificationType) (bool, error)
	ListNotifications(ctx context.Context, recipientID string, unreadOnly bool, limit int) ([]models.Notification, error)
	// MarkNotificationRead flips read for a notification owned by recipientID (ErrNotFound otherwise)
	MarkNotificationRead(ctx context.Context, recipientID, notificationID string) error
}

// StaffStore holds admin and worker accounts
type StaffStore interface {
	CreateStaff(ctx context.Context, staff *models.Staff) error
	GetStaffByEmail(ctx context.Context, email string) (*models.Staff, error)
	GetStaffByID(ctx context.Context, staffID string) (*models.Staff, error)
}

// Store is the single authoritative data store
type Store interface {
	ReportStore
	ScoreStore
	NotificationStore
	StaffStore
}

// openStatuses are the statuses considered for duplicate detection
var openStatuses = []models.ReportStatus{
	models.StatusSubmitted,
	models.StatusAcknowledged,
	models.StatusAssigned,
	models.StatusInProgress,
}
