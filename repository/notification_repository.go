package repository

import (
	"context"
	"database/sql"
	"fmt"

	"civicpulse/models"
)

// NotificationRepository handles database operations for notifications
type NotificationRepository struct {
	db *sql.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// SaveNotification creates a new notification record
func (r *NotificationRepository) SaveNotification(ctx context.Context, n *models.Notification) error {
	query := `
		INSERT INTO notifications (
			notification_id, recipient_id, type, title, message,
			priority, report_id, is_read, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		n.NotificationID,
		n.RecipientID,
		n.Type,
		n.Title,
		n.Message,
		n.Priority,
		n.ReportID,
		n.Read,
		n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// HasUnreadNotification checks for an unread notification of the given type about a report
func (r *NotificationRepository) HasUnreadNotification(ctx context.Context, recipientID, reportID string, notificationType models.NotificationType) (bool, error) {
	query := `
		SELECT COUNT(*)
		FROM notifications
		WHERE recipient_id = ? AND report_id = ? AND type = ? AND is_read = FALSE
	`
	var count int
	if err := r.db.QueryRowContext(ctx, query, recipientID, reportID, notificationType).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check unread notifications: %w", err)
	}
	return count > 0, nil
}

// ListNotifications retrieves a recipient's notifications, newest first
func (r *NotificationRepository) ListNotifications(ctx context.Context, recipientID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	query := `
		SELECT notification_id, recipient_id, type, title, message,
			priority, report_id, is_read, created_at
		FROM notifications
		WHERE recipient_id = ?
	`
	if unreadOnly {
		query += ` AND is_read = FALSE`
	}
	query += `
		ORDER BY
			CASE priority
				WHEN 'urgent' THEN 1
				WHEN 'high' THEN 2
				WHEN 'normal' THEN 3
				WHEN 'low' THEN 4
			END,
			created_at DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, recipientID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		var n models.Notification
		var reportID sql.NullString
		err := rows.Scan(
			&n.NotificationID,
			&n.RecipientID,
			&n.Type,
			&n.Title,
			&n.Message,
			&n.Priority,
			&reportID,
			&n.Read,
			&n.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		if reportID.Valid {
			n.ReportID = &reportID.String
		}
		notifications = append(notifications, n)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}

	return notifications, nil
}

// MarkNotificationRead flips the read flag. The recipient filter keeps users
// from touching each other's notifications.
func (r *NotificationRepository) MarkNotificationRead(ctx context.Context, recipientID, notificationID string) error {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE notification_id = ? AND recipient_id = ?`,
		notificationID, recipientID,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to look up notification: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("notification %s: %w", notificationID, models.ErrNotFound)
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE notification_id = ? AND recipient_id = ?`,
		notificationID, recipientID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}
