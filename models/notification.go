package models

import (
	"time"
)

// NotificationType represents the kind of in-app notification
type NotificationType string

const (
	NotificationNewTask   NotificationType = "new_task"
	NotificationReminder  NotificationType = "reminder"
	NotificationEmergency NotificationType = "emergency"
	NotificationWeather   NotificationType = "weather"
	NotificationSchedule  NotificationType = "schedule"
	NotificationSystem    NotificationType = "system"
)

// NotificationPriority represents notification priority
type NotificationPriority string

const (
	NotificationPriorityLow    NotificationPriority = "low"
	NotificationPriorityNormal NotificationPriority = "normal"
	NotificationPriorityHigh   NotificationPriority = "high"
	NotificationPriorityUrgent NotificationPriority = "urgent"
)

// Notification represents a notification record
type Notification struct {
	NotificationID string               `db:"notification_id" json:"id"`
	RecipientID    string               `db:"recipient_id" json:"recipient_id"`
	Type           NotificationType     `db:"type" json:"type"`
	Title          string               `db:"title" json:"title"`
	Message        string               `db:"message" json:"message"`
	Priority       NotificationPriority `db:"priority" json:"priority"`
	ReportID       *string              `db:"report_id" json:"report_id,omitempty"`
	Read           bool                 `db:"is_read" json:"read"`
	CreatedAt      time.Time            `db:"created_at" json:"created_at"`
}

// DispatchConfig holds retry configuration for best-effort side effects
// (scoring and notifications triggered by a transition)
type DispatchConfig struct {
	// Default retry configuration
	MaxAttempts int

	// Retry backoff configuration
	InitialRetryDelay time.Duration
	MaxRetryDelay     time.Duration
	BackoffMultiplier float64

	// Per-attempt timeout
	AttemptTimeout time.Duration
}

// DefaultDispatchConfig returns default dispatch configuration
func DefaultDispatchConfig() *DispatchConfig {
	return &DispatchConfig{
		MaxAttempts:       4,
		InitialRetryDelay: 500 * time.Millisecond,
		MaxRetryDelay:     30 * time.Second,
		BackoffMultiplier: 2.0,
		AttemptTimeout:    10 * time.Second,
	}
}
