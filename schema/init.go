// Package schema: safe database initialization. Creates only missing tables, never drops or overwrites.

package schema

import (
	"database/sql"
	"fmt"

	"civicpulse/logger"
)

const (
	tableReports       = "reports"
	tableStatusHistory = "report_status_history"
	tableScoreEvents   = "score_events"
	tableNotifications = "notifications"
	tableStaff         = "staff"
)

// InitializeDatabase ensures core tables exist. Checks INFORMATION_SCHEMA.TABLES; creates only missing
// tables in order: staff → reports → report_status_history → score_events → notifications. Then runs
// EnsureReportColumns to add columns introduced after the first release.
func InitializeDatabase(db *sql.DB) error {
	log := logger.GetLogger("schema")

	tables := []struct {
		name   string
		create string
	}{
		{tableStaff, createStaffTable},
		{tableReports, createReportsTable},
		{tableStatusHistory, createStatusHistoryTable},
		{tableScoreEvents, createScoreEventsTable},
		{tableNotifications, createNotificationsTable},
	}

	for _, t := range tables {
		exists, err := tableExists(db, t.name)
		if err != nil {
			return fmt.Errorf("failed to check if table %s exists: %w", t.name, err)
		}
		if exists {
			log.Debugf("[SCHEMA] %s table exists", t.name)
			continue
		}
		if _, err := db.Exec(t.create); err != nil {
			return fmt.Errorf("failed to create table %s: %w", t.name, err)
		}
		log.Infof("[SCHEMA] created %s table", t.name)
	}

	return EnsureReportColumns(db)
}

const createStaffTable = `
CREATE TABLE IF NOT EXISTS staff (
    staff_id VARCHAR(36) PRIMARY KEY,
    email VARCHAR(255) UNIQUE NOT NULL COMMENT 'Login email (lower-case)',
    password_hash VARCHAR(255) NOT NULL COMMENT 'bcrypt hash',
    role ENUM('admin', 'worker') NOT NULL,
    full_name VARCHAR(255) NOT NULL DEFAULT '',
    skills VARCHAR(1000) NULL COMMENT 'Comma-separated skill keywords',
    max_tasks_per_day INT NOT NULL DEFAULT 8,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    INDEX idx_role (role)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`

const createReportsTable = `
CREATE TABLE IF NOT EXISTS reports (
    report_id VARCHAR(36) PRIMARY KEY,
    report_number VARCHAR(50) UNIQUE NOT NULL COMMENT 'Public-facing report number',
    title VARCHAR(500) NOT NULL,
    description TEXT NOT NULL,
    category ENUM('pothole', 'streetlight', 'garbage', 'drainage', 'traffic', 'water', 'electricity', 'other') NOT NULL,
    priority ENUM('low', 'medium', 'high') NOT NULL DEFAULT 'medium',
    status ENUM('submitted', 'acknowledged', 'assigned', 'in_progress', 'resolved', 'rejected', 'closed') NOT NULL DEFAULT 'submitted',
    latitude DOUBLE NOT NULL,
    longitude DOUBLE NOT NULL,
    location_accuracy DOUBLE NULL COMMENT 'GPS accuracy in meters',
    address VARCHAR(500) NOT NULL DEFAULT '',
    district VARCHAR(100) NOT NULL DEFAULT '',
    ulb VARCHAR(100) NOT NULL DEFAULT '' COMMENT 'Urban local body',
    reporter_id VARCHAR(64) NOT NULL,
    assignee_id VARCHAR(64) NULL,
    media JSON NULL,
    admin_notes JSON NULL,
    worker_notes JSON NULL,
    comments JSON NULL,
    feedback JSON NULL,
    created_at DATETIME(6) NOT NULL,
    updated_at DATETIME(6) NOT NULL,
    assigned_at DATETIME(6) NULL,
    resolved_at DATETIME(6) NULL,
    closed_at DATETIME(6) NULL,
    feedback_prompted_at DATETIME(6) NULL,
    version INT NOT NULL DEFAULT 0 COMMENT 'Optimistic concurrency counter',
    INDEX idx_lat_lng (latitude, longitude),
    INDEX idx_status (status),
    INDEX idx_reporter (reporter_id, created_at),
    INDEX idx_assignee_status (assignee_id, status),
    INDEX idx_status_assigned (status, assigned_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`

const createStatusHistoryTable = `
CREATE TABLE IF NOT EXISTS report_status_history (
    history_id BIGINT PRIMARY KEY AUTO_INCREMENT,
    report_id VARCHAR(36) NOT NULL,
    old_status VARCHAR(20) NULL COMMENT 'NULL on creation',
    new_status VARCHAR(20) NOT NULL,
    actor_id VARCHAR(64) NOT NULL,
    actor_role ENUM('citizen', 'admin', 'worker', 'system') NOT NULL,
    note TEXT NULL,
    created_at DATETIME(6) NOT NULL,
    FOREIGN KEY (report_id) REFERENCES reports(report_id) ON DELETE RESTRICT,
    INDEX idx_report_created (report_id, created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`

const createScoreEventsTable = `
CREATE TABLE IF NOT EXISTS score_events (
    event_id BIGINT PRIMARY KEY AUTO_INCREMENT,
    actor_id VARCHAR(64) NOT NULL,
    report_id VARCHAR(36) NOT NULL,
    reason ENUM('submit', 'resolve', 'feedback') NOT NULL,
    points INT NOT NULL,
    created_at DATETIME(6) NOT NULL,
    UNIQUE KEY uq_report_reason (report_id, reason),
    INDEX idx_actor (actor_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`

const createNotificationsTable = `
CREATE TABLE IF NOT EXISTS notifications (
    notification_id VARCHAR(36) PRIMARY KEY,
    recipient_id VARCHAR(64) NOT NULL,
    type ENUM('new_task', 'reminder', 'emergency', 'weather', 'schedule', 'system') NOT NULL,
    title VARCHAR(255) NOT NULL,
    message TEXT NOT NULL,
    priority ENUM('low', 'normal', 'high', 'urgent') NOT NULL DEFAULT 'normal',
    report_id VARCHAR(36) NULL,
    is_read BOOLEAN NOT NULL DEFAULT FALSE,
    created_at DATETIME(6) NOT NULL,
    INDEX idx_recipient_read (recipient_id, is_read),
    INDEX idx_recipient_report_type (recipient_id, report_id, type)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`
