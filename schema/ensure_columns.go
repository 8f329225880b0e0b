package schema

import (
	"database/sql"
	"fmt"

	"civicpulse/logger"
)

// EnsureReportColumns adds report columns that older databases may lack
// (closed_at, feedback_prompted_at, version). Adds only missing columns; never drops.
func EnsureReportColumns(db *sql.DB) error {
	if err := ensureColumn(db, tableReports, "closed_at", "DATETIME(6) NULL"); err != nil {
		return err
	}
	if err := ensureColumn(db, tableReports, "feedback_prompted_at", "DATETIME(6) NULL"); err != nil {
		return err
	}
	if err := ensureColumn(db, tableReports, "version", "INT NOT NULL DEFAULT 0 COMMENT 'Optimistic concurrency counter'"); err != nil {
		return err
	}
	logger.GetLogger("schema").Info("[SCHEMA] Schema check passed")
	return nil
}

func tableExists(db *sql.DB, table string) (bool, error) {
	var count int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM information_schema.TABLES WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?`,
		table,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func ensureColumn(db *sql.DB, table, column, definition string) error {
	exists, err := columnExists(db, table, column)
	if err != nil {
		return fmt.Errorf("failed to check column %s.%s: %w", table, column, err)
	}
	if exists {
		return nil
	}
	// MySQL has no ADD COLUMN IF NOT EXISTS; existence was checked above
	query := "ALTER TABLE " + table + " ADD COLUMN " + column + " " + definition
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to add column %s.%s: %w", table, column, err)
	}
	logger.GetLogger("schema").Infof("[SCHEMA] Added missing column: %s.%s", table, column)
	return nil
}
