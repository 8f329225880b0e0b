// Package schema provides startup validation of required DB columns to prevent schema-code mismatch.
package schema

import (
	"database/sql"
	"fmt"
	"strings"

	"civicpulse/logger"
)

// RequiredColumn defines a required column for a table.
type RequiredColumn struct {
	Table  string
	Column string
}

// DefaultRequiredColumns are the columns the optimistic save, duplicate query and
// score idempotency depend on. If any are missing the server should not start.
var DefaultRequiredColumns = []RequiredColumn{
	{Table: tableReports, Column: "version"},
	{Table: tableReports, Column: "latitude"},
	{Table: tableReports, Column: "longitude"},
	{Table: tableReports, Column: "feedback_prompted_at"},
	{Table: tableStatusHistory, Column: "actor_role"},
	{Table: tableScoreEvents, Column: "reason"},
	{Table: tableNotifications, Column: "is_read"},
}

// ValidateRequiredColumns checks that all required columns exist and lists every missing one.
func ValidateRequiredColumns(db *sql.DB, required []RequiredColumn) error {
	if len(required) == 0 {
		required = DefaultRequiredColumns
	}
	var missing []string
	for _, rc := range required {
		exists, err := columnExists(db, rc.Table, rc.Column)
		if err != nil {
			return fmt.Errorf("failed to check column %s.%s: %w", rc.Table, rc.Column, err)
		}
		if !exists {
			missing = append(missing, rc.Table+"."+rc.Column)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required columns (run migrations to fix): %s", strings.Join(missing, ", "))
	}
	logger.GetLogger("schema").Info("[SCHEMA] Required columns verified")
	return nil
}

func columnExists(db *sql.DB, table, column string) (bool, error) {
	var count int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM information_schema.COLUMNS
		 WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ? AND COLUMN_NAME = ?`,
		table, column,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
