package repository

import "database/sql"

// MySQLStore composes the table repositories into a Store
type MySQLStore struct {
	*ReportRepository
	*ScoreRepository
	*NotificationRepository
	*StaffRepository
}

// NewMySQLStore creates a Store backed by db
func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{
		ReportRepository:       NewReportRepository(db),
		ScoreRepository:        NewScoreRepository(db),
		NotificationRepository: NewNotificationRepository(db),
		StaffRepository:        NewStaffRepository(db),
	}
}

var _ Store = (*MySQLStore)(nil)
