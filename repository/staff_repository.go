package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"civicpulse/models"
)

// StaffRepository handles database operations for admin and worker accounts
type StaffRepository struct {
	db *sql.DB
}

// NewStaffRepository creates a new staff repository
func NewStaffRepository(db *sql.DB) *StaffRepository {
	return &StaffRepository{db: db}
}

const staffColumns = `staff_id, email, password_hash, role, full_name, skills, max_tasks_per_day, is_active`

// CreateStaff inserts a staff account. Skills are stored as a comma list.
func (r *StaffRepository) CreateStaff(ctx context.Context, staff *models.Staff) error {
	query := `INSERT INTO staff (` + staffColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		staff.StaffID,
		strings.ToLower(staff.Email),
		staff.PasswordHash,
		staff.Role,
		staff.FullName,
		strings.Join(staff.Skills, ","),
		staff.MaxTasksPerDay,
		staff.IsActive,
	)
	if err != nil {
		return fmt.Errorf("failed to create staff: %w", err)
	}
	return nil
}

// GetStaffByEmail retrieves a staff account for login
func (r *StaffRepository) GetStaffByEmail(ctx context.Context, email string) (*models.Staff, error) {
	query := `SELECT ` + staffColumns + ` FROM staff WHERE email = ? LIMIT 1`
	staff, err := scanStaff(r.db.QueryRowContext(ctx, query, strings.ToLower(email)))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("staff %s: %w", email, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get staff: %w", err)
	}
	return staff, nil
}

// GetStaffByID retrieves a staff account by id
func (r *StaffRepository) GetStaffByID(ctx context.Context, staffID string) (*models.Staff, error) {
	query := `SELECT ` + staffColumns + ` FROM staff WHERE staff_id = ?`
	staff, err := scanStaff(r.db.QueryRowContext(ctx, query, staffID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("staff %s: %w", staffID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get staff: %w", err)
	}
	return staff, nil
}

func scanStaff(s rowScanner) (*models.Staff, error) {
	var staff models.Staff
	var skills sql.NullString
	err := s.Scan(
		&staff.StaffID,
		&staff.Email,
		&staff.PasswordHash,
		&staff.Role,
		&staff.FullName,
		&skills,
		&staff.MaxTasksPerDay,
		&staff.IsActive,
	)
	if err != nil {
		return nil, err
	}
	staff.Skills = splitSkills(skills.String)
	return &staff, nil
}

func splitSkills(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
