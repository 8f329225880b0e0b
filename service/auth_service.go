package service

import (
	"context"
	"errors"
	"fmt"

	"civicpulse/models"
	"civicpulse/repository"
	"civicpulse/utils"
)

// ErrInvalidCredentials is returned for unknown email, wrong password or inactive account
var ErrInvalidCredentials = errors.New("invalid credentials")

// staffTokenHours is the lifetime of a staff token (7 days)
const staffTokenHours = 24 * 7

// AuthService handles staff login
type AuthService struct {
	staff     repository.StaffStore
	jwtSecret []byte
}

// NewAuthService creates a new auth service
func NewAuthService(staff repository.StaffStore, jwtSecret string) *AuthService {
	return &AuthService{staff: staff, jwtSecret: []byte(jwtSecret)}
}

// Login validates email and password and issues a role-scoped token
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.StaffLoginResponse, error) {
	staff, err := s.staff.GetStaffByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to validate credentials: %w", err)
	}
	if !staff.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := utils.CheckStaffPassword(password, staff.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := utils.GenerateJWT(staff.StaffID, string(staff.Role), s.jwtSecret, staffTokenHours)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &models.StaffLoginResponse{
		Success: true,
		Token:   token,
		StaffID: staff.StaffID,
		Role:    staff.Role,
		Message: "Login successful",
	}, nil
}

// RegisterStaff creates an account with a bcrypt-hashed password
func (s *AuthService) RegisterStaff(ctx context.Context, staff *models.Staff, password string) error {
	if staff.Role != models.RoleAdmin && staff.Role != models.RoleWorker {
		return models.NewValidationError("role", "role must be admin or worker")
	}
	if len(password) < 8 {
		return models.NewValidationError("password", "password must be at least 8 characters")
	}
	hash, err := utils.HashStaffPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	staff.PasswordHash = hash
	return s.staff.CreateStaff(ctx, staff)
}
