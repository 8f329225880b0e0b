package models

import "time"

// CreateReportRequest represents the citizen submission payload
type CreateReportRequest struct {
	Title       string       `json:"title" validate:"required,max=500,no_xss"`
	Description string       `json:"description" validate:"required,no_xss"`
	Category    Category     `json:"category" validate:"required,oneof=pothole streetlight garbage drainage traffic water electricity other"`
	Priority    *Priority    `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
	Location    *Coordinates `json:"location,omitempty" validate:"omitempty"`
	Address     string       `json:"address,omitempty" validate:"max=500"`
	District    string       `json:"district,omitempty" validate:"max=100"`
	ULB         string       `json:"ulb,omitempty" validate:"max=100"`
	Media       []string     `json:"media,omitempty" validate:"omitempty,dive,url"`

	// ConfirmDuplicate is the citizen's explicit "proceed anyway" after
	// being shown nearby open reports.
	ConfirmDuplicate bool `json:"confirm_duplicate"`
}

// CreateReportResponse is returned by a successful submission, or by a
// submission held back for duplicate confirmation (Report nil, Duplicates set).
type CreateReportResponse struct {
	Report     *Report               `json:"report,omitempty"`
	Duplicates *DuplicateCheckResult `json:"duplicates,omitempty"`
	Message    string                `json:"message"`
}

// NearbyRequest asks for open reports around a point. A missing location
// yields a degraded, empty result rather than an error.
type NearbyRequest struct {
	Location     *Coordinates `json:"location" validate:"omitempty"`
	RadiusMeters float64      `json:"radius_meters,omitempty" validate:"gte=0,lte=5000"`
}

// TransitionRequest represents an admin/worker status change.
// ActorID and ActorRole are taken from the authenticated token, never the body.
type TransitionRequest struct {
	ReportID   string       `json:"-"`
	NewStatus  ReportStatus `json:"new_status" validate:"required,oneof=submitted acknowledged assigned in_progress resolved rejected closed"`
	Note       string       `json:"note,omitempty" validate:"max=2000"`
	AssigneeID *string      `json:"assignee_id,omitempty"`
	Location   *Coordinates `json:"location,omitempty" validate:"omitempty"`
	ActorID    string       `json:"-"`
	ActorRole  ActorRole    `json:"-"`
}

// TransitionResponse reports the applied change
type TransitionResponse struct {
	Report    *Report      `json:"report"`
	OldStatus ReportStatus `json:"old_status"`
	NewStatus ReportStatus `json:"new_status"`
	Message   string       `json:"message"`
}

// CommentRequest represents a citizen comment
type CommentRequest struct {
	Text string `json:"text" validate:"required,max=2000,no_xss"`
}

// FeedbackRequest represents the citizen's rating of a resolved report
type FeedbackRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment,omitempty" validate:"max=2000"`
}

// FeedbackResponse reports the attached feedback and points awarded
type FeedbackResponse struct {
	Report        *Report `json:"report"`
	PointsAwarded int     `json:"points_awarded"`
	Message       string  `json:"message"`
}

// RouteRequest is the worker dashboard's routing call
type RouteRequest struct {
	Location *Coordinates `json:"location,omitempty" validate:"omitempty"`
	Skills   []string     `json:"skills,omitempty"`
	Options  RouteOptions `json:"options"`
}

// StatusTimelineEntry is one row of a report's status timeline
type StatusTimelineEntry struct {
	OldStatus *string   `json:"old_status,omitempty"`
	NewStatus string    `json:"new_status"`
	ActorID   string    `json:"actor_id"`
	ActorRole string    `json:"actor_role"`
	Note      *string   `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// StatusTimelineResponse is the full status history of a report
type StatusTimelineResponse struct {
	ReportID     string                `json:"report_id"`
	ReportNumber string                `json:"report_number"`
	Timeline     []StatusTimelineEntry `json:"timeline"`
}

// StaffLoginRequest represents staff login request
type StaffLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// StaffLoginResponse represents staff login response
type StaffLoginResponse struct {
	Success bool      `json:"success"`
	Token   string    `json:"token"`
	StaffID string    `json:"staff_id"`
	Role    ActorRole `json:"role"`
	Message string    `json:"message"`
}

// ErrorResponse is the JSON body of every error reply
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
