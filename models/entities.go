package models

import (
	"time"
)

// ReportStatus represents the possible statuses of a report
type ReportStatus string

const (
	StatusSubmitted    ReportStatus = "submitted"
	StatusAcknowledged ReportStatus = "acknowledged"
	StatusAssigned     ReportStatus = "assigned"
	StatusInProgress   ReportStatus = "in_progress"
	StatusResolved     ReportStatus = "resolved"
	StatusRejected     ReportStatus = "rejected"
	StatusClosed       ReportStatus = "closed"
)

// AllStatuses lists every status in lifecycle order
var AllStatuses = []ReportStatus{
	StatusSubmitted,
	StatusAcknowledged,
	StatusAssigned,
	StatusInProgress,
	StatusResolved,
	StatusRejected,
	StatusClosed,
}

// IsTerminal reports whether the status no longer accepts work (resolved, rejected, closed).
// Terminal reports are excluded from duplicate detection.
func (s ReportStatus) IsTerminal() bool {
	switch s {
	case StatusResolved, StatusRejected, StatusClosed:
		return true
	}
	return false
}

// Valid reports whether s is one of the wire values
func (s ReportStatus) Valid() bool {
	for _, v := range AllStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Category represents the kind of civic issue
type Category string

const (
	CategoryPothole     Category = "pothole"
	CategoryStreetlight Category = "streetlight"
	CategoryGarbage     Category = "garbage"
	CategoryDrainage    Category = "drainage"
	CategoryTraffic     Category = "traffic"
	CategoryWater       Category = "water"
	CategoryElectricity Category = "electricity"
	CategoryOther       Category = "other"
)

// AllCategories lists every wire value for Category
var AllCategories = []Category{
	CategoryPothole,
	CategoryStreetlight,
	CategoryGarbage,
	CategoryDrainage,
	CategoryTraffic,
	CategoryWater,
	CategoryElectricity,
	CategoryOther,
}

// Priority represents report priority levels
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Weight returns the routing weight of a priority: high 3, medium 2, low 1.
// Unknown values weigh 0 so they sort last.
func (p Priority) Weight() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// ActorRole represents who performed an action
type ActorRole string

const (
	RoleCitizen ActorRole = "citizen"
	RoleAdmin   ActorRole = "admin"
	RoleWorker  ActorRole = "worker"
	RoleSystem  ActorRole = "system"
)

// Coordinates is a WGS84 point with optional GPS accuracy in meters
type Coordinates struct {
	Latitude  float64  `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64  `json:"longitude" validate:"gte=-180,lte=180"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
}

// Note is an entry in a report's admin notes, worker notes or citizen comments
type Note struct {
	Text      string       `json:"text"`
	AuthorID  string       `json:"author_id"`
	CreatedAt time.Time    `json:"created_at"`
	Location  *Coordinates `json:"location,omitempty"`
}

// Feedback is the citizen's rating of a resolved report
type Feedback struct {
	Rating      int       `json:"rating"`
	Comment     string    `json:"comment,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Report represents a citizen-submitted civic issue and its lifecycle state
type Report struct {
	ID           string       `db:"report_id" json:"id"`
	ReportNumber string       `db:"report_number" json:"report_number"`
	Title        string       `db:"title" json:"title"`
	Description  string       `db:"description" json:"description"`
	Category     Category     `db:"category" json:"category"`
	Priority     Priority     `db:"priority" json:"priority"`
	Status       ReportStatus `db:"status" json:"status"`
	Location     Coordinates  `json:"location"`
	Address      string       `db:"address" json:"address,omitempty"`
	District     string       `db:"district" json:"district,omitempty"`
	ULB          string       `db:"ulb" json:"ulb,omitempty"`
	ReporterID   string       `db:"reporter_id" json:"reporter_id"`
	AssigneeID   *string      `db:"assignee_id" json:"assignee_id,omitempty"`
	Media        []string     `db:"media" json:"media,omitempty"`
	AdminNotes   []Note       `db:"admin_notes" json:"admin_notes,omitempty"`
	WorkerNotes  []Note       `db:"worker_notes" json:"worker_notes,omitempty"`
	Comments     []Note       `db:"comments" json:"comments,omitempty"`
	Feedback     *Feedback    `db:"feedback" json:"feedback,omitempty"`

	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
	AssignedAt         *time.Time `db:"assigned_at" json:"assigned_at,omitempty"`
	ResolvedAt         *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
	ClosedAt           *time.Time `db:"closed_at" json:"closed_at,omitempty"`
	FeedbackPromptedAt *time.Time `db:"feedback_prompted_at" json:"-"`

	// Version is bumped on every save; writers must present the version they read.
	Version int `db:"version" json:"version"`
}

// Clone returns a deep copy so callers can mutate without touching shared state
func (r *Report) Clone() *Report {
	if r == nil {
		return nil
	}
	c := *r
	if r.Location.Accuracy != nil {
		acc := *r.Location.Accuracy
		c.Location.Accuracy = &acc
	}
	if r.AssigneeID != nil {
		a := *r.AssigneeID
		c.AssigneeID = &a
	}
	c.Media = append([]string(nil), r.Media...)
	c.AdminNotes = append([]Note(nil), r.AdminNotes...)
	c.WorkerNotes = append([]Note(nil), r.WorkerNotes...)
	c.Comments = append([]Note(nil), r.Comments...)
	if r.Feedback != nil {
		f := *r.Feedback
		c.Feedback = &f
	}
	c.AssignedAt = cloneTime(r.AssignedAt)
	c.ResolvedAt = cloneTime(r.ResolvedAt)
	c.ClosedAt = cloneTime(r.ClosedAt)
	c.FeedbackPromptedAt = cloneTime(r.FeedbackPromptedAt)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// StatusChange represents a status change record (immutable)
type StatusChange struct {
	HistoryID int64        `db:"history_id" json:"history_id"`
	ReportID  string       `db:"report_id" json:"report_id"`
	OldStatus ReportStatus `db:"old_status" json:"old_status,omitempty"`
	NewStatus ReportStatus `db:"new_status" json:"new_status"`
	ActorID   string       `db:"actor_id" json:"actor_id"`
	ActorRole ActorRole    `db:"actor_role" json:"actor_role"`
	Note      string       `db:"note" json:"note,omitempty"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
}

// Staff represents an admin or field worker account
type Staff struct {
	StaffID        string    `db:"staff_id" json:"staff_id"`
	Email          string    `db:"email" json:"email"`
	PasswordHash   string    `db:"password_hash" json:"-"`
	Role           ActorRole `db:"role" json:"role"`
	FullName       string    `db:"full_name" json:"full_name"`
	Skills         []string  `db:"skills" json:"skills,omitempty"`
	MaxTasksPerDay int       `db:"max_tasks_per_day" json:"max_tasks_per_day"`
	IsActive       bool      `db:"is_active" json:"is_active"`
}
