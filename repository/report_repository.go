package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"civicpulse/models"
	"civicpulse/utils"
)

// ReportRepository handles database operations for reports
type ReportRepository struct {
	db *sql.DB
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// GenerateReportNumber generates a public report number
// Format: RPT-YYYYMMDD-{UUID prefix}
func GenerateReportNumber(now time.Time) string {
	return fmt.Sprintf("RPT-%s-%s", now.UTC().Format("20060102"), uuid.New().String()[:8])
}

const reportColumns = `
	report_id, report_number, title, description, category, priority, status,
	latitude, longitude, location_accuracy, address, district, ulb,
	reporter_id, assignee_id, media, admin_notes, worker_notes, comments, feedback,
	created_at, updated_at, assigned_at, resolved_at, closed_at, feedback_prompted_at,
	version`

// reportJSON carries the JSON-encoded list columns of a report row
type reportJSON struct {
	media, adminNotes, workerNotes, comments []byte
	feedback                                 sql.NullString
}

func encodeReportJSON(r *models.Report) (*reportJSON, error) {
	var out reportJSON
	var err error
	if out.media, err = json.Marshal(nonNilStrings(r.Media)); err != nil {
		return nil, fmt.Errorf("failed to encode media: %w", err)
	}
	if out.adminNotes, err = json.Marshal(nonNilNotes(r.AdminNotes)); err != nil {
		return nil, fmt.Errorf("failed to encode admin notes: %w", err)
	}
	if out.workerNotes, err = json.Marshal(nonNilNotes(r.WorkerNotes)); err != nil {
		return nil, fmt.Errorf("failed to encode worker notes: %w", err)
	}
	if out.comments, err = json.Marshal(nonNilNotes(r.Comments)); err != nil {
		return nil, fmt.Errorf("failed to encode comments: %w", err)
	}
	if r.Feedback != nil {
		b, err := json.Marshal(r.Feedback)
		if err != nil {
			return nil, fmt.Errorf("failed to encode feedback: %w", err)
		}
		out.feedback = sql.NullString{String: string(b), Valid: true}
	}
	return &out, nil
}

// CreateReport inserts a new report and its initial history row in one transaction
func (r *ReportRepository) CreateReport(ctx context.Context, report *models.Report, initial *models.StatusChange) error {
	enc, err := encodeReportJSON(report)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO reports (` + reportColumns + `) VALUES (` + placeholders(27) + `)`
	_, err = tx.ExecContext(ctx, query,
		report.ID, report.ReportNumber, report.Title, report.Description,
		report.Category, report.Priority, report.Status,
		report.Location.Latitude, report.Location.Longitude, report.Location.Accuracy,
		report.Address, report.District, report.ULB,
		report.ReporterID, report.AssigneeID,
		enc.media, enc.adminNotes, enc.workerNotes, enc.comments, enc.feedback,
		report.CreatedAt, report.UpdatedAt, report.AssignedAt, report.ResolvedAt,
		report.ClosedAt, report.FeedbackPromptedAt, report.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}

	if initial != nil {
		if err := insertStatusChange(ctx, tx, initial); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit report: %w", err)
	}
	return nil
}

// LoadReport retrieves a report by id
func (r *ReportRepository) LoadReport(ctx context.Context, reportID string) (*models.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE report_id = ?`
	report, err := scanReport(r.db.QueryRowContext(ctx, query, reportID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("report %s: %w", reportID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return report, nil
}

// SaveReport performs a version-checked update plus an optional history insert.
// Zero affected rows means another writer won (or the report is gone).
func (r *ReportRepository) SaveReport(ctx context.Context, report *models.Report, expectedVersion int, change *models.StatusChange) error {
	enc, err := encodeReportJSON(report)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE reports SET
			title = ?, description = ?, category = ?, priority = ?, status = ?,
			latitude = ?, longitude = ?, location_accuracy = ?, address = ?, district = ?, ulb = ?,
			assignee_id = ?, media = ?, admin_notes = ?, worker_notes = ?, comments = ?, feedback = ?,
			updated_at = ?, assigned_at = ?, resolved_at = ?, closed_at = ?, feedback_prompted_at = ?,
			version = version + 1
		WHERE report_id = ? AND version = ?
	`
	result, err := tx.ExecContext(ctx, query,
		report.Title, report.Description, report.Category, report.Priority, report.Status,
		report.Location.Latitude, report.Location.Longitude, report.Location.Accuracy,
		report.Address, report.District, report.ULB,
		report.AssigneeID, enc.media, enc.adminNotes, enc.workerNotes, enc.comments, enc.feedback,
		report.UpdatedAt, report.AssignedAt, report.ResolvedAt, report.ClosedAt, report.FeedbackPromptedAt,
		report.ID, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update report: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		var count int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM reports WHERE report_id = ?`, report.ID).Scan(&count); err != nil {
			return fmt.Errorf("failed to check report existence: %w", err)
		}
		if count == 0 {
			return fmt.Errorf("report %s: %w", report.ID, models.ErrNotFound)
		}
		return fmt.Errorf("report %s version %d: %w", report.ID, expectedVersion, models.ErrConflictRetry)
	}

	if change != nil {
		if err := insertStatusChange(ctx, tx, change); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit report update: %w", err)
	}
	report.Version = expectedVersion + 1
	return nil
}

// QueryOpenReportsNear uses the (latitude, longitude) index through a bounding box
func (r *ReportRepository) QueryOpenReportsNear(ctx context.Context, coords models.Coordinates, radiusMeters float64) ([]*models.Report, error) {
	minLat, maxLat, minLon, maxLon := utils.BoundingBox(coords.Latitude, coords.Longitude, radiusMeters)
	args := []interface{}{minLat, maxLat}

	// the window may straddle the antimeridian
	lonClauses := make([]string, 0, 2)
	for _, lr := range utils.LongitudeRanges(minLon, maxLon) {
		lonClauses = append(lonClauses, "longitude BETWEEN ? AND ?")
		args = append(args, lr.Min, lr.Max)
	}

	query := `SELECT ` + reportColumns + ` FROM reports
		WHERE latitude BETWEEN ? AND ?
			AND (` + strings.Join(lonClauses, " OR ") + `)
			AND status IN (` + placeholders(len(openStatuses)) + `)`
	for _, s := range openStatuses {
		args = append(args, s)
	}
	return r.queryReports(ctx, query, args...)
}

// ListReportsByReporter retrieves all reports of a citizen, newest first
func (r *ReportRepository) ListReportsByReporter(ctx context.Context, reporterID string) ([]*models.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE reporter_id = ? ORDER BY created_at DESC`
	return r.queryReports(ctx, query, reporterID)
}

// ListReportsByAssignee retrieves a worker's reports, optionally restricted to statuses
func (r *ReportRepository) ListReportsByAssignee(ctx context.Context, assigneeID string, statuses []models.ReportStatus) ([]*models.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE assignee_id = ?`
	args := []interface{}{assigneeID}
	if len(statuses) > 0 {
		query += ` AND status IN (` + placeholders(len(statuses)) + `)`
		for _, s := range statuses {
			args = append(args, s)
		}
	}
	query += ` ORDER BY created_at ASC`
	return r.queryReports(ctx, query, args...)
}

// ListOverdueAssignments retrieves assigned/in_progress reports assigned before cutoff
func (r *ReportRepository) ListOverdueAssignments(ctx context.Context, cutoff time.Time, limit int) ([]*models.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports
		WHERE status IN ('assigned', 'in_progress')
			AND assigned_at IS NOT NULL
			AND assigned_at < ?
		ORDER BY assigned_at ASC
		LIMIT ?`
	return r.queryReports(ctx, query, cutoff, limit)
}

// StatusHistory retrieves the status timeline for a report (oldest first)
func (r *ReportRepository) StatusHistory(ctx context.Context, reportID string) ([]models.StatusChange, error) {
	query := `
		SELECT history_id, report_id, old_status, new_status, actor_id, actor_role, note, created_at
		FROM report_status_history
		WHERE report_id = ?
		ORDER BY created_at ASC, history_id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to query status history: %w", err)
	}
	defer rows.Close()

	var history []models.StatusChange
	for rows.Next() {
		var h models.StatusChange
		var oldStatus, note sql.NullString
		if err := rows.Scan(&h.HistoryID, &h.ReportID, &oldStatus, &h.NewStatus, &h.ActorID, &h.ActorRole, &note, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan status history: %w", err)
		}
		h.OldStatus = models.ReportStatus(oldStatus.String)
		h.Note = note.String
		history = append(history, h)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status history: %w", err)
	}
	return history, nil
}

func (r *ReportRepository) queryReports(ctx context.Context, query string, args ...interface{}) ([]*models.Report, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	var reports []*models.Report
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, report)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reports: %w", err)
	}
	return reports, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReport(s rowScanner) (*models.Report, error) {
	var report models.Report
	var accuracy sql.NullFloat64
	var assignee, feedback sql.NullString
	var media, adminNotes, workerNotes, comments []byte
	var assignedAt, resolvedAt, closedAt, promptedAt sql.NullTime

	err := s.Scan(
		&report.ID, &report.ReportNumber, &report.Title, &report.Description,
		&report.Category, &report.Priority, &report.Status,
		&report.Location.Latitude, &report.Location.Longitude, &accuracy,
		&report.Address, &report.District, &report.ULB,
		&report.ReporterID, &assignee,
		&media, &adminNotes, &workerNotes, &comments, &feedback,
		&report.CreatedAt, &report.UpdatedAt, &assignedAt, &resolvedAt, &closedAt, &promptedAt,
		&report.Version,
	)
	if err != nil {
		return nil, err
	}

	if accuracy.Valid {
		report.Location.Accuracy = &accuracy.Float64
	}
	if assignee.Valid {
		report.AssigneeID = &assignee.String
	}
	report.AssignedAt = nullTimePtr(assignedAt)
	report.ResolvedAt = nullTimePtr(resolvedAt)
	report.ClosedAt = nullTimePtr(closedAt)
	report.FeedbackPromptedAt = nullTimePtr(promptedAt)

	if err := decodeJSONColumn(media, &report.Media); err != nil {
		return nil, err
	}
	if err := decodeJSONColumn(adminNotes, &report.AdminNotes); err != nil {
		return nil, err
	}
	if err := decodeJSONColumn(workerNotes, &report.WorkerNotes); err != nil {
		return nil, err
	}
	if err := decodeJSONColumn(comments, &report.Comments); err != nil {
		return nil, err
	}
	if feedback.Valid && feedback.String != "" {
		var fb models.Feedback
		if err := json.Unmarshal([]byte(feedback.String), &fb); err != nil {
			return nil, fmt.Errorf("failed to decode feedback: %w", err)
		}
		report.Feedback = &fb
	}
	return &report, nil
}

func insertStatusChange(ctx context.Context, tx *sql.Tx, change *models.StatusChange) error {
	query := `
		INSERT INTO report_status_history (
			report_id, old_status, new_status, actor_id, actor_role, note, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	var oldStatus, note sql.NullString
	if change.OldStatus != "" {
		oldStatus = sql.NullString{String: string(change.OldStatus), Valid: true}
	}
	if change.Note != "" {
		note = sql.NullString{String: change.Note, Valid: true}
	}
	result, err := tx.ExecContext(ctx, query,
		change.ReportID, oldStatus, change.NewStatus, change.ActorID, change.ActorRole, note, change.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create status history: %w", err)
	}
	historyID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get history ID: %w", err)
	}
	change.HistoryID = historyID
	return nil
}

func decodeJSONColumn(b []byte, dst interface{}) error {
	if len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("failed to decode json column: %w", err)
	}
	return nil
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilNotes(n []models.Note) []models.Note {
	if n == nil {
		return []models.Note{}
	}
	return n
}
