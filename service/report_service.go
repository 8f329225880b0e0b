package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"civicpulse/logger"
	"civicpulse/metrics"
	"civicpulse/models"
	"civicpulse/repository"
	"civicpulse/utils"
)

// ReportService owns the report lifecycle: submission, transitions, comments
// and feedback. Same-report writers are serialized in-process and guarded by
// the store's version check across processes.
type ReportService struct {
	store         repository.ReportStore
	detector      *DuplicateDetector
	scoring       *ScoringEngine
	notifications *NotificationService
	dispatcher    *Dispatcher
	locks         *keyedMutex
	now           func() time.Time
	log           *logrus.Entry
}

// NewReportService creates a new report service
func NewReportService(
	store repository.ReportStore,
	detector *DuplicateDetector,
	scoring *ScoringEngine,
	notifications *NotificationService,
	dispatcher *Dispatcher,
) *ReportService {
	return &ReportService{
		store:         store,
		detector:      detector,
		scoring:       scoring,
		notifications: notifications,
		dispatcher:    dispatcher,
		locks:         newKeyedMutex(),
		now:           time.Now,
		log:           logger.GetLogger("report"),
	}
}

// CheckDuplicates runs the duplicate check without creating anything
func (s *ReportService) CheckDuplicates(ctx context.Context, coords *models.Coordinates, radiusMeters float64) *models.DuplicateCheckResult {
	return s.detector.CheckWithin(ctx, coords, radiusMeters)
}

// Create submits a new report in status submitted.
//
// When open reports exist nearby and req.ConfirmDuplicate is false, nothing is
// created and the response carries the candidates for the citizen to confirm.
func (s *ReportService) Create(ctx context.Context, reporterID string, req *models.CreateReportRequest) (*models.CreateReportResponse, error) {
	if strings.TrimSpace(reporterID) == "" {
		return nil, models.NewValidationError("reporter_id", "reporter identity is required")
	}
	if field, msg, ok := utils.ValidateStruct(req); !ok {
		return nil, models.NewValidationError(field, msg)
	}
	if req.Location == nil {
		return nil, models.NewValidationError("location", "coordinates are required")
	}

	if !req.ConfirmDuplicate {
		dup := s.detector.Check(ctx, req.Location)
		if len(dup.Matches) > 0 {
			return &models.CreateReportResponse{
				Duplicates: dup,
				Message:    fmt.Sprintf("%d open report(s) found nearby; confirm to submit anyway", len(dup.Matches)),
			}, nil
		}
	}

	now := s.now().UTC()
	priority := models.PriorityMedium
	if req.Priority != nil {
		priority = *req.Priority
	}

	report := &models.Report{
		ID:           uuid.New().String(),
		ReportNumber: repository.GenerateReportNumber(now),
		Title:        strings.TrimSpace(req.Title),
		Description:  strings.TrimSpace(req.Description),
		Category:     req.Category,
		Priority:     priority,
		Status:       models.StatusSubmitted,
		Location:     *req.Location,
		Address:      req.Address,
		District:     req.District,
		ULB:          req.ULB,
		ReporterID:   reporterID,
		Media:        append([]string(nil), req.Media...),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	initial := &models.StatusChange{
		ReportID:  report.ID,
		NewStatus: models.StatusSubmitted,
		ActorID:   reporterID,
		ActorRole: models.RoleCitizen,
		CreatedAt: now,
	}

	if err := s.store.CreateReport(ctx, report, initial); err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}
	s.log.WithField("report_id", report.ID).Infof("[report] Created %s (%s)", report.ReportNumber, report.Category)

	s.awardNow(ctx, reporterID, report.ID, models.ScoreSubmit)

	return &models.CreateReportResponse{
		Report:  report,
		Message: "Report submitted successfully",
	}, nil
}

// Transition validates and applies a status change. Scoring and notification
// side effects are dispatched after the save and never undo it.
func (s *ReportService) Transition(ctx context.Context, req *models.TransitionRequest) (*models.TransitionResponse, error) {
	if strings.TrimSpace(req.ActorID) == "" {
		return nil, models.NewValidationError("actor_id", "actor identity is required")
	}

	unlock := s.locks.Lock(req.ReportID)
	defer unlock()

	report, err := s.store.LoadReport(ctx, req.ReportID)
	if err != nil {
		return nil, err
	}

	if err := authorizeTransition(report, req); err != nil {
		metrics.TransitionRejections.WithLabelValues("forbidden").Inc()
		return nil, fmt.Errorf("%s may not move report %s to %s: %w", req.ActorRole, report.ID, req.NewStatus, err)
	}

	expected := report.Version
	change, err := applyTransition(report, req, s.now().UTC())
	if err != nil {
		if errors.Is(err, models.ErrInvalidTransition) {
			metrics.TransitionRejections.WithLabelValues("invalid").Inc()
		}
		return nil, err
	}

	if err := s.store.SaveReport(ctx, report, expected, change); err != nil {
		if errors.Is(err, models.ErrConflictRetry) {
			metrics.TransitionRejections.WithLabelValues("conflict").Inc()
		}
		return nil, err
	}

	metrics.Transitions.WithLabelValues(string(change.OldStatus), string(change.NewStatus)).Inc()
	s.log.WithFields(logrus.Fields{
		"report_id": report.ID,
		"actor_id":  req.ActorID,
	}).Infof("[report] %s -> %s", change.OldStatus, change.NewStatus)

	s.dispatchSideEffects(report.Clone(), change)

	return &models.TransitionResponse{
		Report:    report,
		OldStatus: change.OldStatus,
		NewStatus: change.NewStatus,
		Message:   "Status updated successfully",
	}, nil
}

// dispatchSideEffects hands scoring and notifications to the dispatcher
func (s *ReportService) dispatchSideEffects(report *models.Report, change *models.StatusChange) {
	if change.NewStatus == models.StatusResolved {
		s.dispatcher.Go("scoring.resolve", func(ctx context.Context) error {
			_, err := s.scoring.Award(ctx, report.ReporterID, report.ID, models.ScoreResolve)
			return err
		})
	}

	drafts := DeriveNotifications(report, change)
	if len(drafts) > 0 {
		s.dispatcher.Go("notify."+string(change.NewStatus), func(ctx context.Context) error {
			// Persist is not idempotent for non-reminders; only retry drafts not yet saved
			saved, err := s.notifications.Persist(ctx, drafts)
			drafts = drafts[saved:]
			return err
		})
	}
}

// awardNow applies an award inline and falls back to the dispatcher on failure
func (s *ReportService) awardNow(ctx context.Context, actorID, reportID string, reason models.ScoreReason) int {
	points, err := s.scoring.Award(ctx, actorID, reportID, reason)
	if err == nil {
		return points
	}
	s.log.WithError(err).Warnf("[report] %s award for %s deferred", reason, reportID)
	s.dispatcher.Go("scoring."+string(reason), func(ctx context.Context) error {
		_, err := s.scoring.Award(ctx, actorID, reportID, reason)
		return err
	})
	return 0
}

// AddComment appends a citizen comment; status is unchanged
func (s *ReportService) AddComment(ctx context.Context, reportID, authorID, text string) (*models.Report, error) {
	if strings.TrimSpace(authorID) == "" {
		return nil, models.NewValidationError("author_id", "author identity is required")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, models.NewValidationError("text", "comment text is required")
	}

	unlock := s.locks.Lock(reportID)
	defer unlock()

	report, err := s.store.LoadReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	expected := report.Version
	report.Comments = append(report.Comments, models.Note{Text: text, AuthorID: authorID, CreatedAt: now})
	report.UpdatedAt = now

	if err := s.store.SaveReport(ctx, report, expected, nil); err != nil {
		return nil, err
	}
	return report, nil
}

// SubmitFeedback attaches the reporter's rating to a resolved report and awards
// the feedback points. Status does not change.
func (s *ReportService) SubmitFeedback(ctx context.Context, reportID, actorID string, req *models.FeedbackRequest) (*models.FeedbackResponse, error) {
	if field, msg, ok := utils.ValidateStruct(req); !ok {
		return nil, models.NewValidationError(field, msg)
	}

	unlock := s.locks.Lock(reportID)
	defer unlock()

	report, err := s.store.LoadReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if report.ReporterID != actorID {
		return nil, fmt.Errorf("only the reporter may rate report %s: %w", reportID, models.ErrForbidden)
	}
	if report.ResolvedAt == nil {
		return nil, fmt.Errorf("feedback on %s report is not allowed in current state: %w", report.Status, models.ErrInvalidTransition)
	}
	if report.Feedback != nil {
		return nil, fmt.Errorf("feedback already submitted: %w", models.ErrInvalidTransition)
	}

	now := s.now().UTC()
	expected := report.Version
	report.Feedback = &models.Feedback{
		Rating:      req.Rating,
		Comment:     strings.TrimSpace(req.Comment),
		SubmittedAt: now,
	}
	if report.FeedbackPromptedAt == nil {
		t := now
		report.FeedbackPromptedAt = &t
	}
	report.UpdatedAt = now

	if err := s.store.SaveReport(ctx, report, expected, nil); err != nil {
		return nil, err
	}
	s.log.WithField("report_id", reportID).Infof("[report] Feedback %d/5 received", req.Rating)

	points := s.awardNow(ctx, actorID, reportID, models.ScoreFeedback)
	return &models.FeedbackResponse{
		Report:        report,
		PointsAwarded: points,
		Message:       "Thank you for your feedback",
	}, nil
}

// TakeFeedbackPrompts returns the reporter's resolved reports still awaiting
// feedback whose prompt has not been shown, and marks them shown.
func (s *ReportService) TakeFeedbackPrompts(ctx context.Context, reporterID string) ([]*models.Report, error) {
	reports, err := s.store.ListReportsByReporter(ctx, reporterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	prompts := make([]*models.Report, 0)
	for _, r := range reports {
		if !needsFeedbackPrompt(r) {
			continue
		}
		stamped, err := s.stampFeedbackPrompt(ctx, r.ID)
		if err != nil {
			s.log.WithError(err).Warnf("[report] feedback prompt for %s deferred", r.ID)
			continue
		}
		if stamped != nil {
			prompts = append(prompts, stamped)
		}
	}
	return prompts, nil
}

func (s *ReportService) stampFeedbackPrompt(ctx context.Context, reportID string) (*models.Report, error) {
	unlock := s.locks.Lock(reportID)
	defer unlock()

	report, err := s.store.LoadReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if !needsFeedbackPrompt(report) {
		return nil, nil
	}
	expected := report.Version
	t := s.now().UTC()
	report.FeedbackPromptedAt = &t
	if err := s.store.SaveReport(ctx, report, expected, nil); err != nil {
		return nil, err
	}
	return report, nil
}

func needsFeedbackPrompt(r *models.Report) bool {
	return r.ResolvedAt != nil && r.Feedback == nil && r.FeedbackPromptedAt == nil
}

// Get returns a report by id
func (s *ReportService) Get(ctx context.Context, reportID string) (*models.Report, error) {
	return s.store.LoadReport(ctx, reportID)
}

// Timeline returns the status history of a report, oldest first
func (s *ReportService) Timeline(ctx context.Context, reportID string) (*models.StatusTimelineResponse, error) {
	report, err := s.store.LoadReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	history, err := s.store.StatusHistory(ctx, reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to get status history: %w", err)
	}

	timeline := make([]models.StatusTimelineEntry, 0, len(history))
	for _, h := range history {
		entry := models.StatusTimelineEntry{
			NewStatus: string(h.NewStatus),
			ActorID:   h.ActorID,
			ActorRole: string(h.ActorRole),
			CreatedAt: h.CreatedAt,
		}
		if h.OldStatus != "" {
			old := string(h.OldStatus)
			entry.OldStatus = &old
		}
		if h.Note != "" {
			note := h.Note
			entry.Note = &note
		}
		timeline = append(timeline, entry)
	}

	return &models.StatusTimelineResponse{
		ReportID:     report.ID,
		ReportNumber: report.ReportNumber,
		Timeline:     timeline,
	}, nil
}

// ListByReporter returns a citizen's reports, newest first
func (s *ReportService) ListByReporter(ctx context.Context, reporterID string) ([]*models.Report, error) {
	reports, err := s.store.ListReportsByReporter(ctx, reporterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	if reports == nil {
		reports = []*models.Report{}
	}
	return reports, nil
}

// ListAssigned returns a worker's assigned and in-progress reports
func (s *ReportService) ListAssigned(ctx context.Context, workerID string) ([]*models.Report, error) {
	reports, err := s.store.ListReportsByAssignee(ctx, workerID, []models.ReportStatus{models.StatusAssigned, models.StatusInProgress})
	if err != nil {
		return nil, fmt.Errorf("failed to list assigned reports: %w", err)
	}
	if reports == nil {
		reports = []*models.Report{}
	}
	return reports, nil
}
