package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"civicpulse/logger"
	"civicpulse/models"
	"civicpulse/repository"
	"civicpulse/utils"
)

// RouteService builds a worker's route from their live assignments
type RouteService struct {
	reports repository.ReportStore
	staff   repository.StaffStore
	router  *TaskRouter
	timeout time.Duration
	log     *logrus.Entry
}

// NewRouteService creates a route service; timeout bounds each routing call
func NewRouteService(reports repository.ReportStore, staff repository.StaffStore, router *TaskRouter, timeout time.Duration) *RouteService {
	return &RouteService{
		reports: reports,
		staff:   staff,
		router:  router,
		timeout: timeout,
		log:     logger.GetLogger("router"),
	}
}

// RouteForWorker routes the worker's assigned and in-progress reports.
// Skills and daily limit default to the worker's staff profile when the request omits them.
func (s *RouteService) RouteForWorker(ctx context.Context, workerID string, req *models.RouteRequest) (*models.RouteResult, error) {
	if field, msg, ok := utils.ValidateStruct(req); !ok {
		return nil, models.NewValidationError(field, msg)
	}

	skills := req.Skills
	opts := req.Options
	profile, err := s.staff.GetStaffByID(ctx, workerID)
	switch {
	case err == nil:
		if len(skills) == 0 {
			skills = profile.Skills
		}
		if opts.MaxTasksPerDay <= 0 {
			opts.MaxTasksPerDay = profile.MaxTasksPerDay
		}
	case errors.Is(err, models.ErrNotFound):
		// routing still works from request parameters alone
	default:
		return nil, fmt.Errorf("failed to load worker profile: %w", err)
	}

	tasks, err := s.reports.ListReportsByAssignee(ctx, workerID, []models.ReportStatus{models.StatusAssigned, models.StatusInProgress})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrDownstreamUnavailable, err)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	result, err := s.router.Route(ctx, tasks, req.Location, skills, opts)
	if err != nil {
		s.log.WithError(err).Warnf("[router] route for %s cut short", workerID)
		return result, err
	}
	s.log.WithField("worker_id", workerID).Debugf("[router] %d of %d tasks routed", len(result.Tasks), len(tasks))
	return result, nil
}
