package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"civicpulse/config"
	"civicpulse/models"
	"civicpulse/repository"
)

var testNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type testEnv struct {
	store         *repository.MemoryStore
	policy        *config.Policy
	dispatcher    *Dispatcher
	scoring       *ScoringEngine
	notifications *NotificationService
	detector      *DuplicateDetector
	reports       *ReportService
}

func fastDispatch() *models.DispatchConfig {
	return &models.DispatchConfig{
		MaxAttempts:       3,
		InitialRetryDelay: time.Millisecond,
		MaxRetryDelay:     5 * time.Millisecond,
		BackoffMultiplier: 2,
		AttemptTimeout:    time.Second,
	}
}

func testPolicy() *config.Policy {
	return config.DefaultPolicy()
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := repository.NewMemoryStore()
	policy := testPolicy()
	dispatcher := NewDispatcher(fastDispatch(), 4)
	t.Cleanup(dispatcher.Close)

	env := &testEnv{
		store:         store,
		policy:        policy,
		dispatcher:    dispatcher,
		scoring:       NewScoringEngine(store, policy.Scoring),
		notifications: NewNotificationService(store, store, policy.Overdue),
		detector:      NewDuplicateDetector(store, policy.Duplicate.RadiusMeters),
	}
	env.reports = NewReportService(store, env.detector, env.scoring, env.notifications, dispatcher)
	env.reports.now = func() time.Time { return testNow }
	env.notifications.now = func() time.Time { return testNow }
	return env
}

func (e *testEnv) submit(t *testing.T, reporter string, lat, lon float64) *models.Report {
	t.Helper()
	resp, err := e.reports.Create(context.Background(), reporter, &models.CreateReportRequest{
		Title:            "Broken streetlight",
		Description:      "Light out near the bus stop",
		Category:         models.CategoryStreetlight,
		Location:         &models.Coordinates{Latitude: lat, Longitude: lon},
		ConfirmDuplicate: true,
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Report)
	return resp.Report
}

func (e *testEnv) transition(t *testing.T, reportID string, to models.ReportStatus, actor string, role models.ActorRole, assignee *string) *models.TransitionResponse {
	t.Helper()
	resp, err := e.reports.Transition(context.Background(), &models.TransitionRequest{
		ReportID:   reportID,
		NewStatus:  to,
		AssigneeID: assignee,
		ActorID:    actor,
		ActorRole:  role,
	})
	require.NoError(t, err, "transition to %s", to)
	return resp
}

// driveTo walks a fresh report along the happy path until it reaches target
func (e *testEnv) driveTo(t *testing.T, reportID string, target models.ReportStatus, worker string) {
	t.Helper()
	path := []models.ReportStatus{models.StatusAcknowledged, models.StatusAssigned, models.StatusInProgress, models.StatusResolved, models.StatusClosed}
	for _, s := range path {
		role, actor := models.RoleAdmin, "admin-1"
		var assignee *string
		if s == models.StatusAssigned {
			assignee = &worker
		}
		if s == models.StatusInProgress || s == models.StatusResolved {
			role, actor = models.RoleWorker, worker
		}
		e.transition(t, reportID, s, actor, role, assignee)
		if s == target {
			return
		}
	}
}

func strPtr(s string) *string { return &s }

// failingReportStore fails the nearby query to exercise degraded duplicate checks
type failingReportStore struct {
	*repository.MemoryStore
}

func (f failingReportStore) QueryOpenReportsNear(context.Context, models.Coordinates, float64) ([]*models.Report, error) {
	return nil, errors.New("connection refused")
}

// flakyScoreStore fails the first n appends
type flakyScoreStore struct {
	*repository.MemoryStore
	failures int
}

func (f *flakyScoreStore) AppendScoreEvent(ctx context.Context, e *models.ScoreEvent) (bool, error) {
	if f.failures > 0 {
		f.failures--
		return false, fmt.Errorf("deadlock found when trying to get lock")
	}
	return f.MemoryStore.AppendScoreEvent(ctx, e)
}
