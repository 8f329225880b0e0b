package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civicpulse/models"
)

func TestTransitionTableExactness(t *testing.T) {
	allowed := map[models.ReportStatus]map[models.ReportStatus]bool{
		models.StatusSubmitted:    {models.StatusAcknowledged: true, models.StatusAssigned: true, models.StatusRejected: true},
		models.StatusAcknowledged: {models.StatusAssigned: true, models.StatusRejected: true},
		models.StatusAssigned:     {models.StatusInProgress: true, models.StatusRejected: true},
		models.StatusInProgress:   {models.StatusResolved: true, models.StatusRejected: true},
		models.StatusResolved:     {models.StatusClosed: true},
		models.StatusRejected:     {models.StatusClosed: true},
		models.StatusClosed:       {},
	}

	for _, from := range models.AllStatuses {
		for _, to := range models.AllStatuses {
			report := &models.Report{ID: "r1", Status: from, AssigneeID: strPtr("w1"), ReporterID: "c1"}
			before := report.Clone()

			change, err := applyTransition(report, &models.TransitionRequest{
				ReportID:   "r1",
				NewStatus:  to,
				AssigneeID: strPtr("w1"),
				ActorID:    "admin-1",
				ActorRole:  models.RoleAdmin,
			}, testNow)

			if allowed[from][to] {
				require.NoError(t, err, "%s -> %s", from, to)
				assert.Equal(t, to, report.Status)
				assert.Equal(t, from, change.OldStatus)
				continue
			}
			var te *models.TransitionError
			require.True(t, errors.As(err, &te), "%s -> %s should be invalid", from, to)
			assert.Equal(t, from, te.From)
			assert.Equal(t, to, te.To)
			assert.True(t, errors.Is(err, models.ErrInvalidTransition))
			assert.Equal(t, before, report, "report must be unchanged after %s -> %s", from, to)
		}
	}
}

func TestApplyTransitionRequiresActor(t *testing.T) {
	report := &models.Report{ID: "r1", Status: models.StatusSubmitted}
	_, err := applyTransition(report, &models.TransitionRequest{NewStatus: models.StatusAcknowledged}, testNow)
	assert.True(t, errors.Is(err, models.ErrValidation))
	assert.Equal(t, models.StatusSubmitted, report.Status)
}

func TestApplyTransitionAssignRequiresAssignee(t *testing.T) {
	report := &models.Report{ID: "r1", Status: models.StatusAcknowledged}
	_, err := applyTransition(report, &models.TransitionRequest{
		NewStatus: models.StatusAssigned, ActorID: "admin-1", ActorRole: models.RoleAdmin,
	}, testNow)

	var ve *models.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "assignee_id", ve.Field)
	assert.Nil(t, report.AssigneeID)
	assert.Equal(t, models.StatusAcknowledged, report.Status)

	_, err = applyTransition(report, &models.TransitionRequest{
		NewStatus: models.StatusAssigned, ActorID: "admin-1", ActorRole: models.RoleAdmin, AssigneeID: strPtr("w1"),
	}, testNow)
	require.NoError(t, err)
	require.NotNil(t, report.AssigneeID)
	assert.Equal(t, "w1", *report.AssigneeID)
	require.NotNil(t, report.AssignedAt)
	assert.Equal(t, testNow, *report.AssignedAt)
}

func TestApplyTransitionRejectWithoutAssigneeOwnsReport(t *testing.T) {
	report := &models.Report{ID: "r1", Status: models.StatusSubmitted}
	_, err := applyTransition(report, &models.TransitionRequest{
		NewStatus: models.StatusRejected, ActorID: "admin-7", ActorRole: models.RoleAdmin, Note: "not a civic issue",
	}, testNow)
	require.NoError(t, err)
	require.NotNil(t, report.AssigneeID)
	assert.Equal(t, "admin-7", *report.AssigneeID)
	require.Len(t, report.AdminNotes, 1)
	assert.Equal(t, "not a civic issue", report.AdminNotes[0].Text)
}

func TestApplyTransitionNotesByRole(t *testing.T) {
	loc := &models.Coordinates{Latitude: 23.34, Longitude: 85.31}
	report := &models.Report{ID: "r1", Status: models.StatusAssigned, AssigneeID: strPtr("w1")}
	_, err := applyTransition(report, &models.TransitionRequest{
		NewStatus: models.StatusInProgress, ActorID: "w1", ActorRole: models.RoleWorker, Note: "on site", Location: loc,
	}, testNow)
	require.NoError(t, err)
	assert.Empty(t, report.AdminNotes)
	require.Len(t, report.WorkerNotes, 1)
	assert.Equal(t, loc, report.WorkerNotes[0].Location)
}

func TestResolvedAtInvariant(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, target := range []models.ReportStatus{
		models.StatusAcknowledged, models.StatusAssigned, models.StatusInProgress,
		models.StatusResolved, models.StatusClosed,
	} {
		r := env.submit(t, "citizen-1", 10, 10)
		env.driveTo(t, r.ID, target, "w1")

		got, err := env.reports.Get(ctx, r.ID)
		require.NoError(t, err)
		reachedViaResolved := target == models.StatusResolved || target == models.StatusClosed
		assert.Equal(t, reachedViaResolved, got.ResolvedAt != nil, "status %s", target)
	}

	// rejected then closed never carries resolved_at
	r := env.submit(t, "citizen-1", 10, 10)
	env.transition(t, r.ID, models.StatusRejected, "admin-1", models.RoleAdmin, nil)
	env.transition(t, r.ID, models.StatusClosed, "admin-1", models.RoleAdmin, nil)
	got, err := env.reports.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ResolvedAt)
	assert.NotNil(t, got.ClosedAt)
	assert.NotNil(t, got.AssigneeID)
}

func TestScenarioAssignedToResolvedIsInvalid(t *testing.T) {
	env := newTestEnv(t)
	r := env.submit(t, "citizen-1", 23.3441, 85.3096)
	env.driveTo(t, r.ID, models.StatusAssigned, "w1")

	_, err := env.reports.Transition(context.Background(), &models.TransitionRequest{
		ReportID: r.ID, NewStatus: models.StatusResolved, ActorID: "w1", ActorRole: models.RoleWorker,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInvalidTransition))
	assert.Contains(t, err.Error(), "not allowed in current state")

	got, err := env.reports.Get(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAssigned, got.Status)
	assert.Nil(t, got.ResolvedAt)
}

func TestAllowedTransitionsReturnsCopy(t *testing.T) {
	next := AllowedTransitions(models.StatusSubmitted)
	next[0] = models.StatusClosed
	assert.True(t, CanTransition(models.StatusSubmitted, models.StatusAcknowledged))
	assert.Empty(t, AllowedTransitions(models.StatusClosed))
}
