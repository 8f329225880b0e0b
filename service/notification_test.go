package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civicpulse/models"
)

func TestDeriveNotifications(t *testing.T) {
	report := &models.Report{
		ID:           "r1",
		ReportNumber: "RPT-20260301-abcdef12",
		Title:        "Open manhole",
		Priority:     models.PriorityMedium,
		ReporterID:   "citizen-1",
		AssigneeID:   strPtr("w1"),
	}

	assigned := DeriveNotifications(report, &models.StatusChange{NewStatus: models.StatusAssigned, CreatedAt: testNow})
	require.Len(t, assigned, 1)
	assert.Equal(t, "w1", assigned[0].RecipientID)
	assert.Equal(t, models.NotificationNewTask, assigned[0].Type)
	assert.Equal(t, models.NotificationPriorityNormal, assigned[0].Priority)

	report.Priority = models.PriorityHigh
	urgent := DeriveNotifications(report, &models.StatusChange{NewStatus: models.StatusAssigned, CreatedAt: testNow})
	require.Len(t, urgent, 1)
	assert.Equal(t, models.NotificationEmergency, urgent[0].Type)
	assert.Equal(t, models.NotificationPriorityUrgent, urgent[0].Priority)

	resolved := DeriveNotifications(report, &models.StatusChange{NewStatus: models.StatusResolved})
	require.Len(t, resolved, 1)
	assert.Equal(t, "citizen-1", resolved[0].RecipientID)
	assert.Equal(t, models.NotificationSystem, resolved[0].Type)

	rejected := DeriveNotifications(report, &models.StatusChange{NewStatus: models.StatusRejected, Note: "duplicate of RPT-1"})
	require.Len(t, rejected, 1)
	assert.Contains(t, rejected[0].Message, "duplicate of RPT-1")

	assert.Empty(t, DeriveNotifications(report, &models.StatusChange{NewStatus: models.StatusAcknowledged}))
	assert.Empty(t, DeriveNotifications(report, &models.StatusChange{NewStatus: models.StatusClosed}))
	assert.Empty(t, DeriveNotifications(nil, nil))
}

func TestOverdueReminder(t *testing.T) {
	assignedAt := testNow.Add(-5 * time.Hour)
	report := &models.Report{
		ID:         "r1",
		Status:     models.StatusInProgress,
		AssigneeID: strPtr("w1"),
		AssignedAt: &assignedAt,
	}

	n := OverdueReminder(report, testNow, 4*time.Hour)
	require.NotNil(t, n)
	assert.Equal(t, "w1", n.RecipientID)
	assert.Equal(t, models.NotificationReminder, n.Type)
	assert.Equal(t, models.NotificationPriorityHigh, n.Priority)

	assert.Nil(t, OverdueReminder(report, testNow, 6*time.Hour))

	report.Status = models.StatusResolved
	assert.Nil(t, OverdueReminder(report, testNow, 4*time.Hour))
}

func TestProcessOverdueDoesNotStackUnreadReminders(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	r := env.submit(t, "citizen-1", 10, 10)
	env.reports.now = func() time.Time { return testNow.Add(-5 * time.Hour) }
	env.driveTo(t, r.ID, models.StatusAssigned, "w1")
	env.dispatcher.Wait()

	fresh := env.submit(t, "citizen-1", 20, 20)
	env.reports.now = func() time.Time { return testNow.Add(-time.Hour) }
	env.driveTo(t, fresh.ID, models.StatusAssigned, "w2")
	env.dispatcher.Wait()

	results, err := env.notifications.ProcessOverdue(ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, r.ID, results[0].ReportID)
	assert.True(t, results[0].Sent)

	results, err = env.notifications.ProcessOverdue(ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Sent)
	assert.NotEmpty(t, results[0].Reason)

	reminders := func() []models.Notification {
		all, err := env.notifications.List(ctx, "w1", true, 0)
		require.NoError(t, err)
		var out []models.Notification
		for _, n := range all {
			if n.Type == models.NotificationReminder {
				out = append(out, n)
			}
		}
		return out
	}
	pending := reminders()
	require.Len(t, pending, 1)

	require.NoError(t, env.notifications.MarkRead(ctx, "w1", pending[0].NotificationID))
	assert.Empty(t, reminders())

	results, err = env.notifications.ProcessOverdue(ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Sent)
	assert.Len(t, reminders(), 1)
}

func TestMarkReadRequiresOwnership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	reportID := "r1"

	saved, err := env.notifications.Persist(ctx, []models.Notification{{
		RecipientID: "w1",
		Type:        models.NotificationNewTask,
		Title:       "New task assigned",
		ReportID:    &reportID,
	}})
	require.NoError(t, err)
	require.Equal(t, 1, saved)

	list, err := env.notifications.List(ctx, "w1", false, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.NotEmpty(t, list[0].NotificationID)
	assert.Equal(t, models.NotificationPriorityNormal, list[0].Priority)
	assert.Equal(t, testNow, list[0].CreatedAt)

	err = env.notifications.MarkRead(ctx, "w2", list[0].NotificationID)
	assert.True(t, errors.Is(err, models.ErrNotFound))

	other, err := env.notifications.List(ctx, "w2", false, 10)
	require.NoError(t, err)
	assert.NotNil(t, other)
	assert.Empty(t, other)
}

func TestTransitionNotifiesParticipants(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.reports.Create(ctx, "citizen-1", &models.CreateReportRequest{
		Title:       "Water main burst",
		Description: "Road flooding",
		Category:    models.CategoryWater,
		Priority:    func() *models.Priority { p := models.PriorityHigh; return &p }(),
		Location:    &models.Coordinates{Latitude: 10, Longitude: 10},
	})
	require.NoError(t, err)
	r := resp.Report

	env.driveTo(t, r.ID, models.StatusResolved, "w1")
	env.dispatcher.Wait()

	workerInbox, err := env.notifications.List(ctx, "w1", false, 0)
	require.NoError(t, err)
	require.Len(t, workerInbox, 1)
	assert.Equal(t, models.NotificationEmergency, workerInbox[0].Type)
	require.NotNil(t, workerInbox[0].ReportID)
	assert.Equal(t, r.ID, *workerInbox[0].ReportID)

	citizenInbox, err := env.notifications.List(ctx, "citizen-1", false, 0)
	require.NoError(t, err)
	require.Len(t, citizenInbox, 1)
	assert.Equal(t, models.NotificationSystem, citizenInbox[0].Type)
}
