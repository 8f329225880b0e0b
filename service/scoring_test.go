package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civicpulse/models"
	"civicpulse/repository"
)

func badgeByID(badges []models.Badge, id string) models.Badge {
	for _, b := range badges {
		if b.ID == id {
			return b
		}
	}
	return models.Badge{}
}

func TestAwardIsIdempotentPerReportAndReason(t *testing.T) {
	store := repository.NewMemoryStore()
	engine := NewScoringEngine(store, testPolicy().Scoring)
	ctx := context.Background()

	points, err := engine.Award(ctx, "citizen-1", "r1", models.ScoreSubmit)
	require.NoError(t, err)
	assert.Equal(t, 50, points)

	points, err = engine.Award(ctx, "citizen-1", "r1", models.ScoreSubmit)
	require.NoError(t, err)
	assert.Zero(t, points)

	points, err = engine.Award(ctx, "citizen-1", "r1", models.ScoreResolve)
	require.NoError(t, err)
	assert.Equal(t, 100, points)

	total, err := engine.Score(ctx, "citizen-1")
	require.NoError(t, err)
	assert.Equal(t, 150, total)
}

func TestAwardRejectsUnknownReason(t *testing.T) {
	engine := NewScoringEngine(repository.NewMemoryStore(), testPolicy().Scoring)
	_, err := engine.Award(context.Background(), "citizen-1", "r1", models.ScoreReason("bonus"))
	assert.True(t, errors.Is(err, models.ErrValidation))

	_, err = engine.Award(context.Background(), "", "r1", models.ScoreSubmit)
	assert.True(t, errors.Is(err, models.ErrValidation))
}

func TestScoringLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	r := env.submit(t, "citizen-1", 23.3441, 85.3096)
	total, err := env.scoring.Score(ctx, "citizen-1")
	require.NoError(t, err)
	assert.Equal(t, 50, total)

	env.driveTo(t, r.ID, models.StatusResolved, "w1")
	env.dispatcher.Wait()
	total, err = env.scoring.Score(ctx, "citizen-1")
	require.NoError(t, err)
	assert.Equal(t, 150, total)

	fb, err := env.reports.SubmitFeedback(ctx, r.ID, "citizen-1", &models.FeedbackRequest{Rating: 5, Comment: "Fixed fast"})
	require.NoError(t, err)
	assert.Equal(t, 25, fb.PointsAwarded)

	// replaying the same lifecycle events changes nothing
	for _, reason := range []models.ScoreReason{models.ScoreSubmit, models.ScoreResolve, models.ScoreFeedback} {
		points, err := env.scoring.Award(ctx, "citizen-1", r.ID, reason)
		require.NoError(t, err)
		assert.Zero(t, points)
	}

	summary, err := env.scoring.Summary(ctx, "citizen-1")
	require.NoError(t, err)
	assert.Equal(t, 175, summary.Points)
	assert.True(t, badgeByID(summary.Badges, "first_report").Earned)
	assert.True(t, badgeByID(summary.Badges, "feedback_giver").Earned)

	solver := badgeByID(summary.Badges, "problem_solver")
	assert.False(t, solver.Earned)
	assert.Equal(t, 1, solver.Progress)
	assert.Equal(t, 5, solver.Requirement)
}

func TestDeriveBadgesFromHistory(t *testing.T) {
	policy := testPolicy().Scoring
	assert.False(t, badgeByID(DeriveBadges(nil, policy), "first_report").Earned)

	var events []models.ScoreEvent
	for i := 0; i < 25; i++ {
		events = append(events, models.ScoreEvent{Reason: models.ScoreSubmit, Points: 50})
	}
	for i := 0; i < 5; i++ {
		events = append(events, models.ScoreEvent{Reason: models.ScoreResolve, Points: 100})
	}

	badges := DeriveBadges(events, policy)
	assert.True(t, badgeByID(badges, "community_champion").Earned)
	assert.True(t, badgeByID(badges, "problem_solver").Earned)
	assert.False(t, badgeByID(badges, "feedback_giver").Earned)

	master := badgeByID(badges, "point_master")
	assert.Equal(t, 1750, master.Progress)
	assert.False(t, master.Earned)
}

func TestLeaderboardCompetitionRanking(t *testing.T) {
	store := repository.NewMemoryStore()
	engine := NewScoringEngine(store, testPolicy().Scoring)
	ctx := context.Background()

	awards := []struct {
		actor, report string
		reason        models.ScoreReason
	}{
		{"alice", "r1", models.ScoreSubmit},
		{"alice", "r1", models.ScoreResolve},
		{"bob", "r2", models.ScoreResolve},
		{"carol", "r3", models.ScoreResolve},
		{"dave", "r4", models.ScoreSubmit},
	}
	for _, a := range awards {
		_, err := engine.Award(ctx, a.actor, a.report, a.reason)
		require.NoError(t, err)
	}

	board, err := engine.Leaderboard(ctx, 0)
	require.NoError(t, err)
	require.Len(t, board, 4)

	ranks := []int{board[0].Rank, board[1].Rank, board[2].Rank, board[3].Rank}
	assert.Equal(t, []int{1, 2, 2, 4}, ranks)
	assert.Equal(t, "alice", board[0].ActorID)
	assert.Equal(t, 150, board[0].Points)
	assert.Equal(t, "dave", board[3].ActorID)

	top, err := engine.Leaderboard(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, top, 1)
}

func TestSubmitAwardFallsBackToDispatcher(t *testing.T) {
	mem := repository.NewMemoryStore()
	flaky := &flakyScoreStore{MemoryStore: mem, failures: 1}
	policy := testPolicy()
	dispatcher := NewDispatcher(fastDispatch(), 1)
	t.Cleanup(dispatcher.Close)

	scoring := NewScoringEngine(flaky, policy.Scoring)
	svc := NewReportService(mem, NewDuplicateDetector(mem, 20), scoring, NewNotificationService(mem, mem, policy.Overdue), dispatcher)

	resp, err := svc.Create(context.Background(), "citizen-1", &models.CreateReportRequest{
		Title:       "Pothole",
		Description: "Deep pothole in the left lane",
		Category:    models.CategoryPothole,
		Location:    &models.Coordinates{Latitude: 10, Longitude: 10},
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Report)

	dispatcher.Wait()
	total, err := scoring.Score(context.Background(), "citizen-1")
	require.NoError(t, err)
	assert.Equal(t, 50, total)
}
