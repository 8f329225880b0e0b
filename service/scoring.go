package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"civicpulse/config"
	"civicpulse/logger"
	"civicpulse/metrics"
	"civicpulse/models"
	"civicpulse/repository"
)

// ScoringEngine awards points from lifecycle events. Totals and badges are
// always derived from the ScoreEvent ledger.
type ScoringEngine struct {
	store  repository.ScoreStore
	policy config.ScoringPolicy
	now    func() time.Time
	log    *logrus.Entry
}

// NewScoringEngine creates a new scoring engine
func NewScoringEngine(store repository.ScoreStore, policy config.ScoringPolicy) *ScoringEngine {
	return &ScoringEngine{
		store:  store,
		policy: policy,
		now:    time.Now,
		log:    logger.GetLogger("scoring"),
	}
}

// Tariff returns the points for a reason
func (e *ScoringEngine) Tariff(reason models.ScoreReason) (int, bool) {
	switch reason {
	case models.ScoreSubmit:
		return e.policy.SubmitPoints, true
	case models.ScoreResolve:
		return e.policy.ResolvePoints, true
	case models.ScoreFeedback:
		return e.policy.FeedbackPoints, true
	}
	return 0, false
}

// Award records a point award and returns the delta applied. A repeated
// (reportID, reason) pair applies nothing and returns 0.
func (e *ScoringEngine) Award(ctx context.Context, actorID, reportID string, reason models.ScoreReason) (int, error) {
	if actorID == "" {
		return 0, models.NewValidationError("actor_id", "actor identity is required")
	}
	points, ok := e.Tariff(reason)
	if !ok {
		return 0, models.NewValidationError("reason", "unknown score reason "+string(reason))
	}

	event := &models.ScoreEvent{
		ActorID:   actorID,
		ReportID:  reportID,
		Reason:    reason,
		Points:    points,
		CreatedAt: e.now().UTC(),
	}
	inserted, err := e.store.AppendScoreEvent(ctx, event)
	if err != nil {
		return 0, fmt.Errorf("failed to award %s points: %w", reason, err)
	}
	if !inserted {
		e.log.Debugf("[scoring] %s for report %s already awarded", reason, reportID)
		return 0, nil
	}

	metrics.ScoreEvents.WithLabelValues(string(reason)).Inc()
	e.log.WithFields(logrus.Fields{"actor_id": actorID, "report_id": reportID}).
		Infof("[scoring] +%d (%s)", points, reason)
	return points, nil
}

// Score returns the live point total of an actor
func (e *ScoringEngine) Score(ctx context.Context, actorID string) (int, error) {
	total, err := e.store.SumScoreEvents(ctx, actorID)
	if err != nil {
		return 0, fmt.Errorf("failed to get score: %w", err)
	}
	return total, nil
}

// Badges recomputes an actor's badges from their score history
func (e *ScoringEngine) Badges(ctx context.Context, actorID string) ([]models.Badge, error) {
	events, err := e.store.ListScoreEvents(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get score history: %w", err)
	}
	return DeriveBadges(events, e.policy), nil
}

// Summary returns points and badges together, both from one read of the ledger
func (e *ScoringEngine) Summary(ctx context.Context, actorID string) (*models.ScoreSummary, error) {
	events, err := e.store.ListScoreEvents(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get score history: %w", err)
	}
	total := 0
	for _, ev := range events {
		total += ev.Points
	}
	return &models.ScoreSummary{
		ActorID: actorID,
		Points:  total,
		Badges:  DeriveBadges(events, e.policy),
	}, nil
}

// Leaderboard ranks the top actors by live total. Equal totals share a rank (1, 2, 2, 4).
func (e *ScoringEngine) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	entries, err := e.store.TopScorers(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	for i := range entries {
		if i > 0 && entries[i].Points == entries[i-1].Points {
			entries[i].Rank = entries[i-1].Rank
		} else {
			entries[i].Rank = i + 1
		}
	}
	return entries, nil
}

// DeriveBadges evaluates the badge predicates over a score history
func DeriveBadges(events []models.ScoreEvent, policy config.ScoringPolicy) []models.Badge {
	var submits, resolves, feedbacks, points int
	for _, ev := range events {
		points += ev.Points
		switch ev.Reason {
		case models.ScoreSubmit:
			submits++
		case models.ScoreResolve:
			resolves++
		case models.ScoreFeedback:
			feedbacks++
		}
	}

	return []models.Badge{
		badge("first_report", "First Report", "Submitted your first report", submits, policy.FirstReportSubmits),
		badge("problem_solver", "Problem Solver", "Had reports resolved", resolves, policy.ProblemSolverResolve),
		badge("community_champion", "Community Champion", "Submitted many reports", submits, policy.ChampionSubmits),
		badge("feedback_giver", "Feedback Giver", "Rated a resolved report", feedbacks, policy.FeedbackGiverCount),
		badge("point_master", "Point Master", "Reached a high point total", points, policy.PointMasterPoints),
	}
}

func badge(id, title, description string, progress, requirement int) models.Badge {
	return models.Badge{
		ID:          id,
		Title:       title,
		Description: description,
		Earned:      progress >= requirement,
		Progress:    progress,
		Requirement: requirement,
	}
}
