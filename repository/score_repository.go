package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"civicpulse/models"
)

// mysqlErrDuplicateEntry is ER_DUP_ENTRY
const mysqlErrDuplicateEntry = 1062

// ScoreRepository handles database operations for the point ledger
type ScoreRepository struct {
	db *sql.DB
}

// NewScoreRepository creates a new score repository
func NewScoreRepository(db *sql.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

// AppendScoreEvent inserts a score event. The unique key on (report_id, reason)
// turns a replayed award into a no-op.
func (r *ScoreRepository) AppendScoreEvent(ctx context.Context, event *models.ScoreEvent) (bool, error) {
	query := `
		INSERT INTO score_events (actor_id, report_id, reason, points, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query, event.ActorID, event.ReportID, event.Reason, event.Points, event.CreatedAt)
	if err != nil {
		var myErr *mysql.MySQLError
		if errors.As(err, &myErr) && myErr.Number == mysqlErrDuplicateEntry {
			return false, nil
		}
		return false, fmt.Errorf("failed to create score event: %w", err)
	}

	eventID, err := result.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("failed to get score event ID: %w", err)
	}
	event.EventID = eventID
	return true, nil
}

// SumScoreEvents returns the live point total of an actor
func (r *ScoreRepository) SumScoreEvents(ctx context.Context, actorID string) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(points), 0) FROM score_events WHERE actor_id = ?`, actorID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum score events: %w", err)
	}
	return total, nil
}

// ListScoreEvents retrieves an actor's events, oldest first
func (r *ScoreRepository) ListScoreEvents(ctx context.Context, actorID string) ([]models.ScoreEvent, error) {
	query := `
		SELECT event_id, actor_id, report_id, reason, points, created_at
		FROM score_events
		WHERE actor_id = ?
		ORDER BY created_at ASC, event_id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to query score events: %w", err)
	}
	defer rows.Close()

	var events []models.ScoreEvent
	for rows.Next() {
		var e models.ScoreEvent
		if err := rows.Scan(&e.EventID, &e.ActorID, &e.ReportID, &e.Reason, &e.Points, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan score event: %w", err)
		}
		events = append(events, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating score events: %w", err)
	}
	return events, nil
}

// TopScorers aggregates the ledger into a leaderboard
func (r *ScoreRepository) TopScorers(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	query := `
		SELECT actor_id, SUM(points) AS total
		FROM score_events
		GROUP BY actor_id
		ORDER BY total DESC, actor_id ASC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []models.LeaderboardEntry
	for rows.Next() {
		var e models.LeaderboardEntry
		if err := rows.Scan(&e.ActorID, &e.Points); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating leaderboard: %w", err)
	}
	return entries, nil
}
