package models

import "time"

// ScoreReason is the lifecycle event a point award is tied to
type ScoreReason string

const (
	ScoreSubmit   ScoreReason = "submit"
	ScoreResolve  ScoreReason = "resolve"
	ScoreFeedback ScoreReason = "feedback"
)

// ScoreEvent is an immutable point award. (ReportID, Reason) is unique.
type ScoreEvent struct {
	EventID   int64       `db:"event_id" json:"event_id"`
	ActorID   string      `db:"actor_id" json:"actor_id"`
	ReportID  string      `db:"report_id" json:"report_id"`
	Reason    ScoreReason `db:"reason" json:"reason"`
	Points    int         `db:"points" json:"points"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
}

// Badge is an achievement derived from a user's score history
type Badge struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Earned      bool   `json:"earned"`
	Progress    int    `json:"progress"`
	Requirement int    `json:"requirement"`
}

// ScoreSummary is the live view of a user's points and badges
type ScoreSummary struct {
	ActorID string  `json:"actor_id"`
	Points  int     `json:"points"`
	Badges  []Badge `json:"badges"`
}

// LeaderboardEntry is one ranked row of the leaderboard
type LeaderboardEntry struct {
	Rank    int    `json:"rank"`
	ActorID string `json:"actor_id"`
	Points  int    `json:"points"`
}
