package models

import "time"

// Card types.
const (
	CardTip      = "tip"
	CardExercise = "exercise"
)

// Card is what the front end shows the user. Informational cards carry only
// text; exercise cards carry the target and, once a gate is armed, the task
// id and unlock time.
type Card struct {
	Type   string `json:"type"`
	Text   string `json:"text,omitempty"`
	Kind   string `json:"kind,omitempty"`
	Amount int    `json:"amount,omitempty"`
	Points int    `json:"points,omitempty"`

	// Set by the service when the exercise card becomes a pending task.
	TaskID      int64      `json:"task_id,omitempty"`
	UnlockAt    *time.Time `json:"unlock_at,omitempty"`
	WaitSeconds int        `json:"wait_seconds,omitempty"`
}

// SummaryResponse is the read-only projection of a user's day.
type SummaryResponse struct {
	Totals      map[string]int `json:"totals"`
	PointsToday int            `json:"points_today"`
	StreakDays  int            `json:"streak_days"`
}

// LeaderboardEntry is one row of a chat leaderboard, points descending.
type LeaderboardEntry struct {
	Rank       int    `json:"rank"`
	DisplayTag string `json:"display_tag"`
	Points     int    `json:"points"`
}

// LeaderboardResponse is the API response for a chat leaderboard.
type LeaderboardResponse struct {
	ChatID  string             `json:"chat_id"`
	Period  string             `json:"period"` // daily | alltime
	Entries []LeaderboardEntry `json:"entries"`
}
