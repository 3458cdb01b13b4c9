package models

import "time"

// DayFormat is the calendar-day key used for daily resets and daily boards.
const DayFormat = "2006-01-02"

// AllTimeKey is the board day key under the all-time accumulation policy.
const AllTimeKey = "all"

// Document is the whole persisted session state: every user record and every
// chat leaderboard. It is loaded fully, mutated, and written back as one unit;
// that single write is the atomicity boundary for accepted completions.
type Document struct {
	Users  map[string]*UserRecord `json:"users"`
	Boards map[string]Board       `json:"boards"`
}

// Board maps a day key ("2006-01-02", or "all" under the all-time policy)
// to user id to cumulative points. Points only ever increase.
type Board map[string]map[string]int

func NewDocument() *Document {
	return &Document{
		Users:  make(map[string]*UserRecord),
		Boards: make(map[string]Board),
	}
}

// User возвращает запись пользователя, создавая пустую при первом обращении.
func (d *Document) User(userID string) *UserRecord {
	if u, ok := d.Users[userID]; ok {
		return u
	}
	u := &UserRecord{
		UserID:      userID,
		DailyTotals: make(map[string]int),
		IntervalMin: 0, // 0 = free-tier default, resolved on read
	}
	d.Users[userID] = u
	return u
}

// AddPoints increments the (chat, day, user) board entry.
func (d *Document) AddPoints(chatID, dayKey, userID string, points int) {
	board, ok := d.Boards[chatID]
	if !ok {
		board = make(Board)
		d.Boards[chatID] = board
	}
	day, ok := board[dayKey]
	if !ok {
		day = make(map[string]int)
		board[dayKey] = day
	}
	day[userID] += points
}

type UserRecord struct {
	UserID      string         `json:"user_id"`
	DisplayTag  string         `json:"display_tag,omitempty"`
	DailyTotals map[string]int `json:"daily_totals"`
	DailyPoints int            `json:"daily_points"`
	LastSeen    string         `json:"last_seen,omitempty"` // calendar day, DayFormat

	// Streak of consecutive calendar days with at least one accepted
	// completion. LastStreakDay is the most recent such day.
	StreakDays    int    `json:"streak_days"`
	LastStreakDay string `json:"last_streak_day,omitempty"`

	Pending    *PendingTask `json:"pending_task,omitempty"`
	NextTaskID int64        `json:"next_task_id"`

	Premium     bool `json:"premium"`
	IntervalMin int  `json:"interval_min"`
}

// Touch applies the daily reset: the first time a user is seen on a new
// calendar day, daily totals and points go back to zero.
func (u *UserRecord) Touch(now time.Time) {
	today := now.Format(DayFormat)
	if u.LastSeen != today {
		u.DailyTotals = make(map[string]int)
		u.DailyPoints = 0
		u.LastSeen = today
	}
}

// PendingTask is the single outstanding exercise task for a user. A user has
// zero or one of these; issuing a new card silently overwrites it.
type PendingTask struct {
	TaskID   int64     `json:"task_id"`
	Kind     string    `json:"kind"`
	Amount   int       `json:"amount"`
	Points   int       `json:"points"`
	IssuedAt time.Time `json:"issued_at"`
	UnlockAt time.Time `json:"unlock_at"`
	Consumed bool      `json:"consumed"`
}
