package services

import (
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"deskwarrior/backend/config"
	"deskwarrior/backend/models"
	"deskwarrior/backend/store"
)

var (
	// ErrNoActiveTask: completion attempted with no matching pending,
	// unconsumed task. Benign; the front end shows "nothing to log".
	ErrNoActiveTask = errors.New("no active task")
	// ErrTooEarly: completion attempted before the unlock time. Side-effect
	// free and safely retryable.
	ErrTooEarly = errors.New("too early to complete")
	// ErrPremiumRequired: a free-tier user asked for a custom interval.
	ErrPremiumRequired = errors.New("premium required")
	// ErrInvalidInterval: interval outside the allowed set.
	ErrInvalidInterval = errors.New("invalid interval")
)

// CompletionRef is the task reference the front end echoes back on a "done"
// tap. TaskID is optional (older clients only round-trip kind/amount/points)
// but is checked when present.
type CompletionRef struct {
	TaskID int64  `json:"task_id"`
	Kind   string `json:"kind"`
	Amount int    `json:"amount"`
	Points int    `json:"points"`
}

// CompleteResult confirms an accepted completion.
type CompleteResult struct {
	TaskID      int64  `json:"task_id"`
	Kind        string `json:"kind"`
	Amount      int    `json:"amount"`
	Points      int    `json:"points"`
	PointsToday int    `json:"points_today"`
	StreakDays  int    `json:"streak_days"`
}

// Profile is the read-only projection of a user record.
type Profile struct {
	UserID      string `json:"user_id"`
	DisplayTag  string `json:"display_tag"`
	Premium     bool   `json:"premium"`
	IntervalMin int    `json:"interval_min"`
	StreakDays  int    `json:"streak_days"`
}

// FlashcardService owns the flashcard flow: issuing cards, gating
// completions, and keeping daily totals and chat leaderboards. All state
// lives in the session store; every call is one load-mutate-save cycle.
type FlashcardService struct {
	store    *store.SessionStore
	selector *CardSelector
	cfg      *config.Config
}

func NewFlashcardService(st *store.SessionStore, selector *CardSelector, cfg *config.Config) *FlashcardService {
	return &FlashcardService{store: st, selector: selector, cfg: cfg}
}

// touch applies the daily reset and backfills a display tag for users that
// never set one, so the leaderboard always has something to show.
func (s *FlashcardService) touch(u *models.UserRecord, now time.Time) {
	u.Touch(now)
	if u.DisplayTag == "" {
		u.DisplayTag = s.selector.RandomTag()
	}
}

// boardKey returns the leaderboard bucket for the configured policy.
func (s *FlashcardService) boardKey(now time.Time) string {
	if s.cfg.LeaderboardPolicy == config.LeaderboardAllTime {
		return models.AllTimeKey
	}
	return now.Format(models.DayFormat)
}

// RequestCard draws a card for the user. Exercise cards arm the completion
// gate: the task becomes pending and is only completable once the unlock
// time has passed. Any previously pending task is silently discarded — that
// is the source behavior, and the only cancellation path there is.
func (s *FlashcardService) RequestCard(userID string, now time.Time) (models.Card, error) {
	card := s.selector.Pick()
	if card.Type != models.CardExercise {
		// Tips require no state; still touch the user so the daily reset
		// and tag assignment happen on first contact.
		err := s.store.Update(func(doc *models.Document) error {
			s.touch(doc.User(userID), now)
			return nil
		})
		return card, err
	}

	err := s.store.Update(func(doc *models.Document) error {
		u := doc.User(userID)
		s.touch(u, now)

		u.NextTaskID++
		wait := WaitSeconds(card.Kind, card.Amount)
		unlock := now.Add(time.Duration(wait) * time.Second)
		u.Pending = &models.PendingTask{
			TaskID:   u.NextTaskID,
			Kind:     card.Kind,
			Amount:   card.Amount,
			Points:   card.Points,
			IssuedAt: now,
			UnlockAt: unlock,
		}

		card.TaskID = u.NextTaskID
		card.UnlockAt = &unlock
		card.WaitSeconds = wait
		return nil
	})
	if err != nil {
		return models.Card{}, err
	}
	return card, nil
}

// AttemptCompletion validates a "done" tap against the pending task.
// Rejections (ErrNoActiveTask, ErrTooEarly) mutate nothing. Acceptance is
// at-most-once: the task is consumed and cleared, daily totals, daily
// points, the chat board and the streak all move in one document write.
func (s *FlashcardService) AttemptCompletion(userID, chatID string, ref CompletionRef, now time.Time) (*CompleteResult, error) {
	var res *CompleteResult
	err := s.store.Update(func(doc *models.Document) error {
		u, ok := doc.Users[userID]
		if !ok {
			return ErrNoActiveTask
		}
		s.touch(u, now)

		t := u.Pending
		if t == nil || t.Consumed {
			return ErrNoActiveTask
		}
		if t.Kind != ref.Kind || t.Amount != ref.Amount || t.Points != ref.Points {
			return ErrNoActiveTask
		}
		if ref.TaskID != 0 && ref.TaskID != t.TaskID {
			return ErrNoActiveTask
		}
		// Unlock boundary is inclusive: a tap exactly at unlock_at counts.
		if now.Before(t.UnlockAt) {
			return ErrTooEarly
		}

		t.Consumed = true
		u.Pending = nil
		u.DailyTotals[t.Kind] += t.Amount
		u.DailyPoints += t.Points
		doc.AddPoints(chatID, s.boardKey(now), userID, t.Points)

		today := now.Format(models.DayFormat)
		if u.LastStreakDay != today {
			yesterday := now.AddDate(0, 0, -1).Format(models.DayFormat)
			if u.LastStreakDay == yesterday {
				u.StreakDays++
			} else {
				u.StreakDays = 1
			}
			u.LastStreakDay = today
		}

		res = &CompleteResult{
			TaskID:      t.TaskID,
			Kind:        t.Kind,
			Amount:      t.Amount,
			Points:      t.Points,
			PointsToday: u.DailyPoints,
			StreakDays:  u.StreakDays,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// DailySummary returns the user's totals for today. The daily reset is
// applied (and persisted) here too, so a stale record reads as zeros.
func (s *FlashcardService) DailySummary(userID string, now time.Time) (*models.SummaryResponse, error) {
	var out *models.SummaryResponse
	err := s.store.Update(func(doc *models.Document) error {
		u := doc.User(userID)
		s.touch(u, now)
		totals := make(map[string]int, len(u.DailyTotals))
		for k, v := range u.DailyTotals {
			totals[k] = v
		}
		out = &models.SummaryResponse{
			Totals:      totals,
			PointsToday: u.DailyPoints,
			StreakDays:  u.StreakDays,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Leaderboard returns the top n entries for a chat, points descending.
// Ties break on user id ascending — the underlying store is a map, so
// iteration order cannot be trusted and the tie-break must be explicit.
func (s *FlashcardService) Leaderboard(chatID string, n int, now time.Time) (*models.LeaderboardResponse, error) {
	out := &models.LeaderboardResponse{
		ChatID:  chatID,
		Period:  s.cfg.LeaderboardPolicy,
		Entries: []models.LeaderboardEntry{},
	}
	err := s.store.View(func(doc *models.Document) error {
		board, ok := doc.Boards[chatID]
		if !ok {
			return nil
		}
		day, ok := board[s.boardKey(now)]
		if !ok {
			return nil
		}

		type row struct {
			userID string
			points int
		}
		rows := make([]row, 0, len(day))
		for userID, pts := range day {
			rows = append(rows, row{userID, pts})
		}
		sort.Slice(rows, func(i, j int) bool {
			if rows[i].points != rows[j].points {
				return rows[i].points > rows[j].points
			}
			return rows[i].userID < rows[j].userID
		})
		if n > 0 && len(rows) > n {
			rows = rows[:n]
		}

		for i, r := range rows {
			tag := r.userID
			if u, ok := doc.Users[r.userID]; ok && u.DisplayTag != "" {
				tag = u.DisplayTag
			}
			out.Entries = append(out.Entries, models.LeaderboardEntry{
				Rank:       i + 1,
				DisplayTag: tag,
				Points:     r.points,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SetDisplayTag sanitizes raw input into the tag format and stores it.
// Malformed input is corrected, never rejected; empty input draws a random
// tag. Returns the tag actually stored.
func (s *FlashcardService) SetDisplayTag(userID, raw string, now time.Time) (string, error) {
	tag := SanitizeTag(raw)
	if tag == "" {
		tag = s.selector.RandomTag()
	}
	err := s.store.Update(func(doc *models.Document) error {
		u := doc.User(userID)
		u.Touch(now)
		u.DisplayTag = tag
		return nil
	})
	if err != nil {
		return "", err
	}
	return tag, nil
}

// CreateGuest mints a fresh user id for front ends without stable identity.
func (s *FlashcardService) CreateGuest(now time.Time) (*Profile, error) {
	userID := uuid.NewString()
	var p *Profile
	err := s.store.Update(func(doc *models.Document) error {
		u := doc.User(userID)
		s.touch(u, now)
		p = s.profileOf(u)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetProfile returns the user's profile projection.
func (s *FlashcardService) GetProfile(userID string, now time.Time) (*Profile, error) {
	var p *Profile
	err := s.store.Update(func(doc *models.Document) error {
		u := doc.User(userID)
		s.touch(u, now)
		p = s.profileOf(u)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ActivatePremium flips the premium flag. The actual invoice/payment flow
// lives in the front end; this endpoint is the post-payment activation stub.
func (s *FlashcardService) ActivatePremium(userID string, now time.Time) (*Profile, error) {
	var p *Profile
	err := s.store.Update(func(doc *models.Document) error {
		u := doc.User(userID)
		s.touch(u, now)
		u.Premium = true
		p = s.profileOf(u)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// SetInterval sets the reminder interval preference. Free tier is pinned to
// FreeIntervalMin; premium users pick from PremiumIntervals.
func (s *FlashcardService) SetInterval(userID string, minutes int, now time.Time) (*Profile, error) {
	var p *Profile
	err := s.store.Update(func(doc *models.Document) error {
		u := doc.User(userID)
		s.touch(u, now)

		if !u.Premium {
			if minutes != config.FreeIntervalMin {
				return ErrPremiumRequired
			}
			u.IntervalMin = config.FreeIntervalMin
			p = s.profileOf(u)
			return nil
		}

		allowed := false
		for _, m := range config.PremiumIntervals {
			if minutes == m {
				allowed = true
				break
			}
		}
		if !allowed {
			return ErrInvalidInterval
		}
		u.IntervalMin = minutes
		p = s.profileOf(u)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *FlashcardService) profileOf(u *models.UserRecord) *Profile {
	interval := u.IntervalMin
	if interval == 0 {
		interval = config.FreeIntervalMin
	}
	return &Profile{
		UserID:      u.UserID,
		DisplayTag:  u.DisplayTag,
		Premium:     u.Premium,
		IntervalMin: interval,
		StreakDays:  u.StreakDays,
	}
}
