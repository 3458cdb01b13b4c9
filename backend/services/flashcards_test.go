package services

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"deskwarrior/backend/config"
	"deskwarrior/backend/models"
	"deskwarrior/backend/store"
)

func newTestService(t *testing.T, policy string) (*FlashcardService, *store.SessionStore) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "session.db")), &gorm.Config{})
	require.NoError(t, err)

	sessions, err := store.NewSessionStore(db)
	require.NoError(t, err)

	cfg := &config.Config{
		LeaderboardPolicy: policy,
		TipProbability:    0,
		RandSeed:          1,
	}
	svc := NewFlashcardService(sessions, NewCardSelector(1, 0), cfg)
	return svc, sessions
}

// armTask plants a pending task directly, bypassing the random selector so
// gate tests control the exact kind and amount.
func armTask(t *testing.T, sessions *store.SessionStore, userID string, kind string, amount int, issuedAt time.Time) {
	t.Helper()

	wait := WaitSeconds(kind, amount)
	err := sessions.Update(func(doc *models.Document) error {
		u := doc.User(userID)
		u.Touch(issuedAt)
		u.NextTaskID++
		u.Pending = &models.PendingTask{
			TaskID:   u.NextTaskID,
			Kind:     kind,
			Amount:   amount,
			Points:   amount,
			IssuedAt: issuedAt,
			UnlockAt: issuedAt.Add(time.Duration(wait) * time.Second),
		}
		return nil
	})
	require.NoError(t, err)
}

func TestCompletionGatePushupsScenario(t *testing.T) {
	svc, sessions := newTestService(t, config.LeaderboardDaily)
	t0 := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

	// pushups amount=10 -> points=10, wait=max(15, 10/2)=15s
	armTask(t, sessions, "u1", "pushups", 10, t0)
	ref := CompletionRef{Kind: "pushups", Amount: 10, Points: 10}

	// Too early at +10s, and the rejection mutates nothing
	_, err := svc.AttemptCompletion("u1", "chat1", ref, t0.Add(10*time.Second))
	assert.ErrorIs(t, err, ErrTooEarly)

	summary, err := svc.DailySummary("u1", t0.Add(10*time.Second))
	require.NoError(t, err)
	assert.Zero(t, summary.PointsToday)
	assert.Empty(t, summary.Totals)

	board, err := svc.Leaderboard("chat1", 10, t0)
	require.NoError(t, err)
	assert.Empty(t, board.Entries)

	// Accepted at exactly +15s (inclusive boundary)
	res, err := svc.AttemptCompletion("u1", "chat1", ref, t0.Add(15*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 10, res.Amount)
	assert.Equal(t, 10, res.Points)
	assert.Equal(t, 10, res.PointsToday)

	summary, err = svc.DailySummary("u1", t0.Add(16*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 10, summary.Totals["pushups"])
	assert.Equal(t, 10, summary.PointsToday)

	board, err = svc.Leaderboard("chat1", 10, t0)
	require.NoError(t, err)
	require.Len(t, board.Entries, 1)
	assert.Equal(t, 10, board.Entries[0].Points)

	// At-most-once: an identical repeat is rejected
	_, err = svc.AttemptCompletion("u1", "chat1", ref, t0.Add(20*time.Second))
	assert.ErrorIs(t, err, ErrNoActiveTask)
}

func TestPlankUsesFullDurationInclusive(t *testing.T) {
	svc, sessions := newTestService(t, config.LeaderboardDaily)
	t0 := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

	armTask(t, sessions, "u1", "plank", 45, t0)
	ref := CompletionRef{Kind: "plank", Amount: 45, Points: 45}

	_, err := svc.AttemptCompletion("u1", "chat1", ref, t0.Add(44*time.Second))
	assert.ErrorIs(t, err, ErrTooEarly)

	res, err := svc.AttemptCompletion("u1", "chat1", ref, t0.Add(45*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 45, res.Points)
}

func TestRequestCardArmsGate(t *testing.T) {
	svc, _ := newTestService(t, config.LeaderboardDaily)
	t0 := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

	card, err := svc.RequestCard("u1", t0)
	require.NoError(t, err)
	require.Equal(t, models.CardExercise, card.Type)
	assert.NotZero(t, card.TaskID)
	assert.Equal(t, WaitSeconds(card.Kind, card.Amount), card.WaitSeconds)
	require.NotNil(t, card.UnlockAt)
	assert.Equal(t, t0.Add(time.Duration(card.WaitSeconds)*time.Second), *card.UnlockAt)

	ref := CompletionRef{TaskID: card.TaskID, Kind: card.Kind, Amount: card.Amount, Points: card.Points}
	res, err := svc.AttemptCompletion("u1", "chat1", ref, *card.UnlockAt)
	require.NoError(t, err)
	assert.Equal(t, card.Points, res.Points)
	assert.Equal(t, card.TaskID, res.TaskID)
}

func TestIssuingNewTaskDiscardsPrior(t *testing.T) {
	svc, _ := newTestService(t, config.LeaderboardDaily)
	t0 := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

	first, err := svc.RequestCard("u1", t0)
	require.NoError(t, err)
	second, err := svc.RequestCard("u1", t0.Add(time.Minute))
	require.NoError(t, err)
	assert.Greater(t, second.TaskID, first.TaskID)

	// The first task is permanently unfulfillable, even long after its unlock
	late := t0.Add(time.Hour)
	ref := CompletionRef{TaskID: first.TaskID, Kind: first.Kind, Amount: first.Amount, Points: first.Points}
	_, err = svc.AttemptCompletion("u1", "chat1", ref, late)
	assert.ErrorIs(t, err, ErrNoActiveTask)

	ref = CompletionRef{TaskID: second.TaskID, Kind: second.Kind, Amount: second.Amount, Points: second.Points}
	_, err = svc.AttemptCompletion("u1", "chat1", ref, late)
	assert.NoError(t, err)
}

func TestNoActiveTaskForUnknownUser(t *testing.T) {
	svc, _ := newTestService(t, config.LeaderboardDaily)

	ref := CompletionRef{Kind: "pushups", Amount: 10, Points: 10}
	_, err := svc.AttemptCompletion("ghost", "chat1", ref, time.Now().UTC())
	assert.ErrorIs(t, err, ErrNoActiveTask)
}

func TestMismatchedTupleIsRejected(t *testing.T) {
	svc, sessions := newTestService(t, config.LeaderboardDaily)
	t0 := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

	armTask(t, sessions, "u1", "pushups", 10, t0)
	late := t0.Add(time.Minute)

	_, err := svc.AttemptCompletion("u1", "chat1", CompletionRef{Kind: "pushups", Amount: 12, Points: 12}, late)
	assert.ErrorIs(t, err, ErrNoActiveTask)

	_, err = svc.AttemptCompletion("u1", "chat1", CompletionRef{Kind: "squats", Amount: 10, Points: 10}, late)
	assert.ErrorIs(t, err, ErrNoActiveTask)

	_, err = svc.AttemptCompletion("u1", "chat1", CompletionRef{TaskID: 99, Kind: "pushups", Amount: 10, Points: 10}, late)
	assert.ErrorIs(t, err, ErrNoActiveTask)
}

func TestDailyTotalsResetOnNewDay(t *testing.T) {
	svc, sessions := newTestService(t, config.LeaderboardDaily)
	day1 := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

	armTask(t, sessions, "u1", "squats", 12, day1)
	_, err := svc.AttemptCompletion("u1", "chat1", CompletionRef{Kind: "squats", Amount: 12, Points: 12}, day1.Add(time.Minute))
	require.NoError(t, err)

	summary, err := svc.DailySummary("u1", day1.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 12, summary.PointsToday)

	// Any amount of elapsed time does not matter, only the calendar date
	day3 := day1.AddDate(0, 0, 2)
	summary, err = svc.DailySummary("u1", day3)
	require.NoError(t, err)
	assert.Zero(t, summary.PointsToday)
	assert.Empty(t, summary.Totals)
}

func TestStreakAcrossDays(t *testing.T) {
	svc, sessions := newTestService(t, config.LeaderboardDaily)
	day1 := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

	complete := func(day time.Time) *CompleteResult {
		armTask(t, sessions, "u1", "pushups", 10, day)
		res, err := svc.AttemptCompletion("u1", "chat1", CompletionRef{Kind: "pushups", Amount: 10, Points: 10}, day.Add(time.Minute))
		require.NoError(t, err)
		return res
	}

	assert.Equal(t, 1, complete(day1).StreakDays)
	assert.Equal(t, 2, complete(day1.AddDate(0, 0, 1)).StreakDays)
	// Second completion on the same day does not double-count
	assert.Equal(t, 2, complete(day1.AddDate(0, 0, 1)).StreakDays)
	// A gap resets the streak
	assert.Equal(t, 1, complete(day1.AddDate(0, 0, 4)).StreakDays)
}

func TestLeaderboardOrderingAndTieBreak(t *testing.T) {
	svc, sessions := newTestService(t, config.LeaderboardDaily)
	t0 := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

	complete := func(userID string, amount int) {
		armTask(t, sessions, userID, "plank", amount, t0)
		_, err := svc.AttemptCompletion(userID, "chat1", CompletionRef{Kind: "plank", Amount: amount, Points: amount}, t0.Add(time.Hour))
		require.NoError(t, err)
	}

	for _, id := range []string{"aaa", "bbb", "ccc"} {
		_, err := svc.SetDisplayTag(id, id, t0)
		require.NoError(t, err)
	}

	complete("aaa", 30)
	complete("ccc", 30)
	complete("bbb", 45)

	board, err := svc.Leaderboard("chat1", 10, t0)
	require.NoError(t, err)
	require.Len(t, board.Entries, 3)
	assert.Equal(t, 45, board.Entries[0].Points)
	assert.Equal(t, "BBBXXX", board.Entries[0].DisplayTag)
	// Ties break on user id ascending: aaa before ccc
	assert.Equal(t, "AAAXXX", board.Entries[1].DisplayTag)
	assert.Equal(t, "CCCXXX", board.Entries[2].DisplayTag)
	assert.Equal(t, []int{1, 2, 3}, []int{board.Entries[0].Rank, board.Entries[1].Rank, board.Entries[2].Rank})

	top2, err := svc.Leaderboard("chat1", 2, t0)
	require.NoError(t, err)
	assert.Len(t, top2.Entries, 2)
}

func TestLeaderboardDailyPolicyScopesByDay(t *testing.T) {
	svc, sessions := newTestService(t, config.LeaderboardDaily)
	day1 := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

	armTask(t, sessions, "u1", "pushups", 10, day1)
	_, err := svc.AttemptCompletion("u1", "chat1", CompletionRef{Kind: "pushups", Amount: 10, Points: 10}, day1.Add(time.Minute))
	require.NoError(t, err)

	board, err := svc.Leaderboard("chat1", 10, day1)
	require.NoError(t, err)
	assert.Len(t, board.Entries, 1)

	// Next day the daily board starts empty
	board, err = svc.Leaderboard("chat1", 10, day1.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Empty(t, board.Entries)
}

func TestLeaderboardAllTimeAccumulates(t *testing.T) {
	svc, sessions := newTestService(t, config.LeaderboardAllTime)
	day1 := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

	prev := 0
	for i := 0; i < 3; i++ {
		day := day1.AddDate(0, 0, i)
		armTask(t, sessions, "u1", "pushups", 10, day)
		_, err := svc.AttemptCompletion("u1", "chat1", CompletionRef{Kind: "pushups", Amount: 10, Points: 10}, day.Add(time.Minute))
		require.NoError(t, err)

		board, err := svc.Leaderboard("chat1", 10, day)
		require.NoError(t, err)
		require.Len(t, board.Entries, 1)
		// Monotonically non-decreasing across accepted completions
		assert.Greater(t, board.Entries[0].Points, prev)
		prev = board.Entries[0].Points
	}
	assert.Equal(t, 30, prev)
}

func TestConcurrentCompletionsNoLostUpdates(t *testing.T) {
	svc, sessions := newTestService(t, config.LeaderboardDaily)
	t0 := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

	const users = 8
	for i := 0; i < users; i++ {
		armTask(t, sessions, fmt.Sprintf("user%d", i), "pushups", 10, t0)
	}

	var wg sync.WaitGroup
	errs := make([]error, users)
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.AttemptCompletion(
				fmt.Sprintf("user%d", i), "chat1",
				CompletionRef{Kind: "pushups", Amount: 10, Points: 10},
				t0.Add(time.Minute),
			)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "user%d", i)
	}

	// Every user's points survived the concurrent read-modify-write cycles
	board, err := svc.Leaderboard("chat1", users, t0)
	require.NoError(t, err)
	require.Len(t, board.Entries, users)
	for _, e := range board.Entries {
		assert.Equal(t, 10, e.Points)
	}
}

func TestSetDisplayTag(t *testing.T) {
	svc, _ := newTestService(t, config.LeaderboardDaily)
	now := time.Now().UTC()

	tag, err := svc.SetDisplayTag("u1", "bob", now)
	require.NoError(t, err)
	assert.Equal(t, "BOBXXX", tag)

	profile, err := svc.GetProfile("u1", now)
	require.NoError(t, err)
	assert.Equal(t, "BOBXXX", profile.DisplayTag)

	// Input with no usable letters falls back to a random tag, never an error
	tag, err = svc.SetDisplayTag("u1", "12345", now)
	require.NoError(t, err)
	assert.Len(t, tag, TagLength)
}

func TestPremiumIntervalRules(t *testing.T) {
	svc, _ := newTestService(t, config.LeaderboardDaily)
	now := time.Now().UTC()

	_, err := svc.SetInterval("u1", 45, now)
	assert.ErrorIs(t, err, ErrPremiumRequired)

	profile, err := svc.SetInterval("u1", 60, now)
	require.NoError(t, err)
	assert.Equal(t, 60, profile.IntervalMin)

	profile, err = svc.ActivatePremium("u1", now)
	require.NoError(t, err)
	assert.True(t, profile.Premium)

	profile, err = svc.SetInterval("u1", 45, now)
	require.NoError(t, err)
	assert.Equal(t, 45, profile.IntervalMin)

	_, err = svc.SetInterval("u1", 50, now)
	assert.ErrorIs(t, err, ErrInvalidInterval)
}

func TestCreateGuest(t *testing.T) {
	svc, _ := newTestService(t, config.LeaderboardDaily)

	a, err := svc.CreateGuest(time.Now().UTC())
	require.NoError(t, err)
	b, err := svc.CreateGuest(time.Now().UTC())
	require.NoError(t, err)

	assert.NotEmpty(t, a.UserID)
	assert.NotEqual(t, a.UserID, b.UserID)
	assert.Len(t, a.DisplayTag, TagLength)
	assert.Equal(t, 60, a.IntervalMin)
	assert.False(t, a.Premium)
}
