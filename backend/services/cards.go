package services

import (
	"math/rand"
	"sync"
	"time"

	"deskwarrior/backend/models"
)

// ExerciseSpec describes one exercise kind: the inclusive target range and
// whether the amount is itself a duration.
type ExerciseSpec struct {
	Kind        string
	Low, High   int
	Unit        string // reps | seconds | minutes
	TimeBased   bool
	UnitSeconds int // seconds per unit for time-based kinds
}

// ExerciseCatalogue is the fixed set of exercise kinds.
var ExerciseCatalogue = []ExerciseSpec{
	{Kind: "pushups", Low: 8, High: 15, Unit: "reps"},
	{Kind: "squats", Low: 10, High: 20, Unit: "reps"},
	{Kind: "plank", Low: 30, High: 60, Unit: "seconds", TimeBased: true, UnitSeconds: 1},
	{Kind: "stretch", Low: 20, High: 40, Unit: "seconds", TimeBased: true, UnitSeconds: 1},
	{Kind: "walk", Low: 5, High: 10, Unit: "minutes", TimeBased: true, UnitSeconds: 60},
}

// WellnessTips are the informational cards. They carry no points and no
// completion step.
var WellnessTips = []string{
	"Hydration check: grab a glass of water before your next message.",
	"Posture check: shoulders back, feet flat, screen at eye level.",
	"20-20-20: every 20 minutes, look at something 20 feet away for 20 seconds.",
	"You've been sitting a while. Stand up and roll your shoulders for a minute.",
	"Wrists tight? Stretch each wrist gently for 15 seconds.",
	"Take five slow, deep breaths. In through the nose, out through the mouth.",
}

func findSpec(kind string) (ExerciseSpec, bool) {
	for _, s := range ExerciseCatalogue {
		if s.Kind == kind {
			return s, true
		}
	}
	return ExerciseSpec{}, false
}

// WaitSeconds is the anti-cheat delay before a task may be completed.
// Time-based kinds need the full claimed duration to elapse; rep-based kinds
// use max(15, amount/2) seconds as a plausibility floor. It does not verify
// effort, only that the claim is not physically impossible.
func WaitSeconds(kind string, amount int) int {
	spec, ok := findSpec(kind)
	if ok && spec.TimeBased {
		return amount * spec.UnitSeconds
	}
	w := amount / 2
	if w < 15 {
		w = 15
	}
	return w
}

// CardSelector draws cards from the catalogues. The random source is
// injected so draws are reproducible in tests; tipProb is the share of
// informational cards (0.25 in the original bot).
type CardSelector struct {
	mu      sync.Mutex
	rng     *rand.Rand
	tipProb float64
}

// NewCardSelector builds a selector. seed == 0 seeds from the clock.
func NewCardSelector(seed int64, tipProb float64) *CardSelector {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &CardSelector{
		rng:     rand.New(rand.NewSource(seed)),
		tipProb: tipProb,
	}
}

// Pick returns a fresh card: a wellness tip with probability tipProb,
// otherwise an exercise with an amount drawn uniformly from the kind's
// inclusive range. Points are 1:1 with the amount. Pure draw, no state.
func (s *CardSelector) Pick() models.Card {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rng.Float64() < s.tipProb {
		tip := WellnessTips[s.rng.Intn(len(WellnessTips))]
		return models.Card{Type: models.CardTip, Text: tip}
	}

	spec := ExerciseCatalogue[s.rng.Intn(len(ExerciseCatalogue))]
	amount := spec.Low + s.rng.Intn(spec.High-spec.Low+1)
	return models.Card{
		Type:   models.CardExercise,
		Kind:   spec.Kind,
		Amount: amount,
		Points: amount,
	}
}

// RandomTag draws a fresh random display tag from the selector's source.
func (s *CardSelector) RandomTag() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := make([]byte, TagLength)
	for i := range b {
		b[i] = byte('A' + s.rng.Intn(26))
	}
	return string(b)
}
