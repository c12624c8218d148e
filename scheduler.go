package engram

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MinSchedulingUnit is the smallest allowed gap between a review and the next
// one. Every produced item satisfies NextReview >= LastReview + MinSchedulingUnit.
const MinSchedulingUnit = time.Minute

// EngineConfig configures an Engine.
// Zero values produce sensible defaults; see field comments.
type EngineConfig struct {
	ShortTerm           ShortTermConfig `json:"short_term"`
	RelapsePolicy       RelapsePolicy   `json:"relapse_policy"`        // zero → RelapseAlways
	LapseWindowDays     float64         `json:"lapse_window_days"`     // zero → 30; only used with RelapseWithinWindow
	MaximumIntervalDays int             `json:"maximum_interval_days"` // zero → 36500
	Logger              *zap.Logger     `json:"-"`                     // nil → no-op logger
}

// Engine is the review state machine. It selects which retention model
// applies to a rating event, applies it, and decides on phase transitions.
// The Engine holds only structural configuration; PolicyParams are passed
// into every call and never cached, so one Engine serves many learners.
type Engine struct {
	shortTerm       ShortTermConfig
	relapsePolicy   RelapsePolicy
	lapseWindowDays float64
	maxIntervalDays int
	logger          *zap.Logger
}

// NewEngine creates an Engine from the given config.
// Zero-value fields are filled with defaults; invalid values return an error.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	policy := cfg.RelapsePolicy
	if policy == 0 {
		policy = RelapseAlways
	}
	if policy < RelapseAlways || policy > RelapseNever {
		return nil, fmt.Errorf("%w: relapse policy %d", ErrValidation, int(policy))
	}

	window := cfg.LapseWindowDays
	if window == 0 {
		window = 30
	}
	if window < 0 {
		return nil, fmt.Errorf("%w: lapse window %f must not be negative", ErrValidation, window)
	}

	maxIvl := cfg.MaximumIntervalDays
	if maxIvl == 0 {
		maxIvl = 36500
	}
	if maxIvl < 0 {
		return nil, fmt.Errorf("%w: maximum interval %d must be positive", ErrValidation, maxIvl)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Engine{
		shortTerm:       cfg.ShortTerm.withDefaults(),
		relapsePolicy:   policy,
		lapseWindowDays: window,
		maxIntervalDays: maxIvl,
		logger:          logger,
	}, nil
}

// ScheduleReview processes one rating event for an item at the given time.
// It returns the updated item and the review log entry; the input item is not
// mutated. An out-of-range rating fails with a validation error.
func (e *Engine) ScheduleReview(item Item, rating Rating, policy PolicyParams, now time.Time) (Item, ReviewLog, error) {
	if !rating.IsValid() {
		return Item{}, ReviewLog{}, fmt.Errorf("%w: %d", ErrInvalidRating, int(rating))
	}
	policy = policy.normalized()

	it := item.clone()
	ltm := newLongTermModel(policy.Weights)
	stm := newShortTermModel(e.shortTerm, policy.Short)

	elapsedDays, elapsedMinutes := it.elapsedSince(now)
	stabilityBefore := it.Stability
	difficultyBefore := it.Difficulty
	predicted := e.retrievabilityWith(&ltm, &it, now)

	var interval time.Duration
	switch {
	case e.shortTerm.Disabled,
		it.Phase == Graduated && !(rating == Again && e.relapseApplies(elapsedDays)):
		interval = e.reviewLongTerm(&ltm, &it, rating, elapsedDays, policy)

	case it.Phase == New || it.Phase == Learning:
		interval = e.reviewLearning(&ltm, stm, &it, rating, elapsedMinutes, policy)

	default:
		// Graduated lapse under a permitting policy.
		interval = e.relapse(&ltm, stm, &it, elapsedDays)
	}

	due := now.Add(interval)
	if floor := now.Add(MinSchedulingUnit); due.Before(floor) {
		// Degenerate inputs (near-zero stability) must never schedule into
		// the past or onto the review itself.
		due = floor
	}
	it.NextReview = due
	it.LastReview = &now

	entry := ReviewLog{
		ID:                      uuid.New(),
		ItemID:                  it.ID,
		Rating:                  rating,
		Reviewed:                now,
		ElapsedDays:             elapsedDays,
		ScheduledDays:           due.Sub(now).Hours() / 24.0,
		StabilityBefore:         stabilityBefore,
		StabilityAfter:          it.Stability,
		DifficultyBefore:        difficultyBefore,
		DifficultyAfter:         it.Difficulty,
		PredictedRetrievability: predicted,
	}
	return it, entry, nil
}

// relapseApplies reports whether a Graduated item failing now re-enters Learning.
func (e *Engine) relapseApplies(elapsedDays float64) bool {
	switch e.relapsePolicy {
	case RelapseWithinWindow:
		return elapsedDays <= e.lapseWindowDays
	case RelapseNever:
		return false
	default:
		return true
	}
}

// reviewLongTerm applies the power-law model and leaves the item Graduated.
func (e *Engine) reviewLongTerm(m *longTermModel, it *Item, rating Rating, elapsedDays float64, policy PolicyParams) time.Duration {
	if it.Stability == nil {
		// First long-term pass: structural initial stability and difficulty.
		it.setStability(m.initStability(rating))
		it.setDifficulty(m.initDifficulty(rating, true))
	} else {
		s := *it.Stability
		d := fallbackDifficulty
		if it.Difficulty != nil {
			d = *it.Difficulty
		}
		if elapsedDays < 1 {
			it.setStability(e.sanitize("stability", m.sameDayStability(s, rating), fallbackStability))
		} else {
			r := m.retrievability(elapsedDays, s)
			it.setStability(e.sanitize("stability", m.nextStability(d, s, r, rating), fallbackStability))
		}
		it.setDifficulty(e.sanitize("difficulty", m.nextDifficulty(d, rating), fallbackDifficulty))
	}

	it.Phase = Graduated
	it.clearShortStability()
	it.LearningReviewCount = 0

	days := m.nextIntervalDays(*it.Stability, policy.TargetRetention, e.maxIntervalDays)
	return time.Duration(days) * 24 * time.Hour
}

// reviewLearning applies the exponential model and graduates the item when
// its predicted interval clears the graduation cap.
func (e *Engine) reviewLearning(ltm *longTermModel, stm shortTermModel, it *Item, rating Rating, elapsedMinutes float64, policy PolicyParams) time.Duration {
	var s float64
	if it.ShortStabilityMinutes == nil {
		s = stm.initialStability(rating)
	} else {
		s = stm.nextStability(*it.ShortStabilityMinutes, rating, elapsedMinutes)
	}
	s = e.sanitize("short_stability", s, defaultAfterFailureMinutes)

	interval := stm.interval(s)
	if stm.graduates(interval) {
		return e.graduate(ltm, it, rating, policy)
	}

	it.Phase = Learning
	it.setShortStability(s)
	it.LearningReviewCount++
	return interval
}

// graduate hands the item to the long-term model, starting from the
// structural initial stability and difficulty for the graduating rating.
func (e *Engine) graduate(m *longTermModel, it *Item, rating Rating, policy PolicyParams) time.Duration {
	it.Phase = Graduated
	it.setStability(m.initStability(rating))
	it.setDifficulty(m.initDifficulty(rating, true))
	it.clearShortStability()
	it.LearningReviewCount = 0

	days := m.nextIntervalDays(*it.Stability, policy.TargetRetention, e.maxIntervalDays)
	return time.Duration(days) * 24 * time.Hour
}

// relapse handles a Graduated lapse under a permitting policy: the long-term
// trace takes the forget-stability penalty, then the item re-enters Learning
// at the post-failure reset stability (the hybrid strategy).
func (e *Engine) relapse(ltm *longTermModel, stm shortTermModel, it *Item, elapsedDays float64) time.Duration {
	s := fallbackStability
	if it.Stability != nil {
		s = *it.Stability
	}
	d := fallbackDifficulty
	if it.Difficulty != nil {
		d = *it.Difficulty
	}
	r := ltm.retrievability(elapsedDays, s)
	it.setStability(e.sanitize("stability", ltm.forgetStability(d, s, r), fallbackStability))
	it.setDifficulty(e.sanitize("difficulty", ltm.nextDifficulty(d, Again), fallbackDifficulty))

	it.Phase = Learning
	reset := stm.afterFailureStability()
	it.setShortStability(reset)
	it.LearningReviewCount = 1
	return stm.interval(reset)
}

// Retrievability returns the recall probability for the item at the given
// time under whichever curve currently governs it. Returns 0 for a
// never-reviewed item.
func (e *Engine) Retrievability(item Item, policy PolicyParams, now time.Time) float64 {
	ltm := newLongTermModel(policy.normalized().Weights)
	return e.retrievabilityWith(&ltm, &item, now)
}

func (e *Engine) retrievabilityWith(m *longTermModel, it *Item, now time.Time) float64 {
	if it.LastReview == nil {
		return 0
	}
	elapsedDays, elapsedMinutes := it.elapsedSince(now)
	if it.Phase == Learning && it.ShortStabilityMinutes != nil {
		return shortTermRetrievability(elapsedMinutes, *it.ShortStabilityMinutes)
	}
	if it.Stability == nil {
		return 0
	}
	return m.retrievability(elapsedDays, *it.Stability)
}

// PreviewItem returns the result of reviewing the item with each possible rating.
func (e *Engine) PreviewItem(item Item, policy PolicyParams, now time.Time) map[Rating]Item {
	result := make(map[Rating]Item, 4)
	for _, r := range []Rating{Again, Hard, Good, Easy} {
		it, _, err := e.ScheduleReview(item, r, policy, now)
		if err != nil {
			continue
		}
		result[r] = it
	}
	return result
}

// ReplayHistory rebuilds the item's scheduling state by replaying the given
// review logs in order. Returns ErrItemMismatch if any log belongs to a
// different item.
func (e *Engine) ReplayHistory(item Item, logs []ReviewLog, policy PolicyParams) (Item, error) {
	it := item.clone()
	for _, entry := range logs {
		if entry.ItemID != it.ID {
			return Item{}, fmt.Errorf("%w: item %s, log %s", ErrItemMismatch, it.ID, entry.ItemID)
		}
		var err error
		it, _, err = e.ScheduleReview(it, entry.Rating, policy, entry.Reviewed)
		if err != nil {
			return Item{}, err
		}
	}
	return it, nil
}

// sanitize guards persisted model outputs against non-finite intermediates.
// A NaN or infinity is replaced by the structural default and logged; it
// never escapes into item state.
func (e *Engine) sanitize(field string, v, fallback float64) float64 {
	if isFinite(v) {
		return v
	}
	e.logger.Warn("non-finite model output replaced with structural default",
		zap.String("field", field),
		zap.Float64("fallback", fallback))
	return fallback
}
