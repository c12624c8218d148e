package engram

import (
	"math"
	"time"
)

// Structural defaults and safe ranges for the learning-phase curve.
// Fitted overrides outside their clamp range are pulled back in; absent
// (zero) overrides fall through to the defaults.
const (
	defaultAfterFailureMinutes = 5.0
	maxShortStabilityMinutes   = 7 * 24 * 60 // one week

	initialStabilityMin = 1.0
	initialStabilityMax = 120.0
	afterFailureMin     = 1.0
	afterFailureMax     = 30.0
	growthFactorMin     = 0.5
	growthFactorMax     = 3.0
)

var defaultInitialStabilityMinutes = [5]float64{Again: 5, Hard: 15, Good: 30, Easy: 60}

var defaultGrowthFactors = [5]float64{Hard: 1.15, Good: 1.4, Easy: 1.7}

// ShortTermConfig configures the learning-phase regime.
// Zero values produce sensible defaults; see field comments.
type ShortTermConfig struct {
	Disabled           bool    `json:"disabled"`             // true → all items go straight to the long-term model
	TargetRetention    float64 `json:"target_retention"`     // zero → 0.7
	GraduationCapDays  float64 `json:"graduation_cap_days"`  // zero → 1
	MinIntervalMinutes float64 `json:"min_interval_minutes"` // zero → 1
	MaxIntervalMinutes float64 `json:"max_interval_minutes"` // zero → 4320 (3 days)
}

func (c ShortTermConfig) withDefaults() ShortTermConfig {
	if c.TargetRetention <= 0 || c.TargetRetention >= 1 {
		c.TargetRetention = 0.7
	}
	if c.GraduationCapDays <= 0 {
		c.GraduationCapDays = 1
	}
	if c.MinIntervalMinutes <= 0 {
		c.MinIntervalMinutes = 1
	}
	if c.MaxIntervalMinutes <= 0 {
		c.MaxIntervalMinutes = 3 * 24 * 60
	}
	return c
}

// shortTermModel evaluates the minutes-scale exponential curve that governs
// items in the Learning phase. The power-law model is numerically unstable
// and semantically wrong at sub-day horizons, so newly introduced and
// recently failed items live here until they graduate.
type shortTermModel struct {
	cfg    ShortTermConfig
	fitted *ShortTermParams // nil → structural defaults
}

func newShortTermModel(cfg ShortTermConfig, fitted *ShortTermParams) shortTermModel {
	return shortTermModel{cfg: cfg.withDefaults(), fitted: fitted}
}

// shortTermRetrievability computes R(t, S) = e^(-t/S) with t and S in minutes.
func shortTermRetrievability(elapsedMinutes, stabilityMinutes float64) float64 {
	if stabilityMinutes <= 0 {
		return 0
	}
	return math.Exp(-elapsedMinutes / stabilityMinutes)
}

// initialStability selects the first-rating stability from the per-rating
// table, preferring a fitted override when present.
func (m shortTermModel) initialStability(r Rating) float64 {
	s := defaultInitialStabilityMinutes[r]
	if m.fitted != nil && m.fitted.InitialStabilityMinutes[r] > 0 {
		s = m.fitted.InitialStabilityMinutes[r]
	}
	return clampRange(s, initialStabilityMin, initialStabilityMax)
}

// afterFailureStability returns the reset stability applied on Again.
func (m shortTermModel) afterFailureStability() float64 {
	s := defaultAfterFailureMinutes
	if m.fitted != nil && m.fitted.AfterFailureStabilityMinutes > 0 {
		s = m.fitted.AfterFailureStabilityMinutes
	}
	return clampRange(s, afterFailureMin, afterFailureMax)
}

// growthFactor returns the success multiplier for a rating.
func (m shortTermModel) growthFactor(r Rating) float64 {
	g := defaultGrowthFactors[r]
	if m.fitted != nil && m.fitted.GrowthFactors[r] > 0 {
		g = m.fitted.GrowthFactors[r]
	}
	return clampRange(g, growthFactorMin, growthFactorMax)
}

// nextStability updates stability after a learning-phase rating. Again resets
// to the after-failure stability; a success multiplies by the rating's growth
// factor scaled by the elapsed-time bonus, capped at one week.
func (m shortTermModel) nextStability(stabilityMinutes float64, r Rating, elapsedMinutes float64) float64 {
	if r == Again {
		return m.afterFailureStability()
	}
	grown := stabilityMinutes * m.growthFactor(r) * elapsedBonus(elapsedMinutes, stabilityMinutes)
	if !isFinite(grown) || grown <= 0 {
		grown = m.afterFailureStability()
	}
	return math.Min(grown, maxShortStabilityMinutes)
}

// elapsedBonus scales growth by how long the item survived since the last
// review: a gap matching twice the current stability earns the full 2x bonus.
func elapsedBonus(elapsedMinutes, stabilityMinutes float64) float64 {
	if stabilityMinutes <= 0 || elapsedMinutes <= 0 {
		return 1
	}
	return 1 + math.Min(1, elapsedMinutes/(2*stabilityMinutes))
}

// interval inverts the exponential for the short-horizon target retention:
// t = S * (-ln(target)), clamped to the configured minute range.
func (m shortTermModel) interval(stabilityMinutes float64) time.Duration {
	minutes := stabilityMinutes * -math.Log(m.cfg.TargetRetention)
	minutes = clampRange(minutes, m.cfg.MinIntervalMinutes, m.cfg.MaxIntervalMinutes)
	return time.Duration(minutes * float64(time.Minute))
}

// graduates reports whether a predicted interval clears the graduation cap.
func (m shortTermModel) graduates(interval time.Duration) bool {
	return interval.Minutes() >= m.cfg.GraduationCapDays*24*60
}

func clampRange(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
