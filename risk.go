package engram

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

// RiskLevel buckets an item's forgetting risk.
type RiskLevel int

const (
	RiskLow RiskLevel = iota + 1
	RiskMedium
	RiskHigh
	RiskCritical
)

var riskLevelNames = [...]string{
	RiskLow:      "low",
	RiskMedium:   "medium",
	RiskHigh:     "high",
	RiskCritical: "critical",
}

// String returns the level name ("low", "medium", "high", "critical").
func (l RiskLevel) String() string {
	if l >= RiskLow && l <= RiskCritical {
		return riskLevelNames[l]
	}
	return fmt.Sprintf("RiskLevel(%d)", int(l))
}

// Recommended actions per risk level.
const (
	ActionNone     = "none"
	ActionMonitor  = "monitor"
	ActionPreStudy = "prestudy"
	ActionAvoid    = "avoid"
)

var riskActions = [...]string{
	RiskLow:      ActionNone,
	RiskMedium:   ActionMonitor,
	RiskHigh:     ActionPreStudy,
	RiskCritical: ActionAvoid,
}

// Risk percent thresholds mapping to levels.
const (
	riskMediumThreshold   = 25.0
	riskHighThreshold     = 50.0
	riskCriticalThreshold = 75.0
)

// RiskAssessment is a derived, never-persisted view of an item's forgetting
// risk at a point in time.
type RiskAssessment struct {
	Level         RiskLevel `json:"level"`
	Percent       float64   `json:"percent"` // [0, 100]
	Action        string    `json:"action"`
	HoursUntilDue float64   `json:"hours_until_due"` // negative when overdue
}

// PredictRisk computes the item's forgetting risk from current state.
// Risk rises with the elapsed fraction of the current interval and is damped
// by stability: percent = 100 * ef / (ef + k), k = 1 + stabilityDays/25.
// An item exactly at its due point lands in the medium band; overdue weak
// items saturate toward critical.
func (e *Engine) PredictRisk(item Item, now time.Time) RiskAssessment {
	percent := 0.0
	if item.LastReview != nil {
		interval := item.NextReview.Sub(*item.LastReview)
		if interval < MinSchedulingUnit {
			interval = MinSchedulingUnit
		}
		elapsed := now.Sub(*item.LastReview)
		if elapsed < 0 {
			elapsed = 0
		}
		ef := elapsed.Hours() / interval.Hours()

		stabilityDays := 0.0
		switch {
		case item.Phase == Learning && item.ShortStabilityMinutes != nil:
			stabilityDays = *item.ShortStabilityMinutes / (24 * 60)
		case item.Stability != nil:
			stabilityDays = *item.Stability
		}
		k := 1 + stabilityDays/25

		percent = clampRange(100*ef/(ef+k), 0, 100)
	}

	level := RiskLow
	switch {
	case percent >= riskCriticalThreshold:
		level = RiskCritical
	case percent >= riskHighThreshold:
		level = RiskHigh
	case percent >= riskMediumThreshold:
		level = RiskMedium
	}

	return RiskAssessment{
		Level:         level,
		Percent:       percent,
		Action:        riskActions[level],
		HoursUntilDue: item.NextReview.Sub(now).Hours(),
	}
}

// PenaltyConfig configures the management penalty.
// Zero values produce sensible defaults; see field comments.
type PenaltyConfig struct {
	ManagementThreshold int     `json:"management_threshold"` // zero → 3
	FuzzMinHours        float64 `json:"fuzz_min_hours"`       // zero → 4
	FuzzMaxHours        float64 `json:"fuzz_max_hours"`       // zero → 24
	AdaptiveFuzzing     bool    `json:"adaptive_fuzzing"`     // scale by excess over threshold
}

func (c PenaltyConfig) withDefaults() PenaltyConfig {
	if c.ManagementThreshold == 0 {
		c.ManagementThreshold = 3
	}
	if c.FuzzMinHours <= 0 {
		c.FuzzMinHours = 4
	}
	if c.FuzzMaxHours <= c.FuzzMinHours {
		c.FuzzMaxHours = math.Max(24, c.FuzzMinHours)
	}
	return c
}

// Adaptive scaling: each edit beyond the threshold widens the penalty by 25%,
// capped at 3x.
const (
	adaptiveFuzzStep = 0.25
	adaptiveFuzzCap  = 3.0
)

// ApplyManagementPenalty pushes an over-managed item's next review outward by
// a bounded random number of hours, so editing an item outside a real review
// cannot manufacture an artificially easy schedule. Below the management
// threshold it is a no-op. NextReview is never moved earlier.
//
// The randomness source is injected so tests can assert bounds
// deterministically; a nil rng falls back to a time-seeded generator.
func ApplyManagementPenalty(item Item, managementCount int, cfg PenaltyConfig, rng *rand.Rand) Item {
	cfg = cfg.withDefaults()
	it := item.clone()
	it.ManagementCount = managementCount

	if managementCount < cfg.ManagementThreshold {
		return it
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	scale := 1.0
	if cfg.AdaptiveFuzzing {
		scale = math.Min(adaptiveFuzzCap, 1+adaptiveFuzzStep*float64(managementCount-cfg.ManagementThreshold))
	}

	hours := (cfg.FuzzMinHours + rng.Float64()*(cfg.FuzzMaxHours-cfg.FuzzMinHours)) * scale
	it.NextReview = it.NextReview.Add(time.Duration(hours * float64(time.Hour)))
	return it
}

// RiskSummary counts items per risk bucket for study-session planning.
type RiskSummary struct {
	Low      int `json:"low"`
	Medium   int `json:"medium"`
	High     int `json:"high"`
	Critical int `json:"critical"`
	DueNow   int `json:"due_now"`
}

// SummarizeRisk reduces per-item risk over a deck. Pure reduction, no side
// effects.
func (e *Engine) SummarizeRisk(items []Item, now time.Time) RiskSummary {
	var sum RiskSummary
	for _, it := range items {
		switch e.PredictRisk(it, now).Level {
		case RiskMedium:
			sum.Medium++
		case RiskHigh:
			sum.High++
		case RiskCritical:
			sum.Critical++
		default:
			sum.Low++
		}
		if !it.NextReview.After(now) {
			sum.DueNow++
		}
	}
	return sum
}
