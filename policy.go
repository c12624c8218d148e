package engram

import (
	"fmt"
	"math"
)

// WeightCount is the length of the long-term model's coefficient vector.
const WeightCount = 21

// weightPad fills the tail of an externally supplied vector that is shorter
// than WeightCount. Forward-compatibility rule, not an error.
const weightPad = 1.0

// DefaultWeights are the long-term model's structural default coefficients.
var DefaultWeights = [WeightCount]float64{
	0.212, 1.2931, 2.3065, 8.2956, // w[0..3]  initial stability S₀(G)
	6.4133, 0.8334, 3.0194, 0.001, // w[4..7]  difficulty params
	1.8722, 0.1666, 0.796, 1.4835, // w[8..11] recall stability params
	0.0614, 0.2629, 1.6483, 0.6014, // w[12..15] forget stability params
	1.8729, 0.5425, 0.0912, 0.0658, // w[16..19] easy/same-day params
	0.1542, // w[20] decay exponent
}

// DefaultTargetRetention is the recall probability the scheduler aims for
// when no learner-specific target has been set.
const DefaultTargetRetention = 0.9

// RetentionBounds constrains and quantizes a learner's target retention.
type RetentionBounds struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Step float64 `json:"step"`
}

// DefaultRetentionBounds returns the standard [0.85, 0.95] range with a 0.01
// quantization step.
func DefaultRetentionBounds() RetentionBounds {
	return RetentionBounds{Min: 0.85, Max: 0.95, Step: 0.01}
}

// Clamp quantizes v to the bounds' step grid and clamps it into [Min, Max].
func (b RetentionBounds) Clamp(v float64) float64 {
	if b.Step > 0 {
		v = math.Round(v/b.Step) * b.Step
	}
	return math.Min(math.Max(v, b.Min), b.Max)
}

// Validate reports malformed bounds as a validation error.
func (b RetentionBounds) Validate() error {
	if b.Min <= 0 || b.Max >= 1 || b.Min > b.Max || b.Step < 0 {
		return fmt.Errorf("%w: retention bounds [%f, %f] step %f", ErrValidation, b.Min, b.Max, b.Step)
	}
	return nil
}

// ShortTermParams carries fitted overrides for the learning-phase curve.
// Zero fields mean "use the structural default"; non-zero fields are clamped
// to their safe ranges when installed.
type ShortTermParams struct {
	// InitialStabilityMinutes is indexed by Rating (positions 1..4).
	InitialStabilityMinutes [5]float64 `json:"initial_stability_minutes"`
	// AfterFailureStabilityMinutes replaces the reset stability after Again.
	AfterFailureStabilityMinutes float64 `json:"after_failure_stability_minutes"`
	// GrowthFactors is indexed by Rating; only Hard..Easy are consulted.
	GrowthFactors [5]float64 `json:"growth_factors"`
}

// PolicyParams are the per-learner scheduling parameters. They are immutable
// within one scheduling call: every entry point takes them as a value and the
// engine never caches them, so concurrent callers with different learners
// never interfere.
type PolicyParams struct {
	Weights         [WeightCount]float64 `json:"weights"`
	TargetRetention float64              `json:"target_retention"`
	Short           *ShortTermParams     `json:"short_term_params,omitempty"`
}

// DefaultPolicy returns PolicyParams with the structural default weights and
// target retention, and no fitted short-term overrides.
func DefaultPolicy() PolicyParams {
	return PolicyParams{
		Weights:         DefaultWeights,
		TargetRetention: DefaultTargetRetention,
	}
}

// normalized fills invalid fields with structural defaults so a zero-value or
// hand-built PolicyParams schedules sensibly. Weights are sanitized per
// coefficient: a zero, negative or non-finite entry falls back to its
// structural default (a zero w[20] would otherwise make the decay exponent
// vanish and freeze retrievability at 1).
func (p PolicyParams) normalized() PolicyParams {
	for i, w := range p.Weights {
		if !isFinite(w) || w <= 0 {
			p.Weights[i] = DefaultWeights[i]
		}
	}
	if p.TargetRetention <= 0 || p.TargetRetention >= 1 || !isFinite(p.TargetRetention) {
		p.TargetRetention = DefaultTargetRetention
	}
	return p
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
