package engram

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// Confidence classifies how much evidence backs a statistical summary.
type Confidence int

const (
	ConfidenceLow Confidence = iota + 1
	ConfidenceMedium
	ConfidenceHigh
)

var confidenceNames = [...]string{
	ConfidenceLow:    "low",
	ConfidenceMedium: "medium",
	ConfidenceHigh:   "high",
}

// String returns the confidence name ("low", "medium", "high").
func (c Confidence) String() string {
	if c >= ConfidenceLow && c <= ConfidenceHigh {
		return confidenceNames[c]
	}
	return fmt.Sprintf("Confidence(%d)", int(c))
}

// Sample-size cutoffs for confidence bucketing.
const (
	confidenceMediumSamples = 50
	confidenceHighSamples   = 200
)

// confidenceForSamples mirrors the reliability classification used for every
// statistical summary in the system.
func confidenceForSamples(n int) Confidence {
	switch {
	case n < confidenceMediumSamples:
		return ConfidenceLow
	case n < confidenceHighSamples:
		return ConfidenceMedium
	default:
		return ConfidenceHigh
	}
}

// Recommendation reasons.
const (
	ReasonInsufficientEvidence   = "insufficient_evidence"
	ReasonObservedBelowPredicted = "observed_below_predicted"
	ReasonObservedAbovePredicted = "observed_above_predicted"
	ReasonHighBrierScore         = "high_brier_score"
)

// Tuning constants for the controller.
const (
	recallGapTolerance = 0.02
	brierThreshold     = 0.20
	minSessions        = 3
)

// StatsSummary carries the learner-level evidence the controller consumes.
// It is supplied pre-aggregated by an external metrics collaborator.
type StatsSummary struct {
	ReviewCount     int     `json:"review_count"`
	SessionCount    int     `json:"session_count"`
	TargetRetention float64 `json:"target_retention"` // currently configured target
}

// WindowStats summarizes a rolling window of review outcomes.
type WindowStats struct {
	SampleCount        int     `json:"sample_count"`
	ObservedRecallRate float64 `json:"observed_recall_rate"`
	AvgPredictedRecall float64 `json:"avg_predicted_recall"`
	BrierScore         float64 `json:"brier_score"`
}

// RetentionRecommendation is the controller's advisory output. Applying it is
// a separate, explicit action by the host; this component never mutates
// policy itself.
type RetentionRecommendation struct {
	RecommendedTarget float64    `json:"recommended_target"`
	Confidence        Confidence `json:"confidence"`
	Reasons           []string   `json:"reasons"`
}

// RecommendRetentionTarget compares observed recall against model-predicted
// recall over the window and recommends a new target retention. Each reason
// contributes at most one quantization step; the final target is clamped to
// the configured bounds. Missing or thin window data recommends no change
// with reason insufficient_evidence rather than failing.
func RecommendRetentionTarget(summary StatsSummary, window WindowStats, bounds RetentionBounds) RetentionRecommendation {
	current := summary.TargetRetention
	if current <= 0 || current >= 1 || !isFinite(current) {
		current = DefaultTargetRetention
	}

	confidence := confidenceForSamples(summary.ReviewCount)

	if window.SampleCount <= 0 ||
		(confidence == ConfidenceLow && (summary.ReviewCount < confidenceMediumSamples || summary.SessionCount < minSessions)) {
		return RetentionRecommendation{
			RecommendedTarget: current,
			Confidence:        confidence,
			Reasons:           []string{ReasonInsufficientEvidence},
		}
	}

	steps := 0
	var reasons []string

	gap := window.AvgPredictedRecall - window.ObservedRecallRate
	switch {
	case gap > recallGapTolerance:
		steps++
		reasons = append(reasons, ReasonObservedBelowPredicted)
	case gap < -recallGapTolerance:
		steps--
		reasons = append(reasons, ReasonObservedAbovePredicted)
	}

	if window.BrierScore > brierThreshold {
		steps++
		reasons = append(reasons, ReasonHighBrierScore)
	}

	if len(reasons) == 0 {
		return RetentionRecommendation{RecommendedTarget: bounds.Clamp(current), Confidence: confidence}
	}

	step := bounds.Step
	if step <= 0 {
		step = DefaultRetentionBounds().Step
	}
	return RetentionRecommendation{
		RecommendedTarget: bounds.Clamp(current + float64(steps)*step),
		Confidence:        confidence,
		Reasons:           reasons,
	}
}

// RecallSample is one (predicted probability, realized outcome) pair from a
// review inside the rolling window.
type RecallSample struct {
	Predicted float64 `json:"predicted"`
	Recalled  bool    `json:"recalled"`
}

// BuildWindowStats aggregates raw recall samples into WindowStats. An empty
// window yields a zero SampleCount, which the controller treats as
// insufficient evidence rather than an error.
func BuildWindowStats(samples []RecallSample) WindowStats {
	if len(samples) == 0 {
		return WindowStats{}
	}

	outcomes := make([]float64, len(samples))
	predicted := make([]float64, len(samples))
	sqErr := make([]float64, len(samples))
	for i, s := range samples {
		y := 0.0
		if s.Recalled {
			y = 1.0
		}
		outcomes[i] = y
		predicted[i] = s.Predicted
		sqErr[i] = (s.Predicted - y) * (s.Predicted - y)
	}

	return WindowStats{
		SampleCount:        len(samples),
		ObservedRecallRate: stat.Mean(outcomes, nil),
		AvgPredictedRecall: stat.Mean(predicted, nil),
		BrierScore:         stat.Mean(sqErr, nil),
	}
}
