package engram

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrievabilityAtZeroElapsed(t *testing.T) {
	m := newLongTermModel(DefaultWeights)
	assert.InDelta(t, 1.0, m.retrievability(0, 5), 1e-9)
	assert.InDelta(t, 1.0, m.retrievability(0, 0.001), 1e-9)
}

func TestRetrievabilityBoundsAndMonotonicity(t *testing.T) {
	m := newLongTermModel(DefaultWeights)

	for _, stability := range []float64{0.001, 0.5, 1, 10, 365} {
		prev := 1.0
		for elapsed := 0.5; elapsed < 10000; elapsed *= 2 {
			r := m.retrievability(elapsed, stability)
			assert.GreaterOrEqual(t, r, 0.0, "S=%f t=%f", stability, elapsed)
			assert.LessOrEqual(t, r, 1.0, "S=%f t=%f", stability, elapsed)
			assert.Less(t, r, prev, "R must strictly decrease, S=%f t=%f", stability, elapsed)
			prev = r
		}
	}
}

func TestRetrievabilityDegenerateStability(t *testing.T) {
	m := newLongTermModel(DefaultWeights)
	assert.Equal(t, 0.0, m.retrievability(1, 0))
	assert.Equal(t, 0.0, m.retrievability(1, -5))
}

// Reviewing exactly when elapsed equals stability must reproduce the 0.9
// reference retention: R(S, S) = (1 + factor)^decay = 0.9 by construction.
func TestRetrievabilityReferencePoint(t *testing.T) {
	m := newLongTermModel(DefaultWeights)
	for _, s := range []float64{0.1, 1, 7, 100} {
		assert.InDelta(t, 0.9, m.retrievability(s, s), 1e-9)
	}
}

// The unrounded interval inversion, re-fed as elapsed time, reproduces the
// target retention.
func TestIntervalRoundTrip(t *testing.T) {
	m := newLongTermModel(DefaultWeights)
	for _, target := range []float64{0.8, 0.85, 0.9, 0.95} {
		const stability = 40.0
		ivl := stability / m.factor * (math.Pow(target, 1.0/m.decay) - 1)
		assert.InDelta(t, target, m.retrievability(ivl, stability), 1e-9, "target=%f", target)
	}
}

func TestInitStabilityPerRating(t *testing.T) {
	m := newLongTermModel(DefaultWeights)
	assert.InDelta(t, DefaultWeights[0], m.initStability(Again), 1e-9)
	assert.InDelta(t, DefaultWeights[1], m.initStability(Hard), 1e-9)
	assert.InDelta(t, DefaultWeights[2], m.initStability(Good), 1e-9)
	assert.InDelta(t, DefaultWeights[3], m.initStability(Easy), 1e-9)
}

func TestInitDifficultyClamped(t *testing.T) {
	m := newLongTermModel(DefaultWeights)
	for _, r := range []Rating{Again, Hard, Good, Easy} {
		d := m.initDifficulty(r, true)
		assert.GreaterOrEqual(t, d, 1.0)
		assert.LessOrEqual(t, d, 10.0)
	}
	// Harder first ratings must yield higher difficulty.
	assert.Greater(t, m.initDifficulty(Again, true), m.initDifficulty(Easy, true))
}

func TestNextDifficultyDirection(t *testing.T) {
	m := newLongTermModel(DefaultWeights)
	const d = 5.0
	assert.Greater(t, m.nextDifficulty(d, Again), d, "Again raises difficulty")
	assert.Less(t, m.nextDifficulty(d, Easy), d, "Easy lowers difficulty")
}

func TestNextDifficultyStaysInRange(t *testing.T) {
	m := newLongTermModel(DefaultWeights)
	for _, d := range []float64{1, 5.5, 10} {
		for _, r := range []Rating{Again, Hard, Good, Easy} {
			got := m.nextDifficulty(d, r)
			assert.GreaterOrEqual(t, got, 1.0)
			assert.LessOrEqual(t, got, 10.0)
		}
	}
}

func TestRecallStabilityGrows(t *testing.T) {
	m := newLongTermModel(DefaultWeights)
	const s, d, r = 10.0, 5.0, 0.9
	for _, rating := range []Rating{Hard, Good, Easy} {
		assert.Greater(t, m.nextStability(d, s, r, rating), s, "rating=%v", rating)
	}
}

func TestForgetStabilityShrinks(t *testing.T) {
	m := newLongTermModel(DefaultWeights)
	const s, d, r = 10.0, 5.0, 0.9
	got := m.nextStability(d, s, r, Again)
	assert.Less(t, got, s)
	assert.GreaterOrEqual(t, got, minStability)
}

func TestForgetStabilityStrongerThanHardPenalty(t *testing.T) {
	m := newLongTermModel(DefaultWeights)
	const s, d, r = 20.0, 6.0, 0.8
	again := m.nextStability(d, s, r, Again)
	hard := m.nextStability(d, s, r, Hard)
	assert.Less(t, again, hard, "failure must reduce stability far more than a hard success")
}

func TestNextIntervalDaysClamps(t *testing.T) {
	m := newLongTermModel(DefaultWeights)
	require.Equal(t, 1, m.nextIntervalDays(0.001, 0.9, 36500), "near-zero stability floors at one day")
	require.Equal(t, 100, m.nextIntervalDays(1e9, 0.9, 100), "cap at maximum interval")
}

// At the 0.9 target the interval equals stability by construction.
func TestNextIntervalMatchesStabilityAtDefaultTarget(t *testing.T) {
	m := newLongTermModel(DefaultWeights)
	assert.Equal(t, 10, m.nextIntervalDays(10, 0.9, 36500))
	assert.Equal(t, 123, m.nextIntervalDays(123.4, 0.9, 36500))
}

func TestLowerTargetGivesLongerInterval(t *testing.T) {
	m := newLongTermModel(DefaultWeights)
	low := m.nextIntervalDays(50, 0.8, 36500)
	high := m.nextIntervalDays(50, 0.95, 36500)
	assert.Greater(t, low, high)
}
