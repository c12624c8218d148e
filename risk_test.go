package engram

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredictRiskFreshItemIsLow(t *testing.T) {
	e := mustEngine(t, EngineConfig{})
	got := e.PredictRisk(NewItem(uuid.New()), t0)
	assert.Equal(t, RiskLow, got.Level)
	assert.Zero(t, got.Percent)
	assert.Equal(t, ActionNone, got.Action)
}

func TestPredictRiskGrowsWithElapsed(t *testing.T) {
	e := mustEngine(t, EngineConfig{})
	it := graduatedItem(10, 5, t0)

	prev := -1.0
	for _, days := range []float64{0, 5, 10, 40, 200} {
		got := e.PredictRisk(it, t0.Add(time.Duration(days*24)*time.Hour))
		assert.GreaterOrEqual(t, got.Percent, prev, "days=%f", days)
		assert.LessOrEqual(t, got.Percent, 100.0)
		prev = got.Percent
	}
}

func TestPredictRiskFallsWithStability(t *testing.T) {
	e := mustEngine(t, EngineConfig{})
	now := t0.Add(10 * 24 * time.Hour)

	weak := e.PredictRisk(graduatedItem(1, 5, t0), now)
	strong := e.PredictRisk(graduatedItem(100, 5, t0), now)
	assert.Greater(t, weak.Percent, strong.Percent)
}

func TestPredictRiskLevelsAndActions(t *testing.T) {
	e := mustEngine(t, EngineConfig{})

	// Well inside the interval → low.
	low := e.PredictRisk(graduatedItem(10, 5, t0), t0.Add(24*time.Hour))
	assert.Equal(t, RiskLow, low.Level)

	// Exactly at the due point → medium, monitor.
	due := e.PredictRisk(graduatedItem(10, 5, t0), t0.Add(10*24*time.Hour))
	assert.Equal(t, RiskMedium, due.Level)
	assert.Equal(t, ActionMonitor, due.Action)

	// Hundreds of intervals overdue on a weak item → critical.
	crit := e.PredictRisk(graduatedItem(0.5, 5, t0), t0.Add(400*24*time.Hour))
	assert.Equal(t, RiskCritical, crit.Level)
	assert.Equal(t, ActionAvoid, crit.Action)
	assert.Negative(t, crit.HoursUntilDue, "overdue items report negative hours until due")
}

func TestPredictRiskLearningPhase(t *testing.T) {
	e := mustEngine(t, EngineConfig{})
	it := NewItem(uuid.New())
	it.Phase = Learning
	it.setShortStability(30)
	last := t0
	it.LastReview = &last
	it.NextReview = t0.Add(10 * time.Minute)

	// Ten intervals overdue with minutes-scale stability → near-saturated risk.
	got := e.PredictRisk(it, t0.Add(100*time.Minute))
	assert.Greater(t, got.Percent, 90.0)
	assert.Equal(t, RiskCritical, got.Level)
}

// --- Management penalty ---

func TestPenaltyNoOpBelowThreshold(t *testing.T) {
	it := graduatedItem(10, 5, t0)
	rng := rand.New(rand.NewSource(1))

	got := ApplyManagementPenalty(it, 2, PenaltyConfig{}, rng)
	assert.Equal(t, it.NextReview, got.NextReview)
	assert.Equal(t, 2, got.ManagementCount)
}

func TestPenaltyWithinConfiguredBounds(t *testing.T) {
	it := graduatedItem(10, 5, t0)
	cfg := PenaltyConfig{FuzzMinHours: 4, FuzzMaxHours: 24}

	for seed := int64(0); seed < 50; seed++ {
		rng := rand.New(rand.NewSource(seed))
		got := ApplyManagementPenalty(it, 3, cfg, rng)
		delta := got.NextReview.Sub(it.NextReview).Hours()
		assert.GreaterOrEqual(t, delta, 4.0, "seed=%d", seed)
		assert.LessOrEqual(t, delta, 24.0, "seed=%d", seed)
	}
}

func TestPenaltyDeterministicWithSameSeed(t *testing.T) {
	it := graduatedItem(10, 5, t0)
	a := ApplyManagementPenalty(it, 5, PenaltyConfig{}, rand.New(rand.NewSource(7)))
	b := ApplyManagementPenalty(it, 5, PenaltyConfig{}, rand.New(rand.NewSource(7)))
	assert.Equal(t, a.NextReview, b.NextReview)
}

func TestPenaltyAdaptiveScaling(t *testing.T) {
	it := graduatedItem(10, 5, t0)
	cfg := PenaltyConfig{AdaptiveFuzzing: true}

	// 4 edits over the threshold → 2x scale → bounds double to [8, 48].
	for seed := int64(0); seed < 50; seed++ {
		rng := rand.New(rand.NewSource(seed))
		got := ApplyManagementPenalty(it, 7, cfg, rng)
		delta := got.NextReview.Sub(it.NextReview).Hours()
		assert.GreaterOrEqual(t, delta, 8.0, "seed=%d", seed)
		assert.LessOrEqual(t, delta, 48.0, "seed=%d", seed)
	}
}

func TestPenaltyAdaptiveScaleCapped(t *testing.T) {
	it := graduatedItem(10, 5, t0)
	cfg := PenaltyConfig{AdaptiveFuzzing: true}

	// Far past the threshold the scale caps at 3x → at most 72h.
	for seed := int64(0); seed < 50; seed++ {
		rng := rand.New(rand.NewSource(seed))
		got := ApplyManagementPenalty(it, 100, cfg, rng)
		delta := got.NextReview.Sub(it.NextReview).Hours()
		assert.GreaterOrEqual(t, delta, 12.0, "seed=%d", seed)
		assert.LessOrEqual(t, delta, 72.0, "seed=%d", seed)
	}
}

func TestPenaltyNeverMovesEarlier(t *testing.T) {
	it := graduatedItem(10, 5, t0)
	for count := 0; count < 20; count++ {
		got := ApplyManagementPenalty(it, count, PenaltyConfig{}, rand.New(rand.NewSource(int64(count))))
		assert.False(t, got.NextReview.Before(it.NextReview), "count=%d", count)
	}
}

func TestPenaltyDoesNotMutateInput(t *testing.T) {
	it := graduatedItem(10, 5, t0)
	before := it.NextReview
	_ = ApplyManagementPenalty(it, 10, PenaltyConfig{}, rand.New(rand.NewSource(1)))
	assert.Equal(t, before, it.NextReview)
}

// --- Aggregation ---

func TestSummarizeRiskBuckets(t *testing.T) {
	e := mustEngine(t, EngineConfig{})
	now := t0.Add(10 * 24 * time.Hour)

	deck := []Item{
		NewItem(uuid.New()),               // never reviewed → low
		graduatedItem(100, 5, t0),         // barely decayed → low
		graduatedItem(0.5, 5, t0),         // long overdue → critical
		graduatedItem(0.5, 5, t0),         // long overdue → critical
		graduatedItem(10, 5, t0),          // at due point → medium
		graduatedItem(3, 5, t0),           // well past due → elevated
	}

	sum := e.SummarizeRisk(deck, now)
	total := sum.Low + sum.Medium + sum.High + sum.Critical
	require.Equal(t, len(deck), total)
	assert.GreaterOrEqual(t, sum.Critical, 2)
	assert.GreaterOrEqual(t, sum.Low, 2)
	assert.GreaterOrEqual(t, sum.DueNow, 3, "items whose NextReview has passed count as due")
}
