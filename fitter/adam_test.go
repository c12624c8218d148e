package fitter

import (
	"testing"

	"github.com/quillmind/engram"
	"github.com/stretchr/testify/assert"
)

// Adam must converge on a simple convex objective: L(w) = Σ (w[i] - target)².
func TestAdamConvergesOnQuadratic(t *testing.T) {
	const target = 0.7

	adam := NewAdam(0.05)
	var weights [engram.WeightCount]float64
	for i := range weights {
		weights[i] = 2.0
	}

	for step := 0; step < 2000; step++ {
		var grad [engram.WeightCount]float64
		for i := range grad {
			grad[i] = 2 * (weights[i] - target)
		}
		weights = adam.Update(weights, grad)
	}

	for i := range weights {
		assert.InDelta(t, target, weights[i], 0.01, "w[%d]", i)
	}
}

func TestAdamSkipsZeroGradients(t *testing.T) {
	adam := NewAdam(0.1)
	var weights [engram.WeightCount]float64
	weights[0] = 1.0
	weights[1] = 1.0

	var grad [engram.WeightCount]float64
	grad[0] = 1.0 // only w[0] has signal

	got := adam.Update(weights, grad)
	assert.Less(t, got[0], 1.0)
	assert.Equal(t, 1.0, got[1], "zero gradient leaves the weight untouched")
}

func TestCosineAnnealingSchedule(t *testing.T) {
	const lrMax = 0.04
	ca := NewCosineAnnealing(lrMax, 100)

	assert.InDelta(t, lrMax, ca.LR(), 1e-12, "starts at the maximum")

	for i := 0; i < 50; i++ {
		ca.Step()
	}
	assert.InDelta(t, lrMax/2, ca.LR(), 1e-12, "halfway through the schedule")

	for i := 0; i < 50; i++ {
		ca.Step()
	}
	assert.InDelta(t, 0.0, ca.LR(), 1e-12, "anneals to zero")
}

func TestCosineAnnealingMonotoneDecrease(t *testing.T) {
	ca := NewCosineAnnealing(0.04, 20)
	prev := ca.LR()
	for i := 0; i < 20; i++ {
		lr := ca.Step()
		assert.LessOrEqual(t, lr, prev)
		prev = lr
	}
}
