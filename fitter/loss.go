package fitter

import (
	"math"

	"github.com/google/uuid"
	"github.com/quillmind/engram"
)

const bceClamp = 1e-7

// bceLoss computes the binary cross-entropy loss: -[y*ln(p) + (1-y)*ln(1-p)].
// rPred is clamped to [bceClamp, 1-bceClamp] to avoid log(0).
func bceLoss(rPred, y float64) float64 {
	p := math.Max(bceClamp, math.Min(rPred, 1-bceClamp))
	return -(y*math.Log(p) + (1-y)*math.Log(1-p))
}

// trainingEngine builds the engine used for replay during training: the
// learning-phase model is disabled so every review exercises the weight
// vector under test.
func trainingEngine() (*engram.Engine, error) {
	return engram.NewEngine(engram.EngineConfig{
		ShortTerm:     engram.ShortTermConfig{Disabled: true},
		RelapsePolicy: engram.RelapseNever,
	})
}

// computeBatchLoss computes the average BCE loss over all cross-day reviews.
// It replays each item's review history under the candidate weights.
// Returns 0 if there are no cross-day reviews.
func computeBatchLoss(weights [engram.WeightCount]float64, data map[uuid.UUID][]review) float64 {
	e, err := trainingEngine()
	if err != nil {
		return 0
	}
	policy := engram.PolicyParams{Weights: weights, TargetRetention: engram.DefaultTargetRetention}

	var totalLoss float64
	var count int

	for itemID, reviews := range data {
		item := engram.NewItem(itemID)
		item.NextReview = reviews[0].reviewTime

		for _, rev := range reviews {
			// Retrievability BEFORE this review.
			rPred := e.Retrievability(item, policy, rev.reviewTime)

			// Only cross-day reviews contribute to loss.
			if item.LastReview != nil && rev.elapsedDays >= 1.0 {
				totalLoss += bceLoss(rPred, rev.label)
				count++
			}

			item, _, err = e.ScheduleReview(item, rev.rating, policy, rev.reviewTime)
			if err != nil {
				return 0
			}
		}
	}

	if count == 0 {
		return 0
	}
	return totalLoss / float64(count)
}

const gradEps = 1e-5

// numericalGradient computes the gradient of the batch loss w.r.t. each
// weight using central differences: dL/dw[i] ≈ (L(w[i]+ε) - L(w[i]-ε)) / (2ε).
func numericalGradient(weights [engram.WeightCount]float64, data map[uuid.UUID][]review) [engram.WeightCount]float64 {
	var grad [engram.WeightCount]float64
	for i := 0; i < engram.WeightCount; i++ {
		wPlus := weights
		wPlus[i] += gradEps
		wMinus := weights
		wMinus[i] -= gradEps

		lPlus := computeBatchLoss(wPlus, data)
		lMinus := computeBatchLoss(wMinus, data)

		grad[i] = (lPlus - lMinus) / (2 * gradEps)
	}
	return grad
}
