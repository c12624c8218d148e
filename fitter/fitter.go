package fitter

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sort"

	"github.com/google/uuid"
	"github.com/quillmind/engram"
)

var (
	// ErrEmptyLogs is returned when no review logs are provided.
	ErrEmptyLogs = errors.New("fitter: no review logs provided")

	// ErrInsufficientData is returned when cross-day reviews are fewer than
	// MiniBatchSize.
	ErrInsufficientData = errors.New("fitter: insufficient cross-day reviews for fitting")
)

// Training-time clamp ranges for each coefficient. These are tighter than
// the gateway's install-time validation: gradient steps must stay inside the
// region where the curve formulas are well behaved, and every lower bound is
// strictly positive so a clamped-at-bound vector always passes InstallWeights.
var (
	lowerBounds = [engram.WeightCount]float64{
		0.001, 0.001, 0.001, 0.001,
		1.0, 0.001, 0.001, 0.001,
		0.001, 0.001, 0.001, 0.001,
		0.001, 0.001, 0.001, 0.001,
		1.0, 0.001, 0.001, 0.001,
		0.1,
	}
	upperBounds = [engram.WeightCount]float64{
		100.0, 100.0, 100.0, 100.0,
		10.0, 4.0, 4.0, 0.75,
		4.5, 0.8, 3.5, 5.0,
		0.25, 0.9, 4.0, 1.0,
		6.0, 2.0, 2.0, 0.8,
		0.8,
	}
)

// Config configures the training process.
// Zero values are replaced with sensible defaults.
type Config struct {
	Epochs        int     `json:"epochs"`          // default 5
	MiniBatchSize int     `json:"mini_batch_size"` // default 512
	LearningRate  float64 `json:"learning_rate"`   // default 0.04
	MaxSeqLen     int     `json:"max_seq_len"`     // default 64
}

// Fitter trains long-term model weights from review logs using mini-batch
// gradient descent with Adam and a cosine annealing learning rate. It
// implements engram.WeightFitter.
type Fitter struct {
	epochs        int
	miniBatchSize int
	learningRate  float64
	maxSeqLen     int
}

var _ engram.WeightFitter = (*Fitter)(nil)

// New creates a Fitter with the given config. Zero-valued fields receive
// defaults: Epochs=5, MiniBatchSize=512, LearningRate=0.04, MaxSeqLen=64.
func New(cfg Config) *Fitter {
	f := &Fitter{
		epochs:        cfg.Epochs,
		miniBatchSize: cfg.MiniBatchSize,
		learningRate:  cfg.LearningRate,
		maxSeqLen:     cfg.MaxSeqLen,
	}
	if f.epochs == 0 {
		f.epochs = 5
	}
	if f.miniBatchSize == 0 {
		f.miniBatchSize = 512
	}
	if f.learningRate == 0 {
		f.learningRate = 0.04
	}
	if f.maxSeqLen == 0 {
		f.maxSeqLen = 64
	}
	return f
}

// Fit trains the weight vector from review logs. It starts from the
// structural defaults and uses mini-batch gradient descent (numerical central
// differences) with Adam and cosine annealing.
//
// Returns ErrEmptyLogs if logs is empty, or ErrInsufficientData (along with
// the default weights) if cross-day reviews are fewer than MiniBatchSize.
// The context cancels long-running training.
func (f *Fitter) Fit(ctx context.Context, logs []engram.ReviewLog) ([]float64, error) {
	if len(logs) == 0 {
		return nil, ErrEmptyLogs
	}

	data := formatRevlogs(logs)

	// Truncate each item's reviews to maxSeqLen.
	for itemID, reviews := range data {
		if len(reviews) > f.maxSeqLen {
			data[itemID] = reviews[:f.maxSeqLen]
		}
	}

	numReviews := countCrossDayReviews(data)
	if numReviews < f.miniBatchSize {
		return engram.DefaultWeights[:], ErrInsufficientData
	}

	weights := engram.DefaultWeights
	tMax := int(math.Ceil(float64(numReviews)/float64(f.miniBatchSize))) * f.epochs
	adam := NewAdam(f.learningRate)
	ca := NewCosineAnnealing(f.learningRate, tMax)
	rng := rand.New(rand.NewSource(42))

	// Sorted item IDs for deterministic shuffle.
	itemIDs := make([]uuid.UUID, 0, len(data))
	for id := range data {
		itemIDs = append(itemIDs, id)
	}
	sort.Slice(itemIDs, func(i, j int) bool {
		return itemIDs[i].String() < itemIDs[j].String()
	})

	bestWeights := weights
	bestLoss := math.Inf(1)

	for epoch := 0; epoch < f.epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return bestWeights[:], err
		}

		rng.Shuffle(len(itemIDs), func(i, j int) {
			itemIDs[i], itemIDs[j] = itemIDs[j], itemIDs[i]
		})

		batchData := make(map[uuid.UUID][]review)
		crossDayCount := 0

		for _, itemID := range itemIDs {
			reviews := data[itemID]
			batchData[itemID] = reviews

			for _, r := range reviews {
				if r.elapsedDays >= 1.0 {
					crossDayCount++
				}
			}

			if crossDayCount >= f.miniBatchSize {
				grad := numericalGradient(weights, batchData)
				adam.SetLR(ca.LR())
				weights = clampWeights(adam.Update(weights, grad))
				ca.Step()

				batchData = make(map[uuid.UUID][]review)
				crossDayCount = 0
			}
		}

		// Handle remaining reviews at end of epoch.
		if crossDayCount > 0 {
			grad := numericalGradient(weights, batchData)
			adam.SetLR(ca.LR())
			weights = clampWeights(adam.Update(weights, grad))
			ca.Step()
		}

		// Track best weights by epoch loss.
		epochLoss := computeBatchLoss(weights, data)
		if epochLoss < bestLoss {
			bestLoss = epochLoss
			bestWeights = weights
		}
	}

	return bestWeights[:], nil
}

// BatchLoss computes the average BCE loss of the weights over all cross-day
// reviews. Convenience wrapper that preprocesses the review logs.
func (f *Fitter) BatchLoss(weights [engram.WeightCount]float64, logs []engram.ReviewLog) float64 {
	data := formatRevlogs(logs)
	return computeBatchLoss(weights, data)
}

// clampWeights constrains each coefficient to its training range.
func clampWeights(weights [engram.WeightCount]float64) [engram.WeightCount]float64 {
	for i := 0; i < engram.WeightCount; i++ {
		if weights[i] < lowerBounds[i] {
			weights[i] = lowerBounds[i]
		}
		if weights[i] > upperBounds[i] {
			weights[i] = upperBounds[i]
		}
	}
	return weights
}
