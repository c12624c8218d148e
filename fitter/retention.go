package fitter

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/quillmind/engram"
)

var (
	// ErrInsufficientLogs is returned when fewer than 512 review logs are
	// provided to OptimalRetention.
	ErrInsufficientLogs = errors.New("fitter: at least 512 review logs required for optimal retention")

	// ErrMissingDuration is returned when any ReviewDuration is nil.
	ErrMissingDuration = errors.New("fitter: ReviewDuration must not be nil for optimal retention")
)

// ratingStats accumulates per-rating probability and average review cost.
type ratingStats struct {
	prob    [5]float64 // indexed by Rating
	avgCost [5]float64 // seconds, indexed by Rating
}

// costProfile summarizes observed rating behavior, split into the first
// review of each item and all subsequent reviews. For non-first reviews the
// rating probabilities are computed among recalled reviews only.
type costProfile struct {
	first    ratingStats
	repeated ratingStats
}

// buildCostProfile derives rating probabilities and average durations from
// review logs.
func buildCostProfile(logs []engram.ReviewLog) costProfile {
	type entry struct {
		rating   engram.Rating
		duration float64
		time     time.Time
	}
	groups := make(map[uuid.UUID][]entry)
	for _, l := range logs {
		d := 0.0
		if l.ReviewDuration != nil {
			d = l.ReviewDuration.Seconds()
		}
		groups[l.ItemID] = append(groups[l.ItemID], entry{rating: l.Rating, duration: d, time: l.Reviewed})
	}
	for _, g := range groups {
		sort.Slice(g, func(i, j int) bool { return g[i].time.Before(g[j].time) })
	}

	var (
		firstTotal, recallTotal float64
		firstCount, recallCount [5]float64
		firstDurSum, repDurSum  [5]float64
		firstDurN, repDurN      [5]float64
	)

	for _, g := range groups {
		for i, e := range g {
			if i == 0 {
				firstTotal++
				firstCount[e.rating]++
				firstDurSum[e.rating] += e.duration
				firstDurN[e.rating]++
				continue
			}
			repDurSum[e.rating] += e.duration
			repDurN[e.rating]++
			if e.rating != engram.Again {
				recallTotal++
				recallCount[e.rating]++
			}
		}
	}

	var p costProfile
	for _, r := range []engram.Rating{engram.Again, engram.Hard, engram.Good, engram.Easy} {
		if firstTotal > 0 {
			p.first.prob[r] = firstCount[r] / firstTotal
		}
		if firstDurN[r] > 0 {
			p.first.avgCost[r] = firstDurSum[r] / firstDurN[r]
		}
		if recallTotal > 0 {
			p.repeated.prob[r] = recallCount[r] / recallTotal
		}
		if repDurN[r] > 0 {
			p.repeated.avgCost[r] = repDurSum[r] / repDurN[r]
		}
	}
	if recallTotal == 0 {
		// Uniform recall split when no repeat data exists.
		p.repeated.prob[engram.Hard] = 1.0 / 3.0
		p.repeated.prob[engram.Good] = 1.0 / 3.0
		p.repeated.prob[engram.Easy] = 1.0 / 3.0
	}
	return p
}

// pickRecall chooses among Hard/Good/Easy by the profile's probabilities.
func (s *ratingStats) pickRecall(p float64) engram.Rating {
	switch {
	case p < s.prob[engram.Hard]:
		return engram.Hard
	case p < s.prob[engram.Hard]+s.prob[engram.Good]:
		return engram.Good
	default:
		return engram.Easy
	}
}

// pickFirst chooses a first-review rating by the profile's probabilities.
func (s *ratingStats) pickFirst(p float64) engram.Rating {
	switch {
	case p < s.prob[engram.Again]:
		return engram.Again
	case p < s.prob[engram.Again]+s.prob[engram.Hard]:
		return engram.Hard
	case p < s.prob[engram.Again]+s.prob[engram.Hard]+s.prob[engram.Good]:
		return engram.Good
	default:
		return engram.Easy
	}
}

// simulateCost runs a Monte Carlo simulation estimating the review cost per
// retained item for one candidate retention: 1000 items over one year.
func simulateCost(retention float64, weights [engram.WeightCount]float64, profile costProfile) float64 {
	const numItems = 1000

	e, err := trainingEngine()
	if err != nil {
		return math.Inf(1)
	}
	policy := engram.PolicyParams{Weights: weights, TargetRetention: retention}

	rng := rand.New(rand.NewSource(42))
	startDate := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	endDate := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	var totalCost float64

	for i := 0; i < numItems; i++ {
		item := engram.NewItem(uuid.New())
		item.NextReview = startDate
		now := startDate
		isFirst := true

		for !now.After(endDate) {
			var rating engram.Rating

			if isFirst {
				rating = profile.first.pickFirst(rng.Float64())
				totalCost += profile.first.avgCost[rating]
				isFirst = false
			} else if rng.Float64() < retention {
				rating = profile.repeated.pickRecall(rng.Float64())
				totalCost += profile.repeated.avgCost[rating]
			} else {
				rating = engram.Again
				totalCost += profile.repeated.avgCost[engram.Again]
			}

			item, _, err = e.ScheduleReview(item, rating, policy, now)
			if err != nil {
				return math.Inf(1)
			}
			now = item.NextReview
		}
	}

	return totalCost / (retention * numItems)
}

// OptimalRetention finds the retention value (from a fixed candidate grid)
// with minimal simulated review cost per retained item. It validates inputs
// and checks for context cancellation between candidates.
func (f *Fitter) OptimalRetention(ctx context.Context, weights [engram.WeightCount]float64, logs []engram.ReviewLog) (float64, error) {
	if len(logs) < 512 {
		return 0, ErrInsufficientLogs
	}
	for _, l := range logs {
		if l.ReviewDuration == nil {
			return 0, ErrMissingDuration
		}
	}

	profile := buildCostProfile(logs)
	candidates := []float64{0.70, 0.75, 0.80, 0.85, 0.90, 0.95}

	bestRetention := candidates[0]
	bestCost := math.Inf(1)

	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		cost := simulateCost(c, weights, profile)
		if cost < bestCost {
			bestCost = cost
			bestRetention = c
		}
	}

	return bestRetention, nil
}
