package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quillmind/engram"
)

func newSimulateCmd() *cobra.Command {
	var (
		items int
		days  int
		seed  int64
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Simulate a study period and report workload and outcomes",
		Long: `Simulate introduces a deck of fresh items and replays a study period,
rating each due item by sampling recall from the model's own predicted
retrievability. It reports total reviews, lapses, and the final phase mix.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := engineFromConfig()
			if err != nil {
				return err
			}
			policy := policyFromConfig()
			rng := rand.New(rand.NewSource(seed))

			start := time.Now()
			end := start.Add(time.Duration(days) * 24 * time.Hour)

			var reviews, lapses, graduated int

			for i := 0; i < items; i++ {
				item := engram.NewItem(uuid.New())
				item.NextReview = start
				now := start

				for !now.After(end) {
					rating := sampleRating(e, item, policy, now, rng)
					if rating == engram.Again {
						lapses++
					}
					item, _, err = e.ScheduleReview(item, rating, policy, now)
					if err != nil {
						return err
					}
					reviews++
					now = item.NextReview
				}
				if item.Phase == engram.Graduated {
					graduated++
				}
			}

			logger.Debug("simulation finished", zap.Int("reviews", reviews))

			fmt.Fprintf(cmd.OutOrStdout(),
				"items: %d\ndays: %d\nreviews: %d (%.1f per item)\nlapses: %d (%.1f%%)\ngraduated: %d (%.1f%%)\n",
				items, days,
				reviews, float64(reviews)/float64(items),
				lapses, 100*float64(lapses)/float64(max(reviews, 1)),
				graduated, 100*float64(graduated)/float64(items))
			return nil
		},
	}

	cmd.Flags().IntVar(&items, "items", 100, "number of items to introduce")
	cmd.Flags().IntVar(&days, "days", 365, "length of the simulated study period")
	cmd.Flags().Int64Var(&seed, "seed", 42, "random seed")
	return cmd
}

// sampleRating draws an outcome from the model's predicted retrievability:
// a failed draw rates Again, a success rates Hard/Good/Easy 20/60/20.
func sampleRating(e *engram.Engine, item engram.Item, policy engram.PolicyParams, now time.Time, rng *rand.Rand) engram.Rating {
	r := e.Retrievability(item, policy, now)
	if item.LastReview == nil {
		// First exposure has no prediction; assume typical first-pass recall.
		r = 0.7
	}
	if rng.Float64() >= r {
		return engram.Again
	}
	switch p := rng.Float64(); {
	case p < 0.2:
		return engram.Hard
	case p < 0.8:
		return engram.Good
	default:
		return engram.Easy
	}
}
