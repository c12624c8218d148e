package main

import (
	"fmt"
	"math/rand"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/quillmind/engram"
)

func newRiskCmd() *cobra.Command {
	var (
		items int
		seed  int64
	)

	cmd := &cobra.Command{
		Use:   "risk",
		Short: "Assess forgetting risk across a synthetic deck",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := engineFromConfig()
			if err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(seed))
			now := time.Now()

			deck := make([]engram.Item, 0, items)
			for i := 0; i < items; i++ {
				stability := 0.5 + rng.Float64()*29.5
				elapsed := rng.Float64() * stability * 2
				last := now.Add(-time.Duration(elapsed * 24 * float64(time.Hour)))

				item := engram.NewItem(uuid.New())
				item.Phase = engram.Graduated
				item.Stability = &stability
				item.LastReview = &last
				item.NextReview = last.Add(time.Duration(stability * 24 * float64(time.Hour)))
				deck = append(deck, item)
			}

			summary := e.SummarizeRisk(deck, now)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "BUCKET\tITEMS")
			fmt.Fprintf(w, "low\t%d\n", summary.Low)
			fmt.Fprintf(w, "medium\t%d\n", summary.Medium)
			fmt.Fprintf(w, "high\t%d\n", summary.High)
			fmt.Fprintf(w, "critical\t%d\n", summary.Critical)
			fmt.Fprintf(w, "due now\t%d\n", summary.DueNow)
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&items, "items", 200, "deck size")
	cmd.Flags().Int64Var(&seed, "seed", 42, "random seed")
	return cmd
}
