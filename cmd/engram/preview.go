package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/quillmind/engram"
)

func newPreviewCmd() *cobra.Command {
	var (
		stability  float64
		difficulty float64
		graduated  bool
	)

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show the next interval for each possible rating",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := engineFromConfig()
			if err != nil {
				return err
			}
			policy := policyFromConfig()
			now := time.Now()

			item := engram.NewItem(uuid.New())
			if graduated {
				last := now.Add(-24 * time.Hour)
				item.Phase = engram.Graduated
				item.Stability = &stability
				item.Difficulty = &difficulty
				item.LastReview = &last
				item.NextReview = now
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "RATING\tPHASE\tNEXT REVIEW IN\tSTABILITY")
			for _, r := range []engram.Rating{engram.Again, engram.Hard, engram.Good, engram.Easy} {
				next, _, err := e.ScheduleReview(item, r, policy, now)
				if err != nil {
					return err
				}
				s := "-"
				if next.Phase == engram.Learning && next.ShortStabilityMinutes != nil {
					s = fmt.Sprintf("%.1fm", *next.ShortStabilityMinutes)
				} else if next.Stability != nil {
					s = fmt.Sprintf("%.2fd", *next.Stability)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					r, next.Phase, next.NextReview.Sub(now).Round(time.Minute), s)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&graduated, "graduated", false, "preview a graduated item instead of a new one")
	cmd.Flags().Float64Var(&stability, "stability", 10, "stability in days for --graduated")
	cmd.Flags().Float64Var(&difficulty, "difficulty", 5, "difficulty for --graduated")
	return cmd
}
