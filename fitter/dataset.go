package fitter

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/quillmind/engram"
)

// review is an internal representation of a single review event for training.
type review struct {
	rating      engram.Rating
	elapsedDays float64   // days since previous review (0 for first)
	label       float64   // 0 if Again, 1 otherwise
	reviewTime  time.Time // original review timestamp (for replay)
}

// formatRevlogs groups review logs by item ID and sorts each group by time.
// Each review computes elapsed days from the previous review and a binary
// recall label.
func formatRevlogs(logs []engram.ReviewLog) map[uuid.UUID][]review {
	if len(logs) == 0 {
		return nil
	}

	groups := make(map[uuid.UUID][]engram.ReviewLog)
	for _, entry := range logs {
		groups[entry.ItemID] = append(groups[entry.ItemID], entry)
	}

	result := make(map[uuid.UUID][]review, len(groups))
	for itemID, itemLogs := range groups {
		sort.Slice(itemLogs, func(i, j int) bool {
			return itemLogs[i].Reviewed.Before(itemLogs[j].Reviewed)
		})

		reviews := make([]review, len(itemLogs))
		for i, entry := range itemLogs {
			var elapsed float64
			if i > 0 {
				elapsed = entry.Reviewed.Sub(itemLogs[i-1].Reviewed).Hours() / 24.0
			}

			label := 1.0
			if entry.Rating == engram.Again {
				label = 0.0
			}

			reviews[i] = review{
				rating:      entry.Rating,
				elapsedDays: elapsed,
				label:       label,
				reviewTime:  entry.Reviewed,
			}
		}
		result[itemID] = reviews
	}

	return result
}

// countCrossDayReviews counts reviews where elapsed days >= 1. The first
// review of each item is never cross-day.
func countCrossDayReviews(data map[uuid.UUID][]review) int {
	count := 0
	for _, reviews := range data {
		for _, r := range reviews {
			if r.elapsedDays >= 1.0 {
				count++
			}
		}
	}
	return count
}
