package engram

import (
	"time"

	"github.com/google/uuid"
)

// ReviewLog records a single rating event for an item. One entry is appended
// per transition regardless of which retention model handled it; aggregation
// is the host's concern.
type ReviewLog struct {
	ID       uuid.UUID `json:"id"`
	ItemID   uuid.UUID `json:"item_id"`
	Rating   Rating    `json:"rating"`
	Reviewed time.Time `json:"reviewed_at"`

	ElapsedDays   float64 `json:"elapsed_days"`   // since the previous review; 0 for the first.
	ScheduledDays float64 `json:"scheduled_days"` // interval chosen by this review.

	StabilityBefore  *float64 `json:"stability_before"`
	StabilityAfter   *float64 `json:"stability_after"`
	DifficultyBefore *float64 `json:"difficulty_before"`
	DifficultyAfter  *float64 `json:"difficulty_after"`

	// PredictedRetrievability is the model's recall probability for the item
	// immediately before this rating. 0 for a never-reviewed item.
	PredictedRetrievability float64 `json:"predicted_retrievability"`

	ReviewDuration *time.Duration `json:"review_duration,omitempty"`
}
