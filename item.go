package engram

import (
	"time"

	"github.com/google/uuid"
)

// Item holds the scheduling state of one learnable unit.
// It is mutated only through Engine.ScheduleReview; all entry points clone
// the input and return a new value.
type Item struct {
	ID                    uuid.UUID  `json:"id"`
	Phase                 Phase      `json:"phase"`
	Stability             *float64   `json:"stability"`               // days; nil until first long-term review.
	Difficulty            *float64   `json:"difficulty"`              // nil until graduation.
	ShortStabilityMinutes *float64   `json:"short_stability_minutes"` // nil outside the Learning phase.
	LearningReviewCount   int        `json:"learning_review_count"`   // ratings received while Learning; reset on graduation.
	LastReview            *time.Time `json:"last_review"`             // nil before first review.
	NextReview            time.Time  `json:"next_review"`
	ManagementCount       int        `json:"management_count"` // edits applied outside active review.
}

// NewItem creates an item in the New phase with the given ID.
// NextReview is set to now (immediately reviewable).
func NewItem(id uuid.UUID) Item {
	return Item{
		ID:         id,
		Phase:      New,
		NextReview: time.Now(),
	}
}

// clone returns a deep copy of the item. Pointer fields are copied by value.
func (it Item) clone() Item {
	out := it
	if it.Stability != nil {
		v := *it.Stability
		out.Stability = &v
	}
	if it.Difficulty != nil {
		v := *it.Difficulty
		out.Difficulty = &v
	}
	if it.ShortStabilityMinutes != nil {
		v := *it.ShortStabilityMinutes
		out.ShortStabilityMinutes = &v
	}
	if it.LastReview != nil {
		v := *it.LastReview
		out.LastReview = &v
	}
	return out
}

func (it *Item) setStability(s float64) {
	it.Stability = &s
}

func (it *Item) setDifficulty(d float64) {
	it.Difficulty = &d
}

func (it *Item) setShortStability(s float64) {
	it.ShortStabilityMinutes = &s
}

func (it *Item) clearShortStability() {
	it.ShortStabilityMinutes = nil
}

// elapsedSince returns the time since the last review in days and minutes.
// Both are zero for a never-reviewed item.
func (it *Item) elapsedSince(now time.Time) (days, minutes float64) {
	if it.LastReview == nil {
		return 0, 0
	}
	d := now.Sub(*it.LastReview)
	if d < 0 {
		d = 0
	}
	return d.Hours() / 24.0, d.Minutes()
}
