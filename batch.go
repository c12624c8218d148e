package engram

import (
	"time"

	"github.com/google/uuid"
)

// BatchRequest is one (item, rating) pair in a batch submission.
type BatchRequest struct {
	ItemID uuid.UUID `json:"item_id"`
	Rating Rating    `json:"rating"`
}

// BatchResult is the outcome for one batch position. Exactly one of
// Item/Log or Err is populated; a missing item sets Err to ErrItemNotFound.
type BatchResult struct {
	ItemID uuid.UUID  `json:"item_id"`
	Item   *Item      `json:"item,omitempty"`
	Log    *ReviewLog `json:"log,omitempty"`
	Err    error      `json:"-"`
}

// ItemLookup resolves an item ID to its current scheduling state.
// The second result reports whether the item exists.
type ItemLookup func(uuid.UUID) (Item, bool)

// ScheduleBatch processes the requests strictly in input order, each
// producing an independent state transition and log entry. Results preserve
// request order so callers can correlate position to outcome. One item's
// failure never aborts the rest of the batch.
func (e *Engine) ScheduleBatch(requests []BatchRequest, lookup ItemLookup, policy PolicyParams, now time.Time) []BatchResult {
	results := make([]BatchResult, len(requests))
	for i, req := range requests {
		results[i].ItemID = req.ItemID

		item, ok := lookup(req.ItemID)
		if !ok {
			results[i].Err = ErrItemNotFound
			continue
		}

		updated, entry, err := e.ScheduleReview(item, req.Rating, policy, now)
		if err != nil {
			results[i].Err = err
			continue
		}
		results[i].Item = &updated
		results[i].Log = &entry
	}
	return results
}
