// Package engram implements a dual-regime spaced repetition scheduling engine.
//
// engram predicts memory decay for learnable items and chooses when each item
// should next be reviewed. Items start on a minutes-scale exponential
// "learning" curve and graduate to a days-scale power-law retention curve once
// their predicted interval clears the graduation cap. The Engine is the single
// entry point for rating events; supporting components assess forgetting risk,
// penalize items edited outside review, recommend target-retention changes
// from observed outcomes, and install externally fitted model weights.
//
// Basic usage:
//
//	e, err := engram.NewEngine(engram.EngineConfig{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	item := engram.NewItem(uuid.New())
//	item, entry, err := e.ScheduleReview(item, engram.Good, engram.DefaultPolicy(), time.Now())
package engram
