package engram

import (
	"errors"
	"fmt"
)

// Sentinel errors for the engram package.
// Use errors.Is to check: errors.Is(err, engram.ErrValidation)
var (
	// ErrValidation marks malformed caller input: bad weight vectors,
	// out-of-range ratings, inverted policy bounds. Never retried internally.
	ErrValidation = errors.New("engram: validation failed")

	// ErrItemNotFound is reported per entry in batch results when an item ID
	// cannot be resolved. It is an absent result, not a batch abort.
	ErrItemNotFound = errors.New("engram: item not found")

	// ErrComputationUnavailable is returned when the external weight-fitting
	// capability is missing or fails.
	ErrComputationUnavailable = errors.New("engram: weight fitting unavailable")

	// ErrNotEligible is returned when calibration preconditions are not met.
	ErrNotEligible = errors.New("engram: not eligible for calibration")

	// ErrItemMismatch is returned when a review log refers to a different item.
	ErrItemMismatch = errors.New("engram: item ID mismatch in review log")
)

// ErrInvalidRating wraps ErrValidation so both checks succeed.
var ErrInvalidRating = fmt.Errorf("%w: invalid rating", ErrValidation)
