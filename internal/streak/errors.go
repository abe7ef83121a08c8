package streak

import "github.com/terra-clan/progress-engine/internal/apperr"

var (
	// ErrInvalidDelta is returned for negative or non-finite deltas and for
	// deltas that would push a total out of range
	ErrInvalidDelta = apperr.New("streak", apperr.ErrValidation, "activity deltas must be non-negative and keep totals in range")

	// ErrFutureDay is returned for activity dated after today
	ErrFutureDay = apperr.New("streak", apperr.ErrValidation, "activity cannot be recorded for a future day")
)
