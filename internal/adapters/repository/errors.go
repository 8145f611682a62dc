package repository

import "errors"

// Sentinel kinds for store errors.
var (
	// ErrNotFound means the referenced row does not exist. Recruiter
	// aggregates auto-create instead; proposal lookups genuinely miss.
	ErrNotFound = errors.New("not found")

	// ErrConflict means a conditional write lost a race. Callers absorb it
	// as a no-op; it never surfaces to users.
	ErrConflict = errors.New("conditional write lost the race")

	// ErrUnknownCounter means an increment referenced a counter that is not
	// an aggregate column.
	ErrUnknownCounter = errors.New("unknown aggregate counter")
)
