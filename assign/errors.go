package assign

import "errors"

var (
	// ErrInvalidInput is returned for malformed users or satellites such as
	// empty or duplicate IDs, negative capacities or non-finite positions.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("invalid solver config")
	// ErrInvariant is returned by Result.Verify when an assignment breaks
	// capacity, visibility, separation or roster consistency.
	ErrInvariant = errors.New("assignment invariant violated")
)
