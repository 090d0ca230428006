package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrInvalidConfig    = errors.New("invalid configuration")

	// ErrDepthExceeded reports that a proof search was cut off by the depth limit,
	// so a negative answer may be incomplete.
	ErrDepthExceeded = errors.New("proof depth limit exceeded")
)
