package scoring

import "errors"

// Sentinel kinds for submission validation.
var (
	ErrUnknownCriterion = errors.New("unknown criterion")
	ErrOutOfRange       = errors.New("score out of range")
	ErrNotNumeric       = errors.New("score is not numeric")
	ErrInvalidOption    = errors.New("option not allowed")
	ErrMissingCriterion = errors.New("criterion not scored")
)
