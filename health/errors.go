package health

import "errors"

var (
	// ErrCheckFailed wraps the error of a failed ping check.
	ErrCheckFailed = errors.New("health: check failed")

	// ErrCheckTimeout indicates a health check did not finish before its deadline.
	ErrCheckTimeout = errors.New("health: check timeout")
)
