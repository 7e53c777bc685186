package resilience

import "errors"

// Sentinel errors for resilience operations.
var (
	// ErrRateLimitExceeded is returned when a client has no tokens left.
	ErrRateLimitExceeded = errors.New("resilience: rate limit exceeded")

	// ErrCircuitOpen is returned while the circuit breaker rejects calls.
	ErrCircuitOpen = errors.New("resilience: circuit breaker is open")
)
