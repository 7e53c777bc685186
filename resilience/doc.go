// Package resilience guards credential endpoints against brute force with
// token-bucket rate limiting, one bucket per client, and protects the member
// database with a circuit breaker.
package resilience
