// Package api serves the HTTP surface of the authentication service: the
// login endpoint that issues bearer tokens, the demonstration resources it
// protects, and the health probes. Every request passes through the auth
// Interceptor and Gate before routing.
package api
