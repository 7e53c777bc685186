package auth

import "net/http"

// Middleware wraps a handler with a processing stage.
type Middleware func(next http.Handler) http.Handler

// Chain composes middleware around h in the order given: the first listed
// middleware sees the request first.
//
// Usage:
//
//	handler := auth.Chain(mux, interceptor.Wrap, gate.Wrap)
func Chain(h http.Handler, middleware ...Middleware) http.Handler {
	for i := len(middleware) - 1; i >= 0; i-- {
		h = middleware[i](h)
	}
	return h
}
