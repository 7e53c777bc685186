// Package auth provides stateless bearer-token authentication for HTTP services.
//
// A TokenCodec signs an Identity into a compact JWT and verifies it back. The
// Interceptor extracts the token from the Authorization header of each request
// and attaches the verified Identity to the request context. The Gate consults
// a static route Policy and hands denied requests to the unauthorized (401) or
// forbidden (403) failure handler.
//
// Middleware is composed explicitly:
//
//	handler := auth.Chain(mux,
//	    interceptor.Wrap,
//	    gate.Wrap,
//	)
package auth
