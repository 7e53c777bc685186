package auth

import (
	"context"
	"net/http"
)

type contextKey int

const identityKey contextKey = iota

// WithIdentity returns a new context with the given identity attached.
// The Interceptor is the only writer in a request's lifetime.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext retrieves the identity from the context.
// Returns nil if the request is unauthenticated.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey).(*Identity)
	return id
}

// CurrentIdentity returns the identity resolved for r, if any.
func CurrentIdentity(r *http.Request) (*Identity, bool) {
	id := IdentityFromContext(r.Context())
	return id, id != nil
}

// PrincipalFromContext retrieves the principal from the context.
// Returns empty string if no identity is present.
func PrincipalFromContext(ctx context.Context) string {
	id := IdentityFromContext(ctx)
	if id == nil {
		return ""
	}
	return id.Principal
}
