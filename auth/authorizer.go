package auth

import (
	"context"
	"fmt"
)

// Authorizer determines if a request may proceed.
type Authorizer interface {
	// Authorize returns nil if the request is permitted, ErrUnauthenticated
	// if it needs an identity it does not have, or an error matching
	// ErrForbidden if the identity lacks a required authority.
	Authorize(ctx context.Context, req *AuthzRequest) error

	// Name returns a unique identifier for this authorizer.
	Name() string
}

// AuthzRequest contains the information needed for authorization.
type AuthzRequest struct {
	// Subject is the identity making the request, nil if unauthenticated.
	Subject *Identity

	// Resource is the request path.
	Resource string

	// Action is the HTTP method.
	Action string
}

// AuthzError represents an authorization failure.
type AuthzError struct {
	// Subject is the principal that was denied.
	Subject string

	// Resource is the path that was denied.
	Resource string

	// Action is the method that was denied.
	Action string

	// Required lists the authorities that would have granted access.
	Required []string
}

// Error returns the error message.
func (e *AuthzError) Error() string {
	return fmt.Sprintf("authorization denied: subject=%q resource=%q action=%q required=%q",
		e.Subject, e.Resource, e.Action, e.Required)
}

// Is reports whether this error matches the target.
func (e *AuthzError) Is(target error) bool {
	return target == ErrForbidden
}

// AuthorizerFunc is an adapter to allow use of ordinary functions as Authorizers.
type AuthorizerFunc func(ctx context.Context, req *AuthzRequest) error

// Authorize calls the function.
func (f AuthorizerFunc) Authorize(ctx context.Context, req *AuthzRequest) error {
	return f(ctx, req)
}

// Name returns "func" for function-based authorizers.
func (f AuthorizerFunc) Name() string {
	return "func"
}
