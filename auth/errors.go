package auth

import "errors"

// Sentinel errors for authentication and authorization.
var (
	// Token errors
	ErrMalformedToken = errors.New("auth: token malformed")
	ErrBadSignature   = errors.New("auth: token signature invalid")
	ErrExpired        = errors.New("auth: token expired")

	// Codec configuration errors
	ErrMissingSigningKey = errors.New("auth: signing key is required")
	ErrWeakSigningKey    = errors.New("auth: signing key is too short")
	ErrInvalidIdentity   = errors.New("auth: invalid identity")

	// Request errors
	ErrMissingCredentials = errors.New("auth: missing credentials")
	ErrUnauthenticated    = errors.New("auth: authentication required")

	// Authorization errors
	ErrForbidden = errors.New("auth: access denied")
)
