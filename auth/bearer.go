package auth

import (
	"context"
	"strings"
)

const (
	// AuthorizationHeader carries the bearer credential.
	AuthorizationHeader = "Authorization"

	// BearerPrefix precedes the token in the Authorization header.
	BearerPrefix = "Bearer "
)

// TokenVerifier turns a raw token into an identity. *TokenCodec implements it.
type TokenVerifier interface {
	Verify(token string) (*Identity, error)
}

// ExtractBearer returns the token following the literal "Bearer " prefix of
// an Authorization header value. A missing prefix or empty remainder means no
// credential was supplied.
func ExtractBearer(header string) (string, bool) {
	token, found := strings.CutPrefix(header, BearerPrefix)
	if !found || token == "" {
		return "", false
	}
	return token, true
}

// BearerAuthenticator authenticates requests carrying a signed bearer token.
type BearerAuthenticator struct {
	verifier TokenVerifier
}

// NewBearerAuthenticator creates a bearer authenticator over verifier.
func NewBearerAuthenticator(verifier TokenVerifier) *BearerAuthenticator {
	return &BearerAuthenticator{verifier: verifier}
}

// Name returns "bearer".
func (a *BearerAuthenticator) Name() string {
	return "bearer"
}

// Supports returns true if the request carries a bearer token candidate.
func (a *BearerAuthenticator) Supports(_ context.Context, req *AuthRequest) bool {
	_, ok := ExtractBearer(req.GetHeader(AuthorizationHeader))
	return ok
}

// Authenticate verifies the bearer token.
func (a *BearerAuthenticator) Authenticate(_ context.Context, req *AuthRequest) (*AuthResult, error) {
	token, ok := ExtractBearer(req.GetHeader(AuthorizationHeader))
	if !ok {
		return AuthFailure(ErrMissingCredentials, a.Name()), nil
	}

	identity, err := a.verifier.Verify(token)
	if err != nil {
		return AuthFailure(err, a.Name()), nil
	}
	return AuthSuccess(identity, a.Name()), nil
}

// Ensure BearerAuthenticator implements Authenticator
var _ Authenticator = (*BearerAuthenticator)(nil)

// Ensure TokenCodec implements TokenVerifier
var _ TokenVerifier = (*TokenCodec)(nil)
