package member

import "errors"

var (
	// ErrNotFound is returned when no member has the requested username.
	ErrNotFound = errors.New("member: not found")

	// ErrDuplicate is returned when creating a member whose username is taken.
	ErrDuplicate = errors.New("member: username already exists")

	// ErrInvalidCredentials is returned for an unknown username or a wrong password.
	ErrInvalidCredentials = errors.New("member: invalid credentials")

	// ErrInactive is returned when a deactivated member logs in.
	ErrInactive = errors.New("member: account not activated")

	// ErrDBUnavailable is returned by a GormStore without a database handle.
	ErrDBUnavailable = errors.New("member: database unavailable")
)
