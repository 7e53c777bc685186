package secret

import "errors"

var (
	// ErrUnknownProvider is returned for a reference naming no registered provider.
	ErrUnknownProvider = errors.New("secret: provider not registered")

	// ErrNotFound is returned when a provider has no value for a reference.
	ErrNotFound = errors.New("secret: not found")

	// ErrEmptyValue is returned by a strict resolver when a secret resolves to "".
	ErrEmptyValue = errors.New("secret: empty value")

	// ErrNotSecretRef is returned by ResolveRef for a value that is not a full
	// secretref:<provider>:<ref>.
	ErrNotSecretRef = errors.New("secret: not a secret reference")

	// ErrMissingEnv is returned when ${VAR} names an unset variable.
	ErrMissingEnv = errors.New("secret: missing environment variables")
)
