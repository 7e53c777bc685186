// Package secret resolves the signing key and other sensitive settings from
// configuration values.
//
// A value is either literal (after strict ${VAR} expansion) or a reference
// with the prefix "secretref:":
//
//	BEARERAUTH_SIGNING_KEY=secretref:file:/run/secrets/jwt
//	BEARERAUTH_SIGNING_KEY=secretref:env:JWT_SECRET
//
// The env and file providers are built in; others can be registered on a
// Resolver.
package secret
