package api

import "github.com/jonwraymond/bearerauth/auth"

// RoleAdmin guards the admin resource.
const RoleAdmin = "ROLE_ADMIN"

// DefaultPolicy is the built-in route policy. Anything not listed requires an
// authenticated identity.
func DefaultPolicy() auth.Policy {
	return auth.Policy{
		Rules: []auth.Rule{
			{Pattern: "/api/hello", Access: auth.AccessPublic},
			{Pattern: "/api/authenticate", Methods: []string{"POST"}, Access: auth.AccessPublic},
			{Pattern: "/healthz", Access: auth.AccessPublic},
			{Pattern: "/readyz", Access: auth.AccessPublic},
			{Pattern: "/health", Access: auth.AccessPublic},
			{Pattern: "/favicon.ico", Access: auth.AccessPublic},
			{Pattern: "/error", Access: auth.AccessPublic},
			{Pattern: "/api/v1/admin/**", Authorities: []string{RoleAdmin}},
		},
		Default: auth.AccessAuthenticated,
	}
}
