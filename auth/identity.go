package auth

import (
	"slices"
	"strings"
)

// AuthoritySeparator joins authorities inside the token's auth claim.
const AuthoritySeparator = ","

// Identity is an authenticated principal and the authorities granted to it.
// It is immutable once built; callers must not modify Authorities.
type Identity struct {
	// Principal is the unique name of the identity (e.g., username).
	Principal string

	// Authorities are the role identifiers granted to the principal.
	Authorities []string
}

// NewIdentity builds an Identity, dropping empty and duplicate authorities
// while keeping their first-seen order.
func NewIdentity(principal string, authorities ...string) Identity {
	seen := make(map[string]struct{}, len(authorities))
	out := make([]string, 0, len(authorities))
	for _, a := range authorities {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return Identity{Principal: principal, Authorities: out}
}

// HasAuthority checks if the identity holds a specific authority.
func (id *Identity) HasAuthority(authority string) bool {
	if id == nil {
		return false
	}
	return slices.Contains(id.Authorities, authority)
}

// HasAnyAuthority reports whether the identity holds at least one of the
// given authorities. An empty list is always satisfied.
func (id *Identity) HasAnyAuthority(authorities ...string) bool {
	if len(authorities) == 0 {
		return true
	}
	for _, a := range authorities {
		if id.HasAuthority(a) {
			return true
		}
	}
	return false
}

// Equal reports whether two identities have the same principal and the same
// set of authorities, regardless of order.
func (id *Identity) Equal(other *Identity) bool {
	if id == nil || other == nil {
		return id == other
	}
	if id.Principal != other.Principal {
		return false
	}
	a := normalizedAuthorities(id.Authorities)
	b := normalizedAuthorities(other.Authorities)
	return slices.Equal(a, b)
}

func normalizedAuthorities(in []string) []string {
	out := slices.Clone(in)
	slices.Sort(out)
	return slices.Compact(out)
}

func (id *Identity) validate() error {
	if strings.TrimSpace(id.Principal) == "" {
		return ErrInvalidIdentity
	}
	for _, a := range id.Authorities {
		if a == "" || strings.Contains(a, AuthoritySeparator) {
			return ErrInvalidIdentity
		}
	}
	return nil
}

func joinAuthorities(authorities []string) string {
	return strings.Join(authorities, AuthoritySeparator)
}

func splitAuthorities(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, AuthoritySeparator)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
