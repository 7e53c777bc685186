package auth

import (
	"context"
	"fmt"
	"path"
	"strings"
)

// Access is the identity requirement of a route.
type Access int

const (
	// AccessAuthenticated requires an identity. It is the zero value so an
	// unconfigured rule never opens a route.
	AccessAuthenticated Access = iota

	// AccessPublic requires nothing.
	AccessPublic
)

// ParseAccess parses "public" or "authenticated".
func ParseAccess(s string) (Access, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "public", "permit_all":
		return AccessPublic, nil
	case "authenticated", "":
		return AccessAuthenticated, nil
	default:
		return AccessAuthenticated, fmt.Errorf("auth: unknown access %q", s)
	}
}

func (a Access) String() string {
	if a == AccessPublic {
		return "public"
	}
	return "authenticated"
}

// Rule maps a path pattern to its access requirement.
type Rule struct {
	// Pattern is an exact path, a path.Match glob, or a prefix ending in
	// "/**" which matches the prefix itself and everything below it.
	Pattern string

	// Methods restricts the rule to these HTTP methods. Empty matches all.
	Methods []string

	// Access is the identity requirement.
	Access Access

	// Authorities, if set, grants access to identities holding any of them.
	// Only meaningful for AccessAuthenticated.
	Authorities []string
}

// Matches reports whether the rule applies to method and p.
func (r Rule) Matches(method, p string) bool {
	if len(r.Methods) > 0 {
		found := false
		for _, m := range r.Methods {
			if strings.EqualFold(m, method) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return matchPath(r.Pattern, p)
}

// matchPath matches a cleaned request path against pattern.
func matchPath(pattern, p string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "/**"); ok {
		return prefix == "" || p == prefix || strings.HasPrefix(p, prefix+"/")
	}
	matched, err := path.Match(pattern, p)
	return err == nil && matched
}

// Policy is a static, ordered route table. The first matching rule wins;
// requests matching no rule get Default.
type Policy struct {
	Rules   []Rule
	Default Access
}

// Validate checks every rule pattern.
func (p *Policy) Validate() error {
	for i, r := range p.Rules {
		if r.Pattern == "" || !strings.HasPrefix(r.Pattern, "/") {
			return fmt.Errorf("auth: rule %d: pattern %q must start with /", i, r.Pattern)
		}
		glob := strings.TrimSuffix(r.Pattern, "/**")
		if _, err := path.Match(glob, "/"); err != nil {
			return fmt.Errorf("auth: rule %d: pattern %q: %w", i, r.Pattern, err)
		}
		if r.Access == AccessPublic && len(r.Authorities) > 0 {
			return fmt.Errorf("auth: rule %d: public rule %q cannot require authorities", i, r.Pattern)
		}
	}
	return nil
}

// Lookup returns the rule governing method and rawPath.
func (p *Policy) Lookup(method, rawPath string) Rule {
	cleaned := path.Clean("/" + rawPath)
	for _, r := range p.Rules {
		if r.Matches(method, cleaned) {
			return r
		}
	}
	return Rule{Pattern: "/**", Access: p.Default}
}

// PolicyAuthorizer authorizes requests against a static Policy.
type PolicyAuthorizer struct {
	policy Policy
}

// NewPolicyAuthorizer creates an authorizer after validating policy.
func NewPolicyAuthorizer(policy Policy) (*PolicyAuthorizer, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &PolicyAuthorizer{policy: policy}, nil
}

// Name returns "policy".
func (a *PolicyAuthorizer) Name() string {
	return "policy"
}

// Authorize applies the matching rule.
func (a *PolicyAuthorizer) Authorize(_ context.Context, req *AuthzRequest) error {
	rule := a.policy.Lookup(req.Action, req.Resource)
	if rule.Access == AccessPublic {
		return nil
	}
	if req.Subject == nil {
		return ErrUnauthenticated
	}
	if !req.Subject.HasAnyAuthority(rule.Authorities...) {
		return &AuthzError{
			Subject:  req.Subject.Principal,
			Resource: req.Resource,
			Action:   req.Action,
			Required: rule.Authorities,
		}
	}
	return nil
}

// Ensure PolicyAuthorizer implements Authorizer
var _ Authorizer = (*PolicyAuthorizer)(nil)
