package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/jonwraymond/bearerauth/auth"
)

// policyFile is the YAML form of an auth.Policy:
//
//	default: authenticated
//	rules:
//	  - pattern: /api/hello
//	    access: public
//	  - pattern: /api/v1/admin/**
//	    methods: [GET]
//	    authorities: [ROLE_ADMIN]
type policyFile struct {
	Default string     `yaml:"default"`
	Rules   []ruleFile `yaml:"rules"`
}

type ruleFile struct {
	Pattern     string   `yaml:"pattern"`
	Methods     []string `yaml:"methods"`
	Access      string   `yaml:"access"`
	Authorities []string `yaml:"authorities"`
}

// LoadPolicyFile reads and validates a route policy file.
func LoadPolicyFile(path string) (auth.Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return auth.Policy{}, fmt.Errorf("config: read policy: %w", err)
	}
	p, err := ParsePolicy(data)
	if err != nil {
		return auth.Policy{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return p, nil
}

// ParsePolicy decodes a YAML route policy. Unknown keys are rejected.
func ParsePolicy(data []byte) (auth.Policy, error) {
	var f policyFile
	if err := yaml.UnmarshalStrict(data, &f); err != nil {
		return auth.Policy{}, fmt.Errorf("parse policy: %w", err)
	}

	def, err := auth.ParseAccess(f.Default)
	if err != nil {
		return auth.Policy{}, fmt.Errorf("default: %w", err)
	}
	p := auth.Policy{Default: def, Rules: make([]auth.Rule, 0, len(f.Rules))}
	for i, r := range f.Rules {
		access, err := auth.ParseAccess(r.Access)
		if err != nil {
			return auth.Policy{}, fmt.Errorf("rule %d: %w", i, err)
		}
		p.Rules = append(p.Rules, auth.Rule{
			Pattern:     r.Pattern,
			Methods:     r.Methods,
			Access:      access,
			Authorities: r.Authorities,
		})
	}
	if err := p.Validate(); err != nil {
		return auth.Policy{}, err
	}
	return p, nil
}
