package access

import (
	"fmt"
	"maps"
	"slices"
)

// Policy maps roles to the capabilities they grant.
type Policy struct {
	roles map[string]map[Capability]bool
}

// DefaultRoles is used when no roles are configured.
func DefaultRoles() map[string][]string {
	return map[string][]string{
		"agent":    {"read", "upload"},
		"verifier": {"read", "verify"},
		"manager":  {"read", "upload", "delete", "restore"},
		"admin":    {"read", "upload", "delete", "restore", "verify"},
	}
}

// NewPolicy validates capability names and builds a policy.
func NewPolicy(roles map[string][]string) (*Policy, error) {
	p := &Policy{roles: make(map[string]map[Capability]bool, len(roles))}
	for role, caps := range roles {
		set := make(map[Capability]bool, len(caps))
		for _, c := range caps {
			capability := Capability(c)
			if !slices.Contains(AllCapabilities, capability) {
				return nil, fmt.Errorf("role %s: unknown capability %q", role, c)
			}
			set[capability] = true
		}
		p.roles[role] = set
	}
	return p, nil
}

// Allows reports whether any of the principal's roles grants c.
func (p *Policy) Allows(principal Principal, c Capability) bool {
	for _, role := range principal.Roles {
		if p.roles[role][c] {
			return true
		}
	}
	return false
}

// Roles returns the configured role names in sorted order.
func (p *Policy) Roles() []string {
	return slices.Sorted(maps.Keys(p.roles))
}
