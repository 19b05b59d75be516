// Package access identifies the calling principal and gates version store
// operations by role capability.
package access

import (
	"context"
	"slices"
)

// Capability names one permitted class of version operation.
type Capability string

const (
	CapRead    Capability = "read"
	CapUpload  Capability = "upload"
	CapDelete  Capability = "delete"
	CapRestore Capability = "restore"
	CapVerify  Capability = "verify"
)

// AllCapabilities lists every capability.
var AllCapabilities = []Capability{CapRead, CapUpload, CapDelete, CapRestore, CapVerify}

// Anonymous is the actor recorded when no identity is available.
const Anonymous = "anonymous"

// Principal is the authenticated caller.
type Principal struct {
	ID    string   `json:"id"`
	Roles []string `json:"roles"`
}

// HasRole reports whether the principal holds role.
func (p Principal) HasRole(role string) bool {
	return slices.Contains(p.Roles, role)
}

type contextKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// FromContext returns the principal stored in ctx.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(contextKey{}).(Principal)
	return p, ok
}

// ActorFrom returns the principal id for audit fields.
func ActorFrom(ctx context.Context) string {
	if p, ok := FromContext(ctx); ok && p.ID != "" {
		return p.ID
	}
	return Anonymous
}
