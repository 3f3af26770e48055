package access

import (
	"context"
	"errors"
)

// Sentinel errors returned by Gate.Authorize.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

// Policy holds resource-specific rules such as ownership. resource is nil
// for list and create checks.
type Policy interface {
	Can(ctx context.Context, userID uint, action Action, resource any) bool
}

// Gate combines profile permissions with resource policies:
//  1. the user id must be non-zero
//  2. the user's profile must grant resource:action
//  3. when a resource is given and a policy is registered, the policy must allow it
type Gate struct {
	resolver ProfileResolver
	policies map[string]Policy
}

func NewGate(resolver ProfileResolver) *Gate {
	return &Gate{resolver: resolver, policies: make(map[string]Policy)}
}

// Register adds a policy for resourceType, replacing any previous one.
func (g *Gate) Register(resourceType string, p Policy) {
	g.policies[resourceType] = p
}

func (g *Gate) Authorize(ctx context.Context, userID uint, action Action, resourceType string, resource any) error {
	if userID == 0 {
		return ErrUnauthenticated
	}
	if !g.CanProfile(ctx, userID, action, resourceType) {
		return ErrForbidden
	}
	if resource != nil {
		if policy, ok := g.policies[resourceType]; ok && !policy.Can(ctx, userID, action, resource) {
			return ErrForbidden
		}
	}
	return nil
}

func (g *Gate) Can(ctx context.Context, userID uint, action Action, resourceType string, resource any) bool {
	return g.Authorize(ctx, userID, action, resourceType, resource) == nil
}

// CanProfile checks only the profile permission, without policies.
func (g *Gate) CanProfile(ctx context.Context, userID uint, action Action, resourceType string) bool {
	return g.HasPermission(ctx, userID, NewPermission(resourceType, action))
}

// HasPermission reports whether the user's profile grants perm.
func (g *Gate) HasPermission(ctx context.Context, userID uint, perm Permission) bool {
	if userID == 0 {
		return false
	}
	profile, err := g.resolver.Resolve(ctx, userID)
	if err != nil || profile == nil {
		return false
	}
	return profile.HasPermission(perm)
}
