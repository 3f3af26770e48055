package access_test

import (
	"context"
	"testing"
	"time"

	"github.com/itsazizbob-max/YOUSS-DASH7/internal/access"
)

// assignments hands out built-in roles under explicit profile ids and counts lookups.
type assignments struct {
	roles   map[uint]access.Role
	profile map[uint]uint
	calls   int
}

func newAssignments() *assignments {
	return &assignments{roles: map[uint]access.Role{}, profile: map[uint]uint{}}
}

func (a *assignments) set(userID, profileID uint, role access.Role) {
	a.roles[userID], a.profile[userID] = role, profileID
}

func (a *assignments) Resolve(_ context.Context, userID uint) (access.Profile, error) {
	a.calls++
	role, ok := a.roles[userID]
	if !ok {
		return nil, nil
	}
	return role.Profile(a.profile[userID]), nil
}

func TestCachedResolver_CachesProfile(t *testing.T) {
	inner := access.RoleResolver{1: access.AgentRole}
	cached := access.NewCachedResolver(inner, 5*time.Minute)

	p1, err := cached.Resolve(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p1.Name() != "agent" {
		t.Errorf("expected 'agent', got %q", p1.Name())
	}

	inner[1] = access.AdminRole
	p2, _ := cached.Resolve(context.Background(), 1)
	if p2.Name() != "agent" {
		t.Errorf("expected cached 'agent', got %q", p2.Name())
	}

	cached.Invalidate(1)
	p3, _ := cached.Resolve(context.Background(), 1)
	if p3.Name() != "admin" {
		t.Errorf("expected 'admin' after invalidation, got %q", p3.Name())
	}
}

func TestCachedResolver_CachesMissingProfile(t *testing.T) {
	inner := newAssignments()
	cached := access.NewCachedResolver(inner, 5*time.Minute)

	for range 3 {
		if p, err := cached.Resolve(context.Background(), 7); p != nil || err != nil {
			t.Fatalf("user without profile: %v, %v", p, err)
		}
	}
	if inner.calls != 1 {
		t.Errorf("expected one lookup, got %d", inner.calls)
	}
}

func TestCachedResolver_InvalidateProfile(t *testing.T) {
	inner := newAssignments()
	inner.set(1, 10, access.AgentRole)
	inner.set(2, 10, access.AgentRole)
	inner.set(3, 20, access.AdminRole)
	cached := access.NewCachedResolver(inner, 5*time.Minute)
	for _, uid := range []uint{1, 2, 3} {
		_, _ = cached.Resolve(context.Background(), uid)
	}

	cached.InvalidateProfile(10)
	for _, uid := range []uint{1, 2, 3} {
		_, _ = cached.Resolve(context.Background(), uid)
	}
	if inner.calls != 5 {
		t.Errorf("expected only the two agents to be reloaded, got %d lookups", inner.calls)
	}

	cached.InvalidateAll()
	_, _ = cached.Resolve(context.Background(), 3)
	if inner.calls != 6 {
		t.Errorf("expected a reload after InvalidateAll, got %d lookups", inner.calls)
	}
}

func TestCachedResolver_TTLExpiry(t *testing.T) {
	inner := access.RoleResolver{1: access.AgentRole}
	cached := access.NewCachedResolver(inner, 10*time.Millisecond)
	_, _ = cached.Resolve(context.Background(), 1)

	inner[1] = access.AdminRole
	time.Sleep(20 * time.Millisecond)

	p, _ := cached.Resolve(context.Background(), 1)
	if p.Name() != "admin" {
		t.Errorf("expected 'admin' after TTL expiry, got %q", p.Name())
	}
}

func TestRoles(t *testing.T) {
	if !access.AdminRole.Grants(access.NewPermission(access.ResourceCompany, access.ActionUpdate)) {
		t.Error("admin should update the company")
	}
	agent := access.AgentRole
	if !agent.Grants(access.NewPermission(access.ResourceInvoice, access.ActionDelete)) {
		t.Error("agent should manage its invoices")
	}
	if agent.Grants(access.NewPermission(access.ResourcePartner, access.ActionCreate)) {
		t.Error("agent should not create partners")
	}
	if agent.Grants(access.NewPermission(access.ResourceActionLog, access.ActionList)) {
		t.Error("agent should not read the action log")
	}
	p := agent.Profile(4)
	if p.ID() != 4 || p.Name() != "agent" || len(p.Permissions()) != len(agent.Permissions) {
		t.Errorf("profile = %d %q %v", p.ID(), p.Name(), p.Permissions())
	}
}
