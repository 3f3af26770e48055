package access

import (
	"context"
	"slices"
)

// Profile is the permission set a user acts under.
type Profile interface {
	ID() uint
	Name() string
	HasPermission(permission Permission) bool
	Permissions() []Permission
}

// ProfileResolver finds the profile of a user id. A nil profile with a nil
// error means the user has none.
type ProfileResolver interface {
	Resolve(ctx context.Context, userID uint) (Profile, error)
}

// Role is a built-in profile. Roles are written to the database at startup and
// may be extended there by administrators.
type Role struct {
	Name        string
	Description string
	Permissions []Permission
}

var (
	AdminRole = Role{
		Name:        "admin",
		Description: "Full system administrator",
		Permissions: []Permission{PermissionSuperAdmin},
	}
	// AgentRole records field work. Ownership policies limit it to its own
	// interventions, fuel logs and invoices.
	AgentRole = Role{
		Name:        "agent",
		Description: "Records interventions and fuel, invoices own work",
		Permissions: []Permission{
			NewPermission(ResourceIntervention, WildcardAll),
			NewPermission(ResourceFuelLog, WildcardAll),
			NewPermission(ResourceInvoice, WildcardAll),
			NewPermission(ResourcePartner, ActionList),
			NewPermission(ResourcePartner, ActionView),
			NewPermission(ResourceBatch, ActionList),
			NewPermission(ResourceBatch, ActionView),
			NewPermission(ResourceDashboard, ActionView),
			NewPermission(ResourceCompany, ActionView),
		},
	}
)

// Roles lists the built-in roles in seeding order.
func Roles() []Role {
	return []Role{AdminRole, AgentRole}
}

// Grants reports whether one of the role's permissions matches requested.
func (r Role) Grants(requested Permission) bool {
	return slices.ContainsFunc(r.Permissions, func(p Permission) bool { return p.Matches(requested) })
}

// Profile binds the role to a profile id.
func (r Role) Profile(id uint) Profile {
	return roleProfile{id: id, role: r}
}

type roleProfile struct {
	id   uint
	role Role
}

func (p roleProfile) ID() uint                        { return p.id }
func (p roleProfile) Name() string                    { return p.role.Name }
func (p roleProfile) HasPermission(q Permission) bool { return p.role.Grants(q) }
func (p roleProfile) Permissions() []Permission       { return slices.Clone(p.role.Permissions) }

// RoleResolver assigns built-in roles to user ids without a database, as the
// CLI and tests need.
type RoleResolver map[uint]Role

func (r RoleResolver) Resolve(_ context.Context, userID uint) (Profile, error) {
	role, ok := r[userID]
	if !ok {
		return nil, nil
	}
	return role.Profile(userID), nil
}
