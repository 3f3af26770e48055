package access

import "context"

// Ownable is implemented by records that belong to a user.
type Ownable interface {
	GetUserID() uint
}

// OwnershipPolicy allows a user to act on the records they own. Records that
// are not Ownable are denied.
type OwnershipPolicy struct{}

func NewOwnershipPolicy() *OwnershipPolicy {
	return &OwnershipPolicy{}
}

func (p *OwnershipPolicy) Can(_ context.Context, userID uint, _ Action, resource any) bool {
	if resource == nil {
		return true
	}
	ownable, ok := resource.(Ownable)
	if !ok {
		return false
	}
	return ownable.GetUserID() == userID
}

// AdminBypassPolicy lets administrators through and defers to inner otherwise.
type AdminBypassPolicy struct {
	inner   Policy
	isAdmin func(ctx context.Context, userID uint) bool
}

func NewAdminBypassPolicy(inner Policy, isAdmin func(ctx context.Context, userID uint) bool) *AdminBypassPolicy {
	return &AdminBypassPolicy{inner: inner, isAdmin: isAdmin}
}

func (p *AdminBypassPolicy) Can(ctx context.Context, userID uint, action Action, resource any) bool {
	if p.isAdmin(ctx, userID) {
		return true
	}
	return p.inner.Can(ctx, userID, action, resource)
}
