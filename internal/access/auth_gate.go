package access

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/itsazizbob-max/YOUSS-DASH7/internal/apperr"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/auth"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/httpx"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Resource types checked by the gate.
const (
	ResourceIntervention = "intervention"
	ResourceFuelLog      = "fuel_log"
	ResourceInvoice      = "invoice"
	ResourcePartner      = "partner"
	ResourceBatch        = "batch"
	ResourceActionLog    = "action_log"
	ResourceDashboard    = "dashboard"
	ResourceCompany      = "company"
	ResourceUser         = "user"
)

// Actor is the user on whose behalf a service operation runs.
type Actor struct {
	ID    uint
	Name  string
	Admin bool
}

// SystemActor is an administrative actor for the CLI and background jobs.
func SystemActor(name string) Actor {
	return Actor{Name: name, Admin: true}
}

// UserID returns a pointer to the actor's id for owner columns, nil for the system actor.
func (a Actor) UserID() *uint {
	if a.ID == 0 {
		return nil
	}
	id := a.ID
	return &id
}

// Scope restricts a query to the actor's own rows unless the actor is an administrator.
func (a Actor) Scope(db *gorm.DB) *gorm.DB {
	if a.Admin {
		return db
	}
	return db.Where("user_id = ?", a.ID)
}

// AuthGate is the application's authorization checkpoint.
type AuthGate struct {
	Gate          *Gate
	CacheResolver *CachedResolver
	db            *gorm.DB
	log           *zap.Logger
}

// NewAuthGate wires the database resolver behind a TTL cache and registers
// the ownership policy, bypassed by administrators, on owned resources.
func NewAuthGate(db *gorm.DB, cacheTTL time.Duration, log *zap.Logger) *AuthGate {
	if log == nil {
		log = zap.NewNop()
	}
	cached := NewCachedResolver(NewDBProfileResolver(db), cacheTTL)
	ag := &AuthGate{Gate: NewGate(cached), CacheResolver: cached, db: db, log: log}

	owned := NewAdminBypassPolicy(NewOwnershipPolicy(), ag.IsAdmin)
	for _, rt := range []string{ResourceIntervention, ResourceFuelLog, ResourceInvoice} {
		ag.Gate.Register(rt, owned)
	}
	return ag
}

// IsAdmin reports whether the user holds "*:*".
func (ag *AuthGate) IsAdmin(ctx context.Context, userID uint) bool {
	return ag.Gate.HasPermission(ctx, userID, PermissionSuperAdmin)
}

// Authorize checks the current user against resourceType:action and, when
// resource is non-nil, its policy.
func (ag *AuthGate) Authorize(ctx context.Context, action Action, resourceType string, resource any) error {
	userID, _ := auth.UserIDFromContext(ctx)
	err := ag.Gate.Authorize(ctx, userID, action, resourceType, resource)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrUnauthenticated):
		return apperr.Unauthorized()
	default:
		return apperr.PermissionDenied("not allowed to " + string(action) + " " + resourceType)
	}
}

// Actor loads the current user as an Actor.
func (ag *AuthGate) Actor(ctx context.Context) (Actor, error) {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return Actor{}, apperr.Unauthorized()
	}
	var u models.User
	if err := ag.db.WithContext(ctx).Select("id", "name", "email").First(&u, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Actor{}, apperr.Unauthorized()
		}
		return Actor{}, apperr.Unexpected("load current user", err)
	}
	return Actor{ID: u.ID, Name: u.DisplayName(), Admin: ag.IsAdmin(ctx, u.ID)}, nil
}

// InvalidateUser clears the cached profile of a user whose profile changed.
func (ag *AuthGate) InvalidateUser(userID uint) {
	ag.CacheResolver.Invalidate(userID)
}

// RequirePermission returns middleware that checks the profile permission.
func (ag *AuthGate) RequirePermission(resourceType string, action Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := ag.Authorize(r.Context(), action, resourceType, nil); err != nil {
				httpx.Error(w, ag.log, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin returns middleware that only lets "*:*" holders through.
func (ag *AuthGate) RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := auth.UserIDFromContext(r.Context())
			if !ok {
				httpx.Error(w, ag.log, apperr.Unauthorized())
				return
			}
			if !ag.IsAdmin(r.Context(), userID) {
				httpx.Error(w, ag.log, apperr.PermissionDenied("administrative privilege required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
