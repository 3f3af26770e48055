package access

import (
	"context"
	"errors"

	"github.com/itsazizbob-max/YOUSS-DASH7/internal/models"
	"gorm.io/gorm"
)

// DBProfileResolver loads a user's profile and permissions from the database.
type DBProfileResolver struct {
	DB *gorm.DB
}

func NewDBProfileResolver(db *gorm.DB) *DBProfileResolver {
	return &DBProfileResolver{DB: db}
}

// Resolve returns nil when the user is unknown or has no profile.
func (r *DBProfileResolver) Resolve(ctx context.Context, userID uint) (Profile, error) {
	var user models.User
	err := r.DB.WithContext(ctx).Preload("Profile.Permissions").First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if user.Profile == nil {
		return nil, nil
	}
	return &dbProfile{profile: user.Profile}, nil
}

type dbProfile struct {
	profile *models.Profile
}

func (a *dbProfile) ID() uint     { return a.profile.ID }
func (a *dbProfile) Name() string { return a.profile.Name }

func (a *dbProfile) HasPermission(perm Permission) bool {
	for _, p := range a.profile.Permissions {
		if Permission(p.Code()).Matches(perm) {
			return true
		}
	}
	return false
}

func (a *dbProfile) Permissions() []Permission {
	out := make([]Permission, len(a.profile.Permissions))
	for i, p := range a.profile.Permissions {
		out[i] = Permission(p.Code())
	}
	return out
}
