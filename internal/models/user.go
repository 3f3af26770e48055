package models

import "time"

// User represents an authenticated back-office user.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Email     string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Name      string    `gorm:"size:150" json:"name,omitempty"`
	Password  string    `gorm:"size:255;not null" json:"-"` // bcrypt hash
	// ProfileID links the user to an authorization profile.
	// A nil value means the user has no profile assigned (no access).
	ProfileID *uint    `gorm:"index" json:"profile_id,omitempty"`
	Profile   *Profile `gorm:"foreignKey:ProfileID" json:"profile,omitempty"`
}

// DisplayName is the name recorded in action logs.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
