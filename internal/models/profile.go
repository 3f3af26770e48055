package models

import "time"

// Profile groups permissions. A user is assigned to one profile and inherits
// all its permissions.
type Profile struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Name        string    `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Description string    `gorm:"size:500" json:"description,omitempty"`
	IsSystem    bool      `gorm:"default:false" json:"is_system"`

	Permissions []Permission `gorm:"many2many:profile_permissions;" json:"permissions,omitempty"`
	Users       []User       `gorm:"foreignKey:ProfileID" json:"users,omitempty"`
}

// Permission is a single action allowed on a resource type, e.g.
// "intervention:create". "*" in either half is a wildcard.
type Permission struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	ResourceType string    `gorm:"size:50;not null;uniqueIndex:idx_perm_resource_action" json:"resource_type"`
	Action       string    `gorm:"size:50;not null;uniqueIndex:idx_perm_resource_action" json:"action"`
	Description  string    `gorm:"size:200" json:"description,omitempty"`
}

// Code returns the permission in "resource:action" format for matching.
func (p Permission) Code() string {
	return p.ResourceType + ":" + p.Action
}
