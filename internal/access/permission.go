// Package access authorizes requests: profile permissions in "resource:action"
// form, resolved per user with a TTL cache, plus per-resource ownership
// policies that administrators bypass.
package access

import "strings"

// Action describes the kind of operation a user wants to perform.
type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionList   Action = "list"
)

// Permission is an allowed action on a resource type, e.g. "invoice:create".
type Permission string

// Wildcards for super permissions
const (
	WildcardAll          = "*"
	PermissionSuperAdmin Permission = "*:*"
)

// NewPermission creates a permission from resource type and action.
func NewPermission(resourceType string, action Action) Permission {
	return Permission(resourceType + ":" + string(action))
}

// Parse splits a permission into resource type and action.
func (p Permission) Parse() (resourceType string, action Action) {
	res, act, ok := strings.Cut(string(p), ":")
	if !ok {
		return "", ""
	}
	return res, Action(act)
}

// Matches reports whether p grants requested. "*:*" grants everything and
// "invoice:*" grants every invoice action.
func (p Permission) Matches(requested Permission) bool {
	if p == PermissionSuperAdmin || p == requested {
		return true
	}
	res, act := p.Parse()
	reqRes, _ := requested.Parse()
	return res != "" && res == reqRes && string(act) == WildcardAll
}
