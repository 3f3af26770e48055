package access_test

import (
	"testing"

	"github.com/itsazizbob-max/YOUSS-DASH7/internal/access"
)

func TestPermission_Parse(t *testing.T) {
	res, act := access.NewPermission("intervention", access.ActionView).Parse()
	if res != "intervention" || act != access.ActionView {
		t.Errorf("Parse = %q, %q", res, act)
	}
	if res, act := access.Permission("invalid").Parse(); res != "" || act != "" {
		t.Errorf("expected empty strings, got %q and %q", res, act)
	}
}

func TestPermission_Matches(t *testing.T) {
	tests := []struct {
		held, requested access.Permission
		want            bool
	}{
		{"invoice:create", "invoice:create", true},
		{"invoice:create", "invoice:delete", false},
		{"invoice:create", "partner:create", false},
		{access.PermissionSuperAdmin, "fuel_log:delete", true},
		{"fuel_log:*", "fuel_log:update", true},
		{"fuel_log:*", "invoice:update", false},
		{"invalid", "invalid:list", false},
	}
	for _, tt := range tests {
		if got := tt.held.Matches(tt.requested); got != tt.want {
			t.Errorf("%s.Matches(%s) = %v, want %v", tt.held, tt.requested, got, tt.want)
		}
	}
}
