package db

import (
	"testing"

	"github.com/itsazizbob-max/YOUSS-DASH7/internal/auth"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/dbtest"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/models"
)

func TestSeedIdempotent(t *testing.T) {
	d := dbtest.Open(t)
	if err := Seed(d, "Admin@Example.com", "s3cret"); err != nil {
		t.Fatal(err)
	}
	if err := Seed(d, "admin@example.com", "other"); err != nil {
		t.Fatal(err)
	}

	var users, profiles, counters int64
	d.Model(&models.User{}).Count(&users)
	d.Model(&models.Profile{}).Count(&profiles)
	d.Model(&models.InvoiceCounter{}).Count(&counters)
	if users != 1 || profiles != 2 || counters != 1 {
		t.Fatalf("users=%d profiles=%d counters=%d", users, profiles, counters)
	}

	var admin models.User
	if err := d.Preload("Profile.Permissions").Where("email = ?", "admin@example.com").First(&admin).Error; err != nil {
		t.Fatal(err)
	}
	if !auth.CheckPassword(admin.Password, "s3cret") {
		t.Fatal("admin password not hashed with the first seed value")
	}
	if admin.Profile == nil || len(admin.Profile.Permissions) != 1 || admin.Profile.Permissions[0].Code() != "*:*" {
		t.Fatalf("admin profile = %+v", admin.Profile)
	}

	var agent models.Profile
	if err := d.Preload("Permissions").Where("name = ?", ProfileAgent).First(&agent).Error; err != nil {
		t.Fatal(err)
	}
	if len(agent.Permissions) != 9 {
		t.Fatalf("agent permissions = %d, want 9", len(agent.Permissions))
	}
}

func TestSeedAdminRequiresPassword(t *testing.T) {
	d := dbtest.Open(t)
	if err := SeedProfiles(d); err != nil {
		t.Fatal(err)
	}
	if err := SeedAdmin(d, "root@example.com", ""); err == nil {
		t.Fatal("expected error without password")
	}
	if err := SeedAdmin(d, "", ""); err != nil {
		t.Fatalf("empty email should be a no-op: %v", err)
	}
}
