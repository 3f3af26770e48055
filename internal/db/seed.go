package db

import (
	"errors"
	"strings"

	"github.com/itsazizbob-max/YOUSS-DASH7/internal/access"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/auth"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/models"
	"gorm.io/gorm"
)

// Profile names seeded at startup.
var (
	ProfileAdmin = access.AdminRole.Name
	ProfileAgent = access.AgentRole.Name
)

var resources = []struct {
	name    string
	label   string
	actions []string
}{
	{"intervention", "interventions", []string{"list", "view", "create", "update", "delete"}},
	{"fuel_log", "fuel logs", []string{"list", "view", "create", "update", "delete"}},
	{"invoice", "invoices", []string{"list", "view", "create", "update", "delete"}},
	{"partner", "partners", []string{"list", "view", "create", "update", "delete"}},
	{"batch", "batches", []string{"list", "view", "create", "update", "delete"}},
	{"action_log", "the action log", []string{"list"}},
	{"dashboard", "dashboard statistics", []string{"view"}},
	{"company", "company settings", []string{"view", "update"}},
	{"user", "users", []string{"list", "create"}},
	{"import", "spreadsheet imports", []string{"create"}},
	{"export", "spreadsheet exports", []string{"create"}},
}

// SeedPermissions creates one permission per resource action plus the
// wildcards. Existing rows are left alone.
func SeedPermissions(db *gorm.DB) error {
	ensure := func(resource, action, desc string) error {
		perm := models.Permission{ResourceType: resource, Action: action, Description: desc}
		return db.Where("resource_type = ? AND action = ?", resource, action).FirstOrCreate(&perm).Error
	}
	if err := ensure("*", "*", "Full system access"); err != nil {
		return err
	}
	for _, r := range resources {
		if err := ensure(r.name, "*", "All actions on "+r.label); err != nil {
			return err
		}
		for _, a := range r.actions {
			if err := ensure(r.name, a, a+" "+r.label); err != nil {
				return err
			}
		}
	}
	return nil
}

// SeedProfiles creates the admin and agent profiles with their permissions.
func SeedProfiles(db *gorm.DB) error {
	if err := SeedPermissions(db); err != nil {
		return err
	}

	for _, role := range access.Roles() {
		var profile models.Profile
		err := db.Where("name = ?", role.Name).First(&profile).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			profile = models.Profile{Name: role.Name, Description: role.Description, IsSystem: true}
			if err := db.Create(&profile).Error; err != nil {
				return err
			}
		}

		var perms []models.Permission
		for _, code := range role.Permissions {
			resource, action := code.Parse()
			var perm models.Permission
			if err := db.Where("resource_type = ? AND action = ?", resource, action).First(&perm).Error; err == nil {
				perms = append(perms, perm)
			}
		}
		if err := db.Model(&profile).Association("Permissions").Replace(perms); err != nil {
			return err
		}
	}
	return nil
}

// SeedAdmin creates the bootstrap administrator when email is set and no user
// with that email exists yet.
func SeedAdmin(db *gorm.DB, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil
	}
	if password == "" {
		return errors.New("ADMIN_PASSWORD is required when ADMIN_EMAIL is set")
	}
	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	var profile models.Profile
	if err := db.Where("name = ?", ProfileAdmin).First(&profile).Error; err != nil {
		return err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	return db.Create(&models.User{Email: email, Name: "Administrateur", Password: hash, ProfileID: &profile.ID}).Error
}

// Seed initializes the authorization data, the invoice counter and, when
// configured, the bootstrap administrator. It is idempotent.
func Seed(db *gorm.DB, adminEmail, adminPassword string) error {
	if err := SeedProfiles(db); err != nil {
		return err
	}
	counter := models.InvoiceCounter{Name: models.InvoiceCounterName}
	if err := db.Where("name = ?", counter.Name).FirstOrCreate(&counter).Error; err != nil {
		return err
	}
	return SeedAdmin(db, adminEmail, adminPassword)
}
