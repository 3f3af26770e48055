package db

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	// register the postgres driver and file source for golang-migrate
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/models"
	"gorm.io/gorm"
)

// MigrationsSource is where the versioned SQL migrations live.
const MigrationsSource = "file://migrations"

// Migrate runs AutoMigrate for all models.
func Migrate(db *gorm.DB) error {
	for _, m := range models.All() {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	for _, table := range []string{"users", "interventions", "invoices", "invoice_counters", "action_logs"} {
		if !db.Migrator().HasTable(table) {
			return errors.New("missing table after migration: " + table)
		}
	}
	return nil
}

// MigrateSQL applies the versioned migrations to the postgres database at url.
func MigrateSQL(source, url string) error {
	m, err := migrate.New(source, url)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
