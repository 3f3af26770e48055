package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port == "" {
		t.Fatalf("expected default port")
	}
	if cfg.App.VATRate != 0.20 {
		t.Fatalf("expected default VAT 0.20 got %v", cfg.App.VATRate)
	}
	if cfg.Database.Driver != "postgres" && os.Getenv("DB_DRIVER") == "" {
		t.Fatalf("expected postgres driver got %q", cfg.Database.Driver)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yml := "server:\n  port: \"9090\"\ndatabase:\n  driver: SQLite\n  path: /tmp/x.db\napp:\n  media_dir: /srv/media\n"
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("MEDIA_DIR", "/override")
	t.Setenv("MIGRATIONS", "yes")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Fatalf("port from file: got %q", cfg.Server.Port)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Fatalf("driver should be lower-cased, got %q", cfg.Database.Driver)
	}
	if cfg.App.MediaDir != "/override" {
		t.Fatalf("env must override file, got %q", cfg.App.MediaDir)
	}
	if !cfg.App.Migrations {
		t.Fatalf("MIGRATIONS=yes should enable migrations")
	}
}

func TestDatabaseURL(t *testing.T) {
	d := DatabaseConfig{User: "u", Password: "p", Host: "h", Port: 5432, DBName: "n", SSLMode: "disable"}
	if got, want := d.URL(), "postgres://u:p@h:5432/n?sslmode=disable"; got != want {
		t.Fatalf("URL() = %q, want %q", got, want)
	}
}
