// Package config provides application configuration loaded from an optional YAML
// file and environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	App      AppConfig      `koanf:"app"`
	Log      LogConfig      `koanf:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string `koanf:"port"`
	ReadTimeout  int    `koanf:"read_timeout"`  // seconds
	WriteTimeout int    `koanf:"write_timeout"` // seconds
	IdleTimeout  int    `koanf:"idle_timeout"`  // seconds
}

// DatabaseConfig holds connection settings. Driver is "postgres" or "sqlite".
type DatabaseConfig struct {
	Driver   string `koanf:"driver"`
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	DBName   string `koanf:"name"`
	SSLMode  string `koanf:"sslmode"`
	Path     string `koanf:"path"`
	Debug    bool   `koanf:"debug"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Dev           bool    `koanf:"dev"`
	Migrations    bool    `koanf:"migrations"`
	Seed          bool    `koanf:"seed"`
	MediaDir      string  `koanf:"media_dir"`
	SessionSecret string  `koanf:"session_secret"`
	AdminEmail    string  `koanf:"admin_email"`
	AdminPassword string  `koanf:"admin_password"`
	VATRate       float64 `koanf:"vat_rate"`
}

// LogConfig mirrors logger.Config.
type LogConfig struct {
	Level      string `koanf:"level"`
	Format     string `koanf:"format"`
	Output     string `koanf:"output"`
	FilePath   string `koanf:"file"`
	MaxSizeMB  int    `koanf:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups"`
}

// DSN returns the PostgreSQL connection string in key=value format.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// URL returns the PostgreSQL connection string in URL format.
// golang-migrate only understands this form.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// Load reads the YAML file at path (skipped when empty), applies defaults and then
// environment overrides. Environment always wins.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	applyDefaults(k)
	applyEnvOverrides(k)

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Database.Driver = strings.ToLower(cfg.Database.Driver)
	return &cfg, nil
}

func applyDefaults(k *koanf.Koanf) {
	setDefault(k, "server.port", "8080")
	setDefault(k, "server.read_timeout", 15)
	setDefault(k, "server.write_timeout", 30)
	setDefault(k, "server.idle_timeout", 60)

	setDefault(k, "database.driver", "postgres")
	setDefault(k, "database.host", "localhost")
	setDefault(k, "database.port", 5432)
	setDefault(k, "database.user", "dash")
	setDefault(k, "database.password", "dash123")
	setDefault(k, "database.name", "dash")
	setDefault(k, "database.sslmode", "disable")
	setDefault(k, "database.path", "dash.db")

	setDefault(k, "app.dev", false)
	setDefault(k, "app.media_dir", "media")
	setDefault(k, "app.session_secret", "devsessionsecret")
	setDefault(k, "app.vat_rate", 0.20)

	setDefault(k, "log.level", "info")
	setDefault(k, "log.format", "json")
	setDefault(k, "log.output", "stdout")
	setDefault(k, "log.max_size_mb", 50)
	setDefault(k, "log.max_backups", 5)
}

func applyEnvOverrides(k *koanf.Koanf) {
	overrideString(k, "server.port", "PORT")
	overrideInt(k, "server.read_timeout", "SERVER_READ_TIMEOUT")
	overrideInt(k, "server.write_timeout", "SERVER_WRITE_TIMEOUT")
	overrideInt(k, "server.idle_timeout", "SERVER_IDLE_TIMEOUT")

	overrideString(k, "database.driver", "DB_DRIVER")
	overrideString(k, "database.host", "DB_HOST")
	overrideInt(k, "database.port", "DB_PORT")
	overrideString(k, "database.user", "DB_USER")
	overrideString(k, "database.password", "DB_PASSWORD")
	overrideString(k, "database.name", "DB_NAME")
	overrideString(k, "database.sslmode", "DB_SSLMODE")
	overrideString(k, "database.path", "DB_PATH")
	overrideBool(k, "database.debug", "DB_DEBUG")

	overrideBool(k, "app.dev", "DEV")
	overrideBool(k, "app.migrations", "MIGRATIONS")
	overrideBool(k, "app.seed", "DB_SEED")
	overrideString(k, "app.media_dir", "MEDIA_DIR")
	overrideString(k, "app.session_secret", "SESSION_SECRET")
	overrideString(k, "app.admin_email", "ADMIN_EMAIL")
	overrideString(k, "app.admin_password", "ADMIN_PASSWORD")
	if v := os.Getenv("VAT_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			k.Set("app.vat_rate", f)
		}
	}

	overrideString(k, "log.level", "LOG_LEVEL")
	overrideString(k, "log.format", "LOG_FORMAT")
	overrideString(k, "log.output", "LOG_OUTPUT")
	overrideString(k, "log.file", "LOG_FILE")
}

// setDefault only sets the value if the key doesn't already exist.
func setDefault(k *koanf.Koanf, key string, value any) {
	if !k.Exists(key) {
		k.Set(key, value)
	}
}

func overrideString(k *koanf.Koanf, key, env string) {
	if v := os.Getenv(env); v != "" {
		k.Set(key, v)
	}
}

func overrideInt(k *koanf.Koanf, key, env string) {
	if v := os.Getenv(env); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			k.Set(key, i)
		}
	}
}

// overrideBool accepts "1", "true", "yes" as true; any other non-empty value is false.
func overrideBool(k *koanf.Koanf, key, env string) {
	v := strings.ToLower(os.Getenv(env))
	if v == "" {
		return
	}
	k.Set(key, v == "1" || v == "true" || v == "yes")
}
