// Package db connects to the database, applies migrations and seeds the
// authorization data.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/itsazizbob-max/YOUSS-DASH7/internal/config"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const connectAttempts = 10

// Open connects with the configured driver, retrying while postgres starts up.
func Open(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres", "":
		dialector = postgres.Open(cfg.DSN())
	case "sqlite":
		dialector = sqlite.Open(cfg.Path + "?_foreign_keys=1")
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	level := logger.Silent
	if cfg.Debug {
		level = logger.Info
	}
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(level)}

	var (
		db  *gorm.DB
		err error
	)
	for i := 1; i <= connectAttempts; i++ {
		db, err = gorm.Open(dialector, gcfg)
		if err == nil {
			err = ping(ctx, db)
		}
		if err == nil {
			break
		}
		log.Warn("database not ready, retrying", zap.Int("attempt", i), zap.Error(err))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connect database after %d attempts: %w", connectAttempts, err)
	}
	log.Info("database connected", zap.String("driver", dialector.Name()))
	return db, nil
}

// Ping checks the connection, used by /healthz.
func Ping(ctx context.Context, db *gorm.DB) error {
	return ping(ctx, db)
}

func ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}
