package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/itsazizbob-max/YOUSS-DASH7/internal/config"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/db"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/logger"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/metrics"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/policy"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")
	seedOnlyFlag    = flag.Bool("seed-only", false, "Run DB seed and exit")
)

const shutdownTimeout = 10 * time.Second

func main() {
	flag.Parse()

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		// no logger yet
		panic(err)
	}

	log := logger.Must(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Output:      cfg.Log.Output,
		FilePath:    cfg.Log.FilePath,
		MaxSizeMB:   cfg.Log.MaxSizeMB,
		MaxBackups:  cfg.Log.MaxBackups,
		Development: cfg.App.Dev,
	})
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbConn, err := db.Open(ctx, cfg.Database, log)
	if err != nil {
		return err
	}

	if *migrateOnlyFlag {
		if err := migrate(dbConn, cfg); err != nil {
			return err
		}
		log.Info("migrations completed")
		return nil
	}
	if *seedOnlyFlag {
		if err := db.Seed(dbConn, cfg.App.AdminEmail, cfg.App.AdminPassword); err != nil {
			return err
		}
		log.Info("seeding completed")
		return nil
	}

	if cfg.App.Migrations {
		if err := migrate(dbConn, cfg); err != nil {
			return err
		}
		log.Info("migrations completed")
	}

	// profiles, permissions and the invoice counter are always needed
	if err := db.Seed(dbConn, cfg.App.AdminEmail, cfg.App.AdminPassword); err != nil {
		return err
	}

	m := metrics.New()
	routerCfg, err := policy.NewRouterConfig(dbConn, m, log, policy.Options{
		MediaDir:      cfg.App.MediaDir,
		SessionSecret: cfg.App.SessionSecret,
		VATRate:       decimal.NewFromFloat(cfg.App.VATRate),
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      NewApp(dbConn, routerCfg, log),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("port", cfg.Server.Port), zap.Bool("dev", cfg.App.Dev))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("error during shutdown", zap.Error(err))
	}
	if sqlDB, err := dbConn.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info("server stopped gracefully")
	return nil
}

// migrate applies the versioned SQL migrations on postgres and AutoMigrate
// on sqlite, which golang-migrate is not wired for here.
func migrate(dbConn *gorm.DB, cfg *config.Config) error {
	if cfg.Database.Driver == "sqlite" {
		return db.Migrate(dbConn)
	}
	return db.MigrateSQL(db.MigrationsSource, cfg.Database.URL())
}
