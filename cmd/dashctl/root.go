package main

import (
	"fmt"
	"os"

	"github.com/itsazizbob-max/YOUSS-DASH7/internal/access"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/config"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/db"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// cliActor is recorded in the action log for everything dashctl does.
var cliActor = access.SystemActor("dashctl")

// env is what every subcommand works with, filled in by the root pre-run hook.
type env struct {
	cfgFile string
	verbose bool

	cfg *config.Config
	log *zap.Logger
	db  *gorm.DB
}

func newRootCmd() *cobra.Command {
	e := &env{}
	root := &cobra.Command{
		Use:           "dashctl",
		Short:         "Operator tasks for the vehicle-assistance back office",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return e.init(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			e.close()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().StringVar(&e.cfgFile, "config", os.Getenv("CONFIG_FILE"), "optional YAML configuration file")
	root.PersistentFlags().BoolVarP(&e.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newMigrateCmd(e),
		newSeedCmd(e),
		newImportCmd(e),
		newExportCmd(e),
		newNextNumberCmd(e),
	)
	return root
}

func (e *env) init(cmd *cobra.Command) error {
	if cmd.Name() == "help" || cmd == cmd.Root() {
		return nil
	}
	_ = godotenv.Load()

	cfg, err := config.Load(e.cfgFile)
	if err != nil {
		return err
	}
	e.cfg = cfg

	level := cfg.Log.Level
	if e.verbose {
		level = "debug"
	}
	// stdout carries command output
	e.log = logger.Must(logger.Config{Level: level, Format: "console", Output: "stderr"})

	e.db, err = db.Open(cmd.Context(), cfg.Database, e.log)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	return nil
}

func (e *env) close() {
	if e.db != nil {
		if sqlDB, err := e.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if e.log != nil {
		_ = e.log.Sync()
	}
}
