package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/itsazizbob-max/YOUSS-DASH7/internal/audit"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/db"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/export"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/ingest"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/models"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/services"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newMigrateCmd(e *env) *cobra.Command {
	var sql bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Long: `Without flags the schema is created from the models (AutoMigrate).
With --sql the versioned migrations in ./migrations are applied instead
(postgres only).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if sql {
				if e.cfg.Database.Driver == "sqlite" {
					return fmt.Errorf("--sql needs the postgres driver")
				}
				if err := db.MigrateSQL(db.MigrationsSource, e.cfg.Database.URL()); err != nil {
					return err
				}
			} else if err := db.Migrate(e.db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
	cmd.Flags().BoolVar(&sql, "sql", false, "apply the versioned SQL migrations")
	return cmd
}

func newSeedCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed profiles, permissions, the invoice counter and the bootstrap admin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := db.Seed(e.db, e.cfg.App.AdminEmail, e.cfg.App.AdminPassword); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "seed complete")
			return nil
		},
	}
}

func newImportCmd(e *env) *cobra.Command {
	var kind, batch string
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import an .xlsx or .xls workbook",
		Example: `  dashctl import --kind intervention --batch LOT-03 interventions.xlsx
  dashctl import --kind fuel-log carburant.xls`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			rec := audit.NewRecorder(e.db, e.log)
			pipeline := ingest.New(e.db, rec, nil, e.log, ingest.Options{VATRate: vatRate(e)})
			res, err := pipeline.Ingest(cmd.Context(), ingest.Request{
				Kind:     kind,
				Filename: filepath.Base(args[0]),
				Body:     f,
				Batch:    batch,
				Actor:    cliActor,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d row(s) created, %d rejected\n", res.Created, len(res.Errors))
			for _, msg := range res.Errors {
				fmt.Fprintln(out, "  "+msg)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", string(models.SheetInterventions), "intervention or fuel-log")
	cmd.Flags().StringVar(&batch, "batch", "", "batch code attached to imported interventions")
	return cmd
}

func newExportCmd(e *env) *cobra.Command {
	var kind, output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a ledger to an .xlsx workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			k, ok := models.ParseSheetKind(kind)
			if !ok {
				return fmt.Errorf("unknown kind %q (want intervention or fuel-log)", kind)
			}
			f, err := export.New(e.db).Export(cmd.Context(), k, cliActor)
			if err != nil {
				return err
			}
			path := output
			if path == "" {
				path = f.Name
			}
			if err := os.WriteFile(path, f.Data, 0o644); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", string(models.SheetInterventions), "intervention or fuel-log")
	cmd.Flags().StringVarP(&output, "output", "o", "", "destination file (default: generated name in the current directory)")
	return cmd
}

func newNextNumberCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "next-number",
		Short: "Print the number the next invoice will receive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := services.NewNumberer(e.db).Next(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}
}

func vatRate(e *env) decimal.Decimal {
	return decimal.NewFromFloat(e.cfg.App.VATRate)
}
