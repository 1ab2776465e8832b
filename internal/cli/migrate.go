package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MrEthical07/boardAuth/internal/config"
	"github.com/MrEthical07/boardAuth/internal/migrations"
	"github.com/spf13/cobra"
)

var errNoPostgres = errors.New("migrations require database.type postgres or store.backend postgres")

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the Postgres schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(cmd.Context(), migrations.Up)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(cmd.Context(), migrations.Down)
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print migration status and the current version",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(cmd.Context(), func(ctx context.Context, db *sql.DB) error {
			if err := migrations.Status(ctx, db); err != nil {
				return err
			}
			v, err := migrations.Version(ctx, db)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version: %d\n", v)
			return nil
		})
	},
}

func withDatabase(ctx context.Context, fn func(context.Context, *sql.DB) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	return migrateWith(ctx, cfg, fn)
}

func migrateWith(ctx context.Context, cfg *config.Config, fn func(context.Context, *sql.DB) error) error {
	if !cfg.NeedsPostgres() {
		return errNoPostgres
	}
	db, err := migrations.Open(ctx, cfg.Database.Postgres.DSN())
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(ctx, db)
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateStatusCmd)
	rootCmd.AddCommand(migrateCmd)
}
