/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"
	"github.com/tasktrack/apiserver/config"
	"github.com/tasktrack/apiserver/internal/db"
	"github.com/tasktrack/apiserver/internal/store"
)

var migrationsDir string

// migrateCmd represents the migrate command.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all up migrations",
	Long: `Apply all up migrations. With the postgres store this runs the SQL
migrations; with the mongo store it creates the collection indexes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}

		switch cfg.StoreDriver {
		case config.StoreMongo:
			client, database, err := db.OpenMongo(cmd.Context(), cfg.Mongo)
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Disconnect(cmd.Context())
			}()
			return store.EnsureMongoIndexes(cmd.Context(), database)
		case config.StorePostgres:
			return runMigrations(cfg, func(m *migrate.Migrate) error { return m.Up() })
		default:
			return fmt.Errorf("store driver %q has no migrations", cfg.StoreDriver)
		}
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		if cfg.StoreDriver != config.StorePostgres {
			return fmt.Errorf("migrate down requires the postgres store, got %q", cfg.StoreDriver)
		}
		return runMigrations(cfg, func(m *migrate.Migrate) error { return m.Steps(-1) })
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
	migrateCmd.PersistentFlags().StringVar(&migrationsDir, "dir", "internal/db/migrations", "directory holding the SQL migrations")
}

func runMigrations(cfg config.Config, step func(*migrate.Migrate) error) error {
	migrator, err := migrate.New("file://"+migrationsDir, db.PostgresURL(cfg.Database))
	if err != nil {
		return fmt.Errorf("init migrator failed: %w", err)
	}
	defer func() {
		_, _ = migrator.Close()
	}()

	if err := step(migrator); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return fmt.Errorf("migrate failed: %w", err)
	}
	return nil
}
