// Package cmd - migrate command
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"roofquote/adapters/storage"
	"roofquote/internal/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the SQL storage schema",
	Long: `Apply or roll back schema migrations for the sqlite, mysql and postgres
storage backends. Other backends have no schema.`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(func(m storage.Migrator) error {
			if err := m.Migrate(); err != nil {
				return err
			}
			return printSchemaVersion(m)
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(func(m storage.Migrator) error {
			if err := m.Rollback(); err != nil {
				return err
			}
			return printSchemaVersion(m)
		})
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the current schema version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(printSchemaVersion)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
}

func withMigrator(fn func(storage.Migrator) error) error {
	cfg := config.Get().Storage
	cfg.MigrateOnStart = false

	store, err := storage.Open(context.Background(), cfg)
	if err != nil {
		return err
	}
	if store == nil {
		return fmt.Errorf("storage backend is none; nothing to migrate")
	}
	defer store.Close()

	m, ok := store.(storage.Migrator)
	if !ok {
		return fmt.Errorf("the %s backend has no schema to migrate", cfg.Backend)
	}
	return fn(m)
}

func printSchemaVersion(m storage.Migrator) error {
	v, err := m.SchemaVersion()
	if err != nil {
		return err
	}
	fmt.Printf("schema version %d\n", v)
	return nil
}
