package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"invoicepro/internal/infrastructure/migration"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
	Long: `Applies the SQL schema to DATABASE_URL.

The schema embedded in the binary is used unless MIGRATIONS_PATH points at a
directory of NNNNNN_name.up.sql / NNNNNN_name.down.sql files.`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withMigrator(func(m *migration.Migrator) error {
			return m.Up(cmd.Context())
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down [steps]",
	Short: "Roll back migrations (default one step)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		steps := 1
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 {
				return fmt.Errorf("steps must be a positive integer, got %q", args[0])
			}
			steps = n
		}
		return withMigrator(func(m *migration.Migrator) error {
			return m.Down(cmd.Context(), steps)
		})
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withMigrator(func(m *migration.Migrator) error {
			v, dirty, err := m.Version()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d dirty=%t\n", v, dirty)
			return nil
		})
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateVersionCmd)
	rootCmd.AddCommand(migrateCmd)
}

func withMigrator(fn func(m *migration.Migrator) error) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	m, err := migration.Open(cfg.DatabaseURL, cfg.MigrationsPath)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()
	return fn(m)
}
