package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cds-scoring-engine/internal/database"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the Postgres schema",
	}
	cmd.PersistentFlags().String("database-url", "", "Postgres URL (required)")
	cmd.PersistentFlags().String("path", "migrations", "Path to migrations directory")
	_ = cmd.MarkPersistentFlagRequired("database-url")

	run := func(action func(cmd *cobra.Command, mr *database.MigrationRunner) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			url, _ := cmd.Flags().GetString("database-url")
			path, _ := cmd.Flags().GetString("path")

			mr, err := database.NewMigrationRunner(url, path, loggerFor(cmd))
			if err != nil {
				return err
			}
			defer mr.Close()
			return action(cmd, mr)
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, mr *database.MigrationRunner) error {
			return mr.Up(cmd.Context())
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, mr *database.MigrationRunner) error {
			return mr.Down(cmd.Context())
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, mr *database.MigrationRunner) error {
			version, dirty, err := mr.Version()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
			return err
		}),
	})
	return cmd
}
