package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Strob0t/runhooks/internal/adapter/postgres"
	"github.com/Strob0t/runhooks/internal/config"
)

func newMigrateCmd(collect func() config.CLIFlags) *cobra.Command {
	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the hooks database schema",
	}

	loadDSN := func() (string, error) {
		cfg, _, err := config.LoadWithCLI(collect())
		if err != nil {
			return "", err
		}
		return cfg.Postgres.DSN, nil
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			dsn, err := loadDSN()
			if err != nil {
				return err
			}
			if err := postgres.RunMigrations(cmd.Context(), dsn); err != nil {
				return err
			}
			return printVersion(cmd, dsn)
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if steps < 1 {
				return fmt.Errorf("--steps must be at least 1")
			}
			dsn, err := loadDSN()
			if err != nil {
				return err
			}
			if err := postgres.RollbackMigrations(cmd.Context(), dsn, steps); err != nil {
				return err
			}
			return printVersion(cmd, dsn)
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	status := &cobra.Command{
		Use:   "status",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			dsn, err := loadDSN()
			if err != nil {
				return err
			}
			return printVersion(cmd, dsn)
		},
	}

	migrate.AddCommand(up, down, status)
	return migrate
}

func printVersion(cmd *cobra.Command, dsn string) error {
	v, err := postgres.MigrationVersion(cmd.Context(), dsn)
	if err != nil {
		return err
	}
	cmd.Printf("schema version: %d\n", v)
	return nil
}
