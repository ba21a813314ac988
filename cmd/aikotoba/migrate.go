// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Aikotoba Contributors

package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/aikotoba/aikotoba/internal/config"
	"github.com/aikotoba/aikotoba/internal/store"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
		Long:  `Apply, roll back, or inspect schema migrations on the PostgreSQL database.`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE:  runMigrateUp,
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back all migrations",
			RunE:  runMigrateDown,
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current migration version",
			RunE:  runMigrateVersion,
		},
	)

	return cmd
}

func runMigrateUp(cmd *cobra.Command, _ []string) error {
	migrator, err := openMigrator(cmd)
	if err != nil {
		return err
	}
	defer closeMigrator(cmd, migrator)

	cmd.Println("Running migrations...")
	if err := migrator.Up(); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "apply migrations").Wrap(err)
	}
	cmd.Println("Migrations completed successfully")
	return nil
}

func runMigrateDown(cmd *cobra.Command, _ []string) error {
	migrator, err := openMigrator(cmd)
	if err != nil {
		return err
	}
	defer closeMigrator(cmd, migrator)

	cmd.Println("Rolling back migrations...")
	if err := migrator.Down(); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "roll back migrations").Wrap(err)
	}
	cmd.Println("Rollback completed successfully")
	return nil
}

func runMigrateVersion(cmd *cobra.Command, _ []string) error {
	migrator, err := openMigrator(cmd)
	if err != nil {
		return err
	}
	defer closeMigrator(cmd, migrator)

	version, dirty, err := migrator.Version()
	if err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "read migration version").Wrap(err)
	}
	if version == 0 {
		cmd.Println("No migrations applied")
		return nil
	}
	cmd.Printf("Version: %d (dirty: %t)\n", version, dirty)
	return nil
}

func openMigrator(cmd *cobra.Command) (*store.Migrator, error) {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	if cfg.Database.URL == "" {
		return nil, oops.Code("CONFIG_INVALID").Errorf("database.url is required")
	}
	return store.NewMigrator(cfg.Database.URL)
}

func closeMigrator(cmd *cobra.Command, migrator *store.Migrator) {
	if err := migrator.Close(); err != nil {
		cmd.PrintErrln("warning: closing migrator:", err)
	}
}
