// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Aikotoba Contributors

package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/aikotoba/aikotoba/internal/auth"
	authpg "github.com/aikotoba/aikotoba/internal/auth/postgres"
	"github.com/aikotoba/aikotoba/internal/config"
	"github.com/aikotoba/aikotoba/internal/logging"
	"github.com/aikotoba/aikotoba/internal/store"
)

// NewSweepCmd creates the sweep subcommand.
func NewSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Remove expired token pairs once and exit",
		Long: `Run a single sweep cycle that deletes every token pair whose
refresh window has closed, then exit. Useful from cron when the serve
process is not running.`,
		RunE: runSweep,
	}
}

func runSweep(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.Database.Validate(); err != nil {
		return err
	}

	logging.SetDefault("aikotoba", version, cfg.Log.Format)

	ctx := cmd.Context()
	pool, err := store.NewPool(ctx, cfg.Database.URL, cfg.Database.ConnectTimeout)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").
			With("operation", "connect to database").
			Wrap(err)
	}
	defer pool.Close()

	sweeper, err := auth.NewSweeper(authpg.NewTokenRepository(pool), cfg.Sweep.Interval)
	if err != nil {
		return err
	}
	sweeper.WithQueryTimeout(cfg.Database.QueryTimeout)
	if err := sweeper.RunOnce(ctx); err != nil {
		return err
	}

	cmd.Println("Sweep completed")
	return nil
}
