// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Aikotoba Contributors

package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Global flag available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the aikotoba CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aikotoba",
		Short: "Aikotoba - account registration and token lifecycle backend",
		Long: `Aikotoba is the account backend: registration, login with
access/refresh token pairs, token rotation, and expired-token sweeping
over PostgreSQL.`,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	registerConfigFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewSweepCmd())
	cmd.AddCommand(NewStatusCmd())

	return cmd
}

// registerConfigFlags declares the dotted flags the koanf posflag
// provider overlays onto the config file.
func registerConfigFlags(flags *pflag.FlagSet) {
	flags.String("database.url", "", "PostgreSQL connection URL")
	flags.Duration("database.connect_timeout", 0, "database connect timeout")
	flags.Duration("database.query_timeout", 0, "per-query timeout")
	flags.String("token.secret", "", "token signing secret")
	flags.Duration("token.access_ttl", 0, "access token lifetime")
	flags.Duration("token.refresh_ttl", 0, "refresh token lifetime")
	flags.Duration("sweep.interval", 0, "expired-token sweep interval")
	flags.String("log.format", "", "log format: json or text")
	flags.String("observability.addr", "", "metrics/health listen address")
}
