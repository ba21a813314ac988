// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Aikotoba Contributors

package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/aikotoba/aikotoba/internal/auth"
	authpg "github.com/aikotoba/aikotoba/internal/auth/postgres"
	"github.com/aikotoba/aikotoba/internal/config"
	"github.com/aikotoba/aikotoba/internal/logging"
	"github.com/aikotoba/aikotoba/internal/observability"
	"github.com/aikotoba/aikotoba/internal/store"
)

const shutdownTimeout = 5 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the backend process",
		Long: `Run the backend process: the expired-token sweeper and the
metrics/health HTTP server, connected to PostgreSQL.`,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logging.SetDefault("aikotoba", version, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("starting", "version", version)

	pool, err := store.NewPool(ctx, cfg.Database.URL, cfg.Database.ConnectTimeout)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").
			With("operation", "connect to database").
			Wrap(err)
	}
	defer pool.Close()
	slog.Info("connected to database")

	svc, sweeper, err := buildAuth(pool, cfg)
	if err != nil {
		return err
	}

	// Startup check: the reference data must be present, otherwise
	// registration can never succeed and migrations were not run.
	checkCtx, checkCancel := context.WithTimeout(ctx, cfg.Database.QueryTimeout)
	prefectures, err := svc.Prefectures(checkCtx)
	checkCancel()
	if err != nil {
		return oops.Code("STARTUP_CHECK_FAILED").
			Hint("run `aikotoba migrate up` first").
			Wrap(err)
	}
	slog.Info("reference data loaded", "prefectures", len(prefectures))

	sweeper.Start(ctx)
	defer sweeper.Stop()
	slog.Info("sweeper started", "interval", cfg.Sweep.Interval)

	obsServer := observability.NewServer(cfg.Observability.Addr, func() bool {
		pingCtx, cancel := context.WithTimeout(ctx, cfg.Database.QueryTimeout)
		defer cancel()
		return pool.Ping(pingCtx) == nil
	})
	obsErrChan, err := obsServer.Start()
	if err != nil {
		return oops.Code("OBSERVABILITY_START_FAILED").
			With("addr", cfg.Observability.Addr).
			Wrap(err)
	}
	slog.Info("observability server started", "addr", obsServer.Addr())

	cmd.Println("aikotoba started")

	select {
	case <-ctx.Done():
		slog.Info("received shutdown signal")
	case err := <-obsErrChan:
		slog.Error("observability server failed", "error", err)
	}

	slog.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := obsServer.Stop(shutdownCtx); err != nil {
		slog.Warn("error stopping observability server", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// buildAuth wires the repositories and domain services onto the pool.
func buildAuth(db authpg.DB, cfg config.Config) (*auth.Service, *auth.Sweeper, error) {
	accounts := authpg.NewAccountRepository(db)
	prefectures := authpg.NewPrefectureRepository(db)
	tokens := authpg.NewTokenRepository(db)
	transactor := authpg.NewTransactor(db)

	signer, err := auth.NewHS256Signer([]byte(cfg.Token.Secret))
	if err != nil {
		return nil, nil, err
	}
	issuer, err := auth.NewIssuer(tokens, transactor, signer, cfg.Token.AccessTTL, cfg.Token.RefreshTTL)
	if err != nil {
		return nil, nil, err
	}
	svc, err := auth.NewService(accounts, prefectures, tokens, auth.NewArgon2idHasher(), issuer)
	if err != nil {
		return nil, nil, err
	}
	sweeper, err := auth.NewSweeper(tokens, cfg.Sweep.Interval)
	if err != nil {
		return nil, nil, err
	}
	sweeper.WithQueryTimeout(cfg.Database.QueryTimeout)
	return svc, sweeper, nil
}
