// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Aikotoba Contributors

package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Pool connection defaults.
const (
	DefaultConnectTimeout = 5 * time.Second
	pingRetryBase         = 250 * time.Millisecond
	pingRetryAttempts     = 5
)

// NewPool creates a pgx connection pool and verifies connectivity.
// The initial ping is retried with backoff so a service starting
// alongside its database does not fail on the first attempt.
func NewPool(ctx context.Context, databaseURL string, connectTimeout time.Duration) (*pgxpool.Pool, error) {
	if connectTimeout <= 0 {
		connectTimeout = DefaultConnectTimeout
	}

	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, oops.Code("DB_CONFIG_INVALID").With("operation", "parse database url").Wrap(err)
	}
	cfg.ConnConfig.ConnectTimeout = connectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "create pool").Wrap(err)
	}

	backoff := retry.WithMaxRetries(pingRetryAttempts, retry.NewFibonacci(pingRetryBase))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, oops.Code("DB_PING_FAILED").With("operation", "ping database").Wrap(err)
	}

	return pool, nil
}
