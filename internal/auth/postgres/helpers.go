// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Aikotoba Contributors

package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB abstracts the pgx connection pool so repositories work with
// *pgxpool.Pool in production and pgxmock in unit tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// querier is the subset of DB shared with pgx.Tx, so repository
// methods run against whichever handle the context carries.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// txKey is the context key under which Transactor stores the active
// transaction.
type txKey struct{}

// queryTarget returns the transaction from ctx if one is active,
// falling back to the pool handle.
func queryTarget(ctx context.Context, db DB) querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return db
}
