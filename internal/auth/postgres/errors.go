// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Aikotoba Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/aikotoba/aikotoba/internal/auth"
)

// classify maps driver errors onto the auth sentinel taxonomy.
// Constraint violations become ErrConflict; timeouts, cancellations,
// and connection failures become ErrStoreUnavailable so callers can
// retry reads with backoff. Everything else passes through.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation, pgerrcode.ForeignKeyViolation:
			return oops.With("constraint", pgErr.ConstraintName).Wrapf(auth.ErrConflict, "%s", pgErr.Message)
		case pgerrcode.ConnectionException, pgerrcode.ConnectionFailure,
			pgerrcode.ConnectionDoesNotExist, pgerrcode.AdminShutdown,
			pgerrcode.CannotConnectNow, pgerrcode.TooManyConnections:
			return oops.Wrapf(auth.ErrStoreUnavailable, "%s", pgErr.Message)
		}
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return oops.Wrapf(auth.ErrStoreUnavailable, "store call timed out: %v", err)
	}

	return err
}
