// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Aikotoba Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/aikotoba/aikotoba/internal/auth"
)

// TokenRepository implements auth.TokenRepository using PostgreSQL.
type TokenRepository struct {
	db DB
}

// NewTokenRepository creates a new TokenRepository.
func NewTokenRepository(db DB) *TokenRepository {
	return &TokenRepository{db: db}
}

const tokenColumns = `id, account_id, access, access_expired_at, refresh, refresh_expired_at`

// Create stores a new token pair.
func (r *TokenRepository) Create(ctx context.Context, pair *auth.TokenPair) error {
	_, err := queryTarget(ctx, r.db).Exec(ctx, `
		INSERT INTO jwt_tokens (`+tokenColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		pair.ID.String(),
		pair.AccountID.String(),
		pair.Access,
		pair.AccessExpiresAt,
		pair.Refresh,
		pair.RefreshExpiresAt,
	)
	if err != nil {
		return oops.Code("TOKEN_CREATE_FAILED").
			With("operation", "insert token pair").
			With("account_id", pair.AccountID.String()).
			Wrap(classify(err))
	}
	return nil
}

// GetByAccess retrieves a pair by its access token string.
func (r *TokenRepository) GetByAccess(ctx context.Context, access string) (*auth.TokenPair, error) {
	return r.getByToken(ctx, "access", access)
}

// GetByRefresh retrieves a pair by its refresh token string.
func (r *TokenRepository) GetByRefresh(ctx context.Context, refresh string) (*auth.TokenPair, error) {
	return r.getByToken(ctx, "refresh", refresh)
}

func (r *TokenRepository) getByToken(ctx context.Context, column, token string) (*auth.TokenPair, error) {
	row := queryTarget(ctx, r.db).QueryRow(ctx, `
		SELECT `+tokenColumns+`
		FROM jwt_tokens
		WHERE `+column+` = $1
	`, token)

	pair, err := scanTokenPair(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("TOKEN_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("TOKEN_GET_FAILED").
			With("operation", "get token pair by "+column).
			Wrap(classify(err))
	}
	return pair, nil
}

// Delete removes a pair by ID.
func (r *TokenRepository) Delete(ctx context.Context, id ulid.ULID) error {
	result, err := queryTarget(ctx, r.db).Exec(ctx, `
		DELETE FROM jwt_tokens WHERE id = $1
	`, id.String())
	if err != nil {
		return oops.Code("TOKEN_DELETE_FAILED").
			With("operation", "delete token pair").
			With("id", id.String()).
			Wrap(classify(err))
	}
	if result.RowsAffected() == 0 {
		return oops.Code("TOKEN_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// DeleteByAccount removes all pairs for an account.
func (r *TokenRepository) DeleteByAccount(ctx context.Context, accountID ulid.ULID) error {
	_, err := queryTarget(ctx, r.db).Exec(ctx, `
		DELETE FROM jwt_tokens WHERE account_id = $1
	`, accountID.String())
	if err != nil {
		return oops.Code("TOKEN_DELETE_BY_ACCOUNT_FAILED").
			With("operation", "delete token pairs by account").
			With("account_id", accountID.String()).
			Wrap(classify(err))
	}
	// No ErrNotFound if no rows deleted - that's a valid state.
	return nil
}

// DeleteExpiredBefore removes pairs whose refresh window closed before
// the cutoff and returns the count.
func (r *TokenRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := queryTarget(ctx, r.db).Exec(ctx, `
		DELETE FROM jwt_tokens WHERE refresh_expired_at < $1
	`, cutoff)
	if err != nil {
		return 0, oops.Code("TOKEN_DELETE_EXPIRED_FAILED").
			With("operation", "delete expired token pairs").
			Wrap(classify(err))
	}
	return result.RowsAffected(), nil
}

// scanTokenPair scans a single row into a TokenPair.
// Callers are responsible for handling pgx.ErrNoRows.
func scanTokenPair(row pgx.Row) (*auth.TokenPair, error) {
	var (
		idStr            string
		accountIDStr     string
		access           string
		accessExpiresAt  time.Time
		refresh          string
		refreshExpiresAt time.Time
	)

	err := row.Scan(&idStr, &accountIDStr, &access, &accessExpiresAt, &refresh, &refreshExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("TOKEN_SCAN_FAILED").
			With("operation", "scan token pair").
			Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("TOKEN_INVALID_ID").
			With("operation", "parse token id").
			With("id", idStr).
			Wrap(err)
	}

	accountID, err := ulid.Parse(accountIDStr)
	if err != nil {
		return nil, oops.Code("TOKEN_INVALID_ACCOUNT_ID").
			With("operation", "parse account id").
			With("account_id", accountIDStr).
			Wrap(err)
	}

	return &auth.TokenPair{
		ID:               id,
		AccountID:        accountID,
		Access:           access,
		AccessExpiresAt:  accessExpiresAt,
		Refresh:          refresh,
		RefreshExpiresAt: refreshExpiresAt,
	}, nil
}

// Compile-time interface check.
var _ auth.TokenRepository = (*TokenRepository)(nil)
