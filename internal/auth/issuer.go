// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Aikotoba Contributors

package auth

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// maxIssueAttempts bounds retries on unique-constraint collisions.
// Collisions require two tokens with identical random jti values, so
// a second attempt is already vanishingly unlikely.
const maxIssueAttempts = 3

// Issuer creates, rotates, and revokes token pairs.
type Issuer struct {
	tokens     TokenRepository
	tx         Transactor
	signer     TokenSigner
	accessTTL  time.Duration
	refreshTTL time.Duration
	clock      func() time.Time
}

// NewIssuer creates an Issuer. The refresh window must outlive the
// access window.
func NewIssuer(tokens TokenRepository, tx Transactor, signer TokenSigner, accessTTL, refreshTTL time.Duration) (*Issuer, error) {
	if tokens == nil {
		return nil, oops.Errorf("token repository is required")
	}
	if tx == nil {
		return nil, oops.Errorf("transactor is required")
	}
	if signer == nil {
		return nil, oops.Errorf("token signer is required")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, oops.Errorf("token TTLs must be positive")
	}
	if refreshTTL <= accessTTL {
		return nil, oops.
			With("access_ttl", accessTTL).
			With("refresh_ttl", refreshTTL).
			Errorf("refresh TTL must exceed access TTL")
	}
	return &Issuer{
		tokens:     tokens,
		tx:         tx,
		signer:     signer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		clock:      time.Now,
	}, nil
}

// WithClock overrides the time source. Intended for tests.
func (i *Issuer) WithClock(clock func() time.Time) *Issuer {
	i.clock = clock
	return i
}

// Issue signs a new access/refresh pair for the account and persists
// it. Unique-constraint collisions are retried with freshly signed
// tokens.
func (i *Issuer) Issue(ctx context.Context, accountID ulid.ULID) (*TokenPair, error) {
	var lastErr error
	for attempt := 0; attempt < maxIssueAttempts; attempt++ {
		pair, err := i.signAndStore(ctx, accountID)
		if err != nil {
			if errors.Is(err, ErrConflict) {
				lastErr = err
				continue
			}
			return nil, err
		}
		return pair, nil
	}

	return nil, oops.Code("TOKEN_ISSUE_FAILED").
		With("attempts", maxIssueAttempts).
		Wrapf(lastErr, "token strings collided on every attempt")
}

// signAndStore makes a single attempt at signing and persisting a
// fresh pair. A unique collision is returned as ErrConflict for the
// caller to retry; inside a transaction the collision has already
// aborted it, so the retry must re-run the whole transaction.
func (i *Issuer) signAndStore(ctx context.Context, accountID ulid.ULID) (*TokenPair, error) {
	now := i.clock()
	accessExpiresAt := now.Add(i.accessTTL)
	refreshExpiresAt := now.Add(i.refreshTTL)

	access, err := i.signer.Sign(accountID, accessExpiresAt)
	if err != nil {
		return nil, oops.Code("TOKEN_ISSUE_FAILED").
			With("operation", "sign access token").
			Wrap(err)
	}
	refresh, err := i.signer.Sign(accountID, refreshExpiresAt)
	if err != nil {
		return nil, oops.Code("TOKEN_ISSUE_FAILED").
			With("operation", "sign refresh token").
			Wrap(err)
	}

	pair, err := NewTokenPair(accountID, access, accessExpiresAt, refresh, refreshExpiresAt)
	if err != nil {
		return nil, oops.Code("TOKEN_ISSUE_FAILED").
			With("operation", "build token pair").
			Wrap(err)
	}

	if err := i.tokens.Create(ctx, pair); err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, err
		}
		return nil, oops.Code("TOKEN_ISSUE_FAILED").
			With("operation", "persist token pair").
			With("account_id", accountID.String()).
			Wrap(err)
	}
	return pair, nil
}

// Refresh rotates a token pair: the old row is deleted and a new pair
// issued for the same account in one transaction, so the old refresh
// token is invalid the moment the new one exists. Returns
// ErrNotFound for unknown tokens and ErrTokenExpired when the refresh
// window has closed or the row was swept mid-rotation. A unique
// collision aborts the transaction, so the retry re-runs the whole
// rotation rather than just the insert.
func (i *Issuer) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	old, err := i.tokens.GetByRefresh(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, oops.Code("TOKEN_REFRESH_FAILED").
			With("operation", "get token pair by refresh").
			Wrap(err)
	}

	if old.RefreshExpiredAt(i.clock()) {
		return nil, oops.Code("TOKEN_REFRESH_EXPIRED").
			With("refresh_expires_at", old.RefreshExpiresAt).
			Wrap(ErrTokenExpired)
	}

	var lastErr error
	for attempt := 0; attempt < maxIssueAttempts; attempt++ {
		fresh, err := i.rotate(ctx, old)
		if err != nil {
			// The rollback restored the old row, so the rotation
			// can run again from scratch.
			if errors.Is(err, ErrConflict) {
				lastErr = err
				continue
			}
			return nil, err
		}
		return fresh, nil
	}

	return nil, oops.Code("TOKEN_REFRESH_FAILED").
		With("attempts", maxIssueAttempts).
		Wrapf(lastErr, "token strings collided on every attempt")
}

// rotate deletes the old pair and stores a fresh one in a single
// transaction.
func (i *Issuer) rotate(ctx context.Context, old *TokenPair) (*TokenPair, error) {
	var fresh *TokenPair
	err := i.tx.InTransaction(ctx, func(txCtx context.Context) error {
		if err := i.tokens.Delete(txCtx, old.ID); err != nil {
			// The sweeper removed the row between lookup and
			// rotation. Fail expired rather than recreate it.
			if errors.Is(err, ErrNotFound) {
				return oops.Code("TOKEN_REFRESH_EXPIRED").Wrap(ErrTokenExpired)
			}
			return oops.Code("TOKEN_REFRESH_FAILED").
				With("operation", "delete rotated pair").
				With("token_id", old.ID.String()).
				Wrap(err)
		}
		pair, err := i.signAndStore(txCtx, old.AccountID)
		if err != nil {
			return err
		}
		fresh = pair
		return nil
	})
	if err != nil {
		return nil, err
	}
	return fresh, nil
}

// Revoke deletes the pair matching the given access or refresh token.
// Unknown tokens are not an error, so logout is idempotent.
func (i *Issuer) Revoke(ctx context.Context, token string) error {
	pair, err := i.tokens.GetByAccess(ctx, token)
	if errors.Is(err, ErrNotFound) {
		pair, err = i.tokens.GetByRefresh(ctx, token)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
	}
	if err != nil {
		return oops.Code("TOKEN_REVOKE_FAILED").
			With("operation", "look up token pair").
			Wrap(err)
	}

	if err := i.tokens.Delete(ctx, pair.ID); err != nil && !errors.Is(err, ErrNotFound) {
		return oops.Code("TOKEN_REVOKE_FAILED").
			With("operation", "delete token pair").
			With("token_id", pair.ID.String()).
			Wrap(err)
	}
	return nil
}
