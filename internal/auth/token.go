// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Aikotoba Contributors

package auth

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// TokenPair is one issued access/refresh token pair. A row is created
// on login or refresh, replaced on rotation, and deleted on logout,
// sweep, or account cascade.
type TokenPair struct {
	ID               ulid.ULID
	AccountID        ulid.ULID
	Access           string
	AccessExpiresAt  time.Time
	Refresh          string
	RefreshExpiresAt time.Time
}

// NewTokenPair creates a validated TokenPair with a fresh ULID.
// The access window must close strictly before the refresh window.
func NewTokenPair(accountID ulid.ULID, access string, accessExpiresAt time.Time, refresh string, refreshExpiresAt time.Time) (*TokenPair, error) {
	if accountID.Compare(ulid.ULID{}) == 0 {
		return nil, oops.Code("TOKEN_INVALID_ACCOUNT").Errorf("account ID cannot be zero")
	}
	if access == "" || refresh == "" {
		return nil, oops.Code("TOKEN_INVALID_VALUE").Errorf("token strings cannot be empty")
	}
	if !accessExpiresAt.Before(refreshExpiresAt) {
		return nil, oops.Code("TOKEN_INVALID_EXPIRY").
			With("access_expires_at", accessExpiresAt).
			With("refresh_expires_at", refreshExpiresAt).
			Errorf("access expiry must precede refresh expiry")
	}

	return &TokenPair{
		ID:               ulid.Make(),
		AccountID:        accountID,
		Access:           access,
		AccessExpiresAt:  accessExpiresAt,
		Refresh:          refresh,
		RefreshExpiresAt: refreshExpiresAt,
	}, nil
}

// AccessExpiredAt returns true if the access window is closed at t.
func (p *TokenPair) AccessExpiredAt(t time.Time) bool {
	return t.After(p.AccessExpiresAt)
}

// RefreshExpiredAt returns true if the refresh window is closed at t.
func (p *TokenPair) RefreshExpiredAt(t time.Time) bool {
	return t.After(p.RefreshExpiresAt)
}

// TokenRepository manages token pair persistence.
type TokenRepository interface {
	// Create stores a new token pair. Returns ErrConflict if either
	// token string collides with an existing row.
	Create(ctx context.Context, pair *TokenPair) error

	// GetByAccess retrieves a pair by its access token string.
	// Returns ErrNotFound if the string is unknown.
	GetByAccess(ctx context.Context, access string) (*TokenPair, error)

	// GetByRefresh retrieves a pair by its refresh token string.
	// Returns ErrNotFound if the string is unknown.
	GetByRefresh(ctx context.Context, refresh string) (*TokenPair, error)

	// Delete removes a pair by ID. Returns ErrNotFound if absent.
	Delete(ctx context.Context, id ulid.ULID) error

	// DeleteByAccount removes all pairs for an account. Deleting
	// zero rows is not an error.
	DeleteByAccount(ctx context.Context, accountID ulid.ULID) error

	// DeleteExpiredBefore removes pairs whose refresh window closed
	// before the cutoff and returns the count removed. Safe to run
	// concurrently with issuance.
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Transactor runs a function inside a single store transaction.
// Repository methods called with the context it passes to fn
// participate in that transaction.
type Transactor interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
