// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Aikotoba Contributors

// Package postgres implements the auth repositories on PostgreSQL,
// leaning on the store's unique indexes and foreign keys for the
// uniqueness and cascade invariants.
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

// AccountRepository implements auth.AccountRepository using PostgreSQL.
type AccountRepository struct {
	db DB
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `id, email, name, password, is_active, fixed_number, mobile_number,
		postal_code, prefecture_code, address_details, logged_in_at, created_at, updated_at`

// Create stores a new account.
func (r *AccountRepository) Create(ctx context.Context, account *auth.Account) error {
	_, err := queryTarget(ctx, r.db).Exec(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		account.ID.String(),
		account.Email,
		account.Name,
		account.PasswordHash,
		account.IsActive,
		account.FixedNumber,
		account.MobileNumber,
		account.PostalCode,
		account.PrefectureCode,
		account.AddressDetails,
		account.LoggedInAt,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		return oops.Code("ACCOUNT_CREATE_FAILED").
			With("operation", "insert account").
			With("email", account.Email).
			Wrap(classify(err))
	}
	return nil
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.Account, error) {
	row := queryTarget(ctx, r.db).QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE id = $1
	`, id.String())

	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_BY_ID_FAILED").
			With("operation", "get account by id").
			With("id", id.String()).
			Wrap(classify(err))
	}
	return account, nil
}

// GetByEmail retrieves an account by email address.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*auth.Account, error) {
	row := queryTarget(ctx, r.db).QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE email = $1
	`, email)

	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_BY_EMAIL_FAILED").
			With("operation", "get account by email").
			Wrap(classify(err))
	}
	return account, nil
}

// Update updates an existing account and bumps updated_at.
func (r *AccountRepository) Update(ctx context.Context, account *auth.Account) error {
	result, err := queryTarget(ctx, r.db).Exec(ctx, `
		UPDATE accounts SET
			email = $2, name = $3, password = $4, is_active = $5,
			fixed_number = $6, mobile_number = $7, postal_code = $8,
			prefecture_code = $9, address_details = $10, logged_in_at = $11,
			updated_at = $12
		WHERE id = $1
	`,
		account.ID.String(),
		account.Email,
		account.Name,
		account.PasswordHash,
		account.IsActive,
		account.FixedNumber,
		account.MobileNumber,
		account.PostalCode,
		account.PrefectureCode,
		account.AddressDetails,
		account.LoggedInAt,
		time.Now().UTC(),
	)
	if err != nil {
		return oops.Code("ACCOUNT_UPDATE_FAILED").
			With("operation", "update account").
			With("id", account.ID.String()).
			Wrap(classify(err))
	}
	if result.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").
			With("id", account.ID.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// UpdateLoggedInAt stamps the last login time.
func (r *AccountRepository) UpdateLoggedInAt(ctx context.Context, id ulid.ULID, at time.Time) error {
	result, err := queryTarget(ctx, r.db).Exec(ctx, `
		UPDATE accounts SET logged_in_at = $2, updated_at = $2
		WHERE id = $1
	`, id.String(), at)
	if err != nil {
		return oops.Code("ACCOUNT_UPDATE_LOGIN_FAILED").
			With("operation", "update logged_in_at").
			With("id", id.String()).
			Wrap(classify(err))
	}
	if result.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// Delete removes an account. Without cascade the delete is rejected
// with ErrConflict while token rows for the account remain; with
// cascade the store's ON DELETE CASCADE removes them atomically.
func (r *AccountRepository) Delete(ctx context.Context, id ulid.ULID, cascade bool) error {
	q := queryTarget(ctx, r.db)

	// The guard lives in the DELETE itself: a token issued between a
	// separate check and the delete would be destroyed by the FK
	// cascade.
	query := `DELETE FROM accounts WHERE id = $1`
	if !cascade {
		query = `
			DELETE FROM accounts
			WHERE id = $1
			  AND NOT EXISTS (SELECT 1 FROM jwt_tokens WHERE account_id = $1)
		`
	}

	result, err := q.Exec(ctx, query, id.String())
	if err != nil {
		return oops.Code("ACCOUNT_DELETE_FAILED").
			With("operation", "delete account").
			With("id", id.String()).
			Wrap(classify(err))
	}
	if result.RowsAffected() > 0 {
		return nil
	}

	// Zero rows: either the account is gone or, without cascade, its
	// tokens blocked the delete.
	if !cascade {
		var referenced bool
		err := q.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM jwt_tokens WHERE account_id = $1)
		`, id.String()).Scan(&referenced)
		if err != nil {
			return oops.Code("ACCOUNT_DELETE_FAILED").
				With("operation", "check token references").
				With("id", id.String()).
				Wrap(classify(err))
		}
		if referenced {
			return oops.Code("ACCOUNT_TOKENS_EXIST").
				With("id", id.String()).
				Wrapf(auth.ErrConflict, "account still has issued tokens")
		}
	}
	return oops.Code("ACCOUNT_NOT_FOUND").
		With("id", id.String()).
		Wrap(auth.ErrNotFound)
}

// scanAccount scans a single row into an Account.
// Callers are responsible for handling pgx.ErrNoRows.
func scanAccount(row pgx.Row) (*auth.Account, error) {
	var (
		idStr          string
		email          string
		name           string
		passwordHash   string
		isActive       bool
		fixedNumber    *string
		mobileNumber   *string
		postalCode     string
		prefectureCode int16
		addressDetails string
		loggedInAt     *time.Time
		createdAt      time.Time
		updatedAt      time.Time
	)

	err := row.Scan(&idStr, &email, &name, &passwordHash, &isActive, &fixedNumber,
		&mobileNumber, &postalCode, &prefectureCode, &addressDetails, &loggedInAt,
		&createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("ACCOUNT_SCAN_FAILED").
			With("operation", "scan account").
			Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("ACCOUNT_INVALID_ID").
			With("operation", "parse account id").
			With("id", idStr).
			Wrap(err)
	}

	return &auth.Account{
		ID:             id,
		Email:          email,
		Name:           name,
		PasswordHash:   passwordHash,
		IsActive:       isActive,
		FixedNumber:    fixedNumber,
		MobileNumber:   mobileNumber,
		PostalCode:     postalCode,
		PrefectureCode: prefectureCode,
		AddressDetails: addressDetails,
		LoggedInAt:     loggedInAt,
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
	}, nil
}

// Compile-time interface check.
var _ auth.AccountRepository = (*AccountRepository)(nil)
