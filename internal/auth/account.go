// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Aikotoba Contributors

package auth

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Account field constraints, matching the column widths of the
// accounts table.
const (
	MinAccountNameLength = 2
	MaxAccountNameLength = 20
	MaxEmailLength       = 256
	MaxAddressLength     = 100
	MinPasswordLength    = 8
)

// passwordSymbols are the ASCII symbols a password must draw from.
const passwordSymbols = " !\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

var (
	emailRegex      = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	postalCodeRegex = regexp.MustCompile(`^\d{3}-\d{4}$`)
	phoneRegex      = regexp.MustCompile(`^0\d{1,4}-\d{1,4}-\d{4}$`)
)

// Account represents a registered user account.
type Account struct {
	ID             ulid.ULID
	Email          string
	Name           string
	PasswordHash   string
	IsActive       bool
	FixedNumber    *string
	MobileNumber   *string
	PostalCode     string
	PrefectureCode int16
	AddressDetails string
	LoggedInAt     *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewAccount creates a validated Account with a fresh ULID. The
// password hash must already be computed; plaintext never reaches
// this constructor.
func NewAccount(email, name, passwordHash string, fixedNumber, mobileNumber *string, postalCode string, prefectureCode int16, addressDetails string) (*Account, error) {
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := ValidateAccountName(name); err != nil {
		return nil, err
	}
	if passwordHash == "" {
		return nil, oops.Code("ACCOUNT_INVALID_HASH").Wrapf(ErrValidation, "password hash cannot be empty")
	}
	if err := ValidatePostalCode(postalCode); err != nil {
		return nil, err
	}
	if err := validateOptionalPhone(fixedNumber, "fixed number"); err != nil {
		return nil, err
	}
	if err := validateOptionalPhone(mobileNumber, "mobile number"); err != nil {
		return nil, err
	}
	if err := ValidateAddressDetails(addressDetails); err != nil {
		return nil, err
	}
	if err := validatePrefectureCode(prefectureCode); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Account{
		ID:             ulid.Make(),
		Email:          email,
		Name:           name,
		PasswordHash:   passwordHash,
		IsActive:       true,
		FixedNumber:    fixedNumber,
		MobileNumber:   mobileNumber,
		PostalCode:     postalCode,
		PrefectureCode: prefectureCode,
		AddressDetails: addressDetails,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// RecordLogin stamps the last login time.
func (a *Account) RecordLogin(at time.Time) {
	t := at
	a.LoggedInAt = &t
	a.UpdatedAt = at
}

// UpdateProfile validates and applies the mutable profile fields.
// Email is identity-adjacent and stays fixed after registration.
func (a *Account) UpdateProfile(name string, fixedNumber, mobileNumber *string, postalCode string, prefectureCode int16, addressDetails string) error {
	if err := ValidateAccountName(name); err != nil {
		return err
	}
	if err := ValidatePostalCode(postalCode); err != nil {
		return err
	}
	if err := validateOptionalPhone(fixedNumber, "fixed number"); err != nil {
		return err
	}
	if err := validateOptionalPhone(mobileNumber, "mobile number"); err != nil {
		return err
	}
	if err := ValidateAddressDetails(addressDetails); err != nil {
		return err
	}
	if err := validatePrefectureCode(prefectureCode); err != nil {
		return err
	}

	a.Name = name
	a.FixedNumber = fixedNumber
	a.MobileNumber = mobileNumber
	a.PostalCode = postalCode
	a.PrefectureCode = prefectureCode
	a.AddressDetails = addressDetails
	return nil
}

// SetPasswordHash swaps in a new password hash. The hash must already
// be computed; plaintext never reaches the entity.
func (a *Account) SetPasswordHash(hash string) error {
	if hash == "" {
		return oops.Code("ACCOUNT_INVALID_HASH").Wrapf(ErrValidation, "password hash cannot be empty")
	}
	a.PasswordHash = hash
	return nil
}

// ValidateEmail validates an email address for registration.
func ValidateEmail(email string) error {
	if email == "" {
		return oops.Code("ACCOUNT_INVALID_EMAIL").Wrapf(ErrValidation, "email cannot be empty")
	}
	if len(email) > MaxEmailLength {
		return oops.Code("ACCOUNT_INVALID_EMAIL").
			With("max", MaxEmailLength).
			Wrapf(ErrValidation, "email must be at most %d characters", MaxEmailLength)
	}
	if !emailRegex.MatchString(email) {
		return oops.Code("ACCOUNT_INVALID_EMAIL").Wrapf(ErrValidation, "email is not a valid address")
	}
	return nil
}

// ValidateAccountName validates a display name.
func ValidateAccountName(name string) error {
	if len(name) < MinAccountNameLength || len(name) > MaxAccountNameLength {
		return oops.Code("ACCOUNT_INVALID_NAME").
			With("min", MinAccountNameLength).
			With("max", MaxAccountNameLength).
			Wrapf(ErrValidation, "name must be between %d and %d characters", MinAccountNameLength, MaxAccountNameLength)
	}
	return nil
}

// ValidatePassword validates a plaintext password before hashing.
// Passwords need at least MinPasswordLength characters with at least
// one lowercase letter, one uppercase letter, one digit, and one
// symbol.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return oops.Code("ACCOUNT_INVALID_PASSWORD").
			With("min", MinPasswordLength).
			Wrapf(ErrValidation, "password must be at least %d characters", MinPasswordLength)
	}
	var lower, upper, digit, symbol bool
	for _, ch := range password {
		switch {
		case ch >= 'a' && ch <= 'z':
			lower = true
		case ch >= 'A' && ch <= 'Z':
			upper = true
		case ch >= '0' && ch <= '9':
			digit = true
		case strings.ContainsRune(passwordSymbols, ch):
			symbol = true
		}
	}
	if !lower || !upper || !digit || !symbol {
		return oops.Code("ACCOUNT_INVALID_PASSWORD").
			Wrapf(ErrValidation, "password must contain lowercase, uppercase, digit, and symbol characters")
	}
	return nil
}

// ValidatePostalCode validates a postal code ("123-4567").
func ValidatePostalCode(code string) error {
	if !postalCodeRegex.MatchString(code) {
		return oops.Code("ACCOUNT_INVALID_POSTAL_CODE").
			With("postal_code", code).
			Wrapf(ErrValidation, "postal code must have the form 123-4567")
	}
	return nil
}

// ValidateAddressDetails validates the free-form address line.
func ValidateAddressDetails(details string) error {
	if details == "" || len(details) > MaxAddressLength {
		return oops.Code("ACCOUNT_INVALID_ADDRESS").
			With("max", MaxAddressLength).
			Wrapf(ErrValidation, "address details must be between 1 and %d characters", MaxAddressLength)
	}
	return nil
}

func validatePrefectureCode(code int16) error {
	if code < 1 || code > 47 {
		return oops.Code("ACCOUNT_INVALID_PREFECTURE").
			With("prefecture_code", code).
			Wrapf(ErrValidation, "prefecture code must be between 1 and 47")
	}
	return nil
}

func validateOptionalPhone(number *string, field string) error {
	if number == nil {
		return nil
	}
	if !phoneRegex.MatchString(*number) {
		return oops.Code("ACCOUNT_INVALID_PHONE").
			With("field", field).
			Wrapf(ErrValidation, "%s must have the form 03-1234-5678", field)
	}
	return nil
}

// AccountRepository manages account persistence.
type AccountRepository interface {
	// Create stores a new account. Returns ErrConflict if the email
	// is already registered.
	Create(ctx context.Context, account *Account) error

	// GetByID retrieves an account by ID.
	// Returns ErrNotFound if the ID is unknown.
	GetByID(ctx context.Context, id ulid.ULID) (*Account, error)

	// GetByEmail retrieves an account by email address.
	// Returns ErrNotFound if no account has the given email.
	GetByEmail(ctx context.Context, email string) (*Account, error)

	// Update updates an existing account and bumps updated_at.
	// Returns ErrNotFound if the ID is unknown, ErrConflict if the
	// new email collides with a different account.
	Update(ctx context.Context, account *Account) error

	// UpdateLoggedInAt stamps the last login time without touching
	// other columns.
	UpdateLoggedInAt(ctx context.Context, id ulid.ULID, at time.Time) error

	// Delete removes an account. Without cascade it returns
	// ErrConflict while tokens for the account still exist; with
	// cascade the tokens are removed in the same transaction.
	Delete(ctx context.Context, id ulid.ULID, cascade bool) error
}
