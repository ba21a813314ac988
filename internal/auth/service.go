// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Aikotoba Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Read retry policy for transient store failures. Only reads are
// retried; writes propagate immediately.
const (
	readRetryAttempts = 3
	readRetryBase     = 50 * time.Millisecond
)

// dummyPasswordHash is used when an account doesn't exist to prevent timing attacks.
// We still run password verification to make response time consistent.
// This is NOT a real credential - it's a fake hash that will never match any password.
//
//nolint:gosec // G101: This is an intentionally fake hash for timing attack prevention, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Service orchestrates accounts, credentials, and token pairs.
type Service struct {
	accounts    AccountRepository
	prefectures PrefectureRepository
	tokens      TokenRepository
	hasher      PasswordHasher
	issuer      *Issuer
	logger      *slog.Logger
	clock       func() time.Time
}

// NewService creates a Service and validates its dependencies.
func NewService(accounts AccountRepository, prefectures PrefectureRepository, tokens TokenRepository, hasher PasswordHasher, issuer *Issuer) (*Service, error) {
	if accounts == nil {
		return nil, oops.Errorf("accounts repository is required")
	}
	if prefectures == nil {
		return nil, oops.Errorf("prefectures repository is required")
	}
	if tokens == nil {
		return nil, oops.Errorf("tokens repository is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	if issuer == nil {
		return nil, oops.Errorf("token issuer is required")
	}
	return &Service{
		accounts:    accounts,
		prefectures: prefectures,
		tokens:      tokens,
		hasher:      hasher,
		issuer:      issuer,
		logger:      slog.Default(),
		clock:       time.Now,
	}, nil
}

// WithLogger overrides the logger.
func (s *Service) WithLogger(logger *slog.Logger) *Service {
	s.logger = logger
	return s
}

// WithClock overrides the time source. Intended for tests.
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// RegisterParams carries the validated-on-entry fields of a new account.
type RegisterParams struct {
	Email          string
	Name           string
	Password       string
	FixedNumber    *string
	MobileNumber   *string
	PostalCode     string
	PrefectureCode int16
	AddressDetails string
}

// Register validates the input, hashes the password, and stores a new
// account. Returns ErrValidation for malformed fields and ErrConflict
// if the email is already registered.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*Account, error) {
	if err := ValidatePassword(params.Password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(params.Password)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	account, err := NewAccount(
		params.Email, params.Name, hash,
		params.FixedNumber, params.MobileNumber,
		params.PostalCode, params.PrefectureCode, params.AddressDetails,
	)
	if err != nil {
		return nil, err
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, oops.Code("AUTH_EMAIL_TAKEN").
				With("operation", "create account").
				Wrap(err)
		}
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "create account").
			Wrap(err)
	}
	return account, nil
}

// Login authenticates an account by email and password and issues a
// token pair. Unknown email and wrong password share
// ErrInvalidCredentials, and a dummy hash is verified when the email
// is unknown so the two cases take the same time.
func (s *Service) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	account, lookupErr := s.getAccountByEmail(ctx, email)

	targetHash := dummyPasswordHash
	accountExists := false
	if lookupErr != nil {
		if !errors.Is(lookupErr, ErrNotFound) {
			recordLogin("error")
			return nil, oops.Code("AUTH_LOGIN_FAILED").
				With("operation", "get account by email").
				Wrap(lookupErr)
		}
	} else {
		targetHash = account.PasswordHash
		accountExists = true
	}

	valid, verifyErr := s.hasher.Verify(password, targetHash)
	if verifyErr != nil {
		if !accountExists {
			recordLogin("invalid")
			return nil, oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
		}
		recordLogin("error")
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			Wrap(verifyErr)
	}

	if !accountExists || !valid {
		recordLogin("invalid")
		return nil, oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
	}

	// Checked after verification so active and inactive accounts
	// take the same time to reject a bad password.
	if !account.IsActive {
		recordLogin("inactive")
		return nil, oops.Code("AUTH_ACCOUNT_INACTIVE").Wrap(ErrAccountInactive)
	}

	// Best effort - login succeeds even if the stamp fails, but the
	// failure is never silent.
	account.RecordLogin(s.clock())
	if err := s.accounts.UpdateLoggedInAt(ctx, account.ID, *account.LoggedInAt); err != nil {
		s.logger.Warn("failed to stamp login time",
			"error", err,
			"account_id", account.ID.String())
	}

	pair, err := s.issuer.Issue(ctx, account.ID)
	if err != nil {
		recordLogin("error")
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "issue token pair").
			Wrap(err)
	}

	recordLogin("ok")
	return pair, nil
}

// Authorize validates an access token and returns the account ID it
// was issued for. Fails with ErrUnauthorized for bad signatures,
// unknown tokens, and closed access windows.
func (s *Service) Authorize(ctx context.Context, accessToken string) (ulid.ULID, error) {
	if accessToken == "" {
		return ulid.ULID{}, oops.Code("AUTH_TOKEN_EMPTY").Wrapf(ErrUnauthorized, "access token cannot be empty")
	}

	claims, err := s.issuer.signer.Verify(accessToken)
	if err != nil {
		return ulid.ULID{}, err
	}

	pair, err := s.getPairByAccess(ctx, accessToken)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ulid.ULID{}, oops.Code("AUTH_TOKEN_UNKNOWN").Wrap(ErrUnauthorized)
		}
		return ulid.ULID{}, oops.Code("AUTH_AUTHORIZE_FAILED").
			With("operation", "get token pair by access").
			Wrap(err)
	}

	if pair.AccessExpiredAt(s.clock()) {
		return ulid.ULID{}, oops.Code("AUTH_TOKEN_EXPIRED").Wrap(ErrUnauthorized)
	}

	return claims.AccountID, nil
}

// Refresh rotates a token pair per the issuer's semantics.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	pair, err := s.issuer.Refresh(ctx, refreshToken)
	switch {
	case err == nil:
		recordRefresh("ok")
	case errors.Is(err, ErrNotFound):
		recordRefresh("not_found")
	case errors.Is(err, ErrTokenExpired):
		recordRefresh("expired")
	default:
		recordRefresh("error")
	}
	return pair, err
}

// Logout revokes the token pair matching the given access or refresh
// token. Other sessions of the same account stay valid. Idempotent.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.issuer.Revoke(ctx, token)
}

// WhoAmI authorizes an access token and returns its account.
func (s *Service) WhoAmI(ctx context.Context, accessToken string) (*Account, error) {
	accountID, err := s.Authorize(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Token row outlived the account; treat as unauthorized.
			return nil, oops.Code("AUTH_ACCOUNT_GONE").Wrap(ErrUnauthorized)
		}
		return nil, oops.Code("AUTH_WHOAMI_FAILED").
			With("operation", "get account by id").
			Wrap(err)
	}
	return account, nil
}

// UpdateProfileParams carries the mutable profile fields of an
// account. Email stays fixed after registration.
type UpdateProfileParams struct {
	Name           string
	FixedNumber    *string
	MobileNumber   *string
	PostalCode     string
	PrefectureCode int16
	AddressDetails string
}

// UpdateProfile authorizes the access token and applies the profile
// fields to its account. Returns ErrValidation for malformed fields.
func (s *Service) UpdateProfile(ctx context.Context, accessToken string, params UpdateProfileParams) (*Account, error) {
	account, err := s.WhoAmI(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	if err := account.UpdateProfile(
		params.Name, params.FixedNumber, params.MobileNumber,
		params.PostalCode, params.PrefectureCode, params.AddressDetails,
	); err != nil {
		return nil, err
	}

	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, oops.Code("AUTH_UPDATE_FAILED").
			With("operation", "update account").
			Wrap(err)
	}
	return account, nil
}

// ChangePassword verifies the current password and replaces it with a
// new one. A wrong current password fails ErrInvalidCredentials; the
// new password must satisfy the registration rules. Issued token
// pairs stay valid.
func (s *Service) ChangePassword(ctx context.Context, accessToken, currentPassword, newPassword string) error {
	account, err := s.WhoAmI(ctx, accessToken)
	if err != nil {
		return err
	}

	valid, err := s.hasher.Verify(currentPassword, account.PasswordHash)
	if err != nil {
		return oops.Code("AUTH_CHANGE_PASSWORD_FAILED").
			With("operation", "verify current password").
			Wrap(err)
	}
	if !valid {
		return oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
	}

	if err := ValidatePassword(newPassword); err != nil {
		return err
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return oops.Code("AUTH_CHANGE_PASSWORD_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}
	if err := account.SetPasswordHash(hash); err != nil {
		return err
	}

	if err := s.accounts.Update(ctx, account); err != nil {
		return oops.Code("AUTH_CHANGE_PASSWORD_FAILED").
			With("operation", "update account").
			Wrap(err)
	}
	return nil
}

// Prefectures lists the 47-entry reference table.
func (s *Service) Prefectures(ctx context.Context) ([]Prefecture, error) {
	return s.prefectures.List(ctx)
}

// PrefectureByCode looks up one prefecture.
func (s *Service) PrefectureByCode(ctx context.Context, code int16) (*Prefecture, error) {
	return s.prefectures.GetByCode(ctx, code)
}

// getAccountByEmail reads with bounded backoff on ErrStoreUnavailable.
func (s *Service) getAccountByEmail(ctx context.Context, email string) (*Account, error) {
	var account *Account
	err := retry.Do(ctx, readRetryPolicy(), func(ctx context.Context) error {
		var err error
		account, err = s.accounts.GetByEmail(ctx, email)
		if errors.Is(err, ErrStoreUnavailable) {
			return retry.RetryableError(err)
		}
		return err
	})
	return account, err
}

// getPairByAccess reads with bounded backoff on ErrStoreUnavailable.
func (s *Service) getPairByAccess(ctx context.Context, access string) (*TokenPair, error) {
	var pair *TokenPair
	err := retry.Do(ctx, readRetryPolicy(), func(ctx context.Context) error {
		var err error
		pair, err = s.tokens.GetByAccess(ctx, access)
		if errors.Is(err, ErrStoreUnavailable) {
			return retry.RetryableError(err)
		}
		return err
	})
	return pair, err
}

func readRetryPolicy() retry.Backoff {
	return retry.WithMaxRetries(readRetryAttempts, retry.NewFibonacci(readRetryBase))
}
