// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Aikotoba Contributors

package auth

import "errors"

// Sentinel errors for the account and token lifecycle. Repository and
// service errors wrap one of these so callers can classify failures
// with errors.Is regardless of the oops context attached on top.
var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write violates a uniqueness or
	// referential constraint.
	ErrConflict = errors.New("conflict")

	// ErrInvalidCredentials is returned on login when the email is
	// unknown or the password does not match. Both cases share one
	// error so responses cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid email address or password")

	// ErrAccountInactive is returned on login when the account exists
	// but has been deactivated.
	ErrAccountInactive = errors.New("account is inactive")

	// ErrUnauthorized is returned when an access token is missing,
	// malformed, unknown, or past its expiry.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTokenExpired is returned when a refresh token is past its
	// refresh window.
	ErrTokenExpired = errors.New("token expired")

	// ErrStoreUnavailable is returned on transient store failures.
	// Reads wrapping this error are retried with backoff.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrValidation is returned when input fails field validation.
	ErrValidation = errors.New("validation failed")
)
