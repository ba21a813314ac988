// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Aikotoba Contributors

package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Claims carries the verified content of a bearer token.
type Claims struct {
	// AccountID is the subject the token was issued for.
	AccountID ulid.ULID
	// ExpiresAt is the expiry encoded in the token itself. The
	// authoritative expiry lives in the token repository row.
	ExpiresAt time.Time
}

// TokenSigner signs and verifies bearer tokens. The signing algorithm
// is pluggable so it can be swapped without touching the service.
type TokenSigner interface {
	// Sign produces a signed token for the account expiring at the
	// given time. Each call yields a distinct string even for
	// identical inputs.
	Sign(accountID ulid.ULID, expiresAt time.Time) (string, error)

	// Verify checks the signature and returns the claims.
	// Expiry is NOT checked here; callers compare against the stored
	// row so a swept token cannot be resurrected by clock skew.
	Verify(token string) (*Claims, error)
}

// HS256Signer implements TokenSigner with HMAC-SHA256 and a
// server-held secret.
type HS256Signer struct {
	secret []byte
}

// NewHS256Signer creates an HS256Signer.
func NewHS256Signer(secret []byte) (*HS256Signer, error) {
	if len(secret) == 0 {
		return nil, oops.Code("SIGNER_EMPTY_SECRET").Errorf("signing secret cannot be empty")
	}
	return &HS256Signer{secret: secret}, nil
}

// Sign produces a signed JWT with sub, exp, and a random jti. The jti
// guarantees the access and refresh strings of one pair, and pairs
// issued in the same second, never collide in the unique columns.
func (s *HS256Signer) Sign(accountID ulid.ULID, expiresAt time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   accountID.String(),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		ID:        ulid.Make().String(),
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", oops.Code("SIGNER_SIGN_FAILED").
			With("account_id", accountID.String()).
			Wrap(err)
	}
	return signed, nil
}

// Verify checks the HMAC signature and parses the claims.
func (s *HS256Signer) Verify(tokenString string) (*Claims, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, oops.Code("SIGNER_BAD_ALG").Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, oops.Code("SIGNER_VERIFY_FAILED").Wrapf(ErrUnauthorized, "token verification failed: %v", err)
	}

	accountID, err := ulid.Parse(claims.Subject)
	if err != nil {
		return nil, oops.Code("SIGNER_BAD_SUBJECT").Wrapf(ErrUnauthorized, "token subject is not a valid account ID")
	}

	result := &Claims{AccountID: accountID}
	if claims.ExpiresAt != nil {
		result.ExpiresAt = claims.ExpiresAt.Time
	}
	return result, nil
}

// Compile-time interface check.
var _ TokenSigner = (*HS256Signer)(nil)
