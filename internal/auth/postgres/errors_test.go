// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Aikotoba Contributors

package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/aikotoba/aikotoba/internal/auth"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "nil passes through", err: nil, want: nil},
		{
			name: "unique violation",
			err:  &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "accounts_email_key"},
			want: auth.ErrConflict,
		},
		{
			name: "foreign key violation",
			err:  &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation},
			want: auth.ErrConflict,
		},
		{
			name: "connection failure",
			err:  &pgconn.PgError{Code: pgerrcode.ConnectionFailure},
			want: auth.ErrStoreUnavailable,
		},
		{
			name: "too many connections",
			err:  &pgconn.PgError{Code: pgerrcode.TooManyConnections},
			want: auth.ErrStoreUnavailable,
		},
		{
			name: "deadline exceeded",
			err:  context.DeadlineExceeded,
			want: auth.ErrStoreUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}

	t.Run("other pg errors pass through unchanged", func(t *testing.T) {
		pgErr := &pgconn.PgError{Code: pgerrcode.SyntaxError}
		got := classify(pgErr)
		assert.Equal(t, error(pgErr), got)
		assert.False(t, errors.Is(got, auth.ErrConflict))
		assert.False(t, errors.Is(got, auth.ErrStoreUnavailable))
	})

	t.Run("plain errors pass through unchanged", func(t *testing.T) {
		plain := errors.New("boom")
		assert.Equal(t, plain, classify(plain))
	})
}
