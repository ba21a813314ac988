// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Aikotoba Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/aikotoba/aikotoba/internal/auth"
)

// PrefectureRepository implements auth.PrefectureRepository using PostgreSQL.
type PrefectureRepository struct {
	db DB
}

// NewPrefectureRepository creates a new PrefectureRepository.
func NewPrefectureRepository(db DB) *PrefectureRepository {
	return &PrefectureRepository{db: db}
}

// List returns all prefectures ordered by code.
func (r *PrefectureRepository) List(ctx context.Context) ([]auth.Prefecture, error) {
	rows, err := queryTarget(ctx, r.db).Query(ctx, `
		SELECT code, name FROM prefectures ORDER BY code
	`)
	if err != nil {
		return nil, oops.Code("PREFECTURE_LIST_FAILED").
			With("operation", "list prefectures").
			Wrap(classify(err))
	}
	defer rows.Close()

	var prefectures []auth.Prefecture
	for rows.Next() {
		var p auth.Prefecture
		if err := rows.Scan(&p.Code, &p.Name); err != nil {
			return nil, oops.Code("PREFECTURE_SCAN_FAILED").
				With("operation", "scan prefecture row").
				Wrap(err)
		}
		prefectures = append(prefectures, p)
	}

	if err := rows.Err(); err != nil {
		return nil, oops.Code("PREFECTURE_ROWS_ERROR").
			With("operation", "iterate prefecture rows").
			Wrap(classify(err))
	}

	return prefectures, nil
}

// GetByCode retrieves a prefecture by its code.
func (r *PrefectureRepository) GetByCode(ctx context.Context, code int16) (*auth.Prefecture, error) {
	var p auth.Prefecture
	err := queryTarget(ctx, r.db).QueryRow(ctx, `
		SELECT code, name FROM prefectures WHERE code = $1
	`, code).Scan(&p.Code, &p.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("PREFECTURE_NOT_FOUND").
			With("code", code).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("PREFECTURE_GET_FAILED").
			With("operation", "get prefecture by code").
			With("code", code).
			Wrap(classify(err))
	}
	return &p, nil
}

// Delete removes a prefecture. The accounts table references
// prefectures with ON DELETE RESTRICT, so the store rejects the
// delete with a foreign key violation while any account uses the
// code; classify surfaces that as ErrConflict.
func (r *PrefectureRepository) Delete(ctx context.Context, code int16) error {
	result, err := queryTarget(ctx, r.db).Exec(ctx, `
		DELETE FROM prefectures WHERE code = $1
	`, code)
	if err != nil {
		return oops.Code("PREFECTURE_DELETE_FAILED").
			With("operation", "delete prefecture").
			With("code", code).
			Wrap(classify(err))
	}
	if result.RowsAffected() == 0 {
		return oops.Code("PREFECTURE_NOT_FOUND").
			With("code", code).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// Compile-time interface check.
var _ auth.PrefectureRepository = (*PrefectureRepository)(nil)
