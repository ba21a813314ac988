// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Aikotoba Contributors

package auth

import "context"

// Prefecture is one row of the fixed 47-entry reference table that
// accounts point at via their prefecture code. The set is seeded by
// migration and is read-only at runtime apart from Delete, which the
// store rejects while any account still references the code.
type Prefecture struct {
	Code int16
	Name string
}

// PrefectureRepository provides access to the prefecture reference data.
type PrefectureRepository interface {
	// List returns all prefectures ordered by code.
	List(ctx context.Context) ([]Prefecture, error)

	// GetByCode retrieves a prefecture by its code.
	// Returns ErrNotFound if the code is unknown.
	GetByCode(ctx context.Context, code int16) (*Prefecture, error)

	// Delete removes a prefecture. Returns ErrConflict while any
	// account references the code, ErrNotFound if the code is unknown.
	Delete(ctx context.Context, code int16) error
}
