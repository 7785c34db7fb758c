package repository

import "errors"

var (
	// ErrNotFound is returned by Delete when no matching row exists.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned by Upsert when the external account is
	// already linked to a different user.
	ErrConflict = errors.New("account already linked to another user")
)
