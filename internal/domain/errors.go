package domain

import "errors"

var (
	// ErrNotFound is returned when a record does not exist or belongs to another user.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateAccount is returned when signing up with an email that is already registered.
	ErrDuplicateAccount = errors.New("an account with this email already exists")
)
