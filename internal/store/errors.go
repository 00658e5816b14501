package store

import "errors"

// ErrNotFound is returned when a record does not exist or is not visible to
// the requesting owner.
var ErrNotFound = errors.New("not found")

// ErrDuplicateEmail is returned when a user with the same email already exists.
var ErrDuplicateEmail = errors.New("email already registered")
