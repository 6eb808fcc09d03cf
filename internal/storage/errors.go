package storage

import "errors"

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrMalformed is returned when a stored collection cannot be parsed.
var ErrMalformed = errors.New("stored collection is malformed")
