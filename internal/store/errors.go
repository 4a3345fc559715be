package store

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrUserExists = errors.New("user already exists")

	// ErrUnavailable marks an I/O failure talking to the database. Callers
	// may retry; the request itself was well-formed.
	ErrUnavailable = errors.New("store unavailable")
)

// unavailable wraps a database error so that errors.Is(err, ErrUnavailable)
// holds while the underlying cause stays inspectable.
func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
}
