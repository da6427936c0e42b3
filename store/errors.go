package store

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable wraps every failure to reach or write the database.
	ErrUnavailable = errors.New("store unavailable")
	// ErrNotFound is returned by point lookups and updates that match no member.
	ErrNotFound = errors.New("member not found")
)

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}
