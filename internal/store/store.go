// Package store defines the storage backend interface for reading container
// files by byte range.
package store

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an object does not exist in the store.
	ErrNotFound = errors.New("store: object not found")

	// ErrOutOfRange is returned when a read extends past the end of an object.
	ErrOutOfRange = errors.New("store: range out of bounds")
)

// Store defines the interface for storage backends.
// Implementations handle path formats and storage details internally.
type Store interface {
	// Size returns the length of the named object in bytes.
	Size(ctx context.Context, name string) (uint64, error)

	// ReadRange reads exactly length bytes starting at offset.
	ReadRange(ctx context.Context, name string, offset, length uint64) ([]byte, error)

	// Close releases any resources held by the store.
	Close() error
}

// CheckRange returns ErrOutOfRange unless [offset, offset+length) lies within
// an object of the given size.
func CheckRange(size, offset, length uint64) error {
	if offset > size || length > size-offset {
		return fmt.Errorf("[%d, +%d) of %d bytes: %w", offset, length, size, ErrOutOfRange)
	}
	return nil
}
