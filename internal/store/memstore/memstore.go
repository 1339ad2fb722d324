// Package memstore provides an in-memory store implementation for testing.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/discochess/omfile/internal/store"
)

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// Store is an in-memory store for testing.
type Store struct {
	mu      sync.RWMutex
	objects map[string][]byte
	reads   int
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		objects: make(map[string][]byte),
	}
}

// Put sets the content of an object (for test setup).
// The data is copied to prevent caller mutations from affecting the store.
func (s *Store) Put(name string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make([]byte, len(data))
	copy(copied, data)
	s.objects[name] = copied
}

// Size returns the length of an object.
func (s *Store) Size(ctx context.Context, name string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.objects[name]
	if !ok {
		return 0, fmt.Errorf("%s: %w", name, store.ErrNotFound)
	}
	return uint64(len(data)), nil
}

// ReadRange returns a copy of the requested bytes.
func (s *Store) ReadRange(ctx context.Context, name string, offset, length uint64) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.objects[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, store.ErrNotFound)
	}
	if err := store.CheckRange(uint64(len(data)), offset, length); err != nil {
		return nil, err
	}
	s.reads++
	out := make([]byte, length)
	copy(out, data[offset:])
	return out, nil
}

// Reads returns the number of successful ReadRange calls.
func (s *Store) Reads() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reads
}

// Close is a no-op for the memory store.
func (s *Store) Close() error {
	return nil
}
