// Package callback bridges the decode engine to caller-supplied byte sources.
//
// The engine never holds a Fetcher directly. It is given an integer ID at
// reader creation and resolves that ID through a Registry each time it needs
// bytes. IDs come from a monotonic counter and are never reused, so a stale
// ID held by a destroyed reader can never reach another reader's source.
package callback

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

var (
	// ErrNotRegistered is returned when an ID has no live registration.
	ErrNotRegistered = errors.New("callback: id not registered")

	// ErrFetchPanic is returned when a fetcher panics.
	ErrFetchPanic = errors.New("callback: fetcher panicked")

	// ErrShortFetch is returned when a fetcher returns the wrong number of bytes.
	ErrShortFetch = errors.New("callback: fetch returned wrong length")
)

// ID identifies a registered fetcher.
type ID uint64

// Fetcher returns exactly length bytes starting at offset, or an error.
type Fetcher interface {
	Fetch(offset, length uint64) ([]byte, error)
}

type entry struct {
	fetcher Fetcher
	lastErr error
}

// Registry maps IDs to fetchers. A Registry is safe for concurrent use.
type Registry struct {
	next    atomic.Uint64
	mu      sync.Mutex
	entries map[ID]*entry
}

// Default is the process-wide registry.
var Default = NewRegistry()

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[ID]*entry)}
}

// Register stores f and returns a fresh ID. IDs start at 1.
func (r *Registry) Register(f Fetcher) ID {
	id := ID(r.next.Add(1))
	r.mu.Lock()
	r.entries[id] = &entry{fetcher: f}
	r.mu.Unlock()
	return id
}

// Unregister retires id. Unregistering an unknown id is a no-op.
func (r *Registry) Unregister(id ID) {
	r.mu.Lock()
	delete(r.entries, id)
	r.mu.Unlock()
}

// Len returns the number of live registrations.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Registered reports whether id is live.
func (r *Registry) Registered(id ID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[id]
	return ok
}

// Invoke calls the fetcher registered under id. The lock is not held while
// the fetcher runs, so a fetcher may itself use the registry.
func (r *Registry) Invoke(id ID, offset, length uint64) (data []byte, err error) {
	r.mu.Lock()
	e, ok := r.entries[id]
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("invoke %d: %w", id, ErrNotRegistered)
	}

	defer func() {
		if p := recover(); p != nil {
			data = nil
			err = fmt.Errorf("%w: %v", ErrFetchPanic, p)
		}
		if err != nil {
			r.record(id, err)
		}
	}()

	data, err = e.fetcher.Fetch(offset, length)
	if err != nil {
		return nil, err
	}
	if uint64(len(data)) != length {
		return nil, fmt.Errorf("fetch(%d, %d) returned %d bytes: %w",
			offset, length, len(data), ErrShortFetch)
	}
	return data, nil
}

// Err returns the most recent fetch failure recorded for id.
func (r *Registry) Err(id ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[id]; ok {
		return e.lastErr
	}
	return nil
}

// ClearErr forgets the recorded failure for id.
func (r *Registry) ClearErr(id ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[id]; ok {
		e.lastErr = nil
	}
}

func (r *Registry) record(id ID, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[id]; ok {
		e.lastErr = err
	}
}

// Func adapts an ordinary function to the Fetcher interface.
type Func func(offset, length uint64) ([]byte, error)

// Fetch calls f(offset, length).
func (f Func) Fetch(offset, length uint64) ([]byte, error) {
	return f(offset, length)
}
