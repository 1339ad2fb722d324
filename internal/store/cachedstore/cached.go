package cachedstore

import (
	"context"
	"errors"
	"sync"

	"github.com/discochess/omfile/internal/store"
	"github.com/discochess/omfile/internal/store/cachedstore/cachestrategy"
)

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// DefaultBlockSize is the cache block size used when none is given.
const DefaultBlockSize = 64 << 10

// ErrInvalidBlockSize is returned for a zero block size.
var ErrInvalidBlockSize = errors.New("cachedstore: block size must be positive")

// Store wraps another Store with a block cache.
type Store struct {
	underlying store.Store
	backend    Backend
	blockSize  uint64

	mu    sync.Mutex
	sizes map[string]uint64
}

// New creates a cached store wrapping the given store.
func New(underlying store.Store, backend Backend, blockSize uint64) (*Store, error) {
	if blockSize == 0 {
		return nil, ErrInvalidBlockSize
	}
	return &Store{
		underlying: underlying,
		backend:    backend,
		blockSize:  blockSize,
		sizes:      make(map[string]uint64),
	}, nil
}

// Size returns the object size, caching it after the first lookup.
func (s *Store) Size(ctx context.Context, name string) (uint64, error) {
	s.mu.Lock()
	size, ok := s.sizes[name]
	s.mu.Unlock()
	if ok {
		return size, nil
	}

	size, err := s.underlying.Size(ctx, name)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	s.sizes[name] = size
	s.mu.Unlock()
	return size, nil
}

// ReadRange assembles the range from cached blocks. Consecutive missing
// blocks are fetched from the underlying store in a single read.
func (s *Store) ReadRange(ctx context.Context, name string, offset, length uint64) ([]byte, error) {
	size, err := s.Size(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := store.CheckRange(size, offset, length); err != nil {
		return nil, err
	}
	out := make([]byte, length)
	if length == 0 {
		return out, nil
	}

	first := offset / s.blockSize
	last := (offset + length - 1) / s.blockSize

	blocks := make([][]byte, last-first+1)
	for b := first; b <= last; {
		if data, ok := s.backend.Get(cachestrategy.Key{Name: name, Block: b}); ok {
			blocks[b-first] = data
			b++
			continue
		}

		// Extend the miss run over following uncached blocks.
		end := b + 1
		for end <= last {
			if data, ok := s.backend.Get(cachestrategy.Key{Name: name, Block: end}); ok {
				blocks[end-first] = data
				break
			}
			end++
		}

		lo := b * s.blockSize
		hi := min(end*s.blockSize, size)
		data, err := s.underlying.ReadRange(ctx, name, lo, hi-lo)
		if err != nil {
			return nil, err
		}
		for k := b; k < end; k++ {
			block := data[(k-b)*s.blockSize : min((k-b+1)*s.blockSize, uint64(len(data)))]
			s.backend.Set(cachestrategy.Key{Name: name, Block: k}, block)
			blocks[k-first] = block
		}
		b = end
		if end <= last && blocks[end-first] != nil {
			b = end + 1
		}
	}

	pos := uint64(0)
	for i, block := range blocks {
		blockStart := (first + uint64(i)) * s.blockSize
		lo := uint64(0)
		if offset > blockStart {
			lo = offset - blockStart
		}
		hi := min(uint64(len(block)), offset+length-blockStart)
		pos += uint64(copy(out[pos:], block[lo:hi]))
	}
	return out, nil
}

// Close closes the underlying store.
func (s *Store) Close() error {
	return s.underlying.Close()
}

// Stats returns cache statistics.
func (s *Store) Stats() Stats {
	return s.backend.Stats()
}
