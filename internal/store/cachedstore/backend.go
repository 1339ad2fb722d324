// Package cachedstore provides a block cache in front of a Store.
//
// Objects are divided into fixed-size blocks. A range read is served from
// cached blocks where possible and the missing blocks are fetched from the
// underlying store and cached. Object sizes are cached as well.
package cachedstore

import "github.com/discochess/omfile/internal/store/cachedstore/cachestrategy"

// Backend defines the interface for cache storage backends.
// Implementations handle storage (memory, disk) and eviction strategy (LRU, MRU).
type Backend interface {
	// Get retrieves a cached block. Returns nil, false if not found.
	Get(key cachestrategy.Key) ([]byte, bool)

	// Set stores a block in the cache.
	Set(key cachestrategy.Key, data []byte)

	// Stats returns cache statistics.
	Stats() Stats
}

// Stats contains cache statistics.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int // Current number of blocks
}

// HitRate returns the cache hit rate as a percentage.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}
