// Package lru implements an LRU cache eviction strategy.
package lru

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/discochess/omfile/internal/store/cachedstore/cachestrategy"
)

// Compile-time check that Strategy implements cachestrategy.Strategy.
var _ cachestrategy.Strategy = (*Strategy)(nil)

// Strategy implements LRU eviction.
type Strategy struct {
	cache *lru.Cache[cachestrategy.Key, []byte]
}

// New creates a new LRU strategy holding at most capacity blocks.
func New(capacity int) (*Strategy, error) {
	c, err := lru.New[cachestrategy.Key, []byte](capacity)
	if err != nil {
		return nil, err
	}
	return &Strategy{cache: c}, nil
}

// Get retrieves a value by key.
func (s *Strategy) Get(key cachestrategy.Key) ([]byte, bool) {
	return s.cache.Get(key)
}

// Add adds a value to the cache and reports whether an eviction occurred.
func (s *Strategy) Add(key cachestrategy.Key, value []byte) bool {
	return s.cache.Add(key, value)
}

// Len returns the number of items in the cache.
func (s *Strategy) Len() int {
	return s.cache.Len()
}
