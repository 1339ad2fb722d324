// Package native manages the staging memory handed to the decode engine.
//
// Every buffer that crosses into the engine is allocated from a Heap and
// released through a Scope, so a call that fails halfway still returns all
// of its memory. Regions are backed by []uint64 and are therefore always
// 8-byte aligned, which the engine relies on when it treats dimension
// arrays as 64-bit element arrays.
package native

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"
)

// Alignment is the guaranteed alignment of every region, in bytes.
const Alignment = 8

// maxRegion keeps requests below the largest allocation the runtime accepts.
const maxRegion = 1 << 47

// ErrOutOfMemory is returned when an allocation would exceed the heap limit.
var ErrOutOfMemory = errors.New("native: out of memory")

// Heap hands out aligned regions and tracks which are live.
// A Heap is safe for concurrent use.
type Heap struct {
	mu    sync.Mutex
	limit uint64 // 0 means unlimited
	inUse uint64
	live  int
	stats Stats
}

// Stats contains allocation statistics.
type Stats struct {
	Allocations uint64
	Frees       uint64
	Failures    uint64
	PeakBytes   uint64
}

// NewHeap creates a heap. A limit of 0 disables the byte limit.
func NewHeap(limit uint64) *Heap {
	return &Heap{limit: limit}
}

// Alloc allocates a zeroed region of size bytes.
func (h *Heap) Alloc(size uint64) (*Region, error) {
	if size > maxRegion {
		h.mu.Lock()
		h.stats.Failures++
		h.mu.Unlock()
		return nil, fmt.Errorf("allocating %d bytes: %w", size, ErrOutOfMemory)
	}
	words := (size + Alignment - 1) / Alignment
	rounded := words * Alignment

	h.mu.Lock()
	if h.limit > 0 && rounded > h.limit-h.inUse {
		h.stats.Failures++
		h.mu.Unlock()
		return nil, fmt.Errorf("allocating %d bytes (%d in use, limit %d): %w",
			size, h.inUse, h.limit, ErrOutOfMemory)
	}
	h.inUse += rounded
	h.live++
	h.stats.Allocations++
	if h.inUse > h.stats.PeakBytes {
		h.stats.PeakBytes = h.inUse
	}
	h.mu.Unlock()

	return &Region{
		heap:  h,
		words: make([]uint64, words),
		size:  size,
	}, nil
}

// Free releases a region. Freeing a region twice is a no-op.
func (h *Heap) Free(r *Region) {
	if r == nil || r.heap != h {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if r.freed {
		return
	}
	r.freed = true
	h.inUse -= uint64(len(r.words)) * Alignment
	h.live--
	h.stats.Frees++
	r.words = nil
}

// Live returns the number of regions not yet freed.
func (h *Heap) Live() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.live
}

// InUse returns the number of bytes held by live regions.
func (h *Heap) InUse() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.inUse
}

// Stats returns allocation statistics.
func (h *Heap) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stats
}

// Region is a block of heap memory. Its contents are only valid until the
// region is freed.
type Region struct {
	heap  *Heap
	words []uint64
	size  uint64
	freed bool
}

// Len returns the requested size in bytes.
func (r *Region) Len() uint64 {
	return r.size
}

// Bytes returns a byte view of the region, or nil once freed.
func (r *Region) Bytes() []byte {
	if r.freed || len(r.words) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&r.words[0])), r.size)
}

// Uint64s returns the region as a slice of 64-bit words, or nil once freed.
func (r *Region) Uint64s() []uint64 {
	if r.freed {
		return nil
	}
	return r.words[:r.size/Alignment]
}

// Aligned reports whether the region start is a multiple of Alignment.
// Empty regions are trivially aligned.
func (r *Region) Aligned() bool {
	if len(r.words) == 0 {
		return true
	}
	return uintptr(unsafe.Pointer(&r.words[0]))%Alignment == 0
}
