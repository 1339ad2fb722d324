// Package dimspec turns the per-dimension read request into the four
// fixed-width arrays the decode engine consumes.
package dimspec

import (
	"errors"
	"fmt"

	"github.com/discochess/omfile/internal/container"
	"github.com/discochess/omfile/internal/native"
)

var (
	// ErrDimensionMismatch is returned when the four sequences differ in length.
	ErrDimensionMismatch = errors.New("dimspec: dimension count mismatch")

	// ErrInvalidRange is returned when a range has start > end.
	ErrInvalidRange = errors.New("dimspec: range start exceeds end")
)

// Spec holds the marshalled arrays. The regions belong to the scope they were
// allocated from and are invalid once it is released.
type Spec struct {
	start, end, offset, dimension *native.Region
	rank                          int
}

// Marshal validates the request and copies each sequence into a fresh aligned
// region owned by scope. The input slices are not retained.
func Marshal(scope *native.Scope, start, end, offset, dimension []uint64) (*Spec, error) {
	n := len(start)
	if len(end) != n || len(offset) != n || len(dimension) != n {
		return nil, fmt.Errorf("start=%d end=%d offset=%d dimension=%d: %w",
			len(start), len(end), len(offset), len(dimension), ErrDimensionMismatch)
	}
	for i := range start {
		if start[i] > end[i] {
			return nil, fmt.Errorf("dimension %d: [%d, %d): %w", i, start[i], end[i], ErrInvalidRange)
		}
	}

	s := &Spec{rank: n}
	var err error
	if s.start, err = scope.AllocUint64s(start); err != nil {
		return nil, err
	}
	if s.end, err = scope.AllocUint64s(end); err != nil {
		return nil, err
	}
	if s.offset, err = scope.AllocUint64s(offset); err != nil {
		return nil, err
	}
	if s.dimension, err = scope.AllocUint64s(dimension); err != nil {
		return nil, err
	}
	return s, nil
}

// Len returns the number of dimensions.
func (s *Spec) Len() int { return s.rank }

// Start returns the per-dimension read starts.
func (s *Spec) Start() []uint64 { return s.start.Uint64s() }

// End returns the per-dimension exclusive read ends.
func (s *Spec) End() []uint64 { return s.end.Uint64s() }

// Offset returns where the read lands inside the destination cube.
func (s *Spec) Offset() []uint64 { return s.offset.Uint64s() }

// Dimension returns the destination cube extent.
func (s *Spec) Dimension() []uint64 { return s.dimension.Uint64s() }

// Count returns end-start for dimension i.
func (s *Spec) Count(i int) uint64 {
	return s.End()[i] - s.Start()[i]
}

// Aligned reports whether all four regions are 8-byte aligned.
func (s *Spec) Aligned() bool {
	return s.start.Aligned() && s.end.Aligned() && s.offset.Aligned() && s.dimension.Aligned()
}

// Elements returns the product of the destination cube extents. ok is false
// when the product does not fit in a uint64.
func (s *Spec) Elements() (n uint64, ok bool) {
	return container.Product(s.Dimension(), 1)
}
