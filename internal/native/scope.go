package native

// Scope groups allocations that share a lifetime. The usual pattern is
//
//	scope := native.NewScope(heap)
//	defer scope.Release()
//
// after which every Alloc made through the scope is freed on every return
// path of the enclosing function.
type Scope struct {
	heap    *Heap
	regions []*Region
}

// NewScope creates an empty scope over heap.
func NewScope(heap *Heap) *Scope {
	return &Scope{heap: heap}
}

// Alloc allocates a region owned by the scope.
func (s *Scope) Alloc(size uint64) (*Region, error) {
	r, err := s.heap.Alloc(size)
	if err != nil {
		return nil, err
	}
	s.regions = append(s.regions, r)
	return r, nil
}

// AllocUint64s allocates a region holding a copy of vals.
func (s *Scope) AllocUint64s(vals []uint64) (*Region, error) {
	r, err := s.Alloc(uint64(len(vals)) * Alignment)
	if err != nil {
		return nil, err
	}
	copy(r.Uint64s(), vals)
	return r, nil
}

// Len returns the number of regions owned by the scope.
func (s *Scope) Len() int {
	return len(s.regions)
}

// Release frees every region in reverse allocation order. It is safe to call
// more than once.
func (s *Scope) Release() {
	for i := len(s.regions) - 1; i >= 0; i-- {
		s.heap.Free(s.regions[i])
	}
	s.regions = nil
}
