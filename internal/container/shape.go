package container

import "math/bits"

// Product returns elemSize times the product of vals and reports whether it
// fits in a uint64.
func Product(vals []uint64, elemSize uint64) (uint64, bool) {
	n := elemSize
	for _, v := range vals {
		hi, lo := bits.Mul64(n, v)
		if hi != 0 {
			return 0, false
		}
		n = lo
	}
	return n, true
}

// ChunkGrid returns the number of chunks along each dimension.
func (v *Variable) ChunkGrid() []uint64 {
	grid := make([]uint64, v.Rank())
	for i := range grid {
		// Dimensions are non-zero, so this cannot wrap.
		grid[i] = (v.Dimensions[i]-1)/v.Chunks[i] + 1
	}
	return grid
}

// NumChunks returns the total number of chunks.
func (v *Variable) NumChunks() uint64 {
	n := uint64(1)
	for _, g := range v.ChunkGrid() {
		n *= g
	}
	return n
}

// ChunkBytes returns the decoded size of the largest chunk.
func (v *Variable) ChunkBytes() uint64 {
	extent := make([]uint64, v.Rank())
	for i := range extent {
		extent[i] = min(v.Chunks[i], v.Dimensions[i])
	}
	n, _ := Product(extent, v.DataType.Size())
	return n
}

// NumElements returns the total number of array elements.
func (v *Variable) NumElements() uint64 {
	n := uint64(1)
	for _, d := range v.Dimensions {
		n *= d
	}
	return n
}

// ChunkBox returns the origin and clipped extent of chunk, where chunk is a
// row-major index into the chunk grid.
func (v *Variable) ChunkBox(chunk uint64) (origin, extent []uint64) {
	grid := v.ChunkGrid()
	origin = make([]uint64, v.Rank())
	extent = make([]uint64, v.Rank())
	for i := v.Rank() - 1; i >= 0; i-- {
		pos := chunk % grid[i]
		chunk /= grid[i]
		origin[i] = pos * v.Chunks[i]
		extent[i] = min(v.Chunks[i], v.Dimensions[i]-origin[i])
	}
	return origin, extent
}

// ChunkIndex returns the row-major index of the chunk at grid position pos.
func ChunkIndex(grid, pos []uint64) uint64 {
	var idx uint64
	for i := range grid {
		idx = idx*grid[i] + pos[i]
	}
	return idx
}

// Strides returns row-major byte strides for an array of shape dims.
func Strides(dims []uint64, elemSize uint64) []uint64 {
	strides := make([]uint64, len(dims))
	s := elemSize
	for i := len(dims) - 1; i >= 0; i-- {
		strides[i] = s
		s *= dims[i]
	}
	return strides
}

// CopyBox copies a box of count elements between two row-major arrays. The
// box starts at srcOrigin in src (shape srcDims) and lands at dstOrigin in
// dst (shape dstDims). The caller guarantees the box fits in both arrays.
func CopyBox(
	dst []byte, dstDims, dstOrigin []uint64,
	src []byte, srcDims, srcOrigin []uint64,
	count []uint64, elemSize uint64,
) {
	n := len(count)
	if n == 0 {
		copy(dst[:elemSize], src[:elemSize])
		return
	}
	for _, c := range count {
		if c == 0 {
			return
		}
	}
	dstStrides := Strides(dstDims, elemSize)
	srcStrides := Strides(srcDims, elemSize)

	var dstOff, srcOff uint64
	for i := 0; i < n; i++ {
		dstOff += dstOrigin[i] * dstStrides[i]
		srcOff += srcOrigin[i] * srcStrides[i]
	}
	copyBoxRecursive(dst, src, dstStrides, srcStrides, count, dstOff, srcOff, 0)
}

func copyBoxRecursive(dst, src []byte, dstStrides, srcStrides, count []uint64, dstOff, srcOff uint64, dim int) {
	if dim == len(count)-1 {
		row := count[dim] * dstStrides[dim]
		copy(dst[dstOff:dstOff+row], src[srcOff:srcOff+row])
		return
	}
	for i := uint64(0); i < count[dim]; i++ {
		copyBoxRecursive(dst, src, dstStrides, srcStrides, count,
			dstOff+i*dstStrides[dim], srcOff+i*srcStrides[dim], dim+1)
	}
}

// ExtractChunk returns the raw bytes of chunk from a full row-major array.
func (v *Variable) ExtractChunk(data []byte, chunk uint64) []byte {
	size := v.DataType.Size()
	origin, extent := v.ChunkBox(chunk)
	n := size
	for _, e := range extent {
		n *= e
	}
	out := make([]byte, n)
	CopyBox(out, extent, make([]uint64, v.Rank()), data, v.Dimensions, origin, extent, size)
	return out
}
