package omengine

import (
	"encoding/binary"

	"go.uber.org/zap"

	"github.com/discochess/omfile/internal/codec"
	"github.com/discochess/omfile/internal/container"
	"github.com/discochess/omfile/internal/dimspec"
	"github.com/discochess/omfile/internal/dtype"
	"github.com/discochess/omfile/internal/engine"
)

// span is a byte range [lo, hi) of the container.
type span struct {
	lo, hi uint64
}

// Decode reads the requested hyperrectangle into dest.
//
// Chunks overlapping the request are visited in row-major order. The chunk
// index entries they need are fetched first, then the chunk payloads. In both
// passes adjacent reads are merged when the gap between them is at most
// ioSizeMerge and the merged read stays within ioSizeMax.
func (e *Engine) Decode(h engine.Handle, dest []byte, dt dtype.DataType, spec *dimspec.Spec, ioSizeMax, ioSizeMerge uint64) engine.Status {
	r, ok := e.lookup(h)
	if !ok {
		return engine.InvalidArgument
	}
	v := r.v
	if spec.Len() != v.Rank() {
		return engine.InvalidArgument
	}
	if dt != v.DataType {
		return engine.DataTypeMismatch
	}

	start, end := spec.Start(), spec.End()
	offset, cube := spec.Offset(), spec.Dimension()
	empty := false
	for i := range start {
		if start[i] > end[i] || end[i] > v.Dimensions[i] {
			return engine.InvalidArgument
		}
		if offset[i] > cube[i] || end[i]-start[i] > cube[i]-offset[i] {
			return engine.InvalidArgument
		}
		if start[i] == end[i] {
			empty = true
		}
	}
	elemSize := dt.Size()
	need, ok := container.Product(cube, elemSize)
	if !ok || uint64(len(dest)) < need {
		return engine.InvalidArgument
	}
	if empty {
		return engine.OK
	}
	if ioSizeMax == 0 {
		ioSizeMax = engine.DefaultIOSizeMax
	}
	if ioSizeMerge == 0 {
		ioSizeMerge = engine.DefaultIOSizeMerge
	}

	buf, err := e.heap.Alloc(v.ChunkBytes())
	if err != nil {
		e.logger.Debug("chunk buffer", zap.Uint64("bytes", v.ChunkBytes()), zap.Error(err))
		return engine.OutOfMemory
	}
	defer e.heap.Free(buf)

	chunks := overlappingChunks(v, start, end)

	ends, st := e.readIndex(r, chunks, ioSizeMax, ioSizeMerge)
	if st != engine.OK {
		return st
	}

	payloads := make([]span, len(chunks))
	for i, c := range chunks {
		lo := v.DataOffset
		if c > 0 {
			lo = ends[c-1]
		}
		hi := ends[c]
		if lo > hi || hi > v.IndexOffset {
			return engine.Decoder
		}
		payloads[i] = span{lo, hi}
	}

	d := decoder{
		v:        v,
		codec:    r.codec,
		dest:     dest,
		start:    start,
		end:      end,
		offset:   offset,
		cube:     cube,
		elemSize: elemSize,
		buf:      buf.Bytes(),
	}
	groups := mergeSpans(payloads, ioSizeMax, ioSizeMerge)
	for _, g := range groups {
		data, st := r.backend.get(g.span.lo, g.span.hi-g.span.lo)
		if st != engine.OK {
			return st
		}
		for i := g.first; i < g.last; i++ {
			p := payloads[i]
			if st := d.chunk(chunks[i], data[p.lo-g.span.lo:p.hi-g.span.lo]); st != engine.OK {
				return st
			}
		}
	}

	e.logger.Debug("decoded",
		zap.Uint64("handle", uint64(h)),
		zap.Int("chunks", len(chunks)),
		zap.Int("reads", len(groups)),
	)
	return engine.OK
}

// readIndex fetches the index entries bounding each chunk and returns them
// keyed by chunk number.
func (e *Engine) readIndex(r *reader, chunks []uint64, ioSizeMax, ioSizeMerge uint64) (map[uint64]uint64, engine.Status) {
	entries := make([]uint64, 0, 2*len(chunks))
	for _, c := range chunks {
		if c > 0 && (len(entries) == 0 || entries[len(entries)-1] != c-1) {
			entries = append(entries, c-1)
		}
		if len(entries) == 0 || entries[len(entries)-1] != c {
			entries = append(entries, c)
		}
	}

	spans := make([]span, len(entries))
	for i, n := range entries {
		lo := r.v.IndexOffset + 8*n
		spans[i] = span{lo, lo + 8}
	}

	ends := make(map[uint64]uint64, len(entries))
	for _, g := range mergeSpans(spans, ioSizeMax, ioSizeMerge) {
		data, st := r.backend.get(g.span.lo, g.span.hi-g.span.lo)
		if st != engine.OK {
			return nil, st
		}
		for i := g.first; i < g.last; i++ {
			ends[entries[i]] = binary.LittleEndian.Uint64(data[spans[i].lo-g.span.lo:])
		}
	}
	return ends, engine.OK
}

// group is a merged read covering spans[first:last].
type group struct {
	span        span
	first, last int
}

// mergeSpans coalesces sorted spans. A span larger than ioSizeMax is read on
// its own.
func mergeSpans(spans []span, ioSizeMax, ioSizeMerge uint64) []group {
	var groups []group
	for i, s := range spans {
		if n := len(groups); n > 0 {
			g := &groups[n-1]
			if s.lo >= g.span.hi && s.lo-g.span.hi <= ioSizeMerge && s.hi-g.span.lo <= ioSizeMax {
				g.span.hi = s.hi
				g.last = i + 1
				continue
			}
		}
		groups = append(groups, group{span: s, first: i, last: i + 1})
	}
	return groups
}

// overlappingChunks returns the row-major indices of every chunk that
// intersects [start, end), in ascending order.
func overlappingChunks(v *container.Variable, start, end []uint64) []uint64 {
	rank := v.Rank()
	grid := v.ChunkGrid()
	first := make([]uint64, rank)
	last := make([]uint64, rank)
	total := uint64(1)
	for i := 0; i < rank; i++ {
		first[i] = start[i] / v.Chunks[i]
		last[i] = (end[i] - 1) / v.Chunks[i]
		total *= last[i] - first[i] + 1
	}

	chunks := make([]uint64, 0, total)
	pos := append([]uint64(nil), first...)
	for {
		chunks = append(chunks, container.ChunkIndex(grid, pos))
		i := rank - 1
		for ; i >= 0; i-- {
			if pos[i] < last[i] {
				pos[i]++
				break
			}
			pos[i] = first[i]
		}
		if i < 0 {
			return chunks
		}
	}
}

// decoder copies decompressed chunks into the destination cube.
type decoder struct {
	v        *container.Variable
	codec    codec.Codec
	dest     []byte
	start    []uint64
	end      []uint64
	offset   []uint64
	cube     []uint64
	elemSize uint64
	buf      []byte
}

func (d *decoder) chunk(c uint64, payload []byte) engine.Status {
	origin, extent := d.v.ChunkBox(c)
	size, ok := container.Product(extent, d.elemSize)
	if !ok || size > uint64(len(d.buf)) {
		return engine.Decoder
	}
	raw := d.buf[:size]
	if err := codec.Decode(d.codec, raw, payload); err != nil {
		return engine.Decoder
	}

	rank := len(origin)
	srcOrigin := make([]uint64, rank)
	dstOrigin := make([]uint64, rank)
	count := make([]uint64, rank)
	for i := 0; i < rank; i++ {
		lo := max(origin[i], d.start[i])
		hi := min(origin[i]+extent[i], d.end[i])
		srcOrigin[i] = lo - origin[i]
		dstOrigin[i] = d.offset[i] + lo - d.start[i]
		count[i] = hi - lo
	}
	container.CopyBox(d.dest, d.cube, dstOrigin, raw, extent, srcOrigin, count, d.elemSize)
	return engine.OK
}
