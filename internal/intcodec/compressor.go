package intcodec

// DefaultCapacity is the element capacity of a Compressor created with
// capacity 0.
const DefaultCapacity = 1 << 20

// Compressor holds one input sequence and its compressed form. It mirrors a
// stateful engine object: data is staged with SetData, compressed in place,
// and can be decompressed back into the staging buffer any number of times.
//
// A Compressor is not safe for concurrent use.
type Compressor struct {
	capacity int
	data     []uint16
	n        int
	out      []byte
}

// New creates a compressor able to hold capacity values.
func New(capacity int) *Compressor {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Compressor{
		capacity: capacity,
		data:     make([]uint16, capacity),
	}
}

// Capacity returns the maximum number of values SetData accepts.
func (c *Compressor) Capacity() int {
	return c.capacity
}

// SetData copies src into the staging buffer. It reports false if src exceeds
// the capacity. Any previous compressed output is discarded.
func (c *Compressor) SetData(src []uint16) bool {
	if len(src) > c.capacity {
		return false
	}
	c.n = copy(c.data, src)
	c.out = c.out[:0]
	return true
}

// Len returns the number of staged values.
func (c *Compressor) Len() int {
	return c.n
}

// Compress encodes the staged values and returns the compressed size.
// It returns 0 if nothing is staged.
func (c *Compressor) Compress() int {
	if c.n == 0 {
		return 0
	}
	if cap(c.out) < Bound(c.n) {
		c.out = make([]byte, 0, Bound(c.n))
	}
	c.out = Encode128v16(c.out[:0], c.data[:c.n])
	return len(c.out)
}

// Compressed returns the output of the last Compress. The slice is reused by
// the next call.
func (c *Compressor) Compressed() []byte {
	return c.out
}

// Decompress decodes the first len(dst) values of the compressed output into
// dst. It reports false if there is no compressed output or it holds fewer
// than len(dst) values.
func (c *Compressor) Decompress(dst []uint16) bool {
	if len(c.out) == 0 || len(dst) > c.n {
		return false
	}
	_, err := Decode128v16(dst, c.out)
	return err == nil
}
