package omfile

import (
	"fmt"

	"github.com/discochess/omfile/internal/intcodec"
	"github.com/discochess/omfile/internal/stats"
)

// CompressorOption configures a Compressor.
type CompressorOption func(*compressorOptions)

type compressorOptions struct {
	capacity int
	stats    stats.Collector
}

// WithCapacity sets the maximum number of values SetData accepts.
// Default is 1<<20.
func WithCapacity(n int) CompressorOption {
	return func(o *compressorOptions) {
		o.capacity = n
	}
}

// WithCompressorStats sets the stats collector.
// If not set, a no-op collector is used.
func WithCompressorStats(c stats.Collector) CompressorOption {
	return func(o *compressorOptions) {
		o.stats = c
	}
}

type compressorState int

const (
	compressorCreated compressorState = iota
	compressorDataSet
	compressorCompressed
	compressorDestroyed
)

// Compressor packs uint16 sequences with the delta bit-packing integer codec.
// Data is staged with SetData, compressed with Compress and may be
// decompressed any number of times. Each call re-runs the codec on the
// current buffers.
//
// A Compressor is not safe for concurrent use.
type Compressor struct {
	engine   *intcodec.Compressor
	capacity int
	state    compressorState
	stats    stats.Collector
}

// NewCompressor creates a compressor.
func NewCompressor(opts ...CompressorOption) *Compressor {
	o := compressorOptions{
		capacity: intcodec.DefaultCapacity,
		stats:    stats.NewNoop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	engine := intcodec.New(o.capacity)
	return &Compressor{
		engine:   engine,
		capacity: engine.Capacity(),
		stats:    o.stats,
	}
}

// Capacity returns the maximum number of values SetData accepts.
func (c *Compressor) Capacity() int { return c.capacity }

// SetData stages data for compression, discarding any earlier output.
func (c *Compressor) SetData(data []uint16) error {
	const op = "set data"
	if c.state == compressorDestroyed {
		return stateError(op, ErrClosed)
	}
	if len(data) == 0 {
		return validationError(op, fmt.Errorf("empty input: %w", ErrInvalidInput))
	}
	if !c.engine.SetData(data) {
		return validationError(op, fmt.Errorf("%d values exceed capacity %d: %w",
			len(data), c.capacity, ErrInvalidInput))
	}
	c.state = compressorDataSet
	return nil
}

// Compress encodes the staged values and returns a copy of the output.
func (c *Compressor) Compress() ([]byte, error) {
	const op = "compress"
	switch c.state {
	case compressorDestroyed:
		return nil, stateError(op, ErrClosed)
	case compressorCreated:
		return nil, stateError(op, fmt.Errorf("no data set: %w", ErrInvalidInput))
	}
	n := c.engine.Compress()
	if n == 0 {
		return nil, &Error{Kind: KindEngine, Op: op, Err: ErrCompression}
	}
	c.state = compressorCompressed
	c.stats.IncCounter(stats.MetricCompressions, 1)
	return append([]byte(nil), c.engine.Compressed()...), nil
}

// Decompress decodes the first n values of the last Compress output.
func (c *Compressor) Decompress(n int) ([]uint16, error) {
	const op = "decompress"
	switch c.state {
	case compressorDestroyed:
		return nil, stateError(op, ErrClosed)
	case compressorCreated:
		return nil, stateError(op, fmt.Errorf("no data set: %w", ErrInvalidInput))
	case compressorDataSet:
		return nil, &Error{Kind: KindEngine, Op: op, Err: fmt.Errorf("nothing compressed: %w", ErrDecompression)}
	}
	if n <= 0 || n > c.engine.Len() {
		return nil, &Error{Kind: KindEngine, Op: op,
			Err: fmt.Errorf("length %d of %d staged: %w", n, c.engine.Len(), ErrDecompression)}
	}
	out := make([]uint16, n)
	if !c.engine.Decompress(out) {
		return nil, &Error{Kind: KindEngine, Op: op, Err: fmt.Errorf("%d values: %w", n, ErrDecompression)}
	}
	return out, nil
}

// Close releases the compressor and its buffers. Calling Close more than
// once is a no-op.
func (c *Compressor) Close() error {
	if c.state == compressorDestroyed {
		return nil
	}
	c.state = compressorDestroyed
	c.engine = nil
	return nil
}
