// Package omfile reads hyperrectangles out of chunked n-dimensional array
// containers without loading the whole container.
//
// A Reader is opened over a ByteSource, which the decode engine calls back
// into whenever it needs bytes: first the header and trailer, then the chunk
// index and the compressed chunks overlapping each request. Reads that lie
// close together are merged into one fetch, so a ByteSource backed by object
// storage sees few, large range requests.
//
// Basic usage:
//
//	r, err := omfile.NewReader(omfile.BytesSource(data), uint64(len(data)))
//	if err != nil {
//		return err
//	}
//	defer r.Close()
//
//	temps, err := omfile.Read[float32](r, []omfile.Range{{0, 10}, {0, 10}, {0, 1}})
//
// Every failure is an *Error whose Kind can be tested with errors.Is against
// ErrValidation, ErrIO, ErrEngine, ErrResource and ErrState.
package omfile

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/discochess/omfile/internal/callback"
	"github.com/discochess/omfile/internal/codec/codecs"
	"github.com/discochess/omfile/internal/engine"
	"github.com/discochess/omfile/internal/native"
	"github.com/discochess/omfile/internal/stats"
)

type readerState int

const (
	stateUninitialized readerState = iota
	stateOpen
	stateDestroyed
)

// Reader decodes ranges of one stored array. The zero Reader is
// uninitialized and rejects every call except Close.
//
// A Reader is not safe for concurrent use. Callers that decode from several
// goroutines open one Reader per goroutine, each with its own ByteSource.
type Reader struct {
	state readerState

	engine   engine.Engine
	registry *callback.Registry
	heap     *native.Heap
	stats    stats.Collector
	logger   *zap.Logger

	id       callback.ID
	handle   engine.Handle
	variable engine.Variable
	size     uint64
}

// NewReader parses the container reachable through src, which is totalSize
// bytes long.
func NewReader(src ByteSource, totalSize uint64, opts ...Option) (*Reader, error) {
	if src == nil {
		return nil, validationError("open", ErrNilSource)
	}
	o := applyOptions(opts)

	id := o.registry.Register(&countingSource{src: src, stats: o.stats})
	h, st := o.engine.CreateReader(id, totalSize)
	if st != engine.OK {
		err := statusError("open", st, o.registry.Err(id))
		if e, ok := err.(*Error); ok && e.Err == nil {
			e.Err = ErrReaderCreation
		}
		o.registry.Unregister(id)
		o.logger.Debug("open failed", zap.Uint64("size", totalSize), zap.Error(err))
		return nil, err
	}

	v, ok := o.engine.Variable(h)
	if !ok {
		o.engine.DestroyReader(h)
		o.registry.Unregister(id)
		return nil, &Error{Kind: KindEngine, Op: "open", Status: StatusInvalidArgument,
			Err: fmt.Errorf("handle %d has no variable: %w", h, ErrReaderCreation)}
	}

	o.stats.IncCounter(stats.MetricReadersOpened, 1)
	o.logger.Debug("reader opened",
		zap.String("name", v.Name),
		zap.Stringer("dtype", v.DataType),
		zap.Uint64s("dims", v.Dimensions),
		zap.Uint64s("chunks", v.Chunks),
	)

	return &Reader{
		state:    stateOpen,
		engine:   o.engine,
		registry: o.registry,
		heap:     o.heap,
		stats:    o.stats,
		logger:   o.logger,
		id:       id,
		handle:   h,
		variable: v,
		size:     totalSize,
	}, nil
}

// Name returns the stored variable name.
func (r *Reader) Name() string { return r.variable.Name }

// DataType returns the stored element type.
func (r *Reader) DataType() DataType { return r.variable.DataType }

// Rank returns the number of dimensions.
func (r *Reader) Rank() int { return len(r.variable.Dimensions) }

// Dimensions returns a copy of the array shape.
func (r *Reader) Dimensions() []uint64 {
	return append([]uint64(nil), r.variable.Dimensions...)
}

// ChunkDimensions returns a copy of the chunk shape.
func (r *Reader) ChunkDimensions() []uint64 {
	return append([]uint64(nil), r.variable.Chunks...)
}

// Codec returns the name of the chunk compression codec.
func (r *Reader) Codec() string { return codecs.Name(r.variable.Codec) }

// Size returns the container size in bytes.
func (r *Reader) Size() uint64 { return r.size }

// Close releases the engine reader and the byte source registration.
// Calling Close more than once, or on a zero Reader, is a no-op.
func (r *Reader) Close() error {
	if r.state != stateOpen {
		return nil
	}
	r.state = stateDestroyed
	r.engine.DestroyReader(r.handle)
	r.registry.Unregister(r.id)
	r.logger.Debug("reader closed", zap.String("name", r.variable.Name))
	return nil
}

// checkOpen reports a state error unless r is open.
func (r *Reader) checkOpen(op string) error {
	switch r.state {
	case stateOpen:
		return nil
	case stateDestroyed:
		return stateError(op, ErrClosed)
	}
	return stateError(op, ErrNotInitialized)
}
