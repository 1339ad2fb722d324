// Package omengine is the built-in decode engine for array containers.
package omengine

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/discochess/omfile/internal/callback"
	"github.com/discochess/omfile/internal/codec"
	"github.com/discochess/omfile/internal/codec/codecs"
	"github.com/discochess/omfile/internal/container"
	"github.com/discochess/omfile/internal/engine"
	"github.com/discochess/omfile/internal/native"
)

// Compile-time check that Engine implements engine.Engine.
var _ engine.Engine = (*Engine)(nil)

// Engine decodes containers fetched through a callback registry.
type Engine struct {
	registry *callback.Registry
	logger   *zap.Logger
	heap     *native.Heap

	mu      sync.Mutex
	next    engine.Handle
	readers map[engine.Handle]*reader
}

type reader struct {
	backend backend
	v       *container.Variable
	codec   codec.Codec
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for read tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithHeap sets the heap chunk decode buffers are allocated from.
func WithHeap(heap *native.Heap) Option {
	return func(e *Engine) {
		e.heap = heap
	}
}

// New creates an engine resolving fetch callbacks through registry.
func New(registry *callback.Registry, opts ...Option) *Engine {
	e := &Engine{
		registry: registry,
		logger:   zap.NewNop(),
		heap:     native.NewHeap(0),
		readers:  make(map[engine.Handle]*reader),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Readers returns the number of live reader handles.
func (e *Engine) Readers() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.readers)
}

// CreateReader reads the header, trailer and variable metadata.
func (e *Engine) CreateReader(id callback.ID, totalSize uint64) (engine.Handle, engine.Status) {
	b := backend{registry: e.registry, id: id, total: totalSize}
	if totalSize < container.HeaderSize+container.TrailerSize {
		return 0, engine.NotAnOmFile
	}

	header, st := b.get(0, container.HeaderSize)
	if st != engine.OK {
		return 0, st
	}
	if err := container.ParseHeader(header); err != nil {
		return 0, engine.NotAnOmFile
	}

	raw, st := b.get(totalSize-container.TrailerSize, container.TrailerSize)
	if st != engine.OK {
		return 0, st
	}
	trailer, err := container.ParseTrailer(raw)
	if err != nil {
		return 0, engine.NotAnOmFile
	}
	if trailer.VariableOffset > totalSize || trailer.VariableSize > totalSize-trailer.VariableOffset {
		return 0, engine.NotAnOmFile
	}

	raw, st = b.get(trailer.VariableOffset, trailer.VariableSize)
	if st != engine.OK {
		return 0, st
	}
	v, err := container.ParseVariable(raw)
	if err != nil {
		return 0, engine.NotAnOmFile
	}
	if v.IndexOffset > trailer.VariableOffset || v.NumChunks() > (trailer.VariableOffset-v.IndexOffset)/8 ||
		v.DataOffset > v.IndexOffset {
		return 0, engine.NotAnOmFile
	}
	c, err := codecs.ByID(v.Codec)
	if err != nil {
		return 0, engine.NotAnOmFile
	}

	e.mu.Lock()
	e.next++
	h := e.next
	e.readers[h] = &reader{backend: b, v: v, codec: c}
	e.mu.Unlock()

	e.logger.Debug("reader created",
		zap.Uint64("handle", uint64(h)),
		zap.String("variable", v.Name),
		zap.Uint64s("dimensions", v.Dimensions),
	)
	return h, engine.OK
}

// DestroyReader forgets h.
func (e *Engine) DestroyReader(h engine.Handle) {
	e.mu.Lock()
	delete(e.readers, h)
	e.mu.Unlock()
}

// Variable returns the stored array description for h.
func (e *Engine) Variable(h engine.Handle) (engine.Variable, bool) {
	r, ok := e.lookup(h)
	if !ok {
		return engine.Variable{}, false
	}
	return engine.Variable{
		Name:       r.v.Name,
		DataType:   r.v.DataType,
		Codec:      r.v.Codec,
		Dimensions: append([]uint64(nil), r.v.Dimensions...),
		Chunks:     append([]uint64(nil), r.v.Chunks...),
	}, true
}

func (e *Engine) lookup(h engine.Handle) (*reader, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.readers[h]
	return r, ok
}

// backend fetches container bytes through the registry.
type backend struct {
	registry *callback.Registry
	id       callback.ID
	total    uint64
}

func (b backend) get(offset, count uint64) ([]byte, engine.Status) {
	if offset > b.total || count > b.total-offset {
		return nil, engine.IO
	}
	data, err := b.registry.Invoke(b.id, offset, count)
	if err != nil {
		if errors.Is(err, callback.ErrNotRegistered) {
			return nil, engine.InvalidArgument
		}
		return nil, engine.IO
	}
	return data, engine.OK
}
