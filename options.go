package omfile

import (
	"go.uber.org/zap"

	"github.com/discochess/omfile/internal/callback"
	"github.com/discochess/omfile/internal/engine"
	"github.com/discochess/omfile/internal/engine/omengine"
	"github.com/discochess/omfile/internal/native"
	"github.com/discochess/omfile/internal/stats"
)

// DefaultHeapLimit bounds the staging memory a Reader may hold at once.
const DefaultHeapLimit = 1 << 30

// Option configures a Reader.
type Option interface {
	apply(*options)
}

// options holds the reader configuration.
type options struct {
	engine    engine.Engine
	registry  *callback.Registry
	heap      *native.Heap
	heapLimit uint64
	stats     stats.Collector
	logger    *zap.Logger
}

// defaultOptions returns the default configuration.
func defaultOptions() options {
	return options{
		registry:  callback.Default,
		heapLimit: DefaultHeapLimit,
		stats:     stats.NewNoop(),
		logger:    zap.NewNop(),
	}
}

// resolve fills in the engine and heap once all options are applied.
func (o *options) resolve() {
	if o.heap == nil {
		o.heap = native.NewHeap(o.heapLimit)
	}
	if o.engine == nil {
		o.engine = omengine.New(o.registry,
			omengine.WithLogger(o.logger.Named("engine")),
			omengine.WithHeap(o.heap),
		)
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt.apply(&o)
	}
	o.resolve()
	return o
}

// optionFunc wraps a function to implement Option.
type optionFunc func(*options)

// Compile-time check that optionFunc implements Option.
var _ Option = optionFunc(nil)

func (f optionFunc) apply(o *options) { f(o) }

// WithEngine sets the decode engine. The engine must resolve fetch callbacks
// through the same registry as the Reader, see WithRegistry.
// If not set, the built-in engine is used.
func WithEngine(e engine.Engine) Option {
	return optionFunc(func(o *options) {
		o.engine = e
	})
}

// WithRegistry sets the callback registry byte sources are registered in.
// If not set, callback.Default is used.
func WithRegistry(r *callback.Registry) Option {
	return optionFunc(func(o *options) {
		o.registry = r
	})
}

// WithHeap sets the heap staging buffers are allocated from. Readers sharing
// a heap share its limit.
func WithHeap(h *native.Heap) Option {
	return optionFunc(func(o *options) {
		o.heap = h
	})
}

// WithHeapLimit sets the staging memory limit in bytes. 0 disables the limit.
// Ignored when WithHeap is given.
func WithHeapLimit(n uint64) Option {
	return optionFunc(func(o *options) {
		o.heapLimit = n
	})
}

// WithStats sets the stats collector.
// If not set, a no-op collector is used.
func WithStats(c stats.Collector) Option {
	return optionFunc(func(o *options) {
		o.stats = c
	})
}

// WithLogger sets the logger.
// If not set, a no-op logger is used.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(o *options) {
		o.logger = l
	})
}

// DecodeOption tunes a single Decode call.
type DecodeOption func(*decodeOptions)

type decodeOptions struct {
	ioSizeMax   uint64
	ioSizeMerge uint64
}

// WithIOSizeMax caps the bytes fetched by a single merged read.
// 0 selects the engine default of 65536.
func WithIOSizeMax(n uint64) DecodeOption {
	return func(o *decodeOptions) {
		o.ioSizeMax = n
	}
}

// WithIOSizeMerge sets the largest gap between two reads that still merges
// them into one. 0 selects the engine default of 512.
func WithIOSizeMerge(n uint64) DecodeOption {
	return func(o *decodeOptions) {
		o.ioSizeMerge = n
	}
}
