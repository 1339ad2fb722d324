package omfile

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/discochess/omfile/internal/builder"
	"github.com/discochess/omfile/internal/store"
	"github.com/discochess/omfile/internal/store/diskstore"
)

// Opener opens Readers over containers held in a store.
type Opener struct {
	store    store.Store
	opts     []Option
	logger   *zap.Logger
	manifest *builder.Manifest
	closed   atomic.Bool
}

// NewOpener creates an Opener over st. opts apply to every Reader it opens.
func NewOpener(st store.Store, opts ...Option) (*Opener, error) {
	if st == nil {
		return nil, ErrNoStore
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt.apply(&o)
	}
	return &Opener{
		store:  st,
		opts:   opts,
		logger: o.logger,
	}, nil
}

// OpenDir creates an Opener over a directory produced by the builder. The
// directory's manifest.json lists the containers it holds.
func OpenDir(dir string, opts ...Option) (*Opener, error) {
	st, err := diskstore.New(dir)
	if err != nil {
		return nil, fmt.Errorf("creating store: %w", err)
	}
	op, err := NewOpener(st, opts...)
	if err != nil {
		st.Close()
		return nil, err
	}
	if err := op.LoadManifest(dir); err != nil {
		st.Close()
		return nil, err
	}
	return op, nil
}

// LoadManifest reads the builder manifest in dir. Afterwards Open accepts
// array names as well as file names.
func (o *Opener) LoadManifest(dir string) error {
	m, err := builder.ReadManifest(dir)
	if err != nil {
		return fmt.Errorf("reading manifest: %w", err)
	}
	o.manifest = m
	return nil
}

// FetchManifest reads the builder manifest from the store itself, for stores
// that are not a local directory.
func (o *Opener) FetchManifest(ctx context.Context) error {
	size, err := o.store.Size(ctx, builder.ManifestFilename)
	if err != nil {
		return fmt.Errorf("reading manifest: %w", err)
	}
	data, err := o.store.ReadRange(ctx, builder.ManifestFilename, 0, size)
	if err != nil {
		return fmt.Errorf("reading manifest: %w", err)
	}
	m, err := builder.ParseManifest(data)
	if err != nil {
		return err
	}
	o.manifest = m
	return nil
}

// Open opens a Reader over the named container. Fetches made by the Reader
// run under ctx.
func (o *Opener) Open(ctx context.Context, name string) (*Reader, error) {
	if o.closed.Load() {
		return nil, stateError("open", ErrClosed)
	}
	if o.manifest != nil {
		if a, ok := o.manifest.Lookup(name); ok {
			name = a.File
		}
	}
	src, size, err := StoreSource(ctx, o.store, name)
	if err != nil {
		return nil, &Error{Kind: KindIO, Op: "open", Err: err}
	}
	r, err := NewReader(src, size, o.opts...)
	if err != nil {
		return nil, err
	}
	o.logger.Debug("opened container", zap.String("name", name), zap.Uint64("size", size))
	return r, nil
}

// Manifest returns the manifest loaded by LoadManifest, or nil.
func (o *Opener) Manifest() *builder.Manifest {
	return o.manifest
}

// Store returns the underlying store.
func (o *Opener) Store() store.Store {
	return o.store
}

// Close closes the underlying store. Readers already opened stay usable only
// as far as the store allows.
func (o *Opener) Close() error {
	if o.closed.Swap(true) {
		return nil
	}
	return o.store.Close()
}
