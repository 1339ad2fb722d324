package builder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/sync/errgroup"

	"github.com/discochess/omfile/internal/codec"
	"github.com/discochess/omfile/internal/codec/codecs"
	"github.com/discochess/omfile/internal/codec/zstdcodec"
	"github.com/discochess/omfile/internal/container"
	"github.com/discochess/omfile/internal/dtype"
)

// ContainerExt is the file extension of built containers.
const ContainerExt = ".om"

var (
	// ErrNoShape is returned when dimensions or chunk dimensions are missing.
	ErrNoShape = errors.New("builder: dimensions and chunks are required")

	// ErrNoName is returned when the array has no name.
	ErrNoName = errors.New("builder: array name is required")

	// ErrSizeMismatch is returned when the source size does not match the shape.
	ErrSizeMismatch = errors.New("builder: source size does not match shape")
)

// Builder converts a raw little-endian row-major array into a container
// and records it in the output directory's manifest.
type Builder struct {
	sourceURL    string
	outputDir    string
	name         string
	dataType     dtype.DataType
	dims         []uint64
	chunks       []uint64
	codec        codec.Codec
	progress     ProgressFunc
	tempDir      string
	workersCount int
}

// Option configures the Builder.
type Option func(*Builder)

// WithSourceURL sets the URL Build downloads the raw array from.
func WithSourceURL(url string) Option {
	return func(b *Builder) { b.sourceURL = url }
}

// WithOutputDir sets the output directory.
func WithOutputDir(dir string) Option {
	return func(b *Builder) { b.outputDir = dir }
}

// WithName sets the array name. The container is written to NAME.om.
func WithName(name string) Option {
	return func(b *Builder) { b.name = name }
}

// WithDataType sets the element type of the raw array.
func WithDataType(dt dtype.DataType) Option {
	return func(b *Builder) { b.dataType = dt }
}

// WithDimensions sets the array shape.
func WithDimensions(dims ...uint64) Option {
	return func(b *Builder) { b.dims = dims }
}

// WithChunks sets the chunk shape.
func WithChunks(chunks ...uint64) Option {
	return func(b *Builder) { b.chunks = chunks }
}

// WithCodec sets the chunk codec.
func WithCodec(c codec.Codec) Option {
	return func(b *Builder) { b.codec = c }
}

// WithProgress sets the progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(b *Builder) { b.progress = fn }
}

// WithTempDir sets the temporary directory for downloads.
func WithTempDir(dir string) Option {
	return func(b *Builder) { b.tempDir = dir }
}

// WithWorkers sets the number of parallel workers for compression.
func WithWorkers(n int) Option {
	return func(b *Builder) { b.workersCount = n }
}

// NewBuilder creates a new Builder with the given options.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		outputDir:    "./data",
		dataType:     dtype.Float32,
		codec:        zstdcodec.New(),
		progress:     DefaultProgressFunc,
		workersCount: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build downloads the source array and converts it.
func (b *Builder) Build(ctx context.Context) error {
	startTime := time.Now()

	if b.tempDir == "" {
		b.tempDir = filepath.Join(b.outputDir, ".tmp")
	}
	if err := os.MkdirAll(b.tempDir, 0755); err != nil {
		return fmt.Errorf("creating temp directory: %w", err)
	}
	defer os.RemoveAll(b.tempDir)

	downloadPath := filepath.Join(b.tempDir, "source"+sourceExt(b.sourceURL))
	b.reportProgress(Progress{Phase: PhaseDownload, StartTime: startTime})

	downloader := NewDownloader()
	if err := downloader.DownloadToFile(ctx, b.sourceURL, downloadPath, b.progress); err != nil {
		return fmt.Errorf("downloading source: %w", err)
	}

	_, err := b.BuildFromFile(ctx, downloadPath, startTime)
	return err
}

// sourceExt keeps the .zst suffix of a source URL so the decoder is chosen
// the same way as for local files.
func sourceExt(url string) string {
	if strings.HasSuffix(url, ".zst") {
		return ".raw.zst"
	}
	return ".raw"
}

// BuildFromFile converts a local raw array file, zstd-compressed if its name
// ends in .zst. It returns the manifest entry of the written container.
func (b *Builder) BuildFromFile(ctx context.Context, sourcePath string, startTime time.Time) (Array, error) {
	if startTime.IsZero() {
		startTime = time.Now()
	}
	v, err := b.variable()
	if err != nil {
		return Array{}, err
	}

	file, err := os.Open(sourcePath)
	if err != nil {
		return Array{}, fmt.Errorf("opening source file: %w", err)
	}
	defer file.Close()

	var reader io.Reader = file
	if filepath.Ext(sourcePath) == ".zst" {
		decoder, err := zstd.NewReader(file)
		if err != nil {
			return Array{}, fmt.Errorf("creating zstd decoder: %w", err)
		}
		defer decoder.Close()
		reader = decoder
	}

	return b.build(ctx, reader, v, startTime)
}

// variable validates the configured shape.
func (b *Builder) variable() (*container.Variable, error) {
	if b.name == "" {
		return nil, ErrNoName
	}
	if len(b.dims) == 0 || len(b.chunks) == 0 {
		return nil, ErrNoShape
	}
	v := &container.Variable{
		Name:       b.name,
		DataType:   b.dataType,
		Codec:      b.codec.ID(),
		Dimensions: b.dims,
		Chunks:     b.chunks,
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return v, nil
}

// build reads the raw array, encodes its chunks in parallel and writes the
// container and manifest.
func (b *Builder) build(ctx context.Context, r io.Reader, v *container.Variable, startTime time.Time) (Array, error) {
	var read atomic.Int64
	b.reportProgress(Progress{Phase: PhaseRead, StartTime: startTime})
	data, err := io.ReadAll(newProgressReader(r, &read))
	if err != nil {
		return Array{}, fmt.Errorf("reading source: %w", err)
	}
	if want := v.NumElements() * v.DataType.Size(); uint64(len(data)) != want {
		return Array{}, fmt.Errorf("read %d bytes, shape needs %d: %w", len(data), want, ErrSizeMismatch)
	}
	b.reportProgress(Progress{Phase: PhaseRead, BytesRead: read.Load(), StartTime: startTime})

	select {
	case <-ctx.Done():
		return Array{}, ctx.Err()
	default:
	}

	payloads, err := b.encodeChunks(ctx, v, data, startTime)
	if err != nil {
		return Array{}, err
	}

	if err := os.MkdirAll(b.outputDir, 0755); err != nil {
		return Array{}, fmt.Errorf("creating output directory: %w", err)
	}
	fileName := b.name + ContainerExt
	size, err := b.writeContainer(filepath.Join(b.outputDir, fileName), v, payloads)
	if err != nil {
		return Array{}, err
	}

	entry := Array{
		Name:       b.name,
		File:       fileName,
		DataType:   v.DataType.String(),
		Codec:      codecs.Name(b.codec.ID()),
		Dimensions: v.Dimensions,
		Chunks:     v.Chunks,
		Size:       size,
	}
	manifest, err := readOrCreateManifest(b.outputDir)
	if err != nil {
		return Array{}, err
	}
	manifest.Version = ManifestVersion
	manifest.BuiltAt = time.Now()
	if b.sourceURL != "" {
		manifest.SourceURL = b.sourceURL
	}
	manifest.Put(entry)
	if err := WriteManifest(b.outputDir, manifest); err != nil {
		return Array{}, fmt.Errorf("writing manifest: %w", err)
	}

	b.reportProgress(Progress{
		Phase:         PhaseDone,
		BytesRead:     read.Load(),
		ChunksEncoded: len(payloads),
		ChunksTotal:   len(payloads),
		BytesWritten:  size,
		StartTime:     startTime,
	})
	return entry, nil
}

// encodeChunks compresses every chunk of data using the worker pool.
func (b *Builder) encodeChunks(ctx context.Context, v *container.Variable, data []byte, startTime time.Time) ([][]byte, error) {
	total := int(v.NumChunks())
	payloads := make([][]byte, total)

	var mu sync.Mutex
	var encoded int

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(b.workersCount, 1))
	for i := range payloads {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			payload, err := container.EncodeChunk(v, b.codec, data, uint64(i))
			if err != nil {
				return err
			}
			payloads[i] = payload

			mu.Lock()
			encoded++
			b.reportProgress(Progress{
				Phase:         PhaseEncode,
				ChunksEncoded: encoded,
				ChunksTotal:   total,
				StartTime:     startTime,
			})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return payloads, nil
}

// writeContainer writes payloads in chunk order and returns the file size.
func (b *Builder) writeContainer(path string, v *container.Variable, payloads [][]byte) (int64, error) {
	file, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	var written atomic.Int64
	w, err := container.NewWriter(newProgressWriter(file, &written), *v, b.codec)
	if err != nil {
		return 0, err
	}
	for _, p := range payloads {
		if err := w.WriteChunk(p); err != nil {
			return 0, err
		}
	}
	if err := w.Close(); err != nil {
		return 0, err
	}
	if err := file.Close(); err != nil {
		return 0, err
	}
	return written.Load(), nil
}

func (b *Builder) reportProgress(p Progress) {
	if b.progress != nil {
		b.progress(p)
	}
}
