package omfile

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/discochess/omfile/internal/callback"
	"github.com/discochess/omfile/internal/codec"
	"github.com/discochess/omfile/internal/codec/zstdcodec"
	"github.com/discochess/omfile/internal/container"
	"github.com/discochess/omfile/internal/dtype"
	"github.com/discochess/omfile/internal/native"
	"github.com/discochess/omfile/internal/store"
)

// fixtureValue is the value stored at flat index i of every fixture array.
func fixtureValue(i int) float32 {
	return 12.5 + float32(i)*0.5
}

// buildFixture writes a float32 container of the given shape.
func buildFixture(t *testing.T, dims, chunks []uint64, c codec.Codec) []byte {
	t.Helper()

	n := 1
	for _, d := range dims {
		n *= int(d)
	}
	raw := make([]byte, 0, 4*n)
	for i := 0; i < n; i++ {
		raw = binary.LittleEndian.AppendUint32(raw, math.Float32bits(fixtureValue(i)))
	}

	var buf bytes.Buffer
	w, err := container.NewWriter(&buf, container.Variable{
		Name:       "temperature",
		DataType:   dtype.Float32,
		Dimensions: dims,
		Chunks:     chunks,
	}, c)
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}
	if err := w.WriteArray(raw); err != nil {
		t.Fatalf("WriteArray() error = %v", err)
	}
	return buf.Bytes()
}

// recordingSource serves a container and counts fetches. Once fail is set,
// every fetch returns it.
type recordingSource struct {
	mu    sync.Mutex
	data  []byte
	calls int
	fail  error
}

func (s *recordingSource) Fetch(offset, length uint64) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.fail != nil {
		return nil, s.fail
	}
	if err := store.CheckRange(uint64(len(s.data)), offset, length); err != nil {
		return nil, err
	}
	return append([]byte(nil), s.data[offset:offset+length]...), nil
}

func (s *recordingSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *recordingSource) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}

// fixture is an open reader over a 3-D float32 array of shape 12x11x10.
type fixture struct {
	src      *recordingSource
	registry *callback.Registry
	heap     *native.Heap
	reader   *Reader
}

var (
	fixtureDims   = []uint64{12, 11, 10}
	fixtureChunks = []uint64{5, 4, 3}
)

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	f := &fixture{
		src:      &recordingSource{data: buildFixture(t, fixtureDims, fixtureChunks, zstdcodec.New())},
		registry: callback.NewRegistry(),
		heap:     native.NewHeap(0),
	}
	opts = append([]Option{WithRegistry(f.registry), WithHeap(f.heap)}, opts...)
	r, err := NewReader(f.src, uint64(len(f.src.data)), opts...)
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	t.Cleanup(func() { r.Close() })
	f.reader = r
	return f
}

// expected returns the fixture values of the box ranges in row-major order.
func expected(ranges []Range) []float32 {
	var out []float32
	var walk func(dim, flat int)
	walk = func(dim, flat int) {
		if dim == len(ranges) {
			out = append(out, fixtureValue(flat))
			return
		}
		for i := ranges[dim].Start; i < ranges[dim].End; i++ {
			walk(dim+1, flat*int(fixtureDims[dim])+int(i))
		}
	}
	walk(0, 0)
	return out
}

func floats(b []byte) []float32 {
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return out
}

func writeFile(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
}
