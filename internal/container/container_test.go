package container

import (
	"bytes"
	"encoding/binary"
	"errors"
	"slices"
	"testing"

	"github.com/discochess/omfile/internal/codec"
	"github.com/discochess/omfile/internal/codec/gzipcodec"
	"github.com/discochess/omfile/internal/codec/noopcodec"
	"github.com/discochess/omfile/internal/dtype"
)

func int16Array(n int) []byte {
	b := make([]byte, 0, 2*n)
	for i := 0; i < n; i++ {
		b = binary.LittleEndian.AppendUint16(b, uint16(i))
	}
	return b
}

func TestVariable_ChunkBox(t *testing.T) {
	v := &Variable{
		DataType:   dtype.Int16,
		Dimensions: []uint64{5, 7},
		Chunks:     []uint64{2, 3},
	}
	if got := v.ChunkGrid(); !slices.Equal(got, []uint64{3, 3}) {
		t.Fatalf("ChunkGrid() = %v, want [3 3]", got)
	}
	if v.NumChunks() != 9 {
		t.Errorf("NumChunks() = %d, want 9", v.NumChunks())
	}

	tests := []struct {
		chunk      uint64
		wantOrigin []uint64
		wantExtent []uint64
	}{
		{0, []uint64{0, 0}, []uint64{2, 3}},
		{2, []uint64{0, 6}, []uint64{2, 1}},
		{4, []uint64{2, 3}, []uint64{2, 3}},
		{8, []uint64{4, 6}, []uint64{1, 1}},
	}
	for _, tt := range tests {
		origin, extent := v.ChunkBox(tt.chunk)
		if !slices.Equal(origin, tt.wantOrigin) || !slices.Equal(extent, tt.wantExtent) {
			t.Errorf("ChunkBox(%d) = %v %v, want %v %v", tt.chunk, origin, extent, tt.wantOrigin, tt.wantExtent)
		}
		pos := make([]uint64, 2)
		for i := range pos {
			pos[i] = origin[i] / v.Chunks[i]
		}
		if got := ChunkIndex(v.ChunkGrid(), pos); got != tt.chunk {
			t.Errorf("ChunkIndex(%v) = %d, want %d", pos, got, tt.chunk)
		}
	}
}

func TestProduct(t *testing.T) {
	tests := []struct {
		vals   []uint64
		size   uint64
		want   uint64
		wantOK bool
	}{
		{nil, 4, 4, true},
		{[]uint64{3, 4, 5}, 2, 120, true},
		{[]uint64{1<<62 + 1, 1, 1}, 4, 0, false},
		{[]uint64{1 << 32, 1 << 32}, 1, 0, false},
		{[]uint64{1 << 32, 0, 1 << 32}, 8, 0, true},
	}
	for _, tt := range tests {
		got, ok := Product(tt.vals, tt.size)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("Product(%v, %d) = %d, %v, want %d, %v", tt.vals, tt.size, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestVariable_ChunkGridLargeDimension(t *testing.T) {
	v := &Variable{DataType: dtype.Int8, Dimensions: []uint64{1<<64 - 1}, Chunks: []uint64{1 << 32}}
	if got := v.ChunkGrid(); got[0] != 1<<32 {
		t.Errorf("ChunkGrid() = %v, want [%d]", got, uint64(1<<32))
	}
	if got := v.ChunkBytes(); got != 1<<32 {
		t.Errorf("ChunkBytes() = %d, want %d", got, uint64(1<<32))
	}
}

func TestCopyBox(t *testing.T) {
	// 3x4 source of bytes 0..11, copy the 2x2 box at (1,1) into (0,1) of a 2x3 destination.
	src := []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}
	dst := make([]byte, 6)

	CopyBox(dst, []uint64{2, 3}, []uint64{0, 1}, src, []uint64{3, 4}, []uint64{1, 1}, []uint64{2, 2}, 1)

	want := []byte{0, 5, 6, 0, 9, 10}
	if !bytes.Equal(dst, want) {
		t.Errorf("CopyBox() dst = %v, want %v", dst, want)
	}
}

func TestCopyBox_EmptyCount(t *testing.T) {
	dst := []byte{7, 7}
	CopyBox(dst, []uint64{2}, []uint64{0}, []byte{1, 2}, []uint64{2}, []uint64{0}, []uint64{0}, 1)
	if !bytes.Equal(dst, []byte{7, 7}) {
		t.Errorf("CopyBox() with zero count modified dst: %v", dst)
	}
}

func TestWriter_RoundTrip(t *testing.T) {
	for _, c := range []codec.Codec{noopcodec.New(), gzipcodec.New()} {
		v := Variable{
			Name:       "temperature",
			DataType:   dtype.Int16,
			Dimensions: []uint64{5, 7},
			Chunks:     []uint64{2, 3},
		}
		data := int16Array(35)

		var buf bytes.Buffer
		w, err := NewWriter(&buf, v, c)
		if err != nil {
			t.Fatalf("NewWriter() error = %v", err)
		}
		if err := w.WriteArray(data); err != nil {
			t.Fatalf("WriteArray() error = %v", err)
		}
		if w.Size() != uint64(buf.Len()) {
			t.Errorf("Size() = %d, want %d", w.Size(), buf.Len())
		}
		file := buf.Bytes()

		if err := ParseHeader(file); err != nil {
			t.Fatalf("ParseHeader() error = %v", err)
		}
		tr, err := ParseTrailer(file[len(file)-TrailerSize:])
		if err != nil {
			t.Fatalf("ParseTrailer() error = %v", err)
		}
		got, err := ParseVariable(file[tr.VariableOffset : tr.VariableOffset+tr.VariableSize])
		if err != nil {
			t.Fatalf("ParseVariable() error = %v", err)
		}
		if got.Name != "temperature" || got.DataType != dtype.Int16 || got.Codec != c.ID() {
			t.Errorf("ParseVariable() = %+v", got)
		}
		if got.DataOffset != HeaderSize {
			t.Errorf("DataOffset = %d, want %d", got.DataOffset, HeaderSize)
		}

		start := got.DataOffset
		for chunk := uint64(0); chunk < got.NumChunks(); chunk++ {
			end := binary.LittleEndian.Uint64(file[got.IndexOffset+8*chunk:])
			want := got.ExtractChunk(data, chunk)
			raw := make([]byte, len(want))
			if err := codec.Decode(c, raw, file[start:end]); err != nil {
				t.Fatalf("chunk %d: Decode() error = %v", chunk, err)
			}
			if !bytes.Equal(raw, want) {
				t.Errorf("chunk %d = %v, want %v", chunk, raw, want)
			}
			start = end
		}
	}
}

func TestWriter_Errors(t *testing.T) {
	v := Variable{DataType: dtype.Float32, Dimensions: []uint64{4}, Chunks: []uint64{2}}

	var buf bytes.Buffer
	w, err := NewWriter(&buf, v, noopcodec.New())
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}
	if err := w.WriteArray(make([]byte, 3)); err == nil {
		t.Error("WriteArray() with wrong size expected error, got nil")
	}
	if err := w.WriteChunk(make([]byte, 8)); err != nil {
		t.Fatalf("WriteChunk() error = %v", err)
	}
	if err := w.Close(); !errors.Is(err, ErrChunkCount) {
		t.Errorf("Close() error = %v, want ErrChunkCount", err)
	}
	if err := w.WriteChunk(make([]byte, 8)); err != nil {
		t.Fatalf("WriteChunk() error = %v", err)
	}
	if err := w.WriteChunk(make([]byte, 8)); !errors.Is(err, ErrChunkCount) {
		t.Errorf("WriteChunk() past end error = %v, want ErrChunkCount", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestParse_Errors(t *testing.T) {
	if err := ParseHeader([]byte("PK\x03\x04abcd")); !errors.Is(err, ErrNotContainer) {
		t.Errorf("ParseHeader() error = %v, want ErrNotContainer", err)
	}
	if err := ParseHeader([]byte{'O', 'M', 2, 0, 0, 0, 0, 0}); !errors.Is(err, ErrNotContainer) {
		t.Errorf("ParseHeader() old version error = %v, want ErrNotContainer", err)
	}
	if _, err := ParseTrailer(make([]byte, 10)); !errors.Is(err, ErrCorrupt) {
		t.Errorf("ParseTrailer() error = %v, want ErrCorrupt", err)
	}

	v := &Variable{DataType: dtype.Float32, Dimensions: []uint64{4, 4}, Chunks: []uint64{2, 2}, Name: "x"}
	meta, err := v.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary() error = %v", err)
	}
	for _, n := range []int{0, 10, len(meta) - 1} {
		if _, err := ParseVariable(meta[:n]); !errors.Is(err, ErrCorrupt) {
			t.Errorf("ParseVariable(%d bytes) error = %v, want ErrCorrupt", n, err)
		}
	}

	bad := []*Variable{
		{DataType: dtype.Float32},
		{DataType: dtype.Float32, Dimensions: []uint64{4}, Chunks: []uint64{0}},
		{DataType: dtype.Float32, Dimensions: []uint64{4}, Chunks: []uint64{2, 2}},
		{DataType: dtype.String, Dimensions: []uint64{4}, Chunks: []uint64{2}},
		{DataType: dtype.Float32, Dimensions: []uint64{1 << 50}, Chunks: []uint64{1 << 50}},
		{DataType: dtype.Float64, Dimensions: []uint64{1 << 40, 1 << 30}, Chunks: []uint64{1, 1}},
		{DataType: dtype.Int8, Dimensions: []uint64{1 << 32}, Chunks: []uint64{MaxChunkBytes + 1}},
	}
	for i, v := range bad {
		if err := v.Validate(); !errors.Is(err, ErrCorrupt) {
			t.Errorf("bad[%d].Validate() error = %v, want ErrCorrupt", i, err)
		}
	}
}
