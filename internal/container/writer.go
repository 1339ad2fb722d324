package container

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/discochess/omfile/internal/codec"
)

// ErrChunkCount is returned when Close is called before every chunk is written.
var ErrChunkCount = errors.New("container: wrong number of chunks")

// Writer streams a container to an io.Writer. Chunks must be written in
// row-major chunk order, already compressed with the writer's codec.
type Writer struct {
	w      io.Writer
	v      Variable
	codec  codec.Codec
	pos    uint64
	index  []uint64
	closed bool
}

// NewWriter validates v and writes the header. The variable's codec ID and
// offsets are filled in by the writer.
func NewWriter(w io.Writer, v Variable, c codec.Codec) (*Writer, error) {
	v.Codec = c.ID()
	v.DataOffset = HeaderSize
	if err := v.Validate(); err != nil {
		return nil, err
	}
	if _, err := w.Write(AppendHeader(nil)); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}
	return &Writer{
		w:     w,
		v:     v,
		codec: c,
		pos:   HeaderSize,
		index: make([]uint64, 0, v.NumChunks()),
	}, nil
}

// Variable returns the variable being written.
func (w *Writer) Variable() *Variable {
	return &w.v
}

// WriteChunk appends one compressed chunk payload.
func (w *Writer) WriteChunk(payload []byte) error {
	if uint64(len(w.index)) >= w.v.NumChunks() {
		return fmt.Errorf("chunk %d of %d: %w", len(w.index), w.v.NumChunks(), ErrChunkCount)
	}
	if _, err := w.w.Write(payload); err != nil {
		return fmt.Errorf("writing chunk %d: %w", len(w.index), err)
	}
	w.pos += uint64(len(payload))
	w.index = append(w.index, w.pos)
	return nil
}

// EncodeChunk extracts and compresses one chunk of a full array.
func (w *Writer) EncodeChunk(data []byte, chunk uint64) ([]byte, error) {
	return EncodeChunk(&w.v, w.codec, data, chunk)
}

// EncodeChunk extracts and compresses one chunk of a full array.
func EncodeChunk(v *Variable, c codec.Codec, data []byte, chunk uint64) ([]byte, error) {
	payload, err := codec.Encode(c, v.ExtractChunk(data, chunk))
	if err != nil {
		return nil, fmt.Errorf("encoding chunk %d: %w", chunk, err)
	}
	return payload, nil
}

// WriteArray encodes and writes every chunk of data, then closes the writer.
func (w *Writer) WriteArray(data []byte) error {
	want := w.v.NumElements() * w.v.DataType.Size()
	if uint64(len(data)) != want {
		return fmt.Errorf("array is %d bytes, want %d", len(data), want)
	}
	for chunk := uint64(0); chunk < w.v.NumChunks(); chunk++ {
		payload, err := w.EncodeChunk(data, chunk)
		if err != nil {
			return err
		}
		if err := w.WriteChunk(payload); err != nil {
			return err
		}
	}
	return w.Close()
}

// Close writes the chunk index, the variable metadata and the trailer.
// It does not close the underlying writer.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	if uint64(len(w.index)) != w.v.NumChunks() {
		return fmt.Errorf("wrote %d of %d chunks: %w", len(w.index), w.v.NumChunks(), ErrChunkCount)
	}
	w.closed = true

	w.v.IndexOffset = w.pos
	index := make([]byte, 0, 8*len(w.index))
	for _, end := range w.index {
		index = binary.LittleEndian.AppendUint64(index, end)
	}
	if _, err := w.w.Write(index); err != nil {
		return fmt.Errorf("writing index: %w", err)
	}
	w.pos += uint64(len(index))

	meta, err := w.v.MarshalBinary()
	if err != nil {
		return err
	}
	if _, err := w.w.Write(meta); err != nil {
		return fmt.Errorf("writing variable: %w", err)
	}
	trailer := AppendTrailer(nil, Trailer{VariableOffset: w.pos, VariableSize: uint64(len(meta))})
	w.pos += uint64(len(meta))
	if _, err := w.w.Write(trailer); err != nil {
		return fmt.Errorf("writing trailer: %w", err)
	}
	w.pos += TrailerSize
	return nil
}

// Size returns the number of bytes written so far.
func (w *Writer) Size() uint64 {
	return w.pos
}
