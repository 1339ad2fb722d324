// Package pforcodec exposes the 16-bit delta bit-packing scheme of intcodec
// as a chunk codec. Payloads are sequences of little-endian uint16 values.
package pforcodec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/discochess/omfile/internal/codec"
	"github.com/discochess/omfile/internal/intcodec"
)

// Compile-time check that Codec implements codec.Codec.
var _ codec.Codec = (*Codec)(nil)

// ErrOddLength is returned when the input is not a whole number of uint16 values.
var ErrOddLength = errors.New("pforcodec: input length is not a multiple of 2")

// Codec implements 16-bit delta bit-packing.
type Codec struct{}

// New returns a new pfor codec.
func New() *Codec {
	return &Codec{}
}

// Reader wraps r to decode a packed stream.
func (c *Codec) Reader(r io.Reader) (io.ReadCloser, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(src) < 4 {
		return nil, fmt.Errorf("missing count: %w", intcodec.ErrCorrupt)
	}
	n := binary.LittleEndian.Uint32(src)
	if uint64(n) > uint64(len(src))*64 {
		return nil, fmt.Errorf("count %d too large for %d bytes: %w", n, len(src), intcodec.ErrCorrupt)
	}
	vals := make([]uint16, n)
	if _, err := intcodec.Decode128v16(vals, src[4:]); err != nil {
		return nil, err
	}
	out := make([]byte, 2*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint16(out[2*i:], v)
	}
	return io.NopCloser(bytes.NewReader(out)), nil
}

// Writer buffers everything written and encodes it on Close.
func (c *Codec) Writer(w io.Writer) (io.WriteCloser, error) {
	return &writer{w: w}, nil
}

// Extension returns "pfor".
func (c *Codec) Extension() string {
	return "pfor"
}

// ID returns codec.PFor.
func (c *Codec) ID() codec.ID {
	return codec.PFor
}

type writer struct {
	w   io.Writer
	buf bytes.Buffer
}

func (w *writer) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

func (w *writer) Close() error {
	raw := w.buf.Bytes()
	if len(raw)%2 != 0 {
		return ErrOddLength
	}
	vals := make([]uint16, len(raw)/2)
	for i := range vals {
		vals[i] = binary.LittleEndian.Uint16(raw[2*i:])
	}
	out := binary.LittleEndian.AppendUint32(make([]byte, 0, 4+intcodec.Bound(len(vals))), uint32(len(vals)))
	out = intcodec.Encode128v16(out, vals)
	_, err := w.w.Write(out)
	return err
}
