// Package snappycodec provides a snappy compression codec using the framed
// stream format.
package snappycodec

import (
	"io"

	"github.com/golang/snappy"

	"github.com/discochess/omfile/internal/codec"
)

// Compile-time check that Codec implements codec.Codec.
var _ codec.Codec = (*Codec)(nil)

// Codec implements snappy compression.
type Codec struct{}

// New returns a new snappy codec.
func New() *Codec {
	return &Codec{}
}

// Reader wraps r to decompress snappy frames.
func (c *Codec) Reader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(snappy.NewReader(r)), nil
}

// Writer wraps w to compress data into snappy frames.
func (c *Codec) Writer(w io.Writer) (io.WriteCloser, error) {
	return snappy.NewBufferedWriter(w), nil
}

// Extension returns "sz".
func (c *Codec) Extension() string {
	return "sz"
}

// ID returns codec.Snappy.
func (c *Codec) ID() codec.ID {
	return codec.Snappy
}
