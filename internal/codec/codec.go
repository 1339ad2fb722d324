// Package codec provides compression and decompression for chunk payloads.
package codec

import (
	"bytes"
	"fmt"
	"io"
)

// ID is the codec tag stored in container metadata.
type ID uint8

// Codec identifiers. Values are persisted and must not change.
const (
	None ID = iota
	Gzip
	Zstd
	Snappy
	PFor
)

// Codec provides compression and decompression functionality.
type Codec interface {
	// Reader wraps r to decompress data read from it.
	Reader(r io.Reader) (io.ReadCloser, error)
	// Writer wraps w to compress data written to it.
	Writer(w io.Writer) (io.WriteCloser, error)
	// Extension returns the file extension without dot (e.g., "zst", "gz").
	// Returns empty string for no compression.
	Extension() string
	// ID returns the tag written to container metadata.
	ID() ID
}

// Encode compresses src in one call.
func Encode(c Codec, src []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := c.Writer(&buf)
	if err != nil {
		return nil, fmt.Errorf("creating writer: %w", err)
	}
	if _, err := w.Write(src); err != nil {
		w.Close()
		return nil, fmt.Errorf("writing: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing writer: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode decompresses src into dst, which must be exactly the decompressed
// size. Trailing output beyond len(dst) is an error.
func Decode(c Codec, dst, src []byte) error {
	r, err := c.Reader(bytes.NewReader(src))
	if err != nil {
		return fmt.Errorf("creating reader: %w", err)
	}
	defer r.Close()

	if _, err := io.ReadFull(r, dst); err != nil {
		return fmt.Errorf("reading %d bytes: %w", len(dst), err)
	}
	var probe [1]byte
	n, err := r.Read(probe[:])
	if n != 0 {
		return fmt.Errorf("decompressed size exceeds %d bytes", len(dst))
	}
	if err != nil && err != io.EOF {
		return fmt.Errorf("reading trailer: %w", err)
	}
	return nil
}
