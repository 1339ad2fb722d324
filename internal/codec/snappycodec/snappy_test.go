package snappycodec

import (
	"bytes"
	"io"
	"testing"

	"github.com/discochess/omfile/internal/codec"
)

func TestCodec_Extension(t *testing.T) {
	c := New()
	if got := c.Extension(); got != "sz" {
		t.Errorf("Extension() = %q, want %q", got, "sz")
	}
	if c.ID() != codec.Snappy {
		t.Errorf("ID() = %d, want %d", c.ID(), codec.Snappy)
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	c := New()
	original := bytes.Repeat([]byte("ABCDEFGHIJ"), 10000)

	var compressed bytes.Buffer
	writer, err := c.Writer(&compressed)
	if err != nil {
		t.Fatalf("Writer() error = %v", err)
	}
	if _, err := writer.Write(original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if compressed.Len() >= len(original) {
		t.Errorf("Expected compression, got %d bytes from %d bytes", compressed.Len(), len(original))
	}

	reader, err := c.Reader(&compressed)
	if err != nil {
		t.Fatalf("Reader() error = %v", err)
	}
	decompressed, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	reader.Close()

	if !bytes.Equal(decompressed, original) {
		t.Error("Round-trip failed")
	}
}

func TestCodec_Reader_InvalidData(t *testing.T) {
	c := New()
	reader, err := c.Reader(bytes.NewReader([]byte("not snappy data")))
	if err != nil {
		t.Fatalf("Reader() error = %v", err)
	}
	if _, err := io.ReadAll(reader); err == nil {
		t.Error("ReadAll() expected error for invalid snappy data, got nil")
	}
}
