package zstdcodec

import (
	"bytes"
	"testing"

	"github.com/discochess/omfile/internal/codec"
)

func TestCodec_RoundTrip(t *testing.T) {
	c := New()
	if c.Extension() != "zst" {
		t.Errorf("Extension() = %q, want %q", c.Extension(), "zst")
	}
	original := bytes.Repeat([]byte{0, 0, 128, 63}, 4096)

	enc, err := codec.Encode(c, original)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if len(enc) >= len(original) {
		t.Errorf("Expected compression, got %d bytes from %d bytes", len(enc), len(original))
	}
	got := make([]byte, len(original))
	if err := codec.Decode(c, got, enc); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !bytes.Equal(got, original) {
		t.Error("Round-trip failed")
	}
}

func TestCodec_Reader_InvalidData(t *testing.T) {
	if err := codec.Decode(New(), make([]byte, 4), []byte("not zstd data")); err == nil {
		t.Error("Decode() expected error for invalid zstd data, got nil")
	}
}
