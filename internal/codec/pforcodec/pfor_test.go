package pforcodec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/discochess/omfile/internal/codec"
	"github.com/discochess/omfile/internal/intcodec"
)

func TestCodec_Extension(t *testing.T) {
	c := New()
	if got := c.Extension(); got != "pfor" {
		t.Errorf("Extension() = %q, want %q", got, "pfor")
	}
	if c.ID() != codec.PFor {
		t.Errorf("ID() = %d, want %d", c.ID(), codec.PFor)
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	c := New()
	original := make([]byte, 0, 2000)
	for i := 0; i < 1000; i++ {
		original = binary.LittleEndian.AppendUint16(original, uint16(500+i%7))
	}

	enc, err := codec.Encode(c, original)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if len(enc) >= len(original) {
		t.Errorf("expected compression, got %d bytes from %d", len(enc), len(original))
	}

	r, err := c.Reader(bytes.NewReader(enc))
	if err != nil {
		t.Fatalf("Reader() error = %v", err)
	}
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if !bytes.Equal(got, original) {
		t.Error("round trip mismatch")
	}
}

func TestCodec_OddLength(t *testing.T) {
	_, err := codec.Encode(New(), []byte{1, 2, 3})
	if !errors.Is(err, ErrOddLength) {
		t.Errorf("Encode() error = %v, want ErrOddLength", err)
	}
}

func TestCodec_Corrupt(t *testing.T) {
	c := New()
	tests := []struct {
		name string
		src  []byte
	}{
		{"empty", nil},
		{"huge count", []byte{0xff, 0xff, 0xff, 0xff}},
		{"truncated blocks", []byte{10, 0, 0, 0, 16}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Reader(bytes.NewReader(tt.src))
			if !errors.Is(err, intcodec.ErrCorrupt) {
				t.Errorf("Reader() error = %v, want ErrCorrupt", err)
			}
		})
	}
}
