package codecs

import (
	"errors"
	"strings"
	"testing"

	"github.com/discochess/omfile/internal/codec"
)

func TestByName(t *testing.T) {
	tests := []struct {
		name    string
		want    codec.ID
		wantErr bool
	}{
		{"none", codec.None, false},
		{"GZIP", codec.Gzip, false},
		{"zstd", codec.Zstd, false},
		{"snappy", codec.Snappy, false},
		{"pfor", codec.PFor, false},
		{"lz4", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ByName(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ByName() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, ErrUnknown) {
					t.Errorf("ByName() error = %v, want ErrUnknown", err)
				}
				return
			}
			if c.ID() != tt.want {
				t.Errorf("ByName().ID() = %d, want %d", c.ID(), tt.want)
			}
			if Name(c.ID()) != strings.ToLower(tt.name) {
				t.Errorf("Name() = %q, want %q", Name(c.ID()), tt.name)
			}
		})
	}
}

func TestByID_Unknown(t *testing.T) {
	if _, err := ByID(codec.ID(99)); !errors.Is(err, ErrUnknown) {
		t.Errorf("ByID() error = %v, want ErrUnknown", err)
	}
	if got := Name(codec.ID(99)); got != "codec(99)" {
		t.Errorf("Name() = %q, want %q", got, "codec(99)")
	}
}
