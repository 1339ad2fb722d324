package intcodec

import (
	"errors"
	"math/rand"
	"slices"
	"testing"
)

func TestZigzag(t *testing.T) {
	tests := []struct {
		in   int16
		want uint16
	}{
		{0, 0},
		{-1, 1},
		{1, 2},
		{-2, 3},
		{32767, 65534},
		{-32768, 65535},
	}
	for _, tt := range tests {
		if got := zigzag(tt.in); got != tt.want {
			t.Errorf("zigzag(%d) = %d, want %d", tt.in, got, tt.want)
		}
		if got := unzigzag(tt.want); got != tt.in {
			t.Errorf("unzigzag(%d) = %d, want %d", tt.want, got, tt.in)
		}
	}
}

func TestEncodeDecode(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	random := make([]uint16, 1000)
	for i := range random {
		random[i] = uint16(rng.Intn(65536))
	}
	ramp := make([]uint16, 300)
	for i := range ramp {
		ramp[i] = uint16(1000 + i*3)
	}

	tests := []struct {
		name string
		in   []uint16
	}{
		{"empty", nil},
		{"single", []uint16{42}},
		{"constant", slices.Repeat([]uint16{7}, 256)},
		{"zeros", make([]uint16, 129)},
		{"ramp", ramp},
		{"wraparound", []uint16{0, 65535, 0, 65535, 1}},
		{"random", random},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc := Encode128v16(nil, tt.in)
			if len(enc) > Bound(len(tt.in)) {
				t.Errorf("encoded %d bytes, Bound() = %d", len(enc), Bound(len(tt.in)))
			}

			got := make([]uint16, len(tt.in))
			n, err := Decode128v16(got, enc)
			if err != nil {
				t.Fatalf("Decode128v16() error = %v", err)
			}
			if n != len(enc) {
				t.Errorf("Decode128v16() consumed %d bytes, want %d", n, len(enc))
			}
			if !slices.Equal(got, tt.in) {
				t.Errorf("round trip mismatch")
			}
		})
	}
}

func TestEncode_SmoothDataCompresses(t *testing.T) {
	in := make([]uint16, 4096)
	for i := range in {
		in[i] = uint16(20000 + i%5)
	}
	enc := Encode128v16(nil, in)
	if len(enc) >= len(in)*2/3 {
		t.Errorf("encoded %d bytes from %d values, expected better than 3:2", len(enc), len(in))
	}
}

func TestDecode_Corrupt(t *testing.T) {
	enc := Encode128v16(nil, []uint16{1, 100, 5000, 3, 9})

	tests := []struct {
		name string
		src  []byte
		n    int
	}{
		{"empty input", nil, 1},
		{"truncated", enc[:len(enc)-1], 5},
		{"too many values", enc, 200},
		{"bad width", []byte{17, 0, 0, 0}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode128v16(make([]uint16, tt.n), tt.src)
			if !errors.Is(err, ErrCorrupt) {
				t.Errorf("Decode128v16() error = %v, want ErrCorrupt", err)
			}
		})
	}
}
