// Package intcodec implements delta, zigzag and bit-packing compression for
// 16-bit integer sequences.
//
// Values are processed in blocks of BlockSize. Each value is replaced by the
// zigzag encoding of its difference to the previous value, then every block
// is packed at the smallest bit width that holds its largest code. A block is
// laid out as one width byte followed by ceil(n*width/8) bytes of
// little-endian packed codes.
package intcodec

import (
	"errors"
	"fmt"
)

// BlockSize is the number of values packed at a shared bit width.
const BlockSize = 128

// ErrCorrupt is returned when compressed input is truncated or malformed.
var ErrCorrupt = errors.New("intcodec: corrupt input")

// Bound returns the maximum encoded size of n values.
func Bound(n int) int {
	return (n+BlockSize-1)/BlockSize + 2*n
}

func zigzag(d int16) uint16 {
	return uint16((d << 1) ^ (d >> 15))
}

func unzigzag(z uint16) int16 {
	return int16(z>>1) ^ -int16(z&1)
}

func bitWidth(v uint16) int {
	n := 0
	for v != 0 {
		n++
		v >>= 1
	}
	return n
}

// Encode128v16 appends the encoding of src to dst and returns the result.
func Encode128v16(dst []byte, src []uint16) []byte {
	var block [BlockSize]uint16
	prev := uint16(0)

	for pos := 0; pos < len(src); pos += BlockSize {
		n := min(BlockSize, len(src)-pos)
		var or uint16
		for i := 0; i < n; i++ {
			v := src[pos+i]
			block[i] = zigzag(int16(v - prev))
			prev = v
			or |= block[i]
		}

		width := bitWidth(or)
		dst = append(dst, byte(width))
		if width == 0 {
			continue
		}

		var acc uint64
		bits := 0
		for i := 0; i < n; i++ {
			acc |= uint64(block[i]) << bits
			bits += width
			for bits >= 8 {
				dst = append(dst, byte(acc))
				acc >>= 8
				bits -= 8
			}
		}
		if bits > 0 {
			dst = append(dst, byte(acc))
		}
	}
	return dst
}

// Decode128v16 decodes len(dst) values from src into dst and returns the
// number of bytes consumed.
func Decode128v16(dst []uint16, src []byte) (int, error) {
	prev := uint16(0)
	p := 0

	for pos := 0; pos < len(dst); pos += BlockSize {
		n := min(BlockSize, len(dst)-pos)
		if p >= len(src) {
			return p, fmt.Errorf("block at value %d: missing width: %w", pos, ErrCorrupt)
		}
		width := int(src[p])
		p++
		if width > 16 {
			return p, fmt.Errorf("block at value %d: width %d: %w", pos, width, ErrCorrupt)
		}
		if width == 0 {
			for i := 0; i < n; i++ {
				dst[pos+i] = prev
			}
			continue
		}

		size := (n*width + 7) / 8
		if p+size > len(src) {
			return p, fmt.Errorf("block at value %d: need %d bytes, have %d: %w",
				pos, size, len(src)-p, ErrCorrupt)
		}

		var acc uint64
		bits := 0
		mask := uint64(1)<<width - 1
		for i := 0; i < n; i++ {
			for bits < width {
				acc |= uint64(src[p]) << bits
				p++
				bits += 8
			}
			prev += uint16(unzigzag(uint16(acc & mask)))
			dst[pos+i] = prev
			acc >>= width
			bits -= width
		}
	}
	return p, nil
}
