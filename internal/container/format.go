// Package container defines the byte layout of an array container.
//
// A container stores one chunked n-dimensional variable:
//
//	header    8 bytes   "OM", version, 5 reserved bytes
//	chunks    ...       compressed payloads in row-major chunk order
//	index     8*n       little-endian absolute end offset of each chunk
//	variable  ...       variable metadata (see Variable.MarshalBinary)
//	trailer   24 bytes  "OM", version, 5 reserved, variable offset, variable size
//
// The first chunk starts at Variable.DataOffset and chunk i ends at index[i],
// so chunk i spans [index[i-1], index[i]). Edge chunks hold only the part of
// the chunk that lies inside the array.
package container

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/discochess/omfile/internal/codec"
	"github.com/discochess/omfile/internal/dtype"
)

// Layout constants.
const (
	Version     = 3
	HeaderSize  = 8
	TrailerSize = 24
	MaxRank     = 32
	MaxNameLen  = 1<<16 - 1
	// MaxChunkBytes bounds the decoded size of a single chunk.
	MaxChunkBytes = 1 << 31
	fixedVarLen   = 1 + 1 + 2 + 4 + 8 + 8 + 2
)

var magic = [2]byte{'O', 'M'}

var (
	// ErrNotContainer is returned when the magic bytes or version do not match.
	ErrNotContainer = errors.New("container: not an array container")

	// ErrCorrupt is returned when metadata is truncated or inconsistent.
	ErrCorrupt = errors.New("container: corrupt metadata")
)

// Trailer locates the variable metadata.
type Trailer struct {
	VariableOffset uint64
	VariableSize   uint64
}

// Variable describes the stored array.
type Variable struct {
	Name       string
	DataType   dtype.DataType
	Codec      codec.ID
	Dimensions []uint64
	Chunks     []uint64
	// IndexOffset is the position of the chunk index.
	IndexOffset uint64
	// DataOffset is the position of the first chunk.
	DataOffset uint64
}

// AppendHeader appends a header to b.
func AppendHeader(b []byte) []byte {
	b = append(b, magic[0], magic[1], Version)
	return append(b, make([]byte, HeaderSize-3)...)
}

// ParseHeader checks the leading bytes of a container.
func ParseHeader(b []byte) error {
	if len(b) < HeaderSize || b[0] != magic[0] || b[1] != magic[1] {
		return ErrNotContainer
	}
	if b[2] != Version {
		return fmt.Errorf("version %d: %w", b[2], ErrNotContainer)
	}
	return nil
}

// AppendTrailer appends t to b.
func AppendTrailer(b []byte, t Trailer) []byte {
	b = AppendHeader(b)
	b = binary.LittleEndian.AppendUint64(b, t.VariableOffset)
	return binary.LittleEndian.AppendUint64(b, t.VariableSize)
}

// ParseTrailer decodes the last TrailerSize bytes of a container.
func ParseTrailer(b []byte) (Trailer, error) {
	if len(b) != TrailerSize {
		return Trailer{}, fmt.Errorf("trailer is %d bytes: %w", len(b), ErrCorrupt)
	}
	if err := ParseHeader(b[:HeaderSize]); err != nil {
		return Trailer{}, err
	}
	return Trailer{
		VariableOffset: binary.LittleEndian.Uint64(b[8:]),
		VariableSize:   binary.LittleEndian.Uint64(b[16:]),
	}, nil
}

// Rank returns the number of dimensions.
func (v *Variable) Rank() int {
	return len(v.Dimensions)
}

// Validate checks the shape and type fields.
func (v *Variable) Validate() error {
	if v.Rank() == 0 || v.Rank() > MaxRank {
		return fmt.Errorf("rank %d: %w", v.Rank(), ErrCorrupt)
	}
	if len(v.Chunks) != len(v.Dimensions) {
		return fmt.Errorf("%d chunk dimensions for rank %d: %w", len(v.Chunks), v.Rank(), ErrCorrupt)
	}
	for i := range v.Dimensions {
		if v.Dimensions[i] == 0 || v.Chunks[i] == 0 {
			return fmt.Errorf("dimension %d: size %d chunk %d: %w",
				i, v.Dimensions[i], v.Chunks[i], ErrCorrupt)
		}
	}
	if !v.DataType.Numeric() {
		return fmt.Errorf("data type %s is not stored as chunks: %w", v.DataType, ErrCorrupt)
	}
	if _, ok := Product(v.Dimensions, v.DataType.Size()); !ok {
		return fmt.Errorf("dimensions %v overflow the addressable size: %w", v.Dimensions, ErrCorrupt)
	}
	if n := v.ChunkBytes(); n > MaxChunkBytes {
		return fmt.Errorf("chunk of %d bytes exceeds %d: %w", n, MaxChunkBytes, ErrCorrupt)
	}
	if len(v.Name) > MaxNameLen {
		return fmt.Errorf("name length %d: %w", len(v.Name), ErrCorrupt)
	}
	return nil
}

// MarshalBinary encodes the variable metadata.
func (v *Variable) MarshalBinary() ([]byte, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	b := make([]byte, 0, fixedVarLen+16*v.Rank()+len(v.Name))
	b = append(b, byte(v.DataType), byte(v.Codec), 0, 0)
	b = binary.LittleEndian.AppendUint32(b, uint32(v.Rank()))
	for _, d := range v.Dimensions {
		b = binary.LittleEndian.AppendUint64(b, d)
	}
	for _, c := range v.Chunks {
		b = binary.LittleEndian.AppendUint64(b, c)
	}
	b = binary.LittleEndian.AppendUint64(b, v.IndexOffset)
	b = binary.LittleEndian.AppendUint64(b, v.DataOffset)
	b = binary.LittleEndian.AppendUint16(b, uint16(len(v.Name)))
	return append(b, v.Name...), nil
}

// ParseVariable decodes variable metadata.
func ParseVariable(b []byte) (*Variable, error) {
	if len(b) < fixedVarLen {
		return nil, fmt.Errorf("variable is %d bytes: %w", len(b), ErrCorrupt)
	}
	v := &Variable{
		DataType: dtype.DataType(b[0]),
		Codec:    codec.ID(b[1]),
	}
	rank := binary.LittleEndian.Uint32(b[4:])
	if rank == 0 || rank > MaxRank {
		return nil, fmt.Errorf("rank %d: %w", rank, ErrCorrupt)
	}
	p := 8
	need := p + 16*int(rank) + 18
	if len(b) < need {
		return nil, fmt.Errorf("variable is %d bytes, rank %d needs %d: %w", len(b), rank, need, ErrCorrupt)
	}

	v.Dimensions = make([]uint64, rank)
	v.Chunks = make([]uint64, rank)
	for i := range v.Dimensions {
		v.Dimensions[i] = binary.LittleEndian.Uint64(b[p:])
		p += 8
	}
	for i := range v.Chunks {
		v.Chunks[i] = binary.LittleEndian.Uint64(b[p:])
		p += 8
	}
	v.IndexOffset = binary.LittleEndian.Uint64(b[p:])
	v.DataOffset = binary.LittleEndian.Uint64(b[p+8:])
	nameLen := int(binary.LittleEndian.Uint16(b[p+16:]))
	p += 18
	if len(b) < p+nameLen {
		return nil, fmt.Errorf("name truncated: %w", ErrCorrupt)
	}
	v.Name = string(b[p : p+nameLen])

	if err := v.Validate(); err != nil {
		return nil, err
	}
	return v, nil
}
