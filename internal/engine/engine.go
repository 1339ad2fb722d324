// Package engine defines the contract between the reader API and the decode
// engine. The engine owns container parsing, chunk lookup and decompression.
// It reaches caller bytes only through a callback.ID resolved by a
// callback.Registry, and reports outcomes as Status codes rather than errors.
package engine

import (
	"fmt"

	"github.com/discochess/omfile/internal/callback"
	"github.com/discochess/omfile/internal/codec"
	"github.com/discochess/omfile/internal/dimspec"
	"github.com/discochess/omfile/internal/dtype"
)

// Status is an engine result code. Values are stable and surface unchanged in
// caller-visible errors.
type Status int

// Status codes.
const (
	OK Status = iota
	OutOfMemory
	NotAnOmFile
	IO
	Decoder
	InvalidArgument
	DataTypeMismatch
)

var statusNames = [...]string{
	OK:               "ok",
	OutOfMemory:      "out of memory",
	NotAnOmFile:      "not an om file",
	IO:               "io error",
	Decoder:          "decoder error",
	InvalidArgument:  "invalid argument",
	DataTypeMismatch: "data type mismatch",
}

func (s Status) String() string {
	if s >= 0 && int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Default read tuning, used when a caller passes 0.
const (
	DefaultIOSizeMax   = 65536
	DefaultIOSizeMerge = 512
)

// Handle identifies an engine-side reader. The zero Handle is never valid.
type Handle uint64

// Variable describes the array stored behind a reader.
type Variable struct {
	Name       string
	DataType   dtype.DataType
	Codec      codec.ID
	Dimensions []uint64
	Chunks     []uint64
}

// Engine decodes hyperrectangles out of containers.
type Engine interface {
	// CreateReader parses the container reachable through id, whose total
	// size is totalSize. It returns 0 and a non-OK status on failure.
	CreateReader(id callback.ID, totalSize uint64) (Handle, Status)

	// DestroyReader releases h. Destroying an unknown handle is a no-op.
	DestroyReader(h Handle)

	// Variable returns the stored array description for h.
	Variable(h Handle) (Variable, bool)

	// Decode reads the ranges in spec into dest. dest holds the destination
	// cube in row-major order. ioSizeMax and ioSizeMerge of 0 select the
	// defaults.
	Decode(h Handle, dest []byte, dt dtype.DataType, spec *dimspec.Spec, ioSizeMax, ioSizeMerge uint64) Status
}
