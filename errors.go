package omfile

import (
	"errors"
	"fmt"

	"github.com/discochess/omfile/internal/engine"
	"github.com/discochess/omfile/internal/native"
)

// Kind classifies an Error. Each kind matches its sentinel with errors.Is.
type Kind int

// Error kinds.
const (
	KindValidation Kind = iota + 1
	KindIO
	KindEngine
	KindResource
	KindState
)

// Kind sentinels. errors.Is(err, ErrValidation) reports whether err is a
// validation failure, and likewise for the other kinds.
var (
	ErrValidation = errors.New("omfile: validation error")
	ErrIO         = errors.New("omfile: io error")
	ErrEngine     = errors.New("omfile: engine error")
	ErrResource   = errors.New("omfile: resource error")
	ErrState      = errors.New("omfile: invalid state")
)

// Specific causes, carried in Error.Err.
var (
	// ErrDimensionMismatch indicates the request sequences differ in length
	// from each other or from the stored array rank.
	ErrDimensionMismatch = errors.New("omfile: dimension count mismatch")

	// ErrInvalidRange indicates a range with start > end.
	ErrInvalidRange = errors.New("omfile: range start exceeds end")

	// ErrCubeBounds indicates a read that does not fit in the destination cube.
	ErrCubeBounds = errors.New("omfile: read does not fit destination cube")

	// ErrBufferTooSmall indicates a destination smaller than the cube.
	ErrBufferTooSmall = errors.New("omfile: destination buffer too small")

	// ErrCubeTooLarge indicates a cube whose byte size does not fit in a uint64.
	ErrCubeTooLarge = errors.New("omfile: destination cube too large")

	// ErrUnsupportedType indicates a data type without a fixed element size.
	ErrUnsupportedType = errors.New("omfile: unsupported data type")

	// ErrNilSource indicates a nil ByteSource.
	ErrNilSource = errors.New("omfile: nil byte source")

	// ErrNotOmFile indicates the bytes are not an array container.
	ErrNotOmFile = errors.New("omfile: not an om file")

	// ErrReaderCreation indicates the engine could not produce a usable reader
	// for a container it accepted.
	ErrReaderCreation = errors.New("omfile: reader creation failed")

	// ErrFetch indicates the engine could not read the bytes it needed.
	ErrFetch = errors.New("omfile: fetch failed")

	// ErrOutOfMemory indicates a staging allocation failed.
	ErrOutOfMemory = native.ErrOutOfMemory

	// ErrNotInitialized indicates use of a zero-value Reader.
	ErrNotInitialized = errors.New("omfile: reader not initialized")

	// ErrClosed indicates use after Close.
	ErrClosed = errors.New("omfile: closed")

	// ErrNoStore indicates no store was provided.
	ErrNoStore = errors.New("omfile: no store provided")

	// ErrInvalidInput indicates empty or oversized compressor input.
	ErrInvalidInput = errors.New("omfile: invalid compressor input")

	// ErrCompression indicates the compressor produced no output.
	ErrCompression = errors.New("omfile: compression failed")

	// ErrDecompression indicates decompression failed.
	ErrDecompression = errors.New("omfile: decompression failed")
)

// Status is the engine result code carried by engine and IO errors.
type Status = engine.Status

// Engine status codes.
const (
	StatusOK               = engine.OK
	StatusOutOfMemory      = engine.OutOfMemory
	StatusNotAnOmFile      = engine.NotAnOmFile
	StatusIO               = engine.IO
	StatusDecoder          = engine.Decoder
	StatusInvalidArgument  = engine.InvalidArgument
	StatusDataTypeMismatch = engine.DataTypeMismatch
)

// Error is the error type returned by Reader and Compressor operations.
type Error struct {
	Kind Kind
	// Op is the failing operation, e.g. "decode".
	Op string
	// Status is the engine code, or StatusOK if the engine was not involved.
	Status Status
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("omfile: %s: %s", e.Op, e.Kind)
	if e.Status != StatusOK {
		msg += fmt.Sprintf(" (status %d: %s)", int(e.Status), e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the kind sentinel for e.Kind.
func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

func (k Kind) sentinel() error {
	switch k {
	case KindValidation:
		return ErrValidation
	case KindIO:
		return ErrIO
	case KindEngine:
		return ErrEngine
	case KindResource:
		return ErrResource
	case KindState:
		return ErrState
	}
	return nil
}

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation error"
	case KindIO:
		return "io error"
	case KindEngine:
		return "engine error"
	case KindResource:
		return "resource error"
	case KindState:
		return "state error"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

func validationError(op string, err error) error {
	return &Error{Kind: KindValidation, Op: op, Err: err}
}

func stateError(op string, err error) error {
	return &Error{Kind: KindState, Op: op, Err: err}
}

// allocError classifies a failed staging allocation.
func allocError(op string, err error) error {
	if errors.Is(err, native.ErrOutOfMemory) {
		return &Error{Kind: KindResource, Op: op, Status: StatusOutOfMemory, Err: err}
	}
	return &Error{Kind: KindValidation, Op: op, Err: err}
}

// statusError converts a non-OK engine status. fetchErr is the byte source
// failure recorded during the call, if any.
func statusError(op string, st Status, fetchErr error) error {
	switch st {
	case StatusIO:
		if fetchErr == nil {
			fetchErr = ErrFetch
		}
		return &Error{Kind: KindIO, Op: op, Status: st, Err: fetchErr}
	case StatusOutOfMemory:
		return &Error{Kind: KindResource, Op: op, Status: st, Err: ErrOutOfMemory}
	case StatusNotAnOmFile:
		return &Error{Kind: KindEngine, Op: op, Status: st, Err: ErrNotOmFile}
	}
	return &Error{Kind: KindEngine, Op: op, Status: st}
}
