package omfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/discochess/omfile/internal/container"
	"github.com/discochess/omfile/internal/dimspec"
	"github.com/discochess/omfile/internal/engine"
	"github.com/discochess/omfile/internal/native"
	"github.com/discochess/omfile/internal/stats"
)

// Range is a half-open interval [Start, End) along one dimension.
type Range struct {
	Start uint64
	End   uint64
}

// Count returns End - Start, or 0 for an inverted range.
func (r Range) Count() uint64 {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start
}

// Decode reads ranges into dest. dest holds a row-major cube of shape
// cubeDimension, and the values land at cubeOffset within it; cells outside
// the read keep their prior contents. ranges, cubeOffset and cubeDimension
// must each have one entry per stored dimension.
//
// All argument checks run before any byte is fetched.
func (r *Reader) Decode(dest []byte, dt DataType, ranges []Range, cubeOffset, cubeDimension []uint64, opts ...DecodeOption) error {
	const op = "decode"

	if err := r.checkOpen(op); err != nil {
		return err
	}

	var do decodeOptions
	for _, opt := range opts {
		opt(&do)
	}

	start, end, need, err := r.validate(dt, ranges, cubeOffset, cubeDimension)
	if err == nil && uint64(len(dest)) < need {
		err = fmt.Errorf("need %d bytes, have %d: %w", need, len(dest), ErrBufferTooSmall)
	}
	if err != nil {
		r.stats.IncCounter(stats.MetricDecodeErrors, 1)
		return validationError(op, err)
	}

	began := time.Now()
	err = r.decode(dest, dt, start, end, cubeOffset, cubeDimension, do)
	r.stats.ObserveHistogram(stats.MetricDecodeSeconds, time.Since(began).Seconds())
	if err != nil {
		r.stats.IncCounter(stats.MetricDecodeErrors, 1)
		r.logger.Debug("decode failed", zap.Error(err))
		return err
	}
	r.stats.IncCounter(stats.MetricDecodes, 1)
	return nil
}

// validate checks a request against the stored array and returns the range
// bounds split into start and end sequences, plus the byte size of the cube.
func (r *Reader) validate(dt DataType, ranges []Range, cubeOffset, cubeDimension []uint64) (start, end []uint64, need uint64, err error) {
	rank := len(ranges)
	if len(cubeOffset) != rank || len(cubeDimension) != rank {
		return nil, nil, 0, fmt.Errorf("%d ranges, %d offsets, %d cube dimensions: %w",
			rank, len(cubeOffset), len(cubeDimension), ErrDimensionMismatch)
	}
	if rank != r.Rank() {
		return nil, nil, 0, fmt.Errorf("%d ranges for a rank %d array: %w", rank, r.Rank(), ErrDimensionMismatch)
	}
	if !dt.Numeric() {
		return nil, nil, 0, fmt.Errorf("%s: %w", dt, ErrUnsupportedType)
	}

	start = make([]uint64, rank)
	end = make([]uint64, rank)
	for i, rg := range ranges {
		if rg.Start > rg.End {
			return nil, nil, 0, fmt.Errorf("dimension %d: [%d, %d): %w", i, rg.Start, rg.End, ErrInvalidRange)
		}
		if rg.End > r.variable.Dimensions[i] {
			return nil, nil, 0, fmt.Errorf("dimension %d: end %d exceeds size %d: %w",
				i, rg.End, r.variable.Dimensions[i], ErrInvalidRange)
		}
		if cubeOffset[i] > cubeDimension[i] || rg.Count() > cubeDimension[i]-cubeOffset[i] {
			return nil, nil, 0, fmt.Errorf("dimension %d: %d values at offset %d in cube of %d: %w",
				i, rg.Count(), cubeOffset[i], cubeDimension[i], ErrCubeBounds)
		}
		start[i], end[i] = rg.Start, rg.End
	}

	need, ok := container.Product(cubeDimension, dt.Size())
	if !ok {
		return nil, nil, 0, fmt.Errorf("cube %v of %s: %w", cubeDimension, dt, ErrCubeTooLarge)
	}
	return start, end, need, nil
}

// decode stages the request in heap memory and runs the engine.
func (r *Reader) decode(dest []byte, dt DataType, start, end, cubeOffset, cubeDimension []uint64, do decodeOptions) error {
	const op = "decode"

	scope := native.NewScope(r.heap)
	defer scope.Release()

	spec, err := dimspec.Marshal(scope, start, end, cubeOffset, cubeDimension)
	if err != nil {
		return allocError(op, err)
	}
	cells, _ := spec.Elements()
	n := cells * dt.Size()
	staging, err := scope.Alloc(n)
	if err != nil {
		return allocError(op, err)
	}
	buf := staging.Bytes()
	copy(buf, dest[:n])

	r.registry.ClearErr(r.id)
	st := r.engine.Decode(r.handle, buf, dt, spec, do.ioSizeMax, do.ioSizeMerge)
	if st != engine.OK {
		return statusError(op, st, r.registry.Err(r.id))
	}
	copy(dest, buf)
	return nil
}

// maxReadBytes bounds the buffer ReadBytes allocates.
const maxReadBytes = 1 << 47

// ReadBytes reads ranges into a new buffer holding exactly the requested
// values in row-major order.
func (r *Reader) ReadBytes(dt DataType, ranges []Range, opts ...DecodeOption) ([]byte, error) {
	const op = "decode"

	if err := r.checkOpen(op); err != nil {
		return nil, err
	}
	offset := make([]uint64, len(ranges))
	cube := make([]uint64, len(ranges))
	for i, rg := range ranges {
		cube[i] = rg.Count()
	}
	_, _, n, err := r.validate(dt, ranges, offset, cube)
	if err == nil && n > maxReadBytes {
		err = fmt.Errorf("%d bytes: %w", n, ErrCubeTooLarge)
	}
	if err != nil {
		r.stats.IncCounter(stats.MetricDecodeErrors, 1)
		return nil, validationError(op, err)
	}
	dest := make([]byte, n)
	if err := r.Decode(dest, dt, ranges, offset, cube, opts...); err != nil {
		return nil, err
	}
	return dest, nil
}

// Read reads ranges into a new slice of T. T must match the stored type.
func Read[T Numeric](r *Reader, ranges []Range, opts ...DecodeOption) ([]T, error) {
	raw, err := r.ReadBytes(dataTypeOf[T](), ranges, opts...)
	if err != nil {
		return nil, err
	}
	out := make([]T, len(raw)/int(dataTypeOf[T]().Size()))
	if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, out); err != nil {
		return nil, fmt.Errorf("omfile: converting values: %w", err)
	}
	return out, nil
}
