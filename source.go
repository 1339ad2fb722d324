package omfile

import (
	"context"
	"fmt"

	"github.com/discochess/omfile/internal/callback"
	"github.com/discochess/omfile/internal/stats"
	"github.com/discochess/omfile/internal/store"
)

// ByteSource returns exactly length bytes starting at offset of an array
// container. Fetch may be called several times per Decode and must return a
// slice the caller may keep.
type ByteSource interface {
	Fetch(offset, length uint64) ([]byte, error)
}

// ByteSourceFunc adapts a function to ByteSource.
type ByteSourceFunc func(offset, length uint64) ([]byte, error)

// Fetch calls f.
func (f ByteSourceFunc) Fetch(offset, length uint64) ([]byte, error) {
	return f(offset, length)
}

// BytesSource serves fetches from an in-memory container.
func BytesSource(b []byte) ByteSource {
	return ByteSourceFunc(func(offset, length uint64) ([]byte, error) {
		if err := store.CheckRange(uint64(len(b)), offset, length); err != nil {
			return nil, err
		}
		return b[offset : offset+length], nil
	})
}

// StoreSource serves fetches for the named object from st. It returns the
// object size, ready to pass to NewReader. Fetches run under ctx.
func StoreSource(ctx context.Context, st store.Store, name string) (ByteSource, uint64, error) {
	size, err := st.Size(ctx, name)
	if err != nil {
		return nil, 0, fmt.Errorf("sizing %s: %w", name, err)
	}
	src := ByteSourceFunc(func(offset, length uint64) ([]byte, error) {
		return st.ReadRange(ctx, name, offset, length)
	})
	return src, size, nil
}

// countingSource records fetch metrics around a ByteSource.
type countingSource struct {
	src   ByteSource
	stats stats.Collector
}

// Compile-time check that countingSource implements callback.Fetcher.
var _ callback.Fetcher = (*countingSource)(nil)

func (c *countingSource) Fetch(offset, length uint64) ([]byte, error) {
	data, err := c.src.Fetch(offset, length)
	c.stats.IncCounter(stats.MetricFetches, 1)
	if err == nil {
		c.stats.IncCounter(stats.MetricFetchBytes, int64(len(data)))
	}
	return data, err
}
