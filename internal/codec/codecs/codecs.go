// Package codecs resolves chunk codecs by persisted ID or by name.
package codecs

import (
	"errors"
	"fmt"
	"strings"

	"github.com/discochess/omfile/internal/codec"
	"github.com/discochess/omfile/internal/codec/gzipcodec"
	"github.com/discochess/omfile/internal/codec/noopcodec"
	"github.com/discochess/omfile/internal/codec/pforcodec"
	"github.com/discochess/omfile/internal/codec/snappycodec"
	"github.com/discochess/omfile/internal/codec/zstdcodec"
)

// ErrUnknown is returned for an unrecognised codec ID or name.
var ErrUnknown = errors.New("codecs: unknown codec")

var byID = map[codec.ID]codec.Codec{
	codec.None:   noopcodec.New(),
	codec.Gzip:   gzipcodec.New(),
	codec.Zstd:   zstdcodec.New(),
	codec.Snappy: snappycodec.New(),
	codec.PFor:   pforcodec.New(),
}

var names = map[string]codec.ID{
	"none":   codec.None,
	"gzip":   codec.Gzip,
	"zstd":   codec.Zstd,
	"snappy": codec.Snappy,
	"pfor":   codec.PFor,
}

// ByID returns the codec stored under id.
func ByID(id codec.ID) (codec.Codec, error) {
	c, ok := byID[id]
	if !ok {
		return nil, fmt.Errorf("id %d: %w", id, ErrUnknown)
	}
	return c, nil
}

// ByName returns the codec called name ("none", "gzip", "zstd", "snappy", "pfor").
func ByName(name string) (codec.Codec, error) {
	id, ok := names[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknown)
	}
	return byID[id], nil
}

// Name returns the registered name of id.
func Name(id codec.ID) string {
	for n, v := range names {
		if v == id {
			return n
		}
	}
	return fmt.Sprintf("codec(%d)", id)
}
