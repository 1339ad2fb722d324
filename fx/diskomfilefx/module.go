// Package diskomfilefx provides an fx module for a disk-backed omfile opener.
package diskomfilefx

import (
	"context"
	"errors"
	"io/fs"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/discochess/omfile"
	"github.com/discochess/omfile/internal/stats"
	"github.com/discochess/omfile/internal/stats/logger"
	"github.com/discochess/omfile/internal/store/cachedstore"
	"github.com/discochess/omfile/internal/store/cachedstore/cachestrategy/lru"
	"github.com/discochess/omfile/internal/store/cachedstore/memory"
	"github.com/discochess/omfile/internal/store/diskstore"
)

// Config holds configuration for the disk-backed opener.
type Config struct {
	// DataDir is the directory containing the containers.
	DataDir string

	// CacheBlocks is the number of blocks to cache in memory.
	// Default is 1024.
	CacheBlocks int

	// BlockSize is the cache block size in bytes.
	// Default is cachedstore.DefaultBlockSize.
	BlockSize uint64
}

// Module provides a disk-backed *omfile.Opener with a block cache.
// Requires a Config and a *zap.Logger to be provided.
var Module = fx.Module("diskomfile",
	fx.Provide(
		newStatsCollector,
		newOpener,
	),
)

func newStatsCollector(log *zap.Logger) stats.Collector {
	return logger.New(log.Named("omfile.stats"))
}

// Params holds dependencies for creating the opener.
type Params struct {
	fx.In

	Config    Config
	Logger    *zap.Logger
	Collector stats.Collector
	Lifecycle fx.Lifecycle
}

// Result holds the provided opener.
type Result struct {
	fx.Out

	Opener *omfile.Opener
}

func newOpener(p Params) (Result, error) {
	cacheBlocks := p.Config.CacheBlocks
	if cacheBlocks <= 0 {
		cacheBlocks = 1024
	}
	blockSize := p.Config.BlockSize
	if blockSize == 0 {
		blockSize = cachedstore.DefaultBlockSize
	}

	baseStore, err := diskstore.New(p.Config.DataDir)
	if err != nil {
		return Result{}, err
	}

	lruStrategy, err := lru.New(cacheBlocks)
	if err != nil {
		return Result{}, err
	}

	st, err := cachedstore.New(baseStore, memory.New(lruStrategy, p.Collector), blockSize)
	if err != nil {
		return Result{}, err
	}

	opener, err := omfile.NewOpener(st,
		omfile.WithStats(p.Collector),
		omfile.WithLogger(p.Logger.Named("omfile")),
	)
	if err != nil {
		return Result{}, err
	}
	// A directory without a manifest still serves containers by file name.
	if err := opener.LoadManifest(p.Config.DataDir); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Result{}, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return opener.Close()
		},
	})

	return Result{Opener: opener}, nil
}
