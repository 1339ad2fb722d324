// Package memoryomfilefx provides an fx module for an in-memory omfile opener.
// Useful for testing.
package memoryomfilefx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/discochess/omfile"
	"github.com/discochess/omfile/internal/stats"
	"github.com/discochess/omfile/internal/stats/logger"
	"github.com/discochess/omfile/internal/store/memstore"
)

// Module provides an in-memory *omfile.Opener and the *memstore.Store behind
// it, so tests can Put containers before opening them.
// Requires a *zap.Logger to be provided.
var Module = fx.Module("memoryomfile",
	fx.Provide(
		newStatsCollector,
		newMemStore,
		newOpener,
	),
)

func newStatsCollector(log *zap.Logger) stats.Collector {
	return logger.New(log.Named("omfile.stats"))
}

func newMemStore() *memstore.Store {
	return memstore.New()
}

// Params holds dependencies for creating the opener.
type Params struct {
	fx.In

	Logger    *zap.Logger
	Collector stats.Collector
	Store     *memstore.Store
	Lifecycle fx.Lifecycle
}

// Result holds the provided opener.
type Result struct {
	fx.Out

	Opener *omfile.Opener
}

func newOpener(p Params) (Result, error) {
	opener, err := omfile.NewOpener(p.Store,
		omfile.WithStats(p.Collector),
		omfile.WithLogger(p.Logger.Named("omfile")),
	)
	if err != nil {
		return Result{}, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return opener.Close()
		},
	})

	return Result{Opener: opener}, nil
}
