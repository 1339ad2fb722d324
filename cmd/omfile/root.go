package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/discochess/omfile"
	"github.com/discochess/omfile/internal/stats"
	"github.com/discochess/omfile/internal/stats/logger"
	promstats "github.com/discochess/omfile/internal/stats/prometheus"
	"github.com/discochess/omfile/internal/store"
)

var (
	// Global flags.
	dataDir     string
	storeURL    string
	cacheBlocks int
	verbose     bool
	metricsAddr string

	log                       = zap.NewNop()
	collector stats.Collector = stats.NewNoop()
)

var rootCmd = &cobra.Command{
	Use:   "omfile",
	Short: "Random-access reads from chunked array containers",
	Long: `omfile builds, inspects and reads chunked n-dimensional array
containers. Reads fetch only the chunks overlapping the requested box.

Containers are read from a local data directory or from a remote store
given with --store (gs://bucket/prefix, s3://bucket/prefix or an
http(s) base URL).

Examples:
  # Convert a raw float32 array into a container
  omfile build --source ./t2m.raw --name t2m --dims 24,721,1440 --chunks 6,32,32

  # Show the stored shape
  omfile info t2m

  # Read a box and summarize it
  omfile read t2m --start 0,100,200 --end 1,110,210 --summary`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "d", "./data", "directory containing containers and manifest.json")
	rootCmd.PersistentFlags().StringVar(&storeURL, "store", "", "remote store URL; overrides --data-dir")
	rootCmd.PersistentFlags().IntVar(&cacheBlocks, "cache-blocks", 1024, "number of cached store blocks for remote stores")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
}

// setup configures logging and metrics for every command.
func setup(cmd *cobra.Command, args []string) error {
	if verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("creating logger: %w", err)
		}
		log = l
		collector = logger.New(log.Named("stats"))
	}

	if metricsAddr != "" {
		registry := prometheus.NewRegistry()
		collector = promstats.New(registry)
		srv := &http.Server{
			Addr:    metricsAddr,
			Handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("metrics server stopped", zap.Error(err))
			}
		}()
	}
	return nil
}

// newOpener opens the configured store and its manifest.
func newOpener(ctx context.Context) (*omfile.Opener, error) {
	opts := []omfile.Option{
		omfile.WithLogger(log),
		omfile.WithStats(collector),
	}
	if storeURL == "" {
		op, err := omfile.OpenDir(dataDir, opts...)
		if err != nil {
			return nil, fmt.Errorf("opening data directory %q: %w", dataDir, err)
		}
		return op, nil
	}

	st, err := openStore(ctx, storeURL, cacheBlocks)
	if err != nil {
		return nil, err
	}
	op, err := omfile.NewOpener(st, opts...)
	if err != nil {
		st.Close()
		return nil, err
	}
	if err := op.FetchManifest(ctx); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			op.Close()
			return nil, err
		}
		log.Debug("no manifest in store; opening by file name")
	}
	return op, nil
}

// parseUints parses a comma-separated list such as "24,721,1440".
func parseUints(s string) ([]uint64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]uint64, len(parts))
	for i, p := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q in %q", p, s)
		}
		out[i] = n
	}
	return out, nil
}

// parseRanges pairs start and end lists into per-dimension ranges.
func parseRanges(start, end string) ([]omfile.Range, error) {
	lo, err := parseUints(start)
	if err != nil {
		return nil, fmt.Errorf("--start: %w", err)
	}
	hi, err := parseUints(end)
	if err != nil {
		return nil, fmt.Errorf("--end: %w", err)
	}
	if len(lo) != len(hi) {
		return nil, fmt.Errorf("--start has %d values, --end has %d", len(lo), len(hi))
	}
	ranges := make([]omfile.Range, len(lo))
	for i := range lo {
		ranges[i] = omfile.Range{Start: lo[i], End: hi[i]}
	}
	return ranges, nil
}

func formatDims(dims []uint64) string {
	parts := make([]string, len(dims))
	for i, d := range dims {
		parts[i] = strconv.FormatUint(d, 10)
	}
	return strings.Join(parts, "x")
}
