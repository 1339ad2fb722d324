// Package stats provides a unified interface for collecting metrics.
package stats

// Metric names used throughout the library.
const (
	// Reader metrics.
	MetricReadersOpened = "omfile_readers_opened_total"
	MetricDecodes       = "omfile_decodes_total"
	MetricDecodeErrors  = "omfile_decode_errors_total"
	MetricDecodeSeconds = "omfile_decode_seconds"
	MetricFetches       = "omfile_fetches_total"
	MetricFetchBytes    = "omfile_fetch_bytes_total"

	// Compressor metrics.
	MetricCompressions = "omfile_compressions_total"

	// Cache metrics.
	MetricCacheHits   = "omfile_cache_hits_total"
	MetricCacheMisses = "omfile_cache_misses_total"
	MetricCacheSize   = "omfile_cache_size"
)

// Collector defines the interface for collecting metrics.
type Collector interface {
	// IncCounter increments a counter metric by delta.
	IncCounter(name string, delta int64)

	// SetGauge sets a gauge metric to value.
	SetGauge(name string, value int64)

	// ObserveHistogram records a value in a histogram metric.
	ObserveHistogram(name string, value float64)
}
