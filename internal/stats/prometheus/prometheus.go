// Package prometheus provides a Prometheus-based stats collector.
package prometheus

import (
	"errors"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/discochess/omfile/internal/stats"
)

// secondsBuckets cover decode latencies from 100µs to ~13s.
var secondsBuckets = prometheus.ExponentialBuckets(0.0001, 4, 9)

// Collector implements stats.Collector using Prometheus metrics.
type Collector struct {
	registry prometheus.Registerer
	buckets  map[string][]float64

	mu         sync.RWMutex
	counters   map[string]prometheus.Counter
	gauges     map[string]prometheus.Gauge
	histograms map[string]prometheus.Histogram
}

// Compile-time check that Collector implements stats.Collector.
var _ stats.Collector = (*Collector)(nil)

// Option configures a Collector.
type Option func(*Collector)

// WithBuckets sets the histogram buckets used for the named metric.
func WithBuckets(name string, buckets []float64) Option {
	return func(c *Collector) {
		c.buckets[name] = buckets
	}
}

// New creates a new Prometheus collector.
// If registry is nil, prometheus.DefaultRegisterer is used.
// Histograms whose name ends in "_seconds" default to latency buckets.
func New(registry prometheus.Registerer, opts ...Option) *Collector {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	c := &Collector{
		registry:   registry,
		buckets:    map[string][]float64{stats.MetricDecodeSeconds: secondsBuckets},
		counters:   make(map[string]prometheus.Counter),
		gauges:     make(map[string]prometheus.Gauge),
		histograms: make(map[string]prometheus.Histogram),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IncCounter increments a counter metric.
func (c *Collector) IncCounter(name string, delta int64) {
	counter := getOrCreate(c, c.counters, name, func() prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: name})
	})
	counter.Add(float64(delta))
}

// SetGauge sets a gauge metric.
func (c *Collector) SetGauge(name string, value int64) {
	gauge := getOrCreate(c, c.gauges, name, func() prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: name})
	})
	gauge.Set(float64(value))
}

// ObserveHistogram records a value in a histogram.
func (c *Collector) ObserveHistogram(name string, value float64) {
	histogram := getOrCreate(c, c.histograms, name, func() prometheus.Histogram {
		return prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    name,
			Help:    name,
			Buckets: c.bucketsFor(name),
		})
	})
	histogram.Observe(value)
}

func (c *Collector) bucketsFor(name string) []float64 {
	if b, ok := c.buckets[name]; ok {
		return b
	}
	if strings.HasSuffix(name, "_seconds") {
		return secondsBuckets
	}
	return prometheus.DefBuckets
}

// getOrCreate returns the metric registered under name, creating and
// registering it on first use. A metric already present in the registry is
// reused.
func getOrCreate[M prometheus.Collector](c *Collector, m map[string]M, name string, create func() M) M {
	c.mu.RLock()
	metric, ok := m[name]
	c.mu.RUnlock()
	if ok {
		return metric
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if metric, ok = m[name]; ok {
		return metric
	}

	metric = create()
	if err := c.registry.Register(metric); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(M); ok {
				metric = existing
			}
		}
	}
	m[name] = metric
	return metric
}
