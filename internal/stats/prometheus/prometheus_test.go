package prometheus

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/discochess/omfile/internal/stats"
)

// sample is what the registry reports for one metric.
type sample struct {
	counter float64
	gauge   float64
	count   uint64
	buckets int
}

// gather returns the registry's metrics keyed by name.
func gather(t *testing.T, reg *prometheus.Registry) map[string]sample {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	out := make(map[string]sample, len(families))
	for _, f := range families {
		if len(f.GetMetric()) != 1 {
			t.Fatalf("%s has %d series, want 1", f.GetName(), len(f.GetMetric()))
		}
		m := f.GetMetric()[0]
		out[f.GetName()] = sample{
			counter: m.GetCounter().GetValue(),
			gauge:   m.GetGauge().GetValue(),
			count:   m.GetHistogram().GetSampleCount(),
			buckets: len(m.GetHistogram().GetBucket()),
		}
	}
	return out
}

func TestNew_Registry(t *testing.T) {
	if c := New(nil); c.registry != prometheus.DefaultRegisterer {
		t.Error("New(nil) should use the default registerer")
	}
	reg := prometheus.NewRegistry()
	if c := New(reg); c.registry != reg {
		t.Error("New(reg) should use the given registry")
	}
}

// TestCollector_ReaderMetrics records what one open, two decodes and a
// failed decode report, and checks the registry agrees.
func TestCollector_ReaderMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.IncCounter(stats.MetricReadersOpened, 1)
	for _, seconds := range []float64{0.0004, 0.003} {
		c.IncCounter(stats.MetricFetches, 3)
		c.IncCounter(stats.MetricFetchBytes, 4096)
		c.ObserveHistogram(stats.MetricDecodeSeconds, seconds)
		c.IncCounter(stats.MetricDecodes, 1)
	}
	c.IncCounter(stats.MetricDecodeErrors, 1)
	c.SetGauge(stats.MetricCacheSize, 12)
	c.SetGauge(stats.MetricCacheSize, 9)

	got := gather(t, reg)
	counters := map[string]float64{
		stats.MetricReadersOpened: 1,
		stats.MetricFetches:       6,
		stats.MetricFetchBytes:    8192,
		stats.MetricDecodes:       2,
		stats.MetricDecodeErrors:  1,
	}
	for name, want := range counters {
		s, ok := got[name]
		if !ok {
			t.Errorf("%s not registered", name)
			continue
		}
		if s.counter != want {
			t.Errorf("%s = %v, want %v", name, s.counter, want)
		}
	}
	if s := got[stats.MetricDecodeSeconds]; s.count != 2 {
		t.Errorf("%s sample count = %d, want 2", stats.MetricDecodeSeconds, s.count)
	}
	if s := got[stats.MetricCacheSize]; s.gauge != 9 {
		t.Errorf("%s = %v, want 9", stats.MetricCacheSize, s.gauge)
	}
}

func TestCollector_Buckets(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg, WithBuckets("chunk_bytes", []float64{1 << 10, 1 << 16}))

	c.ObserveHistogram(stats.MetricDecodeSeconds, 0.002)
	c.ObserveHistogram("chunk_bytes", 5000)
	c.ObserveHistogram("fetch_seconds", 1)
	c.ObserveHistogram("chunk_count", 4)

	tests := []struct {
		name string
		want int
	}{
		{stats.MetricDecodeSeconds, len(secondsBuckets)},
		{"chunk_bytes", 2},
		{"fetch_seconds", len(secondsBuckets)},
		{"chunk_count", len(prometheus.DefBuckets)},
	}
	got := gather(t, reg)
	for _, tt := range tests {
		if s := got[tt.name]; s.buckets != tt.want {
			t.Errorf("%s has %d buckets, want %d", tt.name, s.buckets, tt.want)
		}
	}
}

func TestCollector_AlreadyRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	existing := prometheus.NewCounter(prometheus.CounterOpts{
		Name: stats.MetricDecodes,
		Help: stats.MetricDecodes,
	})
	reg.MustRegister(existing)
	existing.Add(100)

	c := New(reg)
	c.IncCounter(stats.MetricDecodes, 5)
	c.IncCounter(stats.MetricDecodes, 5)

	if s := gather(t, reg)[stats.MetricDecodes]; s.counter != 110 {
		t.Errorf("counter value = %v, want 110", s.counter)
	}
}

func TestCollector_ConcurrentAccess(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.IncCounter(stats.MetricFetches, 1)
				c.SetGauge(stats.MetricCacheSize, int64(j))
				c.ObserveHistogram(stats.MetricDecodeSeconds, float64(j)/1000)
			}
		}()
	}
	wg.Wait()

	got := gather(t, reg)
	if s := got[stats.MetricFetches]; s.counter != 1000 {
		t.Errorf("counter value = %v, want 1000", s.counter)
	}
	if s := got[stats.MetricDecodeSeconds]; s.count != 1000 {
		t.Errorf("histogram count = %d, want 1000", s.count)
	}
	if _, ok := got[stats.MetricCacheSize]; !ok {
		t.Errorf("%s not registered", stats.MetricCacheSize)
	}
}
