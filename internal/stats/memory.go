package stats

import "sync"

// Memory records metrics in maps. It is intended for tests and for the CLI
// summary output.
type Memory struct {
	mu         sync.Mutex
	counters   map[string]int64
	gauges     map[string]int64
	histograms map[string][]float64
}

// Compile-time check that Memory implements Collector.
var _ Collector = (*Memory)(nil)

// NewMemory creates an empty in-memory collector.
func NewMemory() *Memory {
	return &Memory{
		counters:   make(map[string]int64),
		gauges:     make(map[string]int64),
		histograms: make(map[string][]float64),
	}
}

func (m *Memory) IncCounter(name string, delta int64) {
	m.mu.Lock()
	m.counters[name] += delta
	m.mu.Unlock()
}

func (m *Memory) SetGauge(name string, value int64) {
	m.mu.Lock()
	m.gauges[name] = value
	m.mu.Unlock()
}

func (m *Memory) ObserveHistogram(name string, value float64) {
	m.mu.Lock()
	m.histograms[name] = append(m.histograms[name], value)
	m.mu.Unlock()
}

// Counter returns the current value of a counter.
func (m *Memory) Counter(name string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[name]
}

// Gauge returns the last value set on a gauge.
func (m *Memory) Gauge(name string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gauges[name]
}

// Observations returns a copy of the values recorded for a histogram.
func (m *Memory) Observations(name string) []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.histograms[name]...)
}
