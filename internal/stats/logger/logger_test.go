package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/discochess/omfile/internal/stats"
)

func TestCollector_Logs(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	c := New(zap.New(core))

	c.IncCounter(stats.MetricFetches, 3)
	c.SetGauge(stats.MetricCacheSize, 10)
	c.ObserveHistogram(stats.MetricDecodeSeconds, 0.25)

	entries := logs.All()
	if len(entries) != 3 {
		t.Fatalf("logged %d entries, want 3", len(entries))
	}
	wantMsgs := []string{"counter", "gauge", "histogram"}
	for i, e := range entries {
		if e.Message != wantMsgs[i] {
			t.Errorf("entry %d message = %q, want %q", i, e.Message, wantMsgs[i])
		}
		if e.LoggerName != "stats" {
			t.Errorf("entry %d logger = %q, want %q", i, e.LoggerName, "stats")
		}
	}
	if got := entries[0].ContextMap()["metric"]; got != stats.MetricFetches {
		t.Errorf("metric field = %v, want %s", got, stats.MetricFetches)
	}
}

func TestCollector_LevelFiltering(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	New(zap.New(core)).IncCounter("x", 1)
	if logs.Len() != 0 {
		t.Errorf("debug collector logged %d entries at info core, want 0", logs.Len())
	}

	NewLevel(zap.New(core), zapcore.InfoLevel).IncCounter("x", 1)
	if logs.Len() != 1 {
		t.Errorf("info collector logged %d entries, want 1", logs.Len())
	}
}

func TestNew_NilLogger(t *testing.T) {
	c := New(nil)
	c.IncCounter("x", 1)
}
