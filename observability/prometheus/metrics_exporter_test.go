package prometheus

import (
	"testing"
	"time"

	"github.com/Swind/go-thread/core"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestMetricsExporter_RecordMethods(t *testing.T) {
	reg := prom.NewRegistry()
	exporter, err := NewMetricsExporter("thread", reg, ExporterOptions{})
	if err != nil {
		t.Fatalf("NewMetricsExporter failed: %v", err)
	}

	exporter.RecordSpawn("spawner-a")
	exporter.RecordSpawn("spawner-a")
	exporter.RecordSpawnFailure("spawner-a", "limit")
	exporter.RecordJoin("spawner-a", 250*time.Millisecond)
	exporter.RecordDetach("spawner-a")
	exporter.RecordLiveThreads("spawner-a", 7)

	if got := testutil.ToFloat64(exporter.spawnTotal.WithLabelValues("spawner-a")); got != 2 {
		t.Fatalf("spawned total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(exporter.spawnFailureTotal.WithLabelValues("spawner-a", "limit")); got != 1 {
		t.Fatalf("spawn failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(exporter.joinTotal.WithLabelValues("spawner-a")); got != 1 {
		t.Fatalf("joined total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(exporter.detachTotal.WithLabelValues("spawner-a")); got != 1 {
		t.Fatalf("detached total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(exporter.liveThreads.WithLabelValues("spawner-a")); got != 7 {
		t.Fatalf("live threads = %v, want 7", got)
	}

	histCount, err := histogramSampleCount(exporter.joinWaitSeconds.WithLabelValues("spawner-a"))
	if err != nil {
		t.Fatalf("histogramSampleCount failed: %v", err)
	}
	if histCount != 1 {
		t.Fatalf("join wait sample count = %d, want 1", histCount)
	}
}

func TestMetricsExporter_AlreadyRegisteredReuse(t *testing.T) {
	reg := prom.NewRegistry()
	first, err := NewMetricsExporter("thread", reg, ExporterOptions{})
	if err != nil {
		t.Fatalf("first NewMetricsExporter failed: %v", err)
	}
	second, err := NewMetricsExporter("thread", reg, ExporterOptions{})
	if err != nil {
		t.Fatalf("second NewMetricsExporter failed: %v", err)
	}

	first.RecordSpawn("spawner-a")
	second.RecordSpawn("spawner-a")

	got := testutil.ToFloat64(first.spawnTotal.WithLabelValues("spawner-a"))
	if got != 2 {
		t.Fatalf("shared spawn counter = %v, want 2", got)
	}
}

func TestMetricsExporter_NilReceiver(t *testing.T) {
	var exporter *MetricsExporter

	exporter.RecordSpawn("x")
	exporter.RecordSpawnFailure("x", "limit")
	exporter.RecordJoin("x", time.Second)
	exporter.RecordDetach("x")
	exporter.RecordLiveThreads("x", 1)
}

// TestMetricsExporter_WiredIntoSpawner verifies the exporter end to end
// Given: a spawner using the exporter as its core.Metrics
// When: one thread is joined and one is detached
// Then: the counters reflect both and the live gauge drops back to zero
func TestMetricsExporter_WiredIntoSpawner(t *testing.T) {
	reg := prom.NewRegistry()
	exporter, err := NewMetricsExporter("thread", reg, ExporterOptions{})
	if err != nil {
		t.Fatalf("NewMetricsExporter failed: %v", err)
	}
	spawner := core.NewSpawner(&core.SpawnerConfig{Name: "wired", Metrics: exporter})

	joined, err := spawner.Spawn(func() {})
	if err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}
	if err := joined.Join(); err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	finished := make(chan struct{})
	detached, err := spawner.Spawn(func() { close(finished) })
	if err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}
	if err := detached.Detach(); err != nil {
		t.Fatalf("Detach failed: %v", err)
	}
	<-finished

	assertEventually(t, 2*time.Second, func() bool {
		return spawner.Stats().Live == 0 &&
			testutil.ToFloat64(exporter.liveThreads.WithLabelValues("wired")) == 0
	})

	if got := testutil.ToFloat64(exporter.spawnTotal.WithLabelValues("wired")); got != 2 {
		t.Errorf("spawned total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(exporter.joinTotal.WithLabelValues("wired")); got != 1 {
		t.Errorf("joined total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(exporter.detachTotal.WithLabelValues("wired")); got != 1 {
		t.Errorf("detached total = %v, want 1", got)
	}
}

func histogramSampleCount(observer prom.Observer) (uint64, error) {
	collector, ok := observer.(prom.Collector)
	if !ok {
		return 0, nil
	}

	metricCh := make(chan prom.Metric, 1)
	collector.Collect(metricCh)
	close(metricCh)
	for metric := range metricCh {
		msg := &dto.Metric{}
		if err := metric.Write(msg); err != nil {
			return 0, err
		}
		if msg.Histogram != nil {
			return msg.Histogram.GetSampleCount(), nil
		}
	}
	return 0, nil
}
