package prometheus

import (
	"errors"
	"fmt"
	"time"

	"github.com/Swind/go-thread/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// ExporterOptions controls collector configuration.
type ExporterOptions struct {
	JoinWaitBuckets []float64
}

// MetricsExporter adapts core.Metrics to Prometheus collectors.
type MetricsExporter struct {
	spawnTotal        *prom.CounterVec
	spawnFailureTotal *prom.CounterVec
	joinTotal         *prom.CounterVec
	detachTotal       *prom.CounterVec
	joinWaitSeconds   *prom.HistogramVec
	liveThreads       *prom.GaugeVec
}

var _ core.Metrics = (*MetricsExporter)(nil)

// NewMetricsExporter creates and registers Prometheus collectors for core.Metrics.
func NewMetricsExporter(namespace string, reg prom.Registerer, opts ExporterOptions) (*MetricsExporter, error) {
	if namespace == "" {
		namespace = "thread"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	buckets := opts.JoinWaitBuckets
	if len(buckets) == 0 {
		buckets = prom.DefBuckets
	}

	spawnVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "spawned_total",
		Help:      "Total number of threads started.",
	}, []string{"spawner"})
	failureVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "spawn_failures_total",
		Help:      "Total number of threads that could not be created.",
	}, []string{"spawner", "reason"})
	joinVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "joined_total",
		Help:      "Total number of successful joins.",
	}, []string{"spawner"})
	detachVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "detached_total",
		Help:      "Total number of detached threads.",
	}, []string{"spawner"})
	waitVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "join_wait_seconds",
		Help:      "Time owners spent blocked in Join.",
		Buckets:   buckets,
	}, []string{"spawner"})
	liveVec := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "live",
		Help:      "Threads currently running their callable.",
	}, []string{"spawner"})

	var err error
	if spawnVec, err = registerCollector(reg, spawnVec); err != nil {
		return nil, err
	}
	if failureVec, err = registerCollector(reg, failureVec); err != nil {
		return nil, err
	}
	if joinVec, err = registerCollector(reg, joinVec); err != nil {
		return nil, err
	}
	if detachVec, err = registerCollector(reg, detachVec); err != nil {
		return nil, err
	}
	if waitVec, err = registerCollector(reg, waitVec); err != nil {
		return nil, err
	}
	if liveVec, err = registerCollector(reg, liveVec); err != nil {
		return nil, err
	}

	return &MetricsExporter{
		spawnTotal:        spawnVec,
		spawnFailureTotal: failureVec,
		joinTotal:         joinVec,
		detachTotal:       detachVec,
		joinWaitSeconds:   waitVec,
		liveThreads:       liveVec,
	}, nil
}

// RecordSpawn records a started thread.
func (m *MetricsExporter) RecordSpawn(spawnerName string) {
	if m == nil {
		return
	}
	m.spawnTotal.WithLabelValues(normalizeLabel(spawnerName, "unknown")).Inc()
}

// RecordSpawnFailure records a thread creation failure.
func (m *MetricsExporter) RecordSpawnFailure(spawnerName string, reason string) {
	if m == nil {
		return
	}
	m.spawnFailureTotal.WithLabelValues(normalizeLabel(spawnerName, "unknown"), normalizeLabel(reason, "unknown")).Inc()
}

// RecordJoin records a successful join and the owner's wait.
func (m *MetricsExporter) RecordJoin(spawnerName string, wait time.Duration) {
	if m == nil {
		return
	}
	name := normalizeLabel(spawnerName, "unknown")
	m.joinTotal.WithLabelValues(name).Inc()
	m.joinWaitSeconds.WithLabelValues(name).Observe(wait.Seconds())
}

// RecordDetach records a detached thread.
func (m *MetricsExporter) RecordDetach(spawnerName string) {
	if m == nil {
		return
	}
	m.detachTotal.WithLabelValues(normalizeLabel(spawnerName, "unknown")).Inc()
}

// RecordLiveThreads records the live thread count.
func (m *MetricsExporter) RecordLiveThreads(spawnerName string, live int) {
	if m == nil {
		return
	}
	m.liveThreads.WithLabelValues(normalizeLabel(spawnerName, "unknown")).Set(float64(live))
}

func normalizeLabel(v string, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
