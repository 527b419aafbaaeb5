package prometheus

import (
	"context"
	"sync"
	"time"

	"github.com/Swind/go-thread/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// SpawnerSnapshotProvider provides current spawner stats snapshots.
type SpawnerSnapshotProvider interface {
	Stats() core.SpawnerStats
}

var _ SpawnerSnapshotProvider = (*core.Spawner)(nil)

// SnapshotPoller periodically exports spawner Stats() snapshots into Prometheus gauges.
type SnapshotPoller struct {
	interval time.Duration

	spawnersMu sync.RWMutex
	spawners   map[string]SpawnerSnapshotProvider

	spawnerLive     *prom.GaugeVec
	spawnerMax      *prom.GaugeVec
	spawnerSpawned  *prom.GaugeVec
	spawnerFailed   *prom.GaugeVec
	spawnerJoined   *prom.GaugeVec
	spawnerDetached *prom.GaugeVec

	stateMu sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSnapshotPoller creates a snapshot poller and registers its collectors.
func NewSnapshotPoller(reg prom.Registerer, interval time.Duration) (*SnapshotPoller, error) {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	if interval <= 0 {
		interval = time.Second
	}

	newGauge := func(name, help string) *prom.GaugeVec {
		return prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "thread",
			Subsystem: "spawner",
			Name:      name,
			Help:      help,
		}, []string{"spawner"})
	}

	spawnerLive := newGauge("live", "Live threads per spawner.")
	spawnerMax := newGauge("max_threads", "Live thread cap per spawner (0=unlimited).")
	spawnerSpawned := newGauge("spawned", "Spawned thread count snapshot.")
	spawnerFailed := newGauge("failed", "Failed spawn count snapshot.")
	spawnerJoined := newGauge("joined", "Joined thread count snapshot.")
	spawnerDetached := newGauge("detached", "Detached thread count snapshot.")

	var err error
	if spawnerLive, err = registerCollector(reg, spawnerLive); err != nil {
		return nil, err
	}
	if spawnerMax, err = registerCollector(reg, spawnerMax); err != nil {
		return nil, err
	}
	if spawnerSpawned, err = registerCollector(reg, spawnerSpawned); err != nil {
		return nil, err
	}
	if spawnerFailed, err = registerCollector(reg, spawnerFailed); err != nil {
		return nil, err
	}
	if spawnerJoined, err = registerCollector(reg, spawnerJoined); err != nil {
		return nil, err
	}
	if spawnerDetached, err = registerCollector(reg, spawnerDetached); err != nil {
		return nil, err
	}

	return &SnapshotPoller{
		interval:        interval,
		spawners:        make(map[string]SpawnerSnapshotProvider),
		spawnerLive:     spawnerLive,
		spawnerMax:      spawnerMax,
		spawnerSpawned:  spawnerSpawned,
		spawnerFailed:   spawnerFailed,
		spawnerJoined:   spawnerJoined,
		spawnerDetached: spawnerDetached,
	}, nil
}

// AddSpawner adds or replaces a spawner snapshot provider by name.
func (p *SnapshotPoller) AddSpawner(name string, provider SpawnerSnapshotProvider) {
	if p == nil || provider == nil {
		return
	}
	name = normalizeLabel(name, "spawner")
	p.spawnersMu.Lock()
	p.spawners[name] = provider
	p.spawnersMu.Unlock()
}

// Start begins periodic polling; repeated calls are no-ops.
func (p *SnapshotPoller) Start(ctx context.Context) {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if p.running {
		p.stateMu.Unlock()
		return
	}
	pollCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true
	p.stateMu.Unlock()

	go p.loop(pollCtx)
}

// Stop stops periodic polling; repeated calls are safe.
func (p *SnapshotPoller) Stop() {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if !p.running {
		p.stateMu.Unlock()
		return
	}
	cancel := p.cancel
	done := p.done
	p.stateMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	p.stateMu.Lock()
	p.running = false
	p.cancel = nil
	p.done = nil
	p.stateMu.Unlock()
}

func (p *SnapshotPoller) loop(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.collectOnce()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.collectOnce()
		}
	}
}

func (p *SnapshotPoller) collectOnce() {
	p.spawnersMu.RLock()
	defer p.spawnersMu.RUnlock()

	for name, provider := range p.spawners {
		stats := provider.Stats()
		p.spawnerLive.WithLabelValues(name).Set(float64(stats.Live))
		p.spawnerMax.WithLabelValues(name).Set(float64(stats.MaxThreads))
		p.spawnerSpawned.WithLabelValues(name).Set(float64(stats.Spawned))
		p.spawnerFailed.WithLabelValues(name).Set(float64(stats.Failed))
		p.spawnerJoined.WithLabelValues(name).Set(float64(stats.Joined))
		p.spawnerDetached.WithLabelValues(name).Set(float64(stats.Detached))
	}
}
