package core

import (
	"errors"
	"os"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// fatalExitCode matches the status of an unrecovered Go panic.
const fatalExitCode = 2

// exit is replaced in tests.
var exit = os.Exit

// Spawner creates Threads under a shared configuration: a name for logs and
// metrics, an optional cap on live threads, and the handlers that observe the
// thread lifecycle. A Spawner is safe for concurrent use.
//
// The package-level New uses a fresh default Spawner per call, so threads
// created that way share no state at all.
type Spawner struct {
	name       string
	maxThreads int
	limit      *semaphore.Weighted

	logger  Logger
	metrics Metrics
	fatal   FatalHandler

	liveMu   sync.Mutex
	live     atomic.Int64
	spawned  atomic.Int64
	failed   atomic.Int64
	joined   atomic.Int64
	detached atomic.Int64
}

// SpawnerStats is a point-in-time snapshot of a Spawner's counters.
type SpawnerStats struct {
	Name       string
	MaxThreads int
	Live       int
	Spawned    int64
	Failed     int64
	Joined     int64
	Detached   int64
}

// NewSpawner creates a Spawner. A nil config or nil handlers fall back to
// DefaultSpawnerConfig.
func NewSpawner(config *SpawnerConfig) *Spawner {
	defaults := DefaultSpawnerConfig()
	if config == nil {
		config = defaults
	}

	s := &Spawner{
		name:       config.Name,
		maxThreads: config.MaxThreads,
		logger:     config.Logger,
		metrics:    config.Metrics,
		fatal:      config.FatalHandler,
	}
	if s.name == "" {
		s.name = defaults.Name
	}
	if s.logger == nil {
		s.logger = defaults.Logger
	}
	if s.metrics == nil {
		s.metrics = defaults.Metrics
	}
	if s.fatal == nil {
		s.fatal = defaults.FatalHandler
	}
	if s.maxThreads > 0 {
		s.limit = semaphore.NewWeighted(int64(s.maxThreads))
	} else {
		s.maxThreads = 0
	}
	return s
}

// Name returns the spawner name used in logs and metrics.
func (s *Spawner) Name() string {
	return s.name
}

// Spawn starts a new OS thread running fn(args...) and returns the joinable
// Thread that owns it. See New for how fn and args are captured.
//
// Spawn fails with a *ResourceError when the thread cannot be created; fn is
// not run and nothing needs to be disposed in that case.
func (s *Spawner) Spawn(fn any, args ...any) (*Thread, error) {
	inv := newInvoker(fn, args...)
	h, err := s.start(inv)
	if err != nil {
		return nil, err
	}
	return &Thread{h: h}, nil
}

// Stats returns a snapshot of the spawner's counters.
func (s *Spawner) Stats() SpawnerStats {
	return SpawnerStats{
		Name:       s.name,
		MaxThreads: s.maxThreads,
		Live:       int(s.live.Load()),
		Spawned:    s.spawned.Load(),
		Failed:     s.failed.Load(),
		Joined:     s.joined.Load(),
		Detached:   s.detached.Load(),
	}
}

func (s *Spawner) reserve() error {
	if !nativeSupported {
		return s.spawnFailed("unsupported", errors.ErrUnsupported)
	}
	if s.limit != nil && !s.limit.TryAcquire(1) {
		return s.spawnFailed("limit", errThreadLimit())
	}
	return nil
}

func (s *Spawner) spawnFailed(reason string, cause error) error {
	s.failed.Add(1)
	s.metrics.RecordSpawnFailure(s.name, reason)
	s.logger.Warn("thread creation failed",
		F("spawner", s.name), F("reason", reason), F("error", cause))
	return &ResourceError{Op: "create", Err: cause}
}

// starting is counted before the thread runs so that exited never sees the
// live count below zero.
func (s *Spawner) starting() {
	s.spawned.Add(1)
	s.addLive(1)
}

func (s *Spawner) started(id ID, callable string) {
	s.metrics.RecordSpawn(s.name)
	s.logger.Debug("thread started",
		F("spawner", s.name), F("thread", id), F("callable", callable))
}

// exited runs on the spawned thread after its callable returned.
func (s *Spawner) exited(id ID) {
	s.addLive(-1)
	if s.limit != nil {
		s.limit.Release(1)
	}
	s.logger.Debug("thread finished", F("spawner", s.name), F("thread", id))
}

// addLive updates the live count and reports it under liveMu, so the gauge
// always ends on the latest value.
func (s *Spawner) addLive(delta int64) {
	s.liveMu.Lock()
	defer s.liveMu.Unlock()
	s.metrics.RecordLiveThreads(s.name, int(s.live.Add(delta)))
}

// abort reports a fatal error and terminates the process.
func (s *Spawner) abort(id ID, reason string, panicInfo any, stackTrace []byte) {
	s.logger.Error("fatal thread error",
		F("spawner", s.name), F("thread", id), F("reason", reason))
	s.fatal.HandleFatal(s.name, id, reason, panicInfo, stackTrace)
	exit(fatalExitCode)
}
