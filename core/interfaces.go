package core

import (
	"fmt"
	"io"
	"os"
	"time"
)

// =============================================================================
// FatalHandler: Interface for reporting unrecoverable thread errors
// =============================================================================

// FatalHandler is called right before the process is terminated because of
// an unrecoverable thread error:
// - a callable panicked on its thread
// - a joinable Thread was garbage collected without Join or Detach
//
// The process exits with status 2 after HandleFatal returns. Implementations
// should only report; they cannot prevent the exit.
type FatalHandler interface {
	// HandleFatal is called once per fatal error.
	//
	// Parameters:
	// - spawnerName: The name of the spawner that created the thread
	// - id: The thread the error is about
	// - reason: A short description ("callable panicked", "thread abandoned")
	// - panicInfo: The recovered panic value, nil when the error is not a panic
	// - stackTrace: The stack trace at the time of the panic, nil when not a panic
	HandleFatal(spawnerName string, id ID, reason string, panicInfo any, stackTrace []byte)
}

// DefaultFatalHandler writes the fatal error to Out, or stderr when Out is nil.
type DefaultFatalHandler struct {
	Out io.Writer
}

// HandleFatal prints the error and, for panics, the stack trace.
func (h *DefaultFatalHandler) HandleFatal(spawnerName string, id ID, reason string, panicInfo any, stackTrace []byte) {
	out := h.Out
	if out == nil {
		out = os.Stderr
	}
	if panicInfo != nil {
		fmt.Fprintf(out, "[Spawner %s] fatal: %s on %s: %v\nStack trace:\n%s",
			spawnerName, reason, id, panicInfo, stackTrace)
		return
	}
	fmt.Fprintf(out, "[Spawner %s] fatal: %s: %s\n", spawnerName, reason, id)
}

// =============================================================================
// Metrics: Interface for observability and monitoring
// =============================================================================

// Metrics defines the interface for collecting thread lifecycle metrics.
// Implementations can send metrics to monitoring systems (Prometheus, StatsD, etc.).
//
// Methods are called from the owning goroutine and from the spawned threads,
// so implementations must be safe for concurrent use and should not block.
type Metrics interface {
	// RecordSpawn records that a thread was started.
	RecordSpawn(spawnerName string)

	// RecordSpawnFailure records that a thread could not be created.
	//
	// Parameters:
	// - spawnerName: The name of the spawner
	// - reason: Why creation failed (e.g., "limit", "unsupported")
	RecordSpawnFailure(spawnerName string, reason string)

	// RecordJoin records a successful join and how long the owner waited.
	RecordJoin(spawnerName string, wait time.Duration)

	// RecordDetach records that a thread was detached.
	RecordDetach(spawnerName string)

	// RecordLiveThreads records the number of OS threads currently running
	// callables for the spawner.
	RecordLiveThreads(spawnerName string, live int)
}

// NilMetrics provides a no-op metrics implementation that does nothing.
// This is the default when no metrics interface is provided.
type NilMetrics struct{}

// RecordSpawn is a no-op.
func (m *NilMetrics) RecordSpawn(spawnerName string) {}

// RecordSpawnFailure is a no-op.
func (m *NilMetrics) RecordSpawnFailure(spawnerName string, reason string) {}

// RecordJoin is a no-op.
func (m *NilMetrics) RecordJoin(spawnerName string, wait time.Duration) {}

// RecordDetach is a no-op.
func (m *NilMetrics) RecordDetach(spawnerName string) {}

// RecordLiveThreads is a no-op.
func (m *NilMetrics) RecordLiveThreads(spawnerName string, live int) {}

// =============================================================================
// SpawnerConfig: Configuration for Spawner
// =============================================================================

// SpawnerConfig holds configuration options for a Spawner.
// All handlers are optional; if not provided, default implementations will be used.
type SpawnerConfig struct {
	// Name labels the spawner in logs and metrics. Defaults to "default".
	Name string

	// MaxThreads caps the number of live threads started by the spawner.
	// Spawn fails with a ResourceError wrapping EAGAIN once the cap is reached.
	// Zero or negative means no cap.
	MaxThreads int

	// Logger receives lifecycle logs. Defaults to NoOpLogger.
	Logger Logger

	// Metrics records lifecycle metrics. Defaults to NilMetrics.
	Metrics Metrics

	// FatalHandler reports fatal errors before the process exits. Defaults to DefaultFatalHandler.
	FatalHandler FatalHandler
}

// DefaultSpawnerConfig returns a config with default handlers and no thread cap.
func DefaultSpawnerConfig() *SpawnerConfig {
	return &SpawnerConfig{
		Name:         "default",
		Logger:       NewNoOpLogger(),
		Metrics:      &NilMetrics{},
		FatalHandler: &DefaultFatalHandler{},
	}
}
