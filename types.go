package thread

import "github.com/Swind/go-thread/core"

// Re-export commonly used types from core package for convenience.
// This allows users to import only the thread package for most use cases.

// Thread owns at most one running OS thread
type Thread = core.Thread

// ID identifies an OS thread; the zero value means "no thread"
type ID = core.ID

// NativeID is the kernel thread id behind an ID
type NativeID = core.NativeID

// Spawner creates Threads under a shared configuration
type Spawner = core.Spawner

// SpawnerConfig configures a Spawner
type SpawnerConfig = core.SpawnerConfig

// SpawnerStats is a snapshot of a Spawner's counters
type SpawnerStats = core.SpawnerStats

// ResourceError reports that a thread could not be created
type ResourceError = core.ResourceError

// Logger, Metrics and FatalHandler are the pluggable lifecycle observers
type (
	Logger       = core.Logger
	Metrics      = core.Metrics
	FatalHandler = core.FatalHandler
)

// Errors returned by Join and Detach
var (
	ErrInvalidOperation = core.ErrInvalidOperation
	ErrDeadlock         = core.ErrDeadlock
)

// New starts a new OS thread running fn(args...).
func New(fn any, args ...any) (*Thread, error) {
	return core.New(fn, args...)
}

// NewSpawner creates a Spawner with the given config; nil uses the defaults.
func NewSpawner(config *SpawnerConfig) *Spawner {
	return core.NewSpawner(config)
}

// Swap exchanges the threads owned by a and b.
func Swap(a, b *Thread) {
	core.Swap(a, b)
}

// Convenience functions
var (
	HardwareConcurrency  = core.HardwareConcurrency
	LayoutCompatible     = core.LayoutCompatible
	DefaultSpawnerConfig = core.DefaultSpawnerConfig
)

// Ref passes p to the new thread uncopied.
func Ref[T any](p *T) core.Reference[T] {
	return core.Ref(p)
}

// Move transfers *p to the new thread and zeroes it.
func Move[T any](p *T) core.Moved[T] {
	return core.Move(p)
}
