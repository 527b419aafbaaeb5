package core

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"
)

// =============================================================================
// Test FatalHandler
// =============================================================================

// TestFatalHandler is a mock fatal handler for testing
type TestFatalHandler struct {
	mu    sync.Mutex
	calls []FatalCall
}

type FatalCall struct {
	SpawnerName string
	ID          ID
	Reason      string
	PanicInfo   any
	StackTrace  []byte
}

func (h *TestFatalHandler) HandleFatal(spawnerName string, id ID, reason string, panicInfo any, stackTrace []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.calls = append(h.calls, FatalCall{
		SpawnerName: spawnerName,
		ID:          id,
		Reason:      reason,
		PanicInfo:   panicInfo,
		StackTrace:  stackTrace,
	})
}

func (h *TestFatalHandler) GetCalls() []FatalCall {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]FatalCall(nil), h.calls...)
}

// stubExit replaces the process exit for the duration of a test and returns
// the recorded exit codes.
func stubExit(t *testing.T) func() []int {
	t.Helper()

	var mu sync.Mutex
	var codes []int
	exit = func(code int) {
		mu.Lock()
		defer mu.Unlock()
		codes = append(codes, code)
	}
	t.Cleanup(func() { exit = defaultExit })

	return func() []int {
		mu.Lock()
		defer mu.Unlock()
		return append([]int(nil), codes...)
	}
}

var defaultExit = exit

func TestDefaultFatalHandler(t *testing.T) {
	id := idOf(42)

	tests := []struct {
		name      string
		reason    string
		panicInfo any
		stack     []byte
		want      []string
	}{
		{
			name:      "panic",
			reason:    "callable panicked",
			panicInfo: "boom",
			stack:     []byte("goroutine 7 [running]"),
			want:      []string{"[Spawner s1] fatal: callable panicked on thread(42): boom", "Stack trace:\ngoroutine 7 [running]"},
		},
		{
			name:   "abandoned",
			reason: "joinable thread abandoned",
			want:   []string{"[Spawner s1] fatal: joinable thread abandoned: thread(42)\n"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			handler := &DefaultFatalHandler{Out: &buf}

			handler.HandleFatal("s1", id, tt.reason, tt.panicInfo, tt.stack)

			for _, want := range tt.want {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("output = %q, want it to contain %q", buf.String(), want)
				}
			}
		})
	}
}

// TestSpawner_PanicReachesFatalHandler verifies the fatal path in-process
// Given: a spawner with a recording FatalHandler and a stubbed exit
// When: the callable panics
// Then: the handler sees the panic value and a stack, and exit gets status 2
func TestSpawner_PanicReachesFatalHandler(t *testing.T) {
	codes := stubExit(t)
	handler := &TestFatalHandler{}
	s := NewSpawner(&SpawnerConfig{Name: "fatal", FatalHandler: handler})

	th, err := s.Spawn(func() { panic("boom") })
	if err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}
	id := th.ID()
	if err := th.Join(); err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	calls := handler.GetCalls()
	if len(calls) != 1 {
		t.Fatalf("HandleFatal calls = %d, want 1", len(calls))
	}
	call := calls[0]
	if call.SpawnerName != "fatal" || call.ID != id || call.Reason != "callable panicked" {
		t.Errorf("unexpected call: %+v", call)
	}
	if call.PanicInfo != "boom" {
		t.Errorf("PanicInfo = %v, want boom", call.PanicInfo)
	}
	if len(call.StackTrace) == 0 {
		t.Error("StackTrace is empty")
	}
	if got := codes(); len(got) != 1 || got[0] != fatalExitCode {
		t.Errorf("exit codes = %v, want [%d]", got, fatalExitCode)
	}
}

// =============================================================================
// Test Metrics and config defaults
// =============================================================================

func TestNilMetrics(t *testing.T) {
	// NilMetrics must accept every call without side effects.
	m := &NilMetrics{}
	m.RecordSpawn("x")
	m.RecordSpawnFailure("x", "limit")
	m.RecordJoin("x", time.Second)
	m.RecordDetach("x")
	m.RecordLiveThreads("x", 3)
}

func TestDefaultSpawnerConfig(t *testing.T) {
	cfg := DefaultSpawnerConfig()

	if cfg.Name != "default" {
		t.Errorf("Name = %q, want default", cfg.Name)
	}
	if cfg.MaxThreads != 0 {
		t.Errorf("MaxThreads = %d, want 0", cfg.MaxThreads)
	}
	if _, ok := cfg.Logger.(*NoOpLogger); !ok {
		t.Errorf("Logger = %T, want *NoOpLogger", cfg.Logger)
	}
	if _, ok := cfg.Metrics.(*NilMetrics); !ok {
		t.Errorf("Metrics = %T, want *NilMetrics", cfg.Metrics)
	}
	if _, ok := cfg.FatalHandler.(*DefaultFatalHandler); !ok {
		t.Errorf("FatalHandler = %T, want *DefaultFatalHandler", cfg.FatalHandler)
	}
}

func TestNewSpawner_PartialConfig(t *testing.T) {
	s := NewSpawner(&SpawnerConfig{MaxThreads: -3})

	if s.name != "default" {
		t.Errorf("name = %q, want default", s.name)
	}
	if s.logger == nil || s.metrics == nil || s.fatal == nil {
		t.Error("nil handler was not replaced by its default")
	}
	if s.maxThreads != 0 || s.limit != nil {
		t.Errorf("negative MaxThreads should mean unlimited, got %d", s.maxThreads)
	}
}

// =============================================================================
// Test Logger
// =============================================================================

func TestDefaultLogger_Format(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf)

	logger.Info("thread started", F("spawner", "s1"), F("live", 2))
	logger.Error("fatal thread error")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "thread: ") || !strings.HasSuffix(lines[0], "INFO thread started spawner=s1 live=2") {
		t.Errorf("line 0 = %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], "ERROR fatal thread error") {
		t.Errorf("line 1 = %q", lines[1])
	}
}
