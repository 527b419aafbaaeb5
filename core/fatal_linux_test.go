//go:build linux

package core_test

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/Swind/go-thread/core"
)

// fatalHelperEnv selects the fatal scenario a re-executed test binary runs.
const fatalHelperEnv = "GO_THREAD_FATAL_HELPER"

// runFatalHelper re-runs the current test in a child process with the helper
// scenario enabled and returns its exit code and stderr.
func runFatalHelper(t *testing.T, scenario string) (int, string) {
	t.Helper()

	cmd := exec.Command(os.Args[0], "-test.run=^"+t.Name()+"$", "-test.count=1")
	cmd.Env = append(os.Environ(), fatalHelperEnv+"="+scenario)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("helper process: got err = %v, want a non-zero exit", err)
	}
	return exitErr.ExitCode(), stderr.String()
}

// TestFatal_PanicEscapesCallable verifies panics are never propagated
// Given: a callable that panics on its thread
// When: the owner joins it
// Then: the whole process exits with status 2 and reports the panic
func TestFatal_PanicEscapesCallable(t *testing.T) {
	if os.Getenv(fatalHelperEnv) == "panic" {
		th, err := core.New(func() { panic("boom") })
		if err != nil {
			os.Exit(0)
		}
		_ = th.Join()
		// Reaching this point means the panic was swallowed.
		os.Exit(0)
	}

	code, stderr := runFatalHelper(t, "panic")

	if code != 2 {
		t.Errorf("exit code: got = %d, want = 2", code)
	}
	if !strings.Contains(stderr, "callable panicked") || !strings.Contains(stderr, "boom") {
		t.Errorf("stderr does not report the panic:\n%s", stderr)
	}
}

// TestFatal_AbandonedJoinableThread verifies the disposal rule
// Given: a joinable Thread that is dropped without Join or Detach
// When: the garbage collector reclaims it
// Then: the process exits with status 2
func TestFatal_AbandonedJoinableThread(t *testing.T) {
	if os.Getenv(fatalHelperEnv) == "abandon" {
		block := make(chan struct{})
		spawnAndDrop(block)

		deadline := time.Now().Add(5 * time.Second)
		for time.Now().Before(deadline) {
			runtime.GC()
			time.Sleep(10 * time.Millisecond)
		}
		// Reaching this point means the abandoned thread went unnoticed.
		os.Exit(0)
	}

	code, stderr := runFatalHelper(t, "abandon")

	if code != 2 {
		t.Errorf("exit code: got = %d, want = 2", code)
	}
	if !strings.Contains(stderr, "abandoned") {
		t.Errorf("stderr does not report the abandoned thread:\n%s", stderr)
	}
}

//go:noinline
func spawnAndDrop(block chan struct{}) {
	th, err := core.New(func(block chan struct{}) { <-block }, block)
	if err != nil {
		os.Exit(0)
	}
	_ = th.ID()
}
