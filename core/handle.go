package core

import (
	"context"
	"runtime"
	"runtime/debug"
	"time"
)

// handle owns one live OS thread. It is referenced only by the Thread that
// owns it; the running thread holds the done channel, never the handle, so a
// handle that becomes unreachable means its Thread was dropped.
type handle struct {
	id      ID
	done    <-chan struct{}
	sp      *Spawner
	cleanup runtime.Cleanup
}

// abandonedThread is the data the abandonment cleanup needs. It must not
// point back at the handle or the cleanup would never run.
type abandonedThread struct {
	sp *Spawner
	id ID
}

func abandoned(a abandonedThread) {
	a.sp.abort(a.id, "joinable thread abandoned without Join or Detach", nil, nil)
}

// start creates an OS thread running inv and waits until the thread has
// published its kernel id.
func (s *Spawner) start(inv *invoker) (*handle, error) {
	if err := s.reserve(); err != nil {
		return nil, err
	}

	desc := inv.desc
	s.starting()
	ready := make(chan NativeID, 1)
	done := make(chan struct{})
	go s.trampoline(inv, ready, done)

	id := idOf(<-ready)
	h := &handle{id: id, done: done, sp: s}
	h.cleanup = runtime.AddCleanup(h, abandoned, abandonedThread{sp: s, id: id})
	s.started(id, desc)
	return h, nil
}

// trampoline is the entry point of every spawned thread.
func (s *Spawner) trampoline(inv *invoker, ready chan<- NativeID, done chan<- struct{}) {
	// Never unlocked: the runtime terminates the OS thread when this goroutine
	// returns, so the thread lives exactly as long as the callable.
	runtime.LockOSThread()

	id := idOf(currentNativeID())
	ready <- id.native

	defer close(done)
	defer s.exited(id)
	defer func() {
		if r := recover(); r != nil {
			s.abort(id, "callable panicked", r, debug.Stack())
		}
	}()

	inv.invoke()
}

func (h *handle) finished() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// selfJoin reports whether the caller is the owned thread itself. A finished
// thread cannot be the caller, and checking that first keeps a recycled
// kernel id from producing a false positive.
func (h *handle) selfJoin() bool {
	return !h.finished() && currentNativeID() == h.id.native
}

func (h *handle) join(ctx context.Context) error {
	if h.selfJoin() {
		return ErrDeadlock
	}

	start := time.Now()
	// A finished thread joins even when ctx is already done.
	if !h.finished() {
		select {
		case <-h.done:
		case <-ctx.Done():
			if !h.finished() {
				return ctx.Err()
			}
		}
	}

	h.cleanup.Stop()
	h.sp.joined.Add(1)
	h.sp.metrics.RecordJoin(h.sp.name, time.Since(start))
	h.sp.logger.Debug("thread joined", F("spawner", h.sp.name), F("thread", h.id))
	return nil
}

func (h *handle) detach() {
	h.cleanup.Stop()
	h.sp.detached.Add(1)
	h.sp.metrics.RecordDetach(h.sp.name)
	h.sp.logger.Debug("thread detached", F("spawner", h.sp.name), F("thread", h.id))
}
