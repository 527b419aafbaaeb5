// Package thread provides an owning handle for native OS threads.
//
// A Thread starts a callable on a dedicated OS thread and owns that thread
// until it is joined or detached. Unlike a bare goroutine, the callable is
// locked to its own kernel thread for its whole life, so it can rely on
// thread-local state (CGO libraries, signal masks, CPU affinity) and be
// addressed by its kernel thread id.
//
// # Quick Start
//
//	t, err := thread.New(func(name string) {
//		fmt.Println("hello from", name, thisthread.GetID())
//	}, "worker")
//	if err != nil {
//		return err // *thread.ResourceError
//	}
//	if err := t.Join(); err != nil {
//		return err
//	}
//
// # Key Concepts
//
// Thread: owns zero or one running OS thread. It is joinable from creation
// until exactly one Join or Detach. Join and Detach on a Thread that is not
// joinable return ErrInvalidOperation.
//
// Capture: the callable and its arguments are copied when the thread is
// created. Use thread.Ref to share a value (for example an output parameter)
// with the thread, and thread.Move to hand over a value that must not be copied.
//
// ID: comparable, ordered and hashable identity of an OS thread. The zero ID
// means "no thread". thisthread.GetID returns the ID of the caller.
//
// Spawner: creates Threads with a name, an optional live-thread cap, and
// pluggable Logger, Metrics and FatalHandler implementations.
//
// # Fatal Errors
//
// Two mistakes cannot be reported as errors and terminate the process:
// a panic escaping the callable, and a joinable Thread being garbage
// collected without Join or Detach.
//
// # Example
//
//	import (
//		thread "github.com/Swind/go-thread"
//		"github.com/Swind/go-thread/thisthread"
//	)
//
//	func main() {
//		var id thread.ID
//		t, err := thread.New(func(out *thread.ID) {
//			*out = thisthread.GetID()
//		}, thread.Ref(&id))
//		if err != nil {
//			panic(err)
//		}
//		_ = t.Join()
//		fmt.Println("thread ran as", id)
//	}
//
// For more details, see https://github.com/Swind/go-thread
package thread
