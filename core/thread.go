package core

import "context"

// noCopy lets `go vet` flag copies of a Thread. A copied Thread would be a
// second owner of the same OS thread.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Thread owns at most one running OS thread.
//
// The zero value is an empty Thread that owns nothing. New and Spawner.Spawn
// return a joinable Thread; it becomes empty again after exactly one call to
// Join or Detach. Ownership moves with Swap or Move; a Thread must not be
// copied.
//
// A joinable Thread must be joined or detached before it becomes unreachable.
// If the garbage collector reclaims a joinable Thread the process is
// terminated, since the OS thread it owned can no longer be disposed.
//
// A Thread is not safe for concurrent use: Join, Detach, Swap and Move on the
// same Thread from several goroutines need external synchronization.
type Thread struct {
	noCopy noCopy
	h      *handle
}

// New starts a new OS thread running fn(args...) and returns the joinable
// Thread that owns it.
//
// fn is either a func with no results or a value with a Run method (a
// functor). fn and every argument are copied when New is called, so the new
// thread never observes later changes made by the caller:
//   - values implementing Cloner are copied with Clone
//   - slices and maps get their own backing storage; their elements are
//     copied by assignment
//   - pointers, channels and funcs are copied as references and share
//     what they point to
//   - Ref(&x) passes &x through uncopied; use it to share state, including
//     output parameters, with the thread
//   - Move(&x) transfers x without copying and zeroes the caller's x
//   - nil arguments become the zero value of the parameter
//
// For a variadic fn, a final slice argument that is assignable to the
// variadic parameter is passed as the whole variadic list, like fn(xs...).
// Otherwise each trailing argument fills one variadic element.
//
// The callable runs exactly once, on the new thread, which is locked to its
// own goroutine for its whole life. A panic escaping the callable terminates
// the process. New panics if fn cannot be called with args.
//
// New fails with a *ResourceError if the thread cannot be created.
func New(fn any, args ...any) (*Thread, error) {
	return NewSpawner(nil).Spawn(fn, args...)
}

// ID returns the identity of the owned thread, or the zero ID when t is empty.
func (t *Thread) ID() ID {
	if t.h == nil {
		return ID{}
	}
	return t.h.id
}

// Joinable reports whether t owns a thread that has not been joined or detached.
func (t *Thread) Joinable() bool {
	return t.h != nil
}

// NativeHandle returns the kernel id of the owned thread for use with
// native APIs (unix.SchedSetaffinity, unix.Tgkill, ...). It grants no
// ownership and returns 0 when t is empty.
func (t *Thread) NativeHandle() NativeID {
	return t.ID().Native()
}

// Join blocks until the owned thread has finished running its callable, then
// leaves t empty. Everything the callable did happens before Join returns.
//
// Join returns ErrInvalidOperation if t is not joinable, and ErrDeadlock if
// it is called from the owned thread itself.
func (t *Thread) Join() error {
	return t.JoinContext(context.Background())
}

// JoinContext is Join with a bound on the wait. If ctx is done first it
// returns ctx.Err() and t stays joinable; the thread keeps running.
func (t *Thread) JoinContext(ctx context.Context) error {
	if t.h == nil {
		return ErrInvalidOperation
	}
	if err := t.h.join(ctx); err != nil {
		return err
	}
	t.h = nil
	return nil
}

// Detach gives up ownership of the thread, which keeps running and releases
// its resources when its callable returns. t is left empty.
//
// Detach returns ErrInvalidOperation if t is not joinable.
func (t *Thread) Detach() error {
	if t.h == nil {
		return ErrInvalidOperation
	}
	t.h.detach()
	t.h = nil
	return nil
}

// Swap exchanges the threads owned by t and other.
func (t *Thread) Swap(other *Thread) {
	t.h, other.h = other.h, t.h
}

// Move transfers ownership of t's thread to a new Thread and leaves t empty.
func (t *Thread) Move() *Thread {
	h := t.h
	t.h = nil
	return &Thread{h: h}
}

// Swap exchanges the threads owned by a and b.
func Swap(a, b *Thread) {
	a.Swap(b)
}

// HardwareConcurrency returns the number of threads the host can run in
// parallel for this process. It returns 0 if that cannot be determined.
func HardwareConcurrency() int {
	return hardwareConcurrency()
}
