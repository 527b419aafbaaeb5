package core

import "errors"

var (
	// ErrInvalidOperation is returned by Join and Detach on a Thread that is
	// not joinable: default-constructed, already joined or already detached.
	ErrInvalidOperation = errors.New("thread: not joinable")

	// ErrDeadlock is returned by Join when a thread tries to join itself.
	ErrDeadlock = errors.New("thread: join would deadlock")
)

// ResourceError reports that a new OS thread could not be created.
// Err carries the underlying cause, normally a syscall errno such as EAGAIN,
// so errors.Is(err, unix.EAGAIN) holds for a thread-limit failure.
type ResourceError struct {
	Op  string
	Err error
}

func (e *ResourceError) Error() string {
	return "thread: " + e.Op + ": " + e.Err.Error()
}

func (e *ResourceError) Unwrap() error {
	return e.Err
}
