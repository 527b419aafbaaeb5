package core

// CurrentID returns the ID of the OS thread running the caller.
//
// The result identifies the caller reliably only when the goroutine cannot
// migrate: on a Thread, or after runtime.LockOSThread. Elsewhere the Go
// scheduler may move the goroutine to another OS thread at any time.
func CurrentID() ID {
	return idOf(currentNativeID())
}
