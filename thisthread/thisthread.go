// Package thisthread provides operations on the calling OS thread: its
// identity, yielding, and sleeping.
package thisthread

import (
	"runtime"
	"time"

	"github.com/Swind/go-thread/core"
)

// GetID returns the identity of the calling OS thread. It is never the zero
// ID. See core.CurrentID for when the result is stable.
func GetID() core.ID {
	return core.CurrentID()
}

// Yield lets other runnable goroutines and threads run. It is a hint only.
func Yield() {
	runtime.Gosched()
}

// SleepFor blocks the caller for at least d, measured on the monotonic clock.
// It may sleep longer. A zero or negative d only yields.
func SleepFor(d time.Duration) {
	if d <= 0 {
		Yield()
		return
	}
	time.Sleep(d)
}

// SleepUntil blocks the caller until at least t. If t has already passed it
// returns immediately.
//
// When t carries a monotonic reading (it came from time.Now) the wait is
// measured on the monotonic clock. Otherwise it is measured on the wall
// clock and re-checked after every wake-up, so a clock step never cuts the
// sleep short.
func SleepUntil(t time.Time) {
	for {
		d := time.Until(t)
		if d <= 0 {
			return
		}
		time.Sleep(d)
	}
}
