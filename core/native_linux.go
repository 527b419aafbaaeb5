//go:build linux

package core

import (
	"runtime"

	"golang.org/x/sys/unix"
)

const nativeSupported = true

// currentNativeID returns the kernel id of the OS thread running the caller.
// Unless the goroutine is locked to its thread the result may be stale as
// soon as it is returned.
func currentNativeID() NativeID {
	return NativeID(unix.Gettid())
}

// hardwareConcurrency counts the CPUs in the process affinity mask, which is
// what the scheduler will actually hand out to this process.
func hardwareConcurrency() int {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err == nil {
		if n := set.Count(); n > 0 {
			return n
		}
	}
	return runtime.NumCPU()
}

func errThreadLimit() error {
	return unix.EAGAIN
}
