//go:build !linux

package core

import (
	"runtime"
	"syscall"
)

// Kernel thread ids are only wired up for Linux; elsewhere Spawn fails with a
// ResourceError wrapping errors.ErrUnsupported.
const nativeSupported = false

func currentNativeID() NativeID {
	return 0
}

func hardwareConcurrency() int {
	return runtime.NumCPU()
}

func errThreadLimit() error {
	return syscall.EAGAIN
}
