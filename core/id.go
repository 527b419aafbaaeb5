package core

import (
	"cmp"
	"hash/maphash"
	"strconv"
)

// NativeID is the kernel identifier of an OS thread (the value returned by gettid(2)).
type NativeID int

// ID identifies an execution context.
// The zero value means "no thread" and never equals the ID of a running thread.
// IDs are comparable with == and can be used directly as map keys.
type ID struct {
	native NativeID
}

// idSeed is fixed at init so Hash is stable for the lifetime of the process.
var idSeed = maphash.MakeSeed()

func idOf(native NativeID) ID {
	return ID{native: native}
}

// IsZero reports whether id is the "no thread" sentinel.
func (id ID) IsZero() bool {
	return id.native == 0
}

// Native returns the underlying kernel thread id, or 0 for the sentinel.
func (id ID) Native() NativeID {
	return id.native
}

// Compare returns -1, 0 or +1 depending on whether id sorts before, equal to,
// or after other. The sentinel sorts before every real thread.
func (id ID) Compare(other ID) int {
	return cmp.Compare(id.native, other.native)
}

// Less reports whether id sorts strictly before other.
func (id ID) Less(other ID) bool { return id.Compare(other) < 0 }

// LessEqual reports whether id sorts before or equal to other.
func (id ID) LessEqual(other ID) bool { return id.Compare(other) <= 0 }

// Greater reports whether id sorts strictly after other.
func (id ID) Greater(other ID) bool { return id.Compare(other) > 0 }

// GreaterEqual reports whether id sorts after or equal to other.
func (id ID) GreaterEqual(other ID) bool { return id.Compare(other) >= 0 }

// Hash returns a hash of id. Equal IDs hash equally within a process.
func (id ID) Hash() uint64 {
	return maphash.Comparable(idSeed, id)
}

func (id ID) String() string {
	if id.IsZero() {
		return "thread(none)"
	}
	return "thread(" + strconv.Itoa(int(id.native)) + ")"
}
