package core

import "unsafe"

// ID has the layout of NativeID and Thread has the layout of a single native
// handle word, so both can be handed to code that expects the native types.
// The array indexes below fail to compile if either layout drifts.
var (
	_ = [1]struct{}{}[unsafe.Sizeof(ID{})-unsafe.Sizeof(NativeID(0))]
	_ = [1]struct{}{}[unsafe.Sizeof(NativeID(0))-unsafe.Sizeof(ID{})]
	_ = [1]struct{}{}[unsafe.Sizeof(Thread{})-unsafe.Sizeof(uintptr(0))]
	_ = [1]struct{}{}[unsafe.Sizeof(uintptr(0))-unsafe.Sizeof(Thread{})]
)

// LayoutCompatible reports whether ID matches NativeID and Thread matches a
// native handle word in both size and alignment.
func LayoutCompatible() bool {
	return unsafe.Sizeof(ID{}) == unsafe.Sizeof(NativeID(0)) &&
		unsafe.Alignof(ID{}) == unsafe.Alignof(NativeID(0)) &&
		unsafe.Sizeof(Thread{}) == unsafe.Sizeof(uintptr(0)) &&
		unsafe.Alignof(Thread{}) == unsafe.Alignof(uintptr(0))
}
