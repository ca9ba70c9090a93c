package safetree

import (
	"sync/atomic"
	"unsafe"
)

// casPointerSlot performs an atomic compare-and-swap on the pointer-sized
// slot at addr: it succeeds (storing next and returning true) only if the
// word presently stored at addr has the same bit pattern as want, and
// otherwise leaves addr untouched and returns false.
//
// This is the primitive ConnPoint.attemptCommit's single-pointer
// publication step is built on. Under txguard.SoftwareBackend every commit
// body is already serialized (see its doc comment), which makes the
// re-compare here redundant with the pointer-slot check that just ran;
// the publish is kept a CAS anyway: it is the one store concurrent
// readers race against, and it keeps the publish self-arbitrating under
// any alternative Backend whose bodies are not mutually excluded. A failed
// compare reports ValidationFailed instead of ever clobbering a value this
// attempt did not observe.
//
// T must be a single-word, pointer-shaped type: true of every concrete
// node handle used with this engine (Node's doc comment describes T as
// almost always a pointer type, e.g. *MyNode). Go represents every such type (pointer, map, chan,
// func, unsafe.Pointer) as one machine word with identical layout to
// unsafe.Pointer, so reinterpreting *T as *unsafe.Pointer for the duration
// of one atomic operation changes no bits and violates no type's
// invariants. It would be unsound for a multi-word T (a slice, string, or
// interface value), which is why node handles are expected to be
// pointer-ish types rather than an arbitrary comparable.
func casPointerSlot[T comparable](addr *T, want, next T) bool {
	return atomic.CompareAndSwapPointer(
		(*unsafe.Pointer)(unsafe.Pointer(addr)),
		*(*unsafe.Pointer)(unsafe.Pointer(&want)),
		*(*unsafe.Pointer)(unsafe.Pointer(&next)),
	)
}

// loadPointerSlot is casPointerSlot's read-side counterpart: an atomic load
// of a live-tree pointer slot. Every traversal read that can race a
// concurrent commit's publish (lookups, path tracking, child-snapshot
// capture) goes through it, so readers and the one publishing store stay
// on atomic operations for the slots they share. Same single-word layout
// requirement on T as casPointerSlot.
func loadPointerSlot[T comparable](addr *T) T {
	p := atomic.LoadPointer((*unsafe.Pointer)(unsafe.Pointer(addr)))
	return *(*T)(unsafe.Pointer(&p))
}
