package safetree

import "github.com/BazookaMusic/safetree/internal/pathstack"

// ConnPointSnapshot is the immutable result of a PathTracker.ConnectHere or
// FindConnPoint call: everything a ConnPoint needs to attempt one commit.
// Its fields are never reassigned after it is produced; its Path stack,
// however, is popped in place by ConnPoint.PopPath.
type ConnPointSnapshot[T comparable] struct {
	// RootPtr is the address of the pointer cell that stores the tree
	// root.
	RootPtr *T
	// AtRoot is true when the slot to be overwritten is *RootPtr itself,
	// rather than a child slot of some node.
	AtRoot bool
	// ConnectionPoint is the node whose child slot ChildIndex will be
	// overwritten. It is the zero value when AtRoot is true.
	ConnectionPoint T
	// ChildIndex is which slot of ConnectionPoint will be overwritten, or
	// AtRoot's sentinel value when AtRoot is true.
	ChildIndex int
	// ConnPointerSnapshot is the value the target slot held at snapshot
	// time; this is re-checked at commit time.
	ConnPointerSnapshot T
	// Path is the captured path stack from the root down to
	// ConnectionPoint, consumed by PopPath and by the general-tree
	// reachability check.
	Path *pathstack.Stack[T]
}
