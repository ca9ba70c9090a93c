package safetree

import "github.com/BazookaMusic/safetree/internal/pathstack"

// PathTracker walks the live tree while recording the path taken, so that at
// any point it can publish a ConnPointSnapshot without having to re-walk
// from the root.
type PathTracker[T comparable] struct {
	rootPtr *T
	current T
	path    *pathstack.Stack[T]
}

// NewPathTracker constructs a tracker positioned at the current root.
func NewPathTracker[T comparable](rootPtr *T, maxPathLen int) *PathTracker[T] {
	return &PathTracker[T]{
		rootPtr: rootPtr,
		current: loadPointerSlot(rootPtr),
		path:    pathstack.New[T](maxPathLen),
	}
}

// Current returns the node the tracker is presently positioned on (the zero
// value if the tree is empty and the tracker has not moved).
func (p *PathTracker[T]) Current() T {
	return p.current
}

// MoveToChild pushes the current node onto the path (recording which child
// index is being followed) and descends into child slot i.
func (p *PathTracker[T]) MoveToChild(i int, node Node[T]) error {
	if err := p.path.Push(pathstack.Frame[T]{Node: p.current, ChildIndex: i}); err != nil {
		return err
	}
	p.current = loadPointerSlot(node.GetChildPointer(i))
	return nil
}

// MoveUp pops up to n frames, moving current back towards the root. It stops
// early if the path is exhausted (current becomes the tree root).
func (p *PathTracker[T]) MoveUp(n int) {
	for i := 0; i < n; i++ {
		f, ok := p.path.Pop()
		if !ok {
			p.current = loadPointerSlot(p.rootPtr)
			return
		}
		p.current = f.Node
	}
}

// ConnectHere returns a ConnPointSnapshot where the parent of the current
// node is the connection point (or AtRoot, if current is the root itself).
// The tracker's own path stack is left unchanged: the snapshot gets an
// independent clone, so callers can keep walking the tracker after
// snapshotting a connection point.
func (p *PathTracker[T]) ConnectHere() *ConnPointSnapshot[T] {
	pathCopy := p.path.Clone()
	parent, ok := pathCopy.Pop()
	if !ok {
		// current is the root: the connection point is the root pointer
		// cell itself.
		return &ConnPointSnapshot[T]{
			RootPtr:             p.rootPtr,
			AtRoot:              true,
			ChildIndex:          AtRoot,
			ConnPointerSnapshot: p.current,
			Path:                pathCopy,
		}
	}
	return &ConnPointSnapshot[T]{
		RootPtr:             p.rootPtr,
		AtRoot:              false,
		ConnectionPoint:     parent.Node,
		ChildIndex:          parent.ChildIndex,
		ConnPointerSnapshot: p.current,
		Path:                pathCopy,
	}
}
