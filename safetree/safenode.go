package safetree

import "fmt"

// NodeType classifies a SafeNode's relationship to the live tree.
type NodeType int

const (
	// OrigTreeNode wraps a node that was, at wrap time, live in the tree.
	// It is added to the validation set: its observed child pointers must
	// still match at commit time.
	OrigTreeNode NodeType = iota
	// OrigTreeNoValidation wraps a node that must be stitched into the
	// tree-of-copies without being independently validated, because the
	// caller has proven an ancestor's snapshot already covers it (see
	// ConnPoint.WrapNoValidate and DESIGN.md for when this is safe to use).
	OrigTreeNoValidation
	// NewNode wraps a node freshly allocated for this attempt; it has no
	// original to validate against and starts fully modified.
	NewNode
)

// SafeNode is a copy-on-write wrapper around one live-tree (or brand new)
// node, exclusive to the ConnPoint that created it for the duration of one
// operation attempt. Reads before the first write are served straight off
// the live node; the first write clones it, generalized to an arbitrary
// runtime arity supplied by the user node via Arity() rather than a fixed
// small set of node widths.
type SafeNode[T interface {
	comparable
	Node[T]
}] struct {
	cp *ConnPoint[T]

	original T
	copy     T // aliased to original until the first write promotes it

	childrenSnapshot []T
	children         []*SafeNode[T]
	modified         []bool

	nodeType NodeType
	deleted  bool
}

// init is called once, right after allocation from the wrapper arena, to
// give a SafeNode its identity. It exists (rather than a constructor
// function returning *SafeNode[T]) because SafeNode values live in a flat
// arena.Pool[SafeNode[T]] and are addressed in place.
func (s *SafeNode[T]) init(cp *ConnPoint[T], original, copyNode T, snapshot []T, nodeType NodeType) {
	arity := 0
	if !isNil(original) {
		arity = original.Arity()
	} else if !isNil(copyNode) {
		arity = copyNode.Arity()
	}
	s.cp = cp
	s.original = original
	s.copy = copyNode
	s.childrenSnapshot = snapshot
	s.children = make([]*SafeNode[T], arity)
	s.modified = make([]bool, arity)
	s.nodeType = nodeType
	s.deleted = false
}

// PeekOriginal borrows read-only access to the live node this wrapper was
// created over (the zero value if this is a NewNode, or if the wrapped slot
// was empty). It never triggers promotion.
func (s *SafeNode[T]) PeekOriginal() T {
	return s.original
}

// PeekChild reads child slot i without forcing promotion: if this node has
// not yet been promoted, the answer comes from the snapshot captured at
// wrap time; otherwise it is read straight off the (possibly modified)
// copy.
func (s *SafeNode[T]) PeekChild(i int) T {
	if !s.promoted() {
		return s.childrenSnapshot[i]
	}
	return s.copy.GetChild(i)
}

// promoted reports whether copy has diverged from original. It is always
// true for a NewNode wrapper (whose copy is its own fresh node) and for an
// OrigTreeNoValidation wrapper (which is never cloned: its copy stays the
// original node).
func (s *SafeNode[T]) promoted() bool {
	if s.nodeType != OrigTreeNode {
		return true
	}
	return s.copy != s.original
}

// RWRef ensures copy is a private clone of original (with child slots equal
// to the wrap-time snapshot, not whatever the live tree has done since) and
// returns it. It is idempotent.
func (s *SafeNode[T]) RWRef() T {
	if s.promoted() {
		return s.copy
	}
	s.makeCopy()
	return s.copy
}

// makeCopy performs the actual promotion: allocate a fresh user node cloned
// from original, then overwrite every child slot with the observed
// snapshot so the copy reflects what was seen at wrap time, not any
// concurrent mutation since.
func (s *SafeNode[T]) makeCopy() {
	if isNil(s.original) {
		panicFatal("safenode.make_copy", fmt.Errorf(
			"cannot promote a SafeNode with no original node; attach one via ConnPoint.CreateSafe/NewTree instead"))
	}
	fresh := s.cp.cloneNode(s.original)
	for i, child := range s.childrenSnapshot {
		fresh.SetChild(i, child)
	}
	s.copy = fresh
	if s.cp.engine.cfg.EarlyAbortOnCopy {
		s.cp.checkEarlyAbort(s)
	}
}

// GetChild returns the child SafeNode wrapper for slot i, creating it (by
// wrapping whatever is presently in that slot, live-tree or not-yet-
// existing) on first call. It forces promotion of the receiver, since the
// caller is about to navigate (and likely eventually rewrite) beneath it.
func (s *SafeNode[T]) GetChild(i int) *SafeNode[T] {
	if s.nodeType == OrigTreeNoValidation {
		panicFatal("safenode.get_child", fmt.Errorf(
			"node was wrapped without validation; nothing re-checks reads made through it"))
	}
	if s.children[i] != nil {
		return s.children[i]
	}
	s.RWRef()
	childVal := s.copy.GetChild(i)
	child := s.cp.WrapSafe(childVal)
	s.children[i] = child
	return child
}

// SetChild overwrites child slot i with the node-to-be-connected carried by
// child (or the zero value, for child == nil), marks the slot modified, and
// returns the SafeNode that previously occupied children[i] (or nil), for
// callers doing their own subtree bookkeeping (e.g. ClipTree).
func (s *SafeNode[T]) SetChild(i int, child *SafeNode[T]) *SafeNode[T] {
	if s.nodeType == OrigTreeNoValidation {
		panicFatal("safenode.set_child", fmt.Errorf(
			"node was wrapped without validation; nothing re-checks writes made through it"))
	}
	s.RWRef()
	prev := s.children[i]
	s.modified[i] = true
	var val T
	if child != nil {
		val = child.NodeToBeConnected()
	}
	s.copy.SetChild(i, val)
	s.children[i] = child
	return prev
}

// ClipTree recursively soft-deletes the subtree rooted at child slot i
// (marking every SafeNode in it, wrapping the whole subtree as it goes, as
// deleted) and clears the slot.
func (s *SafeNode[T]) ClipTree(i int) {
	child := s.GetChild(i)
	child.clipAll()
	s.SetChild(i, nil)
}

func (s *SafeNode[T]) clipAll() {
	s.deleted = true
	for i := range s.children {
		if isNil(s.PeekChild(i)) {
			continue
		}
		s.GetChild(i).clipAll()
	}
}

// NodeToBeConnected returns the user-node handle that a parent's SetChild
// should store: the clone if this wrapper was promoted, or the original
// node unchanged if it never needed to be.
func (s *SafeNode[T]) NodeToBeConnected() T {
	return s.copy
}

// Deleted reports whether this wrapper's subtree was soft-deleted via
// ClipTree.
func (s *SafeNode[T]) Deleted() bool {
	return s.deleted
}

// NodeType reports this wrapper's classification.
func (s *SafeNode[T]) NodeType() NodeType {
	return s.nodeType
}
