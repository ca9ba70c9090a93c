// Package safetree implements the SafeTree engine: the path tracker, the
// copy-on-write node wrapper, the connection-point commit protocol, the
// validation set, and the operation envelope that concrete maps (see
// maps/bst, maps/avl) build on top of.
//
// A user supplies a node handle type T (typically a pointer to their own
// struct) satisfying Node[T]; T is fed back into the interface itself
// (F-bounded generics) so the engine can be generic over "a type that knows
// how to navigate itself" without a separate node-type parameter.
package safetree

// TreeType selects the reachability-check strategy ConnPoint.Commit uses
// when confirming the connection point is still reachable from the root.
type TreeType int

const (
	// GeneralTree replays the recorded path link-by-link from the root,
	// supporting arbitrary (non-keyed) tree structures at the cost of a
	// full path walk on every commit attempt.
	GeneralTree TreeType = iota
	// SearchTree uses the node's key-navigation methods to re-find the
	// connection point directly, an optimization available when T also
	// implements the search contract (KeyedNode).
	SearchTree
)

// AtRoot is the sentinel child index meaning "the slot in question is the
// root pointer cell of the whole structure, not a slot inside any node".
const AtRoot = -1

// Node is the capability set every node handle used with this engine must
// implement. K is not part of this interface: Node covers general-tree mode,
// where navigation is structural only. T is almost always a pointer type
// (e.g. *MyNode); its zero value (nil, for a pointer) represents "no node"
// and must compare equal to itself via ==, hence the comparable constraint.
type Node[T comparable] interface {
	// Arity returns the fixed number of child slots this node type has. It
	// must be identical for every node belonging to one map; the engine
	// never asks for more slots than this.
	Arity() int
	// GetChild returns the current value of child slot i.
	GetChild(i int) T
	// SetChild overwrites child slot i.
	SetChild(i int, child T)
	// GetChildPointer returns the address of child slot i, allowing the
	// engine to snapshot a slot's value now and compare against it later
	// without going through GetChild (which user code could, in principle,
	// have wrapped with side effects).
	GetChildPointer(i int) *T
}

// KeyedNode is the additional capability set required for search-tree mode:
// a node that knows, given a key or a target node, which child slot to
// follow next.
type KeyedNode[T comparable, K any] interface {
	Node[T]
	// HasKey reports whether this node itself holds key k.
	HasKey(k K) bool
	// TraversalDone reports whether the search for k should stop at this
	// node (e.g. because the node is a leaf, or because it necessarily
	// contains k if k is present at all).
	TraversalDone(k K) bool
	// NextChild returns which child slot to follow while searching for k.
	NextChild(k K) int
	// NextChildTowards returns which child slot to follow while searching
	// for a specific already-known node, target.
	NextChildTowards(target T) int
}

// targetNavigable is the narrow slice of KeyedNode that the general
// FindTargetNode search helper and the search-tree reachability check
// actually need; it lets both work for any T that implements at least this
// much, without requiring the full KeyedNode[T, K] (and its K).
type targetNavigable[T comparable] interface {
	Node[T]
	NextChildTowards(target T) int
}

// isNil reports whether a node handle is the zero value (e.g. nil, for a
// pointer-typed T).
func isNil[T comparable](v T) bool {
	var zero T
	return v == zero
}
