package safetree

// Find walks the live tree (no copies, no validation) looking for key k,
// using T's own key-navigation methods. It returns the matching node and
// true, or the zero value and false if k is absent. This is a pure read:
// callers that intend to modify what they find should use a PathTracker and
// a ConnPoint instead, so the walk can be replayed under the commit
// protocol.
func Find[T KeyedNode[T, K], K any](root T, k K) (T, bool) {
	cur := root
	for {
		if isNil(cur) {
			var zero T
			return zero, false
		}
		if cur.HasKey(k) {
			return cur, true
		}
		if cur.TraversalDone(k) {
			var zero T
			return zero, false
		}
		cur = loadPointerSlot(cur.GetChildPointer(cur.NextChild(k)))
	}
}

// FindTargetNode walks the live tree looking for a specific, already-known
// node (target), using NextChildTowards rather than a key comparison. It is
// the same walk the search-tree reachability check performs, and is
// also useful to map layers that need to locate a node's current live
// position (e.g. to re-derive a path) without carrying key-typed code.
func FindTargetNode[T targetNavigable[T]](root, target T) (T, bool) {
	cur := root
	for {
		if isNil(cur) {
			var zero T
			return zero, false
		}
		if cur == target {
			return cur, true
		}
		cur = loadPointerSlot(cur.GetChildPointer(cur.NextChildTowards(target)))
	}
}

// FindConnPoint walks from the engine's root towards key k, recording the
// path as it goes, and returns a ConnPointSnapshot positioned so that
// committing through it will overwrite the slot presently holding the node
// matching k (or, if absent, the slot where it would be inserted). It is
// the search-tree counterpart of PathTracker.MoveToChild/ConnectHere,
// specialized so map operations do not need to hand-roll the descent.
func FindConnPoint[T KeyedNode[T, K], K any](e *Engine[T], k K) *ConnPointSnapshot[T] {
	pt := e.NewPathTracker()
	for {
		cur := pt.Current()
		if isNil(cur) || cur.HasKey(k) || cur.TraversalDone(k) {
			return pt.ConnectHere()
		}
		idx := cur.NextChild(k)
		if err := pt.MoveToChild(idx, cur); err != nil {
			panicFatal("search.find_conn_point", err)
		}
	}
}
