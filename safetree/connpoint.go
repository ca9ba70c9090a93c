package safetree

import (
	"github.com/BazookaMusic/safetree/internal/arena"
	"github.com/BazookaMusic/safetree/internal/txguard"
)

// NodeArena is the per-attempt allocator a concrete map supplies so SafeNode
// promotion (and ConnPoint.CreateSafe/NewTree) can allocate fresh user
// nodes. Concrete maps back this with their own internal/arena.
// CheckpointPool[U] (U being their private struct type, with T == *U by
// convention); safetree itself never needs to know U.
type NodeArena[T any] interface {
	// Clone returns a fresh node carrying original's payload (key, value,
	// and any cached metadata). Child slots are overwritten by the caller
	// immediately afterwards, so Clone must not copy them: original is a
	// live-tree node whose slots a concurrent commit may be publishing
	// into, and only the engine's snapshot-mediated reads of those slots
	// are safe.
	Clone(original T) T
	SetCheckpoint()
	RollbackToCheckpoint()
}

// ConnPoint is the per-operation-attempt controller: it owns the tree-of-
// copies, the path to the connection point in the live tree, the validation
// set, and drives the commit protocol.
type ConnPoint[T interface {
	comparable
	Node[T]
}] struct {
	engine   *Engine[T]
	snapshot *ConnPointSnapshot[T]

	nodeArena   NodeArena[T]
	wrapperPool *arena.Pool[SafeNode[T]]

	validationSet []*SafeNode[T]

	headWrapper *SafeNode[T] // tree-of-copies root, set via GetRoot/SetRoot/NewTree/PopPath

	// The current connection point, rotated one level towards the root by
	// every PopPath call; snapshot.ConnectionPoint keeps the original.
	connectionPoint T
	connPointer     T // current expected value of the slot to overwrite
	childIndex      int
	atRoot          bool

	treeWasModified   bool
	copyConnected     bool
	validationAborted bool
	committed         bool
}

// newConnPoint constructs a ConnPoint bound to one snapshot, checking out a
// fresh wrapper pool and node arena from the engine's per-goroutine
// registries.
func newConnPoint[T interface {
	comparable
	Node[T]
}](e *Engine[T], snap *ConnPointSnapshot[T]) *ConnPoint[T] {
	na := e.newNodeArena()
	na.SetCheckpoint()
	cp := &ConnPoint[T]{
		engine:          e,
		snapshot:        snap,
		nodeArena:       na,
		wrapperPool:     e.wrapperArenas.Acquire(),
		connectionPoint: snap.ConnectionPoint,
		connPointer:     snap.ConnPointerSnapshot,
		childIndex:      snap.ChildIndex,
		atRoot:          snap.AtRoot,
	}
	if e.cfg.PreallocValidationSet > 0 {
		cp.validationSet = make([]*SafeNode[T], 0, e.cfg.PreallocValidationSet)
	}
	return cp
}

// allocWrapper pulls the next SafeNode slot from the wrapper arena, fatal
// on exhaustion.
func (cp *ConnPoint[T]) allocWrapper() *SafeNode[T] {
	s, err := cp.wrapperPool.Create()
	if err != nil {
		panicFatal("connpoint.alloc_wrapper", err)
	}
	return s
}

// cloneNode allocates a fresh node from the attempt's node arena, cloned
// from original.
func (cp *ConnPoint[T]) cloneNode(original T) T {
	return cp.nodeArena.Clone(original)
}

// WrapSafe wraps a live-tree node n (may be the zero value, meaning an
// absent child) for reading/writing within this attempt, adding it to the
// validation set so its observed children are re-checked at commit time.
func (cp *ConnPoint[T]) WrapSafe(n T) *SafeNode[T] {
	snapshot := captureChildren(n)
	s := cp.allocWrapper()
	s.init(cp, n, n, snapshot, OrigTreeNode)
	cp.addToValidationSet(s)
	if cp.engine.cfg.EarlyAbort {
		cp.checkEarlyAbort(s)
	}
	return s
}

// CreateSafe wraps a brand-new node n, never part of the live tree, with
// every slot considered modified from the start. It is added to the
// validation set for bookkeeping (arena lifetime tracking) but has no
// original child snapshot to re-check.
func (cp *ConnPoint[T]) CreateSafe(n T) *SafeNode[T] {
	s := cp.allocWrapper()
	s.init(cp, zero[T](), n, nil, NewNode)
	for i := range s.modified {
		s.modified[i] = true
	}
	cp.addToValidationSet(s)
	cp.treeWasModified = true
	return s
}

// WrapNoValidate wraps a node that must be stitched into the tree-of-copies
// without being added to the validation set, because the caller has
// already proven (see DESIGN.md) that an ancestor's snapshot covers it,
// e.g. re-attaching the in-order successor's untouched right subtree
// during a two-child removal (maps/bst, maps/avl), where the successor
// itself is already in the validation set and its snapshot of that slot
// is re-checked at commit.
func (cp *ConnPoint[T]) WrapNoValidate(n T) *SafeNode[T] {
	snapshot := captureChildren(n)
	s := cp.allocWrapper()
	s.init(cp, n, n, snapshot, OrigTreeNoValidation)
	return s
}

func (cp *ConnPoint[T]) addToValidationSet(s *SafeNode[T]) {
	cp.validationSet = append(cp.validationSet, s)
}

func zero[T any]() T {
	var z T
	return z
}

func captureChildren[T interface {
	comparable
	Node[T]
}](n T) []T {
	if isNil(n) {
		return nil
	}
	snap := make([]T, n.Arity())
	for i := range snap {
		snap[i] = loadPointerSlot(n.GetChildPointer(i))
	}
	return snap
}

// GetRoot lazily wraps the snapshot's connection-pointer value (the node
// presently occupying the slot this attempt will overwrite) and installs it
// as head.
func (cp *ConnPoint[T]) GetRoot() *SafeNode[T] {
	if !cp.headHolder() {
		cp.setHead(cp.WrapSafe(cp.connPointer))
	}
	return cp.headWrapper
}

func (cp *ConnPoint[T]) headHolder() bool { return cp.headWrapper != nil }

func (cp *ConnPoint[T]) setHead(s *SafeNode[T]) {
	cp.headWrapper = s
	cp.treeWasModified = true
}

// SetRoot replaces the tree-of-copies root with safe, marking the tree
// modified.
func (cp *ConnPoint[T]) SetRoot(safe *SafeNode[T]) {
	cp.setHead(safe)
}

// NewTree starts a brand-new tree-of-copies rooted at a freshly created
// node (used for root-level creation, e.g. inserting into an empty tree).
func (cp *ConnPoint[T]) NewTree(userNode T) *SafeNode[T] {
	s := cp.CreateSafe(userNode)
	cp.SetRoot(s)
	return s
}

// PopPath grows the tree-of-copies one level up: it pops the recorded path,
// wraps the old connection point as a new SafeNode, re-homes it so the
// child slot being replaced points at the current head, and moves the
// connection point one step towards the root. It returns the new head, or
// nil if the path was already exhausted (i.e. the connection point was
// already the true root).
func (cp *ConnPoint[T]) PopPath() *SafeNode[T] {
	if cp.atRoot {
		return nil
	}

	oldConnPoint := cp.connectionPoint
	oldChildIndex := cp.childIndex
	oldConnPointerSnapshot := cp.connPointer

	wrapped := cp.WrapSafe(oldConnPoint)
	// Pin the snapshot of the slot being replaced to the *previous*
	// conn_pointer_snapshot, so validation continues to check the value
	// this attempt originally observed there, instead of whatever live
	// value happens to be sitting in the slot right now.
	wrapped.childrenSnapshot[oldChildIndex] = oldConnPointerSnapshot
	wrapped.SetChild(oldChildIndex, cp.headWrapper)

	cp.setHead(wrapped)
	cp.connPointer = oldConnPoint
	if frame, ok := cp.snapshot.Path.Pop(); ok {
		cp.connectionPoint = frame.Node
		cp.childIndex = frame.ChildIndex
	} else {
		// The old connection point was the tree root itself; the next
		// commit publishes into the root pointer cell.
		cp.connectionPoint = zero[T]()
		cp.atRoot = true
		cp.childIndex = AtRoot
	}
	return cp.headWrapper
}

// checkEarlyAbort implements eager abort: if the node's observed children
// no longer match the live tree, it marks the attempt as failed. The
// operation body is not interrupted; Commit then fails at its first step,
// without running the commit-time checks.
func (cp *ConnPoint[T]) checkEarlyAbort(s *SafeNode[T]) {
	if s.nodeType != OrigTreeNode || isNil(s.original) {
		return
	}
	for i, want := range s.childrenSnapshot {
		if loadPointerSlot(s.original.GetChildPointer(i)) != want {
			cp.validationAborted = true
			return
		}
	}
}

// GetConnPointer returns the address of the pointer slot this attempt will
// overwrite (the connection point's child slot, or the root pointer cell
// when operating at the root).
func (cp *ConnPoint[T]) GetConnPointer() *T {
	if cp.atRoot {
		return cp.snapshot.RootPtr
	}
	return cp.connectionPoint.GetChildPointer(cp.childIndex)
}

// Commit runs the connection-point commit protocol inside a transaction-
// only guard, retrying per the engine's configured policy before giving up
// and reporting that the whole attempt must be retaken under the fallback
// lock. It is idempotent: calling it again after a successful commit is a
// no-op.
func (cp *ConnPoint[T]) Commit() error {
	if cp.committed {
		return nil
	}
	if !cp.treeWasModified {
		cp.committed = true
		return nil
	}

	policy := cp.retryPolicy()
	guard := txguard.NewTransOnlyGuard(cp.engine.lock, cp.engine.backend, policy)
	out := guard.Run(func() txguard.AbortCode {
		return cp.attemptCommit(false)
	})
	cp.engine.statsCounters.Record(out, false)

	switch {
	case out.Committed:
		cp.committed = true
		return nil
	case out.Reason == txguard.ReasonValidationFailed:
		cp.rollback()
		return errValidationFailed
	default: // ReasonRetriesExhausted or anything else
		if l := cp.engine.cfg.Logger; l != nil {
			l.Notice().Int("max_retries", cp.engine.cfg.MaxRetries).
				Log("safetree: retries exhausted, retaking attempt under fallback lock")
		}
		cp.rollback()
		return errRetriesExhausted
	}
}

func (cp *ConnPoint[T]) retryPolicy() txguard.RetryPolicy {
	if cp.engine.cfg.RetryPolicy == txguard.Half {
		return txguard.HalfPolicy(cp.engine.cfg.MaxRetries)
	}
	return txguard.StubbornPolicy(cp.engine.cfg.MaxRetries)
}

// fallbackCommit publishes this attempt's changes for a caller that
// already holds the engine's fallback lock for the whole attempt
// (navigation, body, and commit). It runs attemptCommit exactly once,
// skipping the lock-held self-check that exists to protect non-lock-
// holding attempts from racing the lock holder, but still inside the
// backend so the commit body stays atomic against late speculative
// committers that passed their own lock check before this caller acquired
// the lock.
func (cp *ConnPoint[T]) fallbackCommit() error {
	if cp.committed {
		return nil
	}
	if !cp.treeWasModified {
		cp.committed = true
		return nil
	}
	out := cp.engine.backend.Run(func() txguard.AbortCode {
		return cp.attemptCommit(true)
	})
	out.Fallback = true
	cp.engine.statsCounters.Record(out, true)

	if out.Committed {
		cp.committed = true
		return nil
	}
	if l := cp.engine.cfg.Logger; l != nil {
		l.Warning().Log("safetree: attempt failed validation even while holding the fallback lock")
	}
	cp.rollback()
	return errValidationFailed
}

// attemptCommit performs exactly one pass of the commit protocol and
// returns the AbortCode to hand back to the guard/backend. locked is true
// only when the caller already holds the engine's fallback lock for this
// whole attempt (via fallbackCommit), in which case the lock-held self-
// check is skipped: there is nothing left to race against.
func (cp *ConnPoint[T]) attemptCommit(locked bool) txguard.AbortCode {
	if cp.validationAborted {
		return txguard.ValidationFailed
	}

	// Step 1 is folded into the guard loop (validationAborted above).

	// Step 2: pointer-slot check.
	if cp.atRoot {
		if *cp.snapshot.RootPtr != cp.connPointer {
			return txguard.ValidationFailed
		}
	} else {
		if cp.connectionPoint.GetChild(cp.childIndex) != cp.connPointer {
			return txguard.ValidationFailed
		}
	}

	// Step 3: reachability check, against the connection point as rotated
	// by any PopPath calls (the remaining path frames lead exactly to it).
	if !cp.atRoot {
		if !cp.engine.reachability(cp.snapshot.RootPtr, cp.connectionPoint, cp.snapshot.Path) {
			return txguard.ValidationFailed
		}
	}

	// Step 4: snapshot check, for every original-tree node in the
	// validation set.
	for _, s := range cp.validationSet {
		if s.nodeType != OrigTreeNode || isNil(s.original) {
			continue
		}
		for i, want := range s.childrenSnapshot {
			if s.original.GetChild(i) != want {
				return txguard.ValidationFailed
			}
		}
	}

	if !locked && cp.engine.lock.IsLocked() {
		return txguard.GLTaken
	}

	// Step 6: single-pointer publication. This repeats the compare the
	// step 2 check just performed instead of using a plain store. Under
	// txguard.SoftwareBackend commit bodies are serialized, so the compare
	// cannot fail here; under a Backend whose bodies are not mutually
	// excluded, two attempts could both pass step 2 against the same
	// ConnPointerSnapshot value, and a plain store would let the second one
	// silently clobber the first. The CAS makes the publish itself the
	// arbiter: only the attempt whose compare still holds at store time
	// wins, and the loser aborts instead of overwriting a commit it never
	// observed.
	var headVal T
	if cp.headWrapper != nil {
		headVal = cp.headWrapper.NodeToBeConnected()
	}
	if !casPointerSlot(cp.GetConnPointer(), cp.connPointer, headVal) {
		return txguard.ValidationFailed
	}
	cp.copyConnected = true
	return txguard.Success
}

// rollback discards every node allocated during this attempt: the arena
// watermark is rewound to the pre-attempt checkpoint and the whole
// validation set is marked deleted.
func (cp *ConnPoint[T]) rollback() {
	cp.nodeArena.RollbackToCheckpoint()
	for _, s := range cp.validationSet {
		s.deleted = true
	}
}

// Release returns this ConnPoint's wrapper pool and node arena to the
// engine's registries. Callers must invoke Commit (or rely on Run to do
// so) before Release.
func (cp *ConnPoint[T]) Release() {
	cp.engine.wrapperArenas.Release(cp.wrapperPool)
	cp.engine.releaseNodeArena(cp.nodeArena)
}

// Succeeded reports whether this attempt ultimately published its changes.
func (cp *ConnPoint[T]) Succeeded() bool {
	return cp.committed && cp.copyConnected
}
