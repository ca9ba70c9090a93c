package safetree

import (
	"github.com/BazookaMusic/safetree/internal/arena"
	"github.com/BazookaMusic/safetree/internal/pathstack"
	"github.com/BazookaMusic/safetree/internal/txguard"
)

// NodeArenaPool vends and reclaims per-attempt NodeArena values. A concrete
// map package implements this over its own arena.CheckpointRegistry[U] (U
// being its private node struct, with T == *U by convention), letting the
// engine stay generic over T without ever allocating a U itself.
type NodeArenaPool[T any] interface {
	Acquire() NodeArena[T]
	Release(NodeArena[T])
}

// reachabilityFunc re-derives, at commit time, whether connPoint (the
// attempt's current connection point, after any PopPath rotation) is still
// attached to the live tree under *rootPtr. path holds the remaining
// recorded frames, which lead from the root exactly to connPoint. It is
// supplied by NewGeneralTreeEngine or NewSearchTreeEngine, and only ever
// consulted when the attempt is not publishing at the root (the root is
// trivially reachable from itself).
type reachabilityFunc[T comparable] func(rootPtr *T, connPoint T, path *pathstack.Stack[T]) bool

// Engine is the shared machinery one concrete map's operations drive: the
// fallback lock, the transactional backend, the per-goroutine arenas, and
// the reachability check appropriate to the map's structure.
type Engine[T interface {
	comparable
	Node[T]
}] struct {
	cfg Config

	lock    *txguard.GlobalLock
	backend txguard.Backend

	wrapperArenas *arena.Registry[SafeNode[T]]
	nodeArenas    NodeArenaPool[T]

	rootPtr *T

	reachability reachabilityFunc[T]

	statsCounters txguard.Counters
}

// NewGeneralTreeEngine builds an Engine whose commit protocol reachability
// check replays the recorded path link-by-link from the root, suitable for
// any Node[T] regardless of whether it supports key-directed navigation.
func NewGeneralTreeEngine[T interface {
	comparable
	Node[T]
}](rootPtr *T, nodeArenas NodeArenaPool[T], opts ...Option) *Engine[T] {
	e := newEngine[T](rootPtr, nodeArenas, GeneralTree, opts...)
	e.reachability = generalTreeReachability[T]
	return e
}

// NewSearchTreeEngine builds an Engine whose commit protocol reachability
// check re-navigates directly towards the connection point using the node's
// own key-comparison logic, skipping the full path replay. T must know how
// to navigate towards an already-known target node (NextChildTowards).
func NewSearchTreeEngine[T interface {
	comparable
	Node[T]
	NextChildTowards(target T) int
}](rootPtr *T, nodeArenas NodeArenaPool[T], opts ...Option) *Engine[T] {
	e := newEngine[T](rootPtr, nodeArenas, SearchTree, opts...)
	e.reachability = searchTreeReachability[T]
	return e
}

func newEngine[T interface {
	comparable
	Node[T]
}](rootPtr *T, nodeArenas NodeArenaPool[T], treeType TreeType, opts ...Option) *Engine[T] {
	cfg := ResolveConfig(opts...)
	cfg.TreeType = treeType
	return &Engine[T]{
		cfg:           cfg,
		lock:          &txguard.GlobalLock{},
		backend:       txguard.NewSoftwareBackend(),
		wrapperArenas: arena.NewRegistry[SafeNode[T]](cfg.WrapperArenaCapacity),
		nodeArenas:    nodeArenas,
		rootPtr:       rootPtr,
	}
}

// generalTreeReachability replays the remaining path frames from the root,
// confirming each recorded hop's child slot still points at the next
// recorded node, and that the final hop lands on connPoint.
func generalTreeReachability[T interface {
	comparable
	Node[T]
}](rootPtr *T, connPoint T, path *pathstack.Stack[T]) bool {
	cur := *rootPtr
	n := path.Len()
	for i := 0; i < n; i++ {
		frame := path.At(i)
		if isNil(cur) || cur != frame.Node {
			return false
		}
		cur = cur.GetChild(frame.ChildIndex)
	}
	return cur == connPoint
}

// searchTreeReachability re-navigates from the root towards connPoint using
// NextChildTowards, stopping as soon as it finds (or fails to find) that
// exact node. The recorded path is not needed: the node's own key ordering
// pins where it can live.
func searchTreeReachability[T interface {
	comparable
	Node[T]
	NextChildTowards(target T) int
}](rootPtr *T, connPoint T, _ *pathstack.Stack[T]) bool {
	cur := *rootPtr
	for {
		if isNil(cur) {
			return false
		}
		if cur == connPoint {
			return true
		}
		cur = cur.GetChild(cur.NextChildTowards(connPoint))
	}
}

// NewConnPoint starts a fresh operation attempt against the current root,
// tracked from scratch (equivalent to PathTracker.ConnectHere called
// immediately at the root). Map-layer code typically instead walks a
// PathTracker itself and calls ConnectHere at the point it wants to modify,
// then passes that snapshot to ConnPointAt; this constructor
// covers the common case of an operation that starts by replacing the root.
func (e *Engine[T]) NewConnPoint() *ConnPoint[T] {
	pt := NewPathTracker[T](e.rootPtr, e.cfg.PathMaxLen)
	return newConnPoint[T](e, pt.ConnectHere())
}

// ConnPointAt builds a ConnPoint from an already-produced snapshot (the
// normal entry point for map operations that navigated with their own
// PathTracker).
func (e *Engine[T]) ConnPointAt(snap *ConnPointSnapshot[T]) *ConnPoint[T] {
	return newConnPoint[T](e, snap)
}

// NewPathTracker returns a tracker positioned at the engine's current root,
// for map operations to walk before deciding where to connect.
func (e *Engine[T]) NewPathTracker() *PathTracker[T] {
	return NewPathTracker[T](e.rootPtr, e.cfg.PathMaxLen)
}

// Root returns the value currently stored at the engine's root pointer
// (an atomic read, so it is always safe against a concurrent publish).
// Callers that merely want to read (not modify) the tree can use this
// directly instead of opening a ConnPoint.
func (e *Engine[T]) Root() T {
	return loadPointerSlot(e.rootPtr)
}

// Config returns the engine's effective configuration.
func (e *Engine[T]) Config() Config {
	return e.cfg
}

// Stats returns a point-in-time snapshot of the guard counters recorded
// across every commit attempt this engine has driven.
func (e *Engine[T]) Stats() txguard.Snapshot {
	return e.statsCounters.Snapshot()
}

func (e *Engine[T]) newNodeArena() NodeArena[T] {
	return e.nodeArenas.Acquire()
}

func (e *Engine[T]) releaseNodeArena(na NodeArena[T]) {
	e.nodeArenas.Release(na)
}
