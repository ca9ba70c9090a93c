// Package bst implements an integer-keyed binary search tree map on top of
// safetree: inserts, removals, and lookups are lock-free in the common
// case, falling back to the map's own fallback lock (one per engine) only
// when retries are exhausted under heavy contention.
package bst

import (
	"github.com/BazookaMusic/safetree/safetree"
	"github.com/BazookaMusic/safetree/internal/arena"
)

// Node is one binary search tree node: a key, a value, and two children.
// It is never accessed directly by a Map caller; all navigation goes
// through the safetree engine.
type Node[V any] struct {
	key      int
	value    V
	children [2]*Node[V]
}

// Arity implements safetree.Node.
func (n *Node[V]) Arity() int { return 2 }

// GetChild implements safetree.Node.
func (n *Node[V]) GetChild(i int) *Node[V] { return n.children[i] }

// SetChild implements safetree.Node.
func (n *Node[V]) SetChild(i int, child *Node[V]) { n.children[i] = child }

// GetChildPointer implements safetree.Node.
func (n *Node[V]) GetChildPointer(i int) **Node[V] { return &n.children[i] }

// HasKey implements safetree.KeyedNode.
func (n *Node[V]) HasKey(k int) bool { return n.key == k }

// TraversalDone implements safetree.KeyedNode: a BST search stops exactly
// when it finds the key, same as HasKey.
func (n *Node[V]) TraversalDone(k int) bool { return n.key == k }

// NextChild implements safetree.KeyedNode.
func (n *Node[V]) NextChild(k int) int {
	if k < n.key {
		return 0
	}
	return 1
}

// NextChildTowards implements safetree.KeyedNode.
func (n *Node[V]) NextChildTowards(target *Node[V]) int {
	if target.key < n.key {
		return 0
	}
	return 1
}

// arenaShim adapts one arena.CheckpointPool[Node[V]] to safetree.NodeArena.
type arenaShim[V any] struct {
	pool *arena.CheckpointPool[Node[V]]
}

func (a *arenaShim[V]) Clone(original *Node[V]) *Node[V] {
	fresh := a.pool.Create()
	fresh.key = original.key
	fresh.value = original.value
	return fresh
}

func (a *arenaShim[V]) SetCheckpoint()        { a.pool.SetCheckpoint() }
func (a *arenaShim[V]) RollbackToCheckpoint() { a.pool.RollbackToCheckpoint() }

// arenaPool adapts an arena.CheckpointRegistry[Node[V]] to
// safetree.NodeArenaPool.
type arenaPool[V any] struct {
	registry *arena.CheckpointRegistry[Node[V]]
}

func newArenaPool[V any](capacity int) *arenaPool[V] {
	return &arenaPool[V]{registry: arena.NewCheckpointRegistry[Node[V]](capacity)}
}

func (p *arenaPool[V]) Acquire() safetree.NodeArena[*Node[V]] {
	return &arenaShim[V]{pool: p.registry.Acquire()}
}

func (p *arenaPool[V]) Release(na safetree.NodeArena[*Node[V]]) {
	p.registry.Release(na.(*arenaShim[V]).pool)
}
