// Package avl implements a self-balancing (AVL) integer-keyed map on top of
// safetree. Every rotation is expressed purely in terms of SafeNode reads
// and writes, so the balancing logic reads exactly like a textbook serial
// AVL implementation even though it runs lock-free under concurrent
// writers.
package avl

import (
	"github.com/BazookaMusic/safetree/safetree"
	"github.com/BazookaMusic/safetree/internal/arena"
)

// Node is one AVL tree node: a key, a value, two children, and a cached
// subtree height.
type Node[V any] struct {
	key      int
	value    V
	children [2]*Node[V]
	height   int
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

// TraversalDone implements safetree.KeyedNode.
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

func height[V any](n *Node[V]) int {
	if n == nil {
		return 0
	}
	return n.height
}

func maxHeight[V any](l, r *Node[V]) int {
	lh, rh := height(l), height(r)
	if lh > rh {
		return lh
	}
	return rh
}

// nodeBalance is left subtree height minus right subtree height.
func nodeBalance[V any](n *Node[V]) int {
	if n == nil {
		return 0
	}
	return height(n.children[0]) - height(n.children[1])
}

type arenaShim[V any] struct {
	pool *arena.CheckpointPool[Node[V]]
}

func (a *arenaShim[V]) Clone(original *Node[V]) *Node[V] {
	fresh := a.pool.Create()
	fresh.key = original.key
	fresh.value = original.value
	fresh.height = original.height
	return fresh
}

func (a *arenaShim[V]) SetCheckpoint()        { a.pool.SetCheckpoint() }
func (a *arenaShim[V]) RollbackToCheckpoint() { a.pool.RollbackToCheckpoint() }

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
