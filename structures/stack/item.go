// Package stack implements a non-blocking, linearizable LIFO stack on top
// of safetree's general-tree engine: a stack is just a one-child tree
// where every node's single child is "the rest of the stack", and
// push/pop are root-connection-point operations.
package stack

import (
	"github.com/BazookaMusic/safetree/safetree"
	"github.com/BazookaMusic/safetree/internal/arena"
)

// Item is one stack element: a value and a pointer to the item beneath
// it.
type Item[V any] struct {
	value V
	next  *Item[V]
}

// Value returns the content this item holds.
func (it *Item[V]) Value() V { return it.value }

// Arity implements safetree.Node: a stack item has exactly one child slot,
// the rest of the stack.
func (it *Item[V]) Arity() int { return 1 }

// GetChild implements safetree.Node.
func (it *Item[V]) GetChild(i int) *Item[V] { return it.next }

// SetChild implements safetree.Node.
func (it *Item[V]) SetChild(i int, child *Item[V]) { it.next = child }

// GetChildPointer implements safetree.Node.
func (it *Item[V]) GetChildPointer(i int) **Item[V] { return &it.next }

type arenaShim[V any] struct {
	pool *arena.CheckpointPool[Item[V]]
}

func (a *arenaShim[V]) Clone(original *Item[V]) *Item[V] {
	fresh := a.pool.Create()
	fresh.value = original.value
	return fresh
}

func (a *arenaShim[V]) SetCheckpoint()        { a.pool.SetCheckpoint() }
func (a *arenaShim[V]) RollbackToCheckpoint() { a.pool.RollbackToCheckpoint() }

type arenaPool[V any] struct {
	registry *arena.CheckpointRegistry[Item[V]]
}

func newArenaPool[V any](capacity int) *arenaPool[V] {
	return &arenaPool[V]{registry: arena.NewCheckpointRegistry[Item[V]](capacity)}
}

func (p *arenaPool[V]) Acquire() safetree.NodeArena[*Item[V]] {
	return &arenaShim[V]{pool: p.registry.Acquire()}
}

func (p *arenaPool[V]) Release(na safetree.NodeArena[*Item[V]]) {
	p.registry.Release(na.(*arenaShim[V]).pool)
}
