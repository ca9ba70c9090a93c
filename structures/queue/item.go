// Package queue implements a non-blocking, linearizable FIFO queue on top
// of safetree's general-tree engine: the queue is a one-child chain, new
// items are linked in at the tail (the connection point found by walking
// to the last item) and dequeue replaces the head, the same root-
// connection-point operation as a stack pop.
package queue

import (
	"github.com/BazookaMusic/safetree/safetree"
	"github.com/BazookaMusic/safetree/internal/arena"
)

// Item is one queue element: a value and a pointer to the item enqueued
// after it.
type Item[V any] struct {
	value V
	next  *Item[V]
}

// Value returns the content this item holds.
func (it *Item[V]) Value() V { return it.value }

// Arity implements safetree.Node: a queue item has exactly one child
// slot, the item behind it.
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
