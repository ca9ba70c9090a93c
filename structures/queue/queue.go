package queue

import "github.com/BazookaMusic/safetree/safetree"

// Queue is a concurrent, linearizable FIFO queue.
type Queue[V any] struct {
	head   *Item[V]
	engine *safetree.Engine[*Item[V]]
}

// New builds an empty Queue.
func New[V any](opts ...safetree.Option) *Queue[V] {
	q := &Queue[V]{}
	pool := newArenaPool[V](safetree.ResolveConfig(opts...).UserNodeArenaCapacity)
	q.engine = safetree.NewGeneralTreeEngine[*Item[V]](&q.head, pool, opts...)
	return q
}

func headConnect[V any](e *safetree.Engine[*Item[V]]) *safetree.ConnPointSnapshot[*Item[V]] {
	return e.NewPathTracker().ConnectHere()
}

// tailConnect walks to the last item in the chain and returns a snapshot
// connected there, the insertion point for Enqueue. A queue deeper than the
// engine's path bound is a sizing bug: it panics with the path stack's
// overflow error (not wrapped in a safetree.FatalError).
func tailConnect[V any](e *safetree.Engine[*Item[V]]) *safetree.ConnPointSnapshot[*Item[V]] {
	pt := e.NewPathTracker()
	for pt.Current() != nil {
		if err := pt.MoveToChild(0, pt.Current()); err != nil {
			panic(err)
		}
	}
	return pt.ConnectHere()
}

// Enqueue appends val at the tail of the queue.
func (q *Queue[V]) Enqueue(val V) error {
	_, err := safetree.Run(q.engine, tailConnect[V], func(cp *safetree.ConnPoint[*Item[V]]) (struct{}, error) {
		tail := cp.GetRoot()
		fresh := cp.CreateSafe(&Item[V]{value: val})
		cp.SetRoot(fresh)
		fresh.SetChild(0, tail)
		return struct{}{}, nil
	})
	return err
}

// Dequeue removes and returns the item at the head of the queue. It
// reports false if the queue is empty.
func (q *Queue[V]) Dequeue() (V, bool) {
	val, err := safetree.Run(q.engine, headConnect[V], func(cp *safetree.ConnPoint[*Item[V]]) (V, error) {
		var zero V
		head := cp.GetRoot()
		original := head.PeekOriginal()
		if original == nil {
			return zero, safetree.ErrNotFound
		}
		cp.SetRoot(head.GetChild(0))
		return original.value, nil
	})
	if err != nil {
		var zero V
		return zero, false
	}
	return val, true
}

// Peek returns the item at the head of the queue without removing it. It
// is a plain read, not linearized against concurrent writers.
func (q *Queue[V]) Peek() (V, bool) {
	head := q.engine.Root()
	if head == nil {
		var zero V
		return zero, false
	}
	return head.value, true
}

// Stats returns a point-in-time snapshot of the engine's commit/abort
// counters.
func (q *Queue[V]) Stats() safetree.Stats {
	return safetree.StatsOf(q.engine)
}
