package stack

import "github.com/BazookaMusic/safetree/safetree"

// Stack is a concurrent, linearizable LIFO stack.
type Stack[V any] struct {
	top    *Item[V]
	engine *safetree.Engine[*Item[V]]
}

// New builds an empty Stack.
func New[V any](opts ...safetree.Option) *Stack[V] {
	s := &Stack[V]{}
	pool := newArenaPool[V](safetree.ResolveConfig(opts...).UserNodeArenaCapacity)
	s.engine = safetree.NewGeneralTreeEngine[*Item[V]](&s.top, pool, opts...)
	return s
}

func rootConnect[T interface {
	comparable
	safetree.Node[T]
}](e *safetree.Engine[T]) *safetree.ConnPointSnapshot[T] {
	return e.NewPathTracker().ConnectHere()
}

// Push adds val to the top of the stack.
func (s *Stack[V]) Push(val V) error {
	_, err := safetree.Run(s.engine, rootConnect[*Item[V]], func(cp *safetree.ConnPoint[*Item[V]]) (struct{}, error) {
		top := cp.GetRoot()
		fresh := cp.CreateSafe(&Item[V]{value: val})
		cp.SetRoot(fresh)
		fresh.SetChild(0, top)
		return struct{}{}, nil
	})
	return err
}

// Pop removes and returns the item on top of the stack. It reports false
// if the stack is empty.
func (s *Stack[V]) Pop() (V, bool) {
	val, err := safetree.Run(s.engine, rootConnect[*Item[V]], func(cp *safetree.ConnPoint[*Item[V]]) (V, error) {
		var zero V
		top := cp.GetRoot()
		original := top.PeekOriginal()
		if original == nil {
			return zero, safetree.ErrNotFound
		}
		cp.SetRoot(top.GetChild(0))
		return original.value, nil
	})
	if err != nil {
		var zero V
		return zero, false
	}
	return val, true
}

// Peek returns the item on top of the stack without removing it. It is a
// plain read, not linearized against concurrent writers.
func (s *Stack[V]) Peek() (V, bool) {
	top := s.engine.Root()
	if top == nil {
		var zero V
		return zero, false
	}
	return top.value, true
}

// Stats returns a point-in-time snapshot of the engine's commit/abort
// counters.
func (s *Stack[V]) Stats() safetree.Stats {
	return safetree.StatsOf(s.engine)
}
