package bst

import "github.com/BazookaMusic/safetree/safetree"

// Map is a concurrent, ordered integer-keyed map backed by a non-blocking
// binary search tree.
type Map[V any] struct {
	root   *Node[V]
	engine *safetree.Engine[*Node[V]]
}

// New builds an empty Map. opts configure the underlying engine (retry
// policy, arena sizing, and so on); see safetree.Option.
func New[V any](opts ...safetree.Option) *Map[V] {
	m := &Map[V]{}
	pool := newArenaPool[V](safetree.ResolveConfig(opts...).UserNodeArenaCapacity)
	m.engine = safetree.NewSearchTreeEngine[*Node[V]](&m.root, pool, opts...)
	return m
}

func (m *Map[V]) connectAt(k int) func(*safetree.Engine[*Node[V]]) *safetree.ConnPointSnapshot[*Node[V]] {
	return func(e *safetree.Engine[*Node[V]]) *safetree.ConnPointSnapshot[*Node[V]] {
		return safetree.FindConnPoint[*Node[V], int](e, k)
	}
}

// Insert adds key/val, reporting false and safetree.ErrAlreadyPresent if
// key is already present.
func (m *Map[V]) Insert(key int, val V) (bool, error) {
	return safetree.Run(m.engine, m.connectAt(key), func(cp *safetree.ConnPoint[*Node[V]]) (bool, error) {
		existing := cp.GetRoot()
		if existing.PeekOriginal() != nil {
			return false, safetree.ErrAlreadyPresent
		}
		fresh := cp.CreateSafe(&Node[V]{key: key, value: val})
		cp.SetRoot(fresh)
		return true, nil
	})
}

// Remove deletes key, reporting false and safetree.ErrNotFound if it is
// absent.
func (m *Map[V]) Remove(key int) (bool, error) {
	return safetree.Run(m.engine, m.connectAt(key), func(cp *safetree.ConnPoint[*Node[V]]) (bool, error) {
		toDelete := cp.GetRoot()
		if toDelete.PeekOriginal() == nil {
			return false, safetree.ErrNotFound
		}

		left := toDelete.PeekChild(0)
		right := toDelete.PeekChild(1)

		switch {
		case left == nil && right == nil:
			cp.SetRoot(nil)
		case right == nil:
			cp.SetRoot(toDelete.GetChild(0))
		case left == nil:
			cp.SetRoot(toDelete.GetChild(1))
		default:
			// Successor is the leftmost node of the right subtree; copy
			// its key/value up, then splice it out of the right subtree.
			var path []*safetree.SafeNode[*Node[V]]
			cur := toDelete.GetChild(1)
			for cur.PeekChild(0) != nil {
				path = append(path, cur)
				cur = cur.GetChild(0)
			}
			successor := cur.PeekOriginal()
			promoted := toDelete.RWRef()
			promoted.key = successor.key
			promoted.value = successor.value

			replacement := cp.WrapNoValidate(cur.PeekChild(1))
			if len(path) == 0 {
				toDelete.SetChild(1, replacement)
			} else {
				// Every node on the descent was copied; link each copy into
				// its parent's copy so the splice is part of what is published.
				path[len(path)-1].SetChild(0, replacement)
				for i := len(path) - 1; i > 0; i-- {
					path[i-1].SetChild(0, path[i])
				}
				toDelete.SetChild(1, path[0])
			}
		}
		return true, nil
	})
}

// Lookup returns the value stored for key and true, or the zero value and
// false if key is absent. It never opens a ConnPoint: it walks the live
// tree directly with safetree.Find.
func (m *Map[V]) Lookup(key int) (V, bool) {
	node, ok := safetree.Find[*Node[V], int](m.engine.Root(), key)
	if !ok {
		var zero V
		return zero, false
	}
	return node.value, true
}

// Size counts the nodes presently in the tree. It is a plain read, not
// linearized against concurrent writers.
func (m *Map[V]) Size() int {
	return countNodes(m.engine.Root())
}

func countNodes[V any](n *Node[V]) int {
	if n == nil {
		return 0
	}
	return 1 + countNodes(n.children[0]) + countNodes(n.children[1])
}

// KeySum adds up every key in the tree, used by tests and benchmarks as a
// cheap structural invariant check across concurrent mutation.
func (m *Map[V]) KeySum() int {
	return keySum(m.engine.Root())
}

func keySum[V any](n *Node[V]) int {
	if n == nil {
		return 0
	}
	return n.key + keySum(n.children[0]) + keySum(n.children[1])
}

// IsSorted reports whether the tree presently satisfies the binary search
// tree ordering invariant.
func (m *Map[V]) IsSorted() bool {
	return isSorted(m.engine.Root(), minInt, maxInt)
}

const (
	minInt = -int(^uint(0)>>1) - 1
	maxInt = int(^uint(0) >> 1)
)

func isSorted[V any](n *Node[V], lo, hi int) bool {
	if n == nil {
		return true
	}
	if n.key < lo || n.key > hi {
		return false
	}
	return isSorted(n.children[0], lo, n.key) && isSorted(n.children[1], n.key, hi)
}

// Stats returns a point-in-time snapshot of the engine's commit/abort
// counters.
func (m *Map[V]) Stats() safetree.Stats {
	return safetree.StatsOf(m.engine)
}
