package avl

import "github.com/BazookaMusic/safetree/safetree"

// Map is a concurrent, ordered integer-keyed map backed by a non-blocking
// AVL tree: every Insert/Remove restores the height-balance invariant
// before it commits, by rotating the tree-of-copies on the way back up to
// the root.
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

type safeNode[V any] = safetree.SafeNode[*Node[V]]

// rightRotate promotes z's left child above it, matching the classic
// single right rotation; it recomputes both nodes' cached heights
// afterwards.
func rightRotate[V any](z *safeNode[V]) *safeNode[V] {
	newRoot := z.GetChild(0)
	shifted := newRoot.GetChild(1)
	newRoot.SetChild(1, z)
	z.SetChild(0, shifted)

	zv := z.RWRef()
	zv.height = maxHeight(zv.children[0], zv.children[1]) + 1
	nrv := newRoot.RWRef()
	nrv.height = maxHeight(nrv.children[0], nrv.children[1]) + 1
	return newRoot
}

// leftRotate is rightRotate's mirror image.
func leftRotate[V any](z *safeNode[V]) *safeNode[V] {
	newRoot := z.GetChild(1)
	shifted := newRoot.GetChild(0)
	newRoot.SetChild(0, z)
	z.SetChild(1, shifted)

	zv := z.RWRef()
	zv.height = maxHeight(zv.children[0], zv.children[1]) + 1
	nrv := newRoot.RWRef()
	nrv.height = maxHeight(nrv.children[0], nrv.children[1]) + 1
	return newRoot
}

// rebalanceIns restores the balance invariant at n after a key k was
// inserted somewhere beneath it, using k to pick which of the two
// double-rotation cases applies. It reports whether a rotation happened;
// callers combine that with a before/after height comparison to decide
// whether to stop climbing early.
func rebalanceIns[V any](n *safeNode[V], k int) (*safeNode[V], bool) {
	nv := n.RWRef()
	nv.height = maxHeight(nv.children[0], nv.children[1]) + 1
	balance := nodeBalance(nv)
	rotated := true

	switch {
	case balance > 1 && k < nv.children[0].key:
		n = rightRotate(n)
	case balance < -1 && k > nv.children[1].key:
		n = leftRotate(n)
	case balance > 1 && k > nv.children[0].key:
		n.SetChild(0, leftRotate(n.GetChild(0)))
		nv.height = maxHeight(nv.children[0], nv.children[1]) + 1
		n = rightRotate(n)
	case balance < -1 && k < nv.children[1].key:
		n.SetChild(1, rightRotate(n.GetChild(1)))
		nv.height = maxHeight(nv.children[0], nv.children[1]) + 1
		n = leftRotate(n)
	default:
		rotated = false
	}

	nv = n.RWRef()
	nv.height = maxHeight(nv.children[0], nv.children[1]) + 1
	return n, rotated
}

// rebalanceRem is rebalanceIns's removal-side counterpart: it has no key to
// steer by, so it picks the double-rotation cases off the unbalanced
// child's own balance factor instead.
func rebalanceRem[V any](n *safeNode[V]) (*safeNode[V], bool) {
	nv := n.RWRef()
	nv.height = maxHeight(nv.children[0], nv.children[1]) + 1
	balance := nodeBalance(nv)
	rotated := true

	switch {
	case balance > 1 && nodeBalance(nv.children[0]) >= 0:
		n = rightRotate(n)
	case balance < -1 && nodeBalance(nv.children[1]) <= 0:
		n = leftRotate(n)
	case balance > 1 && nodeBalance(nv.children[0]) < 0:
		n.SetChild(0, leftRotate(n.GetChild(0)))
		nv.height = maxHeight(nv.children[0], nv.children[1]) + 1
		n = rightRotate(n)
	case balance < -1 && nodeBalance(nv.children[1]) > 0:
		n.SetChild(1, rightRotate(n.GetChild(1)))
		nv.height = maxHeight(nv.children[0], nv.children[1]) + 1
		n = leftRotate(n)
	default:
		rotated = false
	}
	return n, rotated
}

// Insert adds key/val, reporting false and safetree.ErrAlreadyPresent if
// key is already present.
func (m *Map[V]) Insert(key int, val V) (bool, error) {
	return safetree.Run(m.engine, m.connectAt(key), func(cp *safetree.ConnPoint[*Node[V]]) (bool, error) {
		existing := cp.GetRoot()
		if existing.PeekOriginal() != nil {
			return false, safetree.ErrAlreadyPresent
		}
		fresh := cp.CreateSafe(&Node[V]{key: key, value: val, height: 1})
		cp.SetRoot(fresh)

		for n := cp.PopPath(); n != nil; n = cp.PopPath() {
			heightBefore := n.RWRef().height
			rebalanced, rotated := rebalanceIns(n, key)
			cp.SetRoot(rebalanced)
			if !rotated && rebalanced.RWRef().height == heightBefore {
				break
			}
		}
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

		var rebalanceFrom *safeNode[V]

		switch {
		case left == nil && right == nil:
			cp.SetRoot(nil)
		case right == nil:
			cp.SetRoot(toDelete.GetChild(0))
		case left == nil:
			cp.SetRoot(toDelete.GetChild(1))
		default:
			// Two children: splice in the in-order successor, tracked on a
			// stack separate from the engine's own connection path, since
			// the descent to it lies entirely below the connection point.
			var stack []*safeNode[V]
			cur := toDelete.GetChild(1)
			for cur.PeekChild(0) != nil {
				stack = append(stack, cur)
				cur = cur.GetChild(0)
			}
			successor := cur.RWRef()
			promoted := toDelete.RWRef()
			promoted.key = successor.key
			promoted.value = successor.value

			if len(stack) == 0 {
				replacement := cp.WrapNoValidate(successor.children[1])
				toDelete.SetChild(1, replacement)
			} else {
				parent := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				parent.SetChild(0, cp.WrapNoValidate(successor.children[1]))
				rebalanced, _ := rebalanceRem(parent)
				for len(stack) > 0 {
					top := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					top.SetChild(0, rebalanced)
					rebalanced, _ = rebalanceRem(top)
				}
				toDelete.SetChild(1, rebalanced)
			}
			rebalanceFrom = toDelete
		}

		if rebalanceFrom != nil {
			rebalanced, _ := rebalanceRem(rebalanceFrom)
			cp.SetRoot(rebalanced)
		}

		for n := cp.PopPath(); n != nil; n = cp.PopPath() {
			heightBefore := n.RWRef().height
			rebalanced, rotated := rebalanceRem(n)
			cp.SetRoot(rebalanced)
			if !rotated && rebalanced.RWRef().height == heightBefore {
				break
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

// IsBalanced reports whether every node's left/right subtree heights
// presently differ by at most one, the AVL invariant.
func (m *Map[V]) IsBalanced() bool {
	_, ok := checkBalance(m.engine.Root())
	return ok
}

func checkBalance[V any](n *Node[V]) (int, bool) {
	if n == nil {
		return 0, true
	}
	lh, lok := checkBalance(n.children[0])
	rh, rok := checkBalance(n.children[1])
	if !lok || !rok {
		return 0, false
	}
	diff := lh - rh
	if diff < -1 || diff > 1 {
		return 0, false
	}
	h := lh
	if rh > h {
		h = rh
	}
	return h + 1, true
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
