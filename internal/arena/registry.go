package arena

import "sync"

// Registry hands out per-goroutine Pool instances, affinitizing an arena to
// whichever goroutine currently holds it via sync.Pool, the same
// get-initialize-use-put pattern github.com/joeycumines/go-utilpkg/catrate
// uses for its per-category scratch buffers (categoryDataPool). Capacity is
// the slot count of each Pool it vends; nothing limits the number of live
// sync.Pool entries, so the number of goroutines holding a Pool at once is
// unbounded.
type Registry[T any] struct {
	capacity int
	pool     sync.Pool
}

// NewRegistry builds a Registry whose Pool instances each have room for
// capacity values of T.
func NewRegistry[T any](capacity int) *Registry[T] {
	r := &Registry[T]{capacity: capacity}
	r.pool.New = func() any { return NewPool[T](capacity) }
	return r
}

// Acquire checks out a Pool for the calling goroutine's exclusive use for the
// duration of one operation attempt.
func (r *Registry[T]) Acquire() *Pool[T] {
	return r.pool.Get().(*Pool[T])
}

// Release resets and returns a Pool to the registry for reuse by a later
// attempt (possibly on a different goroutine).
func (r *Registry[T]) Release(p *Pool[T]) {
	p.Reset()
	r.pool.Put(p)
}

// Capacity returns the per-Pool slot count every Pool vended by this
// Registry was constructed with.
func (r *Registry[T]) Capacity() int {
	return r.capacity
}

// CheckpointRegistry is Registry's counterpart for CheckpointPool, used for
// the user-node arena.
type CheckpointRegistry[T any] struct {
	capacity int
	pool     sync.Pool
}

// NewCheckpointRegistry builds a CheckpointRegistry whose pools grow in
// chunks of capacity values of T.
func NewCheckpointRegistry[T any](capacity int) *CheckpointRegistry[T] {
	r := &CheckpointRegistry[T]{capacity: capacity}
	r.pool.New = func() any { return NewCheckpointPool[T](capacity) }
	return r
}

// Acquire checks out a CheckpointPool for the calling goroutine's exclusive
// use for the duration of one operation attempt.
func (r *CheckpointRegistry[T]) Acquire() *CheckpointPool[T] {
	return r.pool.Get().(*CheckpointPool[T])
}

// Release returns a CheckpointPool to the registry with its watermark
// intact: unlike the wrapper Registry, committed user nodes are live-tree
// memory and must never be handed out again. Only each attempt's own
// rollback (via RollbackToCheckpoint, before Release) ever rewinds the
// watermark.
func (r *CheckpointRegistry[T]) Release(p *CheckpointPool[T]) {
	r.pool.Put(p)
}

// Capacity returns the chunk size every CheckpointPool vended by this
// Registry was constructed with.
func (r *CheckpointRegistry[T]) Capacity() int {
	return r.capacity
}
