package safetree

// Body is the unit of work a map operation submits to Run: given a fresh
// ConnPoint for one attempt, it performs its navigation and edits, then
// returns whatever result the caller ultimately wants back (e.g. "was the
// key already present", or the removed value) together with any map-level
// error (ErrNotFound, ErrAlreadyPresent, ...). Returning a non-nil error
// still lets the attempt commit: Body decides for itself whether what it
// found warrants a write.
type Body[T interface {
	comparable
	Node[T]
}, R any] func(cp *ConnPoint[T]) (R, error)

// Run drives one full operation: it opens a fresh ConnPoint, calls body,
// and commits. If the commit reports validation failure, the whole thing
// (body included) is retried from scratch against a brand new snapshot, up
// to MaxOperationRetries times, since a validation failure means the tree
// moved under the attempt and anything body observed may no longer hold.
// If commit instead reports that the transactional retry budget was
// exhausted, Run retakes the operation once more while holding the engine's
// fallback lock for the body itself, guaranteeing forward progress.
func Run[T interface {
	comparable
	Node[T]
}, R any](e *Engine[T], snapFn func(*Engine[T]) *ConnPointSnapshot[T], body Body[T, R]) (R, error) {
	var zero R
	for attempt := 0; attempt < MaxOperationRetries; attempt++ {
		cp := e.ConnPointAt(snapFn(e))
		result, bodyErr := body(cp)
		commitErr := cp.Commit()
		cp.Release()

		switch commitErr {
		case nil:
			return result, bodyErr
		case errValidationFailed:
			continue
		case errRetriesExhausted:
			return runUnderFallback(e, snapFn, body)
		default:
			return zero, commitErr
		}
	}
	// Validation failed MaxOperationRetries times in a row: contention is
	// pathological, so force the fallback lock for guaranteed progress.
	return runUnderFallback(e, snapFn, body)
}

// MaxOperationRetries bounds how many times Run restarts a whole operation
// (navigation and all) after a validation failure before giving up.
const MaxOperationRetries = 1000

// runUnderFallback retakes the operation with the engine's fallback lock
// held for each attempt's full duration (navigation, body, and commit).
// Holding the lock does not make an attempt unconditionally safe under the
// software backend: a speculative committer that passed its own lock-held
// check just before this caller acquired the lock can still land one last
// publish, failing this attempt's validation. That racer cannot recur,
// since every subsequent speculative commit observes the lock held and
// aborts, so retrying under the lock converges almost immediately.
func runUnderFallback[T interface {
	comparable
	Node[T]
}, R any](e *Engine[T], snapFn func(*Engine[T]) *ConnPointSnapshot[T], body Body[T, R]) (R, error) {
	var zero R
	e.lock.Lock()
	defer e.lock.Unlock()

	for attempt := 0; attempt < MaxOperationRetries; attempt++ {
		cp := e.ConnPointAt(snapFn(e))
		result, bodyErr := body(cp)
		commitErr := cp.fallbackCommit()
		cp.Release()
		if commitErr == nil {
			return result, bodyErr
		}
	}
	return zero, errRetriesExhausted
}
