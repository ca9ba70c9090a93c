package txguard

// Guard executes a body via a Backend, retrying per a RetryPolicy, and on
// exhaustion falls back to running the body non-speculatively while
// holding the GlobalLock.
//
// body is handed a `locked bool` telling it whether the GlobalLock is
// currently held by this very Guard (true only during the final,
// non-speculative fallback attempt) so it can skip its own "is the lock
// held" self-check in that case: there is nothing to race against once the
// caller itself holds the lock.
type Guard struct {
	Lock    *GlobalLock
	Backend Backend
	Policy  RetryPolicy
}

// NewGuard builds a Guard over the given lock, backend, and retry policy.
func NewGuard(lock *GlobalLock, backend Backend, policy RetryPolicy) *Guard {
	return &Guard{Lock: lock, Backend: backend, Policy: policy}
}

// Run executes body, retrying speculatively per g.Policy, then, if the
// budget is exhausted without a commit, acquires g.Lock and runs body one
// final time non-speculatively, returning that outcome. ValidationFailed is
// never retried: it is returned immediately so the caller can restart the
// whole operation (a different connection point, a fresh snapshot) rather
// than hammering the same doomed attempt.
func (g *Guard) Run(body func(locked bool) AbortCode) Outcome {
	b := newBudget(g.Policy)
	for !b.exhausted() {
		out := g.Backend.Run(func() AbortCode { return body(false) })
		switch out.Reason {
		case ReasonNone:
			return out
		case ReasonValidationFailed:
			return out
		case ReasonLockTaken:
			g.Lock.WaitUntilReleased()
			// Retrying on a lock-taken abort does not consume budget: the
			// lock holder is making progress on someone else's attempt, not
			// contending with ours.
			continue
		default:
			b.onConflict()
		}
	}

	g.Lock.Lock()
	defer g.Lock.Unlock()
	code := body(true)
	if code == none {
		return Outcome{Committed: true, Reason: ReasonNone, Fallback: true}
	}
	return Outcome{Committed: false, Reason: classify(code), Code: code, Fallback: true}
}

// TransOnlyGuard executes a body via a Backend but never takes the
// fallback lock itself. On retry-budget exhaustion it reports
// ReasonRetriesExhausted so the caller (ConnPoint's commit, via the
// Operation envelope) can decide to retake the whole attempt under
// fallback.
type TransOnlyGuard struct {
	Lock    *GlobalLock
	Backend Backend
	Policy  RetryPolicy
}

// NewTransOnlyGuard builds a TransOnlyGuard.
func NewTransOnlyGuard(lock *GlobalLock, backend Backend, policy RetryPolicy) *TransOnlyGuard {
	return &TransOnlyGuard{Lock: lock, Backend: backend, Policy: policy}
}

// Run executes body, retrying per g.Policy. It returns as soon as body
// commits or raises ValidationFailed; on budget exhaustion it returns
// ReasonRetriesExhausted without ever touching g.Lock beyond reading it.
func (g *TransOnlyGuard) Run(body func() AbortCode) Outcome {
	b := newBudget(g.Policy)
	for !b.exhausted() {
		out := g.Backend.Run(body)
		switch out.Reason {
		case ReasonNone, ReasonValidationFailed:
			return out
		case ReasonLockTaken:
			g.Lock.WaitUntilReleased()
			continue
		default:
			b.onConflict()
		}
	}
	return Outcome{Committed: false, Reason: ReasonRetriesExhausted}
}
