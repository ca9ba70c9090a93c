package txguard

import "sync/atomic"

// Counters accumulates per-Guard abort/commit statistics, in the idiom of
// github.com/joeycumines/go-utilpkg/catrate's atomic-backed counters (a
// set of int64 fields updated with sync/atomic, rather than a
// mutex-guarded struct) since these are updated on every single attempt and
// must not themselves become a contention point.
type Counters struct {
	commits           int64
	conflictAborts    int64
	capacityAborts    int64
	explicitAborts    int64
	lockTakenAborts   int64
	otherAborts       int64
	validationFailed  int64
	retriesExhausted  int64
	fallbackCommits   int64
}

// Record updates the counters for one completed attempt. viaFallback
// indicates the commit happened during the final, lock-held, non-
// speculative attempt rather than a speculative one.
func (c *Counters) Record(out Outcome, viaFallback bool) {
	if out.Committed {
		atomic.AddInt64(&c.commits, 1)
		if viaFallback {
			atomic.AddInt64(&c.fallbackCommits, 1)
		}
		return
	}
	switch out.Reason {
	case ReasonConflict:
		atomic.AddInt64(&c.conflictAborts, 1)
	case ReasonCapacity:
		atomic.AddInt64(&c.capacityAborts, 1)
	case ReasonExplicit:
		atomic.AddInt64(&c.explicitAborts, 1)
	case ReasonLockTaken:
		atomic.AddInt64(&c.lockTakenAborts, 1)
	case ReasonValidationFailed:
		atomic.AddInt64(&c.validationFailed, 1)
	case ReasonRetriesExhausted:
		atomic.AddInt64(&c.retriesExhausted, 1)
	default:
		atomic.AddInt64(&c.otherAborts, 1)
	}
}

// Snapshot is a point-in-time copy of a Counters, safe to read without
// racing further updates.
type Snapshot struct {
	Commits          int64
	FallbackCommits  int64
	ConflictAborts   int64
	CapacityAborts   int64
	ExplicitAborts   int64
	LockTakenAborts  int64
	ValidationFailed int64
	RetriesExhausted int64
	OtherAborts      int64
}

// Snapshot reads all counters atomically (per-field; the set as a whole is
// not read under a single lock, which is acceptable for statistics that are
// consumed as an approximate, eventually-consistent view).
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		Commits:          atomic.LoadInt64(&c.commits),
		FallbackCommits:  atomic.LoadInt64(&c.fallbackCommits),
		ConflictAborts:   atomic.LoadInt64(&c.conflictAborts),
		CapacityAborts:   atomic.LoadInt64(&c.capacityAborts),
		ExplicitAborts:   atomic.LoadInt64(&c.explicitAborts),
		LockTakenAborts:  atomic.LoadInt64(&c.lockTakenAborts),
		ValidationFailed: atomic.LoadInt64(&c.validationFailed),
		RetriesExhausted: atomic.LoadInt64(&c.retriesExhausted),
		OtherAborts:      atomic.LoadInt64(&c.otherAborts),
	}
}

// GuardWithStats wraps a Guard, recording the final outcome of each Run
// call into Counters. Aborts of speculative attempts that the Guard
// retried internally are not counted.
type GuardWithStats struct {
	Guard    *Guard
	Counters *Counters
}

// NewGuardWithStats builds a GuardWithStats over the given Guard, allocating
// fresh Counters if none are supplied.
func NewGuardWithStats(g *Guard, counters *Counters) *GuardWithStats {
	if counters == nil {
		counters = &Counters{}
	}
	return &GuardWithStats{Guard: g, Counters: counters}
}

// Run delegates to the wrapped Guard and records the outcome.
func (g *GuardWithStats) Run(body func(locked bool) AbortCode) Outcome {
	out := g.Guard.Run(body)
	g.Counters.Record(out, out.Fallback)
	return out
}
