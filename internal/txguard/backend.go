package txguard

import "sync"

// Backend stands in for CPU-level hardware transactional memory primitives
// (tx_begin/tx_end/tx_abort/tx_test). body runs the caller's speculative
// region once and reports the outcome by returning an AbortCode: `none`
// signals "ran to completion, please commit", any other value signals an
// explicit abort with that code.
//
// Run always invokes body exactly once; it performs no retrying of its own,
// since retry policy lives in the Guard types, one layer up, rather than
// the raw transactional primitive.
type Backend interface {
	Run(body func() AbortCode) Outcome
}

// SoftwareBackend is the portable, non-hardware emulation of Backend used
// by default. A real HTM transaction makes the whole speculative region
// (the ConnPoint commit protocol's pointer-slot, reachability, and
// snapshot checks, followed by the single-pointer publish) take effect
// atomically.
// Go cannot do that speculatively, so SoftwareBackend substitutes mutual
// exclusion: all bodies run through one backend serialize on an internal
// mutex, which makes each validate-then-publish sequence atomic with
// respect to every other committer on the same Engine. Readers never touch
// the mutex; only commit bodies do, and those are short (a handful of
// pointer comparisons plus one store).
//
// A hardware-backed implementation (e.g. wrapping Intel TSX via cgo) can
// satisfy the same interface with genuine speculation and no mutex,
// without any caller changing.
type SoftwareBackend struct {
	mu sync.Mutex
}

// NewSoftwareBackend builds a SoftwareBackend with its own commit mutex.
// Distinct Engines get distinct backends, so unrelated structures never
// serialize against each other.
func NewSoftwareBackend() *SoftwareBackend {
	return &SoftwareBackend{}
}

// Run executes body under the commit mutex and classifies the result.
func (b *SoftwareBackend) Run(body func() AbortCode) Outcome {
	b.mu.Lock()
	code := body()
	b.mu.Unlock()
	if code == none {
		return Outcome{Committed: true, Reason: ReasonNone}
	}
	return Outcome{Committed: false, Reason: classify(code), Code: code}
}

// classify maps an explicit AbortCode to a Reason. SoftwareBackend has no
// hardware read/write-set, so it can never itself surface ReasonConflict or
// ReasonCapacity; those reasons are reserved for a hardware Backend that can
// detect them independently of what the body reports.
func classify(code AbortCode) Reason {
	switch {
	case code == GLTaken:
		return ReasonLockTaken
	case code == ValidationFailed:
		return ReasonValidationFailed
	case code > UserOptionLowerBound && code < ValidationFailed:
		return ReasonExplicit
	default:
		return ReasonOther
	}
}

// Success is the AbortCode a transactional body returns to signal it should
// commit (ran to completion, no abort requested).
const Success = none
