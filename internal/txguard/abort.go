// Package txguard implements the global fallback lock and the transactional
// guard variants (Guard / GuardWithStats / TransOnlyGuard) that sit
// between safetree's ConnPoint commit logic and the underlying transactional
// Backend.
//
// Real Hardware Transactional Memory opcodes (tx_begin/tx_end/tx_abort/
// tx_test) are not reachable from portable Go, so they are abstracted behind
// Backend. The package ships SoftwareBackend, which substitutes mutual
// exclusion of commit bodies for hardware speculation, as the default; a
// hardware backend (e.g. backed by cgo bindings to Intel TSX) can be
// substituted without changing any caller.
package txguard

import "fmt"

// AbortCode is the explicit abort code a transactional body can signal with.
// Two values are reserved by the framework; user codes must lie strictly
// between UserOptionLowerBound and ValidationFailed.
type AbortCode uint8

const (
	// GLTaken is the reserved abort code a body raises when it observes the
	// global fallback lock held. It must never be used by client code.
	GLTaken AbortCode = 0x00
	// ValidationFailed is the reserved abort code used by ConnPoint.Commit
	// when a snapshot, pointer-slot, or reachability check fails.
	ValidationFailed AbortCode = 0xEE
	// UserOptionLowerBound is the lowest value a user-selectable abort code
	// may take; codes must satisfy UserOptionLowerBound < code < ValidationFailed.
	UserOptionLowerBound AbortCode = 0x01
	// none indicates "no explicit abort": the body simply returned without
	// requesting an abort.
	none AbortCode = 0xFF
)

// Reason classifies why a transactional attempt did not commit.
type Reason int

const (
	// ReasonNone indicates the attempt committed.
	ReasonNone Reason = iota
	// ReasonConflict indicates a data conflict was detected.
	ReasonConflict
	// ReasonCapacity indicates the attempt overflowed backend resources
	// (e.g. a hardware read/write-set capacity abort).
	ReasonCapacity
	// ReasonExplicit indicates the body itself requested an abort via a
	// non-reserved user code.
	ReasonExplicit
	// ReasonLockTaken indicates the body observed (or the backend detected)
	// that the global fallback lock was held.
	ReasonLockTaken
	// ReasonValidationFailed indicates the body raised ValidationFailed.
	ReasonValidationFailed
	// ReasonOther covers any other abort condition a Backend may surface.
	ReasonOther
	// ReasonRetriesExhausted indicates a TransOnlyGuard ran out of retry
	// budget without committing and without taking the fallback lock
	// itself; the caller must retake the attempt under fallback.
	ReasonRetriesExhausted
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonConflict:
		return "conflict"
	case ReasonCapacity:
		return "capacity"
	case ReasonExplicit:
		return "explicit"
	case ReasonLockTaken:
		return "lock-taken"
	case ReasonValidationFailed:
		return "validation-failed"
	case ReasonRetriesExhausted:
		return "retries-exhausted"
	default:
		return "other"
	}
}

// Outcome is the result of one Backend.Run call.
type Outcome struct {
	Committed bool
	Reason    Reason
	Code      AbortCode
	// Fallback is true when the body ran non-speculatively under the
	// GlobalLock (set by a Guard's final attempt, and by safetree's
	// fallback commit path).
	Fallback bool
}

func (o Outcome) String() string {
	if o.Committed {
		return "committed"
	}
	return fmt.Sprintf("aborted(%s, code=0x%02x)", o.Reason, o.Code)
}
