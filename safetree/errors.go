package safetree

import "fmt"

// Sentinel errors returned to map-layer callers for conditions that are not
// fatal and are not purely internal control flow.
var (
	// ErrNotFound is returned by a Remove/Lookup-style operation when the
	// requested key is absent.
	ErrNotFound = fmt.Errorf("safetree: key not found")
	// ErrAlreadyPresent is returned by an Insert-style operation when the
	// key is already present and the map does not overwrite.
	ErrAlreadyPresent = fmt.Errorf("safetree: key already present")
)

// errValidationFailed is the internal sentinel ConnPoint.Commit returns,
// unwrapped, when one of the commit-time checks fails. The Operation
// envelope (Run) recognizes it by identity and restarts the whole attempt;
// it is never returned to a map-layer caller.
var errValidationFailed = fmt.Errorf("safetree: validation failed")

// errRetriesExhausted is the internal sentinel signalling that a
// TransOnlyGuard ran out of retries without committing; the Operation
// envelope recognizes it and retakes the attempt under the fallback lock.
var errRetriesExhausted = fmt.Errorf("safetree: retries exhausted")

// FatalError marks conditions that indicate a bug, or a structure sized too
// small for its workload (path/arena overflow). The engine panics with a
// FatalError rather than returning it, as a typed panic value so a caller
// can still recover() at a goroutine boundary if it wants to degrade a
// single request instead of crashing the process.
type FatalError struct {
	Op  string
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("safetree: fatal: %s: %v", e.Op, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// panicFatal raises a FatalError panic for the named operation.
func panicFatal(op string, err error) {
	panic(&FatalError{Op: op, Err: err})
}
