package txguard

import (
	"runtime"
	"sync/atomic"
)

// GlobalLock is the fallback spin lock; each Engine has its own.
// It is a plain test-and-test-and-set spin lock built on atomic.CompareAndSwapInt32,
// in the idiom of github.com/joeycumines/go-utilpkg/catrate's Limiter.running
// flag, rather than sync.Mutex: callers need a non-blocking IsLocked() to
// decide whether to abort a speculative region, which sync.Mutex does not
// expose.
type GlobalLock struct {
	state int32 // 0 = unlocked, 1 = locked
}

const (
	unlocked int32 = 0
	locked   int32 = 1
)

// IsLocked reports whether the lock is currently held, without acquiring it.
// Transactional bodies call this just before they would otherwise commit, to
// decide whether to self-abort with GLTaken.
func (l *GlobalLock) IsLocked() bool {
	return atomic.LoadInt32(&l.state) == locked
}

// TryLock attempts to acquire the lock without blocking.
func (l *GlobalLock) TryLock() bool {
	return atomic.CompareAndSwapInt32(&l.state, unlocked, locked)
}

// Lock blocks (spinning, yielding the processor between attempts) until the
// lock is acquired.
func (l *GlobalLock) Lock() {
	for !l.TryLock() {
		runtime.Gosched()
	}
}

// Unlock releases the lock. It is a programming error to call Unlock without
// holding the lock.
func (l *GlobalLock) Unlock() {
	atomic.StoreInt32(&l.state, unlocked)
}

// WaitUntilReleased busy-waits (yielding the processor) until the lock is
// observed unlocked. It does not itself acquire the lock: callers that
// observed ReasonLockTaken use this before retrying their own attempt, per
// the "(ii) on observing GL_TAKEN ... busy-wait until the lock is released"
// guard contract.
func (l *GlobalLock) WaitUntilReleased() {
	for l.IsLocked() {
		runtime.Gosched()
	}
}
