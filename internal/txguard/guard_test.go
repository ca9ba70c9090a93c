package txguard

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGuardCommitsOnSuccess(t *testing.T) {
	require := require.New(t)
	g := NewGuard(&GlobalLock{}, NewSoftwareBackend(), StubbornPolicy(5))

	calls := 0
	out := g.Run(func(locked bool) AbortCode {
		calls++
		require.False(locked)
		return Success
	})
	require.True(out.Committed)
	require.Equal(1, calls)
}

func TestGuardFallsBackAfterExhaustion(t *testing.T) {
	require := require.New(t)
	lock := &GlobalLock{}
	g := NewGuard(lock, NewSoftwareBackend(), StubbornPolicy(3))

	attempt := 0
	out := g.Run(func(locked bool) AbortCode {
		attempt++
		if attempt <= 3 {
			return AbortCode(0x10) // user conflict-style abort
		}
		require.True(locked)
		return Success
	})
	require.True(out.Committed)
	require.Equal(4, attempt)
	require.False(lock.IsLocked())
}

func TestGuardValidationFailedIsNotRetried(t *testing.T) {
	require := require.New(t)
	g := NewGuard(&GlobalLock{}, NewSoftwareBackend(), StubbornPolicy(5))

	calls := 0
	out := g.Run(func(locked bool) AbortCode {
		calls++
		return ValidationFailed
	})
	require.False(out.Committed)
	require.Equal(ReasonValidationFailed, out.Reason)
	require.Equal(1, calls)
}

func TestTransOnlyGuardReportsExhaustionWithoutLocking(t *testing.T) {
	require := require.New(t)
	lock := &GlobalLock{}
	g := NewTransOnlyGuard(lock, NewSoftwareBackend(), StubbornPolicy(2))

	calls := 0
	out := g.Run(func() AbortCode {
		calls++
		return AbortCode(0x10)
	})
	require.False(out.Committed)
	require.Equal(ReasonRetriesExhausted, out.Reason)
	require.Equal(2, calls)
	require.False(lock.IsLocked())
}

func TestHalfPolicyConvergesFaster(t *testing.T) {
	require := require.New(t)
	g := NewGuard(&GlobalLock{}, NewSoftwareBackend(), HalfPolicy(8))

	calls := 0
	out := g.Run(func(locked bool) AbortCode {
		calls++
		if !locked {
			return AbortCode(0x10)
		}
		return Success
	})
	require.True(out.Committed)
	// 8 -> 4 -> 2 -> 1 -> 0: four speculative attempts before fallback.
	require.Equal(5, calls)
}

func TestGuardWithStatsRecordsOutcomes(t *testing.T) {
	require := require.New(t)
	g := NewGuardWithStats(NewGuard(&GlobalLock{}, NewSoftwareBackend(), StubbornPolicy(2)), nil)

	out := g.Run(func(locked bool) AbortCode { return Success })
	require.True(out.Committed)
	snap := g.Counters.Snapshot()
	require.Equal(int64(1), snap.Commits)

	out = g.Run(func(locked bool) AbortCode { return ValidationFailed })
	require.False(out.Committed)
	snap = g.Counters.Snapshot()
	require.Equal(int64(1), snap.ValidationFailed)
}
