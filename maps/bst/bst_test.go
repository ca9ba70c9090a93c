package bst

import (
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/BazookaMusic/safetree/safetree"
	"github.com/stretchr/testify/require"
)

func TestInsertLookupRemove(t *testing.T) {
	m := New[string]()

	ok, err := m.Insert(5, "five")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = m.Insert(5, "also-five")
	require.ErrorIs(t, err, safetree.ErrAlreadyPresent)
	require.False(t, ok)

	val, found := m.Lookup(5)
	require.True(t, found)
	require.Equal(t, "five", val)

	_, found = m.Lookup(6)
	require.False(t, found)

	ok, err = m.Remove(5)
	require.NoError(t, err)
	require.True(t, ok)

	_, found = m.Lookup(5)
	require.False(t, found)

	ok, err = m.Remove(5)
	require.ErrorIs(t, err, safetree.ErrNotFound)
	require.False(t, ok)
}

func TestInsertManyStaysSortedAndKeySumMatches(t *testing.T) {
	m := New[int]()
	keys := rand.New(rand.NewSource(1)).Perm(200)

	want := 0
	for _, k := range keys {
		ok, err := m.Insert(k, k*10)
		require.NoError(t, err)
		require.True(t, ok)
		want += k
	}

	require.True(t, m.IsSorted())
	require.Equal(t, want, m.KeySum())
	require.Equal(t, len(keys), m.Size())

	for _, k := range keys {
		v, found := m.Lookup(k)
		require.True(t, found)
		require.Equal(t, k*10, v)
	}
}

func TestRemoveNodeWithBothChildren(t *testing.T) {
	m := New[int]()
	for _, k := range []int{50, 25, 75, 10, 30, 60, 90, 27} {
		_, err := m.Insert(k, k)
		require.NoError(t, err)
	}

	ok, err := m.Remove(50)
	require.NoError(t, err)
	require.True(t, ok)

	require.True(t, m.IsSorted())
	_, found := m.Lookup(50)
	require.False(t, found)
	for _, k := range []int{25, 75, 10, 30, 60, 90, 27} {
		_, found := m.Lookup(k)
		require.True(t, found)
	}
}

func TestConcurrentInsertsPreserveInvariants(t *testing.T) {
	m := New[int]()
	const perWorker = 100
	const workers = 8

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				k := base*perWorker + i
				_, err := m.Insert(k, k)
				require.NoError(t, err)
			}
		}(w)
	}
	wg.Wait()

	require.True(t, m.IsSorted())
	require.Equal(t, workers*perWorker, m.Size())

	want := 0
	for i := 0; i < workers*perWorker; i++ {
		want += i
	}
	require.Equal(t, want, m.KeySum())
}

// TestMixedWorkloadConservesKeySum seeds the map, then hammers it with a
// concurrent insert/remove/lookup mix and checks the conservation law: the
// final key sum must equal the seeded sum plus every successful insert
// minus every successful remove, with the tree still sorted.
func TestMixedWorkloadConservesKeySum(t *testing.T) {
	m := New[int]()
	const keyRange = 2000
	const seedKeys = 500

	seedRand := rand.New(rand.NewSource(5))
	startSum := 0
	seeded := make(map[int]struct{}, seedKeys)
	for len(seeded) < seedKeys {
		k := seedRand.Intn(keyRange)
		if _, dup := seeded[k]; dup {
			continue
		}
		seeded[k] = struct{}{}
		ok, err := m.Insert(k, k)
		require.NoError(t, err)
		require.True(t, ok)
		startSum += k
	}

	const workers = 8
	const opsPerWorker = 2000
	var insertedSum, removedSum int64
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			r := rand.New(rand.NewSource(seed))
			for i := 0; i < opsPerWorker; i++ {
				k := r.Intn(keyRange)
				switch roll := r.Intn(100); {
				case roll < 33:
					if ok, _ := m.Insert(k, k); ok {
						atomic.AddInt64(&insertedSum, int64(k))
					}
				case roll < 66:
					if ok, _ := m.Remove(k); ok {
						atomic.AddInt64(&removedSum, int64(k))
					}
				default:
					m.Lookup(k)
				}
			}
		}(int64(100 + w))
	}
	wg.Wait()

	want := startSum + int(atomic.LoadInt64(&insertedSum)) - int(atomic.LoadInt64(&removedSum))
	require.Equal(t, want, m.KeySum())
	require.True(t, m.IsSorted())
}

// TestConcurrentInsertsOfSameKeyExactlyOneWins races N goroutines all
// inserting the identical key. Exactly one Insert must observe the key
// absent and return true; every other racer must observe it already
// present and return false, leaving exactly one copy of the key behind.
func TestConcurrentInsertsOfSameKeyExactlyOneWins(t *testing.T) {
	m := New[int]()
	const workers = 16
	const key = 500

	var wg sync.WaitGroup
	var successes int32
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := m.Insert(key, key)
			if ok {
				atomic.AddInt32(&successes, 1)
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, safetree.ErrAlreadyPresent)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), successes)
	require.Equal(t, 1, m.Size())
	require.Equal(t, key, m.KeySum())

	v, found := m.Lookup(key)
	require.True(t, found)
	require.Equal(t, key, v)
}
