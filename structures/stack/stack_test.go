package stack

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPushPopOrderIsLIFO(t *testing.T) {
	s := New[int]()

	_, ok := s.Pop()
	require.False(t, ok)

	require.NoError(t, s.Push(1))
	require.NoError(t, s.Push(2))
	require.NoError(t, s.Push(3))

	v, ok := s.Peek()
	require.True(t, ok)
	require.Equal(t, 3, v)

	for _, want := range []int{3, 2, 1} {
		got, ok := s.Pop()
		require.True(t, ok)
		require.Equal(t, want, got)
	}

	_, ok = s.Pop()
	require.False(t, ok)
}

func TestConcurrentPushPreservesCount(t *testing.T) {
	s := New[int]()
	const perWorker = 200
	const workers = 8

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				require.NoError(t, s.Push(base*perWorker+i))
			}
		}(w)
	}
	wg.Wait()

	count := 0
	sum := 0
	for {
		v, ok := s.Pop()
		if !ok {
			break
		}
		count++
		sum += v
	}

	require.Equal(t, workers*perWorker, count)

	want := 0
	for i := 0; i < workers*perWorker; i++ {
		want += i
	}
	require.Equal(t, want, sum)
}
