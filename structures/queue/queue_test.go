package queue

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnqueueDequeueOrderIsFIFO(t *testing.T) {
	q := New[int]()

	_, ok := q.Dequeue()
	require.False(t, ok)

	require.NoError(t, q.Enqueue(1))
	require.NoError(t, q.Enqueue(2))
	require.NoError(t, q.Enqueue(3))

	v, ok := q.Peek()
	require.True(t, ok)
	require.Equal(t, 1, v)

	for _, want := range []int{1, 2, 3} {
		got, ok := q.Dequeue()
		require.True(t, ok)
		require.Equal(t, want, got)
	}

	_, ok = q.Dequeue()
	require.False(t, ok)
}

func TestConcurrentEnqueuePreservesCountAndSum(t *testing.T) {
	q := New[int]()
	const perWorker = 200
	const workers = 8

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				require.NoError(t, q.Enqueue(base*perWorker+i))
			}
		}(w)
	}
	wg.Wait()

	count := 0
	sum := 0
	for {
		v, ok := q.Dequeue()
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
