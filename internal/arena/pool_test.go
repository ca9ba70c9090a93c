package arena

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPoolCreateAndReset(t *testing.T) {
	require := require.New(t)
	p := NewPool[int](4)

	for i := 0; i < 4; i++ {
		v, err := p.Create()
		require.NoError(err)
		require.NotNil(v)
	}
	require.Equal(4, p.Watermark())

	_, err := p.Create()
	require.Error(err)
	var oom *ErrOutOfMemory
	require.ErrorAs(err, &oom)
	require.Equal(4, oom.Capacity)

	p.Reset()
	require.Equal(0, p.Watermark())
	v, err := p.Create()
	require.NoError(err)
	require.NotNil(v)
}

func TestCheckpointPoolRollback(t *testing.T) {
	require := require.New(t)
	p := NewCheckpointPool[int](8)

	require.NotNil(p.Create())
	p.SetCheckpoint()

	for i := 0; i < 3; i++ {
		require.NotNil(p.Create())
	}
	require.Equal(4, p.Watermark())

	p.RollbackToCheckpoint()
	require.Equal(1, p.Watermark())

	// Rolled-back slots come back zeroed.
	v := p.Create()
	require.Equal(0, *v)
}

func TestCheckpointPoolGrowsAcrossChunksWithoutMovingValues(t *testing.T) {
	require := require.New(t)
	p := NewCheckpointPool[int](2)

	var ptrs []*int
	for i := 0; i < 7; i++ {
		v := p.Create()
		*v = i
		ptrs = append(ptrs, v)
	}
	require.Equal(7, p.Watermark())

	// Growth must never have moved an earlier value.
	for i, v := range ptrs {
		require.Equal(i, *v)
	}
}

func TestRegistryAcquireRelease(t *testing.T) {
	require := require.New(t)
	reg := NewRegistry[int](16)

	p1 := reg.Acquire()
	require.Equal(16, p1.Cap())
	_, err := p1.Create()
	require.NoError(err)
	require.Equal(1, p1.Watermark())

	reg.Release(p1)
	require.Equal(0, p1.Watermark())
}

func TestCheckpointRegistryReleaseKeepsCommittedNodes(t *testing.T) {
	require := require.New(t)
	reg := NewCheckpointRegistry[int](16)

	p1 := reg.Acquire()
	committed := p1.Create()
	*committed = 42
	p1.SetCheckpoint()
	require.NotNil(p1.Create())
	p1.RollbackToCheckpoint()

	// Release must not rewind past nodes a committed attempt published:
	// the watermark survives the round trip through the registry.
	reg.Release(p1)
	require.Equal(1, p1.Watermark())
	require.Equal(42, *committed)
}
