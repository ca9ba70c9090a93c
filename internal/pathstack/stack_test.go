package pathstack

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStackPushPopOrder(t *testing.T) {
	require := require.New(t)
	s := New[int](0)
	require.True(s.Empty())

	require.NoError(s.Push(Frame[int]{Node: 1, ChildIndex: 0}))
	require.NoError(s.Push(Frame[int]{Node: 2, ChildIndex: 1}))
	require.Equal(2, s.Len())

	top, ok := s.Top()
	require.True(ok)
	require.Equal(2, top.Node)

	f, ok := s.Pop()
	require.True(ok)
	require.Equal(2, f.Node)

	f, ok = s.Pop()
	require.True(ok)
	require.Equal(1, f.Node)

	_, ok = s.Pop()
	require.False(ok)
	require.True(s.Empty())
}

func TestStackOverflow(t *testing.T) {
	require := require.New(t)
	s := New[int](2)
	require.NoError(s.Push(Frame[int]{Node: 1}))
	require.NoError(s.Push(Frame[int]{Node: 2}))
	err := s.Push(Frame[int]{Node: 3})
	require.Error(err)
	var overflow *ErrOverflow
	require.ErrorAs(err, &overflow)
	require.Equal(2, overflow.MaxLen)
}

func TestStackBottomAndAt(t *testing.T) {
	require := require.New(t)
	s := New[string](0)
	require.NoError(s.Push(Frame[string]{Node: "root"}))
	require.NoError(s.Push(Frame[string]{Node: "mid"}))
	require.NoError(s.Push(Frame[string]{Node: "leaf"}))

	bottom, ok := s.Bottom()
	require.True(ok)
	require.Equal("root", bottom.Node)
	require.Equal("mid", s.At(1).Node)
}

func TestStackMoveTo(t *testing.T) {
	require := require.New(t)
	src := New[int](0)
	require.NoError(src.Push(Frame[int]{Node: 1}))
	require.NoError(src.Push(Frame[int]{Node: 2}))

	dst := New[int](0)
	src.MoveTo(dst)

	require.True(src.Empty())
	require.Equal(2, dst.Len())
	top, _ := dst.Top()
	require.Equal(2, top.Node)
}

func TestStackClone(t *testing.T) {
	require := require.New(t)
	src := New[int](0)
	require.NoError(src.Push(Frame[int]{Node: 1}))

	clone := src.Clone()
	require.NoError(src.Push(Frame[int]{Node: 2}))

	require.Equal(1, clone.Len())
	require.Equal(2, src.Len())
}
