package scope_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/bizunit/internal/scope"
)

func TestPushPopPeek(t *testing.T) {
	s := scope.NewStack()

	_, ok := s.Peek()
	assert.False(t, ok)
	assert.ErrorIs(t, s.Pop(), scope.ErrEmptyStack)

	first := s.Push()
	second := s.Push()
	assert.Equal(t, 2, s.Depth())

	top, ok := s.Peek()
	require.True(t, ok)
	second.Declare("x")
	assert.True(t, top.Has("x"))

	require.NoError(t, s.Pop())
	top, ok = s.Peek()
	require.True(t, ok)
	first.Declare("y")
	assert.True(t, top.Has("y"))
	assert.False(t, top.Has("x"))
}

func TestResolveInnermostFirst(t *testing.T) {
	mem := scope.NewFrame()
	mem["x"] = "outer"

	s := scope.NewStack()
	f := s.Push()
	f["x"] = "inner"

	found, ok := s.Resolve("x", mem)
	require.True(t, ok)
	v, _ := found.Lookup("x")
	assert.Equal(t, "inner", v)

	require.NoError(t, s.Pop())
	found, ok = s.Resolve("x", mem)
	require.True(t, ok)
	v, _ = found.Lookup("x")
	assert.Equal(t, "outer", v)
}

func TestDeclareTargetsInnermost(t *testing.T) {
	mem := scope.NewFrame()
	s := scope.NewStack()

	s.Declare("a", mem)
	assert.True(t, mem.Has("a"))

	s.Push()
	s.Declare("b", mem)
	assert.False(t, mem.Has("b"))

	_, ok := s.Resolve("b", mem)
	assert.True(t, ok)

	require.NoError(t, s.Pop())
	_, ok = s.Resolve("b", mem)
	assert.False(t, ok)
}

func TestUndefinedLookup(t *testing.T) {
	f := scope.NewFrame()
	f.Declare("x")

	v, ok := f.Lookup("x")
	assert.True(t, ok)
	assert.Nil(t, v)

	_, ok = f.Lookup("y")
	assert.False(t, ok)
	assert.Equal(t, map[string]any{"x": nil}, f.Snapshot())
}

func TestStackSnapshot(t *testing.T) {
	s := scope.NewStack()
	f := s.Push()
	f["i"] = int64(1)

	snap := s.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, int64(1), snap[0]["i"])
}
