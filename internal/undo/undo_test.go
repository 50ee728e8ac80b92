package undo

import (
	"testing"

	"github.com/govim/vimcore/internal/cursor"
	"github.com/stretchr/testify/require"
)

func base(lines ...string) State {
	return State{Lines: lines, Cursor: cursor.Position{}}
}

func TestUndoRestoresBaseWithNoPriorPush(t *testing.T) {
	m := NewManager(10, base("a"))
	m.Push(base("a", "b"))
	state, ok := m.Undo()
	require.True(t, ok)
	require.Equal(t, []string{"a"}, state.Lines)
}

func TestUndoRedoRoundTrip(t *testing.T) {
	m := NewManager(10, base("a"))
	m.Push(base("a", "b"))
	m.Push(base("a", "b", "c"))

	state, ok := m.Undo()
	require.True(t, ok)
	require.Equal(t, []string{"a", "b"}, state.Lines)

	state, ok = m.Undo()
	require.True(t, ok)
	require.Equal(t, []string{"a"}, state.Lines)

	_, ok = m.Undo()
	require.False(t, ok)

	state, ok = m.Redo()
	require.True(t, ok)
	require.Equal(t, []string{"a", "b"}, state.Lines)

	state, ok = m.Redo()
	require.True(t, ok)
	require.Equal(t, []string{"a", "b", "c"}, state.Lines)

	_, ok = m.Redo()
	require.False(t, ok)
}

func TestPushAfterUndoDiscardsRedoBranch(t *testing.T) {
	m := NewManager(10, base("a"))
	m.Push(base("a", "b"))
	m.Push(base("a", "b", "c"))
	m.Undo()
	m.Push(base("a", "b", "x"))

	require.False(t, m.CanRedo())
	state, ok := m.Undo()
	require.True(t, ok)
	require.Equal(t, []string{"a", "b"}, state.Lines)
}

func TestCapacityEviction(t *testing.T) {
	m := NewManager(2, base("0"))
	m.Push(base("1"))
	m.Push(base("2"))
	m.Push(base("3"))

	// base state has been pushed forward; only the last 2 states remain.
	state, ok := m.Undo()
	require.True(t, ok)
	require.Equal(t, []string{"2"}, state.Lines)

	state, ok = m.Undo()
	require.True(t, ok)
	require.Equal(t, []string{"1"}, state.Lines)

	require.False(t, m.CanUndo())
}

func TestClearResetsHistory(t *testing.T) {
	m := NewManager(10, base("a"))
	m.Push(base("a", "b"))
	m.Clear(base("fresh"))

	require.False(t, m.CanUndo())
	require.False(t, m.CanRedo())
}
