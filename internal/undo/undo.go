// Package undo implements the undo/redo stack the engine pushes buffer
// snapshots onto after every content-mutating command. The stack shape (a
// slice plus an index, rather than two separate stacks) is ported from the
// teacher's CommandHistory; unlike the teacher, entries here are plain
// buffer snapshots rather than Command objects, since the buffer and
// dispatcher are separate packages here, so there is no Command.Undo to
// call back into.
package undo

import "github.com/govim/vimcore/internal/cursor"

// DefaultCapacity bounds how many undo states are retained; the oldest
// entry is discarded once the stack would exceed it, matching Vim's
// bounded (not infinite) undo history.
const DefaultCapacity = 1000

// State is one point in undo history: the buffer content it should be
// restored to and the cursor position to restore alongside it.
type State struct {
	Lines  []string
	Cursor cursor.Position
}

// Manager is a bounded undo/redo stack of post-edit States, plus the base
// (pre-edit) state the buffer started in.
//
// index follows the teacher's CommandHistory.undoIndex convention: -1
// means "at the base state" (nothing to undo yet), and index N means
// states[N] is the most recently applied state. Push truncates any redo
// states beyond index, exactly like a new edit after an undo in Vim
// discards the old redo branch.
type Manager struct {
	capacity int
	base     State
	states   []State
	index    int
}

// NewManager constructs a Manager with capacity entries retained (use
// DefaultCapacity unless a caller needs a smaller bound for tests). base is
// the state Undo restores to when there are no recorded states left.
func NewManager(capacity int, base State) *Manager {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Manager{capacity: capacity, base: base, index: -1}
}

// Push records state as the new top of the undo stack (the buffer content
// immediately after a mutating command ran), discarding any redo history
// beyond the current position and the oldest entry if the stack is at
// capacity.
func (m *Manager) Push(state State) {
	m.states = append(m.states[:m.index+1], state)
	m.index = len(m.states) - 1
	if len(m.states) > m.capacity {
		overflow := len(m.states) - m.capacity
		m.base = m.states[overflow-1]
		m.states = m.states[overflow:]
		m.index -= overflow
	}
}

// Undo returns the state to restore to (the state immediately before the
// most recently applied edit) and true, or the zero State and false if
// there is nothing left to undo.
func (m *Manager) Undo() (State, bool) {
	if m.index < 0 {
		return State{}, false
	}
	prev := m.base
	if m.index > 0 {
		prev = m.states[m.index-1]
	}
	m.index--
	return prev, true
}

// Redo reapplies the most recently undone edit, returning its post-edit
// state and true, or the zero State and false if there is nothing left to
// redo.
func (m *Manager) Redo() (State, bool) {
	if m.index >= len(m.states)-1 {
		return State{}, false
	}
	m.index++
	return m.states[m.index], true
}

// CanUndo reports whether Undo would succeed.
func (m *Manager) CanUndo() bool { return m.index >= 0 }

// CanRedo reports whether Redo would succeed.
func (m *Manager) CanRedo() bool { return m.index < len(m.states)-1 }

// Clear discards all recorded states, resetting base to state — used when
// a file is reloaded from disk and its prior undo history no longer
// applies.
func (m *Manager) Clear(state State) {
	m.base = state
	m.states = nil
	m.index = -1
}
