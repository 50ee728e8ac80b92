package vimengine

import (
	"testing"

	"github.com/govim/vimcore/internal/clipboard"
	"github.com/govim/vimcore/internal/options"
	"github.com/stretchr/testify/require"
)

func newEngine(text string) *Engine {
	return NewEngine(text, clipboard.NewMemory(), options.Defaults())
}

func press(e *Engine, keys ...string) {
	for _, k := range keys {
		e.ProcessKey(k, false, false, false)
	}
}

func TestInsertModeRoundTrip(t *testing.T) {
	e := newEngine("hello")
	press(e, "i")
	require.Equal(t, Insert, e.Mode())
	press(e, "X")
	require.Equal(t, "Xhello", e.Buffer().GetLine(0))
	press(e, "Escape")
	require.Equal(t, Normal, e.Mode())
	require.Equal(t, 0, e.Cursor().Column)
}

func TestAppendEntersAfterCursor(t *testing.T) {
	e := newEngine("abc")
	press(e, "a")
	require.Equal(t, Insert, e.Mode())
	require.Equal(t, 1, e.Cursor().Column)
}

func TestAppendEndOfLine(t *testing.T) {
	e := newEngine("abc")
	press(e, "A")
	require.Equal(t, 3, e.Cursor().Column)
	press(e, "!")
	require.Equal(t, "abc!", e.Buffer().GetLine(0))
}

func TestOpenLineBelow(t *testing.T) {
	e := newEngine("one\ntwo")
	press(e, "o")
	require.Equal(t, Insert, e.Mode())
	require.Equal(t, 1, e.Cursor().Line)
	press(e, "x", "Escape")
	require.Equal(t, "x", e.Buffer().GetLine(1))
	require.Equal(t, "two", e.Buffer().GetLine(2))
}

func TestOpenLineAbove(t *testing.T) {
	e := newEngine("one\ntwo")
	e.cursor.Line = 1
	press(e, "O")
	require.Equal(t, 1, e.Cursor().Line)
	press(e, "y", "Escape")
	require.Equal(t, "y", e.Buffer().GetLine(1))
	require.Equal(t, "two", e.Buffer().GetLine(2))
}

func TestReplaceModeOverwrites(t *testing.T) {
	e := newEngine("hello")
	press(e, "R", "X", "Y")
	require.Equal(t, "XYllo", e.Buffer().GetLine(0))
	press(e, "Escape")
	require.Equal(t, Normal, e.Mode())
}

func TestDeleteCharX(t *testing.T) {
	e := newEngine("hello")
	press(e, "x")
	require.Equal(t, "ello", e.Buffer().GetLine(0))
}

func TestDeleteCharBackwardX(t *testing.T) {
	e := newEngine("hello")
	e.cursor.Column = 2
	press(e, "X")
	require.Equal(t, "hllo", e.Buffer().GetLine(0))
	require.Equal(t, 1, e.Cursor().Column)
}

func TestDeleteWordOperator(t *testing.T) {
	e := newEngine("foo bar baz")
	press(e, "d", "w")
	require.Equal(t, "bar baz", e.Buffer().GetLine(0))
}

func TestChangeWordEntersInsert(t *testing.T) {
	e := newEngine("foo bar")
	press(e, "c", "w")
	require.Equal(t, Insert, e.Mode())
	require.Equal(t, "bar", e.Buffer().GetLine(0))
	press(e, "X", "Escape")
	require.Equal(t, "Xbar", e.Buffer().GetLine(0))
}

func TestDoubleDOperatorDeletesLine(t *testing.T) {
	e := newEngine("one\ntwo\nthree")
	press(e, "d", "d")
	require.Equal(t, "two", e.Buffer().GetLine(0))
	require.Equal(t, "three", e.Buffer().GetLine(1))
}

func TestYankLineThenPasteBelow(t *testing.T) {
	e := newEngine("one\ntwo")
	press(e, "y", "y")
	press(e, "p")
	require.Equal(t, "one", e.Buffer().GetLine(0))
	require.Equal(t, "one", e.Buffer().GetLine(1))
	require.Equal(t, "two", e.Buffer().GetLine(2))
}

func TestCharwisePasteAfterCursor(t *testing.T) {
	e := newEngine("abc")
	press(e, "y", "l")
	e.cursor.Column = 0
	press(e, "p")
	require.Equal(t, "aabc", e.Buffer().GetLine(0))
}

func TestShiftOperatorIndents(t *testing.T) {
	e := newEngine("foo")
	press(e, ">", ">")
	require.Equal(t, "    foo", e.Buffer().GetLine(0))
}

func TestUndoRedoRoundTrip(t *testing.T) {
	e := newEngine("hello")
	press(e, "x")
	require.Equal(t, "ello", e.Buffer().GetLine(0))
	press(e, "u")
	require.Equal(t, "hello", e.Buffer().GetLine(0))
	press(e, "<C-r>")
	require.Equal(t, "ello", e.Buffer().GetLine(0))
}

func TestUndoCollapsesInsertSessionToOneUnit(t *testing.T) {
	e := newEngine("")
	press(e, "i", "a", "b", "c", "Escape")
	require.Equal(t, "abc", e.Buffer().GetLine(0))
	press(e, "u")
	require.Equal(t, "", e.Buffer().GetLine(0))
}

func TestDotRepeatsImmediateMutation(t *testing.T) {
	e := newEngine("hello")
	press(e, "x")
	press(e, ".")
	require.Equal(t, "llo", e.Buffer().GetLine(0))
}

func TestDotRepeatsInsertEnteringCommand(t *testing.T) {
	e := newEngine("hello world")
	press(e, "i", "X", "Escape")
	require.Equal(t, "Xhello world", e.Buffer().GetLine(0))
	press(e, "l", "l", ".")
	require.Equal(t, "XheXllo world", e.Buffer().GetLine(0))
}

func TestStickyPreferredColumnAcrossShortLine(t *testing.T) {
	e := newEngine("hello\nhi\nworld")
	press(e, "$")
	require.Equal(t, 4, e.Cursor().Column)
	press(e, "j")
	require.Equal(t, 1, e.Cursor().Column)
	press(e, "j")
	require.Equal(t, 4, e.Cursor().Column)
}

func TestMacroRecordAndReplay(t *testing.T) {
	e := newEngine("a\na\na")
	press(e, "q", "a")
	press(e, "x", "j")
	press(e, "q")
	press(e, "@", "a")
	require.Equal(t, "", e.Buffer().GetLine(0))
	require.Equal(t, "", e.Buffer().GetLine(1))
	require.Equal(t, "a", e.Buffer().GetLine(2))
}

func TestMarkSetAndJump(t *testing.T) {
	e := newEngine("one\ntwo\nthree")
	e.cursor.Line = 2
	press(e, "m", "a")
	e.cursor.Line = 0
	press(e, "`", "a")
	require.Equal(t, 2, e.Cursor().Line)
}

func TestMarkNotSetReportsStatus(t *testing.T) {
	e := newEngine("one")
	events := e.ProcessKey("`", false, false, false)
	events = append(events, e.ProcessKey("z", false, false, false)...)
	require.NotEmpty(t, events)
}

func TestVisualDeleteSelection(t *testing.T) {
	e := newEngine("hello world")
	press(e, "v", "l", "l", "l")
	press(e, "d")
	require.Equal(t, Normal, e.Mode())
	require.Equal(t, "o world", e.Buffer().GetLine(0))
}

func TestVisualLineYankAndPaste(t *testing.T) {
	e := newEngine("one\ntwo\nthree")
	press(e, "V", "j")
	press(e, "y")
	require.Equal(t, Normal, e.Mode())
	press(e, "p")
	require.Equal(t, "one", e.Buffer().GetLine(1))
	require.Equal(t, "two", e.Buffer().GetLine(2))
	require.Equal(t, "three", e.Buffer().GetLine(4))
}

func TestCommandModeSetsOption(t *testing.T) {
	e := newEngine("x")
	press(e, ":")
	require.Equal(t, Command, e.Mode())
	for _, r := range "set nowrap" {
		press(e, string(r))
	}
	press(e, "Return")
	require.Equal(t, Normal, e.Mode())
	require.False(t, e.Options().Wrap)
}

func TestSearchForwardMovesCursor(t *testing.T) {
	e := newEngine("one\ntwo\nneedle")
	press(e, "/")
	require.Equal(t, SearchForward, e.Mode())
	for _, r := range "needle" {
		press(e, string(r))
	}
	press(e, "Return")
	require.Equal(t, Normal, e.Mode())
	require.Equal(t, 2, e.Cursor().Line)
}

func TestCommandHistoryRecall(t *testing.T) {
	e := newEngine("foo")
	press(e, ":")
	for _, r := range "set number" {
		press(e, string(r))
	}
	press(e, "Return")
	press(e, ":")
	press(e, "Up")
	require.Equal(t, "set number", e.cmdline)
	press(e, "Escape")
}

func TestJoinLinesDefault(t *testing.T) {
	e := newEngine("foo\nbar")
	press(e, "J")
	require.Equal(t, "foo bar", e.Buffer().GetLine(0))
}

func TestToggleCaseTilde(t *testing.T) {
	e := newEngine("aB")
	press(e, "~")
	require.Equal(t, "AB", e.Buffer().GetLine(0))
	press(e, "~")
	require.Equal(t, "aB", e.Buffer().GetLine(0))
}

func TestReplaceCharR(t *testing.T) {
	e := newEngine("abc")
	press(e, "r", "z")
	require.Equal(t, "zbc", e.Buffer().GetLine(0))
}

func TestGGAndBigG(t *testing.T) {
	e := newEngine("one\ntwo\nthree")
	e.cursor.Line = 2
	press(e, "g", "g")
	require.Equal(t, 0, e.Cursor().Line)
	press(e, "G")
	require.Equal(t, 2, e.Cursor().Line)
}

func TestFindCharMotionAndRepeat(t *testing.T) {
	e := newEngine("a.b.c")
	press(e, "f", ".")
	require.Equal(t, 1, e.Cursor().Column)
	press(e, ";")
	require.Equal(t, 3, e.Cursor().Column)
}

func TestTextObjectDeleteInnerWord(t *testing.T) {
	e := newEngine("foo bar baz")
	e.cursor.Column = 5
	press(e, "d", "i", "w")
	require.Equal(t, "foo  baz", e.Buffer().GetLine(0))
}

func TestTextObjectChangeInnerParen(t *testing.T) {
	e := newEngine("call(arg)")
	e.cursor.Column = 6
	press(e, "c", "i", "(")
	require.Equal(t, Insert, e.Mode())
	require.Equal(t, "call()", e.Buffer().GetLine(0))
}

func TestDeleteForwardClampsCountToLineEnd(t *testing.T) {
	e := newEngine("ab")
	e.cursor.Column = 1
	press(e, "2", "x")
	require.Equal(t, "a", e.Buffer().GetLine(0))
}

func TestCountedDeleteWord(t *testing.T) {
	e := newEngine("one two three four")
	press(e, "2", "d", "w")
	require.Equal(t, "three four", e.Buffer().GetLine(0))
}

func TestVisualModeBigGUsesLastLine(t *testing.T) {
	e := newEngine("one\ntwo\nthree")
	press(e, "V", "G")
	require.Equal(t, 2, e.Cursor().Line)
}

func TestVisualBlockModeToggle(t *testing.T) {
	e := newEngine("abc\ndef")
	press(e, "<C-v>")
	require.Equal(t, VisualBlock, e.Mode())
	press(e, "Escape")
	require.Equal(t, Normal, e.Mode())
}

func TestEscapeDuringNormalResetsPendingCommand(t *testing.T) {
	e := newEngine("hello")
	press(e, "d")
	press(e, "Escape")
	press(e, "x")
	require.Equal(t, "ello", e.Buffer().GetLine(0))
}
