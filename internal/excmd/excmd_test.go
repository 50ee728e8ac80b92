package excmd

import (
	"testing"

	"github.com/govim/vimcore/internal/buffer"
	"github.com/govim/vimcore/internal/event"
	"github.com/govim/vimcore/internal/options"
	"github.com/stretchr/testify/require"
)

func newEnv() (*buffer.Buffer, *options.Options, *Processor) {
	opts := options.Defaults()
	return buffer.New("foo\nbar\nfoo\nbaz"), &opts, NewProcessor(opts.History)
}

func TestQuitUnmodified(t *testing.T) {
	buf, opts, p := newEnv()
	events, err := p.Execute(buf, opts, 1, "q")
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, event.QuitRequested, events[0].Kind)
	require.False(t, events[0].Force)
}

func TestQuitModifiedWithoutBangErrors(t *testing.T) {
	buf, opts, p := newEnv()
	buf.InsertChar(0, 0, 'x')
	_, err := p.Execute(buf, opts, 1, "q")
	require.Error(t, err)
}

func TestQuitBangForces(t *testing.T) {
	buf, opts, p := newEnv()
	buf.InsertChar(0, 0, 'x')
	events, err := p.Execute(buf, opts, 1, "q!")
	require.NoError(t, err)
	require.True(t, events[0].Force)
}

func TestWriteQuit(t *testing.T) {
	buf, opts, p := newEnv()
	events, err := p.Execute(buf, opts, 1, "wq")
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, event.SaveRequested, events[0].Kind)
	require.Equal(t, event.QuitRequested, events[1].Kind)
}

func TestWriteWithPath(t *testing.T) {
	buf, opts, p := newEnv()
	events, err := p.Execute(buf, opts, 1, "w out.txt")
	require.NoError(t, err)
	require.Equal(t, "out.txt", events[0].Path)
	require.True(t, events[0].HasPath)
}

func TestEditNoPathErrors(t *testing.T) {
	buf, opts, p := newEnv()
	_, err := p.Execute(buf, opts, 1, "e")
	require.Error(t, err)
}

func TestEditWithPath(t *testing.T) {
	buf, opts, p := newEnv()
	events, err := p.Execute(buf, opts, 1, "e other.txt")
	require.NoError(t, err)
	require.Equal(t, event.OpenFileRequested, events[0].Kind)
	require.Equal(t, "other.txt", events[0].Path)
}

func TestGotoLineNumber(t *testing.T) {
	buf, opts, p := newEnv()
	events, err := p.Execute(buf, opts, 1, "3")
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, event.CursorMoved, events[0].Kind)
	require.Equal(t, 2, events[0].Pos.Line)
}

func TestGotoLineClampsToLastLine(t *testing.T) {
	buf, opts, p := newEnv()
	events, _ := p.Execute(buf, opts, 1, "99")
	require.Equal(t, 3, events[0].Pos.Line) // buffer has 4 lines, last index 3
}

func TestSetBoolOption(t *testing.T) {
	buf, opts, p := newEnv()
	_, err := p.Execute(buf, opts, 1, "set nowrap")
	require.NoError(t, err)
	require.False(t, opts.Wrap)
}

func TestSetIntOption(t *testing.T) {
	buf, opts, p := newEnv()
	_, err := p.Execute(buf, opts, 1, "set shiftwidth=2")
	require.NoError(t, err)
	require.Equal(t, 2, opts.ShiftWidth)
}

func TestSubstituteCurrentLineFirstMatch(t *testing.T) {
	buf, opts, p := newEnv()
	events, err := p.Execute(buf, opts, 1, "s/foo/qux/")
	require.NoError(t, err)
	require.Equal(t, "qux", buf.GetLine(0))
	require.Equal(t, event.TextChanged, events[0].Kind)
}

func TestSubstituteWholeBufferGlobal(t *testing.T) {
	buf, opts, p := newEnv()
	_, err := p.Execute(buf, opts, 1, "%s/foo/qux/g")
	require.NoError(t, err)
	require.Equal(t, "qux", buf.GetLine(0))
	require.Equal(t, "bar", buf.GetLine(1))
	require.Equal(t, "qux", buf.GetLine(2))
}

func TestSubstituteRangeOfLines(t *testing.T) {
	buf, opts, p := newEnv()
	_, err := p.Execute(buf, opts, 1, "1,2s/o/0/")
	require.NoError(t, err)
	require.Equal(t, "f0o", buf.GetLine(0))
	require.Equal(t, "bar", buf.GetLine(1))
	require.Equal(t, "foo", buf.GetLine(2))
}

func TestSubstituteNoMatches(t *testing.T) {
	buf, opts, p := newEnv()
	events, err := p.Execute(buf, opts, 1, "s/zzz/qux/")
	require.NoError(t, err)
	require.Equal(t, event.StatusMessage, events[0].Kind)
	require.Equal(t, "No matches", events[0].Text)
}

func TestSubstituteInvalidPatternErrors(t *testing.T) {
	buf, opts, p := newEnv()
	_, err := p.Execute(buf, opts, 1, "s/[/x/")
	require.Error(t, err)
}

func TestUnknownCommandErrors(t *testing.T) {
	buf, opts, p := newEnv()
	_, err := p.Execute(buf, opts, 1, "bogus")
	require.Error(t, err)
}

func TestSplitAndVsplit(t *testing.T) {
	buf, opts, p := newEnv()
	events, _ := p.Execute(buf, opts, 1, "vs")
	require.True(t, events[0].Vertical)

	events, _ = p.Execute(buf, opts, 1, "split")
	require.False(t, events[0].Vertical)
}

func TestHistoryRecallOrder(t *testing.T) {
	buf, opts, p := newEnv()
	_, _ = p.Execute(buf, opts, 1, "set number")
	_, _ = p.Execute(buf, opts, 1, "set nowrap")

	prev, ok := p.History.Prev()
	require.True(t, ok)
	require.Equal(t, "set nowrap", prev)

	prev, ok = p.History.Prev()
	require.True(t, ok)
	require.Equal(t, "set number", prev)

	_, ok = p.History.Prev()
	require.False(t, ok)
}

func TestTabCommands(t *testing.T) {
	buf, opts, p := newEnv()
	events, _ := p.Execute(buf, opts, 1, "tabnew newfile.txt")
	require.Equal(t, event.NewTabRequested, events[0].Kind)
	require.Equal(t, "newfile.txt", events[0].Path)
}
