package motion

import (
	"testing"

	"github.com/govim/vimcore/internal/buffer"
	"github.com/govim/vimcore/internal/cursor"
	"github.com/stretchr/testify/require"
)

func TestHLBasic(t *testing.T) {
	buf := buffer.New("hello")
	m, ok := Compute(buf, cursor.Position{Line: 0, Column: 2}, "h", Context{Count: 1})
	require.True(t, ok)
	require.Equal(t, 1, m.Target.Column)
	require.Equal(t, Exclusive, m.Kind)

	m, ok = Compute(buf, cursor.Position{Line: 0, Column: 2}, "l", Context{Count: 1})
	require.True(t, ok)
	require.Equal(t, 3, m.Target.Column)
}

func TestLStopsAtLastChar(t *testing.T) {
	buf := buffer.New("ab")
	m, _ := Compute(buf, cursor.Position{Line: 0, Column: 0}, "l", Context{Count: 10})
	require.Equal(t, 1, m.Target.Column)
}

func TestDollarInclusive(t *testing.T) {
	buf := buffer.New("hello")
	m, ok := Compute(buf, cursor.Position{Line: 0, Column: 0}, "$", Context{Count: 1})
	require.True(t, ok)
	require.Equal(t, 4, m.Target.Column)
	require.Equal(t, Inclusive, m.Kind)
}

func TestCaretFirstNonBlank(t *testing.T) {
	buf := buffer.New("   hi")
	m, _ := Compute(buf, cursor.Position{Line: 0, Column: 4}, "^", Context{Count: 1})
	require.Equal(t, 3, m.Target.Column)
}

func TestWordForwardExclusive(t *testing.T) {
	buf := buffer.New("foo bar baz")
	m, ok := Compute(buf, cursor.Position{Line: 0, Column: 0}, "w", Context{Count: 1})
	require.True(t, ok)
	require.Equal(t, 4, m.Target.Column)
	require.Equal(t, Exclusive, m.Kind)
}

func TestWORDTreatsPunctuationAsWord(t *testing.T) {
	buf := buffer.New("foo.bar baz")
	// w stops at the punctuation boundary
	m, _ := Compute(buf, cursor.Position{Line: 0, Column: 0}, "w", Context{Count: 1})
	require.Equal(t, 3, m.Target.Column)
	// W treats foo.bar as one WORD
	m, _ = Compute(buf, cursor.Position{Line: 0, Column: 0}, "W", Context{Count: 1})
	require.Equal(t, 8, m.Target.Column)
}

func TestWordForwardAdvancesToNextLine(t *testing.T) {
	buf := buffer.New("foo\nbar")
	m, ok := Compute(buf, cursor.Position{Line: 0, Column: 0}, "w", Context{Count: 1})
	require.True(t, ok)
	require.Equal(t, 1, m.Target.Line)
	require.Equal(t, 0, m.Target.Column)
}

func TestWordBackward(t *testing.T) {
	buf := buffer.New("foo bar baz")
	m, ok := Compute(buf, cursor.Position{Line: 0, Column: 8}, "b", Context{Count: 1})
	require.True(t, ok)
	require.Equal(t, 4, m.Target.Column)
}

func TestWordEndInclusive(t *testing.T) {
	buf := buffer.New("foo bar")
	m, ok := Compute(buf, cursor.Position{Line: 0, Column: 0}, "e", Context{Count: 1})
	require.True(t, ok)
	require.Equal(t, 2, m.Target.Column)
	require.Equal(t, Inclusive, m.Kind)
}

func TestGGAndG(t *testing.T) {
	buf := buffer.New("a\nb\nc\nd")
	m, ok := Compute(buf, cursor.Position{Line: 2, Column: 0}, "gg", Context{})
	require.True(t, ok)
	require.Equal(t, 0, m.Target.Line)

	m, ok = Compute(buf, cursor.Position{Line: 0, Column: 0}, "G", Context{})
	require.True(t, ok)
	require.Equal(t, 3, m.Target.Line)

	m, ok = Compute(buf, cursor.Position{Line: 0, Column: 0}, "G", Context{Count: 2})
	require.True(t, ok)
	require.Equal(t, 1, m.Target.Line)
}

func TestParagraphMotions(t *testing.T) {
	buf := buffer.New("a\nb\n\nc\nd")
	m, ok := Compute(buf, cursor.Position{Line: 0, Column: 0}, "}", Context{Count: 1})
	require.True(t, ok)
	require.Equal(t, 2, m.Target.Line)

	m, ok = Compute(buf, cursor.Position{Line: 4, Column: 0}, "{", Context{Count: 1})
	require.True(t, ok)
	require.Equal(t, 2, m.Target.Line)
}

func TestPercentMatchesBrackets(t *testing.T) {
	buf := buffer.New("foo(bar(baz)qux)end")
	m, ok := Compute(buf, cursor.Position{Line: 0, Column: 3}, "%", Context{})
	require.True(t, ok)
	require.Equal(t, 15, m.Target.Column)
}

func TestPercentNoMatch(t *testing.T) {
	buf := buffer.New("no brackets here")
	_, ok := Compute(buf, cursor.Position{Line: 0, Column: 0}, "%", Context{})
	require.False(t, ok)
}

func TestFindCharForwardAndBefore(t *testing.T) {
	buf := buffer.New("abcXdefXghi")
	m, ok := FindChar(buf, cursor.Position{Line: 0, Column: 0}, "X", true, false, 1)
	require.True(t, ok)
	require.Equal(t, 3, m.Target.Column)

	m, ok = FindChar(buf, cursor.Position{Line: 0, Column: 0}, "X", true, true, 1)
	require.True(t, ok)
	require.Equal(t, 2, m.Target.Column)

	m, ok = FindChar(buf, cursor.Position{Line: 0, Column: 0}, "X", true, false, 2)
	require.True(t, ok)
	require.Equal(t, 7, m.Target.Column)
}

func TestFindCharNotFound(t *testing.T) {
	buf := buffer.New("abc")
	_, ok := FindChar(buf, cursor.Position{Line: 0, Column: 0}, "Z", true, false, 1)
	require.False(t, ok)
}

func TestRepeatFindCommaInvertsDirection(t *testing.T) {
	buf := buffer.New("abcXdefXghi")
	lf := LastFind{Char: "X", Forward: true, Before: false, Set: true}
	m, ok := RepeatFind(buf, cursor.Position{Line: 0, Column: 7}, lf, false, 1)
	require.True(t, ok)
	require.Equal(t, 3, m.Target.Column)
}

func TestSearchWrapAndDirection(t *testing.T) {
	buf := buffer.New("foo bar foo")
	ctx := Context{SearchPattern: "foo", SearchForward: true, WrapScan: true}
	m, ok := Search(buf, cursor.Position{Line: 0, Column: 8}, ctx, true)
	require.True(t, ok)
	require.Equal(t, 0, m.Target.Column)
}

func TestTextObjectInnerWord(t *testing.T) {
	buf := buffer.New("foo bar baz")
	start, end, ok := FindTextObject(buf, cursor.Position{Line: 0, Column: 5}, 'w', true)
	require.True(t, ok)
	require.Equal(t, 4, start.Column)
	require.Equal(t, 6, end.Column)
}

func TestTextObjectAroundWordIncludesTrailingSpace(t *testing.T) {
	buf := buffer.New("foo bar baz")
	start, end, ok := FindTextObject(buf, cursor.Position{Line: 0, Column: 0}, 'w', false)
	require.True(t, ok)
	require.Equal(t, 0, start.Column)
	require.Equal(t, 3, end.Column)
}

func TestTextObjectQuotes(t *testing.T) {
	// f0o1o2 3"4b5a6r7 8b9a10z11"12 13q14u15x16
	buf := buffer.New(`foo "bar baz" qux`)
	start, end, ok := FindTextObject(buf, cursor.Position{Line: 0, Column: 6}, '"', true)
	require.True(t, ok)
	require.Equal(t, 5, start.Column)
	require.Equal(t, 11, end.Column)

	start, end, ok = FindTextObject(buf, cursor.Position{Line: 0, Column: 6}, '"', false)
	require.True(t, ok)
	require.Equal(t, 4, start.Column)
	require.Equal(t, 12, end.Column)
}

func TestTextObjectNestedBrackets(t *testing.T) {
	buf := buffer.New("foo(bar(baz)qux)end")
	// cursor at col 9 ('a' in "baz") sits inside the innermost "(baz)" pair.
	start, end, ok := FindTextObject(buf, cursor.Position{Line: 0, Column: 9}, 'b', true)
	require.True(t, ok)
	require.Equal(t, 8, start.Column)
	require.Equal(t, 10, end.Column)
}

func TestTextObjectOnWhitespaceFails(t *testing.T) {
	buf := buffer.New("foo bar")
	_, _, ok := FindTextObject(buf, cursor.Position{Line: 0, Column: 3}, 'w', true)
	require.False(t, ok)
}
