package buffer

import (
	"strings"

	"github.com/govim/vimcore/internal/cursor"
)

// Buffer is the mutable, line-oriented text store. It owns no cursor of its
// own; callers pass positions in and get clamped positions back. LineCount
// is always >= 1: a "cleared" buffer contains a single empty line, per the
// spec's invariant.
type Buffer struct {
	lines    []string
	modified bool
}

// New constructs a Buffer from text, normalizing CRLF and CR line endings to
// LF before splitting into lines.
func New(text string) *Buffer {
	b := &Buffer{}
	b.SetText(text)
	b.modified = false
	return b
}

func normalizeNewlines(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

// SetText replaces the entire buffer content, splitting on LF. Marks the
// buffer modified the same as any other mutation.
func (b *Buffer) SetText(text string) {
	text = normalizeNewlines(text)
	if text == "" {
		b.lines = []string{""}
	} else {
		b.lines = strings.Split(text, "\n")
	}
	b.modified = true
}

// GetText joins all lines with LF.
func (b *Buffer) GetText() string {
	return strings.Join(b.lines, "\n")
}

// LineCount returns the number of lines, always >= 1.
func (b *Buffer) LineCount() int {
	return len(b.lines)
}

// GetLine returns the line at index i, or "" if i is out of range.
func (b *Buffer) GetLine(i int) string {
	if i < 0 || i >= len(b.lines) {
		return ""
	}
	return b.lines[i]
}

// GetLines returns lines [start, end] inclusive, clamped to bounds.
func (b *Buffer) GetLines(start, end int) []string {
	start = clamp(start, 0, len(b.lines)-1)
	end = clamp(end, 0, len(b.lines)-1)
	if end < start {
		return nil
	}
	out := make([]string, end-start+1)
	copy(out, b.lines[start:end+1])
	return out
}

// GetLineLength returns the grapheme count of line i, or 0 if out of range.
func (b *Buffer) GetLineLength(i int) int {
	if i < 0 || i >= len(b.lines) {
		return 0
	}
	return GraphemeCount(b.lines[i])
}

// IsModified reports whether the buffer has unsaved mutations.
func (b *Buffer) IsModified() bool { return b.modified }

// MarkSaved clears the modified flag.
func (b *Buffer) MarkSaved() { b.modified = false }

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampCursor clamps pos to a valid position in this buffer. In normal mode
// (insertMode=false) the column may address at most the last grapheme of
// the line (Vim's "cursor sits on a character"); in insert mode the column
// may sit one past the last grapheme (Vim's "cursor sits between
// characters").
func (b *Buffer) ClampCursor(pos cursor.Position, insertMode bool) cursor.Position {
	line := clamp(pos.Line, 0, len(b.lines)-1)
	n := GraphemeCount(b.lines[line])
	maxCol := n
	if !insertMode {
		maxCol = max(n-1, 0)
	}
	col := clamp(pos.Column, 0, maxCol)
	return cursor.Position{Line: line, Column: col}
}

// Snapshot returns an independent copy of the line vector, suitable for
// storing in the undo manager.
func (b *Buffer) Snapshot() []string {
	out := make([]string, len(b.lines))
	copy(out, b.lines)
	return out
}

// RestoreSnapshot replaces the buffer's contents with snap and marks the
// buffer modified.
func (b *Buffer) RestoreSnapshot(snap []string) {
	out := make([]string, len(snap))
	copy(out, snap)
	if len(out) == 0 {
		out = []string{""}
	}
	b.lines = out
	b.modified = true
}

// InsertChar inserts a single character at (line, col), clamping col to
// [0, len].
func (b *Buffer) InsertChar(line, col int, ch rune) {
	b.InsertText(line, col, string(ch))
}

// InsertText inserts text at (line, col). Text containing newlines is
// inserted literally into the single line; callers that want multi-line
// insertion must split first and use InsertLines/BreakLine.
func (b *Buffer) InsertText(line, col int, text string) {
	if line < 0 || line >= len(b.lines) {
		return
	}
	l := b.lines[line]
	n := GraphemeCount(l)
	col = clamp(col, 0, n)
	b.lines[line] = InsertAtGrapheme(l, col, text)
	b.modified = true
}

// BreakLine splits line at col, clamped, leaving the prefix in place and
// moving the suffix into a newly inserted line.
func (b *Buffer) BreakLine(line, col int) {
	if line < 0 || line >= len(b.lines) {
		return
	}
	l := b.lines[line]
	n := GraphemeCount(l)
	col = clamp(col, 0, n)
	prefix := SliceByGraphemes(l, 0, col)
	suffix := SliceByGraphemes(l, col, n)
	b.lines[line] = prefix
	newLines := make([]string, 0, len(b.lines)+1)
	newLines = append(newLines, b.lines[:line+1]...)
	newLines = append(newLines, suffix)
	newLines = append(newLines, b.lines[line+1:]...)
	b.lines = newLines
	b.modified = true
}

// DeleteChar removes one grapheme at (line, col). No-op if out of range.
func (b *Buffer) DeleteChar(line, col int) {
	if line < 0 || line >= len(b.lines) {
		return
	}
	n := GraphemeCount(b.lines[line])
	if col < 0 || col >= n {
		return
	}
	b.lines[line] = DeleteGraphemeRange(b.lines[line], col, col+1)
	b.modified = true
}

// DeleteRange removes the half-open grapheme range [startCol, endCol) from
// line. Both bounds are clamped; endCol is clamped to >= startCol.
func (b *Buffer) DeleteRange(line, startCol, endCol int) {
	if line < 0 || line >= len(b.lines) {
		return
	}
	l := b.lines[line]
	n := GraphemeCount(l)
	startCol = clamp(startCol, 0, n)
	if endCol < startCol {
		endCol = startCol
	}
	endCol = clamp(endCol, 0, n)
	b.lines[line] = DeleteGraphemeRange(l, startCol, endCol)
	b.modified = true
}

// JoinLines concatenates line+1 onto line, with no separator inserted — the
// dispatcher's J command is responsible for inserting a space when
// appropriate. No-op at the last line.
func (b *Buffer) JoinLines(line int) {
	if line < 0 || line+1 >= len(b.lines) {
		return
	}
	b.lines[line] = b.lines[line] + b.lines[line+1]
	b.lines = append(b.lines[:line+1], b.lines[line+2:]...)
	b.modified = true
}

// DeleteLines removes lines [start, end] inclusive, clamped. If every line
// is removed, a single empty line remains per the buffer invariant.
func (b *Buffer) DeleteLines(start, end int) {
	start = clamp(start, 0, len(b.lines)-1)
	end = clamp(end, 0, len(b.lines)-1)
	if end < start {
		return
	}
	if end-start+1 >= len(b.lines) {
		b.lines = []string{""}
		b.modified = true
		return
	}
	newLines := make([]string, 0, len(b.lines)-(end-start+1))
	newLines = append(newLines, b.lines[:start]...)
	newLines = append(newLines, b.lines[end+1:]...)
	b.lines = newLines
	b.modified = true
}

// InsertLines inserts lines positionally after afterLine (use -1 to insert
// at the very top).
func (b *Buffer) InsertLines(afterLine int, lines []string) {
	afterLine = clamp(afterLine, -1, len(b.lines)-1)
	newLines := make([]string, 0, len(b.lines)+len(lines))
	newLines = append(newLines, b.lines[:afterLine+1]...)
	newLines = append(newLines, lines...)
	newLines = append(newLines, b.lines[afterLine+1:]...)
	b.lines = newLines
	b.modified = true
}

// InsertLineAbove inserts a single line with the given text immediately
// above line.
func (b *Buffer) InsertLineAbove(line int, text string) {
	b.InsertLines(line-1, []string{text})
}

// ReplaceLine replaces the contents of line with text.
func (b *Buffer) ReplaceLine(line int, text string) {
	if line < 0 || line >= len(b.lines) {
		return
	}
	b.lines[line] = text
	b.modified = true
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
