package motion

import (
	"github.com/govim/vimcore/internal/buffer"
	"github.com/govim/vimcore/internal/cursor"
)

// Kind classifies how an operator should treat a motion's endpoint.
type Kind int

const (
	// Exclusive motions exclude the target column from an operator range.
	Exclusive Kind = iota
	// Inclusive motions include the target column in an operator range.
	Inclusive
	// Linewise motions make the operator act on whole lines.
	Linewise
)

// Motion is the result of computing a named motion: where the cursor lands
// and how an operator combining with it should treat the endpoint.
type Motion struct {
	Target         cursor.Position
	Kind           Kind
	LinewiseForced bool
}

// LastFind records the most recent f/F/t/T invocation so ';' and ',' can
// repeat it.
type LastFind struct {
	Char    string
	Forward bool
	Before  bool
	Set     bool
}

// Context bundles the state a motion needs beyond the buffer itself:
// the engine's sticky preferred column, last find-char state, and last
// search pattern/direction. Motions never mutate Context; the dispatcher
// decides what to update from the returned Motion.
type Context struct {
	Count          int
	PreferredCol   int
	LastFind       LastFind
	SearchPattern  string
	SearchForward  bool
	IgnoreCase     bool
	SmartCase      bool
	WrapScan       bool
	ViewportHeight int // 0 means "unknown"; H/M/L fall back to a fixed offset.
}

const viewportFallbackOffset = 10

func effectiveCount(count int) int {
	if count <= 0 {
		return 1
	}
	return count
}

// Compute evaluates motionName against buf from pos, returning the
// resulting Motion and true, or false if motionName is not recognized.
// This is the sole entry point the parser/dispatcher call; every case
// below is pure with respect to buf and pos.
func Compute(buf *buffer.Buffer, pos cursor.Position, motionName string, ctx Context) (Motion, bool) {
	count := effectiveCount(ctx.Count)
	switch motionName {
	case "h":
		return left(pos, count), true
	case "l":
		return right(buf, pos, count), true
	case "j":
		return down(buf, pos, count, ctx.PreferredCol), true
	case "k":
		return up(buf, pos, count, ctx.PreferredCol), true
	case "gj":
		return down(buf, pos, count, ctx.PreferredCol), true
	case "gk":
		return up(buf, pos, count, ctx.PreferredCol), true
	case "0":
		return Motion{Target: cursor.Position{Line: pos.Line, Column: 0}, Kind: Exclusive}, true
	case "^":
		return Motion{Target: cursor.Position{Line: pos.Line, Column: firstNonBlank(buf.GetLine(pos.Line))}, Kind: Exclusive}, true
	case "$":
		return dollar(buf, pos, count), true
	case "w":
		return wordForward(buf, pos, count, false), true
	case "W":
		return wordForward(buf, pos, count, true), true
	case "b":
		return wordBackward(buf, pos, count, false), true
	case "B":
		return wordBackward(buf, pos, count, true), true
	case "e":
		return wordEndForward(buf, pos, count, false), true
	case "E":
		return wordEndForward(buf, pos, count, true), true
	case "ge":
		return wordEndBackward(buf, pos, count, false), true
	case "gE":
		return wordEndBackward(buf, pos, count, true), true
	case "gg":
		return gg(buf, ctx.Count), true
	case "G":
		return bigG(buf, ctx.Count), true
	case "{":
		return paragraphBackward(buf, pos, count), true
	case "}":
		return paragraphForward(buf, pos, count), true
	case "%":
		return percentMatch(buf, pos)
	case "H":
		return viewportTop(buf, pos, ctx), true
	case "M":
		return viewportMiddle(buf, pos, ctx), true
	case "L":
		return viewportBottom(buf, pos, ctx), true
	case "+":
		return lineRelative(buf, pos, count, true), true
	case "-":
		return lineRelative(buf, pos, count, false), true
	case "_":
		return underscoreMotion(buf, pos, count), true
	case "|":
		return pipeMotion(buf, pos, ctx.Count), true
	}
	return Motion{}, false
}

func left(pos cursor.Position, count int) Motion {
	col := pos.Column - count
	if col < 0 {
		col = 0
	}
	return Motion{Target: cursor.Position{Line: pos.Line, Column: col}, Kind: Exclusive}
}

func right(buf *buffer.Buffer, pos cursor.Position, count int) Motion {
	n := buf.GetLineLength(pos.Line)
	maxCol := n - 1
	if maxCol < 0 {
		maxCol = 0
	}
	col := pos.Column + count
	if col > maxCol {
		col = maxCol
	}
	return Motion{Target: cursor.Position{Line: pos.Line, Column: col}, Kind: Exclusive}
}

func down(buf *buffer.Buffer, pos cursor.Position, count, preferredCol int) Motion {
	line := pos.Line + count
	if line > buf.LineCount()-1 {
		line = buf.LineCount() - 1
	}
	return Motion{Target: cursor.Position{Line: line, Column: preferredCol}, Kind: Linewise}
}

func up(buf *buffer.Buffer, pos cursor.Position, count, preferredCol int) Motion {
	line := pos.Line - count
	if line < 0 {
		line = 0
	}
	return Motion{Target: cursor.Position{Line: line, Column: preferredCol}, Kind: Linewise}
}

func dollar(buf *buffer.Buffer, pos cursor.Position, count int) Motion {
	line := pos.Line + count - 1
	if line > buf.LineCount()-1 {
		line = buf.LineCount() - 1
	}
	n := buf.GetLineLength(line)
	col := n - 1
	if col < 0 {
		col = 0
	}
	return Motion{Target: cursor.Position{Line: line, Column: col}, Kind: Inclusive}
}

func firstNonBlank(line string) int {
	n := buffer.GraphemeCount(line)
	graphemes := buffer.GraphemesInRange(line, 0, n)
	for i, g := range graphemes {
		if !buffer.IsWhitespace(g) {
			return i
		}
	}
	return 0
}

func wordForward(buf *buffer.Buffer, pos cursor.Position, count int, big bool) Motion {
	line, col := pos.Line, pos.Column
	for i := 0; i < count; i++ {
		l := buf.GetLine(line)
		n := buffer.GraphemeCount(l)
		col = NextWordStart(l, col, big)
		if col >= n && line < buf.LineCount()-1 {
			line++
			col = FirstWordStart(buf.GetLine(line), big)
		}
	}
	return Motion{Target: cursor.Position{Line: line, Column: col}, Kind: Exclusive}
}

func wordBackward(buf *buffer.Buffer, pos cursor.Position, count int, big bool) Motion {
	line, col := pos.Line, pos.Column
	for i := 0; i < count; i++ {
		if col <= 0 && line > 0 {
			line--
			l := buf.GetLine(line)
			n := buffer.GraphemeCount(l)
			col = n
			if col > 0 {
				col = LastWordStart(l, big)
			}
			continue
		}
		col = PrevWordStart(buf.GetLine(line), col, big)
	}
	return Motion{Target: cursor.Position{Line: line, Column: col}, Kind: Exclusive}
}

func wordEndForward(buf *buffer.Buffer, pos cursor.Position, count int, big bool) Motion {
	line, col := pos.Line, pos.Column
	for i := 0; i < count; i++ {
		l := buf.GetLine(line)
		end := WordEnd(l, col, big)
		for end == -1 && line < buf.LineCount()-1 {
			line++
			l = buf.GetLine(line)
			end = FirstWordEnd(l, big)
			if buffer.GraphemeCount(l) == 0 {
				end = -1
				continue
			}
			break
		}
		if end == -1 {
			end = buffer.GraphemeCount(buf.GetLine(line)) - 1
			if end < 0 {
				end = 0
			}
		}
		col = end
	}
	return Motion{Target: cursor.Position{Line: line, Column: col}, Kind: Inclusive}
}

func wordEndBackward(buf *buffer.Buffer, pos cursor.Position, count int, big bool) Motion {
	line, col := pos.Line, pos.Column
	for i := 0; i < count; i++ {
		end := PrevWordEnd(buf.GetLine(line), col, big)
		for end == -1 && line > 0 {
			line--
			l := buf.GetLine(line)
			end = PrevWordEnd(l, buffer.GraphemeCount(l), big)
		}
		if end == -1 {
			end = 0
		}
		col = end
	}
	return Motion{Target: cursor.Position{Line: line, Column: col}, Kind: Inclusive}
}

func gg(buf *buffer.Buffer, explicitCount int) Motion {
	line := 0
	if explicitCount > 0 {
		line = explicitCount - 1
	}
	line = clampLine(buf, line)
	return Motion{Target: cursor.Position{Line: line, Column: firstNonBlank(buf.GetLine(line))}, Kind: Linewise}
}

func bigG(buf *buffer.Buffer, explicitCount int) Motion {
	line := buf.LineCount() - 1
	if explicitCount > 0 {
		line = clampLine(buf, explicitCount-1)
	}
	return Motion{Target: cursor.Position{Line: line, Column: firstNonBlank(buf.GetLine(line))}, Kind: Linewise}
}

func clampLine(buf *buffer.Buffer, line int) int {
	if line < 0 {
		return 0
	}
	if line > buf.LineCount()-1 {
		return buf.LineCount() - 1
	}
	return line
}

func isBlankLine(line string) bool {
	n := buffer.GraphemeCount(line)
	for _, g := range buffer.GraphemesInRange(line, 0, n) {
		if !buffer.IsWhitespace(g) {
			return false
		}
	}
	return true
}

// paragraphForward lands on the next blank-line boundary after the
// current paragraph (or end of buffer); if already on a blank line it
// first skips the remaining blank run before looking for the next one.
func paragraphForward(buf *buffer.Buffer, pos cursor.Position, count int) Motion {
	line := pos.Line
	for i := 0; i < count; i++ {
		for line < buf.LineCount()-1 && isBlankLine(buf.GetLine(line)) {
			line++
		}
		for line < buf.LineCount()-1 && !isBlankLine(buf.GetLine(line)) {
			line++
		}
	}
	if line > buf.LineCount()-1 {
		line = buf.LineCount() - 1
	}
	return Motion{Target: cursor.Position{Line: line, Column: 0}, Kind: Linewise}
}

func paragraphBackward(buf *buffer.Buffer, pos cursor.Position, count int) Motion {
	line := pos.Line
	for i := 0; i < count; i++ {
		for line > 0 && isBlankLine(buf.GetLine(line)) {
			line--
		}
		for line > 0 && !isBlankLine(buf.GetLine(line)) {
			line--
		}
	}
	if line < 0 {
		line = 0
	}
	return Motion{Target: cursor.Position{Line: line, Column: 0}, Kind: Linewise}
}

var matchPairs = map[rune]rune{
	'(': ')', '[': ']', '{': '}',
	')': '(', ']': '[', '}': '{',
}

func isOpen(r rune) bool { return r == '(' || r == '[' || r == '{' }

// percentMatch scans from pos for the nearest bracket at or after the
// cursor on its line, then tracks depth across the whole buffer to find
// its match. Returns false if no bracket is found on the line.
func percentMatch(buf *buffer.Buffer, pos cursor.Position) (Motion, bool) {
	line := buf.GetLine(pos.Line)
	graphemes := buffer.GraphemesInRange(line, 0, buffer.GraphemeCount(line))
	startCol := -1
	var startChar rune
	for i := pos.Column; i < len(graphemes); i++ {
		r := []rune(graphemes[i])
		if len(r) != 1 {
			continue
		}
		if _, ok := matchPairs[r[0]]; ok {
			startCol = i
			startChar = r[0]
			break
		}
	}
	if startCol == -1 {
		return Motion{}, false
	}
	target := matchPairs[startChar]
	forward := isOpen(startChar)
	depth := 1
	lineIdx := pos.Line
	col := startCol
	for {
		if forward {
			col++
			if col >= buffer.GraphemeCount(buf.GetLine(lineIdx)) {
				lineIdx++
				col = 0
				if lineIdx >= buf.LineCount() {
					return Motion{}, false
				}
			}
		} else {
			col--
			if col < 0 {
				lineIdx--
				if lineIdx < 0 {
					return Motion{}, false
				}
				col = buffer.GraphemeCount(buf.GetLine(lineIdx)) - 1
				if col < 0 {
					continue
				}
			}
		}
		cur := buf.GetLine(lineIdx)
		curGraphemes := buffer.GraphemesInRange(cur, 0, buffer.GraphemeCount(cur))
		if col >= len(curGraphemes) {
			continue
		}
		r := []rune(curGraphemes[col])
		if len(r) != 1 {
			continue
		}
		switch r[0] {
		case startChar:
			depth++
		case target:
			depth--
			if depth == 0 {
				return Motion{Target: cursor.Position{Line: lineIdx, Column: col}, Kind: Inclusive}, true
			}
		}
	}
}

func viewportTop(buf *buffer.Buffer, pos cursor.Position, ctx Context) Motion {
	if ctx.ViewportHeight <= 0 {
		line := clampLine(buf, pos.Line-viewportFallbackOffset)
		return Motion{Target: cursor.Position{Line: line, Column: firstNonBlank(buf.GetLine(line))}, Kind: Linewise}
	}
	top := pos.Line - (pos.Line % ctx.ViewportHeight)
	top = clampLine(buf, top)
	return Motion{Target: cursor.Position{Line: top, Column: firstNonBlank(buf.GetLine(top))}, Kind: Linewise}
}

func viewportMiddle(buf *buffer.Buffer, pos cursor.Position, ctx Context) Motion {
	line := clampLine(buf, pos.Line)
	return Motion{Target: cursor.Position{Line: line, Column: firstNonBlank(buf.GetLine(line))}, Kind: Linewise}
}

func viewportBottom(buf *buffer.Buffer, pos cursor.Position, ctx Context) Motion {
	if ctx.ViewportHeight <= 0 {
		line := clampLine(buf, pos.Line+viewportFallbackOffset)
		return Motion{Target: cursor.Position{Line: line, Column: firstNonBlank(buf.GetLine(line))}, Kind: Linewise}
	}
	bottom := clampLine(buf, pos.Line+ctx.ViewportHeight)
	return Motion{Target: cursor.Position{Line: bottom, Column: firstNonBlank(buf.GetLine(bottom))}, Kind: Linewise}
}

func lineRelative(buf *buffer.Buffer, pos cursor.Position, count int, forward bool) Motion {
	line := pos.Line
	if forward {
		line += count
	} else {
		line -= count
	}
	line = clampLine(buf, line)
	return Motion{Target: cursor.Position{Line: line, Column: firstNonBlank(buf.GetLine(line))}, Kind: Linewise}
}

func underscoreMotion(buf *buffer.Buffer, pos cursor.Position, count int) Motion {
	line := clampLine(buf, pos.Line+count-1)
	return Motion{Target: cursor.Position{Line: line, Column: firstNonBlank(buf.GetLine(line))}, Kind: Linewise}
}

func pipeMotion(buf *buffer.Buffer, pos cursor.Position, explicitCount int) Motion {
	col := 0
	if explicitCount > 0 {
		col = explicitCount - 1
	}
	n := buf.GetLineLength(pos.Line)
	if col > n-1 {
		col = n - 1
	}
	if col < 0 {
		col = 0
	}
	return Motion{Target: cursor.Position{Line: pos.Line, Column: col}, Kind: Exclusive}
}
