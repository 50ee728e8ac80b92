package motion

import (
	"github.com/govim/vimcore/internal/buffer"
	"github.com/govim/vimcore/internal/cursor"
)

// TextObject locates the bounds of a text object (iw/aw/i"/a"/i(/a(/...)
// around a cursor position. Implementations operate on a single line, per
// the teacher's scope; start.Column/end.Column are inclusive grapheme
// indices on that line.
type TextObject interface {
	FindBounds(line string, col int, inner bool) (start, end int, found bool)
}

// textObjects maps the object character following i/a to its finder. '('
// and ')' (and the [ ] { } equivalents) share a finder since either key
// selects the same bracket pair.
var textObjects = map[rune]TextObject{
	'w':  wordTextObject{big: false},
	'W':  wordTextObject{big: true},
	'"':  pairedDelimiter{open: '"', close: '"'},
	'\'': pairedDelimiter{open: '\'', close: '\''},
	'(':  pairedDelimiter{open: '(', close: ')'},
	')':  pairedDelimiter{open: '(', close: ')'},
	'[':  pairedDelimiter{open: '[', close: ']'},
	']':  pairedDelimiter{open: '[', close: ']'},
	'{':  pairedDelimiter{open: '{', close: '}'},
	'}':  pairedDelimiter{open: '{', close: '}'},
	'b':  bracketAny{},
}

// FindTextObject resolves the object character obj (w, W, ", ', (, [, {, b,
// ...) around pos in buf, honoring inner (true for i{obj}, false for
// a{obj}). Returns the object's start and end positions on pos's line
// (both inclusive, since text objects select whole spans including their
// endpoint) and true, or false if no such object exists at the cursor.
func FindTextObject(buf *buffer.Buffer, pos cursor.Position, obj rune, inner bool) (start, end cursor.Position, ok bool) {
	finder, known := textObjects[obj]
	if !known {
		return cursor.Position{}, cursor.Position{}, false
	}
	line := buf.GetLine(pos.Line)
	startCol, endCol, found := finder.FindBounds(line, pos.Column, inner)
	if !found {
		return cursor.Position{}, cursor.Position{}, false
	}
	return cursor.Position{Line: pos.Line, Column: startCol}, cursor.Position{Line: pos.Line, Column: endCol}, true
}

type wordTextObject struct{ big bool }

func (w wordTextObject) FindBounds(line string, col int, inner bool) (start, end int, found bool) {
	n := buffer.GraphemeCount(line)
	if n == 0 || col >= n {
		return 0, 0, false
	}
	graphemes := buffer.GraphemesInRange(line, 0, n)

	if wordClass(graphemes[col], w.big) == buffer.ClassWhitespace {
		return 0, 0, false
	}

	var startCol, endCol int
	if w.big {
		startCol = col
		for startCol > 0 && wordClass(graphemes[startCol-1], true) != buffer.ClassWhitespace {
			startCol--
		}
		endCol = col
		for endCol < n-1 && wordClass(graphemes[endCol+1], true) != buffer.ClassWhitespace {
			endCol++
		}
	} else {
		curType := wordClass(graphemes[col], false)
		startCol = col
		for startCol > 0 && wordClass(graphemes[startCol-1], false) == curType {
			startCol--
		}
		endCol = col
		for endCol < n-1 && wordClass(graphemes[endCol+1], false) == curType {
			endCol++
		}
	}

	if !inner {
		trailingEnd := endCol
		for trailingEnd < n-1 && wordClass(graphemes[trailingEnd+1], w.big) == buffer.ClassWhitespace {
			trailingEnd++
		}
		if trailingEnd > endCol {
			endCol = trailingEnd
		} else {
			for startCol > 0 && wordClass(graphemes[startCol-1], w.big) == buffer.ClassWhitespace {
				startCol--
			}
		}
	}

	return startCol, endCol, true
}

type pairedDelimiter struct {
	open, close rune
}

func (p pairedDelimiter) FindBounds(line string, col int, inner bool) (start, end int, found bool) {
	n := buffer.GraphemeCount(line)
	if n == 0 || col >= n {
		return 0, 0, false
	}
	var openPos, closePos int
	var ok bool
	if p.open == p.close {
		openPos, closePos, ok = p.findSymmetricPair(line, col)
	} else {
		openPos, closePos, ok = p.findAsymmetricPair(line, col)
	}
	if !ok {
		return 0, 0, false
	}
	if inner {
		if closePos == openPos+1 {
			return openPos + 1, openPos, true
		}
		return openPos + 1, closePos - 1, true
	}
	return openPos, closePos, true
}

func (p pairedDelimiter) findSymmetricPair(line string, cursorCol int) (int, int, bool) {
	n := buffer.GraphemeCount(line)
	graphemes := buffer.GraphemesInRange(line, 0, n)

	var positions []int
	for i, g := range graphemes {
		if len(g) == len(string(p.open)) && []rune(g)[0] == p.open && !isEscaped(graphemes, i) {
			positions = append(positions, i)
		}
	}
	if len(positions) < 2 {
		return -1, -1, false
	}

	for i := 0; i+1 < len(positions); i += 2 {
		if cursorCol >= positions[i] && cursorCol <= positions[i+1] {
			return positions[i], positions[i+1], true
		}
	}

	leftQuote, rightQuote := -1, -1
	for _, pos := range positions {
		if pos < cursorCol {
			leftQuote = pos
		}
	}
	for _, pos := range positions {
		if pos > cursorCol {
			rightQuote = pos
			break
		}
	}
	if leftQuote >= 0 && rightQuote >= 0 {
		return leftQuote, rightQuote, true
	}
	return -1, -1, false
}

func (p pairedDelimiter) findAsymmetricPair(line string, cursorCol int) (int, int, bool) {
	n := buffer.GraphemeCount(line)
	graphemes := buffer.GraphemesInRange(line, 0, n)

	var openStack []int
	var pairs [][2]int
	for i, g := range graphemes {
		r := []rune(g)
		if len(r) != 1 {
			continue
		}
		switch {
		case r[0] == p.open && !isEscaped(graphemes, i):
			openStack = append(openStack, i)
		case r[0] == p.close && !isEscaped(graphemes, i):
			if len(openStack) > 0 {
				openPos := openStack[len(openStack)-1]
				openStack = openStack[:len(openStack)-1]
				pairs = append(pairs, [2]int{openPos, i})
			}
		}
	}

	found := false
	var best [2]int
	for _, pair := range pairs {
		if cursorCol >= pair[0] && cursorCol <= pair[1] {
			if !found || pair[1]-pair[0] < best[1]-best[0] {
				best = pair
				found = true
			}
		}
	}
	if found {
		return best[0], best[1], true
	}
	return -1, -1, false
}

func isEscaped(graphemes []string, pos int) bool {
	if pos == 0 {
		return false
	}
	backslashes := 0
	for i := pos - 1; i >= 0; i-- {
		if graphemes[i] == "\\" {
			backslashes++
		} else {
			break
		}
	}
	return backslashes%2 == 1
}

type bracketAny struct{}

var bracketKinds = []pairedDelimiter{
	{open: '(', close: ')'},
	{open: '[', close: ']'},
	{open: '{', close: '}'},
}

func (bracketAny) FindBounds(line string, col int, inner bool) (start, end int, found bool) {
	n := buffer.GraphemeCount(line)
	if n == 0 || col >= n {
		return 0, 0, false
	}
	bestFound := false
	bestSize := -1
	var bestStart, bestEnd int
	for _, kind := range bracketKinds {
		openPos, closePos, ok := kind.findAsymmetricPair(line, col)
		if !ok {
			continue
		}
		size := closePos - openPos
		if !bestFound || size < bestSize {
			bestFound = true
			bestSize = size
			if inner {
				if closePos == openPos+1 {
					bestStart, bestEnd = openPos+1, openPos
				} else {
					bestStart, bestEnd = openPos+1, closePos-1
				}
			} else {
				bestStart, bestEnd = openPos, closePos
			}
		}
	}
	return bestStart, bestEnd, bestFound
}
