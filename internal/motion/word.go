// Package motion implements the stateless Motion Engine: pure functions
// from (buffer content, cursor position, count, ...) to a target position.
// No motion here mutates anything or holds state between calls, per the
// "stateless motions" design note — the teacher computes the same
// word-boundary math inline inside its per-key Command.Execute methods;
// here it is factored out into plain functions the dispatcher composes
// with operators (d/c/y) instead of one Command struct per motion key.
package motion

import "github.com/govim/vimcore/internal/buffer"

// wordClass collapses buffer.ClassOf into the two- or three-way
// distinction a word motion needs. big selects WORD semantics (W/B/E),
// where only whitespace vs. non-whitespace matters; word semantics (w/b/e)
// keep punctuation as its own class so "foo.bar" is three words.
func wordClass(cluster string, big bool) buffer.CharClass {
	c := buffer.ClassOf(cluster)
	if big && c == buffer.ClassPunctuation {
		return buffer.ClassWord
	}
	return c
}

// NextWordStart returns the grapheme index of the start of the next
// word/WORD on line, from pos. At or past the end of the line it returns
// the line's grapheme count, signaling "no more words on this line" so the
// dispatcher can move to the next line per w's line-wrapping behavior.
func NextWordStart(line string, pos int, big bool) int {
	n := buffer.GraphemeCount(line)
	if pos >= n {
		return pos
	}
	graphemes := buffer.GraphemesInRange(line, 0, n)
	currentType := wordClass(graphemes[pos], big)
	for pos < n && wordClass(graphemes[pos], big) == currentType && currentType != buffer.ClassWhitespace {
		pos++
	}
	for pos < n && wordClass(graphemes[pos], big) == buffer.ClassWhitespace {
		pos++
	}
	return pos
}

// PrevWordStart returns the grapheme index of the start of the word/WORD
// before pos, or 0 at the start of the line.
func PrevWordStart(line string, pos int, big bool) int {
	if pos <= 0 {
		return 0
	}
	n := buffer.GraphemeCount(line)
	if n == 0 {
		return 0
	}
	graphemes := buffer.GraphemesInRange(line, 0, n)
	pos--
	if pos >= n {
		pos = n - 1
	}
	if pos < 0 {
		return 0
	}
	for pos > 0 && wordClass(graphemes[pos], big) == buffer.ClassWhitespace {
		pos--
	}
	if pos <= 0 {
		return 0
	}
	wordType := wordClass(graphemes[pos], big)
	for pos > 0 && wordClass(graphemes[pos-1], big) == wordType {
		pos--
	}
	return pos
}

// FirstWordStart returns the grapheme index of the first word/WORD on
// line, skipping leading whitespace, or 0 for an empty/all-whitespace line.
func FirstWordStart(line string, big bool) int {
	n := buffer.GraphemeCount(line)
	if n == 0 {
		return 0
	}
	graphemes := buffer.GraphemesInRange(line, 0, n)
	pos := 0
	for pos < n && wordClass(graphemes[pos], big) == buffer.ClassWhitespace {
		pos++
	}
	return pos
}

// LastWordStart returns the grapheme index of the start of the last
// word/WORD on line, or 0 for an empty/all-whitespace line.
func LastWordStart(line string, big bool) int {
	n := buffer.GraphemeCount(line)
	if n == 0 {
		return 0
	}
	graphemes := buffer.GraphemesInRange(line, 0, n)
	pos := n - 1
	for pos > 0 && wordClass(graphemes[pos], big) == buffer.ClassWhitespace {
		pos--
	}
	if pos <= 0 {
		return 0
	}
	wordType := wordClass(graphemes[pos], big)
	for pos > 0 && wordClass(graphemes[pos-1], big) == wordType {
		pos--
	}
	return pos
}

// WordEnd returns the grapheme index of the end of the current/next
// word/WORD from pos (the "e"/"E" motion), or -1 if there is no further
// word end on this line — the caller should continue onto the next line.
func WordEnd(line string, pos int, big bool) int {
	n := buffer.GraphemeCount(line)
	if pos >= n {
		return -1
	}
	graphemes := buffer.GraphemesInRange(line, 0, n)
	currentType := wordClass(graphemes[pos], big)

	if currentType == buffer.ClassWhitespace {
		for pos < n && wordClass(graphemes[pos], big) == buffer.ClassWhitespace {
			pos++
		}
		if pos >= n {
			return -1
		}
		wordType := wordClass(graphemes[pos], big)
		for pos+1 < n && wordClass(graphemes[pos+1], big) == wordType {
			pos++
		}
		return pos
	}

	if pos+1 < n && wordClass(graphemes[pos+1], big) == currentType {
		for pos+1 < n && wordClass(graphemes[pos+1], big) == currentType {
			pos++
		}
		return pos
	}

	pos++
	for pos < n && wordClass(graphemes[pos], big) == buffer.ClassWhitespace {
		pos++
	}
	if pos >= n {
		return -1
	}
	wordType := wordClass(graphemes[pos], big)
	for pos+1 < n && wordClass(graphemes[pos+1], big) == wordType {
		pos++
	}
	return pos
}

// PrevWordEnd returns the grapheme index of the end of the word/WORD
// before pos (the "ge"/"gE" motion), or -1 if there is no word end before
// pos on this line.
func PrevWordEnd(line string, pos int, big bool) int {
	n := buffer.GraphemeCount(line)
	if pos <= 0 || n == 0 {
		return -1
	}
	graphemes := buffer.GraphemesInRange(line, 0, n)
	if pos > n {
		pos = n
	}
	// Step back out of the word under pos before looking for the previous one.
	if pos < n && wordClass(graphemes[pos], big) != buffer.ClassWhitespace {
		cls := wordClass(graphemes[pos], big)
		for pos > 0 && wordClass(graphemes[pos-1], big) == cls {
			pos--
		}
	}
	pos--
	for pos >= 0 && wordClass(graphemes[pos], big) == buffer.ClassWhitespace {
		pos--
	}
	return pos
}

// FirstWordEnd returns the grapheme index of the end of the first
// word/WORD on line.
func FirstWordEnd(line string, big bool) int {
	n := buffer.GraphemeCount(line)
	if n == 0 {
		return 0
	}
	graphemes := buffer.GraphemesInRange(line, 0, n)
	pos := 0
	for pos < n && wordClass(graphemes[pos], big) == buffer.ClassWhitespace {
		pos++
	}
	if pos >= n {
		return 0
	}
	wordType := wordClass(graphemes[pos], big)
	for pos+1 < n && wordClass(graphemes[pos+1], big) == wordType {
		pos++
	}
	return pos
}
