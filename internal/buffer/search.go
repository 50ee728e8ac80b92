package buffer

import (
	"fmt"
	"regexp"
	"time"

	"github.com/govim/vimcore/internal/cursor"
	gocache "github.com/patrickmn/go-cache"
	"github.com/rivo/uniseg"
)

// patternCache memoizes compiled patterns keyed by pattern+case-sensitivity
// so repeated n/N/:s on the same search term don't recompile it. Bounded by
// a default expiry so a long editing session doesn't grow it unboundedly.
var patternCache = gocache.New(10*time.Minute, 20*time.Minute)

// compilePattern compiles pattern with Go's RE2 syntax (the spec's
// Non-goals exclude Vim's own regex dialect), honoring ignoreCase.
func compilePattern(pattern string, ignoreCase bool) (*regexp.Regexp, error) {
	key := fmt.Sprintf("%v:%s", ignoreCase, pattern)
	if cached, ok := patternCache.Get(key); ok {
		return cached.(*regexp.Regexp), nil
	}
	src := pattern
	if ignoreCase {
		src = "(?i)" + src
	}
	re, err := regexp.Compile(src)
	if err != nil {
		return nil, err
	}
	patternCache.Set(key, re, gocache.DefaultExpiration)
	return re, nil
}

// Match describes one search hit, in grapheme-index coordinates on the
// matched line.
type Match struct {
	Line       int
	StartCol   int
	EndCol     int // exclusive
	MatchedStr string
}

// FindNext implements Vim's n/N semantics: forward search begins scanning
// strictly after the current position (never re-matching it), backward
// search scans strictly before it, and wrapScan controls whether a search
// that runs off the relevant end of the buffer resumes from the other end.
// An empty pattern never matches.
func (b *Buffer) FindNext(pattern string, from cursor.Position, forward, ignoreCase, wrapScan bool) (Match, bool) {
	if pattern == "" {
		return Match{}, false
	}
	re, err := compilePattern(pattern, ignoreCase)
	if err != nil {
		return Match{}, false
	}

	if forward {
		if m, ok := b.scanForward(re, from.Line, from.Column+1, len(b.lines)-1); ok {
			return m, true
		}
		if wrapScan {
			if m, ok := b.scanForward(re, 0, 0, from.Line); ok {
				return m, true
			}
		}
		return Match{}, false
	}

	if m, ok := b.scanBackward(re, from.Line, from.Column-1, 0); ok {
		return m, true
	}
	if wrapScan {
		if m, ok := b.scanBackward(re, len(b.lines)-1, -1, from.Line); ok {
			return m, true
		}
	}
	return Match{}, false
}

// scanForward searches lines [startLine, endLine] in order; on startLine it
// begins at startCol (use a value <= 0 to scan the whole line).
func (b *Buffer) scanForward(re *regexp.Regexp, startLine, startCol, endLine int) (Match, bool) {
	for line := startLine; line <= endLine && line < len(b.lines); line++ {
		text := b.lines[line]
		fromCol := 0
		if line == startLine {
			fromCol = startCol
		}
		if fromCol < 0 {
			fromCol = 0
		}
		byteOffset := GraphemeToByteOffset(text, fromCol)
		if byteOffset > len(text) {
			continue
		}
		loc := re.FindStringIndex(text[byteOffset:])
		if loc == nil {
			continue
		}
		startByte := byteOffset + loc[0]
		endByte := byteOffset + loc[1]
		return Match{
			Line:       line,
			StartCol:   byteToGraphemeIdx(text, startByte),
			EndCol:     byteToGraphemeIdx(text, endByte),
			MatchedStr: text[startByte:endByte],
		}, true
	}
	return Match{}, false
}

// scanBackward searches lines [startLine, endLine] in reverse order; on
// startLine it only considers matches ending at or before startCol (use a
// negative startCol to mean "end of line" when wrapping from the far end).
func (b *Buffer) scanBackward(re *regexp.Regexp, startLine, startCol, endLine int) (Match, bool) {
	for line := startLine; line >= endLine && line >= 0; line-- {
		text := b.lines[line]
		limitCol := GraphemeCount(text)
		if line == startLine && startCol >= 0 {
			limitCol = startCol + 1
		}
		limitByte := GraphemeToByteOffset(text, limitCol)
		if limitByte < 0 {
			continue
		}
		locs := re.FindAllStringIndex(text[:min(limitByte, len(text))], -1)
		if len(locs) == 0 {
			continue
		}
		last := locs[len(locs)-1]
		return Match{
			Line:       line,
			StartCol:   byteToGraphemeIdx(text, last[0]),
			EndCol:     byteToGraphemeIdx(text, last[1]),
			MatchedStr: text[last[0]:last[1]],
		}, true
	}
	return Match{}, false
}

// FindAll returns every non-overlapping match of pattern across the whole
// buffer, in order, advancing past each match by its length.
func (b *Buffer) FindAll(pattern string, ignoreCase bool) []Match {
	if pattern == "" {
		return nil
	}
	re, err := compilePattern(pattern, ignoreCase)
	if err != nil {
		return nil
	}
	var out []Match
	for line, text := range b.lines {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			out = append(out, Match{
				Line:       line,
				StartCol:   byteToGraphemeIdx(text, loc[0]),
				EndCol:     byteToGraphemeIdx(text, loc[1]),
				MatchedStr: text[loc[0]:loc[1]],
			})
		}
	}
	return out
}

func byteToGraphemeIdx(s string, byteOffset int) int {
	if byteOffset <= 0 {
		return 0
	}
	if byteOffset >= len(s) {
		return GraphemeCount(s)
	}
	idx := 0
	pos := 0
	state := -1
	rest := s
	for len(rest) > 0 {
		cluster, next, _, newState := uniseg.StepString(rest, state)
		nextPos := pos + len(cluster)
		if byteOffset < nextPos {
			return idx
		}
		idx++
		pos = nextPos
		rest = next
		state = newState
	}
	return idx
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
