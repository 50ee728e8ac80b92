// Package buffer implements the line-oriented text storage the engine
// mutates: insert/delete/break/join/replace/range operations plus search,
// clamping and undo snapshots.
package buffer

import (
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// CharClass categorizes a grapheme cluster for word-boundary detection used
// by the motion package's w/b/e family and text objects. Grapheme clusters
// (not bytes or runes) are the unit of column addressing throughout this
// package so multi-byte and combined characters clamp and navigate
// correctly.
type CharClass int

const (
	ClassWhitespace CharClass = iota
	ClassWord
	ClassPunctuation
)

// GraphemeCount returns the number of grapheme clusters in s.
func GraphemeCount(s string) int {
	return uniseg.GraphemeClusterCount(s)
}

// GraphemeToByteOffset converts a grapheme index to a byte offset.
func GraphemeToByteOffset(s string, idx int) int {
	if idx <= 0 {
		return 0
	}
	i := 0
	state := -1
	original := s
	for len(s) > 0 {
		_, rest, _, newState := uniseg.StepString(s, state)
		i++
		if i == idx {
			return len(original) - len(rest)
		}
		s = rest
		state = newState
	}
	return len(original)
}

// SliceByGraphemes returns the substring spanning grapheme indices
// [start, end). Out-of-range bounds are clamped rather than erroring.
func SliceByGraphemes(s string, start, end int) string {
	if start < 0 {
		start = 0
	}
	if end < start {
		return ""
	}
	startByte := GraphemeToByteOffset(s, start)
	endByte := GraphemeToByteOffset(s, end)
	if startByte >= len(s) {
		return ""
	}
	if endByte > len(s) {
		endByte = len(s)
	}
	return s[startByte:endByte]
}

// GraphemesInRange returns the grapheme clusters in [start, end).
func GraphemesInRange(s string, start, end int) []string {
	if start < 0 {
		start = 0
	}
	if end < start {
		return nil
	}
	var result []string
	idx := 0
	state := -1
	for len(s) > 0 {
		cluster, rest, _, newState := uniseg.StepString(s, state)
		if idx >= start && idx < end {
			result = append(result, cluster)
		}
		if idx >= end {
			break
		}
		idx++
		s = rest
		state = newState
	}
	return result
}

// InsertAtGrapheme inserts text at the given grapheme index.
func InsertAtGrapheme(s string, idx int, insert string) string {
	byteOffset := GraphemeToByteOffset(s, idx)
	return s[:byteOffset] + insert + s[byteOffset:]
}

// DeleteGraphemeRange deletes grapheme clusters in [start, end).
func DeleteGraphemeRange(s string, start, end int) string {
	startByte := GraphemeToByteOffset(s, start)
	endByte := GraphemeToByteOffset(s, end)
	return s[:startByte] + s[endByte:]
}

// DisplayWidth returns the terminal-cell width of s (CJK/emoji = 2).
func DisplayWidth(s string) int {
	return runewidth.StringWidth(s)
}

// ClassOf classifies a grapheme cluster for word-boundary detection.
func ClassOf(cluster string) CharClass {
	if cluster == "" {
		return ClassWhitespace
	}
	for _, r := range cluster {
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			return ClassWhitespace
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_':
			return ClassWord
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			return ClassWord
		default:
			return ClassPunctuation
		}
	}
	return ClassPunctuation
}

// IsWhitespace reports whether the grapheme cluster is whitespace.
func IsWhitespace(cluster string) bool { return ClassOf(cluster) == ClassWhitespace }

// GraphemeIterator walks a string's grapheme clusters forward.
type GraphemeIterator struct {
	original string
	rest     string
	state    int
	cluster  string
	bytePos  int
	index    int
	started  bool
}

// NewGraphemeIterator creates an iterator over s.
func NewGraphemeIterator(s string) *GraphemeIterator {
	return &GraphemeIterator{original: s, rest: s, state: -1, index: -1}
}

// Next advances to the next grapheme cluster, returning false at the end.
func (g *GraphemeIterator) Next() bool {
	if len(g.rest) == 0 {
		return false
	}
	if g.started {
		g.bytePos = len(g.original) - len(g.rest)
		g.index++
	} else {
		g.bytePos = 0
		g.index = 0
		g.started = true
	}
	cluster, rest, _, newState := uniseg.StepString(g.rest, g.state)
	g.cluster = cluster
	g.rest = rest
	g.state = newState
	return true
}

// Cluster returns the current grapheme cluster.
func (g *GraphemeIterator) Cluster() string { return g.cluster }

// Index returns the 0-based grapheme index of the current cluster.
func (g *GraphemeIterator) Index() int { return g.index }

// TruncateToDisplayWidth truncates s to fit within maxWidth terminal cells
// without splitting a grapheme cluster. Used by host renderers, not the
// core itself, but kept here alongside the rest of the grapheme toolkit.
func TruncateToDisplayWidth(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	var b strings.Builder
	width := 0
	iter := NewGraphemeIterator(s)
	for iter.Next() {
		w := runewidth.StringWidth(iter.Cluster())
		if width+w > maxWidth {
			break
		}
		b.WriteString(iter.Cluster())
		width += w
	}
	return b.String()
}
