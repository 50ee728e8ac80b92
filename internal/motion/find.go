package motion

import (
	"github.com/govim/vimcore/internal/buffer"
	"github.com/govim/vimcore/internal/cursor"
)

// FindChar computes the f/F/t/T motions: find ch forward or backward on
// the current line, count-th occurrence, stopping one short of it when
// before is true (t/T). Returns false if ch does not occur enough times
// on the line.
func FindChar(buf *buffer.Buffer, pos cursor.Position, ch string, forward, before bool, count int) (Motion, bool) {
	line := buf.GetLine(pos.Line)
	n := buffer.GraphemeCount(line)
	graphemes := buffer.GraphemesInRange(line, 0, n)
	count = effectiveCount(count)

	col := pos.Column
	found := 0
	if forward {
		for i := col + 1; i < n; i++ {
			if graphemes[i] == ch {
				found++
				if found == count {
					target := i
					if before {
						target--
					}
					return Motion{Target: cursor.Position{Line: pos.Line, Column: target}, Kind: Inclusive}, true
				}
			}
		}
		return Motion{}, false
	}
	for i := col - 1; i >= 0; i-- {
		if graphemes[i] == ch {
			found++
			if found == count {
				target := i
				if before {
					target++
				}
				return Motion{Target: cursor.Position{Line: pos.Line, Column: target}, Kind: Inclusive}, true
			}
		}
	}
	return Motion{}, false
}

// RepeatFind computes the ';'/',' motions from the persisted LastFind
// state. forwardKey is true for ';' (repeat in the original direction)
// and false for ',' (repeat in the opposite direction).
func RepeatFind(buf *buffer.Buffer, pos cursor.Position, lf LastFind, forwardKey bool, count int) (Motion, bool) {
	if !lf.Set {
		return Motion{}, false
	}
	forward := lf.Forward
	if !forwardKey {
		forward = !forward
	}
	// ';'/',' re-finding with "before" semantics must step past an
	// adjacent match first, matching Vim's t/T repeat behavior, so nudge
	// the search origin by one column in the search direction.
	origin := pos
	if lf.Before {
		if forward {
			origin.Column++
		} else {
			origin.Column--
		}
	}
	return FindChar(buf, origin, lf.Char, forward, lf.Before, count)
}

// Search computes the n/N motions using the buffer's FindNext, honoring
// wrapscan/ignorecase/smartcase from ctx.
func Search(buf *buffer.Buffer, pos cursor.Position, ctx Context, sameDirection bool) (Motion, bool) {
	if ctx.SearchPattern == "" {
		return Motion{}, false
	}
	forward := ctx.SearchForward
	if !sameDirection {
		forward = !forward
	}
	ignoreCase := ctx.IgnoreCase
	if ctx.SmartCase && hasUpper(ctx.SearchPattern) {
		ignoreCase = false
	}
	m, ok := buf.FindNext(ctx.SearchPattern, pos, forward, ignoreCase, ctx.WrapScan)
	if !ok {
		return Motion{}, false
	}
	return Motion{Target: cursor.Position{Line: m.Line, Column: m.StartCol}, Kind: Exclusive}, true
}

func hasUpper(s string) bool {
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			return true
		}
	}
	return false
}
