// Package excmd implements the Ex-Command Processor: parsing and running
// a single "[range]cmd[!] [args]" line typed in Command mode. It has no
// teacher equivalent (vimtextarea has no ':' line at all) and is built
// from the spec's own table, in the idiom the rest of this module uses:
// small pure parsing helpers, an explicit options.Options mutated in
// place, and engine state communicated back as []event.Event.
package excmd

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/govim/vimcore/internal/buffer"
	"github.com/govim/vimcore/internal/cursor"
	"github.com/govim/vimcore/internal/event"
	"github.com/govim/vimcore/internal/options"
)

// Range is a resolved, 1-based inclusive line range.
type Range struct {
	Set        bool
	Start, End int
}

// History is a bounded, navigable ring of previously executed command
// lines, mirroring the teacher's CommandHistory undo-index convention:
// cursor sits one past the newest entry until Prev/Next move it.
type History struct {
	entries []string
	cap     int
	cursor  int
}

// NewHistory builds a History bounded to capacity entries.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = 1000
	}
	return &History{cap: capacity}
}

// Add appends line to the history and resets the navigation cursor.
func (h *History) Add(line string) {
	if line == "" {
		return
	}
	h.entries = append(h.entries, line)
	if len(h.entries) > h.cap {
		h.entries = h.entries[len(h.entries)-h.cap:]
	}
	h.cursor = len(h.entries)
}

// Prev moves the cursor back one entry (older), like pressing Up.
func (h *History) Prev() (string, bool) {
	if h.cursor == 0 {
		return "", false
	}
	h.cursor--
	return h.entries[h.cursor], true
}

// Next moves the cursor forward one entry (newer), like pressing Down.
// Returns false once past the newest entry.
func (h *History) Next() (string, bool) {
	if h.cursor >= len(h.entries)-1 {
		h.cursor = len(h.entries)
		return "", false
	}
	h.cursor++
	return h.entries[h.cursor], true
}

// Processor executes ex-command lines against a buffer and options.
type Processor struct {
	History *History
	// Remaps holds static :nmap/:nnoremap/etc. bindings; expansion is the
	// dispatcher's responsibility, per the spec's own deferral.
	Remaps map[string]string
}

// NewProcessor builds a Processor with a history bounded by historyCap.
func NewProcessor(historyCap int) *Processor {
	return &Processor{History: NewHistory(historyCap), Remaps: map[string]string{}}
}

// Execute parses and runs one command line. currentLine is the 1-based
// cursor line, used to resolve "." in a range and as the default range
// of :s when none is given.
func (p *Processor) Execute(buf *buffer.Buffer, opts *options.Options, currentLine int, line string) ([]event.Event, error) {
	p.History.Add(line)

	lastLine := buf.LineCount()
	rng, afterRange := parseRange(line, currentLine, lastLine)
	trimmed := strings.TrimSpace(afterRange)

	if trimmed == "" {
		if rng.Set {
			target := clampLine(rng.End, lastLine)
			return []event.Event{event.NewCursorMoved(cursor.Position{Line: target - 1, Column: 0})}, nil
		}
		return nil, nil
	}

	name, bang, rest := splitCommandName(trimmed)

	switch name {
	case "q", "quit":
		if bang {
			return []event.Event{event.NewQuitRequested(true)}, nil
		}
		if buf.IsModified() {
			return nil, fmt.Errorf("No write since last change")
		}
		return []event.Event{event.NewQuitRequested(false)}, nil

	case "qa", "qall":
		return []event.Event{event.NewQuitRequested(bang)}, nil

	case "w", "write":
		path := strings.TrimSpace(rest)
		return []event.Event{event.NewSaveRequested(path)}, nil

	case "wq":
		path := strings.TrimSpace(rest)
		return []event.Event{event.NewSaveRequested(path), event.NewQuitRequested(false)}, nil

	case "x", "xit":
		if !buf.IsModified() {
			return []event.Event{event.NewQuitRequested(false)}, nil
		}
		return []event.Event{event.NewSaveRequested(""), event.NewQuitRequested(false)}, nil

	case "e", "edit":
		path := strings.TrimSpace(rest)
		if path == "" {
			return nil, fmt.Errorf("no file name")
		}
		return []event.Event{event.NewOpenFileRequested(path)}, nil

	case "set":
		return nil, applySet(opts, rest)

	case "colorscheme":
		arg := strings.TrimSpace(rest)
		if arg == "" {
			return []event.Event{event.NewStatusMessage(opts.ColorScheme)}, nil
		}
		_ = options.Set(opts, "colorscheme="+arg)
		return nil, nil

	case "syntax":
		arg := strings.TrimSpace(rest)
		switch arg {
		case "on":
			opts.Syntax = true
		case "off":
			opts.Syntax = false
		}
		return nil, nil

	case "bn", "bnext":
		return []event.Event{event.NewNextTabRequested()}, nil
	case "bp", "bprev", "bprevious":
		return []event.Event{event.NewPrevTabRequested()}, nil
	case "bd", "bdelete":
		return []event.Event{event.NewCloseTabRequested(bang)}, nil
	case "b", "buffer":
		return []event.Event{event.NewStatusMessage("buffer switching is managed by the host")}, nil

	case "tabnew", "tabedit", "tabe":
		return []event.Event{event.NewNewTabRequested(strings.TrimSpace(rest))}, nil
	case "tabn", "tabnext":
		return []event.Event{event.NewNextTabRequested()}, nil
	case "tabp", "tabprevious", "tabprev":
		return []event.Event{event.NewPrevTabRequested()}, nil
	case "tabc", "tabclose":
		return []event.Event{event.NewCloseTabRequested(bang)}, nil

	case "split", "sp", "new":
		return []event.Event{event.NewSplitRequested(false)}, nil
	case "vsplit", "vs", "vnew":
		return []event.Event{event.NewSplitRequested(true)}, nil

	case "s", "su", "substitute":
		return p.substitute(buf, opts, rng, currentLine, rest)

	case "nmap", "nnoremap", "imap", "inoremap", "vmap", "vnoremap":
		parts := strings.Fields(rest)
		if len(parts) >= 2 {
			p.Remaps[parts[0]] = strings.Join(parts[1:], " ")
		}
		return nil, nil

	default:
		return nil, fmt.Errorf("Not an editor command: %s", name)
	}
}

func clampLine(n, lastLine int) int {
	if n < 1 {
		return 1
	}
	if n > lastLine {
		return lastLine
	}
	return n
}

// parseRange consumes a leading range spec ("%", ".", "$", "N", "N,M")
// from s and returns the resolved Range plus the unconsumed remainder.
func parseRange(s string, current, last int) (Range, string) {
	if strings.HasPrefix(s, "%") {
		return Range{Set: true, Start: 1, End: last}, s[1:]
	}

	start, rest, ok := parseLineSpec(s, current, last)
	if !ok {
		return Range{}, s
	}
	end := start
	if strings.HasPrefix(rest, ",") {
		var ok2 bool
		end, rest, ok2 = parseLineSpec(rest[1:], current, last)
		if !ok2 {
			return Range{}, s
		}
	}
	return Range{Set: true, Start: start, End: end}, rest
}

func parseLineSpec(s string, current, last int) (int, string, bool) {
	if s == "" {
		return 0, s, false
	}
	switch s[0] {
	case '.':
		return current, s[1:], true
	case '$':
		return last, s[1:], true
	}
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, s, false
	}
	n, _ := strconv.Atoi(s[:i])
	return n, s[i:], true
}

// splitCommandName splits trimmed into its leading command name, an
// optional trailing "!", and the (untrimmed) remainder used as argument
// text — untrimmed so substitution delimiters immediately following the
// name (e.g. "s/foo/bar/") are preserved.
func splitCommandName(trimmed string) (name string, bang bool, rest string) {
	i := 0
	for i < len(trimmed) && trimmed[i] >= 'a' && trimmed[i] <= 'z' {
		i++
	}
	name = trimmed[:i]
	rest = trimmed[i:]
	if strings.HasPrefix(rest, "!") {
		bang = true
		rest = rest[1:]
	}
	return name, bang, strings.TrimPrefix(rest, " ")
}

func applySet(opts *options.Options, rest string) error {
	for _, arg := range strings.Fields(rest) {
		if err := options.Set(opts, arg); err != nil {
			return err
		}
	}
	return nil
}

func (p *Processor) substitute(buf *buffer.Buffer, opts *options.Options, rng Range, currentLine int, rest string) ([]event.Event, error) {
	pattern, repl, flags, ok := parseSubstituteArgs(rest)
	if !ok {
		return nil, fmt.Errorf("invalid substitute syntax")
	}

	start, end := currentLine, currentLine
	if rng.Set {
		start, end = rng.Start, rng.End
	}

	ignoreCase := opts.IgnoreCase
	if strings.ContainsRune(flags, 'I') {
		ignoreCase = false
	} else if strings.ContainsRune(flags, 'i') {
		ignoreCase = true
	} else if opts.SmartCase && hasUpper(pattern) {
		ignoreCase = false
	}
	global := strings.ContainsRune(flags, 'g')

	reSrc := pattern
	if ignoreCase {
		reSrc = "(?i)" + pattern
	}
	re, err := regexp.Compile(reSrc)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern: %w", err)
	}

	total := 0
	lastLine := buf.LineCount()
	for ln := start; ln <= end && ln <= lastLine; ln++ {
		idx := ln - 1
		newLine, n := substituteLine(re, buf.GetLine(idx), repl, global)
		if n > 0 {
			buf.ReplaceLine(idx, newLine)
			total += n
		}
	}

	if total == 0 {
		return []event.Event{event.NewStatusMessage("No matches")}, nil
	}
	return []event.Event{
		event.NewTextChanged(),
		event.NewStatusMessage(fmt.Sprintf("%d substitution(s) made", total)),
	}, nil
}

func substituteLine(re *regexp.Regexp, line, repl string, global bool) (string, int) {
	if global {
		matches := re.FindAllStringIndex(line, -1)
		if len(matches) == 0 {
			return line, 0
		}
		return re.ReplaceAllString(line, repl), len(matches)
	}
	loc := re.FindStringSubmatchIndex(line)
	if loc == nil {
		return line, 0
	}
	expanded := re.ExpandString(nil, repl, line, loc)
	return line[:loc[0]] + string(expanded) + line[loc[1]:], 1
}

func parseSubstituteArgs(rest string) (pattern, repl, flags string, ok bool) {
	if rest == "" {
		return "", "", "", false
	}
	delim := rune(rest[0])
	parts := splitUnescaped(rest[1:], delim)
	if len(parts) < 2 {
		return "", "", "", false
	}
	pattern = parts[0]
	repl = parts[1]
	if len(parts) >= 3 {
		flags = parts[2]
	}
	if pattern == "" {
		return "", "", "", false
	}
	return pattern, repl, flags, true
}

func splitUnescaped(s string, delim rune) []string {
	var parts []string
	var cur []rune
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		if runes[i] == '\\' && i+1 < len(runes) && runes[i+1] == delim {
			cur = append(cur, delim)
			i++
			continue
		}
		if runes[i] == delim {
			parts = append(parts, string(cur))
			cur = nil
			continue
		}
		cur = append(cur, runes[i])
	}
	parts = append(parts, string(cur))
	return parts
}

func hasUpper(s string) bool {
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			return true
		}
	}
	return false
}
