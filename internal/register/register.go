// Package register implements the named-register store that yank, delete,
// and paste commands read and write. The teacher tracks a single
// lastYankedText/lastYankWasLinewise pair; this generalizes that into the
// full register set Vim exposes: unnamed, a-z, A-Z (append), "+"/"*"
// (clipboard-backed), "_" (blackhole), and the numbered "0"-"9" ring.
package register

import (
	"strings"

	"github.com/govim/vimcore/internal/clipboard"
)

// Kind distinguishes how a register's content should be pasted.
type Kind int

const (
	// Charwise content is inserted inline at the cursor.
	Charwise Kind = iota
	// Linewise content is inserted as whole lines above/below the cursor.
	Linewise
	// Blockwise content is inserted as a rectangular column block.
	Blockwise
)

// Content is the value stored in a register.
type Content struct {
	Text string
	Kind Kind
}

// Store holds every named register plus the numbered yank/delete rings.
// The zero value is not usable; use New.
type Store struct {
	named     map[rune]Content
	clipboard clipboard.Provider
}

// New constructs an empty Store. provider may be nil, in which case "+"
// and "*" behave as ordinary (non-persistent, process-local) registers —
// the same best-effort degradation the capability contract requires.
func New(provider clipboard.Provider) *Store {
	return &Store{
		named:     make(map[rune]Content),
		clipboard: provider,
	}
}

// resolve maps the spec's register-naming rules to the name actually used
// as the map key, applying the '"' → unnamed alias.
func resolve(name rune) rune {
	if name == 0 {
		return '"'
	}
	return name
}

// Get returns the content of the named register. An unset register reads
// as empty charwise content.
func (s *Store) Get(name rune) Content {
	name = resolve(name)
	if name == '+' || name == '*' {
		if s.clipboard == nil {
			return s.named[name]
		}
		text, err := s.clipboard.GetText()
		if err != nil {
			return Content{}
		}
		return Content{Text: text, Kind: Charwise}
	}
	return s.named[name]
}

// Set stores content under the named register, applying Vim's writing
// rules:
//   - "_" (blackhole) discards the write entirely.
//   - Uppercase A-Z appends to the corresponding lowercase register,
//     inserting a newline join when either side is linewise.
//   - "+"/"*" route to the clipboard capability (best-effort; a clipboard
//     error is swallowed and the write silently becomes a no-op, per the
//     capability's error-handling contract).
//   - Any other name is stored as given. Set never touches the unnamed
//     register or the numbered registers; SetUnnamed does that.
func (s *Store) Set(name rune, c Content) {
	name = resolve(name)
	if name == '_' {
		return
	}
	if name >= 'A' && name <= 'Z' {
		s.appendUpper(name, c)
		return
	}
	if name == '+' || name == '*' {
		if s.clipboard != nil {
			_ = s.clipboard.SetText(c.Text)
		}
		s.named[name] = c
		return
	}
	s.named[name] = c
}

func (s *Store) appendUpper(upper rune, c Content) {
	lower := upper - 'A' + 'a'
	existing, ok := s.named[lower]
	if !ok {
		s.named[lower] = c
		return
	}
	merged := existing
	if existing.Kind == Linewise || c.Kind == Linewise {
		merged.Kind = Linewise
		merged.Text = joinLinewise(existing.Text, c.Text)
	} else {
		merged.Text = existing.Text + c.Text
	}
	s.named[lower] = merged
}

func joinLinewise(a, b string) string {
	if a == "" {
		return b
	}
	if len(a) > 0 && a[len(a)-1] != '\n' {
		a += "\n"
	}
	return a + b
}

// SetUnnamed writes c to the unnamed register ("") and, when isYank is
// true, also shifts it into register "0" (Vim's "last yank" register,
// untouched by deletes). isYank=false instead shifts the numbered delete
// ring ("1" pushed down through "9", discarding the oldest) when c spans
// more than one line — Vim only ring-shifts linewise or multi-line
// deletes, leaving small deletes out of the numbered ring entirely.
func (s *Store) SetUnnamed(c Content, isYank bool) {
	s.named['"'] = c
	if isYank {
		s.named['0'] = c
		return
	}
	if c.Kind == Linewise || strings.Contains(c.Text, "\n") {
		s.shiftDeleteRing(c)
	}
}

func (s *Store) shiftDeleteRing(c Content) {
	for d := rune('9'); d > '1'; d-- {
		if prev, ok := s.named[d-1]; ok {
			s.named[d] = prev
		}
	}
	s.named['1'] = c
}
