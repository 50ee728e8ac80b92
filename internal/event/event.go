// Package event defines the VimEvent tagged union the engine emits from
// ProcessKey. Every call to the dispatcher returns an ordered []Event;
// the host drains it before the next key, per the engine's single-
// threaded, synchronous execution model.
package event

import (
	"github.com/govim/vimcore/internal/cursor"
)

// Kind discriminates the Event union.
type Kind int

const (
	ModeChanged Kind = iota
	TextChanged
	CursorMoved
	SelectionChanged
	StatusMessage
	CommandLineChanged
	SearchResultChanged
	SaveRequested
	QuitRequested
	OpenFileRequested
	NewTabRequested
	SplitRequested
	NextTabRequested
	PrevTabRequested
	CloseTabRequested
	ViewportAlignRequested
	GoToDefinitionRequested
	FormatDocumentRequested
)

func (k Kind) String() string {
	switch k {
	case ModeChanged:
		return "ModeChanged"
	case TextChanged:
		return "TextChanged"
	case CursorMoved:
		return "CursorMoved"
	case SelectionChanged:
		return "SelectionChanged"
	case StatusMessage:
		return "StatusMessage"
	case CommandLineChanged:
		return "CommandLineChanged"
	case SearchResultChanged:
		return "SearchResultChanged"
	case SaveRequested:
		return "SaveRequested"
	case QuitRequested:
		return "QuitRequested"
	case OpenFileRequested:
		return "OpenFileRequested"
	case NewTabRequested:
		return "NewTabRequested"
	case SplitRequested:
		return "SplitRequested"
	case NextTabRequested:
		return "NextTabRequested"
	case PrevTabRequested:
		return "PrevTabRequested"
	case CloseTabRequested:
		return "CloseTabRequested"
	case ViewportAlignRequested:
		return "ViewportAlignRequested"
	case GoToDefinitionRequested:
		return "GoToDefinitionRequested"
	case FormatDocumentRequested:
		return "FormatDocumentRequested"
	default:
		return "Unknown"
	}
}

// Align is the ViewportAlignRequested argument (zz/zt/zb).
type Align int

const (
	Top Align = iota
	Center
	Bottom
)

// Event is one member of the VimEvent union. Only the fields relevant to
// Kind are populated; the rest are zero values.
type Event struct {
	Kind Kind

	Mode string // ModeChanged

	Pos cursor.Position // CursorMoved

	HasSelection bool            // SelectionChanged
	SelStart     cursor.Position // SelectionChanged
	SelEnd       cursor.Position // SelectionChanged

	Text string // StatusMessage, CommandLineChanged

	Pattern    string // SearchResultChanged
	MatchCount int    // SearchResultChanged

	Path    string // SaveRequested, OpenFileRequested, NewTabRequested
	HasPath bool

	Force bool // QuitRequested, CloseTabRequested

	Vertical bool // SplitRequested

	Align Align // ViewportAlignRequested
}

func NewModeChanged(mode string) Event { return Event{Kind: ModeChanged, Mode: mode} }
func NewTextChanged() Event            { return Event{Kind: TextChanged} }
func NewCursorMoved(pos cursor.Position) Event {
	return Event{Kind: CursorMoved, Pos: pos}
}
func NewSelectionChanged(sel *cursor.Selection) Event {
	if sel == nil {
		return Event{Kind: SelectionChanged, HasSelection: false}
	}
	start, end := sel.Normalized()
	return Event{Kind: SelectionChanged, HasSelection: true, SelStart: start, SelEnd: end}
}
func NewStatusMessage(s string) Event { return Event{Kind: StatusMessage, Text: s} }
func NewCommandLineChanged(s string) Event {
	return Event{Kind: CommandLineChanged, Text: s}
}
func NewSearchResultChanged(pattern string, matchCount int) Event {
	return Event{Kind: SearchResultChanged, Pattern: pattern, MatchCount: matchCount}
}
func NewSaveRequested(path string) Event {
	return Event{Kind: SaveRequested, Path: path, HasPath: path != ""}
}
func NewQuitRequested(force bool) Event { return Event{Kind: QuitRequested, Force: force} }
func NewOpenFileRequested(path string) Event {
	return Event{Kind: OpenFileRequested, Path: path, HasPath: path != ""}
}
func NewNewTabRequested(path string) Event {
	return Event{Kind: NewTabRequested, Path: path, HasPath: path != ""}
}
func NewSplitRequested(vertical bool) Event {
	return Event{Kind: SplitRequested, Vertical: vertical}
}
func NewNextTabRequested() Event  { return Event{Kind: NextTabRequested} }
func NewPrevTabRequested() Event  { return Event{Kind: PrevTabRequested} }
func NewCloseTabRequested(force bool) Event {
	return Event{Kind: CloseTabRequested, Force: force}
}
func NewViewportAlignRequested(a Align) Event {
	return Event{Kind: ViewportAlignRequested, Align: a}
}
func NewGoToDefinitionRequested() Event   { return Event{Kind: GoToDefinitionRequested} }
func NewFormatDocumentRequested() Event   { return Event{Kind: FormatDocumentRequested} }
