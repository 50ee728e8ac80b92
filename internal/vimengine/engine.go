// Package vimengine implements the Execution Dispatcher: the mode state
// machine and operator/motion composition that turns a Command Parser
// result into buffer mutations and a VimEvent stream. It is grounded on
// the teacher's vimtextarea.Model.handleKeyMsg / executeAndRespond /
// handlePendingCommand / SelectionBounds / deleteSelection, adapted from
// Bubble Tea's tea.Msg/tea.Cmd plumbing to a plain, synchronous
// ProcessKey(key, ctrl, shift, alt) []event.Event entry point.
package vimengine

import (
	"strings"
	"unicode"

	"github.com/govim/vimcore/internal/buffer"
	"github.com/govim/vimcore/internal/clipboard"
	"github.com/govim/vimcore/internal/cursor"
	"github.com/govim/vimcore/internal/event"
	"github.com/govim/vimcore/internal/excmd"
	"github.com/govim/vimcore/internal/log"
	"github.com/govim/vimcore/internal/motion"
	"github.com/govim/vimcore/internal/options"
	"github.com/govim/vimcore/internal/parser"
	"github.com/govim/vimcore/internal/register"
	"github.com/govim/vimcore/internal/undo"
)

// maxMacroDepth bounds recursive ProcessKey calls from macro replay and
// dot-repeat so a self-referential macro (e.g. "qqa@qq" played through
// itself) cannot runaway the call stack.
const maxMacroDepth = 100

// Mode is the dispatcher's current editing mode.
type Mode int

const (
	Normal Mode = iota
	Insert
	Replace
	Visual
	VisualLine
	VisualBlock
	Command
	SearchForward
	SearchBackward
)

func (m Mode) String() string {
	switch m {
	case Normal:
		return "Normal"
	case Insert:
		return "Insert"
	case Replace:
		return "Replace"
	case Visual:
		return "Visual"
	case VisualLine:
		return "VisualLine"
	case VisualBlock:
		return "VisualBlock"
	case Command:
		return "Command"
	case SearchForward:
		return "SearchForward"
	case SearchBackward:
		return "SearchBackward"
	default:
		return "Unknown"
	}
}

// keyTok is one recorded ProcessKey invocation, replayed verbatim by
// macros and dot-repeat.
type keyTok struct {
	key                string
	ctrl, shift, alt   bool
}

// Engine owns every piece of mutable editor state: the buffer, cursor,
// mode, the Command Parser's accumulator, undo history, registers,
// marks, jump list, macro state, and dot-repeat state. ProcessKey is its
// sole mutation entry point, matching the spec's single-threaded,
// synchronous concurrency model.
type Engine struct {
	buf    *buffer.Buffer
	cursor cursor.Position
	mode   Mode

	parser         *parser.Parser
	curCommandKeys []keyTok

	undo      *undo.Manager
	registers *register.Store
	opts      *options.Options
	excmd     *excmd.Processor

	preferredCol    int
	preferredColMax bool

	viewportHeight int

	lastFind      motion.LastFind
	searchPattern string
	searchForward bool

	cmdline string

	visualAnchor cursor.Position
	visualCount  int

	marks   map[rune]cursor.Position
	jumps   []cursor.Position
	jumpIdx int

	macroRecording rune
	macroKeys      []keyTok
	registersMacro map[rune][]keyTok
	lastMacroReg   rune

	dotPending bool
	dotKeys    []keyTok
	lastChange []keyTok
}

// NewEngine constructs an Engine over text, using clip for the "+"/"*"
// registers (pass clipboard.NewMemory() for a host with no system
// clipboard access).
func NewEngine(text string, clip clipboard.Provider, opts options.Options) *Engine {
	buf := buffer.New(text)
	o := opts
	e := &Engine{
		buf:            buf,
		mode:           Normal,
		parser:         parser.New(),
		undo:           undo.NewManager(undo.DefaultCapacity, undo.State{Lines: buf.Snapshot(), Cursor: cursor.Position{}}),
		registers:      register.New(clip),
		opts:           &o,
		excmd:          excmd.NewProcessor(o.History),
		marks:          make(map[rune]cursor.Position),
		registersMacro: make(map[rune][]keyTok),
	}
	return e
}

// Buffer returns the engine's buffer for host read access (rendering).
func (e *Engine) Buffer() *buffer.Buffer { return e.buf }

// Cursor returns the current cursor position.
func (e *Engine) Cursor() cursor.Position { return e.cursor }

// Mode returns the current editing mode.
func (e *Engine) Mode() Mode { return e.mode }

// Options returns the engine's live option set (the host may read it for
// rendering hints like 'number'/'wrap').
func (e *Engine) Options() *options.Options { return e.opts }

// Selection returns the active visual-mode selection (anchor, head, kind)
// for a rendering host, and false outside Visual/VisualLine/VisualBlock.
func (e *Engine) Selection() (cursor.Selection, bool) {
	var kind cursor.SelectionKind
	switch e.mode {
	case Visual:
		kind = cursor.Character
	case VisualLine:
		kind = cursor.Line
	case VisualBlock:
		kind = cursor.Block
	default:
		return cursor.Selection{}, false
	}
	return cursor.Selection{Anchor: e.visualAnchor, Head: e.cursor, Kind: kind}, true
}

// SetViewportHeight tells the engine how many text rows the host currently
// renders. With a height set, H targets the first line of the height-sized
// block of lines containing the cursor and L the line that many rows below
// the cursor; without one they use the fixed offset in internal/motion. M
// always targets the cursor's own line. The engine knows no scroll offset,
// so these are not necessarily the host's visible top/bottom lines. The
// core does no rendering of its own, so hosts should call this on every
// resize.
func (e *Engine) SetViewportHeight(rows int) { e.viewportHeight = rows }

// LoadFile replaces the buffer content with text, as if a new file had
// been opened. Per the spec, loading a file clears both undo stacks.
func (e *Engine) LoadFile(text string) {
	e.buf.SetText(text)
	e.buf.MarkSaved()
	e.cursor = cursor.Position{}
	e.undo.Clear(undo.State{Lines: e.buf.Snapshot(), Cursor: e.cursor})
}

// ProcessKey is the engine's sole mutation entry point. key is either a
// single printable character, a named key ("Escape", "Return", "Back",
// "Delete", "Tab", "Left", "Right", "Up", "Down"), or a raw control byte
// ("\x12" for Ctrl-R, "\x16" for Ctrl-V); ctrl/shift/alt additionally
// report modifier state for the named/printable forms. It returns the
// ordered list of events the host must drain before calling again.
func (e *Engine) ProcessKey(key string, ctrl, shift, alt bool) []event.Event {
	return e.processKeyInternal(key, ctrl, shift, alt, 0)
}

func (e *Engine) processKeyInternal(key string, ctrl, shift, alt bool, depth int) []event.Event {
	if depth > maxMacroDepth {
		return nil
	}
	if e.macroRecording != 0 && e.mode == Normal && key == "q" && !ctrl && len(e.curCommandKeys) == 0 {
		reg := e.macroRecording
		e.registersMacro[reg] = e.macroKeys
		e.macroRecording = 0
		e.macroKeys = nil
		log.Debug(log.CatMacro, "stopped recording", "register", string(reg), "keys", len(e.registersMacro[reg]))
		return []event.Event{event.NewStatusMessage("recorded @" + string(reg))}
	}

	wasRecording := e.macroRecording != 0
	var events []event.Event
	switch {
	case e.mode == Insert || e.mode == Replace:
		events = e.handleInsertKey(key, ctrl, shift, alt)
	case e.mode == Command || e.mode == SearchForward || e.mode == SearchBackward:
		events = e.handleCommandLineKey(key, ctrl, shift, alt)
	default:
		events = e.handleNormalKey(key, ctrl, shift, alt, depth)
	}

	log.Debug(log.CatDispatch, "key processed", "key", key, "mode", e.mode.String(), "events", len(events))

	if wasRecording && e.macroRecording != 0 {
		e.macroKeys = append(e.macroKeys, keyTok{key, ctrl, shift, alt})
	}
	return events
}

// normalizeKey maps named keys and Ctrl-chords onto the single-token
// alphabet the Command Parser understands, per spec §6: raw control
// bytes and ctrl=true combinations must both resolve to the same token.
func normalizeKey(key string, ctrl, shift, alt bool) string {
	if ctrl {
		switch key {
		case "r":
			return "<C-r>"
		case "v":
			return "<C-v>"
		case "o":
			return "<C-o>"
		case "i":
			return "<C-i>"
		}
	}
	switch key {
	case "\x12":
		return "<C-r>"
	case "\x16":
		return "<C-v>"
	case "\x0f":
		return "<C-o>"
	case "Escape":
		return "Escape"
	case "Return":
		return "+"
	case "Back":
		return "h"
	case "Delete":
		return "x"
	case "Tab":
		return "\t"
	case "Left":
		return "h"
	case "Right":
		return "l"
	case "Up":
		return "k"
	case "Down":
		return "j"
	}
	return key
}

func (e *Engine) handleNormalKey(key string, ctrl, shift, alt bool, depth int) []event.Event {
	token := normalizeKey(key, ctrl, shift, alt)

	if e.mode != Normal {
		if token == "Escape" {
			e.mode = Normal
			return e.modeChanged()
		}
		return e.handleVisualKey(token, depth)
	}

	if token == "Escape" {
		e.parser.Reset()
		e.curCommandKeys = nil
		return nil
	}

	e.curCommandKeys = append(e.curCommandKeys, keyTok{key, ctrl, shift, alt})
	state, cmd := e.parser.Feed(token)
	switch state {
	case parser.Incomplete:
		return nil
	case parser.Invalid:
		e.curCommandKeys = nil
		return nil
	default:
		keys := e.curCommandKeys
		e.curCommandKeys = nil
		return e.dispatch(cmd, keys, depth)
	}
}

func (e *Engine) dispatch(cmd *parser.ParsedCommand, keys []keyTok, depth int) []event.Event {
	var events []event.Event
	if cmd.Operator != 0 {
		events = e.runOperator(cmd)
	} else {
		events = e.runStandalone(cmd, depth)
	}
	e.recordDotState(cmd, keys)
	return events
}

func isInsertEntering(cmd *parser.ParsedCommand) bool {
	if cmd.Operator == 'c' {
		return true
	}
	switch cmd.Motion {
	case "i", "a", "A", "I", "o", "O", "R":
		return true
	}
	return false
}

func isImmediatelyMutating(cmd *parser.ParsedCommand) bool {
	if cmd.Operator != 0 && cmd.Operator != 'y' && cmd.Operator != 'c' {
		return true
	}
	switch cmd.Motion {
	case "x", "X", "p", "P", "r", "~", "J":
		return true
	}
	return false
}

func (e *Engine) recordDotState(cmd *parser.ParsedCommand, keys []keyTok) {
	switch {
	case isInsertEntering(cmd):
		e.dotKeys = append([]keyTok{}, keys...)
		e.dotPending = true
	case isImmediatelyMutating(cmd):
		e.lastChange = append([]keyTok{}, keys...)
	}
}

// runStandalone executes a ParsedCommand with no operator: either a
// standalone action (i, x, p, u, ., ...) or a bare motion.
func (e *Engine) runStandalone(cmd *parser.ParsedCommand, depth int) []event.Event {
	count := effectiveCount(cmd.Count)
	switch cmd.Motion {
	case "i":
		e.mode = Insert
		return e.modeChanged()
	case "I":
		e.setCursor(cursor.Position{Line: e.cursor.Line, Column: e.firstNonBlankCol(e.cursor.Line)})
		e.mode = Insert
		return append(e.cursorMoved(), e.modeChanged()...)
	case "a":
		n := e.buf.GetLineLength(e.cursor.Line)
		col := e.cursor.Column
		if n > 0 {
			col++
		}
		e.cursor = cursor.Position{Line: e.cursor.Line, Column: col}
		e.mode = Insert
		return append(e.cursorMoved(), e.modeChanged()...)
	case "A":
		e.cursor = cursor.Position{Line: e.cursor.Line, Column: e.buf.GetLineLength(e.cursor.Line)}
		e.mode = Insert
		return append(e.cursorMoved(), e.modeChanged()...)
	case "o":
		indent := ""
		if e.opts.AutoIndent {
			indent = leadingWhitespace(e.buf.GetLine(e.cursor.Line))
		}
		e.buf.InsertLines(e.cursor.Line, []string{indent})
		e.cursor = cursor.Position{Line: e.cursor.Line + 1, Column: buffer.GraphemeCount(indent)}
		e.mode = Insert
		return append(e.textAndCursor(), e.modeChanged()...)
	case "O":
		indent := ""
		if e.opts.AutoIndent {
			indent = leadingWhitespace(e.buf.GetLine(e.cursor.Line))
		}
		e.buf.InsertLines(e.cursor.Line-1, []string{indent})
		e.cursor = cursor.Position{Line: e.cursor.Line, Column: buffer.GraphemeCount(indent)}
		e.mode = Insert
		return append(e.textAndCursor(), e.modeChanged()...)
	case "R":
		e.mode = Replace
		return e.modeChanged()
	case "x":
		return e.deleteForward(cmd.Register, count)
	case "X":
		return e.deleteBackward(cmd.Register, count)
	case "p":
		return e.paste(cmd.Register, count, true)
	case "P":
		return e.paste(cmd.Register, count, false)
	case "u":
		return e.runUndo()
	case "<C-r>":
		return e.runRedo()
	case ".":
		return e.repeatLastChange(depth)
	case "J":
		return e.joinLines(count)
	case "~":
		return e.toggleCase(count)
	case "v":
		return e.enterVisual(cursor.Character)
	case "V":
		return e.enterVisual(cursor.Line)
	case "<C-v>":
		return e.enterVisual(cursor.Block)
	case ":":
		return e.enterCommandMode(Command)
	case "/":
		return e.enterCommandMode(SearchForward)
	case "?":
		return e.enterCommandMode(SearchBackward)
	case "r":
		return e.replaceChar(cmd.FindChar, count)
	case "m":
		if len(cmd.FindChar) > 0 {
			e.marks[rune(cmd.FindChar[0])] = e.cursor
		}
		return nil
	case "`", "'":
		return e.jumpToMark(cmd)
	case "<C-o>":
		return e.jumpBack()
	case "<C-i>":
		return e.jumpForward()
	case "q":
		if len(cmd.FindChar) > 0 {
			reg := rune(cmd.FindChar[0])
			e.macroRecording = reg
			e.macroKeys = nil
			return []event.Event{event.NewStatusMessage("recording @" + string(reg))}
		}
		return nil
	case "@":
		if len(cmd.FindChar) == 0 {
			return nil
		}
		reg := rune(cmd.FindChar[0])
		if reg == '@' {
			reg = e.lastMacroReg
		}
		if reg == 0 {
			return nil
		}
		return e.replayMacro(reg, count, depth+1)
	case "zz":
		return []event.Event{event.NewViewportAlignRequested(event.Center)}
	case "zt":
		return []event.Event{event.NewViewportAlignRequested(event.Top)}
	case "zb":
		return []event.Event{event.NewViewportAlignRequested(event.Bottom)}
	default:
		return e.runMotion(cmd, count)
	}
}

func (e *Engine) runMotion(cmd *parser.ParsedCommand, count int) []event.Event {
	m, ok := e.computeMotion(cmd, count)
	if !ok {
		if (cmd.Motion == "n" || cmd.Motion == "N") && e.searchPattern != "" {
			return []event.Event{event.NewStatusMessage("E486: Pattern not found: " + e.searchPattern)}
		}
		return nil
	}
	switch cmd.Motion {
	case "j", "k", "gj", "gk":
		e.setCursorVertical(m.Target)
	case "$":
		e.setCursorMax(m.Target)
	default:
		e.setCursor(m.Target)
	}
	return e.cursorMoved()
}

func (e *Engine) computeMotion(cmd *parser.ParsedCommand, count int) (motion.Motion, bool) {
	switch cmd.Motion {
	case "f", "F", "t", "T":
		forward := cmd.Motion == "f" || cmd.Motion == "F"
		before := cmd.Motion == "t" || cmd.Motion == "T"
		m, ok := motion.FindChar(e.buf, e.cursor, cmd.FindChar, forward, before, count)
		if ok {
			e.lastFind = motion.LastFind{Char: cmd.FindChar, Forward: forward, Before: before, Set: true}
		}
		return m, ok
	case ";", ",":
		return motion.RepeatFind(e.buf, e.cursor, e.lastFind, cmd.Motion == ";", count)
	case "n", "N":
		return motion.Search(e.buf, e.cursor, e.motionContext(count), cmd.Motion == "n")
	case "gg", "G", "H", "M", "L", "|":
		// These read ctx.Count directly to tell "no count given" apart from
		// an explicit count of 1 (e.g. bare G goes to the last line, "1G"
		// goes to the first) — every other motion instead re-derives a
		// minimum of 1 internally via effectiveCount.
		raw := cmd.Count
		if !cmd.HasCount {
			raw = 0
		}
		return motion.Compute(e.buf, e.cursor, cmd.Motion, e.motionContext(raw))
	default:
		return motion.Compute(e.buf, e.cursor, cmd.Motion, e.motionContext(count))
	}
}

func (e *Engine) motionContext(count int) motion.Context {
	pc := e.preferredCol
	if e.preferredColMax {
		pc = 1 << 30
	}
	return motion.Context{
		Count:          count,
		PreferredCol:   pc,
		LastFind:       e.lastFind,
		SearchPattern:  e.searchPattern,
		SearchForward:  e.searchForward,
		IgnoreCase:     e.opts.IgnoreCase,
		SmartCase:      e.opts.SmartCase,
		WrapScan:       e.opts.WrapScan,
		ViewportHeight: e.viewportHeight,
	}
}

// --- operator-motion composition (spec §4.5) ---

func (e *Engine) runOperator(cmd *parser.ParsedCommand) []event.Event {
	count := effectiveCount(cmd.Count)
	op := cmd.Operator

	if cmd.LinewiseForced {
		startLine := e.cursor.Line
		endLine := startLine + count - 1
		if endLine > e.buf.LineCount()-1 {
			endLine = e.buf.LineCount() - 1
		}
		return e.applyLinewiseOperator(op, startLine, endLine, cmd.Register)
	}

	if cmd.Motion == "textobject" {
		s, en, found := motion.FindTextObject(e.buf, e.cursor, cmd.TextObjectObj, cmd.TextObjectIn)
		if !found {
			return nil
		}
		return e.applyCharOperator(op, s, cursor.Position{Line: en.Line, Column: en.Column + 1}, cmd.Register)
	}

	m, ok := e.computeMotion(cmd, count)
	if !ok {
		return nil
	}
	start, end := cursor.Min(e.cursor, m.Target), cursor.Max(e.cursor, m.Target)
	switch m.Kind {
	case motion.Linewise:
		return e.applyLinewiseOperator(op, start.Line, end.Line, cmd.Register)
	case motion.Inclusive:
		return e.applyCharOperator(op, start, cursor.Position{Line: end.Line, Column: end.Column + 1}, cmd.Register)
	default:
		return e.applyCharOperator(op, start, end, cmd.Register)
	}
}

func (e *Engine) applyCharOperator(op rune, start, end cursor.Position, reg rune) []event.Event {
	switch op {
	case 'd':
		text := e.deleteCharRange(start, end)
		e.setRegisters(reg, text, register.Charwise, false)
		e.setCursor(start)
		e.pushUndo()
		return e.textAndCursor()
	case 'c':
		text := e.deleteCharRange(start, end)
		e.setRegisters(reg, text, register.Charwise, false)
		e.setCursor(start)
		e.mode = Insert
		return append(e.textAndCursor(), e.modeChanged()...)
	case 'y':
		text := e.extractCharRange(start, end)
		e.setRegisters(reg, text, register.Charwise, true)
		e.setCursor(start)
		return e.cursorMoved()
	case '>', '<', '=':
		return e.applyLinewiseOperator(op, start.Line, end.Line, reg)
	}
	return nil
}

func (e *Engine) applyLinewiseOperator(op rune, startLine, endLine int, reg rune) []event.Event {
	switch op {
	case 'd':
		text := e.deleteLinesRange(startLine, endLine)
		e.setRegisters(reg, text, register.Linewise, false)
		newLine := min(startLine, e.buf.LineCount()-1)
		e.setCursor(cursor.Position{Line: newLine, Column: e.firstNonBlankCol(newLine)})
		e.pushUndo()
		return e.textAndCursor()
	case 'c':
		lines := e.buf.GetLines(startLine, endLine)
		text := strings.Join(lines, "\n") + "\n"
		e.setRegisters(reg, text, register.Linewise, false)
		if endLine > startLine {
			e.buf.DeleteLines(startLine+1, endLine)
		}
		e.buf.ReplaceLine(startLine, "")
		e.setCursor(cursor.Position{Line: startLine, Column: 0})
		e.mode = Insert
		return append(e.textAndCursor(), e.modeChanged()...)
	case 'y':
		lines := e.buf.GetLines(startLine, endLine)
		text := strings.Join(lines, "\n") + "\n"
		e.setRegisters(reg, text, register.Linewise, true)
		e.setCursor(cursor.Position{Line: startLine, Column: e.firstNonBlankCol(startLine)})
		return e.cursorMoved()
	case '>', '<':
		for l := startLine; l <= endLine; l++ {
			e.shiftLine(l, op == '>')
		}
		e.setCursor(cursor.Position{Line: startLine, Column: e.firstNonBlankCol(startLine)})
		e.pushUndo()
		return e.textAndCursor()
	case '=':
		return []event.Event{event.NewTextChanged()}
	}
	return nil
}

func (e *Engine) setRegisters(reg rune, text string, kind register.Kind, isYank bool) {
	e.registers.SetUnnamed(register.Content{Text: text, Kind: kind}, isYank)
	if reg != 0 {
		e.registers.Set(reg, register.Content{Text: text, Kind: kind})
	}
}

func (e *Engine) shiftLine(line int, indent bool) {
	text := e.buf.GetLine(line)
	if indent {
		e.buf.ReplaceLine(line, e.indentString()+text)
		return
	}
	n := e.opts.ShiftWidth
	removed := 0
	trimmed := text
	for removed < n && len(trimmed) > 0 && (trimmed[0] == ' ' || trimmed[0] == '\t') {
		trimmed = trimmed[1:]
		removed++
	}
	e.buf.ReplaceLine(line, trimmed)
}

func (e *Engine) indentString() string {
	if e.opts.ExpandTab {
		return strings.Repeat(" ", e.opts.ShiftWidth)
	}
	return "\t"
}

func (e *Engine) deleteLinesRange(startLine, endLine int) string {
	lines := e.buf.GetLines(startLine, endLine)
	text := strings.Join(lines, "\n") + "\n"
	e.buf.DeleteLines(startLine, endLine)
	return text
}

func (e *Engine) extractCharRange(start, end cursor.Position) string {
	if start.Line == end.Line {
		return buffer.SliceByGraphemes(e.buf.GetLine(start.Line), start.Column, end.Column)
	}
	var parts []string
	first := e.buf.GetLine(start.Line)
	parts = append(parts, buffer.SliceByGraphemes(first, start.Column, buffer.GraphemeCount(first)))
	for l := start.Line + 1; l < end.Line; l++ {
		parts = append(parts, e.buf.GetLine(l))
	}
	last := e.buf.GetLine(end.Line)
	parts = append(parts, buffer.SliceByGraphemes(last, 0, end.Column))
	return strings.Join(parts, "\n")
}

func (e *Engine) deleteCharRange(start, end cursor.Position) string {
	text := e.extractCharRange(start, end)
	if start.Line == end.Line {
		e.buf.DeleteRange(start.Line, start.Column, end.Column)
		return text
	}
	first := e.buf.GetLine(start.Line)
	last := e.buf.GetLine(end.Line)
	newLine := buffer.SliceByGraphemes(first, 0, start.Column) + buffer.SliceByGraphemes(last, end.Column, buffer.GraphemeCount(last))
	e.buf.ReplaceLine(start.Line, newLine)
	if end.Line > start.Line {
		e.buf.DeleteLines(start.Line+1, end.Line)
	}
	return text
}

// --- standalone action implementations ---

func (e *Engine) deleteForward(reg rune, count int) []event.Event {
	line := e.cursor.Line
	n := e.buf.GetLineLength(line)
	endCol := min(e.cursor.Column+count, n)
	if endCol <= e.cursor.Column {
		return nil
	}
	text := buffer.SliceByGraphemes(e.buf.GetLine(line), e.cursor.Column, endCol)
	e.buf.DeleteRange(line, e.cursor.Column, endCol)
	e.setRegisters(reg, text, register.Charwise, false)
	e.setCursor(cursor.Position{Line: line, Column: e.cursor.Column})
	e.pushUndo()
	return e.textAndCursor()
}

func (e *Engine) deleteBackward(reg rune, count int) []event.Event {
	line := e.cursor.Line
	startCol := max(e.cursor.Column-count, 0)
	if startCol == e.cursor.Column {
		return nil
	}
	text := buffer.SliceByGraphemes(e.buf.GetLine(line), startCol, e.cursor.Column)
	e.buf.DeleteRange(line, startCol, e.cursor.Column)
	e.setRegisters(reg, text, register.Charwise, false)
	e.setCursor(cursor.Position{Line: line, Column: startCol})
	e.pushUndo()
	return e.textAndCursor()
}

func (e *Engine) replaceChar(ch string, count int) []event.Event {
	if ch == "" {
		return nil
	}
	line := e.cursor.Line
	n := e.buf.GetLineLength(line)
	if e.cursor.Column+count > n {
		return nil
	}
	e.buf.DeleteRange(line, e.cursor.Column, e.cursor.Column+count)
	e.buf.InsertText(line, e.cursor.Column, strings.Repeat(ch, count))
	e.setCursor(cursor.Position{Line: line, Column: e.cursor.Column + count - 1})
	e.pushUndo()
	return e.textAndCursor()
}

func (e *Engine) toggleCase(count int) []event.Event {
	line := e.cursor.Line
	n := buffer.GraphemeCount(e.buf.GetLine(line))
	col := e.cursor.Column
	changed := false
	for i := 0; i < count && col < n; i++ {
		g := buffer.SliceByGraphemes(e.buf.GetLine(line), col, col+1)
		e.buf.DeleteRange(line, col, col+1)
		e.buf.InsertText(line, col, flipCase(g))
		col++
		changed = true
	}
	if !changed {
		return nil
	}
	maxCol := buffer.GraphemeCount(e.buf.GetLine(line)) - 1
	newCol := col
	if newCol > 0 {
		newCol--
	}
	if newCol > maxCol {
		newCol = max(maxCol, 0)
	}
	e.setCursor(cursor.Position{Line: line, Column: newCol})
	e.pushUndo()
	return e.textAndCursor()
}

func flipCase(s string) string {
	r := []rune(s)
	for i, c := range r {
		switch {
		case unicode.IsUpper(c):
			r[i] = unicode.ToLower(c)
		case unicode.IsLower(c):
			r[i] = unicode.ToUpper(c)
		}
	}
	return string(r)
}

func (e *Engine) joinLines(count int) []event.Event {
	times := count
	if times < 2 {
		times = 2
	}
	line := e.cursor.Line
	joinCol := -1
	for i := 0; i < times-1 && line < e.buf.LineCount()-1; i++ {
		cur := e.buf.GetLine(line)
		next := strings.TrimLeft(e.buf.GetLine(line+1), " \t")
		sep := " "
		if cur == "" || next == "" || strings.HasSuffix(cur, " ") {
			sep = ""
		}
		joinCol = buffer.GraphemeCount(cur)
		e.buf.ReplaceLine(line, cur+sep+next)
		e.buf.DeleteLines(line+1, line+1)
	}
	if joinCol < 0 {
		return nil
	}
	e.setCursor(cursor.Position{Line: line, Column: joinCol})
	e.pushUndo()
	return e.textAndCursor()
}

func (e *Engine) paste(reg rune, count int, after bool) []event.Event {
	c := e.registers.Get(reg)
	if c.Text == "" {
		return nil
	}
	switch c.Kind {
	case register.Linewise:
		lines := strings.Split(strings.TrimSuffix(c.Text, "\n"), "\n")
		var rep []string
		for i := 0; i < count; i++ {
			rep = append(rep, lines...)
		}
		insertAfter := e.cursor.Line
		if !after {
			insertAfter = e.cursor.Line - 1
		}
		e.buf.InsertLines(insertAfter, rep)
		target := e.cursor.Line
		if after {
			target++
		}
		e.setCursor(cursor.Position{Line: target, Column: e.firstNonBlankCol(target)})
	default:
		text := strings.Repeat(c.Text, count)
		col := e.cursor.Column
		if after && e.buf.GetLineLength(e.cursor.Line) > 0 {
			col++
		}
		if strings.Contains(text, "\n") {
			e.pasteMultilineCharwise(text, e.cursor.Line, col)
		} else {
			e.buf.InsertText(e.cursor.Line, col, text)
			newCol := col + buffer.GraphemeCount(text) - 1
			if newCol < 0 {
				newCol = 0
			}
			e.setCursor(cursor.Position{Line: e.cursor.Line, Column: newCol})
		}
	}
	e.pushUndo()
	return e.textAndCursor()
}

func (e *Engine) pasteMultilineCharwise(text string, line, col int) {
	parts := strings.Split(text, "\n")
	cur := e.buf.GetLine(line)
	prefix := buffer.SliceByGraphemes(cur, 0, col)
	suffix := buffer.SliceByGraphemes(cur, col, buffer.GraphemeCount(cur))
	newFirst := prefix + parts[0]
	var middle []string
	if len(parts) > 2 {
		middle = parts[1 : len(parts)-1]
	}
	last := parts[len(parts)-1] + suffix
	e.buf.ReplaceLine(line, newFirst)
	insertLines := append(append([]string{}, middle...), last)
	e.buf.InsertLines(line, insertLines)
	e.setCursor(cursor.Position{Line: line + len(parts) - 1, Column: buffer.GraphemeCount(parts[len(parts)-1])})
}

func (e *Engine) runUndo() []event.Event {
	st, ok := e.undo.Undo()
	if !ok {
		return []event.Event{event.NewStatusMessage("Already at oldest change")}
	}
	e.buf.RestoreSnapshot(st.Lines)
	e.cursor = e.buf.ClampCursor(st.Cursor, false)
	return e.textAndCursor()
}

func (e *Engine) runRedo() []event.Event {
	st, ok := e.undo.Redo()
	if !ok {
		return []event.Event{event.NewStatusMessage("Already at newest change")}
	}
	e.buf.RestoreSnapshot(st.Lines)
	e.cursor = e.buf.ClampCursor(st.Cursor, false)
	return e.textAndCursor()
}

func (e *Engine) repeatLastChange(depth int) []event.Event {
	if len(e.lastChange) == 0 {
		return nil
	}
	var all []event.Event
	for _, k := range e.lastChange {
		all = append(all, e.processKeyInternal(k.key, k.ctrl, k.shift, k.alt, depth+1)...)
	}
	return all
}

func (e *Engine) replayMacro(reg rune, count int, depth int) []event.Event {
	if depth > maxMacroDepth {
		return nil
	}
	keys, ok := e.registersMacro[reg]
	if !ok {
		return nil
	}
	e.lastMacroReg = reg
	var all []event.Event
	for i := 0; i < count; i++ {
		for _, k := range keys {
			all = append(all, e.processKeyInternal(k.key, k.ctrl, k.shift, k.alt, depth)...)
		}
	}
	return all
}

func (e *Engine) jumpToMark(cmd *parser.ParsedCommand) []event.Event {
	if len(cmd.FindChar) == 0 {
		return nil
	}
	reg := rune(cmd.FindChar[0])
	target, ok := e.marks[reg]
	if !ok {
		return []event.Event{event.NewStatusMessage("E20: Mark not set")}
	}
	e.addJump(e.cursor)
	if cmd.Motion == "'" {
		target.Column = e.firstNonBlankCol(target.Line)
	}
	e.setCursor(target)
	return e.cursorMoved()
}

func (e *Engine) addJump(pos cursor.Position) {
	if len(e.jumps) > 0 && e.jumps[len(e.jumps)-1].Equal(pos) {
		return
	}
	e.jumps = append(e.jumps[:e.jumpIdx], pos)
	if len(e.jumps) > 100 {
		e.jumps = e.jumps[len(e.jumps)-100:]
	}
	e.jumpIdx = len(e.jumps)
}

func (e *Engine) jumpBack() []event.Event {
	if e.jumpIdx == 0 {
		return nil
	}
	if e.jumpIdx == len(e.jumps) {
		e.jumps = append(e.jumps, e.cursor)
	}
	e.jumpIdx--
	e.setCursor(e.jumps[e.jumpIdx])
	return e.cursorMoved()
}

func (e *Engine) jumpForward() []event.Event {
	if e.jumpIdx >= len(e.jumps)-1 {
		return nil
	}
	e.jumpIdx++
	e.setCursor(e.jumps[e.jumpIdx])
	return e.cursorMoved()
}

// --- visual mode (spec §4.5 "Visual mode") ---

func (e *Engine) enterVisual(kind cursor.SelectionKind) []event.Event {
	e.visualAnchor = e.cursor
	switch kind {
	case cursor.Line:
		e.mode = VisualLine
	case cursor.Block:
		e.mode = VisualBlock
	default:
		e.mode = Visual
	}
	return e.modeChanged()
}

func (e *Engine) enterCommandMode(m Mode) []event.Event {
	e.mode = m
	e.cmdline = ""
	return append(e.modeChanged(), event.NewCommandLineChanged(""))
}

// handleVisualKey implements the (simplified) visual-mode grammar: a
// small direct switch rather than the Normal-mode operator+motion
// Command Parser, since visual operators always act on the existing
// selection instead of composing with a following motion key. Supports
// the common single-key motions (h,l,j,k,0,^,$,w,W,b,B,e,E,{,},%,H,M,L,
// +,-,_,|,G,n,N,;,,); f/F/t/T, g-prefixed motions, and text objects are
// left to Normal-mode usage.
func (e *Engine) handleVisualKey(token string, depth int) []event.Event {
	if len(token) == 1 && token[0] >= '1' && token[0] <= '9' {
		e.visualCount = e.visualCount*10 + int(token[0]-'0')
		return nil
	}
	if token == "0" && e.visualCount > 0 {
		e.visualCount *= 10
		return nil
	}
	rawVisualCount := e.visualCount
	count := effectiveCount(e.visualCount)
	e.visualCount = 0

	switch token {
	case "v":
		if e.mode == Visual {
			e.mode = Normal
		} else {
			e.mode = Visual
		}
		return e.modeChanged()
	case "V":
		if e.mode == VisualLine {
			e.mode = Normal
		} else {
			e.mode = VisualLine
		}
		return e.modeChanged()
	case "<C-v>":
		if e.mode == VisualBlock {
			e.mode = Normal
		} else {
			e.mode = VisualBlock
		}
		return e.modeChanged()
	case "o":
		e.visualAnchor, e.cursor = e.cursor, e.visualAnchor
		return append(e.selectionChanged(), e.cursorMoved()...)
	case "d", "x":
		return e.applyVisualOperator('d')
	case "y":
		return e.applyVisualOperator('y')
	case "c", "s":
		return e.applyVisualOperator('c')
	case ">":
		return e.applyVisualOperator('>')
	case "<":
		return e.applyVisualOperator('<')
	case "=":
		return e.applyVisualOperator('=')
	case "~", "u", "U":
		return e.applyVisualCaseOp(token)
	case ":":
		e.mode = Command
		e.cmdline = ""
		return append(e.modeChanged(), event.NewCommandLineChanged(""))
	default:
		m, ok := e.computeMotionToken(token, count, rawVisualCount)
		if !ok {
			return nil
		}
		e.cursor = e.buf.ClampCursor(m.Target, false)
		return append(e.selectionChanged(), e.cursorMoved()...)
	}
}

func (e *Engine) computeMotionToken(token string, count, rawCount int) (motion.Motion, bool) {
	switch token {
	case "n", "N":
		return motion.Search(e.buf, e.cursor, e.motionContext(count), token == "n")
	case ";", ",":
		return motion.RepeatFind(e.buf, e.cursor, e.lastFind, token == ";", count)
	case "gg", "G", "H", "M", "L", "|":
		return motion.Compute(e.buf, e.cursor, token, e.motionContext(rawCount))
	default:
		return motion.Compute(e.buf, e.cursor, token, e.motionContext(count))
	}
}

func (e *Engine) visualSelectionRange() (cursor.Position, cursor.Position) {
	s := cursor.Min(e.visualAnchor, e.cursor)
	en := cursor.Max(e.visualAnchor, e.cursor)
	return s, cursor.Position{Line: en.Line, Column: en.Column + 1}
}

func (e *Engine) applyVisualOperator(op rune) []event.Event {
	start, end := e.visualSelectionRange()
	linewise := e.mode == VisualLine
	e.mode = Normal
	if linewise {
		return e.applyLinewiseOperator(op, start.Line, end.Line, 0)
	}
	return e.applyCharOperator(op, start, end, 0)
}

func transformCase(token, s string) string {
	switch token {
	case "u":
		return strings.ToLower(s)
	case "U":
		return strings.ToUpper(s)
	default:
		return flipCase(s)
	}
}

func (e *Engine) applyVisualCaseOp(token string) []event.Event {
	start, end := e.visualSelectionRange()
	linewise := e.mode == VisualLine
	e.mode = Normal
	switch {
	case linewise:
		for l := start.Line; l <= end.Line; l++ {
			e.buf.ReplaceLine(l, transformCase(token, e.buf.GetLine(l)))
		}
	case start.Line == end.Line:
		text := buffer.SliceByGraphemes(e.buf.GetLine(start.Line), start.Column, end.Column)
		e.buf.DeleteRange(start.Line, start.Column, end.Column)
		e.buf.InsertText(start.Line, start.Column, transformCase(token, text))
	default:
		text := e.extractCharRange(start, end)
		e.deleteCharRange(start, end)
		e.pasteMultilineCharwise(transformCase(token, text), start.Line, start.Column)
	}
	e.setCursor(start)
	e.pushUndo()
	return e.textAndCursor()
}

func (e *Engine) selectionChanged() []event.Event {
	kind := cursor.Character
	switch e.mode {
	case VisualLine:
		kind = cursor.Line
	case VisualBlock:
		kind = cursor.Block
	}
	sel := cursor.Selection{Anchor: e.visualAnchor, Head: e.cursor, Kind: kind}
	return []event.Event{event.NewSelectionChanged(&sel)}
}

// --- Insert/Replace mode ---

func (e *Engine) handleInsertKey(key string, ctrl, shift, alt bool) []event.Event {
	if e.dotPending {
		e.dotKeys = append(e.dotKeys, keyTok{key, ctrl, shift, alt})
	}
	switch key {
	case "Escape":
		e.cursor = e.buf.ClampCursor(e.cursor, false)
		e.mode = Normal
		e.pushUndo()
		if e.dotPending {
			e.lastChange = e.dotKeys
			e.dotKeys = nil
			e.dotPending = false
		}
		return append(e.cursorMoved(), e.modeChanged()...)
	case "Return":
		e.buf.BreakLine(e.cursor.Line, e.cursor.Column)
		indent := ""
		if e.opts.AutoIndent {
			indent = leadingWhitespace(e.buf.GetLine(e.cursor.Line))
			if indent != "" {
				e.buf.InsertText(e.cursor.Line+1, 0, indent)
			}
		}
		e.cursor = cursor.Position{Line: e.cursor.Line + 1, Column: buffer.GraphemeCount(indent)}
		return e.textAndCursor()
	case "Back":
		if e.cursor.Column > 0 {
			e.buf.DeleteRange(e.cursor.Line, e.cursor.Column-1, e.cursor.Column)
			e.cursor.Column--
		} else if e.cursor.Line > 0 {
			prevLen := e.buf.GetLineLength(e.cursor.Line - 1)
			e.buf.JoinLines(e.cursor.Line - 1)
			e.cursor = cursor.Position{Line: e.cursor.Line - 1, Column: prevLen}
		}
		return e.textAndCursor()
	case "Delete":
		e.buf.DeleteChar(e.cursor.Line, e.cursor.Column)
		return e.textAndCursor()
	case "Tab":
		text := "\t"
		if e.opts.ExpandTab {
			text = strings.Repeat(" ", e.opts.TabStop)
		}
		if e.mode == Replace {
			e.overwriteText(text)
		} else {
			e.buf.InsertText(e.cursor.Line, e.cursor.Column, text)
		}
		e.cursor.Column += buffer.GraphemeCount(text)
		return e.textAndCursor()
	case "Left":
		e.cursor = e.buf.ClampCursor(cursor.Position{Line: e.cursor.Line, Column: e.cursor.Column - 1}, true)
		return e.cursorMoved()
	case "Right":
		e.cursor = e.buf.ClampCursor(cursor.Position{Line: e.cursor.Line, Column: e.cursor.Column + 1}, true)
		return e.cursorMoved()
	case "Up":
		if e.cursor.Line > 0 {
			e.cursor = e.buf.ClampCursor(cursor.Position{Line: e.cursor.Line - 1, Column: e.cursor.Column}, true)
		}
		return e.cursorMoved()
	case "Down":
		if e.cursor.Line < e.buf.LineCount()-1 {
			e.cursor = e.buf.ClampCursor(cursor.Position{Line: e.cursor.Line + 1, Column: e.cursor.Column}, true)
		}
		return e.cursorMoved()
	default:
		if key == "" {
			return nil
		}
		if e.mode == Replace {
			e.overwriteText(key)
		} else {
			e.buf.InsertText(e.cursor.Line, e.cursor.Column, key)
		}
		e.cursor.Column += buffer.GraphemeCount(key)
		return e.textAndCursor()
	}
}

func (e *Engine) overwriteText(text string) {
	n := buffer.GraphemeCount(text)
	lineLen := e.buf.GetLineLength(e.cursor.Line)
	endCol := min(e.cursor.Column+n, lineLen)
	if endCol > e.cursor.Column {
		e.buf.DeleteRange(e.cursor.Line, e.cursor.Column, endCol)
	}
	e.buf.InsertText(e.cursor.Line, e.cursor.Column, text)
}

// --- command-line / search mode ---

func (e *Engine) handleCommandLineKey(key string, ctrl, shift, alt bool) []event.Event {
	switch key {
	case "Escape":
		e.mode = Normal
		e.cmdline = ""
		return append(e.modeChanged(), event.NewCommandLineChanged(""))
	case "Back":
		if e.cmdline == "" {
			e.mode = Normal
			return append(e.modeChanged(), event.NewCommandLineChanged(""))
		}
		r := []rune(e.cmdline)
		e.cmdline = string(r[:len(r)-1])
		events := []event.Event{event.NewCommandLineChanged(e.cmdline)}
		if e.mode != Command && e.opts.IncSearch {
			events = append(events, e.previewSearch()...)
		}
		return events
	case "Return":
		return e.commitCommandLine()
	case "Up":
		if e.mode == Command {
			if prev, ok := e.excmd.History.Prev(); ok {
				e.cmdline = prev
			}
		}
		return []event.Event{event.NewCommandLineChanged(e.cmdline)}
	case "Down":
		if e.mode == Command {
			if next, ok := e.excmd.History.Next(); ok {
				e.cmdline = next
			}
		}
		return []event.Event{event.NewCommandLineChanged(e.cmdline)}
	default:
		if key == "" || len(key) > 1 && !ctrl {
			return nil
		}
		e.cmdline += key
		events := []event.Event{event.NewCommandLineChanged(e.cmdline)}
		if e.mode != Command && e.opts.IncSearch {
			events = append(events, e.previewSearch()...)
		}
		return events
	}
}

func (e *Engine) previewSearch() []event.Event {
	if e.cmdline == "" {
		return nil
	}
	forward := e.mode == SearchForward
	ignoreCase := e.opts.IgnoreCase
	if e.opts.SmartCase && hasUpper(e.cmdline) {
		ignoreCase = false
	}
	m, ok := e.buf.FindNext(e.cmdline, e.cursor, forward, ignoreCase, e.opts.WrapScan)
	if !ok {
		return nil
	}
	return []event.Event{event.NewCursorMoved(cursor.Position{Line: m.Line, Column: m.StartCol})}
}

func (e *Engine) commitCommandLine() []event.Event {
	line := e.cmdline
	prevMode := e.mode
	e.cmdline = ""
	e.mode = Normal
	events := append(e.modeChanged(), event.NewCommandLineChanged(""))

	if prevMode == Command {
		out, err := e.excmd.Execute(e.buf, e.opts, e.cursor.Line+1, line)
		if err != nil {
			return append(events, event.NewStatusMessage("E: "+err.Error()))
		}
		return append(events, out...)
	}

	if line == "" {
		return events
	}
	forward := prevMode == SearchForward
	e.searchPattern = line
	e.searchForward = forward
	ignoreCase := e.opts.IgnoreCase
	if e.opts.SmartCase && hasUpper(line) {
		ignoreCase = false
	}
	matches := 0
	if e.opts.HLSearch {
		matches = len(e.buf.FindAll(line, ignoreCase))
	}
	if m, ok := e.buf.FindNext(line, e.cursor, forward, ignoreCase, e.opts.WrapScan); ok {
		e.setCursor(cursor.Position{Line: m.Line, Column: m.StartCol})
		events = append(events, e.cursorMoved()...)
	} else {
		events = append(events, event.NewStatusMessage("E486: Pattern not found: "+line))
	}
	if e.opts.HLSearch {
		events = append(events, event.NewSearchResultChanged(line, matches))
	}
	return events
}

// --- shared helpers ---

func (e *Engine) setCursor(target cursor.Position) {
	e.cursor = e.buf.ClampCursor(target, e.mode == Insert)
	e.preferredCol = e.cursor.Column
	e.preferredColMax = false
}

func (e *Engine) setCursorVertical(target cursor.Position) {
	e.cursor = e.buf.ClampCursor(target, e.mode == Insert)
}

func (e *Engine) setCursorMax(target cursor.Position) {
	e.cursor = e.buf.ClampCursor(target, e.mode == Insert)
	e.preferredColMax = true
}

func (e *Engine) cursorMoved() []event.Event { return []event.Event{event.NewCursorMoved(e.cursor)} }
func (e *Engine) modeChanged() []event.Event { return []event.Event{event.NewModeChanged(e.mode.String())} }
func (e *Engine) textAndCursor() []event.Event {
	return []event.Event{event.NewTextChanged(), event.NewCursorMoved(e.cursor)}
}

func (e *Engine) pushUndo() {
	e.undo.Push(undo.State{Lines: e.buf.Snapshot(), Cursor: e.cursor})
	log.Debug(log.CatUndo, "pushed undo state", "line", e.cursor.Line)
}

func (e *Engine) firstNonBlankCol(line int) int {
	l := e.buf.GetLine(line)
	n := buffer.GraphemeCount(l)
	for i, g := range buffer.GraphemesInRange(l, 0, n) {
		if !buffer.IsWhitespace(g) {
			return i
		}
	}
	return 0
}

func leadingWhitespace(line string) string {
	n := buffer.GraphemeCount(line)
	var b strings.Builder
	for _, g := range buffer.GraphemesInRange(line, 0, n) {
		if !buffer.IsWhitespace(g) {
			break
		}
		b.WriteString(g)
	}
	return b.String()
}

func hasUpper(s string) bool {
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			return true
		}
	}
	return false
}

func effectiveCount(c int) int {
	if c <= 0 {
		return 1
	}
	return c
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
