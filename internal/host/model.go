// Package host wires vimengine.Engine into a Bubble Tea program, the way
// the teacher wires its command-registry vimtextarea into a bubbletea
// program via internal/app.Model: a tea.Model that forwards key messages
// into the engine and renders whatever the engine currently reports
// (buffer, cursor, mode), draining the engine's events to drive the
// save/quit/open I/O the core deliberately has none of.
package host

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/govim/vimcore/internal/clipboard"
	"github.com/govim/vimcore/internal/cursor"
	"github.com/govim/vimcore/internal/event"
	"github.com/govim/vimcore/internal/log"
	"github.com/govim/vimcore/internal/options"
	"github.com/govim/vimcore/internal/vimengine"
)

var (
	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#1A1A1A")).
			Background(lipgloss.Color("#CCCCCC")).
			Bold(true)
	cursorLineStyle   = lipgloss.NewStyle().Background(lipgloss.Color("#2A2A2A"))
	lineNumberStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#696969"))
	selectionStyle    = lipgloss.NewStyle().Background(lipgloss.Color("#44475A")).Foreground(lipgloss.Color("#F8F8F2"))
	cursorRev         = "\x1b[7m"
	cursorRevOff      = "\x1b[27m"
	errorMessageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
)

// Model is the root Bubble Tea model for the vimcore terminal demo.
type Model struct {
	engine   *vimengine.Engine
	path     string
	width    int
	height   int
	status   string
	errorMsg bool
	quitting bool
	watcher  *Watcher
	cmdInput textinput.Model
}

// New constructs a Model over the file at path (empty buffer if path does
// not exist yet) using opts and the real OS clipboard.
func New(path string, opts options.Options) (Model, error) {
	text := ""
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return Model{}, fmt.Errorf("reading %s: %w", path, err)
		}
		text = string(data)
	}
	eng := vimengine.NewEngine(text, clipboard.NewSystemProvider(), opts)

	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 78

	return Model{engine: eng, path: path, cmdInput: ti}, nil
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	if m.path == "" {
		return nil
	}
	return startWatching(m.path)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.engine.SetViewportHeight(msg.Height - 2)
		if w := msg.Width - 2; w > 0 {
			m.cmdInput.Width = w
		}
		return m, nil

	case tea.KeyMsg:
		key, ctrl, shift, alt := keyToToken(msg)
		if key == "" {
			return m, nil
		}
		events := m.engine.ProcessKey(key, ctrl, shift, alt)
		return m.handleEvents(events)

	case fileChangedMsg:
		if !m.engine.Buffer().IsModified() {
			if data, err := os.ReadFile(m.path); err == nil {
				m.engine.LoadFile(string(data))
				m.status = fmt.Sprintf("\"%s\" reloaded", m.path)
			}
		} else {
			m.status = fmt.Sprintf("\"%s\" changed on disk, buffer has unsaved edits", m.path)
			m.errorMsg = true
		}
		return m, watchNext(m.watcher)

	case watcherStartedMsg:
		m.watcher = msg.watcher
		return m, watchNext(m.watcher)

	case watcherErrorMsg:
		log.ErrorErr(log.CatWatcher, "file watcher error", msg.err, "path", m.path)
		return m, nil
	}
	return m, nil
}

// handleEvents drains the engine's event batch, performing whatever I/O
// the events request (save/quit/open) since the engine itself owns none.
func (m Model) handleEvents(events []event.Event) (tea.Model, tea.Cmd) {
	for _, ev := range events {
		switch ev.Kind {
		case event.ModeChanged:
			switch ev.Mode {
			case "Command":
				m.cmdInput.Prompt = ":"
				m.cmdInput.SetValue("")
				m.cmdInput.Focus()
			case "SearchForward":
				m.cmdInput.Prompt = "/"
				m.cmdInput.SetValue("")
				m.cmdInput.Focus()
			case "SearchBackward":
				m.cmdInput.Prompt = "?"
				m.cmdInput.SetValue("")
				m.cmdInput.Focus()
			default:
				m.cmdInput.Blur()
			}
		case event.CommandLineChanged:
			m.cmdInput.SetValue(ev.Text)
		case event.StatusMessage:
			m.status = ev.Text
			m.errorMsg = false
		case event.SaveRequested:
			path := m.path
			if ev.HasPath {
				path = ev.Path
			}
			if err := m.saveFile(path); err != nil {
				m.status = err.Error()
				m.errorMsg = true
			} else {
				m.status = fmt.Sprintf("\"%s\" written", path)
				m.errorMsg = false
			}
		case event.QuitRequested:
			m.quitting = true
			return m, tea.Quit
		case event.OpenFileRequested:
			data, err := os.ReadFile(ev.Path)
			if err != nil && !os.IsNotExist(err) {
				m.status = err.Error()
				m.errorMsg = true
				continue
			}
			m.path = ev.Path
			m.engine.LoadFile(string(data))
		}
	}
	return m, nil
}

func (m Model) saveFile(path string) error {
	log.Debug(log.CatHost, "saving file", "path", path)
	if path == "" {
		return fmt.Errorf("no file name")
	}
	if err := os.WriteFile(path, []byte(m.engine.Buffer().GetText()), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	m.engine.Buffer().MarkSaved()
	return nil
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	return m.renderBuffer() + "\n" + m.renderStatusLine()
}

func (m Model) renderBuffer() string {
	buf := m.engine.Buffer()
	cur := m.engine.Cursor()
	rows := m.height - 2
	if rows <= 0 {
		rows = buf.LineCount()
	}
	sel, hasSel := m.engine.Selection()

	var b strings.Builder
	for i := 0; i < rows && i < buf.LineCount(); i++ {
		line := buf.GetLine(i)
		if m.engine.Options().Number {
			fmt.Fprintf(&b, "%s ", lineNumberStyle.Render(fmt.Sprintf("%4d", i+1)))
		}
		rendered := renderLine(line, i, cur, hasSel, sel)
		if i == cur.Line && m.engine.Options().CursorLine {
			rendered = cursorLineStyle.Render(rendered)
		}
		b.WriteString(rendered)
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// renderLine reverse-videos the rune under the cursor with a raw ANSI
// escape (the teacher's render.go approach) and, while a visual selection
// is active, renders each selected rune through selectionStyle.
func renderLine(line string, lineNo int, cur cursor.Position, hasSel bool, sel cursor.Selection) string {
	runes := []rune(line)
	inSel := make([]bool, len(runes)+1)
	if hasSel {
		start, end := sel.Normalized()
		switch sel.Kind {
		case cursor.Line:
			if lineNo >= start.Line && lineNo <= end.Line {
				for i := range inSel {
					inSel[i] = true
				}
			}
		case cursor.Block:
			lo, hi := start.Column, end.Column
			if lo > hi {
				lo, hi = hi, lo
			}
			if lineNo >= start.Line && lineNo <= end.Line {
				for i := lo; i <= hi && i < len(inSel); i++ {
					inSel[i] = true
				}
			}
		default:
			if lineNo == start.Line && lineNo == end.Line {
				for i := start.Column; i <= end.Column && i < len(inSel); i++ {
					inSel[i] = true
				}
			} else if lineNo == start.Line {
				for i := start.Column; i < len(inSel); i++ {
					inSel[i] = true
				}
			} else if lineNo == end.Line {
				for i := 0; i <= end.Column && i < len(inSel); i++ {
					inSel[i] = true
				}
			} else if lineNo > start.Line && lineNo < end.Line {
				for i := range inSel {
					inSel[i] = true
				}
			}
		}
	}

	var b strings.Builder
	for i, r := range runes {
		cursorHere := lineNo == cur.Line && i == cur.Column
		switch {
		case cursorHere:
			b.WriteString(cursorRev)
			b.WriteRune(r)
			b.WriteString(cursorRevOff)
		case i < len(inSel) && inSel[i]:
			b.WriteString(selectionStyle.Render(string(r)))
		default:
			b.WriteRune(r)
		}
	}
	if lineNo == cur.Line && cur.Column >= len(runes) {
		b.WriteString(cursorRev + " " + cursorRevOff)
	}
	return b.String()
}

func (m Model) renderStatusLine() string {
	mode := m.engine.Mode().String()
	left := fmt.Sprintf(" %s ", mode)
	switch m.engine.Mode() {
	case vimengine.Command, vimengine.SearchForward, vimengine.SearchBackward:
		left = m.cmdInput.View()
	}
	right := m.path
	if m.engine.Buffer().IsModified() {
		right += " [+]"
	}
	style := statusBarStyle
	text := left
	if m.errorMsg {
		text = errorMessageStyle.Render(left)
	}
	if m.width > 0 {
		pad := m.width - lipgloss.Width(text) - lipgloss.Width(right)
		if pad > 0 {
			text += strings.Repeat(" ", pad)
		}
		return style.Render(text + right)
	}
	return text + right
}
