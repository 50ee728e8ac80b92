package host

import tea "github.com/charmbracelet/bubbletea"

// keyToToken converts a Bubble Tea key message into the (key, ctrl, shift,
// alt) form vimengine.Engine.ProcessKey expects. Named keys map onto the
// same token strings the engine's own normalizeKey recognizes
// ("Escape", "Return", "Back", "Delete", "Tab", "Left", "Right", "Up",
// "Down"); everything else passes its rune(s) through unchanged, the way
// the teacher's vimtextarea keyToString forwards tea.KeyRunes as a plain
// string rather than its own bracket-notation for ordinary typing.
func keyToToken(msg tea.KeyMsg) (key string, ctrl, shift, alt bool) {
	alt = msg.Alt
	switch msg.Type {
	case tea.KeyEsc:
		return "Escape", false, false, alt
	case tea.KeyEnter:
		return "Return", false, false, alt
	case tea.KeyBackspace:
		return "Back", false, false, alt
	case tea.KeyDelete:
		return "Delete", false, false, alt
	case tea.KeyTab:
		return "Tab", false, false, alt
	case tea.KeyLeft:
		return "Left", false, false, alt
	case tea.KeyRight:
		return "Right", false, false, alt
	case tea.KeyUp:
		return "Up", false, false, alt
	case tea.KeyDown:
		return "Down", false, false, alt
	case tea.KeySpace:
		return " ", false, false, alt
	case tea.KeyCtrlR:
		return "r", true, false, alt
	case tea.KeyCtrlV:
		return "v", true, false, alt
	case tea.KeyCtrlO:
		return "o", true, false, alt
	case tea.KeyCtrlI:
		return "i", true, false, alt
	case tea.KeyRunes:
		if len(msg.Runes) == 0 {
			return "", false, false, alt
		}
		return string(msg.Runes), false, false, alt
	default:
		return "", false, false, alt
	}
}
