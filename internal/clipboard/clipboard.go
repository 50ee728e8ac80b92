// Package clipboard provides the system-clipboard capability registers "+"
// and "*" route through. The engine never talks to the OS clipboard
// directly; it holds a Provider and treats every call as best-effort.
package clipboard

import "github.com/atotto/clipboard"

// Provider is the capability the register store uses for the "+"/"*"
// registers. Both methods are best-effort: callers swallow errors rather
// than surface them, since a missing clipboard tool must never block an
// editing operation.
type Provider interface {
	GetText() (string, error)
	SetText(text string) error
}

// SystemProvider backs Provider with the real OS clipboard via
// github.com/atotto/clipboard (xclip/xsel/pbcopy/pbpaste/win32 underneath,
// matching the native-tool half of the teacher's SystemClipboard; unlike
// the teacher, vimcore has no terminal of its own to emit OSC 52 through,
// so that escape-sequence path is left to the host).
type SystemProvider struct{}

// NewSystemProvider constructs a Provider backed by the OS clipboard.
func NewSystemProvider() SystemProvider { return SystemProvider{} }

func (SystemProvider) GetText() (string, error) {
	return clipboard.ReadAll()
}

func (SystemProvider) SetText(text string) error {
	return clipboard.WriteAll(text)
}

// Memory is an in-process fake Provider for tests and headless runs with no
// OS clipboard available. Never returns an error.
type Memory struct {
	text string
}

// NewMemory constructs an empty in-memory clipboard.
func NewMemory() *Memory { return &Memory{} }

func (m *Memory) GetText() (string, error) { return m.text, nil }

func (m *Memory) SetText(text string) error {
	m.text = text
	return nil
}
