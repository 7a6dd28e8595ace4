// Package prompt implements the modal line editor at the bottom of a
// screen and the keymap that routes key events to named commands.
package prompt

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Kind identifies what the accepted input will be used for.
type Kind int

const (
	KindSearch Kind = iota
	KindGoto
	KindCommand
)

var (
	prefixStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ECFD65")).
			Background(lipgloss.Color("#5A56E0"))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F87"))
)

// Model is the line-editing prompt. It wraps a textinput and carries the
// prompt's kind, prefix, and any error from the last accept attempt
// (e.g. an invalid regex), which is shown while the prompt stays open.
type Model struct {
	input  textinput.Model
	kind   Kind
	prefix string
	errMsg string
	open   bool
}

// New returns a closed prompt.
func New() Model {
	ti := textinput.New()
	ti.Prompt = ""
	return Model{input: ti}
}

// Open focuses the prompt with the given kind and prefix.
func (m *Model) Open(kind Kind, prefix string) tea.Cmd {
	m.kind = kind
	m.prefix = prefix
	m.errMsg = ""
	m.open = true
	m.input.Reset()
	return m.input.Focus()
}

// Close blurs and clears the prompt.
func (m *Model) Close() {
	m.open = false
	m.errMsg = ""
	m.input.Blur()
	m.input.Reset()
}

// IsOpen reports whether the prompt is accepting input.
func (m *Model) IsOpen() bool { return m.open }

// Kind returns what the current prompt is for.
func (m *Model) Kind() Kind { return m.kind }

// Value returns the text entered so far.
func (m *Model) Value() string { return m.input.Value() }

// SetError records an error to display in the prompt area; the prompt
// remains open so the user can correct the input.
func (m *Model) SetError(msg string) {
	m.errMsg = msg
}

// Update routes printable characters, cursor motion, backspace, and
// word-delete to the text input. Enter and Esc are handled by the
// caller's keymap before this is reached.
func (m *Model) Update(msg tea.Msg) tea.Cmd {
	if !m.open {
		return nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

// SetWidth sizes the text input to the available columns.
func (m *Model) SetWidth(w int) {
	m.input.Width = w - lipgloss.Width(m.prefix) - 2
	if m.input.Width < 1 {
		m.input.Width = 1
	}
}

// View renders the prompt row.
func (m *Model) View() string {
	if !m.open {
		return ""
	}
	row := prefixStyle.Render(m.prefix) + m.input.View()
	if m.errMsg != "" {
		row += "  " + errStyle.Render(m.errMsg)
	}
	return row
}
