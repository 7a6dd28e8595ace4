package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
)

var helpStyle = lipgloss.NewStyle().
	Foreground(lipgloss.AdaptiveColor{Light: "#656565", Dark: "#7D7D7D"}).
	Padding(1, 2)

// helpModel overlays the key reference. Only help-dismiss keys apply
// while it is visible; the body scrolls in a viewport.
type helpModel struct {
	vp      viewport.Model
	visible bool
}

func newHelpModel() helpModel {
	vp := viewport.New(0, 0)
	vp.SetContent(helpText())
	return helpModel{vp: vp}
}

func (h *helpModel) setSize(w, height int) {
	h.vp.Width = w
	h.vp.Height = height - 1
}

func (h *helpModel) view() string {
	return h.vp.View() + "\n" + helpStyle.Render("q/esc: close help")
}

func helpText() string {
	rows := []string{
		"",
		"  k/↑        scroll up               /      search",
		"  j/↓        scroll down             :      go to line or percent",
		"  h/←        scroll left             ./n    next match",
		"  l/→        scroll right            ,/N    previous match",
		"  b/pgup     page up                 >      next matching line",
		"  f/pgdn     page down               <      previous matching line",
		"  u          ½ page up               esc    clear search",
		"  d          ½ page down             #      toggle line numbers",
		"  g/home     go to top               w      cycle wrap mode",
		"  G/end      go to bottom            tab    next file",
		"  ?          toggle this help        q      quit",
	}
	return strings.Join(rows, "\n")
}
