package line

import "github.com/muesli/termenv"

// Style carries the SGR attributes that apply to a single cell.
type Style struct {
	Fg        string
	Bg        string
	Bold      bool
	Underline bool
	Reverse   bool
}

// MatchStyle is the overlay applied to cells inside a search match range.
var MatchStyle = Style{Reverse: true}

// SelectedMatchStyle is the overlay applied to the currently selected
// search match; stronger than a plain match.
var SelectedMatchStyle = Style{Reverse: true, Bold: true}

// merge layers an overlay style (e.g. a match highlight) on top of the
// base style, returning the combined style. Overlay booleans win; colors
// from the overlay only override when set.
func (s Style) merge(overlay Style) Style {
	out := s
	if overlay.Fg != "" {
		out.Fg = overlay.Fg
	}
	if overlay.Bg != "" {
		out.Bg = overlay.Bg
	}
	out.Bold = out.Bold || overlay.Bold
	out.Underline = out.Underline || overlay.Underline
	out.Reverse = out.Reverse || overlay.Reverse
	return out
}

func (s Style) equal(o Style) bool {
	return s == o
}

// render renders text with this style using the given termenv color
// profile, so the same cell stream is portable across TrueColor,
// 256-color, and plain-ANSI terminals. The Ascii profile strips all
// styling.
func (s Style) render(profile termenv.Profile, text string) string {
	if s == (Style{}) {
		return text
	}
	out := profile.String(text)
	if s.Fg != "" {
		out = out.Foreground(profile.Color(s.Fg))
	}
	if s.Bg != "" {
		out = out.Background(profile.Color(s.Bg))
	}
	if s.Bold {
		out = out.Bold()
	}
	if s.Underline {
		out = out.Underline()
	}
	if s.Reverse {
		out = out.Reverse()
	}
	return out.String()
}
