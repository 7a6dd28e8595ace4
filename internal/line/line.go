// Package line turns raw line bytes from a file backend into styled,
// wrapped, searchable terminal rows. A Line is immutable after its cells
// are parsed; callers needing shared ownership across goroutines may copy
// the *Line pointer freely — nothing here mutates in place once parsed.
package line

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/streampager/streampager/internal/overstrike"
)

// ByteRange is a half-open [Start, End) byte range within a line's
// overstrike-decoded bytes (the coordinates Cell.ByteOffset uses), used
// both for search match overlays and for reporting matches.
type ByteRange struct {
	Start, End int
}

// Line is one logical, newline-delimited record of a file.
type Line struct {
	FileID int
	Index  int

	raw    []byte
	cells  []Cell
	parsed bool
}

// New constructs a Line over raw bytes (without the trailing newline).
// Parsing is deferred until the first call to Cells, Render, or WrapRows.
func New(fileID, index int, raw []byte) *Line {
	return &Line{FileID: fileID, Index: index, raw: raw}
}

// Raw returns the line's raw (pre-overstrike-decode, pre-SGR-parse) bytes.
func (l *Line) Raw() []byte { return l.raw }

// Cells returns the parsed cell sequence, decoding overstrike and SGR
// state on first use and memoizing the result.
func (l *Line) Cells() []Cell {
	l.ensureParsed()
	return l.cells
}

func (l *Line) ensureParsed() {
	if l.parsed {
		return
	}
	raw := l.raw
	if containsBackspace(raw) {
		raw = overstrike.Decode(raw)
	}
	l.cells = parseCells(raw)
	l.parsed = true
}

func containsBackspace(b []byte) bool {
	for _, c := range b {
		if c == '\b' {
			return true
		}
	}
	return false
}

// WrapRows returns how many display rows this line occupies at the given
// column width and wrap mode. Always at least 1.
func (l *Line) WrapRows(width int, mode WrapMode) int {
	bounds := rowBoundaries(l.Cells(), width, mode)
	return len(bounds) - 1
}

// RenderFlags controls optional overlays applied by Render.
type RenderFlags struct {
	ShowLineNumber  bool
	GutterWidth     int
	HighlightRanges []ByteRange
	SelectedMatch   *ByteRange
	WrapRow         int
	// StartCol is the horizontal scroll offset applied when mode is
	// WrapNone; wrapped modes ignore it.
	StartCol int
}

// Render produces one display row of styled text, exactly `width`
// columns wide (space-padded or truncated), for wrap row flags.WrapRow at
// the given wrap mode.
func (l *Line) Render(profile termenv.Profile, width int, mode WrapMode, flags RenderFlags) string {
	cells := l.Cells()
	bounds := rowBoundaries(cells, widthForWrap(width, flags), mode)

	gutter := ""
	if flags.ShowLineNumber {
		if flags.WrapRow == 0 {
			gutter = fmt.Sprintf("%*d ", flags.GutterWidth, l.Index+1)
		} else {
			gutter = strings.Repeat(" ", flags.GutterWidth+1)
		}
	}
	bodyWidth := width - lipgloss.Width(gutter)
	if bodyWidth < 0 {
		bodyWidth = 0
	}

	row := rowCells(cells, bounds, flags.WrapRow, mode, flags.StartCol, bodyWidth)

	var b strings.Builder
	b.WriteString(gutter)
	writeStyledCells(&b, profile, row, flags, bodyWidth)
	return b.String()
}

func widthForWrap(width int, flags RenderFlags) int {
	w := width
	if flags.ShowLineNumber {
		w -= flags.GutterWidth + 1
	}
	if w < 1 {
		w = 1
	}
	return w
}

// rowCells extracts the cell slice for one wrap row, applying the
// horizontal scroll offset in WrapNone mode.
func rowCells(cells []Cell, bounds []int, wrapRow int, mode WrapMode, startCol, bodyWidth int) []Cell {
	if wrapRow+1 >= len(bounds) {
		return nil
	}
	row := cells[bounds[wrapRow]:bounds[wrapRow+1]]
	if mode != WrapNone || startCol <= 0 {
		return row
	}
	// Skip startCol columns of the logical line (only meaningful in
	// WrapNone mode, applied against the full line, not just this row).
	col := 0
	i := 0
	for i < len(row) && col < startCol {
		col += row[i].Width
		i++
	}
	return row[i:]
}

// writeStyledCells writes the cell text for one row, applying match
// overlays and clamping/padding to exactly width columns. A double-width
// cell that would straddle the right edge is replaced by a space.
func writeStyledCells(b *strings.Builder, profile termenv.Profile, cells []Cell, flags RenderFlags, width int) {
	col := 0
	var runStyle Style
	var run strings.Builder
	flush := func() {
		if run.Len() == 0 {
			return
		}
		b.WriteString(runStyle.render(profile, run.String()))
		run.Reset()
	}

	for _, c := range cells {
		if col >= width {
			break
		}
		style := c.Style
		if overlapsAny(c, flags.HighlightRanges) {
			style = style.merge(MatchStyle)
		}
		if flags.SelectedMatch != nil && c.byteRangeOverlaps(flags.SelectedMatch.Start, flags.SelectedMatch.End) {
			style = style.merge(SelectedMatchStyle)
		}

		if col+c.Width > width {
			if !style.equal(runStyle) {
				flush()
				runStyle = style
			}
			run.WriteString(strings.Repeat(" ", width-col))
			col = width
			break
		}

		if !style.equal(runStyle) {
			flush()
			runStyle = style
		}
		run.WriteString(c.Text)
		col += c.Width
	}
	flush()

	if col < width {
		b.WriteString(strings.Repeat(" ", width-col))
	}
}

func overlapsAny(c Cell, ranges []ByteRange) bool {
	for _, r := range ranges {
		if c.byteRangeOverlaps(r.Start, r.End) {
			return true
		}
	}
	return false
}
