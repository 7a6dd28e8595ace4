package line

import "unicode"

// WrapMode selects how a logical line is broken into display rows when
// it is wider than the viewport.
type WrapMode int

const (
	// WrapNone truncates at the viewport width; no extra rows are
	// produced for this logical line.
	WrapNone WrapMode = iota
	// WrapCharacter breaks on any cell boundary once width is reached.
	WrapCharacter
	// WrapWord prefers to break at whitespace, falling back to
	// character wrapping when a single token exceeds a row.
	WrapWord
)

// rowBoundaries returns, for the given column width and wrap mode, the
// cell-index boundaries of each display row: row r spans
// cells[boundaries[r]:boundaries[r+1]]. There is always at least one row.
func rowBoundaries(cells []Cell, width int, mode WrapMode) []int {
	if width < 1 {
		width = 1
	}
	if mode == WrapNone {
		// The single row carries every cell; the renderer applies the
		// horizontal offset first and then truncates at the right edge.
		return []int{0, len(cells)}
	}

	bounds := []int{0}
	start := 0
	for start < len(cells) {
		end := breakRow(cells, start, width, mode)
		bounds = append(bounds, end)
		start = end
	}
	if len(bounds) == 1 {
		bounds = append(bounds, 0)
	}
	return bounds
}

// countWithinWidth returns how many cells starting at start fit within
// width columns, stopping one short if the next cell would straddle the
// right edge.
func countWithinWidth(cells []Cell, start, width int) int {
	col := 0
	i := start
	for i < len(cells) {
		w := cells[i].Width
		if col+w > width {
			break
		}
		col += w
		i++
	}
	return i
}

// breakRow finds the end index (exclusive) of the row starting at start.
func breakRow(cells []Cell, start, width int, mode WrapMode) int {
	limit := countWithinWidth(cells, start, width)
	if limit <= start {
		// A single cell wider than the row (e.g. a double-width glyph in
		// a width-1 viewport): always make progress.
		return start + 1
	}
	if limit == len(cells) || mode == WrapCharacter {
		return limit
	}

	// WrapWord: prefer breaking at the last whitespace boundary within
	// [start, limit). If the next cell after limit is not itself
	// whitespace and there's no whitespace to break on, fall back to
	// character wrapping (a token exceeds the row).
	for i := limit - 1; i > start; i-- {
		if isBreakableSpace(cells[i].Text) {
			return i + 1
		}
	}
	return limit
}

func isBreakableSpace(s string) bool {
	for _, r := range s {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return len(s) > 0
}
