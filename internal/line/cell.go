package line

// Cell is one terminal-visible grapheme cluster: its display text, style,
// display width in columns, and the byte range it occupies in the raw
// (overstrike-decoded) line it was parsed from.
type Cell struct {
	Text       string
	Style      Style
	Width      int
	ByteOffset int
	ByteLen    int
}

// byteRangeOverlaps reports whether the cell's byte range intersects
// [start, end).
func (c Cell) byteRangeOverlaps(start, end int) bool {
	cs, ce := c.ByteOffset, c.ByteOffset+c.ByteLen
	return cs < end && ce > start
}
