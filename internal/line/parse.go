package line

import (
	"strconv"
	"strings"
	"unicode/utf8"

	runewidth "github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

const substituteGlyph = "�"

// utf8ValidClean reports whether s decodes to valid, non-replacement
// UTF-8; uniseg passes through invalid byte sequences as single-byte
// "clusters" that DecodeRuneInString reports as utf8.RuneError.
func utf8ValidClean(s string) bool {
	if !utf8.ValidString(s) {
		return false
	}
	r, size := utf8.DecodeRuneInString(s)
	return !(r == utf8.RuneError && size <= 1)
}

// parseCells decodes overstrike sequences already having been applied by
// the caller, then scans raw for CSI SGR sequences (updating the running
// style), silently discards OSC sequences (terminated by ST or BEL) and
// any other cursor-moving escape sequence, and groups the remaining
// bytes into grapheme-cluster cells carrying the style active when each
// cluster was scanned.
func parseCells(raw []byte) []Cell {
	var (
		cells []Cell
		style Style
		i     int
	)

	flushRun := func(runStart, runEnd int) {
		if runEnd <= runStart {
			return
		}
		s := string(raw[runStart:runEnd])
		offset := runStart
		state := -1
		for len(s) > 0 {
			var cluster string
			var width int
			cluster, s, width, state = uniseg.FirstGraphemeClusterInString(s, state)
			if width < 1 {
				// Zero-width clusters (combining marks standing alone,
				// control remnants) still need a column to land in.
				width = runewidth.StringWidth(cluster)
				if width < 1 {
					width = 1
				}
			}
			if cluster == "" {
				break
			}
			text := cluster
			if !utf8ValidClean(cluster) {
				text = substituteGlyph
				width = 1
			}
			cells = append(cells, Cell{
				Text:       text,
				Style:      style,
				Width:      width,
				ByteOffset: offset,
				ByteLen:    len(cluster),
			})
			offset += len(cluster)
		}
	}

	runStart := 0
	for i < len(raw) {
		if raw[i] != 0x1b {
			i++
			continue
		}
		// Flush the plain-text run that precedes this escape sequence.
		flushRun(runStart, i)

		if i+1 >= len(raw) {
			i++
			runStart = i
			continue
		}
		switch raw[i+1] {
		case '[': // CSI
			end := i + 2
			for end < len(raw) && !isCSIFinal(raw[end]) {
				end++
			}
			if end < len(raw) && raw[end] == 'm' {
				style = applySGR(style, string(raw[i+2:end]))
			}
			// Any other CSI final byte (cursor movement, clears, etc.)
			// is discarded; letting them through would tear the frame,
			// especially on progress streams.
			if end < len(raw) {
				i = end + 1
			} else {
				i = end
			}
		case ']': // OSC, terminated by ST (ESC \) or BEL
			end := i + 2
			for end < len(raw) {
				if raw[end] == 0x07 {
					end++
					break
				}
				if raw[end] == 0x1b && end+1 < len(raw) && raw[end+1] == '\\' {
					end += 2
					break
				}
				end++
			}
			i = end
		default:
			// Unrecognized escape: skip the ESC and the following byte.
			i += 2
		}
		runStart = i
	}
	flushRun(runStart, len(raw))

	return cells
}

func isCSIFinal(b byte) bool {
	return b >= 0x40 && b <= 0x7e
}

// applySGR applies a semicolon-separated list of SGR parameters to style,
// following the common xterm convention for 16/256/TrueColor selectors.
func applySGR(style Style, params string) Style {
	if params == "" {
		return Style{}
	}
	parts := strings.Split(params, ";")
	for idx := 0; idx < len(parts); idx++ {
		n, err := strconv.Atoi(parts[idx])
		if err != nil {
			continue
		}
		switch {
		case n == 0:
			style = Style{}
		case n == 1:
			style.Bold = true
		case n == 4:
			style.Underline = true
		case n == 7:
			style.Reverse = true
		case n == 22:
			style.Bold = false
		case n == 24:
			style.Underline = false
		case n == 27:
			style.Reverse = false
		case n == 39:
			style.Fg = ""
		case n == 49:
			style.Bg = ""
		case n >= 30 && n <= 37:
			style.Fg = strconv.Itoa(n - 30)
		case n >= 40 && n <= 47:
			style.Bg = strconv.Itoa(n - 40)
		case n >= 90 && n <= 97:
			style.Fg = strconv.Itoa(n - 90 + 8)
		case n >= 100 && n <= 107:
			style.Bg = strconv.Itoa(n - 100 + 8)
		case n == 38 || n == 48:
			color, consumed := extendedColor(parts[idx+1:])
			if color == "" {
				continue
			}
			if n == 38 {
				style.Fg = color
			} else {
				style.Bg = color
			}
			idx += consumed
		}
	}
	return style
}

// extendedColor parses the remainder of a 38/48 extended-color SGR
// sequence (either "5;N" 256-color or "2;R;G;B" TrueColor) and returns a
// termenv-compatible color string plus the number of extra params consumed.
func extendedColor(rest []string) (string, int) {
	if len(rest) == 0 {
		return "", 0
	}
	switch rest[0] {
	case "5":
		if len(rest) < 2 {
			return "", 0
		}
		return rest[1], 2
	case "2":
		if len(rest) < 4 {
			return "", 0
		}
		return "#" + hex2(rest[1]) + hex2(rest[2]) + hex2(rest[3]), 4
	default:
		return "", 0
	}
}

func hex2(s string) string {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 255 {
		return "00"
	}
	const hexDigits = "0123456789abcdef"
	return string([]byte{hexDigits[n>>4], hexDigits[n&0xf]})
}
