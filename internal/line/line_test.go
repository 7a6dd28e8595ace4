package line

import (
	"strings"
	"testing"

	"github.com/muesli/termenv"
)

func TestWrapRowsAtLeastOne(t *testing.T) {
	l := New(0, 0, []byte(""))
	if n := l.WrapRows(80, WrapNone); n < 1 {
		t.Fatalf("expected at least 1 row, got %d", n)
	}
}

func TestWrapRowsCharacterCoversAllCells(t *testing.T) {
	l := New(0, 0, []byte("abcdefghij"))
	n := l.WrapRows(4, WrapCharacter)
	if n != 3 {
		t.Fatalf("expected 3 rows of width 4 for 10 chars, got %d", n)
	}
}

func TestWrapWordBreaksOnWhitespace(t *testing.T) {
	l := New(0, 0, []byte("hello world"))
	bounds := rowBoundaries(l.Cells(), 7, WrapWord)
	// "hello " (5 letters plus the trailing space, 6 cols) fits in 7 cols; "world" goes on the next row.
	if len(bounds) != 3 {
		t.Fatalf("expected 2 rows, got bounds=%v", bounds)
	}
}

func TestWrapWordFallsBackToCharacterForLongToken(t *testing.T) {
	l := New(0, 0, []byte("superlongwordwithnospaces"))
	n := l.WrapRows(5, WrapWord)
	if n < 2 {
		t.Fatalf("expected multiple rows for a token with no spaces, got %d", n)
	}
}

func TestRenderPadsToWidth(t *testing.T) {
	l := New(0, 0, []byte("hi"))
	profile := termenv.Ascii
	out := l.Render(profile, 5, WrapNone, RenderFlags{})
	if len([]rune(out)) != 5 {
		t.Fatalf("expected rendered width 5, got %q (%d)", out, len([]rune(out)))
	}
}

func TestRenderShowLineNumberFirstRowOnly(t *testing.T) {
	l := New(0, 41, []byte("abcdefgh"))
	profile := termenv.Ascii
	flags := RenderFlags{ShowLineNumber: true, GutterWidth: 3}
	first := l.Render(profile, 8, WrapCharacter, flags)
	if !strings.Contains(first, " 42 ") {
		t.Fatalf("expected gutter to show 1-based line number 42, got %q", first)
	}

	flags.WrapRow = 1
	second := l.Render(profile, 8, WrapCharacter, flags)
	if strings.Contains(second, "42") {
		t.Fatalf("expected blank gutter on wrap row 1, got %q", second)
	}
}

func TestOverstrikeDecodedBeforeParse(t *testing.T) {
	l := New(0, 0, []byte("X\bX"))
	cells := l.Cells()
	if len(cells) != 1 {
		t.Fatalf("expected 1 cell after overstrike decode, got %d", len(cells))
	}
	if !cells[0].Style.Bold {
		t.Fatalf("expected bold style from X\\bX overstrike")
	}
	if cells[0].Text != "X" {
		t.Fatalf("expected decoded text X, got %q", cells[0].Text)
	}
}

func TestSGRColorApplied(t *testing.T) {
	l := New(0, 0, []byte("\x1b[31mred\x1b[0mplain"))
	cells := l.Cells()
	if len(cells) != 7 {
		t.Fatalf("expected 7 cells, got %d", len(cells))
	}
	for i := 0; i < 3; i++ {
		if cells[i].Style.Fg != "1" {
			t.Fatalf("expected cell %d to carry fg color 1 (red), got %q", i, cells[i].Style.Fg)
		}
	}
	for i := 3; i < 7; i++ {
		if cells[i].Style.Fg != "" {
			t.Fatalf("expected cell %d to have no fg after reset, got %q", i, cells[i].Style.Fg)
		}
	}
}

func TestOSCSequenceDiscarded(t *testing.T) {
	l := New(0, 0, []byte("a\x1b]0;title\x07b"))
	cells := l.Cells()
	if len(cells) != 2 {
		t.Fatalf("expected OSC sequence to be discarded leaving 2 cells, got %d", len(cells))
	}
}

func TestCursorMovingCSIDiscarded(t *testing.T) {
	l := New(0, 0, []byte("a\x1b[2Jb"))
	cells := l.Cells()
	if len(cells) != 2 {
		t.Fatalf("expected cursor-clear CSI to be discarded leaving 2 cells, got %d", len(cells))
	}
}

func TestMatchHighlightOverlay(t *testing.T) {
	l := New(0, 0, []byte("abcdef"))
	profile := termenv.ANSI
	flags := RenderFlags{HighlightRanges: []ByteRange{{Start: 2, End: 4}}}
	out := l.Render(profile, 6, WrapNone, flags)
	if !strings.Contains(out, "\x1b[7mcd") {
		t.Fatalf("expected reverse-video highlight on cd, got %q", out)
	}
}

func TestMatchHighlightOnOverstruckLine(t *testing.T) {
	// "X\bXab": bold X then plain ab. A highlight range built from the
	// decoded cells (as search produces) must land on exactly the
	// matched glyphs, not on offsets into the raw pre-decode bytes.
	l := New(0, 0, []byte("X\bXab"))
	cells := l.Cells()
	if len(cells) != 3 {
		t.Fatalf("expected 3 cells, got %d", len(cells))
	}
	r := ByteRange{
		Start: cells[1].ByteOffset,
		End:   cells[2].ByteOffset + cells[2].ByteLen,
	}
	out := l.Render(termenv.ANSI, 5, WrapNone, RenderFlags{HighlightRanges: []ByteRange{r}})
	if !strings.Contains(out, "\x1b[7mab") {
		t.Fatalf("expected reverse-video highlight on ab, got %q", out)
	}
	if strings.Contains(out, "\x1b[7mX") || strings.Contains(out, ";7mX") {
		t.Fatalf("highlight leaked onto the overstruck X: %q", out)
	}
}
