// Package screen holds the per-file viewport state machine and composes
// frames from lazily rendered lines, search overlays, error tails, and
// progress pages.
package screen

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/termenv"

	"github.com/streampager/streampager/internal/cache"
	"github.com/streampager/streampager/internal/file"
	"github.com/streampager/streampager/internal/line"
	"github.com/streampager/streampager/internal/search"
)

// Mode is the screen's input state.
type Mode int

const (
	ModeIdle Mode = iota
	ModePrompt
	ModeHelp
)

// Screen is one viewport bound to one file, with independent scroll,
// wrap, and search state.
type Screen struct {
	f        file.File
	errFile  file.File
	progress *file.ProgressFile

	cache   *cache.Cache
	profile termenv.Profile
	Spinner spinner.Model

	width  int
	height int

	top           int
	left          int
	wrap          line.WrapMode
	showLineNums  bool
	scrollPastEOF bool

	mode     Mode
	search   *search.Search
	selected *search.Match

	// fileIndex/fileCount drive the [2/3] switcher indicator when more
	// than one primary file is open.
	fileIndex int
	fileCount int

	refresh RefreshSet

	// Rendered regions of the previous frame, reused for rows the
	// refresh set does not report dirty.
	framed       bool
	prevBody     []string
	prevOverlay  []string
	prevProgress []string
	prevStatus   string
	prevBottom   string
	prevFrame    string

	// lastLines/lastProgressRows remember the geometry the previous
	// frame was composed against, so growth events can mark only the
	// rows they actually touch.
	lastLines        int
	lastProgressRows int
}

// New creates a screen over f. errFile and progress may be nil.
func New(f file.File, errFile file.File, progress *file.ProgressFile, c *cache.Cache, profile termenv.Profile) *Screen {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	s := &Screen{
		f:        f,
		errFile:  errFile,
		progress: progress,
		cache:    c,
		profile:  profile,
		Spinner:  sp,
	}
	s.refresh.MarkAll()
	return s
}

// SetFilePosition records this screen's position among all primary
// files, for the status-line switcher indicator.
func (s *Screen) SetFilePosition(index, count int) {
	s.fileIndex = index
	s.fileCount = count
}

// File returns the attached file.
func (s *Screen) File() file.File { return s.f }

// ErrorFile returns the attached error companion, or nil.
func (s *Screen) ErrorFile() file.File { return s.errFile }

// Mode returns the current input mode.
func (s *Screen) Mode() Mode { return s.mode }

// SetMode switches the input mode and dirties the status region, since
// the bottom row changes meaning.
func (s *Screen) SetMode(m Mode) {
	if s.mode == m {
		return
	}
	s.mode = m
	s.refresh.MarkAll()
}

// Refresh exposes the screen's dirty set for the controller to union.
func (s *Screen) Refresh() *RefreshSet { return &s.refresh }

// SetScrollPastEOF controls whether the viewport may scroll past the
// point where the last line is at the top.
func (s *Screen) SetScrollPastEOF(v bool) { s.scrollPastEOF = v }

// SetSize records new terminal dimensions, preserving the top line (not
// the first visible wrap row) per the resize contract.
func (s *Screen) SetSize(w, h int) {
	if w == s.width && h == s.height {
		return
	}
	s.width = w
	s.height = h
	s.cache.Clear()
	s.clampTop()
	s.refresh.MarkAll()
}

// Top returns the viewport's top line index.
func (s *Screen) Top() int { return s.top }

// bodyRows is how many rows remain for file content after the status
// line, the error tail, and the progress page are taken out.
func (s *Screen) bodyRows() int {
	rows := s.height - statusBarHeight - s.overlayRows() - s.progressRows()
	if rows < 1 {
		rows = 1
	}
	return rows
}

func (s *Screen) overlayRows() int {
	if s.errFile == nil {
		return 0
	}
	n := s.errFile.Lines()
	if n > errorTailRows {
		n = errorTailRows
	}
	return n
}

func (s *Screen) progressRows() int {
	if s.progress == nil {
		return 0
	}
	return s.progress.Lines()
}

func (s *Screen) clampTop() {
	max := s.maxTop()
	if s.top > max {
		s.top = max
	}
	if s.top < 0 {
		s.top = 0
	}
	if s.left < 0 {
		s.left = 0
	}
}

func (s *Screen) maxTop() int {
	lines := s.f.Lines()
	if lines == 0 {
		return 0
	}
	if s.scrollPastEOF {
		return lines - 1
	}
	max := lines - s.bodyRows()
	if max < 0 {
		max = 0
	}
	return max
}

// ScrollLines moves the viewport by n lines (negative is up).
func (s *Screen) ScrollLines(n int) {
	s.top += n
	s.clampTop()
	s.refresh.MarkAll()
}

// ScrollPages moves the viewport by n pages.
func (s *Screen) ScrollPages(n int) {
	s.ScrollLines(n * s.bodyRows())
}

// ScrollHalfPage moves by half a page, as less(1) does for d/u.
func (s *Screen) ScrollHalfPage(n int) {
	s.ScrollLines(n * s.bodyRows() / 2)
}

// Home scrolls to the first line.
func (s *Screen) Home() {
	s.top = 0
	s.refresh.MarkAll()
}

// End scrolls so the last line is visible.
func (s *Screen) End() {
	s.top = s.maxTop()
	s.refresh.MarkAll()
}

// ScrollColumns shifts the horizontal offset; it has no effect in a
// wrapped mode, where the offset is ignored.
func (s *Screen) ScrollColumns(n int) {
	if s.wrap != line.WrapNone {
		return
	}
	s.left += n
	if s.left < 0 {
		s.left = 0
	}
	s.refresh.MarkAll()
}

// GotoLine scrolls to a 1-based absolute line.
func (s *Screen) GotoLine(n int) {
	s.top = n - 1
	s.clampTop()
	s.refresh.MarkAll()
}

// GotoPercent scrolls to a percentage of the file.
func (s *Screen) GotoPercent(pct int) {
	lines := s.f.Lines()
	s.top = lines * pct / 100
	s.clampTop()
	s.refresh.MarkAll()
}

// ToggleLineNumbers flips the gutter. The line cache survives: the
// gutter is applied at draw time, not parse time.
func (s *Screen) ToggleLineNumbers() {
	s.showLineNums = !s.showLineNums
	s.refresh.MarkAll()
}

// CycleWrap steps none → character → word → none, zeroing the
// horizontal offset and clearing the cache.
func (s *Screen) CycleWrap() {
	switch s.wrap {
	case line.WrapNone:
		s.wrap = line.WrapCharacter
	case line.WrapCharacter:
		s.wrap = line.WrapWord
	default:
		s.wrap = line.WrapNone
	}
	s.left = 0
	s.cache.Clear()
	s.clampTop()
	s.refresh.MarkAll()
}

// Wrap returns the current wrap mode.
func (s *Screen) Wrap() line.WrapMode { return s.wrap }

// AttachSearch cancels any previous search, attaches the new one, and
// clears the selected match. It does not select a match itself; the
// display controller selects the first one when it lands.
func (s *Screen) AttachSearch(sr *search.Search) {
	if s.search != nil {
		s.search.Cancel()
	}
	s.search = sr
	s.selected = nil
	s.refresh.MarkAll()
}

// Search returns the attached search, or nil.
func (s *Screen) Search() *search.Search { return s.search }

// ClearSearch cancels and detaches the current search.
func (s *Screen) ClearSearch() {
	if s.search == nil {
		return
	}
	s.search.Cancel()
	s.search = nil
	s.selected = nil
	s.refresh.MarkAll()
}

// HasSelection reports whether a match is currently selected.
func (s *Screen) HasSelection() bool { return s.selected != nil }

// SelectMatch makes m the selected match and scrolls it into view.
func (s *Screen) SelectMatch(m search.Match) {
	s.selected = &m
	if m.Line < s.top || m.Line >= s.top+s.bodyRows() {
		s.top = m.Line - s.bodyRows()/3
		s.clampTop()
	}
	s.refresh.MarkAll()
}

// NextMatch advances to the next match after the selected one, wrapping
// to the first after the last.
func (s *Screen) NextMatch() {
	if s.search == nil {
		return
	}
	if s.selected == nil {
		if m, ok := s.search.First(); ok {
			s.SelectMatch(m)
		}
		return
	}
	if m, ok := s.search.NextAfter(s.selected.Line, s.selected.Start); ok {
		s.SelectMatch(m)
	} else if m, ok := s.search.First(); ok {
		s.SelectMatch(m)
	}
}

// PrevMatch steps back to the previous match, wrapping to the last.
func (s *Screen) PrevMatch() {
	if s.search == nil {
		return
	}
	if s.selected == nil {
		if m, ok := s.search.Last(); ok {
			s.SelectMatch(m)
		}
		return
	}
	if m, ok := s.search.PrevBefore(s.selected.Line, s.selected.Start); ok {
		s.SelectMatch(m)
	} else if m, ok := s.search.Last(); ok {
		s.SelectMatch(m)
	}
}

// NextMatchLine jumps to the first match on the next matching line.
func (s *Screen) NextMatchLine() {
	if s.search == nil || s.selected == nil {
		s.NextMatch()
		return
	}
	if m, ok := s.search.NextLineWithMatch(s.selected.Line); ok {
		s.SelectMatch(m)
	}
}

// PrevMatchLine jumps to the first match on the previous matching line.
func (s *Screen) PrevMatchLine() {
	if s.search == nil || s.selected == nil {
		s.PrevMatch()
		return
	}
	if m, ok := s.search.PrevLineWithMatch(s.selected.Line); ok {
		s.SelectMatch(m)
	}
}

// OnFileChanged reacts to new data on the attached file or its
// companions. Each event's damage is collected into its own set and
// unioned into the screen's accumulated refresh set; the next View
// renders only the union.
func (s *Screen) OnFileChanged(fileID int) {
	var dirty RefreshSet
	switch {
	case fileID == s.f.ID():
		lines := s.f.Lines()
		if lines > 0 {
			// The partial last line may have grown new bytes.
			s.cache.Invalidate(cache.Key{FileID: fileID, Line: lines - 1})
		}
		dirty.MarkStatus()
		if s.wrap != line.WrapNone {
			// In a wrapped mode a grown line can push every row below
			// it, so the whole body is damaged.
			dirty.MarkAll()
		} else {
			// New bytes only touch rows from the previously last
			// (possibly partial) line downward.
			from := s.lastLines - 1 - s.top
			if from < 0 {
				from = 0
			}
			to := lines - s.top
			if to > s.bodyRows() {
				to = s.bodyRows()
			}
			dirty.MarkRows(from, to)
		}
		s.lastLines = lines
	case s.errFile != nil && fileID == s.errFile.ID():
		if s.errFile.Lines() <= errorTailRows {
			// The overlay is still growing taller; every body row
			// above it shifts up.
			dirty.MarkAll()
		} else {
			dirty.MarkOverlay()
			dirty.MarkStatus()
		}
	case s.progress != nil && fileID == s.progress.ID():
		rows := s.progress.Lines()
		if rows != s.lastProgressRows {
			dirty.MarkAll()
		} else {
			dirty.MarkProgress()
		}
		s.lastProgressRows = rows
	}
	s.refresh.Union(&dirty)
}

// UpdateSpinner forwards a tick to the spinner and dirties the status
// row.
func (s *Screen) UpdateSpinner(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	s.Spinner, cmd = s.Spinner.Update(msg)
	s.refresh.MarkStatus()
	return cmd
}

// lineFor pulls line i through the cache.
func (s *Screen) lineFor(i int) *line.Line {
	return s.cache.GetOrCreate(cache.Key{FileID: s.f.ID(), Line: i}, func() *line.Line {
		raw, err := s.f.LineBytes(i)
		if err != nil {
			raw = nil
		}
		return line.New(s.f.ID(), i, raw)
	})
}

func (s *Screen) gutterWidth() int {
	w := len(fmt.Sprintf("%d", s.f.Lines()))
	if w < 3 {
		w = 3
	}
	return w
}

// View reconciles the refresh set against the previous frame: regions
// the set does not report dirty are reused verbatim, dirty ones are
// recomposed from body rows, error tail, progress page, and the status
// line. bottomLine, when non-empty, replaces the status row (the prompt
// renders there). After View returns the refresh set is empty.
func (s *Screen) View(bottomLine string) string {
	if bottomLine != s.prevBottom {
		s.refresh.MarkStatus()
	}
	if s.framed && s.refresh.Empty() {
		return s.prevFrame
	}

	body := s.bodyView()
	overlay := s.errorTailView()
	progress := s.progressView()

	var bottom string
	switch {
	case bottomLine != "":
		bottom = truncate.String(bottomLine, uint(s.width))
	case s.framed && !s.refresh.Status():
		bottom = s.prevStatus
	default:
		bottom = s.statusView()
	}

	rows := make([]string, 0, len(body)+len(overlay)+len(progress)+1)
	rows = append(rows, body...)
	rows = append(rows, overlay...)
	rows = append(rows, progress...)
	rows = append(rows, bottom)

	s.prevBody = body
	s.prevOverlay = overlay
	s.prevProgress = progress
	s.prevStatus = bottom
	s.prevBottom = bottomLine
	s.prevFrame = strings.Join(rows, "\n")
	s.framed = true
	s.lastLines = s.f.Lines()
	s.refresh.Clear()
	return s.prevFrame
}

// bodyView renders the file rows of the frame, reusing any row the
// refresh set reports clean. In wrapped modes one logical line may
// occupy several rows; the top line always starts at its first wrap
// row.
func (s *Screen) bodyView() []string {
	want := s.bodyRows()
	rows := make([]string, 0, want)
	lines := s.f.Lines()

	flags := line.RenderFlags{
		ShowLineNumber: s.showLineNums,
		GutterWidth:    s.gutterWidth(),
		StartCol:       s.left,
	}

	// Clean rows keep their previous rendering; geometry-changing
	// operations mark the whole set, so reuse is only ever offered
	// when row ↔ line assignments are unchanged.
	reusable := func(row int) bool {
		return s.framed && !s.refresh.Full() && !s.refresh.RowDirty(row) && row < len(s.prevBody)
	}

	for i := s.top; len(rows) < want && i < lines; i++ {
		l := s.lineFor(i)
		lineFlags := flags
		if s.search != nil {
			for _, m := range s.search.MatchesOnLine(i) {
				lineFlags.HighlightRanges = append(lineFlags.HighlightRanges, line.ByteRange{Start: m.Start, End: m.End})
			}
			if s.selected != nil && s.selected.Line == i {
				lineFlags.SelectedMatch = &line.ByteRange{Start: s.selected.Start, End: s.selected.End}
			}
		}

		wrapRows := 1
		if s.wrap != line.WrapNone {
			wrapRows = l.WrapRows(widthLessGutter(s.width, lineFlags), s.wrap)
		}
		for wr := 0; wr < wrapRows && len(rows) < want; wr++ {
			row := len(rows)
			if reusable(row) {
				rows = append(rows, s.prevBody[row])
				continue
			}
			rf := lineFlags
			rf.WrapRow = wr
			rows = append(rows, l.Render(s.profile, s.width, s.wrap, rf))
		}
	}

	blank := strings.Repeat(" ", s.width)
	for len(rows) < want {
		if row := len(rows); reusable(row) {
			rows = append(rows, s.prevBody[row])
			continue
		}
		rows = append(rows, blank)
	}
	return rows
}

func widthLessGutter(width int, flags line.RenderFlags) int {
	if !flags.ShowLineNumber {
		return width
	}
	w := width - flags.GutterWidth - 1
	if w < 1 {
		w = 1
	}
	return w
}

// errorTailView renders the last few lines of the attached error file.
func (s *Screen) errorTailView() []string {
	if s.framed && !s.refresh.Overlay() {
		return s.prevOverlay
	}
	n := s.overlayRows()
	if n == 0 {
		return nil
	}
	total := s.errFile.Lines()
	rows := make([]string, 0, n)
	for i := total - n; i < total; i++ {
		raw, err := s.errFile.LineBytes(i)
		if err != nil {
			raw = nil
		}
		l := line.New(s.errFile.ID(), i, raw)
		text := l.Render(s.profile, s.width, line.WrapNone, line.RenderFlags{})
		rows = append(rows, errorTailStyle.Render(text))
	}
	return rows
}

// progressView renders the most recent complete progress page. Cursor
// movement and screen clears inside the page are stripped by the cell
// parser.
func (s *Screen) progressView() []string {
	if s.framed && !s.refresh.Progress() {
		return s.prevProgress
	}
	n := s.progressRows()
	if n == 0 {
		return nil
	}
	rows := make([]string, 0, n)
	for i := 0; i < n; i++ {
		raw, err := s.progress.LineBytes(i)
		if err != nil {
			raw = nil
		}
		l := line.New(s.progress.ID(), i, raw)
		rows = append(rows, l.Render(s.profile, s.width, line.WrapNone, line.RenderFlags{}))
	}
	return rows
}

// statusView renders the one-row status line: title, position within the
// file, connected indicator, and a spinner while data is arriving.
func (s *Screen) statusView() string {
	lines := s.f.Lines()
	bottom := s.top + s.bodyRows()
	if bottom > lines {
		bottom = lines
	}
	pct := 100
	if lines > 0 {
		pct = bottom * 100 / lines
	}

	title := s.f.Title()
	if s.fileCount > 1 {
		title += fmt.Sprintf(" [%d/%d]", s.fileIndex+1, s.fileCount)
	}
	titleCell := statusTitleStyle.Render(title)

	var position string
	if lines == 0 {
		position = statusPositionStyle.Render("[empty]")
	} else {
		position = statusPositionStyle.Render(
			fmt.Sprintf("[%d-%d/%d %d%%]", s.top+1, bottom, lines, pct))
	}

	var indicator string
	switch {
	case s.f.Err() != nil:
		indicator = statusErrorStyle.Render("! " + firstLine(s.f.Err().Error()))
	case s.f.WaitingForData():
		indicator = connectedDotStyle.Render(" ● ")
		if lines > 0 {
			indicator += s.Spinner.View()
		}
	default:
		indicator = disconnectedDotStyle.Render(" ● ")
	}

	var searchNote string
	if s.search != nil {
		p := s.search.Poll()
		switch p.State {
		case search.Running:
			searchNote = fmt.Sprintf(" /%s (%d matches…)", s.search.Pattern(), p.Matches)
		case search.Errored:
			searchNote = statusErrorStyle.Render(" search failed")
		default:
			searchNote = fmt.Sprintf(" /%s (%d matches)", s.search.Pattern(), p.Matches)
		}
	}

	used := ansi.PrintableRuneWidth(titleCell) +
		ansi.PrintableRuneWidth(position) +
		ansi.PrintableRuneWidth(indicator) +
		ansi.PrintableRuneWidth(searchNote)
	padding := s.width - used
	if padding < 0 {
		padding = 0
	}
	bar := titleCell + indicator + searchNote + statusBarStyle.Render(strings.Repeat(" ", padding)) + position
	return truncate.String(bar, uint(s.width))
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
