// Package search runs asynchronous regex scans over a file's lines and
// exposes ordered match locations with navigation primitives.
package search

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dlclark/regexp2"

	"github.com/streampager/streampager/internal/file"
	"github.com/streampager/streampager/internal/line"
)

// signalEvery and signalInterval bound how often a running search wakes
// the display: every K matches or every T, whichever comes first.
const (
	signalEvery    = 100
	signalInterval = 100 * time.Millisecond
)

// State describes a search's lifecycle.
type State int

const (
	Running State = iota
	Complete
	Cancelled
	Errored
)

// Match is one regex hit: the line it occurs on and the half-open byte
// range of the hit within that line.
type Match struct {
	Line  int
	Start int
	End   int
}

// Progress is a point-in-time snapshot for the status line.
type Progress struct {
	LinesScanned int
	Matches      int
	State        State
}

// Search scans a file's lines on a background goroutine, appending
// matches in (line, byte-offset) order. The match list is append-only
// while Running and immutable afterward.
type Search struct {
	fileID  int
	pattern string
	re      *regexp2.Regexp
	f       file.File

	mu      sync.Mutex
	matches []Match
	scanned int
	state   State
	err     error

	events     chan struct{}
	cancel     chan struct{}
	cancelOnce sync.Once
}

// New compiles pattern and prepares a search over f starting at line
// fromLine. An invalid pattern returns the compile error and no search
// is created.
func New(f file.File, pattern string, fromLine int) (*Search, error) {
	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return nil, err
	}
	re.MatchTimeout = time.Second
	s := &Search{
		fileID:  f.ID(),
		pattern: pattern,
		re:      re,
		f:       f,
		state:   Running,
		events:  make(chan struct{}, 1),
		cancel:  make(chan struct{}),
	}
	go s.run(fromLine)
	return s, nil
}

// FileID returns the id of the file being searched.
func (s *Search) FileID() int { return s.fileID }

// Pattern returns the source pattern, for the status line.
func (s *Search) Pattern() string { return s.pattern }

// Events returns the coalesced progress signal channel; it receives
// whenever new matches are appended or the search finishes.
func (s *Search) Events() <-chan struct{} { return s.events }

// Cancel stops the scan. Idempotent.
func (s *Search) Cancel() {
	s.cancelOnce.Do(func() { close(s.cancel) })
}

// run pulls lines sequentially, appends match locations, and signals
// the display every signalEvery matches or signalInterval, whichever
// comes first. It finishes when the file stops growing and every indexed
// line has been scanned; a later file-growth event does not extend it.
func (s *Search) run(from int) {
	i := from
	if i < 0 {
		i = 0
	}
	sinceSignal := 0
	lastSignal := time.Now()

	for {
		select {
		case <-s.cancel:
			s.finish(Cancelled, nil)
			return
		default:
		}

		if i >= s.f.Lines() {
			if !s.f.WaitingForData() {
				s.finish(Complete, nil)
				return
			}
			// Complete-for-now on a still-growing file: wait briefly
			// for more lines rather than spinning.
			select {
			case <-s.cancel:
				s.finish(Cancelled, nil)
				return
			case <-time.After(50 * time.Millisecond):
			}
			continue
		}

		raw, err := s.f.LineBytes(i)
		if err != nil {
			s.finish(Errored, err)
			return
		}
		found := matchLine(s.re, line.New(s.fileID, i, raw), i)

		s.mu.Lock()
		s.matches = append(s.matches, found...)
		s.scanned = i + 1
		s.mu.Unlock()

		sinceSignal += len(found)
		if sinceSignal >= signalEvery || time.Since(lastSignal) >= signalInterval {
			notify(s.events)
			sinceSignal = 0
			lastSignal = time.Now()
		}
		i++
	}
}

// matchLine collects every non-overlapping match of re against the
// line's visible text — the parsed cells' glyphs, with overstrike
// already decoded and escape sequences excluded. Reported byte ranges
// are in the same decoded coordinate system the cells carry, so the
// renderer's highlight overlays land on exactly the matched glyphs even
// when the raw line contained backspace-overstrike or SGR sequences.
func matchLine(re *regexp2.Regexp, l *line.Line, lineIdx int) []Match {
	cells := l.Cells()
	if len(cells) == 0 {
		return nil
	}
	starts := make([]int, len(cells))
	var sb strings.Builder
	for i, c := range cells {
		starts[i] = sb.Len()
		sb.WriteString(c.Text)
	}
	text := sb.String()
	runes := []rune(text)

	var out []Match
	m, err := re.FindRunesMatch(runes)
	for err == nil && m != nil {
		tStart := len(string(runes[:m.Index]))
		tEnd := len(string(runes[:m.Index+m.Length]))
		if tEnd == tStart {
			// Zero-width match: widen to the glyph it points at so
			// navigation always makes progress.
			if tStart >= len(text) {
				break
			}
			tEnd = tStart + 1
		}
		ci := cellIndexAt(starts, tStart)
		cj := cellIndexAt(starts, tEnd-1)
		out = append(out, Match{
			Line:  lineIdx,
			Start: cells[ci].ByteOffset,
			End:   cells[cj].ByteOffset + cells[cj].ByteLen,
		})
		m, err = re.FindNextMatch(m)
	}
	return out
}

// cellIndexAt returns the index of the cell whose glyph text contains
// the given text byte offset.
func cellIndexAt(starts []int, off int) int {
	i := sort.Search(len(starts), func(i int) bool { return starts[i] > off })
	return i - 1
}

func (s *Search) finish(state State, err error) {
	s.mu.Lock()
	if s.state == Running {
		s.state = state
		s.err = err
	}
	s.mu.Unlock()
	notify(s.events)
}

// Poll reports scan progress for the status line.
func (s *Search) Poll() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Progress{LinesScanned: s.scanned, Matches: len(s.matches), State: s.state}
}

// Err returns the scan error for an Errored search.
func (s *Search) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Matches returns a snapshot of the current match list, in (line,
// byte-offset) order.
func (s *Search) Matches() []Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Match, len(s.matches))
	copy(out, s.matches)
	return out
}

// MatchesOnLine returns the matches on one line, for render overlays.
func (s *Search) MatchesOnLine(lineIdx int) []Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	lo := sort.Search(len(s.matches), func(i int) bool {
		return s.matches[i].Line >= lineIdx
	})
	hi := lo
	for hi < len(s.matches) && s.matches[hi].Line == lineIdx {
		hi++
	}
	out := make([]Match, hi-lo)
	copy(out, s.matches[lo:hi])
	return out
}

// First returns the first match in order.
func (s *Search) First() (Match, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.matches) == 0 {
		return Match{}, false
	}
	return s.matches[0], true
}

// Last returns the last match in order.
func (s *Search) Last() (Match, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.matches) == 0 {
		return Match{}, false
	}
	return s.matches[len(s.matches)-1], true
}

// NextAfter returns the first match strictly after (line, col) in
// (line, byte-offset) order.
func (s *Search) NextAfter(lineIdx, col int) (Match, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := sort.Search(len(s.matches), func(i int) bool {
		m := s.matches[i]
		return m.Line > lineIdx || (m.Line == lineIdx && m.Start > col)
	})
	if i == len(s.matches) {
		return Match{}, false
	}
	return s.matches[i], true
}

// PrevBefore returns the last match strictly before (line, col).
func (s *Search) PrevBefore(lineIdx, col int) (Match, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := sort.Search(len(s.matches), func(i int) bool {
		m := s.matches[i]
		return m.Line > lineIdx || (m.Line == lineIdx && m.Start >= col)
	})
	if i == 0 {
		return Match{}, false
	}
	return s.matches[i-1], true
}

// NextLineWithMatch returns the first match on a line strictly after
// lineIdx.
func (s *Search) NextLineWithMatch(lineIdx int) (Match, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := sort.Search(len(s.matches), func(i int) bool {
		return s.matches[i].Line > lineIdx
	})
	if i == len(s.matches) {
		return Match{}, false
	}
	return s.matches[i], true
}

// PrevLineWithMatch returns the first match on the nearest line strictly
// before lineIdx.
func (s *Search) PrevLineWithMatch(lineIdx int) (Match, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := sort.Search(len(s.matches), func(i int) bool {
		return s.matches[i].Line >= lineIdx
	})
	if i == 0 {
		return Match{}, false
	}
	target := s.matches[i-1].Line
	for i > 1 && s.matches[i-2].Line == target {
		i--
	}
	return s.matches[i-1], true
}

// notify performs a coalescing non-blocking send.
func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
