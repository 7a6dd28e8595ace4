package file

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/streampager/streampager/internal/buffer"
)

// StreamFile ingests an io.Reader (a pipe, a descriptor, a subprocess's
// output) into an append-only buffer on a background goroutine, indexing
// newline positions as bytes arrive.
type StreamFile struct {
	id    int
	title string

	buf *buffer.Buffer

	mu     sync.Mutex
	starts []int64 // line-start offsets; offset 0 is implicit in starts[0]
	tail   int64   // bytes scanned for newlines so far

	changed chan struct{}
	done    chan struct{}
}

// NewStream creates a streaming file and starts its reader goroutine.
// The goroutine runs until r is exhausted or fails; callers observe
// progress via Changed and completion via WaitingForData.
func NewStream(id int, title string, r io.Reader) *StreamFile {
	f := &StreamFile{
		id:      id,
		title:   title,
		buf:     buffer.New(),
		starts:  []int64{0},
		changed: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go f.run(r)
	return f
}

// run copies bytes from r into the buffer and scans each appended chunk
// for newlines. It owns all writes to f.starts.
func (f *StreamFile) run(r io.Reader) {
	defer close(f.done)
	for {
		n, err := f.buf.AppendFrom(r)
		if n > 0 {
			f.indexNewBytes()
			notify(f.changed)
		}
		if err == io.EOF {
			f.buf.MarkEnd()
			notify(f.changed)
			return
		}
		if err != nil {
			log.Error("stream read failed", "file", f.title, "err", err)
			f.buf.MarkError(err)
			notify(f.changed)
			return
		}
	}
}

// indexNewBytes scans [tail, available) for newlines and records the
// offset after each one as a line start.
func (f *StreamFile) indexNewBytes() {
	avail := f.buf.Available()
	f.mu.Lock()
	tail := f.tail
	f.mu.Unlock()

	const chunk = 64 * 1024
	var found []int64
	for tail < avail {
		want := avail - tail
		if want > chunk {
			want = chunk
		}
		b := f.buf.Read(tail, int(want), buffer.NonBlocking)
		if len(b) == 0 {
			break
		}
		for i, c := range b {
			if c == '\n' {
				found = append(found, tail+int64(i)+1)
			}
		}
		tail += int64(len(b))
	}

	f.mu.Lock()
	f.starts = append(f.starts, found...)
	f.tail = tail
	f.mu.Unlock()
}

// ID returns the file's controller-assigned identity.
func (f *StreamFile) ID() int { return f.id }

// Title returns the display name.
func (f *StreamFile) Title() string { return f.title }

// Lines reports the number of lines available for display. A trailing
// partial line (bytes past the last newline) counts as a line; its
// bytes keep growing until a newline or end-of-stream seals it.
func (f *StreamFile) Lines() int {
	f.mu.Lock()
	n := len(f.starts)
	last := f.starts[n-1]
	f.mu.Unlock()

	if last < f.buf.Available() {
		return n // complete lines plus the in-flight partial
	}
	return n - 1
}

// LineBytes returns line i without its trailing newline.
func (f *StreamFile) LineBytes(i int) ([]byte, error) {
	f.mu.Lock()
	if i < 0 || i >= len(f.starts) {
		f.mu.Unlock()
		return nil, fmt.Errorf("line %d out of range", i)
	}
	start := f.starts[i]
	var end int64
	if i+1 < len(f.starts) {
		end = f.starts[i+1] - 1 // strip the newline
	} else {
		end = f.buf.Available()
	}
	f.mu.Unlock()

	if end <= start {
		return nil, nil
	}
	b := f.buf.Read(start, int(end-start), buffer.NonBlocking)
	// Carriage returns before the newline are display noise.
	if len(b) > 0 && b[len(b)-1] == '\r' {
		b = b[:len(b)-1]
	}
	return b, nil
}

// NeededLines is a no-op for streams: the reader goroutine indexes
// eagerly as bytes arrive.
func (f *StreamFile) NeededLines(int) {}

// WaitingForData reports whether the stream may still grow.
func (f *StreamFile) WaitingForData() bool { return !f.buf.AtEnd() }

// Changed returns the coalesced new-data signal channel.
func (f *StreamFile) Changed() <-chan struct{} { return f.changed }

// Err returns the terminal read error, if the stream failed.
func (f *StreamFile) Err() error { return f.buf.Err() }

// Done returns a channel closed when the reader goroutine has exited,
// for tests and orderly shutdown.
func (f *StreamFile) Done() <-chan struct{} { return f.done }
