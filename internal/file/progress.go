package file

import (
	"bytes"
	"io"
	"sync"

	"github.com/charmbracelet/log"
)

// ProgressFile interprets its input as a sequence of form-feed-delimited
// pages and retains only the most recently completed page. Bytes after
// the last form feed belong to a page still being written and are not
// shown.
type ProgressFile struct {
	id    int
	title string

	mu      sync.Mutex
	page    []byte // last complete page
	pending []byte // bytes since the last form feed
	ended   bool
	err     error

	changed chan struct{}
}

// NewProgress creates a progress file and starts reading pages from r.
func NewProgress(id int, title string, r io.Reader) *ProgressFile {
	f := &ProgressFile{
		id:      id,
		title:   title,
		changed: make(chan struct{}, 1),
	}
	go f.run(r)
	return f
}

func (f *ProgressFile) run(r io.Reader) {
	buf := make([]byte, 32*1024)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			f.ingest(buf[:n])
		}
		if err != nil {
			f.mu.Lock()
			f.ended = true
			if err != io.EOF {
				log.Error("progress read failed", "file", f.title, "err", err)
				f.err = err
			}
			f.mu.Unlock()
			notify(f.changed)
			return
		}
	}
}

// ingest appends bytes to the pending page, promoting a new "last page"
// each time a form feed completes one.
func (f *ProgressFile) ingest(b []byte) {
	f.mu.Lock()
	f.pending = append(f.pending, b...)
	updated := false
	for {
		i := bytes.IndexByte(f.pending, '\f')
		if i < 0 {
			break
		}
		f.page = append([]byte(nil), f.pending[:i]...)
		f.pending = f.pending[i+1:]
		updated = true
	}
	f.mu.Unlock()
	if updated {
		notify(f.changed)
	}
}

// Page returns the most recent complete page, or nil if none has been
// terminated by a form feed yet.
func (f *ProgressFile) Page() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.page
}

// ID returns the file's controller-assigned identity.
func (f *ProgressFile) ID() int { return f.id }

// Title returns the display name.
func (f *ProgressFile) Title() string { return f.title }

// Lines reports the line count of the last complete page.
func (f *ProgressFile) Lines() int {
	f.mu.Lock()
	page := f.page
	f.mu.Unlock()
	if len(page) == 0 {
		return 0
	}
	n := bytes.Count(page, []byte{'\n'})
	if page[len(page)-1] != '\n' {
		n++
	}
	return n
}

// LineBytes returns line i of the last complete page.
func (f *ProgressFile) LineBytes(i int) ([]byte, error) {
	f.mu.Lock()
	page := f.page
	f.mu.Unlock()
	lines := bytes.Split(page, []byte{'\n'})
	if i < 0 || i >= len(lines) {
		return nil, nil
	}
	return lines[i], nil
}

// NeededLines is a no-op: pages are small and fully indexed on arrival.
func (f *ProgressFile) NeededLines(int) {}

// WaitingForData reports whether pages may still arrive.
func (f *ProgressFile) WaitingForData() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.ended
}

// Changed returns the coalesced new-page signal channel.
func (f *ProgressFile) Changed() <-chan struct{} { return f.changed }

// Err returns the terminal read error, if the progress stream failed.
func (f *ProgressFile) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}
