package file

import (
	"fmt"
	"sync"
)

// ControlledFile holds lines supplied programmatically through
// AppendLine. The tests use it as a fixture backend; `--command` output
// is read through a StreamFile instead.
type ControlledFile struct {
	id    int
	title string

	mu      sync.Mutex
	lines   [][]byte
	waiting bool

	changed chan struct{}
}

// NewControlled creates an empty controlled file. It reports
// WaitingForData until Seal is called.
func NewControlled(id int, title string) *ControlledFile {
	return &ControlledFile{
		id:      id,
		title:   title,
		waiting: true,
		changed: make(chan struct{}, 1),
	}
}

// AppendLine adds one line of content and signals the change.
func (f *ControlledFile) AppendLine(b []byte) {
	f.mu.Lock()
	f.lines = append(f.lines, append([]byte(nil), b...))
	f.mu.Unlock()
	notify(f.changed)
}

// Seal marks the file complete; no further lines will be appended.
func (f *ControlledFile) Seal() {
	f.mu.Lock()
	f.waiting = false
	f.mu.Unlock()
	notify(f.changed)
}

// ID returns the file's controller-assigned identity.
func (f *ControlledFile) ID() int { return f.id }

// Title returns the display name.
func (f *ControlledFile) Title() string { return f.title }

// Lines reports the number of appended lines.
func (f *ControlledFile) Lines() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.lines)
}

// LineBytes returns line i.
func (f *ControlledFile) LineBytes(i int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i < 0 || i >= len(f.lines) {
		return nil, fmt.Errorf("line %d out of range", i)
	}
	return f.lines[i], nil
}

// NeededLines is a no-op; content is present as soon as it is appended.
func (f *ControlledFile) NeededLines(int) {}

// WaitingForData reports whether Seal has not yet been called.
func (f *ControlledFile) WaitingForData() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.waiting
}

// Changed returns the coalesced change signal channel.
func (f *ControlledFile) Changed() <-chan struct{} { return f.changed }

// Err always returns nil; controlled files cannot fail.
func (f *ControlledFile) Err() error { return nil }
