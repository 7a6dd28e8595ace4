package file

import (
	"bytes"
	"fmt"
	"os"
)

// MappedFile is a read-only view of an on-disk file, scanned for line
// starts once at open time. It never grows.
type MappedFile struct {
	id    int
	title string

	data   []byte
	starts []int

	changed chan struct{}
}

// OpenMapped reads the file at path and indexes its lines.
func OpenMapped(id int, title, path string) (*MappedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open %s: %w", path, err)
	}
	f := &MappedFile{
		id:      id,
		title:   title,
		data:    data,
		starts:  scanLineStarts(data),
		changed: make(chan struct{}, 1),
	}
	// One shot so the controller renders the content on first poll.
	notify(f.changed)
	return f, nil
}

// scanLineStarts returns the offset after every newline, with the
// implicit start at 0 first.
func scanLineStarts(data []byte) []int {
	starts := []int{0}
	for i := 0; i < len(data); {
		j := bytes.IndexByte(data[i:], '\n')
		if j < 0 {
			break
		}
		starts = append(starts, i+j+1)
		i += j + 1
	}
	return starts
}

// ID returns the file's controller-assigned identity.
func (f *MappedFile) ID() int { return f.id }

// Title returns the display name.
func (f *MappedFile) Title() string { return f.title }

// Lines reports the number of lines in the file.
func (f *MappedFile) Lines() int {
	n := len(f.starts)
	if f.starts[n-1] < len(f.data) {
		return n // trailing line without a final newline
	}
	return n - 1
}

// LineBytes returns line i without its trailing newline.
func (f *MappedFile) LineBytes(i int) ([]byte, error) {
	if i < 0 || i >= f.Lines() {
		return nil, fmt.Errorf("line %d out of range", i)
	}
	start := f.starts[i]
	end := len(f.data)
	if i+1 < len(f.starts) {
		end = f.starts[i+1] - 1
	}
	b := f.data[start:end]
	if len(b) > 0 && b[len(b)-1] == '\r' {
		b = b[:len(b)-1]
	}
	return b, nil
}

// NeededLines is a no-op: everything was indexed at open time.
func (f *MappedFile) NeededLines(int) {}

// WaitingForData always reports false for mapped files.
func (f *MappedFile) WaitingForData() bool { return false }

// Changed returns a channel that fires exactly once, at open.
func (f *MappedFile) Changed() <-chan struct{} { return f.changed }

// Err always returns nil; open errors are reported by OpenMapped.
func (f *MappedFile) Err() error { return nil }
