// Package file presents growing or static byte sources behind one small
// capability set: a count of indexed lines, the bytes of any indexed
// line, and a change signal that fires as new data arrives. Backends are
// tagged variants rather than a deep hierarchy: stream (a descriptor
// copied into an append-only buffer by a reader goroutine), mapped (an
// on-disk file read once at open), progress (form-feed-delimited pages,
// last page wins), and controlled (lines supplied programmatically).
package file

// File is the capability set every backend satisfies. Line indices are
// zero-based. Lines and LineBytes observe a consistent snapshot: every
// line reported by Lines is indexed, and its bytes are stable except for
// a trailing line not yet ended by a newline, which can still grow while
// the source is open.
type File interface {
	// ID is the dense small integer the display controller assigned at
	// creation time. IDs are never reused.
	ID() int

	// Title is the human-readable name shown in the status line.
	Title() string

	// Lines reports how many lines have been indexed so far, counting a
	// trailing line that has no newline yet.
	Lines() int

	// LineBytes returns the raw bytes of line i, without its trailing
	// newline. The returned slice is stable for the life of the File.
	LineBytes(i int) ([]byte, error)

	// NeededLines hints that the caller wants lines up to the given
	// index indexed if the data for them has already arrived. Backends
	// that index eagerly treat it as a no-op.
	NeededLines(upTo int)

	// WaitingForData reports whether more content may still arrive.
	WaitingForData() bool

	// Changed returns a signal channel that receives (with at-most-one
	// pending notification) whenever new lines are indexed or the
	// stream reaches its end.
	Changed() <-chan struct{}

	// Err returns the terminal error recorded on this file, if any.
	// A file with a terminal error stops growing but stays readable.
	Err() error
}

// notify performs a non-blocking send on a capacity-1 signal channel,
// coalescing redundant wakeups.
func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
