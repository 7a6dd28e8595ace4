// Package buffer implements an append-only, concurrently-readable byte
// buffer that a single producer fills and any number of readers observe.
package buffer

import (
	"io"
	"sync"
)

// pageSize is the allocation unit. Pages are never moved once allocated.
// Read copies out of them, so the slices it returns never alias a page.
const pageSize = 1 << 20 // 1 MiB

// ReadMode selects whether Read waits for more bytes to arrive.
type ReadMode int

const (
	// NonBlocking returns whatever is available immediately, which may
	// be an empty slice.
	NonBlocking ReadMode = iota
	// Blocking waits until at least one byte past the requested offset
	// is available, or the buffer reaches end-of-stream.
	Blocking
)

// Buffer is a growable sequence of bytes written by one producer and read
// by any number of consumers. Bytes, once written at an offset, never
// move or change.
type Buffer struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pages   [][]byte
	written int64
	atEnd   bool
	err     error
}

// New returns an empty Buffer ready to be filled.
func New() *Buffer {
	b := &Buffer{}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Available reports the number of bytes written so far. It is safe to
// call from any goroutine and never blocks.
func (b *Buffer) Available() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.written
}

// AtEnd reports whether MarkEnd has been called.
func (b *Buffer) AtEnd() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.atEnd
}

// Err returns the terminal error recorded by MarkError, if any.
func (b *Buffer) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// Read returns a copy of up to maxLen bytes starting at offset, in a
// freshly allocated slice that does not share memory with the buffer.
// In NonBlocking mode it returns immediately, possibly with fewer bytes
// than requested (or none). In Blocking mode it waits until at least one
// byte past offset is available or the buffer reaches end-of-stream.
func (b *Buffer) Read(offset int64, maxLen int, mode ReadMode) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	if mode == Blocking {
		for offset >= b.written && !b.atEnd {
			b.cond.Wait()
		}
	}

	if offset >= b.written {
		return nil
	}
	n := b.written - offset
	if int64(maxLen) < n {
		n = int64(maxLen)
	}
	return b.readLocked(offset, int(n))
}

// readLocked copies bytes out of the page list. It must be called with
// b.mu held.
func (b *Buffer) readLocked(offset int64, n int) []byte {
	out := make([]byte, 0, n)
	page := int(offset / pageSize)
	pos := int(offset % pageSize)
	for n > 0 && page < len(b.pages) {
		chunk := b.pages[page][pos:]
		if len(chunk) > n {
			chunk = chunk[:n]
		}
		out = append(out, chunk...)
		n -= len(chunk)
		page++
		pos = 0
	}
	return out
}

// AppendFrom reads from r into a fresh page (allocating one if the
// current last page is full) and advances the write cursor. It returns
// the number of bytes copied and any read error (io.EOF is not treated
// as an error here; callers should follow up with MarkEnd).
func (b *Buffer) AppendFrom(r io.Reader) (int, error) {
	b.mu.Lock()
	page, pos := b.tailLocked()
	b.mu.Unlock()

	n, err := r.Read(page[pos:])
	if n > 0 {
		b.mu.Lock()
		b.written += int64(n)
		b.cond.Broadcast()
		b.mu.Unlock()
	}
	return n, err
}

// tailLocked returns the current tail page and write position within it,
// allocating a new page if none exists yet or the last one is full. Must
// be called with b.mu held; the returned slice may be used without the
// lock since pages are never reallocated.
func (b *Buffer) tailLocked() ([]byte, int) {
	pageFull := len(b.pages) == 0 || (b.written > 0 && b.written%pageSize == 0)
	if pageFull {
		b.pages = append(b.pages, make([]byte, pageSize))
	}
	pos := int(b.written % pageSize)
	return b.pages[len(b.pages)-1], pos
}

// MarkEnd sets the end-of-stream flag and wakes all waiters.
func (b *Buffer) MarkEnd() {
	b.mu.Lock()
	b.atEnd = true
	b.cond.Broadcast()
	b.mu.Unlock()
}

// MarkError records a terminal read error, implicitly marking the end of
// the stream, and wakes all waiters.
func (b *Buffer) MarkError(err error) {
	b.mu.Lock()
	b.err = err
	b.atEnd = true
	b.cond.Broadcast()
	b.mu.Unlock()
}
