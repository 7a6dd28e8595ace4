package buffer

import (
	"strings"
	"testing"
	"time"
)

func TestReadNonBlockingEmpty(t *testing.T) {
	b := New()
	if got := b.Read(0, 16, NonBlocking); got != nil {
		t.Fatalf("expected nil slice, got %q", got)
	}
	if b.Available() != 0 {
		t.Fatalf("expected 0 bytes available, got %d", b.Available())
	}
}

func TestAppendFromAndRead(t *testing.T) {
	b := New()
	r := strings.NewReader("hello world")
	for {
		n, err := b.AppendFrom(r)
		if n == 0 && err != nil {
			break
		}
		if n == 0 {
			break
		}
	}
	b.MarkEnd()

	got := b.Read(0, 5, NonBlocking)
	if string(got) != "hello" {
		t.Fatalf("expected %q, got %q", "hello", got)
	}
	if !b.AtEnd() {
		t.Fatal("expected AtEnd to be true")
	}
}

func TestReadBeyondAvailableNonBlocking(t *testing.T) {
	b := New()
	r := strings.NewReader("abc")
	if _, err := b.AppendFrom(r); err != nil {
		t.Fatal(err)
	}
	if got := b.Read(10, 5, NonBlocking); got != nil {
		t.Fatalf("expected nil, got %q", got)
	}
}

func TestBlockingReadWakesOnAppend(t *testing.T) {
	b := New()
	done := make(chan []byte, 1)
	go func() {
		done <- b.Read(0, 3, Blocking)
	}()

	time.Sleep(10 * time.Millisecond)
	r := strings.NewReader("xyz")
	if _, err := b.AppendFrom(r); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-done:
		if string(got) != "xyz" {
			t.Fatalf("expected %q, got %q", "xyz", got)
		}
	case <-time.After(time.Second):
		t.Fatal("blocking read did not wake up")
	}
}

func TestBlockingReadWakesOnMarkEnd(t *testing.T) {
	b := New()
	done := make(chan []byte, 1)
	go func() {
		done <- b.Read(0, 3, Blocking)
	}()

	time.Sleep(10 * time.Millisecond)
	b.MarkEnd()

	select {
	case got := <-done:
		if got != nil {
			t.Fatalf("expected nil at end of empty stream, got %q", got)
		}
	case <-time.After(time.Second):
		t.Fatal("blocking read did not wake up on MarkEnd")
	}
}

func TestAppendAcrossPageBoundary(t *testing.T) {
	b := New()
	big := strings.Repeat("a", pageSize+10)
	r := strings.NewReader(big)
	var total int
	for total < len(big) {
		n, err := b.AppendFrom(r)
		total += n
		if err != nil {
			break
		}
	}
	b.MarkEnd()
	if b.Available() != int64(len(big)) {
		t.Fatalf("expected %d bytes, got %d", len(big), b.Available())
	}
	got := b.Read(pageSize-5, 10, NonBlocking)
	if len(got) != 10 {
		t.Fatalf("expected 10 bytes spanning page boundary, got %d", len(got))
	}
}
