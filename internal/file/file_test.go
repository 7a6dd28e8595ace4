package file

import (
	"io"
	"os"
	"strings"
	"testing"
	"time"
)

// waitFor polls until cond returns true or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestStreamIndexesLines(t *testing.T) {
	f := NewStream(0, "test", strings.NewReader("abc\ndef\nghi\n"))
	<-f.Done()

	if got := f.Lines(); got != 3 {
		t.Fatalf("expected 3 lines, got %d", got)
	}
	for i, want := range []string{"abc", "def", "ghi"} {
		b, err := f.LineBytes(i)
		if err != nil {
			t.Fatal(err)
		}
		if string(b) != want {
			t.Fatalf("line %d: expected %q, got %q", i, want, b)
		}
	}
	if f.WaitingForData() {
		t.Fatal("expected stream to be complete")
	}
}

func TestStreamPartialLastLine(t *testing.T) {
	f := NewStream(0, "test", strings.NewReader("abc\ndef"))
	<-f.Done()

	if got := f.Lines(); got != 2 {
		t.Fatalf("expected 2 lines (one partial), got %d", got)
	}
	b, err := f.LineBytes(1)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "def" {
		t.Fatalf("expected %q, got %q", "def", b)
	}
}

func TestStreamStripsCarriageReturn(t *testing.T) {
	f := NewStream(0, "test", strings.NewReader("abc\r\ndef\r\n"))
	<-f.Done()

	b, err := f.LineBytes(0)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "abc" {
		t.Fatalf("expected %q, got %q", "abc", b)
	}
}

func TestStreamGrowsIncrementally(t *testing.T) {
	pr, pw := io.Pipe()
	f := NewStream(0, "test", pr)

	if _, err := pw.Write([]byte("one\ntw")); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return f.Lines() >= 1 })
	if !f.WaitingForData() {
		t.Fatal("expected stream to still be growing")
	}

	if _, err := pw.Write([]byte("o\n")); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return f.Lines() == 2 })

	b, err := f.LineBytes(1)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "two" {
		t.Fatalf("expected %q, got %q", "two", b)
	}

	pw.Close()
	<-f.Done()
	if f.WaitingForData() {
		t.Fatal("expected stream complete after pipe close")
	}
}

func TestStreamChangedSignals(t *testing.T) {
	pr, pw := io.Pipe()
	f := NewStream(0, "test", pr)

	if _, err := pw.Write([]byte("hello\n")); err != nil {
		t.Fatal(err)
	}
	select {
	case <-f.Changed():
	case <-time.After(2 * time.Second):
		t.Fatal("no change signal after write")
	}
	pw.Close()
	<-f.Done()
}

func TestMappedFile(t *testing.T) {
	path := t.TempDir() + "/content.txt"
	if err := os.WriteFile(path, []byte("alpha\nbeta\ngamma"), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := OpenMapped(1, "content.txt", path)
	if err != nil {
		t.Fatal(err)
	}
	if got := f.Lines(); got != 3 {
		t.Fatalf("expected 3 lines, got %d", got)
	}
	b, err := f.LineBytes(2)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "gamma" {
		t.Fatalf("expected %q, got %q", "gamma", b)
	}
	if f.WaitingForData() {
		t.Fatal("mapped files never wait for data")
	}
}

func TestMappedFileOpenError(t *testing.T) {
	if _, err := OpenMapped(1, "nope", "/definitely/not/here"); err == nil {
		t.Fatal("expected open error")
	}
}

func TestProgressKeepsLastCompletePage(t *testing.T) {
	pr, pw := io.Pipe()
	f := NewProgress(2, "progress", pr)

	if _, err := pw.Write([]byte("A\fB\fC\f")); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return string(f.Page()) == "C" })

	// An unterminated page must not replace the last complete one.
	if _, err := pw.Write([]byte("D")); err != nil {
		t.Fatal(err)
	}
	time.Sleep(20 * time.Millisecond)
	if got := string(f.Page()); got != "C" {
		t.Fatalf("unterminated page replaced last page: got %q", got)
	}

	if _, err := pw.Write([]byte("\f")); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return string(f.Page()) == "D" })
	pw.Close()
}

func TestControlledFile(t *testing.T) {
	f := NewControlled(3, "help")
	f.AppendLine([]byte("first"))
	f.AppendLine([]byte("second"))
	if !f.WaitingForData() {
		t.Fatal("expected controlled file to wait before Seal")
	}
	f.Seal()
	if f.WaitingForData() {
		t.Fatal("expected controlled file complete after Seal")
	}
	if got := f.Lines(); got != 2 {
		t.Fatalf("expected 2 lines, got %d", got)
	}
	b, err := f.LineBytes(1)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "second" {
		t.Fatalf("expected %q, got %q", "second", b)
	}
}

func TestLineBytesOutOfRange(t *testing.T) {
	f := NewStream(0, "test", strings.NewReader("only\n"))
	<-f.Done()
	if _, err := f.LineBytes(5); err == nil {
		t.Fatal("expected out-of-range error")
	}
}
