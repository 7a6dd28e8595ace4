package ui

import (
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	isatty "github.com/mattn/go-isatty"
	"golang.org/x/term"

	"github.com/streampager/streampager/internal/file"
)

// Run starts the pager in the configured interface mode and blocks
// until it exits.
//
// In delayed mode, if every primary file reaches end-of-stream before
// the delay expires and the accumulated content fits the terminal, the
// content is written inline and the pager never enters full-screen. A
// keypress during the delay forces full-screen immediately.
func Run(cfg Config, inputs []Input, progress *file.ProgressFile) error {
	// A non-terminal stdout can't host the full-screen interface at
	// all: dump every primary file's content downstream instead.
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		return dumpInline(os.Stdout, inputs)
	}

	switch cfg.Mode {
	case ModeDelayed:
		entered, err := delayedEntry(cfg, inputs)
		if err != nil || !entered {
			return err
		}
		return runProgram(cfg, inputs, progress, tea.WithAltScreen())
	case ModeDirect:
		return runProgram(cfg, inputs, progress)
	default:
		return runProgram(cfg, inputs, progress, tea.WithAltScreen())
	}
}

func runProgram(cfg Config, inputs []Input, progress *file.ProgressFile, opts ...tea.ProgramOption) error {
	log.Debug("entering interactive mode", "files", len(inputs))
	if _, err := NewProgram(cfg, inputs, progress, opts...).Run(); err != nil {
		return fmt.Errorf("unable to run pager: %w", err)
	}
	return nil
}

// delayedEntry waits out the configured delay. It returns true when the
// pager should continue into full-screen, false when the content was
// already written inline and the program is done.
func delayedEntry(cfg Config, inputs []Input) (bool, error) {
	delay := time.Duration(cfg.DelaySeconds * float64(time.Second))
	if delay <= 0 {
		delay = 2 * time.Second
	}
	deadline := time.Now().Add(delay)

	forced := make(chan struct{})
	if cfg.StartupPollInput {
		go pollForKeypress(forced)
	}

	_, rows, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || rows < 2 {
		rows = 24
	}

	for time.Now().Before(deadline) {
		select {
		case <-forced:
			return true, nil
		case <-time.After(20 * time.Millisecond):
		}
		if !allAtEnd(inputs) {
			continue
		}
		if totalLines(inputs) <= rows-1 {
			return false, dumpInline(os.Stdout, inputs)
		}
		// Complete but too tall for the terminal: page it.
		return true, nil
	}
	return true, nil
}

// pollForKeypress reads one byte from the controlling terminal in raw
// mode; any key forces full-screen entry before the delay expires.
func pollForKeypress(forced chan<- struct{}) {
	fd := int(os.Stdin.Fd())
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		tty, err := os.Open("/dev/tty")
		if err != nil {
			return
		}
		defer tty.Close()
		fd = int(tty.Fd())
	}
	old, err := term.MakeRaw(fd)
	if err != nil {
		return
	}
	defer term.Restore(fd, old) //nolint:errcheck
	buf := make([]byte, 1)
	if n, _ := os.NewFile(uintptr(fd), "tty").Read(buf); n > 0 {
		close(forced)
	}
}

func allAtEnd(inputs []Input) bool {
	for _, in := range inputs {
		if in.Primary.WaitingForData() {
			return false
		}
	}
	return true
}

func totalLines(inputs []Input) int {
	n := 0
	for _, in := range inputs {
		n += in.Primary.Lines()
	}
	return n
}

// dumpInline writes every primary file's raw lines to w, in order.
func dumpInline(w io.Writer, inputs []Input) error {
	for _, in := range inputs {
		// Block until the file stops growing so short-lived streams
		// are copied completely.
		for in.Primary.WaitingForData() {
			select {
			case <-in.Primary.Changed():
			case <-time.After(50 * time.Millisecond):
			}
		}
		for i := 0; i < in.Primary.Lines(); i++ {
			b, err := in.Primary.LineBytes(i)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "%s\n", b); err != nil {
				return err
			}
		}
	}
	return nil
}
