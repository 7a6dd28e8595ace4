package ui

import "github.com/streampager/streampager/internal/prompt"

// InterfaceMode selects how the pager takes over the terminal.
type InterfaceMode int

const (
	// ModeFullscreen enters the alternate screen immediately.
	ModeFullscreen InterfaceMode = iota
	// ModeDelayed waits up to DelaySeconds; short input that ends in
	// time is written inline and the pager exits without going
	// full-screen.
	ModeDelayed
	// ModeDirect skips the alternate screen entirely.
	ModeDirect
)

// Config contains everything the display controller needs that was
// resolved by the CLI/config layer.
type Config struct {
	Mode         InterfaceMode
	DelaySeconds float64

	ScrollPastEOF    bool
	ReadAheadLines   uint
	StartupPollInput bool
	WrappingMode     string
	ShowLineNumbers  bool

	Keymap prompt.Keymap

	// Environment-derived defaults, bound by the caller via struct tags.
	Title      string `env:"PAGER_TITLE"`
	ErrorFD    int    `env:"PAGER_ERROR_FD" envDefault:"-1"`
	ProgressFD int    `env:"PAGER_PROGRESS_FD" envDefault:"-1"`
}
