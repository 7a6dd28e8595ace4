package prompt

// Context selects which key bindings are live.
type Context int

const (
	ContextNormal Context = iota
	ContextPrompt
	ContextHelp
)

// Command is a named action dispatched against a screen or the display
// controller. The controller owns the implementations; this package only
// carries the names and the (context, key-sequence) → command mapping.
type Command string

const (
	CmdNone           Command = ""
	CmdQuit           Command = "quit"
	CmdScrollUp       Command = "scroll-up"
	CmdScrollDown     Command = "scroll-down"
	CmdScrollLeft     Command = "scroll-left"
	CmdScrollRight    Command = "scroll-right"
	CmdPageUp         Command = "page-up"
	CmdPageDown       Command = "page-down"
	CmdHalfPageUp     Command = "half-page-up"
	CmdHalfPageDown   Command = "half-page-down"
	CmdHome           Command = "home"
	CmdEnd            Command = "end"
	CmdToggleNumbers  Command = "toggle-line-numbers"
	CmdCycleWrap      Command = "cycle-wrap"
	CmdNextFile       Command = "next-file"
	CmdPrevFile       Command = "prev-file"
	CmdOpenSearch     Command = "open-search"
	CmdOpenGoto       Command = "open-goto"
	CmdNextMatch      Command = "next-match"
	CmdPrevMatch      Command = "prev-match"
	CmdNextMatchLine  Command = "next-match-line"
	CmdPrevMatchLine  Command = "prev-match-line"
	CmdClearSearch    Command = "clear-search"
	CmdToggleHelp     Command = "toggle-help"
	CmdPromptAccept   Command = "prompt-accept"
	CmdPromptCancel   Command = "prompt-cancel"
	CmdDismissHelp    Command = "dismiss-help"
)

// Keymap maps (context, key-sequence) to a command name. Key sequences
// use Bubble Tea's key-string notation ("q", "ctrl+c", "pgdown"). The
// external keymap file grammar is resolved elsewhere; the core consumes
// only this fully-resolved form.
type Keymap map[Context]map[string]Command

// Lookup returns the command bound to key in ctx, or CmdNone.
func (k Keymap) Lookup(ctx Context, key string) Command {
	if m, ok := k[ctx]; ok {
		if cmd, ok := m[key]; ok {
			return cmd
		}
	}
	return CmdNone
}

// Bind adds or replaces one binding.
func (k Keymap) Bind(ctx Context, key string, cmd Command) {
	m, ok := k[ctx]
	if !ok {
		m = make(map[string]Command)
		k[ctx] = m
	}
	m[key] = cmd
}

// Default returns the built-in binding set.
func Default() Keymap {
	k := Keymap{}
	normal := map[string]Command{
		"q":         CmdQuit,
		"ctrl+c":    CmdQuit,
		"up":        CmdScrollUp,
		"k":         CmdScrollUp,
		"down":      CmdScrollDown,
		"j":         CmdScrollDown,
		"left":      CmdScrollLeft,
		"h":         CmdScrollLeft,
		"right":     CmdScrollRight,
		"l":         CmdScrollRight,
		"pgup":      CmdPageUp,
		"b":         CmdPageUp,
		"pgdown":    CmdPageDown,
		"f":         CmdPageDown,
		" ":         CmdPageDown,
		"u":         CmdHalfPageUp,
		"d":         CmdHalfPageDown,
		"home":      CmdHome,
		"g":         CmdHome,
		"end":       CmdEnd,
		"G":         CmdEnd,
		"#":         CmdToggleNumbers,
		"w":         CmdCycleWrap,
		"tab":       CmdNextFile,
		"shift+tab": CmdPrevFile,
		"/":         CmdOpenSearch,
		":":         CmdOpenGoto,
		".":         CmdNextMatch,
		"n":         CmdNextMatch,
		",":         CmdPrevMatch,
		"N":         CmdPrevMatch,
		">":         CmdNextMatchLine,
		"<":         CmdPrevMatchLine,
		"esc":       CmdClearSearch,
		"?":         CmdToggleHelp,
	}
	for key, cmd := range normal {
		k.Bind(ContextNormal, key, cmd)
	}
	k.Bind(ContextPrompt, "enter", CmdPromptAccept)
	k.Bind(ContextPrompt, "esc", CmdPromptCancel)
	k.Bind(ContextHelp, "q", CmdDismissHelp)
	k.Bind(ContextHelp, "esc", CmdDismissHelp)
	k.Bind(ContextHelp, "?", CmdDismissHelp)
	return k
}
