// Package ui hosts the display controller: the top-level Bubble Tea
// model that owns the files and screens, routes input, file-growth,
// search-progress, and resize events, and drives rendering.
package ui

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"

	"github.com/streampager/streampager/internal/cache"
	"github.com/streampager/streampager/internal/file"
	"github.com/streampager/streampager/internal/prompt"
	"github.com/streampager/streampager/internal/screen"
	"github.com/streampager/streampager/internal/search"
)

// lineCacheSize bounds the number of parsed lines held in memory: a
// comfortable multiple of the largest plausible viewport.
const lineCacheSize = 1024

// redrawDebounce coalesces bursts of file-changed events into one
// redraw.
const redrawDebounce = 16 * time.Millisecond

// Input pairs a primary file with its optional error companion.
type Input struct {
	Primary file.File
	Error   file.File
}

// MSG

type fileChangedMsg struct{ id int }
type searchEventMsg struct{ s *search.Search }
type redrawMsg struct{}

// MODEL

type model struct {
	cfg      Config
	inputs   []Input
	progress *file.ProgressFile

	cache   *cache.Cache
	screens []*screen.Screen
	focus   int

	keymap prompt.Keymap
	prompt prompt.Model
	help   helpModel

	width  int
	height int

	redrawPending bool
	quitting      bool
}

// NewProgram builds the Bubble Tea program for the given inputs. The
// caller decides whether to pass tea.WithAltScreen.
func NewProgram(cfg Config, inputs []Input, progress *file.ProgressFile, opts ...tea.ProgramOption) *tea.Program {
	return tea.NewProgram(newModel(cfg, inputs, progress), opts...)
}

func newModel(cfg Config, inputs []Input, progress *file.ProgressFile) *model {
	if cfg.Keymap == nil {
		cfg.Keymap = prompt.Default()
	}
	m := &model{
		cfg:      cfg,
		inputs:   inputs,
		progress: progress,
		cache:    cache.New(lineCacheSize),
		keymap:   cfg.Keymap,
		prompt:   prompt.New(),
		help:     newHelpModel(),
	}
	profile := termenv.ColorProfile()
	for i, in := range inputs {
		// The progress overlay renders on the first screen only.
		var pf *file.ProgressFile
		if i == 0 {
			pf = progress
		}
		sc := screen.New(in.Primary, in.Error, pf, m.cache, profile)
		sc.SetScrollPastEOF(cfg.ScrollPastEOF)
		if cfg.ShowLineNumbers {
			sc.ToggleLineNumbers()
		}
		applyWrapMode(sc, cfg.WrappingMode)
		m.screens = append(m.screens, sc)
	}
	return m
}

func applyWrapMode(sc *screen.Screen, mode string) {
	steps := map[string]int{"none": 0, "character": 1, "word": 2}
	for i := 0; i < steps[mode]; i++ {
		sc.CycleWrap()
	}
}

func (m *model) focused() *screen.Screen { return m.screens[m.focus] }

// watchedFiles enumerates every file whose growth should wake the event
// loop: primaries, error companions, and the progress stream.
func (m *model) watchedFiles() []file.File {
	var out []file.File
	for _, in := range m.inputs {
		out = append(out, in.Primary)
		if in.Error != nil {
			out = append(out, in.Error)
		}
	}
	if m.progress != nil {
		out = append(out, m.progress)
	}
	return out
}

// INIT

func (m *model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.focused().Spinner.Tick}
	for _, f := range m.watchedFiles() {
		cmds = append(cmds, waitForChange(f))
	}
	return tea.Batch(cmds...)
}

// CMD

// waitForChange bridges a file's coalesced change signal into the event
// loop, re-arming itself each time the message is consumed.
func waitForChange(f file.File) tea.Cmd {
	return func() tea.Msg {
		<-f.Changed()
		return fileChangedMsg{id: f.ID()}
	}
}

// waitForSearch bridges a search's progress signal the same way.
func waitForSearch(s *search.Search) tea.Cmd {
	return func() tea.Msg {
		<-s.Events()
		return searchEventMsg{s: s}
	}
}

// scheduleRedraw delays the actual repaint by a short window so bursts
// of events collapse into one frame.
func scheduleRedraw() tea.Cmd {
	return tea.Tick(redrawDebounce, func(time.Time) tea.Msg { return redrawMsg{} })
}

// UPDATE

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {

	case tea.KeyMsg:
		wasOpen := m.prompt.IsOpen()
		cmd := m.handleKey(msg)
		if m.quitting {
			return m, tea.Quit
		}
		cmds = append(cmds, cmd)
		// Keys the keymap didn't consume edit the prompt text. The key
		// that opened the prompt this very update must not leak in.
		if wasOpen && m.prompt.IsOpen() {
			cmds = append(cmds, m.prompt.Update(msg))
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		for _, sc := range m.screens {
			sc.SetSize(msg.Width, msg.Height)
		}
		m.prompt.SetWidth(msg.Width)
		m.help.setSize(msg.Width, msg.Height)

	case fileChangedMsg:
		for _, sc := range m.screens {
			sc.OnFileChanged(msg.id)
		}
		for _, f := range m.watchedFiles() {
			if f.ID() == msg.id {
				f.NeededLines(m.focused().Top() + int(m.cfg.ReadAheadLines))
				cmds = append(cmds, waitForChange(f))
			}
		}
		cmds = append(cmds, m.requestRedraw())

	case searchEventMsg:
		sc := m.focused()
		if sc.Search() == msg.s {
			// New matches can overlay any visible row, and the status
			// line's match count moved either way.
			sc.Refresh().MarkAll()
			// The first matches landing on a fresh search select and
			// scroll to the first one.
			if !sc.HasSelection() {
				if first, ok := msg.s.First(); ok {
					sc.SelectMatch(first)
				}
			}
			if p := msg.s.Poll(); p.State == search.Running {
				cmds = append(cmds, waitForSearch(msg.s))
			} else if p.State == search.Errored {
				log.Error("search failed", "err", msg.s.Err())
			}
			cmds = append(cmds, m.requestRedraw())
		}

	case spinner.TickMsg:
		cmds = append(cmds, m.focused().UpdateSpinner(msg))

	case redrawMsg:
		m.redrawPending = false
	}

	return m, tea.Batch(cmds...)
}

// requestRedraw arms the debounce window if it is not already pending.
func (m *model) requestRedraw() tea.Cmd {
	if m.redrawPending {
		return nil
	}
	m.redrawPending = true
	return scheduleRedraw()
}

func (m *model) context() prompt.Context {
	switch {
	case m.prompt.IsOpen():
		return prompt.ContextPrompt
	case m.help.visible:
		return prompt.ContextHelp
	default:
		return prompt.ContextNormal
	}
}

func (m *model) handleKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	ctx := m.context()
	cmd := m.keymap.Lookup(ctx, key)
	if cmd == prompt.CmdNone && ctx == prompt.ContextNormal && key == "ctrl+c" {
		// ctrl+c quits even under a rebound keymap.
		cmd = prompt.CmdQuit
	}
	return m.dispatch(cmd)
}

// dispatch runs one named command against the focused screen or the
// controller itself. Unmapped keys (CmdNone) produce no effect.
func (m *model) dispatch(cmd prompt.Command) tea.Cmd {
	sc := m.focused()
	switch cmd {
	case prompt.CmdQuit:
		m.shutdown()
	case prompt.CmdScrollUp:
		sc.ScrollLines(-1)
	case prompt.CmdScrollDown:
		sc.ScrollLines(1)
	case prompt.CmdScrollLeft:
		sc.ScrollColumns(-4)
	case prompt.CmdScrollRight:
		sc.ScrollColumns(4)
	case prompt.CmdPageUp:
		sc.ScrollPages(-1)
	case prompt.CmdPageDown:
		sc.ScrollPages(1)
	case prompt.CmdHalfPageUp:
		sc.ScrollHalfPage(-1)
	case prompt.CmdHalfPageDown:
		sc.ScrollHalfPage(1)
	case prompt.CmdHome:
		sc.Home()
	case prompt.CmdEnd:
		sc.End()
	case prompt.CmdToggleNumbers:
		sc.ToggleLineNumbers()
	case prompt.CmdCycleWrap:
		sc.CycleWrap()
	case prompt.CmdNextFile:
		m.switchFile(1)
	case prompt.CmdPrevFile:
		m.switchFile(-1)
	case prompt.CmdOpenSearch:
		sc.SetMode(screen.ModePrompt)
		return m.prompt.Open(prompt.KindSearch, "/")
	case prompt.CmdOpenGoto:
		sc.SetMode(screen.ModePrompt)
		return m.prompt.Open(prompt.KindGoto, "Goto: ")
	case prompt.CmdNextMatch:
		sc.NextMatch()
	case prompt.CmdPrevMatch:
		sc.PrevMatch()
	case prompt.CmdNextMatchLine:
		sc.NextMatchLine()
	case prompt.CmdPrevMatchLine:
		sc.PrevMatchLine()
	case prompt.CmdClearSearch:
		sc.ClearSearch()
	case prompt.CmdToggleHelp, prompt.CmdDismissHelp:
		m.help.visible = !m.help.visible
		if m.help.visible {
			sc.SetMode(screen.ModeHelp)
		} else {
			sc.SetMode(screen.ModeIdle)
		}
		sc.Refresh().MarkAll()
	case prompt.CmdPromptAccept:
		return m.acceptPrompt()
	case prompt.CmdPromptCancel:
		m.prompt.Close()
		sc.SetMode(screen.ModeIdle)
	}
	return nil
}

func (m *model) shutdown() {
	m.quitting = true
	for _, sc := range m.screens {
		if s := sc.Search(); s != nil {
			s.Cancel()
		}
	}
}

func (m *model) switchFile(delta int) {
	if len(m.screens) < 2 {
		return
	}
	m.focus = (m.focus + delta + len(m.screens)) % len(m.screens)
	m.focused().SetSize(m.width, m.height)
	m.focused().Refresh().MarkAll()
}

// acceptPrompt handles Enter: start a search or jump to a line. A bad
// regex or malformed line number keeps the prompt open with the error
// shown; no other state changes.
func (m *model) acceptPrompt() tea.Cmd {
	sc := m.focused()
	value := m.prompt.Value()
	switch m.prompt.Kind() {
	case prompt.KindSearch:
		if value == "" {
			m.prompt.Close()
			sc.SetMode(screen.ModeIdle)
			return nil
		}
		s, err := search.New(sc.File(), value, 0)
		if err != nil {
			m.prompt.SetError(err.Error())
			return nil
		}
		sc.AttachSearch(s)
		m.prompt.Close()
		sc.SetMode(screen.ModeIdle)
		return waitForSearch(s)
	case prompt.KindGoto:
		target := strings.TrimSpace(value)
		digits, percent := strings.CutSuffix(target, "%")
		n, err := strconv.Atoi(digits)
		if target != "" && err != nil {
			m.prompt.SetError(err.Error())
			return nil
		}
		m.prompt.Close()
		sc.SetMode(screen.ModeIdle)
		if target == "" {
			return nil
		}
		if percent {
			sc.GotoPercent(n)
			return nil
		}
		sc.GotoLine(n)
	}
	return nil
}

// VIEW

func (m *model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if m.help.visible {
		return m.help.view()
	}

	sc := m.focused()
	sc.SetFilePosition(m.focus, len(m.screens))
	bottom := ""
	if m.prompt.IsOpen() {
		bottom = m.prompt.View()
	}
	return sc.View(bottom)
}
