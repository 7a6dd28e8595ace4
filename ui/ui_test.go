package ui

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/streampager/streampager/internal/file"
	"github.com/streampager/streampager/internal/prompt"
	"github.com/streampager/streampager/internal/screen"
	"github.com/streampager/streampager/internal/search"
)

func fixtureInput(t *testing.T, title string, lines ...string) Input {
	t.Helper()
	f := file.NewControlled(0, title)
	for _, l := range lines {
		f.AppendLine([]byte(l))
	}
	f.Seal()
	return Input{Primary: f}
}

func numbered(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("line %d", i+1)
	}
	return out
}

func fixtureModel(t *testing.T, inputs ...Input) *model {
	t.Helper()
	m := newModel(Config{}, inputs, nil)
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return m
}

func key(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func TestScrollKeysMoveViewport(t *testing.T) {
	m := fixtureModel(t, fixtureInput(t, "main", numbered(100)...))

	m.Update(key("j"))
	if got := m.focused().Top(); got != 1 {
		t.Fatalf("expected top 1 after j, got %d", got)
	}
	m.Update(key("f"))
	if got := m.focused().Top(); got != 24 {
		t.Fatalf("expected top 24 after page down, got %d", got)
	}
	m.Update(key("k"))
	if got := m.focused().Top(); got != 23 {
		t.Fatalf("expected top 23 after k, got %d", got)
	}
	m.Update(key("u"))
	if got := m.focused().Top(); got != 12 {
		t.Fatalf("expected top 12 after half page up, got %d", got)
	}
	m.Update(key("g"))
	if got := m.focused().Top(); got != 0 {
		t.Fatalf("expected top 0 after g, got %d", got)
	}
}

func TestQuitKeySetsQuitting(t *testing.T) {
	m := fixtureModel(t, fixtureInput(t, "main", "content"))
	_, cmd := m.Update(key("q"))
	if !m.quitting {
		t.Fatal("expected quitting after q")
	}
	if cmd == nil {
		t.Fatal("expected a tea.Quit command")
	}
}

func TestFileSwitching(t *testing.T) {
	a := fixtureInput(t, "first", "aaa")
	b := Input{Primary: func() file.File {
		f := file.NewControlled(1, "second")
		f.AppendLine([]byte("bbb"))
		f.Seal()
		return f
	}()}
	m := fixtureModel(t, a, b)

	if m.focus != 0 {
		t.Fatalf("expected focus 0, got %d", m.focus)
	}
	m.Update(key("tab"))
	if m.focus != 1 {
		t.Fatalf("expected focus 1 after tab, got %d", m.focus)
	}
	m.Update(key("tab"))
	if m.focus != 0 {
		t.Fatalf("expected focus to wrap to 0, got %d", m.focus)
	}
}

func TestSearchPromptFlow(t *testing.T) {
	m := fixtureModel(t, fixtureInput(t, "main", "alpha", "beta", "alphabet"))

	m.Update(key("/"))
	if !m.prompt.IsOpen() {
		t.Fatal("expected prompt open after /")
	}
	if m.context() != prompt.ContextPrompt {
		t.Fatal("expected prompt context")
	}
	for _, r := range "alpha" {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	m.Update(key("enter"))
	if m.prompt.IsOpen() {
		t.Fatal("expected prompt closed after accept")
	}
	s := m.focused().Search()
	if s == nil {
		t.Fatal("expected a search attached")
	}
	waitSearchDone(t, s)
	if got := len(s.Matches()); got != 2 {
		t.Fatalf("expected 2 matches, got %d", got)
	}
}

func TestInvalidRegexKeepsPromptOpen(t *testing.T) {
	m := fixtureModel(t, fixtureInput(t, "main", "content"))
	m.Update(key("/"))
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'('}})
	m.Update(key("enter"))
	if !m.prompt.IsOpen() {
		t.Fatal("expected prompt to stay open on invalid regex")
	}
	if m.focused().Search() != nil {
		t.Fatal("expected no search attached on regex error")
	}
}

func TestGotoPrompt(t *testing.T) {
	m := fixtureModel(t, fixtureInput(t, "main", numbered(100)...))
	m.Update(key(":"))
	for _, r := range "42" {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	m.Update(key("enter"))
	if got := m.focused().Top(); got != 41 {
		t.Fatalf("expected top 41 after goto 42, got %d", got)
	}

	m.Update(key(":"))
	for _, r := range "50%" {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	m.Update(key("enter"))
	if got := m.focused().Top(); got != 50 {
		t.Fatalf("expected top 50 after goto 50%%, got %d", got)
	}
}

func TestPromptCancelRestoresIdle(t *testing.T) {
	m := fixtureModel(t, fixtureInput(t, "main", "content"))
	m.Update(key("/"))
	m.Update(key("esc"))
	if m.prompt.IsOpen() {
		t.Fatal("expected prompt closed after esc")
	}
	if m.focused().Mode() != screen.ModeIdle {
		t.Fatal("expected screen back in idle mode")
	}
}

func TestHelpOverlay(t *testing.T) {
	m := fixtureModel(t, fixtureInput(t, "main", "content"))
	m.Update(key("?"))
	if !m.help.visible {
		t.Fatal("expected help visible")
	}
	if m.context() != prompt.ContextHelp {
		t.Fatal("expected help context")
	}
	// Scroll keys are not bound in the help context.
	m.Update(key("j"))
	if got := m.focused().Top(); got != 0 {
		t.Fatalf("expected viewport unmoved under help, got top %d", got)
	}
	m.Update(key("q"))
	if m.help.visible {
		t.Fatal("expected help dismissed by q")
	}
	if m.quitting {
		t.Fatal("q under help must dismiss, not quit")
	}
}

func TestViewShowsContentAndStatus(t *testing.T) {
	m := fixtureModel(t, fixtureInput(t, "main", numbered(200)...))
	v := m.View()
	rows := strings.Split(v, "\n")
	if len(rows) != 24 {
		t.Fatalf("expected 24 rows, got %d", len(rows))
	}
	if !strings.Contains(rows[0], "line 1") {
		t.Fatalf("expected first line in view, got %q", rows[0])
	}
	if !strings.Contains(rows[23], "[1-23/200") {
		t.Fatalf("expected status position, got %q", rows[23])
	}
}

func TestFileChangedRearmsWatcher(t *testing.T) {
	f := file.NewControlled(0, "growing")
	f.AppendLine([]byte("first"))
	m := fixtureModel(t, Input{Primary: f})

	_, cmd := m.Update(fileChangedMsg{id: 0})
	if cmd == nil {
		t.Fatal("expected re-armed watcher command")
	}
}

func TestDumpInline(t *testing.T) {
	var buf bytes.Buffer
	in := fixtureInput(t, "main", "abc", "def")
	if err := dumpInline(&buf, []Input{in}); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "abc\ndef\n" {
		t.Fatalf("expected %q, got %q", "abc\ndef\n", got)
	}
}

func waitSearchDone(t *testing.T, s *search.Search) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.Poll().State != search.Running {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("search did not finish in time")
}
