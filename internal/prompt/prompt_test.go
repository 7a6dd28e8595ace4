package prompt

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestDefaultKeymapBindings(t *testing.T) {
	k := Default()
	tests := []struct {
		ctx  Context
		key  string
		want Command
	}{
		{ContextNormal, "q", CmdQuit},
		{ContextNormal, "/", CmdOpenSearch},
		{ContextNormal, ".", CmdNextMatch},
		{ContextNormal, "tab", CmdNextFile},
		{ContextPrompt, "enter", CmdPromptAccept},
		{ContextPrompt, "esc", CmdPromptCancel},
		{ContextHelp, "q", CmdDismissHelp},
	}
	for _, tt := range tests {
		if got := k.Lookup(tt.ctx, tt.key); got != tt.want {
			t.Errorf("Lookup(%d, %q) = %q, want %q", tt.ctx, tt.key, got, tt.want)
		}
	}
}

func TestUnmappedKeyProducesNoEffect(t *testing.T) {
	k := Default()
	if got := k.Lookup(ContextNormal, "ctrl+alt+delete"); got != CmdNone {
		t.Fatalf("expected CmdNone for unmapped key, got %q", got)
	}
	// Normal-context bindings must not leak into the prompt context.
	if got := k.Lookup(ContextPrompt, "q"); got != CmdNone {
		t.Fatalf("expected CmdNone for q in prompt context, got %q", got)
	}
}

func TestBindReplaces(t *testing.T) {
	k := Default()
	k.Bind(ContextNormal, "q", CmdScrollDown)
	if got := k.Lookup(ContextNormal, "q"); got != CmdScrollDown {
		t.Fatalf("expected rebinding to win, got %q", got)
	}
}

func TestPromptAcceptsTypedText(t *testing.T) {
	m := New()
	m.Open(KindSearch, "/")
	if !m.IsOpen() {
		t.Fatal("expected prompt open")
	}
	for _, r := range "abc" {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	if m.Value() != "abc" {
		t.Fatalf("expected %q, got %q", "abc", m.Value())
	}

	m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	if m.Value() != "ab" {
		t.Fatalf("expected backspace to delete, got %q", m.Value())
	}
}

func TestPromptCloseResets(t *testing.T) {
	m := New()
	m.Open(KindGoto, "Goto: ")
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'4'}})
	m.Close()
	if m.IsOpen() {
		t.Fatal("expected prompt closed")
	}
	m.Open(KindGoto, "Goto: ")
	if m.Value() != "" {
		t.Fatalf("expected cleared value on reopen, got %q", m.Value())
	}
}

func TestPromptErrorShownAndKeptOpen(t *testing.T) {
	m := New()
	m.Open(KindSearch, "/")
	m.SetError("invalid pattern")
	if !m.IsOpen() {
		t.Fatal("prompt must remain open after an error")
	}
	if !strings.Contains(m.View(), "invalid pattern") {
		t.Fatalf("expected error in view, got %q", m.View())
	}
}
