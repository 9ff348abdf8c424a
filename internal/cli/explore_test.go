package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func press(t *testing.T, m exploreModel, key tea.KeyMsg) (exploreModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(key)
	em, ok := next.(exploreModel)
	if !ok {
		t.Fatalf("Update() returned %T, want exploreModel", next)
	}
	return em, cmd
}

var (
	keyDown      = tea.KeyMsg{Type: tea.KeyDown}
	keyUp        = tea.KeyMsg{Type: tea.KeyUp}
	keyEnter     = tea.KeyMsg{Type: tea.KeyEnter}
	keyBackspace = tea.KeyMsg{Type: tea.KeyBackspace}
	keyQuit      = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}
	keyHelp      = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'?'}}
	keyVimDown   = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}}
)

func TestExploreModel_Navigate(t *testing.T) {
	r := prepare(t, "")
	m := newExploreModel(r.Graph, r.Scope)

	if len(m.entries) != 3 || m.entries[1].info.Node.Name != "a" {
		t.Fatalf("root entries = %d, want z a y", len(m.entries))
	}

	m, _ = press(t, m, keyUp)
	if m.cursor != 0 {
		t.Errorf("cursor after up at top = %d, want 0", m.cursor)
	}

	m, _ = press(t, m, keyDown)
	m, _ = press(t, m, keyEnter)
	if m.scope.Name() != "a" || m.cursor != 0 {
		t.Fatalf("after enter on a: scope %q cursor %d, want a 0", m.scope.Name(), m.cursor)
	}
	if !r.Graph.IsBuilt("a") || !m.scope.Expanded {
		t.Error("opening a did not build and expand it")
	}

	m, _ = press(t, m, keyDown)
	m, _ = press(t, m, keyDown)
	m, _ = press(t, m, keyDown)
	if m.cursor != 2 {
		t.Errorf("cursor after down past end = %d, want 2", m.cursor)
	}
	m, _ = press(t, m, keyEnter)
	if m.scope.Name() != "a/d" {
		t.Fatalf("after enter on a/d: scope %q, want a/d", m.scope.Name())
	}

	m, _ = press(t, m, keyEnter)
	if m.scope.Name() != "a/d" || !strings.Contains(m.status, "is an op") {
		t.Errorf("enter on op: scope %q status %q, want to stay with an op status", m.scope.Name(), m.status)
	}

	m, _ = press(t, m, keyBackspace)
	if m.scope.Name() != "a" || m.cursor != 2 {
		t.Errorf("back from a/d: scope %q cursor %d, want a 2", m.scope.Name(), m.cursor)
	}
	if m.status != "" {
		t.Errorf("status = %q, want cleared on key press", m.status)
	}

	m, _ = press(t, m, keyBackspace)
	if m.scope != r.Graph.Root() || m.cursor != 1 {
		t.Errorf("back from a: scope %q cursor %d, want root 1", m.scope.Name(), m.cursor)
	}

	m, _ = press(t, m, keyBackspace)
	if m.status != "already at the root" {
		t.Errorf("back at root status = %q", m.status)
	}
}

func TestExploreModel_Quit(t *testing.T) {
	r := prepare(t, "")
	m := newExploreModel(r.Graph, r.Scope)

	if _, cmd := press(t, m, keyQuit); cmd == nil {
		t.Error("q returned nil cmd, want tea.Quit")
	}
}

func TestExploreModel_WindowSize(t *testing.T) {
	r := prepare(t, "")
	m := newExploreModel(r.Graph, r.Scope)

	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 10})
	if got := next.(exploreModel).height; got != 5 {
		t.Errorf("height = %d, want 5 (minimum)", got)
	}
	next, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 40})
	if got := next.(exploreModel).height; got != 32 {
		t.Errorf("height = %d, want 32", got)
	}
}

func TestExploreModel_View(t *testing.T) {
	r := prepare(t, "a")
	m := newExploreModel(r.Graph, r.Scope)

	view := m.View()
	for _, want := range []string{"Scope a", "b", "meta (1)", "[1/3]", "quit"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q:\n%s", want, view)
		}
	}
}

func TestExploreModel_Keys(t *testing.T) {
	r := prepare(t, "")
	m := newExploreModel(r.Graph, r.Scope)

	m, _ = press(t, m, keyVimDown)
	if m.cursor != 1 {
		t.Errorf("cursor after j = %d, want 1", m.cursor)
	}

	m, _ = press(t, m, keyHelp)
	if !m.help.ShowAll {
		t.Error("? did not expand the help")
	}
	m, _ = press(t, m, keyHelp)
	if m.help.ShowAll {
		t.Error("second ? did not collapse the help")
	}
}
