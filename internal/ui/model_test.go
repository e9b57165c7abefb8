package ui

import (
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyaoi/mdpane/internal/config"
	"github.com/kyaoi/mdpane/internal/tree"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "ctrl+l":
		return tea.KeyMsg{Type: tea.KeyCtrlL}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func fixture(t *testing.T) (string, State) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "docs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "docs", "guide.md"),
		[]byte("---\ntitle: Guide\n---\n# Guide\n\nArea $$x^2$$ here.\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.md"), []byte("# Readme\n"), 0o644))

	cfg := config.Default()
	cfg.Watch = false
	root := tree.NewRoot("proj", tree.NewFSLoader(dir))
	return dir, State{
		Message:     "pick one",
		HeaderPath:  "proj/",
		TreeRoot:    root,
		RootDir:     dir,
		DisplayRoot: "proj",
		FocusTree:   true,
		Config:      cfg,
	}
}

func TestModel_OpenFromTree(t *testing.T) {
	_, state := fixture(t)
	m := NewModel(state)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	assert.Contains(t, view(m), "pick one")
	assert.Equal(t, []string{"proj/", "+ docs/", "  readme.md"}, labels(m))

	m.Update(key("j"))
	m.Update(key("enter"))
	assert.Equal(t, []string{"proj/", "- docs/", "    guide.md", "  readme.md"}, labels(m))

	m.Update(key("j"))
	m.Update(key("enter"))
	require.NotNil(t, m.doc)
	p := m.doc.Props()
	assert.Equal(t, "Guide", p.Label)
	assert.Contains(t, p.Value, "# Guide")
	assert.Equal(t, 1, m.doc.MathStats().Rendered)

	line := ansi.Strip(m.statusLine())
	assert.Contains(t, line, "proj/docs/guide.md")
	assert.Contains(t, line, "sanitize:on")
	assert.Contains(t, line, "math:1")
	assert.Contains(t, line, "complete")
}

func TestModel_Toggles(t *testing.T) {
	dir, state := fixture(t)
	state.TreeRoot = nil
	m := NewModel(state)
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 20})
	m.openFile(filepath.Join(dir, "readme.md"), "readme.md")
	require.NotNil(t, m.doc)

	m.Update(key("s"))
	assert.False(t, m.doc.Props().SanitizeHTML)
	assert.Contains(t, ansi.Strip(m.statusLine()), "sanitize:off")

	m.Update(key("r"))
	assert.True(t, m.doc.Props().RTL)
	assert.Contains(t, ansi.Strip(m.statusLine()), "rtl")
}

func TestModel_ReloadFiresChange(t *testing.T) {
	dir, state := fixture(t)
	m := NewModel(state)
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 20})
	path := filepath.Join(dir, "readme.md")
	m.openFile(path, "readme.md")

	require.NoError(t, os.WriteFile(path, []byte("# Changed\n"), 0o644))
	m.reload()
	assert.Equal(t, "# Changed\n", m.doc.Props().Value)

	select {
	case msg := <-m.changes:
		assert.IsType(t, widgetChangedMsg{}, msg)
	default:
		t.Fatal("no change message queued")
	}
	m.Update(widgetChangedMsg{})
	assert.Contains(t, view(m), "Changed")
}

func TestModel_Help(t *testing.T) {
	_, state := fixture(t)
	m := NewModel(state)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m.Update(key("?"))
	assert.Contains(t, view(m), "toggle sanitize flag")
	m.Update(key("?"))
	assert.NotContains(t, view(m), "toggle sanitize flag")
}

func labels(m *Model) []string {
	var out []string
	for _, l := range m.tree.lines {
		out = append(out, l.label)
	}
	return out
}

func view(m *Model) string {
	return ansi.Strip(m.View())
}
