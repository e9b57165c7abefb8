package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDoc(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadInitialState_Dir(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "a.md", "# A")

	state, err := LoadInitialState(dir)
	require.NoError(t, err)
	require.NotNil(t, state.TreeRoot)
	assert.Equal(t, filepath.Base(dir)+"/", state.HeaderPath)
	assert.True(t, state.FocusTree)
	assert.Empty(t, state.ActivePath)

	empty := t.TempDir()
	state, err = LoadInitialState(empty)
	require.NoError(t, err)
	assert.Contains(t, state.Message, "No Markdown files")
}

func TestLoadInitialState_File(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "a.md", "# A")

	state, err := LoadInitialState(filepath.Join(dir, "a.md"))
	require.NoError(t, err)
	assert.Nil(t, state.TreeRoot)
	assert.Equal(t, filepath.Join(dir, "a.md"), state.ActivePath)

	_, err = LoadInitialState(filepath.Join(dir, "missing.md"))
	assert.Error(t, err)
}

func TestLoadTaggedState(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "go/intro.md", "---\ntags: [go]\n---\n# Intro\n")
	writeDoc(t, dir, "go/other.md", "---\ntags: [rust]\n---\n# Other\n")
	writeDoc(t, dir, "plain.md", "# Plain\n")
	writeDoc(t, dir, "top.md", "---\ntags: [Go, web]\n---\n# Top\n")

	state, err := LoadTaggedState(dir, "go")
	require.NoError(t, err)
	assert.Equal(t, "go/intro.md", state.Selection)

	files, err := state.TreeRoot.Files()
	require.NoError(t, err)
	assert.Equal(t, []string{"go/intro.md", "top.md"}, files)

	_, err = LoadTaggedState(dir, "haskell")
	assert.Error(t, err)

	_, err = LoadTaggedState(filepath.Join(dir, "plain.md"), "go")
	assert.Error(t, err)
}
