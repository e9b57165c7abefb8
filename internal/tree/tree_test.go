package tree

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	root := Build("notes", []string{"b.md", "Zeta/x.md", "a.md", "alpha/beta/c.md", "/a.md/", ""})

	var names []string
	for _, c := range root.Children {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"alpha", "Zeta", "a.md", "b.md"}, names)

	files, err := root.Files()
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha/beta/c.md", "Zeta/x.md", "a.md", "b.md"}, files)

	n, err := root.Find("alpha/beta/c.md")
	require.NoError(t, err)
	assert.False(t, n.IsDir)
	assert.Equal(t, "beta", n.Parent.Name)

	_, err = root.Find("nope.md")
	assert.Error(t, err)
}

func TestWalkStop(t *testing.T) {
	root := Build("r", []string{"a.md", "b.md", "c.md"})
	var seen []string
	err := root.Walk(func(n *Node) error {
		seen = append(seen, n.Name)
		if n.Name == "b.md" {
			return ErrStop
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"r", "a.md", "b.md"}, seen)
}

func mkfile(t *testing.T, root, rel string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("# x"), 0o644))
}

func TestFSLoader(t *testing.T) {
	dir := t.TempDir()
	mkfile(t, dir, "readme.md")
	mkfile(t, dir, "docs/guide.markdown")
	mkfile(t, dir, "docs/img.png")
	mkfile(t, dir, "empty/notes.txt")
	mkfile(t, dir, ".git/HEAD.md")
	mkfile(t, dir, "node_modules/pkg/README.md")

	loader := NewFSLoader(dir)
	root := NewRoot("proj", loader)

	files, err := root.Files()
	require.NoError(t, err)
	assert.Equal(t, []string{"docs/guide.markdown", "readme.md"}, files)

	has, err := loader.HasMarkdown("empty")
	require.NoError(t, err)
	assert.False(t, has)

	mkfile(t, dir, "empty/new.md")
	has, _ = loader.HasMarkdown("empty")
	assert.False(t, has)
	loader.Forget()
	has, _ = loader.HasMarkdown("empty")
	assert.True(t, has)

	_, err = loader.List("readme.md")
	assert.Error(t, err)
	assert.Equal(t, filepath.Join(dir, "docs", "guide.markdown"), loader.Abs("docs/guide.markdown"))
}
