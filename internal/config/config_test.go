package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyaoi/mdpane/internal/mathrender"
	"github.com/kyaoi/mdpane/internal/widget"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	p := cfg.Props()
	assert.True(t, p.SanitizeHTML)
	assert.True(t, p.LineBreaks)
	assert.True(t, p.Visible)
	assert.Equal(t, mathrender.DefaultDelimiters(), p.LatexDelimiters)
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, "mdpane.yaml", `
addr: ":9000"
style: monokai
widget:
  rtl: true
  header_links: true
  latex_delimiters:
    - {left: "$", right: "$"}
    - {left: "\\[", right: "\\]", display: true}
  elem_classes: [wide]
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, "monokai", cfg.Style)
	assert.Equal(t, "info", cfg.LogLevel)

	p := cfg.Props()
	assert.True(t, p.RTL)
	assert.True(t, p.HeaderLinks)
	assert.True(t, p.SanitizeHTML)
	assert.Equal(t, []string{"wide"}, p.ElemClasses)
	assert.Equal(t, []mathrender.Delimiter{
		{Left: "$", Right: "$"},
		{Left: `\[`, Right: `\]`, Display: true},
	}, p.LatexDelimiters)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bad.yaml", "adress: x\n"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "delims.yaml", "widget:\n  latex_delimiters:\n    - {left: \"$\"}\n"))
	assert.Error(t, err)

	cfg, err := Load(writeFile(t, "empty.yaml", ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseDocument(t *testing.T) {
	src := []byte(`---
title: Notes
tags: [Go, math]
rtl: true
latex_delimiters:
  - {left: "$", right: "$"}
---
# Body
`)
	doc, err := ParseDocument(src)
	require.NoError(t, err)
	assert.Equal(t, "# Body\n", doc.Body)
	assert.Equal(t, "Notes", doc.Meta.Title)
	assert.True(t, doc.Meta.HasTag("go"))
	assert.False(t, doc.Meta.HasTag("rust"))

	p := doc.Meta.Apply(widget.DefaultProps())
	assert.Equal(t, "Notes", p.Label)
	assert.True(t, p.RTL)
	assert.True(t, p.SanitizeHTML)
	assert.Equal(t, []mathrender.Delimiter{{Left: "$", Right: "$"}}, p.LatexDelimiters)
}

func TestParseDocument_NoFrontMatter(t *testing.T) {
	doc, err := ParseDocument([]byte("# Just text\n"))
	require.NoError(t, err)
	assert.Equal(t, "# Just text\n", doc.Body)
	assert.Equal(t, Meta{}, doc.Meta)

	p := doc.Meta.Apply(widget.DefaultProps())
	assert.Equal(t, widget.DefaultProps(), p)
}

func TestReadDocument(t *testing.T) {
	path := writeFile(t, "doc.md", "---\ntags: [a]\n---\nhello\n")
	doc, err := ReadDocument(path)
	require.NoError(t, err)

	cfg := Default()
	cfg.Widget.RTL = true
	p := cfg.PropsFor(doc, "doc.md")
	assert.Equal(t, "doc.md", p.Label)
	assert.Equal(t, "hello\n", p.Value)
	assert.True(t, p.RTL)

	_, err = ReadDocument(filepath.Join(t.TempDir(), "none.md"))
	assert.Error(t, err)
}
