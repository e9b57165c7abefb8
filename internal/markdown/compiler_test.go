package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyaoi/mdpane/internal/mathrender"
)

func compile(t *testing.T, opts Options, src string) string {
	t.Helper()
	out, err := NewCompiler(opts, nil).CompileString(src)
	require.NoError(t, err)
	return out
}

func TestCompile(t *testing.T) {
	tests := []struct {
		name     string
		opts     Options
		input    string
		contains []string
		excludes []string
	}{
		{
			name:     "paragraph",
			input:    "hello *world*",
			contains: []string{"<p>hello <em>world</em></p>"},
		},
		{
			name:     "raw html passes through",
			input:    "<script>alert(1)</script>",
			contains: []string{"<script>alert(1)</script>"},
		},
		{
			name:     "table",
			input:    "| a | b |\n|---|---|\n| 1 | 2 |\n",
			contains: []string{"<table>", "<td>1</td>"},
		},
		{
			name:     "strikethrough",
			input:    "~~gone~~",
			contains: []string{"<del>gone</del>"},
		},
		{
			name:     "task list",
			input:    "- [x] done\n",
			contains: []string{`type="checkbox"`},
		},
		{
			name:  "highlighted fence",
			input: "```go\nfunc main() {}\n```\n",
			contains: []string{
				`<div class="code_wrap"><button title="copy" class="copy_code_button">`,
				`class="chroma"`,
			},
		},
		{
			name:  "unknown language is escaped",
			input: "```nosuchlang\n<x>\n```\n",
			contains: []string{
				`<div class="code_wrap">`,
				`<pre><code class="language-nosuchlang">&lt;x&gt;`,
				"</code></pre></div>",
			},
		},
		{
			name:     "indented code",
			input:    "    x := 1\n",
			contains: []string{`<div class="code_wrap">` + copyButton + "<pre><code>x := 1\n</code></pre></div>"},
		},
		{
			name:     "mermaid",
			input:    "```mermaid\ngraph TD; A-->B\n```\n",
			contains: []string{`<div class="mermaid">graph TD; A--&gt;B</div>`},
			excludes: []string{"code_wrap"},
		},
		{
			name:     "soft breaks by default",
			input:    "a\nb",
			contains: []string{"<p>a\nb</p>"},
		},
		{
			name:     "line breaks",
			opts:     Options{LineBreaks: true},
			input:    "a\nb",
			contains: []string{"a<br>"},
		},
		{
			name:     "auto heading ids",
			input:    "# Hi",
			contains: []string{`<h1 id="hi">Hi</h1>`},
		},
		{
			name:  "header links",
			opts:  Options{HeaderLinks: true},
			input: "# Hello World\n\n## Dup\n\n## Dup\n",
			contains: []string{
				`<h1 id="hhello-world"><a class="md-header-anchor" href="#hhello-world"></a>Hello World</h1>`,
				`<h2 id="hdup"><a class="md-header-anchor" href="#hdup"></a>Dup</h2>`,
				`<h2 id="hdup-1"><a class="md-header-anchor" href="#hdup-1"></a>Dup</h2>`,
			},
		},
		{
			name:     "emoji",
			opts:     Options{Emoji: true},
			input:    "hi :smile:",
			excludes: []string{":smile:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := compile(t, tt.opts, tt.input)
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestCompile_MathGuard(t *testing.T) {
	dollars := []mathrender.Delimiter{
		{Left: "$$", Right: "$$", Display: true},
		{Left: "$", Right: "$"},
	}

	unguarded := compile(t, Options{}, "see $*a*$ here")
	assert.Contains(t, unguarded, "<em>a</em>")

	guarded := compile(t, Options{Delimiters: dollars}, "see $*a*$ here")
	assert.Contains(t, guarded, "<p>see $*a*$ here</p>")

	block := compile(t, Options{Delimiters: dollars, LineBreaks: true}, "$$\nx^2\n$$\n")
	assert.Contains(t, block, "<div class=\"latex-block\">$$\nx^2\n$$</div>")
	assert.NotContains(t, block, "<br>")

	single := compile(t, Options{Delimiters: dollars}, "$$x < y$$\n")
	assert.Contains(t, single, `<div class="latex-block">$$x &lt; y$$</div>`)

	inline := compile(t, Options{Delimiters: dollars}, "a $$x$$ b")
	assert.Contains(t, inline, "<p>a $$x$$ b</p>")

	unterminated := compile(t, Options{Delimiters: dollars}, "$$ costs money\n\n# Heading\n\n*emph* text\n")
	assert.NotContains(t, unterminated, "latex-block")
	assert.Contains(t, unterminated, "<p>$$ costs money</p>")
	assert.Contains(t, unterminated, ">Heading</h1>")
	assert.Contains(t, unterminated, "<em>emph</em>")

	later := compile(t, Options{Delimiters: dollars}, "$$\nx^2\n\ny\n$$\n\nafter *a*\n")
	assert.Contains(t, later, "<div class=\"latex-block\">$$\nx^2\n\ny\n$$</div>")
	assert.Contains(t, later, "<p>after <em>a</em></p>")
}

func TestHeadingID(t *testing.T) {
	seen := map[string]int{}
	assert.Equal(t, "hintro", HeadingID("Intro", seen))
	assert.Equal(t, "hintro-1", HeadingID("Intro", seen))
	assert.Equal(t, "hintro-2", HeadingID("intro", seen))
	assert.Equal(t, "hgetting-started", HeadingID("Getting Started!", seen))
	assert.Equal(t, "hcafé", HeadingID("Cafe\u0301", seen))
	assert.Equal(t, "hcafé-1", HeadingID("Caf\u00e9", seen))
}
