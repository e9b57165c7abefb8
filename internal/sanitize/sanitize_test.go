package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize_RemovesScriptVectors(t *testing.T) {
	s := New(DefaultConfig())

	tests := []struct {
		name   string
		input  string
		absent []string
		keep   string
	}{
		{
			name:   "script element",
			input:  `<p>Hello</p><script>alert('xss')</script>`,
			absent: []string{"<script", "alert"},
			keep:   "Hello",
		},
		{
			name:   "event handler",
			input:  `<img src="/a.png" onerror="alert(1)">`,
			absent: []string{"onerror"},
			keep:   `src="/a.png"`,
		},
		{
			name:   "javascript href",
			input:  `<a href="javascript:alert(1)">click</a>`,
			absent: []string{"javascript"},
			keep:   "click",
		},
		{
			name:   "data uri image",
			input:  `<img src="data:text/html,&lt;script&gt;alert(1)&lt;/script&gt;">`,
			absent: []string{"data:"},
		},
		{
			name:   "iframe",
			input:  `<iframe src="https://evil.example"></iframe><p>ok</p>`,
			absent: []string{"iframe"},
			keep:   "ok",
		},
		{
			name:   "style element",
			input:  `<style>body{display:none}</style><em>x</em>`,
			absent: []string{"<style", "display:none"},
			keep:   "<em>x</em>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Sanitize(tt.input)
			for _, a := range tt.absent {
				assert.NotContains(t, got, a)
			}
			if tt.keep != "" {
				assert.Contains(t, got, tt.keep)
			}
		})
	}
}

func TestSanitize_KeepsCompilerOutput(t *testing.T) {
	s := New(DefaultConfig())

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"heading id", `<h2 id="hintro">Intro</h2>`, `id="hintro"`},
		{"highlight classes", `<pre tabindex="0" class="chroma"><code><span class="kd">func</span></code></pre>`, `<span class="kd">func</span>`},
		{"copy button", `<div class="code_wrap"><button title="copy" class="copy_code_button">c</button></div>`, `<button title="copy" class="copy_code_button">`},
		{"mermaid block", `<div class="mermaid">graph TD;</div>`, `<div class="mermaid">`},
		{"relative link", `<a href="/about">About</a>`, `href="/about"`},
		{"fragment link", `<a class="md-header-anchor" href="#hx"></a>`, `href="#hx"`},
		{"task checkbox", `<input checked="" disabled="" type="checkbox">`, `type="checkbox"`},
		{"table", `<table><tr><td>1</td></tr></table>`, `<td>1</td>`},
		{"aligned cell", `<table><tr><td align="center">1</td></tr></table>`, `<td align="center">1</td>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, s.Sanitize(tt.input), tt.want)
		})
	}
}

func TestSanitize_ExternalLinks(t *testing.T) {
	got := New(DefaultConfig()).Sanitize(`<a href="https://example.com">x</a>`)
	assert.Contains(t, got, `target="_blank"`)
	assert.Contains(t, got, "noopener")

	got = New(Config{}).Sanitize(`<a href="https://example.com">x</a>`)
	assert.NotContains(t, got, "_blank")
}

func TestSanitize_Extras(t *testing.T) {
	s := New(Config{
		ExtraElements:   []string{"video"},
		ExtraAttributes: map[string][]string{"video": {"controls"}, "*": {"data-line"}},
		URLSchemes:      []string{"https"},
	})

	got := s.Sanitize(`<video controls="">v</video><span data-line="3">s</span>`)
	assert.Contains(t, got, "<video")
	assert.Contains(t, got, `data-line="3"`)

	got = s.Sanitize(`<a href="http://example.com">plain http</a>`)
	assert.NotContains(t, got, "http://example.com")
	got = s.Sanitize(`<a href="mailto:me@example.com">mail</a>`)
	assert.NotContains(t, got, "mailto:")
	got = s.Sanitize(`<a href="https://example.com">tls</a>`)
	assert.Contains(t, got, `href="https://example.com"`)
}

func TestSanitize_LocalLinksUntouched(t *testing.T) {
	s := New(DefaultConfig())
	in := `<a class="md-header-anchor" href="#hintro"></a><a href="notes/a.md">a</a>`
	assert.Equal(t, in, s.Sanitize(in))
	assert.NotContains(t, s.Sanitize(`<a href="https://example.com">x</a>`), "nofollow")
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "Hello world", PlainText("<p>Hello <b>world</b></p>"))
	assert.Equal(t, "", PlainText("<script>alert(1)</script>"))
	assert.Equal(t, "Q&A <notes>", PlainText("<em>Q&amp;A</em> &lt;notes&gt;"))
}
