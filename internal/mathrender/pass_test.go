package mathrender

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

type fakeRenderer struct {
	calls []string
	fail  map[string]bool
}

func (f *fakeRenderer) Render(tex string, display bool) (string, error) {
	f.calls = append(f.calls, tex)
	if f.fail[tex] {
		return "", errors.New("undefined control sequence")
	}
	mode := "inline"
	if display {
		mode = "block"
	}
	return `<math display="` + mode + `"><mi>` + tex + `</mi></math>`, nil
}

func mount(t *testing.T, fragment string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader("<div id=\"root\">" + fragment + "</div>"))
	require.NoError(t, err)
	var find func(*html.Node) *html.Node
	find = func(n *html.Node) *html.Node {
		if n.Type == html.ElementNode && n.Data == "div" {
			return n
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if r := find(c); r != nil {
				return r
			}
		}
		return nil
	}
	root := find(doc)
	require.NotNil(t, root)
	return root
}

func render(t *testing.T, n *html.Node) string {
	t.Helper()
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		require.NoError(t, html.Render(&sb, c))
	}
	return sb.String()
}

func TestPassApply(t *testing.T) {
	fake := &fakeRenderer{}
	p := &Pass{Renderer: fake, Delimiters: dollars, IgnoredTags: DefaultIgnoredTags}

	root := mount(t, `<p>area $r^2$ and</p><p>$$e$$</p><pre>$not$</pre><code>$no$</code>`)
	stats, err := p.Apply(root)
	require.NoError(t, err)

	assert.Equal(t, Stats{Rendered: 2}, stats)
	assert.Equal(t, []string{"r^2", "e"}, fake.calls)

	out := render(t, root)
	assert.Contains(t, out, `<p>area <span class="math math-inline"><math display="inline"><mi>r^2</mi></math></span> and</p>`)
	assert.Contains(t, out, `<span class="math math-display">`)
	assert.Contains(t, out, `<pre>$not$</pre>`)
	assert.Contains(t, out, `<code>$no$</code>`)
	assert.NotContains(t, out, "$r^2$")
}

func TestPassApply_FailureLeavesRawText(t *testing.T) {
	fake := &fakeRenderer{fail: map[string]bool{`\bad`: true}}
	var reported []Segment
	p := &Pass{
		Renderer:   fake,
		Delimiters: dollars,
		OnError:    func(seg Segment, err error) { reported = append(reported, seg) },
	}

	root := mount(t, `<p>$\bad$ then $ok$</p>`)
	stats, err := p.Apply(root)
	require.NoError(t, err)

	assert.Equal(t, Stats{Rendered: 1, Failed: 1}, stats)
	require.Len(t, reported, 1)
	assert.Equal(t, `$\bad$`, reported[0].Raw)

	out := render(t, root)
	assert.Contains(t, out, `$\bad$ then `)
	assert.Contains(t, out, `<mi>ok</mi>`)
}

func TestPassApply_NoDelimiters(t *testing.T) {
	fake := &fakeRenderer{}
	root := mount(t, `<p>$x$</p>`)
	stats, err := (&Pass{Renderer: fake}).Apply(root)
	require.NoError(t, err)
	assert.Zero(t, stats)
	assert.Empty(t, fake.calls)
	assert.Equal(t, `<p>$x$</p>`, render(t, root))
}

func TestPassApply_Idempotent(t *testing.T) {
	fake := &fakeRenderer{}
	p := &Pass{Renderer: fake, Delimiters: dollars, IgnoredTags: DefaultIgnoredTags}
	root := mount(t, `<p>$x$</p>`)

	_, err := p.Apply(root)
	require.NoError(t, err)
	first := render(t, root)

	stats, err := p.Apply(root)
	require.NoError(t, err)
	assert.Zero(t, stats.Rendered)
	assert.Equal(t, first, render(t, root))
}

func TestMathML(t *testing.T) {
	out, err := NewMathML().Render("x^2", false)
	require.NoError(t, err)
	assert.Contains(t, out, "<math")
	assert.Contains(t, out, "msup")

	root := mount(t, `<p>$x^2$</p>`)
	stats, err := NewPass([]Delimiter{{Left: "$", Right: "$"}}).Apply(root)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Rendered)
	got := render(t, root)
	assert.Contains(t, got, "<math")
	assert.NotContains(t, got, "$x^2$")
}
