package markdown

import (
	"bytes"
	"strconv"

	"github.com/shurcooL/sanitized_anchor_name"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
	"golang.org/x/text/unicode/norm"
)

// HeadingID returns the id a heading with the given text gets. seen tracks
// earlier slugs so repeats become slug-1, slug-2. Titles are NFC-normalized
// first, so composed and decomposed accents give the same id.
func HeadingID(title string, seen map[string]int) string {
	slug := sanitized_anchor_name.Create(norm.NFC.String(title))
	if n, ok := seen[slug]; ok {
		seen[slug] = n + 1
		slug = slug + "-" + strconv.Itoa(n+1)
	} else {
		seen[slug] = 0
	}
	return "h" + slug
}

type headerLinks struct{}

func (headerLinks) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithASTTransformers(
		util.Prioritized(headerLinks{}, 200),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(headerLinks{}, 100),
	))
}

func (headerLinks) Transform(doc *ast.Document, reader text.Reader, _ parser.Context) {
	seen := map[string]int{}
	source := reader.Source()
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if h, ok := n.(*ast.Heading); ok {
			h.SetAttributeString("id", []byte(HeadingID(headingText(h, source), seen)))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
}

func headingText(h *ast.Heading, source []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(h, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := n.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(source))
		case *ast.String:
			buf.Write(t.Value)
		case *MathSpan:
			buf.Write(t.Raw)
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

func (headerLinks) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindHeading, renderHeading)
}

func renderHeading(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*ast.Heading)
	if !entering {
		_, _ = w.WriteString("</h")
		_ = w.WriteByte("0123456"[n.Level])
		_, _ = w.WriteString(">\n")
		return ast.WalkContinue, nil
	}
	_, _ = w.WriteString("<h")
	_ = w.WriteByte("0123456"[n.Level])
	if n.Attributes() != nil {
		gmhtml.RenderAttributes(w, n, gmhtml.HeadingAttributeFilter)
	}
	_ = w.WriteByte('>')
	if id, ok := n.AttributeString("id"); ok {
		if b, ok := id.([]byte); ok {
			_, _ = w.WriteString(`<a class="md-header-anchor" href="#`)
			_, _ = w.Write(util.EscapeHTML(b))
			_, _ = w.WriteString(`"></a>`)
		}
	}
	return ast.WalkContinue, nil
}
