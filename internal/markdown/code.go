package markdown

import (
	"bytes"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

const copyButton = `<button title="copy" class="copy_code_button">` +
	`<span class="copy-text"></span><span class="check"></span></button>`

// wrapFencedCode puts every fenced block inside a code_wrap div with a copy
// button. Blocks chroma did not highlight get a plain <pre><code>.
func wrapFencedCode(w util.BufWriter, c highlighting.CodeBlockContext, entering bool) {
	if entering {
		_, _ = w.WriteString(`<div class="code_wrap">`)
		_, _ = w.WriteString(copyButton)
		if !c.Highlighted() {
			_, _ = w.WriteString("<pre><code")
			if lang, ok := c.Language(); ok && len(lang) > 0 {
				_, _ = w.WriteString(` class="language-`)
				_, _ = w.Write(util.EscapeHTML(lang))
				_ = w.WriteByte('"')
			}
			_ = w.WriteByte('>')
		}
		return
	}
	if !c.Highlighted() {
		_, _ = w.WriteString("</code></pre>")
	}
	_, _ = w.WriteString("</div>\n")
}

// codeWrap gives indented code blocks the same wrapper as fenced ones.
type codeWrap struct{}

func (codeWrap) Extend(m goldmark.Markdown) {
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(codeWrap{}, 200),
	))
}

func (codeWrap) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindCodeBlock, func(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		_, _ = w.WriteString(`<div class="code_wrap">`)
		_, _ = w.WriteString(copyButton)
		_, _ = w.WriteString("<pre><code>")
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			_, _ = w.Write(util.EscapeHTML(line.Value(source)))
		}
		_, _ = w.WriteString("</code></pre></div>\n")
		return ast.WalkSkipChildren, nil
	})
}

// KindMermaid is the node kind of a mermaid diagram block.
var KindMermaid = ast.NewNodeKind("Mermaid")

// Mermaid is a fenced block tagged "mermaid". It renders as a div the
// diagram script picks up, not as highlighted code.
type Mermaid struct {
	ast.BaseBlock
}

func (n *Mermaid) Kind() ast.NodeKind { return KindMermaid }

func (n *Mermaid) IsRaw() bool { return true }

func (n *Mermaid) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

type mermaid struct{}

func (mermaid) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithASTTransformers(
		util.Prioritized(mermaid{}, 100),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(mermaid{}, 100),
	))
}

func (mermaid) Transform(doc *ast.Document, reader text.Reader, _ parser.Context) {
	var blocks []*ast.FencedCodeBlock
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		fenced, ok := n.(*ast.FencedCodeBlock)
		if ok && bytes.Equal(fenced.Language(reader.Source()), []byte("mermaid")) {
			blocks = append(blocks, fenced)
		}
		return ast.WalkContinue, nil
	})
	for _, b := range blocks {
		parent := b.Parent()
		if parent == nil {
			continue
		}
		m := &Mermaid{}
		m.SetLines(b.Lines())
		parent.ReplaceChild(parent, b, m)
	}
}

func (mermaid) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindMermaid, func(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		_, _ = w.WriteString(`<div class="mermaid">`)
		_, _ = w.Write(util.EscapeHTML(bytes.TrimSpace(linesValue(n, source))))
		_, _ = w.WriteString("</div>\n")
		return ast.WalkSkipChildren, nil
	})
}

func linesValue(n ast.Node, source []byte) []byte {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		buf.Write(line.Value(source))
	}
	return buf.Bytes()
}
