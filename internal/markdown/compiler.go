// Package markdown compiles GitHub-flavored Markdown to HTML for the
// widget: highlighted code, mermaid blocks, guarded math and header links.
package markdown

import (
	"bytes"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/kyaoi/mdpane/internal/highlight"
	"github.com/kyaoi/mdpane/internal/mathrender"
)

// Options selects the optional parts of the grammar.
type Options struct {
	// LineBreaks renders single newlines as <br>.
	LineBreaks bool
	// HeaderLinks gives headings "h"-prefixed slug ids and an anchor link.
	HeaderLinks bool
	// Emoji expands :shortcodes:.
	Emoji bool
	// Delimiters are kept verbatim so the mount pass can typeset them.
	Delimiters []mathrender.Delimiter
}

// Compiler converts Markdown to HTML. Raw HTML passes through unchanged;
// sanitizing is left to the caller.
type Compiler struct {
	md goldmark.Markdown
}

// NewCompiler builds a GFM compiler. Fenced code is highlighted with the
// style of hl, or the default style when hl is nil.
func NewCompiler(opts Options, hl *highlight.Highlighter) *Compiler {
	if hl == nil {
		hl = highlight.New("")
	}

	exts := []goldmark.Extender{
		// GFM, with cell alignment as align attributes the sanitizer keeps verbatim
		extension.Linkify,
		extension.NewTable(extension.WithTableCellAlignMethod(extension.TableCellAlignAttribute)),
		extension.Strikethrough,
		extension.TaskList,
		highlighting.NewHighlighting(
			highlighting.WithStyle(hl.StyleName()),
			highlighting.WithFormatOptions(
				chromahtml.WithClasses(true),
			),
			highlighting.WithWrapperRenderer(wrapFencedCode),
		),
		codeWrap{},
		mermaid{},
	}
	if len(opts.Delimiters) > 0 {
		exts = append(exts, &mathGuard{delims: opts.Delimiters})
	}
	if opts.HeaderLinks {
		exts = append(exts, headerLinks{})
	}
	if opts.Emoji {
		exts = append(exts, emoji.Emoji)
	}

	rendererOpts := []renderer.Option{
		gmhtml.WithUnsafe(),
	}
	if opts.LineBreaks {
		rendererOpts = append(rendererOpts, gmhtml.WithHardWraps())
	}

	md := goldmark.New(
		goldmark.WithExtensions(exts...),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(rendererOpts...),
	)
	return &Compiler{md: md}
}

// Compile converts src to HTML.
func (c *Compiler) Compile(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.md.Convert(src, &buf); err != nil {
		return nil, errors.Wrap(err, "convert markdown")
	}
	return buf.Bytes(), nil
}

// CompileString is Compile for strings.
func (c *Compiler) CompileString(src string) (string, error) {
	out, err := c.Compile([]byte(src))
	if err != nil {
		return "", err
	}
	return string(out), nil
}
