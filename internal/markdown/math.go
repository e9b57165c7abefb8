package markdown

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/kyaoi/mdpane/internal/mathrender"
)

// KindMathSpan is the node kind of delimited math inside a paragraph.
var KindMathSpan = ast.NewNodeKind("MathSpan")

// MathSpan holds delimited math, delimiters included, so emphasis and
// escapes never touch it.
type MathSpan struct {
	ast.BaseInline
	Raw     []byte
	Display bool
}

func (n *MathSpan) Kind() ast.NodeKind { return KindMathSpan }

func (n *MathSpan) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Raw": string(n.Raw)}, nil)
}

// KindMathBlock is the node kind of a display math block.
var KindMathBlock = ast.NewNodeKind("MathBlock")

// MathBlock is display math that starts a line. It renders as a
// latex-block div holding the source verbatim.
type MathBlock struct {
	ast.BaseBlock
	Delimiter mathrender.Delimiter
	closed    bool
}

func (n *MathBlock) Kind() ast.NodeKind { return KindMathBlock }

func (n *MathBlock) IsRaw() bool { return true }

func (n *MathBlock) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Delimiter": n.Delimiter.String()}, nil)
}

type mathGuard struct {
	delims []mathrender.Delimiter
}

func (e *mathGuard) Extend(m goldmark.Markdown) {
	var display []mathrender.Delimiter
	for _, d := range e.delims {
		if d.Display && d.Left != "" && d.Right != "" {
			display = append(display, d)
		}
	}
	opts := []parser.Option{
		parser.WithInlineParsers(util.Prioritized(&mathSpanParser{delims: e.delims}, 99)),
	}
	if len(display) > 0 {
		opts = append(opts, parser.WithBlockParsers(util.Prioritized(&mathBlockParser{delims: display}, 701)))
	}
	m.Parser().AddOptions(opts...)
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(mathNodeRenderer{}, 100),
	))
}

func triggers(delims []mathrender.Delimiter) []byte {
	var out []byte
	for _, d := range delims {
		if d.Left == "" || bytes.IndexByte(out, d.Left[0]) >= 0 {
			continue
		}
		out = append(out, d.Left[0])
	}
	return out
}

type mathSpanParser struct {
	delims []mathrender.Delimiter
}

func (p *mathSpanParser) Trigger() []byte {
	return triggers(p.delims)
}

func (p *mathSpanParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, _ := block.PeekLine()
	for _, d := range p.delims {
		if d.Left == "" || d.Right == "" || !bytes.HasPrefix(line, []byte(d.Left)) {
			continue
		}
		segs := mathrender.SplitAtDelimiters(string(line), []mathrender.Delimiter{d})
		if len(segs) == 0 || !segs[0].Math {
			continue
		}
		block.Advance(len(segs[0].Raw))
		return &MathSpan{Raw: []byte(segs[0].Raw), Display: d.Display}
	}
	return nil
}

type mathBlockParser struct {
	delims []mathrender.Delimiter
}

func (b *mathBlockParser) Trigger() []byte {
	return triggers(b.delims)
}

func (b *mathBlockParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, segment := reader.PeekLine()
	pos := pc.BlockOffset()
	if pos < 0 || pos >= len(line) {
		return nil, parser.NoChildren
	}
	rest := line[pos:]
	for _, d := range b.delims {
		if !bytes.HasPrefix(rest, []byte(d.Left)) {
			continue
		}
		node := &MathBlock{Delimiter: d}
		body := rest[len(d.Left):]
		if i := bytes.Index(body, []byte(d.Right)); i >= 0 {
			// closed on the opening line: only a block when nothing follows
			if !util.IsBlank(body[i+len(d.Right):]) {
				continue
			}
			node.closed = true
		} else if bytes.Index(reader.Source()[segment.Stop:], []byte(d.Right)) < 0 {
			// never closed: the line stays ordinary text
			continue
		}
		node.Lines().Append(text.NewSegment(segment.Start+pos, segment.Stop))
		reader.Advance(lineLength(line, segment))
		return node, parser.NoChildren
	}
	return nil, parser.NoChildren
}

func (b *mathBlockParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	n := node.(*MathBlock)
	if n.closed {
		return parser.Close
	}
	line, segment := reader.PeekLine()
	if line == nil {
		return parser.Close
	}
	n.Lines().Append(segment)
	reader.Advance(lineLength(line, segment))
	if bytes.Contains(line, []byte(n.Delimiter.Right)) {
		n.closed = true
		return parser.Close
	}
	return parser.Continue | parser.NoChildren
}

func (b *mathBlockParser) Close(node ast.Node, reader text.Reader, pc parser.Context) {}

func (b *mathBlockParser) CanInterruptParagraph() bool { return true }

func (b *mathBlockParser) CanAcceptIndentedLine() bool { return false }

// lineLength is the segment length without its trailing newline.
func lineLength(line []byte, segment text.Segment) int {
	n := segment.Len()
	if len(line) > 0 && line[len(line)-1] == '\n' {
		n--
	}
	return n
}

type mathNodeRenderer struct{}

func (mathNodeRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindMathSpan, renderMathSpan)
	reg.Register(KindMathBlock, renderMathBlock)
}

func renderMathSpan(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		_, _ = w.Write(util.EscapeHTML(node.(*MathSpan).Raw))
	}
	return ast.WalkSkipChildren, nil
}

func renderMathBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	_, _ = w.WriteString(`<div class="latex-block">`)
	_, _ = w.Write(util.EscapeHTML(bytes.TrimRight(linesValue(node, source), "\r\n")))
	_, _ = w.WriteString("</div>\n")
	return ast.WalkSkipChildren, nil
}
