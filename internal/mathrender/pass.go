package mathrender

import (
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultIgnoredTags are never searched for math.
var DefaultIgnoredTags = []string{"script", "noscript", "style", "textarea", "pre", "code", "option"}

// Stats counts what a pass did.
type Stats struct {
	Rendered int
	Failed   int
}

// Pass replaces delimiter-enclosed text in a mounted tree with typeset math.
type Pass struct {
	Renderer    Renderer
	Delimiters  []Delimiter
	IgnoredTags []string
	// OnError is called for every span the renderer rejects. The span's raw
	// text stays in the tree.
	OnError func(seg Segment, err error)
}

// NewPass returns a pass with the MathML renderer and default ignored tags.
func NewPass(delims []Delimiter) *Pass {
	return &Pass{
		Renderer:    NewMathML(),
		Delimiters:  delims,
		IgnoredTags: DefaultIgnoredTags,
	}
}

// Apply walks the text below root and renders every math span in place.
func (p *Pass) Apply(root *html.Node) (Stats, error) {
	var stats Stats
	if root == nil || len(p.Delimiters) == 0 {
		return stats, nil
	}
	ignored := make(map[string]bool, len(p.IgnoredTags))
	for _, t := range p.IgnoredTags {
		ignored[strings.ToLower(t)] = true
	}
	err := p.walk(root, ignored, &stats)
	return stats, err
}

func (p *Pass) walk(n *html.Node, ignored map[string]bool, stats *Stats) error {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		switch c.Type {
		case html.TextNode:
			if err := p.replaceText(c, stats); err != nil {
				return err
			}
		case html.ElementNode:
			if ignored[c.Data] || c.Namespace == "math" {
				break
			}
			if err := p.walk(c, ignored, stats); err != nil {
				return err
			}
		}
		c = next
	}
	return nil
}

func (p *Pass) replaceText(text *html.Node, stats *Stats) error {
	segs := SplitAtDelimiters(text.Data, p.Delimiters)
	if !containsMath(segs) {
		return nil
	}
	parent := text.Parent
	for _, seg := range segs {
		if !seg.Math {
			parent.InsertBefore(&html.Node{Type: html.TextNode, Data: seg.Data}, text)
			continue
		}
		el, err := p.render(seg)
		if err != nil {
			var perr *ParseError
			if !errors.As(err, &perr) {
				return err
			}
			stats.Failed++
			p.reportError(seg, err)
			parent.InsertBefore(&html.Node{Type: html.TextNode, Data: seg.Raw}, text)
			continue
		}
		stats.Rendered++
		parent.InsertBefore(el, text)
	}
	parent.RemoveChild(text)
	return nil
}

func (p *Pass) render(seg Segment) (*html.Node, error) {
	r := p.Renderer
	if r == nil {
		r = NewMathML()
	}
	mml, err := r.Render(seg.Data, seg.Display)
	if err != nil {
		if _, ok := err.(*ParseError); !ok {
			err = &ParseError{Source: seg.Data, Display: seg.Display, Err: err}
		}
		return nil, err
	}

	class := "math math-inline"
	if seg.Display {
		class = "math math-display"
	}
	wrapper := &html.Node{
		Type:     html.ElementNode,
		Data:     "span",
		DataAtom: atom.Span,
		Attr:     []html.Attribute{{Key: "class", Val: class}},
	}
	nodes, err := html.ParseFragment(strings.NewReader(mml), wrapper)
	if err != nil {
		return nil, errors.Wrap(err, "parse rendered math")
	}
	for _, n := range nodes {
		wrapper.AppendChild(n)
	}
	return wrapper, nil
}

func (p *Pass) reportError(seg Segment, err error) {
	if p.OnError != nil {
		p.OnError(seg, err)
		return
	}
	zap.S().Warnw("math render failed", "tex", seg.Data, "display", seg.Display, "err", err)
}

func containsMath(segs []Segment) bool {
	for _, s := range segs {
		if s.Math {
			return true
		}
	}
	return false
}
