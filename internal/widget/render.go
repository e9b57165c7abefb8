// Package widget is the Markdown display widget: props in, sanitized HTML
// with typeset math out, plus change notifications for hosts.
package widget

import (
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/kyaoi/mdpane/internal/highlight"
	"github.com/kyaoi/mdpane/internal/markdown"
	"github.com/kyaoi/mdpane/internal/mathrender"
	"github.com/kyaoi/mdpane/internal/sanitize"
	"github.com/kyaoi/mdpane/internal/status"
)

// Props are the widget inputs.
type Props struct {
	ElemID      string   `yaml:"elem_id" json:"elem_id,omitempty"`
	ElemClasses []string `yaml:"elem_classes" json:"elem_classes,omitempty"`
	Visible     bool     `yaml:"visible" json:"visible"`
	Value       string   `yaml:"value" json:"value"`
	// MinHeight gives the container a minimum height.
	MinHeight bool `yaml:"min_height" json:"min_height"`
	RTL       bool `yaml:"rtl" json:"rtl"`
	// SanitizeHTML strips scripts, handlers and unsafe URLs before mounting.
	SanitizeHTML    bool                   `yaml:"sanitize_html" json:"sanitize_html"`
	LatexDelimiters []mathrender.Delimiter `yaml:"latex_delimiters" json:"latex_delimiters"`
	LoadingStatus   *status.Status         `yaml:"-" json:"loading_status,omitempty"`
	Label           string                 `yaml:"label" json:"label,omitempty"`
	HeaderLinks     bool                   `yaml:"header_links" json:"header_links"`
	LineBreaks      bool                   `yaml:"line_breaks" json:"line_breaks"`
}

// DefaultProps returns a visible, sanitizing widget with $$ display math and
// line breaks on.
func DefaultProps() Props {
	return Props{
		Visible:         true,
		SanitizeHTML:    true,
		LatexDelimiters: mathrender.DefaultDelimiters(),
		LineBreaks:      true,
	}
}

// Dir is the text direction attribute for the container.
func (p Props) Dir() string {
	if p.RTL {
		return "rtl"
	}
	return "ltr"
}

// Deps are the collaborators a render needs. Zero fields get defaults.
type Deps struct {
	Highlighter *highlight.Highlighter
	Sanitizer   *sanitize.Sanitizer
	Math        mathrender.Renderer
	// OnMathError sees every span the math renderer rejects.
	OnMathError func(seg mathrender.Segment, err error)
	Emoji       bool
}

func (d Deps) withDefaults() Deps {
	if d.Highlighter == nil {
		d.Highlighter = highlight.New("")
	}
	if d.Sanitizer == nil {
		d.Sanitizer = sanitize.New(sanitize.DefaultConfig())
	}
	if d.Math == nil {
		d.Math = mathrender.NewMathML()
	}
	return d
}

// Output is one render of a widget.
type Output struct {
	HTML string
	Math mathrender.Stats
}

// Render runs the full pipeline for p. A blank value renders nothing.
func Render(p Props, d Deps) (string, error) {
	d = d.withDefaults()
	out, err := render(p, newCompiler(p, d), d)
	return out.HTML, err
}

func newCompiler(p Props, d Deps) *markdown.Compiler {
	return markdown.NewCompiler(markdown.Options{
		LineBreaks:  p.LineBreaks,
		HeaderLinks: p.HeaderLinks,
		Emoji:       d.Emoji,
		Delimiters:  p.LatexDelimiters,
	}, d.Highlighter)
}

func render(p Props, c *markdown.Compiler, d Deps) (Output, error) {
	if strings.TrimSpace(p.Value) == "" {
		return Output{}, nil
	}

	compiled, err := c.Compile([]byte(p.Value))
	if err != nil {
		return Output{}, err
	}
	if p.SanitizeHTML {
		compiled = d.Sanitizer.SanitizeBytes(compiled)
	}

	root, err := mount(p, string(compiled))
	if err != nil {
		return Output{}, err
	}

	var stats mathrender.Stats
	if len(p.LatexDelimiters) > 0 {
		pass := &mathrender.Pass{
			Renderer:    d.Math,
			Delimiters:  p.LatexDelimiters,
			IgnoredTags: mathrender.DefaultIgnoredTags,
			OnError:     d.OnMathError,
		}
		if stats, err = pass.Apply(root); err != nil {
			return Output{}, errors.Wrap(err, "typeset math")
		}
	}

	var sb strings.Builder
	if err := html.Render(&sb, root); err != nil {
		return Output{}, errors.Wrap(err, "serialize widget")
	}
	return Output{HTML: sb.String(), Math: stats}, nil
}

// mount parses body into the widget container element.
func mount(p Props, body string) (*html.Node, error) {
	classes := append([]string{"prose", "md"}, p.ElemClasses...)
	if p.MinHeight {
		classes = append(classes, "min")
	}
	if !p.Visible {
		classes = append(classes, "hide")
	}

	root := &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	}
	if p.ElemID != "" {
		root.Attr = append(root.Attr, html.Attribute{Key: "id", Val: p.ElemID})
	}
	root.Attr = append(root.Attr,
		html.Attribute{Key: "class", Val: strings.Join(classes, " ")},
		html.Attribute{Key: "data-testid", Val: "markdown"},
		html.Attribute{Key: "dir", Val: p.Dir()},
	)

	nodes, err := html.ParseFragment(strings.NewReader(body), root)
	if err != nil {
		return nil, errors.Wrap(err, "mount html")
	}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return root, nil
}
