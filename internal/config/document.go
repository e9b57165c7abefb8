package config

import (
	"bytes"
	"os"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/pkg/errors"

	"github.com/kyaoi/mdpane/internal/mathrender"
	"github.com/kyaoi/mdpane/internal/widget"
)

// Meta is a document's front matter. Unset fields leave props alone.
type Meta struct {
	Title           string                 `yaml:"title" toml:"title" json:"title"`
	Tags            []string               `yaml:"tags" toml:"tags" json:"tags"`
	RTL             *bool                  `yaml:"rtl" toml:"rtl" json:"rtl"`
	SanitizeHTML    *bool                  `yaml:"sanitize_html" toml:"sanitize_html" json:"sanitize_html"`
	LineBreaks      *bool                  `yaml:"line_breaks" toml:"line_breaks" json:"line_breaks"`
	HeaderLinks     *bool                  `yaml:"header_links" toml:"header_links" json:"header_links"`
	MinHeight       *bool                  `yaml:"min_height" toml:"min_height" json:"min_height"`
	LatexDelimiters []mathrender.Delimiter `yaml:"latex_delimiters" toml:"latex_delimiters" json:"latex_delimiters"`
	ElemClasses     []string               `yaml:"elem_classes" toml:"elem_classes" json:"elem_classes"`
}

// Document is a Markdown file split into front matter and body.
type Document struct {
	Meta Meta
	Body string
}

// ParseDocument splits YAML, TOML or JSON front matter from src. A document
// without front matter is all body.
func ParseDocument(src []byte) (Document, error) {
	var meta Meta
	body, err := frontmatter.Parse(bytes.NewReader(src), &meta)
	if err != nil {
		return Document{}, errors.Wrap(err, "parse front matter")
	}
	return Document{Meta: meta, Body: string(body)}, nil
}

// Apply merges the overrides into p. The title becomes the label.
func (m Meta) Apply(p widget.Props) widget.Props {
	if m.Title != "" {
		p.Label = m.Title
	}
	set := func(dst *bool, v *bool) {
		if v != nil {
			*dst = *v
		}
	}
	set(&p.RTL, m.RTL)
	set(&p.SanitizeHTML, m.SanitizeHTML)
	set(&p.LineBreaks, m.LineBreaks)
	set(&p.HeaderLinks, m.HeaderLinks)
	set(&p.MinHeight, m.MinHeight)
	if m.LatexDelimiters != nil {
		p.LatexDelimiters = append([]mathrender.Delimiter(nil), m.LatexDelimiters...)
	}
	if len(m.ElemClasses) > 0 {
		p.ElemClasses = append(append([]string(nil), p.ElemClasses...), m.ElemClasses...)
	}
	return p
}

// HasTag reports whether the tags include tag, ignoring case.
func (m Meta) HasTag(tag string) bool {
	for _, t := range m.Tags {
		if strings.EqualFold(strings.TrimSpace(t), tag) {
			return true
		}
	}
	return false
}

// ReadDocument reads and parses the file at path.
func ReadDocument(path string) (Document, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return Document{}, errors.Wrap(err, "read document")
	}
	doc, err := ParseDocument(src)
	if err != nil {
		return Document{}, errors.Wrapf(err, "%s", path)
	}
	return doc, nil
}

// PropsFor builds the props for doc: configured defaults, then front matter,
// then the body as value. A document without a title is labeled name.
func (c Config) PropsFor(doc Document, name string) widget.Props {
	p := doc.Meta.Apply(c.Props())
	if p.Label == "" {
		p.Label = name
	}
	p.Value = doc.Body
	return p
}
