// Package sanitize cleans compiled HTML before it is mounted into a widget.
//
// The allow-list follows what the markdown compiler emits: formatting, lists,
// tables, highlighted code with its copy button, task-list checkboxes and
// heading anchors. Everything else, most notably <script>, event handler
// attributes and javascript: URLs, is removed.
package sanitize

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Config extends the base allow-list.
type Config struct {
	// ExtraElements are allowed in addition to the base set.
	ExtraElements []string
	// ExtraAttributes maps element names to additional allowed attributes.
	// The key "*" allows the attributes on every element.
	ExtraAttributes map[string][]string
	// URLSchemes replaces the default http, https and mailto schemes.
	URLSchemes []string
	// ExternalLinksInNewTab adds target="_blank" and rel="noopener noreferrer"
	// to fully qualified links.
	ExternalLinksInNewTab bool
}

// DefaultConfig opens external links in a new tab, as the widget does.
func DefaultConfig() Config {
	return Config{ExternalLinksInNewTab: true}
}

var (
	baseElements = []string{
		"h1", "h2", "h3", "h4", "h5", "h6",
		"p", "br", "hr", "div", "span",
		"b", "i", "em", "strong", "u", "s", "strike", "del", "ins", "mark", "small",
		"code", "pre", "kbd", "samp", "var", "tt",
		"blockquote", "cite", "q", "abbr", "dfn",
		"sup", "sub",
		"details", "summary", "figure", "figcaption",
		"section", "article", "aside", "header", "footer",
		"dl", "dt", "dd",
		"button",
	}

	defaultSchemes = []string{"http", "https", "mailto"}

	checkboxType = regexp.MustCompile(`^checkbox$`)
	cellAlign    = regexp.MustCompile(`^(left|right|center)$`)
	tabIndex     = regexp.MustCompile(`^-?[0-9]+$`)
)

// Sanitizer applies one compiled policy. It is safe for concurrent use once built.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// New compiles the policy described by cfg.
func New(cfg Config) *Sanitizer {
	p := bluemonday.NewPolicy()

	p.RequireParseableURLs(true)
	p.AllowRelativeURLs(true)
	p.AllowStandardAttributes()
	p.AllowImages()
	p.AllowLists()
	p.AllowTables()
	p.AllowElements(baseElements...)

	p.AllowAttrs("class").Globally()
	p.AllowAttrs("href").OnElements("a")
	p.AllowAttrs("cite").OnElements("blockquote", "q")
	p.AllowAttrs("tabindex").Matching(tabIndex).OnElements("pre")
	p.AllowAttrs("open").OnElements("details")
	p.AllowAttrs("type").Matching(checkboxType).OnElements("input")
	p.AllowAttrs("checked", "disabled").OnElements("input")
	p.AllowAttrs("align").Matching(cellAlign).OnElements("th", "td")

	schemes := cfg.URLSchemes
	if len(schemes) == 0 {
		schemes = defaultSchemes
	}
	p.AllowURLSchemes(lower(schemes)...)

	if cfg.ExternalLinksInNewTab {
		p.RequireNoReferrerOnFullyQualifiedLinks(true)
		p.AddTargetBlankToFullyQualifiedLinks(true)
	}

	if len(cfg.ExtraElements) > 0 {
		p.AllowElements(lower(cfg.ExtraElements)...)
	}
	for el, attrs := range cfg.ExtraAttributes {
		if len(attrs) == 0 {
			continue
		}
		if el == "*" {
			p.AllowAttrs(attrs...).Globally()
			continue
		}
		p.AllowAttrs(attrs...).OnElements(strings.ToLower(el))
	}

	return &Sanitizer{policy: p}
}

// Sanitize returns the cleaned form of s.
func (s *Sanitizer) Sanitize(html string) string {
	return s.policy.Sanitize(html)
}

// SanitizeBytes is Sanitize for byte slices.
func (s *Sanitizer) SanitizeBytes(html []byte) []byte {
	return s.policy.SanitizeBytes(html)
}

var strict = bluemonday.StrictPolicy()

// PlainText strips every tag from s, collapses whitespace runs and decodes
// entities. The result is text, not HTML.
func PlainText(s string) string {
	return html.UnescapeString(strings.Join(strings.Fields(strict.Sanitize(s)), " "))
}

func lower(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		out = append(out, strings.ToLower(strings.TrimSpace(v)))
	}
	return out
}
