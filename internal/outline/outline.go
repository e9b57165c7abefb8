// Package outline lists the headings of rendered widget HTML.
package outline

import (
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/pkg/errors"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var headings = cascadia.MustCompile("h1, h2, h3, h4, h5, h6")

// Heading is one entry of a document outline. ID is empty unless the
// heading carries an id attribute.
type Heading struct {
	Level int    `json:"level"`
	ID    string `json:"id,omitempty"`
	Text  string `json:"text"`
}

// Parse reads the headings of an HTML fragment in document order.
func Parse(fragment string) ([]Heading, error) {
	nodes, err := html.ParseFragment(strings.NewReader(fragment), &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	})
	if err != nil {
		return nil, errors.Wrap(err, "parse fragment")
	}
	var out []Heading
	for _, n := range nodes {
		out = append(out, Headings(n)...)
	}
	return out, nil
}

// Headings returns the headings at or below root.
func Headings(root *html.Node) []Heading {
	var out []Heading
	for _, n := range headings.MatchAll(root) {
		h := Heading{Level: int(n.Data[1] - '0'), Text: text(n)}
		for _, a := range n.Attr {
			if a.Key == "id" {
				h.ID = a.Val
			}
		}
		out = append(out, h)
	}
	return out
}

func text(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
