package mathrender

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Delimiter marks the start and end of a math span in text.
type Delimiter struct {
	Left    string `yaml:"left" json:"left"`
	Right   string `yaml:"right" json:"right"`
	Display bool   `yaml:"display" json:"display"`
}

func (d Delimiter) String() string {
	mode := "inline"
	if d.Display {
		mode = "display"
	}
	return fmt.Sprintf("%s…%s (%s)", d.Left, d.Right, mode)
}

func (d Delimiter) valid() bool {
	return d.Left != "" && d.Right != ""
}

// DefaultDelimiters renders only $$…$$, in display mode.
func DefaultDelimiters() []Delimiter {
	return []Delimiter{{Left: "$$", Right: "$$", Display: true}}
}

// ParseDelimiters reads the compact form "left,right,display;left,right,inline".
// A missing mode means inline.
func ParseDelimiters(spec string) ([]Delimiter, error) {
	var out []Delimiter
	for _, item := range strings.Split(spec, ";") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		parts := strings.Split(item, ",")
		if len(parts) < 2 || len(parts) > 3 {
			return nil, errors.Errorf("delimiter %q: want left,right[,display|inline]", item)
		}
		d := Delimiter{Left: strings.TrimSpace(parts[0]), Right: strings.TrimSpace(parts[1])}
		if !d.valid() {
			return nil, errors.Errorf("delimiter %q: empty left or right", item)
		}
		if len(parts) == 3 {
			switch strings.TrimSpace(parts[2]) {
			case "display", "true":
				d.Display = true
			case "inline", "false", "":
			default:
				return nil, errors.Errorf("delimiter %q: unknown mode %q", item, parts[2])
			}
		}
		out = append(out, d)
	}
	return out, nil
}

// Segment is one piece of text split at math delimiters.
type Segment struct {
	Math    bool
	Data    string // text, or the TeX source for math segments
	Raw     string // the original text, delimiters included
	Display bool
}

// SplitAtDelimiters cuts text into plain and math segments. The earliest
// left delimiter wins; ties go to the delimiter listed first. Right delimiters
// inside braces or after a backslash do not close a span. An unclosed left
// delimiter leaves the remaining text as plain text.
func SplitAtDelimiters(text string, delims []Delimiter) []Segment {
	var out []Segment
	for {
		idx, d := findLeft(text, delims)
		if idx < 0 {
			break
		}
		if idx > 0 {
			out = append(out, Segment{Data: text[:idx], Raw: text[:idx]})
			text = text[idx:]
		}
		end := findEndOfMath(d.Right, text, len(d.Left))
		if end < 0 {
			break
		}
		raw := text[:end+len(d.Right)]
		tex := text[len(d.Left):end]
		if strings.HasPrefix(raw, `\begin{`) {
			tex = raw
		}
		out = append(out, Segment{Math: true, Data: tex, Raw: raw, Display: d.Display})
		text = text[end+len(d.Right):]
	}
	if text != "" {
		out = append(out, Segment{Data: text, Raw: text})
	}
	return out
}

// HasMath reports whether text contains at least one closed math span.
func HasMath(text string, delims []Delimiter) bool {
	return containsMath(SplitAtDelimiters(text, delims))
}

func findLeft(text string, delims []Delimiter) (int, Delimiter) {
	best, found := -1, Delimiter{}
	for _, d := range delims {
		if !d.valid() {
			continue
		}
		i := strings.Index(text, d.Left)
		if i >= 0 && (best < 0 || i < best) {
			best, found = i, d
		}
	}
	return best, found
}

func findEndOfMath(right, text string, start int) int {
	depth := 0
	for i := start; i < len(text); i++ {
		if depth <= 0 && strings.HasPrefix(text[i:], right) {
			return i
		}
		switch text[i] {
		case '\\':
			i++
		case '{':
			depth++
		case '}':
			depth--
		}
	}
	return -1
}
