package highlight

import (
	"bytes"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/pkg/errors"
)

// DefaultStyle is the chroma style used when none is configured.
const DefaultStyle = "github"

// Highlighter tokenizes source code and wraps tokens in class-annotated spans.
type Highlighter struct {
	style     *chroma.Style
	styleName string
	formatter *chromahtml.Formatter
}

// New creates a highlighter for the named chroma style. Unknown styles fall
// back to chroma's fallback style.
func New(style string) *Highlighter {
	if style == "" {
		style = DefaultStyle
	}
	return &Highlighter{
		style:     styles.Get(style),
		styleName: style,
		formatter: chromahtml.New(chromahtml.WithClasses(true)),
	}
}

// StyleName returns the configured style name.
func (h *Highlighter) StyleName() string {
	return h.styleName
}

// Language reports whether a lexer exists for name.
func (h *Highlighter) Language(name string) bool {
	return name != "" && lexers.Get(name) != nil
}

// Highlight renders code as a <pre class="chroma"> block. Unknown languages
// are tokenized as plain text.
func (h *Highlighter) Highlight(code, lang string) (string, error) {
	var buf bytes.Buffer
	if err := h.Format(&buf, code, lang); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Format writes the highlighted form of code to w.
func (h *Highlighter) Format(w io.Writer, code, lang string) error {
	lexer := lexers.Get(strings.TrimSpace(lang))
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return errors.Wrapf(err, "tokenise %q", lang)
	}
	if err := h.formatter.Format(w, h.style, iterator); err != nil {
		return errors.Wrap(err, "format highlighted code")
	}
	return nil
}

// CSS writes the stylesheet matching the class names Highlight emits.
func (h *Highlighter) CSS(w io.Writer) error {
	return errors.Wrap(h.formatter.WriteCSS(w, h.style), "write chroma css")
}
