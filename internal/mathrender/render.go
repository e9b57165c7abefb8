package mathrender

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/wyatt915/treeblood"
)

// Renderer typesets one TeX expression.
type Renderer interface {
	Render(tex string, display bool) (string, error)
}

// ParseError is returned for TeX the renderer cannot typeset.
type ParseError struct {
	Source  string
	Display bool
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("tex %q: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Cause lets github.com/pkg/errors.Cause reach the underlying error.
func (e *ParseError) Cause() error { return e.Err }

// MathML renders TeX to presentation MathML.
type MathML struct {
	// Macros are \name → replacement definitions available to every expression.
	Macros map[string]string
}

// NewMathML returns a renderer with no predefined macros.
func NewMathML() *MathML {
	return &MathML{}
}

// Render converts tex into a <math> element. Display mode produces a block
// element in display style.
func (m *MathML) Render(tex string, display bool) (out string, err error) {
	tex = strings.TrimSpace(tex)
	defer func() {
		if r := recover(); r != nil {
			out, err = "", &ParseError{Source: tex, Display: display, Err: errors.Errorf("%v", r)}
		}
	}()
	mml, err := treeblood.TexToMML(tex, m.Macros, display, display)
	if err != nil {
		return "", &ParseError{Source: tex, Display: display, Err: err}
	}
	return mml, nil
}
