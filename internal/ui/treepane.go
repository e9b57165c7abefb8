package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/kyaoi/mdpane/internal/tree"
)

const (
	minTreePanelWidth = 18
	defaultTreeWidth  = 28
)

var (
	treeBlurBorderColor  = lipgloss.Color("#3b4261")
	treeFocusBorderColor = lipgloss.Color("#7aa2f7")
	treeLineStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#a9b1d6"))
	treeSelectedActive   = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#1a1b26")).
				Background(lipgloss.Color("#7aa2f7")).
				Bold(true)
	treeSelectedInactive = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#c0caf5")).
				Background(lipgloss.Color("#283457"))
)

type treeLine struct {
	node  *tree.Node
	label string
}

// treePane is the document list on the left.
type treePane struct {
	vp        viewport.Model
	root      *tree.Node
	lines     []treeLine
	selected  int
	focused   bool
	visible   bool
	preferred int
	err       error
}

func newTreePane(root *tree.Node, visible bool) treePane {
	vp := viewport.New(0, 0)
	vp.MouseWheelEnabled = false
	p := treePane{vp: vp, root: root, visible: visible && root != nil}
	p.restyle()
	return p
}

func (p *treePane) restyle() {
	color := treeBlurBorderColor
	if p.focused {
		color = treeFocusBorderColor
	}
	p.vp.Style = lipgloss.NewStyle().
		Padding(0, 1).
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		BorderForeground(color)
}

func (p *treePane) setFocus(focused bool) {
	p.focused = focused && p.visible
	p.restyle()
	p.redraw()
}

// width is the panel width for a terminal of total columns.
func (p *treePane) width(total int) int {
	if !p.visible {
		return 0
	}
	preferred := p.preferred
	if preferred <= 0 {
		preferred = defaultTreeWidth
	}
	frame := p.vp.Style.GetHorizontalFrameSize()
	lo := max(minTreePanelWidth-frame, 0)
	hi := max(total/2-frame, lo)
	w := clamp(preferred, lo, hi) + frame
	if total-w < minContentWidth {
		w = max(total-minContentWidth, 0)
	}
	return min(w, total)
}

func (p *treePane) current() *tree.Node {
	if p.selected < 0 || p.selected >= len(p.lines) {
		return nil
	}
	return p.lines[p.selected].node
}

func (p *treePane) move(delta int) {
	if len(p.lines) == 0 {
		return
	}
	p.selected = clamp(p.selected+delta, 0, len(p.lines)-1)
	p.redraw()
}

func (p *treePane) first() { p.move(-len(p.lines)) }

func (p *treePane) last() { p.move(len(p.lines)) }

// reveal opens every directory on the way to path and selects it.
func (p *treePane) reveal(path string) {
	if p.root == nil {
		return
	}
	p.root.Open = true
	if path != "" {
		current := p.root
		for _, part := range strings.Split(path, "/") {
			if !p.load(current) {
				break
			}
			child := current.ChildByName(part)
			if child == nil {
				break
			}
			if child.IsDir {
				child.Open = true
			}
			current = child
		}
	}
	p.flatten()
	if i := p.indexOf(path); i >= 0 {
		p.selected = i
	}
	p.selected = clamp(p.selected, 0, max(len(p.lines)-1, 0))
	p.redraw()
}

// expand opens a collapsed directory or steps into an open one. It returns
// the selected document when the selection is a file.
func (p *treePane) expand() *tree.Node {
	n := p.current()
	switch {
	case n == nil:
		return nil
	case !n.IsDir:
		return n
	case !n.Open:
		n.Open = true
		if p.load(n) {
			p.reveal(n.Path)
		}
	case len(n.Children) > 0:
		p.move(1)
	}
	return nil
}

// collapse closes an open directory or moves to the parent.
func (p *treePane) collapse() {
	n := p.current()
	if n == nil {
		return
	}
	if n.IsDir && n.Open && n != p.root {
		n.Open = false
		p.reveal(n.Path)
		return
	}
	if n.Parent != nil {
		p.reveal(n.Parent.Path)
	}
}

func (p *treePane) load(n *tree.Node) bool {
	if err := n.EnsureLoaded(); err != nil {
		p.err = err
		return false
	}
	return true
}

func (p *treePane) flatten() {
	p.lines = p.lines[:0]
	widest := 0
	var walk func(*tree.Node, int)
	walk = func(n *tree.Node, depth int) {
		label := treeLabel(n, depth)
		widest = max(widest, lipgloss.Width(label))
		p.lines = append(p.lines, treeLine{node: n, label: label})
		if !n.IsDir || !n.Open || !p.load(n) {
			return
		}
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	walk(p.root, 0)
	p.preferred = max(widest+4, minTreePanelWidth)
}

func (p *treePane) indexOf(path string) int {
	for i, l := range p.lines {
		if l.node.Path == path {
			return i
		}
	}
	return -1
}

func (p *treePane) redraw() {
	var b strings.Builder
	for i, l := range p.lines {
		style := treeLineStyle
		if i == p.selected {
			style = treeSelectedInactive
			if p.focused {
				style = treeSelectedActive
			}
		}
		b.WriteString(style.Render(l.label))
		if i < len(p.lines)-1 {
			b.WriteByte('\n')
		}
	}
	p.vp.SetContent(b.String())
	p.scrollToSelection()
}

func (p *treePane) scrollToSelection() {
	if len(p.lines) == 0 || p.vp.Height == 0 {
		return
	}
	if p.selected < p.vp.YOffset {
		p.vp.SetYOffset(p.selected)
		return
	}
	if bottom := p.vp.YOffset + p.vp.Height - 1; p.selected > bottom {
		p.vp.SetYOffset(p.selected - p.vp.Height + 1)
	}
}

func treeLabel(n *tree.Node, depth int) string {
	if depth == 0 {
		return n.Name + "/"
	}
	indicator := "  "
	suffix := ""
	if n.IsDir {
		indicator, suffix = "+ ", "/"
		if n.Open {
			indicator = "- "
		}
	}
	return strings.Repeat("  ", depth-1) + indicator + n.Name + suffix
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
