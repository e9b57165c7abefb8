package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	styles "github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"go.uber.org/zap"

	"github.com/kyaoi/mdpane/internal/config"
	"github.com/kyaoi/mdpane/internal/status"
	"github.com/kyaoi/mdpane/internal/watch"
	"github.com/kyaoi/mdpane/internal/widget"
)

const minContentWidth = 20

var (
	helpBoxStyle = lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7aa2f7")).
			Background(lipgloss.Color("#1f2335"))
	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("#a9b1d6")).
			Background(lipgloss.Color("#1f2335"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff6b6b"))
)

var helpLines = []string{
	"help (? / esc to close)",
	"ctrl+h / ctrl+l : focus tree / document",
	"j / k           : move or scroll",
	"ctrl+d / ctrl+u : half page",
	"gg / G          : top / bottom",
	"h / l / enter   : collapse / expand / open",
	"s               : toggle sanitize flag (HTML output)",
	"r               : toggle right-to-left",
	"t               : toggle tree",
	"q / ctrl+c      : quit",
}

// Model is the Bubble Tea program: a document tree and one widget.
type Model struct {
	contentVP viewport.Model
	tree      treePane
	renderer  *glamour.TermRenderer

	cfg      config.Config
	deps     widget.Deps
	doc      *widget.Widget
	unlisten func()
	changes  chan tea.Msg
	loading  status.Recorder

	message     string
	headerPath  string
	activePath  string
	rootDir     string
	displayRoot string
	initialPath string

	watcher *watch.Watcher

	showHelp   bool
	pendingKey string
	width      int
	height     int
	err        error
}

type widgetChangedMsg struct{}

type fileEventMsg struct {
	ev watch.Event
}

type fileWatchErrMsg struct {
	err error
}

func NewModel(state State) *Model {
	contentVP := viewport.New(0, 0)
	contentVP.Style = lipgloss.NewStyle().Padding(0, 1)
	contentVP.SetHorizontalStep(2)

	m := &Model{
		contentVP:   contentVP,
		tree:        newTreePane(state.TreeRoot, state.TreeRoot != nil),
		cfg:         state.Config,
		deps:        state.Deps,
		changes:     make(chan tea.Msg, 1),
		message:     state.Message,
		headerPath:  state.HeaderPath,
		rootDir:     state.RootDir,
		displayRoot: state.DisplayRoot,
		initialPath: state.ActivePath,
	}
	if state.TreeRoot != nil {
		m.tree.reveal(state.Selection)
	}
	if state.FocusTree {
		m.tree.setFocus(true)
	}
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.waitForChange()}
	if m.initialPath != "" {
		path := m.initialPath
		m.initialPath = ""
		cmds = append(cmds, m.openFile(path, m.headerPath))
	}
	return tea.Batch(cmds...)
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.showHelp {
		box := helpBoxStyle.Render(strings.Join(helpLines, "\n"))
		if m.width > 0 && m.height > 0 {
			return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
		}
		return box
	}

	body := m.contentVP.View()
	if m.tree.visible {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.tree.vp.View(), body)
	}
	if err := m.currentErr(); err != nil {
		body = lipgloss.JoinVertical(lipgloss.Left, errorStyle.Render(err.Error()), body)
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, m.statusLine())
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case widgetChangedMsg:
		m.renderContent(true)
		return m, m.waitForChange()
	case fileEventMsg:
		if filepath.Clean(msg.ev.Path) == m.activePath {
			m.reload()
		}
		return m, m.waitForFileEvent()
	case fileWatchErrMsg:
		m.err = msg.err
		return m, m.waitForFileEvent()
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}
	var cmd tea.Cmd
	m.contentVP, cmd = m.contentVP.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	if m.showHelp {
		switch key {
		case "q", "?", "esc":
			m.showHelp = false
		}
		return nil
	}
	gg := key == "g" && m.pendingKey == "g"
	m.pendingKey = ""

	switch key {
	case "q", "ctrl+c":
		m.close()
		return tea.Quit
	case "?":
		m.showHelp = true
		return nil
	case "ctrl+h":
		m.tree.setFocus(true)
		return nil
	case "ctrl+l":
		m.tree.setFocus(false)
		return nil
	case "t":
		if m.tree.root != nil {
			m.tree.visible = !m.tree.visible
			m.tree.setFocus(m.tree.focused && m.tree.visible)
			m.resize(m.width, m.height)
		}
		return nil
	case "s":
		m.toggle(func(p *widget.Props) { p.SanitizeHTML = !p.SanitizeHTML })
		return nil
	case "r":
		m.toggle(func(p *widget.Props) { p.RTL = !p.RTL })
		return nil
	case "g":
		if !gg {
			m.pendingKey = "g"
			return nil
		}
	}

	if m.tree.focused {
		return m.handleTreeKey(key, gg)
	}
	if m.handleContentKey(key, gg) {
		return nil
	}
	var cmd tea.Cmd
	m.contentVP, cmd = m.contentVP.Update(msg)
	return cmd
}

func (m *Model) handleContentKey(key string, gg bool) bool {
	switch {
	case gg:
		m.contentVP.GotoTop()
	case key == "j":
		m.contentVP.ScrollDown(1)
	case key == "k":
		m.contentVP.ScrollUp(1)
	case key == "ctrl+d":
		m.contentVP.HalfPageDown()
	case key == "ctrl+u":
		m.contentVP.HalfPageUp()
	case key == "h":
		m.contentVP.ScrollLeft(max(2, m.contentVP.Width/6))
	case key == "l":
		m.contentVP.ScrollRight(max(2, m.contentVP.Width/6))
	case key == "G":
		m.contentVP.GotoBottom()
	default:
		return false
	}
	return true
}

func (m *Model) handleTreeKey(key string, gg bool) tea.Cmd {
	half := max(1, m.tree.vp.Height/2)
	switch {
	case gg:
		m.tree.first()
	case key == "G":
		m.tree.last()
	case key == "j", key == "down":
		m.tree.move(1)
	case key == "k", key == "up":
		m.tree.move(-1)
	case key == "ctrl+d":
		m.tree.move(half)
	case key == "ctrl+u":
		m.tree.move(-half)
	case key == "ctrl+j":
		m.contentVP.ScrollDown(1)
	case key == "ctrl+k":
		m.contentVP.ScrollUp(1)
	case key == "h", key == "left":
		m.tree.collapse()
	case key == "l", key == "right", key == "enter":
		if n := m.tree.expand(); n != nil && m.rootDir != "" {
			abs := filepath.Join(m.rootDir, filepath.FromSlash(n.Path))
			return m.openFile(abs, displayPath(m.displayRoot, n.Path))
		}
	}
	return nil
}

// toggle flips a widget prop; the change shows in the status line.
func (m *Model) toggle(edit func(*widget.Props)) {
	if m.doc == nil {
		return
	}
	p := m.doc.Props()
	edit(&p)
	if err := m.doc.SetProps(p); err != nil {
		m.err = err
		return
	}
	m.renderContent(true)
}

// openFile shows the document at abs in the widget and starts watching it.
func (m *Model) openFile(abs, header string) tea.Cmd {
	abs = filepath.Clean(abs)
	doc, err := config.ReadDocument(abs)
	if err != nil {
		m.err = err
		return nil
	}
	props := m.cfg.PropsFor(doc, filepath.Base(abs))
	props.ElemID = "doc"

	if m.doc == nil {
		w, err := widget.New(props,
			widget.WithDeps(m.deps),
			widget.WithTracker(status.Multi(&m.loading, status.LogTracker{Name: "view"})),
		)
		if err != nil {
			m.err = err
			return nil
		}
		m.doc = w
		m.unlisten = w.Listen(m.onWidgetEvent)
	} else if err := m.doc.SetProps(props); err != nil {
		m.err = err
		return nil
	}
	m.doc.SetStatus(status.Status{Stage: status.Complete})

	m.err = nil
	m.activePath = abs
	m.headerPath = header
	m.renderContent(false)
	m.contentVP.GotoTop()
	return m.watchFile(abs)
}

// reload feeds the file's new body into the widget. The widget's change
// event re-renders the pane.
func (m *Model) reload() {
	if m.doc == nil || m.activePath == "" {
		return
	}
	doc, err := config.ReadDocument(m.activePath)
	if err != nil {
		// editors that save by rename remove the file first
		zap.S().Debugw("reload skipped", "path", m.activePath, "err", err)
		return
	}
	m.doc.SetStatus(status.Status{Stage: status.Generating})
	if doc.Meta.Title != "" {
		m.doc.SetLabel(doc.Meta.Title)
	}
	if err := m.doc.SetValue(doc.Body); err != nil {
		m.err = err
		m.doc.SetStatus(status.Status{Stage: status.Error, Message: err.Error()})
		return
	}
	m.err = nil
	m.doc.SetStatus(status.Status{Stage: status.Complete})
}

func (m *Model) onWidgetEvent(widget.Event) {
	select {
	case m.changes <- widgetChangedMsg{}:
	default:
	}
}

func (m *Model) waitForChange() tea.Cmd {
	ch := m.changes
	return func() tea.Msg { return <-ch }
}

func (m *Model) watchFile(abs string) tea.Cmd {
	if !m.cfg.Watch {
		return nil
	}
	first := m.watcher == nil
	if first {
		w, err := watch.New()
		if err != nil {
			m.err = err
			return nil
		}
		m.watcher = w
	}
	if err := m.watcher.Watch(abs); err != nil {
		m.err = err
		return nil
	}
	if first {
		return m.waitForFileEvent()
	}
	return nil
}

func (m *Model) waitForFileEvent() tea.Cmd {
	if m.watcher == nil {
		return nil
	}
	w := m.watcher
	return func() tea.Msg {
		select {
		case ev, ok := <-w.Events():
			if !ok {
				return nil
			}
			return fileEventMsg{ev: ev}
		case err, ok := <-w.Errors():
			if !ok {
				return nil
			}
			return fileWatchErrMsg{err: err}
		}
	}
}

func (m *Model) close() {
	if m.unlisten != nil {
		m.unlisten()
	}
	if m.watcher != nil {
		_ = m.watcher.Close()
	}
}

func (m *Model) resize(width, height int) {
	if width <= 0 || height <= 1 {
		return
	}
	m.width, m.height = width, height

	treeWidth := m.tree.width(width)
	contentWidth := max(width-treeWidth, minContentWidth)
	contentHeight := max(height-1, 1)
	m.contentVP.Width = contentWidth
	m.contentVP.Height = contentHeight
	m.tree.vp.Width = treeWidth
	m.tree.vp.Height = contentHeight
	m.tree.scrollToSelection()

	wrap := max(contentWidth-m.contentVP.Style.GetHorizontalFrameSize(), 0)
	renderer, err := newRenderer(wrap)
	if err != nil {
		m.err = err
		return
	}
	m.renderer = renderer
	m.renderContent(true)
}

// renderContent draws the widget's value, or the start message, with glamour.
func (m *Model) renderContent(keepOffset bool) {
	if m.renderer == nil {
		return
	}
	source := m.message
	rtl := false
	if m.doc != nil {
		p := m.doc.Props()
		source, rtl = p.Value, p.RTL
	}
	out, err := m.renderer.Render(source)
	if err != nil {
		m.err = err
		return
	}
	if rtl {
		width := max(m.contentVP.Width-m.contentVP.Style.GetHorizontalFrameSize(), 0)
		out = lipgloss.NewStyle().Width(width).Align(lipgloss.Right).Render(out)
	}
	offset := m.contentVP.YOffset
	m.contentVP.SetContent(out)
	if keepOffset {
		m.contentVP.SetYOffset(offset)
	}
}

func (m *Model) statusLine() string {
	parts := []string{m.headerPath}
	if m.doc != nil {
		p := m.doc.Props()
		sanitize := "sanitize:off"
		if p.SanitizeHTML {
			sanitize = "sanitize:on"
		}
		parts = append(parts,
			p.Label,
			p.Dir(),
			sanitize,
			fmt.Sprintf("math:%d", m.doc.MathStats().Rendered),
		)
	}
	if s, ok := m.loading.Last(); ok {
		parts = append(parts, s.String())
	}
	line := strings.Join(parts, " | ")
	if m.width > 0 {
		line = ansi.Truncate(line, max(m.width-statusBarStyle.GetHorizontalFrameSize(), 0), "…")
	}
	return statusBarStyle.Render(line)
}

func (m *Model) currentErr() error {
	if m.err != nil {
		return m.err
	}
	return m.tree.err
}

func displayPath(root, rel string) string {
	rel = filepath.ToSlash(rel)
	switch {
	case root == "":
		return rel
	case rel == "":
		return root + "/"
	}
	return root + "/" + rel
}

func newRenderer(width int) (*glamour.TermRenderer, error) {
	return glamour.NewTermRenderer(
		glamour.WithStandardStyle(styles.TokyoNightStyle),
		glamour.WithWordWrap(width),
	)
}
