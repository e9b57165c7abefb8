package widget

import (
	"slices"
	"sync"

	"github.com/pkg/errors"

	"github.com/kyaoi/mdpane/internal/markdown"
	"github.com/kyaoi/mdpane/internal/mathrender"
	"github.com/kyaoi/mdpane/internal/status"
)

// Change is fired after the rendered value or the label changes.
const Change = "change"

// Event is delivered to listeners; Name is Change for every current event.
type Event struct {
	Name string
}

// Option configures a Widget in New.
type Option func(*Widget)

// WithDeps replaces the render collaborators.
func WithDeps(d Deps) Option {
	return func(w *Widget) { w.deps = d }
}

// WithTracker sets where loading statuses go. The default logs them.
func WithTracker(t status.Tracker) Option {
	return func(w *Widget) { w.tracker = t }
}

type listener struct {
	id int
	fn func(Event)
}

// Widget holds the current props and their rendering. It is safe for
// concurrent use; listeners run outside the lock in registration order.
type Widget struct {
	mu        sync.Mutex
	props     Props
	deps      Deps
	tracker   status.Tracker
	compiler  *markdown.Compiler
	out       Output
	listeners []listener
	nextID    int
}

// New renders p once. A compile failure is returned with no widget.
func New(p Props, opts ...Option) (*Widget, error) {
	w := &Widget{tracker: status.LogTracker{Name: p.ElemID}}
	for _, opt := range opts {
		opt(w)
	}
	w.deps = w.deps.withDefaults()
	w.compiler = newCompiler(p, w.deps)

	out, err := render(p, w.compiler, w.deps)
	if err != nil {
		return nil, errors.Wrap(err, "render widget")
	}
	w.props, w.out = p, out
	if p.LoadingStatus != nil && w.tracker != nil {
		w.tracker.Update(*p.LoadingStatus)
	}
	return w, nil
}

func (w *Widget) Props() Props {
	w.mu.Lock()
	defer w.mu.Unlock()
	p := w.props
	p.ElemClasses = slices.Clone(p.ElemClasses)
	p.LatexDelimiters = slices.Clone(p.LatexDelimiters)
	return p
}

// HTML is the current rendering, "" for a blank value.
func (w *Widget) HTML() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.out.HTML
}

// MathStats reports what the last render typeset.
func (w *Widget) MathStats() mathrender.Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.out.Math
}

// SetValue re-renders with v and fires one change. An unchanged value is a
// no-op. On a compile error the previous value and HTML stay.
func (w *Widget) SetValue(v string) error {
	w.mu.Lock()
	if v == w.props.Value {
		w.mu.Unlock()
		return nil
	}
	p := w.props
	p.Value = v
	out, err := render(p, w.compiler, w.deps)
	if err != nil {
		w.mu.Unlock()
		return errors.Wrap(err, "render widget")
	}
	w.props, w.out = p, out
	fns := w.snapshot()
	w.mu.Unlock()

	emit(fns, Event{Name: Change})
	return nil
}

// SetLabel updates the label and fires change when it differs.
func (w *Widget) SetLabel(l string) {
	w.mu.Lock()
	if l == w.props.Label {
		w.mu.Unlock()
		return
	}
	w.props.Label = l
	fns := w.snapshot()
	w.mu.Unlock()

	emit(fns, Event{Name: Change})
}

// SetProps replaces every prop. It re-renders and fires change when the
// value or label moved, and forwards a new loading status.
func (w *Widget) SetProps(p Props) error {
	w.mu.Lock()
	prev := w.props
	compiler := w.compiler
	if !sameGrammar(prev, p) {
		compiler = newCompiler(p, w.deps)
	}
	out, err := render(p, compiler, w.deps)
	if err != nil {
		w.mu.Unlock()
		return errors.Wrap(err, "render widget")
	}
	w.props, w.out, w.compiler = p, out, compiler
	tracker := w.tracker
	var fns []func(Event)
	if prev.Value != p.Value || prev.Label != p.Label {
		fns = w.snapshot()
	}
	w.mu.Unlock()

	if p.LoadingStatus != nil && tracker != nil && !sameStatus(prev.LoadingStatus, p.LoadingStatus) {
		tracker.Update(*p.LoadingStatus)
	}
	emit(fns, Event{Name: Change})
	return nil
}

// SetStatus records s as the loading status and hands it to the tracker.
func (w *Widget) SetStatus(s status.Status) {
	w.mu.Lock()
	w.props.LoadingStatus = &s
	tracker := w.tracker
	w.mu.Unlock()

	if tracker != nil {
		tracker.Update(s)
	}
}

// Listen registers fn for every event until cancel is called.
func (w *Widget) Listen(fn func(Event)) (cancel func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.nextID++
	id := w.nextID
	w.listeners = append(w.listeners, listener{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			w.mu.Lock()
			defer w.mu.Unlock()
			w.listeners = slices.DeleteFunc(w.listeners, func(l listener) bool { return l.id == id })
		})
	}
}

func (w *Widget) snapshot() []func(Event) {
	fns := make([]func(Event), len(w.listeners))
	for i, l := range w.listeners {
		fns[i] = l.fn
	}
	return fns
}

func emit(fns []func(Event), e Event) {
	for _, fn := range fns {
		fn(e)
	}
}

// sameGrammar reports whether a and b compile Markdown the same way.
func sameGrammar(a, b Props) bool {
	return a.LineBreaks == b.LineBreaks &&
		a.HeaderLinks == b.HeaderLinks &&
		slices.Equal(a.LatexDelimiters, b.LatexDelimiters)
}

func sameStatus(a, b *status.Status) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
