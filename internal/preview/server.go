// Package preview serves widgets over HTTP and pushes their changes to
// browsers over a WebSocket.
package preview

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/kyaoi/mdpane/internal/config"
	"github.com/kyaoi/mdpane/internal/highlight"
	"github.com/kyaoi/mdpane/internal/mathrender"
	"github.com/kyaoi/mdpane/internal/outline"
	"github.com/kyaoi/mdpane/internal/sanitize"
	"github.com/kyaoi/mdpane/internal/status"
	"github.com/kyaoi/mdpane/internal/tree"
	"github.com/kyaoi/mdpane/internal/watch"
	"github.com/kyaoi/mdpane/internal/widget"
)

const maxRenderBody = 1 << 20

type Options struct {
	Config      config.Config
	Deps        widget.Deps
	Highlighter *highlight.Highlighter
}

type document struct {
	abs    string
	widget *widget.Widget
	cancel func()
}

// Server owns one widget per opened document.
type Server struct {
	root   *tree.Node
	loader *tree.FSLoader
	cfg    config.Config
	deps   widget.Deps
	hl     *highlight.Highlighter
	hub    *hub

	mu      sync.Mutex
	docs    map[string]*document
	watcher *watch.Watcher

	httpServer *http.Server
}

func New(root *tree.Node, loader *tree.FSLoader, opts Options) *Server {
	hl := opts.Highlighter
	if hl == nil {
		hl = highlight.New(opts.Config.Style)
	}
	deps := opts.Deps
	if deps.Highlighter == nil {
		deps.Highlighter = hl
	}
	return &Server{
		root:   root,
		loader: loader,
		cfg:    opts.Config,
		deps:   deps,
		hl:     hl,
		hub:    newHub(),
		docs:   make(map[string]*document),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.serveIndex)
	mux.HandleFunc("GET /doc/{path...}", s.serveDoc)
	mux.HandleFunc("GET /tree", s.serveTree)
	mux.HandleFunc("GET /outline/{path...}", s.serveOutline)
	mux.HandleFunc("GET /style.css", s.serveStyle)
	mux.HandleFunc("POST /render", s.serveRender)
	mux.HandleFunc("POST /highlight", s.serveHighlight)
	mux.HandleFunc("GET /ws", s.hub.serveWs)
	return mux
}

// Watch reloads opened documents when their files change.
func (s *Server) Watch() error {
	w, err := watch.New()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.watcher = w
	for _, d := range s.docs {
		if err := w.Watch(d.abs); err != nil {
			zap.S().Warnw("watch document", "path", d.abs, "err", err)
		}
	}
	s.mu.Unlock()

	go func() {
		for {
			select {
			case ev, ok := <-w.Events():
				if !ok {
					return
				}
				s.handleFileEvent(ev)
			case err, ok := <-w.Errors():
				if !ok {
					return
				}
				zap.S().Warnw("watch error", "err", err)
			}
		}
	}()
	return nil
}

// ListenAndServe blocks until the server stops. A stop by Shutdown is not an error.
func (s *Server) ListenAndServe(addr string) error {
	s.mu.Lock()
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := s.httpServer
	s.mu.Unlock()

	zap.S().Infow("preview listening", "addr", addr, "root", s.loader.Root())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "listen")
	}
	return nil
}

// Shutdown stops watching, closes every WebSocket and drains HTTP requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv, w := s.httpServer, s.watcher
	s.watcher = nil
	for path, d := range s.docs {
		d.cancel()
		delete(s.docs, path)
	}
	s.mu.Unlock()

	if w != nil {
		_ = w.Close()
	}
	s.hub.close()
	if srv == nil {
		return nil
	}
	return errors.Wrap(srv.Shutdown(ctx), "shutdown")
}

// open returns the widget for rel, creating it on first use.
func (s *Server) open(rel string) (*document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.docs[rel]; ok {
		return d, nil
	}

	node, err := s.root.Find(rel)
	if err != nil || node.IsDir {
		return nil, errNotFound
	}
	abs := s.loader.Abs(rel)
	doc, err := config.ReadDocument(abs)
	if err != nil {
		return nil, err
	}
	props := s.cfg.PropsFor(doc, node.Name)
	props.ElemID = "doc"
	w, err := widget.New(props,
		widget.WithDeps(s.deps),
		widget.WithTracker(status.LogTracker{Name: rel}),
	)
	if err != nil {
		return nil, err
	}

	d := &document{abs: filepath.Clean(abs), widget: w}
	d.cancel = w.Listen(func(e widget.Event) {
		if e.Name != widget.Change {
			return
		}
		s.hub.broadcast(Message{
			Type:  widget.Change,
			Path:  rel,
			HTML:  w.HTML(),
			Label: w.Props().Label,
		})
	})
	if s.watcher != nil {
		if err := s.watcher.Watch(abs); err != nil {
			zap.S().Warnw("watch document", "path", abs, "err", err)
		}
	}
	s.docs[rel] = d
	return d, nil
}

func (s *Server) handleFileEvent(ev watch.Event) {
	s.mu.Lock()
	var (
		target *document
		rel    string
	)
	for path, d := range s.docs {
		if d.abs == filepath.Clean(ev.Path) {
			target, rel = d, path
			break
		}
	}
	s.mu.Unlock()
	if target == nil {
		return
	}
	s.reload(rel, target)
}

func (s *Server) reload(rel string, d *document) {
	doc, err := config.ReadDocument(d.abs)
	if err != nil {
		zap.S().Debugw("reload skipped", "path", rel, "err", err)
		return
	}
	if doc.Meta.Title != "" {
		d.widget.SetLabel(doc.Meta.Title)
	}
	if err := d.widget.SetValue(doc.Body); err != nil {
		zap.S().Warnw("reload failed", "path", rel, "err", err)
	}
}

var errNotFound = errors.New("document not found")

func (s *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	files, err := s.files()
	if err != nil {
		s.fail(w, err)
		return
	}
	s.mu.Lock()
	name := s.root.Name
	s.mu.Unlock()
	s.writePage(w, page{Title: name, Files: files})
}

func (s *Server) serveDoc(w http.ResponseWriter, r *http.Request) {
	rel := strings.Trim(r.PathValue("path"), "/")
	d, err := s.open(rel)
	if err != nil {
		s.fail(w, err)
		return
	}
	files, err := s.files()
	if err != nil {
		s.fail(w, err)
		return
	}
	body := d.widget.HTML()
	toc, err := outline.Parse(body)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writePage(w, page{
		Title:   sanitize.PlainText(d.widget.Props().Label),
		Path:    rel,
		Files:   files,
		Outline: toc,
		HTML:    trustedHTML(body),
	})
}

func (s *Server) serveOutline(w http.ResponseWriter, r *http.Request) {
	d, err := s.open(strings.Trim(r.PathValue("path"), "/"))
	if err != nil {
		s.fail(w, err)
		return
	}
	toc, err := outline.Parse(d.widget.HTML())
	if err != nil {
		s.fail(w, err)
		return
	}
	if toc == nil {
		toc = []outline.Heading{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toc)
}

// serveTree encodes the whole tree. ?refresh=1 rescans the directory first.
func (s *Server) serveTree(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if r.URL.Query().Get("refresh") != "" {
		s.loader.Forget()
		s.root = tree.NewRoot(s.root.Name, s.loader)
	}
	err := s.root.Load()
	var buf bytes.Buffer
	if err == nil {
		err = json.NewEncoder(&buf).Encode(s.root)
	}
	s.mu.Unlock()
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) serveStyle(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	buf.WriteString(baseCSS)
	if err := s.hl.CSS(&buf); err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// RenderRequest is the body of POST /render. Unset fields use the
// configured defaults.
type RenderRequest struct {
	Value           string                  `json:"value"`
	SanitizeHTML    *bool                   `json:"sanitize_html"`
	RTL             *bool                   `json:"rtl"`
	LineBreaks      *bool                   `json:"line_breaks"`
	HeaderLinks     *bool                   `json:"header_links"`
	LatexDelimiters *[]mathrender.Delimiter `json:"latex_delimiters"`
}

type RenderResponse struct {
	HTML string `json:"html"`
}

func (s *Server) serveRender(w http.ResponseWriter, r *http.Request) {
	var req RenderRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRenderBody)).Decode(&req); err != nil {
		http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
		return
	}

	p := s.cfg.Props()
	p.Value = req.Value
	setBool(&p.SanitizeHTML, req.SanitizeHTML)
	setBool(&p.RTL, req.RTL)
	setBool(&p.LineBreaks, req.LineBreaks)
	setBool(&p.HeaderLinks, req.HeaderLinks)
	if req.LatexDelimiters != nil {
		p.LatexDelimiters = *req.LatexDelimiters
	}

	out, err := widget.Render(p, s.deps)
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(RenderResponse{HTML: out})
}

type HighlightRequest struct {
	Code string `json:"code"`
	Lang string `json:"lang"`
}

func (s *Server) serveHighlight(w http.ResponseWriter, r *http.Request) {
	var req HighlightRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRenderBody)).Decode(&req); err != nil {
		http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
		return
	}
	out, err := s.hl.Highlight(req.Code, req.Lang)
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(RenderResponse{HTML: out})
}

func (s *Server) files() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.root.Files()
}

func (s *Server) writePage(w http.ResponseWriter, p page) {
	var buf bytes.Buffer
	if err := p.render(&buf); err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, errNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	zap.S().Errorw("request failed", "err", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
