// Package watch follows Markdown files on disk and reports edits.
package watch

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Relevant is the set of operations that can change a file's content.
const Relevant = fsnotify.Write | fsnotify.Create | fsnotify.Rename | fsnotify.Remove

type Event struct {
	Path string
	Op   fsnotify.Op
}

// Watcher watches the directories of the files it is given, so editors that
// save by rename are still seen, and forwards events for those files only.
type Watcher struct {
	fs     *fsnotify.Watcher
	events chan Event
	errs   chan error
	done   chan struct{}

	mu    sync.Mutex
	dirs  map[string]int
	files map[string]bool
	once  sync.Once
}

func New() (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create watcher")
	}
	w := &Watcher{
		fs:     fs,
		events: make(chan Event, 16),
		errs:   make(chan error, 4),
		done:   make(chan struct{}),
		dirs:   make(map[string]int),
		files:  make(map[string]bool),
	}
	go w.loop()
	return w, nil
}

// Watch starts following path.
func (w *Watcher) Watch(path string) error {
	path, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(err, "resolve path")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.files[path] {
		return nil
	}
	dir := filepath.Dir(path)
	if w.dirs[dir] == 0 {
		if err := w.fs.Add(dir); err != nil {
			return errors.Wrapf(err, "watch %s", dir)
		}
	}
	w.dirs[dir]++
	w.files[path] = true
	return nil
}

// Unwatch stops following path. The directory is released with its last file.
func (w *Watcher) Unwatch(path string) error {
	path, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(err, "resolve path")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.files[path] {
		return nil
	}
	delete(w.files, path)
	dir := filepath.Dir(path)
	w.dirs[dir]--
	if w.dirs[dir] > 0 {
		return nil
	}
	delete(w.dirs, dir)
	return errors.Wrapf(w.fs.Remove(dir), "unwatch %s", dir)
}

func (w *Watcher) Events() <-chan Event { return w.events }

func (w *Watcher) Errors() <-chan error { return w.errs }

// Close stops the watcher and closes both channels.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.fs.Close()
	})
	return err
}

func (w *Watcher) loop() {
	defer close(w.events)
	defer close(w.errs)
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if ev.Op&Relevant == 0 || !w.following(ev.Name) {
				continue
			}
			select {
			case w.events <- Event{Path: filepath.Clean(ev.Name), Op: ev.Op}:
			case <-w.done:
				return
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			select {
			case w.errs <- err:
			default:
				zap.S().Warnw("watch error dropped", "err", err)
			}
		}
	}
}

func (w *Watcher) following(name string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.files[abs]
}
