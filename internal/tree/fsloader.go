package tree

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

var errNotDir = errors.New("path is not a directory")

// FSLoader lists Markdown files and the directories that contain them.
type FSLoader struct {
	root string

	mu    sync.Mutex
	cache map[string]bool
}

func NewFSLoader(root string) *FSLoader {
	return &FSLoader{
		root:  root,
		cache: make(map[string]bool),
	}
}

// Root is the directory the loader reads.
func (l *FSLoader) Root() string { return l.root }

// Abs converts a tree path to a filesystem path.
func (l *FSLoader) Abs(relPath string) string {
	if relPath == "" {
		return l.root
	}
	return filepath.Join(l.root, filepath.FromSlash(relPath))
}

// List returns the documents and non-empty directories directly under relPath.
func (l *FSLoader) List(relPath string) ([]*Node, error) {
	dir := l.Abs(relPath)
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, errors.Wrap(errNotDir, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var nodes []*Node
	for _, entry := range entries {
		name := entry.Name()
		childPath := joinPath(relPath, name)
		switch {
		case entry.IsDir():
			if SkipDir(name) {
				continue
			}
			has, err := l.HasMarkdown(childPath)
			if err != nil {
				return nil, err
			}
			if has {
				nodes = append(nodes, &Node{Name: name, Path: childPath, IsDir: true})
			}
		case IsMarkdown(name):
			nodes = append(nodes, &Node{Name: name, Path: childPath})
		}
	}
	return nodes, nil
}

// HasMarkdown reports whether any Markdown file lives below relPath.
func (l *FSLoader) HasMarkdown(relPath string) (bool, error) {
	l.mu.Lock()
	cached, ok := l.cache[relPath]
	l.mu.Unlock()
	if ok {
		return cached, nil
	}

	entries, err := os.ReadDir(l.Abs(relPath))
	if err != nil {
		return false, err
	}

	found := false
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() {
			if IsMarkdown(name) {
				found = true
				break
			}
			continue
		}
		if SkipDir(name) {
			continue
		}
		has, err := l.HasMarkdown(joinPath(relPath, name))
		if err != nil {
			return false, err
		}
		if has {
			found = true
			break
		}
	}

	l.mu.Lock()
	l.cache[relPath] = found
	l.mu.Unlock()
	return found, nil
}

// Forget drops cached results so new files show up on the next listing.
func (l *FSLoader) Forget() {
	l.mu.Lock()
	l.cache = make(map[string]bool)
	l.mu.Unlock()
}

// SkipDir reports VCS, dependency and editor directories.
func SkipDir(name string) bool {
	switch strings.ToLower(name) {
	case ".git", "node_modules", ".hg", ".svn", ".idea", ".vscode":
		return true
	default:
		return false
	}
}

func IsMarkdown(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".mdx", ".markdown":
		return true
	}
	return false
}
