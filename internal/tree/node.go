// Package tree models the set of Markdown documents a host shows.
package tree

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// ErrStop ends a Walk early without being reported as a failure.
var ErrStop = errors.New("stop walk")

// Loader lists the children of a directory path.
type Loader interface {
	List(path string) ([]*Node, error)
}

// Node is a document or a directory holding documents. Paths are relative
// to the root and use forward slashes.
type Node struct {
	Name     string  `json:"name"`
	Path     string  `json:"path"`
	IsDir    bool    `json:"dir,omitempty"`
	Open     bool    `json:"-"`
	Parent   *Node   `json:"-"`
	Children []*Node `json:"children,omitempty"`

	loader Loader
	loaded bool
}

// NewRoot creates an open root that loads its children from loader.
func NewRoot(name string, loader Loader) *Node {
	return &Node{
		Name:   name,
		IsDir:  true,
		Open:   true,
		loader: loader,
	}
}

func (n *Node) ChildByName(name string) *Node {
	for _, child := range n.Children {
		if child.Name == name {
			return child
		}
	}
	return nil
}

// AddChild appends child and makes n its parent. n counts as loaded
// afterwards, so its loader is not consulted again.
func (n *Node) AddChild(child *Node) {
	child.Parent = n
	if child.loader == nil {
		child.loader = n.loader
	}
	n.Children = append(n.Children, child)
	n.loaded = true
}

// Find returns the node at the relative path, loading directories on the way.
func (n *Node) Find(path string) (*Node, error) {
	path = strings.Trim(path, "/")
	if path == "" {
		return n, nil
	}
	current := n
	for _, part := range strings.Split(path, "/") {
		if err := current.EnsureLoaded(); err != nil {
			return nil, err
		}
		next := current.ChildByName(part)
		if next == nil {
			return nil, errors.Errorf("%s: not in tree", path)
		}
		current = next
	}
	return current, nil
}

// EnsureLoaded lists a directory's children on first use.
func (n *Node) EnsureLoaded() error {
	if !n.IsDir || n.loaded || n.loader == nil {
		return nil
	}
	children, err := n.loader.List(n.Path)
	if err != nil {
		return errors.Wrapf(err, "list %q", n.Path)
	}
	n.Children = children
	for _, child := range n.Children {
		child.Parent = n
		child.loader = n.loader
	}
	n.sortChildren()
	n.loaded = true
	return nil
}

// SortRecursive orders every level directories first, then by name
// without regard to case.
func (n *Node) SortRecursive() {
	n.sortChildren()
	for _, child := range n.Children {
		child.SortRecursive()
	}
}

func (n *Node) sortChildren() {
	sort.SliceStable(n.Children, func(i, j int) bool {
		ci, cj := n.Children[i], n.Children[j]
		if ci.IsDir != cj.IsDir {
			return ci.IsDir
		}
		return strings.ToLower(ci.Name) < strings.ToLower(cj.Name)
	})
}

// Walk visits n and its descendants depth-first, loading directories as
// it goes. Returning ErrStop from fn ends the walk with a nil error.
func (n *Node) Walk(fn func(*Node) error) error {
	err := n.walk(fn)
	if errors.Is(err, ErrStop) {
		return nil
	}
	return err
}

func (n *Node) walk(fn func(*Node) error) error {
	if err := fn(n); err != nil {
		return err
	}
	if !n.IsDir {
		return nil
	}
	if err := n.EnsureLoaded(); err != nil {
		return err
	}
	for _, child := range n.Children {
		if err := child.walk(fn); err != nil {
			return err
		}
	}
	return nil
}

// Files returns the paths of every document below n, in tree order.
func (n *Node) Files() ([]string, error) {
	var files []string
	err := n.Walk(func(node *Node) error {
		if !node.IsDir {
			files = append(files, node.Path)
		}
		return nil
	})
	return files, err
}

// Load reads the whole subtree so it can be serialized.
func (n *Node) Load() error {
	return n.Walk(func(*Node) error { return nil })
}
