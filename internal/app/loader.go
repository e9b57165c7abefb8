package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/kyaoi/mdpane/internal/tree"
	"github.com/kyaoi/mdpane/internal/ui"
)

// Root resolves target to its Markdown tree. The loader knows the
// absolute directory.
func Root(target string) (*tree.Node, *tree.FSLoader, error) {
	abs, err := filepath.Abs(target)
	if err != nil {
		return nil, nil, errors.Wrap(err, "resolve target")
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, nil, errors.Wrap(err, "stat target")
	}
	if !info.IsDir() {
		return nil, nil, errors.Errorf("%s is not a directory", target)
	}
	loader := tree.NewFSLoader(abs)
	return tree.NewRoot(filepath.Base(abs), loader), loader, nil
}

// LoadInitialState prepares the model for a file or a directory.
func LoadInitialState(target string) (ui.State, error) {
	abs, err := filepath.Abs(target)
	if err != nil {
		return ui.State{}, errors.Wrap(err, "resolve target")
	}
	info, err := os.Stat(abs)
	if err != nil {
		return ui.State{}, errors.Wrap(err, "stat target")
	}

	if !info.IsDir() {
		header := abs
		if wd, err := os.Getwd(); err == nil {
			if rel, err := filepath.Rel(wd, abs); err == nil {
				header = rel
			}
		}
		return ui.State{
			HeaderPath: filepath.ToSlash(header),
			ActivePath: abs,
		}, nil
	}

	root, loader, err := Root(abs)
	if err != nil {
		return ui.State{}, err
	}
	files, err := root.Files()
	if err != nil {
		return ui.State{}, err
	}

	state := ui.State{
		HeaderPath:  root.Name + "/",
		TreeRoot:    root,
		RootDir:     loader.Root(),
		DisplayRoot: root.Name,
		FocusTree:   true,
		Message:     "Select a document in the tree.",
	}
	if len(files) == 0 {
		state.Message = fmt.Sprintf("No Markdown files found in %s.", root.Name)
	}
	return state, nil
}
