package app

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/kyaoi/mdpane/internal/config"
	"github.com/kyaoi/mdpane/internal/tree"
	"github.com/kyaoi/mdpane/internal/ui"
)

// TaggedFiles returns the documents under root whose front matter lists tag.
// Files that fail to parse are logged and skipped.
func TaggedFiles(root *tree.Node, loader *tree.FSLoader, tag string) ([]string, error) {
	files, err := root.Files()
	if err != nil {
		return nil, err
	}
	var out []string
	for _, rel := range files {
		doc, err := config.ReadDocument(loader.Abs(rel))
		if err != nil {
			zap.S().Warnw("skipping document", "path", rel, "err", err)
			continue
		}
		if doc.Meta.HasTag(tag) {
			out = append(out, rel)
		}
	}
	return out, nil
}

// LoadTaggedState prepares a tree holding only the documents tagged tag.
func LoadTaggedState(target, tag string) (ui.State, error) {
	root, loader, err := Root(target)
	if err != nil {
		return ui.State{}, err
	}
	files, err := TaggedFiles(root, loader, tag)
	if err != nil {
		return ui.State{}, err
	}
	if len(files) == 0 {
		return ui.State{}, errors.Errorf("no documents tagged %q", tag)
	}

	return ui.State{
		Message:     fmt.Sprintf("Select a document tagged %q.", tag),
		HeaderPath:  fmt.Sprintf("%s/ (tag: %s)", root.Name, tag),
		TreeRoot:    tree.Build(root.Name, files),
		RootDir:     loader.Root(),
		DisplayRoot: root.Name,
		Selection:   files[0],
		FocusTree:   true,
	}, nil
}
