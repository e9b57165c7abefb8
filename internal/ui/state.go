package ui

import (
	"github.com/kyaoi/mdpane/internal/config"
	"github.com/kyaoi/mdpane/internal/tree"
	"github.com/kyaoi/mdpane/internal/widget"
)

// State is what the model starts from.
type State struct {
	// Message is shown until a document is opened.
	Message     string
	HeaderPath  string
	TreeRoot    *tree.Node
	RootDir     string
	DisplayRoot string
	// Selection is the tree path selected at start.
	Selection string
	// ActivePath is an absolute document path to open at start.
	ActivePath string
	FocusTree  bool

	Config config.Config
	Deps   widget.Deps
}
