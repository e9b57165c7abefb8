// Package app starts the terminal host.
package app

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"

	"github.com/kyaoi/mdpane/internal/config"
	"github.com/kyaoi/mdpane/internal/ui"
	"github.com/kyaoi/mdpane/internal/widget"
)

// Options configure a viewer run.
type Options struct {
	Config config.Config
	Deps   widget.Deps
	// Tag limits the tree to documents whose front matter lists it.
	Tag string
}

// Run shows target, a file or a directory, until the user quits.
func Run(target string, opts Options) error {
	var (
		state ui.State
		err   error
	)
	if opts.Tag != "" {
		state, err = LoadTaggedState(target, opts.Tag)
	} else {
		state, err = LoadInitialState(target)
	}
	if err != nil {
		return err
	}
	state.Config = opts.Config
	state.Deps = opts.Deps
	return runProgram(state)
}

func runProgram(state ui.State) error {
	program := tea.NewProgram(ui.NewModel(state), tea.WithAltScreen())
	_, err := program.Run()
	return errors.Wrap(err, "run viewer")
}
