// Package repl implements the interactive front-end referenced from
// cmd/loom: a Bubble Tea line editor that feeds each submitted statement
// into the same parse/compile/execute pipeline the batch subcommands use,
// growing one accumulated source buffer across the session.
package repl

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the interactive session on the current terminal and blocks
// until the user quits.
func Run() error {
	m := newModel()
	p := tea.NewProgram(m)
	_, err := p.Run()
	return err
}
