package main

import (
	"github.com/spf13/cobra"

	"loom/cmd/loom/repl"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive loom session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return repl.Run()
	},
}
