package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"loom/cmd/loom/diagfmt"
)

var parseCmd = &cobra.Command{
	Use:   "parse [flags] file.loom",
	Short: "Parse a loom source file and report syntax diagnostics",
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

func init() {
	parseCmd.Flags().Bool("dump-tree", false, "print the parsed tree outline to stdout")
}

func runParse(cmd *cobra.Command, args []string) error {
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	dumpTree, err := cmd.Flags().GetBool("dump-tree")
	if err != nil {
		return fmt.Errorf("failed to get dump-tree flag: %w", err)
	}

	pr, err := parseFile(args[0], maxDiagnostics)
	if err != nil {
		return err
	}

	if pr.Bag.HasErrors() || pr.Bag.HasWarnings() {
		diagfmt.Pretty(os.Stderr, pr.Bag, pr.FileSet, diagfmt.PrettyOpts{Color: wantColor(cmd, os.Stderr), Context: 2})
	}
	if dumpTree {
		diagfmt.DumpTree(os.Stdout, pr.Tree, pr.Root)
	}
	if pr.Bag.HasErrors() {
		os.Exit(1)
	}
	return nil
}
