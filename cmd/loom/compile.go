package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"loom/cmd/loom/diagfmt"
)

var compileCmd = &cobra.Command{
	Use:   "compile [flags] file.loom",
	Short: "Compile a loom source file to its intermediate representation",
	Args:  cobra.ExactArgs(1),
	RunE:  runCompile,
}

func init() {
	compileCmd.Flags().Bool("dump-ir", false, "print the compiled module's instruction listing to stdout")
}

func runCompile(cmd *cobra.Command, args []string) error {
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	dumpIR, err := cmd.Flags().GetBool("dump-ir")
	if err != nil {
		return fmt.Errorf("failed to get dump-ir flag: %w", err)
	}

	cr, err := compileFile(args[0], "", maxDiagnostics)
	if err != nil {
		return err
	}

	if cr.Bag.HasErrors() || cr.Bag.HasWarnings() {
		diagfmt.Pretty(os.Stderr, cr.Bag, cr.FileSet, diagfmt.PrettyOpts{Color: wantColor(cmd, os.Stderr), Context: 2})
	}
	if dumpIR {
		diagfmt.DumpModule(os.Stdout, cr.Mod, cr.Funcs)
	}
	if cr.Bag.HasErrors() {
		os.Exit(1)
	}
	return nil
}
