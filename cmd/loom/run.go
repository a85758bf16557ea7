package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"loom/internal/vm"

	"loom/cmd/loom/diagfmt"
)

const defaultStackSize = 1 << 20

var runCmd = &cobra.Command{
	Use:   "run [flags] <file.loom>",
	Short: "Compile and execute a loom program",
	Args:  cobra.ExactArgs(1),
	RunE:  runExecution,
}

func init() {
	runCmd.Flags().Uint64("stack-size", defaultStackSize, "VM stack size in bytes")
}

func runExecution(cmd *cobra.Command, args []string) error {
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	stackSize, err := cmd.Flags().GetUint64("stack-size")
	if err != nil {
		return fmt.Errorf("failed to get stack-size flag: %w", err)
	}

	cr, err := compileFile(args[0], "", maxDiagnostics)
	if err != nil {
		return err
	}

	if cr.Bag.HasErrors() || cr.Bag.HasWarnings() {
		diagfmt.Pretty(os.Stderr, cr.Bag, cr.FileSet, diagfmt.PrettyOpts{Color: wantColor(cmd, os.Stderr), Context: 2})
	}
	if cr.Bag.HasErrors() {
		os.Exit(1)
	}

	machine := vm.New(cr.Mod, cr.Types, cr.Funcs, stackSize)
	if _, err := machine.Execute(cr.Mod.InitFunc, nil); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return nil
}
