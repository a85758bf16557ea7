package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"loom/internal/diag"
	"loom/internal/lexer"
	"loom/internal/source"
	"loom/internal/token"

	"loom/cmd/loom/diagfmt"
)

var tokenizeCmd = &cobra.Command{
	Use:   "tokenize [flags] file.loom",
	Short: "Tokenize a loom source file",
	Long:  `Tokenize breaks down a loom source file into its constituent tokens`,
	Args:  cobra.ExactArgs(1),
	RunE:  runTokenize,
}

func init() {
	tokenizeCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

func runTokenize(cmd *cobra.Command, args []string) error {
	filePath := args[0]

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}

	fs := source.NewFileSet()
	fileID, err := fs.Load(filePath)
	if err != nil {
		return fmt.Errorf("%s: %w", filePath, err)
	}
	file := fs.Get(fileID)

	bag := diag.NewBag(maxDiagnostics)
	lx := lexer.New(file, lexer.Options{Reporter: &diag.BagReporter{Bag: bag}})

	var toks []token.Token
	for {
		t := lx.Next()
		toks = append(toks, t)
		if t.Kind == token.EOF {
			break
		}
	}

	if bag.HasErrors() || bag.HasWarnings() {
		diagfmt.Pretty(os.Stderr, bag, fs, diagfmt.PrettyOpts{Color: wantColor(cmd, os.Stderr), Context: 2})
	}

	switch format {
	case "pretty":
		return diagfmt.FormatTokensPretty(os.Stdout, toks, fs)
	case "json":
		return diagfmt.FormatTokensJSON(os.Stdout, toks)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}
