package main

import (
	"fmt"

	"loom/internal/ast"
	"loom/internal/compiler"
	"loom/internal/diag"
	"loom/internal/funcreg"
	"loom/internal/module"
	"loom/internal/parser"
	"loom/internal/source"
	"loom/internal/types"
)

// parseResult is what the parsing subcommands need out of lexing+parsing:
// the file set, the parse tree and its Root node, and the diagnostics
// accumulated along the way. It carries no token stream; tokenize lexes
// on its own.
type parseResult struct {
	FileSet *source.FileSet
	Bag     *diag.Bag
	Tree    *ast.Tree
	Root    ast.NodeID
}

// parseFile loads path into a fresh FileSet and runs the parser over it,
// sharing one diagnostic bag between the lexer and the parser (per
// parser.New's backtracking discipline).
func parseFile(path string, maxDiagnostics int) (*parseResult, error) {
	fs := source.NewFileSet()
	fileID, err := fs.Load(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	file := fs.Get(fileID)

	bag := diag.NewBag(maxDiagnostics)
	p := parser.New(file, bag)
	root, _ := p.Parse()

	return &parseResult{FileSet: fs, Bag: bag, Tree: p.Tree(), Root: root}, nil
}

// compileResult is the product of running the semantic compiler over a
// parseResult: the registries and module it populated, ready for the VM.
type compileResult struct {
	*parseResult
	Types *types.Registry
	Funcs *funcreg.Registry
	Mod   *module.Module
}

// compileFile parses path and always runs the compiler over the
// resulting tree, even one the parser only partially recovered.
// Diagnostics from both stages land in the same bag, so a caller only
// has to check one Bag.HasErrors() to decide whether to trust the
// result.
func compileFile(path, modulePrefix string, maxDiagnostics int) (*compileResult, error) {
	pr, err := parseFile(path, maxDiagnostics)
	if err != nil {
		return nil, err
	}

	treg := types.NewRegistry()
	freg := funcreg.New()
	mod := module.New(modulePrefix, path)

	c := compiler.New(treg, freg, mod, pr.Bag, pr.Tree, modulePrefix)
	c.CompileModule(pr.Root)

	return &compileResult{parseResult: pr, Types: treg, Funcs: freg, Mod: mod}, nil
}
