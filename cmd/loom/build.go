package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"fortio.org/safecast"
	"github.com/spf13/cobra"

	"loom/internal/ast"
	"loom/internal/compiler"
	"loom/internal/diag"
	"loom/internal/funcreg"
	"loom/internal/module"
	"loom/internal/parser"
	"loom/internal/project"
	"loom/internal/project/dag"
	"loom/internal/source"
	"loom/internal/types"
	"loom/internal/vm"

	"loom/cmd/loom/diagfmt"
)

var buildCmd = &cobra.Command{
	Use:   "build [flags] [project-dir]",
	Short: "Compile every module in a loom.toml project's dependency graph",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBuild,
}

func init() {
	buildCmd.Flags().Bool("dump-ir", false, "print every compiled module's instruction listing to stdout")
	buildCmd.Flags().String("entry", "", "logical module path whose __init__ to run with --run (default: \"main\")")
	buildCmd.Flags().Bool("run", false, "execute the entry module after a clean build")
}

// buildUnit is one loom source file discovered under a project's own
// workspace or one of its installed dependencies, tagged with the logical
// module path other files' imports name it under (§4.4).
type buildUnit struct {
	path string
	mod  string
}

func runBuild(cmd *cobra.Command, args []string) error {
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	dumpIR, err := cmd.Flags().GetBool("dump-ir")
	if err != nil {
		return fmt.Errorf("failed to get dump-ir flag: %w", err)
	}
	wantRun, err := cmd.Flags().GetBool("run")
	if err != nil {
		return fmt.Errorf("failed to get run flag: %w", err)
	}
	entry, err := cmd.Flags().GetString("entry")
	if err != nil {
		return fmt.Errorf("failed to get entry flag: %w", err)
	}
	if entry == "" {
		entry = "main"
	}

	startDir := "."
	if len(args) == 1 {
		startDir = args[0]
	}

	mapping, ok, err := project.LoadModuleMapping(startDir)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no loom.toml found under %s", startDir)
	}
	for name, reason := range mapping.Missing {
		if err := writeStderrf("warning: %s: %s\n", name, reason); err != nil {
			return err
		}
	}

	units, err := discoverBuildUnits(mapping)
	if err != nil {
		return err
	}
	if len(units) == 0 {
		return writeStdoutln("no .loom files found in this project")
	}

	fs := source.NewFileSet()
	paths := make([]string, len(units))
	for i, u := range units {
		paths[i] = u.path
	}
	if _, err := project.LoadModuleFiles(context.Background(), fs, paths); err != nil {
		return fmt.Errorf("failed to read project sources: %w", err)
	}

	bag := diag.NewBag(maxDiagnostics)
	reporter := diag.BagReporter{Bag: bag}

	type parsed struct {
		unit buildUnit
		tree *ast.Tree
		root ast.NodeID
		meta project.ModuleMeta
	}
	metas := make([]project.ModuleMeta, len(units))
	parsedUnits := make([]parsed, len(units))

	for i, u := range units {
		file, ok := fs.GetByPath(u.path)
		if !ok {
			return fmt.Errorf("internal error: %s not registered in file set", u.path)
		}
		p := parser.New(file, bag)
		root, _ := p.Parse()
		size, err := safecast.Conv[uint32](len(file.Content))
		if err != nil {
			return fmt.Errorf("%s: %w", u.path, err)
		}
		wholeFile := source.Span{File: file.ID, Start: 0, End: size}
		meta := project.ModuleMeta{Path: u.mod, Span: wholeFile, Imports: scanImports(p.Tree(), root, u.mod)}
		parsedUnits[i] = parsed{unit: u, tree: p.Tree(), root: root, meta: meta}
		metas[i] = meta
	}

	idx := dag.BuildIndex(metas)
	nodes := make([]dag.ModuleNode, len(metas))
	for i, m := range metas {
		nodes[i] = dag.ModuleNode{Meta: m, Reporter: reporter}
	}
	graph, slots := dag.BuildGraph(idx, nodes)
	topo := dag.ToposortKahn(graph)
	dag.ReportCycles(idx, slots, *topo)
	dag.ReportBrokenDeps(idx, slots)

	if bag.HasErrors() {
		diagfmt.Pretty(os.Stderr, bag, fs, diagfmt.PrettyOpts{Color: wantColor(cmd, os.Stderr), Context: 2})
		os.Exit(1)
	}

	byMod := make(map[string]*parsed, len(parsedUnits))
	for i := range parsedUnits {
		byMod[parsedUnits[i].unit.mod] = &parsedUnits[i]
	}

	treg := types.NewRegistry()
	freg := funcreg.New()
	compiledExports := make(map[string]*compiler.Exports, len(units))
	compiledModules := make(map[string]*module.Module, len(units))

	for _, id := range topo.Order {
		modPath := idx.IDToName[int(id)]
		pu, ok := byMod[modPath]
		if !ok {
			continue // an imported-but-not-present module already reported by ReportBrokenDeps/ReportCycles
		}

		mod := module.New(modPath, pu.unit.path)
		prefix := modPath + "::"
		c := compiler.New(treg, freg, mod, bag, pu.tree, prefix)

		resolver := compiler.MapResolver{}
		for _, imp := range pu.meta.Imports {
			exp, ok := compiledExports[imp.Path]
			if !ok {
				continue
			}
			if raw, ok := importTextAt(pu.tree, pu.root, imp.Span); ok {
				resolver[raw] = exp
			}
		}
		c.SetResolver(resolver)
		c.CompileModule(pu.root)

		compiledExports[modPath] = c.Exports()
		compiledModules[modPath] = mod
	}

	if bag.HasErrors() || bag.HasWarnings() {
		diagfmt.Pretty(os.Stderr, bag, fs, diagfmt.PrettyOpts{Color: wantColor(cmd, os.Stderr), Context: 2})
	}
	if dumpIR {
		names := make([]string, 0, len(compiledModules))
		for name := range compiledModules {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(os.Stdout, "-- module %s --\n", name)
			diagfmt.DumpModule(os.Stdout, compiledModules[name], freg)
		}
	}
	if bag.HasErrors() {
		os.Exit(1)
	}

	if wantRun {
		entryMod, ok := compiledModules[entry]
		if !ok {
			return fmt.Errorf("entry module %q was not built (pass --entry to pick a different one)", entry)
		}
		machine := vm.New(entryMod, treg, freg, defaultStackSize)
		if _, err := machine.Execute(entryMod.InitFunc, nil); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	return nil
}

// discoverBuildUnits walks the project's own workspace tree and every
// resolved dependency root for .loom files, tagging each with the logical
// module path (§4.4's import path namespace) other files reach it under:
// a workspace-local file's path relative to the project root, or a
// dependency file's path under its declared module alias (ModuleMapping's
// LogicalPath, per its own "Run: loom module install" resolution).
func discoverBuildUnits(mapping *project.ModuleMapping) ([]buildUnit, error) {
	var units []buildUnit
	seen := make(map[string]struct{})

	addTree := func(dir string, logical func(path string) (string, bool)) error {
		return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != dir && d.Name() == "deps" {
					return filepath.SkipDir
				}
				return nil
			}
			if !strings.HasSuffix(path, ".loom") {
				return nil
			}
			modPath, ok := logical(path)
			if !ok {
				return nil
			}
			if _, dup := seen[modPath]; dup {
				return fmt.Errorf("module path %q is claimed by more than one file", modPath)
			}
			seen[modPath] = struct{}{}
			units = append(units, buildUnit{path: path, mod: modPath})
			return nil
		})
	}

	if err := addTree(mapping.ProjectRoot, func(path string) (string, bool) {
		if alias, ok := mapping.LogicalPath(path); ok {
			return alias, true
		}
		rel, err := filepath.Rel(mapping.ProjectRoot, path)
		if err != nil {
			return "", false
		}
		modPath, err := project.NormalizeModulePath(filepath.ToSlash(rel))
		if err != nil {
			return "", false
		}
		return modPath, true
	}); err != nil {
		return nil, err
	}

	for _, root := range mapping.Roots {
		if err := addTree(root, func(path string) (string, bool) {
			return mapping.LogicalPath(path)
		}); err != nil {
			return nil, err
		}
	}

	sort.Slice(units, func(i, j int) bool { return units[i].mod < units[j].mod })
	return units, nil
}

// scanImports walks root's top-level ast.ImportDecl nodes and resolves
// each one's raw "path/like/this" text to the normalized module path
// (§4.4) the dependency graph indexes modules under.
func scanImports(tree *ast.Tree, root ast.NodeID, modPath string) []project.ImportMeta {
	var out []project.ImportMeta
	for _, n := range tree.Siblings(tree.Get(root).Body) {
		node := tree.Get(n)
		if node.Kind != ast.ImportDecl {
			continue
		}
		raw := strings.Trim(node.Text, "\"")
		segments := strings.Split(raw, "/")
		target, err := project.ResolveImportPath(modPath, "", segments)
		if err != nil {
			continue
		}
		out = append(out, project.ImportMeta{Path: target, Span: node.Span})
	}
	return out
}

// importTextAt returns the raw (quoted) Text of the ast.ImportDecl node at
// span — the literal key installImport looks a Resolver up by, since the
// compiler never unquotes an import path itself (see DESIGN.md). Matching
// by span rather than re-resolving the path keeps this in exact lockstep
// with whatever modPath scanImports resolved it against.
func importTextAt(tree *ast.Tree, root ast.NodeID, span source.Span) (string, bool) {
	for _, n := range tree.Siblings(tree.Get(root).Body) {
		node := tree.Get(n)
		if node.Kind == ast.ImportDecl && node.Span == span {
			return node.Text, true
		}
	}
	return "", false
}
