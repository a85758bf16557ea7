package repl

import (
	"bytes"
	"fmt"

	"loom/internal/compiler"
	"loom/internal/diag"
	"loom/internal/funcreg"
	"loom/internal/module"
	"loom/internal/parser"
	"loom/internal/source"
	"loom/internal/types"
	"loom/internal/vm"

	"loom/cmd/loom/diagfmt"
)

const replStackSize = 1 << 16

// tryRun parses and compiles candidate (the session's accumulated source
// plus the newly submitted line) from scratch, and — only if that
// succeeds without errors — executes it; any remaining warnings are
// returned alongside the successful run. A failing candidate never
// touches the caller's committed buffer, so a bad line can be retried or
// discarded without corrupting the session.
func tryRun(candidate string) (diagnosticsText string, ok bool) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("repl", []byte(candidate))
	file := fs.Get(fileID)

	bag := diag.NewBag(50)
	p := parser.New(file, bag)
	root, _ := p.Parse()

	if bag.HasErrors() {
		return renderDiagnostics(bag, fs), false
	}

	treg := types.NewRegistry()
	freg := funcreg.New()
	mod := module.New("repl", "repl")

	c := compiler.New(treg, freg, mod, bag, p.Tree(), "")
	c.CompileModule(root)

	if bag.HasErrors() {
		return renderDiagnostics(bag, fs), false
	}

	machine := vm.New(mod, treg, freg, replStackSize)
	if _, err := machine.Execute(mod.InitFunc, nil); err != nil {
		return fmt.Sprintf("runtime error: %s", err), false
	}

	if bag.Len() > 0 {
		return renderDiagnostics(bag, fs), true
	}
	return "", true
}

func renderDiagnostics(bag *diag.Bag, fs *source.FileSet) string {
	var buf bytes.Buffer
	diagfmt.Pretty(&buf, bag, fs, diagfmt.PrettyOpts{Color: false, Context: 1})
	return buf.String()
}
