package compiler

import (
	"loom/internal/ast"
	"loom/internal/diag"
	"loom/internal/funcreg"
	"loom/internal/ir"
	"loom/internal/module"
	"loom/internal/scope"
	"loom/internal/types"
)

// Resolver looks up an already-compiled module's exports by the import
// path an ast.ImportDecl names (§4.4 "Imports and exports"). Finding the
// module on disk — walking loom.toml/deps, ordering a project's module
// graph — is the CLI/embedder's job (internal/project); this compiler
// only consumes whatever Resolver hands back. A single-module compile
// leaves this nil and every import fails exactly as it always did.
type Resolver interface {
	ResolveImport(path string) (*Exports, bool)
}

// MapResolver is the simplest Resolver: a fixed table of already-compiled
// modules keyed by the path an importer names them under. A caller
// compiling a project's module graph in dependency order builds one up
// as each module finishes, per §4.4.
type MapResolver map[string]*Exports

// ResolveImport implements Resolver.
func (r MapResolver) ResolveImport(path string) (*Exports, bool) {
	exp, ok := r[path]
	return exp, ok
}

// ExportedConst is a module-level `export const` whose initializer folds
// to a literal at compile time — the only "module-data slot" (§3) this
// compiler can hand another module a stable value for. An ordinary
// top-level `let`/`const` with a non-literal initializer never gets this
// far: CompileModule compiles every top-level statement straight into
// __init__ and never gives it a persistent, addressable module-data
// slot, so there is nothing for a sibling module to pull (see
// DESIGN.md).
type ExportedConst struct {
	Type    types.TypeID
	IsFloat bool
	Float   float64
	Int     int64
	IsBytes bool
	Bytes   []byte
}

// Exports is what one compiled module publishes for another module's
// `import` to pull symbols from, keyed by the name each was declared
// under (before any importer-side `as` alias). Funcs maps to a slice
// because export declarations, like top-level ones, may be overloaded;
// the importer resolves the call the same way an ordinary overloaded
// call does (§4.4's "could be" ambiguity diagnostics come along for
// free through resolveOverload).
type Exports struct {
	Funcs  map[string][]funcreg.ID
	Consts map[string]ExportedConst
}

// NewExports returns an empty export table ready for pass 1 to fill in.
func NewExports() *Exports {
	return &Exports{Funcs: make(map[string][]funcreg.ID), Consts: make(map[string]ExportedConst)}
}

// SetResolver installs the hook installImport consults for every
// ast.ImportDecl. Call it before CompileModule.
func (c *Compiler) SetResolver(r Resolver) { c.resolver = r }

// Exports returns this compile's own export table, growing it lazily as
// installExportedStub records `export`ed functions and constants. A
// caller compiling a dependency graph stashes the result under this
// module's own import path for the next module's Resolver to find.
func (c *Compiler) Exports() *Exports {
	if c.exports == nil {
		c.exports = NewExports()
	}
	return c.exports
}

// installImport implements the pull half of §4.4's "Imports and
// exports": `import { x, y as z } from "mod"` binds a function or
// literal module-data slot from mod's already-compiled Exports into the
// current scope under the chosen alias; `import { * as M } from "mod"`
// binds the module itself as a scope.KindModule namespace, resolved
// member-by-member at each M.member use (see memberLValue/compileCall).
func (c *Compiler) installImport(n ast.NodeID) {
	node := c.node(n)
	if c.resolver == nil {
		c.errorf(diag.ResImportNotFound, n, "import of %q: no module resolver is configured for this compile", node.Text)
		return
	}
	exp, ok := c.resolver.ResolveImport(node.Text)
	if !ok {
		c.errorf(diag.ResImportNotFound, n, "import of %q: module not found", node.Text)
		return
	}
	for _, specID := range c.Tree.Siblings(node.Parameters) {
		spec := c.node(specID)
		if spec.Text == "*" {
			alias := spec.Text
			if spec.Alias != 0 {
				alias = c.node(spec.Alias).Text
			}
			c.scopes.Declare(scope.Symbol{Name: alias, Kind: scope.KindModule, Value: exp})
			continue
		}
		alias := spec.Text
		if spec.Alias != 0 {
			alias = c.node(spec.Alias).Text
		}
		if ids, ok := exp.Funcs[spec.Text]; ok && len(ids) > 0 {
			c.scopes.Declare(scope.Symbol{Name: alias, Kind: scope.KindFunction, Func: ids[0]})
			c.funcOverloads[alias] = append(c.funcOverloads[alias], ids...)
			continue
		}
		if cst, ok := exp.Consts[spec.Text]; ok {
			c.scopes.Declare(scope.Symbol{Name: alias, Kind: scope.KindModuleSlot, Type: cst.Type, Value: cst})
			continue
		}
		c.errorf(diag.ResImportSymbolNotFound, specID, "module %q has no exported symbol %q", node.Text, spec.Text)
	}
}

// materializeConst re-interns an imported literal constant into this
// module's own data area (a string) or as a plain immediate (everything
// else) — the same two lowerings compileLiteral uses for a local
// literal, since a pulled module-data slot is compile-time constant by
// construction (see ExportedConst).
func (c *Compiler) materializeConst(n ast.NodeID, cst ExportedConst) ir.Operand {
	if cst.IsBytes {
		idx := c.Mod.AddData(module.Data{
			Type: cst.Type, Size: uint32(len(cst.Bytes)), Storage: cst.Bytes, Access: types.AccessPrivate,
		})
		dst := c.code.NewReg()
		c.code.Append(ir.Instruction{Op: ir.OpModuleData, A: ir.Reg(dst, cst.Type), B: ir.ImmInt(int64(idx), c.Types.Builtins.I32), Src: c.Tree.Range(n)})
		return ir.Reg(dst, cst.Type)
	}
	if cst.IsFloat {
		return ir.ImmFloat(cst.Float, cst.Type)
	}
	return ir.ImmInt(cst.Int, cst.Type)
}

// compileModuleCall resolves `M.name(args)` where M is a `* as M`
// namespace import, mirroring compileCall's plain-identifier overload
// resolution but drawing candidates from the imported module's Exports
// instead of c.funcOverloads.
func (c *Compiler) compileModuleCall(n ast.NodeID, moduleAlias string, sym *scope.Symbol, calleeNode *ast.Node, args []ir.Operand, argTypes []types.TypeID) ir.Operand {
	exp, _ := sym.Value.(*Exports)
	name := c.node(calleeNode.RValue).Text
	ids, ok := exp.Funcs[name]
	if !ok {
		c.errorf(diag.ResImportSymbolNotFound, n, "module %q has no exported function %q", moduleAlias, name)
		return ir.Operand{}
	}
	var cands []candidate
	for _, fid := range ids {
		fn, ok := c.Funcs.Get(fid)
		if !ok {
			continue
		}
		sigT, ok := c.Types.Get(fn.Signature)
		if !ok || sigT.Function == nil {
			continue
		}
		cands = append(cands, candidate{id: fid, explicit: sigT.Function.ExplicitArgs()})
	}
	id, ok := c.resolveOverload(n, name, cands, argTypes)
	if !ok {
		return ir.Operand{}
	}
	return c.emitCall(n, id, ir.Operand{}, args)
}

// moduleMemberLValue resolves `M.name` where M is a `* as M` namespace
// import: only a pulled constant is readable this way, matching
// compileIdentifier's KindModuleSlot case for the named-import form.
func (c *Compiler) moduleMemberLValue(n ast.NodeID, sym *scope.Symbol) (lvalue, bool) {
	node := c.node(n)
	exp, _ := sym.Value.(*Exports)
	name := c.node(node.RValue).Text
	cst, ok := exp.Consts[name]
	if !ok {
		c.errorf(diag.ResImportSymbolNotFound, n, "module has no exported data slot %q", name)
		return lvalue{}, false
	}
	return lvalue{
		typ: cst.Type,
		get: func() ir.Operand { return c.materializeConst(n, cst) },
		set: func(ir.Operand) {
			c.errorf(diag.ResWrongSymbolKind, n, "cannot assign to imported constant %q", name)
		},
	}, true
}
