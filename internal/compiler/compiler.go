// Package compiler implements the two-pass semantic compiler (§4.4): name
// resolution, overload resolution, implicit-argument insertion, scope-exit
// destructor emission, and lowering to the three-address IR.
package compiler

import (
	"fmt"

	"loom/internal/ast"
	"loom/internal/diag"
	"loom/internal/funcreg"
	"loom/internal/ir"
	"loom/internal/module"
	"loom/internal/scope"
	"loom/internal/types"
)

// localValue is the concrete payload behind a scope.KindValue symbol: where
// a compiled local currently lives, and what it owes at scope exit.
//
// For a primitive, reg holds the value itself. For a non-primitive, reg
// holds the address the VM's OpStackAllocate resolved for it (§4.8's
// by-reference convention, mirrored here at compile time): every
// non-primitive local is addressed, never copied through a register.
type localValue struct {
	reg     ir.RegID
	alloc   ir.StackAllocID // nonzero if this symbol owns a stack_allocate
	isConst bool
}

// Compiler holds the shared state for compiling one module: its type and
// function registries, the module container IR and data land in, the
// scope stack for the function currently being compiled, and the
// diagnostic sink.
type Compiler struct {
	Types *types.Registry
	Funcs *funcreg.Registry
	Mod   *module.Module
	Diags *diag.Bag
	Tree  *ast.Tree

	modulePrefix string // e.g. "app::" — prefixed onto every FQN this module interns

	scopes *scope.Manager
	code   *ir.CodeHolder

	curClass  types.TypeID // NoTypeID outside a class body
	curFunc   funcreg.ID
	curMethod bool

	loopEnds []loopCtx // stack of active loops, innermost last

	// declFuncs remembers which funcreg.ID pass 1 assigned to each
	// FunctionDecl/MethodDecl/OperatorDecl node, so pass 2 compiles into
	// the same stub rather than re-deriving it by name (ambiguous once
	// overloads exist).
	declFuncs map[ast.NodeID]funcreg.ID
	// declClasses mirrors declFuncs for ClassDecl -> TypeID.
	declClasses map[ast.NodeID]types.TypeID

	// funcOverloads collects every top-level function stub pass 1 installs
	// under the same declared name, mirroring types.ClassInfo's per-name
	// method list for free functions — the scope table itself only ever
	// holds one Symbol per name (last declaration wins, per
	// scope.Scope.Declare), so call-site overload resolution reads this
	// map instead of the scope symbol's Func field.
	funcOverloads map[string][]funcreg.ID

	// templateSubst binds a template's formal parameter names to concrete
	// argument TypeIDs for the duration of one instantiateTemplate call.
	// resolveTypeSpecifier checks it before the ordinary scope/FQN lookup
	// paths; it survives compileFunctionBody's scope.Manager reset
	// (unlike an ordinary scope symbol) because a method body compiled
	// during instantiation still has to resolve its template parameter
	// types. nil outside of an active instantiation.
	templateSubst map[string]types.TypeID

	// allocAddr remembers, for the function currently being compiled, the
	// register each stack_allocate's address was captured into (§4.5's
	// OpStackAllocate C operand) — destructor emission needs the address
	// to pass as this_ptr, and OperandStack itself resolves to the value
	// stored at a slot rather than the slot's address (see vm.go). Reset
	// at the start of every function body; AllocIDs are only unique
	// within one function's CodeHolder.
	allocAddr map[ir.StackAllocID]ir.Operand

	// funcRootScope is the ScopeFunction scope.NewManager opened for the
	// function currently being compiled — the outer bound a Return walks
	// destructors up to.
	funcRootScope *scope.Scope

	// curRetPtr/curRetType describe the function currently being compiled
	// when its return type is non-primitive: the ret_ptr implicit
	// argument's register, and the type to copy into it. Unused (Type ==
	// NoTypeID) for a primitive or void return, where Return just carries
	// the value through OpRet directly.
	curRetPtr  ir.Operand
	curRetType types.TypeID

	// resolver looks up another already-compiled module's exports for
	// ast.ImportDecl (§4.4). nil for a single-module compile, which
	// leaves every import unresolved exactly as before this existed.
	resolver Resolver
	// exports collects this module's own `export`ed functions and
	// literal-valued module-data slots as pass 1 walks them, so a
	// caller compiling a dependency graph can hand this module's
	// Exports() to the next module's resolver.
	exports *Exports
}

// loopCtx tracks the labels a break/continue inside the active loop must
// jump to, plus the loop's own scope (to bound the inward-to-outward
// destructor walk per §4.4).
type loopCtx struct {
	breakLabel    ir.LabelID
	continueLabel ir.LabelID
	scope         *scope.Scope
	isSwitch      bool // break-only context; continue skips past it to the next real loop
}

// New constructs a Compiler over an already-seeded type/function registry
// and the module being built. tree is the parse tree every ast.NodeID
// passed to Compile's entry points is drawn from.
func New(treg *types.Registry, freg *funcreg.Registry, mod *module.Module, diags *diag.Bag, tree *ast.Tree, modulePrefix string) *Compiler {
	return &Compiler{
		Types:         treg,
		Funcs:         freg,
		Mod:           mod,
		Diags:         diags,
		Tree:          tree,
		modulePrefix:  modulePrefix,
		declFuncs:     make(map[ast.NodeID]funcreg.ID),
		declClasses:   make(map[ast.NodeID]types.TypeID),
		funcOverloads: make(map[string][]funcreg.ID),
	}
}

func (c *Compiler) errorf(code diag.Code, n ast.NodeID, format string, args ...any) {
	c.Diags.Add(diag.NewError(code, c.Tree.Range(n), fmt.Sprintf(format, args...)))
}

func (c *Compiler) note(d diag.Diagnostic, n ast.NodeID, msg string) diag.Diagnostic {
	return d.WithNote(c.Tree.Range(n), msg)
}

func (c *Compiler) node(id ast.NodeID) *ast.Node { return c.Tree.Get(id) }

// fqn builds a fully-qualified name under this module's prefix.
func (c *Compiler) fqn(name string) string { return c.modulePrefix + name }

// CompileModule runs the two-pass compile over root's top-level
// declarations (root.Kind == ast.Root) and builds the module's synthetic
// __init__ function from any top-level statements/initializers.
func (c *Compiler) CompileModule(root ast.NodeID) {
	top := c.Tree.Siblings(c.node(root).Body)

	c.scopes = scope.NewManager()
	c.funcRootScope = c.scopes.Top()
	c.installBuiltinAliases()

	var pass1 []ast.NodeID
	for _, n := range top {
		pass1 = append(pass1, n)
	}
	c.installSymbols(pass1)

	initCode := ir.NewCodeHolder()
	initSig := types.FunctionType{Return: c.Types.Builtins.Void, Arguments: c.implicitPrefix(false)}
	initSigType := c.Types.RegisterFunctionType(c.modulePrefix, initSig)
	initID := c.Funcs.Declare(funcreg.Function{
		Name: "__init__", FQN: c.fqn("__init__"), Signature: initSigType,
	})
	c.Mod.InitFunc = initID
	c.Mod.AddFunction(initID)
	c.Mod.Code[initID] = initCode

	savedCode, savedFunc := c.code, c.curFunc
	c.code = initCode
	c.curFunc = initID
	c.allocAddr = make(map[ir.StackAllocID]ir.Operand)
	for _, n := range top {
		switch c.node(n).Kind {
		case ast.ClassDecl, ast.FunctionDecl, ast.ImportDecl, ast.ExportDecl, ast.TypeAlias:
			c.compileDeclBody(n)
		default:
			c.compileStmt(n)
		}
	}
	c.code.Append(ir.Instruction{Op: ir.OpTerm})
	c.code, c.curFunc = savedCode, savedFunc
	c.Funcs.MarkBodyFinalized(initID)
}

// installBuiltinAliases makes every primitive's bare name resolvable as a
// scope.KindType symbol, so type-specifier lookups have one uniform path
// (scope first, registry FQN second) rather than special-casing builtins.
func (c *Compiler) installBuiltinAliases() {
	b := c.Types.Builtins
	for _, pair := range []struct {
		name string
		id   types.TypeID
	}{
		{"void", b.Void}, {"null", b.Null}, {"bool", b.Bool},
		{"i8", b.I8}, {"i16", b.I16}, {"i32", b.I32}, {"i64", b.I64},
		{"u8", b.U8}, {"u16", b.U16}, {"u32", b.U32}, {"u64", b.U64},
		{"f32", b.F32}, {"f64", b.F64}, {"ptr", b.PointerOpaque},
	} {
		c.scopes.Declare(scope.Symbol{Name: pair.name, Kind: scope.KindType, Type: pair.id})
	}
}

// implicitPrefix builds the compiler-inserted leading arguments every
// compiled function signature carries: func_ptr, ret_ptr, context_ptr, and
// (methods only) this_ptr, in that fixed order (§4.4).
func (c *Compiler) implicitPrefix(isMethod bool) []types.Argument {
	ptr := c.Types.Builtins.PointerOpaque
	args := []types.Argument{
		{Kind: types.ArgFuncPtr, Type: ptr, Name: "func_ptr"},
		{Kind: types.ArgRetPtr, Type: ptr, Name: "ret_ptr"},
		{Kind: types.ArgContextPtr, Type: ptr, Name: "context_ptr"},
	}
	if isMethod {
		args = append(args, types.Argument{Kind: types.ArgThisPtr, Type: ptr, Name: "this"})
	}
	return args
}
