package compiler_test

import (
	"testing"

	"loom/internal/compiler"
	"loom/internal/diag"
	"loom/internal/funcreg"
	"loom/internal/ir"
	"loom/internal/module"
	"loom/internal/parser"
	"loom/internal/source"
	"loom/internal/types"
)

// compileSource parses and compiles src as a standalone module, mirroring
// cmd/loom/repl/engine.go's tryRun pipeline but keeping the intermediate
// registries and diagnostics around for assertions instead of running the
// result.
func compileSource(t *testing.T, src string) (*module.Module, *types.Registry, *funcreg.Registry, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("test", []byte(src))
	file := fs.Get(fileID)

	bag := diag.NewBag(50)
	p := parser.New(file, bag)
	root, ok := p.Parse()
	if !ok || bag.HasErrors() {
		t.Fatalf("parse failed for source:\n%s\ndiagnostics: %+v", src, bag.Items())
	}

	treg := types.NewRegistry()
	freg := funcreg.New()
	types.SetFunctionTypeLookup(freg.SignatureOf)
	mod := module.New("test_mod", "test_mod.loom")

	c := compiler.New(treg, freg, mod, bag, p.Tree(), "test_mod::")
	c.CompileModule(root)

	return mod, treg, freg, bag
}

// funcsNamed returns every funcreg.Function the module owns whose bare
// Name matches name, in declaration order — the equivalent of reading
// Compiler.funcOverloads from outside the package.
func funcsNamed(mod *module.Module, freg *funcreg.Registry, name string) []*funcreg.Function {
	var out []*funcreg.Function
	for _, fid := range mod.Functions {
		if fid == funcreg.NoID {
			continue
		}
		fn, ok := freg.Get(fid)
		if !ok || fn.Name != name {
			continue
		}
		out = append(out, fn)
	}
	return out
}

// TestOverloadResolutionPicksExactMatch covers two free-function overloads
// differing only by a primitive parameter type: an i32 argument and an f32
// argument must each resolve to their own exact-match overload, and a
// class-typed argument with no conversion path to either must be rejected
// as ResNoMatchingOverload rather than silently picked.
func TestOverloadResolutionPicksExactMatch(t *testing.T) {
	src := `
class Widget {
	public id: i32;
}

function f(x: i32): i32 {
	return x;
}

function f(x: f32): f32 {
	return x;
}

let byInt = f(1);
let byFloat = f(1.5f);
`
	mod, treg, freg, bag := compileSource(t, src)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}

	overloads := funcsNamed(mod, freg, "f")
	if len(overloads) != 2 {
		t.Fatalf("got %d overloads of f, want 2", len(overloads))
	}

	i32ID := treg.Builtins.I32
	f32ID := treg.Builtins.F32
	var sawI32, sawF32 bool
	for _, fn := range overloads {
		sig, ok := treg.Get(fn.Signature)
		if !ok || sig.Function == nil {
			t.Fatalf("overload %q has no signature type", fn.FQN)
		}
		explicit := sig.Function.ExplicitArgs()
		if len(explicit) != 1 {
			t.Fatalf("overload %q has %d explicit args, want 1", fn.FQN, len(explicit))
		}
		switch explicit[0].Type {
		case i32ID:
			sawI32 = true
		case f32ID:
			sawF32 = true
		}
	}
	if !sawI32 || !sawF32 {
		t.Fatalf("expected one i32 overload and one f32 overload, got %+v", overloads)
	}

	_, _, _, bag2 := compileSource(t, `
class Widget {
	public id: i32;
}

function f(x: i32): i32 {
	return x;
}

function f(x: f32): f32 {
	return x;
}

let w: Widget = new Widget();
let bad = f(w);
`)
	if !bag2.HasErrors() {
		t.Fatal("expected a no-matching-overload diagnostic for a class-typed argument, got none")
	}
	found := false
	for _, d := range bag2.Items() {
		if d.Code == diag.ResNoMatchingOverload {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected ResNoMatchingOverload among diagnostics, got %+v", bag2.Items())
	}
}

// TestTemplateInstantiationBuildsQualifiedFQN covers instantiating a class
// template: the resulting type's FQN must carry the template's module
// prefix (a builtin argument such as i32 appears unqualified inside the
// angle brackets), and a second instantiation with the same
// argument type must reuse the cached instance rather than building a
// second, distinct class.
func TestTemplateInstantiationBuildsQualifiedFQN(t *testing.T) {
	src := `
class Array<T> {
	push(x: T): void {
	}
}

let a: Array<i32> = new Array<i32>();
let b: Array<i32> = new Array<i32>();
`
	_, treg, freg, bag := compileSource(t, src)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}

	wantFQN := "test_mod::Array<test_mod::i32>"
	id, ok := treg.GetByFQN(wantFQN)
	if !ok {
		// i32 is a builtin with no module prefix, so the argument side of
		// the key is just "i32" — fall back to that form before failing.
		wantFQN = "test_mod::Array<i32>"
		id, ok = treg.GetByFQN(wantFQN)
	}
	if !ok {
		t.Fatalf("instantiated Array<i32> not found under either qualified form")
	}

	inst, ok := treg.Get(id)
	if !ok || inst.Class == nil {
		t.Fatal("Array<i32> did not materialize as a class")
	}
	if len(inst.Class.Methods) != 1 || inst.Class.Methods[0].Name != "push" {
		t.Fatalf("Array<i32> methods = %+v, want a single push method", inst.Class.Methods)
	}

	pushFn, ok := freg.Get(funcreg.ID(inst.Class.Methods[0].Func))
	if !ok {
		t.Fatal("push's funcreg entry is missing")
	}
	pushSig, ok := treg.Get(pushFn.Signature)
	if !ok || pushSig.Function == nil {
		t.Fatal("push has no signature type")
	}
	var thisArg *types.Argument
	for i := range pushSig.Function.Arguments {
		if pushSig.Function.Arguments[i].Kind == types.ArgThisPtr {
			thisArg = &pushSig.Function.Arguments[i]
		}
	}
	if thisArg == nil {
		t.Fatal("push's signature has no this_ptr argument")
	}
	if thisArg.Type != id {
		t.Fatalf("this_ptr argument type = %v, want Array<i32> (%v)", thisArg.Type, id)
	}

	second, ok := treg.LookupInstantiation(func() types.TypeID {
		baseID, _ := treg.GetByFQN("test_mod::Array")
		return baseID
	}(), []types.TypeID{treg.Builtins.I32})
	if !ok || second != id {
		t.Fatalf("second Array<i32> request was not a cache hit: got %v, want %v", second, id)
	}
}

// TestDestructorEmittedOnScopeExit covers a class with an explicit
// destructor: a block-scoped local of that type must have its destructor
// called, followed by a stack free, when the enclosing block closes.
func TestDestructorEmittedOnScopeExit(t *testing.T) {
	src := `
class Resource {
	constructor() {
	}
	destructor() {
	}
}

function use(): void {
	let r = new Resource();
}
`
	mod, _, freg, bag := compileSource(t, src)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}

	uses := funcsNamed(mod, freg, "use")
	if len(uses) != 1 {
		t.Fatalf("got %d functions named use, want 1", len(uses))
	}
	code, ok := mod.Code[uses[0].ID]
	if !ok {
		t.Fatal("use's body was never compiled into the module")
	}

	var ops []ir.Op
	for _, instr := range code.Instrs {
		if instr.Op == ir.OpLabel {
			continue
		}
		ops = append(ops, instr.Op)
	}

	// new Resource() allocates, then calls the explicit constructor;
	// the block's close then calls the destructor and frees the slot
	// before the function's own trailing return. Each call is preceded by
	// one OpParam per signature argument (func_ptr, ret_ptr, context_ptr,
	// this_ptr).
	want := []ir.Op{
		ir.OpStackAllocate,
		ir.OpParam, ir.OpParam, ir.OpParam, ir.OpParam, ir.OpCall,
		ir.OpParam, ir.OpParam, ir.OpParam, ir.OpParam, ir.OpCall,
		ir.OpStackFree, ir.OpRet,
	}
	if len(ops) != len(want) {
		t.Fatalf("use's body ops = %+v, want %+v", ops, want)
	}
	for i, op := range want {
		if ops[i] != op {
			t.Fatalf("use's body ops = %+v, want %+v", ops, want)
		}
	}
}

// TestBreakUnwindsEnclosingScopes covers a break reached through a nested
// if inside a while loop: the locals declared in both the if-block and the
// loop body must be destructed and freed on the way out, before the final
// jump to the loop's break label.
func TestBreakUnwindsEnclosingScopes(t *testing.T) {
	src := `
class Resource {
	constructor() {
	}
	destructor() {
	}
}

function run(): void {
	while (true) {
		let outer = new Resource();
		if (true) {
			let inner = new Resource();
			break;
		}
	}
}
`
	mod, _, freg, bag := compileSource(t, src)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}

	runs := funcsNamed(mod, freg, "run")
	if len(runs) != 1 {
		t.Fatalf("got %d functions named run, want 1", len(runs))
	}
	code, ok := mod.Code[runs[0].ID]
	if !ok {
		t.Fatal("run's body was never compiled into the module")
	}

	var ops []ir.Op
	for _, instr := range code.Instrs {
		if instr.Op == ir.OpLabel {
			continue
		}
		ops = append(ops, instr.Op)
	}

	// The break's own jump is the first OpJump in the stream (the if's
	// unconditional post-then jump and the while's loop-back jump both
	// come later, emitted by the surrounding blocks' own, separate
	// fallthrough exits). It must be preceded directly by two
	// destructor-call/stack-free pairs, inner before outer, per the
	// inward-to-outward walk; each destructor call comes with its four
	// OpParam (func_ptr, ret_ptr, context_ptr, this_ptr).
	breakJumpIdx := -1
	for i, op := range ops {
		if op == ir.OpJump {
			breakJumpIdx = i
			break
		}
	}
	if breakJumpIdx < 12 {
		t.Fatalf("expected at least 12 unwind instructions before the break's jump, got ops: %+v", ops)
	}
	preceding := ops[breakJumpIdx-12 : breakJumpIdx]
	want := []ir.Op{
		ir.OpParam, ir.OpParam, ir.OpParam, ir.OpParam, ir.OpCall, ir.OpStackFree,
		ir.OpParam, ir.OpParam, ir.OpParam, ir.OpParam, ir.OpCall, ir.OpStackFree,
	}
	for i, op := range want {
		if preceding[i] != op {
			t.Fatalf("unwind sequence before break = %+v, want %+v", preceding, want)
		}
	}
}

// TestDecompositorBindsFieldsAndDoesNotDoubleDestruct covers `let { x, y } =
// p;`: x (i32) loads into its own register, y (a class-typed field) aliases
// p's own storage at its offset rather than getting a second, independent
// destructor/stack_free pair — Pair's destructor still runs exactly once,
// against p itself, when the block closes.
func TestDecompositorBindsFieldsAndDoesNotDoubleDestruct(t *testing.T) {
	src := `
class Resource {
	constructor() {
	}
	destructor() {
	}
}

class Pair {
	public x: i32;
	public y: Resource;
	destructor() {
	}
}

function use(): void {
	let p = new Pair();
	let { x, y } = p;
}
`
	mod, _, freg, bag := compileSource(t, src)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}

	uses := funcsNamed(mod, freg, "use")
	if len(uses) != 1 {
		t.Fatalf("got %d functions named use, want 1", len(uses))
	}
	code, ok := mod.Code[uses[0].ID]
	if !ok {
		t.Fatal("use's body was never compiled into the module")
	}

	var ops []ir.Op
	var calls int
	for _, instr := range code.Instrs {
		if instr.Op == ir.OpLabel {
			continue
		}
		ops = append(ops, instr.Op)
		if instr.Op == ir.OpCall {
			calls++
		}
	}

	// x's load, y's address computed relative to p (an OpUAdd, since its
	// offset within Pair is nonzero), then exactly one destructor call
	// (Pair's, for p, after its four OpParam) before the slot is freed and
	// the function returns.
	want := []ir.Op{
		ir.OpStackAllocate, ir.OpLoad, ir.OpResolve, ir.OpUAdd,
		ir.OpParam, ir.OpParam, ir.OpParam, ir.OpParam, ir.OpCall,
		ir.OpStackFree, ir.OpRet,
	}
	if len(ops) != len(want) {
		t.Fatalf("use's body ops = %+v, want %+v", ops, want)
	}
	for i, op := range want {
		if ops[i] != op {
			t.Fatalf("use's body ops = %+v, want %+v", ops, want)
		}
	}
	if calls != 1 {
		t.Fatalf("got %d destructor calls, want exactly 1 (Pair's, for p; y must not get its own)", calls)
	}
}
