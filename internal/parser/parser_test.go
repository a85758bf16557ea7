package parser_test

import (
	"testing"

	"loom/internal/ast"
	"loom/internal/diag"
	"loom/internal/parser"
	"loom/internal/source"
	"loom/internal/testkit"
)

func parseSrc(t *testing.T, src string) (*ast.Tree, ast.NodeID, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.loom", []byte(src))
	bag := diag.NewBag(50)
	p := parser.New(fs.Get(id), bag)
	root, ok := p.Parse()
	if !ok {
		t.Fatalf("Parse() reported failure for:\n%s", src)
	}
	return p.Tree(), root, bag
}

func TestParseVarDecl(t *testing.T) {
	tree, root, bag := parseSrc(t, "let x: i32 = 1;")
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
	rootNode := tree.Get(root)
	if rootNode.Kind != ast.Root {
		t.Fatalf("root kind = %s, want root", rootNode.Kind)
	}
	stmt := tree.Get(rootNode.Body)
	if stmt.Kind != ast.VarDecl {
		t.Fatalf("first statement kind = %s, want var_decl", stmt.Kind)
	}
}

func TestParseFunctionDecl(t *testing.T) {
	tree, root, bag := parseSrc(t, "function add(a: i32, b: i32): i32 { return a + b; }")
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
	fn := tree.Get(tree.Get(root).Body)
	if fn.Kind != ast.FunctionDecl || fn.Text != "add" {
		t.Fatalf("fn = %+v, want FunctionDecl named add", fn)
	}
	if fn.Parameters == 0 {
		t.Fatalf("expected parameters to be populated")
	}
	params := tree.Siblings(fn.Parameters)
	if len(params) != 2 {
		t.Fatalf("got %d params, want 2", len(params))
	}
	body := tree.Get(fn.Body)
	if body.Kind != ast.Block {
		t.Fatalf("fn.Body kind = %s, want block", body.Kind)
	}
}

func TestParseClassWithPropertiesAndMethod(t *testing.T) {
	src := `
class Point {
    public x: i32;
    public y: i32;
    sum(): i32 {
        return this.x + this.y;
    }
}`
	tree, root, bag := parseSrc(t, src)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
	cls := tree.Get(tree.Get(root).Body)
	if cls.Kind != ast.ClassDecl || cls.Text != "Point" {
		t.Fatalf("cls = %+v, want ClassDecl named Point", cls)
	}
	members := tree.Siblings(cls.Body)
	if len(members) != 3 {
		t.Fatalf("got %d members, want 3 (x, y, sum)", len(members))
	}
}

func TestParseClassTemplate(t *testing.T) {
	src := `class Array<T> { public len: i32; }`
	tree, root, bag := parseSrc(t, src)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
	cls := tree.Get(tree.Get(root).Body)
	if cls.TemplateParameters == 0 {
		t.Fatalf("expected template parameters to be populated for Array<T>")
	}
	tparams := tree.Siblings(cls.TemplateParameters)
	if len(tparams) != 1 || tree.Get(tparams[0]).Text != "T" {
		t.Fatalf("template params = %v, want [T]", tparams)
	}
}

func TestParseObjectDecompositor(t *testing.T) {
	src := `let { x, y: renamed } = obj;`
	tree, root, bag := parseSrc(t, src)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
	varDecl := tree.Get(tree.Get(root).Body)
	pattern := tree.Get(varDecl.LValue)
	if pattern.Kind != ast.Decompositor {
		t.Fatalf("lvalue kind = %s, want decompositor", pattern.Kind)
	}
	fields := tree.Siblings(pattern.Body)
	if len(fields) != 2 {
		t.Fatalf("got %d decompositor fields, want 2", len(fields))
	}
	if tree.Get(fields[0]).Text != "x" || tree.Get(fields[0]).Alias != 0 {
		t.Fatalf("field[0] = %+v, want plain \"x\" with no alias", tree.Get(fields[0]))
	}
	second := tree.Get(fields[1])
	if second.Text != "y" || second.Alias == 0 || tree.Get(second.Alias).Text != "renamed" {
		t.Fatalf("field[1] = %+v, want \"y\" aliased to \"renamed\"", second)
	}
}

func TestParseIfElseAndWhile(t *testing.T) {
	src := `
function f(): i32 {
    if (true) {
        return 1;
    } else {
        return 0;
    }
}`
	tree, root, bag := parseSrc(t, src)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
	fn := tree.Get(tree.Get(root).Body)
	body := tree.Get(fn.Body)
	ifNode := tree.Get(body.Body)
	if ifNode.Kind != ast.If {
		t.Fatalf("first statement kind = %s, want if", ifNode.Kind)
	}
	if ifNode.ElseBody == 0 {
		t.Fatalf("expected an else branch")
	}
}

func TestParseArrowFunctionExpression(t *testing.T) {
	src := `let f = (x: i32) => x + 1;`
	tree, root, bag := parseSrc(t, src)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
	varDecl := tree.Get(tree.Get(root).Body)
	init := tree.Get(varDecl.Initializer)
	if init.Kind != ast.ArrowFunction {
		t.Fatalf("initializer kind = %s, want arrow_function", init.Kind)
	}
}

func TestParseImportAndExport(t *testing.T) {
	src := `
import { foo, bar as baz } from "other";
export function g(): i32 { return 1; }
`
	tree, root, bag := parseSrc(t, src)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
	imp := tree.Get(tree.Get(root).Body)
	if imp.Kind != ast.ImportDecl {
		t.Fatalf("first decl kind = %s, want import_decl", imp.Kind)
	}
	exp := tree.Get(imp.Next)
	if exp.Kind != ast.ExportDecl {
		t.Fatalf("second decl kind = %s, want export_decl", exp.Kind)
	}
}

func TestParseErrorRecoveryProducesErrorNode(t *testing.T) {
	src := `let x = ; let y = 2;`
	tree, root, bag := parseSrc(t, src)
	if !bag.HasErrors() {
		t.Fatalf("expected a diagnostic for the malformed first statement")
	}
	// The parser should still recover and continue parsing the second
	// statement rather than aborting entirely.
	stmts := tree.Siblings(tree.Get(root).Body)
	if len(stmts) < 2 {
		t.Fatalf("expected recovery to continue past the error, got %d top-level nodes", len(stmts))
	}
}

func TestParseTryCatchRequiresTypedParameter(t *testing.T) {
	src := `
function f(): i32 {
    try {
        return 1;
    } catch (e: Error) {
        return 0;
    }
}`
	tree, root, bag := parseSrc(t, src)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
	fn := tree.Get(tree.Get(root).Body)
	body := tree.Get(fn.Body)
	tc := tree.Get(body.Body)
	if tc.Kind != ast.TryCatch {
		t.Fatalf("statement kind = %s, want try_catch", tc.Kind)
	}
}

func TestParseOperatorOverload(t *testing.T) {
	src := `
class Vec {
    operator +(other: Vec): Vec {
        return this;
    }
}`
	tree, root, bag := parseSrc(t, src)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
	cls := tree.Get(tree.Get(root).Body)
	member := tree.Get(cls.Body)
	if member.Kind != ast.OperatorDecl {
		t.Fatalf("member kind = %s, want operator_decl", member.Kind)
	}
}

func TestParseSpansSatisfyInvariants(t *testing.T) {
	src := `
function f(a: i32): i32 {
    return a + 1;
}
let x: i32 = 2;`
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.loom", []byte(src))
	sf := fs.Get(id)
	bag := diag.NewBag(50)
	p := parser.New(sf, bag)
	root, ok := p.Parse()
	if !ok {
		t.Fatalf("Parse() reported failure for:\n%s", src)
	}
	if err := testkit.CheckSpanInvariants(p.Tree(), root, sf); err != nil {
		t.Fatalf("CheckSpanInvariants() = %v", err)
	}
}

func TestParsePrecedenceOfArithmeticExpression(t *testing.T) {
	src := `let x = 1 + 2 * 3;`
	tree, root, _ := parseSrc(t, src)
	varDecl := tree.Get(tree.Get(root).Body)
	top := tree.Get(varDecl.Initializer)
	if top.Kind != ast.BinaryExpr || top.Op != ast.OpAdd {
		t.Fatalf("top-level operator = %v (kind %s), want '+' at the top per precedence", top.Op, top.Kind)
	}
	rhs := tree.Get(top.RValue)
	if rhs.Kind != ast.BinaryExpr || rhs.Op != ast.OpMul {
		t.Fatalf("rhs = %+v, want a '*' binary expression nested under '+'", rhs)
	}
}
