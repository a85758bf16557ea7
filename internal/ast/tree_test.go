package ast_test

import (
	"testing"

	"loom/internal/ast"
	"loom/internal/source"
)

func TestArenaAllocateAndGet(t *testing.T) {
	a := ast.NewArena[int](4)
	id1 := a.Allocate(10)
	id2 := a.Allocate(20)
	if id1 == 0 || id2 == 0 {
		t.Fatalf("ids should be 1-based non-zero, got %d, %d", id1, id2)
	}
	if *a.Get(id1) != 10 || *a.Get(id2) != 20 {
		t.Fatalf("Get returned wrong values")
	}
	if a.Get(0) != nil {
		t.Fatalf("Get(0) should be nil (reserved 'absent' id)")
	}
	if a.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", a.Len())
	}
}

func TestTreeRangeCoversChildren(t *testing.T) {
	tree := ast.NewTree(8)
	left := tree.New(ast.Node{Kind: ast.Literal, Span: source.Span{File: 0, Start: 5, End: 6}})
	right := tree.New(ast.Node{Kind: ast.Literal, Span: source.Span{File: 0, Start: 10, End: 12}})
	bin := tree.New(ast.Node{Kind: ast.BinaryExpr, Op: ast.OpAdd, Span: source.Span{File: 0, Start: 5, End: 5}, LValue: left, RValue: right})

	rng := tree.Range(bin)
	if rng.Start != 5 || rng.End != 12 {
		t.Fatalf("Range = %+v, want {5 12}", rng)
	}
}

func TestTreeRangeIncludesSiblingChain(t *testing.T) {
	tree := ast.NewTree(8)
	second := tree.New(ast.Node{Kind: ast.ExprStmt, Span: source.Span{File: 0, Start: 20, End: 25}})
	first := tree.New(ast.Node{Kind: ast.ExprStmt, Span: source.Span{File: 0, Start: 0, End: 5}, Next: second})

	rng := tree.Range(first)
	if rng.Start != 0 || rng.End != 25 {
		t.Fatalf("Range = %+v, want {0 25}", rng)
	}
}

func TestTreeCloneIsDeepAndIndependent(t *testing.T) {
	src := ast.NewTree(8)
	leaf := src.New(ast.Node{Kind: ast.Identifier, Text: "T", Span: source.Span{Start: 0, End: 1}})
	root := src.New(ast.Node{Kind: ast.ClassDecl, Text: "Box", Body: leaf})

	dst := ast.NewTree(8)
	clonedRoot := src.Clone(root, dst)

	clonedNode := dst.Get(clonedRoot)
	if clonedNode.Text != "Box" {
		t.Fatalf("clonedNode.Text = %q, want Box", clonedNode.Text)
	}
	clonedLeaf := dst.Get(clonedNode.Body)
	if clonedLeaf.Text != "T" {
		t.Fatalf("clonedLeaf.Text = %q, want T", clonedLeaf.Text)
	}

	// mutating the clone must not affect the source arena.
	clonedLeaf.Text = "mutated"
	if src.Get(leaf).Text != "T" {
		t.Fatalf("mutating dst's clone affected src's original node")
	}
}

func TestTreeSiblings(t *testing.T) {
	tree := ast.NewTree(8)
	c := tree.New(ast.Node{Kind: ast.Param, Text: "c"})
	b := tree.New(ast.Node{Kind: ast.Param, Text: "b", Next: c})
	a := tree.New(ast.Node{Kind: ast.Param, Text: "a", Next: b})

	ids := tree.Siblings(a)
	if len(ids) != 3 {
		t.Fatalf("Siblings returned %d ids, want 3", len(ids))
	}
	var names []string
	for _, id := range ids {
		names = append(names, tree.Get(id).Text)
	}
	if names[0] != "a" || names[1] != "b" || names[2] != "c" {
		t.Fatalf("Siblings order = %v, want [a b c]", names)
	}
}

func TestNodeKindString(t *testing.T) {
	if ast.ClassDecl.String() != "class_decl" {
		t.Fatalf("ClassDecl.String() = %q, want class_decl", ast.ClassDecl.String())
	}
	var unknown ast.NodeKind = 250
	if unknown.String() != "unknown" {
		t.Fatalf("unknown kind String() = %q, want unknown", unknown.String())
	}
}
