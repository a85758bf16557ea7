package types_test

import (
	"testing"

	"loom/internal/ast"
	"loom/internal/types"
)

func TestTemplateInstantiationCachingAndFQN(t *testing.T) {
	r := types.NewRegistry()
	body := ast.NewTree(4)
	root := body.New(ast.Node{Kind: ast.ClassDecl, Text: "Array"})

	tmplID := r.RegisterTemplate("mod::Array", "Array", []types.TemplateParam{{Name: "T"}}, body, root)

	fqn, ok := r.InstantiationKey(tmplID, []types.TypeID{r.Builtins.I32})
	if !ok || fqn != "mod::Array<i32>" {
		t.Fatalf("InstantiationKey = (%q, %v), want (\"mod::Array<i32>\", true)", fqn, ok)
	}

	if _, ok := r.LookupInstantiation(tmplID, []types.TypeID{r.Builtins.I32}); ok {
		t.Fatalf("expected a cache miss before any instantiation was recorded")
	}

	arrayI32 := r.RegisterClass(fqn, "Array<i32>", body.Range(root))
	r.CacheInstantiation(tmplID, []types.TypeID{r.Builtins.I32}, arrayI32)

	got, ok := r.LookupInstantiation(tmplID, []types.TypeID{r.Builtins.I32})
	if !ok || got != arrayI32 {
		t.Fatalf("LookupInstantiation after caching = (%d, %v), want (%d, true)", got, ok, arrayI32)
	}

	// A second lookup with the same argument type is a cache hit — the
	// idempotence property required by §8.
	again, ok := r.LookupInstantiation(tmplID, []types.TypeID{r.Builtins.I32})
	if !ok || again != got {
		t.Fatalf("second lookup did not return the same cached instance")
	}
}

func TestTemplateArityMismatch(t *testing.T) {
	r := types.NewRegistry()
	body := ast.NewTree(4)
	root := body.New(ast.Node{Kind: ast.ClassDecl, Text: "Pair"})
	tmplID := r.RegisterTemplate("mod::Pair", "Pair", []types.TemplateParam{{Name: "A"}, {Name: "B"}}, body, root)

	if !r.ArityMismatch(tmplID, []types.TypeID{r.Builtins.I32}) {
		t.Fatalf("one argument against a two-parameter template should be an arity mismatch")
	}
	if r.ArityMismatch(tmplID, []types.TypeID{r.Builtins.I32, r.Builtins.F64}) {
		t.Fatalf("two arguments against a two-parameter template should not be an arity mismatch")
	}
}
