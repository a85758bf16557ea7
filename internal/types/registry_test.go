package types_test

import (
	"testing"

	"loom/internal/source"
	"loom/internal/types"
)

func TestTypeIDEqualsHashOfFQN(t *testing.T) {
	r := types.NewRegistry()
	classID := r.RegisterClass("mod::Point", "Point", source.Span{})
	if classID != types.HashFQN("mod::Point") {
		t.Fatalf("classID = %d, want hash(mod::Point) = %d", classID, types.HashFQN("mod::Point"))
	}
	got, ok := r.Get(classID)
	if !ok || got.FQN != "mod::Point" {
		t.Fatalf("Get(classID) = (%+v, %v)", got, ok)
	}
}

func TestRegisterClassIsIdempotentByFQN(t *testing.T) {
	r := types.NewRegistry()
	a := r.RegisterClass("mod::Box", "Box", source.Span{})
	b := r.RegisterClass("mod::Box", "Box", source.Span{})
	if a != b {
		t.Fatalf("RegisterClass called twice with same FQN returned different ids")
	}
}

func TestClassLayoutOffsetsAndSize(t *testing.T) {
	r := types.NewRegistry()
	classID := r.RegisterClass("mod::Point", "Point", source.Span{})
	r.AddProperty(classID, "x", r.Builtins.I32, types.PropReadable|types.PropWritable, types.AccessPublic)
	r.AddProperty(classID, "y", r.Builtins.I64, types.PropReadable|types.PropWritable, types.AccessPublic)

	ty, _ := r.Get(classID)
	if len(ty.Class.Properties) != 2 {
		t.Fatalf("expected 2 properties, got %d", len(ty.Class.Properties))
	}
	if ty.Class.Properties[0].Offset != 0 {
		t.Fatalf("first property offset = %d, want 0", ty.Class.Properties[0].Offset)
	}
	if ty.Class.Properties[1].Offset != 4 {
		t.Fatalf("second property offset = %d, want 4 (after i32)", ty.Class.Properties[1].Offset)
	}
	if ty.Size != 12 {
		t.Fatalf("class size = %d, want 12 (4 + 8)", ty.Size)
	}
}

func TestAddingNonPODMemberDowngradesFlags(t *testing.T) {
	r := types.NewRegistry()
	inner := r.RegisterClass("mod::Inner", "Inner", source.Span{})
	r.SetDestructor(inner, 1) // any non-zero FuncID marks a destructor, clearing trivially-destructible

	outer := r.RegisterClass("mod::Outer", "Outer", source.Span{})
	outerTy, _ := r.Get(outer)
	if !outerTy.Meta.Has(types.MetaIsPOD) {
		t.Fatalf("freshly registered class should start POD")
	}

	r.AddProperty(outer, "inner", inner, types.PropReadable, types.AccessPublic)
	outerTy, _ = r.Get(outer)
	if outerTy.Meta.Has(types.MetaIsPOD) {
		t.Fatalf("adding a non-trivially-destructible member should clear MetaIsPOD")
	}
	if outerTy.Meta.Has(types.MetaIsTriviallyDestructible) {
		t.Fatalf("adding a member with a destructor should clear MetaIsTriviallyDestructible")
	}
}

func TestGetEffectiveTypeStripsAliases(t *testing.T) {
	r := types.NewRegistry()
	aliasID := r.RegisterAlias("mod::MyInt", "MyInt", r.Builtins.I32)
	if r.GetEffectiveType(aliasID) != r.Builtins.I32 {
		t.Fatalf("GetEffectiveType(alias) did not resolve to underlying type")
	}
	if !r.IsEqualTo(aliasID, r.Builtins.I32) {
		t.Fatalf("alias should be IsEqualTo its underlying type")
	}
}

func TestFindPropertySearchesBasesAfterOwnProperties(t *testing.T) {
	r := types.NewRegistry()
	base := r.RegisterClass("mod::Base", "Base", source.Span{})
	r.AddProperty(base, "id", r.Builtins.I32, types.PropReadable, types.AccessPublic)

	derived := r.RegisterClass("mod::Derived", "Derived", source.Span{})
	r.AddBase(derived, base, types.AccessPublic)
	r.AddProperty(derived, "name", r.Builtins.I32, types.PropReadable, types.AccessPublic)

	if _, owner, ok := r.FindProperty(derived, "name"); !ok || owner != derived {
		t.Fatalf("FindProperty(derived, name) should resolve to derived itself")
	}
	if _, owner, ok := r.FindProperty(derived, "id"); !ok || owner != base {
		t.Fatalf("FindProperty(derived, id) should resolve through the base")
	}
	if _, _, ok := r.FindProperty(derived, "nope"); ok {
		t.Fatalf("FindProperty should fail for an unknown name")
	}
}

func TestFunctionTypeRegistrationIsStructurallyDeduped(t *testing.T) {
	r := types.NewRegistry()
	ft := types.FunctionType{
		Return:    r.Builtins.I32,
		Arguments: []types.Argument{{Kind: types.ArgValue, Type: r.Builtins.I32}},
	}
	a := r.RegisterFunctionType("mod::", ft)
	b := r.RegisterFunctionType("mod::", ft)
	if a != b {
		t.Fatalf("two structurally identical function types got different ids")
	}
}

func TestImplicitPrefixLenFreeVsMethod(t *testing.T) {
	free := types.FunctionType{
		Arguments: []types.Argument{
			{Kind: types.ArgFuncPtr}, {Kind: types.ArgRetPtr}, {Kind: types.ArgContextPtr},
			{Kind: types.ArgValue},
		},
	}
	if got := free.ImplicitPrefixLen(); got != 3 {
		t.Fatalf("free function ImplicitPrefixLen() = %d, want 3", got)
	}
	method := types.FunctionType{
		Arguments: []types.Argument{
			{Kind: types.ArgFuncPtr}, {Kind: types.ArgRetPtr}, {Kind: types.ArgContextPtr}, {Kind: types.ArgThisPtr},
			{Kind: types.ArgValue},
		},
	}
	if got := method.ImplicitPrefixLen(); got != 4 {
		t.Fatalf("method ImplicitPrefixLen() = %d, want 4", got)
	}
	if len(method.ExplicitArgs()) != 1 {
		t.Fatalf("ExplicitArgs() = %v, want 1 entry", method.ExplicitArgs())
	}
}

func TestIsConvertibleToPrimitives(t *testing.T) {
	r := types.NewRegistry()
	if !r.IsConvertibleTo(r.Builtins.I32, r.Builtins.F64) {
		t.Fatalf("primitive-to-primitive should always be convertible")
	}
}

func TestIsImplicitlyAssignableToRejectsCrossKind(t *testing.T) {
	r := types.NewRegistry()
	classID := r.RegisterClass("mod::Widget", "Widget", source.Span{})
	if r.IsImplicitlyAssignableTo(r.Builtins.I32, classID) {
		t.Fatalf("a primitive should not be implicitly assignable to an unrelated class")
	}
}
