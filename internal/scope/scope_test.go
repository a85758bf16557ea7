package scope_test

import (
	"testing"

	"loom/internal/scope"
	"loom/internal/types"
)

func TestLookupWalksOuterScopesAndRespectsShadowing(t *testing.T) {
	m := scope.NewManager()
	m.Declare(scope.Symbol{Name: "x", Kind: scope.KindValue, Type: types.TypeID(1)})

	m.Push(scope.ScopeBlock)
	m.Declare(scope.Symbol{Name: "x", Kind: scope.KindValue, Type: types.TypeID(2)})

	sym, _, ok := m.Lookup("x")
	if !ok || sym.Type != types.TypeID(2) {
		t.Fatalf("Lookup(x) in inner scope = (%+v, %v), want the shadowing declaration", sym, ok)
	}

	m.Pop()
	sym, _, ok = m.Lookup("x")
	if !ok || sym.Type != types.TypeID(1) {
		t.Fatalf("Lookup(x) after Pop = (%+v, %v), want the outer declaration", sym, ok)
	}
}

func TestLookupMissReportsFalse(t *testing.T) {
	m := scope.NewManager()
	if _, _, ok := m.Lookup("nope"); ok {
		t.Fatalf("Lookup of an undeclared name should report false")
	}
}

func TestEnclosingLoopFindsNearestLoopScope(t *testing.T) {
	m := scope.NewManager()
	m.Push(scope.ScopeLoop)
	m.Push(scope.ScopeBlock)
	m.Push(scope.ScopeBlock)

	loop := m.EnclosingLoop()
	if loop == nil || loop.Kind != scope.ScopeLoop {
		t.Fatalf("EnclosingLoop() = %+v, want the pushed loop scope", loop)
	}
}

func TestEnclosingLoopNilWhenNotInALoop(t *testing.T) {
	m := scope.NewManager()
	m.Push(scope.ScopeBlock)
	if m.EnclosingLoop() != nil {
		t.Fatalf("EnclosingLoop() should be nil outside any loop")
	}
}

func TestScopesUpToOrdersInnermostFirst(t *testing.T) {
	m := scope.NewManager()
	loopScope := m.Push(scope.ScopeLoop)
	ifScope := m.Push(scope.ScopeBlock)

	scopes := m.ScopesUpTo(loopScope)
	if len(scopes) != 2 {
		t.Fatalf("ScopesUpTo returned %d scopes, want 2", len(scopes))
	}
	if scopes[0] != ifScope || scopes[1] != loopScope {
		t.Fatalf("ScopesUpTo order wrong: got [%p %p], want [if=%p loop=%p]", scopes[0], scopes[1], ifScope, loopScope)
	}
}

func TestStackBoundValueLifecycle(t *testing.T) {
	m := scope.NewManager()
	s := m.Top()
	s.BindStackValue(scope.StackBoundValue{AllocID: 1, Type: types.TypeID(10)})
	s.BindStackValue(scope.StackBoundValue{AllocID: 2, Type: types.TypeID(20)})

	if got := s.StackValues(); len(got) != 2 {
		t.Fatalf("StackValues() = %v, want 2 entries", got)
	}

	taken := s.TakeStackValues()
	if len(taken) != 2 {
		t.Fatalf("TakeStackValues() = %v, want 2 entries", taken)
	}
	if len(s.StackValues()) != 0 {
		t.Fatalf("scope's stack list should be empty after TakeStackValues")
	}
}

func TestPromoteMovesValueToParentScope(t *testing.T) {
	m := scope.NewManager()
	parent := m.Top()
	child := m.Push(scope.ScopeBlock)
	v := scope.StackBoundValue{AllocID: 5, Type: types.TypeID(1)}
	child.BindStackValue(v)

	child.Promote(v)

	if len(child.StackValues()) != 0 {
		t.Fatalf("Promote should remove the value from the child scope")
	}
	parentVals := parent.StackValues()
	if len(parentVals) != 1 || parentVals[0].AllocID != 5 {
		t.Fatalf("Promote should add the value to the parent scope, got %v", parentVals)
	}
}
