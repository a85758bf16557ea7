// Package scope implements the nested symbol tables the compiler uses for
// name resolution (§4.4) and the stack-bound-value bookkeeping that drives
// destructor emission at scope exit (§4.4, §9 "Stack-bound destructor
// tracking").
package scope

import (
	"loom/internal/funcreg"
	"loom/internal/types"
)

// Kind tags what a symbol refers to.
type Kind uint8

const (
	KindValue Kind = iota
	KindType
	KindFunction
	KindFunctionDef // declared but body not yet compiled (forward reference)
	KindModule
	KindModuleSlot
)

// Symbol is one entry of a Scope's name table.
type Symbol struct {
	Name string
	Kind Kind
	Type types.TypeID
	Func funcreg.ID
	// Value carries an opaque compile-time handle for KindValue symbols;
	// the compiler package defines the concrete Value type to avoid a
	// scope<->compiler import cycle.
	Value any
}

// StackBoundValue is one entry of a Scope's destructor-tracking list: a
// value constructed into stack slot AllocID, with the type whose
// destructor (if any) must run before the matching stack_free.
type StackBoundValue struct {
	AllocID uint32
	Type    types.TypeID
}

// ScopeKind tags the control-flow role of a Scope, used to find the
// nearest enclosing loop for break/continue emission.
type ScopeKind uint8

const (
	ScopeBlock ScopeKind = iota
	ScopeFunction
	ScopeLoop
)

// Scope is one nested symbol table plus its stack-bound-value list.
type Scope struct {
	Parent *Scope
	Kind   ScopeKind

	symbols []Symbol
	stack   []StackBoundValue
}

// Declare adds sym to this scope. Shadowing an outer-scope symbol of the
// same name is permitted; re-declaring within the *same* scope overwrites
// the earlier entry (last write visible, matching ordinary lexical rules).
func (s *Scope) Declare(sym Symbol) {
	for i := range s.symbols {
		if s.symbols[i].Name == sym.Name {
			s.symbols[i] = sym
			return
		}
	}
	s.symbols = append(s.symbols, sym)
}

// lookupLocal finds a symbol declared directly in this scope.
func (s *Scope) lookupLocal(name string) (*Symbol, bool) {
	for i := range s.symbols {
		if s.symbols[i].Name == name {
			return &s.symbols[i], true
		}
	}
	return nil, false
}

// BindStackValue records a newly stack-allocated value for destructor
// tracking, in declaration order (destructors run in reverse of this
// order at scope exit).
func (s *Scope) BindStackValue(v StackBoundValue) {
	s.stack = append(s.stack, v)
}

// StackValues returns this scope's bound values in declaration order.
func (s *Scope) StackValues() []StackBoundValue { return s.stack }

// TakeStackValues removes and returns this scope's bound values, leaving
// the scope's list empty (used once at scope-exit emission time).
func (s *Scope) TakeStackValues() []StackBoundValue {
	v := s.stack
	s.stack = nil
	return v
}

// Promote transfers ownership of a stack-bound value from s to its parent
// scope, per the "promotion" idiom in §4.4/§GLOSSARY: the value survives
// past s's exit and becomes the parent's responsibility to destroy.
func (s *Scope) Promote(v StackBoundValue) {
	if s.Parent == nil {
		return
	}
	for i, cur := range s.stack {
		if cur.AllocID == v.AllocID {
			s.stack = append(s.stack[:i], s.stack[i+1:]...)
			break
		}
	}
	s.Parent.BindStackValue(v)
}
