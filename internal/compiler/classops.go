package compiler

import (
	"fmt"

	"loom/internal/ast"
	"loom/internal/diag"
	"loom/internal/funcreg"
	"loom/internal/ir"
	"loom/internal/scope"
	"loom/internal/types"
)

// constructObject runs construction for a freshly allocated dest (§4.4
// constructObject(dest, T, args)): a single-argument construction of a
// primitive is a plain store; a class searches its T::constructor
// overloads by the same two-stage filter as an ordinary call, with its
// own diagnostic codes (ambiguous/no-matching-constructor) and private-
// constructor visibility limited to the class's own methods.
func (c *Compiler) constructObject(n ast.NodeID, dest ir.Operand, classID types.TypeID, args []ir.Operand) {
	if c.isPrimitive(classID) {
		if len(args) == 1 {
			v := c.convertTo(args[0], classID)
			c.code.Append(ir.Instruction{Op: ir.OpResolve, A: dest, B: v, Src: c.Tree.Range(n)})
		}
		return
	}

	className := c.mustClassName(classID)
	overloads := c.Types.FindMethodOverloads(classID, "constructor")
	var argTypes []types.TypeID
	for _, a := range args {
		argTypes = append(argTypes, a.Type)
	}

	var cands []candidate
	for _, m := range overloads {
		fn, ok := c.Funcs.Get(funcreg.ID(m.Func))
		if !ok {
			continue
		}
		sigT, ok := c.Types.Get(fn.Signature)
		if !ok || sigT.Function == nil {
			continue
		}
		cands = append(cands, candidate{id: funcreg.ID(m.Func), explicit: sigT.Function.ExplicitArgs()})
	}
	if len(cands) == 0 {
		if len(args) == 0 {
			return // trivial default construction: nothing to run
		}
		c.errorf(diag.ResNoMatchingConstructor, n, "class %q has no matching constructor", className)
		return
	}

	var arityOK []candidate
	for _, cd := range cands {
		if len(cd.explicit) == len(argTypes) {
			arityOK = append(arityOK, cd)
		}
	}
	if len(arityOK) == 0 {
		c.errorf(diag.ResNoMatchingConstructor, n, "class %q has no constructor taking %d argument(s)", className, len(argTypes))
		return
	}
	var convertible []candidate
	for _, cd := range arityOK {
		if c.allConvertible(cd, argTypes) {
			convertible = append(convertible, cd)
		}
	}
	if len(convertible) == 0 {
		c.errorf(diag.ResNoMatchingConstructor, n, "no constructor of %q accepts the given argument types", className)
		return
	}

	chosen := convertible[0].id
	if len(convertible) > 1 {
		var exact []candidate
		for _, cd := range convertible {
			if c.allEqual(cd, argTypes) {
				exact = append(exact, cd)
			}
		}
		if len(exact) == 1 {
			chosen = exact[0].id
		} else {
			finalSet := convertible
			if len(exact) > 0 {
				finalSet = exact
			}
			d := diag.NewError(diag.ResAmbiguousConstructor, c.Tree.Range(n), fmt.Sprintf("ambiguous constructor for %q", className))
			for _, cd := range finalSet {
				if f, ok := c.Funcs.Get(cd.id); ok {
					d = d.WithNote(f.DeclaredAt, "could be "+f.FQN)
				}
			}
			c.Diags.Add(d)
			return
		}
	}

	for _, m := range overloads {
		if funcreg.ID(m.Func) == chosen && m.Access == types.AccessPrivate && c.curClass != classID {
			c.errorf(diag.ResPrivateAccess, n, "constructor of %q is private", className)
		}
	}
	c.emitCall(n, chosen, dest, args)
}

// emitScopeExit emits, in reverse declaration order, a destructor call
// (when the value's type has one) followed by stack_free for every value
// s bound during its lifetime. take decides whether the scope's list is
// consumed (the scope's own textual close) or only peeked (an early
// break/continue/return jump through a still-live scope, per §4.4
// "inward-to-outward": the scope's normal close-time emission is a
// separate, later instruction sequence on the fallthrough path, and only
// one of the two paths ever executes at runtime).
func (c *Compiler) emitScopeExit(s *scope.Scope, n ast.NodeID, take bool) {
	var vals []scope.StackBoundValue
	if take {
		vals = s.TakeStackValues()
	} else {
		vals = s.StackValues()
	}
	for i := len(vals) - 1; i >= 0; i-- {
		v := vals[i]
		c.emitDestructorCall(v, n)
		c.code.Append(ir.Instruction{Op: ir.OpStackFree, A: ir.Stack(ir.StackAllocID(v.AllocID), v.Type), Src: c.Tree.Range(n)})
	}
}

// emitExitSequence walks scopes innermost-first (as returned by
// scope.Manager.ScopesUpTo) emitting each one's exit sequence. Every scope
// in the walk, the target (the loop or function body being exited to)
// included, uses the non-destructive peek; each scope's own textual close
// still emits its sequence separately on the fallthrough path.
func (c *Compiler) emitExitSequence(scopes []*scope.Scope, n ast.NodeID) {
	for _, s := range scopes {
		c.emitScopeExit(s, n, false)
	}
}

// emitCopyObject copies t's representation from src to dst field by field
// (bases first, then own properties, recursing into any non-primitive
// member), the only form of by-value object copy this compiler models —
// there is no user-definable copy constructor, so a return or a by-value
// argument always degrades to this shallow copy.
func (c *Compiler) emitCopyObject(dst, src ir.Operand, t types.TypeID, n ast.NodeID) {
	if c.isPrimitive(t) {
		i32 := c.Types.Builtins.I32
		v := c.newReg(t)
		c.code.Append(ir.Instruction{Op: ir.OpLoad, A: v, B: src, C: ir.ImmInt(0, i32), Src: c.Tree.Range(n)})
		c.code.Append(ir.Instruction{Op: ir.OpStore, A: dst, B: ir.ImmInt(0, i32), C: v, Src: c.Tree.Range(n)})
		return
	}
	tt, ok := c.Types.Get(t)
	if !ok || tt.Class == nil {
		return
	}
	for _, b := range tt.Class.Bases {
		c.emitCopyObject(c.addrAdd(dst, b.Offset, b.Type), c.addrAdd(src, b.Offset, b.Type), b.Type, n)
	}
	for _, p := range tt.Class.Properties {
		c.emitCopyObject(c.addrAdd(dst, p.Offset, p.Type), c.addrAdd(src, p.Offset, p.Type), p.Type, n)
	}
}

func (c *Compiler) emitDestructorCall(v scope.StackBoundValue, n ast.NodeID) {
	if c.isPrimitive(v.Type) {
		return
	}
	t, ok := c.Types.Get(v.Type)
	if !ok || t.Class == nil || t.Class.Destructor == types.NoFuncID {
		return
	}
	addr, ok := c.allocAddr[ir.StackAllocID(v.AllocID)]
	if !ok {
		return
	}
	c.emitCall(n, funcreg.ID(t.Class.Destructor), addr, nil)
}
