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

// candidate is one overload-resolution entrant: a declared function plus
// the explicit (user-visible) half of its argument list.
type candidate struct {
	id       funcreg.ID
	explicit []types.Argument
}

// resolveOverload implements the two-stage filter (§4.4): arity then
// isConvertibleTo narrows the field, isEqualTo narrows an ambiguous
// convertible set down to an exact match. Ties that survive both stages
// are reported as ResAmbiguousOverload with one "could be" note per
// surviving candidate.
func (c *Compiler) resolveOverload(n ast.NodeID, name string, candidates []candidate, argTypes []types.TypeID) (funcreg.ID, bool) {
	var arityOK []candidate
	for _, cd := range candidates {
		if len(cd.explicit) == len(argTypes) {
			arityOK = append(arityOK, cd)
		}
	}
	if len(arityOK) == 0 {
		c.errorf(diag.ResNoMatchingOverload, n, "no overload of %q takes %d argument(s)", name, len(argTypes))
		return funcreg.NoID, false
	}

	var convertible []candidate
	for _, cd := range arityOK {
		if c.allConvertible(cd, argTypes) {
			convertible = append(convertible, cd)
		}
	}
	if len(convertible) == 0 {
		c.errorf(diag.ResNoMatchingOverload, n, "no overload of %q accepts the given argument types", name)
		return funcreg.NoID, false
	}
	if len(convertible) == 1 {
		return convertible[0].id, true
	}

	var exact []candidate
	for _, cd := range convertible {
		if c.allEqual(cd, argTypes) {
			exact = append(exact, cd)
		}
	}
	if len(exact) == 1 {
		return exact[0].id, true
	}

	finalSet := convertible
	if len(exact) > 0 {
		finalSet = exact
	}
	d := diag.NewError(diag.ResAmbiguousOverload, c.Tree.Range(n), fmt.Sprintf("ambiguous call to %q", name))
	for _, cd := range finalSet {
		if f, ok := c.Funcs.Get(cd.id); ok {
			d = d.WithNote(f.DeclaredAt, "could be "+f.FQN)
		}
	}
	c.Diags.Add(d)
	return funcreg.NoID, false
}

func (c *Compiler) allConvertible(cd candidate, argTypes []types.TypeID) bool {
	for i, a := range cd.explicit {
		if !c.Types.IsConvertibleTo(argTypes[i], a.Type) {
			return false
		}
	}
	return true
}

func (c *Compiler) allEqual(cd candidate, argTypes []types.TypeID) bool {
	for i, a := range cd.explicit {
		if !c.Types.IsEqualTo(argTypes[i], a.Type) {
			return false
		}
	}
	return true
}

// compileArgList compiles a CallExpr/NewExpr's argument chain into typed
// operands, converting each to the matching parameter type once the
// callee is known is left to the caller (conversions happen at the
// OpParam emission site in emitCall).
func (c *Compiler) compileArgList(head ast.NodeID) ([]ir.Operand, []types.TypeID) {
	var ops []ir.Operand
	var tys []types.TypeID
	for _, a := range c.Tree.Siblings(head) {
		op := c.compileExpr(a)
		ops = append(ops, op)
		tys = append(tys, op.Type)
	}
	return ops, tys
}

// zeroPtr is the null-pointer-opaque immediate used for any implicit
// argument this compiler never gives real content to (func_ptr and
// context_ptr: closures and a cancellation-carrying execution context are
// both out of scope here — see DESIGN.md).
func (c *Compiler) zeroPtr() ir.Operand {
	return ir.ImmInt(0, c.Types.Builtins.PointerOpaque)
}

// emitCall lowers a resolved call to OpParam*/OpCall, honoring the two
// distinct argument-marshaling conventions this module's VM expects:
// a script (non-host) callee reads every Arg slot positionally over its
// full Arguments list (implicit prefix included), a host callee reads
// only its explicit arguments starting at Arg[0] (vm/hostfunc.go's
// callHost indexes ExplicitArgs() from zero). thisAddr is ignored unless
// the callee's signature actually carries an ArgThisPtr slot.
func (c *Compiler) emitCall(n ast.NodeID, calleeID funcreg.ID, thisAddr ir.Operand, explicitArgs []ir.Operand) ir.Operand {
	fn, ok := c.Funcs.Get(calleeID)
	if !ok {
		c.errorf(diag.ResIdentifierNotFound, n, "call to an undeclared function")
		return ir.Operand{}
	}
	sigType, ok := c.Types.Get(fn.Signature)
	if !ok || sigType.Function == nil {
		c.errorf(diag.ResIdentifierNotFound, n, "%q has no finalized signature", fn.Name)
		return ir.Operand{}
	}
	sig := sigType.Function
	ptr := c.Types.Builtins.PointerOpaque
	i32 := c.Types.Builtins.I32

	retPrimitive := c.isPrimitive(sig.Return) || sig.Return == c.Types.Builtins.Void
	var retAddr ir.Operand
	if !retPrimitive {
		allocID := c.code.NewAlloc()
		addrReg := c.code.NewReg()
		c.code.Append(ir.Instruction{
			Op: ir.OpStackAllocate, A: ir.Stack(allocID, sig.Return),
			B: ir.ImmInt(int64(c.sizeOf(sig.Return)), i32), C: ir.Reg(addrReg, ptr),
			Src: c.Tree.Range(n),
		})
		retAddr = ir.Reg(addrReg, sig.Return)
		c.scopes.Top().BindStackValue(scope.StackBoundValue{AllocID: uint32(allocID), Type: sig.Return})
		c.allocAddr[allocID] = ir.Reg(addrReg, ptr)
	}

	if fn.HostEntry != 0 {
		for i, a := range explicitArgs {
			c.code.Append(ir.Instruction{Op: ir.OpParam, A: a, B: ir.ImmInt(int64(i), i32)})
		}
	} else {
		k := 0
		for idx, arg := range sig.Arguments {
			var src ir.Operand
			switch arg.Kind {
			case types.ArgFuncPtr, types.ArgContextPtr:
				src = c.zeroPtr()
			case types.ArgRetPtr:
				if retPrimitive {
					src = c.zeroPtr()
				} else {
					src = retAddr
				}
			case types.ArgThisPtr:
				src = thisAddr
			default:
				if k < len(explicitArgs) {
					src = c.convertTo(explicitArgs[k], arg.Type)
				}
				k++
			}
			c.code.Append(ir.Instruction{Op: ir.OpParam, A: src, B: ir.ImmInt(int64(idx), i32), Src: c.Tree.Range(n)})
		}
	}

	if retPrimitive {
		var dst ir.Operand
		if sig.Return != c.Types.Builtins.Void {
			r := c.code.NewReg()
			dst = ir.Reg(r, sig.Return)
		}
		c.code.Append(ir.Instruction{Op: ir.OpCall, A: ir.ImmFunc(uint32(calleeID)), B: dst, Src: c.Tree.Range(n)})
		return dst
	}
	c.code.Append(ir.Instruction{Op: ir.OpCall, A: ir.ImmFunc(uint32(calleeID)), Src: c.Tree.Range(n)})
	return retAddr
}

func (c *Compiler) sizeOf(t types.TypeID) uint32 {
	tt, ok := c.Types.Get(t)
	if !ok {
		return 8
	}
	if tt.Size == 0 {
		return 8
	}
	return tt.Size
}
