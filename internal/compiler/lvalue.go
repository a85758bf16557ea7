package compiler

import (
	"loom/internal/ast"
	"loom/internal/diag"
	"loom/internal/ir"
	"loom/internal/scope"
	"loom/internal/types"
)

// lvalue abstracts "a place a value can be read from and written to" so
// assignment, compound assignment, and prefix/postfix inc/dec share one
// resolution path instead of three near-duplicate switches over NodeKind.
type lvalue struct {
	typ types.TypeID
	get func() ir.Operand
	set func(v ir.Operand)
}

// resolveLValue resolves n to an assignable place. Only identifiers and
// (primitive-valued) member accesses are assignable; indexing and
// non-primitive member reassignment are not modeled (array types and
// value-semantics copy-assignment are both out of scope — see DESIGN.md).
func (c *Compiler) resolveLValue(n ast.NodeID) (lvalue, bool) {
	node := c.node(n)
	switch node.Kind {
	case ast.Identifier:
		return c.identifierLValue(n, node.Text)
	case ast.MemberExpr:
		return c.memberLValue(n)
	default:
		c.errorf(diag.ResWrongSymbolKind, n, "expression is not assignable")
		return lvalue{}, false
	}
}

func (c *Compiler) identifierLValue(n ast.NodeID, name string) (lvalue, bool) {
	sym, _, ok := c.scopes.Lookup(name)
	if !ok {
		c.errorf(diag.ResIdentifierNotFound, n, "undeclared identifier %q", name)
		return lvalue{}, false
	}
	if sym.Kind != scope.KindValue {
		c.errorf(diag.ResWrongSymbolKind, n, "%q is not a value", name)
		return lvalue{}, false
	}
	lv, _ := sym.Value.(localValue)
	typ := sym.Type
	reg := lv.reg
	return lvalue{
		typ: typ,
		get: func() ir.Operand { return ir.Reg(reg, typ) },
		set: func(v ir.Operand) {
			if lv.isConst {
				c.errorf(diag.ResWrongSymbolKind, n, "cannot assign to const %q", name)
				return
			}
			c.code.Append(ir.Instruction{Op: ir.OpResolve, A: ir.Reg(reg, typ), B: v, Src: c.Tree.Range(n)})
		},
	}, true
}

func (c *Compiler) memberLValue(n ast.NodeID) (lvalue, bool) {
	node := c.node(n)
	if base := c.node(node.LValue); base.Kind == ast.Identifier {
		if sym, _, ok := c.scopes.Lookup(base.Text); ok && sym.Kind == scope.KindModule {
			return c.moduleMemberLValue(n, sym)
		}
	}
	objOp := c.compileExpr(node.LValue)
	objType := c.Types.GetEffectiveType(objOp.Type)
	name := c.node(node.RValue).Text

	prop, owner, ok := c.Types.FindProperty(objType, name)
	if !ok {
		c.errorf(diag.ResIdentifierNotFound, n, "no property %q", name)
		return lvalue{}, false
	}
	if prop.Access == types.AccessPrivate && c.curClass != owner {
		c.errorf(diag.ResPrivateAccess, n, "%q is private", name)
	}
	offset := prop.Offset
	typ := prop.Type
	i32 := c.Types.Builtins.I32
	primitive := c.isPrimitive(typ)
	if !primitive {
		c.errorf(diag.ResWrongSymbolKind, n, "reassigning a non-primitive member is not supported")
	}
	return lvalue{
		typ: typ,
		get: func() ir.Operand {
			if !primitive {
				// A non-primitive member is addressed, not copied: its
				// "value" for our purposes is objAddr + offset (§4.8's
				// by-reference convention, mirrored at compile time).
				return c.addrAdd(objOp, offset, typ)
			}
			dst := c.newReg(typ)
			c.code.Append(ir.Instruction{Op: ir.OpLoad, A: dst, B: objOp, C: ir.ImmInt(int64(offset), i32), Src: c.Tree.Range(n)})
			return dst
		},
		set: func(v ir.Operand) {
			c.code.Append(ir.Instruction{Op: ir.OpStore, A: objOp, B: ir.ImmInt(int64(offset), i32), C: v, Src: c.Tree.Range(n)})
		},
	}, true
}
