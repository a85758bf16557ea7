package compiler

import (
	"strconv"
	"strings"

	"loom/internal/ast"
	"loom/internal/ir"
	"loom/internal/module"
	"loom/internal/types"
)

// literalType maps a Literal node's LiteralKind to its builtin TypeID.
func (c *Compiler) literalType(kind ast.LiteralKind) types.TypeID {
	b := c.Types.Builtins
	switch kind {
	case ast.LitBool:
		return b.Bool
	case ast.LitNull:
		return b.Null
	case ast.LitString, ast.LitTemplateString:
		return b.PointerOpaque
	case ast.LitI8:
		return b.I8
	case ast.LitI16:
		return b.I16
	case ast.LitI32:
		return b.I32
	case ast.LitI64:
		return b.I64
	case ast.LitU8:
		return b.U8
	case ast.LitU16:
		return b.U16
	case ast.LitU32:
		return b.U32
	case ast.LitU64:
		return b.U64
	case ast.LitF32:
		return b.F32
	case ast.LitF64:
		return b.F64
	default:
		return b.I32
	}
}

// compileLiteral lowers a Literal node directly to an Operand: numeric and
// bool/null literals become immediates; strings are interned into the
// module's data area (no runtime string object is modeled — see
// DESIGN.md) and surfaced as a module_data load.
func (c *Compiler) compileLiteral(n ast.NodeID) ir.Operand {
	node := c.node(n)
	t := c.literalType(node.LiteralKind)
	switch node.LiteralKind {
	case ast.LitBool:
		v := int64(0)
		if node.Text == "true" {
			v = 1
		}
		return ir.ImmInt(v, t)
	case ast.LitNull:
		return ir.ImmInt(0, t)
	case ast.LitString, ast.LitTemplateString:
		idx := c.Mod.AddData(module.Data{
			Name: "", Type: t, Size: uint32(len(node.Text)), Storage: []byte(node.Text), Access: types.AccessPrivate,
		})
		dst := c.code.NewReg()
		c.code.Append(ir.Instruction{Op: ir.OpModuleData, A: ir.Reg(dst, t), B: ir.ImmInt(int64(idx), c.Types.Builtins.I32), Src: node.Span})
		return ir.Reg(dst, t)
	case ast.LitF32, ast.LitF64:
		f, err := strconv.ParseFloat(node.Text, 64)
		if err != nil {
			c.errorf(0, n, "malformed float literal %q", node.Text)
			f = 0
		}
		return ir.ImmFloat(f, t)
	default:
		text := node.Text
		unsigned := strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") ||
			strings.HasPrefix(text, "0b") || strings.HasPrefix(text, "0B") ||
			strings.HasPrefix(text, "0o") || strings.HasPrefix(text, "0O")
		if unsigned {
			v, err := strconv.ParseUint(text, 0, 64)
			if err != nil {
				c.errorf(0, n, "malformed integer literal %q", text)
			}
			return ir.ImmInt(int64(v), t)
		}
		v, err := strconv.ParseInt(text, 0, 64)
		if err != nil {
			c.errorf(0, n, "malformed integer literal %q", text)
		}
		return ir.ImmInt(v, t)
	}
}

// evalConstLiteral folds initializer to an ExportedConst if it is a bare
// Literal node, without emitting any IR (pass 1 runs before a function
// body's CodeHolder exists). Anything else — a binary expression, a call,
// a `new` — isn't foldable and returns ok == false.
func (c *Compiler) evalConstLiteral(initializer ast.NodeID) (ExportedConst, bool) {
	if initializer == 0 {
		return ExportedConst{}, false
	}
	node := c.node(initializer)
	if node.Kind != ast.Literal {
		return ExportedConst{}, false
	}
	t := c.literalType(node.LiteralKind)
	switch node.LiteralKind {
	case ast.LitBool:
		v := int64(0)
		if node.Text == "true" {
			v = 1
		}
		return ExportedConst{Type: t, Int: v}, true
	case ast.LitNull:
		return ExportedConst{Type: t}, true
	case ast.LitString, ast.LitTemplateString:
		return ExportedConst{Type: t, IsBytes: true, Bytes: []byte(node.Text)}, true
	case ast.LitF32, ast.LitF64:
		f, err := strconv.ParseFloat(node.Text, 64)
		if err != nil {
			return ExportedConst{}, false
		}
		return ExportedConst{Type: t, IsFloat: true, Float: f}, true
	default:
		text := node.Text
		unsigned := strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") ||
			strings.HasPrefix(text, "0b") || strings.HasPrefix(text, "0B") ||
			strings.HasPrefix(text, "0o") || strings.HasPrefix(text, "0O")
		if unsigned {
			v, err := strconv.ParseUint(text, 0, 64)
			if err != nil {
				return ExportedConst{}, false
			}
			return ExportedConst{Type: t, Int: int64(v)}, true
		}
		v, err := strconv.ParseInt(text, 0, 64)
		if err != nil {
			return ExportedConst{}, false
		}
		return ExportedConst{Type: t, Int: v}, true
	}
}
