package vm

import (
	"math"

	"loom/internal/ir"
)

// stepArith executes the i/u/f/d arithmetic-and-comparison families plus
// the type-agnostic bitwise/logical ops. Every one of these is a binary
// (or unary) op with A as the destination and B, C as operands.
func (vm *VM) stepArith(f *frame, instr ir.Instruction) (bool, error) {
	b := vm.readOperand(f, instr.B)
	c := vm.readOperand(f, instr.C)

	var result RegWord
	switch instr.Op {
	// Signed integer.
	case ir.OpIAdd:
		result = RegWord(uint64(int64(b) + int64(c)))
	case ir.OpISub:
		result = RegWord(uint64(int64(b) - int64(c)))
	case ir.OpIMul:
		result = RegWord(uint64(int64(b) * int64(c)))
	case ir.OpIDiv:
		if int64(c) == 0 {
			return false, &RuntimeError{Func: f.fn, IP: f.ip, Msg: "integer division by zero"}
		}
		result = RegWord(uint64(int64(b) / int64(c)))
	case ir.OpIMod:
		if int64(c) == 0 {
			return false, &RuntimeError{Func: f.fn, IP: f.ip, Msg: "integer division by zero"}
		}
		result = RegWord(uint64(int64(b) % int64(c)))
	case ir.OpIInc:
		result = RegWord(uint64(int64(b) + 1))
	case ir.OpIDec:
		result = RegWord(uint64(int64(b) - 1))
	case ir.OpINeg:
		result = RegWord(uint64(-int64(b)))
	case ir.OpILt:
		result = boolWord(int64(b) < int64(c))
	case ir.OpILte:
		result = boolWord(int64(b) <= int64(c))
	case ir.OpIGt:
		result = boolWord(int64(b) > int64(c))
	case ir.OpIGte:
		result = boolWord(int64(b) >= int64(c))
	case ir.OpIEq:
		result = boolWord(int64(b) == int64(c))
	case ir.OpINeq:
		result = boolWord(int64(b) != int64(c))

	// Unsigned integer.
	case ir.OpUAdd:
		result = RegWord(uint64(b) + uint64(c))
	case ir.OpUSub:
		result = RegWord(uint64(b) - uint64(c))
	case ir.OpUMul:
		result = RegWord(uint64(b) * uint64(c))
	case ir.OpUDiv:
		if uint64(c) == 0 {
			return false, &RuntimeError{Func: f.fn, IP: f.ip, Msg: "unsigned division by zero"}
		}
		result = RegWord(uint64(b) / uint64(c))
	case ir.OpUMod:
		if uint64(c) == 0 {
			return false, &RuntimeError{Func: f.fn, IP: f.ip, Msg: "unsigned division by zero"}
		}
		result = RegWord(uint64(b) % uint64(c))
	case ir.OpUInc:
		result = RegWord(uint64(b) + 1)
	case ir.OpUDec:
		result = RegWord(uint64(b) - 1)
	case ir.OpULt:
		result = boolWord(uint64(b) < uint64(c))
	case ir.OpULte:
		result = boolWord(uint64(b) <= uint64(c))
	case ir.OpUGt:
		result = boolWord(uint64(b) > uint64(c))
	case ir.OpUGte:
		result = boolWord(uint64(b) >= uint64(c))
	case ir.OpUEq:
		result = boolWord(uint64(b) == uint64(c))
	case ir.OpUNeq:
		result = boolWord(uint64(b) != uint64(c))

	// 32-bit float.
	case ir.OpFAdd:
		result = f32Word(asF32(b) + asF32(c))
	case ir.OpFSub:
		result = f32Word(asF32(b) - asF32(c))
	case ir.OpFMul:
		result = f32Word(asF32(b) * asF32(c))
	case ir.OpFDiv:
		result = f32Word(asF32(b) / asF32(c))
	case ir.OpFNeg:
		result = f32Word(-asF32(b))
	case ir.OpFLt:
		result = boolWord(asF32(b) < asF32(c))
	case ir.OpFLte:
		result = boolWord(asF32(b) <= asF32(c))
	case ir.OpFGt:
		result = boolWord(asF32(b) > asF32(c))
	case ir.OpFGte:
		result = boolWord(asF32(b) >= asF32(c))
	case ir.OpFEq:
		result = boolWord(asF32(b) == asF32(c))
	case ir.OpFNeq:
		result = boolWord(asF32(b) != asF32(c))

	// 64-bit double.
	case ir.OpDAdd:
		result = dWord(asF64(b) + asF64(c))
	case ir.OpDSub:
		result = dWord(asF64(b) - asF64(c))
	case ir.OpDMul:
		result = dWord(asF64(b) * asF64(c))
	case ir.OpDDiv:
		result = dWord(asF64(b) / asF64(c))
	case ir.OpDNeg:
		result = dWord(-asF64(b))
	case ir.OpDLt:
		result = boolWord(asF64(b) < asF64(c))
	case ir.OpDLte:
		result = boolWord(asF64(b) <= asF64(c))
	case ir.OpDGt:
		result = boolWord(asF64(b) > asF64(c))
	case ir.OpDGte:
		result = boolWord(asF64(b) >= asF64(c))
	case ir.OpDEq:
		result = boolWord(asF64(b) == asF64(c))
	case ir.OpDNeq:
		result = boolWord(asF64(b) != asF64(c))

	// Bitwise/logical.
	case ir.OpNot:
		result = boolWord(b == 0)
	case ir.OpInv:
		result = RegWord(^uint64(b))
	case ir.OpShl:
		result = RegWord(uint64(b) << uint(c))
	case ir.OpShr:
		result = RegWord(uint64(b) >> uint(c))
	case ir.OpLAnd:
		result = boolWord(b != 0 && c != 0)
	case ir.OpBAnd:
		result = RegWord(uint64(b) & uint64(c))
	case ir.OpLOr:
		result = boolWord(b != 0 || c != 0)
	case ir.OpBOr:
		result = RegWord(uint64(b) | uint64(c))
	case ir.OpXor:
		result = RegWord(uint64(b) ^ uint64(c))

	default:
		return false, &RuntimeError{Func: f.fn, IP: f.ip, Msg: "unhandled op-code " + instr.Op.String()}
	}

	vm.writeOperand(f, instr.A, result)
	return false, nil
}

func boolWord(v bool) RegWord {
	if v {
		return 1
	}
	return 0
}

// Floating registers and immediates always carry a float64 bit pattern
// (ir.ImmFloat encodes this way regardless of the op's f/d precision);
// the f-family narrows to float32 only for the duration of the op.
func asF32(w RegWord) float32 { return float32(math.Float64frombits(uint64(w))) }
func asF64(w RegWord) float64 { return math.Float64frombits(uint64(w)) }

func f32Word(v float32) RegWord { return RegWord(math.Float64bits(float64(v))) }
func dWord(v float64) RegWord   { return RegWord(math.Float64bits(v)) }
