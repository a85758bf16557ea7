// Package ir implements the three-address intermediate representation:
// typed virtual-register instructions with explicit stack allocations,
// labels, branches, calls, and per-instruction source mapping (§4.5).
package ir

// Op is an instruction op-code. Arithmetic/comparison ops come in
// signed/unsigned/float/double variants, named with the i/u/f/d prefix
// convention from §4.5.
type Op uint16

const (
	OpNoop Op = iota

	// Memory.
	OpLabel
	OpStackAllocate
	OpStackFree
	OpModuleData
	OpLoad
	OpStore

	// Movement.
	OpReserve
	OpResolve
	OpCvt

	// Control.
	OpJump
	OpBranch
	OpCall
	OpParam
	OpRet
	OpTerm

	// Arithmetic/logic — integer.
	OpIAdd
	OpISub
	OpIMul
	OpIDiv
	OpIMod
	OpIInc
	OpIDec
	OpINeg
	OpILt
	OpILte
	OpIGt
	OpIGte
	OpIEq
	OpINeq

	// Arithmetic/logic — unsigned.
	OpUAdd
	OpUSub
	OpUMul
	OpUDiv
	OpUMod
	OpUInc
	OpUDec
	OpULt
	OpULte
	OpUGt
	OpUGte
	OpUEq
	OpUNeq

	// Arithmetic/logic — float (32-bit).
	OpFAdd
	OpFSub
	OpFMul
	OpFDiv
	OpFNeg
	OpFLt
	OpFLte
	OpFGt
	OpFGte
	OpFEq
	OpFNeq

	// Arithmetic/logic — double (64-bit float).
	OpDAdd
	OpDSub
	OpDMul
	OpDDiv
	OpDNeg
	OpDLt
	OpDLte
	OpDGt
	OpDGte
	OpDEq
	OpDNeq

	// Bitwise/logical (type-agnostic at the bit level).
	OpNot
	OpInv
	OpShl
	OpShr
	OpLAnd
	OpBAnd
	OpLOr
	OpBOr
	OpXor
)

var opNames = map[Op]string{
	OpNoop: "noop", OpLabel: "label", OpStackAllocate: "stack_allocate",
	OpStackFree: "stack_free", OpModuleData: "module_data", OpLoad: "load", OpStore: "store",
	OpReserve: "reserve", OpResolve: "resolve", OpCvt: "cvt",
	OpJump: "jump", OpBranch: "branch", OpCall: "call", OpParam: "param", OpRet: "ret", OpTerm: "term",
	OpIAdd: "iadd", OpISub: "isub", OpIMul: "imul", OpIDiv: "idiv", OpIMod: "imod",
	OpIInc: "iinc", OpIDec: "idec", OpINeg: "ineg",
	OpILt: "ilt", OpILte: "ilte", OpIGt: "igt", OpIGte: "igte", OpIEq: "ieq", OpINeq: "ineq",
	OpUAdd: "uadd", OpUSub: "usub", OpUMul: "umul", OpUDiv: "udiv", OpUMod: "umod",
	OpUInc: "uinc", OpUDec: "udec",
	OpULt: "ult", OpULte: "ulte", OpUGt: "ugt", OpUGte: "ugte", OpUEq: "ueq", OpUNeq: "uneq",
	OpFAdd: "fadd", OpFSub: "fsub", OpFMul: "fmul", OpFDiv: "fdiv", OpFNeg: "fneg",
	OpFLt: "flt", OpFLte: "flte", OpFGt: "fgt", OpFGte: "fgte", OpFEq: "feq", OpFNeq: "fneq",
	OpDAdd: "dadd", OpDSub: "dsub", OpDMul: "dmul", OpDDiv: "ddiv", OpDNeg: "dneg",
	OpDLt: "dlt", OpDLte: "dlte", OpDGt: "dgt", OpDGte: "dgte", OpDEq: "deq", OpDNeq: "dneq",
	OpNot: "not", OpInv: "inv", OpShl: "shl", OpShr: "shr",
	OpLAnd: "land", OpBAnd: "band", OpLOr: "lor", OpBOr: "bor", OpXor: "xor",
}

func (o Op) String() string {
	if n, ok := opNames[o]; ok {
		return n
	}
	return "op?"
}
