package diagfmt

import (
	"fmt"
	"io"

	"loom/internal/funcreg"
	"loom/internal/ir"
	"loom/internal/module"
)

// DumpModule writes every function owned by mod as a labeled instruction
// listing: one function header per funcreg entry, one line per
// instruction with its operands rendered in assembly-ish A, B, C order.
func DumpModule(w io.Writer, mod *module.Module, freg *funcreg.Registry) {
	for _, id := range mod.Functions {
		if id == funcreg.NoID {
			continue
		}
		fn, ok := freg.Get(id)
		if !ok {
			continue
		}
		code, ok := mod.Code[id]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "func %s (id=%d):\n", fn.FQN, id)
		dumpCode(w, code)
		fmt.Fprintln(w)
	}
}

func dumpCode(w io.Writer, code *ir.CodeHolder) {
	for i, instr := range code.Instrs {
		fmt.Fprintf(w, "  %4d: %-12s", i, instr.Op)
		for _, op := range []ir.Operand{instr.A, instr.B, instr.C} {
			if op.Flag == ir.OperandNone {
				continue
			}
			fmt.Fprintf(w, " %s", formatOperand(op))
		}
		if instr.L1 != ir.NoLabel {
			fmt.Fprintf(w, " L1=%d", instr.L1)
		}
		if instr.L2 != ir.NoLabel {
			fmt.Fprintf(w, " L2=%d", instr.L2)
		}
		fmt.Fprintln(w)
	}
}

func formatOperand(op ir.Operand) string {
	switch op.Flag {
	case ir.OperandReg:
		return fmt.Sprintf("r%d", op.Reg)
	case ir.OperandStack:
		return fmt.Sprintf("s%d", op.Stack)
	case ir.OperandImm:
		return fmt.Sprintf("#%d", op.Imm)
	case ir.OperandFunc:
		return fmt.Sprintf("@%d", op.Func)
	default:
		return "-"
	}
}
