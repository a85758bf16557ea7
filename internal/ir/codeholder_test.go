package ir_test

import (
	"testing"

	"loom/internal/ir"
	"loom/internal/types"
)

func TestNewCodeHolderStartsCountersAtOne(t *testing.T) {
	c := ir.NewCodeHolder()
	if got := c.NewLabel(); got != 1 {
		t.Fatalf("first NewLabel() = %d, want 1 (0 is reserved as NoLabel)", got)
	}
	if got := c.NewReg(); got != 1 {
		t.Fatalf("first NewReg() = %d, want 1", got)
	}
	if got := c.NewAlloc(); got != 1 {
		t.Fatalf("first NewAlloc() = %d, want 1", got)
	}
}

func TestValidateDetectsUndefinedLabel(t *testing.T) {
	c := ir.NewCodeHolder()
	l := c.NewLabel()
	c.Append(ir.Instruction{Op: ir.OpJump, L1: l})
	if err := c.Validate(); err == nil {
		t.Fatalf("Validate() should fail: label %d is referenced but never defined", l)
	}
}

func TestValidatePassesForWellFormedCode(t *testing.T) {
	c := ir.NewCodeHolder()
	l := c.NewLabel()
	c.Append(ir.Instruction{Op: ir.OpJump, L1: l})
	c.DefineLabel(l)
	c.Append(ir.Instruction{Op: ir.OpTerm})
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestDefineLabelPanicsOnDuplicateDefinition(t *testing.T) {
	c := ir.NewCodeHolder()
	l := c.NewLabel()
	c.DefineLabel(l)
	defer func() {
		if recover() == nil {
			t.Fatalf("DefineLabel called twice for the same label should panic")
		}
	}()
	c.DefineLabel(l)
}

func TestAppendCodeRewritesIDsToAvoidCollisions(t *testing.T) {
	base := ir.NewCodeHolder()
	baseReg := base.NewReg() // reg 1
	base.Append(ir.Instruction{Op: ir.OpIAdd, A: ir.Reg(baseReg, types.TypeID(1)), B: ir.ImmInt(1, types.TypeID(1)), C: ir.ImmInt(2, types.TypeID(1))})

	other := ir.NewCodeHolder()
	otherReg := other.NewReg() // reg 1 in its own numbering
	otherLabel := other.NewLabel()
	other.Append(ir.Instruction{Op: ir.OpJump, L1: otherLabel})
	other.DefineLabel(otherLabel)
	other.Append(ir.Instruction{Op: ir.OpIMul, A: ir.Reg(otherReg, types.TypeID(1)), B: ir.ImmInt(3, types.TypeID(1)), C: ir.ImmInt(4, types.TypeID(1))})

	base.AppendCode(other)

	if err := base.Validate(); err != nil {
		t.Fatalf("Validate() after AppendCode = %v, want nil", err)
	}

	// The appended instruction referencing "reg 1" in its own stream must
	// have been rewritten to a register distinct from baseReg, since base
	// already used register 1 for its own purposes.
	var sawRewrittenMul bool
	for _, instr := range base.Instrs {
		if instr.Op == ir.OpIMul && instr.A.Reg != baseReg {
			sawRewrittenMul = true
		}
	}
	if !sawRewrittenMul {
		t.Fatalf("AppendCode did not rewrite the appended register id away from a colliding value")
	}
}

func TestOperandConstructors(t *testing.T) {
	reg := ir.Reg(3, types.TypeID(5))
	if reg.Flag != ir.OperandReg || reg.Reg != 3 || reg.Type != types.TypeID(5) {
		t.Fatalf("Reg() = %+v", reg)
	}
	imm := ir.ImmInt(-7, types.TypeID(1))
	if imm.Flag != ir.OperandImm || int64(imm.Imm) != -7 {
		t.Fatalf("ImmInt(-7) = %+v", imm)
	}
	f := ir.ImmFloat(3.5, types.TypeID(2))
	if f.Flag != ir.OperandImm {
		t.Fatalf("ImmFloat flag = %v, want OperandImm", f.Flag)
	}
}

func TestOpStringKnownAndUnknown(t *testing.T) {
	if ir.OpIAdd.String() != "iadd" {
		t.Fatalf("OpIAdd.String() = %q, want iadd", ir.OpIAdd.String())
	}
	var unknown ir.Op = 9999
	if unknown.String() != "op?" {
		t.Fatalf("unknown Op.String() = %q, want op?", unknown.String())
	}
}
