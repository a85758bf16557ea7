package ir

import "fmt"

// CodeHolder is one function's ordered instruction vector plus the
// counters that hand out fresh label, register, and stack-allocation ids.
type CodeHolder struct {
	Instrs []Instruction

	nextLabel      LabelID
	nextReg        RegID
	nextStackAlloc StackAllocID

	labelDefs map[LabelID]int // label id -> index of its OpLabel instruction
}

// NewCodeHolder starts an empty function body. Label id 0 is reserved as
// NoLabel, so allocation begins at 1.
func NewCodeHolder() *CodeHolder {
	return &CodeHolder{nextLabel: 1, nextReg: 1, nextStackAlloc: 1, labelDefs: make(map[LabelID]int)}
}

// NewLabel allocates a fresh, as-yet-undefined label id.
func (c *CodeHolder) NewLabel() LabelID {
	id := c.nextLabel
	c.nextLabel++
	return id
}

// DefineLabel appends the OpLabel instruction marking id's target position.
// Each label must be defined exactly once per function (invariant 4).
func (c *CodeHolder) DefineLabel(id LabelID) {
	if _, dup := c.labelDefs[id]; dup {
		panic(fmt.Sprintf("ir: label %d defined twice", id))
	}
	c.labelDefs[id] = len(c.Instrs)
	c.Instrs = append(c.Instrs, Instruction{Op: OpLabel, L1: id})
}

// NewReg allocates a fresh virtual register.
func (c *CodeHolder) NewReg() RegID {
	id := c.nextReg
	c.nextReg++
	return id
}

// NewAlloc allocates a fresh stack-allocation id.
func (c *CodeHolder) NewAlloc() StackAllocID {
	id := c.nextStackAlloc
	c.nextStackAlloc++
	return id
}

// Append adds one instruction to the end of the code vector.
func (c *CodeHolder) Append(instr Instruction) {
	c.Instrs = append(c.Instrs, instr)
}

// AppendCode appends other's instructions to c, rewriting other's label,
// register, and stack-alloc ids by c's current counters so the two
// streams' ids never collide, per §4.5 "Appending one code block to
// another rewrites label and register ids to avoid collisions".
func (c *CodeHolder) AppendCode(other *CodeHolder) {
	labelBase := c.nextLabel - 1
	regBase := c.nextReg - 1
	allocBase := c.nextStackAlloc - 1

	for _, instr := range other.Instrs {
		rewritten := instr
		rewriteOperand(&rewritten.A, labelBase, regBase, allocBase)
		rewriteOperand(&rewritten.B, labelBase, regBase, allocBase)
		rewriteOperand(&rewritten.C, labelBase, regBase, allocBase)
		if rewritten.L1 != NoLabel {
			rewritten.L1 += labelBase
		}
		if rewritten.L2 != NoLabel {
			rewritten.L2 += labelBase
		}
		if rewritten.Op == OpLabel {
			c.labelDefs[rewritten.L1] = len(c.Instrs)
		}
		c.Instrs = append(c.Instrs, rewritten)
	}
	c.nextLabel += other.nextLabel - 1
	c.nextReg += other.nextReg - 1
	c.nextStackAlloc += other.nextStackAlloc - 1
}

func rewriteOperand(op *Operand, labelBase LabelID, regBase RegID, allocBase StackAllocID) {
	switch op.Flag {
	case OperandReg:
		op.Reg += regBase
	case OperandStack:
		op.Stack += allocBase
	}
}

// Validate checks invariant 4: every label_id referenced by a jump/branch
// is defined exactly once in this function.
func (c *CodeHolder) Validate() error {
	defined := make(map[LabelID]int)
	for _, instr := range c.Instrs {
		if instr.Op == OpLabel {
			defined[instr.L1]++
		}
	}
	for id, n := range defined {
		if n != 1 {
			return fmt.Errorf("ir: label %d defined %d times", id, n)
		}
	}
	for _, instr := range c.Instrs {
		for _, l := range [2]LabelID{instr.L1, instr.L2} {
			if l == NoLabel || instr.Op == OpLabel {
				continue
			}
			if _, ok := defined[l]; !ok {
				return fmt.Errorf("ir: label %d referenced but never defined", l)
			}
		}
	}
	return nil
}
