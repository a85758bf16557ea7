package ir

import "loom/internal/source"

// Instruction is one op-code plus up to three operands and up to two label
// slots (§4.5). Not every op uses every slot; unused operands are the zero
// Operand (OperandNone).
type Instruction struct {
	Op   Op
	A, B, C Operand
	L1, L2  LabelID
	Src     source.Span
}
