package isa

import "strings"

// Instruction is one fully decoded opcode plus its operands, along with
// the number of image bytes it occupied (so the interpreter can advance
// IP without re-deriving the encoding).
type Instruction struct {
	Op       Opcode
	Mnemonic string
	Operands []Operand
	Length   int
}

func (in Instruction) String() string {
	if len(in.Operands) == 0 {
		return in.Mnemonic
	}
	parts := make([]string, len(in.Operands))
	for i, o := range in.Operands {
		parts[i] = o.String()
	}
	return in.Mnemonic + " " + strings.Join(parts, ", ")
}
