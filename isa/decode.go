package isa

import "fmt"

// destinationOperand maps an opcode to the index of the operand that acts
// as an lvalue (and therefore may not be Immediate), or -1 if none of the
// opcode's operands are ever written to.
var destinationOperand = map[Opcode]int{
	MOV: 1, ADD: 1, SUB: 1, MUL: 1, DIV: 1,
	AND: 1, OR: 1, XOR: 1,
	NOT: 0,
	SHL: 1, SHR: 1,
	CMP: -1,
	JMP: -1, JEQ: -1, JNE: -1, JGT: -1, JGE: -1, JLT: -1, JLE: -1,
	CALL: -1,
	RET:  -1,
	PUSH: -1,
	POP:  0,
	NEW:  1,
	GC:   -1,
	REF:  0, UNREF: 0,
	NATIVE:   -1,
	DEBUGCPU: -1,
	DEBUGX:   -1,
	HALT:     -1,
	NOP:      -1,
}

// Decode parses one instruction starting at image[pos]: its leading byte
// (operand count + opcode id) and its 0-2 operands. It returns the
// decoded instruction and never advances pos itself — the caller uses
// Instruction.Length to move its own instruction pointer, per spec.md §4.1.
func Decode(image []byte, pos int) (Instruction, error) {
	if pos < 0 || pos >= len(image) {
		return Instruction{}, fmt.Errorf("%w: instruction pointer %#x out of range", ErrTruncated, pos)
	}

	lead := image[pos]
	arity := int((lead & arityMask) >> arityShift)
	if arity == 0b11 {
		return Instruction{}, fmt.Errorf("%w: reserved operand-count pattern 11 at %#x", ErrDecode, pos)
	}

	op := Opcode(lead & opcodeMask)
	if _, known := descriptors[op]; !known {
		return Instruction{}, fmt.Errorf("%w: unknown opcode %#02x at %#x", ErrDecode, uint8(op), pos)
	}
	mnemonic := op.Mnemonic(arity)
	if mnemonic == "" {
		return Instruction{}, fmt.Errorf("%w: opcode %s does not take %d operand(s)", ErrDecode, op, arity)
	}

	operands := make([]Operand, 0, arity)
	cursor := pos + 1
	for i := 0; i < arity; i++ {
		operand, n, err := decodeOperand(image, cursor)
		if err != nil {
			return Instruction{}, err
		}
		operands = append(operands, operand)
		cursor += n
	}

	if destIdx, ok := destinationOperand[op]; ok && destIdx >= 0 {
		if !operands[destIdx].CanBeDestination() {
			return Instruction{}, fmt.Errorf("%w: %s cannot take an immediate as its destination operand", ErrDecode, mnemonic)
		}
	}

	return Instruction{
		Op:       op,
		Mnemonic: mnemonic,
		Operands: operands,
		Length:   cursor - pos,
	}, nil
}
