// Package isa defines Lakesis's instruction and operand encoding: the
// opcode table, the addressing modes, and the byte-level decoder that
// turns a program image into structured Instruction values.
//
// Grounded on _examples/original_source/src/opcodes.rs for the bit
// layout and on Peirceman-windlang/interpreter.go's byte-cursor decode
// helpers (readUint32, readBytes, expect) for the Go idiom.
package isa

import "fmt"

// Opcode is the 6-bit instruction identifier carried in the low bits of
// an instruction's leading byte.
type Opcode uint8

const (
	NOP     Opcode = 0x00
	MOV     Opcode = 0x01
	ADD     Opcode = 0x02
	SUB     Opcode = 0x03
	MUL     Opcode = 0x04
	DIV     Opcode = 0x05
	AND     Opcode = 0x06
	OR      Opcode = 0x07
	XOR     Opcode = 0x08
	NOT     Opcode = 0x09
	SHL     Opcode = 0x0A
	SHR     Opcode = 0x0B
	CMP     Opcode = 0x0C
	JMP     Opcode = 0x0D
	JEQ     Opcode = 0x0E
	JNE     Opcode = 0x0F
	JGT     Opcode = 0x10
	JGE     Opcode = 0x11
	JLT     Opcode = 0x12
	JLE     Opcode = 0x13
	CALL    Opcode = 0x14
	RET     Opcode = 0x15
	PUSH    Opcode = 0x16
	POP     Opcode = 0x17
	NEW     Opcode = 0x18
	GC      Opcode = 0x19
	REF     Opcode = 0x1A
	UNREF   Opcode = 0x1B
	NATIVE  Opcode = 0x1C
	DEBUGX  Opcode = 0x3D // DEBUGMEM (0 operands) / DEBUGDUMP (2 operands)
	DEBUGCPU Opcode = 0x3E
	HALT    Opcode = 0x3F
)

// arityShift/arityMask split an instruction's leading byte into its
// 2-bit operand count and 6-bit opcode id, per spec.md §6.
const (
	arityMask  = 0b1100_0000
	arityShift = 6
	opcodeMask = 0b0011_1111
)

// descriptor describes the mnemonic(s) and legal operand counts for one
// opcode id. Every opcode has exactly one legal arity except DEBUGX,
// which is overloaded between DEBUGMEM (0) and DEBUGDUMP (2).
type descriptor struct {
	mnemonicByArity map[int]string
}

func single(arity int, mnemonic string) descriptor {
	return descriptor{mnemonicByArity: map[int]string{arity: mnemonic}}
}

var descriptors = map[Opcode]descriptor{
	NOP:      single(0, "nop"),
	MOV:      single(2, "mov"),
	ADD:      single(2, "add"),
	SUB:      single(2, "sub"),
	MUL:      single(2, "mul"),
	DIV:      single(2, "div"),
	AND:      single(2, "and"),
	OR:       single(2, "or"),
	XOR:      single(2, "xor"),
	NOT:      single(1, "not"),
	SHL:      single(2, "shl"),
	SHR:      single(2, "shr"),
	CMP:      single(2, "cmp"),
	JMP:      single(1, "jmp"),
	JEQ:      single(1, "jeq"),
	JNE:      single(1, "jne"),
	JGT:      single(1, "jgt"),
	JGE:      single(1, "jge"),
	JLT:      single(1, "jlt"),
	JLE:      single(1, "jle"),
	CALL:     single(1, "call"),
	RET:      single(0, "ret"),
	PUSH:     single(1, "push"),
	POP:      single(1, "pop"),
	NEW:      single(2, "new"),
	GC:       single(0, "gc"),
	REF:      single(1, "ref"),
	UNREF:    single(1, "unref"),
	NATIVE:   single(1, "native"),
	DEBUGCPU: single(1, "debugcpu"),
	HALT:     single(0, "halt"),
	DEBUGX: {mnemonicByArity: map[int]string{
		0: "debugmem",
		2: "debugdump",
	}},
}

// Mnemonic returns the textual name of op when decoded with the given
// operand count, or "" if that (op, arity) pair is not defined.
func (op Opcode) Mnemonic(arity int) string {
	d, ok := descriptors[op]
	if !ok {
		return ""
	}
	return d.mnemonicByArity[arity]
}

// ValidArity reports whether op may legally be decoded with the given
// operand count.
func (op Opcode) ValidArity(arity int) bool {
	return op.Mnemonic(arity) != ""
}

func (op Opcode) String() string {
	d, ok := descriptors[op]
	if !ok {
		return fmt.Sprintf("opcode(%02X)", uint8(op))
	}
	for _, m := range d.mnemonicByArity {
		return m
	}
	return fmt.Sprintf("opcode(%02X)", uint8(op))
}
