package isa

import (
	"errors"
	"testing"
)

func TestDecode_NopAndHalt(t *testing.T) {
	image := []byte{0x00, 0x3F}

	in, err := Decode(image, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.Op != NOP || in.Length != 1 || in.Mnemonic != "nop" {
		t.Fatalf("got %#v", in)
	}

	in, err = Decode(image, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.Op != HALT || in.Length != 1 || in.Mnemonic != "halt" {
		t.Fatalf("got %#v", in)
	}
}

func TestDecode_MovImmediateToRegister(t *testing.T) {
	// mov 5, R1 -> two operands: immediate(5), register(1)
	image := []byte{
		byte(2<<arityShift) | byte(MOV),
		0b00_00_0_001, 5, // immediate, 1 literal byte, value 5
		0b01_01_0_000, // register mode, register 1
	}

	in, err := Decode(image, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.Op != MOV || len(in.Operands) != 2 {
		t.Fatalf("got %#v", in)
	}
	if in.Operands[0].Mode != Immediate || in.Operands[0].Literal != 5 {
		t.Fatalf("bad source operand: %#v", in.Operands[0])
	}
	if in.Operands[1].Mode != RegisterDirect || in.Operands[1].Register != 1 {
		t.Fatalf("bad destination operand: %#v", in.Operands[1])
	}
	if in.Length != len(image) {
		t.Fatalf("expected length %d, got %d", len(image), in.Length)
	}
}

func TestDecode_NegativeImmediate(t *testing.T) {
	// push -1 encoded as a single signed byte
	image := []byte{
		byte(1<<arityShift) | byte(PUSH),
		0b00_00_1_001, 1, // immediate, sign=1, 1 byte, magnitude 1
	}

	in, err := Decode(image, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.Operands[0].Literal != -1 {
		t.Fatalf("expected -1, got %d", in.Operands[0].Literal)
	}
}

func TestDecode_ReservedArityRejected(t *testing.T) {
	image := []byte{byte(0b11 << arityShift)}
	if _, err := Decode(image, 0); !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
}

func TestDecode_ImmediateDestinationRejected(t *testing.T) {
	// mov R0, 5 -- an immediate can't be the destination of a mov
	image := []byte{
		byte(2<<arityShift) | byte(MOV),
		0b01_00_0_000,    // register 0
		0b00_00_0_001, 5, // immediate 5
	}
	if _, err := Decode(image, 0); !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
}

func TestDecode_NegativeStackOffsetRejected(t *testing.T) {
	image := []byte{
		byte(1<<arityShift) | byte(PUSH),
		0b11_00_1_001, 1, // stack mode, sign=1 -- illegal
	}
	if _, err := Decode(image, 0); !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
}

func TestDecode_RegisterOffsetOperand(t *testing.T) {
	// add [R2+8], R0
	image := []byte{
		byte(2<<arityShift) | byte(ADD),
		0b10_10_0_001, 8, // [R2+8]
		0b01_00_0_000, // R0
	}

	in, err := Decode(image, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.Operands[0].Mode != RegisterOffset || in.Operands[0].Register != 2 || in.Operands[0].Literal != 8 {
		t.Fatalf("bad operand: %#v", in.Operands[0])
	}
}

func TestDecode_DebugOpcodeArityOverload(t *testing.T) {
	memDump := []byte{byte(0<<arityShift) | byte(DEBUGX)}
	in, err := Decode(memDump, 0)
	if err != nil || in.Mnemonic != "debugmem" {
		t.Fatalf("got %#v, err %v", in, err)
	}

	debugDump := []byte{
		byte(2<<arityShift) | byte(DEBUGX),
		0b00_00_0_001, 0, // addr = 0
		0b00_00_0_001, 8, // len = 8
	}
	in, err = Decode(debugDump, 0)
	if err != nil || in.Mnemonic != "debugdump" {
		t.Fatalf("got %#v, err %v", in, err)
	}
}

func TestDecode_TruncatedInstruction(t *testing.T) {
	image := []byte{byte(1<<arityShift) | byte(PUSH)}
	if _, err := Decode(image, 0); !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}

func TestDecode_UnknownOpcode(t *testing.T) {
	image := []byte{0x2E} // arity 00, opcode id 0x2E is unassigned
	if _, err := Decode(image, 0); !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
}
