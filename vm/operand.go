package vm

import (
	"fmt"

	"github.com/lakesis-vm/lakesis/isa"
	"github.com/lakesis-vm/lakesis/word"
)

// read evaluates an operand's rvalue. StackOffset address arithmetic
// is raw 64-bit, ignoring tags. A RegisterOffset operand's base
// register must be tagged Reference (see objectID) and names a heap id;
// the offset is a byte offset into that object.
func (it *Interpreter) read(op isa.Operand) (word.Word, error) {
	switch op.Mode {
	case isa.Immediate:
		return word.Of(uint64(op.Literal)), nil

	case isa.RegisterDirect:
		return it.cpu.Register(op.Register)

	case isa.RegisterOffset:
		id, err := it.objectID(op.Register)
		if err != nil {
			return word.Zero, err
		}
		return it.heap.ReadWord(id, uint64(op.Literal))

	case isa.StackOffset:
		addr := it.cpu.SP + uint64(op.Literal)
		return it.stack.ReadWord(addr)

	default:
		return word.Zero, fmt.Errorf("vm: unknown addressing mode %v", op.Mode)
	}
}

// write stores v at an operand's lvalue. Immediates can never be
// destinations; isa.Decode already rejects this for every opcode that
// names a destination operand, but the check is repeated here as the
// same defensive guard the reference interpreter keeps in its own
// write().
func (it *Interpreter) write(op isa.Operand, v word.Word) error {
	switch op.Mode {
	case isa.Immediate:
		return fmt.Errorf("vm: immediate value can't be used as a destination")

	case isa.RegisterDirect:
		return it.cpu.SetRegister(op.Register, v)

	case isa.RegisterOffset:
		id, err := it.objectID(op.Register)
		if err != nil {
			return err
		}
		return it.heap.WriteWord(id, uint64(op.Literal), v)

	case isa.StackOffset:
		addr := it.cpu.SP + uint64(op.Literal)
		return it.stack.WriteWord(addr, v)

	default:
		return fmt.Errorf("vm: unknown addressing mode %v", op.Mode)
	}
}

// writeWithFlags writes v then sets ZF from v's value and CF to carry,
// the shared tail of every arithmetic/bitwise instruction's write_with_flags
// step in the reference implementation.
func (it *Interpreter) writeWithFlags(op isa.Operand, v word.Word, carry bool) error {
	if err := it.write(op, v); err != nil {
		return err
	}
	it.cpu.Carry = carry
	it.cpu.Zero = v.Value == 0
	return nil
}

// objectID resolves register r as a heap object id: a RegisterOffset
// operand's base register must hold a Reference-tagged word, mirroring
// original_source's expect_reference() on the base address register.
func (it *Interpreter) objectID(r uint8) (uint64, error) {
	v, err := it.cpu.Register(r)
	if err != nil {
		return 0, err
	}
	if !v.IsReference() {
		return 0, fmt.Errorf("vm: register R%d used as [Rr+v] base is not tagged Reference", r)
	}
	return v.Value, nil
}

// roots collects the current GC root set: every Reference-tagged
// register plus every Reference-tagged occupied stack slot (spec.md
// §4.5 root discovery).
func (it *Interpreter) roots() []uint64 {
	var roots []uint64
	for _, r := range it.cpu.Registers {
		if r.IsReference() {
			roots = append(roots, r.Value)
		}
	}
	return append(roots, it.stack.RootValues(it.cpu.SP)...)
}
