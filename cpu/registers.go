// Package cpu holds the interpreter's architectural state: the four
// general registers, the stack pointer, the two condition flags, the
// instruction pointer, and the typed stack region itself.
//
// Grounded on _examples/original_source/src/interpreter/mod.rs's
// CpuState (registers/stack_pointer/instruction_pointer/carry_flag/
// zero_flag) and push_stack/pop_stack, adapted to Peirceman-windlang's
// plain-struct-with-slice-field style (Interpreter.Stack []byte).
package cpu

import (
	"fmt"

	"github.com/lakesis-vm/lakesis/word"
)

// RegisterCount is the number of general-purpose registers, R0-R3.
const RegisterCount = 4

// WordSize is the width in bytes of every register, stack slot, and
// heap word (spec.md §2).
const WordSize = 8

// State is the CPU's architectural register file: R0-R3, SP, IP, and
// the ZF/CF condition flags. It does not itself hold the stack's
// backing bytes; see Stack for that.
type State struct {
	Registers [RegisterCount]word.Word
	SP        uint64
	IP        uint64
	Zero      bool
	Carry     bool
}

// Register returns the value of register r, or an error if r is out
// of range (only reachable if a caller bypasses isa.Decode's own
// register-range validation).
func (s *State) Register(r uint8) (word.Word, error) {
	if int(r) >= RegisterCount {
		return word.Zero, fmt.Errorf("register R%d out of range", r)
	}
	return s.Registers[r], nil
}

// SetRegister writes v into register r.
func (s *State) SetRegister(r uint8, v word.Word) error {
	if int(r) >= RegisterCount {
		return fmt.Errorf("register R%d out of range", r)
	}
	s.Registers[r] = v
	return nil
}

func (s *State) String() string {
	out := ""
	for i, r := range s.Registers {
		out += fmt.Sprintf("R%d=%s ", i, r)
	}
	out += fmt.Sprintf("IP=%016X SP=%016X ", s.IP, s.SP)
	if s.Carry {
		out += "CF "
	} else {
		out += "cf "
	}
	if s.Zero {
		out += "ZF"
	} else {
		out += "zf"
	}
	return out
}
