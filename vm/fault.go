// Package vm ties the decoder, execution context, heap manager and
// native table together into the fetch/decode/execute loop.
//
// Grounded on _examples/original_source/src/interpreter/mod.rs's
// Interpreter::step (one big match over Instruction, combine/
// combine_with_carry helpers) and Peirceman-windlang/interpreter.go's
// Execute() switch loop.
package vm

import (
	"fmt"

	"github.com/lakesis-vm/lakesis/cpu"
	"github.com/lakesis-vm/lakesis/isa"
)

// Fault is a fatal VM condition: a decode error, a stack over/
// underflow, a division by zero, an out-of-bounds or invalid-id heap
// access, or a RET on a non-Reference return address. Fault carries
// the faulting IP, the instruction text and a copy of the register
// file (including SP) so cmd/lakesis can print it and set a non-zero
// exit code. It holds no copy of the stack's contents.
type Fault struct {
	Err   error
	IP    uint64
	Instr string
	Regs  cpu.State
}

func (f *Fault) Error() string {
	return fmt.Sprintf("lakesis: fault at IP=%#08x (%s): %v\n%s", f.IP, f.Instr, f.Err, f.Regs.String())
}

func (f *Fault) Unwrap() error { return f.Err }

func (it *Interpreter) fault(ip uint64, in isa.Instruction, err error) error {
	instr := in.String()
	if instr == "" {
		instr = "?"
	}
	return &Fault{Err: err, IP: ip, Instr: instr, Regs: it.cpu}
}
