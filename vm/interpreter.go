package vm

import (
	"fmt"
	"io"

	"github.com/lakesis-vm/lakesis/config"
	"github.com/lakesis-vm/lakesis/cpu"
	"github.com/lakesis-vm/lakesis/diag"
	"github.com/lakesis-vm/lakesis/heap"
	"github.com/lakesis-vm/lakesis/isa"
	"github.com/lakesis-vm/lakesis/native"
	"github.com/lakesis-vm/lakesis/word"
)

// Interpreter is one running Lakesis program: its image, execution
// context, heap and native table. It is not safe for concurrent use —
// spec.md §5 makes the VM strictly single-threaded and cooperative.
type Interpreter struct {
	image   []byte
	cpu     cpu.State
	stack   *cpu.Stack
	heap    *heap.Manager
	natives *native.Table
	log     *diag.Logger
	halted  bool
}

// New constructs an Interpreter over a loaded executable image. The
// stack pointer starts at the top of a freshly allocated stack region
// (spec.md §3: "at boot, every stack slot is Data").
func New(image []byte, cfg config.Config, out io.Writer, log *diag.Logger) *Interpreter {
	st := cpu.NewStack(cfg.StackSize)
	it := &Interpreter{
		image:   image,
		stack:   st,
		heap:    heap.NewManager(cfg.Heap.InitialSize, cfg.Heap.MaxSize, log),
		natives: native.NewTable(out, cfg.Native),
		log:     log,
	}
	it.cpu.SP = st.Top()
	return it
}

// Halted reports whether the program has executed HALT.
func (it *Interpreter) Halted() bool { return it.halted }

// CPU exposes the register/flag/IP state for diagnostics (cmd/lakesis
// prints it on a clean HALT as well as on fault).
func (it *Interpreter) CPU() cpu.State { return it.cpu }

// Run executes instructions until HALT or a fault.
func (it *Interpreter) Run() error {
	for !it.halted {
		if err := it.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Step fetches, decodes and executes exactly one instruction.
func (it *Interpreter) Step() error {
	ip := it.cpu.IP
	in, err := isa.Decode(it.image, int(ip))
	if err != nil {
		return it.fault(ip, isa.Instruction{}, err)
	}

	it.cpu.IP = ip + uint64(in.Length)

	if err := it.execute(in); err != nil {
		return it.fault(ip, in, err)
	}
	return nil
}

func (it *Interpreter) execute(in isa.Instruction) error {
	switch in.Op {
	case isa.NOP:
		return nil

	case isa.MOV:
		v, err := it.read(in.Operands[0])
		if err != nil {
			return err
		}
		return it.write(in.Operands[1], v)

	case isa.ADD:
		return it.combine(in, addCarry)

	case isa.SUB:
		return it.combine(in, func(src, dst uint64) (uint64, bool) { return subNoUnderflow(dst, src) })

	case isa.MUL:
		return it.combine(in, mulCarry)

	case isa.DIV:
		return it.divide(in)

	case isa.AND:
		return it.combine(in, func(a, b uint64) (uint64, bool) { return a & b, false })
	case isa.OR:
		return it.combine(in, func(a, b uint64) (uint64, bool) { return a | b, false })
	case isa.XOR:
		return it.combine(in, func(a, b uint64) (uint64, bool) { return a ^ b, false })

	case isa.NOT:
		v, err := it.read(in.Operands[0])
		if err != nil {
			return err
		}
		return it.writeWithFlags(in.Operands[0], word.Word{Value: ^v.Value, Tag: v.Tag}, false)

	case isa.SHL:
		return it.shift(in, shiftLeftCarry)
	case isa.SHR:
		return it.shift(in, shiftRightCarry)

	case isa.CMP:
		a, err := it.read(in.Operands[0])
		if err != nil {
			return err
		}
		b, err := it.read(in.Operands[1])
		if err != nil {
			return err
		}
		it.cpu.Zero = a.Value == b.Value
		it.cpu.Carry = a.Value >= b.Value
		return nil

	case isa.JMP:
		return it.jumpIf(true, in.Operands[0])
	case isa.JEQ:
		return it.jumpIf(it.cpu.Zero, in.Operands[0])
	case isa.JNE:
		return it.jumpIf(!it.cpu.Zero, in.Operands[0])
	case isa.JGT:
		return it.jumpIf(!it.cpu.Zero && it.cpu.Carry, in.Operands[0])
	case isa.JGE:
		return it.jumpIf(it.cpu.Carry, in.Operands[0])
	case isa.JLT:
		return it.jumpIf(!it.cpu.Carry, in.Operands[0])
	case isa.JLE:
		return it.jumpIf(it.cpu.Zero || !it.cpu.Carry, in.Operands[0])

	case isa.CALL:
		addr, err := it.read(in.Operands[0])
		if err != nil {
			return err
		}
		if err := it.stack.Push(&it.cpu.SP, word.Ref(it.cpu.IP)); err != nil {
			return err
		}
		it.cpu.IP = addr.Value
		return nil

	case isa.RET:
		v, err := it.stack.Pop(&it.cpu.SP)
		if err != nil {
			return err
		}
		if !v.IsReference() {
			return fmt.Errorf("vm: RET popped a non-reference return address")
		}
		it.cpu.IP = v.Value
		return nil

	case isa.PUSH:
		v, err := it.read(in.Operands[0])
		if err != nil {
			return err
		}
		return it.stack.Push(&it.cpu.SP, v)

	case isa.POP:
		v, err := it.stack.Pop(&it.cpu.SP)
		if err != nil {
			return err
		}
		return it.write(in.Operands[0], v)

	case isa.NEW:
		size, err := it.read(in.Operands[0])
		if err != nil {
			return err
		}
		id, err := it.heap.Allocate(size.Value, it.roots())
		if err != nil {
			return err
		}
		return it.write(in.Operands[1], word.Ref(id))

	case isa.GC:
		return it.heap.Collect(it.roots())

	case isa.REF:
		v, err := it.read(in.Operands[0])
		if err != nil {
			return err
		}
		v.Tag = word.Reference
		return it.write(in.Operands[0], v)

	case isa.UNREF:
		v, err := it.read(in.Operands[0])
		if err != nil {
			return err
		}
		v.Tag = word.Data
		return it.write(in.Operands[0], v)

	case isa.NATIVE:
		n, err := it.read(in.Operands[0])
		if err != nil {
			return err
		}
		return it.natives.Invoke(int(n.Value), &it.cpu, native.NewArgs(it.stack, it.cpu.SP), it.heap)

	case isa.DEBUGCPU:
		n, err := it.read(in.Operands[0])
		if err != nil {
			return err
		}
		if it.log != nil {
			it.log.Info("DEBUGCPU | %s | %s", n, it.cpu.String())
		}
		return nil

	case isa.DEBUGX:
		return it.debugX(in)

	case isa.HALT:
		it.halted = true
		return nil

	default:
		return fmt.Errorf("vm: unimplemented opcode %s", in.Op)
	}
}

func (it *Interpreter) combine(in isa.Instruction, op func(src, dst uint64) (uint64, bool)) error {
	srcW, err := it.read(in.Operands[0])
	if err != nil {
		return err
	}
	dstW, err := it.read(in.Operands[1])
	if err != nil {
		return err
	}
	result, carry := op(srcW.Value, dstW.Value)
	return it.writeWithFlags(in.Operands[1], word.Word{Value: result, Tag: word.Tainted(srcW, dstW)}, carry)
}

func (it *Interpreter) divide(in isa.Instruction) error {
	srcW, err := it.read(in.Operands[0])
	if err != nil {
		return err
	}
	dstW, err := it.read(in.Operands[1])
	if err != nil {
		return err
	}
	if srcW.Value == 0 {
		return fmt.Errorf("vm: division by zero")
	}
	result := dstW.Value / srcW.Value
	return it.writeWithFlags(in.Operands[1], word.Word{Value: result, Tag: word.Tainted(srcW, dstW)}, false)
}

// shift implements SHL/SHR: operands[0] is the shift amount,
// operands[1] is the value shifted in place; the destination tag is
// preserved rather than tainted (spec.md §4.4).
func (it *Interpreter) shift(in isa.Instruction, op func(v, amount uint64) (uint64, bool)) error {
	amount, err := it.read(in.Operands[0])
	if err != nil {
		return err
	}
	value, err := it.read(in.Operands[1])
	if err != nil {
		return err
	}
	result, carry := op(value.Value, amount.Value)
	return it.writeWithFlags(in.Operands[1], word.Word{Value: result, Tag: value.Tag}, carry)
}

func (it *Interpreter) jumpIf(cond bool, addrOp isa.Operand) error {
	if !cond {
		return nil
	}
	addr, err := it.read(addrOp)
	if err != nil {
		return err
	}
	it.cpu.IP = addr.Value
	return nil
}

// debugX handles opcode DEBUGX's two overloaded arities: DEBUGMEM (no
// operands) dumps the heap's full indirection table; DEBUGDUMP addr
// len dumps len raw bytes of the object named by addr (which must be
// Reference-tagged, since a heap id — not a flat address — is what
// addresses memory in this architecture).
func (it *Interpreter) debugX(in isa.Instruction) error {
	if len(in.Operands) == 0 {
		if it.log != nil {
			it.log.Info("DEBUGMEM | %s", it.heap.String())
		}
		return nil
	}

	addr, err := it.read(in.Operands[0])
	if err != nil {
		return err
	}
	if !addr.IsReference() {
		return fmt.Errorf("vm: debugdump address must be tagged Reference")
	}
	length, err := it.read(in.Operands[1])
	if err != nil {
		return err
	}
	data, err := it.heap.ReadBytes(addr.Value, 0, length.Value)
	if err != nil {
		return err
	}

	if it.log == nil {
		return nil
	}
	dump := ""
	for i, b := range data {
		dump += fmt.Sprintf("%02X ", b)
		if (i+1)%cpu.WordSize == 0 {
			dump += " "
		}
	}
	it.log.Info("DEBUGDUMP | id=%d | %s", addr.Value, dump)
	return nil
}

func (it *Interpreter) String() string {
	return it.cpu.String() + "\n" + it.heap.String()
}
