package native

import (
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/lakesis-vm/lakesis/config"
	"github.com/lakesis-vm/lakesis/cpu"
	"github.com/lakesis-vm/lakesis/heap"
	"github.com/lakesis-vm/lakesis/word"
)

const (
	Print  = 0
	Random = 1
	Sleep  = 2
)

// Table is the fixed native-function registry. Natives run
// synchronously and may block the whole VM (Sleep) or touch the heap
// (Print), but never allocate.
type Table struct {
	Out    io.Writer
	config config.NativeConfig
}

// NewTable returns a Table writing Print output to out, honoring cfg's
// per-native enable flags.
func NewTable(out io.Writer, cfg config.NativeConfig) *Table {
	return &Table{Out: out, config: cfg}
}

// Invoke dispatches native index n, giving it access to the register
// file (for Random's result), the current call's arguments, and the
// heap (for Print's string lookups).
func (t *Table) Invoke(n int, regs *cpu.State, args Args, hp *heap.Manager) error {
	switch n {
	case Print:
		if t.config.DisablePrint {
			return fmt.Errorf("native: print is disabled")
		}
		return t.print(args, hp)
	case Random:
		if t.config.DisableRandom {
			return fmt.Errorf("native: random is disabled")
		}
		return t.random(regs)
	case Sleep:
		if t.config.DisableSleep {
			return fmt.Errorf("native: sleep is disabled")
		}
		return t.sleep(args)
	default:
		return fmt.Errorf("native: unknown native index %d", n)
	}
}

// print reads the format string named by args 0 (length) and 1 (ref)
// and interpolates %u, %d, %s, %% against the remaining arguments, in
// the order they appear. Arguments are read, never popped.
func (t *Table) print(args Args, hp *heap.Manager) error {
	length, err := args.Word(0)
	if err != nil {
		return err
	}
	ref, err := args.Reference(1)
	if err != nil {
		return fmt.Errorf("native: print: %w", err)
	}

	format, err := hp.ReadBytes(ref, 0, length)
	if err != nil {
		return fmt.Errorf("native: print: %w", err)
	}

	paramIndex := 2
	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			fmt.Fprintf(t.Out, "%c", format[i])
			continue
		}

		i++
		if i >= len(format) {
			return fmt.Errorf("native: print: unterminated format placeholder")
		}

		switch format[i] {
		case '%':
			fmt.Fprint(t.Out, "%")
		case 'd':
			v, err := args.Word(paramIndex)
			if err != nil {
				return err
			}
			paramIndex++
			fmt.Fprintf(t.Out, "%d", int64(v))
		case 'u':
			v, err := args.Word(paramIndex)
			if err != nil {
				return err
			}
			paramIndex++
			fmt.Fprintf(t.Out, "%d", v)
		case 's':
			strLen, err := args.Word(paramIndex)
			if err != nil {
				return err
			}
			paramIndex++
			strRef, err := args.Reference(paramIndex)
			if err != nil {
				return fmt.Errorf("native: print: %%s argument: %w", err)
			}
			paramIndex++

			bytes, err := hp.ReadBytes(strRef, 0, strLen)
			if err != nil {
				return fmt.Errorf("native: print: %%s argument: %w", err)
			}
			fmt.Fprint(t.Out, string(bytes))
		default:
			return fmt.Errorf("native: print: unknown format placeholder %%%c", format[i])
		}
	}

	return nil
}

func (t *Table) random(regs *cpu.State) error {
	return regs.SetRegister(0, word.Of(rand.Uint64()))
}

func (t *Table) sleep(args Args) error {
	millis, err := args.Word(0)
	if err != nil {
		return err
	}
	time.Sleep(time.Duration(millis) * time.Millisecond)
	return nil
}
