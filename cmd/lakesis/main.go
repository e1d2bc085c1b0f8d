// Command lakesis runs compiled Lakesis bytecode images.
//
// Grounded on Peirceman-windlang/main.go's extension-sniffing dispatch,
// adapted to Lakesis's subcommand surface (spec.md §6); windlang's
// post-run "leftover stack" integrity check has no counterpart here. The assembler/
// disassembler named alongside "run" in spec.md §6 are external
// collaborators out of this build's scope (spec.md §1); "asm"/"view"/
// "runasm" are accepted as subcommands but report that plainly instead
// of faking the missing tools.
package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/lakesis-vm/lakesis/config"
	"github.com/lakesis-vm/lakesis/diag"
	"github.com/lakesis-vm/lakesis/vm"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printHelp()
		return 2
	}

	switch args[0] {
	case "run":
		return runImage(args[1:])
	case "asm", "view", "runasm":
		fmt.Fprintf(os.Stderr, "lakesis: %q is not part of this build: the assembler/disassembler are external collaborators (spec.md §1)\n", args[0])
		return 1
	case "help", "-h", "--help":
		printHelp()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "lakesis: unknown subcommand %q\n", args[0])
		printHelp()
		return 2
	}
}

func printHelp() {
	fmt.Fprintln(os.Stderr, `lakesis - a register/stack bytecode VM with a moving mark-sweep-compact GC

Usage:
  lakesis run <image> [lakesis.toml]   execute a compiled bytecode image
  lakesis help                         show this message

"asm", "view" and "runasm" are named by the wire format but are not
built by this command; compile images with an external assembler.`)
}

func runImage(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "lakesis: run needs an image path")
		return 2
	}

	image, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "lakesis: %v\n", err)
		return 1
	}

	cfgPath := "lakesis.toml"
	if len(args) > 1 {
		cfgPath = args[1]
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lakesis: %v\n", err)
		return 1
	}

	runID := uuid.New().String()
	log := diag.New("lakesis")
	log.Info("run %s starting: image=%s (%d bytes)", runID, args[0], len(image))

	it := vm.New(image, cfg, os.Stdout, log)

	runErr := it.Run()

	if runErr != nil {
		var fault *vm.Fault
		if f, ok := runErr.(*vm.Fault); ok {
			fault = f
		}
		if fault != nil {
			fmt.Fprintf(os.Stderr, "lakesis: run %s faulted at IP=%#08x (%s): %v\n%s\n",
				runID, fault.IP, fault.Instr, fault.Err, fault.Regs.String())
		} else {
			fmt.Fprintf(os.Stderr, "lakesis: run %s: %v\n", runID, runErr)
		}
		return 1
	}

	finalState := it.CPU()
	log.Info("run %s halted cleanly\n%s", runID, finalState.String())
	return 0
}
