// Command emurv loads an ELF or flat binary RV32I image and runs it to
// completion, or to the first trap or fault, against the in-process
// simulator.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"os"

	"emurv/core"
	"emurv/decoder"
	"emurv/device"
	"emurv/exec"
	"emurv/loader"
	"emurv/memory"
	"emurv/regfile"
)

const (
	defaultRegionSize = 4096
	uartBase          = memory.Address(0x10000000)
)

func main() {
	elfPath := flag.String("elf", "", "ELF file to load")
	binPath := flag.String("bin", "", "flat binary to load at address 0x0")
	steps := flag.Int("steps", 10_000_000, "maximum number of instructions to retire")
	trace := flag.Bool("trace", false, "print one line per decoded instruction")
	memMiB := flag.Int("mem", 16, "memory address span in MiB, rounded up to the region size and widened to include the UART")
	startPC := flag.Uint("pc", 0, "override start PC (0 keeps the loader's entry point)")

	flag.Parse()

	order := binary.LittleEndian
	memSize := memory.Align(uint64(*memMiB)*1024*1024, uint64(defaultRegionSize))
	// The span must reach the UART window at uartBase; regions are only
	// allocated where the program writes, so this costs no RAM.
	if uartEnd := uint64(uartBase) + device.UARTSize; memSize < uartEnd {
		memSize = memory.Align(uartEnd, uint64(defaultRegionSize))
	}

	mem, err := memory.New(memory.Config{
		MemoryStart:       0,
		MemorySize:        memSize,
		DefaultRegionSize: defaultRegionSize,
	})
	if err != nil {
		fatal("memory configuration", err)
	}

	uart := device.NewUART(os.Stdout, order)
	if err := mem.AddRegion(uart.NewRegion(uartBase)); err != nil {
		fatal("uart region", err)
	}

	regs, err := regfile.NewIntFile(regfile.Width32, 32, order)
	if err != nil {
		fatal("register file", err)
	}

	dec := decoder.New(order)
	unit := exec.NewRV32I(order)
	cpu := core.New(mem, regs, dec, unit)
	if *trace {
		cpu.Trace = core.DefaultTrace(order)
	}

	var entry uint64
	switch {
	case *elfPath != "":
		entry, err = loader.LoadELF(*elfPath, mem)
		if err != nil {
			fatal("ELF load", err)
		}
	case *binPath != "":
		if err := loader.LoadFlat(*binPath, 0, mem); err != nil {
			fatal("flat binary load", err)
		}
	default:
		fmt.Fprintln(os.Stderr, "no program provided: pass -elf or -bin")
		os.Exit(2)
	}

	if *startPC != 0 {
		entry = uint64(*startPC)
	}
	if err := regs.SetPCValue(entry); err != nil {
		fatal("initial PC", err)
	}

	ran, outcome, err := cpu.Run(*steps)
	if err == nil {
		fmt.Fprintf(os.Stderr, "step budget of %d exhausted without a trap\n", ran)
		return
	}

	fmt.Fprintf(os.Stderr, "%s after %d step(s): %v\n", outcome, ran, err)
	if outcome == core.Faulted {
		os.Exit(1)
	}
}

func fatal(what string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", what, err)
	os.Exit(1)
}
