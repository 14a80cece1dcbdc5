// Package core implements the fetch-decode-execute pipeline: a pure
// function from (register state, memory) to (next register state, next
// memory), driven one retired instruction at a time.
package core

import (
	"encoding/binary"
	"fmt"

	"emurv/decoder"
	"emurv/exec"
	"emurv/faults"
	"emurv/memory"
	"emurv/regfile"
)

// Outcome distinguishes what happened during one Step.
type Outcome int

const (
	// Retired means the instruction executed normally and the PC was
	// advanced (or redirected by a jump/branch).
	Retired Outcome = iota
	// Trapped means the instruction raised an InstError Trap (ECALL or
	// EBREAK); the PC was not advanced.
	Trapped
	// Faulted means the step did not retire: either the instruction
	// raised an InstError Exception (illegal instruction or misaligned
	// access), or the step aborted on an EmulatorError — a fetch, decode,
	// or dispatch failure internal to the simulator rather than
	// architectural. Step's error return carries the concrete fault, and
	// its type (InstError vs EmulatorError) tells the two cases apart.
	// The PC is unchanged, except after ExecDuplicatedUnitError: that is
	// detected only when a second unit accepts, so the first two
	// accepting units have already executed the instruction, PC write
	// included.
	Faulted
)

func (o Outcome) String() string {
	switch o {
	case Retired:
		return "retired"
	case Trapped:
		return "trapped"
	case Faulted:
		return "faulted"
	default:
		return "unknown"
	}
}

// Core holds a memory, a register file, a decoder, and an ordered list
// of execution units. Step retires exactly one instruction per call.
type Core struct {
	Mem   *memory.Memory
	Regs  *regfile.IntFile
	Dec   *decoder.Decoder
	Units []exec.Unit

	// Trace, when set, is called with the PC and decoded record of every
	// successfully decoded instruction before it is offered to the
	// execution units, so trapping and faulting instructions are included.
	Trace func(pc uint64, inst decoder.Instruction)
}

// New constructs a Core wired to mem and regs, decoding with dec and
// offering each fetched instruction to units in order.
func New(mem *memory.Memory, regs *regfile.IntFile, dec *decoder.Decoder, units ...exec.Unit) *Core {
	return &Core{Mem: mem, Regs: regs, Dec: dec, Units: units}
}

// Step fetches the instruction at the current PC, decodes it, and
// offers it to each execution unit in order. Exactly one unit must
// accept; zero is IllegalInstException, more than one is
// ExecDuplicatedUnitError. The InstError/EmulatorError distinction from
// the fault taxonomy is preserved in the returned error's type.
func (c *Core) Step() (Outcome, error) {
	pc, err := c.Regs.GetPCValue()
	if err != nil {
		return Faulted, err
	}

	raw, err := c.Mem.Read(memory.Address(pc), 4)
	if err != nil {
		return Faulted, err
	}

	inst, err := c.Dec.Decode(pc, raw)
	if err != nil {
		return Faulted, err
	}

	if c.Trace != nil {
		c.Trace(pc, inst)
	}

	accepted := false
	var execErr error
	for _, u := range c.Units {
		ok, err := u.Execute(inst, c.Regs, c.Mem)
		if !ok {
			continue
		}
		if accepted {
			return Faulted, &faults.ExecDuplicatedUnitError{Opcode: inst.Opcode7()}
		}
		accepted = true
		execErr = err
	}

	if !accepted {
		return Faulted, &faults.IllegalInstException{PC: pc, Word: inst.Word, Msg: "no execution unit claimed this opcode"}
	}
	if execErr != nil {
		switch execErr.(type) {
		case *faults.ECALLTrap, *faults.EBREAKTrap:
			return Trapped, execErr
		default:
			return Faulted, execErr
		}
	}
	return Retired, nil
}

// Run steps the core until an error escapes or maxSteps is reached,
// whichever comes first. It returns the outcome and error of the final
// step, and the number of steps actually taken.
func (c *Core) Run(maxSteps int) (int, Outcome, error) {
	for i := 0; i < maxSteps; i++ {
		outcome, err := c.Step()
		if err != nil {
			return i + 1, outcome, err
		}
	}
	return maxSteps, Retired, nil
}

// DefaultTrace returns a Trace function that prints one line per decoded
// instruction, the format the driver's -trace flag uses: the PC, the raw
// word, and the decoded opcode, register, funct3 and funct7 fields.
// order is not used.
func DefaultTrace(order binary.ByteOrder) func(pc uint64, inst decoder.Instruction) {
	return func(pc uint64, inst decoder.Instruction) {
		fmt.Printf("pc=%08x inst=%08x op=0x%02x rd=%d rs1=%d rs2=%d f3=%d f7=%d\n",
			pc, inst.Word, inst.Opcode7(), inst.Rd, inst.Rs1, inst.Rs2, inst.Funct3, inst.Funct7)
	}
}
