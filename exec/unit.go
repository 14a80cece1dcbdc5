// Package exec implements the execution units that the core offers
// decoded instructions to. Today the only unit is RV32I; the
// accept/reject protocol is kept so an M/A/F/D/C/Zicsr unit could be
// appended later without touching the core.
package exec

import (
	"emurv/decoder"
	"emurv/memory"
	"emurv/regfile"
)

// Unit inspects a decoded instruction's BaseOpcode. If it handles that
// opcode, it mutates regs/mem, computes the next PC, writes it back,
// and returns true. Otherwise it leaves state unchanged and returns
// false so the core can offer the instruction to the next unit.
//
// Unhandled sub-encodings inside a claimed opcode (a bad funct3/funct7
// combination) are reported as an error even though the opcode itself
// was claimed — the instruction is malformed, not merely foreign to
// this unit.
type Unit interface {
	Execute(inst decoder.Instruction, regs *regfile.IntFile, mem *memory.Memory) (accepted bool, err error)
}
