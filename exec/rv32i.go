package exec

import (
	"encoding/binary"

	"emurv/decoder"
	"emurv/faults"
	"emurv/memory"
	"emurv/regfile"
)

// RV32I implements Unit for the 32-bit base integer ISA. It is the sole
// unit this simulator registers with the core today.
type RV32I struct {
	order binary.ByteOrder
}

// NewRV32I constructs the RV32I execution unit. order must match the
// decoder's and memory's configured byte order.
func NewRV32I(order binary.ByteOrder) *RV32I {
	return &RV32I{order: order}
}

func (u *RV32I) readReg(regs *regfile.IntFile, i uint32) (uint32, error) {
	v, err := regs.ReadValue(int(i), false)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

// writeReg discards writes to x0, per the RISC-V convention this layer
// (regfile) does not itself enforce.
func (u *RV32I) writeReg(regs *regfile.IntFile, i uint32, v uint32) error {
	if i == 0 {
		return nil
	}
	return regs.WriteValue(int(i), uint64(v), false)
}

// Execute dispatches on inst.BaseOpcode per the opcode table. It
// returns accepted=false only for opcodes outside the RV32I base set;
// every claimed-but-malformed sub-encoding is an IllegalInstException.
func (u *RV32I) Execute(inst decoder.Instruction, regs *regfile.IntFile, mem *memory.Memory) (bool, error) {
	pc := inst.PC
	nextPC := pc + 4

	switch inst.Opcode7() {
	case decoder.OpLui:
		if err := u.writeReg(regs, inst.Rd, uint32(inst.ImmU)); err != nil {
			return true, err
		}

	case decoder.OpAuipc:
		if err := u.writeReg(regs, inst.Rd, uint32(pc)+uint32(inst.ImmU)); err != nil {
			return true, err
		}

	case decoder.OpJal:
		if err := u.writeReg(regs, inst.Rd, uint32(pc)+4); err != nil {
			return true, err
		}
		nextPC = uint64(uint32(pc) + uint32(inst.ImmJ))

	case decoder.OpJalr:
		rs1, err := u.readReg(regs, inst.Rs1)
		if err != nil {
			return true, err
		}
		target := (rs1 + uint32(inst.ImmI)) &^ 1
		if err := u.writeReg(regs, inst.Rd, uint32(pc)+4); err != nil {
			return true, err
		}
		nextPC = uint64(target)

	case decoder.OpBranch:
		taken, err := u.branchTaken(inst, regs)
		if err != nil {
			return true, err
		}
		if taken {
			nextPC = uint64(uint32(pc) + uint32(inst.ImmB))
		}

	case decoder.OpLoad:
		if err := u.execLoad(inst, regs, mem); err != nil {
			return true, err
		}

	case decoder.OpStore:
		if err := u.execStore(inst, regs, mem); err != nil {
			return true, err
		}

	case decoder.OpOpImm:
		if err := u.execOpImm(inst, regs); err != nil {
			return true, err
		}

	case decoder.OpOp:
		if err := u.execOp(inst, regs); err != nil {
			return true, err
		}

	case decoder.OpMiscMem:
		// FENCE: no-op in a strictly sequential, single-hart simulator.

	case decoder.OpSystem:
		switch inst.ImmI {
		case 0:
			return true, &faults.ECALLTrap{PC: pc, Word: inst.Word}
		case 1:
			return true, &faults.EBREAKTrap{PC: pc, Word: inst.Word}
		default:
			return true, &faults.IllegalInstException{PC: pc, Word: inst.Word, Msg: "unrecognized SYSTEM encoding"}
		}

	default:
		return false, nil
	}

	if err := regs.SetPCValue(nextPC); err != nil {
		return true, err
	}
	return true, nil
}

func (u *RV32I) branchTaken(inst decoder.Instruction, regs *regfile.IntFile) (bool, error) {
	a, err := u.readReg(regs, inst.Rs1)
	if err != nil {
		return false, err
	}
	b, err := u.readReg(regs, inst.Rs2)
	if err != nil {
		return false, err
	}
	switch inst.Funct3 {
	case 0x0: // BEQ
		return a == b, nil
	case 0x1: // BNE
		return a != b, nil
	case 0x4: // BLT
		return int32(a) < int32(b), nil
	case 0x5: // BGE
		return int32(a) >= int32(b), nil
	case 0x6: // BLTU
		return a < b, nil
	case 0x7: // BGEU
		return a >= b, nil
	default:
		return false, &faults.IllegalInstException{PC: inst.PC, Word: inst.Word, Msg: "unrecognized BRANCH funct3"}
	}
}

func (u *RV32I) execLoad(inst decoder.Instruction, regs *regfile.IntFile, mem *memory.Memory) error {
	widthCode := inst.Funct3 & 0x3
	if widthCode > 2 {
		return &faults.IllegalInstException{PC: inst.PC, Word: inst.Word, Msg: "64-bit load width is not supported by RV32I"}
	}
	size := uint64(1) << widthCode
	signed := inst.Funct3&0x4 == 0

	base, err := u.readReg(regs, inst.Rs1)
	if err != nil {
		return err
	}
	addr := memory.Address(base + uint32(inst.ImmI))

	raw, err := mem.Read(addr, size)
	if err != nil {
		return toInstError(inst, addr, size, err)
	}

	var v uint32
	switch size {
	case 1:
		b := raw[0]
		if signed {
			v = uint32(int32(int8(b)))
		} else {
			v = uint32(b)
		}
	case 2:
		h := u.order.Uint16(raw)
		if signed {
			v = uint32(int32(int16(h)))
		} else {
			v = uint32(h)
		}
	case 4:
		v = u.order.Uint32(raw)
	}
	return u.writeReg(regs, inst.Rd, v)
}

func (u *RV32I) execStore(inst decoder.Instruction, regs *regfile.IntFile, mem *memory.Memory) error {
	widthCode := inst.Funct3 & 0x3
	if widthCode > 2 {
		return &faults.IllegalInstException{PC: inst.PC, Word: inst.Word, Msg: "64-bit store width is not supported by RV32I"}
	}
	size := uint64(1) << widthCode

	base, err := u.readReg(regs, inst.Rs1)
	if err != nil {
		return err
	}
	addr := memory.Address(base + uint32(inst.ImmS))

	rs2, err := u.readReg(regs, inst.Rs2)
	if err != nil {
		return err
	}

	data := make([]byte, size)
	switch size {
	case 1:
		data[0] = byte(rs2)
	case 2:
		u.order.PutUint16(data, uint16(rs2))
	case 4:
		u.order.PutUint32(data, rs2)
	}

	if err := mem.Write(addr, size, data); err != nil {
		return toInstError(inst, addr, size, err)
	}
	return nil
}

func (u *RV32I) execOpImm(inst decoder.Instruction, regs *regfile.IntFile) error {
	a, err := u.readReg(regs, inst.Rs1)
	if err != nil {
		return err
	}
	imm := uint32(inst.ImmI)

	var result uint32
	switch inst.Funct3 {
	case 0x0: // ADDI
		result = a + imm
	case 0x2: // SLTI
		result = boolToUint32(int32(a) < int32(imm))
	case 0x3: // SLTIU
		result = boolToUint32(a < imm)
	case 0x4: // XORI
		result = a ^ imm
	case 0x6: // ORI
		result = a | imm
	case 0x7: // ANDI
		result = a & imm
	case 0x1: // SLLI
		if inst.ImmI>>5 != 0 {
			return &faults.IllegalInstException{PC: inst.PC, Word: inst.Word, Msg: "SLLI requires imm[11:5] == 0"}
		}
		result = a << uint32(inst.ImmI&0x1F)
	case 0x5: // SRLI / SRAI
		switch (inst.ImmI >> 5) & 0x7F {
		case 0x00: // SRLI
			result = a >> uint32(inst.ImmI&0x1F)
		case 0x20: // SRAI
			result = uint32(int32(a) >> uint32(inst.ImmI&0x1F))
		default:
			return &faults.IllegalInstException{PC: inst.PC, Word: inst.Word, Msg: "SRLI/SRAI requires imm[11:5] == 0000000 or 0100000"}
		}
	default:
		return &faults.IllegalInstException{PC: inst.PC, Word: inst.Word, Msg: "unrecognized OP_IMM funct3"}
	}
	return u.writeReg(regs, inst.Rd, result)
}

func (u *RV32I) execOp(inst decoder.Instruction, regs *regfile.IntFile) error {
	a, err := u.readReg(regs, inst.Rs1)
	if err != nil {
		return err
	}
	b, err := u.readReg(regs, inst.Rs2)
	if err != nil {
		return err
	}

	var result uint32
	switch inst.Funct3 {
	case 0x0: // ADD / SUB
		switch inst.Funct7 {
		case 0x00:
			result = a + b
		case 0x20:
			result = a - b
		default:
			return &faults.IllegalInstException{PC: inst.PC, Word: inst.Word, Msg: "ADD/SUB requires funct7 == 0000000 or 0100000"}
		}
	case 0x1: // SLL
		if inst.Funct7 != 0 {
			return illegalFunct7(inst)
		}
		result = a << (b & 0x1F)
	case 0x2: // SLT
		if inst.Funct7 != 0 {
			return illegalFunct7(inst)
		}
		result = boolToUint32(int32(a) < int32(b))
	case 0x3: // SLTU
		if inst.Funct7 != 0 {
			return illegalFunct7(inst)
		}
		result = boolToUint32(a < b)
	case 0x4: // XOR
		if inst.Funct7 != 0 {
			return illegalFunct7(inst)
		}
		result = a ^ b
	case 0x5: // SRL / SRA
		switch inst.Funct7 {
		case 0x00:
			result = a >> (b & 0x1F)
		case 0x20:
			result = uint32(int32(a) >> (b & 0x1F))
		default:
			return &faults.IllegalInstException{PC: inst.PC, Word: inst.Word, Msg: "SRL/SRA requires funct7 == 0000000 or 0100000"}
		}
	case 0x6: // OR
		if inst.Funct7 != 0 {
			return illegalFunct7(inst)
		}
		result = a | b
	case 0x7: // AND
		if inst.Funct7 != 0 {
			return illegalFunct7(inst)
		}
		result = a & b
	default:
		return &faults.IllegalInstException{PC: inst.PC, Word: inst.Word, Msg: "unrecognized OP funct3"}
	}
	return u.writeReg(regs, inst.Rd, result)
}

func illegalFunct7(inst decoder.Instruction) error {
	return &faults.IllegalInstException{PC: inst.PC, Word: inst.Word, Msg: "funct7 must be 0000000"}
}

func boolToUint32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// toInstError converts a misaligned/invalid-size access reported by
// Memory's "read"/"write" checks into the architectural
// MemMisalignedException this layer's contract promises callers. Any
// other error — a RegionError for an out-of-bounds access, or a
// write-allocation MemoryError when a non-resizable region blocks the
// allocation — is an EmulatorError and is returned unchanged; the
// misalignment and invalid-size checks are the only EmulatorErrors
// mapped to an InstError.
func toInstError(inst decoder.Instruction, addr memory.Address, size uint64, err error) error {
	if me, ok := err.(*faults.MemoryError); ok && (me.Op == "read" || me.Op == "write") {
		return &faults.MemMisalignedException{PC: inst.PC, Addr: uint64(addr), Size: size, Err: err}
	}
	return err
}
