package decoder

import (
	"encoding/binary"

	"emurv/faults"
)

// Decoder translates a 4-byte buffer fetched at pc into an Instruction.
// It is stateless and pure: the same bytes always yield the same
// record, in the byte order the Decoder was constructed with.
type Decoder struct {
	order binary.ByteOrder
}

// New constructs a Decoder that interprets fetched words in order.
func New(order binary.ByteOrder) *Decoder {
	return &Decoder{order: order}
}

// Decode decodes the 32-bit word found in buf, fetched from pc. Only
// 32-bit encodings (bits [1:0] == 0b11) are supported; anything else
// fails with IllegalInstException.
func (d *Decoder) Decode(pc uint64, buf []byte) (Instruction, error) {
	if len(buf) != 4 {
		return Instruction{}, &faults.DecoderError{Msg: "fetch buffer must be exactly 4 bytes"}
	}
	word := d.order.Uint32(buf)

	if word&0x3 != 0b11 {
		return Instruction{}, &faults.IllegalInstException{PC: pc, Word: word, Msg: "low two bits are not 0b11: only 32-bit encodings are supported"}
	}

	inst := Instruction{
		PC:         pc,
		Word:       word,
		BaseOpcode: (word >> 2) & 0x1F,
		Rd:         (word >> 7) & 0x1F,
		Funct3:     (word >> 12) & 0x7,
		Rs1:        (word >> 15) & 0x1F,
		Rs2:        (word >> 20) & 0x1F,
		Funct7:     (word >> 25) & 0x7F,
		ImmI:       immI(word),
		ImmS:       immS(word),
		ImmB:       immB(word),
		ImmU:       immU(word),
		ImmJ:       immJ(word),
	}
	return inst, nil
}
