package decoder

// signExtend widens the low `width` bits of v to a full int32.
func signExtend(v uint32, width uint) int32 {
	shift := 32 - width
	return int32(v<<shift) >> shift
}

func immI(word uint32) int32 {
	return signExtend(word>>20, 12)
}

func immS(word uint32) int32 {
	lo := (word >> 7) & 0x1F
	hi := (word >> 25) & 0x7F
	return signExtend((hi<<5)|lo, 12)
}

// immB assembles the B-type immediate from its scattered bit slices.
// The slices are OR'd together, never AND'd — an earlier revision of
// this routine used AND here, which zeroed the immediate whenever any
// slice held a zero bit.
func immB(word uint32) int32 {
	imm := ((word>>31)&0x1)<<12 |
		((word>>25)&0x3F)<<5 |
		((word>>8)&0xF)<<1 |
		((word>>7)&0x1)<<11
	return signExtend(imm, 13)
}

func immU(word uint32) int32 {
	return int32(word & 0xFFFFF000)
}

// immJ assembles the J-type immediate from its scattered bit slices,
// OR'd together for the same reason as immB.
func immJ(word uint32) int32 {
	imm := ((word>>31)&0x1)<<20 |
		((word>>21)&0x3FF)<<1 |
		((word>>20)&0x1)<<11 |
		((word>>12)&0xFF)<<12
	return signExtend(imm, 21)
}
