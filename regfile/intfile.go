package regfile

import "encoding/binary"

// IntFile adds a designated program-counter slot to a File. By default
// the PC occupies the last register index, matching the x0..x31 plus
// implicit-PC convention this simulator uses for RV32I.
type IntFile struct {
	*File
	pcIndex int
}

// NewIntFile constructs an IntFile with count general-purpose registers
// plus one PC slot, so the underlying File holds count+1 registers and
// the PC occupies the last index.
func NewIntFile(width Width, count int, order binary.ByteOrder) (*IntFile, error) {
	f, err := New(width, count+1, order)
	if err != nil {
		return nil, err
	}
	return &IntFile{File: f, pcIndex: count}, nil
}

// PCIndex returns the register index designated as the program counter.
func (f *IntFile) PCIndex() int { return f.pcIndex }

// GetPC returns the PC slot's raw bytes.
func (f *IntFile) GetPC() ([]byte, error) {
	return f.Read(f.pcIndex)
}

// SetPC writes the PC slot's raw bytes.
func (f *IntFile) SetPC(data []byte) error {
	return f.Write(f.pcIndex, data, false)
}

// GetPCValue returns the PC as an unsigned integer value.
func (f *IntFile) GetPCValue() (uint64, error) {
	return f.ReadValue(f.pcIndex, false)
}

// SetPCValue writes v into the PC slot as an unsigned integer value.
func (f *IntFile) SetPCValue(v uint64) error {
	return f.WriteValue(f.pcIndex, v, false)
}
