// Package regfile implements the typed, endianness-aware byte store
// that presents both byte-array and integer-value views over the same
// register storage, with sign/zero extension and a designated
// program-counter slot for IntFile.
package regfile

import (
	"encoding/binary"

	"emurv/faults"
)

// Width is the bit width of every register in a File. Only 32 and 64
// are valid.
type Width int

const (
	Width32 Width = 32
	Width64 Width = 64
)

func (w Width) bytes() int { return int(w) / 8 }

// File is a fixed set of equal-width integer registers presented as a
// contiguous byte buffer, with byte-view, value-view, and copy access.
type File struct {
	width   Width
	count   int
	order   binary.ByteOrder
	storage []byte
}

// New constructs a File of count registers, each width bits wide,
// using order to interpret multi-byte values.
func New(width Width, count int, order binary.ByteOrder) (*File, error) {
	if width != Width32 && width != Width64 {
		return nil, &faults.RegisterFileError{Msg: "width must be 32 or 64"}
	}
	if count <= 0 {
		return nil, &faults.RegisterFileError{Msg: "count must be positive"}
	}
	return &File{
		width:   width,
		count:   count,
		order:   order,
		storage: make([]byte, count*width.bytes()),
	}, nil
}

// Count returns the number of registers in the file.
func (f *File) Count() int { return f.count }

// Width returns the bit width of every register in the file.
func (f *File) Width() Width { return f.width }

func (f *File) slot(i int) ([]byte, error) {
	if i < 0 || i >= f.count {
		return nil, &faults.RegisterError{Index: i, Msg: "index out of range"}
	}
	n := f.width.bytes()
	return f.storage[i*n : i*n+n], nil
}

// Read returns a defensive copy of register i's raw bytes.
func (f *File) Read(i int) ([]byte, error) {
	slot, err := f.slot(i)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(slot))
	copy(out, slot)
	return out, nil
}

// Write copies data into register i. If data is shorter than the
// register width, the remaining high-order bytes are filled according
// to sign and the file's endianness: when signed is true, the
// extension byte is 0xFF iff the MSB of data's most-significant byte is
// set, otherwise 0x00; when signed is false, the extension is always
// 0x00. A data buffer longer than the register width fails.
func (f *File) Write(i int, data []byte, signed bool) error {
	slot, err := f.slot(i)
	if err != nil {
		return err
	}
	n := len(slot)
	if len(data) > n {
		return &faults.RegisterError{Index: i, Msg: "incoming buffer is wider than the register"}
	}
	if len(data) == n {
		copy(slot, data)
		return nil
	}

	ext := byte(0x00)
	if signed && len(data) > 0 {
		msbIdx := msbByteIndex(data, f.order)
		if data[msbIdx]&0x80 != 0 {
			ext = 0xFF
		}
	}

	switch f.order {
	case binary.LittleEndian:
		copy(slot, data)
		for j := len(data); j < n; j++ {
			slot[j] = ext
		}
	default:
		pad := n - len(data)
		for j := 0; j < pad; j++ {
			slot[j] = ext
		}
		copy(slot[pad:], data)
	}
	return nil
}

// msbByteIndex returns the index within data of the byte holding the
// value's most significant bit, given the file's byte order.
func msbByteIndex(data []byte, order binary.ByteOrder) int {
	if order == binary.LittleEndian {
		return len(data) - 1
	}
	return 0
}

// ReadValue interprets register i as a width-bit integer in the file's
// endianness. signed selects a signed or unsigned reading: for a 32-bit
// file a signed reading is sign-extended to 64 bits; for a 64-bit file
// the returned bits are the same either way.
func (f *File) ReadValue(i int, signed bool) (uint64, error) {
	slot, err := f.slot(i)
	if err != nil {
		return 0, err
	}
	switch f.width {
	case Width32:
		v := f.order.Uint32(slot)
		if signed {
			return uint64(int64(int32(v))), nil
		}
		return uint64(v), nil
	default:
		return f.order.Uint64(slot), nil
	}
}

// ReadValueSigned interprets register i as a signed integer, sign
// extended to int64.
func (f *File) ReadValueSigned(i int) (int64, error) {
	slot, err := f.slot(i)
	if err != nil {
		return 0, err
	}
	switch f.width {
	case Width32:
		return int64(int32(f.order.Uint32(slot))), nil
	default:
		return int64(f.order.Uint64(slot)), nil
	}
}

// WriteValue writes the low width bits of v into register i in the
// file's endianness. signed does not change the stored bits.
func (f *File) WriteValue(i int, v uint64, signed bool) error {
	slot, err := f.slot(i)
	if err != nil {
		return err
	}
	switch f.width {
	case Width32:
		f.order.PutUint32(slot, uint32(v))
	default:
		f.order.PutUint64(slot, v)
	}
	return nil
}

// CopyRegister performs a byte-exact transfer from src to dst within
// the same file.
func (f *File) CopyRegister(dst, src int) error {
	srcSlot, err := f.slot(src)
	if err != nil {
		return err
	}
	dstSlot, err := f.slot(dst)
	if err != nil {
		return err
	}
	copy(dstSlot, srcSlot)
	return nil
}

