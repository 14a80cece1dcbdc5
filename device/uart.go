// Package device provides example MMIO peripherals implementing the
// memory.MMIODevice contract, generalizing the teacher's bus-level
// special-casing into real memory.Region instances.
package device

import (
	"encoding/binary"
	"io"

	"emurv/faults"
	"emurv/memory"
)

// UART register offsets within its region, relative to its base
// address.
const (
	UARTTx     = 0x00
	UARTStatus = 0x04
)

// UARTSize is the byte span a UART region occupies.
const UARTSize = 0x100

// UART is a minimal write-only console device: writes to the TX
// register are emitted to an io.Writer one byte at a time, and the
// STATUS register always reports ready.
type UART struct {
	out   io.Writer
	order binary.ByteOrder
}

// NewUART constructs a UART that writes transmitted bytes to out.
func NewUART(out io.Writer, order binary.ByteOrder) *UART {
	return &UART{out: out, order: order}
}

// Read implements memory.MMIODevice. STATUS always reports ready (1);
// every other offset, including TX, reads back as zero.
func (u *UART) Read(addr memory.Address, size int) ([]byte, error) {
	out := make([]byte, size)
	if addr%memory.Address(UARTSize) == UARTStatus {
		if u.order == binary.LittleEndian {
			out[0] = 1
		} else {
			out[size-1] = 1
		}
	}
	return out, nil
}

// Write implements memory.MMIODevice. A write to TX emits the low byte
// of the written value to the configured io.Writer; writes to any
// other offset are accepted and discarded.
func (u *UART) Write(addr memory.Address, size int, data []byte) error {
	if addr%memory.Address(UARTSize) != UARTTx {
		return nil
	}
	low := data[:1]
	if u.order != binary.LittleEndian {
		low = data[len(data)-1:]
	}
	if _, err := u.out.Write(low); err != nil {
		return &faults.RegionError{Op: "write", Addr: uint64(addr), Size: uint64(size), Msg: err.Error()}
	}
	return nil
}

// NewRegion wraps u as a fixed-size MMIORegion named "uart" starting at
// base, satisfying the memory.Region contract: Resizable()==false,
// Relocatable()==false, Mergeable()==false.
func (u *UART) NewRegion(base memory.Address) *memory.MMIORegion {
	return memory.NewMMIORegion("uart", base, UARTSize, u)
}
