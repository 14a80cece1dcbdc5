package device

import (
	"bytes"
	"encoding/binary"
	"testing"

	"emurv/memory"
)

func TestUARTWriteEmitsLowByteOfTX(t *testing.T) {
	var out bytes.Buffer
	u := NewUART(&out, binary.LittleEndian)

	if err := u.Write(UARTTx, 1, []byte{'A'}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if out.String() != "A" {
		t.Fatalf("got %q, want %q", out.String(), "A")
	}
}

func TestUARTWriteToNonTXOffsetIsDiscarded(t *testing.T) {
	var out bytes.Buffer
	u := NewUART(&out, binary.LittleEndian)

	if err := u.Write(UARTStatus, 1, []byte{'Z'}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("got %q, want no output", out.String())
	}
}

func TestUARTStatusAlwaysReportsReady(t *testing.T) {
	var out bytes.Buffer
	u := NewUART(&out, binary.LittleEndian)

	b, err := u.Read(UARTStatus, 1)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if b[0] != 1 {
		t.Fatalf("got status %d, want 1", b[0])
	}
}

func TestNewRegionIsFixedAndUnmergeable(t *testing.T) {
	var out bytes.Buffer
	u := NewUART(&out, binary.LittleEndian)
	r := u.NewRegion(0x10000000)

	if r.Start() != memory.Address(0x10000000) {
		t.Fatalf("Start() = %#x, want 0x10000000", r.Start())
	}
	if r.Size() != UARTSize {
		t.Fatalf("Size() = %d, want %d", r.Size(), UARTSize)
	}
	if r.Resizable() || r.Relocatable() || r.Mergeable() {
		t.Fatal("a UART region must be fixed: not resizable, relocatable, or mergeable")
	}
}

func TestUARTRegionRoundTripsThroughMemory(t *testing.T) {
	var out bytes.Buffer
	u := NewUART(&out, binary.LittleEndian)
	mem, err := memory.New(memory.Config{MemoryStart: 0, MemorySize: 1 << 16, DefaultRegionSize: 4096})
	if err != nil {
		t.Fatalf("memory.New: %v", err)
	}
	if err := mem.AddRegion(u.NewRegion(0x1000)); err != nil {
		t.Fatalf("AddRegion: %v", err)
	}
	if err := mem.WriteByte(0x1000+UARTTx, 'Z'); err != nil {
		t.Fatalf("WriteByte: %v", err)
	}
	if out.String() != "Z" {
		t.Fatalf("got %q, want %q", out.String(), "Z")
	}
}
