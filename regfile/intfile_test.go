package regfile

import (
	"encoding/binary"
	"testing"
)

func TestNewIntFilePlacesPCAfterGeneralRegisters(t *testing.T) {
	f, err := NewIntFile(Width32, 32, binary.LittleEndian)
	if err != nil {
		t.Fatalf("NewIntFile: %v", err)
	}
	if f.Count() != 33 {
		t.Fatalf("got %d registers, want 33", f.Count())
	}
	if f.PCIndex() != 32 {
		t.Fatalf("got PCIndex %d, want 32", f.PCIndex())
	}
}

func TestSetGetPCValueRoundTrip(t *testing.T) {
	f, err := NewIntFile(Width32, 32, binary.LittleEndian)
	if err != nil {
		t.Fatalf("NewIntFile: %v", err)
	}
	if err := f.SetPCValue(0x80000000); err != nil {
		t.Fatalf("SetPCValue: %v", err)
	}
	pc, err := f.GetPCValue()
	if err != nil {
		t.Fatalf("GetPCValue: %v", err)
	}
	if pc != 0x80000000 {
		t.Fatalf("got pc %#x, want %#x", pc, uint64(0x80000000))
	}
}

func TestPCDoesNotAliasGeneralRegisters(t *testing.T) {
	f, err := NewIntFile(Width32, 32, binary.LittleEndian)
	if err != nil {
		t.Fatalf("NewIntFile: %v", err)
	}
	if err := f.WriteValue(31, 0x11111111, false); err != nil {
		t.Fatalf("WriteValue: %v", err)
	}
	if err := f.SetPCValue(0x22222222); err != nil {
		t.Fatalf("SetPCValue: %v", err)
	}
	v, err := f.ReadValue(31, false)
	if err != nil {
		t.Fatalf("ReadValue: %v", err)
	}
	if v != 0x11111111 {
		t.Fatalf("x31 was clobbered by SetPCValue: got %#x", v)
	}
}
