package loader

import (
	"os"
	"path/filepath"
	"testing"

	"emurv/memory"
)

func TestLoadFlatWritesBytesAtBase(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "program.bin")
	payload := []byte{0x13, 0x05, 0x50, 0x00} // addi x10, x0, 5
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	mem, err := memory.New(memory.Config{MemoryStart: 0, MemorySize: 1 << 16, DefaultRegionSize: 4096})
	if err != nil {
		t.Fatalf("memory.New: %v", err)
	}
	if err := LoadFlat(path, 0x1000, mem); err != nil {
		t.Fatalf("LoadFlat: %v", err)
	}

	got, err := mem.Read(0x1000, 4)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	for i, b := range payload {
		if got[i] != b {
			t.Fatalf("byte %d = %#x, want %#x", i, got[i], b)
		}
	}
}

func TestLoadFlatRejectsMissingFile(t *testing.T) {
	mem, err := memory.New(memory.Config{MemoryStart: 0, MemorySize: 4096, DefaultRegionSize: 4096})
	if err != nil {
		t.Fatalf("memory.New: %v", err)
	}
	if err := LoadFlat(filepath.Join(t.TempDir(), "missing.bin"), 0, mem); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
