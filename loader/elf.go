// Package loader provides the byte-producer collaborators the core
// depends on but does not itself implement: ELF image loading and flat
// binary loading, both staging bytes into a memory.Memory via Write
// and relying on its write-allocation to create RAM regions.
package loader

import (
	"debug/elf"
	"fmt"
	"os"

	"emurv/memory"
)

// LoadELF maps every PT_LOAD segment of the ELF file at path into mem
// at its physical address, assuming an identity physical mapping, and
// returns the entry address.
func LoadELF(path string, mem *memory.Memory) (entry uint64, err error) {
	f, err := elf.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	for _, ph := range f.Progs {
		if ph.Type != elf.PT_LOAD {
			continue
		}
		buf := make([]byte, ph.Memsz)
		if ph.Filesz > 0 {
			if _, err := ph.ReadAt(buf[:ph.Filesz], 0); err != nil {
				return 0, fmt.Errorf("read segment: %w", err)
			}
		}
		if err := writeBytes(mem, memory.Address(ph.Paddr), buf); err != nil {
			return 0, fmt.Errorf("map segment @0x%x: %w", ph.Paddr, err)
		}
	}

	return f.Entry, nil
}

// LoadFlat reads the file at path in full and writes it starting at
// base, one byte at a time, for quick testing without a linker.
func LoadFlat(path string, base memory.Address, mem *memory.Memory) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return writeBytes(mem, base, data)
}

// writeBytes stages data into mem starting at base, one byte at a time
// through Memory.WriteByte. A byte at a time is the only access size
// Memory guarantees works regardless of data's length or base's
// alignment; callers that know their segment is aligned and sized in
// multiples of 4 may instead call Memory.Write directly.
func writeBytes(mem *memory.Memory, base memory.Address, data []byte) error {
	for i, b := range data {
		if err := mem.WriteByte(base+memory.Address(i), b); err != nil {
			return err
		}
	}
	return nil
}
