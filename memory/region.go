package memory

import (
	"emurv/faults"
)

// Address is a physical address. Architecturally the address space is
// 48 bits wide, but all arithmetic on it is carried in full 64-bit
// precision so overflow never happens mid-computation. The 48-bit width
// itself is not checked; accesses are bounded only by the range a
// Memory is configured with.
type Address uint64

// MMIODevice is the reader/writer pair an external peripheral supplies
// to back an MMIORegion. Reads and writes may have side effects outside
// the emulator; they must present synchronously to this interface.
type MMIODevice interface {
	Read(addr Address, size int) ([]byte, error)
	Write(addr Address, size int, data []byte) error
}

// Region is the contract every memory region satisfies, replacing the
// BaseMemoryRegion -> {NormalRegion, MMIORegion} class hierarchy with a
// small interface over tagged variants. Capability flags are fixed at
// construction per concrete type, never mutable fields.
type Region interface {
	Start() Address
	Size() uint64
	End() Address

	Resizable() bool
	Relocatable() bool
	Mergeable() bool

	Read(addr Address, size int) ([]byte, error)
	Write(addr Address, size int, data []byte) error

	// Resize grows the region in place. Shrinking always fails.
	Resize(newSize uint64) error
	// Relocate moves the region to a new start address. Both concrete
	// variants in this design always fail; the method exists so a
	// future relocatable region type can implement Region without
	// changing the interface.
	Relocate(newStart Address) error
	// Merge absorbs other's bytes at the end of this region, extending
	// Size() by other.Size(). Both regions must be Mergeable() and
	// other must abut this region's end.
	Merge(other Region) error
	// MergeBefore absorbs other's bytes at the start of this region,
	// moving Start() back to other.Start(). Both regions must be
	// Mergeable() and other must abut this region's start.
	MergeBefore(other Region) error

	IsOverlap(other Region) bool
	IsHigherThan(other Region) bool
	IsLowerThan(other Region) bool
	IsAlignLower(other Region) bool
	IsAlignHigher(other Region) bool
	IsAddressHigher(addr Address) bool
	IsAddressLower(addr Address) bool
}

// inRange reports whether [addr, addr+size) lies fully within
// [start, start+size_total).
func inRange(start Address, total uint64, addr Address, size uint64) bool {
	if addr < start {
		return false
	}
	end := uint64(start) + total
	return uint64(addr)+size <= end
}

// geometry is an empty struct embedded by both concrete region
// variants. The predicates they share are the free functions below,
// written in terms of Start()/End(); each variant's Is* methods call
// them.
type geometry struct{}

func overlap(a, b Region) bool {
	return uint64(a.Start()) < uint64(b.End()) && uint64(b.Start()) < uint64(a.End())
}

func higherThan(a, b Region) bool {
	return uint64(a.Start()) >= uint64(b.End())
}

func lowerThan(a, b Region) bool {
	return uint64(a.End()) <= uint64(b.Start())
}

func alignLower(a, b Region) bool {
	return a.End() == b.Start()
}

func alignHigher(a, b Region) bool {
	return a.Start() == b.End()
}

// NormalRegion is backed by a contiguous, write-allocated byte buffer.
// It is resizable and mergeable but never relocatable, and it is
// created empty (zero-filled).
type NormalRegion struct {
	geometry
	start Address
	data  []byte
}

// NewNormalRegion creates an empty, zero-filled NormalRegion of the
// given size starting at start.
func NewNormalRegion(start Address, size uint64) *NormalRegion {
	return &NormalRegion{start: start, data: make([]byte, size)}
}

func (r *NormalRegion) Start() Address { return r.start }
func (r *NormalRegion) Size() uint64   { return uint64(len(r.data)) }
func (r *NormalRegion) End() Address   { return r.start + Address(len(r.data)) }

func (r *NormalRegion) Resizable() bool  { return true }
func (r *NormalRegion) Relocatable() bool { return false }
func (r *NormalRegion) Mergeable() bool  { return true }

func (r *NormalRegion) Read(addr Address, size int) ([]byte, error) {
	if !inRange(r.start, r.Size(), addr, uint64(size)) {
		return nil, &faults.RegionError{Op: "read", Addr: uint64(addr), Size: uint64(size), Msg: "out of region range"}
	}
	off := uint64(addr - r.start)
	out := make([]byte, size)
	copy(out, r.data[off:off+uint64(size)])
	return out, nil
}

func (r *NormalRegion) Write(addr Address, size int, data []byte) error {
	if !inRange(r.start, r.Size(), addr, uint64(size)) {
		return &faults.RegionError{Op: "write", Addr: uint64(addr), Size: uint64(size), Msg: "out of region range"}
	}
	if len(data) != size {
		return &faults.RegionError{Op: "write", Addr: uint64(addr), Size: uint64(size), Msg: "data length does not match size"}
	}
	off := uint64(addr - r.start)
	copy(r.data[off:off+uint64(size)], data)
	return nil
}

// Resize grows the region in place, zero-filling the new bytes. A
// newSize that does not exceed the current size always fails.
func (r *NormalRegion) Resize(newSize uint64) error {
	if newSize <= r.Size() {
		return &faults.RegionError{Op: "resize", Msg: "cannot shrink a region"}
	}
	grown := make([]byte, newSize)
	copy(grown, r.data)
	r.data = grown
	return nil
}

// Relocate always fails for NormalRegion.
func (r *NormalRegion) Relocate(newStart Address) error {
	return &faults.RegionError{Op: "relocate", Msg: "normal regions are not relocatable"}
}

// Merge appends other's bytes to the end of this region. Both regions
// must be mergeable and other must abut this region's end.
func (r *NormalRegion) Merge(other Region) error {
	if !r.Mergeable() || !other.Mergeable() {
		return &faults.RegionError{Op: "merge", Msg: "one of the regions is not mergeable"}
	}
	if !alignHigher(other, r) {
		return &faults.RegionError{Op: "merge", Msg: "regions are not adjacent"}
	}
	otherBytes, err := other.Read(other.Start(), int(other.Size()))
	if err != nil {
		return err
	}
	r.data = append(r.data, otherBytes...)
	return nil
}

// MergeBefore prepends other's bytes to the start of this region and
// moves Start() back to other.Start(). Both regions must be mergeable
// and other must abut this region's start.
func (r *NormalRegion) MergeBefore(other Region) error {
	if !r.Mergeable() || !other.Mergeable() {
		return &faults.RegionError{Op: "merge", Msg: "one of the regions is not mergeable"}
	}
	if !alignLower(other, r) {
		return &faults.RegionError{Op: "merge", Msg: "regions are not adjacent"}
	}
	otherBytes, err := other.Read(other.Start(), int(other.Size()))
	if err != nil {
		return err
	}
	r.data = append(otherBytes, r.data...)
	r.start = other.Start()
	return nil
}

func (r *NormalRegion) IsOverlap(other Region) bool        { return overlap(r, other) }
func (r *NormalRegion) IsHigherThan(other Region) bool     { return higherThan(r, other) }
func (r *NormalRegion) IsLowerThan(other Region) bool      { return lowerThan(r, other) }
func (r *NormalRegion) IsAlignLower(other Region) bool      { return alignLower(r, other) }
func (r *NormalRegion) IsAlignHigher(other Region) bool    { return alignHigher(r, other) }
func (r *NormalRegion) IsAddressHigher(addr Address) bool  { return uint64(r.start) >= uint64(addr) }
func (r *NormalRegion) IsAddressLower(addr Address) bool   { return uint64(r.End()) <= uint64(addr) }

// MMIORegion is backed by an externally supplied MMIODevice. It is
// never resizable, relocatable, or mergeable, and is identified by a
// stable name for diagnostics.
type MMIORegion struct {
	geometry
	start  Address
	size   uint64
	name   string
	device MMIODevice
}

// NewMMIORegion wraps device as a fixed-size Region at [start, start+size).
func NewMMIORegion(name string, start Address, size uint64, device MMIODevice) *MMIORegion {
	return &MMIORegion{start: start, size: size, name: name, device: device}
}

// Name returns the stable identifier this region was constructed with,
// for diagnostics.
func (r *MMIORegion) Name() string { return r.name }

func (r *MMIORegion) Start() Address { return r.start }
func (r *MMIORegion) Size() uint64   { return r.size }
func (r *MMIORegion) End() Address   { return r.start + Address(r.size) }

func (r *MMIORegion) Resizable() bool   { return false }
func (r *MMIORegion) Relocatable() bool { return false }
func (r *MMIORegion) Mergeable() bool   { return false }

func (r *MMIORegion) Read(addr Address, size int) ([]byte, error) {
	if !inRange(r.start, r.size, addr, uint64(size)) {
		return nil, &faults.RegionError{Op: "read", Addr: uint64(addr), Size: uint64(size), Msg: "out of region range"}
	}
	return r.device.Read(addr, size)
}

func (r *MMIORegion) Write(addr Address, size int, data []byte) error {
	if !inRange(r.start, r.size, addr, uint64(size)) {
		return &faults.RegionError{Op: "write", Addr: uint64(addr), Size: uint64(size), Msg: "out of region range"}
	}
	return r.device.Write(addr, size, data)
}

func (r *MMIORegion) Resize(newSize uint64) error {
	return &faults.RegionError{Op: "resize", Msg: "mmio regions are not resizable"}
}

func (r *MMIORegion) Relocate(newStart Address) error {
	return &faults.RegionError{Op: "relocate", Msg: "mmio regions are not relocatable"}
}

func (r *MMIORegion) Merge(other Region) error {
	return &faults.RegionError{Op: "merge", Msg: "mmio regions are not mergeable"}
}

func (r *MMIORegion) MergeBefore(other Region) error {
	return &faults.RegionError{Op: "merge", Msg: "mmio regions are not mergeable"}
}

func (r *MMIORegion) IsOverlap(other Region) bool        { return overlap(r, other) }
func (r *MMIORegion) IsHigherThan(other Region) bool     { return higherThan(r, other) }
func (r *MMIORegion) IsLowerThan(other Region) bool      { return lowerThan(r, other) }
func (r *MMIORegion) IsAlignLower(other Region) bool     { return alignLower(r, other) }
func (r *MMIORegion) IsAlignHigher(other Region) bool    { return alignHigher(r, other) }
func (r *MMIORegion) IsAddressHigher(addr Address) bool  { return uint64(r.start) >= uint64(addr) }
func (r *MMIORegion) IsAddressLower(addr Address) bool   { return uint64(r.End()) <= uint64(addr) }
