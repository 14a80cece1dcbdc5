// Package memory implements the sparse, region-based physical address
// space: a mix of write-allocated NormalRegions and fixed MMIORegions,
// with alignment enforcement and region merging/resizing so that
// emulator memory approximates an unbounded flat address space without
// actually allocating one.
package memory

import (
	"encoding/binary"
	"sort"

	"emurv/faults"
)

// Config holds the parameters validated at Memory construction.
type Config struct {
	MemoryStart      Address
	MemorySize       uint64
	DefaultRegionSize uint64
}

// Memory is an addressable byte store composed of typed regions. It is
// constructed empty; regions are appended by explicit AddRegion or
// implicitly by write-allocation in Write.
type Memory struct {
	memoryStart       Address
	memorySize        uint64
	defaultRegionSize uint64
	regions           []Region
}

// New validates cfg against the invariants in the data model (MemorySize
// and DefaultRegionSize positive, DefaultRegionSize a power of two,
// MemoryStart and MemorySize multiples of DefaultRegionSize; MemoryStart
// may be zero) and returns an empty Memory.
func New(cfg Config) (*Memory, error) {
	if cfg.MemorySize == 0 || cfg.DefaultRegionSize == 0 {
		return nil, &faults.MemoryError{Op: "new", Msg: "memorySize and defaultRegionSize must be positive"}
	}
	if !isPowerOfTwo(cfg.DefaultRegionSize) {
		return nil, &faults.MemoryError{Op: "new", Msg: "defaultRegionSize must be a power of two"}
	}
	if uint64(cfg.MemoryStart)%cfg.DefaultRegionSize != 0 {
		return nil, &faults.MemoryError{Op: "new", Msg: "memoryStart must be a multiple of defaultRegionSize"}
	}
	if cfg.MemorySize%cfg.DefaultRegionSize != 0 {
		return nil, &faults.MemoryError{Op: "new", Msg: "memorySize must be a positive multiple of defaultRegionSize"}
	}
	return &Memory{
		memoryStart:       cfg.MemoryStart,
		memorySize:        cfg.MemorySize,
		defaultRegionSize: cfg.DefaultRegionSize,
	}, nil
}

// Regions returns a defensive copy of the current region list, sorted
// by Start(). Intended for diagnostics and tests, not for mutation.
func (m *Memory) Regions() []Region {
	out := make([]Region, len(m.regions))
	copy(out, m.regions)
	return out
}

// isRegionValid reports whether r lies entirely within
// [memoryStart, memoryStart+memorySize). This corrects the source bug
// flagged in the design notes, which compared regionStart against
// memorySize alone instead of the full range.
func (m *Memory) isRegionValid(r Region) bool {
	lower := uint64(m.memoryStart)
	upper := lower + m.memorySize
	return uint64(r.Start()) >= lower && uint64(r.End()) <= upper
}

// AddRegion inserts r maintaining the sorted/non-overlapping/aligned
// invariants. If r is adjacent to an existing mergeable region and both
// are mergeable, the two are merged into a single region instead of
// inserted as a separate entry.
func (m *Memory) AddRegion(r Region) error {
	if !m.isRegionValid(r) {
		return &faults.RegionError{Op: "add", Addr: uint64(r.Start()), Size: r.Size(), Msg: "region lies outside memory bounds"}
	}
	if uint64(r.Start())%m.defaultRegionSize != 0 {
		return &faults.RegionError{Op: "add", Addr: uint64(r.Start()), Msg: "region start is not aligned to defaultRegionSize"}
	}

	idx := sort.Search(len(m.regions), func(i int) bool {
		return uint64(m.regions[i].Start()) >= uint64(r.Start())
	})

	if idx > 0 && m.regions[idx-1].IsOverlap(r) {
		return &faults.RegionError{Op: "add", Addr: uint64(r.Start()), Size: r.Size(), Msg: "region overlaps an existing region"}
	}
	if idx < len(m.regions) && m.regions[idx].IsOverlap(r) {
		return &faults.RegionError{Op: "add", Addr: uint64(r.Start()), Size: r.Size(), Msg: "region overlaps an existing region"}
	}

	cur := r
	leftIdx := idx - 1
	rightIdx := idx

	if leftIdx >= 0 {
		prev := m.regions[leftIdx]
		if prev.Mergeable() && cur.Mergeable() && prev.IsAlignLower(cur) {
			if err := prev.Merge(cur); err != nil {
				return err
			}
			cur = prev
			m.regions = append(m.regions[:leftIdx], m.regions[leftIdx+1:]...)
			idx = leftIdx
			rightIdx = idx
		}
	}

	if rightIdx < len(m.regions) {
		next := m.regions[rightIdx]
		if next.Mergeable() && cur.Mergeable() && cur.IsAlignLower(next) {
			if err := next.MergeBefore(cur); err != nil {
				return err
			}
			cur = next
			m.regions = append(m.regions[:rightIdx], m.regions[rightIdx+1:]...)
			idx = rightIdx
		}
	}

	m.regions = append(m.regions, nil)
	copy(m.regions[idx+1:], m.regions[idx:])
	m.regions[idx] = cur
	return nil
}

// FindRegion returns the unique region fully containing
// [addr, addr+size). Cross-region accesses are not supported.
func (m *Memory) FindRegion(addr Address, size uint64) (Region, error) {
	idx := sort.Search(len(m.regions), func(i int) bool {
		return uint64(m.regions[i].Start()) > uint64(addr)
	})
	if idx == 0 {
		return nil, &faults.RegionError{Op: "find", Addr: uint64(addr), Size: size, Msg: "no region contains this address"}
	}
	r := m.regions[idx-1]
	if !inRange(r.Start(), r.Size(), addr, size) {
		return nil, &faults.RegionError{Op: "find", Addr: uint64(addr), Size: size, Msg: "no region contains this access"}
	}
	return r, nil
}

func validSize(size uint64) bool {
	switch size {
	case 1, 2, 4, 8:
		return true
	default:
		return false
	}
}

// Read requires size in {1,2,4,8} and addr mod size == 0, and delegates
// to the containing region.
func (m *Memory) Read(addr Address, size uint64) ([]byte, error) {
	if !validSize(size) {
		return nil, &faults.MemoryError{Op: "read", Addr: uint64(addr), Size: size, Msg: "invalid size"}
	}
	if uint64(addr)%size != 0 {
		return nil, &faults.MemoryError{Op: "read", Addr: uint64(addr), Size: size, Msg: "misaligned access"}
	}
	r, err := m.FindRegion(addr, size)
	if err != nil {
		return nil, err
	}
	return r.Read(addr, int(size))
}

// Write requires the same alignment/size rules as Read. If no region
// contains the target, Write write-allocates a NormalRegion so the
// write can proceed, per the allocation policy in the component design.
func (m *Memory) Write(addr Address, size uint64, data []byte) error {
	if !validSize(size) {
		return &faults.MemoryError{Op: "write", Addr: uint64(addr), Size: size, Msg: "invalid size"}
	}
	if uint64(addr)%size != 0 {
		return &faults.MemoryError{Op: "write", Addr: uint64(addr), Size: size, Msg: "misaligned access"}
	}
	r, err := m.FindRegion(addr, size)
	if err != nil {
		if allocErr := m.writeAllocate(addr); allocErr != nil {
			return allocErr
		}
		r, err = m.FindRegion(addr, size)
		if err != nil {
			return err
		}
	}
	return r.Write(addr, int(size), data)
}

// writeAllocate synthesizes a NormalRegion covering addr, following the
// ordered allocation policy: extend an adjacent resizable region if one
// is close enough, otherwise carve out a new defaultRegionSize-aligned
// region (shrinking it to abut a blocking region if necessary).
func (m *Memory) writeAllocate(addr Address) error {
	alignedStart := alignDown(addr, Address(m.defaultRegionSize))

	if len(m.regions) == 0 {
		return m.AddRegion(NewNormalRegion(alignedStart, m.defaultRegionSize))
	}

	var closest Region
	for _, r := range m.regions {
		if uint64(r.End()) <= uint64(addr) {
			if closest == nil || uint64(r.End()) > uint64(closest.End()) {
				closest = r
			}
		}
	}
	if closest != nil && closest.Resizable() && uint64(addr)-uint64(closest.End()) < m.defaultRegionSize {
		newEnd := alignedStart + Address(m.defaultRegionSize)
		newSize := uint64(newEnd) - uint64(closest.Start())
		return closest.Resize(newSize)
	}

	farEnd := alignedStart + Address(m.defaultRegionSize)
	var blocking Region
	for _, r := range m.regions {
		if uint64(alignedStart) < uint64(r.End()) && uint64(farEnd) > uint64(r.Start()) {
			blocking = r
			break
		}
	}
	if blocking != nil {
		if uint64(blocking.Start()) <= uint64(alignedStart) {
			return &faults.MemoryError{Op: "write-allocate", Addr: uint64(addr), Msg: "a non-resizable region blocks allocation at the boundary"}
		}
		newSize := uint64(blocking.Start()) - uint64(alignedStart)
		return m.AddRegion(NewNormalRegion(alignedStart, newSize))
	}

	return m.AddRegion(NewNormalRegion(alignedStart, m.defaultRegionSize))
}

// ReadByte, ReadHalfWord, ReadWord, and ReadDoubleWord fix size to
// {1,2,4,8} respectively.
func (m *Memory) ReadByte(addr Address) (uint8, error) {
	b, err := m.Read(addr, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (m *Memory) ReadHalfWord(addr Address, order binary.ByteOrder) (uint16, error) {
	b, err := m.Read(addr, 2)
	if err != nil {
		return 0, err
	}
	return order.Uint16(b), nil
}

func (m *Memory) ReadWord(addr Address, order binary.ByteOrder) (uint32, error) {
	b, err := m.Read(addr, 4)
	if err != nil {
		return 0, err
	}
	return order.Uint32(b), nil
}

func (m *Memory) ReadDoubleWord(addr Address, order binary.ByteOrder) (uint64, error) {
	b, err := m.Read(addr, 8)
	if err != nil {
		return 0, err
	}
	return order.Uint64(b), nil
}

// WriteByte, WriteHalfWord, WriteWord, and WriteDoubleWord fix size to
// {1,2,4,8} respectively, mirroring the Read* convenience forms.
func (m *Memory) WriteByte(addr Address, v uint8) error {
	return m.Write(addr, 1, []byte{v})
}

func (m *Memory) WriteHalfWord(addr Address, v uint16, order binary.ByteOrder) error {
	b := make([]byte, 2)
	order.PutUint16(b, v)
	return m.Write(addr, 2, b)
}

func (m *Memory) WriteWord(addr Address, v uint32, order binary.ByteOrder) error {
	b := make([]byte, 4)
	order.PutUint32(b, v)
	return m.Write(addr, 4, b)
}

func (m *Memory) WriteDoubleWord(addr Address, v uint64, order binary.ByteOrder) error {
	b := make([]byte, 8)
	order.PutUint64(b, v)
	return m.Write(addr, 8, b)
}
