package memory_test

import (
	"encoding/binary"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"emurv/memory"
)

func TestMemory(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Memory Suite")
}

func newMem() *memory.Memory {
	mem, err := memory.New(memory.Config{
		MemoryStart:       0,
		MemorySize:        1 << 20,
		DefaultRegionSize: 4096,
	})
	Expect(err).NotTo(HaveOccurred())
	return mem
}

var _ = Describe("Memory", func() {
	var mem *memory.Memory

	BeforeEach(func() {
		mem = newMem()
	})

	Describe("Align", func() {
		It("leaves an already-aligned value untouched", func() {
			Expect(memory.Align(uint64(4096), uint64(4096))).To(Equal(uint64(4096)))
		})

		It("rounds up to the next multiple", func() {
			Expect(memory.Align(uint64(4097), uint64(4096))).To(Equal(uint64(8192)))
		})
	})

	Describe("construction", func() {
		It("rejects a defaultRegionSize that is not a power of two", func() {
			_, err := memory.New(memory.Config{MemoryStart: 0, MemorySize: 4096, DefaultRegionSize: 100})
			Expect(err).To(HaveOccurred())
		})

		It("rejects a memoryStart that is not a multiple of defaultRegionSize", func() {
			_, err := memory.New(memory.Config{MemoryStart: 1, MemorySize: 4096, DefaultRegionSize: 4096})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("write-allocation on an empty address space", func() {
		It("creates a single aligned region covering the first write", func() {
			err := mem.WriteByte(0x123, 0xAB)
			Expect(err).NotTo(HaveOccurred())

			regions := mem.Regions()
			Expect(regions).To(HaveLen(1))
			Expect(uint64(regions[0].Start())).To(Equal(uint64(0)))
			Expect(regions[0].Size()).To(Equal(uint64(4096)))

			v, err := mem.ReadByte(0x123)
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(byte(0xAB)))
		})
	})

	Describe("read-after-write at every access width", func() {
		It("round-trips a word", func() {
			Expect(mem.WriteWord(0x100, 0xDEADBEEF, binary.LittleEndian)).To(Succeed())
			v, err := mem.ReadWord(0x100, binary.LittleEndian)
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(uint32(0xDEADBEEF)))
		})

		It("round-trips a halfword", func() {
			Expect(mem.WriteHalfWord(0x200, 0xBEEF, binary.LittleEndian)).To(Succeed())
			v, err := mem.ReadHalfWord(0x200, binary.LittleEndian)
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(uint16(0xBEEF)))
		})

		It("round-trips a byte", func() {
			Expect(mem.WriteByte(0x300, 0x7F)).To(Succeed())
			v, err := mem.ReadByte(0x300)
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(byte(0x7F)))
		})
	})

	Describe("alignment and size validation", func() {
		It("rejects a misaligned word access", func() {
			_, err := mem.ReadWord(0x1, binary.LittleEndian)
			Expect(err).To(HaveOccurred())
		})

		It("rejects an unsupported size", func() {
			_, err := mem.Read(0, 3)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("region extension by adjacent writes", func() {
		It("extends the existing region instead of creating a new one when writes stay close", func() {
			Expect(mem.WriteByte(0, 1)).To(Succeed())
			Expect(mem.WriteByte(4097, 2)).To(Succeed())

			regions := mem.Regions()
			Expect(regions).To(HaveLen(1))
			Expect(regions[0].Size()).To(BeNumerically(">", 4096))
		})
	})

	Describe("region merging", func() {
		It("merges a new region into both of its mergeable neighbors in one insertion", func() {
			Expect(mem.AddRegion(memory.NewNormalRegion(0, 4096))).To(Succeed())
			Expect(mem.AddRegion(memory.NewNormalRegion(8192, 4096))).To(Succeed())
			Expect(mem.AddRegion(memory.NewNormalRegion(4096, 4096))).To(Succeed())

			regions := mem.Regions()
			Expect(regions).To(HaveLen(1))
			Expect(uint64(regions[0].Start())).To(Equal(uint64(0)))
			Expect(regions[0].Size()).To(Equal(uint64(3 * 4096)))
		})

		It("rejects AddRegion for an overlapping region", func() {
			Expect(mem.AddRegion(memory.NewNormalRegion(0, 8192))).To(Succeed())
			err := mem.AddRegion(memory.NewNormalRegion(4096, 4096))
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("resize invariants on NormalRegion", func() {
		It("always succeeds when growing", func() {
			r := memory.NewNormalRegion(0, 4096)
			Expect(r.Resize(8192)).To(Succeed())
			Expect(r.Size()).To(Equal(uint64(8192)))
		})

		It("always fails when shrinking", func() {
			r := memory.NewNormalRegion(0, 4096)
			Expect(r.Resize(2048)).To(HaveOccurred())
		})
	})

	Describe("MMIO regions", func() {
		It("rejects Merge, Resize, and Relocate on a fixed region", func() {
			dev := fakeDevice{}
			r := memory.NewMMIORegion("fake", 0x10000000, 0x100, dev)
			Expect(r.Resize(0x200)).To(HaveOccurred())
			Expect(r.Relocate(0x20000000)).To(HaveOccurred())
			Expect(r.Merge(memory.NewNormalRegion(0x10000100, 0x100))).To(HaveOccurred())
		})

		It("fails write-allocation when a non-resizable region sits flush at the new region's boundary", func() {
			mem2, err := memory.New(memory.Config{MemoryStart: 0, MemorySize: 1 << 20, DefaultRegionSize: 4096})
			Expect(err).NotTo(HaveOccurred())
			Expect(mem2.AddRegion(memory.NewMMIORegion("fake", 4096, 100, fakeDevice{}))).To(Succeed())

			err = mem2.WriteByte(8000, 1)
			Expect(err).To(HaveOccurred())
		})

		It("fails write-allocation without overflowing when a non-resizable region starts before the new region's aligned start", func() {
			mem2, err := memory.New(memory.Config{MemoryStart: 0, MemorySize: 1 << 20, DefaultRegionSize: 4096})
			Expect(err).NotTo(HaveOccurred())
			Expect(mem2.AddRegion(memory.NewMMIORegion("fake", 0, 5000, fakeDevice{}))).To(Succeed())

			err = mem2.WriteByte(6000, 1)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).NotTo(BeEmpty())
		})
	})
})

type fakeDevice struct{}

func (fakeDevice) Read(addr memory.Address, size int) ([]byte, error) {
	return make([]byte, size), nil
}

func (fakeDevice) Write(addr memory.Address, size int, data []byte) error {
	return nil
}
