// Package desc owns the kernel's two fixed-size descriptor tables: the
// Global Descriptor Table (segmentation + per-task TSS descriptors +
// the syscall call gate) and the Interrupt Descriptor Table (256
// vectors). Both are flat arrays with hardware-mandated 8-byte entry
// layout, built and mutated the way the teacher's ape.go builds
// fixed-layout ELF/Mach-O/PE headers by hand with encoding/binary.
package desc

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"github.com/octane-os/octane32/internal/cpu"
	"github.com/octane-os/octane32/internal/ksync"
)

const (
	// GDTSize is the number of 8-byte slots in the table. Slot 0 is
	// the CPU-reserved null descriptor.
	GDTSize = 256

	entrySize = 8
)

// Fixed selectors, contracts per spec.md §6.
const (
	SelKernelCode cpu.Selector = 0x08
	SelKernelData cpu.Selector = 0x10
	SelSyscallGate cpu.Selector = 0x18
	// SelAppCode/SelAppData are allocated dynamically during task
	// manager init and recorded here once known.
)

// Access byte bits.
const (
	accPresent  = 1 << 7
	accDPL0     = 0 << 5
	accDPL3     = 3 << 5
	accSystem   = 1 << 4 // 1 = code/data, 0 = system (gate/TSS)
	accExecute  = 1 << 3
	accRW       = 1 << 1 // readable(code) / writable(data)
	accAccessed = 1 << 0

	typeTSSAvail = 0x9 // system-segment type for an available 32-bit TSS

	flagGranularity = 1 << 3 // limit scaled by 4KiB
	flag32Bit       = 1 << 2
)

// Table is the kernel's global descriptor table plus the bookkeeping
// needed to hand out and reclaim TSS slots.
type Table struct {
	mu      ksync.Mutex
	entries [GDTSize][entrySize]byte
	// access mirrors entries[i][5] for quick free/used scans without
	// re-decoding the packed descriptor.
	access [GDTSize]byte
}

var global Table

// Global returns the kernel's single GDT instance.
func Global() *Table { return &global }

// InstallSegment builds a flat code/data descriptor at slot with base,
// limit and the given access/flag bits, matching the hardware-mandated
// 8-byte layout. When limit exceeds 0xFFFFF the granularity bit is set
// and the stored limit is scaled down by 4KiB, per spec.md §4.1.
func (t *Table) InstallSegment(slot int, base, limit uint32, access byte, flags byte) {
	if limit > 0xFFFFF {
		flags |= flagGranularity
		limit /= 4096
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pack(slot, base, limit, access, flags)
	t.access[slot] = access
}

// InstallGate installs a call/interrupt gate at slot pointing at
// selector:offset with the given access byte. paramCount is only
// meaningful for call gates (IDT gates ignore it).
func (t *Table) InstallGate(slot int, selector cpu.Selector, offset uint32, access byte, paramCount byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e := &t.entries[slot]
	binary.LittleEndian.PutUint16(e[0:2], uint16(offset))
	binary.LittleEndian.PutUint16(e[2:4], uint16(selector))
	e[4] = paramCount & 0x1F
	e[5] = access
	binary.LittleEndian.PutUint16(e[6:8], uint16(offset>>16))
	t.access[slot] = access
}

func (t *Table) pack(slot int, base, limit uint32, access, flags byte) {
	e := &t.entries[slot]
	binary.LittleEndian.PutUint16(e[0:2], uint16(limit))
	e[2] = byte(base)
	e[3] = byte(base >> 8)
	e[4] = byte(base >> 16)
	e[5] = access
	e[6] = byte(limit>>16)&0x0F | (flags << 4)
	e[7] = byte(base >> 24)
}

// AllocSlot finds the first slot whose access byte is zero ("free"),
// marks it present and returns its selector (index scaled by 8, RPL 0
// for TSS descriptors). Excluded from the fixed slots 0 through the
// last statically-installed segment.
func (t *Table) AllocSlot() (cpu.Selector, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := firstDynamicSlot; i < GDTSize; i++ {
		if t.access[i] == 0 {
			t.access[i] = accPresent // provisional mark; caller installs the real TSS descriptor next
			return cpu.Selector(i * entrySize), nil
		}
	}
	return 0, fmt.Errorf("desc: no free GDT slot")
}

// FreeSlot zeroes the access byte, marking slot free again.
func (t *Table) FreeSlot(sel cpu.Selector) {
	t.mu.Lock()
	defer t.mu.Unlock()
	i := int(sel) / entrySize
	t.access[i] = 0
	t.entries[i] = [entrySize]byte{}
}

// firstDynamicSlot is one past the last statically-installed segment:
// null, kernel code, kernel data, syscall gate, app code, app data.
const firstDynamicSlot = 6

// Base returns the linear address of the table's backing array, for
// building the {limit, base} pseudo-descriptor LGDT expects.
func (t *Table) Base() uintptr {
	return uintptr(unsafe.Pointer(&t.entries[0]))
}

// Limit is the byte size of the table minus one, as LGDT expects.
func (t *Table) Limit() uint16 {
	return uint16(len(t.entries)*entrySize - 1)
}

// Pseudo packs {limit, base} into the 6-byte form LoadGDTR/LoadIDTR
// dereference.
type Pseudo struct {
	Limit uint16
	Base  uint32
}

// PseudoPtr returns a pointer to a freshly built Pseudo descriptor for
// this table, suitable for cpu.LoadGDTR.
func (t *Table) PseudoPtr() *Pseudo {
	return &Pseudo{Limit: t.Limit(), Base: uint32(t.Base())}
}
