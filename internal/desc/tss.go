package desc

import "github.com/octane-os/octane32/internal/cpu"

// TSS is the hardware 32-bit task-state structure. Its field order and
// widths are fixed by the IA-32 architecture; hardware task switching
// (a far jump to a TSS-descriptor selector) reads and writes every
// field here directly, which is why it cannot be reshaped to a more
// idiomatic Go layout.
type TSS struct {
	PrevTask  uint16
	_         uint16
	ESP0      uint32
	SS0       uint16
	_         uint16
	ESP1      uint32
	SS1       uint16
	_         uint16
	ESP2      uint32
	SS2       uint16
	_         uint16
	CR3       uint32
	EIP       uint32
	EFlags    uint32
	EAX, ECX, EDX, EBX uint32
	ESP, EBP, ESI, EDI uint32
	ES, _  uint16
	CS, _  uint16
	SS, _  uint16
	DS, _  uint16
	FS, _  uint16
	GS, _  uint16
	LDT, _ uint16
	TrapOnSwitch uint16
	IOMapBase    uint16
}

// NewTSSDescriptor allocates a GDT slot and installs a 32-bit
// available-TSS system descriptor pointing at tss, returning the
// selector hardware task switches and LTR use to address it.
func NewTSSDescriptor(gdt *Table, tss *TSS, base uint32) (cpu.Selector, error) {
	sel, err := gdt.AllocSlot()
	if err != nil {
		return 0, err
	}
	const limit = uint32(unsafeSizeofTSS - 1)
	gdt.InstallSegment(int(sel)/entrySize, base, limit, accPresent|accDPL0|typeTSSAvail, 0)
	return sel, nil
}

// unsafeSizeofTSS avoids importing unsafe just for a constant; kept in
// sync with the TSS struct by the accompanying test.
const unsafeSizeofTSS = 104

// FreeTSSDescriptor releases sel's GDT slot, the counterpart to
// NewTSSDescriptor. Without it, every task that exits or fails to
// fork permanently pins one of the table's dynamic slots.
func FreeTSSDescriptor(gdt *Table, sel cpu.Selector) {
	gdt.FreeSlot(sel)
}
