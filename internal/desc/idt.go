package desc

import (
	"unsafe"

	"github.com/octane-os/octane32/internal/cpu"
)

// IDTSize is the number of vectors. Slot n describes vector n.
const IDTSize = 256

// IDT gate access bytes.
const (
	GateInterrupt32 byte = accPresent | 0xE // present, 32-bit interrupt gate, DPL0
	GateTrap32      byte = accPresent | 0xF // present, 32-bit trap gate, DPL0
	GateUser32      byte = accPresent | accDPL3 | 0xE
)

// IDT is the interrupt descriptor table. It reuses Table's packed
// 8-byte-entry storage and gate-installation routine; spec.md draws no
// distinction between a call gate and an interrupt/trap gate at the
// byte layout level (§4.1/§4.5), only in which table holds it.
type IDT struct {
	Table
}

var globalIDT IDT

// GlobalIDT returns the kernel's single IDT instance.
func GlobalIDT() *IDT { return &globalIDT }

// InstallHandler routes vector to the given kernel-code-segment
// handler entry point with the given gate type.
func (d *IDT) InstallHandler(vector int, handler uint32, gateAccess byte) {
	d.InstallGate(vector, SelKernelCode, handler, gateAccess, 0)
}

// InstallSoftwareInterrupt wires the user-callable 0x80 vector used as
// the alternative syscall entry (spec.md §4.1/§6).
func (d *IDT) InstallSoftwareInterrupt(vector int, handler uint32) {
	d.InstallHandler(vector, handler, GateUser32)
}

// Load installs the GDTR/IDTR, the final step of bringing the CPU out
// of its bootloader-provided state and into this kernel's own tables.
func Load(gdt *Table, idt *IDT) {
	cpu.LoadGDTR(uintptr(unsafe.Pointer(gdt.PseudoPtr())))
	cpu.LoadIDTR(uintptr(unsafe.Pointer(idt.Table.PseudoPtr())))
}
