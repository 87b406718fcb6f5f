// Package cpu provides the low-level IA-32 primitives the rest of the
// kernel is built on: port I/O, control-register access, interrupt
// enable/disable, and the table-register loads that bring up
// segmentation and paging.
//
// Every function in this file except EnterProtection and
// LeaveProtection is a thin Go declaration backed by hand written
// Plan 9 assembly in cpu_386.s, the same shape the teacher uses for
// futex/clone in runtime/os_cosmo.go: a //go:nosplit, //go:noescape
// leaf with no Go body. Those two are small Go wrappers over them.
package cpu

// Selector is a GDT/LDT selector: bits [15:3] index, bit 2 table
// indicator, bits [1:0] requested privilege level.
type Selector uint16

// Flags is the EFLAGS register.
type Flags uint32

const (
	FlagsInterruptEnable Flags = 1 << 9
)

//go:nosplit
//go:noescape
func Inb(port uint16) uint8

//go:nosplit
//go:noescape
func Outb(port uint16, val uint8)

//go:nosplit
//go:noescape
func Inw(port uint16) uint16

//go:nosplit
//go:noescape
func Outw(port uint16, val uint16)

//go:nosplit
//go:noescape
func Inl(port uint16) uint32

//go:nosplit
//go:noescape
func Outl(port uint16, val uint32)

//go:nosplit
//go:noescape
func ReadCR0() uint32

//go:nosplit
//go:noescape
func WriteCR0(v uint32)

//go:nosplit
//go:noescape
func ReadCR2() uint32

//go:nosplit
//go:noescape
func ReadCR3() uint32

//go:nosplit
//go:noescape
func WriteCR3(v uint32)

//go:nosplit
//go:noescape
func ReadCR4() uint32

//go:nosplit
//go:noescape
func WriteCR4(v uint32)

//go:nosplit
//go:noescape
func ReadEFlags() Flags

// Cli disables maskable interrupts and returns nothing; callers that
// need to restore the prior state should capture ReadEFlags first.
//
//go:nosplit
//go:noescape
func Cli()

//go:nosplit
//go:noescape
func Sti()

//go:nosplit
//go:noescape
func Halt()

// LoadGDTR loads the GDTR from a packed {limit, base} pseudo-descriptor
// at ptr and reloads every segment register from the fixed kernel
// selectors.
//
//go:nosplit
//go:noescape
func LoadGDTR(ptr uintptr)

//go:nosplit
//go:noescape
func LoadIDTR(ptr uintptr)

// LoadTR loads the task register with sel, the selector of the
// current task's TSS descriptor.
//
//go:nosplit
//go:noescape
func LoadTR(sel Selector)

// FarJump performs a far jump to sel:0, which on IA-32 with sel
// pointing at a TSS descriptor triggers a hardware task switch: the
// CPU saves the outgoing task's state into its TSS and loads the
// incoming task's state (including CR3) from the TSS sel addresses.
//
//go:nosplit
//go:noescape
func FarJump(sel Selector)

// EnterProtection disables interrupts and returns the prior EFLAGS so
// LeaveProtection can restore them without assuming they were set.
//
//go:nosplit
func EnterProtection() Flags {
	f := ReadEFlags()
	Cli()
	return f
}

//go:nosplit
func LeaveProtection(saved Flags) {
	if saved&FlagsInterruptEnable != 0 {
		Sti()
	}
}
