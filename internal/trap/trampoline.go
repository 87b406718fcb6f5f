package trap

import "reflect"

// The handful of IDT vectors this kernel gives a dedicated assembly
// stub (trap_386.s): the two decoded exceptions, the two that crash
// any hosted program early enough to be worth a named stub rather
// than the undecoded catch-all, and the PIT's remapped IRQ0.
func isr0()
func isr6()
func isr13()
func isr14()
func isr32()
func isr128()

// VectorSyscall is the software-interrupt syscall entry (spec.md
// §4.1/§4.6's "int 0x80" alternative to the call gate).
const VectorSyscall = 128

// SyscallStubAddr returns isr128's entry offset, for internal/desc to
// install as a user-reachable software interrupt gate.
func SyscallStubAddr() uint32 { return funcAddr(isr128) }

// VectorTimer is where InitPIC (pic.go) remaps IRQ0 to (spec.md
// §4.8): past the 32 reserved CPU exception vectors.
const VectorTimer = 32

// StubAddrs returns the kernel-code-segment offsets of this package's
// hand-written entry stubs, keyed by vector, for internal/desc to
// install into the IDT at boot. funcAddr's reflect-based resolution is
// the same trick internal/sched uses for the idle task's entry point:
// Go doesn't expose a raw function pointer operator, but a compiled
// function value's underlying code address is exactly what the
// hardware needs for a gate's offset field.
func StubAddrs() map[int]uint32 {
	return map[int]uint32{
		0:           funcAddr(isr0),
		6:           funcAddr(isr6),
		VectorGP:    funcAddr(isr13),
		VectorPF:    funcAddr(isr14),
		VectorTimer: funcAddr(isr32),
	}
}

func funcAddr(fn func()) uint32 {
	return uint32(reflect.ValueOf(fn).Pointer())
}
