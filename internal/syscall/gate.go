package syscall

import (
	"reflect"
	"unsafe"

	"github.com/octane-os/octane32/internal/sched"
)

// gateEntry is syscall_386.s's far-call landing point; internal/desc
// installs its address into the kernel GDT's call-gate slot.
func gateEntry()

// GateEntryAddr returns gateEntry's kernel-code-segment offset, for
// internal/desc.InstallKernelSegments's gateHandler parameter.
func GateEntryAddr() uint32 { return uint32(reflect.ValueOf(gateEntry).Pointer()) }

// gateRegs mirrors syscall_386.s's push order, AX (the call id and,
// after gateDispatch returns, the result) nearest the stack pointer.
type gateRegs struct {
	AX, CX, DX, BX, BP, SI, DI uint32
}

// gateDispatch is called from assembly with a pointer to the pushed
// registers; its return value is written back over the saved AX so
// RETF hands the caller its result in eax, the same convention
// handleInt80 uses for the int 0x80 path.
func gateDispatch(regsPtr uintptr) uint32 {
	regs := (*gateRegs)(unsafe.Pointer(regsPtr))

	t := sched.Current()
	if t == nil {
		return uint32(EINVAL)
	}
	t.SavedContext = sched.Context{
		EAX: regs.AX, EBX: regs.BX, ECX: regs.CX, EDX: regs.DX,
		ESI: regs.SI, EDI: regs.DI, EBP: regs.BP,
	}
	if t.TSS != nil {
		t.KernelStackTop = t.TSS.ESP0
	}

	return uint32(Dispatch(t, int(regs.AX), regs.BX, regs.CX, regs.DX, regs.SI, regs.DI))
}
