package syscall

import (
	"github.com/octane-os/octane32/internal/sched"
	"github.com/octane-os/octane32/internal/trap"
)

// InstallEntryPoints wires the int 0x80 software interrupt, one of the
// two syscall entry paths spec.md §4.1/§4.6 describes, handled like
// any other trap.Frame-based vector. The other path, the call gate, is
// installed by desc.InstallKernelSegments from cmd/kernel; its
// far-call stub lives in syscall_386.s and calls gateDispatch directly
// rather than going through trap.Dispatch (a call gate carries no
// vector number for trap.Frame to decode).
func InstallEntryPoints() {
	trap.Install(trap.VectorSyscall, handleInt80)
}

// handleInt80 implements the register convention spec.md §4.6 fixes:
// eax is the call id, ebx/ecx/edx/esi/edi are a0..a4, and the result
// is returned in eax. The calling task's saved context is recorded
// before dispatch so sys_fork/sys_execve can seed a child or replace
// the running image from it.
func handleInt80(f *trap.Frame) {
	t := sched.Current()
	if t == nil {
		return
	}
	t.SavedContext = contextFromFrame(t, f)
	t.KernelStackTop = currentKernelStackTop(t)

	f.EAX = uint32(Dispatch(t, int(f.EAX), f.EBX, f.ECX, f.EDX, f.ESI, f.EDI))
}

// contextFromFrame copies the interrupted task's register state out of
// the trap frame into the sched.Context shape Fork/Execve consume,
// translating trap.Frame's assembly-dictated field order into the
// hardware-task-switch order a TSS load expects.
func contextFromFrame(t *sched.TCB, f *trap.Frame) sched.Context {
	return sched.Context{
		EFlags: f.EFlags,
		EDI:    f.EDI, ESI: f.ESI, EBP: f.EBP,
		EBX: f.EBX, EDX: f.EDX, ECX: f.ECX, EAX: f.EAX,
		EIP: f.EIP,
		CS:  f.CS,
		ESP: f.ESP3, SS: f.SS3,
	}
}

// currentKernelStackTop reads the kernel stack pointer out of the
// task's own TSS rather than the trap frame: by the time handleInt80
// runs, the CPU has already switched onto that stack (ESP0 in the
// TSS), and the frame only describes the interrupted ring-3 context.
func currentKernelStackTop(t *sched.TCB) uint32 {
	if t.TSS == nil {
		return 0
	}
	return t.TSS.ESP0
}
