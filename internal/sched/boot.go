package sched

import (
	"github.com/octane-os/octane32/internal/desc"
	"github.com/octane-os/octane32/internal/mm"
)

// BootFirstTask builds the specially-constructed first task (spec.md
// §4.3): its image is already linked into the kernel binary, so
// unlike Execve there is no file to read — the caller (cmd/kernel)
// has already copied image into a fresh address space at entry and
// hands us the resulting mapping plus stack bounds.
//
// The "simulated interrupt return" the spec describes (push
// SS/ESP/EFLAGS/CS/EIP and execute the return-from-interrupt
// instruction to drop CPL) is exactly what hardware task switching
// already does when Dispatch far-jumps to this task's TSS for the
// first time: the TSS's saved CS/SS carry RPL 3, so the processor
// takes the ring transition as part of the jump. Building a one-off
// assembly iret trampoline is therefore unnecessary here; it is the
// same mechanism used for every later task switch, not a special case.
func BootFirstTask(app desc.AppSelectors, as *mm.AddressSpace, kernelStackTop, userESP, userEIP, heapStart uint32) (*TCB, error) {
	t, err := allocTask("init")
	if err != nil {
		return nil, err
	}
	t.Parent = -1
	t.AS = as
	t.Heap = mm.Heap{Start: heapStart, End: heapStart}

	tss, sel, err := newUserTSS(kernelStackTop, app, as, userESP, userEIP)
	if err != nil {
		freeTask(t)
		return nil, err
	}
	t.TSS = tss
	t.TSSSelector = uint16(sel)
	t.SliceTicks = DefaultSlice
	t.State = Ready
	state.ready.pushBack(t)
	state.initPID = t.PID

	return t, nil
}
