package sched

import (
	"unsafe"

	"github.com/octane-os/octane32/internal/cpu"
	"github.com/octane-os/octane32/internal/desc"
	"github.com/octane-os/octane32/internal/mm"
)

// newKernelTSS builds a CPL-0 task: CS/DS/SS are the flat kernel
// segments, ESP/EIP are given by the caller, CR3 is whatever is
// currently loaded (the kernel's own directory), and EFlags keeps
// interrupts enabled so the timer can still preempt this task.
func newKernelTSS(stackTop, eip uint32) (*desc.TSS, cpu.Selector, error) {
	tss := &desc.TSS{
		ESP0: stackTop,
		SS0:  uint16(desc.SelKernelData),
		CR3:  cpu.ReadCR3(),
		EIP:  eip,
		ESP:  stackTop,
		EFlags: uint32(cpu.FlagsInterruptEnable),
		CS:   uint16(desc.SelKernelCode),
		DS:   uint16(desc.SelKernelData),
		ES:   uint16(desc.SelKernelData),
		FS:   uint16(desc.SelKernelData),
		GS:   uint16(desc.SelKernelData),
		SS:   uint16(desc.SelKernelData),
	}
	sel, err := desc.NewTSSDescriptor(state.GDT, tss, tssBase(tss))
	if err != nil {
		return nil, 0, err
	}
	return tss, sel, nil
}

// newUserTSS builds a CPL-3 task's TSS: its ring-0 stack (ESP0/SS0)
// is what hardware task switching loads on the next privilege-raising
// interrupt/exception taken while this task runs; ESP/CS/SS/EIP are
// the CPL-3 entry context.
func newUserTSS(kernelStackTop uint32, app desc.AppSelectors, as *mm.AddressSpace, userESP, userEIP uint32) (*desc.TSS, cpu.Selector, error) {
	const rpl3 = 3
	tss := &desc.TSS{
		ESP0:   kernelStackTop,
		SS0:    uint16(desc.SelKernelData),
		CR3:    as.Dir,
		EIP:    userEIP,
		ESP:    userESP,
		EFlags: uint32(cpu.FlagsInterruptEnable),
		CS:     uint16(app.Code) | rpl3,
		DS:     uint16(app.Data) | rpl3,
		ES:     uint16(app.Data) | rpl3,
		FS:     uint16(app.Data) | rpl3,
		GS:     uint16(app.Data) | rpl3,
		SS:     uint16(app.Data) | rpl3,
	}
	sel, err := desc.NewTSSDescriptor(state.GDT, tss, tssBase(tss))
	if err != nil {
		return nil, 0, err
	}
	return tss, sel, nil
}

func tssBase(tss *desc.TSS) uint32 {
	return uint32(uintptr(unsafe.Pointer(tss)))
}
