package desc

import "github.com/octane-os/octane32/internal/cpu"

// AppSelectors holds the CPL-3 code/data selectors allocated during
// task-manager init (spec.md §6: "Application code/data are allocated
// dynamically during task-manager init").
type AppSelectors struct {
	Code cpu.Selector
	Data cpu.Selector
}

// InstallKernelSegments builds the five statically-known GDT entries:
// null (left zero), kernel code, kernel data, the syscall call gate,
// and returns the two CPL-3 application selectors it also installs at
// the next two fixed slots so firstDynamicSlot can start past them.
//
// gateHandler is the kernel-code-segment offset of the syscall
// dispatch entry point; gateParamCount is fixed at five per spec.md
// §4.1/§4.6.
func InstallKernelSegments(gdt *Table, gateHandler uint32) AppSelectors {
	const flatLimit = 0xFFFFFFFF

	gdt.InstallSegment(int(SelKernelCode)/entrySize, 0, flatLimit,
		accPresent|accDPL0|accSystem|accExecute|accRW, flag32Bit)
	gdt.InstallSegment(int(SelKernelData)/entrySize, 0, flatLimit,
		accPresent|accDPL0|accSystem|accRW, flag32Bit)

	gdt.InstallGate(int(SelSyscallGate)/entrySize, SelKernelCode, gateHandler,
		accPresent|accDPL3|0xC /* 32-bit call gate */, 5)

	app := AppSelectors{
		Code: cpu.Selector(4 * entrySize),
		Data: cpu.Selector(5 * entrySize),
	}
	gdt.InstallSegment(int(app.Code)/entrySize, 0, flatLimit,
		accPresent|accDPL3|accSystem|accExecute|accRW, flag32Bit)
	gdt.InstallSegment(int(app.Data)/entrySize, 0, flatLimit,
		accPresent|accDPL3|accSystem|accRW, flag32Bit)
	return app
}
