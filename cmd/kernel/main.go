// Command kernel is octane32's entry point: the well-ordered
// subsystem bring-up spec.md's design notes call for ("enforce the
// order with a typed 'initialised' capability"), expressed here as a
// straight-line sequence of package Init calls, each only reachable
// once its dependencies have already run.
package main

import (
	"bytes"
	"errors"
	"io"

	"github.com/octane-os/octane32/internal/boot"
	"github.com/octane-os/octane32/internal/cpu"
	"github.com/octane-os/octane32/internal/desc"
	"github.com/octane-os/octane32/internal/device"
	"github.com/octane-os/octane32/internal/elfload"
	"github.com/octane-os/octane32/internal/klog"
	"github.com/octane-os/octane32/internal/mm"
	"github.com/octane-os/octane32/internal/sched"
	"github.com/octane-os/octane32/internal/syscall"
	"github.com/octane-os/octane32/internal/timer"
	"github.com/octane-os/octane32/internal/trap"
)

// kernelImageTop is the linker-provided end of the kernel's own
// loaded image; the physical allocator starts handing out pages past
// it. A real build substitutes the linker symbol this constant stands
// in for.
const kernelImageTop = 0x400000

// initBinary holds the first task's image, which is taken from kernel
// memory rather than read from a file (sched.BootFirstTask's doc
// comment). Nothing in this module fills it in: it is nil unless a
// build links an image into it.
var initBinary []byte

func main() {
	klog.SetHaltFunc(cpu.Halt)

	hw := readHandoff()
	boot.Validate(hw)

	region := hw.LargestRegion()
	phys := mm.NewBitmap(kernelImageTop, region.Start+region.Size)
	mgr := mm.NewManager(phys)
	if err := mgr.BuildKernelPageTable(kernelMapEntries()); err != nil {
		klog.Fatalf("kernel: building kernel page table: %v", err)
	}

	gdt := desc.Global()
	idt := desc.GlobalIDT()
	for vector, addr := range trap.StubAddrs() {
		access := desc.GateInterrupt32
		idt.InstallHandler(vector, addr, access)
	}
	idt.InstallSoftwareInterrupt(trap.VectorSyscall, trap.SyscallStubAddr())

	app := desc.InstallKernelSegments(gdt, syscallGateEntryAddr())
	desc.Load(gdt, idt)

	trap.InstallExceptionHandlers()
	syscall.InstallEntryPoints()

	sched.Init(gdt, mgr)
	sched.SetAppSelectors(app)
	sched.SetFileOpener(openNamedFile)
	trap.SetExitFunc(func(status int32) {
		if t := sched.Current(); t != nil {
			sched.Exit(t, sched.ExitStatus(status))
		}
	})

	var ttyBackend device.ConsoleBackend // real build wires the UART/VGA backend here
	tty := device.NewRegistry(2, func(int) device.ConsoleBackend { return ttyBackend })
	device.Register(ttyMajor, tty)

	syscall.Init(mgr)

	timer.SetTickFunc(sched.OnTick)
	timer.Init(timer.DefaultTickMS)

	bootInitTask(mgr, app)

	cpu.Sti()
	for {
		cpu.Halt()
	}
}

const ttyMajor = 1

// kernelMapEntries describes the kernel's own identity-mapped half of
// every address space (spec.md §4.2): text/data/stack, then the rest
// of extended RAM up to 128 MiB, where the physical allocator's pages
// (page tables included) live. The PIT/PIC are port-mapped I/O this
// module accesses through ordinary Outb/Inb rather than MMIO, so no
// separate device mapping is required here.
func kernelMapEntries() []mm.MapEntry {
	return []mm.MapEntry{
		{Virtual: 0, Physical: 0, Length: kernelImageTop, Flags: mm.PTEPresent | mm.PTEWritable},
		{Virtual: kernelImageTop, Physical: kernelImageTop, Length: 128<<20 - kernelImageTop, Flags: mm.PTEPresent | mm.PTEWritable},
	}
}

// bootInitTask loads the embedded first-task image into a fresh
// address space and hands it to sched.BootFirstTask.
func bootInitTask(mgr *mm.Manager, app desc.AppSelectors) {
	as, err := mgr.NewAddressSpace()
	if err != nil {
		klog.Fatalf("kernel: allocating init task address space: %v", err)
	}

	img, err := elfload.Load(bytes.NewReader(initBinary), mgr, as)
	if err != nil {
		klog.Fatalf("kernel: loading init image: %v", err)
	}

	const kernelStackTop = 0x00500000 // one dedicated kernel stack page per task, carved from low identity-mapped memory by a real build
	const userStackTop = 0xC0000000

	if _, err := sched.BootFirstTask(app, as, kernelStackTop, userStackTop, img.Entry, img.HeapStart); err != nil {
		klog.Fatalf("kernel: bootstrapping init task: %v", err)
	}
}

// readHandoff reads the boot-loader-provided hardware info record.
// Left as a stub: the boot loader itself is out of scope (spec.md's
// Non-goals), so there is nothing in this module's own build to point
// this at beyond the fixed physical address a real loader would place
// it at.
func readHandoff() *boot.HardwareInfo {
	return &boot.HardwareInfo{}
}

// syscallGateEntryAddr wraps internal/syscall.GateEntryAddr so this
// file's import list stays obviously organized by subsystem rather
// than interleaving a single one-line call.
func syscallGateEntryAddr() uint32 { return syscall.GateEntryAddr() }

var errNoExecutableNamespace = errors.New("kernel: execve: no filesystem or embedded executable namespace configured")

// openNamedFile resolves an execve path. spec.md's Non-goals exclude a
// real filesystem; a production build would back this with whatever
// embedded-executable table or boot-time ramdisk it ships, neither of
// which this module defines.
func openNamedFile(name string) (io.ReaderAt, io.Closer, error) {
	return nil, nil, errNoExecutableNamespace
}
