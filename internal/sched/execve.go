package sched

import (
	"fmt"
	"io"
	"unsafe"

	"github.com/octane-os/octane32/internal/elfload"
	"github.com/octane-os/octane32/internal/mm"
)

// FileOpener resolves a path to a readable file for Execve. It is
// registered at boot by whichever syscall handler owns the
// open-file/device layer, the same inversion used for the scheduler
// interface in internal/ksync: execve needs to open a named file, but
// that naming/lookup is the file subsystem's concern, not this
// package's (spec.md §5: "open-file table | file subsystem (external)").
type FileOpener func(name string) (io.ReaderAt, io.Closer, error)

var fileOpener FileOpener

// SetFileOpener registers the path-to-file resolver Execve uses.
func SetFileOpener(f FileOpener) { fileOpener = f }

// userStackTop and argStackReserve fix the layout of every user
// task's stack: a region at the very top is reserved for argv
// (spec.md §4.3 step 5), below which the crt runs.
const (
	userStackTop    = 0xC0000000
	argStackReserve = mm.PageSize
)

// Execve implements spec.md §4.3's execve: build a fresh address
// space, load the named ELF into it, lay out argv, and atomically
// swap the running task onto the new image — rolling back to the old
// address space on any failure before the swap (spec.md §7).
func Execve(t *TCB, mgr *mm.Manager, name string, argv []string) error {
	if fileOpener == nil {
		return fmt.Errorf("sched: execve: no file opener registered")
	}
	r, closer, err := fileOpener(name)
	if err != nil {
		return fmt.Errorf("sched: execve: open %q: %w", name, err)
	}
	defer closer.Close()

	newAS, err := mgr.NewAddressSpace()
	if err != nil {
		return fmt.Errorf("sched: execve: %w", err)
	}

	img, err := elfload.Load(r, mgr, newAS)
	if err != nil {
		mgr.Destroy(newAS)
		return fmt.Errorf("sched: execve: %w", err)
	}

	esp, err := layoutArgv(mgr, newAS, argv)
	if err != nil {
		mgr.Destroy(newAS)
		return fmt.Errorf("sched: execve: argv: %w", err)
	}

	oldAS := t.AS
	t.AS = newAS
	t.Heap = mm.Heap{Start: img.HeapStart, End: img.HeapStart}
	t.TSS.CR3 = newAS.Dir
	t.TSS.EIP = img.Entry
	t.TSS.ESP = esp
	t.TSS.EAX, t.TSS.EBX, t.TSS.ECX, t.TSS.EDX = 0, 0, 0, 0
	t.TSS.ESI, t.TSS.EDI, t.TSS.EBP = 0, 0, 0

	mgr.Destroy(oldAS)
	return nil
}

// layoutArgv writes {argc, argv_ptr, argv_table..., strings...} into
// the reserved top-of-stack region (spec.md §4.3 step 5) and returns
// the resulting stack pointer.
func layoutArgv(mgr *mm.Manager, as *mm.AddressSpace, argv []string) (uint32, error) {
	pageAddr := userStackTop - argStackReserve
	phys, err := mgr.AllocUserPage(as, pageAddr, mm.PTEWritable)
	if err != nil {
		return 0, err
	}

	page := physBytes(phys)
	// Lay strings out from the top of the page downward, then the
	// pointer table below them, then argc at the very bottom of what
	// we use, so esp can simply point at argc.
	stringsEnd := argStackReserve
	offsets := make([]uint32, len(argv))
	for i := len(argv) - 1; i >= 0; i-- {
		s := argv[i] + "\x00"
		stringsEnd -= len(s)
		copy(page[stringsEnd:], s)
		offsets[i] = pageAddr + uint32(stringsEnd)
	}

	tableBytes := (len(argv) + 1) * 4 // +1 for the NULL terminator
	tableStart := stringsEnd - tableBytes
	if tableStart < 8 {
		return 0, fmt.Errorf("argv too large for reserved stack page")
	}
	for i, off := range offsets {
		putUint32(page, tableStart+i*4, off)
	}
	putUint32(page, tableStart+len(argv)*4, 0)

	argcOff := tableStart - 8
	putUint32(page, argcOff, uint32(len(argv)))
	putUint32(page, argcOff+4, pageAddr+uint32(tableStart))

	return pageAddr + uint32(argcOff), nil
}

func putUint32(b []byte, off int, v uint32) {
	b[off] = byte(v)
	b[off+1] = byte(v >> 8)
	b[off+2] = byte(v >> 16)
	b[off+3] = byte(v >> 24)
}

// physBytes is declared in internal/elfload too; duplicated here
// rather than exported across packages because it is a one-line
// unsafe cast, not shared logic worth a dependency for.
func physBytes(phys uint32) []byte {
	return (*[mm.PageSize]byte)(unsafe.Pointer(uintptr(phys)))[:]
}
