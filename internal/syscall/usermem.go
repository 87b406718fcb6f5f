package syscall

import (
	"unsafe"

	"github.com/octane-os/octane32/internal/mm"
	"github.com/octane-os/octane32/internal/sched"
)

// maxUserString bounds how far readUserString walks looking for a NUL
// before giving up: a malformed or malicious pointer must not make the
// kernel scan memory forever (spec.md §7).
const maxUserString = 4096

// readUserString copies a NUL-terminated string out of the calling
// task's address space. It does not cross a page it cannot translate.
func readUserString(vaddr uint32) (string, bool) {
	t := sched.Current()
	if t == nil || t.AS == nil {
		return "", false
	}
	var out []byte
	for i := 0; i < maxUserString; i++ {
		b, ok := readUserByte(t, vaddr+uint32(i))
		if !ok {
			return "", false
		}
		if b == 0 {
			return string(out), true
		}
		out = append(out, b)
	}
	return "", false
}

// copyFromUser reads length bytes starting at vaddr out of the calling
// task's address space, one page translation at a time since the
// range may straddle a page boundary.
func copyFromUser(vaddr, length uint32) []byte {
	t := sched.Current()
	out := make([]byte, length)
	if t == nil || t.AS == nil {
		return out
	}
	for i := uint32(0); i < length; i++ {
		b, ok := readUserByte(t, vaddr+i)
		if !ok {
			return out[:i]
		}
		out[i] = b
	}
	return out
}

// copyToUser writes data into the calling task's address space
// starting at vaddr, stopping early if a page cannot be translated.
func copyToUser(vaddr uint32, data []byte) {
	t := sched.Current()
	if t == nil || t.AS == nil {
		return
	}
	for i, b := range data {
		if !writeUserByte(t, vaddr+uint32(i), b) {
			return
		}
	}
}

// writeUserInt32 stores a little-endian int32 at vaddr in the calling
// task's address space (used for sys_wait's status-out parameter).
func writeUserInt32(vaddr uint32, v int32) {
	u := uint32(v)
	copyToUser(vaddr, []byte{byte(u), byte(u >> 8), byte(u >> 16), byte(u >> 24)})
}

func readUserByte(t *sched.TCB, vaddr uint32) (byte, bool) {
	phys, ok := mgr.Translate(t.AS, vaddr)
	if !ok {
		return 0, false
	}
	page := physBytes(phys &^ (mm.PageSize - 1))
	return page[phys&(mm.PageSize-1)], true
}

func writeUserByte(t *sched.TCB, vaddr uint32, b byte) bool {
	phys, ok := mgr.Translate(t.AS, vaddr)
	if !ok {
		return false
	}
	page := physBytes(phys &^ (mm.PageSize - 1))
	page[phys&(mm.PageSize-1)] = b
	return true
}

// physBytes is declared in internal/sched and internal/elfload too;
// duplicated rather than exported across packages because it is a
// one-line unsafe cast over the kernel's identity-mapped physical
// memory, not shared logic worth a cross-package dependency for.
func physBytes(phys uint32) []byte {
	return (*[mm.PageSize]byte)(unsafe.Pointer(uintptr(phys)))[:]
}

// maxExecArgv bounds how many argv entries execve will read out of
// user memory before giving up, the same defensive limit
// readUserString applies to strings (spec.md §7).
const maxExecArgv = 64

// readExecArgs reads the NUL-terminated path at nameVaddr and the
// NULL-terminated array of string pointers at argvVaddr out of the
// calling task's address space.
func readExecArgs(nameVaddr, argvVaddr uint32) (string, []string, bool) {
	name, ok := readUserString(nameVaddr)
	if !ok {
		return "", nil, false
	}
	t := sched.Current()
	if t == nil || t.AS == nil {
		return "", nil, false
	}
	var argv []string
	for i := 0; i < maxExecArgv; i++ {
		ptr, ok := readUserUint32(t, argvVaddr+uint32(i*4))
		if !ok {
			return "", nil, false
		}
		if ptr == 0 {
			return name, argv, true
		}
		s, ok := readUserString(ptr)
		if !ok {
			return "", nil, false
		}
		argv = append(argv, s)
	}
	return "", nil, false
}

func readUserUint32(t *sched.TCB, vaddr uint32) (uint32, bool) {
	var b [4]byte
	for i := range b {
		v, ok := readUserByte(t, vaddr+uint32(i))
		if !ok {
			return 0, false
		}
		b[i] = v
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24, true
}
