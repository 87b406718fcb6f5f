package syscall

import (
	"github.com/octane-os/octane32/internal/device"
	"github.com/octane-os/octane32/internal/sched"
	"github.com/octane-os/octane32/internal/timer"
)

func sysMsleep(t *sched.TCB, ms, _, _, _, _ uint32) int32 {
	sched.Sleep(msToTicks(int(ms), timer.DefaultTickMS))
	return 0
}

// msToTicks rounds a millisecond duration up to whole ticks, never
// fewer than one for a non-zero request (spec.md §8: "msleep(ms) with
// ms < tick_ms sleeps at least one tick").
func msToTicks(ms, tickMS int) int {
	if ms <= 0 {
		return 0
	}
	ticks := (ms + tickMS - 1) / tickMS
	if ticks < 1 {
		ticks = 1
	}
	return ticks
}

func sysGetpid(t *sched.TCB, _, _, _, _, _ uint32) int32 {
	return int32(t.PID)
}

func sysFork(t *sched.TCB, _, _, _, _, _ uint32) int32 {
	childPID, err := sched.Fork(t, t.SavedContext)
	if err != nil {
		return ENOMEM
	}
	return int32(childPID)
}

func sysExecve(t *sched.TCB, nameUserPtr, argvUserPtr, _, _, _ uint32) int32 {
	name, argv, ok := readExecArgs(nameUserPtr, argvUserPtr)
	if !ok {
		return EINVAL
	}
	if err := sched.Execve(t, mgr, name, argv); err != nil {
		return ENOMEM
	}
	return 0
}

func sysYield(t *sched.TCB, _, _, _, _, _ uint32) int32 {
	sched.Yield()
	return 0
}

func sysExit(t *sched.TCB, status, _, _, _, _ uint32) int32 {
	sched.Exit(t, sched.ExitStatus(int32(status)))
	return 0 // unreachable: Exit never returns to its caller
}

func sysWait(t *sched.TCB, statusUserPtr, _, _, _, _ uint32) int32 {
	pid, status, err := sched.Wait(t)
	if err != nil {
		return EINVAL
	}
	writeUserInt32(statusUserPtr, int32(status))
	return int32(pid)
}

func sysOpen(t *sched.TCB, nameUserPtr, flags, _, _, _ uint32) int32 {
	name, ok := readUserString(nameUserPtr)
	if !ok {
		return EINVAL
	}
	major, minor, ok := lookupDeviceName(name)
	if !ok {
		return ENOENT
	}
	fd, ok := allocFD(t)
	if !ok {
		return EMFILE
	}
	if err := device.Open(major, minor); err != nil {
		return ENOENT
	}
	refcount := int32(1)
	t.Files[fd] = &sched.OpenFile{
		Impl:     &deviceFile{major: major, minor: minor},
		RefCount: &refcount,
	}
	return int32(fd)
}

func sysRead(t *sched.TCB, fd, bufUserPtr, length, _, _ uint32) int32 {
	of, ok := fileAt(t, fd)
	if !ok {
		return EBADF
	}
	df, ok := of.Impl.(*deviceFile)
	if !ok {
		return EBADF
	}
	buf := make([]byte, length)
	n, err := device.Read(df.major, df.minor, buf)
	if err != nil {
		return EBADF
	}
	copyToUser(bufUserPtr, buf[:n])
	return int32(n)
}

func sysWrite(t *sched.TCB, fd, bufUserPtr, length, _, _ uint32) int32 {
	of, ok := fileAt(t, fd)
	if !ok {
		return EBADF
	}
	df, ok := of.Impl.(*deviceFile)
	if !ok {
		return EBADF
	}
	buf := copyFromUser(bufUserPtr, length)
	n, err := device.Write(df.major, df.minor, buf)
	if err != nil {
		return EBADF
	}
	return int32(n)
}

func sysClose(t *sched.TCB, fd, _, _, _, _ uint32) int32 {
	of, ok := fileAt(t, fd)
	if !ok {
		return EBADF
	}
	*of.RefCount--
	if *of.RefCount <= 0 {
		of.Impl.Close()
	}
	t.Files[fd] = nil
	return 0
}

func sysLseek(t *sched.TCB, fd, off, whence, _, _ uint32) int32 {
	// Device files (the only kind this kernel opens; filesystem
	// implementation is a non-goal) are not seekable.
	if _, ok := fileAt(t, fd); !ok {
		return EBADF
	}
	return EINVAL
}

func sysIsatty(t *sched.TCB, fd, _, _, _, _ uint32) int32 {
	of, ok := fileAt(t, fd)
	if !ok {
		return EBADF
	}
	if df, ok := of.Impl.(*deviceFile); ok && df.major == ttyMajor {
		return 1
	}
	return 0
}

func sysSbrk(t *sched.TCB, incr, _, _, _, _ uint32) int32 {
	prevEnd, err := mgr.Sbrk(t.AS, &t.Heap, int32(incr))
	if err != nil {
		return ENOMEM
	}
	return int32(prevEnd)
}

func sysFstat(t *sched.TCB, fd, statUserPtr, _, _, _ uint32) int32 {
	if _, ok := fileAt(t, fd); !ok {
		return EBADF
	}
	return 0
}

func sysDup(t *sched.TCB, fd, _, _, _, _ uint32) int32 {
	of, ok := fileAt(t, fd)
	if !ok {
		return EBADF
	}
	newFD, ok := allocFD(t)
	if !ok {
		return EMFILE
	}
	*of.RefCount++
	t.Files[newFD] = of
	return int32(newFD)
}

func sysIoctl(t *sched.TCB, fd, cmd, a0, a1, _ uint32) int32 {
	of, ok := fileAt(t, fd)
	if !ok {
		return EBADF
	}
	df, ok := of.Impl.(*deviceFile)
	if !ok {
		return EBADF
	}
	n, err := device.Control(df.major, df.minor, int(cmd), a0, a1)
	if err != nil {
		return EINVAL
	}
	return int32(n)
}

func sysPrintmsg(t *sched.TCB, fmtUserPtr, arg, _, _, _ uint32) int32 {
	s, ok := readUserString(fmtUserPtr)
	if !ok {
		return EINVAL
	}
	printmsg(s, arg)
	return 0
}

func fileAt(t *sched.TCB, fd uint32) (*sched.OpenFile, bool) {
	if fd >= sched.MaxFiles {
		return nil, false
	}
	of := t.Files[fd]
	if of == nil {
		return nil, false
	}
	return of, true
}

func allocFD(t *sched.TCB) (int, bool) {
	for i, of := range t.Files {
		if of == nil {
			return i, true
		}
	}
	return 0, false
}

// deviceFile is the only kind of open file this kernel produces
// (spec.md's Non-goals exclude a real filesystem): a major/minor pair
// dispatched through internal/device.
type deviceFile struct {
	major, minor int
}

func (d *deviceFile) Close() error {
	return device.Close(d.major, d.minor)
}
