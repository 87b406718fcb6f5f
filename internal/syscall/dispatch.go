package syscall

import (
	"github.com/octane-os/octane32/internal/mm"
	"github.com/octane-os/octane32/internal/sched"
)

// Call ids, the stable wire contract from spec.md §6.
const (
	SysMsleep  = 0
	SysGetpid  = 1
	SysFork    = 2
	SysExecve  = 3
	SysYield   = 4
	SysExit    = 5
	SysWait    = 6
	SysOpen    = 50
	SysRead    = 51
	SysWrite   = 52
	SysClose   = 53
	SysLseek   = 54
	SysIsatty  = 55
	SysSbrk    = 56
	SysFstat   = 57
	SysDup     = 58
	SysIoctl   = 59
	SysOpendir = 60
	SysReaddir = 61
	SysClosedir = 62
	SysUnlink  = 63
	SysPrintmsg = 100
)

// Handler receives up to five integer arguments and the calling
// task's TCB, returning the syscall's signed result.
type Handler func(t *sched.TCB, a0, a1, a2, a3, a4 uint32) int32

const tableSize = 101

var table [tableSize]Handler

func register(id int, h Handler) { table[id] = h }

var mgr *mm.Manager

// Init wires the memory manager sbrk needs and populates the
// dispatch table. Called once during kernel boot after every
// subsystem syscall handlers call into has itself been initialised.
func Init(m *mm.Manager) {
	mgr = m
	register(SysMsleep, sysMsleep)
	register(SysGetpid, sysGetpid)
	register(SysFork, sysFork)
	register(SysExecve, sysExecve)
	register(SysYield, sysYield)
	register(SysExit, sysExit)
	register(SysWait, sysWait)
	register(SysOpen, sysOpen)
	register(SysRead, sysRead)
	register(SysWrite, sysWrite)
	register(SysClose, sysClose)
	register(SysLseek, sysLseek)
	register(SysIsatty, sysIsatty)
	register(SysSbrk, sysSbrk)
	register(SysFstat, sysFstat)
	register(SysDup, sysDup)
	register(SysIoctl, sysIoctl)
	register(SysOpendir, sysNotImplemented)
	register(SysReaddir, sysNotImplemented)
	register(SysClosedir, sysNotImplemented)
	register(SysUnlink, sysNotImplemented)
	register(SysPrintmsg, sysPrintmsg)
}

// Dispatch is the single entry point both the call gate and the
// int 0x80 trampoline call into (spec.md §4.6). Unknown ids return
// EINVAL rather than panicking: a bad id is a malformed user request,
// not a kernel bug.
func Dispatch(t *sched.TCB, id int, a0, a1, a2, a3, a4 uint32) int32 {
	if id < 0 || id >= tableSize || table[id] == nil {
		return EINVAL
	}
	return table[id](t, a0, a1, a2, a3, a4)
}

func sysNotImplemented(t *sched.TCB, a0, a1, a2, a3, a4 uint32) int32 {
	return ENOSYS
}
