package trap

import (
	"github.com/octane-os/octane32/internal/cpu"
	"github.com/octane-os/octane32/internal/klog"
)

// Vector numbers for the exceptions this kernel decodes specially
// (spec.md §4.5); the rest fall through to DefaultPolicy undecoded.
const (
	VectorGP = 13
	VectorPF = 14
)

// exitFunc is how a user-mode fault becomes sys_exit(error_code). It
// is registered by cmd/kernel at boot, which points it at sched.Exit,
// so trap never imports sched.
var exitFunc func(status int32)

// SetExitFunc registers the task-exit callback used by the default
// fault policy for CPL-3 faults.
func SetExitFunc(f func(status int32)) { exitFunc = f }

// DefaultPolicy implements spec.md §4.5/§7's fault policy: log the key
// registers, then halt forever if the fault came from kernel mode,
// else exit the faulting task with the error code as its status
// (spec.md §9: that status is opaque, not a real signal number).
func DefaultPolicy(f *Frame) {
	klog.Warnf("exception vector=%d error=0x%x eip=0x%x cs=0x%x eflags=0x%x",
		f.Vector, f.ErrorCode, f.EIP, f.CS, f.EFlags)

	if !f.FromUserMode() {
		for {
			cpu.Halt()
		}
	}
	if exitFunc != nil {
		exitFunc(int32(f.ErrorCode))
	}
}

// GPInfo decodes the #GP error code per spec.md §4.5: bit 0 is the
// external-event flag, bit 1 selects IDT vs GDT/LDT, the remaining
// bits are the offending selector's table index.
type GPInfo struct {
	External bool
	IsIDT    bool
	Index    uint32
}

func DecodeGP(f *Frame) GPInfo {
	return GPInfo{
		External: f.ErrorCode&1 != 0,
		IsIDT:    f.ErrorCode&2 != 0,
		Index:    f.ErrorCode >> 3,
	}
}

// PFInfo decodes a #PF's CR2 and error code: whether the access was a
// write, whether it came from user mode, and whether the faulting
// page was merely protection-violating vs. entirely not present.
type PFInfo struct {
	Address  uint32
	Write    bool
	User     bool
	Protect  bool // true: present but protection-violating; false: not present
}

func DecodePF(f *Frame) PFInfo {
	return PFInfo{
		Address: cpu.ReadCR2(),
		Protect: f.ErrorCode&1 != 0,
		Write:   f.ErrorCode&2 != 0,
		User:    f.ErrorCode&4 != 0,
	}
}

// handleGP and handlePF are the vector-13/14 entries installed at
// boot; both decode for diagnostics and then fall through to the same
// kernel/user policy as every other exception, since demand paging and
// COW are not implemented (spec.md §9: any #PF is fatal, including on
// a fork'd writable page, because fork eagerly copies).
func handleGP(f *Frame) {
	info := DecodeGP(f)
	klog.Warnf("#GP external=%v idt=%v index=%d", info.External, info.IsIDT, info.Index)
	DefaultPolicy(f)
}

func handlePF(f *Frame) {
	info := DecodePF(f)
	klog.Warnf("#PF addr=0x%x write=%v user=%v protect=%v", info.Address, info.Write, info.User, info.Protect)
	DefaultPolicy(f)
}

// InstallExceptionHandlers wires the specific-decode exceptions; the
// remaining 0-31 vectors (and everything ≥32 not claimed by an IRQ)
// rely on Dispatch's fallback to DefaultPolicy.
func InstallExceptionHandlers() {
	Install(VectorGP, handleGP)
	Install(VectorPF, handlePF)
}
