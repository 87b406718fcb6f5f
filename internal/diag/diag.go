// Package diag provides fault-path diagnostics the rest of the kernel
// deliberately keeps out of its hot paths: a verbose task/TCB dumper
// and single-instruction x86 decoding. No other package calls them;
// the #GP/#UD log lines internal/trap prints do not include them.
package diag

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"golang.org/x/arch/x86/x86asm"

	"github.com/octane-os/octane32/internal/sched"
)

// DumpTask renders a task's full TCB with go-spew, the same "just show
// me everything" dump the teacher's own panic paths reach for over a
// hand-rolled formatter (spew.Sdump: no struct tags to keep in sync as
// TCB grows).
func DumpTask(t *sched.TCB) string {
	return spew.Sdump(t)
}

// DecodeFault disassembles the single instruction at code, the
// faulting EIP's bytes as copied out of kernel-identity-mapped memory
// by the caller, for a #GP/#UD log line that names the instruction
// instead of just its address.
func DecodeFault(code []byte, eip uint32) string {
	inst, err := x86asm.Decode(code, 32)
	if err != nil {
		return fmt.Sprintf("eip=0x%x <undecodable: %v>", eip, err)
	}
	return fmt.Sprintf("eip=0x%x %s", eip, x86asm.GNUSyntax(inst, uint64(eip), nil))
}
