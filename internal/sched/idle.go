package sched

import (
	"reflect"

	"github.com/octane-os/octane32/internal/cpu"
)

// idleEntry is a halt loop: cli is never issued here (the idle task
// runs with interrupts enabled so the timer can preempt it once a real
// task becomes ready), just repeated Halt until the next IRQ reschedules.
func idleEntry() {
	for {
		cpu.Halt()
	}
}

// NewIdleTask builds the always-eligible, ready-queue-excluded kernel
// task Dispatch falls back to when the ready queue is empty (spec.md
// §4.3/§5). Its TSS is programmed with a kernel stack and idleEntry as
// EIP, running at CPL-0 since it never needs user-mode isolation.
func NewIdleTask(stackTop uint32) (*TCB, error) {
	t, err := allocTask("idle")
	if err != nil {
		return nil, err
	}
	t.State = Blocked // never Ready; excluded from the ready list on purpose
	t.Parent = -1

	tss, sel, err := newKernelTSS(stackTop, funcAddr(idleEntry))
	if err != nil {
		freeTask(t)
		return nil, err
	}
	t.TSS = tss
	t.TSSSelector = uint16(sel)

	state.idle = t.PID
	return t, nil
}

// funcAddr takes the address of a Go function's code for use as a raw
// EIP value programmed into hardware state. Only ever called with a
// bottom-of-stack function like idleEntry whose body never returns,
// since nothing restores a Go-managed stack frame around a hardware
// task switch.
func funcAddr(fn func()) uint32 {
	return uint32(reflect.ValueOf(fn).Pointer())
}
