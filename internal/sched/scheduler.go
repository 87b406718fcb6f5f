package sched

import (
	"github.com/octane-os/octane32/internal/cpu"
	"github.com/octane-os/octane32/internal/desc"
	"github.com/octane-os/octane32/internal/ksync"
	"github.com/octane-os/octane32/internal/mm"
)

// DefaultSlice is the number of ticks a task runs before round-robin
// rotates it to the ready queue's tail (spec.md §4.3).
const DefaultSlice = 5

// state is the scheduler's single instance: one ready queue, one sleep
// queue, the running task, and the always-eligible idle task excluded
// from the ready queue itself (spec.md §4.3/§5).
var state struct {
	GDT *desc.Table
	MM  *mm.Manager

	ready list
	sleep list

	current int // pid, 0 meaning "none yet" during boot
	idle    int // pid of the idle task, excluded from ready
	initPID int // first task's pid; exit() re-parents orphans here

	switchFunc func(t *TCB) // indirection so tests don't need real TSS hardware
}

// Init wires the scheduler to the descriptor-table and memory-manager
// instances it needs to build TSSes and address spaces, and registers
// this package with ksync so Semaphore/Mutex can block and wake tasks.
func Init(gdt *desc.Table, mm *mm.Manager) {
	state.GDT = gdt
	state.MM = mm
	state.ready = newList()
	state.sleep = newList()
	state.current = 0
	state.idle = 0
	state.initPID = 0
	state.switchFunc = hardwareSwitch

	ksync.SetScheduler(instance{})
}

// instance implements ksync.Scheduler over the package-level state;
// it exists only so ksync can hold a value without this package
// exposing its global state as the interface receiver directly.
type instance struct{}

func (instance) Current() ksync.Waiter { return Current() }

func (instance) Block(w ksync.Waiter) { block(w.(*TCB)) }

func (instance) Wake(w ksync.Waiter) { wake(w.(*TCB)) }

func (instance) Dispatch() { Dispatch() }

// Current returns the running task's TCB, or nil before boot.
func Current() *TCB {
	if state.current == 0 {
		return nil
	}
	return &pool[state.current]
}

// block marks t Blocked; it leaves t off every list, since the
// primitive that called us (ksync.Semaphore/Mutex) already owns its
// own wait queue of Waiters and will call wake to return it.
func block(t *TCB) {
	t.State = Blocked
}

// wake moves a Blocked task back onto the tail of the ready queue.
func wake(t *TCB) {
	t.State = Ready
	state.ready.pushBack(t)
}

func hardwareSwitch(t *TCB) {
	cpu.LoadTR(cpu.Selector(t.TSSSelector))
	cpu.FarJump(cpu.Selector(t.TSSSelector))
}

// Dispatch implements round-robin: pick the ready queue's head, mark
// it Running, and if it differs from the current task perform a
// hardware task switch (spec.md §4.3).
//
// Dispatch assumes the caller has already taken the outgoing task off
// Running (moved it to Ready/Sleeping/Blocked/Waiting/Zombie and, for
// Ready, pushed it onto the tail of the ready queue) whenever the
// current task is actually giving up the processor — that transition
// is specific to why the task is leaving Running, so it belongs at
// the call site (OnTick, Yield, the sync primitives, exit), not here.
// When ready is empty, Dispatch does not assume the current task gave
// up its slot: if it is still marked Running (an unexpired time slice
// on an otherwise idle system), it simply keeps running. Only when
// there is no such task — nothing ready and nothing still Running —
// does it fall back to the idle task.
func Dispatch() {
	next := state.ready.popFront()
	if next == nil {
		if cur := Current(); cur != nil && cur.State == Running {
			return
		}
		next = &pool[state.idle]
	}
	next.State = Running
	changed := state.current != next.PID
	state.current = next.PID
	if changed {
		state.switchFunc(next)
	}
}
