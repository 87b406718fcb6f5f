// Package sched is the task lifecycle manager: the TCB pool,
// round-robin dispatcher, tick accounting, and fork/execve/wait/exit
// (spec.md §4.3). It implements ksync.Scheduler and registers itself
// with ksync.SetScheduler at boot so the synchronisation primitives in
// internal/ksync can block and wake tasks without importing this
// package back.
package sched

import (
	"github.com/octane-os/octane32/internal/cpu"
	"github.com/octane-os/octane32/internal/desc"
	"github.com/octane-os/octane32/internal/mm"
)

// State is a TCB's position in spec.md §4.3's state machine.
type State int

const (
	Created State = iota
	Ready
	Running
	Sleeping
	Blocked
	Waiting // blocked specifically inside sys_wait with no reapable child
	Zombie
	Free // slot not in use
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Sleeping:
		return "sleeping"
	case Blocked:
		return "blocked"
	case Waiting:
		return "waiting"
	case Zombie:
		return "zombie"
	case Free:
		return "free"
	default:
		return "unknown"
	}
}

// MaxTasks bounds the task pool and every scan over it (spec.md §9:
// named explicitly so exit's re-parenting scan and wait's zombie scan
// share one authoritative bound instead of a magic literal at each
// call site).
const MaxTasks = 128

// MaxFiles is the per-task open-file table width (spec.md §4.3's
// "duplicate the parent's file-descriptor table").
const MaxFiles = 128

// File is the minimal surface sched needs from an open file: enough to
// close it on exit and to share it, refcounted, across fork. The
// concrete implementation is internal/syscall's deviceFile, a wrapper
// around an internal/device handle.
type File interface {
	Close() error
}

// OpenFile is one file-descriptor-table slot. RefCount is shared by
// every descriptor table entry (across tasks, via dup/fork) that
// points at the same open file, so Close only runs once the last
// referencing descriptor is released.
type OpenFile struct {
	Impl     File
	RefCount *int32
}

// TCB is one task control block. Fields mirror spec.md §4.3/§5: a
// single state machine slot, the scheduling-list membership implied by
// State, process relationships for wait/exit, the saved hardware
// context (TSS), and the resources torn down on exit.
type TCB struct {
	State State
	Name  string
	PID   int
	Parent int // -1 for the init/first task

	Heap mm.Heap
	AS   *mm.AddressSpace

	TSS         *desc.TSS
	TSSSelector uint16

	// KernelStackPhys is the physical base of this task's own
	// kernel-stack page (spec.md §3: "each live task owns exactly one
	// ... kernel stack page"), allocated by Fork and released by
	// freeTask. Zero for a task whose kernel stack isn't owned by
	// mm.Manager's allocator (the first task, whose stack cmd/kernel
	// carves out directly before any task exists to allocate it from).
	KernelStackPhys uint32

	SliceTicks int
	SleepTicks int

	ExitStatus ExitStatus

	Files [MaxFiles]*OpenFile

	// SavedContext and KernelStackTop are populated by the syscall
	// entry trampoline before internal/syscall.Dispatch runs; Fork and
	// Execve read them to build/replace a task's hardware context
	// (spec.md §4.3 steps referencing "the parent's saved syscall
	// frame").
	SavedContext   Context
	KernelStackTop uint32

	next int // intrusive singly-linked index for whichever FIFO owns this slot; -1 if none
}

// ExitStatus is deliberately not a bare int: spec.md §9 calls out that
// a kernel-triggered exit (a fatal CPU exception) stores the faulting
// error code in the same field a voluntary sys_exit(status) uses, and
// the two must not be confused by a caller comparing against POSIX
// signal/exit conventions that do not apply here.
type ExitStatus int32

// KernelFault is the most negative ExitStatus. Nothing in this module
// sets it: a CPL-3 fault exits through trap.DefaultPolicy with its
// raw error code as the status, in the same field sys_exit fills.
const KernelFault ExitStatus = -1 << 31

// pool is the fixed-size task table; slot 0 is never handed out so PID
// 0 can mean "no task" (init's Parent is -1, not 0).
var pool [MaxTasks]TCB

func init() {
	for i := range pool {
		pool[i].State = Free
		pool[i].PID = i
		pool[i].Parent = -1
		pool[i].next = -1
	}
}

// Task returns the TCB for pid, or nil if out of range.
func Task(pid int) *TCB {
	if pid <= 0 || pid >= MaxTasks {
		return nil
	}
	return &pool[pid]
}

// allocTask finds the first Free slot (skipping 0) and marks it
// Created, or reports exhaustion.
func allocTask(name string) (*TCB, error) {
	for i := 1; i < MaxTasks; i++ {
		if pool[i].State == Free {
			t := &pool[i]
			*t = TCB{State: Created, Name: name, PID: i, Parent: -1, next: -1}
			return t, nil
		}
	}
	return nil, errNoFreeTask
}

// freeTask releases a task's GDT TSS descriptor slot and kernel-stack
// page, then returns its TCB slot to the pool. Caller must already
// have released AS and Files; those are address-space/file-table
// concerns this package doesn't own the teardown of, while the TSS
// selector and kernel stack are this package's own allocations (spec.md
// §7: fork failure "frees the child's task slot, tss selector, kernel
// stack, and any allocated directory"; §4.3's reap does the same for a
// zombie).
func freeTask(t *TCB) {
	if t.TSSSelector != 0 {
		desc.FreeTSSDescriptor(state.GDT, cpu.Selector(t.TSSSelector))
	}
	if t.KernelStackPhys != 0 {
		state.MM.Phys.FreePages(t.KernelStackPhys, 1)
	}

	pid := t.PID
	*t = TCB{State: Free, PID: pid, Parent: -1, next: -1}
}
