package sched

import (
	"github.com/octane-os/octane32/internal/desc"
	"github.com/octane-os/octane32/internal/mm"
)

// appSelectors is set once at task-manager init (desc.InstallKernelSegments's
// return value); every user task shares the same CPL-3 code/data pair,
// only CR3 differs between address spaces.
var appSelectors desc.AppSelectors

// SetAppSelectors records the shared CPL-3 selector pair. Called once
// by cmd/kernel right after InstallKernelSegments.
func SetAppSelectors(app desc.AppSelectors) { appSelectors = app }

// Fork implements spec.md §4.3's fork: allocate a task slot, seed it
// from the parent's saved syscall context with eax forced to 0 (the
// child's return value), duplicate the fd table, eager-copy the
// address space, and ready the child. The parent's own return value
// (the child pid) is handled by the caller, since this function runs
// on the parent's behalf inside the fork syscall handler.
func Fork(parent *TCB, ctx Context) (childPID int, err error) {
	child, err := allocTask(parent.Name)
	if err != nil {
		return -1, err
	}

	for i, of := range parent.Files {
		if of == nil {
			continue
		}
		*of.RefCount++
		child.Files[i] = of
	}

	as, err := state.MM.CopyAddressSpace(parent.AS)
	if err != nil {
		releaseFiles(child)
		freeTask(child)
		return -1, err
	}
	child.AS = as
	child.Heap = parent.Heap

	// Every live task owns exactly one kernel stack page (spec.md §3);
	// the parent's own stack must never be shared with the child it
	// forks, since a trap into the child's trampoline would then
	// clobber the parent's live kernel-stack frames.
	stackPhys, err := state.MM.Phys.AllocPages(1)
	if err != nil {
		state.MM.Destroy(as)
		releaseFiles(child)
		freeTask(child)
		return -1, err
	}
	child.KernelStackPhys = stackPhys
	kernelStackTop := stackPhys + mm.PageSize

	childCtx := ctx
	childCtx.EAX = 0
	tss, sel, err := newUserTSS(kernelStackTop, appSelectors, as, ctx.ESP, ctx.EIP)
	if err != nil {
		state.MM.Destroy(as)
		releaseFiles(child)
		freeTask(child) // also frees the kernel stack page allocated above
		return -1, err
	}
	applyContext(tss, childCtx)

	child.TSS = tss
	child.TSSSelector = uint16(sel)
	child.Parent = parent.PID
	child.SliceTicks = DefaultSlice
	child.State = Ready
	state.ready.pushBack(child)

	return child.PID, nil
}

func applyContext(tss *desc.TSS, ctx Context) {
	tss.EAX, tss.EBX, tss.ECX, tss.EDX = ctx.EAX, ctx.EBX, ctx.ECX, ctx.EDX
	tss.ESI, tss.EDI, tss.EBP = ctx.ESI, ctx.EDI, ctx.EBP
	tss.EFlags = ctx.EFlags
}

func releaseFiles(t *TCB) {
	for i, of := range t.Files {
		if of == nil {
			continue
		}
		closeOpenFile(of)
		t.Files[i] = nil
	}
}

func closeOpenFile(of *OpenFile) {
	*of.RefCount--
	if *of.RefCount <= 0 {
		of.Impl.Close()
	}
}

// Wait implements spec.md §4.3's sys_wait: find any Zombie child,
// reap it (release its address space and task slot) and return its
// pid and status, or block in Waiting until one arrives.
func Wait(parent *TCB) (childPID int, status ExitStatus, err error) {
	for {
		for i := 1; i < MaxTasks; i++ {
			child := &pool[i]
			if child.State == Zombie && child.Parent == parent.PID {
				status := child.ExitStatus
				pid := child.PID
				state.MM.Destroy(child.AS)
				freeTask(child)
				return pid, status, nil
			}
		}

		if !hasChild(parent.PID) {
			return -1, 0, errNoChild
		}

		parent.State = Waiting
		Dispatch()
	}
}

func hasChild(pid int) bool {
	for i := 1; i < MaxTasks; i++ {
		if pool[i].State != Free && pool[i].Parent == pid {
			return true
		}
	}
	return false
}

// Exit implements spec.md §4.3's sys_exit: close every open file,
// re-parent every child to init (waking init if one of them is
// already a reapable zombie), wake our own parent if it is waiting on
// us, store the status, and become a zombie. Exit never returns to
// its caller in the normal syscall sense — dispatch always picks a
// different task next.
func Exit(t *TCB, status ExitStatus) {
	releaseFiles(t)

	anyZombieOrphan := false
	for i := 1; i < MaxTasks; i++ {
		c := &pool[i]
		if c.State == Free || c.Parent != t.PID {
			continue
		}
		c.Parent = state.initPID
		if c.State == Zombie {
			anyZombieOrphan = true
		}
	}
	if anyZombieOrphan {
		wakeIfWaiting(state.initPID)
	}

	wakeIfWaiting(t.Parent)

	t.ExitStatus = status
	t.State = Zombie
	Dispatch()
}

func wakeIfWaiting(pid int) {
	p := Task(pid)
	if p != nil && p.State == Waiting {
		p.State = Ready
		state.ready.pushBack(p)
	}
}
