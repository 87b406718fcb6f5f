package sched

import "errors"

// Error taxonomy per spec.md §7: resource exhaustion and invalid
// argument both surface as plain errors from the originating
// operation; the syscall layer translates them to a negative return.
var (
	errNoFreeTask    = errors.New("sched: no free task slot")
	errNoFreeGDTSlot = errors.New("sched: no free GDT slot for TSS")
	errNoChild       = errors.New("sched: no child of this task")
	errNotOwner      = errors.New("sched: file descriptor not owned by this task")
	errBadFD         = errors.New("sched: invalid file descriptor")
	errTooManyFiles  = errors.New("sched: file descriptor table full")
)
