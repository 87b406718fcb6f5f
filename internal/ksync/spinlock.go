// Package ksync provides the kernel's synchronisation primitives:
// Spinlock and Atomic32 are self-contained; Semaphore and Mutex are
// "sleeping" primitives whose wait queues must suspend and resume
// whole tasks, so they depend on a Scheduler registered by
// internal/sched at boot (internal/sched cannot be imported directly
// here without an import cycle, since sched itself uses ksync.Mutex
// to guard its own ready/sleep lists).
package ksync

import (
	"sync/atomic"

	"github.com/octane-os/octane32/internal/cpu"
)

// Spinlock is a single busy-wait lock: acquisition is an atomic
// exchange of 1 into the word, looping while the prior value was
// non-zero; release is a plain store of 0 (spec.md §4.4).
type Spinlock struct {
	held int32
}

// Lock busy-waits until the lock is free.
func (s *Spinlock) Lock() {
	for !atomic.CompareAndSwapInt32(&s.held, 0, 1) {
		// Uniprocessor kernel: spinning only ever waits out another
		// task that was preempted mid-critical-section, never a
		// concurrently running second CPU.
	}
}

// Unlock releases the lock. The caller must hold it.
func (s *Spinlock) Unlock() {
	atomic.StoreInt32(&s.held, 0)
}

// IRQSpinlock is the irq-safe variant: it disables interrupts before
// spinning and restores the prior flag state on release, so a timer
// tick cannot interrupt a holder and deadlock against itself.
type IRQSpinlock struct {
	Spinlock
	saved cpu.Flags
}

// LockIRQ disables interrupts and spins.
func (s *IRQSpinlock) LockIRQ() {
	s.saved = cpu.EnterProtection()
	s.Lock()
}

// UnlockIRQ releases the lock and restores the interrupt state LockIRQ
// observed.
func (s *IRQSpinlock) UnlockIRQ() {
	s.Unlock()
	cpu.LeaveProtection(s.saved)
}
