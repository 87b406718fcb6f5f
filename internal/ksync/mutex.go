package ksync

import (
	"fmt"

	"github.com/octane-os/octane32/internal/cpu"
)

// Mutex is a recursive, owner-tracked lock with a FIFO wait queue
// (spec.md §3/§4.4). The owner may re-acquire without blocking;
// ownership is handed directly to the head of the wait queue on the
// unlock that drops the recursion count to zero, atomically with the
// wake, so there is no window where the mutex looks unowned.
type Mutex struct {
	owner Waiter
	count int32
	queue []Waiter
}

// Lock acquires the mutex, blocking the current task if it is held by
// someone else, or recursing if the current task already owns it.
func (m *Mutex) Lock() {
	saved := cpu.EnterProtection()
	cur := currentTask()
	switch {
	case m.count == 0:
		m.owner = cur
		m.count = 1
		cpu.LeaveProtection(saved)
	case m.owner == cur:
		m.count++
		cpu.LeaveProtection(saved)
	default:
		m.queue = append(m.queue, cur)
		scheduler.Block(cur)
		cpu.LeaveProtection(saved)
		scheduler.Dispatch()
	}
}

// Unlock releases one level of recursion. The caller must be the
// owner. When the recursion count reaches zero and a task is waiting,
// ownership transfers to it directly (spec.md §4.4: "hand ownership to
// the head ... atomically with the wake").
func (m *Mutex) Unlock() {
	saved := cpu.EnterProtection()
	cur := currentTask()
	if m.owner != cur {
		cpu.LeaveProtection(saved)
		panic(fmt.Sprintf("ksync: Unlock by non-owner"))
	}
	m.count--
	if m.count > 0 {
		cpu.LeaveProtection(saved)
		return
	}
	if len(m.queue) > 0 {
		next := m.queue[0]
		m.queue = m.queue[1:]
		m.owner = next
		m.count = 1
		scheduler.Wake(next)
		cpu.LeaveProtection(saved)
		scheduler.Dispatch()
		return
	}
	m.owner = nil
	cpu.LeaveProtection(saved)
}

// currentTask returns the running task, or nil while no scheduler is
// registered: boot code (GDT setup, the kernel page table) takes
// uncontended mutexes before internal/sched calls SetScheduler.
func currentTask() Waiter {
	if scheduler == nil {
		return nil
	}
	return scheduler.Current()
}

// Owner reports the current owner, or nil if unlocked.
func (m *Mutex) Owner() Waiter { return m.owner }

// Count reports the current recursion depth.
func (m *Mutex) Count() int32 { return m.count }
