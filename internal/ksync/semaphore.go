package ksync

import "github.com/octane-os/octane32/internal/cpu"

// Semaphore is a non-negative counter with a FIFO wait queue of
// blocked tasks (spec.md §3/§4.4). Modelled on the teacher's
// futexsleep/futexwakeup pair in runtime/os_cosmo.go: "atomically
// check a condition, sleep if unmet" becomes Wait's
// decrement-or-block, and "wake up to cnt waiters" becomes Notify's
// pop-one-or-increment.
type Semaphore struct {
	count int32
	queue []Waiter
}

// NewSemaphore returns a semaphore initialised to count.
func NewSemaphore(count int32) *Semaphore {
	return &Semaphore{count: count}
}

// Wait decrements the counter if positive, otherwise blocks the
// current task until a matching Notify. Interrupts are disabled for
// the whole decide-or-enqueue step so a timer tick cannot interleave
// with it (spec.md §4.4: "must not be interrupted by the timer").
func (s *Semaphore) Wait() {
	saved := cpu.EnterProtection()
	if s.count > 0 {
		s.count--
		cpu.LeaveProtection(saved)
		return
	}
	cur := scheduler.Current()
	s.queue = append(s.queue, cur)
	scheduler.Block(cur)
	cpu.LeaveProtection(saved)
	scheduler.Dispatch()
}

// Notify wakes the oldest waiter if any and dispatches, else
// increments the counter.
func (s *Semaphore) Notify() {
	saved := cpu.EnterProtection()
	if len(s.queue) > 0 {
		w := s.queue[0]
		s.queue = s.queue[1:]
		scheduler.Wake(w)
		cpu.LeaveProtection(saved)
		scheduler.Dispatch()
		return
	}
	s.count++
	cpu.LeaveProtection(saved)
}

// Count reports the current counter value (for tests/diagnostics; not
// part of the wait/notify hot path).
func (s *Semaphore) Count() int32 { return s.count }

// Waiting reports how many tasks are queued.
func (s *Semaphore) Waiting() int { return len(s.queue) }
