package ksync

// Waiter is an opaque handle to a blocked task. internal/sched's *Task
// satisfies this trivially; ksync never looks inside it.
type Waiter interface{}

// Scheduler is the minimal surface Semaphore and Mutex need from the
// task scheduler: who is running, how to suspend it onto a wait
// queue, and how to make a waiter runnable again. internal/sched
// registers its own implementation via SetScheduler during boot,
// before any task can reach a sem_wait/mutex_lock. Routing through an
// interface instead of importing internal/sched directly avoids a
// cycle (sched itself embeds a ksync.Mutex to guard its own
// ready/sleep lists).
type Scheduler interface {
	// Current returns the running task.
	Current() Waiter
	// Block transitions w to the Blocked state and removes it from
	// every scheduling list; dispatch() is expected to run afterwards
	// so the caller only returns once w is runnable again.
	Block(w Waiter)
	// Wake moves w from Blocked to the tail of the ready list.
	Wake(w Waiter)
	// Dispatch runs the scheduling decision (pick head of ready list,
	// task-switch if it differs from current).
	Dispatch()
}

var scheduler Scheduler

// SetScheduler registers the task scheduler. Must be called once
// during boot before any task can block on a Semaphore or Mutex.
// Before that, Mutex treats its caller as a nil owner, which serves
// the uncontended locking done by single-threaded boot code.
func SetScheduler(s Scheduler) { scheduler = s }
