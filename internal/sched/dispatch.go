package sched

// OnTick runs spec.md §4.3's per-timer-tick accounting: decrement the
// current task's slice, rotate it to ready on expiry, decrement every
// sleeper's countdown and wake those reaching zero, then dispatch.
// Called by internal/timer's tick handler after it has already sent
// EOI, so a task switch here never starves the timer line.
func OnTick() {
	if cur := Current(); cur != nil && cur.PID != state.idle {
		cur.SliceTicks--
		if cur.SliceTicks <= 0 {
			cur.SliceTicks = DefaultSlice
			cur.State = Ready
			state.ready.pushBack(cur)
		}
	}

	expired := state.sleep.removeAll(func(t *TCB) bool {
		t.SleepTicks--
		return t.SleepTicks > 0
	})
	for _, t := range expired {
		t.State = Ready
		state.ready.pushBack(t)
	}

	Dispatch()
}

// Sleep moves the current task to the sleep list for ticks timer
// ticks and dispatches away from it. ticks <= 0 is a no-op.
func Sleep(ticks int) {
	if ticks <= 0 {
		return
	}
	cur := Current()
	cur.SleepTicks = ticks
	cur.State = Sleeping
	state.sleep.pushBack(cur)
	Dispatch()
}

// Yield voluntarily gives up the remainder of the current task's
// slice (spec.md §5's sys_yield preemption point).
func Yield() {
	cur := Current()
	cur.SliceTicks = DefaultSlice
	cur.State = Ready
	state.ready.pushBack(cur)
	Dispatch()
}
