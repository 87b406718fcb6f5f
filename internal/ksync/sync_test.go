package ksync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeScheduler is a minimal, host-testable stand-in for
// internal/sched satisfying the Scheduler interface, so Semaphore and
// Mutex FIFO/recursion behaviour can be asserted without a real task
// pool or hardware task switch.
type fakeScheduler struct {
	current  Waiter
	blocked  map[Waiter]bool
	woken    []Waiter
	dispatch int
}

func newFakeScheduler(current Waiter) *fakeScheduler {
	return &fakeScheduler{current: current, blocked: map[Waiter]bool{}}
}

func (f *fakeScheduler) Current() Waiter { return f.current }
func (f *fakeScheduler) Block(w Waiter)  { f.blocked[w] = true }
func (f *fakeScheduler) Wake(w Waiter) {
	delete(f.blocked, w)
	f.woken = append(f.woken, w)
}
func (f *fakeScheduler) Dispatch() { f.dispatch++ }

func TestSemaphoreWaitDecrementsWhenPositive(t *testing.T) {
	fs := newFakeScheduler("taskA")
	SetScheduler(fs)
	s := NewSemaphore(1)

	s.Wait()
	assert.Equal(t, int32(0), s.Count())
	assert.Empty(t, fs.blocked)
}

func TestSemaphoreWaitBlocksWhenZero(t *testing.T) {
	fs := newFakeScheduler("taskA")
	SetScheduler(fs)
	s := NewSemaphore(0)

	s.Wait()
	assert.True(t, fs.blocked["taskA"])
	assert.Equal(t, 1, s.Waiting())
}

func TestSemaphoreNotifyFIFOOrder(t *testing.T) {
	fs := newFakeScheduler("taskA")
	SetScheduler(fs)
	s := NewSemaphore(0)

	fs.current = "taskA"
	s.Wait()
	fs.current = "taskB"
	s.Wait()

	s.Notify()
	s.Notify()

	require.Len(t, fs.woken, 2)
	assert.Equal(t, []Waiter{"taskA", "taskB"}, fs.woken, "wake order must match arrival order")
}

func TestSemaphoreNotifyWithNoWaitersIncrementsCount(t *testing.T) {
	fs := newFakeScheduler("taskA")
	SetScheduler(fs)
	s := NewSemaphore(0)

	s.Notify()
	assert.Equal(t, int32(1), s.Count())
}

func TestSemaphoreWaitNotifyPairLeavesCountUnchanged(t *testing.T) {
	fs := newFakeScheduler("taskA")
	SetScheduler(fs)
	s := NewSemaphore(3)

	s.Wait()
	s.Notify()
	assert.Equal(t, int32(3), s.Count())
}

func TestMutexRecursiveLockUnlock(t *testing.T) {
	fs := newFakeScheduler("taskA")
	SetScheduler(fs)
	var m Mutex

	m.Lock()
	m.Lock()
	m.Lock()
	assert.Equal(t, Waiter("taskA"), m.Owner())
	assert.Equal(t, int32(3), m.Count())

	m.Unlock()
	assert.Equal(t, Waiter("taskA"), m.Owner(), "still owned after partial unlock")
	m.Unlock()
	m.Unlock()
	assert.Nil(t, m.Owner())
}

func TestMutexSecondTaskBlocksUntilFinalUnlock(t *testing.T) {
	fs := newFakeScheduler("taskA")
	SetScheduler(fs)
	var m Mutex

	m.Lock()
	m.Lock()

	fs.current = "taskB"
	m.Lock() // must block: taskA owns it
	assert.True(t, fs.blocked["taskB"])

	fs.current = "taskA"
	m.Unlock() // count 2->1, still owned by taskA
	assert.Empty(t, fs.woken)

	m.Unlock() // count 1->0, hands off to taskB
	require.Len(t, fs.woken, 1)
	assert.Equal(t, Waiter("taskB"), fs.woken[0])
	assert.Equal(t, Waiter("taskB"), m.Owner())
	assert.Equal(t, int32(1), m.Count())
}

func TestMutexUnlockByNonOwnerPanics(t *testing.T) {
	fs := newFakeScheduler("taskA")
	SetScheduler(fs)
	var m Mutex
	m.Lock()

	fs.current = "taskB"
	assert.Panics(t, func() { m.Unlock() })
}

func TestSpinlockMutualExclusion(t *testing.T) {
	var sl Spinlock
	sl.Lock()
	sl.Unlock()
	sl.Lock()
	sl.Unlock()
}

func TestAtomic32AddAndCompareAndSwap(t *testing.T) {
	var a Atomic32
	a.Store(5)
	assert.Equal(t, int32(7), a.Add(2))
	assert.True(t, a.CompareAndSwap(7, 10))
	assert.False(t, a.CompareAndSwap(7, 99))
	assert.Equal(t, int32(10), a.Load())
}
