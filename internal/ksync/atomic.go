package ksync

import "sync/atomic"

// Atomic32 is a single volatile word modified with locked
// read-modify-write instructions (spec.md §3). It wraps sync/atomic
// rather than a hand-rolled LOCK-prefixed asm routine because this
// kernel is single-CPU (spec.md §5); the memory-model guarantees
// sync/atomic already gives a uniprocessor are sufficient and the
// teacher's own internal/runtime/atomic usage (os_cosmo.go's
// needPerThreadSyscall atomic.Uint8) is the precedent for reaching for
// the atomic-word abstraction instead of raw asm at this layer.
type Atomic32 struct {
	v int32
}

func (a *Atomic32) Load() int32  { return atomic.LoadInt32(&a.v) }
func (a *Atomic32) Store(v int32) { atomic.StoreInt32(&a.v, v) }
func (a *Atomic32) Add(delta int32) int32 {
	return atomic.AddInt32(&a.v, delta)
}
func (a *Atomic32) CompareAndSwap(old, new int32) bool {
	return atomic.CompareAndSwapInt32(&a.v, old, new)
}
func (a *Atomic32) Swap(new int32) int32 {
	return atomic.SwapInt32(&a.v, new)
}
