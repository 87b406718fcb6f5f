// Package device is the device-abstraction and TTY layer (spec.md
// §4.7): a major-number-indexed driver table, minor numbers
// disambiguating instances, and a cooked-mode TTY line discipline
// sitting on top of interrupt-safe byte FIFOs.
package device

import "github.com/octane-os/octane32/internal/cpu"

// FIFO is a fixed-capacity byte ring buffer. put/get are protected by
// briefly disabling interrupts rather than a blocking lock (spec.md
// §4.7/§5): a keyboard IRQ handler calling Put must never contend with
// a scheduler-level lock that could itself be held by code the IRQ
// preempted.
type FIFO struct {
	buf        []byte
	head, tail int
	count      int
}

// NewFIFO allocates a FIFO of the given capacity.
func NewFIFO(capacity int) *FIFO {
	return &FIFO{buf: make([]byte, capacity)}
}

// Put appends b, reporting false if the FIFO is full.
func (f *FIFO) Put(b byte) bool {
	saved := cpu.EnterProtection()
	defer cpu.LeaveProtection(saved)
	return f.put(b)
}

func (f *FIFO) put(b byte) bool {
	if f.count == len(f.buf) {
		return false
	}
	f.buf[f.tail] = b
	f.tail = (f.tail + 1) % len(f.buf)
	f.count++
	return true
}

// Get removes and returns the oldest byte, reporting false if empty.
func (f *FIFO) Get() (byte, bool) {
	saved := cpu.EnterProtection()
	defer cpu.LeaveProtection(saved)
	return f.get()
}

func (f *FIFO) get() (byte, bool) {
	if f.count == 0 {
		return 0, false
	}
	b := f.buf[f.head]
	f.head = (f.head + 1) % len(f.buf)
	f.count--
	return b, true
}

// Len reports how many bytes are currently queued.
func (f *FIFO) Len() int {
	saved := cpu.EnterProtection()
	defer cpu.LeaveProtection(saved)
	return f.count
}

// Free reports how much capacity remains.
func (f *FIFO) Free() int {
	saved := cpu.EnterProtection()
	defer cpu.LeaveProtection(saved)
	return len(f.buf) - f.count
}
