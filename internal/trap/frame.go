// Package trap is the interrupt & exception dispatcher: the common
// save/restore trampoline's Go-visible frame type, a typed per-vector
// handler table, PIC (8259) programming, and the kernel/user fault
// policy (spec.md §4.5).
package trap

// Frame is the stack layout the assembly trampoline builds before
// calling into a typed Go handler, low address first (spec.md §6).
// Its field order is fixed by what the trampoline actually pushes and
// cannot be reordered without editing the trampoline to match.
type Frame struct {
	GS, FS, ES, DS     uint16 // pushed with PUSHW, two bytes each
	EDI, ESI, EBP      uint32
	ESPDummy           uint32
	EBX, EDX, ECX, EAX uint32
	Vector, ErrorCode  uint32
	EIP, CS, EFlags    uint32
	// ESP3/SS3 are only present when the fault came from CPL-3; a
	// handler must check CS's RPL bits before reading them.
	ESP3, SS3 uint32
}

// FromUserMode reports whether the interrupted context was CPL-3,
// decoded from the low two bits (RPL) of the saved CS.
func (f *Frame) FromUserMode() bool {
	return f.CS&0x3 == 3
}

// Handler is a typed per-vector exception/IRQ handler.
type Handler func(f *Frame)

const VectorCount = 256

var handlers [VectorCount]Handler

// Install registers handler for vector, overwriting any previous one.
func Install(vector int, handler Handler) {
	handlers[vector] = handler
}

// Dispatch is the single entry point the assembly trampoline calls
// with the frame it just built. Unregistered vectors fall through to
// the default exception policy.
func Dispatch(f *Frame) {
	if h := handlers[f.Vector]; h != nil {
		h(f)
		return
	}
	DefaultPolicy(f)
}
