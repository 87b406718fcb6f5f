// Package timer programs the 8253/8254 programmable interval timer
// and counts ticks, driving the scheduler's time accounting (spec.md
// §4.8).
package timer

import (
	"github.com/octane-os/octane32/internal/cpu"
	"github.com/octane-os/octane32/internal/ksync"
	"github.com/octane-os/octane32/internal/trap"
)

const (
	channel0Data = 0x40
	commandPort  = 0x43

	// modeSquareWave is PIT mode 3, the spec's chosen waveform.
	modeSquareWave = 3
	// selectChannel0 | accessLoHi | modeSquareWave | binaryMode, packed
	// per the 8253 command-byte layout (spec.md §6).
	cmdByte = 0<<6 | 3<<4 | modeSquareWave<<1 | 0

	// BaseFrequency is the PIT's fixed oscillator, ~1.193182 MHz
	// (spec.md §6).
	BaseFrequency = 1193182

	// IRQ is the legacy timer line (IRQ0), vector trap.IRQBase+0 once
	// remapped.
	IRQ = 0

	// DefaultTickMS matches spec.md §4.8's default.
	DefaultTickMS = 10
)

var ticks ksync.Atomic32

// divisorFor computes the PIT reload value for the requested tick
// period, split out as pure arithmetic so it is testable without
// touching any I/O port.
func divisorFor(tickMS int) uint16 {
	d := BaseFrequency / (1000 / tickMS)
	if d > 0xFFFF {
		d = 0xFFFF
	}
	if d == 0 {
		d = 1
	}
	return uint16(d)
}

// Init programs channel 0 for a tick every tickMS milliseconds and
// installs the tick handler on vector trap.IRQBase+IRQ.
func Init(tickMS int) {
	divisor := divisorFor(tickMS)
	cpu.Outb(commandPort, cmdByte)
	cpu.Outb(channel0Data, byte(divisor))
	cpu.Outb(channel0Data, byte(divisor>>8))

	trap.Install(trap.IRQBase+IRQ, handleTick)
	trap.EnableIRQ(IRQ)
}

// handleTick is the IRQ0 entry: send EOI first so a task switch taken
// from inside the scheduler logic below never starves this line
// (spec.md §4.8), then bump the tick count and run time accounting.
func handleTick(f *trap.Frame) {
	trap.SendEOI(IRQ)
	ticks.Add(1)
	onTick()
}

// onTick is a package variable so cmd/kernel can wire it to
// sched.OnTick without this package importing sched, a coupling this
// indirection avoids.
var onTick = func() {}

// SetTickFunc registers the scheduler callback onTick invokes.
func SetTickFunc(f func()) { onTick = f }

// Ticks returns the total ticks observed since Init.
func Ticks() int32 { return ticks.Load() }
