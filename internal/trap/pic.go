package trap

import "github.com/octane-os/octane32/internal/cpu"

// Legacy cascaded 8259 PIC (spec.md §4.5/§6): primary at 0x20,
// secondary at 0xA0 chained through primary line 2.
const (
	picPrimaryCmd  = 0x20
	picPrimaryData = 0x21
	picSecondaryCmd  = 0xA0
	picSecondaryData = 0xA1

	icw1Init = 0x11 // cascade + ICW4
	icw4_8086 = 0x01

	// IRQBase is the vector the first hardware IRQ line is remapped
	// to, so it doesn't collide with the CPU exception vectors 0-31.
	IRQBase = 0x20

	eoiNonSpecific = 0x20
)

// InitPIC remaps both chips' IRQ bases to vector 0x20+n and masks
// every line except the secondary's cascade line (2).
func InitPIC() {
	cpu.Outb(picPrimaryCmd, icw1Init)
	cpu.Outb(picSecondaryCmd, icw1Init)
	cpu.Outb(picPrimaryData, IRQBase)
	cpu.Outb(picSecondaryData, IRQBase+8)
	cpu.Outb(picPrimaryData, 1<<2) // ICW3: secondary is on primary's IRQ2
	cpu.Outb(picSecondaryData, 2)  // ICW3: secondary's own cascade identity
	cpu.Outb(picPrimaryData, icw4_8086)
	cpu.Outb(picSecondaryData, icw4_8086)

	cpu.Outb(picPrimaryData, 0xFB) // mask all but IRQ2 (cascade)
	cpu.Outb(picSecondaryData, 0xFF)
}

// EnableIRQ unmasks irq (0-15) on the chip that owns it.
func EnableIRQ(irq int) {
	setMask(irq, false)
}

// DisableIRQ masks irq.
func DisableIRQ(irq int) {
	setMask(irq, true)
}

func setMask(irq int, masked bool) {
	port := uint16(picPrimaryData)
	bit := uint(irq)
	if irq >= 8 {
		port = picSecondaryData
		bit -= 8
	}
	cur := cpu.Inb(port)
	if masked {
		cur |= 1 << bit
	} else {
		cur &^= 1 << bit
	}
	cpu.Outb(port, cur)
}

// SendEOI writes the non-specific EOI to the chip(s) that own irq; an
// IRQ on the secondary chip needs an EOI on both chips.
func SendEOI(irq int) {
	if irq >= 8 {
		cpu.Outb(picSecondaryCmd, eoiNonSpecific)
	}
	cpu.Outb(picPrimaryCmd, eoiNonSpecific)
}
