// Package boot holds the hardware hand-off the boot loader leaves
// behind before transferring control to the kernel (spec.md §6): a
// count of usable RAM regions and each region's (start, size).
package boot

import "github.com/octane-os/octane32/internal/klog"

// MaxRAMRegions bounds the fixed-size region table the boot loader is
// expected to have already populated in memory by the time the kernel
// reads it.
const MaxRAMRegions = 16

// RAMRegion is one usable physical range.
type RAMRegion struct {
	Start, Size uint32
}

// HardwareInfo is the fixed-layout record handed off across the
// boot-loader-to-kernel privilege transition (spec.md §6); the kernel
// only ever reads it, never writes it back.
type HardwareInfo struct {
	RegionCount int
	Regions     [MaxRAMRegions]RAMRegion
}

// LargestRegion returns the biggest usable RAM region, which the
// kernel uses to size its physical bitmap allocator.
func (h *HardwareInfo) LargestRegion() RAMRegion {
	var best RAMRegion
	for i := 0; i < h.RegionCount; i++ {
		if h.Regions[i].Size > best.Size {
			best = h.Regions[i]
		}
	}
	return best
}

// Validate halts if the hand-off record reports zero usable regions
// (spec.md §6: "halts if the count is zero"), the one condition this
// kernel cannot recover from by any other means.
func Validate(h *HardwareInfo) {
	if h.RegionCount == 0 {
		klog.Fatalf("boot: hardware-info record reports zero usable RAM regions")
	}
}
