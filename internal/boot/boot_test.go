package boot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLargestRegionPicksBiggestOfSeveral(t *testing.T) {
	h := &HardwareInfo{RegionCount: 3}
	h.Regions[0] = RAMRegion{Start: 0x100000, Size: 0x400000}
	h.Regions[1] = RAMRegion{Start: 0x600000, Size: 0x2000000}
	h.Regions[2] = RAMRegion{Start: 0x2700000, Size: 0x10000}

	got := h.LargestRegion()
	assert.Equal(t, uint32(0x600000), got.Start)
	assert.Equal(t, uint32(0x2000000), got.Size)
}

func TestLargestRegionZeroRegionsReturnsZeroValue(t *testing.T) {
	h := &HardwareInfo{}
	assert.Equal(t, RAMRegion{}, h.LargestRegion())
}
