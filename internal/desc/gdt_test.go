package desc

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstallSegmentFlatDescriptor(t *testing.T) {
	var tbl Table
	tbl.InstallSegment(10, 0, 0xFFFFFFFF, accPresent|accDPL0|accSystem|accExecute|accRW, flag32Bit)

	assert.Equal(t, byte(accPresent|accDPL0|accSystem|accExecute|accRW), tbl.access[10])
	// Limit > 0xFFFFF must flip granularity and scale by 4KiB.
	// The flag nibble is packed into the high half of byte 6.
	assert.NotZero(t, tbl.entries[10][6]&(flagGranularity<<4))
}

func TestAllocFreeSlotRoundTrip(t *testing.T) {
	var tbl Table
	sel, err := tbl.AllocSlot()
	require.NoError(t, err)
	assert.Equal(t, sel, sel&^7, "selector must be 8-byte aligned")

	second, err := tbl.AllocSlot()
	require.NoError(t, err)
	assert.NotEqual(t, sel, second, "must not hand out the same slot twice")

	tbl.FreeSlot(sel)
	third, err := tbl.AllocSlot()
	require.NoError(t, err)
	assert.Equal(t, sel, third, "freed slot must be reused before scanning further")
}

func TestAllocSlotExhaustion(t *testing.T) {
	var tbl Table
	for i := firstDynamicSlot; i < GDTSize; i++ {
		_, err := tbl.AllocSlot()
		require.NoError(t, err)
	}
	_, err := tbl.AllocSlot()
	assert.Error(t, err, "table full must report an error, not panic")
}

func TestTSSSizeMatchesHardwareLayout(t *testing.T) {
	assert.Equal(t, unsafeSizeofTSS, int(unsafe.Sizeof(TSS{})))
}

func TestPseudoDescriptorLimitIsSizeMinusOne(t *testing.T) {
	var tbl Table
	p := tbl.PseudoPtr()
	assert.Equal(t, uint16(GDTSize*entrySize-1), p.Limit)
}
