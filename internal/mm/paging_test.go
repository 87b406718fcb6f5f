package mm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPTEPackUnpack(t *testing.T) {
	e := NewPTE(0x00123000, PTEWritable|PTEUser)
	assert.True(t, e.Present())
	assert.True(t, e.Writable())
	assert.True(t, e.User())
	assert.Equal(t, uint32(0x00123000), e.Frame())
}

func TestPTEFrameMasksOffLowBits(t *testing.T) {
	e := NewPTE(0xABCDE123, 0)
	assert.Equal(t, uint32(0xABCDE000), e.Frame())
}

func TestSbrkQueryDoesNotTouchPages(t *testing.T) {
	pages := newlyTouchedPages(0x80000000, 0x80000000, 0x80000000)
	assert.Empty(t, pages)
}

func TestSbrkCrossingOnePageBoundaryTouchesExactlyOnePage(t *testing.T) {
	start := uint32(0x80000000)    // page-aligned heap start
	prevEnd := start + 16          // heap already reaches into its first page
	newEnd := start + PageSize + 4 // spans exactly one boundary

	pages := newlyTouchedPages(start, prevEnd, newEnd)
	assert.Len(t, pages, 1)
	assert.Equal(t, start+PageSize, pages[0])
}

func TestSbrkWithinSamePageTouchesNoNewPages(t *testing.T) {
	start := uint32(0x80000000)
	// First grow touches page 0.
	first := newlyTouchedPages(start, start, start+16)
	assert.Len(t, first, 1)

	// Growing further within the same page touches nothing new.
	second := newlyTouchedPages(start, start+16, start+64)
	assert.Empty(t, second)
}

func TestSbrkMultiPageGrowthTouchesEachNewPageOnce(t *testing.T) {
	start := uint32(0x80000000)
	pages := newlyTouchedPages(start, start, start+3*PageSize+1)
	assert.Len(t, pages, 4)
	for i, p := range pages {
		assert.Equal(t, start+uint32(i)*PageSize, p)
	}
}
