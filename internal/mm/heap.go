package mm

import "fmt"

// Heap tracks one task's sbrk-managed region: [Start, End). Start is
// fixed at image-load time; End grows (never shrinks: negative incr is
// a non-goal per spec.md §4.2).
type Heap struct {
	Start, End uint32
}

// newlyTouchedPages returns the page-aligned addresses a growth from
// prevEnd to newEnd touches for the first time, given that everything
// up to and including the page containing start-1 is never part of
// the heap. Pulled out of Sbrk as pure arithmetic so it is testable
// without a physical allocator backing it.
func newlyTouchedPages(start, prevEnd, newEnd uint32) []uint32 {
	oldLastPage := (start - 1) >> PageShift
	if prevEnd > start {
		oldLastPage = (prevEnd - 1) >> PageShift
	}
	newLastPage := (newEnd - 1) >> PageShift

	var pages []uint32
	for p := oldLastPage + 1; p <= newLastPage; p++ {
		pages = append(pages, p<<PageShift)
	}
	return pages
}

// Sbrk increments End by incr and allocates any newly touched pages in
// as with user-writable permission, returning the previous End
// (spec.md §4.2). incr == 0 only queries. Negative increments are
// rejected as a non-goal.
func (m *Manager) Sbrk(as *AddressSpace, h *Heap, incr int32) (uint32, error) {
	if incr == 0 {
		return h.End, nil
	}
	if incr < 0 {
		return 0, fmt.Errorf("mm: Sbrk: shrinking the heap is not supported")
	}

	prevEnd := h.End
	newEnd := prevEnd + uint32(incr)

	for _, page := range newlyTouchedPages(h.Start, prevEnd, newEnd) {
		if _, err := m.AllocUserPage(as, page, PTEWritable); err != nil {
			return 0, fmt.Errorf("mm: Sbrk: %w", err)
		}
	}

	h.End = newEnd
	return prevEnd, nil
}
